package timeutil

import (
	"testing"
	"time"
)

func TestNowOverride(t *testing.T) {
	fixed := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	original := Now
	defer func() { Now = original }()

	Now = func() time.Time { return fixed }

	if !Now().Equal(fixed) {
		t.Errorf("expected overridden Now to return %v, got %v", fixed, Now())
	}
}

func TestIsEpoch(t *testing.T) {
	tests := []struct {
		name     string
		input    time.Time
		expected bool
	}{
		{"epoch", time.Unix(0, 0), true},
		{"epoch UTC", EpochUTC(), true},
		{"zero value", time.Time{}, true},
		{"current time", time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsEpoch(tt.input); got != tt.expected {
				t.Errorf("IsEpoch(%v) = %v, want %v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestFormatTimestamp(t *testing.T) {
	loc := time.FixedZone("UTC+2", 2*60*60)
	ts := time.Date(2025, 6, 1, 14, 30, 0, 0, loc)

	if got := FormatTimestamp(ts); got != "2025-06-01 12:30:00" {
		t.Errorf("FormatTimestamp = %q, want %q", got, "2025-06-01 12:30:00")
	}
}
