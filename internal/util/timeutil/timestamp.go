package timeutil

import "time"

// DateTimeFormat renders timestamps for human-readable output
const DateTimeFormat = "2006-01-02 15:04:05"

// Now returns the current time. This can be overridden for testing.
var Now = func() time.Time {
	return time.Now()
}

// EpochUTC returns the Unix epoch time in UTC
func EpochUTC() time.Time {
	return time.Unix(0, 0).UTC()
}

// IsEpoch returns true if the time is the Unix epoch
func IsEpoch(t time.Time) bool {
	return t.Equal(EpochUTC()) || t.IsZero()
}

// ToUTC converts a time to UTC timezone
func ToUTC(t time.Time) time.Time {
	return t.UTC()
}

// FormatTimestamp renders a statistics collection time for display
func FormatTimestamp(t time.Time) string {
	return ToUTC(t).Format(DateTimeFormat)
}
