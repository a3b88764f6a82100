package feature

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
)

// Flag represents a feature flag
type Flag string

// Feature flags for QuantaGraph
const (
	// Planner Flags
	IndexSeekSelection Flag = "index_seek_selection"
	CostBasedAnchoring Flag = "cost_based_anchoring"

	// Monitoring & Debug
	PlanLogging Flag = "plan_logging"
)

// FlagMetadata contains metadata about a feature flag
type FlagMetadata struct {
	Name         Flag
	Description  string
	DefaultValue bool
	Category     string
	Stability    string // "stable", "beta", "experimental"
}

// Manager manages feature flags
type Manager struct {
	flags    map[Flag]*flagState
	mu       sync.RWMutex
	metadata map[Flag]*FlagMetadata
}

// flagState represents the state of a single flag
type flagState struct {
	enabled    atomic.Bool
	overridden bool
	envVar     string
}

// Global feature flag manager
var globalManager = newManager()

// newManager creates a new feature flag manager
func newManager() *Manager {
	m := &Manager{
		flags:    make(map[Flag]*flagState),
		metadata: make(map[Flag]*FlagMetadata),
	}

	m.registerFlags()
	m.loadFromEnvironment()

	return m
}

// registerFlags registers all feature flags with their metadata
func (m *Manager) registerFlags() {
	m.register(IndexSeekSelection, &FlagMetadata{
		Name:         IndexSeekSelection,
		Description:  "Consider index seeks as pattern anchor candidates",
		DefaultValue: true,
		Category:     "planner",
		Stability:    "stable",
	})

	m.register(CostBasedAnchoring, &FlagMetadata{
		Name:         CostBasedAnchoring,
		Description:  "Anchor patterns on the endpoint with the lower estimated cardinality",
		DefaultValue: true,
		Category:     "planner",
		Stability:    "stable",
	})

	m.register(PlanLogging, &FlagMetadata{
		Name:         PlanLogging,
		Description:  "Log planned patterns with their cardinality estimates",
		DefaultValue: true,
		Category:     "debug",
		Stability:    "stable",
	})
}

// register adds a flag to the manager
func (m *Manager) register(flag Flag, metadata *FlagMetadata) {
	state := &flagState{envVar: flagToEnvVar(flag)}
	state.enabled.Store(metadata.DefaultValue)

	m.flags[flag] = state
	m.metadata[flag] = metadata
}

// loadFromEnvironment loads flag values from environment variables
func (m *Manager) loadFromEnvironment() {
	for _, state := range m.flags {
		if val := os.Getenv(state.envVar); val != "" {
			if enabled, err := strconv.ParseBool(val); err == nil {
				state.enabled.Store(enabled)
				state.overridden = true
			}
		}
	}
}

// IsEnabled checks if a feature flag is enabled
func IsEnabled(flag Flag) bool {
	return globalManager.IsEnabled(flag)
}

// IsEnabled checks if a feature flag is enabled
func (m *Manager) IsEnabled(flag Flag) bool {
	m.mu.RLock()
	state, exists := m.flags[flag]
	m.mu.RUnlock()

	if !exists {
		return false
	}

	return state.enabled.Load()
}

// Enable enables a feature flag
func Enable(flag Flag) {
	globalManager.Enable(flag)
}

// Enable enables a feature flag
func (m *Manager) Enable(flag Flag) {
	m.setFlag(flag, true)
}

// Disable disables a feature flag
func Disable(flag Flag) {
	globalManager.Disable(flag)
}

// Disable disables a feature flag
func (m *Manager) Disable(flag Flag) {
	m.setFlag(flag, false)
}

// setFlag sets a flag value
func (m *Manager) setFlag(flag Flag, enabled bool) {
	m.mu.RLock()
	state, exists := m.flags[flag]
	m.mu.RUnlock()

	if !exists {
		return
	}

	state.enabled.Store(enabled)
}

// GetAll returns all flag states
func GetAll() map[Flag]bool {
	return globalManager.GetAll()
}

// GetAll returns all flag states
func (m *Manager) GetAll() map[Flag]bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make(map[Flag]bool)
	for flag, state := range m.flags {
		result[flag] = state.enabled.Load()
	}
	return result
}

// GetMetadata returns metadata for a flag
func GetMetadata(flag Flag) (*FlagMetadata, bool) {
	return globalManager.GetMetadata(flag)
}

// GetMetadata returns metadata for a flag
func (m *Manager) GetMetadata(flag Flag) (*FlagMetadata, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	metadata, exists := m.metadata[flag]
	return metadata, exists
}

// Reset resets all flags to their default values
func Reset() {
	globalManager.Reset()
}

// Reset resets all flags to their default values
func (m *Manager) Reset() {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for flag, state := range m.flags {
		if metadata, exists := m.metadata[flag]; exists {
			state.enabled.Store(metadata.DefaultValue)
			state.overridden = false
		}
	}
}

// flagToEnvVar converts a flag name to an environment variable name
func flagToEnvVar(flag Flag) string {
	return fmt.Sprintf("QUANTAGRAPH_FEATURE_%s", strings.ToUpper(string(flag)))
}

// DebugString returns a debug string with all flag states
func DebugString() string {
	return globalManager.DebugString()
}

// DebugString returns a debug string with all flag states
func (m *Manager) DebugString() string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var b strings.Builder
	b.WriteString("Feature Flags:\n")

	flags := make([]Flag, 0, len(m.metadata))
	for flag := range m.metadata {
		flags = append(flags, flag)
	}
	sort.Slice(flags, func(i, j int) bool { return flags[i] < flags[j] })

	for _, flag := range flags {
		state := m.flags[flag]
		metadata := m.metadata[flag]

		status := "disabled"
		if state.enabled.Load() {
			status = "enabled"
		}

		override := ""
		if state.overridden {
			override = " (overridden)"
		}

		b.WriteString(fmt.Sprintf("  %-24s: %-8s [%s]%s - %s\n",
			flag, status, metadata.Stability, override, metadata.Description))
	}

	return b.String()
}
