package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/dshills/QuantaGraph/internal/log"
)

// Config represents the complete compiler configuration.
type Config struct {
	// Logging configuration
	Log log.Config `yaml:"log"`

	// Statistics snapshot used by the cost model when no catalog is
	// supplied explicitly.
	StatsFile string `yaml:"stats_file"`

	// Planner configuration
	Planner PlannerConfig `yaml:"planner"`
}

// PlannerConfig represents planner-specific configuration.
type PlannerConfig struct {
	// Upper bound on aggregation-isolation fixed-point iterations.
	MaxIsolationIterations int `yaml:"max_isolation_iterations"`

	// Selectivity assumed for predicates with no statistics backing.
	DefaultSelectivity float64 `yaml:"default_selectivity"`

	// Row count assumed for a graph with no statistics snapshot.
	DefaultNodeCount int64 `yaml:"default_node_count"`
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Log:       log.DefaultConfig(),
		StatsFile: "",
		Planner: PlannerConfig{
			MaxIsolationIterations: 100,
			DefaultSelectivity:     0.1,
			DefaultNodeCount:       1000,
		},
	}
}

// LoadFromFile loads configuration from a YAML file, starting from defaults.
func LoadFromFile(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	if c.Planner.MaxIsolationIterations <= 0 {
		return fmt.Errorf("planner.max_isolation_iterations must be positive, got %d", c.Planner.MaxIsolationIterations)
	}
	if c.Planner.DefaultSelectivity <= 0 || c.Planner.DefaultSelectivity > 1 {
		return fmt.Errorf("planner.default_selectivity must be in (0, 1], got %g", c.Planner.DefaultSelectivity)
	}
	if c.Planner.DefaultNodeCount <= 0 {
		return fmt.Errorf("planner.default_node_count must be positive, got %d", c.Planner.DefaultNodeCount)
	}
	return nil
}
