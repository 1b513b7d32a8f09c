// Package config loads and validates the evaluator configuration.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/szaher/exlang/internal/optimizer"
	"github.com/szaher/exlang/internal/optimizer/dynamic"
)

// Config holds the tunables for the accessor optimization policy.
type Config struct {
	// TenuringThreshold is the run count a node must exceed inside a
	// single time window before it is promoted.
	TenuringThreshold int `yaml:"tenuring_threshold" json:"tenuring_threshold"`

	// TimeWindow bounds how recent the accumulated run count must be
	// for promotion to trigger.
	TimeWindow time.Duration `yaml:"time_window" json:"time_window"`

	// TenureLimit caps how many promoted accessors stay resident
	// before a bulk eviction runs.
	TenureLimit int `yaml:"tenure_limit" json:"tenure_limit"`

	// DefaultTier names the optimizer tier new accessors compile
	// with. Empty selects the dynamic tier when installed.
	DefaultTier string `yaml:"default_tier,omitempty" json:"default_tier,omitempty"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level,omitempty" json:"log_level,omitempty"`
}

// Default returns the configuration with stock policy values.
func Default() *Config {
	return &Config{
		TenuringThreshold: dynamic.DefaultTenuringThreshold,
		TimeWindow:        dynamic.DefaultTimeWindow,
		TenureLimit:       dynamic.DefaultTenureLimit,
		LogLevel:          "info",
	}
}

// Load reads and parses a configuration file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	return Parse(data)
}

// Parse parses configuration data from YAML bytes. Unset fields keep
// their default values.
func Parse(data []byte) (*Config, error) {
	c := Default()
	if err := yaml.Unmarshal(data, c); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// UnmarshalYAML decodes the file form, where time_window is a
// duration string like "100ms". Absent fields keep their current
// values, so parsing on top of Default preserves the stock tuning.
func (c *Config) UnmarshalYAML(node *yaml.Node) error {
	var raw struct {
		TenuringThreshold *int   `yaml:"tenuring_threshold"`
		TimeWindow        string `yaml:"time_window"`
		TenureLimit       *int   `yaml:"tenure_limit"`
		DefaultTier       string `yaml:"default_tier"`
		LogLevel          string `yaml:"log_level"`
	}
	if err := node.Decode(&raw); err != nil {
		return err
	}
	if raw.TenuringThreshold != nil {
		c.TenuringThreshold = *raw.TenuringThreshold
	}
	if raw.TimeWindow != "" {
		d, err := time.ParseDuration(raw.TimeWindow)
		if err != nil {
			return fmt.Errorf("config: time_window: %w", err)
		}
		c.TimeWindow = d
	}
	if raw.TenureLimit != nil {
		c.TenureLimit = *raw.TenureLimit
	}
	if raw.DefaultTier != "" {
		c.DefaultTier = raw.DefaultTier
	}
	if raw.LogLevel != "" {
		c.LogLevel = raw.LogLevel
	}
	return nil
}

// Validate checks that the configuration values are usable.
func (c *Config) Validate() error {
	if c.TenuringThreshold < 0 {
		return fmt.Errorf("config: tenuring_threshold must not be negative")
	}
	if c.TimeWindow <= 0 {
		return fmt.Errorf("config: time_window must be positive")
	}
	if c.TenureLimit <= 0 {
		return fmt.Errorf("config: tenure_limit must be positive")
	}
	switch c.DefaultTier {
	case "", optimizer.TierSafe, optimizer.TierSpecialized, dynamic.TierName:
	default:
		return fmt.Errorf("config: unknown default_tier %q", c.DefaultTier)
	}
	switch c.LogLevel {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config: unknown log_level %q", c.LogLevel)
	}
	return nil
}

// Apply configures the given policy from this configuration.
func (c *Config) Apply(policy *dynamic.Optimizer) {
	policy.SetTenuringThreshold(c.TenuringThreshold)
	policy.SetTimeWindow(c.TimeWindow)
	policy.SetTenureLimit(c.TenureLimit)
}
