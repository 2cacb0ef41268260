// Package config provides run configuration for the fact pipeline.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Configuration validation errors.
var (
	ErrInvalidDefaultCurrency = errors.New("pipeline.default_currency must be a 3-letter ISO code")
	ErrEmptyWonStages         = errors.New("pipeline.won_stages must name at least one stage")
	ErrEmptyLostStages        = errors.New("pipeline.lost_stages must name at least one stage")
	ErrOverlappingStageSets   = errors.New("pipeline.won_stages and lost_stages must be disjoint")
	ErrMissingOutputDir       = errors.New("output.dir is required")
)

// Config represents the complete run configuration.
type Config struct {
	Pipeline PipelineConfig `yaml:"pipeline"`
	Output   OutputConfig   `yaml:"output"`
}

// PipelineConfig contains transform settings.
type PipelineConfig struct {
	DefaultCurrency string   `yaml:"default_currency"`
	WonStages       []string `yaml:"won_stages"`
	LostStages      []string `yaml:"lost_stages"`
}

// OutputConfig defines where run artifacts land.
type OutputConfig struct {
	Dir string `yaml:"dir"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Pipeline: PipelineConfig{
			DefaultCurrency: "USD",
			WonStages:       []string{"Closed Won"},
			LostStages:      []string{"Closed Lost"},
		},
		Output: OutputConfig{Dir: "out"},
	}
}

// LoadConfig loads configuration from a YAML file. Omitted fields fall back
// to the defaults.
func LoadConfig(filepath string) (*Config, error) {
	data, err := os.ReadFile(filepath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if len(c.Pipeline.DefaultCurrency) != 3 {
		return ErrInvalidDefaultCurrency
	}

	if len(c.Pipeline.WonStages) == 0 {
		return ErrEmptyWonStages
	}
	if len(c.Pipeline.LostStages) == 0 {
		return ErrEmptyLostStages
	}

	won := make(map[string]struct{}, len(c.Pipeline.WonStages))
	for _, s := range c.Pipeline.WonStages {
		won[s] = struct{}{}
	}
	for _, s := range c.Pipeline.LostStages {
		if _, overlap := won[s]; overlap {
			return fmt.Errorf("%w: %q", ErrOverlappingStageSets, s)
		}
	}

	if c.Output.Dir == "" {
		return ErrMissingOutputDir
	}

	return nil
}

// String returns a string representation of the config.
func (c *Config) String() string {
	return fmt.Sprintf(
		"Config{DefaultCurrency: %s, WonStages: [%s], LostStages: [%s], OutputDir: %s}",
		c.Pipeline.DefaultCurrency,
		strings.Join(c.Pipeline.WonStages, ", "),
		strings.Join(c.Pipeline.LostStages, ", "),
		c.Output.Dir,
	)
}
