// Package config provides configuration loading and management for
// sim2widefield. It handles loading configuration from YAML files and
// provides default values.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration loaded from YAML
type Config struct {
	// Acquisition geometry of the raw stack
	Acquisition struct {
		// Phases is the number of illumination phases per angle
		Phases int `yaml:"phases"`

		// Angles is the number of illumination angles
		Angles int `yaml:"angles"`

		// Channels is the number of acquisition channels
		Channels int `yaml:"channels"`

		// Frames is the number of time frames
		Frames int `yaml:"frames"`
	} `yaml:"acquisition"`

	// Processing parameters
	Processing struct {
		// Parallel enables averaging independent plane groups concurrently
		Parallel bool `yaml:"parallel"`

		// Workers is the number of goroutines used when Parallel is set
		Workers int `yaml:"workers"`
	} `yaml:"processing"`

	// Output parameters
	Output struct {
		// Format is the plane image format, "png" or "tiff"
		Format string `yaml:"format"`

		// SaveDefaultView writes the suggested default-view plane next to
		// the output sequence
		SaveDefaultView bool `yaml:"saveDefaultView"`

		// Verbose controls the level of logging output
		Verbose bool `yaml:"verbose"`
	} `yaml:"output"`
}

// DefaultConfig returns a configuration with default values. The phase and
// angle defaults match the API OMX acquisition convention (5 phases,
// 3 angles).
func DefaultConfig() *Config {
	cfg := &Config{}

	cfg.Acquisition.Phases = 5
	cfg.Acquisition.Angles = 3
	cfg.Acquisition.Channels = 1
	cfg.Acquisition.Frames = 1

	cfg.Processing.Parallel = false
	cfg.Processing.Workers = runtime.NumCPU()

	cfg.Output.Format = "tiff"
	cfg.Output.SaveDefaultView = true
	cfg.Output.Verbose = true

	return cfg
}

// LoadConfig loads configuration from a YAML file.
// If the file doesn't exist, it returns the default configuration.
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return cfg, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	return cfg, nil
}

// SaveConfig saves the configuration to a YAML file
func SaveConfig(cfg *Config, configPath string) error {
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("error marshaling config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("error writing config file: %w", err)
	}

	return nil
}

// CreateDefaultConfigFile creates a default configuration file at the
// specified path
func CreateDefaultConfigFile(configPath string) error {
	return SaveConfig(DefaultConfig(), configPath)
}
