// Package config provides configuration loading and management for pmpshapes.
// It handles loading configuration from YAML files and provides default values.
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
	// Input parameters
	Input struct {
		// Path is the sIMPLE particle file to parse
		Path string `yaml:"path"`

		// NameEncoding selects the charmap for particle names
		// (windows-1252, latin1 or raw)
		NameEncoding string `yaml:"nameEncoding"`
	} `yaml:"input"`

	// Processing parameters
	Processing struct {
		// NumCores specifies how many particles are analysed concurrently
		NumCores int `yaml:"numCores"`

		// MaxMaskPixels is the largest reconstructed mask accepted. It also
		// bounds the mask cells held by all particles in flight.
		MaxMaskPixels int `yaml:"maxMaskPixels"`

		// IntegerAspectRatio truncates width/height like the instrument software
		IntegerAspectRatio bool `yaml:"integerAspectRatio"`
	} `yaml:"processing"`

	// Output parameters
	Output struct {
		// Dir receives particle and contour images
		Dir string `yaml:"dir"`

		// CSVPath is the descriptor table, recreated on every run
		CSVPath string `yaml:"csvPath"`

		// SQLitePath optionally stores descriptors in a database (empty disables)
		SQLitePath string `yaml:"sqlitePath"`

		// PlotDir optionally receives descriptor plots (empty disables)
		PlotDir string `yaml:"plotDir"`

		// SaveParticleImages writes images/particle_<n>.png
		SaveParticleImages bool `yaml:"saveParticleImages"`

		// SaveContourImages writes images/contour_<k>.png
		SaveContourImages bool `yaml:"saveContourImages"`

		// Verbose controls the level of logging output
		Verbose bool `yaml:"verbose"`
	} `yaml:"output"`
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	cfg := &Config{}

	cfg.Input.Path = "T1_1.pmp"
	cfg.Input.NameEncoding = "windows-1252"

	cfg.Processing.NumCores = runtime.NumCPU() // Use all available cores by default
	cfg.Processing.MaxMaskPixels = 1 << 24
	cfg.Processing.IntegerAspectRatio = false

	cfg.Output.Dir = "images"
	cfg.Output.CSVPath = "particle_shapes.csv"
	cfg.Output.SaveParticleImages = true
	cfg.Output.SaveContourImages = true
	cfg.Output.Verbose = false

	return cfg
}

// Validate checks that the configuration can drive a run
func (c *Config) Validate() error {
	if c.Input.Path == "" {
		return fmt.Errorf("input path is required")
	}
	if c.Output.CSVPath == "" {
		return fmt.Errorf("csv path is required")
	}
	if c.Output.Dir == "" && (c.Output.SaveParticleImages || c.Output.SaveContourImages) {
		return fmt.Errorf("output directory is required when saving images")
	}
	if c.Processing.NumCores < 1 {
		return fmt.Errorf("numCores must be at least 1, got %d", c.Processing.NumCores)
	}
	return nil
}

// LoadConfig loads configuration from a YAML file
// If the file doesn't exist, it returns the default configuration
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	// Check if config file exists
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return cfg, nil
	}

	// Read config file
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	// Parse YAML
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	return cfg, nil
}

// SaveConfig saves the configuration to a YAML file
func SaveConfig(cfg *Config, configPath string) error {
	// Create directory if it doesn't exist
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}

	// Marshal config to YAML
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("error marshaling config: %w", err)
	}

	// Write to file
	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("error writing config file: %w", err)
	}

	return nil
}

// CreateDefaultConfigFile creates a default configuration file at the specified path
func CreateDefaultConfigFile(configPath string) error {
	cfg := DefaultConfig()
	return SaveConfig(cfg, configPath)
}
