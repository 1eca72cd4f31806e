package config

import (
	"os"
	"path/filepath"
	"testing"
)

// TestLoadConfigMissingFile verifies that defaults are returned when no file exists
func TestLoadConfigMissingFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Input.Path != "T1_1.pmp" {
		t.Errorf("Expected default input path, got %q", cfg.Input.Path)
	}
	if cfg.Output.CSVPath != "particle_shapes.csv" {
		t.Errorf("Expected default csv path, got %q", cfg.Output.CSVPath)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Default config should validate: %v", err)
	}
}

// TestLoadConfigOverrides verifies that YAML values override defaults and
// unspecified keys keep their defaults
func TestLoadConfigOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pmpshapes.yaml")
	yml := "input:\n  path: run7.pmp\nprocessing:\n  numCores: 3\n  integerAspectRatio: true\noutput:\n  sqlitePath: shapes.db\n"
	if err := os.WriteFile(path, []byte(yml), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.Input.Path != "run7.pmp" {
		t.Errorf("Expected input path run7.pmp, got %q", cfg.Input.Path)
	}
	if cfg.Processing.NumCores != 3 {
		t.Errorf("Expected 3 cores, got %d", cfg.Processing.NumCores)
	}
	if !cfg.Processing.IntegerAspectRatio {
		t.Error("Expected integer aspect ratio to be enabled")
	}
	if cfg.Output.SQLitePath != "shapes.db" {
		t.Errorf("Expected sqlite path shapes.db, got %q", cfg.Output.SQLitePath)
	}
	if cfg.Output.Dir != "images" {
		t.Errorf("Expected default output dir to survive, got %q", cfg.Output.Dir)
	}
	if cfg.Input.NameEncoding != "windows-1252" {
		t.Errorf("Expected default name encoding to survive, got %q", cfg.Input.NameEncoding)
	}
}

// TestLoadConfigInvalidYAML verifies parse errors are reported
func TestLoadConfigInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("input: [unterminated"), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}
	if _, err := LoadConfig(path); err == nil {
		t.Error("Expected an error for invalid YAML")
	}
}

// TestSaveConfigRoundTrip verifies a saved default config loads back unchanged
func TestSaveConfigRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "pmpshapes.yaml")
	if err := CreateDefaultConfigFile(path); err != nil {
		t.Fatalf("CreateDefaultConfigFile failed: %v", err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if *cfg != *DefaultConfig() {
		t.Errorf("Round-tripped config differs: %+v", cfg)
	}
}

// TestValidate verifies invalid settings are rejected
func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(c *Config)
	}{
		{"no input", func(c *Config) { c.Input.Path = "" }},
		{"no csv", func(c *Config) { c.Output.CSVPath = "" }},
		{"no image dir", func(c *Config) { c.Output.Dir = "" }},
		{"zero cores", func(c *Config) { c.Processing.NumCores = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("Expected validation error")
			}
		})
	}
}
