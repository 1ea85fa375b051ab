package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Input.Images != "original" || cfg.Input.Alpha != "alpha" || cfg.Input.Beta != "beta" {
		t.Errorf("Unexpected dataset names %q %q %q", cfg.Input.Images, cfg.Input.Alpha, cfg.Input.Beta)
	}
	if cfg.Navigation.Min != 0 || cfg.Navigation.Max != 89 || cfg.Navigation.Step != 1 {
		t.Errorf("Unexpected slider range [%v,%v] step %v",
			cfg.Navigation.Min, cfg.Navigation.Max, cfg.Navigation.Step)
	}

	// Defaults alone have no input
	if err := cfg.Validate(); err == nil {
		t.Error("Expected validation error without input")
	}
	cfg.Input.Demo = 16
	if err := cfg.Validate(); err != nil {
		t.Errorf("Expected demo config to validate, got %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"half image size", func(c *Config) { c.Input.ImageWidth = 10 }},
		{"negative noise", func(c *Config) { c.Input.DemoNoise = -2 }},
		{"no columns", func(c *Config) { c.Export.Columns = 0 }},
		{"bad format", func(c *Config) { c.Export.Format = "gif" }},
		{"bad quality", func(c *Config) { c.Export.Quality = 0 }},
		{"inverted range", func(c *Config) { c.Navigation.Max = -1 }},
		{"zero step", func(c *Config) { c.Navigation.Step = 0 }},
		{"bad level", func(c *Config) { c.Logging.Level = "trace" }},
		{"bad log format", func(c *Config) { c.Logging.Format = "xml" }},
	}

	for _, tt := range tests {
		cfg := DefaultConfig()
		cfg.Input.Path = "data.h5"
		tt.modify(cfg)
		if err := cfg.Validate(); err == nil {
			t.Errorf("%s: expected validation error", tt.name)
		}
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("Expected defaults for missing file, got %v", err)
	}
	if cfg.Server.Addr != ":8080" {
		t.Errorf("Expected default address, got %s", cfg.Server.Addr)
	}
}

func TestSaveAndLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conf", "anglegrid.yaml")

	cfg := DefaultConfig()
	cfg.Input.Path = "/data/plates.h5"
	cfg.Input.ImageWidth = 600
	cfg.Input.ImageHeight = 200
	cfg.Export.Columns = 7
	cfg.Navigation.InitialAlpha = 12.5

	if err := SaveConfig(cfg, path); err != nil {
		t.Fatalf("SaveConfig failed: %v", err)
	}

	loaded, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if loaded.Input.Path != cfg.Input.Path || loaded.Input.ImageWidth != 600 || loaded.Input.ImageHeight != 200 {
		t.Errorf("Input section not preserved: %+v", loaded.Input)
	}
	if loaded.Export.Columns != 7 || loaded.Navigation.InitialAlpha != 12.5 {
		t.Errorf("Export or navigation section not preserved")
	}
}

func TestLoadConfigPartialFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "partial.yaml")
	data := []byte("input:\n  demo: 25\nlogging:\n  level: debug\n")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Input.Demo != 25 || cfg.Logging.Level != "debug" {
		t.Errorf("Expected overrides, got demo=%d level=%s", cfg.Input.Demo, cfg.Logging.Level)
	}
	if cfg.Input.Images != "original" || cfg.Export.Quality != 90 {
		t.Errorf("Expected defaults to survive a partial file")
	}
}

func TestLoadConfigInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("input: [unclosed"), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}
	if _, err := LoadConfig(path); err == nil {
		t.Error("Expected parse error")
	}
}

func TestCreateDefaultConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "default.yaml")
	if err := CreateDefaultConfigFile(path); err != nil {
		t.Fatalf("CreateDefaultConfigFile failed: %v", err)
	}
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Export.Format != "png" {
		t.Errorf("Expected default format png, got %s", cfg.Export.Format)
	}

	if err := CreateDefaultConfigFile(path); err == nil {
		t.Error("Expected refusal to overwrite an existing file")
	}
}

func TestLoadConfigEmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.yaml")
	if err := os.WriteFile(path, nil, 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("Expected defaults for an empty file, got %v", err)
	}
	if cfg.Server.Addr != ":8080" {
		t.Errorf("Expected default address, got %s", cfg.Server.Addr)
	}
}

func TestLoadConfigReadErrors(t *testing.T) {
	dir := t.TempDir()

	// A directory exists but cannot be read as a file
	if _, err := LoadConfig(dir); err == nil {
		t.Error("Expected error reading a directory")
	}

	path := filepath.Join(dir, "typo.yaml")
	if err := os.WriteFile(path, []byte("input:\n  dmeo: 4\n"), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}
	if _, err := LoadConfig(path); err == nil {
		t.Error("Expected error for an unknown key")
	}
}
