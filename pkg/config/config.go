// Package config provides configuration loading and management for anglegrid.
// It handles loading configuration from YAML files and provides default values.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration loaded from YAML
type Config struct {
	// Input describes where the dataset comes from
	Input struct {
		// Path is the HDF5 container on disk
		Path string `yaml:"path"`

		// URL is fetched once into a temporary file when Path is empty
		URL string `yaml:"url"`

		// Dataset names inside the container
		Images string `yaml:"images"`
		Alpha  string `yaml:"alpha"`
		Beta   string `yaml:"beta"`

		// ImageWidth and ImageHeight size the synthetic demo images.
		// Containers carry their own size in the image dataspace.
		ImageWidth  int `yaml:"imageWidth"`
		ImageHeight int `yaml:"imageHeight"`

		// Demo generates a synthetic dataset of this many records instead
		// of reading a container
		Demo int `yaml:"demo"`

		// DemoNoise is the standard deviation of the lightness noise on
		// the demo plates, DemoSeed seeds it
		DemoNoise float64 `yaml:"demoNoise"`
		DemoSeed  uint64  `yaml:"demoSeed"`
	} `yaml:"input"`

	// Server parameters for the browser viewer
	Server struct {
		Addr string `yaml:"addr"`

		// ReadHeaderTimeout in seconds
		ReadHeaderTimeout int `yaml:"readHeaderTimeout"`
	} `yaml:"server"`

	// Export parameters for writing the grid to image files
	Export struct {
		// Dir enables export mode when set
		Dir string `yaml:"dir"`

		// Columns is the number of cells per row of the contact sheet
		Columns int `yaml:"columns"`

		// Gap is the spacing between cells in pixels
		Gap int `yaml:"gap"`

		// Format of the cell files: png or jpg
		Format string `yaml:"format"`

		// Quality of JPEG output
		Quality int `yaml:"quality"`
	} `yaml:"export"`

	// Navigation parameters of the two angle sliders
	Navigation struct {
		InitialAlpha float64 `yaml:"initialAlpha"`
		InitialBeta  float64 `yaml:"initialBeta"`
		Min          float64 `yaml:"min"`
		Max          float64 `yaml:"max"`
		Step         float64 `yaml:"step"`
	} `yaml:"navigation"`

	// Logging parameters
	Logging struct {
		// Level is one of debug, info, warn, error
		Level string `yaml:"level"`

		// Format is json or text
		Format string `yaml:"format"`
	} `yaml:"logging"`
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	cfg := &Config{}

	cfg.Input.Images = "original"
	cfg.Input.Alpha = "alpha"
	cfg.Input.Beta = "beta"

	cfg.Server.Addr = ":8080"
	cfg.Server.ReadHeaderTimeout = 10

	cfg.Export.Columns = 10
	cfg.Export.Gap = 2
	cfg.Export.Format = "png"
	cfg.Export.Quality = 90

	// Angles are whole degrees in [0,89]
	cfg.Navigation.Min = 0
	cfg.Navigation.Max = 89
	cfg.Navigation.Step = 1

	cfg.Logging.Level = "info"
	cfg.Logging.Format = "text"

	return cfg
}

// Validate checks the configuration for values that cannot work
func (c *Config) Validate() error {
	if c.Input.Path == "" && c.Input.URL == "" && c.Input.Demo <= 0 {
		return fmt.Errorf("one of input path, input url or demo must be set")
	}
	if c.Input.Demo < 0 {
		return fmt.Errorf("demo record count must be non-negative, got %d", c.Input.Demo)
	}
	if (c.Input.ImageWidth == 0) != (c.Input.ImageHeight == 0) {
		return fmt.Errorf("image width and height must be set together")
	}
	if c.Input.ImageWidth < 0 || c.Input.ImageHeight < 0 {
		return fmt.Errorf("image dimensions must be positive")
	}
	if c.Input.DemoNoise < 0 {
		return fmt.Errorf("demo noise must be non-negative, got %v", c.Input.DemoNoise)
	}
	if c.Export.Columns < 1 {
		return fmt.Errorf("export columns must be at least 1, got %d", c.Export.Columns)
	}
	switch strings.ToLower(c.Export.Format) {
	case "png", "jpg", "jpeg":
	default:
		return fmt.Errorf("unsupported export format: %s", c.Export.Format)
	}
	if c.Export.Quality < 1 || c.Export.Quality > 100 {
		return fmt.Errorf("export quality must be in [1,100], got %d", c.Export.Quality)
	}
	if c.Navigation.Max < c.Navigation.Min || c.Navigation.Step <= 0 {
		return fmt.Errorf("invalid navigation range [%v,%v] step %v",
			c.Navigation.Min, c.Navigation.Max, c.Navigation.Step)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log level: %s", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "json", "text":
	default:
		return fmt.Errorf("unknown log format: %s", c.Logging.Format)
	}
	return nil
}

// LoadConfig reads the YAML file at configPath over the defaults. An empty
// path, a missing file or an empty file leave the defaults untouched. Keys
// that match no field are rejected.
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()
	if configPath == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(configPath)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse config %s: %w", configPath, err)
	}
	return cfg, nil
}

// SaveConfig writes cfg to configPath, creating parent directories and
// replacing any existing file.
func SaveConfig(cfg *Config, configPath string) error {
	return writeConfig(cfg, configPath, os.O_TRUNC)
}

// CreateDefaultConfigFile writes the default configuration to configPath.
// It refuses to overwrite an existing file.
func CreateDefaultConfigFile(configPath string) error {
	return writeConfig(DefaultConfig(), configPath, os.O_EXCL)
}

func writeConfig(cfg *Config, configPath string, mode int) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.OpenFile(configPath, os.O_WRONLY|os.O_CREATE|mode, 0644)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return f.Close()
}
