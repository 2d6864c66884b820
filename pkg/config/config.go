// Package config provides configuration loading and management for dicomstack.
// It handles loading configuration from YAML files and provides default values.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration loaded from YAML
type Config struct {
	// Layout describes how files are named inside a series directory
	Layout struct {
		// ImageExtension selects DICOM image files (case-insensitive)
		ImageExtension string `yaml:"imageExtension"`

		// ContourSuffix is appended to an image's base name to find its contour
		ContourSuffix string `yaml:"contourSuffix"`

		// ContourExtension is the extension of contour array files
		ContourExtension string `yaml:"contourExtension"`
	} `yaml:"layout"`

	// Display parameters handed to the rendering backend
	Display struct {
		// Opacity is the initial opacity of every image slice
		Opacity float64 `yaml:"opacity"`

		// TransparentOpacity is used when slice transparency is switched on
		TransparentOpacity float64 `yaml:"transparentOpacity"`

		// ColorWindow and ColorLevel control image contrast
		ColorWindow float64 `yaml:"colorWindow"`
		ColorLevel  float64 `yaml:"colorLevel"`

		// ContourColor is the RGB color of contour overlays, each in [0, 1]
		ContourColor [3]float64 `yaml:"contourColor"`

		// ContourLineWidth is the overlay line width in pixels
		ContourLineWidth float64 `yaml:"contourLineWidth"`

		// FlipY asks the renderer to flip images vertically before placing them
		FlipY bool `yaml:"flipY"`
	} `yaml:"display"`

	// Registration parameters
	Registration struct {
		// NormalTolerance is the angle in radians above which two series are
		// reported as having different slice orientations
		NormalTolerance float64 `yaml:"normalTolerance"`
	} `yaml:"registration"`

	// Log parameters
	Log struct {
		// Level is one of debug, info, warn, error
		Level string `yaml:"level"`
	} `yaml:"log"`
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	cfg := &Config{}

	cfg.Layout.ImageExtension = ".dcm"
	cfg.Layout.ContourSuffix = "_cont"
	cfg.Layout.ContourExtension = ".npy"

	cfg.Display.Opacity = 0.7
	cfg.Display.TransparentOpacity = 0.7
	cfg.Display.ColorWindow = 1000
	cfg.Display.ColorLevel = 500
	cfg.Display.ContourColor = [3]float64{1, 1, 0} // yellow
	cfg.Display.ContourLineWidth = 2
	cfg.Display.FlipY = true

	cfg.Registration.NormalTolerance = 1e-3

	cfg.Log.Level = "info"

	return cfg
}

// LoadConfig loads configuration from a YAML file and applies environment
// overrides. If the file doesn't exist, the defaults are used.
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			data, err := os.ReadFile(configPath)
			if err != nil {
				return nil, fmt.Errorf("error reading config file: %w", err)
			}
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("error parsing config file: %w", err)
			}
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv overrides selected settings from DICOMSTACK_* variables
func applyEnv(cfg *Config) {
	if level := os.Getenv("DICOMSTACK_LOG_LEVEL"); level != "" {
		cfg.Log.Level = level
	}
	if ext := os.Getenv("DICOMSTACK_IMAGE_EXT"); ext != "" {
		cfg.Layout.ImageExtension = ext
	}
}

// Validate checks that the configuration values are usable
func (c *Config) Validate() error {
	var errs []error

	if !strings.HasPrefix(c.Layout.ImageExtension, ".") {
		errs = append(errs, fmt.Errorf("layout.imageExtension %q must start with a dot", c.Layout.ImageExtension))
	}
	if c.Layout.ContourSuffix == "" && c.Layout.ContourExtension == "" {
		errs = append(errs, errors.New("layout.contourSuffix and layout.contourExtension cannot both be empty"))
	}
	if c.Display.Opacity < 0 || c.Display.Opacity > 1 {
		errs = append(errs, fmt.Errorf("display.opacity %v must be within [0, 1]", c.Display.Opacity))
	}
	if c.Display.TransparentOpacity < 0 || c.Display.TransparentOpacity > 1 {
		errs = append(errs, fmt.Errorf("display.transparentOpacity %v must be within [0, 1]", c.Display.TransparentOpacity))
	}
	for i, ch := range c.Display.ContourColor {
		if ch < 0 || ch > 1 {
			errs = append(errs, fmt.Errorf("display.contourColor[%d] %v must be within [0, 1]", i, ch))
		}
	}
	if c.Display.ContourLineWidth <= 0 {
		errs = append(errs, fmt.Errorf("display.contourLineWidth %v must be positive", c.Display.ContourLineWidth))
	}
	if c.Registration.NormalTolerance < 0 {
		errs = append(errs, fmt.Errorf("registration.normalTolerance %v must not be negative", c.Registration.NormalTolerance))
	}
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		errs = append(errs, fmt.Errorf("log.level %q is not one of debug, info, warn, error", c.Log.Level))
	}

	return errors.Join(errs...)
}

// SaveConfig saves the configuration to a YAML file
func SaveConfig(cfg *Config, configPath string) error {
	// Create directory if it doesn't exist
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

// CreateDefaultConfigFile writes the default configuration to path
func CreateDefaultConfigFile(configPath string) error {
	cfg := DefaultConfig()
	return SaveConfig(cfg, configPath)
}
