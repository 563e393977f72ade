// Package config loads the optional YAML configuration file for
// kryon-render, layering its values over built-in defaults.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// WindowConfig mirrors the subset of render.WindowConfig a user may
// override from a config file, before any KRB App element properties are
// applied on top. KRB properties always win.
type WindowConfig struct {
	Width       int     `yaml:"width"`
	Height      int     `yaml:"height"`
	Title       string  `yaml:"title"`
	Resizable   bool    `yaml:"resizable"`
	ScaleFactor float32 `yaml:"scale_factor"`
}

// Config is the full kryon-render configuration document.
type Config struct {
	Window   WindowConfig `yaml:"window"`
	LogLevel string       `yaml:"log_level"`
}

// Default returns the built-in configuration used when no file is given.
func Default() *Config {
	return &Config{
		Window: WindowConfig{
			Width:       800,
			Height:      600,
			Title:       "Kryon Application",
			Resizable:   true,
			ScaleFactor: 1.0,
		},
		LogLevel: "info",
	}
}

// Load returns the default configuration when path is empty, or the
// defaults with path's YAML document superimposed on top.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file %q: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file %q: %w", path, err)
	}
	return cfg, nil
}

// Dump renders cfg back to YAML, used by the CLI's --dump-config flag.
func Dump(cfg *Config) ([]byte, error) {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("marshaling config: %w", err)
	}
	return data, nil
}
