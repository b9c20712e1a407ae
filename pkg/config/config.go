package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all nodebanana configuration.
type Config struct {
	DBPath      string         `yaml:"db_path"`
	StoragePath string         `yaml:"storage_path"`
	Cache       CacheConfig    `yaml:"cache"`
	Providers   []Provider     `yaml:"providers"`
	Router      RouterConfig   `yaml:"router"`
	Defaults    DefaultsConfig `yaml:"defaults"`
}

// CacheConfig controls the generation cache.
type CacheConfig struct {
	Enabled       bool          `yaml:"enabled"`
	SweepInterval time.Duration `yaml:"sweep_interval"`
}

// Provider defines an upstream generation provider.
// Type is "gateway" (default) or "openai".
type Provider struct {
	Name   string `yaml:"name"`
	URL    string `yaml:"url"`
	APIKey string `yaml:"api_key"`
	Type   string `yaml:"type"`
}

// RouterConfig defines model routing and fallback chains.
type RouterConfig struct {
	Routes []Route `yaml:"routes"`
}

// Route maps a model name to an ordered list of targets.
type Route struct {
	Model   string        `yaml:"model"`
	Targets []RouteTarget `yaml:"targets"`
}

// RouteTarget identifies a specific provider and model in a fallback chain.
type RouteTarget struct {
	Provider string `yaml:"provider"`
	Model    string `yaml:"model"`
}

// DefaultsConfig supplies node settings when a workflow omits them.
type DefaultsConfig struct {
	Model       string `yaml:"model"`
	AspectRatio string `yaml:"aspect_ratio"`
	Resolution  string `yaml:"resolution"`
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		DBPath:      "nodebanana.db",
		StoragePath: "generations",
		Cache: CacheConfig{
			Enabled:       true,
			SweepInterval: time.Hour,
		},
		Defaults: DefaultsConfig{
			Model:       "nano-banana",
			AspectRatio: "1:1",
			Resolution:  "1K",
		},
	}
}

// Load reads a YAML config file and expands environment variables.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	expanded := os.ExpandEnv(string(data))

	cfg := Default()
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	return cfg, nil
}
