// Package config loads the server configuration from an optional YAML file.
// Command-line flags take precedence over anything read here.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/erazemk/bidsphere/internal/events"
)

// Config is the server configuration.
type Config struct {
	Addr    string     `yaml:"addr"`
	DBPath  string     `yaml:"db"`
	LogPath string     `yaml:"log"`
	NATS    NATSConfig `yaml:"nats"`
}

// NATSConfig configures the event publisher. An empty URL disables it.
type NATSConfig struct {
	URL    string `yaml:"url"`
	Prefix string `yaml:"prefix"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Addr:   ":8080",
		DBPath: "bidsphere.sqlite3",
		NATS: NATSConfig{
			Prefix: events.DefaultSubjectPrefix,
		},
	}
}

// Load reads the YAML file at path over the defaults. A blank path or a
// missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
		if err == nil {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parsing config: %w", err)
			}
		}
	}

	cfg.applyEnvOverrides()

	if cfg.NATS.Prefix == "" {
		cfg.NATS.Prefix = events.DefaultSubjectPrefix
	}
	return cfg, nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("BIDSPHERE_ADDR"); v != "" {
		c.Addr = v
	}
	if v := os.Getenv("BIDSPHERE_DB"); v != "" {
		c.DBPath = v
	}
	if v := os.Getenv("BIDSPHERE_NATS_URL"); v != "" {
		c.NATS.URL = v
	}
}
