// Package config loads connector configuration from a YAML file with
// environment overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/amanabt/tendril-connector-tally/transport"
)

// Environment variables overriding the file configuration.
const (
	EnvHost = "TALLY_HOST"
	EnvPort = "TALLY_PORT"
)

// Config holds the process configuration for the connector.
type Config struct {
	// Host is the Tally instance host. Default: localhost.
	Host string `yaml:"host"`

	// Port is the Tally XML interface port. Default: 9002.
	Port int `yaml:"port"`

	// CacheDir is where raw responses are stored for offline fallback.
	// Empty disables response caching.
	CacheDir string `yaml:"cache_dir"`

	// LogLevel controls logging verbosity: debug, info, warn, error.
	LogLevel string `yaml:"log_level"`
}

// Default returns the built-in configuration: a loopback Tally instance on
// the standard port, caching under the user cache directory.
func Default() *Config {
	cacheDir := ""
	if base, err := os.UserCacheDir(); err == nil {
		cacheDir = filepath.Join(base, "tally-connector")
	}
	return &Config{
		Host:     transport.DefaultHost,
		Port:     transport.DefaultPort,
		CacheDir: cacheDir,
		LogLevel: "info",
	}
}

// Load reads the configuration file at path, falling back to defaults when
// path is empty or the file does not exist, then applies environment
// overrides.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
			// Missing file is fine, defaults apply.
		case err != nil:
			return nil, fmt.Errorf("config: reading %s: %w", path, err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("config: parsing %s: %w", path, err)
			}
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if host := os.Getenv(EnvHost); host != "" {
		c.Host = host
	}
	if port := os.Getenv(EnvPort); port != "" {
		p, err := strconv.Atoi(port)
		if err != nil {
			return fmt.Errorf("config: %s=%q is not a port number", EnvPort, port)
		}
		c.Port = p
	}
	return nil
}

func (c *Config) validate() error {
	if c.Host == "" {
		return fmt.Errorf("config: host must not be empty")
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("config: port %d out of range", c.Port)
	}
	return nil
}
