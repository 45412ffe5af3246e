// Package config loads and validates the optional YAML configuration file.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Default values for the bridge and runner.
const (
	DefaultBinary      = "shortcuts"
	DefaultListTimeout = 30 * time.Second
	DefaultRunTimeout  = 2 * time.Minute
	DefaultMaxOutput   = 10 * 1024 * 1024 // 10 MB
	DefaultLogLevel    = "info"
)

// Config holds the parsed configuration.
// All fields are optional; zero values represent defaults.
type Config struct {
	RawBinary      string `yaml:"binary"`       // runner executable, resolved via PATH
	RawListTimeout string `yaml:"list_timeout"` // e.g. "30s"
	RawRunTimeout  string `yaml:"run_timeout"`  // e.g. "2m"
	RawMaxOutput   int    `yaml:"max_output"`   // bytes
	RawLogLevel    string `yaml:"log_level"`    // debug, info, warn, error
}

// Binary returns the configured runner executable or the default.
func (c *Config) Binary() string {
	if b := strings.TrimSpace(c.RawBinary); b != "" {
		return b
	}
	return DefaultBinary
}

// ListTimeout returns the timeout for enumeration calls.
func (c *Config) ListTimeout() time.Duration {
	return parseDuration(c.RawListTimeout, DefaultListTimeout)
}

// RunTimeout returns the timeout for shortcut execution.
func (c *Config) RunTimeout() time.Duration {
	return parseDuration(c.RawRunTimeout, DefaultRunTimeout)
}

// MaxOutputBytes returns the configured max output size or the default.
func (c *Config) MaxOutputBytes() int {
	if c.RawMaxOutput > 0 {
		return c.RawMaxOutput
	}
	return DefaultMaxOutput
}

// LogLevel returns the configured log level or the default.
func (c *Config) LogLevel() string {
	switch l := strings.ToLower(strings.TrimSpace(c.RawLogLevel)); l {
	case "debug", "info", "warn", "error":
		return l
	default:
		return DefaultLogLevel
	}
}

func parseDuration(raw string, def time.Duration) time.Duration {
	if raw != "" {
		d, err := time.ParseDuration(raw)
		if err == nil && d > 0 {
			return d
		}
	}
	return def
}

// Load reads the configuration file at path. An empty path yields the
// default configuration.
func Load(path string) (*Config, error) {
	if path == "" {
		return &Config{}, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return cfg, nil
}
