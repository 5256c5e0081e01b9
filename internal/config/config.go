// Package config loads runtime settings for the line detection tools.
//
// Settings come from three layers, later layers winning:
//
//  1. Built-in defaults (Default)
//  2. An optional TOML file (Load)
//  3. Environment variables (ApplyEnv)
//
// # File Format
//
//	[pipeline]
//	sigma = 2.0
//	low_threshold = 0.1
//	high_threshold = 0.3
//	border = "suppress"
//	rho_res = 100
//	theta_res = 360
//	lines = 20
//	peak_radius = 2
//	gap_tolerance = 3
//	line_tolerance = 1.5
//	min_segment_length = 10.0
//
//	[log]
//	level = "info"
//
//	[http]
//	addr = ":8080"
//	max_upload_bytes = 33554432
//
// Unknown keys are rejected so typos do not silently fall back to defaults.
package config

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/ironsheep/hough-tools-mcp/internal/detection"
)

// Environment variables read by ApplyEnv.
const (
	EnvLogLevel = "HOUGH_MCP_LOG_LEVEL"
	EnvHTTPAddr = "HOUGH_MCP_HTTP_ADDR"
)

// ErrInvalidConfig is wrapped by every validation failure.
var ErrInvalidConfig = errors.New("invalid config")

// Config is the complete runtime configuration.
type Config struct {
	Pipeline detection.Params `toml:"pipeline"`
	Log      LogConfig        `toml:"log"`
	HTTP     HTTPConfig       `toml:"http"`
}

// LogConfig selects the log level: "debug", "info", "warn" or "error".
type LogConfig struct {
	Level string `toml:"level"`
}

// HTTPConfig configures the HTTP API.
type HTTPConfig struct {
	Addr           string `toml:"addr"`
	MaxUploadBytes int64  `toml:"max_upload_bytes"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Pipeline: detection.DefaultParams(),
		Log:      LogConfig{Level: "info"},
		HTTP:     HTTPConfig{Addr: ":8080", MaxUploadBytes: 32 << 20},
	}
}

// Load reads a TOML file on top of the defaults. An empty path returns the
// defaults unchanged.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		sort.Strings(keys)
		return Config{}, fmt.Errorf("unknown config keys %s: %w", strings.Join(keys, ", "), ErrInvalidConfig)
	}
	return cfg, nil
}

// ApplyEnv overrides fields from the environment.
func (c *Config) ApplyEnv() {
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.Log.Level = strings.ToLower(v)
	}
	if v := os.Getenv(EnvHTTPAddr); v != "" {
		c.HTTP.Addr = v
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if err := c.Pipeline.Validate(); err != nil {
		return fmt.Errorf("pipeline: %w", err)
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log level %q: %w", c.Log.Level, ErrInvalidConfig)
	}
	if c.HTTP.MaxUploadBytes <= 0 {
		return fmt.Errorf("http max_upload_bytes %d must be positive: %w", c.HTTP.MaxUploadBytes, ErrInvalidConfig)
	}
	return nil
}
