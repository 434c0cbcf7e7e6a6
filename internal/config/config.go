// Package config loads claudeck configuration from file and environment.
//
// Precedence (highest to lowest):
//  1. Environment variables (CLAUDECK_*)
//  2. Config file
//  3. Built-in defaults
//
// Config file search order:
//  1. .claudeck.yaml in current directory
//  2. ~/.config/claudeck/config.yaml
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all claudeck configuration.
type Config struct {
	// Wrapped process
	Command string   `yaml:"command"`
	Args    []string `yaml:"args"`

	// Control service
	Listen string `yaml:"listen"` // host:port for the HTTP control service

	// PTY reader
	PollInterval string `yaml:"poll_interval"` // Go duration string, e.g. "100ms"
	BufferSize   int    `yaml:"buffer_size"`   // retained output window in bytes

	// Injection
	SubmitDelay string `yaml:"submit_delay"` // pause between text and return, e.g. "200ms"

	// Classifier
	RulesFile string `yaml:"rules_file"` // optional YAML rule table override

	// Debugging
	DebugFile string `yaml:"debug_file"` // optional raw I/O transcript path

	// OTEL
	OTELEndpoint string `yaml:"otel_endpoint"`
	OTELHeaders  string `yaml:"otel_headers"` // Comma-separated key=value pairs, e.g. "Authorization=Basic abc123"

	// Parsed durations (not from YAML, set after loading)
	PollDuration        time.Duration `yaml:"-"`
	SubmitDelayDuration time.Duration `yaml:"-"`

	// ConfigFile is the path to the config file that was loaded (empty if none).
	ConfigFile string `yaml:"-"`
}

// Defaults returns a Config with all default values.
func Defaults() *Config {
	return &Config{
		Command:      "claude",
		Listen:       "127.0.0.1:8765",
		PollInterval: "100ms",
		BufferSize:   64 * 1024,
		SubmitDelay:  "200ms",
	}
}

// Load reads configuration from file and environment variables.
// Environment variables always override file values.
func Load() (*Config, error) {
	cfg := Defaults()

	// Try to load config file
	if path, data, err := findConfigFile(); err == nil {
		var fileCfg Config
		if err := yaml.Unmarshal(data, &fileCfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
		cfg.ConfigFile = path
		mergeFile(cfg, &fileCfg)
	}

	// Environment variables override everything
	mergeEnv(cfg)

	// Parse durations
	var err error
	cfg.PollDuration, err = parseDuration(cfg.PollInterval, 100*time.Millisecond)
	if err != nil {
		return nil, fmt.Errorf("invalid poll interval %q: %w", cfg.PollInterval, err)
	}
	cfg.SubmitDelayDuration, err = parseDuration(cfg.SubmitDelay, 200*time.Millisecond)
	if err != nil {
		return nil, fmt.Errorf("invalid submit delay %q: %w", cfg.SubmitDelay, err)
	}

	return cfg, nil
}

// findConfigFile searches for a config file and returns its path and contents.
func findConfigFile() (string, []byte, error) {
	// 1. Current directory
	if data, err := os.ReadFile(".claudeck.yaml"); err == nil {
		return ".claudeck.yaml", data, nil
	}

	// 2. XDG config dir / ~/.config
	if home, err := os.UserHomeDir(); err == nil {
		path := filepath.Join(home, ".config", "claudeck", "config.yaml")
		if data, err := os.ReadFile(path); err == nil {
			return path, data, nil
		}
	}

	return "", nil, fmt.Errorf("no config file found")
}

// mergeFile applies non-zero file values onto cfg.
func mergeFile(cfg *Config, file *Config) {
	if file.Command != "" {
		cfg.Command = file.Command
	}
	if len(file.Args) > 0 {
		cfg.Args = file.Args
	}
	if file.Listen != "" {
		cfg.Listen = file.Listen
	}
	if file.PollInterval != "" {
		cfg.PollInterval = file.PollInterval
	}
	if file.BufferSize > 0 {
		cfg.BufferSize = file.BufferSize
	}
	if file.SubmitDelay != "" {
		cfg.SubmitDelay = file.SubmitDelay
	}
	if file.RulesFile != "" {
		cfg.RulesFile = file.RulesFile
	}
	if file.DebugFile != "" {
		cfg.DebugFile = file.DebugFile
	}
	if file.OTELEndpoint != "" {
		cfg.OTELEndpoint = file.OTELEndpoint
	}
	if file.OTELHeaders != "" {
		cfg.OTELHeaders = file.OTELHeaders
	}
}

// mergeEnv applies environment variables onto cfg. Env always wins.
func mergeEnv(cfg *Config) {
	if v := os.Getenv("CLAUDECK_COMMAND"); v != "" {
		cfg.Command = v
	}
	if v := os.Getenv("CLAUDECK_LISTEN"); v != "" {
		cfg.Listen = v
	}
	if v := os.Getenv("CLAUDECK_POLL_INTERVAL"); v != "" {
		cfg.PollInterval = v
	}
	if v := os.Getenv("CLAUDECK_SUBMIT_DELAY"); v != "" {
		cfg.SubmitDelay = v
	}
	if v := os.Getenv("CLAUDECK_RULES_FILE"); v != "" {
		cfg.RulesFile = v
	}
	if v := os.Getenv("CLAUDECK_DEBUG_FILE"); v != "" {
		cfg.DebugFile = v
	}
	if v := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"); v != "" {
		cfg.OTELEndpoint = v
	}
	if v := os.Getenv("OTEL_EXPORTER_OTLP_HEADERS"); v != "" {
		cfg.OTELHeaders = v
	}
}

// parseDuration parses a duration string. Empty string returns the fallback.
func parseDuration(s string, fallback time.Duration) (time.Duration, error) {
	if s == "" {
		return fallback, nil
	}
	return time.ParseDuration(s)
}
