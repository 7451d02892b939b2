package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultPath is the config file read when --config is not given.
const DefaultPath = "autoallow.yaml"

// Config represents the full autoallow.yaml configuration.
type Config struct {
	Target     TargetConfig     `yaml:"target"`
	Scan       ScanConfig       `yaml:"scan"`
	Connection ConnectionConfig `yaml:"connection"`
	Classifier ClassifierConfig `yaml:"classifier"`
	Dump       DumpConfig       `yaml:"dump"`
	Log        LogConfig        `yaml:"log"`
	Server     ServerConfig     `yaml:"server"`
}

type TargetConfig struct {
	Process         string   `yaml:"process"`
	TitleMarker     string   `yaml:"title_marker"`
	ExcludedMarkers []string `yaml:"excluded_markers"`
}

type ScanConfig struct {
	ShallowDepth   int           `yaml:"shallow_depth"`
	DeepDepth      int           `yaml:"deep_depth"`
	SweepInterval  time.Duration `yaml:"sweep_interval"`
	ActiveInterval time.Duration `yaml:"active_interval"`
	IdleInterval   time.Duration `yaml:"idle_interval"`
	FixedInterval  time.Duration `yaml:"fixed_interval"`
	ErrorBackoff   time.Duration `yaml:"error_backoff"`
	Methods        []string      `yaml:"methods"`
}

type ConnectionConfig struct {
	FailureThreshold int           `yaml:"failure_threshold"`
	Cooldown         time.Duration `yaml:"cooldown"`
}

type ClassifierConfig struct {
	Generation int `yaml:"generation"`
	// Keywords replaces the generation's keyword list when set.
	Keywords []string `yaml:"keywords"`
	// ExtraExclusions are added to the generation's exclusion list.
	ExtraExclusions []string `yaml:"extra_exclusions"`
	// ClickHidden overrides the generation's hidden-element policy.
	ClickHidden *bool `yaml:"click_hidden"`
}

type DumpConfig struct {
	Depth    int `yaml:"depth"`
	TopTypes int `yaml:"top_types"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Buffer int    `yaml:"buffer"`
}

type ServerConfig struct {
	Transport string `yaml:"transport"`
	Port      int    `yaml:"port"`
}

// Load reads and parses a config file, applying defaults and validation.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(data)
}

// LoadOrDefault loads path. A missing file yields the defaults unless the
// path was given explicitly.
func LoadOrDefault(path string, explicit bool) (*Config, error) {
	cfg, err := Load(path)
	if err != nil && !explicit && errors.Is(err, fs.ErrNotExist) {
		return Default(), nil
	}
	return cfg, err
}

// Default returns the built-in configuration.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

// Parse parses raw YAML bytes into a validated Config.
func Parse(data []byte) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	applyDefaults(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

// Validate checks a Config for logical errors.
func Validate(cfg *Config) error {
	if cfg.Target.Process == "" {
		return fmt.Errorf("target.process is required")
	}
	if cfg.Target.Process != strings.ToLower(cfg.Target.Process) || strings.HasSuffix(cfg.Target.Process, ".exe") {
		return fmt.Errorf("target.process must be a lowercase base name without .exe, got %q", cfg.Target.Process)
	}
	if cfg.Target.TitleMarker == "" {
		return fmt.Errorf("target.title_marker is required")
	}

	if cfg.Scan.ShallowDepth < 1 {
		return fmt.Errorf("scan.shallow_depth must be >= 1, got %d", cfg.Scan.ShallowDepth)
	}
	if cfg.Scan.DeepDepth < cfg.Scan.ShallowDepth {
		return fmt.Errorf("scan.deep_depth (%d) must be >= scan.shallow_depth (%d)", cfg.Scan.DeepDepth, cfg.Scan.ShallowDepth)
	}
	for name, d := range map[string]time.Duration{
		"scan.sweep_interval":  cfg.Scan.SweepInterval,
		"scan.active_interval": cfg.Scan.ActiveInterval,
		"scan.idle_interval":   cfg.Scan.IdleInterval,
		"scan.fixed_interval":  cfg.Scan.FixedInterval,
		"scan.error_backoff":   cfg.Scan.ErrorBackoff,
		"connection.cooldown":  cfg.Connection.Cooldown,
	} {
		if d < 0 {
			return fmt.Errorf("%s must not be negative, got %s", name, d)
		}
	}
	for _, m := range cfg.Scan.Methods {
		switch strings.ToLower(m) {
		case "invoke", "click_input", "click-input", "click":
		default:
			return fmt.Errorf("scan.methods: unknown method %q", m)
		}
	}

	if cfg.Connection.FailureThreshold < 1 {
		return fmt.Errorf("connection.failure_threshold must be >= 1, got %d", cfg.Connection.FailureThreshold)
	}

	if cfg.Classifier.Generation != 1 && cfg.Classifier.Generation != 2 {
		return fmt.Errorf("classifier.generation must be 1 or 2, got %d", cfg.Classifier.Generation)
	}

	if cfg.Dump.Depth < 1 {
		return fmt.Errorf("dump.depth must be >= 1, got %d", cfg.Dump.Depth)
	}

	switch strings.ToUpper(cfg.Log.Level) {
	case "DEBUG", "INFO", "WARN", "WARNING", "ERROR":
	default:
		return fmt.Errorf("log.level must be debug, info, warn, or error, got %q", cfg.Log.Level)
	}
	if cfg.Log.Buffer < 1 {
		return fmt.Errorf("log.buffer must be >= 1, got %d", cfg.Log.Buffer)
	}

	switch cfg.Server.Transport {
	case "stdio", "streamable-http":
	default:
		return fmt.Errorf("server.transport must be stdio or streamable-http, got %q", cfg.Server.Transport)
	}
	if cfg.Server.Port < 1 || cfg.Server.Port > 65535 {
		return fmt.Errorf("server.port must be 1-65535, got %d", cfg.Server.Port)
	}

	return nil
}
