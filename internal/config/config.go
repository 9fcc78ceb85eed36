package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Resolver ResolverConfig `yaml:"resolver"`
	Refresh  RefreshConfig  `yaml:"refresh"`
	Service  ServiceConfig  `yaml:"service"`
	Logging  LoggingConfig  `yaml:"logging"`
}

type ResolverConfig struct {
	// Tolerance is the largest center distance, in points, between an item
	// window and an accessibility frame that still counts as a match.
	Tolerance         float64 `yaml:"tolerance"`
	StabilizeAttempts int     `yaml:"stabilize_attempts"`
	StabilizeDelayMs  int     `yaml:"stabilize_delay_ms"`
	AXTimeoutMs       int     `yaml:"ax_timeout_ms"`
	// NegativeTTLMs is how long an unmatched window is remembered.
	// 0 disables negative caching.
	NegativeTTLMs int `yaml:"negative_ttl_ms"`
	Workers       int `yaml:"workers"`
}

type RefreshConfig struct {
	PollIntervalMs int `yaml:"poll_interval_ms"`
	WarmIntervalMs int `yaml:"warm_interval_ms"`
}

type ServiceConfig struct {
	Transport string `yaml:"transport"`
	Address   string `yaml:"address"`
	TimeoutMs int    `yaml:"timeout_ms"`
}

type LoggingConfig struct {
	Enabled    bool   `yaml:"enabled"`
	Level      string `yaml:"level"`
	Dir        string `yaml:"dir"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	Compress   bool   `yaml:"compress"`
}

func DefaultConfig() Config {
	return Config{
		Resolver: ResolverConfig{
			Tolerance:         5,
			StabilizeAttempts: 5,
			StabilizeDelayMs:  10,
			AXTimeoutMs:       100,
			NegativeTTLMs:     2000,
			Workers:           1,
		},
		Refresh: RefreshConfig{
			PollIntervalMs: 1000,
			WarmIntervalMs: 5000,
		},
		Service: ServiceConfig{
			Transport: "stdio",
			Address:   "127.0.0.1:8229",
			TimeoutMs: 5000,
		},
		Logging: LoggingConfig{
			Enabled:    true,
			Level:      "info",
			Dir:        defaultLogDir(),
			MaxSizeMB:  10,
			MaxBackups: 5,
			Compress:   false,
		},
	}
}

func (r ResolverConfig) StabilizeDelay() time.Duration {
	return time.Duration(r.StabilizeDelayMs) * time.Millisecond
}

func (r ResolverConfig) AXTimeout() time.Duration {
	return time.Duration(r.AXTimeoutMs) * time.Millisecond
}

// NegativeTTL returns the negative cache lifetime, or -1 when disabled.
func (r ResolverConfig) NegativeTTL() time.Duration {
	if r.NegativeTTLMs <= 0 {
		return -1
	}
	return time.Duration(r.NegativeTTLMs) * time.Millisecond
}

func (r RefreshConfig) PollInterval() time.Duration {
	return time.Duration(r.PollIntervalMs) * time.Millisecond
}

func (r RefreshConfig) WarmInterval() time.Duration {
	return time.Duration(r.WarmIntervalMs) * time.Millisecond
}

func (s ServiceConfig) Timeout() time.Duration {
	return time.Duration(s.TimeoutMs) * time.Millisecond
}

// ConfigDir returns the config directory path.
func ConfigDir() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("get user config dir: %w", err)
	}
	return filepath.Join(configDir, appName), nil
}

// ConfigPath returns the full path to the config file.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// Load reads the config at path (the default path when empty), falling back
// to defaults for a missing file or missing keys.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()

	if path == "" {
		p, err := ConfigPath()
		if err != nil {
			return cfg, nil // return defaults if we can't determine path
		}
		path = p
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil // no config file, use defaults
		}
		return cfg, fmt.Errorf("read config: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return cfg, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Init writes a default config file at path (the default path when empty).
// It refuses to overwrite an existing file.
func Init(path string) (string, error) {
	if path == "" {
		p, err := ConfigPath()
		if err != nil {
			return "", err
		}
		path = p
	}

	if _, err := os.Stat(path); err == nil {
		return "", fmt.Errorf("config already exists at %s", path)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("create config dir: %w", err)
	}

	data, err := yaml.Marshal(DefaultConfig())
	if err != nil {
		return "", fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write config: %w", err)
	}

	return path, nil
}
