package config

import (
	"fmt"
	"strings"
)

// Validate checks that cfg is usable.
func Validate(cfg Config) error {
	if err := validateResolver(cfg.Resolver); err != nil {
		return err
	}
	if err := validateRefresh(cfg.Refresh); err != nil {
		return err
	}
	if err := validateService(cfg.Service); err != nil {
		return err
	}
	if err := validateLogging(cfg.Logging); err != nil {
		return err
	}
	return nil
}

func validateResolver(r ResolverConfig) error {
	if r.Tolerance <= 0 {
		return fmt.Errorf("resolver.tolerance must be greater than 0")
	}
	if r.StabilizeAttempts <= 0 {
		return fmt.Errorf("resolver.stabilize_attempts must be greater than 0")
	}
	if r.StabilizeDelayMs <= 0 {
		return fmt.Errorf("resolver.stabilize_delay_ms must be greater than 0")
	}
	if r.AXTimeoutMs <= 0 {
		return fmt.Errorf("resolver.ax_timeout_ms must be greater than 0")
	}
	if r.NegativeTTLMs < 0 {
		return fmt.Errorf("resolver.negative_ttl_ms must not be negative")
	}
	if r.Workers <= 0 {
		return fmt.Errorf("resolver.workers must be greater than 0")
	}
	return nil
}

func validateRefresh(r RefreshConfig) error {
	if r.PollIntervalMs <= 0 {
		return fmt.Errorf("refresh.poll_interval_ms must be greater than 0")
	}
	if r.WarmIntervalMs < 0 {
		return fmt.Errorf("refresh.warm_interval_ms must not be negative")
	}
	return nil
}

func validateService(s ServiceConfig) error {
	switch s.Transport {
	case "stdio", "streamable-http":
		// valid
	default:
		return fmt.Errorf("service.transport must be one of stdio, streamable-http")
	}
	if s.Transport == "streamable-http" && strings.TrimSpace(s.Address) == "" {
		return fmt.Errorf("service.address is required for streamable-http")
	}
	if s.TimeoutMs <= 0 {
		return fmt.Errorf("service.timeout_ms must be greater than 0")
	}
	return nil
}

func validateLogging(logging LoggingConfig) error {
	switch strings.ToLower(logging.Level) {
	case "error", "warn", "info", "debug":
		// valid
	default:
		return fmt.Errorf("logging.level must be one of error, warn, info, debug")
	}

	if logging.MaxSizeMB <= 0 {
		return fmt.Errorf("logging.max_size_mb must be greater than 0")
	}

	if logging.MaxBackups < 0 {
		return fmt.Errorf("logging.max_backups must not be negative")
	}

	if logging.Enabled && strings.TrimSpace(logging.Dir) == "" {
		return fmt.Errorf("logging.dir is required when logging is enabled")
	}

	return nil
}
