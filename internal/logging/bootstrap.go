// Package logging sets up the process-wide structured logger.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/mj1618/icepid/internal/config"
	"gopkg.in/natefinch/lumberjack.v2"
)

type Role string

const (
	RoleCLI   Role = "cli"
	RoleServe Role = "serve"
)

type bootstrapOptions struct {
	newWriter      func(path string, cfg config.LoggingConfig) io.Writer
	warnWriter     io.Writer
	fallbackWriter io.Writer
	retries        int
	retryDelay     time.Duration
	sleep          func(time.Duration)
}

// Bootstrap configures and sets the process default logger. The returned
// LevelVar can be adjusted later, for example after a config reload.
func Bootstrap(cfg config.LoggingConfig, role Role) (*slog.Logger, *slog.LevelVar) {
	logger, level := bootstrapWithOptions(cfg, role, bootstrapOptions{})
	slog.SetDefault(logger)
	return logger, level
}

// Discard returns a logger that drops everything.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func bootstrapWithOptions(cfg config.LoggingConfig, role Role, opts bootstrapOptions) (*slog.Logger, *slog.LevelVar) {
	warnWriter := opts.warnWriter
	if warnWriter == nil {
		warnWriter = os.Stderr
	}

	// stdout may carry the MCP stdio transport, so nothing logs there.
	fallbackWriter := opts.fallbackWriter
	if fallbackWriter == nil {
		fallbackWriter = os.Stderr
	}

	sleepFn := opts.sleep
	if sleepFn == nil {
		sleepFn = time.Sleep
	}

	retries := opts.retries
	if retries <= 0 {
		retries = 3
	}

	retryDelay := opts.retryDelay
	if retryDelay <= 0 {
		retryDelay = 50 * time.Millisecond
	}

	level := new(slog.LevelVar)
	level.Set(ParseLevel(cfg.Level))
	handlerOpts := &slog.HandlerOptions{
		Level:       level,
		ReplaceAttr: utcTime,
	}

	if !cfg.Enabled {
		return slog.New(slog.NewJSONHandler(fallbackWriter, handlerOpts)), level
	}

	filePath := filepath.Join(cfg.Dir, string(role)+".log")
	if err := os.MkdirAll(filepath.Dir(filePath), 0o755); err != nil {
		fmt.Fprintf(warnWriter, "warning: unable to initialize log directory %q: %v; falling back to stderr\n", filepath.Dir(filePath), err)
		return slog.New(slog.NewJSONHandler(fallbackWriter, handlerOpts)), level
	}

	writerFactory := opts.newWriter
	if writerFactory == nil {
		writerFactory = newLumberjackWriter
	}

	resilient := &resilientWriter{
		primary:      writerFactory(filePath, cfg),
		fallback:     fallbackWriter,
		warn:         warnWriter,
		retries:      retries,
		retryDelay:   retryDelay,
		sleep:        sleepFn,
		fallbackPath: filePath,
	}

	return slog.New(slog.NewJSONHandler(resilient, handlerOpts)), level
}

func newLumberjackWriter(path string, cfg config.LoggingConfig) io.Writer {
	return &lumberjack.Logger{
		Filename:   path,
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		Compress:   cfg.Compress,
	}
}

// ParseLevel maps a config level name to a slog level. Unknown names are info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "error":
		return slog.LevelError
	case "warn":
		return slog.LevelWarn
	case "debug":
		return slog.LevelDebug
	default:
		return slog.LevelInfo
	}
}

type resilientWriter struct {
	primary      io.Writer
	fallback     io.Writer
	warn         io.Writer
	retries      int
	retryDelay   time.Duration
	sleep        func(time.Duration)
	fallbackPath string
	warnOnce     sync.Once
}

func (w *resilientWriter) Write(p []byte) (int, error) {
	var lastErr error

	for attempt := 1; attempt <= w.retries; attempt++ {
		n, err := w.primary.Write(p)
		if err == nil {
			return n, nil
		}

		lastErr = err
		if attempt < w.retries {
			w.sleep(w.retryDelay)
		}
	}

	w.warnOnce.Do(func() {
		fmt.Fprintf(w.warn, "warning: log file writer %q unavailable after %d attempts (%v); falling back to stderr\n", w.fallbackPath, w.retries, lastErr)
	})

	return w.fallback.Write(p)
}

func utcTime(_ []string, attr slog.Attr) slog.Attr {
	if attr.Key == slog.TimeKey {
		return slog.String(slog.TimeKey, attr.Value.Time().UTC().Format(time.RFC3339))
	}
	return attr
}
