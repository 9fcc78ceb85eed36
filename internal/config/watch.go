package config

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

const watchDebounce = 200 * time.Millisecond

// Watch reloads the config at path whenever it changes on disk and passes
// each valid result to onChange. Invalid files are logged and ignored.
// The parent directory is watched so editors that replace the file by
// rename are still seen. Watch blocks until ctx is done.
func Watch(ctx context.Context, path string, logger *slog.Logger, onChange func(Config)) error {
	if path == "" {
		p, err := ConfigPath()
		if err != nil {
			return err
		}
		path = p
	}
	path = filepath.Clean(path)

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create config watcher: %w", err)
	}
	defer func() { _ = w.Close() }()

	// Nothing may exist yet before `config init`; watch the directory anyway
	// so a file created later is picked up.
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	if err := w.Add(filepath.Dir(path)); err != nil {
		return fmt.Errorf("watch config dir: %w", err)
	}

	reload := make(chan struct{}, 1)
	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != path {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(watchDebounce, func() {
				select {
				case reload <- struct{}{}:
				default:
				}
			})
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Warn("config watcher error", "error", err)
		case <-reload:
			cfg, err := Load(path)
			if err != nil {
				logger.Warn("config reload failed", "path", path, "error", err)
				continue
			}
			logger.Info("config reloaded", "path", path)
			onChange(cfg)
		}
	}
}
