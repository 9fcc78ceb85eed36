package config

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestWatchReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if _, err := Init(path); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	got := make(chan Config, 4)
	done := make(chan error, 1)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	go func() {
		done <- Watch(ctx, path, logger, func(cfg Config) { got <- cfg })
	}()

	// Give the watcher time to register before writing.
	time.Sleep(100 * time.Millisecond)

	if err := os.WriteFile(path, []byte("resolver:\n  tolerance: 12\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case cfg := <-got:
		if cfg.Resolver.Tolerance != 12 {
			t.Errorf("reloaded tolerance = %v, want 12", cfg.Resolver.Tolerance)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for reload")
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Watch returned %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Watch did not stop after cancel")
	}
}

func TestWatchIgnoresInvalidFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if _, err := Init(path); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	got := make(chan Config, 4)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	go func() { _ = Watch(ctx, path, logger, func(cfg Config) { got <- cfg }) }()
	time.Sleep(100 * time.Millisecond)

	if err := os.WriteFile(path, []byte("service:\n  transport: carrier-pigeon\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case cfg := <-got:
		t.Fatalf("invalid config delivered: %+v", cfg)
	case <-time.After(600 * time.Millisecond):
	}
}

func TestWatchCreatesMissingDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "icepid", "config.yaml")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	got := make(chan Config, 4)
	done := make(chan error, 1)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	go func() {
		done <- Watch(ctx, path, logger, func(cfg Config) { got <- cfg })
	}()

	select {
	case err := <-done:
		t.Fatalf("Watch returned early: %v", err)
	case <-time.After(100 * time.Millisecond):
	}

	if err := os.WriteFile(path, []byte("resolver:\n  tolerance: 7\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	select {
	case cfg := <-got:
		if cfg.Resolver.Tolerance != 7 {
			t.Errorf("reloaded tolerance = %v, want 7", cfg.Resolver.Tolerance)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for reload")
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Watch returned %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Watch did not stop after cancel")
	}
}
