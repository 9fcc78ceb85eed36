package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/mj1618/icepid/internal/config"
	"github.com/mj1618/icepid/internal/logging"
	"github.com/mj1618/icepid/internal/platform"
	"github.com/mj1618/icepid/internal/server"
	"github.com/mj1618/icepid/internal/sourcepid"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start an MCP server answering source PID queries",
	Long: `Start a Model Context Protocol (MCP) server that keeps the source PID
cache warm and answers queries for it.

The running-application set is polled and every change refreshes the
candidate list, prunes entries for apps that quit and re-resolves the
menu bar in the background. Edits to the config file are picked up live
for the log level and match tolerance.

Supported transports:
  stdio             Standard I/O (default, for MCP clients)
  streamable-http   Streamable HTTP transport, endpoint /mcp

Examples:
  icepid serve
  icepid serve --transport streamable-http --addr 127.0.0.1:8229`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("transport", "", "Transport: stdio, streamable-http (default from config)")
	serveCmd.Flags().String("addr", "", "Listen address for streamable-http (default from config)")
	serveCmd.Flags().Float64("tolerance", 0, "Match tolerance in points (default from config)")
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg := appConfig
	if t, _ := cmd.Flags().GetString("transport"); t != "" {
		cfg.Service.Transport = t
	}
	if a, _ := cmd.Flags().GetString("addr"); a != "" {
		cfg.Service.Address = a
	}
	if tol, _ := cmd.Flags().GetFloat64("tolerance"); tol > 0 {
		cfg.Resolver.Tolerance = tol
	}
	if err := config.Validate(cfg); err != nil {
		return err
	}

	provider, err := newProvider(cfg)
	if err != nil {
		return err
	}
	cache := sourcepid.New(provider.Accessibility, provider.Windows, cacheOptions(cfg))
	coord := sourcepid.NewCoordinator(cache, provider.Windows, cfg.Refresh.WarmInterval(), logger)
	srv := server.New(cache, provider.Windows, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	events := platform.WatchApps(ctx, provider.Apps, cfg.Refresh.PollInterval(), logger)
	g.Go(func() error {
		return ignoreCanceled(coord.Run(ctx, events))
	})
	g.Go(func() error {
		return config.Watch(ctx, configPath(), logger, func(next config.Config) {
			applyLiveConfig(cache, next)
		})
	})
	g.Go(func() error {
		if err := srv.Serve(ctx, cfg.Service.Transport, cfg.Service.Address); err != nil {
			return fmt.Errorf("serve %s: %w", cfg.Service.Transport, err)
		}
		// The stdio transport ends when the client disconnects.
		stop()
		return nil
	})

	logger.Info("serving", "transport", cfg.Service.Transport, "tolerance", cache.Tolerance())
	return g.Wait()
}

// applyLiveConfig applies the settings that can change without a restart.
func applyLiveConfig(cache *sourcepid.Cache, next config.Config) {
	logLevel.Set(logging.ParseLevel(next.Logging.Level))
	if next.Resolver.Tolerance != cache.Tolerance() {
		cache.SetTolerance(next.Resolver.Tolerance)
		logger.Info("match tolerance changed", "tolerance", next.Resolver.Tolerance)
	}
}

func ignoreCanceled(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
