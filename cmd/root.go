package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/mj1618/icepid/internal/config"
	"github.com/mj1618/icepid/internal/logging"
	"github.com/mj1618/icepid/internal/output"
	"github.com/mj1618/icepid/internal/version"
	"github.com/spf13/cobra"
)

var (
	appConfig config.Config
	logger    = logging.Discard()
	logLevel  = new(slog.LevelVar)
)

var rootCmd = &cobra.Command{
	Use:   "icepid",
	Short: "Find which app created each menu bar item",
	Long: `icepid resolves the process that created each macOS menu bar item.

The window server reports every status item as owned by the system UI
process that hosts it. icepid matches each item window against the
accessibility tree of the running apps to find the real source, caches
the answer, and serves it to other tools over MCP.`,
	SilenceUsage: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.Version = fmt.Sprintf("%s (commit: %s, built: %s)", version.Version, version.Commit, version.BuildDate)
	rootCmd.PersistentFlags().String("format", "yaml", "Output format: yaml, json")
	rootCmd.PersistentFlags().Bool("pretty", false, "Pretty-print JSON output")
	rootCmd.PersistentFlags().String("config", "", "Config file path (default: user config dir)")
	rootCmd.PersistentFlags().String("log-level", "", "Override logging.level: error, warn, info, debug")
	rootCmd.PersistentPreRunE = setup
}

// setup loads config and logging before any subcommand runs.
func setup(cmd *cobra.Command, _ []string) error {
	format, _ := rootCmd.PersistentFlags().GetString("format")
	f, err := output.ParseFormat(format)
	if err != nil {
		return err
	}
	output.OutputFormat = f
	output.PrettyOutput, _ = rootCmd.PersistentFlags().GetBool("pretty")

	path, _ := rootCmd.PersistentFlags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}
	if lvl, _ := rootCmd.PersistentFlags().GetString("log-level"); lvl != "" {
		cfg.Logging.Level = lvl
	}
	appConfig = cfg

	role := logging.RoleCLI
	if cmd.Name() == serveCmd.Name() {
		role = logging.RoleServe
	}
	logger, logLevel = logging.Bootstrap(cfg.Logging, role)
	return nil
}

func configPath() string {
	path, _ := rootCmd.PersistentFlags().GetString("config")
	return path
}
