package cmd

import (
	"fmt"

	"github.com/mj1618/icepid/internal/config"
	"github.com/mj1618/icepid/internal/output"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the icepid config file",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default config file",
	RunE: func(cmd *cobra.Command, _ []string) error {
		path, err := config.Init(configPath())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective config",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return output.Fprint(cmd.OutOrStdout(), appConfig)
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
}
