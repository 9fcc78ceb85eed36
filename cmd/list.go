package cmd

import (
	"context"
	"io"
	"time"

	"github.com/mj1618/icepid/internal/model"
	"github.com/mj1618/icepid/internal/output"
	"github.com/mj1618/icepid/internal/server"
	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List menu bar items with their source apps",
	Long:  "List menu bar item windows left to right with window ID, frame, owning PID and resolved source app.",
	RunE:  runList,
}

func init() {
	rootCmd.AddCommand(listCmd)
	listCmd.Flags().Bool("apps", false, "List candidate apps in probe order instead")
	listCmd.Flags().String("server", "", "URL of a running icepid serve (streamable-http)")
}

// appEntry is the output for --apps mode.
type appEntry struct {
	App      string `yaml:"app"                 json:"app"`
	PID      int    `yaml:"pid"                 json:"pid"`
	BundleID string `yaml:"bundle_id,omitempty" json:"bundle_id,omitempty"`
	Policy   string `yaml:"policy"              json:"policy"`
}

func runList(cmd *cobra.Command, _ []string) error {
	ctx, cancel := timeoutContext(appConfig)
	defer cancel()

	if url, _ := cmd.Flags().GetString("server"); url != "" {
		return listRemote(ctx, cmd.OutOrStdout(), url)
	}

	provider, err := newProvider(appConfig)
	if err != nil {
		return err
	}
	cache, err := newLoadedCache(provider, appConfig)
	if err != nil {
		return err
	}

	if apps, _ := cmd.Flags().GetBool("apps"); apps {
		entries := []appEntry{}
		for _, app := range cache.Candidates() {
			entries = append(entries, appEntry{
				App:      app.DisplayName(),
				PID:      app.PID,
				BundleID: app.BundleID,
				Policy:   app.Policy.String(),
			})
		}
		return output.Fprint(cmd.OutOrStdout(), entries)
	}

	items, err := server.ListItems(ctx, cache, provider.Windows)
	if err != nil {
		return err
	}
	return output.Fprint(cmd.OutOrStdout(), output.ListResult{TS: time.Now().Unix(), Items: items})
}

// listRemote prints an empty list when the server cannot answer.
func listRemote(ctx context.Context, w io.Writer, url string) error {
	empty := output.ListResult{TS: time.Now().Unix(), Items: []model.MenuBarItem{}}

	client, err := server.Dial(ctx, url, appConfig.Service.Timeout(), logger)
	if err != nil {
		logger.Warn("remote list failed", "server", url, "error", err)
		return output.Fprint(w, empty)
	}
	defer func() { _ = client.Close() }()

	res, err := client.Items(ctx)
	if err != nil {
		logger.Warn("remote list failed", "server", url, "error", err)
		return output.Fprint(w, empty)
	}
	return output.Fprint(w, res)
}
