package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/mj1618/icepid/internal/model"
	"github.com/mj1618/icepid/internal/output"
	"github.com/mj1618/icepid/internal/platform"
	"github.com/mj1618/icepid/internal/server"
	"github.com/spf13/cobra"
)

var lookupCmd = &cobra.Command{
	Use:   "lookup",
	Short: "Resolve the source process of one menu bar item",
	Long: `Resolve which app created the menu bar item with the given window ID.

Without --server the item is resolved in this process. With --server the
query goes to a running "icepid serve" and uses its warm cache. An item
that cannot be resolved is reported with resolved: false.

Examples:
  icepid lookup --window-id 4211
  icepid lookup --window-id 4211 --server http://127.0.0.1:8229/mcp
  icepid lookup --window-id 4211 --bounds 1180,0,28,24`,
	RunE: runLookup,
}

func init() {
	rootCmd.AddCommand(lookupCmd)
	lookupCmd.Flags().Int("window-id", 0, "Window server ID of the menu bar item (required)")
	lookupCmd.Flags().String("bounds", "", "Item frame as x,y,width,height (default: read from the window server)")
	lookupCmd.Flags().String("server", "", "URL of a running icepid serve (streamable-http)")
	_ = lookupCmd.MarkFlagRequired("window-id")
}

func runLookup(cmd *cobra.Command, _ []string) error {
	id, _ := cmd.Flags().GetInt("window-id")
	if id <= 0 {
		return fmt.Errorf("--window-id must be a positive window ID")
	}
	ref := model.WindowRef{ID: uint32(id), OnScreen: true}
	if b, _ := cmd.Flags().GetString("bounds"); b != "" {
		rect, err := platform.ParseRect(b)
		if err != nil {
			return err
		}
		ref.Bounds = rect
	}

	ctx, cancel := timeoutContext(appConfig)
	defer cancel()

	if url, _ := cmd.Flags().GetString("server"); url != "" {
		return lookupRemote(ctx, cmd.OutOrStdout(), url, ref)
	}
	return lookupLocal(ctx, cmd.OutOrStdout(), ref)
}

// lookupRemote reports an unreachable or failing server as no answer, same
// as an unresolved item on the in-process path.
func lookupRemote(ctx context.Context, w io.Writer, url string, ref model.WindowRef) error {
	unresolved := output.LookupResult{WindowID: ref.ID, TS: time.Now().Unix()}

	client, err := server.Dial(ctx, url, appConfig.Service.Timeout(), logger)
	if err != nil {
		logger.Warn("remote lookup failed", "window", ref.ID, "server", url, "error", err)
		return output.Fprint(w, unresolved)
	}
	defer func() { _ = client.Close() }()

	res, err := client.Lookup(ctx, ref)
	if err != nil {
		logger.Warn("remote lookup failed", "window", ref.ID, "error", err)
		res = unresolved
	}
	return output.Fprint(w, res)
}

func lookupLocal(ctx context.Context, w io.Writer, ref model.WindowRef) error {
	provider, err := newProvider(appConfig)
	if err != nil {
		return err
	}
	result := output.LookupResult{WindowID: ref.ID, TS: time.Now().Unix()}

	if ref.Bounds.IsEmpty() {
		live, err := platform.FindWindow(provider.Windows, ref.ID)
		if errors.Is(err, platform.ErrWindowNotFound) {
			return output.Fprint(w, result)
		}
		if err != nil {
			return err
		}
		ref = live
	}

	cache, err := newLoadedCache(provider, appConfig)
	if err != nil {
		return err
	}
	if pid, ok := cache.Lookup(ctx, ref); ok {
		result.Resolved = true
		result.PID = pid
		if app, ok := cache.App(pid); ok {
			result.App = app.DisplayName()
			result.BundleID = app.BundleID
		}
	}
	return output.Fprint(w, result)
}
