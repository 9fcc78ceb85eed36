package cmd

import (
	"fmt"
	"image"
	"image/png"
	"os"

	"github.com/mj1618/icepid/internal/platform"
	"github.com/mj1618/icepid/internal/render"
	"github.com/mj1618/icepid/internal/server"
	"github.com/spf13/cobra"
)

var overlayCmd = &cobra.Command{
	Use:   "overlay",
	Short: "Draw menu bar item frames labelled with their source PID",
	Long: `Resolve every menu bar item and write a PNG with a box around each
item frame. Resolved items are green and labelled with the source PID;
unresolved items are red and labelled "?".

Pass --background with a screenshot of the menu bar and --region with the
screen area it shows to draw on top of it.

Examples:
  icepid overlay --out items.png
  icepid overlay --out items.png --label window-id --scale 1
  icepid overlay --out items.png --background bar.png --region 0,0,1512,24`,
	RunE: runOverlay,
}

func init() {
	rootCmd.AddCommand(overlayCmd)
	overlayCmd.Flags().String("out", "", "Output PNG path (required)")
	overlayCmd.Flags().Float64("scale", 2, "Pixels per point on the generated canvas")
	overlayCmd.Flags().String("label", "pid", "Label: pid, window-id")
	overlayCmd.Flags().String("background", "", "PNG to draw on instead of a blank canvas")
	overlayCmd.Flags().String("region", "", "Screen area the background shows, as x,y,width,height")
	_ = overlayCmd.MarkFlagRequired("out")
}

func runOverlay(cmd *cobra.Command, _ []string) error {
	out, _ := cmd.Flags().GetString("out")
	scale, _ := cmd.Flags().GetFloat64("scale")
	label, _ := cmd.Flags().GetString("label")
	bgPath, _ := cmd.Flags().GetString("background")
	regionStr, _ := cmd.Flags().GetString("region")

	opts := render.Options{Scale: scale}
	switch label {
	case "pid":
		opts.Mode = render.LabelPID
	case "window-id":
		opts.Mode = render.LabelWindowID
	default:
		return fmt.Errorf("unsupported label: %s (use pid or window-id)", label)
	}
	if bgPath != "" {
		if regionStr == "" {
			return fmt.Errorf("--region is required with --background")
		}
		bg, err := readPNG(bgPath)
		if err != nil {
			return err
		}
		opts.Background = bg
	}
	if regionStr != "" {
		region, err := platform.ParseRect(regionStr)
		if err != nil {
			return err
		}
		opts.Region = region
	}

	provider, err := newProvider(appConfig)
	if err != nil {
		return err
	}
	cache, err := newLoadedCache(provider, appConfig)
	if err != nil {
		return err
	}

	ctx, cancel := timeoutContext(appConfig)
	defer cancel()
	items, err := server.ListItems(ctx, cache, provider.Windows)
	if err != nil {
		return err
	}

	img, _, err := render.Overlay(items, opts)
	if err != nil {
		return err
	}

	f, err := os.Create(out)
	if err != nil {
		return fmt.Errorf("create %s: %w", out, err)
	}
	if err := render.WritePNG(f, img); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("write %s: %w", out, err)
	}
	logger.Info("wrote overlay", "path", out, "items", len(items))
	return nil
}

func readPNG(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open background: %w", err)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode background %s: %w", path, err)
	}
	return img, nil
}
