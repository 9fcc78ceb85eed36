package platform

import (
	"context"
	"log/slog"
	"slices"
	"time"

	"github.com/mj1618/icepid/internal/model"
)

// AppsChanged carries the full running-application set after a change.
type AppsChanged struct {
	Apps []model.AppInfo
	At   time.Time
}

// WatchApps polls src every interval and sends the running-application set
// whenever it differs from the previous poll. The first successful poll is
// always sent. A failed poll is logged and skipped, so the consumer keeps its
// prior state. The channel is closed when ctx is done.
func WatchApps(ctx context.Context, src AppSource, interval time.Duration, logger *slog.Logger) <-chan AppsChanged {
	if logger == nil {
		logger = slog.Default()
	}
	out := make(chan AppsChanged, 1)

	go func() {
		defer close(out)

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		var last []model.AppInfo
		first := true
		for {
			apps, err := src.RunningApps()
			if err != nil {
				logger.Warn("poll running applications", slog.String("component", "apps"), slog.Any("error", err))
			} else if first || !sameApps(last, apps) {
				first = false
				last = apps
				select {
				case out <- AppsChanged{Apps: apps, At: time.Now()}:
				case <-ctx.Done():
					return
				}
			}

			select {
			case <-ticker.C:
			case <-ctx.Done():
				return
			}
		}
	}()

	return out
}

// sameApps compares two app sets ignoring order.
func sameApps(a, b []model.AppInfo) bool {
	if len(a) != len(b) {
		return false
	}
	byPID := func(x, y model.AppInfo) int { return x.PID - y.PID }
	as := slices.SortedFunc(slices.Values(a), byPID)
	bs := slices.SortedFunc(slices.Values(b), byPID)
	return slices.Equal(as, bs)
}
