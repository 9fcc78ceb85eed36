package sourcepid

import (
	"context"
	"log/slog"
	"time"

	"github.com/mj1618/icepid/internal/platform"
)

// Coordinator is the single consumer of running-application changes. It
// applies each change to the Cache and then re-warms entries for the menu
// bar items currently on screen, in the background and coalesced so a burst
// of launches costs one warm pass.
type Coordinator struct {
	cache        *Cache
	windows      platform.WindowLister
	warmInterval time.Duration
	logger       *slog.Logger

	warmReq chan struct{}
	warmed  func(resolved int)
}

// NewCoordinator returns a coordinator for cache. A positive warmInterval
// also warms periodically, which picks up items added without any app
// launching or quitting.
func NewCoordinator(cache *Cache, windows platform.WindowLister, warmInterval time.Duration, logger *slog.Logger) *Coordinator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Coordinator{
		cache:        cache,
		windows:      windows,
		warmInterval: warmInterval,
		logger:       logger.With(slog.String("component", "coordinator")),
		warmReq:      make(chan struct{}, 1),
	}
}

// Run consumes events until the channel closes or ctx is done.
func (co *Coordinator) Run(ctx context.Context, events <-chan platform.AppsChanged) error {
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		co.warmLoop(ctx)
	}()
	defer func() {
		cancel()
		<-done
	}()

	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			co.cache.Refresh(ev.Apps)
			co.RequestWarm()
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// RequestWarm schedules a warm pass. Requests made while one is pending
// are merged.
func (co *Coordinator) RequestWarm() {
	select {
	case co.warmReq <- struct{}{}:
	default:
	}
}

func (co *Coordinator) warmLoop(ctx context.Context) {
	var tick <-chan time.Time
	if co.warmInterval > 0 {
		ticker := time.NewTicker(co.warmInterval)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		select {
		case <-co.warmReq:
			co.warmOnce(ctx)
		case <-tick:
			co.warmOnce(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (co *Coordinator) warmOnce(ctx context.Context) {
	windows, err := co.windows.MenuBarItemWindows()
	if err != nil {
		co.logger.Warn("list menu bar items for warm", slog.Any("error", err))
		return
	}
	start := time.Now()
	n := co.cache.Warm(ctx, windows)
	if n > 0 {
		co.logger.Debug("warmed source pid cache",
			slog.Int("items", len(windows)),
			slog.Int("resolved", n),
			slog.Duration("elapsed", time.Since(start)),
		)
	}
	if co.warmed != nil {
		co.warmed(n)
	}
}
