package cmd

import (
	"context"
	"fmt"

	"github.com/mj1618/icepid/internal/config"
	"github.com/mj1618/icepid/internal/platform"
	"github.com/mj1618/icepid/internal/sourcepid"
)

// newProvider opens the platform backends and asks for accessibility
// permission when it is missing. Without it nothing resolves, but window
// listing still works, so this only warns.
func newProvider(cfg config.Config) (*platform.Provider, error) {
	provider, err := platform.NewProvider(platform.Options{MessagingTimeout: cfg.Resolver.AXTimeout()})
	if err != nil {
		return nil, err
	}
	if provider.Trusted != nil && !provider.Trusted() {
		logger.Warn("accessibility permission not granted; menu bar items will not resolve",
			"error", platform.ErrAccessibilityDenied)
		if platform.RequestPermissionsFunc != nil {
			platform.RequestPermissionsFunc()
		}
	}
	return provider, nil
}

func cacheOptions(cfg config.Config) sourcepid.Options {
	return sourcepid.Options{
		Tolerance:         cfg.Resolver.Tolerance,
		StabilizeAttempts: cfg.Resolver.StabilizeAttempts,
		StabilizeDelay:    cfg.Resolver.StabilizeDelay(),
		NegativeTTL:       cfg.Resolver.NegativeTTL(),
		Workers:           cfg.Resolver.Workers,
		Logger:            logger,
	}
}

// newLoadedCache returns a cache primed with the current running apps.
func newLoadedCache(provider *platform.Provider, cfg config.Config) (*sourcepid.Cache, error) {
	cache := sourcepid.New(provider.Accessibility, provider.Windows, cacheOptions(cfg))
	apps, err := provider.Apps.RunningApps()
	if err != nil {
		return nil, fmt.Errorf("list running apps: %w", err)
	}
	cache.Refresh(apps)
	return cache, nil
}

// timeoutContext bounds one-shot commands by the service timeout.
func timeoutContext(cfg config.Config) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), cfg.Service.Timeout())
}
