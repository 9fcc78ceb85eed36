package platform

import (
	"fmt"
	"runtime"
	"time"
)

// Provider bundles all platform backends for the current OS.
type Provider struct {
	Windows       WindowLister
	Apps          AppSource
	Accessibility Accessibility

	// Trusted reports whether accessibility permission has been granted.
	Trusted func() bool
}

// Options configures platform backends.
type Options struct {
	// MessagingTimeout bounds every accessibility call against a target app.
	MessagingTimeout time.Duration
}

// DefaultMessagingTimeout is far below the OS default of several seconds so a
// hung app costs at most this much per call.
const DefaultMessagingTimeout = 100 * time.Millisecond

// ErrUnsupported is returned on unsupported platforms.
var ErrUnsupported = fmt.Errorf("icepid is not supported on %s/%s; supported: darwin/amd64, darwin/arm64 (cgo)", runtime.GOOS, runtime.GOARCH)

// NewProviderFunc is set by platform-specific packages via init().
// See internal/platform/darwin/init.go for the macOS registration.
var NewProviderFunc func(opts Options) (*Provider, error)

// RequestPermissionsFunc is set by platform-specific packages via init().
// It triggers the OS accessibility prompt at startup.
var RequestPermissionsFunc func()

// NewProvider returns a Provider for the current OS.
func NewProvider(opts Options) (*Provider, error) {
	if NewProviderFunc == nil {
		return nil, ErrUnsupported
	}
	if opts.MessagingTimeout <= 0 {
		opts.MessagingTimeout = DefaultMessagingTimeout
	}
	return NewProviderFunc(opts)
}
