//go:build darwin && cgo

package darwin

import "github.com/mj1618/icepid/internal/platform"

func init() {
	platform.NewProviderFunc = func(opts platform.Options) (*platform.Provider, error) {
		return &platform.Provider{
			Windows:       NewWindowServer(),
			Apps:          NewWorkspace(),
			Accessibility: NewAXClient(opts.MessagingTimeout),
			Trusted:       IsAccessibilityTrusted,
		}, nil
	}
	platform.RequestPermissionsFunc = RequestAccessibilityPermission
}
