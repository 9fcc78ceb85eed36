package model

import "strings"

// ActivationPolicy mirrors the OS notion of how an application presents itself.
type ActivationPolicy int

const (
	PolicyRegular ActivationPolicy = iota
	PolicyAccessory
	PolicyProhibited
)

func (p ActivationPolicy) String() string {
	switch p {
	case PolicyRegular:
		return "regular"
	case PolicyAccessory:
		return "accessory"
	case PolicyProhibited:
		return "prohibited"
	default:
		return "unknown"
	}
}

// MarshalYAML encodes the policy by name.
func (p ActivationPolicy) MarshalYAML() (interface{}, error) {
	return p.String(), nil
}

// MarshalText encodes the policy by name for JSON output.
func (p ActivationPolicy) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// AppInfo describes one running application as reported by the OS.
type AppInfo struct {
	PID               int              `yaml:"pid"                    json:"pid"`
	BundleID          string           `yaml:"bundle_id,omitempty"    json:"bundle_id,omitempty"`
	Name              string           `yaml:"name,omitempty"         json:"name,omitempty"`
	FinishedLaunching bool             `yaml:"finished_launching"     json:"finished_launching"`
	Terminated        bool             `yaml:"terminated,omitempty"   json:"terminated,omitempty"`
	Policy            ActivationPolicy `yaml:"policy"                 json:"policy"`
	Unresponsive      bool             `yaml:"unresponsive,omitempty" json:"unresponsive,omitempty"`
}

// Bundle identifiers of the processes that host the system's own status
// items. They own most menu bar item windows but rarely create them.
var statusBarHosts = map[string]bool{
	"com.apple.controlcenter":      true,
	"com.apple.systemuiserver":     true,
	"com.apple.Spotlight":          true,
	"com.apple.TextInputMenuAgent": true,
}

// IsStatusBarHost reports whether the app is one of the system processes
// that host menu bar item windows on behalf of other applications.
func (a AppInfo) IsStatusBarHost() bool {
	return statusBarHosts[a.BundleID]
}

// DisplayName returns the localized name, falling back to the bundle ID.
func (a AppInfo) DisplayName() string {
	if strings.TrimSpace(a.Name) != "" {
		return a.Name
	}
	return a.BundleID
}
