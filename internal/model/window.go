package model

// WindowRef is a snapshot of a menu bar item window as reported by the
// window server. It is never mutated in place; re-fetch to observe changes.
type WindowRef struct {
	ID       uint32 `yaml:"id"                  json:"id"`
	Bounds   Rect   `yaml:"bounds"              json:"bounds"`
	OwnerPID int    `yaml:"owner_pid"           json:"owner_pid"`
	Title    string `yaml:"title,omitempty"     json:"title,omitempty"`
	OnScreen bool   `yaml:"on_screen,omitempty" json:"on_screen,omitempty"`
}

// MenuBarItem pairs a menu bar item window with its resolved source process.
// SourcePID is 0 when the source could not be resolved.
type MenuBarItem struct {
	Window    WindowRef `yaml:"window"               json:"window"`
	SourcePID int       `yaml:"source_pid,omitempty" json:"source_pid,omitempty"`
	Source    string    `yaml:"source,omitempty"     json:"source,omitempty"`
}
