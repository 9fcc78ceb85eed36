package platform

import (
	"errors"

	"github.com/mj1618/icepid/internal/model"
)

// ErrWindowNotFound is returned when a window no longer exists.
var ErrWindowNotFound = errors.New("window not found")

// ErrAccessibilityDenied is returned when the process lacks accessibility permission.
var ErrAccessibilityDenied = errors.New("accessibility permission required")

// WindowLister enumerates menu bar item windows from the window server.
type WindowLister interface {
	// MenuBarItemWindows returns the item windows currently in the menu bar,
	// ordered left to right.
	MenuBarItemWindows() ([]model.WindowRef, error)

	// WindowBounds returns the current bounds of a window, or
	// ErrWindowNotFound if it has gone away.
	WindowBounds(windowID uint32) (model.Rect, error)
}

// AppSource reports the set of running applications.
type AppSource interface {
	RunningApps() ([]model.AppInfo, error)
}

// Element is an opaque handle into the accessibility tree. Implementations
// own whatever native reference backs it.
type Element interface {
	// PID returns the process the element belongs to.
	PID() int
}

// Accessibility is a synchronous view of the accessibility tree. Every call
// may block for up to the configured messaging timeout. Failures collapse to
// the zero result; callers treat that as "no information".
type Accessibility interface {
	// MenuExtrasBar returns the application's extras menu bar, the container
	// holding its menu bar item elements.
	MenuExtrasBar(pid int) (Element, bool)

	// Children returns the ordered child elements of el.
	Children(el Element) []Element

	// IsEnabled reports whether el is enabled. An unreadable attribute is
	// reported as enabled; only an explicit "disabled" returns false.
	IsEnabled(el Element) bool

	// Frame returns el's frame in screen coordinates.
	Frame(el Element) (model.Rect, bool)
}
