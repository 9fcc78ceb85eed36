// Package fake provides scriptable in-memory platform backends for tests.
package fake

import (
	"sync"

	"github.com/mj1618/icepid/internal/model"
	"github.com/mj1618/icepid/internal/platform"
)

// Item describes one child element of a fake extras menu bar.
type Item struct {
	Frame    model.Rect
	Disabled bool
	NoFrame  bool // frame attribute unreadable
}

// element is a handle into the fake tree. index -1 is the bar itself.
type element struct {
	pid   int
	index int
}

func (e element) PID() int { return e.pid }

// Accessibility is a fake accessibility tree keyed by PID.
type Accessibility struct {
	mu        sync.Mutex
	bars      map[int][]Item
	barCalls  map[int]int
	itemCalls map[int]int
}

// NewAccessibility returns an empty tree.
func NewAccessibility() *Accessibility {
	return &Accessibility{
		bars:      make(map[int][]Item),
		barCalls:  make(map[int]int),
		itemCalls: make(map[int]int),
	}
}

// SetBar installs (or replaces) the extras menu bar of pid.
func (a *Accessibility) SetBar(pid int, items ...Item) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.bars[pid] = append([]Item(nil), items...)
}

// RemoveBar makes pid report no extras menu bar.
func (a *Accessibility) RemoveBar(pid int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.bars, pid)
}

// BarCalls returns how many times MenuExtrasBar was asked for pid.
func (a *Accessibility) BarCalls(pid int) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.barCalls[pid]
}

// Calls returns the total number of accessibility calls made against pid.
func (a *Accessibility) Calls(pid int) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.barCalls[pid] + a.itemCalls[pid]
}

// TotalCalls returns the number of accessibility calls across all PIDs.
func (a *Accessibility) TotalCalls() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	n := 0
	for _, c := range a.barCalls {
		n += c
	}
	for _, c := range a.itemCalls {
		n += c
	}
	return n
}

func (a *Accessibility) MenuExtrasBar(pid int) (platform.Element, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.barCalls[pid]++
	if _, ok := a.bars[pid]; !ok {
		return nil, false
	}
	return element{pid: pid, index: -1}, true
}

func (a *Accessibility) Children(el platform.Element) []platform.Element {
	e, ok := el.(element)
	if !ok || e.index != -1 {
		return nil
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.itemCalls[e.pid]++
	items := a.bars[e.pid]
	children := make([]platform.Element, len(items))
	for i := range items {
		children[i] = element{pid: e.pid, index: i}
	}
	return children
}

func (a *Accessibility) IsEnabled(el platform.Element) bool {
	item, ok := a.item(el)
	return !ok || !item.Disabled
}

func (a *Accessibility) Frame(el platform.Element) (model.Rect, bool) {
	item, ok := a.item(el)
	if !ok || item.NoFrame {
		return model.Rect{}, false
	}
	return item.Frame, true
}

func (a *Accessibility) item(el platform.Element) (Item, bool) {
	e, ok := el.(element)
	if !ok || e.index < 0 {
		return Item{}, false
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.itemCalls[e.pid]++
	items := a.bars[e.pid]
	if e.index >= len(items) {
		return Item{}, false
	}
	return items[e.index], true
}

// Windows is a fake window server.
type Windows struct {
	mu      sync.Mutex
	windows []model.WindowRef
	scripts map[uint32][]model.Rect
	gone    map[uint32]bool
	calls   map[uint32]int
	listErr error
}

// NewWindows returns a window server listing the given windows.
func NewWindows(windows ...model.WindowRef) *Windows {
	return &Windows{
		windows: append([]model.WindowRef(nil), windows...),
		scripts: make(map[uint32][]model.Rect),
		gone:    make(map[uint32]bool),
		calls:   make(map[uint32]int),
	}
}

// SetWindows replaces the listed menu bar windows.
func (w *Windows) SetWindows(windows ...model.WindowRef) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.windows = append([]model.WindowRef(nil), windows...)
}

// ScriptBounds makes successive WindowBounds calls for id return seq in
// order. The last value repeats once the script runs out.
func (w *Windows) ScriptBounds(id uint32, seq ...model.Rect) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.scripts[id] = append([]model.Rect(nil), seq...)
}

// Vanish makes the window unobtainable.
func (w *Windows) Vanish(id uint32) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.gone[id] = true
}

// FailList makes MenuBarItemWindows return err.
func (w *Windows) FailList(err error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.listErr = err
}

// BoundsCalls returns how many times WindowBounds was called for id.
func (w *Windows) BoundsCalls(id uint32) int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.calls[id]
}

func (w *Windows) MenuBarItemWindows() ([]model.WindowRef, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.listErr != nil {
		return nil, w.listErr
	}
	var out []model.WindowRef
	for _, win := range w.windows {
		if !w.gone[win.ID] {
			out = append(out, win)
		}
	}
	return out, nil
}

func (w *Windows) WindowBounds(id uint32) (model.Rect, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	n := w.calls[id]
	w.calls[id]++
	if w.gone[id] {
		return model.Rect{}, platform.ErrWindowNotFound
	}
	if seq := w.scripts[id]; len(seq) > 0 {
		if n >= len(seq) {
			n = len(seq) - 1
		}
		return seq[n], nil
	}
	for _, win := range w.windows {
		if win.ID == id {
			return win.Bounds, nil
		}
	}
	return model.Rect{}, platform.ErrWindowNotFound
}

// Apps is a fake running-application source.
type Apps struct {
	mu   sync.Mutex
	apps []model.AppInfo
	err  error
}

// NewApps returns a source reporting apps.
func NewApps(apps ...model.AppInfo) *Apps {
	return &Apps{apps: append([]model.AppInfo(nil), apps...)}
}

// Set replaces the running set.
func (a *Apps) Set(apps ...model.AppInfo) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.apps = append([]model.AppInfo(nil), apps...)
	a.err = nil
}

// Fail makes the next polls return err.
func (a *Apps) Fail(err error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.err = err
}

func (a *Apps) RunningApps() ([]model.AppInfo, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.err != nil {
		return nil, a.err
	}
	return append([]model.AppInfo(nil), a.apps...), nil
}

// Provider bundles fresh fakes into a platform.Provider.
func Provider(ax *Accessibility, windows *Windows, apps *Apps) *platform.Provider {
	return &platform.Provider{
		Windows:       windows,
		Apps:          apps,
		Accessibility: ax,
		Trusted:       func() bool { return true },
	}
}

// App returns an AppInfo that passes every validity check.
func App(pid int, name string) model.AppInfo {
	return model.AppInfo{
		PID:               pid,
		Name:              name,
		BundleID:          "com.example." + name,
		FinishedLaunching: true,
		Policy:            model.PolicyAccessory,
	}
}
