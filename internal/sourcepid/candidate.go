package sourcepid

import (
	"sync"
	"time"

	"github.com/mj1618/icepid/internal/model"
	"github.com/mj1618/icepid/internal/platform"
)

// absentRetry is how long a confirmed-absent extras menu bar is trusted.
// Apps often add their status items some time after they finish launching.
const absentRetry = 10 * time.Second

// containerState is the memoized result of asking an app for its extras menu bar.
type containerState int

const (
	containerUntried containerState = iota
	containerPresent
	containerAbsent
)

func (s containerState) String() string {
	switch s {
	case containerPresent:
		return "present"
	case containerAbsent:
		return "absent"
	default:
		return "untried"
	}
}

// Candidate is one running application considered as the source of a menu
// bar item. It is owned by the Registry. axMu serializes extras menu bar
// requests so the container is initialized at most once; mu guards the
// fields and is never held across an accessibility call.
type Candidate struct {
	axMu sync.Mutex

	mu        sync.Mutex
	info      model.AppInfo
	state     containerState
	container platform.Element
	triedAt   time.Time
	items     int
	resets    uint64
}

func newCandidate(info model.AppInfo) *Candidate {
	return &Candidate{info: info}
}

// PID returns the candidate's process ID.
func (c *Candidate) PID() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.info.PID
}

// Info returns the latest OS description of the app.
func (c *Candidate) Info() model.AppInfo {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.info
}

func (c *Candidate) setInfo(info model.AppInfo) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.info.FinishedLaunching && info.FinishedLaunching && c.state == containerAbsent {
		// Probed before it was ready. Give it another chance.
		c.state = containerUntried
		c.resets++
	}
	c.info = info
}

// valid reports whether the app may be probed at all. An app that fails
// this check is never sent an accessibility message, which keeps hung or
// half-launched processes from stalling a resolution.
func (c *Candidate) valid(alive func(int) bool) bool {
	c.mu.Lock()
	info := c.info
	c.mu.Unlock()

	switch {
	case !info.FinishedLaunching:
		return false
	case info.Terminated:
		return false
	case info.Policy == model.PolicyProhibited:
		return false
	case info.Unresponsive:
		return false
	}
	return alive == nil || alive(info.PID)
}

// extrasBar returns the memoized extras menu bar, asking the accessibility
// layer only when it has not been asked yet (or an absent answer went stale).
// asked reports whether this call went to the accessibility layer.
func (c *Candidate) extrasBar(ax platform.Accessibility, now time.Time) (el platform.Element, asked, ok bool) {
	c.axMu.Lock()
	defer c.axMu.Unlock()

	c.mu.Lock()
	switch c.state {
	case containerPresent:
		el = c.container
		c.mu.Unlock()
		return el, false, true
	case containerAbsent:
		if now.Sub(c.triedAt) < absentRetry {
			c.mu.Unlock()
			return nil, false, false
		}
	}
	pid, resets := c.info.PID, c.resets
	c.mu.Unlock()

	el, ok = ax.MenuExtrasBar(pid)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.triedAt = now
	if !ok || el == nil {
		if c.resets == resets {
			c.state = containerAbsent
		}
		c.container = nil
		return nil, true, false
	}
	c.state = containerPresent
	c.container = el
	return el, true, true
}

func (c *Candidate) noteItems(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = n
}

// tier ranks the candidate for iteration: apps with a known non-empty extras
// menu bar first, untried apps next, apps known to have nothing last.
func (c *Candidate) tier() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch {
	case c.state == containerPresent && c.items > 0:
		return 0
	case c.state == containerUntried:
		return 1
	default:
		return 2
	}
}

func (c *Candidate) barState() containerState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}
