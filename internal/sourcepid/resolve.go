package sourcepid

import (
	"errors"
	"log/slog"
	"math"
	"sync/atomic"
	"time"

	"github.com/mj1618/icepid/internal/model"
	"github.com/mj1618/icepid/internal/platform"
)

// Outcome classifies a single resolution.
type Outcome int

const (
	// Resolved means a child element of some candidate matched the window.
	Resolved Outcome = iota
	// NoMatch means every candidate was tried without a match.
	NoMatch
	// Vanished means the window's bounds could not be read.
	Vanished
	// Unstable means the window kept moving for the whole retry budget.
	Unstable
)

func (o Outcome) String() string {
	switch o {
	case Resolved:
		return "resolved"
	case NoMatch:
		return "no_match"
	case Vanished:
		return "vanished"
	case Unstable:
		return "unstable"
	default:
		return "unknown"
	}
}

// Result is the output of one resolution.
type Result struct {
	PID     int
	Outcome Outcome
	Bounds  model.Rect // stabilized bounds, zero unless stabilization succeeded
	Probed  int        // candidates sent at least one accessibility message
}

// Resolver finds the source application of a menu bar item window.
type Resolver struct {
	ax      platform.Accessibility
	windows platform.WindowLister
	alive   func(int) bool
	logger  *slog.Logger

	tolerance atomic.Uint64 // math.Float64bits

	attempts  int
	baseDelay time.Duration
	sleep     func(time.Duration)
	now       func() time.Time
}

func newResolver(ax platform.Accessibility, windows platform.WindowLister, opts Options) *Resolver {
	r := &Resolver{
		ax:        ax,
		windows:   windows,
		alive:     opts.Alive,
		logger:    opts.Logger,
		attempts:  opts.StabilizeAttempts,
		baseDelay: opts.StabilizeDelay,
		sleep:     opts.Sleep,
		now:       opts.Now,
	}
	r.setTolerance(opts.Tolerance)
	return r
}

func (r *Resolver) setTolerance(t float64) {
	r.tolerance.Store(math.Float64bits(t))
}

// Tolerance returns the maximum center distance, in points, that counts as a match.
func (r *Resolver) Tolerance() float64 {
	return math.Float64frombits(r.tolerance.Load())
}

// Resolve runs the full algorithm for ref against candidates, which must
// already be in probe order. The first matching child of the first
// matching candidate wins.
func (r *Resolver) Resolve(ref model.WindowRef, candidates []*Candidate) Result {
	bounds, outcome := r.stabilize(ref)
	if outcome != Resolved {
		return Result{Outcome: outcome}
	}

	pid, probed, ok := r.match(bounds, candidates)
	if !ok {
		return Result{Outcome: NoMatch, Bounds: bounds, Probed: probed}
	}
	return Result{PID: pid, Outcome: Resolved, Bounds: bounds, Probed: probed}
}

// stabilize re-reads the window's bounds until two consecutive readings
// agree. ref.Bounds is the first reading. The wait grows with each attempt.
func (r *Resolver) stabilize(ref model.WindowRef) (model.Rect, Outcome) {
	prev := ref.Bounds
	for attempt := 1; attempt <= r.attempts; attempt++ {
		r.sleep(time.Duration(attempt) * r.baseDelay)

		cur, err := r.windows.WindowBounds(ref.ID)
		if err != nil {
			if !errors.Is(err, platform.ErrWindowNotFound) {
				r.logger.Debug("read window bounds", slog.Any("window_id", ref.ID), slog.Any("error", err))
			}
			return model.Rect{}, Vanished
		}
		if cur == prev {
			return cur, Resolved
		}
		prev = cur
	}
	return model.Rect{}, Unstable
}

func (r *Resolver) match(bounds model.Rect, candidates []*Candidate) (pid int, probed int, ok bool) {
	tolerance := r.Tolerance()
	now := r.now()

	for _, c := range candidates {
		if !c.valid(r.alive) {
			continue
		}
		bar, asked, ok := c.extrasBar(r.ax, now)
		if asked || ok {
			probed++
		}
		if !ok {
			continue
		}

		children := r.ax.Children(bar)
		c.noteItems(len(children))
		for _, child := range children {
			if !r.ax.IsEnabled(child) {
				continue
			}
			frame, ok := r.ax.Frame(child)
			if !ok {
				continue
			}
			if model.CenterDistance(frame, bounds) <= tolerance {
				return c.PID(), probed, true
			}
		}
	}
	return 0, probed, false
}
