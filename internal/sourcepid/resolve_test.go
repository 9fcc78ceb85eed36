package sourcepid

import (
	"fmt"
	"testing"
	"time"

	"github.com/mj1618/icepid/internal/model"
	"github.com/mj1618/icepid/internal/platform/fake"
)

func newTestResolver(ax *fake.Accessibility, windows *fake.Windows, tolerance float64) (*Resolver, *sleepRecorder) {
	rec := &sleepRecorder{}
	opts := testOptions()
	opts.Tolerance = tolerance
	opts.Sleep = rec.sleep
	return newResolver(ax, windows, opts.withDefaults()), rec
}

func candidates(apps ...model.AppInfo) []*Candidate {
	r := NewRegistry()
	r.Refresh(apps)
	return r.Ordered()
}

func TestResolve_ToleranceBoundary(t *testing.T) {
	// Offsets form a 3-4-5 triangle so the distance is exactly 5.
	tests := []struct {
		name   string
		dx, dy float64
		want   bool
	}{
		{"exact center", 0, 0, true},
		{"at threshold", 3, 4, true},
		{"one point beyond", 0, 6, false},
		{"sub-point beyond", 3, 4.01, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ax := fake.NewAccessibility()
			ax.SetBar(1, item(200+tt.dx, 11+tt.dy))
			win := window(1, 200, 11)
			r, _ := newTestResolver(ax, fake.NewWindows(win), 5)

			res := r.Resolve(win, candidates(fake.App(1, "A")))
			if got := res.Outcome == Resolved; got != tt.want {
				t.Errorf("matched = %v (outcome %s), want %v", got, res.Outcome, tt.want)
			}
		})
	}
}

func TestResolve_BoundedRetriesWithGrowingDelay(t *testing.T) {
	ax := fake.NewAccessibility()
	win := model.WindowRef{ID: 2, Bounds: model.Rect{X: 0, Y: 0, Width: 30, Height: 24}}
	windows := fake.NewWindows(win)
	var seq []model.Rect
	for i := 1; i <= 20; i++ {
		seq = append(seq, model.Rect{X: float64(i), Y: 0, Width: 30, Height: 24})
	}
	windows.ScriptBounds(2, seq...)

	r, rec := newTestResolver(ax, windows, 5)
	res := r.Resolve(win, candidates(fake.App(1, "A")))

	if res.Outcome != Unstable {
		t.Fatalf("outcome = %s, want unstable", res.Outcome)
	}
	if n := windows.BoundsCalls(2); n != DefaultStabilizeAttempts {
		t.Errorf("bounds read %d times, want %d", n, DefaultStabilizeAttempts)
	}
	delays := rec.recorded()
	if len(delays) != DefaultStabilizeAttempts {
		t.Fatalf("slept %d times, want %d", len(delays), DefaultStabilizeAttempts)
	}
	for i, d := range delays {
		want := time.Duration(i+1) * DefaultStabilizeDelay
		if d != want {
			t.Errorf("delay %d = %v, want %v", i, d, want)
		}
	}
}

func TestResolve_SettlesAfterMovement(t *testing.T) {
	ax := fake.NewAccessibility()
	ax.SetBar(1, item(300, 11))
	win := window(2, 250, 11)
	windows := fake.NewWindows(win)
	windows.ScriptBounds(2, rectAt(280, 11), rectAt(300, 11), rectAt(300, 11))

	r, _ := newTestResolver(ax, windows, 5)
	res := r.Resolve(win, candidates(fake.App(1, "A")))
	if res.Outcome != Resolved || res.PID != 1 {
		t.Fatalf("result = %+v, want resolved to 1", res)
	}
	if res.Bounds != rectAt(300, 11) {
		t.Errorf("bounds = %v, want settled bounds", res.Bounds)
	}
	if n := windows.BoundsCalls(2); n != 3 {
		t.Errorf("bounds read %d times, want 3", n)
	}
}

func TestResolve_FirstMatchIsDeterministic(t *testing.T) {
	// Exactly one child across all candidates is within tolerance. Padding
	// with differing numbers of decoys must not change the answer.
	for _, decoys := range []int{0, 1, 3, 7} {
		t.Run(fmt.Sprintf("decoys=%d", decoys), func(t *testing.T) {
			ax := fake.NewAccessibility()
			var apps []model.AppInfo
			for i := 0; i < decoys; i++ {
				pid := 100 + i
				ax.SetBar(pid, item(float64(1000+40*i), 11), item(float64(2000+40*i), 11))
				apps = append(apps, fake.App(pid, fmt.Sprintf("Before%d", i)))
			}
			var owner []fake.Item
			for i := 0; i < decoys; i++ {
				owner = append(owner, item(float64(3000+40*i), 11))
			}
			owner = append(owner, item(500, 11))
			ax.SetBar(7, owner...)
			apps = append(apps, fake.App(7, "Owner"))
			for i := 0; i < decoys; i++ {
				pid := 200 + i
				ax.SetBar(pid, item(float64(4000+40*i), 11))
				apps = append(apps, fake.App(pid, fmt.Sprintf("After%d", i)))
			}

			win := window(1, 500, 11)
			r, _ := newTestResolver(ax, fake.NewWindows(win), 5)
			for run := 0; run < 3; run++ {
				res := r.Resolve(win, candidates(apps...))
				if res.Outcome != Resolved || res.PID != 7 {
					t.Fatalf("run %d: result = %+v, want pid 7", run, res)
				}
			}
		})
	}
}

func TestResolve_FirstCandidateWinsTie(t *testing.T) {
	ax := fake.NewAccessibility()
	ax.SetBar(1, item(100, 11))
	ax.SetBar(2, item(100, 11))
	win := window(1, 100, 11)
	r, _ := newTestResolver(ax, fake.NewWindows(win), 5)

	res := r.Resolve(win, candidates(fake.App(2, "B"), fake.App(1, "A")))
	if res.PID != 2 {
		t.Errorf("pid = %d, want 2 (first in order)", res.PID)
	}
	if n := ax.Calls(1); n != 0 {
		t.Errorf("iteration should stop at the first match, A got %d calls", n)
	}
}

func TestResolve_SkipsDisabledAndFramelessChildren(t *testing.T) {
	ax := fake.NewAccessibility()
	ax.SetBar(1,
		fake.Item{Frame: rectAt(100, 11), Disabled: true},
		fake.Item{Frame: rectAt(100, 11), NoFrame: true},
	)
	ax.SetBar(2, item(100, 11))
	win := window(1, 100, 11)
	r, _ := newTestResolver(ax, fake.NewWindows(win), 5)

	res := r.Resolve(win, candidates(fake.App(1, "A"), fake.App(2, "B")))
	if res.Outcome != Resolved || res.PID != 2 {
		t.Fatalf("result = %+v, want resolved to 2", res)
	}
	if res.Probed != 2 {
		t.Errorf("probed = %d, want 2", res.Probed)
	}
}

func TestResolve_InvalidCandidatesAreNeverProbed(t *testing.T) {
	launching := fake.App(1, "Launching")
	launching.FinishedLaunching = false
	terminated := fake.App(2, "Terminated")
	terminated.Terminated = true
	prohibited := fake.App(3, "Prohibited")
	prohibited.Policy = model.PolicyProhibited
	hung := fake.App(4, "Hung")
	hung.Unresponsive = true
	dead := fake.App(5, "Dead")

	ax := fake.NewAccessibility()
	for pid := 1; pid <= 5; pid++ {
		ax.SetBar(pid, item(100, 11))
	}
	win := window(1, 100, 11)
	r, _ := newTestResolver(ax, fake.NewWindows(win), 5)
	r.alive = func(pid int) bool { return pid != 5 }

	res := r.Resolve(win, candidates(launching, terminated, prohibited, hung, dead))
	if res.Outcome != NoMatch {
		t.Fatalf("outcome = %s, want no_match", res.Outcome)
	}
	if n := ax.TotalCalls(); n != 0 {
		t.Errorf("invalid candidates received %d accessibility calls", n)
	}
	if res.Probed != 0 {
		t.Errorf("probed = %d, want 0", res.Probed)
	}
}

func TestResolve_Vanished(t *testing.T) {
	ax := fake.NewAccessibility()
	windows := fake.NewWindows()
	r, rec := newTestResolver(ax, windows, 5)

	res := r.Resolve(window(9, 100, 11), candidates(fake.App(1, "A")))
	if res.Outcome != Vanished {
		t.Fatalf("outcome = %s, want vanished", res.Outcome)
	}
	if len(rec.recorded()) != 1 {
		t.Error("vanished window should abort after the first read")
	}
}

func TestOutcomeString(t *testing.T) {
	tests := map[Outcome]string{
		Resolved:   "resolved",
		NoMatch:    "no_match",
		Vanished:   "vanished",
		Unstable:   "unstable",
		Outcome(9): "unknown",
	}
	for o, want := range tests {
		if got := o.String(); got != want {
			t.Errorf("Outcome(%d).String() = %q, want %q", int(o), got, want)
		}
	}
}
