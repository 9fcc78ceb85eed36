package sourcepid

import (
	"slices"
	"testing"
	"time"

	"github.com/mj1618/icepid/internal/model"
	"github.com/mj1618/icepid/internal/platform/fake"
)

func pids(cs []*Candidate) []int {
	out := make([]int, len(cs))
	for i, c := range cs {
		out[i] = c.PID()
	}
	return out
}

func TestRegistryRefresh_ReusesWrappers(t *testing.T) {
	ax := fake.NewAccessibility()
	ax.SetBar(1, item(100, 11))

	r := NewRegistry()
	added, removed := r.Refresh([]model.AppInfo{fake.App(1, "A"), fake.App(2, "B")})
	if !slices.Equal(added, []int{1, 2}) || len(removed) != 0 {
		t.Fatalf("added=%v removed=%v", added, removed)
	}

	first := r.byPID[1]
	if _, _, ok := first.extrasBar(ax, time.Now()); !ok {
		t.Fatal("expected extras bar")
	}

	added, removed = r.Refresh([]model.AppInfo{fake.App(1, "A"), fake.App(3, "C")})
	if !slices.Equal(added, []int{3}) || !slices.Equal(removed, []int{2}) {
		t.Fatalf("added=%v removed=%v", added, removed)
	}
	if r.byPID[1] != first {
		t.Fatal("wrapper for a surviving pid should be reused")
	}
	if _, asked, ok := r.byPID[1].extrasBar(ax, time.Now()); !ok || asked {
		t.Errorf("memoized extras bar lost across refresh (asked=%v ok=%v)", asked, ok)
	}
	if ax.BarCalls(1) != 1 {
		t.Errorf("MenuExtrasBar called %d times for pid 1, want 1", ax.BarCalls(1))
	}
	if r.Has(2) || !r.Has(3) || r.Len() != 2 {
		t.Errorf("unexpected candidate set %v", pids(r.Ordered()))
	}
}

func TestRegistryRefresh_SkipsInvalidAndDuplicatePIDs(t *testing.T) {
	r := NewRegistry()
	r.Refresh([]model.AppInfo{fake.App(0, "Zero"), fake.App(5, "A"), fake.App(5, "Again"), fake.App(-1, "Neg")})
	if r.Len() != 1 {
		t.Fatalf("Len = %d, want 1", r.Len())
	}
	if app, _ := r.App(5); app.Name != "A" {
		t.Errorf("first occurrence should win, got %q", app.Name)
	}
}

func TestRegistryRefresh_UpdatesInfo(t *testing.T) {
	r := NewRegistry()
	a := fake.App(1, "A")
	r.Refresh([]model.AppInfo{a})
	a.Unresponsive = true
	r.Refresh([]model.AppInfo{a})
	if app, _ := r.App(1); !app.Unresponsive {
		t.Error("refresh should update flags on a reused wrapper")
	}
}

func TestRegistryOrdered_Tiers(t *testing.T) {
	ax := fake.NewAccessibility()
	ax.SetBar(2, item(100, 11))
	ax.SetBar(4, item(200, 11))
	ax.SetBar(5)

	host := fake.App(3, "ControlCenter")
	host.BundleID = "com.apple.controlcenter"
	hostWithItems := fake.App(4, "SystemUIServer")
	hostWithItems.BundleID = "com.apple.systemuiserver"

	r := NewRegistry()
	r.Refresh([]model.AppInfo{
		fake.App(1, "Untried"),
		fake.App(2, "HasItems"),
		host,
		hostWithItems,
		fake.App(5, "EmptyBar"),
		fake.App(6, "NoBar"),
		fake.App(7, "Untried2"),
	})

	now := time.Now()
	for _, pid := range []int{2, 4, 5, 6} {
		c := r.byPID[pid]
		if bar, _, ok := c.extrasBar(ax, now); ok {
			c.noteItems(len(ax.Children(bar)))
		}
	}

	// Tier 0: known items (host last). Tier 1: untried (host last).
	// Tier 2: empty or absent.
	want := []int{2, 4, 1, 7, 3, 5, 6}
	if got := pids(r.Ordered()); !slices.Equal(got, want) {
		t.Errorf("order = %v, want %v", got, want)
	}
}

func TestRegistryLive(t *testing.T) {
	r := NewRegistry()
	r.Refresh([]model.AppInfo{fake.App(1, "A"), fake.App(2, "B")})
	live := r.Live()
	if len(live) != 2 || !live[1] || !live[2] {
		t.Errorf("live = %v", live)
	}
}

func TestCandidateValid(t *testing.T) {
	alive := func(pid int) bool { return pid != 99 }
	tests := []struct {
		name   string
		mutate func(*model.AppInfo)
		want   bool
	}{
		{"ready", func(*model.AppInfo) {}, true},
		{"regular policy", func(a *model.AppInfo) { a.Policy = model.PolicyRegular }, true},
		{"still launching", func(a *model.AppInfo) { a.FinishedLaunching = false }, false},
		{"terminated", func(a *model.AppInfo) { a.Terminated = true }, false},
		{"background only", func(a *model.AppInfo) { a.Policy = model.PolicyProhibited }, false},
		{"unresponsive", func(a *model.AppInfo) { a.Unresponsive = true }, false},
		{"process gone", func(a *model.AppInfo) { a.PID = 99 }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info := fake.App(1, "A")
			tt.mutate(&info)
			if got := newCandidate(info).valid(alive); got != tt.want {
				t.Errorf("valid = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCandidateExtrasBar_MemoizesAbsentThenRetries(t *testing.T) {
	ax := fake.NewAccessibility()
	c := newCandidate(fake.App(1, "A"))
	now := time.Now()

	if _, asked, ok := c.extrasBar(ax, now); ok || !asked {
		t.Fatalf("first call: asked=%v ok=%v, want asked and absent", asked, ok)
	}
	if c.barState() != containerAbsent {
		t.Fatalf("state = %s, want absent", c.barState())
	}

	ax.SetBar(1, item(100, 11))
	if _, asked, _ := c.extrasBar(ax, now.Add(time.Second)); asked {
		t.Error("absent result should be trusted within the retry window")
	}
	if _, asked, ok := c.extrasBar(ax, now.Add(absentRetry)); !asked || !ok {
		t.Errorf("after retry window: asked=%v ok=%v, want a fresh present answer", asked, ok)
	}
	if c.barState() != containerPresent {
		t.Errorf("state = %s, want present", c.barState())
	}
}

func TestCandidateSetInfo_LaunchCompletionResetsAbsent(t *testing.T) {
	ax := fake.NewAccessibility()
	info := fake.App(1, "A")
	info.FinishedLaunching = false
	c := newCandidate(info)
	c.extrasBar(ax, time.Now())

	info.FinishedLaunching = true
	c.setInfo(info)
	if c.barState() != containerUntried {
		t.Errorf("state = %s, want untried after launch completes", c.barState())
	}
}
