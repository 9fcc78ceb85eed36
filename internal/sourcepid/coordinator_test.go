package sourcepid

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mj1618/icepid/internal/model"
	"github.com/mj1618/icepid/internal/platform"
	"github.com/mj1618/icepid/internal/platform/fake"
)

func startCoordinator(t *testing.T, co *Coordinator) (chan platform.AppsChanged, <-chan int) {
	t.Helper()
	events := make(chan platform.AppsChanged)
	warmed := make(chan int, 16)
	co.warmed = func(n int) { warmed <- n }

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- co.Run(ctx, events) }()
	t.Cleanup(func() {
		cancel()
		select {
		case <-errc:
		case <-time.After(2 * time.Second):
			t.Error("coordinator did not stop")
		}
	})
	return events, warmed
}

func nextWarm(t *testing.T, warmed <-chan int) int {
	t.Helper()
	select {
	case n := <-warmed:
		return n
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for warm pass")
	}
	return 0
}

func TestCoordinator_RefreshThenWarm(t *testing.T) {
	ax := fake.NewAccessibility()
	ax.SetBar(10, item(100, 11))
	ax.SetBar(20, item(140, 11))
	windows := fake.NewWindows(window(1, 100, 11), window(2, 140, 11))
	c := New(ax, windows, testOptions())
	co := NewCoordinator(c, windows, 0, testOptions().Logger)
	events, warmed := startCoordinator(t, co)

	events <- platform.AppsChanged{Apps: []model.AppInfo{fake.App(10, "A"), fake.App(20, "B")}}
	if n := nextWarm(t, warmed); n != 2 {
		t.Fatalf("warm resolved %d, want 2", n)
	}
	if pid, ok := c.Cached(1); !ok || pid != 10 {
		t.Errorf("window 1 = (%d, %v), want (10, true)", pid, ok)
	}

	// B quits: its entry goes, A's stays without re-probing.
	calls := ax.Calls(10)
	windows.SetWindows(window(1, 100, 11))
	events <- platform.AppsChanged{Apps: []model.AppInfo{fake.App(10, "A")}}
	nextWarm(t, warmed)
	if _, ok := c.Cached(2); ok {
		t.Error("entry for departed pid 20 should be pruned")
	}
	if pid, ok := c.Cached(1); !ok || pid != 10 {
		t.Errorf("window 1 = (%d, %v), want (10, true)", pid, ok)
	}
	if ax.Calls(10) != calls {
		t.Error("cached window should not be re-probed by warm")
	}
}

func TestCoordinator_WarmListFailureKeepsState(t *testing.T) {
	ax := fake.NewAccessibility()
	ax.SetBar(10, item(100, 11))
	windows := fake.NewWindows(window(1, 100, 11))
	c := New(ax, windows, testOptions())
	co := NewCoordinator(c, windows, 0, testOptions().Logger)
	events, warmed := startCoordinator(t, co)

	events <- platform.AppsChanged{Apps: []model.AppInfo{fake.App(10, "A")}}
	nextWarm(t, warmed)

	windows.FailList(errors.New("window server busy"))
	co.RequestWarm()
	// No warm callback on failure; give it a moment and check nothing was lost.
	time.Sleep(20 * time.Millisecond)
	if _, ok := c.Cached(1); !ok {
		t.Error("failed warm should not drop entries")
	}
}

func TestCoordinator_PeriodicWarm(t *testing.T) {
	ax := fake.NewAccessibility()
	ax.SetBar(10, item(100, 11))
	windows := fake.NewWindows()
	c := New(ax, windows, testOptions())
	c.Refresh([]model.AppInfo{fake.App(10, "A")})

	co := NewCoordinator(c, windows, 5*time.Millisecond, testOptions().Logger)
	_, warmed := startCoordinator(t, co)

	// An item appears without any app launching.
	windows.SetWindows(window(1, 100, 11))
	for {
		if nextWarm(t, warmed) > 0 {
			break
		}
	}
	if pid, ok := c.Cached(1); !ok || pid != 10 {
		t.Errorf("window 1 = (%d, %v), want (10, true)", pid, ok)
	}
}

func TestCoordinator_StopsWhenEventsClose(t *testing.T) {
	c := New(fake.NewAccessibility(), fake.NewWindows(), testOptions())
	co := NewCoordinator(c, fake.NewWindows(), 0, nil)
	events := make(chan platform.AppsChanged)
	close(events)

	done := make(chan error, 1)
	go func() { done <- co.Run(context.Background(), events) }()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run = %v, want nil", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after events closed")
	}
}
