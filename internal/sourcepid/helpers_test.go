package sourcepid

import (
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/mj1618/icepid/internal/model"
	"github.com/mj1618/icepid/internal/platform"
	"github.com/mj1618/icepid/internal/platform/fake"
)

// rectAt returns a 20x20 rect centered on (cx, cy).
func rectAt(cx, cy float64) model.Rect {
	return model.Rect{X: cx - 10, Y: cy - 10, Width: 20, Height: 20}
}

func item(cx, cy float64) fake.Item {
	return fake.Item{Frame: rectAt(cx, cy)}
}

func window(id uint32, cx, cy float64) model.WindowRef {
	return model.WindowRef{ID: id, Bounds: rectAt(cx, cy), OwnerPID: 1, OnScreen: true}
}

type sleepRecorder struct {
	mu     sync.Mutex
	delays []time.Duration
}

func (s *sleepRecorder) sleep(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.delays = append(s.delays, d)
}

func (s *sleepRecorder) recorded() []time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]time.Duration(nil), s.delays...)
}

func testOptions() Options {
	return Options{
		Tolerance: 10,
		Logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		Alive:     func(int) bool { return true },
		Sleep:     func(time.Duration) {},
	}
}

func newTestCache(ax platform.Accessibility, windows platform.WindowLister, opts Options, apps ...model.AppInfo) *Cache {
	c := New(ax, windows, opts)
	c.Refresh(apps)
	return c
}

// gatedAX blocks MenuExtrasBar until the gate is closed or fed.
type gatedAX struct {
	*fake.Accessibility
	entered chan int
	gate    chan struct{}
}

func newGatedAX() *gatedAX {
	return &gatedAX{
		Accessibility: fake.NewAccessibility(),
		entered:       make(chan int, 16),
		gate:          make(chan struct{}),
	}
}

func (g *gatedAX) MenuExtrasBar(pid int) (platform.Element, bool) {
	g.entered <- pid
	<-g.gate
	return g.Accessibility.MenuExtrasBar(pid)
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(time.Millisecond)
	}
}
