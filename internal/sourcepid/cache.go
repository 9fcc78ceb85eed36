package sourcepid

import (
	"context"
	"log/slog"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/mj1618/icepid/internal/model"
	"github.com/mj1618/icepid/internal/platform"
	"golang.org/x/sync/singleflight"
)

const (
	DefaultTolerance         = 5.0
	DefaultStabilizeAttempts = 5
	DefaultStabilizeDelay    = 10 * time.Millisecond
	DefaultNegativeTTL       = 2 * time.Second
	DefaultWorkers           = 1

	negativeCacheSize = 512
)

// Options tunes a Cache. Zero values select the defaults; a negative
// NegativeTTL disables negative caching.
type Options struct {
	Tolerance         float64
	StabilizeAttempts int
	StabilizeDelay    time.Duration
	NegativeTTL       time.Duration
	Workers           int

	Logger *slog.Logger
	Alive  func(pid int) bool
	Sleep  func(time.Duration)
	Now    func() time.Time
}

func (o Options) withDefaults() Options {
	if o.Tolerance <= 0 {
		o.Tolerance = DefaultTolerance
	}
	if o.StabilizeAttempts <= 0 {
		o.StabilizeAttempts = DefaultStabilizeAttempts
	}
	if o.StabilizeDelay <= 0 {
		o.StabilizeDelay = DefaultStabilizeDelay
	}
	if o.NegativeTTL == 0 {
		o.NegativeTTL = DefaultNegativeTTL
	}
	if o.Workers <= 0 {
		o.Workers = DefaultWorkers
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	if o.Alive == nil {
		o.Alive = platform.ProcessAlive
	}
	if o.Sleep == nil {
		o.Sleep = time.Sleep
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

// Stats is a point-in-time view of cache activity.
type Stats struct {
	Entries      int              `yaml:"entries"       json:"entries"`
	Candidates   int              `yaml:"candidates"    json:"candidates"`
	Hits         int64            `yaml:"hits"          json:"hits"`
	NegativeHits int64            `yaml:"negative_hits" json:"negative_hits"`
	Misses       int64            `yaml:"misses"        json:"misses"`
	Probes       int64            `yaml:"probes"        json:"probes"`
	Outcomes     map[string]int64 `yaml:"outcomes"      json:"outcomes"`
}

type resolution struct {
	pid int
	ok  bool
}

// Cache maps menu bar item window IDs to their source PIDs.
//
// One RWMutex guards the candidate registry and the PID map together. Cache
// hits only take the read lock. Misses go through a per-window singleflight
// so concurrent lookups of one window share a single resolution, and every
// resolution holds a worker slot, which bounds how many apps are being
// probed at once. The lock is never held across accessibility calls.
type Cache struct {
	mu         sync.RWMutex
	registry   *Registry
	pids       map[uint32]int
	generation uint64

	negative *expirable.LRU[uint32, struct{}]
	flight   singleflight.Group
	workers  chan struct{}
	resolver *Resolver
	logger   *slog.Logger

	hits         atomic.Int64
	negativeHits atomic.Int64
	misses       atomic.Int64
	probes       atomic.Int64
	outcomes     [Unstable + 1]atomic.Int64
}

// New creates a Cache that probes ax and reads window bounds from windows.
func New(ax platform.Accessibility, windows platform.WindowLister, opts Options) *Cache {
	opts = opts.withDefaults()
	logger := opts.Logger.With(slog.String("component", "sourcepid"))
	opts.Logger = logger

	c := &Cache{
		registry: NewRegistry(),
		pids:     make(map[uint32]int),
		workers:  make(chan struct{}, opts.Workers),
		resolver: newResolver(ax, windows, opts),
		logger:   logger,
	}
	if opts.NegativeTTL > 0 {
		c.negative = expirable.NewLRU[uint32, struct{}](negativeCacheSize, nil, opts.NegativeTTL)
	}
	return c
}

// Lookup returns the source PID of the menu bar item window ref. A cached
// answer is returned immediately; otherwise the window is resolved and the
// result stored before returning. If ctx ends first, Lookup returns
// unresolved but the resolution keeps running and still fills the cache.
func (c *Cache) Lookup(ctx context.Context, ref model.WindowRef) (int, bool) {
	if pid, ok := c.Cached(ref.ID); ok {
		c.hits.Add(1)
		return pid, true
	}
	if c.knownUnresolvable(ref.ID) {
		c.negativeHits.Add(1)
		return 0, false
	}
	c.misses.Add(1)

	ch := c.flight.DoChan(strconv.FormatUint(uint64(ref.ID), 10), func() (interface{}, error) {
		return c.resolve(ref), nil
	})
	select {
	case res := <-ch:
		r := res.Val.(resolution)
		return r.pid, r.ok
	case <-ctx.Done():
		c.logger.Debug("lookup abandoned by caller", slog.Any("window_id", ref.ID), slog.Any("error", ctx.Err()))
		return 0, false
	}
}

// Cached returns the stored PID for windowID without resolving.
func (c *Cache) Cached(windowID uint32) (int, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	pid, ok := c.pids[windowID]
	return pid, ok
}

func (c *Cache) knownUnresolvable(windowID uint32) bool {
	if c.negative == nil {
		return false
	}
	_, ok := c.negative.Get(windowID)
	return ok
}

// resolve runs inside the singleflight for ref.ID.
func (c *Cache) resolve(ref model.WindowRef) resolution {
	// Another flight for this window may have finished while we queued.
	if pid, ok := c.Cached(ref.ID); ok {
		return resolution{pid: pid, ok: true}
	}

	c.workers <- struct{}{}
	defer func() { <-c.workers }()

	c.mu.RLock()
	candidates := c.registry.Ordered()
	gen := c.generation
	c.mu.RUnlock()

	start := time.Now()
	res := c.resolver.Resolve(ref, candidates)
	c.probes.Add(int64(res.Probed))
	c.outcomes[res.Outcome].Add(1)

	c.mu.Lock()
	defer c.mu.Unlock()

	log := c.logger.With(
		slog.Any("window_id", ref.ID),
		slog.String("outcome", res.Outcome.String()),
		slog.Int("probed", res.Probed),
		slog.Duration("elapsed", time.Since(start)),
	)

	switch res.Outcome {
	case Resolved:
		if !c.registry.Has(res.PID) {
			// The app quit while we were probing it.
			log.Debug("discarding resolution for departed app", slog.Int("pid", res.PID))
			return resolution{}
		}
		c.pids[ref.ID] = res.PID
		if c.negative != nil {
			c.negative.Remove(ref.ID)
		}
		log.Debug("resolved menu bar item", slog.Int("pid", res.PID))
		return resolution{pid: res.PID, ok: true}
	case Vanished:
		delete(c.pids, ref.ID)
		log.Debug("menu bar item window vanished")
	case NoMatch:
		// A refresh during the probe may have brought in the real owner.
		if c.negative != nil && gen == c.generation {
			c.negative.Add(ref.ID, struct{}{})
		}
		log.Debug("no candidate matched menu bar item", slog.Float64("tolerance", c.resolver.Tolerance()))
	case Unstable:
		log.Debug("menu bar item did not settle")
	}
	return resolution{}
}

// Refresh applies a new running-application set: the registry is rebuilt,
// entries pointing at departed PIDs are pruned and remembered misses are
// forgotten, all under one lock acquisition.
func (c *Cache) Refresh(apps []model.AppInfo) {
	c.mu.Lock()
	added, removed := c.registry.Refresh(apps)
	pruned := c.pruneLocked(c.registry.Live())
	c.generation++
	if c.negative != nil {
		c.negative.Purge()
	}
	candidates := c.registry.Len()
	c.mu.Unlock()

	if len(added) > 0 || len(removed) > 0 || pruned > 0 {
		c.logger.Info("running applications changed",
			slog.Int("candidates", candidates),
			slog.Any("added", added),
			slog.Any("removed", removed),
			slog.Int("pruned", pruned),
		)
	}
}

// Prune drops every entry whose PID is not in live and returns how many
// were removed.
func (c *Cache) Prune(live map[int]bool) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pruneLocked(live)
}

func (c *Cache) pruneLocked(live map[int]bool) int {
	n := 0
	for id, pid := range c.pids {
		if !live[pid] {
			delete(c.pids, id)
			n++
		}
	}
	return n
}

// Warm resolves every window in windows that has no entry yet and returns
// how many resolved. It is meant to run off the query path so that later
// lookups are cache hits.
func (c *Cache) Warm(ctx context.Context, windows []model.WindowRef) int {
	n := 0
	for _, w := range windows {
		if ctx.Err() != nil {
			break
		}
		if _, ok := c.Cached(w.ID); ok {
			continue
		}
		if _, ok := c.Lookup(ctx, w); ok {
			n++
		}
	}
	return n
}

// Invalidate forgets everything known about windowID.
func (c *Cache) Invalidate(windowID uint32) {
	c.mu.Lock()
	delete(c.pids, windowID)
	c.mu.Unlock()
	if c.negative != nil {
		c.negative.Remove(windowID)
	}
}

// SetTolerance changes the match tolerance. Remembered misses are dropped
// since they were decided under the old value.
func (c *Cache) SetTolerance(t float64) {
	if t <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resolver.setTolerance(t)
	c.generation++
	if c.negative != nil {
		c.negative.Purge()
	}
}

// Tolerance returns the current match tolerance.
func (c *Cache) Tolerance() float64 {
	return c.resolver.Tolerance()
}

// Entries returns a copy of the window ID to PID map.
func (c *Cache) Entries() map[uint32]int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[uint32]int, len(c.pids))
	for id, pid := range c.pids {
		out[id] = pid
	}
	return out
}

// App returns the running application with the given PID.
func (c *Cache) App(pid int) (model.AppInfo, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.registry.App(pid)
}

// Candidates returns the running applications in current probe order.
func (c *Cache) Candidates() []model.AppInfo {
	c.mu.RLock()
	ordered := c.registry.Ordered()
	c.mu.RUnlock()

	out := make([]model.AppInfo, len(ordered))
	for i, cand := range ordered {
		out[i] = cand.Info()
	}
	return out
}

// Stats returns current counters.
func (c *Cache) Stats() Stats {
	c.mu.RLock()
	entries := len(c.pids)
	candidates := c.registry.Len()
	c.mu.RUnlock()

	outcomes := make(map[string]int64, len(c.outcomes))
	for i := range c.outcomes {
		outcomes[Outcome(i).String()] = c.outcomes[i].Load()
	}
	return Stats{
		Entries:      entries,
		Candidates:   candidates,
		Hits:         c.hits.Load(),
		NegativeHits: c.negativeHits.Load(),
		Misses:       c.misses.Load(),
		Probes:       c.probes.Load(),
		Outcomes:     outcomes,
	}
}
