package sourcepid

import (
	"slices"

	"github.com/mj1618/icepid/internal/model"
)

// Registry tracks the running applications that may own menu bar items.
// It is not safe for concurrent use; the Cache guards it with its lock.
type Registry struct {
	candidates []*Candidate
	byPID      map[int]*Candidate
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{byPID: make(map[int]*Candidate)}
}

// Refresh replaces the candidate list with apps, the authoritative set of
// running applications. Wrappers for PIDs that are still running are reused
// so their memoized extras menu bars survive. It returns the PIDs that were
// added and removed.
func (r *Registry) Refresh(apps []model.AppInfo) (added, removed []int) {
	next := make([]*Candidate, 0, len(apps))
	nextByPID := make(map[int]*Candidate, len(apps))

	for _, info := range apps {
		if info.PID <= 0 {
			continue
		}
		if _, dup := nextByPID[info.PID]; dup {
			continue
		}
		c, ok := r.byPID[info.PID]
		if ok {
			c.setInfo(info)
		} else {
			c = newCandidate(info)
			added = append(added, info.PID)
		}
		next = append(next, c)
		nextByPID[info.PID] = c
	}

	for pid := range r.byPID {
		if _, ok := nextByPID[pid]; !ok {
			removed = append(removed, pid)
		}
	}
	slices.Sort(removed)

	r.candidates = next
	r.byPID = nextByPID
	return added, removed
}

// Ordered returns the candidates in probe order. Apps already known to have
// menu bar items come first since they are the most likely match; untried
// apps follow, then apps with nothing to offer. Within a tier the system
// status bar hosts go last and OS order is otherwise preserved.
func (r *Registry) Ordered() []*Candidate {
	type ranked struct {
		c    *Candidate
		tier int
		host bool
	}
	rs := make([]ranked, len(r.candidates))
	for i, c := range r.candidates {
		rs[i] = ranked{c: c, tier: c.tier(), host: c.Info().IsStatusBarHost()}
	}
	slices.SortStableFunc(rs, func(a, b ranked) int {
		if a.tier != b.tier {
			return a.tier - b.tier
		}
		switch {
		case a.host == b.host:
			return 0
		case a.host:
			return 1
		default:
			return -1
		}
	})

	out := make([]*Candidate, len(rs))
	for i, x := range rs {
		out[i] = x.c
	}
	return out
}

// Has reports whether pid is a current candidate.
func (r *Registry) Has(pid int) bool {
	_, ok := r.byPID[pid]
	return ok
}

// App returns the OS description of a candidate.
func (r *Registry) App(pid int) (model.AppInfo, bool) {
	c, ok := r.byPID[pid]
	if !ok {
		return model.AppInfo{}, false
	}
	return c.Info(), true
}

// Live returns the set of candidate PIDs.
func (r *Registry) Live() map[int]bool {
	live := make(map[int]bool, len(r.byPID))
	for pid := range r.byPID {
		live[pid] = true
	}
	return live
}

// Len returns the number of candidates.
func (r *Registry) Len() int {
	return len(r.candidates)
}
