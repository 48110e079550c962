// Package router maintains the ordered, health-filtered adapter lists the
// Flight/Weather Aggregator fans out to.
package router

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"
)

// health tracks one adapter's last known reachability.
type health struct {
	healthy       bool
	lastCheckedAt time.Time
}

// Adapter is the minimal surface the router needs from a source adapter,
// satisfied by both domain.FlightSourceAdapter and domain.WeatherSourceAdapter.
type Adapter interface {
	Name() string
	Priority() int
	IsAvailable(ctx context.Context) bool
}

// Router holds one adapter set (all flight adapters, or all weather
// adapters) sorted by priority, with a per-adapter health cache that is
// re-probed at most once per ReprobeInterval and never stampeded by
// concurrent callers.
type Router struct {
	adapters        []Adapter
	reprobeInterval time.Duration

	mu     sync.RWMutex
	health map[string]health

	group singleflight.Group
}

// New builds a Router over adapters, sorted by descending priority.
// reprobeInterval defaults to 5 minutes when zero.
func New(adapters []Adapter, reprobeInterval time.Duration) *Router {
	if reprobeInterval <= 0 {
		reprobeInterval = 5 * time.Minute
	}

	sorted := make([]Adapter, len(adapters))
	copy(sorted, adapters)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Priority() > sorted[j].Priority() })

	return &Router{
		adapters:        sorted,
		reprobeInterval: reprobeInterval,
		health:          make(map[string]health),
	}
}

// GetSources returns the adapters currently considered healthy, in
// priority order. An adapter with no cached verdict is probed before the
// call returns; it is not treated as healthy until a probe reports it
// available, so one whose first probe fails is left out.
func (r *Router) GetSources(ctx context.Context) []Adapter {
	out := make([]Adapter, 0, len(r.adapters))
	for _, a := range r.adapters {
		if r.isHealthy(ctx, a) {
			out = append(out, a)
		}
	}
	return out
}

// isHealthy returns the adapter's cached health, re-probing at most once
// per reprobeInterval. Concurrent callers for the same adapter share one
// in-flight probe via singleflight.
func (r *Router) isHealthy(ctx context.Context, a Adapter) bool {
	r.mu.RLock()
	h, known := r.health[a.Name()]
	r.mu.RUnlock()

	if known && time.Since(h.lastCheckedAt) <= r.reprobeInterval {
		return h.healthy
	}

	result, _, _ := r.group.Do(a.Name(), func() (interface{}, error) {
		healthy := a.IsAvailable(ctx)

		r.mu.Lock()
		r.health[a.Name()] = health{healthy: healthy, lastCheckedAt: time.Now()}
		r.mu.Unlock()

		return healthy, nil
	})

	return result.(bool)
}

// MarkUnhealthy immediately demotes an adapter that just failed mid-call.
// Its next re-probe still waits the normal interval from this moment.
func (r *Router) MarkUnhealthy(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.health[name] = health{healthy: false, lastCheckedAt: time.Now()}
	log.Warn().Str("adapter", name).Msg("adapter marked unhealthy")
}
