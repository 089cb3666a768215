package respcache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// NewMetricsHooks builds Hooks backed by prometheus counters registered on
// reg.
func NewMetricsHooks(reg prometheus.Registerer) Hooks {
	hits := promauto.With(reg).NewCounter(prometheus.CounterOpts{
		Name: "respcache_hits_total",
		Help: "Response cache hits.",
	})
	misses := promauto.With(reg).NewCounter(prometheus.CounterOpts{
		Name: "respcache_misses_total",
		Help: "Response cache misses.",
	})
	stores := promauto.With(reg).NewCounter(prometheus.CounterOpts{
		Name: "respcache_stores_total",
		Help: "Values stored in the response cache.",
	})
	evictions := promauto.With(reg).NewCounter(prometheus.CounterOpts{
		Name: "respcache_evictions_total",
		Help: "Entries evicted from the response cache by the size limit.",
	})

	return Hooks{
		OnHit:   func(string) { hits.Inc() },
		OnMiss:  func(string) { misses.Inc() },
		OnStore: func(string) { stores.Inc() },
		OnEvict: func(string) { evictions.Inc() },
	}
}
