package metrics

import "github.com/prometheus/client_golang/prometheus"

// Cache read outcomes.
const (
	CacheOutcomeHit   = "hit"
	CacheOutcomeStale = "stale"
	CacheOutcomeMiss  = "miss"
)

// CacheMetrics tracks query cache behaviour per resource.
type CacheMetrics struct {
	reads         *prometheus.CounterVec
	fetchErrors   *prometheus.CounterVec
	invalidations *prometheus.CounterVec
	rollbacks     *prometheus.CounterVec
	entries       prometheus.Gauge
}

// NewCacheMetrics registers the query cache metrics on the provided registerer.
func NewCacheMetrics(reg prometheus.Registerer) *CacheMetrics {
	if reg == nil {
		return &CacheMetrics{}
	}
	reads := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "query_cache",
		Name:      "reads_total",
		Help:      "Query cache reads by resource and outcome.",
	}, []string{"resource", "outcome"})
	fetchErrors := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "query_cache",
		Name:      "fetch_errors_total",
		Help:      "Failed fetches by resource.",
	}, []string{"resource"})
	invalidations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "query_cache",
		Name:      "invalidations_total",
		Help:      "Entries invalidated by resource.",
	}, []string{"resource"})
	rollbacks := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "query_cache",
		Name:      "optimistic_rollbacks_total",
		Help:      "Optimistic updates reverted after a failed mutation.",
	}, []string{"resource"})
	entries := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "query_cache",
		Name:      "entries",
		Help:      "Entries currently held by the query cache.",
	})
	reg.MustRegister(reads, fetchErrors, invalidations, rollbacks, entries)
	return &CacheMetrics{
		reads:         reads,
		fetchErrors:   fetchErrors,
		invalidations: invalidations,
		rollbacks:     rollbacks,
		entries:       entries,
	}
}

// ObserveRead counts a read with the given outcome.
func (c *CacheMetrics) ObserveRead(resource, outcome string) {
	if c == nil || c.reads == nil {
		return
	}
	c.reads.WithLabelValues(normalizeLabel(resource), normalizeLabel(outcome)).Inc()
}

func (c *CacheMetrics) IncFetchError(resource string) {
	if c == nil || c.fetchErrors == nil {
		return
	}
	c.fetchErrors.WithLabelValues(normalizeLabel(resource)).Inc()
}

func (c *CacheMetrics) IncInvalidation(resource string) {
	if c == nil || c.invalidations == nil {
		return
	}
	c.invalidations.WithLabelValues(normalizeLabel(resource)).Inc()
}

func (c *CacheMetrics) IncRollback(resource string) {
	if c == nil || c.rollbacks == nil {
		return
	}
	c.rollbacks.WithLabelValues(normalizeLabel(resource)).Inc()
}

// SetEntries records the current entry count.
func (c *CacheMetrics) SetEntries(n int) {
	if c == nil || c.entries == nil {
		return
	}
	c.entries.Set(float64(n))
}
