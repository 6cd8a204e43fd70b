package llmcache

import (
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// cacheMetrics instruments cache traffic. A nil receiver is a no-op,
// so callers never branch on whether metrics are enabled.
type cacheMetrics struct {
	hits          prometheus.Counter
	misses        prometheus.Counter
	stores        prometheus.Counter
	checkDuration prometheus.Histogram
}

func newCacheMetrics(reg prometheus.Registerer) (*cacheMetrics, error) {
	m := &cacheMetrics{
		hits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "redisvl",
			Subsystem: "llmcache",
			Name:      "hits_total",
			Help:      "Check calls that returned at least one hit.",
		}),
		misses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "redisvl",
			Subsystem: "llmcache",
			Name:      "misses_total",
			Help:      "Check calls that returned no hits.",
		}),
		stores: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "redisvl",
			Subsystem: "llmcache",
			Name:      "stores_total",
			Help:      "Entries written to the cache.",
		}),
		checkDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "redisvl",
			Subsystem: "llmcache",
			Name:      "check_duration_seconds",
			Help:      "Latency of Check calls, embedding included.",
			Buckets:   prometheus.DefBuckets,
		}),
	}

	for _, c := range []*prometheus.Counter{&m.hits, &m.misses, &m.stores} {
		if err := registerOrReuse(reg, c); err != nil {
			return nil, err
		}
	}
	if err := registerOrReuse(reg, &m.checkDuration); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *cacheMetrics) incHits() {
	if m != nil {
		m.hits.Inc()
	}
}

func (m *cacheMetrics) incMisses() {
	if m != nil {
		m.misses.Inc()
	}
}

func (m *cacheMetrics) incStores() {
	if m != nil {
		m.stores.Inc()
	}
}

func (m *cacheMetrics) observeCheck(d time.Duration) {
	if m != nil {
		m.checkDuration.Observe(d.Seconds())
	}
}

// registerOrReuse registers a collector or reuses an existing one.
func registerOrReuse[T prometheus.Collector](reg prometheus.Registerer, c *T) error {
	if err := reg.Register(*c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			existing, ok := are.ExistingCollector.(T)
			if !ok {
				return fmt.Errorf("llmcache: metric already registered with incompatible type: %T", are.ExistingCollector)
			}
			*c = existing
			return nil
		}
		return fmt.Errorf("llmcache: register metric: %w", err)
	}
	return nil
}
