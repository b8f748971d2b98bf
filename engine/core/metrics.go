package core

import (
	"github.com/prometheus/client_golang/prometheus"
)

const (
	metricsNamespace = "anima"
	metricsSubsystem = "assets"
)

// LoaderMetrics holds the collectors of one loader. Every loader gets its own set so
// independent loaders never share counters.
type LoaderMetrics struct {
	// CacheHits counts lookups answered by a resolved entry.
	CacheHits prometheus.Counter
	// CacheMisses counts lookups that started a new resolution.
	CacheMisses prometheus.Counter
	// CacheShares counts lookups that joined a pending resolution.
	CacheShares prometheus.Counter
	// Evictions counts cache entries removed by disposal, unload or explicit eviction.
	Evictions prometheus.Counter
	// Failures counts failed resolutions per parser.
	Failures *prometheus.CounterVec
	// InProgress tracks the number of resolutions currently running.
	InProgress prometheus.Gauge
	// ResolutionDuration tracks how long a resolution takes per loading parser.
	ResolutionDuration *prometheus.HistogramVec
}

func NewLoaderMetrics() *LoaderMetrics {
	return &LoaderMetrics{
		CacheHits:   newCounter("cache_hit", "Number of times a resolved asset was served from cache."),
		CacheMisses: newCounter("cache_miss", "Number of times a cache miss started a resolution."),
		CacheShares: newCounter("cache_share", "Number of times a request joined a pending resolution."),
		Evictions:   newCounter("cache_eviction", "Number of cache entries evicted."),
		Failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "load_failure",
			Help:      "Number of failed asset resolutions.",
		}, []string{"parser"}),
		InProgress: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "in_progress",
			Help:      "Number of asset resolutions currently in progress.",
		}),
		ResolutionDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "resolution_duration_seconds",
			Help:      "Duration of asset resolutions in seconds.",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		}, []string{"parser"}),
	}
}

// Register adds every collector to reg.
func (m *LoaderMetrics) Register(reg prometheus.Registerer) error {
	for _, c := range m.collectors() {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

func (m *LoaderMetrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.CacheHits,
		m.CacheMisses,
		m.CacheShares,
		m.Evictions,
		m.Failures,
		m.InProgress,
		m.ResolutionDuration,
	}
}

func newCounter(name, help string) prometheus.Counter {
	return prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Subsystem: metricsSubsystem,
		Name:      name,
		Help:      help,
	})
}
