// Package metrics provides Prometheus metrics for the reputation engine.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns all Prometheus collectors for the engine.
type Manager struct {
	namespace string
	subsystem string
	buckets   []float64
	enabled   bool
	registry  prometheus.Registerer

	// Ledger metrics
	awardsTotal      prometheus.Counter
	awardErrors      prometheus.Counter
	awardPoints      prometheus.Counter
	dailyLoginRepeat prometheus.Counter

	// Badge metrics
	badgeGrants     prometheus.Counter
	badgeEvalErrors prometheus.Counter

	// Leaderboard metrics
	leaderboardQueries      *prometheus.CounterVec
	snapshotRebuilds        prometheus.Counter
	snapshotRebuildErrors   prometheus.Counter
	snapshotRebuildDuration prometheus.Histogram
	snapshotLastRebuildUnix prometheus.Gauge

	// Cache metrics
	cacheHits   prometheus.Counter
	cacheMisses prometheus.Counter
	cacheErrors prometheus.Counter

	// Notification metrics
	notifyErrors prometheus.Counter
}

// Global manager backed by its own registry so default Go collectors stay out.
var globalRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // singleton metrics registry
var globalManager *Manager                    //nolint:gochecknoglobals // singleton metrics manager

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithRegistry(globalRegistry))
}

// NewManager creates a metrics manager with the given options applied.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace: "reputation",
		subsystem: "engine",
		buckets:   prometheus.DefBuckets,
		enabled:   true,
		registry:  prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initCollectors()
	return m
}

func (m *Manager) initCollectors() {
	auto := promauto.With(m.registry)

	m.awardsTotal = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "awards_total",
		Help:      "Total number of committed point awards",
	})
	m.awardErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "award_errors_total",
		Help:      "Total number of failed ledger writes",
	})
	m.awardPoints = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "award_points_total",
		Help:      "Sum of absolute point deltas committed to the ledger",
	})
	m.dailyLoginRepeat = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "daily_login_repeat_total",
		Help:      "Daily login calls that were already awarded for the day",
	})

	m.badgeGrants = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "badge_grants_total",
		Help:      "Total number of newly granted badges",
	})
	m.badgeEvalErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "badge_eval_errors_total",
		Help:      "Total number of failed badge evaluations",
	})

	m.leaderboardQueries = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "leaderboard_queries_total",
		Help:      "Leaderboard reads by serving source",
	}, []string{"source"})
	m.snapshotRebuilds = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "snapshot_rebuilds_total",
		Help:      "Total number of leaderboard snapshot rebuilds per timeframe",
	})
	m.snapshotRebuildErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "snapshot_rebuild_errors_total",
		Help:      "Total number of failed timeframe snapshot rebuilds",
	})
	m.snapshotRebuildDuration = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "snapshot_rebuild_duration_seconds",
		Help:      "Duration of a full snapshot rebuild pass",
		Buckets:   m.buckets,
	})
	m.snapshotLastRebuildUnix = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "snapshot_last_rebuild_timestamp_seconds",
		Help:      "Unix time of the last successful snapshot rebuild pass",
	})

	m.cacheHits = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "cache_hits_total",
		Help:      "Total number of cache hits on derived views",
	})
	m.cacheMisses = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "cache_misses_total",
		Help:      "Total number of cache misses on derived views",
	})
	m.cacheErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "cache_errors_total",
		Help:      "Total number of swallowed cache errors",
	})

	m.notifyErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "notification_errors_total",
		Help:      "Total number of dropped badge-earned notifications",
	})
}

// Registry returns the registry backing the global manager, for serving /metrics.
func Registry() *prometheus.Registry { return globalRegistry }

// Package-level helpers against the global manager.

func RecordAward(delta int64) {
	if !globalManager.enabled {
		return
	}
	globalManager.awardsTotal.Inc()
	if delta < 0 {
		delta = -delta
	}
	globalManager.awardPoints.Add(float64(delta))
}

func RecordAwardError() {
	if globalManager.enabled {
		globalManager.awardErrors.Inc()
	}
}

func RecordDailyLoginRepeat() {
	if globalManager.enabled {
		globalManager.dailyLoginRepeat.Inc()
	}
}

func RecordBadgeGrant() {
	if globalManager.enabled {
		globalManager.badgeGrants.Inc()
	}
}

func RecordBadgeEvalError() {
	if globalManager.enabled {
		globalManager.badgeEvalErrors.Inc()
	}
}

// RecordLeaderboardQuery tags a read with its serving source: cache, snapshot or live.
func RecordLeaderboardQuery(source string) {
	if globalManager.enabled {
		globalManager.leaderboardQueries.WithLabelValues(source).Inc()
	}
}

func RecordSnapshotRebuild() {
	if globalManager.enabled {
		globalManager.snapshotRebuilds.Inc()
	}
}

func RecordSnapshotRebuildError() {
	if globalManager.enabled {
		globalManager.snapshotRebuildErrors.Inc()
	}
}

func RecordSnapshotRebuildPass(d time.Duration) {
	if globalManager.enabled {
		globalManager.snapshotRebuildDuration.Observe(d.Seconds())
		globalManager.snapshotLastRebuildUnix.SetToCurrentTime()
	}
}

func RecordCacheHit() {
	if globalManager.enabled {
		globalManager.cacheHits.Inc()
	}
}

func RecordCacheMiss() {
	if globalManager.enabled {
		globalManager.cacheMisses.Inc()
	}
}

func RecordCacheError() {
	if globalManager.enabled {
		globalManager.cacheErrors.Inc()
	}
}

func RecordNotifyError() {
	if globalManager.enabled {
		globalManager.notifyErrors.Inc()
	}
}
