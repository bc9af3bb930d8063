// Package app provides the reputation engine service: the append-only point
// ledger, badge evaluation, leaderboards and the cache coherency around them.
package app

import (
	"context"
	"sync"
	"time"

	"github.com/lorehub/reputation/internal/adapters/cache"
	"github.com/lorehub/reputation/internal/adapters/repository"
	"github.com/lorehub/reputation/internal/domain/level"
	"github.com/lorehub/reputation/internal/domain/model"
	"github.com/lorehub/reputation/internal/domain/points"
	"github.com/lorehub/reputation/pkg/logger"
	"github.com/lorehub/reputation/pkg/metrics"
)

// StatsSource supplies read-only qualifying counts owned by external
// collaborators (content, discussion, learning-path services). Counts are
// keyed by action type and overlay the ledger-derived counts.
type StatsSource interface {
	ActionCounts(ctx context.Context, userID string) (map[string]int64, error)
}

// Notifier receives badge-earned events. Delivery is best-effort; failures
// never undo a grant.
type Notifier interface {
	BadgeEarned(ctx context.Context, userID string, badge model.Badge) error
}

// Default service configuration.
const (
	defaultSummaryTTL     = 5 * time.Minute
	defaultCatalogTTL     = time.Hour
	defaultLeaderboardTTL = 2 * time.Minute
	defaultSnapshotSize   = 100
	defaultMaxLimit       = 100
	defaultLogLimit       = 20
	maxLogLimit           = 100
	defaultRebuildTimeout = 30 * time.Second
	defaultNotifyTimeout  = 5 * time.Second
)

// Service implements the engine's outbound operations over a Store and a
// best-effort Cache.
type Service struct {
	store    repository.Store
	cache    cache.Cache
	stats    StatsSource
	notifier Notifier
	log      logger.Logger

	clock    func() time.Time
	location *time.Location

	points points.Table
	levels level.Table

	summaryTTL     time.Duration
	catalogTTL     time.Duration
	leaderboardTTL time.Duration
	snapshotSize   int
	maxLimit       int
	rebuildTimeout time.Duration
	notifyTimeout  time.Duration

	notifyWG sync.WaitGroup
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(log logger.Logger) Option {
	return func(s *Service) {
		if log != nil {
			s.log = log
		}
	}
}

// WithCache sets the cache layer. Defaults to a noop cache.
func WithCache(c cache.Cache) Option {
	return func(s *Service) {
		if c != nil {
			s.cache = c
		}
	}
}

// WithStatsSource sets the external qualifying-counts collaborator.
func WithStatsSource(src StatsSource) Option {
	return func(s *Service) {
		s.stats = src
	}
}

// WithNotifier sets the badge-earned notification collaborator.
func WithNotifier(n Notifier) Option {
	return func(s *Service) {
		s.notifier = n
	}
}

// WithClock injects the time source, enabling test doubles.
func WithClock(clock func() time.Time) Option {
	return func(s *Service) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// WithLocation sets the location defining the calendar day for daily bonuses.
func WithLocation(loc *time.Location) Option {
	return func(s *Service) {
		if loc != nil {
			s.location = loc
		}
	}
}

// WithPointOverrides overlays the default action-type point values.
func WithPointOverrides(overrides map[string]int64) Option {
	return func(s *Service) {
		s.points = points.New(overrides)
	}
}

// WithLevelTable sets the level threshold table.
func WithLevelTable(tbl level.Table) Option {
	return func(s *Service) {
		if tbl.Size() > 0 {
			s.levels = tbl
		}
	}
}

// WithCacheTTLs sets the per-view cache lifetimes.
func WithCacheTTLs(summary, catalog, leaderboard time.Duration) Option {
	return func(s *Service) {
		if summary > 0 {
			s.summaryTTL = summary
		}
		if catalog > 0 {
			s.catalogTTL = catalog
		}
		if leaderboard > 0 {
			s.leaderboardTTL = leaderboard
		}
	}
}

// WithSnapshotSize sets the number of entries persisted per timeframe snapshot.
func WithSnapshotSize(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.snapshotSize = n
		}
	}
}

// WithMaxLeaderboardLimit caps the limit accepted by leaderboard reads.
func WithMaxLeaderboardLimit(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxLimit = n
		}
	}
}

// WithRebuildTimeout bounds each timeframe's snapshot rebuild.
func WithRebuildTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.rebuildTimeout = d
		}
	}
}

// WithNotifyTimeout bounds each badge-earned notification attempt.
func WithNotifyTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.notifyTimeout = d
		}
	}
}

// New constructs a Service over the given store.
func New(store repository.Store, opts ...Option) *Service {
	s := &Service{
		store:          store,
		cache:          cache.Noop{},
		clock:          time.Now,
		location:       time.UTC,
		points:         points.Default(),
		levels:         level.Default(),
		summaryTTL:     defaultSummaryTTL,
		catalogTTL:     defaultCatalogTTL,
		leaderboardTTL: defaultLeaderboardTTL,
		snapshotSize:   defaultSnapshotSize,
		maxLimit:       defaultMaxLimit,
		rebuildTimeout: defaultRebuildTimeout,
		notifyTimeout:  defaultNotifyTimeout,
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.log == nil {
		s.log = logger.Get().Named("reputation")
	}
	return s
}

// Close waits for in-flight notification deliveries to settle.
func (s *Service) Close() {
	s.notifyWG.Wait()
}

// ResolveLevel maps a score to its reputation tier. Pure lookup, no I/O.
func (s *Service) ResolveLevel(score int64) level.Level {
	return s.levels.Resolve(score)
}

// cacheGet reads a derived view; cache errors degrade to a miss.
func (s *Service) cacheGet(ctx context.Context, key string, dest any) bool {
	hit, err := s.cache.GetJSON(ctx, key, dest)
	if err != nil {
		metrics.RecordCacheError()
		s.log.Warn(ctx, "cache read failed", logger.String("key", key), logger.Error(err))
		return false
	}
	if hit {
		metrics.RecordCacheHit()
	} else {
		metrics.RecordCacheMiss()
	}
	return hit
}

// cacheSet populates a derived view; cache errors are logged and swallowed.
func (s *Service) cacheSet(ctx context.Context, key string, val any, ttl time.Duration) {
	if err := s.cache.SetJSON(ctx, key, val, ttl); err != nil {
		metrics.RecordCacheError()
		s.log.Warn(ctx, "cache write failed", logger.String("key", key), logger.Error(err))
	}
}

// cacheDelete invalidates keys; cache errors are logged and swallowed.
func (s *Service) cacheDelete(ctx context.Context, keys ...string) {
	if err := s.cache.Delete(ctx, keys...); err != nil {
		metrics.RecordCacheError()
		s.log.Warn(ctx, "cache invalidation failed", logger.Error(err))
	}
}

// cacheDeletePattern invalidates matching keys; errors are logged and swallowed.
func (s *Service) cacheDeletePattern(ctx context.Context, pattern string) {
	if err := s.cache.DeletePattern(ctx, pattern); err != nil {
		metrics.RecordCacheError()
		s.log.Warn(ctx, "cache pattern invalidation failed",
			logger.String("pattern", pattern), logger.Error(err))
	}
}

// invalidateUserViews drops a user's summary, breakdown and badge-list caches.
func (s *Service) invalidateUserViews(ctx context.Context, userID string) {
	s.cacheDelete(ctx,
		cache.UserSummaryKey(userID),
		cache.UserBreakdownKey(userID),
		cache.UserBadgesKey(userID),
	)
}
