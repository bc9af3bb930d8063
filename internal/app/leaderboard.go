package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/lorehub/reputation/internal/adapters/cache"
	"github.com/lorehub/reputation/internal/adapters/repository"
	"github.com/lorehub/reputation/internal/domain/model"
	"github.com/lorehub/reputation/pkg/logger"
	"github.com/lorehub/reputation/pkg/metrics"
)

// GetLeaderboard returns the ranked score table for a timeframe. The hot,
// uncategorized path serves cache first, then the persisted snapshot, and
// falls back to live computation. Category queries (an optional action-type
// filter) always compute live.
func (s *Service) GetLeaderboard(ctx context.Context, timeframe, category string, limit int) ([]model.LeaderboardEntry, error) {
	tf, err := model.ParseTimeframe(timeframe)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		return nil, repository.ErrInvalidLimit
	}
	if limit > s.maxLimit {
		limit = s.maxLimit
	}

	since := tf.WindowStart(s.clock())

	if category != "" {
		entries, err := s.store.TopScores(ctx, since, category, limit)
		if err != nil {
			return nil, fmt.Errorf("leaderboard %s/%s: %w", tf, category, err)
		}
		metrics.RecordLeaderboardQuery("live")
		return ranked(entries), nil
	}

	key := cache.LeaderboardKey(string(tf), limit)
	var cached []model.LeaderboardEntry
	if s.cacheGet(ctx, key, &cached) {
		metrics.RecordLeaderboardQuery("cache")
		return cached, nil
	}

	// A snapshot shorter than the requested page may just be truncated, so
	// it serves only when it covers the full page.
	snap, err := s.store.Snapshot(ctx, tf)
	if err != nil {
		s.log.Warn(ctx, "snapshot read failed, computing live",
			logger.String("timeframe", string(tf)), logger.Error(err))
	} else if len(snap) >= limit {
		page := snap[:limit]
		s.cacheSet(ctx, key, page, s.leaderboardTTL)
		metrics.RecordLeaderboardQuery("snapshot")
		return page, nil
	}

	entries, err := s.store.TopScores(ctx, since, "", limit)
	if err != nil {
		return nil, fmt.Errorf("leaderboard %s: %w", tf, err)
	}
	page := ranked(entries)
	s.cacheSet(ctx, key, page, s.leaderboardTTL)
	metrics.RecordLeaderboardQuery("live")
	return page, nil
}

// RebuildLeaderboardSnapshots recomputes and atomically replaces the
// persisted snapshot for every timeframe. Timeframes are independent: each
// gets its own timeout, and one failure never blocks or rolls back the rest.
func (s *Service) RebuildLeaderboardSnapshots(ctx context.Context) error {
	start := time.Now()
	var errs []error

	for _, tf := range model.Timeframes() {
		if err := s.rebuildTimeframe(ctx, tf); err != nil {
			metrics.RecordSnapshotRebuildError()
			s.log.Error(ctx, "snapshot rebuild failed",
				logger.String("timeframe", string(tf)), logger.Error(err))
			errs = append(errs, fmt.Errorf("rebuild %s: %w", tf, err))
			continue
		}
		metrics.RecordSnapshotRebuild()
	}

	metrics.RecordSnapshotRebuildPass(time.Since(start))
	s.log.Info(ctx, "snapshot rebuild pass finished",
		logger.Int("failed", len(errs)),
		logger.Int64("elapsed_ms", time.Since(start).Milliseconds()),
	)
	return errors.Join(errs...)
}

func (s *Service) rebuildTimeframe(ctx context.Context, tf model.Timeframe) error {
	tctx, cancel := context.WithTimeout(ctx, s.rebuildTimeout)
	defer cancel()

	entries, err := s.store.TopScores(tctx, tf.WindowStart(s.clock()), "", s.snapshotSize)
	if err != nil {
		return err
	}
	if err := s.store.ReplaceSnapshot(tctx, tf, ranked(entries)); err != nil {
		return err
	}

	s.cacheDeletePattern(tctx, cache.LeaderboardPattern(string(tf)))
	return nil
}

// ranked assigns 1-based contiguous ranks to an ordered score list.
func ranked(entries []model.LeaderboardEntry) []model.LeaderboardEntry {
	out := make([]model.LeaderboardEntry, len(entries))
	for i, e := range entries {
		e.Rank = i + 1
		out[i] = e
	}
	return out
}
