package app

import (
	"context"
	"fmt"

	"github.com/lorehub/reputation/internal/adapters/cache"
	"github.com/lorehub/reputation/internal/domain/criteria"
	"github.com/lorehub/reputation/internal/domain/model"
	"github.com/lorehub/reputation/pkg/logger"
	"github.com/lorehub/reputation/pkg/metrics"
)

// EvaluateBadges recomputes the user's qualifying statistics and grants any
// newly-earned badges. Returns only badges granted in this invocation; the
// store's (user, badge) uniqueness constraint absorbs concurrent evaluations.
func (s *Service) EvaluateBadges(ctx context.Context, userID string) ([]model.Badge, error) {
	if userID == "" {
		return nil, ErrEmptyUserID
	}

	snapshot, err := s.qualifyingSnapshot(ctx, userID)
	if err != nil {
		metrics.RecordBadgeEvalError()
		return nil, err
	}

	badges, err := s.store.Badges(ctx)
	if err != nil {
		metrics.RecordBadgeEvalError()
		return nil, fmt.Errorf("load badge catalog: %w", err)
	}

	held, err := s.store.UserBadges(ctx, userID)
	if err != nil {
		metrics.RecordBadgeEvalError()
		return nil, fmt.Errorf("load grants for %s: %w", userID, err)
	}
	heldSet := make(map[string]struct{}, len(held))
	for _, g := range held {
		heldSet[g.BadgeID] = struct{}{}
	}

	var granted []model.Badge
	for _, badge := range badges {
		if !badge.Active {
			continue
		}
		if _, ok := heldSet[badge.ID]; ok {
			continue
		}
		if !badge.Criteria.Met(snapshot) {
			continue
		}

		grant := model.UserBadge{
			UserID:   userID,
			BadgeID:  badge.ID,
			EarnedAt: s.clock().UTC(),
			Progress: badge.Criteria.Progress(snapshot),
		}
		ok, err := s.store.GrantBadge(ctx, grant)
		if err != nil {
			metrics.RecordBadgeEvalError()
			return granted, fmt.Errorf("grant badge %s to %s: %w", badge.ID, userID, err)
		}
		if !ok {
			// Lost the race to a concurrent evaluation; not ours to report.
			continue
		}

		metrics.RecordBadgeGrant()
		s.log.Info(ctx, "badge granted",
			logger.String("user", userID), logger.String("badge", badge.ID))
		granted = append(granted, badge)
		s.notifyBadgeEarned(userID, badge)
	}

	if len(granted) > 0 {
		s.cacheDelete(ctx, cache.UserBadgesKey(userID))
	}
	return granted, nil
}

// qualifyingSnapshot gathers the user's score and per-action counts. Counts
// from the external StatsSource overlay the ledger-derived ones, since
// collaborators own the authoritative numbers for their entities.
func (s *Service) qualifyingSnapshot(ctx context.Context, userID string) (criteria.Snapshot, error) {
	score, err := s.store.Score(ctx, userID)
	if err != nil {
		return criteria.Snapshot{}, fmt.Errorf("score for %s: %w", userID, err)
	}

	counts, err := s.store.ActionCounts(ctx, userID)
	if err != nil {
		return criteria.Snapshot{}, fmt.Errorf("action counts for %s: %w", userID, err)
	}

	if s.stats != nil {
		external, err := s.stats.ActionCounts(ctx, userID)
		if err != nil {
			return criteria.Snapshot{}, fmt.Errorf("collaborator counts for %s: %w", userID, err)
		}
		for action, n := range external {
			counts[action] = n
		}
	}

	return criteria.Snapshot{Score: score, Counts: counts}, nil
}

// notifyBadgeEarned hands the grant to the notification collaborator on a
// detached goroutine. Failures are logged and dropped; the grant stands.
func (s *Service) notifyBadgeEarned(userID string, badge model.Badge) {
	if s.notifier == nil {
		return
	}

	s.notifyWG.Add(1)
	go func() {
		defer s.notifyWG.Done()

		ctx, cancel := context.WithTimeout(context.Background(), s.notifyTimeout)
		defer cancel()

		if err := s.notifier.BadgeEarned(ctx, userID, badge); err != nil {
			metrics.RecordNotifyError()
			s.log.Warn(ctx, "badge notification dropped",
				logger.String("user", userID),
				logger.String("badge", badge.ID),
				logger.Error(err),
			)
		}
	}()
}

// GetUserBadges returns the user's grants, cache-aside.
func (s *Service) GetUserBadges(ctx context.Context, userID string) ([]model.UserBadge, error) {
	if userID == "" {
		return nil, ErrEmptyUserID
	}

	key := cache.UserBadgesKey(userID)
	var cached []model.UserBadge
	if s.cacheGet(ctx, key, &cached) {
		return cached, nil
	}

	grants, err := s.store.UserBadges(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("grants for %s: %w", userID, err)
	}

	s.cacheSet(ctx, key, grants, s.summaryTTL)
	return grants, nil
}

// GetAllBadges returns the badge catalog, cache-aside with the long TTL.
func (s *Service) GetAllBadges(ctx context.Context) ([]model.Badge, error) {
	key := cache.CatalogKey()
	var cached []model.Badge
	if s.cacheGet(ctx, key, &cached) {
		return cached, nil
	}

	badges, err := s.store.Badges(ctx)
	if err != nil {
		return nil, fmt.Errorf("load badge catalog: %w", err)
	}

	s.cacheSet(ctx, key, badges, s.catalogTTL)
	return badges, nil
}
