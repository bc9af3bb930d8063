package app

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/lorehub/reputation/internal/adapters/cache"
	"github.com/lorehub/reputation/internal/domain/level"
	"github.com/lorehub/reputation/internal/domain/model"
	"github.com/lorehub/reputation/internal/domain/points"
	"github.com/lorehub/reputation/pkg/logger"
	"github.com/lorehub/reputation/pkg/metrics"
)

// AwardResult reports a committed award. BadgeErr carries a post-commit
// badge-evaluation failure: the score and ledger entry stand regardless, and
// evaluation is safely re-runnable later.
type AwardResult struct {
	Entry     model.LedgerEntry `json:"entry"`
	NewScore  int64             `json:"new_score"`
	NewBadges []model.Badge     `json:"new_badges,omitempty"`
	BadgeErr  error             `json:"-"`
}

// UserSummary is the cached summary view: ledger aggregates plus the
// resolved level.
type UserSummary struct {
	model.Summary
	Level level.Level `json:"level"`
}

// AwardPoints appends a ledger entry and increments the user's aggregate in
// one transaction, then evaluates badges and invalidates the user's cached
// views. A returned error means nothing was committed.
func (s *Service) AwardPoints(ctx context.Context, userID, actionType string, delta int64, ref *model.Reference, description string) (AwardResult, error) {
	if userID == "" {
		return AwardResult{}, ErrEmptyUserID
	}
	if actionType == "" {
		return AwardResult{}, ErrEmptyAction
	}

	entry := model.LedgerEntry{
		ID:          uuid.NewString(),
		UserID:      userID,
		ActionType:  actionType,
		Points:      delta,
		Reference:   ref,
		Description: description,
		CreatedAt:   s.clock().UTC(),
	}

	newScore, err := s.store.AppendEntry(ctx, entry)
	if err != nil {
		metrics.RecordAwardError()
		return AwardResult{}, fmt.Errorf("award %s to %s: %w", actionType, userID, err)
	}
	metrics.RecordAward(delta)

	s.log.Debug(ctx, "points awarded",
		logger.String("user", userID),
		logger.String("action", actionType),
		logger.Int64("delta", delta),
		logger.Int64("score", newScore),
	)

	res := AwardResult{Entry: entry, NewScore: newScore}

	// The award is committed; everything below is derived state.
	s.invalidateUserViews(ctx, userID)

	badges, evalErr := s.EvaluateBadges(ctx, userID)
	if evalErr != nil {
		s.log.Warn(ctx, "badge evaluation failed after award",
			logger.String("user", userID), logger.Error(evalErr))
		res.BadgeErr = evalErr
	}
	res.NewBadges = badges

	return res, nil
}

// HandleAction awards points for a typed collaborator event, resolving the
// delta from the configured point-value table.
func (s *Service) HandleAction(ctx context.Context, ev model.ActionEvent) (AwardResult, error) {
	delta, ok := s.points.Value(ev.ActionType)
	if !ok {
		return AwardResult{}, fmt.Errorf("%w: %s", ErrUnknownAction, ev.ActionType)
	}
	return s.AwardPoints(ctx, ev.UserID, ev.ActionType, delta, ev.Reference, ev.Description)
}

// AwardDailyLogin awards the daily login bonus at most once per calendar day
// in the configured location. A nil result means the bonus was already
// awarded today; that is a defined outcome, not an error.
func (s *Service) AwardDailyLogin(ctx context.Context, userID string) (*AwardResult, error) {
	if userID == "" {
		return nil, ErrEmptyUserID
	}

	now := s.clock().In(s.location)
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, s.location)
	dayEnd := dayStart.AddDate(0, 0, 1)

	awarded, err := s.store.HasEntryBetween(ctx, userID, points.ActionDailyLogin, dayStart, dayEnd)
	if err != nil {
		return nil, fmt.Errorf("daily login probe for %s: %w", userID, err)
	}
	if awarded {
		metrics.RecordDailyLoginRepeat()
		s.log.Debug(ctx, "daily login already awarded", logger.String("user", userID))
		return nil, nil
	}

	delta, _ := s.points.Value(points.ActionDailyLogin)
	res, err := s.AwardPoints(ctx, userID, points.ActionDailyLogin, delta, nil, "daily login bonus")
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// GetUserLogs returns the user's ledger entries, newest first.
func (s *Service) GetUserLogs(ctx context.Context, userID string, limit, offset int) ([]model.LedgerEntry, error) {
	if userID == "" {
		return nil, ErrEmptyUserID
	}
	if limit <= 0 {
		limit = defaultLogLimit
	}
	if limit > maxLogLimit {
		limit = maxLogLimit
	}
	if offset < 0 {
		offset = 0
	}
	return s.store.Entries(ctx, userID, limit, offset)
}

// GetSummary returns the user's ledger aggregates and level, cache-aside.
func (s *Service) GetSummary(ctx context.Context, userID string) (UserSummary, error) {
	if userID == "" {
		return UserSummary{}, ErrEmptyUserID
	}

	key := cache.UserSummaryKey(userID)
	var cached UserSummary
	if s.cacheGet(ctx, key, &cached) {
		return cached, nil
	}

	summary, err := s.store.Summary(ctx, userID)
	if err != nil {
		return UserSummary{}, fmt.Errorf("summary for %s: %w", userID, err)
	}

	view := UserSummary{
		Summary: summary,
		Level:   s.levels.Resolve(summary.CurrentScore),
	}
	s.cacheSet(ctx, key, view, s.summaryTTL)
	return view, nil
}

// GetBreakdown returns per-action counts and totals, cache-aside.
func (s *Service) GetBreakdown(ctx context.Context, userID string) (map[string]model.Breakdown, error) {
	if userID == "" {
		return nil, ErrEmptyUserID
	}

	key := cache.UserBreakdownKey(userID)
	var cached map[string]model.Breakdown
	if s.cacheGet(ctx, key, &cached) {
		return cached, nil
	}

	breakdown, err := s.store.Breakdown(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("breakdown for %s: %w", userID, err)
	}

	s.cacheSet(ctx, key, breakdown, s.summaryTTL)
	return breakdown, nil
}
