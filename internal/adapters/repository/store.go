// Package repository defines the reputation store interface and errors.
package repository

import (
	"context"
	"time"

	"github.com/lorehub/reputation/internal/domain/model"
)

// Store provides transactional access to the ledger, badges and snapshots.
// The ledger is append-only; the aggregate score is mutated only through
// AppendEntry so the sum invariant holds at every commit.
type Store interface {
	// AppendEntry atomically inserts a ledger entry and increments the
	// user's aggregate score by the entry's points. Returns the new score.
	// Concurrent appends for the same user serialize; appends for
	// different users do not contend.
	AppendEntry(ctx context.Context, entry model.LedgerEntry) (int64, error)

	// Score returns the user's current aggregate score, zero for unknown users.
	Score(ctx context.Context, userID string) (int64, error)

	// Entries returns the user's ledger entries, newest first.
	Entries(ctx context.Context, userID string, limit, offset int) ([]model.LedgerEntry, error)

	// Summary aggregates the user's ledger alongside the current score.
	Summary(ctx context.Context, userID string) (model.Summary, error)

	// Breakdown aggregates the user's ledger per action type.
	Breakdown(ctx context.Context, userID string) (map[string]model.Breakdown, error)

	// HasEntryBetween reports whether an entry with the action type exists
	// for the user in [from, to).
	HasEntryBetween(ctx context.Context, userID, actionType string, from, to time.Time) (bool, error)

	// ActionCounts returns per-action entry counts derived from the ledger.
	ActionCounts(ctx context.Context, userID string) (map[string]int64, error)

	// Badges returns the full badge catalog, active and inactive.
	Badges(ctx context.Context) ([]model.Badge, error)

	// UpsertBadge creates or updates a badge definition.
	UpsertBadge(ctx context.Context, badge model.Badge) error

	// UserBadges returns the user's grants, newest first.
	UserBadges(ctx context.Context, userID string) ([]model.UserBadge, error)

	// GrantBadge records a grant. Returns false without error when the
	// (user, badge) pair already exists; the uniqueness constraint is the
	// safety net against concurrent evaluations.
	GrantBadge(ctx context.Context, grant model.UserBadge) (bool, error)

	// TopScores returns users ordered by score desc, user id asc. A zero
	// since means the all-time aggregate; otherwise scores are ledger sums
	// from since onward. A non-empty action restricts to that action type.
	TopScores(ctx context.Context, since time.Time, action string, limit int) ([]model.LeaderboardEntry, error)

	// ReplaceSnapshot atomically swaps the persisted snapshot for a
	// timeframe. Readers never observe an empty or partial snapshot.
	ReplaceSnapshot(ctx context.Context, tf model.Timeframe, entries []model.LeaderboardEntry) error

	// Snapshot returns the persisted snapshot for a timeframe in rank order.
	Snapshot(ctx context.Context, tf model.Timeframe) ([]model.LeaderboardEntry, error)
}
