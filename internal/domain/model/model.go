// Package model contains domain models passed between layers.
package model

import "time"

// Reference points at the entity that caused an award, e.g. a discussion
// or a piece of content.
type Reference struct {
	Type string `json:"type"`
	ID   string `json:"id"`
}

// LedgerEntry is an immutable point-award record. The set of all entries for a
// user, summed, equals that user's current aggregate score.
type LedgerEntry struct {
	ID          string     `json:"id"`
	UserID      string     `json:"user_id"`
	ActionType  string     `json:"action_type"`
	Points      int64      `json:"points"`
	Reference   *Reference `json:"reference,omitempty"`
	Description string     `json:"description,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// ActionEvent is the typed boundary through which collaborators report
// point-worthy actions instead of calling into the engine's internals.
type ActionEvent struct {
	UserID      string     `json:"user_id"`
	ActionType  string     `json:"action_type"`
	Reference   *Reference `json:"reference,omitempty"`
	Description string     `json:"description,omitempty"`
}

// Summary aggregates a user's ledger.
type Summary struct {
	TotalEarned  int64 `json:"total_earned"`
	TotalLost    int64 `json:"total_lost"`
	TotalActions int64 `json:"total_actions"`
	CurrentScore int64 `json:"current_score"`
}

// Breakdown aggregates a user's ledger for one action type.
type Breakdown struct {
	Count       int64 `json:"count"`
	TotalPoints int64 `json:"total_points"`
}

// UserBadge records a badge grant. The (user, badge) pair is unique; the
// store's constraint, not the evaluator's pre-check, enforces it.
type UserBadge struct {
	UserID   string    `json:"user_id"`
	BadgeID  string    `json:"badge_id"`
	EarnedAt time.Time `json:"earned_at"`
	Progress int64     `json:"progress,omitempty"`
}

// LeaderboardEntry is one ranked row of a leaderboard.
type LeaderboardEntry struct {
	Rank   int    `json:"rank"`
	UserID string `json:"user_id"`
	Score  int64  `json:"score"`
}
