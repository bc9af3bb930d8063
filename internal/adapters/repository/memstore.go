package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/lorehub/reputation/internal/domain/model"
)

// MemStore implements Store in memory. It backs the test suites and local
// development; semantics match the Postgres store, including per-user
// serialization of appends and the atomic snapshot swap.
type MemStore struct {
	mu        sync.RWMutex
	users     map[string]*userState
	badges    map[string]model.Badge
	grants    map[string]map[string]model.UserBadge
	snapshots map[model.Timeframe][]model.LeaderboardEntry
}

// userState carries one user's ledger under its own lock, so appends for
// different users do not contend.
type userState struct {
	mu      sync.Mutex
	score   int64
	entries []model.LedgerEntry
}

// NewMemStore creates an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{
		users:     make(map[string]*userState),
		badges:    make(map[string]model.Badge),
		grants:    make(map[string]map[string]model.UserBadge),
		snapshots: make(map[model.Timeframe][]model.LeaderboardEntry),
	}
}

func (m *MemStore) user(userID string) *userState {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[userID]
	if !ok {
		u = &userState{}
		m.users[userID] = u
	}
	return u
}

func (m *MemStore) AppendEntry(_ context.Context, entry model.LedgerEntry) (int64, error) {
	if entry.UserID == "" {
		return 0, ErrEmptyUserID
	}

	u := m.user(entry.UserID)
	u.mu.Lock()
	defer u.mu.Unlock()

	u.entries = append(u.entries, entry)
	u.score += entry.Points
	return u.score, nil
}

func (m *MemStore) Score(_ context.Context, userID string) (int64, error) {
	m.mu.RLock()
	u, ok := m.users[userID]
	m.mu.RUnlock()
	if !ok {
		return 0, nil
	}

	u.mu.Lock()
	defer u.mu.Unlock()
	return u.score, nil
}

func (m *MemStore) Entries(_ context.Context, userID string, limit, offset int) ([]model.LedgerEntry, error) {
	if limit <= 0 {
		return nil, ErrInvalidLimit
	}

	m.mu.RLock()
	u, ok := m.users[userID]
	m.mu.RUnlock()
	if !ok {
		return nil, nil
	}

	u.mu.Lock()
	defer u.mu.Unlock()

	// Newest first: walk the append-ordered slice backwards.
	var out []model.LedgerEntry
	for i := len(u.entries) - 1 - offset; i >= 0 && len(out) < limit; i-- {
		out = append(out, u.entries[i])
	}
	return out, nil
}

func (m *MemStore) Summary(_ context.Context, userID string) (model.Summary, error) {
	m.mu.RLock()
	u, ok := m.users[userID]
	m.mu.RUnlock()
	if !ok {
		return model.Summary{}, nil
	}

	u.mu.Lock()
	defer u.mu.Unlock()

	var s model.Summary
	for _, e := range u.entries {
		if e.Points > 0 {
			s.TotalEarned += e.Points
		} else {
			s.TotalLost -= e.Points
		}
		s.TotalActions++
	}
	s.CurrentScore = u.score
	return s, nil
}

func (m *MemStore) Breakdown(_ context.Context, userID string) (map[string]model.Breakdown, error) {
	m.mu.RLock()
	u, ok := m.users[userID]
	m.mu.RUnlock()

	out := make(map[string]model.Breakdown)
	if !ok {
		return out, nil
	}

	u.mu.Lock()
	defer u.mu.Unlock()

	for _, e := range u.entries {
		b := out[e.ActionType]
		b.Count++
		b.TotalPoints += e.Points
		out[e.ActionType] = b
	}
	return out, nil
}

func (m *MemStore) HasEntryBetween(_ context.Context, userID, actionType string, from, to time.Time) (bool, error) {
	m.mu.RLock()
	u, ok := m.users[userID]
	m.mu.RUnlock()
	if !ok {
		return false, nil
	}

	u.mu.Lock()
	defer u.mu.Unlock()

	for _, e := range u.entries {
		if e.ActionType != actionType {
			continue
		}
		if !e.CreatedAt.Before(from) && e.CreatedAt.Before(to) {
			return true, nil
		}
	}
	return false, nil
}

func (m *MemStore) ActionCounts(_ context.Context, userID string) (map[string]int64, error) {
	m.mu.RLock()
	u, ok := m.users[userID]
	m.mu.RUnlock()

	counts := make(map[string]int64)
	if !ok {
		return counts, nil
	}

	u.mu.Lock()
	defer u.mu.Unlock()

	for _, e := range u.entries {
		counts[e.ActionType]++
	}
	return counts, nil
}

func (m *MemStore) Badges(_ context.Context) ([]model.Badge, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	badges := make([]model.Badge, 0, len(m.badges))
	for _, b := range m.badges {
		badges = append(badges, b)
	}
	sort.Slice(badges, func(i, j int) bool { return badges[i].ID < badges[j].ID })
	return badges, nil
}

func (m *MemStore) UpsertBadge(_ context.Context, badge model.Badge) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.badges[badge.ID] = badge
	return nil
}

func (m *MemStore) UserBadges(_ context.Context, userID string) ([]model.UserBadge, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	grants := make([]model.UserBadge, 0, len(m.grants[userID]))
	for _, g := range m.grants[userID] {
		grants = append(grants, g)
	}
	sort.Slice(grants, func(i, j int) bool {
		if !grants[i].EarnedAt.Equal(grants[j].EarnedAt) {
			return grants[i].EarnedAt.After(grants[j].EarnedAt)
		}
		return grants[i].BadgeID < grants[j].BadgeID
	})
	return grants, nil
}

func (m *MemStore) GrantBadge(_ context.Context, grant model.UserBadge) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	byBadge, ok := m.grants[grant.UserID]
	if !ok {
		byBadge = make(map[string]model.UserBadge)
		m.grants[grant.UserID] = byBadge
	}
	if _, exists := byBadge[grant.BadgeID]; exists {
		return false, nil
	}
	byBadge[grant.BadgeID] = grant
	return true, nil
}

func (m *MemStore) TopScores(_ context.Context, since time.Time, action string, limit int) ([]model.LeaderboardEntry, error) {
	if limit <= 0 {
		return nil, ErrInvalidLimit
	}

	m.mu.RLock()
	users := make(map[string]*userState, len(m.users))
	for id, u := range m.users {
		users[id] = u
	}
	m.mu.RUnlock()

	var entries []model.LeaderboardEntry
	for id, u := range users {
		u.mu.Lock()
		var score int64
		if since.IsZero() && action == "" {
			score = u.score
		} else {
			for _, e := range u.entries {
				if !since.IsZero() && e.CreatedAt.Before(since) {
					continue
				}
				if action != "" && e.ActionType != action {
					continue
				}
				score += e.Points
			}
		}
		u.mu.Unlock()
		entries = append(entries, model.LeaderboardEntry{UserID: id, Score: score})
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Score != entries[j].Score {
			return entries[i].Score > entries[j].Score
		}
		return entries[i].UserID < entries[j].UserID
	})
	if len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

func (m *MemStore) ReplaceSnapshot(_ context.Context, tf model.Timeframe, entries []model.LeaderboardEntry) error {
	snap := make([]model.LeaderboardEntry, len(entries))
	copy(snap, entries)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.snapshots[tf] = snap
	return nil
}

func (m *MemStore) Snapshot(_ context.Context, tf model.Timeframe) ([]model.LeaderboardEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	snap := m.snapshots[tf]
	out := make([]model.LeaderboardEntry, len(snap))
	copy(out, snap)
	return out, nil
}
