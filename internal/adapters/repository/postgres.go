package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lorehub/reputation/internal/domain/criteria"
	"github.com/lorehub/reputation/internal/domain/model"
)

const defaultConnectTimeout = 5 * time.Second

// PostgresOption applies a configuration option to the Postgres store.
type PostgresOption func(*Postgres)

// WithConnectTimeout bounds the initial connect and ping.
func WithConnectTimeout(d time.Duration) PostgresOption {
	return func(p *Postgres) {
		if d > 0 {
			p.connectTimeout = d
		}
	}
}

// Postgres implements Store on a pgx connection pool.
type Postgres struct {
	pool           *pgxpool.Pool
	connectTimeout time.Duration
}

// NewPostgres connects to the store of record and verifies the connection.
func NewPostgres(ctx context.Context, dsn string, opts ...PostgresOption) (*Postgres, error) {
	p := &Postgres{connectTimeout: defaultConnectTimeout}
	for _, opt := range opts {
		opt(p)
	}

	connectCtx, cancel := context.WithTimeout(ctx, p.connectTimeout)
	defer cancel()

	pool, err := pgxpool.New(connectCtx, dsn)
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %w", err)
	}
	if err := pool.Ping(connectCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("unable to ping database: %w", err)
	}

	p.pool = pool
	return p, nil
}

// Close releases the connection pool.
func (p *Postgres) Close() { p.pool.Close() }

// Migrate creates the engine's tables when they do not exist.
func (p *Postgres) Migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS user_reputation (
			user_id    TEXT PRIMARY KEY,
			score      BIGINT NOT NULL DEFAULT 0,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS reputation_ledger (
			id             UUID PRIMARY KEY,
			user_id        TEXT NOT NULL,
			action_type    TEXT NOT NULL,
			points         BIGINT NOT NULL,
			reference_type TEXT,
			reference_id   TEXT,
			description    TEXT NOT NULL DEFAULT '',
			created_at     TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_ledger_user_created
			ON reputation_ledger (user_id, created_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_ledger_user_action_created
			ON reputation_ledger (user_id, action_type, created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_ledger_created
			ON reputation_ledger (created_at)`,
		`CREATE TABLE IF NOT EXISTS badges (
			id              TEXT PRIMARY KEY,
			name            TEXT NOT NULL,
			icon            TEXT NOT NULL DEFAULT '',
			description     TEXT NOT NULL DEFAULT '',
			criteria_kind   TEXT NOT NULL,
			criteria_value  BIGINT NOT NULL,
			criteria_action TEXT NOT NULL DEFAULT '',
			is_active       BOOLEAN NOT NULL DEFAULT TRUE
		)`,
		`CREATE TABLE IF NOT EXISTS user_badges (
			user_id   TEXT NOT NULL,
			badge_id  TEXT NOT NULL REFERENCES badges (id),
			earned_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			progress  BIGINT NOT NULL DEFAULT 0,
			PRIMARY KEY (user_id, badge_id)
		)`,
		`CREATE TABLE IF NOT EXISTS leaderboard_snapshots (
			timeframe TEXT NOT NULL,
			rank      INT NOT NULL,
			user_id   TEXT NOT NULL,
			score     BIGINT NOT NULL,
			built_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
			PRIMARY KEY (timeframe, rank)
		)`,
	}

	for _, stmt := range stmts {
		if _, err := p.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

// AppendEntry inserts the entry and increments the aggregate in one
// transaction. The aggregate row's lock serializes same-user appends.
func (p *Postgres) AppendEntry(ctx context.Context, entry model.LedgerEntry) (int64, error) {
	if entry.UserID == "" {
		return 0, ErrEmptyUserID
	}

	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin award tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // rollback after commit is a no-op

	var refType, refID *string
	if entry.Reference != nil {
		refType = &entry.Reference.Type
		refID = &entry.Reference.ID
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO reputation_ledger
			(id, user_id, action_type, points, reference_type, reference_id, description, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		entry.ID, entry.UserID, entry.ActionType, entry.Points,
		refType, refID, entry.Description, entry.CreatedAt,
	)
	if err != nil {
		return 0, fmt.Errorf("insert ledger entry: %w", err)
	}

	var newScore int64
	err = tx.QueryRow(ctx, `
		INSERT INTO user_reputation (user_id, score, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (user_id) DO UPDATE
			SET score = user_reputation.score + EXCLUDED.score, updated_at = now()
		RETURNING score`,
		entry.UserID, entry.Points,
	).Scan(&newScore)
	if err != nil {
		return 0, fmt.Errorf("increment aggregate score: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit award tx: %w", err)
	}
	return newScore, nil
}

func (p *Postgres) Score(ctx context.Context, userID string) (int64, error) {
	var score int64
	err := p.pool.QueryRow(ctx,
		`SELECT score FROM user_reputation WHERE user_id = $1`, userID,
	).Scan(&score)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("query score: %w", err)
	}
	return score, nil
}

func (p *Postgres) Entries(ctx context.Context, userID string, limit, offset int) ([]model.LedgerEntry, error) {
	if limit <= 0 {
		return nil, ErrInvalidLimit
	}

	rows, err := p.pool.Query(ctx, `
		SELECT id, user_id, action_type, points, reference_type, reference_id, description, created_at
		FROM reputation_ledger
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3`,
		userID, limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("query ledger entries: %w", err)
	}
	defer rows.Close()

	var entries []model.LedgerEntry
	for rows.Next() {
		var e model.LedgerEntry
		var refType, refID *string
		if err := rows.Scan(&e.ID, &e.UserID, &e.ActionType, &e.Points,
			&refType, &refID, &e.Description, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan ledger entry: %w", err)
		}
		if refType != nil && refID != nil {
			e.Reference = &model.Reference{Type: *refType, ID: *refID}
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (p *Postgres) Summary(ctx context.Context, userID string) (model.Summary, error) {
	var s model.Summary
	err := p.pool.QueryRow(ctx, `
		SELECT
			COALESCE(SUM(points) FILTER (WHERE points > 0), 0),
			COALESCE(-SUM(points) FILTER (WHERE points < 0), 0),
			COUNT(*)
		FROM reputation_ledger
		WHERE user_id = $1`,
		userID,
	).Scan(&s.TotalEarned, &s.TotalLost, &s.TotalActions)
	if err != nil {
		return model.Summary{}, fmt.Errorf("query summary: %w", err)
	}

	score, err := p.Score(ctx, userID)
	if err != nil {
		return model.Summary{}, err
	}
	s.CurrentScore = score
	return s, nil
}

func (p *Postgres) Breakdown(ctx context.Context, userID string) (map[string]model.Breakdown, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT action_type, COUNT(*), COALESCE(SUM(points), 0)
		FROM reputation_ledger
		WHERE user_id = $1
		GROUP BY action_type`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("query breakdown: %w", err)
	}
	defer rows.Close()

	out := make(map[string]model.Breakdown)
	for rows.Next() {
		var action string
		var b model.Breakdown
		if err := rows.Scan(&action, &b.Count, &b.TotalPoints); err != nil {
			return nil, fmt.Errorf("scan breakdown row: %w", err)
		}
		out[action] = b
	}
	return out, rows.Err()
}

func (p *Postgres) HasEntryBetween(ctx context.Context, userID, actionType string, from, to time.Time) (bool, error) {
	var exists bool
	err := p.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM reputation_ledger
			WHERE user_id = $1 AND action_type = $2
			  AND created_at >= $3 AND created_at < $4
		)`,
		userID, actionType, from, to,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("query day probe: %w", err)
	}
	return exists, nil
}

func (p *Postgres) ActionCounts(ctx context.Context, userID string) (map[string]int64, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT action_type, COUNT(*)
		FROM reputation_ledger
		WHERE user_id = $1
		GROUP BY action_type`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("query action counts: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int64)
	for rows.Next() {
		var action string
		var n int64
		if err := rows.Scan(&action, &n); err != nil {
			return nil, fmt.Errorf("scan action count: %w", err)
		}
		counts[action] = n
	}
	return counts, rows.Err()
}

func (p *Postgres) Badges(ctx context.Context) ([]model.Badge, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT id, name, icon, description, criteria_kind, criteria_value, criteria_action, is_active
		FROM badges
		ORDER BY id`,
	)
	if err != nil {
		return nil, fmt.Errorf("query badges: %w", err)
	}
	defer rows.Close()

	var badges []model.Badge
	for rows.Next() {
		var b model.Badge
		var kind, action string
		var value int64
		if err := rows.Scan(&b.ID, &b.Name, &b.Icon, &b.Description,
			&kind, &value, &action, &b.Active); err != nil {
			return nil, fmt.Errorf("scan badge: %w", err)
		}
		// Invalid criteria are a load-time error, not a silent skip.
		crit, err := criteria.Parse(kind, value, action)
		if err != nil {
			return nil, fmt.Errorf("badge %s: %w", b.ID, err)
		}
		b.Criteria = crit
		badges = append(badges, b)
	}
	return badges, rows.Err()
}

func (p *Postgres) UpsertBadge(ctx context.Context, badge model.Badge) error {
	value := badge.Criteria.MinScore
	if badge.Criteria.Kind == criteria.KindActionCount {
		value = badge.Criteria.MinCount
	}

	_, err := p.pool.Exec(ctx, `
		INSERT INTO badges (id, name, icon, description, criteria_kind, criteria_value, criteria_action, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			icon = EXCLUDED.icon,
			description = EXCLUDED.description,
			criteria_kind = EXCLUDED.criteria_kind,
			criteria_value = EXCLUDED.criteria_value,
			criteria_action = EXCLUDED.criteria_action,
			is_active = EXCLUDED.is_active`,
		badge.ID, badge.Name, badge.Icon, badge.Description,
		string(badge.Criteria.Kind), value, badge.Criteria.Action, badge.Active,
	)
	if err != nil {
		return fmt.Errorf("upsert badge: %w", err)
	}
	return nil
}

func (p *Postgres) UserBadges(ctx context.Context, userID string) ([]model.UserBadge, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT user_id, badge_id, earned_at, progress
		FROM user_badges
		WHERE user_id = $1
		ORDER BY earned_at DESC, badge_id`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("query user badges: %w", err)
	}
	defer rows.Close()

	var grants []model.UserBadge
	for rows.Next() {
		var g model.UserBadge
		if err := rows.Scan(&g.UserID, &g.BadgeID, &g.EarnedAt, &g.Progress); err != nil {
			return nil, fmt.Errorf("scan user badge: %w", err)
		}
		grants = append(grants, g)
	}
	return grants, rows.Err()
}

func (p *Postgres) GrantBadge(ctx context.Context, grant model.UserBadge) (bool, error) {
	tag, err := p.pool.Exec(ctx, `
		INSERT INTO user_badges (user_id, badge_id, earned_at, progress)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id, badge_id) DO NOTHING`,
		grant.UserID, grant.BadgeID, grant.EarnedAt, grant.Progress,
	)
	if err != nil {
		return false, fmt.Errorf("grant badge: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (p *Postgres) TopScores(ctx context.Context, since time.Time, action string, limit int) ([]model.LeaderboardEntry, error) {
	if limit <= 0 {
		return nil, ErrInvalidLimit
	}

	var rows pgx.Rows
	var err error

	switch {
	case since.IsZero() && action == "":
		rows, err = p.pool.Query(ctx, `
			SELECT user_id, score
			FROM user_reputation
			ORDER BY score DESC, user_id ASC
			LIMIT $1`,
			limit,
		)
	case since.IsZero():
		rows, err = p.pool.Query(ctx, `
			SELECT user_id, COALESCE(SUM(points), 0) AS score
			FROM reputation_ledger
			WHERE action_type = $1
			GROUP BY user_id
			ORDER BY score DESC, user_id ASC
			LIMIT $2`,
			action, limit,
		)
	case action == "":
		rows, err = p.pool.Query(ctx, `
			SELECT user_id, COALESCE(SUM(points), 0) AS score
			FROM reputation_ledger
			WHERE created_at >= $1
			GROUP BY user_id
			ORDER BY score DESC, user_id ASC
			LIMIT $2`,
			since, limit,
		)
	default:
		rows, err = p.pool.Query(ctx, `
			SELECT user_id, COALESCE(SUM(points), 0) AS score
			FROM reputation_ledger
			WHERE created_at >= $1 AND action_type = $2
			GROUP BY user_id
			ORDER BY score DESC, user_id ASC
			LIMIT $3`,
			since, action, limit,
		)
	}
	if err != nil {
		return nil, fmt.Errorf("query top scores: %w", err)
	}
	defer rows.Close()

	var entries []model.LeaderboardEntry
	for rows.Next() {
		var e model.LeaderboardEntry
		if err := rows.Scan(&e.UserID, &e.Score); err != nil {
			return nil, fmt.Errorf("scan top score: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// ReplaceSnapshot swaps the timeframe's snapshot inside one transaction so
// readers never observe the window between delete and insert.
func (p *Postgres) ReplaceSnapshot(ctx context.Context, tf model.Timeframe, entries []model.LeaderboardEntry) error {
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin snapshot tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // rollback after commit is a no-op

	if _, err := tx.Exec(ctx,
		`DELETE FROM leaderboard_snapshots WHERE timeframe = $1`, string(tf),
	); err != nil {
		return fmt.Errorf("clear snapshot: %w", err)
	}

	batch := &pgx.Batch{}
	now := time.Now()
	for _, e := range entries {
		batch.Queue(`
			INSERT INTO leaderboard_snapshots (timeframe, rank, user_id, score, built_at)
			VALUES ($1, $2, $3, $4, $5)`,
			string(tf), e.Rank, e.UserID, e.Score, now,
		)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("insert snapshot rows: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit snapshot tx: %w", err)
	}
	return nil
}

func (p *Postgres) Snapshot(ctx context.Context, tf model.Timeframe) ([]model.LeaderboardEntry, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT rank, user_id, score
		FROM leaderboard_snapshots
		WHERE timeframe = $1
		ORDER BY rank ASC`,
		string(tf),
	)
	if err != nil {
		return nil, fmt.Errorf("query snapshot: %w", err)
	}
	defer rows.Close()

	var entries []model.LeaderboardEntry
	for rows.Next() {
		var e model.LeaderboardEntry
		if err := rows.Scan(&e.Rank, &e.UserID, &e.Score); err != nil {
			return nil, fmt.Errorf("scan snapshot row: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
