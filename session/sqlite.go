package session

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/inkwellhq/inkwell/dbopen"
)

// Schema creates the sessions table. Pass it to dbopen.WithSchema when
// opening the database.
const Schema = `
CREATE TABLE IF NOT EXISTS sessions (
	id         TEXT PRIMARY KEY,
	state      TEXT NOT NULL,
	updated_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_sessions_updated_at ON sessions(updated_at);
`

// SQLiteStore persists sessions in SQLite so confirmations survive a
// process restart. State is stored as one JSON document per row; the
// updated_at column exists only for TTL sweeps.
type SQLiteStore struct {
	db     *sql.DB
	ttl    time.Duration
	logger *slog.Logger
}

// SQLiteOption customises a SQLiteStore.
type SQLiteOption func(*SQLiteStore)

// WithSQLiteLogger sets the logger used by Sweep.
func WithSQLiteLogger(l *slog.Logger) SQLiteOption {
	return func(s *SQLiteStore) { s.logger = l }
}

// NewSQLiteStore wraps an open database. The schema must already be
// applied. A non-positive ttl falls back to DefaultTTL.
func NewSQLiteStore(db *sql.DB, ttl time.Duration, opts ...SQLiteOption) *SQLiteStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	s := &SQLiteStore{db: db, ttl: ttl, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *SQLiteStore) Get(ctx context.Context, id string) (*State, error) {
	var raw string
	var updatedAt int64
	err := s.db.QueryRowContext(ctx,
		`SELECT state, updated_at FROM sessions WHERE id = ?`, id).Scan(&raw, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSessionNotFound{ID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("session get: %w", err)
	}
	if time.Since(time.Unix(updatedAt, 0)) > s.ttl {
		_ = s.Evict(ctx, id)
		return nil, ErrSessionNotFound{ID: id}
	}
	var st State
	if err := json.Unmarshal([]byte(raw), &st); err != nil {
		return nil, fmt.Errorf("session decode: %w", err)
	}
	return &st, nil
}

func (s *SQLiteStore) Put(ctx context.Context, state *State) error {
	state.UpdatedAt = time.Now()
	raw, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("session encode: %w", err)
	}
	_, err = dbopen.Exec(ctx, s.db,
		`INSERT INTO sessions (id, state, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET state = excluded.state, updated_at = excluded.updated_at`,
		state.ID, string(raw), state.UpdatedAt.Unix())
	if err != nil {
		return fmt.Errorf("session put: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Evict(ctx context.Context, id string) error {
	if _, err := dbopen.Exec(ctx, s.db, `DELETE FROM sessions WHERE id = ?`, id); err != nil {
		return fmt.Errorf("session evict: %w", err)
	}
	return nil
}

// Sweep removes expired sessions and returns how many were deleted.
func (s *SQLiteStore) Sweep(ctx context.Context) (int, error) {
	cutoff := time.Now().Add(-s.ttl).Unix()
	res, err := dbopen.Exec(ctx, s.db, `DELETE FROM sessions WHERE updated_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("session sweep: %w", err)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

// SweepLoop runs Sweep every interval until ctx is cancelled.
func (s *SQLiteStore) SweepLoop(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n, err := s.Sweep(ctx); err != nil {
				s.logger.Error("session sweep failed", "error", err)
			} else if n > 0 {
				s.logger.Debug("swept expired sessions", "removed", n)
			}
		}
	}
}
