// ABOUTME: SQLite implementation of the Store interface using modernc.org/sqlite
// ABOUTME: Provides schema creation, bounded operation deadlines, and transient retry

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// defaultOpTimeout bounds every store call so a wedged database surfaces
// as ErrStoreUnavailable instead of hanging the caller.
const defaultOpTimeout = 5 * time.Second

// SQLiteStore implements the Store interface using SQLite
type SQLiteStore struct {
	db      *sql.DB
	logger  *slog.Logger
	timeout time.Duration
}

// NewSQLiteStore creates a new SQLite store at the given path.
// The schema is automatically created if it doesn't exist.
// Parent directories are created if needed.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	logger := slog.Default().With("component", "store")

	// Ensure parent directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Enable WAL mode for better concurrent performance
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	// Wait rather than fail immediately under writer contention
	if _, err := db.Exec("PRAGMA busy_timeout=3000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}

	s := &SQLiteStore{
		db:      db,
		logger:  logger,
		timeout: defaultOpTimeout,
	}

	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	logger.Info("SQLite store initialized", "path", path)
	return s, nil
}

// createSchema creates the database tables if they don't exist
func (s *SQLiteStore) createSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS users (
			id            TEXT PRIMARY KEY,
			username      TEXT UNIQUE NOT NULL,
			email         TEXT UNIQUE NOT NULL,
			password_hash TEXT NOT NULL,
			created_at    TEXT NOT NULL,
			last_login    TEXT,
			disabled_at   TEXT
		);

		CREATE INDEX IF NOT EXISTS idx_users_username ON users(username);
		CREATE INDEX IF NOT EXISTS idx_users_email ON users(email);

		CREATE TABLE IF NOT EXISTS sessions (
			token      TEXT PRIMARY KEY,
			user_id    TEXT NOT NULL REFERENCES users(id),
			created_at TEXT NOT NULL,
			expires_at TEXT NOT NULL,

			CHECK (expires_at > created_at)
		);

		CREATE INDEX IF NOT EXISTS idx_sessions_user ON sessions(user_id);
		CREATE INDEX IF NOT EXISTS idx_sessions_expires ON sessions(expires_at);

		CREATE TABLE IF NOT EXISTS teams (
			id          TEXT PRIMARY KEY,
			name        TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			owner_id    TEXT NOT NULL REFERENCES users(id),
			created_at  TEXT NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_teams_owner ON teams(owner_id);

		CREATE TABLE IF NOT EXISTS memberships (
			team_id    TEXT NOT NULL REFERENCES teams(id),
			user_id    TEXT NOT NULL REFERENCES users(id),
			role       TEXT NOT NULL,
			invited_by TEXT,
			joined_at  TEXT NOT NULL,

			PRIMARY KEY (team_id, user_id),
			CHECK (role IN ('owner', 'admin', 'member'))
		);

		CREATE INDEX IF NOT EXISTS idx_memberships_user ON memberships(user_id);

		CREATE TABLE IF NOT EXISTS invitations (
			id          TEXT PRIMARY KEY,
			team_id     TEXT NOT NULL REFERENCES teams(id),
			email       TEXT NOT NULL,
			invited_by  TEXT NOT NULL REFERENCES users(id),
			role        TEXT NOT NULL,
			status      TEXT NOT NULL DEFAULT 'pending',
			created_at  TEXT NOT NULL,
			expires_at  TEXT NOT NULL,
			accepted_at TEXT,
			accepted_by TEXT,

			CHECK (role IN ('admin', 'member')),
			CHECK (status IN ('pending', 'accepted', 'expired'))
		);

		CREATE UNIQUE INDEX IF NOT EXISTS idx_invitations_pending
			ON invitations(team_id, email) WHERE status = 'pending';
		CREATE INDEX IF NOT EXISTS idx_invitations_team ON invitations(team_id);

		CREATE TABLE IF NOT EXISTS activity_log (
			id          TEXT PRIMARY KEY,
			team_id     TEXT NOT NULL,
			actor_id    TEXT NOT NULL,
			action      TEXT NOT NULL,
			detail_json TEXT,
			ts          TEXT NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_activity_team_ts ON activity_log(team_id, ts DESC);
		CREATE INDEX IF NOT EXISTS idx_activity_actor ON activity_log(actor_id);

		CREATE TABLE IF NOT EXISTS ideas (
			id               TEXT PRIMARY KEY,
			team_id          TEXT,
			user_id          TEXT NOT NULL REFERENCES users(id),
			title            TEXT NOT NULL,
			body             TEXT NOT NULL DEFAULT '',
			niche            TEXT NOT NULL,
			continuation_day INTEGER NOT NULL DEFAULT 1,
			created_at       TEXT NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_ideas_niche ON ideas(niche, continuation_day);
		CREATE INDEX IF NOT EXISTS idx_ideas_team ON ideas(team_id, created_at);

		CREATE TABLE IF NOT EXISTS generation_stats (
			id              TEXT PRIMARY KEY,
			user_id         TEXT NOT NULL REFERENCES users(id),
			team_id         TEXT,
			ideas_generated INTEGER NOT NULL DEFAULT 0,
			niches          TEXT,
			ts              TEXT NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_generation_stats_user ON generation_stats(user_id, ts);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	s.logger.Info("closing SQLite store")
	return s.db.Close()
}

// opContext applies the per-operation deadline unless the caller already
// set a tighter one.
func (s *SQLiteStore) opContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.timeout)
}

// execRetry runs a mutation, retrying once on a transient failure.
// Validation and constraint errors are deterministic and never retried.
func (s *SQLiteStore) execRetry(ctx context.Context, query string, args ...any) (sql.Result, error) {
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil && isTransient(err) {
		s.logger.Debug("retrying store write after transient error", "error", err)
		res, err = s.db.ExecContext(ctx, query, args...)
	}
	return res, err
}

// storeErr wraps database failures, mapping transient classes to
// ErrStoreUnavailable so callers get a single retryable kind.
func storeErr(op string, err error) error {
	if isTransient(err) {
		return fmt.Errorf("%s: %w", op, ErrStoreUnavailable)
	}
	return fmt.Errorf("%s: %w", op, err)
}

// isTransient reports whether an error is a lock/timeout class failure
// worth retrying, as opposed to a deterministic constraint violation.
func isTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "database is locked") ||
		strings.Contains(msg, "SQLITE_BUSY") ||
		strings.Contains(msg, "connection")
}

// isUniqueConstraintError checks if an error is a unique constraint violation.
func isUniqueConstraintError(err error) bool {
	// SQLite returns "UNIQUE constraint failed" in the error message
	return err != nil && (strings.Contains(err.Error(), "UNIQUE constraint failed") || strings.Contains(err.Error(), "unique constraint"))
}

// nullString returns nil for empty strings, otherwise the string itself
func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// nullTime formats an optional time as RFC3339, nil when unset
func nullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC().Format(time.RFC3339)
}

// parseTime parses an RFC3339 timestamp column
func parseTime(field, value string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing %s: %w", field, err)
	}
	return t, nil
}

// parseNullTime parses a nullable RFC3339 timestamp column
func parseNullTime(field string, value sql.NullString) (*time.Time, error) {
	if !value.Valid {
		return nil, nil
	}
	t, err := parseTime(field, value.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// Ensure SQLiteStore implements Store
var _ Store = (*SQLiteStore)(nil)
