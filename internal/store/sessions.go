// ABOUTME: Session entity store methods backing the session manager
// ABOUTME: Tokens are opaque; expiry policy lives in the auth package

package store

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// CreateSession persists a new session.
func (s *SQLiteStore) CreateSession(ctx context.Context, session *Session) error {
	ctx, cancel := s.opContext(ctx)
	defer cancel()

	query := `
		INSERT INTO sessions (token, user_id, created_at, expires_at)
		VALUES (?, ?, ?, ?)
	`

	_, err := s.execRetry(ctx, query,
		session.Token,
		session.UserID,
		session.CreatedAt.UTC().Format(time.RFC3339),
		session.ExpiresAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return storeErr("inserting session", err)
	}

	s.logger.Debug("created session", "user_id", session.UserID, "expires_at", session.ExpiresAt)
	return nil
}

// GetSession retrieves a session by token, expired or not. The caller
// decides what expiry means so it can report expired and unknown tokens
// as distinct conditions.
func (s *SQLiteStore) GetSession(ctx context.Context, token string) (*Session, error) {
	ctx, cancel := s.opContext(ctx)
	defer cancel()

	query := `
		SELECT token, user_id, created_at, expires_at
		FROM sessions
		WHERE token = ?
	`

	var session Session
	var createdAtStr, expiresAtStr string

	err := s.db.QueryRowContext(ctx, query, token).Scan(
		&session.Token,
		&session.UserID,
		&createdAtStr,
		&expiresAtStr,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, storeErr("querying session", err)
	}

	if session.CreatedAt, err = parseTime("created_at", createdAtStr); err != nil {
		return nil, err
	}
	if session.ExpiresAt, err = parseTime("expires_at", expiresAtStr); err != nil {
		return nil, err
	}

	return &session, nil
}

// DeleteSession removes a session. Idempotent: deleting an unknown token
// succeeds silently.
func (s *SQLiteStore) DeleteSession(ctx context.Context, token string) error {
	ctx, cancel := s.opContext(ctx)
	defer cancel()

	if _, err := s.execRetry(ctx, `DELETE FROM sessions WHERE token = ?`, token); err != nil {
		return storeErr("deleting session", err)
	}
	return nil
}

// DeleteSessionsForUser removes all sessions belonging to a user.
func (s *SQLiteStore) DeleteSessionsForUser(ctx context.Context, userID string) error {
	ctx, cancel := s.opContext(ctx)
	defer cancel()

	if _, err := s.execRetry(ctx, `DELETE FROM sessions WHERE user_id = ?`, userID); err != nil {
		return storeErr("deleting user sessions", err)
	}
	return nil
}

// DeleteExpiredSessions removes all expired sessions and returns the count.
func (s *SQLiteStore) DeleteExpiredSessions(ctx context.Context) (int64, error) {
	ctx, cancel := s.opContext(ctx)
	defer cancel()

	now := time.Now().UTC().Format(time.RFC3339)
	result, err := s.execRetry(ctx, `DELETE FROM sessions WHERE expires_at <= ?`, now)
	if err != nil {
		return 0, storeErr("deleting expired sessions", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected > 0 {
		s.logger.Debug("deleted expired sessions", "count", rowsAffected)
	}
	return rowsAffected, nil
}
