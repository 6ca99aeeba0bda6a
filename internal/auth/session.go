// ABOUTME: Session manager issuing opaque tokens backed by the session store
// ABOUTME: Fixed TTL, one active session per user, lazy plus periodic expiry cleanup

package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Animus004/ideahub/internal/store"
)

// Session errors
var (
	// ErrSessionExpired is returned when a token is known but its window
	// has passed. Distinct from ErrSessionNotFound so callers can prompt
	// re-login instead of treating the token as garbage.
	ErrSessionExpired = errors.New("session expired")

	// ErrSessionNotFound is returned for unknown or revoked tokens.
	ErrSessionNotFound = errors.New("session not found")
)

// DefaultSessionTTL is the session lifetime when none is configured.
const DefaultSessionTTL = 7 * 24 * time.Hour

// SessionManager issues and validates opaque session tokens. Tokens are
// 256-bit random values; validity lives entirely in the store, so revoking
// a session takes effect immediately.
type SessionManager struct {
	sessions store.SessionStore
	ttl      time.Duration
	logger   *slog.Logger
}

// NewSessionManager creates a session manager with the given TTL. A zero
// TTL uses DefaultSessionTTL.
func NewSessionManager(sessions store.SessionStore, ttl time.Duration) *SessionManager {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &SessionManager{
		sessions: sessions,
		ttl:      ttl,
		logger:   slog.Default().With("component", "sessions"),
	}
}

// TTL returns the configured session lifetime.
func (m *SessionManager) TTL() time.Duration {
	return m.ttl
}

// Create opens a new session for a user. Any prior sessions for the user
// are revoked first: one active session per account.
func (m *SessionManager) Create(ctx context.Context, userID string) (*store.Session, error) {
	if err := m.sessions.DeleteSessionsForUser(ctx, userID); err != nil {
		return nil, fmt.Errorf("revoking prior sessions: %w", err)
	}

	token, err := generateSecureToken(32)
	if err != nil {
		return nil, fmt.Errorf("generating session token: %w", err)
	}

	now := time.Now().UTC()
	session := &store.Session{
		Token:     token,
		UserID:    userID,
		CreatedAt: now,
		ExpiresAt: now.Add(m.ttl),
	}
	if err := m.sessions.CreateSession(ctx, session); err != nil {
		return nil, err
	}

	m.logger.Debug("session created", "user_id", userID, "expires_at", session.ExpiresAt)
	return session, nil
}

// Validate resolves a token to its session. Expired sessions are deleted
// lazily and reported as ErrSessionExpired; unknown tokens as
// ErrSessionNotFound. The TTL is fixed at creation, never extended.
func (m *SessionManager) Validate(ctx context.Context, token string) (*store.Session, error) {
	session, err := m.sessions.GetSession(ctx, token)
	if err != nil {
		if errors.Is(err, store.ErrSessionNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}

	if time.Now().After(session.ExpiresAt) {
		if err := m.sessions.DeleteSession(ctx, token); err != nil {
			m.logger.Warn("failed to delete expired session", "error", err)
		}
		return nil, ErrSessionExpired
	}

	return session, nil
}

// Revoke deletes a session. Revoking an unknown token is not an error.
func (m *SessionManager) Revoke(ctx context.Context, token string) error {
	return m.sessions.DeleteSession(ctx, token)
}

// RevokeAllForUser deletes every session belonging to a user.
func (m *SessionManager) RevokeAllForUser(ctx context.Context, userID string) error {
	return m.sessions.DeleteSessionsForUser(ctx, userID)
}

// Sweep deletes all expired sessions and returns how many were removed.
func (m *SessionManager) Sweep(ctx context.Context) (int64, error) {
	return m.sessions.DeleteExpiredSessions(ctx)
}

// RunSweeper sweeps expired sessions on the given interval until the
// context is cancelled. Intended to run as a background goroutine.
func (m *SessionManager) RunSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := m.Sweep(ctx)
			if err != nil {
				m.logger.Error("session sweep failed", "error", err)
				continue
			}
			if n > 0 {
				m.logger.Info("swept expired sessions", "count", n)
			}
		}
	}
}

// generateSecureToken returns a hex-encoded random token of the given
// byte length.
func generateSecureToken(bytes int) (string, error) {
	b := make([]byte, bytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
