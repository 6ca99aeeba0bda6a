// ABOUTME: Credential service handling registration, login, and password changes
// ABOUTME: Failed logins are uniform and timing-balanced regardless of failure cause

package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Animus004/ideahub/internal/store"
)

// Credential errors
var (
	// ErrInvalidCredentials is the single error for every login failure a
	// caller may see: unknown username, wrong password, or disabled
	// account. Keeping one message prevents account enumeration.
	ErrInvalidCredentials = errors.New("invalid username or password")

	// ErrInvalidIdentity is returned when a username or email fails
	// validation at registration.
	ErrInvalidIdentity = errors.New("invalid identity")

	// ErrWeakPassword is returned when a password fails the strength policy.
	ErrWeakPassword = errors.New("weak password")
)

// Service authenticates users against stored PBKDF2 credentials and hands
// successful logins to the session manager.
type Service struct {
	users      store.UserStore
	sessions   *SessionManager
	logger     *slog.Logger
	iterations int
}

// NewService creates a credential service. A zero iterations value uses
// DefaultIterations.
func NewService(users store.UserStore, sessions *SessionManager, iterations int) *Service {
	if iterations <= 0 {
		iterations = DefaultIterations
	}
	return &Service{
		users:      users,
		sessions:   sessions,
		logger:     slog.Default().With("component", "auth"),
		iterations: iterations,
	}
}

// Register validates and creates a new user account. Username and email
// are stored lowercased so identity uniqueness is case-insensitive.
func (s *Service) Register(ctx context.Context, username, email, password string) (*store.User, error) {
	username = strings.ToLower(strings.TrimSpace(username))
	email = strings.ToLower(strings.TrimSpace(email))

	if err := ValidateUsername(username); err != nil {
		return nil, err
	}
	if err := ValidateEmail(email); err != nil {
		return nil, err
	}
	if err := ValidatePassword(password); err != nil {
		return nil, err
	}

	hash, err := HashPassword(password, s.iterations)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	user := &store.User{
		ID:           uuid.New().String(),
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info("registered user", "user_id", user.ID, "username", username)
	return user, nil
}

// Login verifies a username and password and opens a session. Every
// failure path performs a hash comparison so response timing does not
// reveal whether the username exists.
func (s *Service) Login(ctx context.Context, username, password string) (*store.User, *store.Session, error) {
	username = strings.ToLower(strings.TrimSpace(username))

	user, err := s.users.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			VerifyPassword(dummyHash, password, s.iterations)
			return nil, nil, ErrInvalidCredentials
		}
		return nil, nil, err
	}

	if user.Disabled() {
		VerifyPassword(dummyHash, password, s.iterations)
		s.logger.Warn("login attempt on disabled account", "user_id", user.ID)
		return nil, nil, ErrInvalidCredentials
	}

	if !VerifyPassword(user.PasswordHash, password, s.iterations) {
		return nil, nil, ErrInvalidCredentials
	}

	session, err := s.sessions.Create(ctx, user.ID)
	if err != nil {
		return nil, nil, err
	}

	now := time.Now().UTC()
	if err := s.users.TouchLastLogin(ctx, user.ID, now); err != nil {
		// Login already succeeded; a stale last_login is acceptable
		s.logger.Warn("failed to record last login", "user_id", user.ID, "error", err)
	}
	user.LastLogin = &now

	s.logger.Info("login successful", "user_id", user.ID, "username", username)
	return user, session, nil
}

// ChangePassword verifies the current password and replaces it, revoking
// every open session for the user so old tokens stop working.
func (s *Service) ChangePassword(ctx context.Context, userID, current, updated string) error {
	user, err := s.users.GetUser(ctx, userID)
	if err != nil {
		return err
	}
	if !VerifyPassword(user.PasswordHash, current, s.iterations) {
		return ErrInvalidCredentials
	}
	if err := ValidatePassword(updated); err != nil {
		return err
	}

	hash, err := HashPassword(updated, s.iterations)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}
	if err := s.users.UpdateUserPassword(ctx, userID, hash); err != nil {
		return err
	}
	if err := s.sessions.RevokeAllForUser(ctx, userID); err != nil {
		s.logger.Warn("failed to revoke sessions after password change", "user_id", userID, "error", err)
	}

	s.logger.Info("password changed", "user_id", userID)
	return nil
}
