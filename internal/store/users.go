// ABOUTME: User entity store methods for credential persistence
// ABOUTME: Users carry unique username/email and are soft-disabled, never deleted

package store

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

const userColumns = `id, username, email, password_hash, created_at, last_login, disabled_at`

// CreateUser creates a new user. Returns ErrDuplicateIdentity if the
// username or email is already taken.
func (s *SQLiteStore) CreateUser(ctx context.Context, user *User) error {
	ctx, cancel := s.opContext(ctx)
	defer cancel()

	query := `
		INSERT INTO users (id, username, email, password_hash, created_at, last_login, disabled_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.execRetry(ctx, query,
		user.ID,
		user.Username,
		user.Email,
		user.PasswordHash,
		user.CreatedAt.UTC().Format(time.RFC3339),
		nullTime(user.LastLogin),
		nullTime(user.DisabledAt),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return ErrDuplicateIdentity
		}
		return storeErr("inserting user", err)
	}

	s.logger.Info("created user", "id", user.ID, "username", user.Username)
	return nil
}

// GetUser retrieves a user by ID.
func (s *SQLiteStore) GetUser(ctx context.Context, id string) (*User, error) {
	return s.getUserWhere(ctx, "id = ?", id)
}

// GetUserByUsername retrieves a user by username.
func (s *SQLiteStore) GetUserByUsername(ctx context.Context, username string) (*User, error) {
	return s.getUserWhere(ctx, "username = ?", username)
}

// GetUserByEmail retrieves a user by email.
func (s *SQLiteStore) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	return s.getUserWhere(ctx, "email = ?", email)
}

func (s *SQLiteStore) getUserWhere(ctx context.Context, where string, arg any) (*User, error) {
	ctx, cancel := s.opContext(ctx)
	defer cancel()

	row := s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE `+where, arg)
	user, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, storeErr("querying user", err)
	}
	return user, nil
}

func scanUser(scanner interface{ Scan(dest ...any) error }) (*User, error) {
	var user User
	var createdAtStr string
	var lastLogin, disabledAt sql.NullString

	if err := scanner.Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.PasswordHash,
		&createdAtStr,
		&lastLogin,
		&disabledAt,
	); err != nil {
		return nil, err
	}

	var err error
	if user.CreatedAt, err = parseTime("created_at", createdAtStr); err != nil {
		return nil, err
	}
	if user.LastLogin, err = parseNullTime("last_login", lastLogin); err != nil {
		return nil, err
	}
	if user.DisabledAt, err = parseNullTime("disabled_at", disabledAt); err != nil {
		return nil, err
	}
	return &user, nil
}

// UpdateUserPassword replaces a user's password hash.
func (s *SQLiteStore) UpdateUserPassword(ctx context.Context, id, passwordHash string) error {
	ctx, cancel := s.opContext(ctx)
	defer cancel()

	result, err := s.execRetry(ctx, `UPDATE users SET password_hash = ? WHERE id = ?`, passwordHash, id)
	if err != nil {
		return storeErr("updating user password", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return storeErr("getting rows affected", err)
	}
	if rowsAffected == 0 {
		return ErrUserNotFound
	}

	s.logger.Info("updated user password", "id", id)
	return nil
}

// TouchLastLogin records the time of a successful credential verification.
func (s *SQLiteStore) TouchLastLogin(ctx context.Context, id string, when time.Time) error {
	ctx, cancel := s.opContext(ctx)
	defer cancel()

	result, err := s.execRetry(ctx, `UPDATE users SET last_login = ? WHERE id = ?`,
		when.UTC().Format(time.RFC3339), id)
	if err != nil {
		return storeErr("updating last login", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}

// DisableUser soft-disables a user. Idempotent: disabling an already
// disabled user keeps the original disabled timestamp.
func (s *SQLiteStore) DisableUser(ctx context.Context, id string) error {
	ctx, cancel := s.opContext(ctx)
	defer cancel()

	result, err := s.execRetry(ctx,
		`UPDATE users SET disabled_at = ? WHERE id = ? AND disabled_at IS NULL`,
		time.Now().UTC().Format(time.RFC3339), id)
	if err != nil {
		return storeErr("disabling user", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		// Distinguish missing user from already disabled
		if _, err := s.GetUser(ctx, id); err != nil {
			return err
		}
		return nil
	}

	s.logger.Info("disabled user", "id", id)
	return nil
}

// ListUsers returns all users ordered by creation time.
func (s *SQLiteStore) ListUsers(ctx context.Context) ([]*User, error) {
	ctx, cancel := s.opContext(ctx)
	defer cancel()

	rows, err := s.db.QueryContext(ctx, `SELECT `+userColumns+` FROM users ORDER BY created_at ASC`)
	if err != nil {
		return nil, storeErr("querying users", err)
	}
	defer func() { _ = rows.Close() }()

	var users []*User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, storeErr("scanning user", err)
		}
		users = append(users, user)
	}

	if err := rows.Err(); err != nil {
		return nil, storeErr("iterating users", err)
	}
	return users, nil
}
