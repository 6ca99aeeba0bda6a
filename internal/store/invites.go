// ABOUTME: Invitation entity store methods with one-shot atomic acceptance
// ABOUTME: A pending invitation is unique per (team, email) and expires after its window

package store

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// CreateInvitation creates a pending invitation. Returns ErrAlreadyInvited
// when a pending invitation for the same team and email exists, and
// ErrInvalidRole when the role is not grantable by invite.
func (s *SQLiteStore) CreateInvitation(ctx context.Context, inv *Invitation) error {
	if inv.Role != RoleAdmin && inv.Role != RoleMember {
		return ErrInvalidRole
	}

	ctx, cancel := s.opContext(ctx)
	defer cancel()

	query := `
		INSERT INTO invitations (id, team_id, email, invited_by, role, status, created_at, expires_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.execRetry(ctx, query,
		inv.ID,
		inv.TeamID,
		inv.Email,
		inv.InvitedBy,
		inv.Role,
		InviteStatusPending,
		inv.CreatedAt.UTC().Format(time.RFC3339),
		inv.ExpiresAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return ErrAlreadyInvited
		}
		return storeErr("inserting invitation", err)
	}

	s.logger.Info("created invitation", "id", inv.ID, "team_id", inv.TeamID, "email", inv.Email, "role", inv.Role)
	return nil
}

// GetInvitation retrieves an invitation by ID.
func (s *SQLiteStore) GetInvitation(ctx context.Context, id string) (*Invitation, error) {
	ctx, cancel := s.opContext(ctx)
	defer cancel()

	query := `
		SELECT id, team_id, email, invited_by, role, status, created_at, expires_at, accepted_at, accepted_by
		FROM invitations
		WHERE id = ?
	`

	var inv Invitation
	var createdAtStr, expiresAtStr string
	var acceptedAt, acceptedBy sql.NullString

	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&inv.ID,
		&inv.TeamID,
		&inv.Email,
		&inv.InvitedBy,
		&inv.Role,
		&inv.Status,
		&createdAtStr,
		&expiresAtStr,
		&acceptedAt,
		&acceptedBy,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrInviteNotFound
	}
	if err != nil {
		return nil, storeErr("querying invitation", err)
	}

	inv.AcceptedBy = acceptedBy.String
	if inv.CreatedAt, err = parseTime("created_at", createdAtStr); err != nil {
		return nil, err
	}
	if inv.ExpiresAt, err = parseTime("expires_at", expiresAtStr); err != nil {
		return nil, err
	}
	if inv.AcceptedAt, err = parseNullTime("accepted_at", acceptedAt); err != nil {
		return nil, err
	}

	return &inv, nil
}

// AcceptInvitation atomically marks a pending, unexpired invitation as
// accepted by a user. The guarded UPDATE prevents the same invitation
// being accepted twice under concurrency. Returns ErrInviteUsed,
// ErrInviteExpired, or ErrInviteNotFound when the guard blocks.
func (s *SQLiteStore) AcceptInvitation(ctx context.Context, id, userID string) error {
	ctx, cancel := s.opContext(ctx)
	defer cancel()

	now := time.Now().UTC().Format(time.RFC3339)

	query := `
		UPDATE invitations
		SET status = ?, accepted_at = ?, accepted_by = ?
		WHERE id = ?
		  AND status = ?
		  AND expires_at > ?
	`

	result, err := s.execRetry(ctx, query, InviteStatusAccepted, now, userID, id, InviteStatusPending, now)
	if err != nil {
		return storeErr("accepting invitation", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return storeErr("getting rows affected", err)
	}
	if rowsAffected > 0 {
		s.logger.Info("invitation accepted", "id", id, "user_id", userID)
		return nil
	}

	// The guarded update did nothing - check the invitation to say why
	inv, err := s.GetInvitation(ctx, id)
	if err != nil {
		return err
	}
	if inv.Status == InviteStatusAccepted {
		return ErrInviteUsed
	}
	if time.Now().After(inv.ExpiresAt) {
		return ErrInviteExpired
	}
	return ErrInviteNotFound
}

// ListInvitations returns a team's invitations, newest first.
func (s *SQLiteStore) ListInvitations(ctx context.Context, teamID string) ([]*Invitation, error) {
	ctx, cancel := s.opContext(ctx)
	defer cancel()

	query := `
		SELECT id, team_id, email, invited_by, role, status, created_at, expires_at, accepted_at, accepted_by
		FROM invitations
		WHERE team_id = ?
		ORDER BY created_at DESC
	`

	rows, err := s.db.QueryContext(ctx, query, teamID)
	if err != nil {
		return nil, storeErr("querying invitations", err)
	}
	defer func() { _ = rows.Close() }()

	var invites []*Invitation
	for rows.Next() {
		var inv Invitation
		var createdAtStr, expiresAtStr string
		var acceptedAt, acceptedBy sql.NullString

		if err := rows.Scan(&inv.ID, &inv.TeamID, &inv.Email, &inv.InvitedBy, &inv.Role, &inv.Status,
			&createdAtStr, &expiresAtStr, &acceptedAt, &acceptedBy); err != nil {
			return nil, storeErr("scanning invitation", err)
		}

		inv.AcceptedBy = acceptedBy.String
		if inv.CreatedAt, err = parseTime("created_at", createdAtStr); err != nil {
			return nil, err
		}
		if inv.ExpiresAt, err = parseTime("expires_at", expiresAtStr); err != nil {
			return nil, err
		}
		if inv.AcceptedAt, err = parseNullTime("accepted_at", acceptedAt); err != nil {
			return nil, err
		}
		invites = append(invites, &inv)
	}

	if err := rows.Err(); err != nil {
		return nil, storeErr("iterating invitations", err)
	}
	return invites, nil
}
