// ABOUTME: Team and membership store methods with the one-owner invariant
// ABOUTME: Role changes and removals re-check the owner count inside the transaction

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// CreateTeam creates a team and its owner membership as one atomic unit.
// A team never exists without an owner membership.
func (s *SQLiteStore) CreateTeam(ctx context.Context, team *Team, ownerMembership *Membership) error {
	ctx, cancel := s.opContext(ctx)
	defer cancel()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return storeErr("beginning transaction", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO teams (id, name, description, owner_id, created_at)
		VALUES (?, ?, ?, ?, ?)
	`,
		team.ID,
		team.Name,
		team.Description,
		team.OwnerID,
		team.CreatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return storeErr("inserting team", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO memberships (team_id, user_id, role, invited_by, joined_at)
		VALUES (?, ?, ?, ?, ?)
	`,
		ownerMembership.TeamID,
		ownerMembership.UserID,
		RoleOwner,
		nullString(ownerMembership.InvitedBy),
		ownerMembership.JoinedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return storeErr("inserting owner membership", err)
	}

	if err := tx.Commit(); err != nil {
		return storeErr("committing team creation", err)
	}

	s.logger.Info("created team", "id", team.ID, "name", team.Name, "owner", team.OwnerID)
	return nil
}

// GetTeam retrieves a team by ID.
func (s *SQLiteStore) GetTeam(ctx context.Context, id string) (*Team, error) {
	ctx, cancel := s.opContext(ctx)
	defer cancel()

	query := `
		SELECT id, name, description, owner_id, created_at,
		       (SELECT COUNT(*) FROM memberships WHERE team_id = teams.id)
		FROM teams
		WHERE id = ?
	`

	var team Team
	var createdAtStr string

	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&team.ID,
		&team.Name,
		&team.Description,
		&team.OwnerID,
		&createdAtStr,
		&team.MemberCount,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrTeamNotFound
	}
	if err != nil {
		return nil, storeErr("querying team", err)
	}

	if team.CreatedAt, err = parseTime("created_at", createdAtStr); err != nil {
		return nil, err
	}
	return &team, nil
}

// ListTeamsForUser returns the teams a user belongs to, newest first.
func (s *SQLiteStore) ListTeamsForUser(ctx context.Context, userID string) ([]*Team, error) {
	ctx, cancel := s.opContext(ctx)
	defer cancel()

	query := `
		SELECT t.id, t.name, t.description, t.owner_id, t.created_at,
		       (SELECT COUNT(*) FROM memberships WHERE team_id = t.id)
		FROM teams t
		JOIN memberships m ON m.team_id = t.id
		WHERE m.user_id = ?
		ORDER BY t.created_at DESC
	`

	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, storeErr("querying user teams", err)
	}
	defer func() { _ = rows.Close() }()

	var teams []*Team
	for rows.Next() {
		var team Team
		var createdAtStr string
		if err := rows.Scan(&team.ID, &team.Name, &team.Description, &team.OwnerID, &createdAtStr, &team.MemberCount); err != nil {
			return nil, storeErr("scanning team", err)
		}
		if team.CreatedAt, err = parseTime("created_at", createdAtStr); err != nil {
			return nil, err
		}
		teams = append(teams, &team)
	}

	if err := rows.Err(); err != nil {
		return nil, storeErr("iterating teams", err)
	}
	return teams, nil
}

// AddMembership adds a user to a team. Returns ErrAlreadyMember if the
// membership exists and ErrInvalidRole for the owner role, which is only
// created through CreateTeam or TransferOwnership.
func (s *SQLiteStore) AddMembership(ctx context.Context, m *Membership) error {
	if m.Role == RoleOwner {
		return ErrInvalidRole
	}
	if m.Role != RoleAdmin && m.Role != RoleMember {
		return ErrInvalidRole
	}

	ctx, cancel := s.opContext(ctx)
	defer cancel()

	_, err := s.execRetry(ctx, `
		INSERT INTO memberships (team_id, user_id, role, invited_by, joined_at)
		VALUES (?, ?, ?, ?, ?)
	`,
		m.TeamID,
		m.UserID,
		m.Role,
		nullString(m.InvitedBy),
		m.JoinedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return ErrAlreadyMember
		}
		return storeErr("inserting membership", err)
	}

	s.logger.Info("added membership", "team_id", m.TeamID, "user_id", m.UserID, "role", m.Role)
	return nil
}

// GetMembership retrieves a user's membership in a team.
// Returns ErrNotAMember if absent.
func (s *SQLiteStore) GetMembership(ctx context.Context, teamID, userID string) (*Membership, error) {
	ctx, cancel := s.opContext(ctx)
	defer cancel()

	query := `
		SELECT team_id, user_id, role, invited_by, joined_at
		FROM memberships
		WHERE team_id = ? AND user_id = ?
	`

	m, err := scanMembershipRow(s.db.QueryRowContext(ctx, query, teamID, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotAMember
	}
	if err != nil {
		return nil, storeErr("querying membership", err)
	}
	return m, nil
}

func scanMembershipRow(row *sql.Row) (*Membership, error) {
	var m Membership
	var invitedBy sql.NullString
	var joinedAtStr string

	if err := row.Scan(&m.TeamID, &m.UserID, &m.Role, &invitedBy, &joinedAtStr); err != nil {
		return nil, err
	}
	m.InvitedBy = invitedBy.String

	var err error
	if m.JoinedAt, err = parseTime("joined_at", joinedAtStr); err != nil {
		return nil, err
	}
	return &m, nil
}

// ListMembers returns a team's memberships ordered by join time then user
// id, so repeated calls over the same state yield the same sequence.
func (s *SQLiteStore) ListMembers(ctx context.Context, teamID string) ([]*Membership, error) {
	ctx, cancel := s.opContext(ctx)
	defer cancel()

	query := `
		SELECT m.team_id, m.user_id, u.username, m.role, m.invited_by, m.joined_at
		FROM memberships m
		JOIN users u ON u.id = m.user_id
		WHERE m.team_id = ?
		ORDER BY m.joined_at ASC, m.user_id ASC
	`

	rows, err := s.db.QueryContext(ctx, query, teamID)
	if err != nil {
		return nil, storeErr("querying members", err)
	}
	defer func() { _ = rows.Close() }()

	var members []*Membership
	for rows.Next() {
		var m Membership
		var invitedBy sql.NullString
		var joinedAtStr string

		if err := rows.Scan(&m.TeamID, &m.UserID, &m.Username, &m.Role, &invitedBy, &joinedAtStr); err != nil {
			return nil, storeErr("scanning membership", err)
		}
		m.InvitedBy = invitedBy.String
		if m.JoinedAt, err = parseTime("joined_at", joinedAtStr); err != nil {
			return nil, err
		}
		members = append(members, &m)
	}

	if err := rows.Err(); err != nil {
		return nil, storeErr("iterating members", err)
	}
	return members, nil
}

// ChangeRole updates a membership's role. The owner role cannot be
// assigned this way (ErrInvalidRole); use TransferOwnership. Demoting the
// target is guarded: the UPDATE only applies while at least one other
// owner remains, so two concurrent demotions cannot both strip the last
// owner. Returns ErrLastOwner when the guard blocks the change.
func (s *SQLiteStore) ChangeRole(ctx context.Context, teamID, userID string, newRole Role) error {
	if newRole != RoleAdmin && newRole != RoleMember {
		return ErrInvalidRole
	}

	ctx, cancel := s.opContext(ctx)
	defer cancel()

	query := `
		UPDATE memberships
		SET role = ?
		WHERE team_id = ? AND user_id = ?
		  AND (role != 'owner' OR
		       (SELECT COUNT(*) FROM memberships
		        WHERE team_id = ? AND role = 'owner' AND user_id != ?) > 0)
	`

	result, err := s.execRetry(ctx, query, newRole, teamID, userID, teamID, userID)
	if err != nil {
		return storeErr("changing role", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return storeErr("getting rows affected", err)
	}
	if rowsAffected > 0 {
		s.logger.Info("changed role", "team_id", teamID, "user_id", userID, "role", newRole)
		return nil
	}

	// Guard blocked the update or the membership is missing; look to tell
	if _, err := s.GetMembership(ctx, teamID, userID); err != nil {
		return err
	}
	return ErrLastOwner
}

// RemoveMember removes a membership under the same owner-count guard as
// ChangeRole. Returns ErrLastOwner when removing the member would leave
// the team ownerless, ErrNotAMember when no membership exists.
func (s *SQLiteStore) RemoveMember(ctx context.Context, teamID, userID string) error {
	ctx, cancel := s.opContext(ctx)
	defer cancel()

	query := `
		DELETE FROM memberships
		WHERE team_id = ? AND user_id = ?
		  AND (role != 'owner' OR
		       (SELECT COUNT(*) FROM memberships
		        WHERE team_id = ? AND role = 'owner' AND user_id != ?) > 0)
	`

	result, err := s.execRetry(ctx, query, teamID, userID, teamID, userID)
	if err != nil {
		return storeErr("removing member", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return storeErr("getting rows affected", err)
	}
	if rowsAffected > 0 {
		s.logger.Info("removed member", "team_id", teamID, "user_id", userID)
		return nil
	}

	if _, err := s.GetMembership(ctx, teamID, userID); err != nil {
		return err
	}
	return ErrLastOwner
}

// TransferOwnership atomically makes toUserID the owner and demotes
// fromUserID to admin. Both must be current members and fromUserID must
// hold the owner role; the team row's owner column moves in the same
// transaction so it can never disagree with the membership roles.
func (s *SQLiteStore) TransferOwnership(ctx context.Context, teamID, fromUserID, toUserID string) error {
	ctx, cancel := s.opContext(ctx)
	defer cancel()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return storeErr("beginning transaction", err)
	}
	defer func() { _ = tx.Rollback() }()

	// Promote the target first; only applies if they are a member
	result, err := tx.ExecContext(ctx, `
		UPDATE memberships SET role = 'owner'
		WHERE team_id = ? AND user_id = ? AND role != 'owner'
	`, teamID, toUserID)
	if err != nil {
		return storeErr("promoting new owner", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return ErrNotAMember
	}

	result, err = tx.ExecContext(ctx, `
		UPDATE memberships SET role = 'admin'
		WHERE team_id = ? AND user_id = ? AND role = 'owner'
	`, teamID, fromUserID)
	if err != nil {
		return storeErr("demoting previous owner", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("transfer from non-owner: %w", ErrNotAMember)
	}

	if _, err := tx.ExecContext(ctx, `UPDATE teams SET owner_id = ? WHERE id = ?`, toUserID, teamID); err != nil {
		return storeErr("updating team owner", err)
	}

	if err := tx.Commit(); err != nil {
		return storeErr("committing ownership transfer", err)
	}

	s.logger.Info("transferred ownership", "team_id", teamID, "from", fromUserID, "to", toUserID)
	return nil
}
