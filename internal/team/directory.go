// ABOUTME: Team directory service for team lifecycle, membership, and invitations
// ABOUTME: Owner-count invariants are enforced by the store; this layer adds policy

package team

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Animus004/ideahub/internal/activity"
	"github.com/Animus004/ideahub/internal/auth"
	"github.com/Animus004/ideahub/internal/store"
)

// Directory errors
var (
	// ErrInvalidName is returned when a team name fails validation.
	ErrInvalidName = errors.New("invalid team name")

	// ErrSelfDemotion is returned when the sole owner tries to demote or
	// remove themself. Distinct from ErrLastOwner so the caller can say
	// "transfer ownership first".
	ErrSelfDemotion = errors.New("sole owner cannot demote themself")

	// ErrUnknownIdentity is returned at invite acceptance when the
	// accepting account's email does not match the invited address.
	ErrUnknownIdentity = errors.New("unknown identity")
)

// InviteTTL is how long an invitation stays acceptable.
const InviteTTL = 7 * 24 * time.Hour

const (
	minNameLen = 3
	maxNameLen = 80
)

// Directory manages teams, memberships, and invitations. Authorization
// happens in front of it; the directory assumes the actor has already
// passed the gate.
type Directory struct {
	store    store.Store
	tokens   *TokenCodec
	mailer   Mailer
	recorder *activity.Recorder
	logger   *slog.Logger
}

// NewDirectory creates a team directory. The mailer may be nil to skip
// invitation email delivery; the recorder may be nil to skip lifecycle
// events.
func NewDirectory(st store.Store, tokens *TokenCodec, mailer Mailer, recorder *activity.Recorder) *Directory {
	return &Directory{
		store:    st,
		tokens:   tokens,
		mailer:   mailer,
		recorder: recorder,
		logger:   slog.Default().With("component", "team"),
	}
}

// CreateTeam creates a team with the creator as its sole owner. The team
// row and owner membership are written in one transaction.
func (d *Directory) CreateTeam(ctx context.Context, ownerID, name, description string) (*store.Team, error) {
	name = strings.TrimSpace(name)
	if len(name) < minNameLen || len(name) > maxNameLen {
		return nil, fmt.Errorf("%w: name must be %d-%d characters", ErrInvalidName, minNameLen, maxNameLen)
	}

	now := time.Now().UTC()
	team := &store.Team{
		ID:          uuid.New().String(),
		Name:        name,
		Description: strings.TrimSpace(description),
		OwnerID:     ownerID,
		CreatedAt:   now,
	}
	membership := &store.Membership{
		TeamID:   team.ID,
		UserID:   ownerID,
		Role:     store.RoleOwner,
		JoinedAt: now,
	}
	if err := d.store.CreateTeam(ctx, team, membership); err != nil {
		return nil, err
	}

	d.record(team.ID, ownerID, "team_created", map[string]any{"name": name})
	d.logger.Info("created team", "team_id", team.ID, "name", name, "owner_id", ownerID)
	return team, nil
}

// GetTeam returns a team by id.
func (d *Directory) GetTeam(ctx context.Context, teamID string) (*store.Team, error) {
	return d.store.GetTeam(ctx, teamID)
}

// Invite creates a pending invitation for an email address and returns
// the invitation with its signed token. Role must be admin or member;
// ownership is only granted through CreateTeam or TransferOwnership.
// Email delivery is best-effort: a mailer failure does not void the
// invitation.
func (d *Directory) Invite(ctx context.Context, teamID, inviterID, email string, role store.Role) (*store.Invitation, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if err := auth.ValidateEmail(email); err != nil {
		return nil, "", err
	}

	// Reject invites to accounts that already hold a membership
	if existing, err := d.store.GetUserByEmail(ctx, email); err == nil {
		if _, err := d.store.GetMembership(ctx, teamID, existing.ID); err == nil {
			return nil, "", store.ErrAlreadyMember
		} else if !errors.Is(err, store.ErrNotAMember) {
			return nil, "", err
		}
	} else if !errors.Is(err, store.ErrUserNotFound) {
		return nil, "", err
	}

	now := time.Now().UTC()
	inv := &store.Invitation{
		ID:        uuid.New().String(),
		TeamID:    teamID,
		Email:     email,
		InvitedBy: inviterID,
		Role:      role,
		Status:    store.InviteStatusPending,
		CreatedAt: now,
		ExpiresAt: now.Add(InviteTTL),
	}
	if err := d.store.CreateInvitation(ctx, inv); err != nil {
		return nil, "", err
	}

	token, err := d.tokens.Sign(inv.ID, inv.ExpiresAt)
	if err != nil {
		return nil, "", fmt.Errorf("signing invitation token: %w", err)
	}

	if d.mailer != nil {
		team, err := d.store.GetTeam(ctx, teamID)
		teamName := teamID
		if err == nil {
			teamName = team.Name
		}
		inviterName := inviterID
		if inviter, err := d.store.GetUser(ctx, inviterID); err == nil {
			inviterName = inviter.Username
		}
		if err := d.mailer.SendInvite(email, teamName, inviterName, token); err != nil {
			d.logger.Warn("invitation email failed", "email", email, "error", err)
		}
	}

	d.logger.Info("created invitation", "team_id", teamID, "email", email, "role", role)
	return inv, token, nil
}

// AcceptInvite verifies an invitation token, consumes the invitation,
// and adds the accepting user to the team. The accepting account's email
// must match the invited address.
func (d *Directory) AcceptInvite(ctx context.Context, token, userID string) (*store.Membership, error) {
	invID, err := d.tokens.Verify(token)
	if err != nil {
		if errors.Is(err, ErrExpiredToken) {
			return nil, store.ErrInviteExpired
		}
		return nil, err
	}

	inv, err := d.store.GetInvitation(ctx, invID)
	if err != nil {
		return nil, err
	}

	user, err := d.store.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !strings.EqualFold(user.Email, inv.Email) {
		return nil, fmt.Errorf("%w: invitation was issued to a different address", ErrUnknownIdentity)
	}

	// One-shot: exactly one concurrent accept can pass this
	if err := d.store.AcceptInvitation(ctx, invID, userID); err != nil {
		return nil, err
	}

	membership := &store.Membership{
		TeamID:    inv.TeamID,
		UserID:    userID,
		Role:      inv.Role,
		InvitedBy: inv.InvitedBy,
		JoinedAt:  time.Now().UTC(),
	}
	if err := d.store.AddMembership(ctx, membership); err != nil {
		return nil, err
	}

	d.record(inv.TeamID, userID, "member_joined", map[string]any{"role": string(inv.Role)})
	d.logger.Info("invitation accepted", "team_id", inv.TeamID, "user_id", userID, "role", inv.Role)
	return membership, nil
}

// ChangeRole updates a member's role. The store's owner-count guard
// returns ErrLastOwner when the change would leave the team ownerless;
// when the actor is demoting themself that surfaces as ErrSelfDemotion.
func (d *Directory) ChangeRole(ctx context.Context, teamID, actorID, targetID string, role store.Role) error {
	err := d.store.ChangeRole(ctx, teamID, targetID, role)
	if errors.Is(err, store.ErrLastOwner) && actorID == targetID {
		return ErrSelfDemotion
	}
	return err
}

// RemoveMember removes a member from a team. Removing the last owner is
// blocked; a sole owner removing themself gets ErrSelfDemotion.
func (d *Directory) RemoveMember(ctx context.Context, teamID, actorID, targetID string) error {
	err := d.store.RemoveMember(ctx, teamID, targetID)
	if errors.Is(err, store.ErrLastOwner) && actorID == targetID {
		return ErrSelfDemotion
	}
	return err
}

// TransferOwnership atomically moves ownership to another member. The
// previous owner stays on the team as admin.
func (d *Directory) TransferOwnership(ctx context.Context, teamID, fromUserID, toUserID string) error {
	if err := d.store.TransferOwnership(ctx, teamID, fromUserID, toUserID); err != nil {
		return err
	}
	d.record(teamID, fromUserID, "ownership_transferred", map[string]any{"to": toUserID})
	return nil
}

// ListMembers returns a team's members in a reproducible order.
func (d *Directory) ListMembers(ctx context.Context, teamID string) ([]*store.Membership, error) {
	return d.store.ListMembers(ctx, teamID)
}

// ListTeams returns the teams a user belongs to.
func (d *Directory) ListTeams(ctx context.Context, userID string) ([]*store.Team, error) {
	return d.store.ListTeamsForUser(ctx, userID)
}

// ListInvitations returns a team's invitations, newest first.
func (d *Directory) ListInvitations(ctx context.Context, teamID string) ([]*store.Invitation, error) {
	return d.store.ListInvitations(ctx, teamID)
}

func (d *Directory) record(teamID, actorID, event string, detail map[string]any) {
	if d.recorder != nil {
		d.recorder.Record(teamID, actorID, event, detail)
	}
}
