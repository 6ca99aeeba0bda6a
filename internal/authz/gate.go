// ABOUTME: Authorization gate mapping team actions to minimum membership roles
// ABOUTME: Allowed decisions are appended to the activity log without blocking

package authz

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Animus004/ideahub/internal/activity"
	"github.com/Animus004/ideahub/internal/auth"
	"github.com/Animus004/ideahub/internal/store"
)

// Authorization errors
var (
	// ErrUnauthenticated is returned when the session token is missing,
	// unknown, or expired.
	ErrUnauthenticated = errors.New("authentication required")

	// ErrInsufficientRole is returned when the caller is a member of the
	// team but their role does not reach the action's minimum.
	ErrInsufficientRole = errors.New("insufficient role")

	// ErrUnknownAction is returned for actions outside the static table.
	ErrUnknownAction = errors.New("unknown action")
)

// Action names a team-scoped operation subject to authorization.
type Action string

const (
	ActionViewContent       Action = "view_content"
	ActionGenerateContent   Action = "generate_content"
	ActionShareContent      Action = "share_content"
	ActionInviteMember      Action = "invite_member"
	ActionRemoveMember      Action = "remove_member"
	ActionChangeRole        Action = "change_role"
	ActionViewActivity      Action = "view_activity"
	ActionManageTeam        Action = "manage_team"
	ActionDeleteTeam        Action = "delete_team"
	ActionTransferOwnership Action = "transfer_ownership"
)

// minRole is the static action table: each action's minimum role, with
// member < admin < owner.
var minRole = map[Action]store.Role{
	ActionViewContent:       store.RoleMember,
	ActionGenerateContent:   store.RoleMember,
	ActionShareContent:      store.RoleMember,
	ActionViewActivity:      store.RoleMember,
	ActionInviteMember:      store.RoleAdmin,
	ActionRemoveMember:      store.RoleAdmin,
	ActionChangeRole:        store.RoleAdmin,
	ActionManageTeam:        store.RoleOwner,
	ActionDeleteTeam:        store.RoleOwner,
	ActionTransferOwnership: store.RoleOwner,
}

// roleRank orders roles for the minimum-role comparison.
var roleRank = map[store.Role]int{
	store.RoleMember: 1,
	store.RoleAdmin:  2,
	store.RoleOwner:  3,
}

// Decision is the result of a successful authorization check.
type Decision struct {
	UserID string
	Role   store.Role
}

// Gate answers "may this user do this action on this team". It reads
// membership fresh from the store on every check; role changes take
// effect on the next request.
type Gate struct {
	sessions *auth.SessionManager
	teams    store.TeamStore
	recorder *activity.Recorder
	logger   *slog.Logger
}

// NewGate creates an authorization gate. The recorder may be nil, in
// which case allowed decisions are not logged.
func NewGate(sessions *auth.SessionManager, teams store.TeamStore, recorder *activity.Recorder) *Gate {
	return &Gate{
		sessions: sessions,
		teams:    teams,
		recorder: recorder,
		logger:   slog.Default().With("component", "authz"),
	}
}

// AuthorizeToken validates a session token and then authorizes the
// action. Session failures of any kind surface as ErrUnauthenticated.
func (g *Gate) AuthorizeToken(ctx context.Context, token, teamID string, action Action) (*Decision, error) {
	session, err := g.sessions.Validate(ctx, token)
	if err != nil {
		if errors.Is(err, auth.ErrSessionExpired) || errors.Is(err, auth.ErrSessionNotFound) {
			return nil, fmt.Errorf("%w: %v", ErrUnauthenticated, err)
		}
		return nil, err
	}
	return g.Authorize(ctx, session.UserID, teamID, action)
}

// Authorize checks an already-authenticated user against the action
// table. Returns store.ErrNotAMember for outsiders and
// ErrInsufficientRole for members below the action's minimum. Allowed
// decisions are recorded to the activity log fire-and-forget.
func (g *Gate) Authorize(ctx context.Context, userID, teamID string, action Action) (*Decision, error) {
	required, ok := minRole[action]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownAction, action)
	}

	membership, err := g.teams.GetMembership(ctx, teamID, userID)
	if err != nil {
		return nil, err
	}

	if roleRank[membership.Role] < roleRank[required] {
		g.logger.Debug("authorization denied",
			"team_id", teamID,
			"user_id", userID,
			"action", action,
			"role", membership.Role,
			"required", required,
		)
		return nil, fmt.Errorf("%w: %s requires %s", ErrInsufficientRole, action, required)
	}

	if g.recorder != nil {
		g.recorder.Record(teamID, userID, string(action), nil)
	}

	return &Decision{UserID: userID, Role: membership.Role}, nil
}
