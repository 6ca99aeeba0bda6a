// ABOUTME: Store interface and data types for ideahub persistence
// ABOUTME: Defines User, Session, Team, Membership and related entities plus sentinel errors

package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a requested entity does not exist
var ErrNotFound = errors.New("not found")

// ErrStoreUnavailable is returned when the database cannot serve a request
// within the operation deadline (lock contention, wedged connection).
var ErrStoreUnavailable = errors.New("store unavailable")

// ErrDuplicateIdentity is returned when a username or email is already taken.
var ErrDuplicateIdentity = errors.New("identity already exists")

// ErrUserNotFound is returned when a user doesn't exist.
var ErrUserNotFound = errors.New("user not found")

// ErrSessionNotFound is returned when a session token is unknown.
var ErrSessionNotFound = errors.New("session not found")

// ErrTeamNotFound is returned when a team doesn't exist.
var ErrTeamNotFound = errors.New("team not found")

// ErrNotAMember is returned when a user has no membership in a team.
var ErrNotAMember = errors.New("not a team member")

// ErrAlreadyMember is returned when a membership already exists.
var ErrAlreadyMember = errors.New("already a team member")

// ErrAlreadyInvited is returned when a pending invitation already exists
// for the same team and email.
var ErrAlreadyInvited = errors.New("invitation already pending")

// ErrLastOwner is returned when a role change or removal would leave a
// team with zero owners.
var ErrLastOwner = errors.New("team must keep at least one owner")

// ErrInvalidRole is returned for role values outside the allowed set for
// the operation (e.g. granting owner through invite or role change).
var ErrInvalidRole = errors.New("invalid role")

// ErrInviteNotFound is returned when an invitation doesn't exist.
var ErrInviteNotFound = errors.New("invitation not found")

// ErrInviteUsed is returned when an invitation was already accepted.
var ErrInviteUsed = errors.New("invitation already used")

// ErrInviteExpired is returned when an invitation has expired.
var ErrInviteExpired = errors.New("invitation expired")

// Role scopes a membership's permitted actions on a team.
type Role string

const (
	RoleOwner  Role = "owner"
	RoleAdmin  Role = "admin"
	RoleMember Role = "member"
)

// ValidRoles lists all valid membership roles.
var ValidRoles = []Role{RoleOwner, RoleAdmin, RoleMember}

// User represents a registered identity. Users are never hard-deleted;
// DisabledAt marks soft-disabled accounts to preserve audit and ownership
// references.
type User struct {
	ID           string
	Username     string
	Email        string
	PasswordHash string // pbkdf2, "saltHex:hashHex"
	CreatedAt    time.Time
	LastLogin    *time.Time
	DisabledAt   *time.Time
}

// Disabled reports whether the account has been soft-disabled.
func (u *User) Disabled() bool {
	return u.DisabledAt != nil
}

// Session represents an authenticated session token.
type Session struct {
	Token     string
	UserID    string
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Team represents a shared workspace owned by exactly one user.
type Team struct {
	ID          string
	Name        string
	Description string
	OwnerID     string
	CreatedAt   time.Time
	MemberCount int // populated by list queries, 0 otherwise
}

// Membership is the (team, user, role) relation granting team-scoped
// permissions. Unique per (team, user).
type Membership struct {
	TeamID    string
	UserID    string
	Username  string // populated by member list queries
	Role      Role
	InvitedBy string
	JoinedAt  time.Time
}

// InviteStatus represents the lifecycle state of an invitation.
type InviteStatus string

const (
	InviteStatusPending  InviteStatus = "pending"
	InviteStatusAccepted InviteStatus = "accepted"
	InviteStatusExpired  InviteStatus = "expired"
)

// Invitation represents a pending offer of team membership to an email
// address. One-shot: accepting marks it used atomically.
type Invitation struct {
	ID         string
	TeamID     string
	Email      string
	InvitedBy  string
	Role       Role
	Status     InviteStatus
	CreatedAt  time.Time
	ExpiresAt  time.Time
	AcceptedAt *time.Time
	AcceptedBy string
}

// ActivityEntry is a single append-only record of a team-scoped action.
// Immutable once written.
type ActivityEntry struct {
	ID       string
	TeamID   string
	ActorID  string
	Action   string
	Detail   map[string]any
	Occurred time.Time
}

// ActivityFilter specifies filtering options for querying activity.
type ActivityFilter struct {
	Since   *time.Time
	Until   *time.Time
	ActorID *string
	Action  *string
	Limit   int // default 100, max 1000
}

// Idea is a persisted content idea, optionally shared with a team.
type Idea struct {
	ID              string
	TeamID          string // empty for personal ideas
	UserID          string
	Title           string
	Body            string
	Niche           string
	ContinuationDay int
	CreatedAt       time.Time
}

// GenerationStat records one generation run for usage tracking.
type GenerationStat struct {
	ID             string
	UserID         string
	TeamID         string
	IdeasGenerated int
	Niches         string
	Occurred       time.Time
}

// UserStats aggregates a user's generation history.
type UserStats struct {
	TotalIdeas  int
	TotalRuns   int
	RecentIdeas int // last 7 days
}

// UserStore defines user credential persistence.
type UserStore interface {
	CreateUser(ctx context.Context, user *User) error
	GetUser(ctx context.Context, id string) (*User, error)
	GetUserByUsername(ctx context.Context, username string) (*User, error)
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	UpdateUserPassword(ctx context.Context, id, passwordHash string) error
	TouchLastLogin(ctx context.Context, id string, when time.Time) error
	DisableUser(ctx context.Context, id string) error
	ListUsers(ctx context.Context) ([]*User, error)
}

// SessionStore defines session token persistence.
type SessionStore interface {
	CreateSession(ctx context.Context, session *Session) error
	GetSession(ctx context.Context, token string) (*Session, error)
	DeleteSession(ctx context.Context, token string) error
	DeleteSessionsForUser(ctx context.Context, userID string) error
	DeleteExpiredSessions(ctx context.Context) (int64, error)
}

// TeamStore defines team and membership persistence. Mutations that could
// violate the owner invariant are transactional with the guard check.
type TeamStore interface {
	CreateTeam(ctx context.Context, team *Team, ownerMembership *Membership) error
	GetTeam(ctx context.Context, id string) (*Team, error)
	ListTeamsForUser(ctx context.Context, userID string) ([]*Team, error)
	AddMembership(ctx context.Context, m *Membership) error
	GetMembership(ctx context.Context, teamID, userID string) (*Membership, error)
	ListMembers(ctx context.Context, teamID string) ([]*Membership, error)
	ChangeRole(ctx context.Context, teamID, userID string, newRole Role) error
	RemoveMember(ctx context.Context, teamID, userID string) error
	TransferOwnership(ctx context.Context, teamID, fromUserID, toUserID string) error
}

// InviteStore defines invitation persistence.
type InviteStore interface {
	CreateInvitation(ctx context.Context, inv *Invitation) error
	GetInvitation(ctx context.Context, id string) (*Invitation, error)
	AcceptInvitation(ctx context.Context, id, userID string) error
	ListInvitations(ctx context.Context, teamID string) ([]*Invitation, error)
}

// ActivityStore defines the append-only activity log.
type ActivityStore interface {
	AppendActivity(ctx context.Context, e *ActivityEntry) error
	ListActivity(ctx context.Context, teamID string, f ActivityFilter) ([]ActivityEntry, error)
}

// IdeaStore defines content idea and generation stat persistence.
type IdeaStore interface {
	SaveIdea(ctx context.Context, idea *Idea) error
	GetIdea(ctx context.Context, id string) (*Idea, error)
	ListIdeas(ctx context.Context, teamID, niche string, limit int) ([]*Idea, error)
	CurrentDay(ctx context.Context, niche string) (int, error)
	TitleExists(ctx context.Context, niche, title string) (bool, error)
	SaveGenerationStat(ctx context.Context, stat *GenerationStat) error
	GetUserStats(ctx context.Context, userID string) (*UserStats, error)
}

// Store combines all persistence concerns backed by one database.
type Store interface {
	UserStore
	SessionStore
	TeamStore
	InviteStore
	ActivityStore
	IdeaStore

	// Close releases any resources held by the store
	Close() error
}
