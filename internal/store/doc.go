// Package store provides persistent storage for ideahub using SQLite.
//
// # Architecture
//
// The store package uses an interface-driven architecture with specialized
// interfaces per concern:
//
//   - UserStore: Credential rows (unique username/email, soft-disable)
//   - SessionStore: Opaque session tokens with expiry
//   - TeamStore: Teams and role-scoped memberships
//   - InviteStore: Pending invitations with one-shot acceptance
//   - ActivityStore: Append-only team activity log
//   - IdeaStore: Generated content ideas and usage stats
//
// SQLiteStore implements all interfaces in a single struct, allowing easy
// composition while maintaining clear interface boundaries.
//
// # Invariants
//
// Mutations that could violate a relational invariant are transactional at
// the level of one logical operation:
//
//   - CreateTeam inserts the team and its owner membership in one
//     transaction; a team never exists without an owner.
//   - ChangeRole and RemoveMember re-evaluate the owner count inside the
//     guarded statement, so concurrent demotions cannot strip a team's
//     last owner; the loser gets ErrLastOwner.
//   - AcceptInvitation is a compare-and-set UPDATE; an invitation can be
//     consumed at most once.
//
// # Error Handling
//
// Every entity has sentinel errors (ErrUserNotFound, ErrAlreadyMember,
// ErrLastOwner, ...) matched with errors.Is. Calls carry a bounded
// deadline; lock contention and connection failures are retried once and
// otherwise surfaced as ErrStoreUnavailable. Constraint and validation
// failures are deterministic and never retried.
//
// # Time Handling
//
// All timestamps are stored as RFC3339 strings in UTC and parsed back to
// time.Time when read.
package store
