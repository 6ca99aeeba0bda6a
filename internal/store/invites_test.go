// ABOUTME: Tests for invitation store methods
// ABOUTME: Covers pending uniqueness, one-shot acceptance, expiry, and listing

package store

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestInvite(t *testing.T, s *SQLiteStore, team *Team, invitedBy *User, email string) *Invitation {
	t.Helper()
	inv := &Invitation{
		ID:        uuid.New().String(),
		TeamID:    team.ID,
		Email:     email,
		InvitedBy: invitedBy.ID,
		Role:      RoleMember,
		CreatedAt: time.Now().UTC(),
		ExpiresAt: time.Now().UTC().Add(7 * 24 * time.Hour),
	}
	require.NoError(t, s.CreateInvitation(context.Background(), inv))
	return inv
}

func TestInviteStore_CreateAndGet(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	alice := createTestUser(t, store, "alice")
	team := createTestTeam(t, store, alice, "Squad")
	inv := createTestInvite(t, store, team, alice, "carol@example.com")

	got, err := store.GetInvitation(ctx, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, inv.ID, got.ID)
	assert.Equal(t, team.ID, got.TeamID)
	assert.Equal(t, "carol@example.com", got.Email)
	assert.Equal(t, RoleMember, got.Role)
	assert.Equal(t, InviteStatusPending, got.Status)
	assert.Nil(t, got.AcceptedAt)
	assert.Empty(t, got.AcceptedBy)
}

func TestInviteStore_Get_NotFound(t *testing.T) {
	store := setupTestStore(t)

	_, err := store.GetInvitation(context.Background(), "no-such-invite")
	assert.ErrorIs(t, err, ErrInviteNotFound)
}

func TestInviteStore_Create_OwnerRoleRejected(t *testing.T) {
	store := setupTestStore(t)

	alice := createTestUser(t, store, "alice")
	team := createTestTeam(t, store, alice, "Squad")

	inv := &Invitation{
		ID:        uuid.New().String(),
		TeamID:    team.ID,
		Email:     "carol@example.com",
		InvitedBy: alice.ID,
		Role:      RoleOwner,
		CreatedAt: time.Now().UTC(),
		ExpiresAt: time.Now().UTC().Add(time.Hour),
	}
	err := store.CreateInvitation(context.Background(), inv)
	assert.ErrorIs(t, err, ErrInvalidRole)
}

func TestInviteStore_Create_DuplicatePending(t *testing.T) {
	store := setupTestStore(t)

	alice := createTestUser(t, store, "alice")
	team := createTestTeam(t, store, alice, "Squad")
	createTestInvite(t, store, team, alice, "carol@example.com")

	dup := &Invitation{
		ID:        uuid.New().String(),
		TeamID:    team.ID,
		Email:     "carol@example.com",
		InvitedBy: alice.ID,
		Role:      RoleAdmin,
		CreatedAt: time.Now().UTC(),
		ExpiresAt: time.Now().UTC().Add(time.Hour),
	}
	err := store.CreateInvitation(context.Background(), dup)
	assert.ErrorIs(t, err, ErrAlreadyInvited)
}

func TestInviteStore_Create_ReinviteAfterAccept(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	alice := createTestUser(t, store, "alice")
	carol := createTestUser(t, store, "carol")
	team := createTestTeam(t, store, alice, "Squad")

	first := createTestInvite(t, store, team, alice, "carol@example.com")
	require.NoError(t, store.AcceptInvitation(ctx, first.ID, carol.ID))

	// The pending uniqueness only covers pending invitations, so a fresh
	// invite for the same address is allowed once the first is resolved.
	createTestInvite(t, store, team, alice, "carol@example.com")
}

func TestInviteStore_Accept(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	alice := createTestUser(t, store, "alice")
	carol := createTestUser(t, store, "carol")
	team := createTestTeam(t, store, alice, "Squad")
	inv := createTestInvite(t, store, team, alice, "carol@example.com")

	require.NoError(t, store.AcceptInvitation(ctx, inv.ID, carol.ID))

	got, err := store.GetInvitation(ctx, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, InviteStatusAccepted, got.Status)
	assert.Equal(t, carol.ID, got.AcceptedBy)
	require.NotNil(t, got.AcceptedAt)
}

func TestInviteStore_Accept_AlreadyUsed(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	alice := createTestUser(t, store, "alice")
	carol := createTestUser(t, store, "carol")
	team := createTestTeam(t, store, alice, "Squad")
	inv := createTestInvite(t, store, team, alice, "carol@example.com")

	require.NoError(t, store.AcceptInvitation(ctx, inv.ID, carol.ID))

	err := store.AcceptInvitation(ctx, inv.ID, carol.ID)
	assert.ErrorIs(t, err, ErrInviteUsed)
}

func TestInviteStore_Accept_Expired(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	alice := createTestUser(t, store, "alice")
	carol := createTestUser(t, store, "carol")
	team := createTestTeam(t, store, alice, "Squad")

	inv := &Invitation{
		ID:        uuid.New().String(),
		TeamID:    team.ID,
		Email:     "carol@example.com",
		InvitedBy: alice.ID,
		Role:      RoleMember,
		CreatedAt: time.Now().UTC().Add(-8 * 24 * time.Hour),
		ExpiresAt: time.Now().UTC().Add(-24 * time.Hour),
	}
	require.NoError(t, store.CreateInvitation(ctx, inv))

	err := store.AcceptInvitation(ctx, inv.ID, carol.ID)
	assert.ErrorIs(t, err, ErrInviteExpired)
}

func TestInviteStore_Accept_NotFound(t *testing.T) {
	store := setupTestStore(t)
	carol := createTestUser(t, store, "carol")

	err := store.AcceptInvitation(context.Background(), "no-such-invite", carol.ID)
	assert.ErrorIs(t, err, ErrInviteNotFound)
}

func TestInviteStore_Accept_ConcurrentSingleWinner(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	alice := createTestUser(t, store, "alice")
	carol := createTestUser(t, store, "carol")
	dave := createTestUser(t, store, "dave")
	team := createTestTeam(t, store, alice, "Squad")
	inv := createTestInvite(t, store, team, alice, "carol@example.com")

	var wg sync.WaitGroup
	errs := make([]error, 2)
	accepters := []string{carol.ID, dave.ID}
	for i := range accepters {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = store.AcceptInvitation(ctx, inv.ID, accepters[i])
		}(i)
	}
	wg.Wait()

	// Exactly one acceptance wins; the loser sees the invite as used.
	okCount := 0
	for _, err := range errs {
		if err == nil {
			okCount++
		} else {
			assert.ErrorIs(t, err, ErrInviteUsed)
		}
	}
	assert.Equal(t, 1, okCount)
}

func TestInviteStore_List(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	alice := createTestUser(t, store, "alice")
	team := createTestTeam(t, store, alice, "Squad")
	other := createTestTeam(t, store, alice, "Other")

	createTestInvite(t, store, team, alice, "one@example.com")
	createTestInvite(t, store, team, alice, "two@example.com")
	createTestInvite(t, store, other, alice, "three@example.com")

	invites, err := store.ListInvitations(ctx, team.ID)
	require.NoError(t, err)
	require.Len(t, invites, 2)
	for _, inv := range invites {
		assert.Equal(t, team.ID, inv.TeamID)
	}
}
