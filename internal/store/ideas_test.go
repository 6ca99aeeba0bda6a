// ABOUTME: Tests for idea and generation stat store methods
// ABOUTME: Covers continuation day tracking, duplicate titles, and usage totals

package store

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func saveTestIdea(t *testing.T, s *SQLiteStore, user *User, niche, title string, day int) *Idea {
	t.Helper()
	idea := &Idea{
		ID:              uuid.New().String(),
		UserID:          user.ID,
		Title:           title,
		Body:            "body for " + title,
		Niche:           niche,
		ContinuationDay: day,
		CreatedAt:       time.Now().UTC(),
	}
	require.NoError(t, s.SaveIdea(context.Background(), idea))
	return idea
}

func TestIdeaStore_SaveAndGet(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	alice := createTestUser(t, store, "alice")
	idea := saveTestIdea(t, store, alice, "fitness", "Morning Routines", 1)

	got, err := store.GetIdea(ctx, idea.ID)
	require.NoError(t, err)
	assert.Equal(t, idea.ID, got.ID)
	assert.Equal(t, "Morning Routines", got.Title)
	assert.Equal(t, "fitness", got.Niche)
	assert.Equal(t, 1, got.ContinuationDay)
	assert.Empty(t, got.TeamID)
}

func TestIdeaStore_Get_NotFound(t *testing.T) {
	store := setupTestStore(t)

	_, err := store.GetIdea(context.Background(), "no-such-idea")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestIdeaStore_SharedIdeaKeepsTeam(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	alice := createTestUser(t, store, "alice")
	team := createTestTeam(t, store, alice, "Squad")

	idea := &Idea{
		ID:              uuid.New().String(),
		TeamID:          team.ID,
		UserID:          alice.ID,
		Title:           "Shared Plan",
		Body:            "body",
		Niche:           "fitness",
		ContinuationDay: 1,
		CreatedAt:       time.Now().UTC(),
	}
	require.NoError(t, store.SaveIdea(ctx, idea))

	got, err := store.GetIdea(ctx, idea.ID)
	require.NoError(t, err)
	assert.Equal(t, team.ID, got.TeamID)
}

func TestIdeaStore_ListFilters(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	alice := createTestUser(t, store, "alice")
	team := createTestTeam(t, store, alice, "Squad")

	saveTestIdea(t, store, alice, "fitness", "One", 1)
	saveTestIdea(t, store, alice, "cooking", "Two", 1)

	shared := &Idea{
		ID:              uuid.New().String(),
		TeamID:          team.ID,
		UserID:          alice.ID,
		Title:           "Three",
		Body:            "body",
		Niche:           "fitness",
		ContinuationDay: 2,
		CreatedAt:       time.Now().UTC(),
	}
	require.NoError(t, store.SaveIdea(ctx, shared))

	all, err := store.ListIdeas(ctx, "", "", 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	fitness, err := store.ListIdeas(ctx, "", "fitness", 0)
	require.NoError(t, err)
	assert.Len(t, fitness, 2)

	teamIdeas, err := store.ListIdeas(ctx, team.ID, "", 0)
	require.NoError(t, err)
	require.Len(t, teamIdeas, 1)
	assert.Equal(t, "Three", teamIdeas[0].Title)
}

func TestIdeaStore_CurrentDay(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	alice := createTestUser(t, store, "alice")

	day, err := store.CurrentDay(ctx, "fitness")
	require.NoError(t, err)
	assert.Equal(t, 0, day)

	saveTestIdea(t, store, alice, "fitness", "One", 1)
	saveTestIdea(t, store, alice, "fitness", "Two", 3)
	saveTestIdea(t, store, alice, "cooking", "Other", 9)

	day, err = store.CurrentDay(ctx, "fitness")
	require.NoError(t, err)
	assert.Equal(t, 3, day)
}

func TestIdeaStore_TitleExists(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	alice := createTestUser(t, store, "alice")
	saveTestIdea(t, store, alice, "fitness", "Morning Routines", 1)

	exists, err := store.TitleExists(ctx, "fitness", "morning routines")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = store.TitleExists(ctx, "fitness", "Evening Routines")
	require.NoError(t, err)
	assert.False(t, exists)

	// Same title under another niche does not count
	exists, err = store.TitleExists(ctx, "cooking", "Morning Routines")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestIdeaStore_UserStats(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	alice := createTestUser(t, store, "alice")
	bob := createTestUser(t, store, "bob")

	require.NoError(t, store.SaveGenerationStat(ctx, &GenerationStat{
		ID:             uuid.New().String(),
		UserID:         alice.ID,
		IdeasGenerated: 5,
		Niches:         "fitness",
		Occurred:       time.Now().UTC(),
	}))
	require.NoError(t, store.SaveGenerationStat(ctx, &GenerationStat{
		ID:             uuid.New().String(),
		UserID:         alice.ID,
		IdeasGenerated: 3,
		Niches:         "fitness,cooking",
		Occurred:       time.Now().UTC().AddDate(0, 0, -30),
	}))
	require.NoError(t, store.SaveGenerationStat(ctx, &GenerationStat{
		ID:             uuid.New().String(),
		UserID:         bob.ID,
		IdeasGenerated: 7,
		Occurred:       time.Now().UTC(),
	}))

	stats, err := store.GetUserStats(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, 8, stats.TotalIdeas)
	assert.Equal(t, 2, stats.TotalRuns)
	assert.Equal(t, 5, stats.RecentIdeas)
}

func TestIdeaStore_UserStats_Empty(t *testing.T) {
	store := setupTestStore(t)

	alice := createTestUser(t, store, "alice")

	stats, err := store.GetUserStats(context.Background(), alice.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.TotalIdeas)
	assert.Equal(t, 0, stats.TotalRuns)
	assert.Equal(t, 0, stats.RecentIdeas)
}
