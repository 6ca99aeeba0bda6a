// ABOUTME: Tests for the idea generation service
// ABOUTME: A scripted fake generator verifies prompts, dedupe, and day tracking

package ideas

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Animus004/ideahub/internal/store"
)

type fakeGenerator struct {
	response string
	err      error
	prompts  []string
}

func (f *fakeGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	f.prompts = append(f.prompts, prompt)
	if f.err != nil {
		return "", f.err
	}
	return f.response, nil
}

func setupIdeasTest(t *testing.T, gen *fakeGenerator) (*Service, *store.SQLiteStore, *store.User) {
	t.Helper()
	s, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	user := &store.User{
		ID:           "u-1",
		Username:     "alice",
		Email:        "alice@example.com",
		PasswordHash: "x:y",
		CreatedAt:    time.Now().UTC(),
	}
	require.NoError(t, s.CreateUser(context.Background(), user))

	return NewService(s, gen), s, user
}

func TestService_Generate(t *testing.T) {
	gen := &fakeGenerator{response: `[
		{"title": "Morning Routines", "niche": "fitness", "body": "## Outline\nwake up early"},
		{"title": "Desk Stretches", "niche": "fitness", "body": "stretch"},
		{"title": "Knife Skills", "niche": "cooking", "body": "chop"}
	]`}
	svc, st, user := setupIdeasTest(t, gen)
	ctx := context.Background()

	saved, err := svc.Generate(ctx, user.ID, "", []string{"fitness", "cooking"})
	require.NoError(t, err)
	require.Len(t, saved, 3)

	// First run of both niches is day 1
	for _, idea := range saved {
		assert.Equal(t, 1, idea.ContinuationDay)
	}

	// The prompt names each niche with its continuation day
	require.Len(t, gen.prompts, 1)
	assert.Contains(t, gen.prompts[0], "fitness")
	assert.Contains(t, gen.prompts[0], "day 1")

	stats, err := st.GetUserStats(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.TotalIdeas)
	assert.Equal(t, 1, stats.TotalRuns)
}

func TestService_Generate_ContinuationDayAdvances(t *testing.T) {
	gen := &fakeGenerator{response: `[{"title": "First", "niche": "fitness", "body": "a"}]`}
	svc, _, user := setupIdeasTest(t, gen)
	ctx := context.Background()

	_, err := svc.Generate(ctx, user.ID, "", []string{"fitness"})
	require.NoError(t, err)

	gen.response = `[{"title": "Second", "niche": "fitness", "body": "b"}]`
	saved, err := svc.Generate(ctx, user.ID, "", []string{"fitness"})
	require.NoError(t, err)
	require.Len(t, saved, 1)
	assert.Equal(t, 2, saved[0].ContinuationDay)
	assert.Contains(t, gen.prompts[1], "day 2")
}

func TestService_Generate_DuplicateTitlesDropped(t *testing.T) {
	gen := &fakeGenerator{response: `[{"title": "Same Idea", "niche": "fitness", "body": "a"}]`}
	svc, _, user := setupIdeasTest(t, gen)
	ctx := context.Background()

	_, err := svc.Generate(ctx, user.ID, "", []string{"fitness"})
	require.NoError(t, err)

	// Second run returns the same title (case differs); nothing usable left
	gen.response = `[{"title": "same idea", "niche": "fitness", "body": "b"}]`
	_, err = svc.Generate(ctx, user.ID, "", []string{"fitness"})
	assert.ErrorIs(t, err, ErrNothingGenerated)
}

func TestService_Generate_UnrequestedNicheDropped(t *testing.T) {
	gen := &fakeGenerator{response: `[
		{"title": "Wanted", "niche": "fitness", "body": "a"},
		{"title": "Unwanted", "niche": "crypto", "body": "b"}
	]`}
	svc, _, user := setupIdeasTest(t, gen)

	saved, err := svc.Generate(context.Background(), user.ID, "", []string{"fitness"})
	require.NoError(t, err)
	require.Len(t, saved, 1)
	assert.Equal(t, "Wanted", saved[0].Title)
}

func TestService_Generate_SharedWithTeam(t *testing.T) {
	gen := &fakeGenerator{response: `[{"title": "Team Idea", "niche": "fitness", "body": "a"}]`}
	svc, st, user := setupIdeasTest(t, gen)
	ctx := context.Background()

	team := &store.Team{ID: "t-1", Name: "Squad", OwnerID: user.ID, CreatedAt: time.Now().UTC()}
	require.NoError(t, st.CreateTeam(ctx, team, &store.Membership{
		TeamID: team.ID, UserID: user.ID, Role: store.RoleOwner, JoinedAt: time.Now().UTC(),
	}))

	saved, err := svc.Generate(ctx, user.ID, team.ID, []string{"fitness"})
	require.NoError(t, err)
	require.Len(t, saved, 1)
	assert.Equal(t, team.ID, saved[0].TeamID)

	teamIdeas, err := svc.List(ctx, team.ID, "", 0)
	require.NoError(t, err)
	assert.Len(t, teamIdeas, 1)
}

func TestService_Generate_NoNiches(t *testing.T) {
	svc, _, user := setupIdeasTest(t, &fakeGenerator{})

	_, err := svc.Generate(context.Background(), user.ID, "", nil)
	assert.ErrorIs(t, err, ErrNoNiches)
}

func TestService_Generate_GeneratorError(t *testing.T) {
	genErr := errors.New("model on strike")
	svc, _, user := setupIdeasTest(t, &fakeGenerator{err: genErr})

	_, err := svc.Generate(context.Background(), user.ID, "", []string{"fitness"})
	assert.ErrorIs(t, err, genErr)
}

func TestParseIdeas_Shapes(t *testing.T) {
	bare := `[{"title": "A", "niche": "n", "body": "b"}]`
	list, err := parseIdeas(bare)
	require.NoError(t, err)
	require.Len(t, list, 1)

	wrapped := `{"ideas": [{"title": "A", "niche": "n", "body": "b"}]}`
	list, err = parseIdeas(wrapped)
	require.NoError(t, err)
	require.Len(t, list, 1)

	fenced := "```json\n" + bare + "\n```"
	list, err = parseIdeas(fenced)
	require.NoError(t, err)
	require.Len(t, list, 1)

	_, err = parseIdeas("the model rambled instead of returning JSON")
	assert.Error(t, err)
}

func TestRenderIdeaHTML(t *testing.T) {
	html, err := RenderIdeaHTML("My Title", "Some **bold** text")
	require.NoError(t, err)
	assert.True(t, strings.Contains(html, "<h1>My Title</h1>"))
	assert.True(t, strings.Contains(html, "<strong>bold</strong>"))
}
