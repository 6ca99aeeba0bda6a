// ABOUTME: HTTP API tests driving the full stack over httptest
// ABOUTME: Fixture wires real services over a temp SQLite file with a fake generator

package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Animus004/ideahub/internal/activity"
	"github.com/Animus004/ideahub/internal/auth"
	"github.com/Animus004/ideahub/internal/authz"
	"github.com/Animus004/ideahub/internal/ideas"
	"github.com/Animus004/ideahub/internal/store"
	"github.com/Animus004/ideahub/internal/team"
)

type fakeGenerator struct {
	response string
}

func (f *fakeGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	return f.response, nil
}

type apiFixture struct {
	t        *testing.T
	server   *httptest.Server
	store    *store.SQLiteStore
	gen      *fakeGenerator
	recorder *activity.Recorder
}

func setupAPITest(t *testing.T) *apiFixture {
	t.Helper()
	s, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	sessions := auth.NewSessionManager(s, time.Hour)
	authSvc := auth.NewService(s, sessions, 1000)
	recorder := activity.NewRecorder(s)
	gate := authz.NewGate(sessions, s, recorder)
	teams := team.NewDirectory(s, team.NewTokenCodec([]byte("test-secret")), nil, recorder)
	gen := &fakeGenerator{response: `[{"title": "Idea One", "niche": "fitness", "body": "outline"}]`}
	ideaSvc := ideas.NewService(s, gen)

	srv := NewServer(Deps{
		Store:    s,
		Auth:     authSvc,
		Sessions: sessions,
		Gate:     gate,
		Teams:    teams,
		Ideas:    ideaSvc,
		Recorder: recorder,
	})

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	return &apiFixture{t: t, server: ts, store: s, gen: gen, recorder: recorder}
}

// do sends a JSON request and decodes the response body into out (when
// out is non-nil and the body is JSON).
func (f *apiFixture) do(method, path, token string, body any, out any) *http.Response {
	f.t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(f.t, err)
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, f.server.URL+path, reader)
	require.NoError(f.t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(f.t, err)
	f.t.Cleanup(func() { _ = resp.Body.Close() })

	if out != nil {
		require.NoError(f.t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp
}

// registerAndLogin creates an account and returns its user id and token.
func (f *apiFixture) registerAndLogin(username string) (string, string) {
	f.t.Helper()

	var user struct {
		ID string `json:"id"`
	}
	resp := f.do(http.MethodPost, "/api/register", "", map[string]string{
		"username": username,
		"email":    username + "@example.com",
		"password": "Sup3rSecret",
	}, &user)
	require.Equal(f.t, http.StatusCreated, resp.StatusCode)

	var login struct {
		Token string `json:"token"`
	}
	resp = f.do(http.MethodPost, "/api/login", "", map[string]string{
		"username": username,
		"password": "Sup3rSecret",
	}, &login)
	require.Equal(f.t, http.StatusOK, resp.StatusCode)
	require.NotEmpty(f.t, login.Token)

	return user.ID, login.Token
}

func (f *apiFixture) createTeam(token, name string) string {
	f.t.Helper()
	var team struct {
		ID string `json:"id"`
	}
	resp := f.do(http.MethodPost, "/api/teams", token, map[string]string{"name": name}, &team)
	require.Equal(f.t, http.StatusCreated, resp.StatusCode)
	return team.ID
}

func TestAPI_RegisterLoginMe(t *testing.T) {
	f := setupAPITest(t)

	userID, token := f.registerAndLogin("alice")

	var me struct {
		User struct {
			ID       string `json:"id"`
			Username string `json:"username"`
		} `json:"user"`
		Stats map[string]int `json:"stats"`
	}
	resp := f.do(http.MethodGet, "/api/me", token, nil, &me)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, userID, me.User.ID)
	assert.Equal(t, "alice", me.User.Username)
	assert.Equal(t, 0, me.Stats["total_ideas"])
}

func TestAPI_RegisterConflict(t *testing.T) {
	f := setupAPITest(t)
	f.registerAndLogin("alice")

	resp := f.do(http.MethodPost, "/api/register", "", map[string]string{
		"username": "alice",
		"email":    "other@example.com",
		"password": "Sup3rSecret",
	}, nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestAPI_RegisterValidation(t *testing.T) {
	f := setupAPITest(t)

	// Missing fields caught by the validator
	resp := f.do(http.MethodPost, "/api/register", "", map[string]string{"username": "alice"}, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// Weak password caught by the policy
	resp = f.do(http.MethodPost, "/api/register", "", map[string]string{
		"username": "alice", "email": "alice@example.com", "password": "weak",
	}, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAPI_LoginFailureUniform(t *testing.T) {
	f := setupAPITest(t)
	f.registerAndLogin("alice")

	var e1, e2 struct {
		Error string `json:"error"`
	}
	resp := f.do(http.MethodPost, "/api/login", "", map[string]string{
		"username": "alice", "password": "WrongPass1",
	}, &e1)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = f.do(http.MethodPost, "/api/login", "", map[string]string{
		"username": "ghost", "password": "WrongPass1",
	}, &e2)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// Same message whether the user exists or not
	assert.Equal(t, e1.Error, e2.Error)
}

func TestAPI_AuthRequired(t *testing.T) {
	f := setupAPITest(t)

	resp := f.do(http.MethodGet, "/api/me", "", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = f.do(http.MethodGet, "/api/me", "bogus-token", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestAPI_Logout(t *testing.T) {
	f := setupAPITest(t)
	_, token := f.registerAndLogin("alice")

	resp := f.do(http.MethodPost, "/api/logout", token, nil, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = f.do(http.MethodGet, "/api/me", token, nil, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestAPI_InviteAcceptFlow(t *testing.T) {
	f := setupAPITest(t)

	_, aliceTok := f.registerAndLogin("alice")
	_, carolTok := f.registerAndLogin("carol")
	teamID := f.createTeam(aliceTok, "Squad")

	var invite struct {
		Token string `json:"token"`
	}
	resp := f.do(http.MethodPost, "/api/teams/"+teamID+"/invites", aliceTok, map[string]string{
		"email": "carol@example.com",
		"role":  "member",
	}, &invite)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	require.NotEmpty(t, invite.Token)

	var accepted struct {
		TeamID string `json:"team_id"`
		Role   string `json:"role"`
	}
	resp = f.do(http.MethodPost, "/api/invites/accept", carolTok, map[string]string{
		"token": invite.Token,
	}, &accepted)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, teamID, accepted.TeamID)
	assert.Equal(t, "member", accepted.Role)

	var members []struct {
		Username string `json:"username"`
		Role     string `json:"role"`
	}
	resp = f.do(http.MethodGet, "/api/teams/"+teamID+"/members", carolTok, nil, &members)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, members, 2)
}

func TestAPI_InviteRoleForbidden(t *testing.T) {
	f := setupAPITest(t)

	_, aliceTok := f.registerAndLogin("alice")
	_, carolTok := f.registerAndLogin("carol")
	teamID := f.createTeam(aliceTok, "Squad")

	var invite struct {
		Token string `json:"token"`
	}
	resp := f.do(http.MethodPost, "/api/teams/"+teamID+"/invites", aliceTok, map[string]string{
		"email": "carol@example.com", "role": "member",
	}, &invite)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp = f.do(http.MethodPost, "/api/invites/accept", carolTok, map[string]string{"token": invite.Token}, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// Member cannot invite
	resp = f.do(http.MethodPost, "/api/teams/"+teamID+"/invites", carolTok, map[string]string{
		"email": "dave@example.com", "role": "member",
	}, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	// Owner role is never grantable by invite
	resp = f.do(http.MethodPost, "/api/teams/"+teamID+"/invites", aliceTok, map[string]string{
		"email": "dave@example.com", "role": "owner",
	}, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAPI_OutsiderForbidden(t *testing.T) {
	f := setupAPITest(t)

	_, aliceTok := f.registerAndLogin("alice")
	_, malloryTok := f.registerAndLogin("mallory")
	teamID := f.createTeam(aliceTok, "Squad")

	resp := f.do(http.MethodGet, "/api/teams/"+teamID+"/members", malloryTok, nil, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = f.do(http.MethodGet, "/api/teams/"+teamID+"/activity", malloryTok, nil, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestAPI_LastOwnerConflict(t *testing.T) {
	f := setupAPITest(t)

	aliceID, aliceTok := f.registerAndLogin("alice")
	teamID := f.createTeam(aliceTok, "Squad")

	resp := f.do(http.MethodPut,
		fmt.Sprintf("/api/teams/%s/members/%s/role", teamID, aliceID),
		aliceTok, map[string]string{"role": "member"}, nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestAPI_TransferThenRoleChange(t *testing.T) {
	f := setupAPITest(t)

	aliceID, aliceTok := f.registerAndLogin("alice")
	bobID, bobTok := f.registerAndLogin("bob")
	teamID := f.createTeam(aliceTok, "Squad")

	var invite struct {
		Token string `json:"token"`
	}
	resp := f.do(http.MethodPost, "/api/teams/"+teamID+"/invites", aliceTok, map[string]string{
		"email": "bob@example.com", "role": "admin",
	}, &invite)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp = f.do(http.MethodPost, "/api/invites/accept", bobTok, map[string]string{"token": invite.Token}, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// Bob as admin cannot transfer ownership
	resp = f.do(http.MethodPost, "/api/teams/"+teamID+"/transfer", bobTok,
		map[string]string{"to_user_id": bobID}, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	// Alice transfers to bob
	resp = f.do(http.MethodPost, "/api/teams/"+teamID+"/transfer", aliceTok,
		map[string]string{"to_user_id": bobID}, nil)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	// Bob can now demote alice (who became admin in the swap)
	resp = f.do(http.MethodPut,
		fmt.Sprintf("/api/teams/%s/members/%s/role", teamID, aliceID),
		bobTok, map[string]string{"role": "member"}, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
}

func TestAPI_RemoveMember(t *testing.T) {
	f := setupAPITest(t)

	_, aliceTok := f.registerAndLogin("alice")
	carolID, carolTok := f.registerAndLogin("carol")
	teamID := f.createTeam(aliceTok, "Squad")

	var invite struct {
		Token string `json:"token"`
	}
	resp := f.do(http.MethodPost, "/api/teams/"+teamID+"/invites", aliceTok, map[string]string{
		"email": "carol@example.com", "role": "member",
	}, &invite)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp = f.do(http.MethodPost, "/api/invites/accept", carolTok, map[string]string{"token": invite.Token}, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = f.do(http.MethodDelete,
		fmt.Sprintf("/api/teams/%s/members/%s", teamID, carolID), aliceTok, nil, nil)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	// Carol lost access
	resp = f.do(http.MethodGet, "/api/teams/"+teamID+"/members", carolTok, nil, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestAPI_GenerateAndListIdeas(t *testing.T) {
	f := setupAPITest(t)

	_, aliceTok := f.registerAndLogin("alice")
	teamID := f.createTeam(aliceTok, "Squad")

	var generated []struct {
		ID    string `json:"id"`
		Title string `json:"title"`
	}
	resp := f.do(http.MethodPost, "/api/teams/"+teamID+"/generate", aliceTok,
		map[string]any{"niches": []string{"fitness"}}, &generated)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	require.Len(t, generated, 1)
	assert.Equal(t, "Idea One", generated[0].Title)

	var listed []struct {
		Title string `json:"title"`
	}
	resp = f.do(http.MethodGet, "/api/teams/"+teamID+"/ideas", aliceTok, nil, &listed)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, listed, 1)

	// Rendered HTML view
	req, err := http.NewRequest(http.MethodGet, f.server.URL+"/api/ideas/"+generated[0].ID+"/html", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+aliceTok)
	htmlResp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer func() { _ = htmlResp.Body.Close() }()
	require.Equal(t, http.StatusOK, htmlResp.StatusCode)
	body, err := io.ReadAll(htmlResp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "<h1>Idea One</h1>")
}

func TestAPI_ActivityListing(t *testing.T) {
	f := setupAPITest(t)

	_, aliceTok := f.registerAndLogin("alice")
	teamID := f.createTeam(aliceTok, "Squad")

	// Creating the team logged an event; an invite adds a gate decision
	resp := f.do(http.MethodPost, "/api/teams/"+teamID+"/invites", aliceTok, map[string]string{
		"email": "carol@example.com", "role": "member",
	}, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	f.recorder.Flush()

	var entries []struct {
		Action string `json:"action"`
	}
	resp = f.do(http.MethodGet, "/api/teams/"+teamID+"/activity", aliceTok, nil, &entries)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	actions := make([]string, 0, len(entries))
	for _, e := range entries {
		actions = append(actions, e.Action)
	}
	assert.Contains(t, actions, "team_created")
	assert.Contains(t, actions, "invite_member")
}

func TestAPI_MalformedJSON(t *testing.T) {
	f := setupAPITest(t)

	req, err := http.NewRequest(http.MethodPost, f.server.URL+"/api/register",
		bytes.NewReader([]byte("{not json")))
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
