// ABOUTME: HTTP API server wiring routes to the auth, team, and idea services
// ABOUTME: Every team-scoped route passes through the authorization gate

package httpapi

import (
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/Animus004/ideahub/internal/activity"
	"github.com/Animus004/ideahub/internal/auth"
	"github.com/Animus004/ideahub/internal/authz"
	"github.com/Animus004/ideahub/internal/ideas"
	"github.com/Animus004/ideahub/internal/store"
	"github.com/Animus004/ideahub/internal/team"
)

// Server serves the JSON API.
type Server struct {
	store    store.Store
	auth     *auth.Service
	sessions *auth.SessionManager
	gate     *authz.Gate
	teams    *team.Directory
	ideas    *ideas.Service
	recorder *activity.Recorder
	validate *validator.Validate
	logger   *slog.Logger
}

// Deps bundles the services the server routes to.
type Deps struct {
	Store    store.Store
	Auth     *auth.Service
	Sessions *auth.SessionManager
	Gate     *authz.Gate
	Teams    *team.Directory
	Ideas    *ideas.Service
	Recorder *activity.Recorder
}

// NewServer creates the API server.
func NewServer(deps Deps) *Server {
	return &Server{
		store:    deps.Store,
		auth:     deps.Auth,
		sessions: deps.Sessions,
		gate:     deps.Gate,
		teams:    deps.Teams,
		ideas:    deps.Ideas,
		recorder: deps.Recorder,
		validate: validator.New(),
		logger:   slog.Default().With("component", "httpapi"),
	}
}

// Handler builds the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	// Account
	mux.HandleFunc("POST /api/register", s.handleRegister)
	mux.HandleFunc("POST /api/login", s.handleLogin)
	mux.HandleFunc("POST /api/logout", s.requireAuth(s.handleLogout))
	mux.HandleFunc("POST /api/password", s.requireAuth(s.handlePasswordChange))
	mux.HandleFunc("GET /api/me", s.requireAuth(s.handleMe))

	// Teams
	mux.HandleFunc("POST /api/teams", s.requireAuth(s.handleCreateTeam))
	mux.HandleFunc("GET /api/teams", s.requireAuth(s.handleListTeams))
	mux.HandleFunc("GET /api/teams/{id}/members", s.requireAuth(s.handleListMembers))
	mux.HandleFunc("POST /api/teams/{id}/invites", s.requireAuth(s.handleInvite))
	mux.HandleFunc("POST /api/invites/accept", s.requireAuth(s.handleAcceptInvite))
	mux.HandleFunc("PUT /api/teams/{id}/members/{user}/role", s.requireAuth(s.handleChangeRole))
	mux.HandleFunc("DELETE /api/teams/{id}/members/{user}", s.requireAuth(s.handleRemoveMember))
	mux.HandleFunc("POST /api/teams/{id}/transfer", s.requireAuth(s.handleTransferOwnership))
	mux.HandleFunc("GET /api/teams/{id}/activity", s.requireAuth(s.handleTeamActivity))

	// Ideas
	mux.HandleFunc("POST /api/teams/{id}/generate", s.requireAuth(s.handleGenerate))
	mux.HandleFunc("GET /api/teams/{id}/ideas", s.requireAuth(s.handleListIdeas))
	mux.HandleFunc("GET /api/ideas/{id}/html", s.requireAuth(s.handleIdeaHTML))

	return mux
}
