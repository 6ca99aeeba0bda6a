// ABOUTME: Account handlers for registration, login, logout, and password change
// ABOUTME: Login failures keep one uniform message regardless of cause

package httpapi

import (
	"net/http"
	"time"

	"github.com/Animus004/ideahub/internal/auth"
)

type registerRequest struct {
	Username string `json:"username" validate:"required"`
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type userResponse struct {
	ID        string     `json:"id"`
	Username  string     `json:"username"`
	Email     string     `json:"email"`
	CreatedAt time.Time  `json:"created_at"`
	LastLogin *time.Time `json:"last_login,omitempty"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := s.decodeRequest(r, &req); err != nil {
		writeError(w, s.logger, err)
		return
	}

	user, err := s.auth.Register(r.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, userResponse{
		ID:        user.ID,
		Username:  user.Username,
		Email:     user.Email,
		CreatedAt: user.CreatedAt,
	})
}

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type loginResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      userResponse `json:"user"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := s.decodeRequest(r, &req); err != nil {
		writeError(w, s.logger, err)
		return
	}

	user, session, err := s.auth.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, loginResponse{
		Token:     session.Token,
		ExpiresAt: session.ExpiresAt,
		User: userResponse{
			ID:        user.ID,
			Username:  user.Username,
			Email:     user.Email,
			CreatedAt: user.CreatedAt,
			LastLogin: user.LastLogin,
		},
	})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	identity := auth.MustFromContext(r.Context())
	if err := s.sessions.Revoke(r.Context(), identity.Token); err != nil {
		writeError(w, s.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type passwordChangeRequest struct {
	Current string `json:"current" validate:"required"`
	New     string `json:"new" validate:"required"`
}

func (s *Server) handlePasswordChange(w http.ResponseWriter, r *http.Request) {
	var req passwordChangeRequest
	if err := s.decodeRequest(r, &req); err != nil {
		writeError(w, s.logger, err)
		return
	}

	identity := auth.MustFromContext(r.Context())
	if err := s.auth.ChangePassword(r.Context(), identity.UserID, req.Current, req.New); err != nil {
		writeError(w, s.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	identity := auth.MustFromContext(r.Context())

	user, err := s.store.GetUser(r.Context(), identity.UserID)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}

	stats, err := s.ideas.Stats(r.Context(), user.ID)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"user": userResponse{
			ID:        user.ID,
			Username:  user.Username,
			Email:     user.Email,
			CreatedAt: user.CreatedAt,
			LastLogin: user.LastLogin,
		},
		"stats": map[string]int{
			"total_ideas":  stats.TotalIdeas,
			"total_runs":   stats.TotalRuns,
			"recent_ideas": stats.RecentIdeas,
		},
	})
}
