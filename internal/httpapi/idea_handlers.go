// ABOUTME: Idea handlers for team generation, listing, and HTML rendering
// ABOUTME: Viewing a shared idea requires membership in its team

package httpapi

import (
	"net/http"
	"strconv"
	"time"

	"github.com/Animus004/ideahub/internal/auth"
	"github.com/Animus004/ideahub/internal/authz"
	"github.com/Animus004/ideahub/internal/ideas"
	"github.com/Animus004/ideahub/internal/store"
)

type ideaResponse struct {
	ID              string    `json:"id"`
	TeamID          string    `json:"team_id,omitempty"`
	UserID          string    `json:"user_id"`
	Title           string    `json:"title"`
	Body            string    `json:"body"`
	Niche           string    `json:"niche"`
	ContinuationDay int       `json:"continuation_day"`
	CreatedAt       time.Time `json:"created_at"`
}

func toIdeaResponse(i *store.Idea) ideaResponse {
	return ideaResponse{
		ID:              i.ID,
		TeamID:          i.TeamID,
		UserID:          i.UserID,
		Title:           i.Title,
		Body:            i.Body,
		Niche:           i.Niche,
		ContinuationDay: i.ContinuationDay,
		CreatedAt:       i.CreatedAt,
	}
}

type generateRequest struct {
	Niches []string `json:"niches" validate:"required,min=1"`
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	teamID := r.PathValue("id")
	identity := auth.MustFromContext(r.Context())

	if _, err := s.gate.Authorize(r.Context(), identity.UserID, teamID, authz.ActionGenerateContent); err != nil {
		writeError(w, s.logger, err)
		return
	}

	var req generateRequest
	if err := s.decodeRequest(r, &req); err != nil {
		writeError(w, s.logger, err)
		return
	}

	saved, err := s.ideas.Generate(r.Context(), identity.UserID, teamID, req.Niches)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}

	out := make([]ideaResponse, 0, len(saved))
	for _, idea := range saved {
		out = append(out, toIdeaResponse(idea))
	}
	writeJSON(w, http.StatusCreated, out)
}

func (s *Server) handleListIdeas(w http.ResponseWriter, r *http.Request) {
	teamID := r.PathValue("id")
	identity := auth.MustFromContext(r.Context())

	if _, err := s.gate.Authorize(r.Context(), identity.UserID, teamID, authz.ActionViewContent); err != nil {
		writeError(w, s.logger, err)
		return
	}

	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeError(w, s.logger, errBadRequest)
			return
		}
		limit = n
	}

	list, err := s.ideas.List(r.Context(), teamID, r.URL.Query().Get("niche"), limit)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}

	out := make([]ideaResponse, 0, len(list))
	for _, idea := range list {
		out = append(out, toIdeaResponse(idea))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleIdeaHTML(w http.ResponseWriter, r *http.Request) {
	identity := auth.MustFromContext(r.Context())

	idea, err := s.ideas.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, s.logger, err)
		return
	}

	// Personal ideas are visible to their author only; shared ideas to
	// team members.
	if idea.TeamID != "" {
		if _, err := s.gate.Authorize(r.Context(), identity.UserID, idea.TeamID, authz.ActionViewContent); err != nil {
			writeError(w, s.logger, err)
			return
		}
	} else if idea.UserID != identity.UserID {
		writeError(w, s.logger, store.ErrNotFound)
		return
	}

	html, err := ideas.RenderIdeaHTML(idea.Title, idea.Body)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(html))
}
