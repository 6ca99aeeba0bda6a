// ABOUTME: Team handlers for lifecycle, membership, invitations, and activity
// ABOUTME: Each team-scoped route authorizes through the gate before acting

package httpapi

import (
	"net/http"
	"strconv"
	"time"

	"github.com/Animus004/ideahub/internal/auth"
	"github.com/Animus004/ideahub/internal/authz"
	"github.com/Animus004/ideahub/internal/store"
)

type teamResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	OwnerID     string    `json:"owner_id"`
	CreatedAt   time.Time `json:"created_at"`
	MemberCount int       `json:"member_count,omitempty"`
}

func toTeamResponse(t *store.Team) teamResponse {
	return teamResponse{
		ID:          t.ID,
		Name:        t.Name,
		Description: t.Description,
		OwnerID:     t.OwnerID,
		CreatedAt:   t.CreatedAt,
		MemberCount: t.MemberCount,
	}
}

type createTeamRequest struct {
	Name        string `json:"name" validate:"required"`
	Description string `json:"description"`
}

func (s *Server) handleCreateTeam(w http.ResponseWriter, r *http.Request) {
	var req createTeamRequest
	if err := s.decodeRequest(r, &req); err != nil {
		writeError(w, s.logger, err)
		return
	}

	identity := auth.MustFromContext(r.Context())
	team, err := s.teams.CreateTeam(r.Context(), identity.UserID, req.Name, req.Description)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, toTeamResponse(team))
}

func (s *Server) handleListTeams(w http.ResponseWriter, r *http.Request) {
	identity := auth.MustFromContext(r.Context())

	teams, err := s.teams.ListTeams(r.Context(), identity.UserID)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}

	out := make([]teamResponse, 0, len(teams))
	for _, t := range teams {
		out = append(out, toTeamResponse(t))
	}
	writeJSON(w, http.StatusOK, out)
}

type memberResponse struct {
	UserID   string    `json:"user_id"`
	Username string    `json:"username"`
	Role     string    `json:"role"`
	JoinedAt time.Time `json:"joined_at"`
}

func (s *Server) handleListMembers(w http.ResponseWriter, r *http.Request) {
	teamID := r.PathValue("id")
	identity := auth.MustFromContext(r.Context())

	if _, err := s.gate.Authorize(r.Context(), identity.UserID, teamID, authz.ActionViewContent); err != nil {
		writeError(w, s.logger, err)
		return
	}

	members, err := s.teams.ListMembers(r.Context(), teamID)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}

	out := make([]memberResponse, 0, len(members))
	for _, m := range members {
		out = append(out, memberResponse{
			UserID:   m.UserID,
			Username: m.Username,
			Role:     string(m.Role),
			JoinedAt: m.JoinedAt,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

type inviteRequest struct {
	Email string `json:"email" validate:"required"`
	Role  string `json:"role" validate:"required,oneof=admin member"`
}

type inviteResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (s *Server) handleInvite(w http.ResponseWriter, r *http.Request) {
	teamID := r.PathValue("id")
	identity := auth.MustFromContext(r.Context())

	if _, err := s.gate.Authorize(r.Context(), identity.UserID, teamID, authz.ActionInviteMember); err != nil {
		writeError(w, s.logger, err)
		return
	}

	var req inviteRequest
	if err := s.decodeRequest(r, &req); err != nil {
		writeError(w, s.logger, err)
		return
	}

	inv, token, err := s.teams.Invite(r.Context(), teamID, identity.UserID, req.Email, store.Role(req.Role))
	if err != nil {
		writeError(w, s.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, inviteResponse{
		ID:        inv.ID,
		Email:     inv.Email,
		Role:      string(inv.Role),
		Token:     token,
		ExpiresAt: inv.ExpiresAt,
	})
}

type acceptInviteRequest struct {
	Token string `json:"token" validate:"required"`
}

func (s *Server) handleAcceptInvite(w http.ResponseWriter, r *http.Request) {
	var req acceptInviteRequest
	if err := s.decodeRequest(r, &req); err != nil {
		writeError(w, s.logger, err)
		return
	}

	identity := auth.MustFromContext(r.Context())
	membership, err := s.teams.AcceptInvite(r.Context(), req.Token, identity.UserID)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"team_id": membership.TeamID,
		"role":    string(membership.Role),
	})
}

type changeRoleRequest struct {
	Role string `json:"role" validate:"required,oneof=admin member"`
}

func (s *Server) handleChangeRole(w http.ResponseWriter, r *http.Request) {
	teamID := r.PathValue("id")
	targetID := r.PathValue("user")
	identity := auth.MustFromContext(r.Context())

	if _, err := s.gate.Authorize(r.Context(), identity.UserID, teamID, authz.ActionChangeRole); err != nil {
		writeError(w, s.logger, err)
		return
	}

	var req changeRoleRequest
	if err := s.decodeRequest(r, &req); err != nil {
		writeError(w, s.logger, err)
		return
	}

	if err := s.teams.ChangeRole(r.Context(), teamID, identity.UserID, targetID, store.Role(req.Role)); err != nil {
		writeError(w, s.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleRemoveMember(w http.ResponseWriter, r *http.Request) {
	teamID := r.PathValue("id")
	targetID := r.PathValue("user")
	identity := auth.MustFromContext(r.Context())

	if _, err := s.gate.Authorize(r.Context(), identity.UserID, teamID, authz.ActionRemoveMember); err != nil {
		writeError(w, s.logger, err)
		return
	}

	if err := s.teams.RemoveMember(r.Context(), teamID, identity.UserID, targetID); err != nil {
		writeError(w, s.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type transferRequest struct {
	ToUserID string `json:"to_user_id" validate:"required"`
}

func (s *Server) handleTransferOwnership(w http.ResponseWriter, r *http.Request) {
	teamID := r.PathValue("id")
	identity := auth.MustFromContext(r.Context())

	if _, err := s.gate.Authorize(r.Context(), identity.UserID, teamID, authz.ActionTransferOwnership); err != nil {
		writeError(w, s.logger, err)
		return
	}

	var req transferRequest
	if err := s.decodeRequest(r, &req); err != nil {
		writeError(w, s.logger, err)
		return
	}

	if err := s.teams.TransferOwnership(r.Context(), teamID, identity.UserID, req.ToUserID); err != nil {
		writeError(w, s.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type activityResponse struct {
	ID       string         `json:"id"`
	ActorID  string         `json:"actor_id"`
	Action   string         `json:"action"`
	Detail   map[string]any `json:"detail,omitempty"`
	Occurred time.Time      `json:"occurred"`
}

func (s *Server) handleTeamActivity(w http.ResponseWriter, r *http.Request) {
	teamID := r.PathValue("id")
	identity := auth.MustFromContext(r.Context())

	if _, err := s.gate.Authorize(r.Context(), identity.UserID, teamID, authz.ActionViewActivity); err != nil {
		writeError(w, s.logger, err)
		return
	}

	filter := store.ActivityFilter{}
	q := r.URL.Query()
	if v := q.Get("actor"); v != "" {
		filter.ActorID = &v
	}
	if v := q.Get("action"); v != "" {
		filter.Action = &v
	}
	if v := q.Get("since"); v != "" {
		ts, err := time.Parse(time.RFC3339, v)
		if err != nil {
			writeError(w, s.logger, errBadRequest)
			return
		}
		filter.Since = &ts
	}
	if v := q.Get("until"); v != "" {
		ts, err := time.Parse(time.RFC3339, v)
		if err != nil {
			writeError(w, s.logger, errBadRequest)
			return
		}
		filter.Until = &ts
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeError(w, s.logger, errBadRequest)
			return
		}
		filter.Limit = n
	}

	entries, err := s.recorder.List(r.Context(), teamID, filter)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}

	out := make([]activityResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, activityResponse{
			ID:       e.ID,
			ActorID:  e.ActorID,
			Action:   e.Action,
			Detail:   e.Detail,
			Occurred: e.Occurred,
		})
	}
	writeJSON(w, http.StatusOK, out)
}
