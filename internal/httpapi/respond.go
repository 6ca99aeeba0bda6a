// ABOUTME: JSON response helpers and the error-kind to HTTP-status mapping
// ABOUTME: Unknown errors become opaque 500s; details stay in the server log

package httpapi

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/Animus004/ideahub/internal/auth"
	"github.com/Animus004/ideahub/internal/authz"
	"github.com/Animus004/ideahub/internal/genai"
	"github.com/Animus004/ideahub/internal/ideas"
	"github.com/Animus004/ideahub/internal/store"
	"github.com/Animus004/ideahub/internal/team"
)

var (
	errMissingToken = errors.New("missing bearer token")
	errBadRequest   = errors.New("malformed request body")
)

type errorResponse struct {
	Error string `json:"error"`
}

// writeJSON encodes v with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps an error to its HTTP status and a safe message.
func writeError(w http.ResponseWriter, logger *slog.Logger, err error) {
	status := statusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		logger.Error("request failed", "error", err)
		msg = "internal error"
	}
	writeJSON(w, status, errorResponse{Error: msg})
}

// statusFor is the error-kind table. Everything unrecognized is a 500.
func statusFor(err error) int {
	switch {
	// 400 — the request itself is wrong
	case errors.Is(err, errBadRequest),
		errors.Is(err, auth.ErrInvalidIdentity),
		errors.Is(err, auth.ErrWeakPassword),
		errors.Is(err, team.ErrInvalidName),
		errors.Is(err, team.ErrInvalidToken),
		errors.Is(err, store.ErrInvalidRole),
		errors.Is(err, ideas.ErrNoNiches):
		return http.StatusBadRequest

	// 401 — no valid session or credentials
	case errors.Is(err, errMissingToken),
		errors.Is(err, auth.ErrInvalidCredentials),
		errors.Is(err, auth.ErrSessionExpired),
		errors.Is(err, auth.ErrSessionNotFound),
		errors.Is(err, authz.ErrUnauthenticated):
		return http.StatusUnauthorized

	// 403 — authenticated but not allowed
	case errors.Is(err, authz.ErrInsufficientRole),
		errors.Is(err, store.ErrNotAMember),
		errors.Is(err, team.ErrUnknownIdentity):
		return http.StatusForbidden

	// 404
	case errors.Is(err, store.ErrNotFound),
		errors.Is(err, store.ErrUserNotFound),
		errors.Is(err, store.ErrTeamNotFound),
		errors.Is(err, store.ErrInviteNotFound):
		return http.StatusNotFound

	// 409 — state conflicts
	case errors.Is(err, store.ErrDuplicateIdentity),
		errors.Is(err, store.ErrAlreadyMember),
		errors.Is(err, store.ErrAlreadyInvited),
		errors.Is(err, store.ErrInviteUsed),
		errors.Is(err, store.ErrInviteExpired),
		errors.Is(err, store.ErrLastOwner),
		errors.Is(err, team.ErrSelfDemotion):
		return http.StatusConflict

	// 503 — backing services unavailable
	case errors.Is(err, store.ErrStoreUnavailable),
		errors.Is(err, genai.ErrQuota),
		errors.Is(err, genai.ErrNetwork):
		return http.StatusServiceUnavailable

	default:
		var verr validator.ValidationErrors
		if errors.As(err, &verr) {
			return http.StatusBadRequest
		}
		return http.StatusInternalServerError
	}
}

// decodeRequest parses and validates a JSON request body.
func (s *Server) decodeRequest(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return errBadRequest
	}
	if err := s.validate.Struct(v); err != nil {
		return err
	}
	return nil
}
