// ABOUTME: Bearer-token session middleware resolving requests to an Identity
// ABOUTME: Expired and unknown tokens both end the request with 401

package httpapi

import (
	"net/http"
	"strings"

	"github.com/Animus004/ideahub/internal/auth"
)

// requireAuth validates the bearer token and attaches the Identity to the
// request context before calling the handler.
func (s *Server) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			writeError(w, s.logger, errMissingToken)
			return
		}

		session, err := s.sessions.Validate(r.Context(), token)
		if err != nil {
			writeError(w, s.logger, err)
			return
		}

		identity := &auth.Identity{UserID: session.UserID, Token: token}
		if user, err := s.store.GetUser(r.Context(), session.UserID); err == nil {
			identity.Username = user.Username
		}

		next(w, r.WithContext(auth.WithIdentity(r.Context(), identity)))
	}
}

// bearerToken extracts a token from the Authorization header.
func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}
