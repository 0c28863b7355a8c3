package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/anstrom/filecrate/internal/apierr"
	"github.com/anstrom/filecrate/internal/model"
)

type contextKey string

const contextKeyUser contextKey = "user"

// requireOwner resolves the bearer token to an account and stores it in the
// request context. Every owner-scoped handler reads the account from there;
// there is no other identity check downstream.
func (s *Server) requireOwner(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			writeErr(w, apierr.Unauthorized("missing bearer token"))
			return
		}
		userID, err := s.tokens.Verify(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			writeErr(w, err)
			return
		}
		user, err := s.users.GetByID(r.Context(), userID)
		if err != nil {
			// The token outlived the account; treat it like any bad credential.
			writeErr(w, apierr.Unauthorized("invalid or expired session"))
			return
		}
		ctx := context.WithValue(r.Context(), contextKeyUser, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// currentUser returns the authenticated account stored by requireOwner.
func currentUser(r *http.Request) *model.User {
	user, _ := r.Context().Value(contextKeyUser).(*model.User)
	return user
}
