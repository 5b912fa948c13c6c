package api

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/courtconnect/courtfinder/internal/database"
)

// contextKey is a custom type used for keys in context.Context. Using a custom
// type prevents collisions between context keys defined in different packages.
type contextKey string

// userContextKey stores the resolved current user (*database.User, possibly
// nil for anonymous requests) in the request context.
const userContextKey = contextKey("currentUser")

// withCurrentUser resolves the session cookie on every request and injects
// the current user into the request context. Anonymous requests pass through
// with a nil user; guards downstream decide what that means. This replaces
// the ambient request-global the old app kept the logged-in user on.
func (s *Server) withCurrentUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := s.sessions.TokenFromRequest(r)

		user, err := s.sessions.Resolve(s.db.DB(), token)
		if err != nil {
			// A storage failure, not an unknown token. Don't silently downgrade
			// the request to anonymous.
			log.Printf("ERROR: resolving session: %v", err)
			s.errorJSON(w, fmt.Errorf("internal server error"), http.StatusInternalServerError)
			return
		}

		ctx := context.WithValue(r.Context(), userContextKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// currentUser retrieves the resolved user from the request context.
// Returns nil for anonymous requests.
func currentUser(r *http.Request) *database.User {
	user, _ := r.Context().Value(userContextKey).(*database.User)
	return user
}

// requireLogin guards routes that need an authenticated user. Anonymous
// requests are redirected to the login page.
func (s *Server) requireLogin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if currentUser(r) == nil {
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// requireAnonymous guards the registration and login entry points. A user who
// is already logged in is sent to their own profile instead.
func (s *Server) requireAnonymous(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if user := currentUser(r); user != nil {
			http.Redirect(w, r, "/users/"+user.Username+"/user_profile", http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// requireSelf enforces the central authorization invariant: a user may only
// reach their own profile and saved-court pages. It compares the {username}
// path parameter against the current user and redirects away on mismatch,
// revealing nothing about whether the target user exists. Returns the current
// user and whether the request may proceed; on false the redirect has already
// been written.
func (s *Server) requireSelf(w http.ResponseWriter, r *http.Request, pathUsername string) (*database.User, bool) {
	user := currentUser(r)
	if user == nil {
		// Unauthenticated callers go home, never to a profile path that would
		// dereference a missing user.
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return nil, false
	}
	if user.Username != pathUsername {
		http.Redirect(w, r, "/users/"+user.Username+"/user_profile", http.StatusSeeOther)
		return nil, false
	}
	return user, true
}
