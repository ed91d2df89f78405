package http

import (
	"context"
	"net/http"
	"strings"

	"github.com/codequest-edu/codequest-backend/internal/domain/user"
)

// ══════════════════════════════════════════════════════════════════════════════
// AUTH MIDDLEWARE
// Opaque bearer tokens resolved against the Redis session store. Role
// checks use the role captured at login time.
// ══════════════════════════════════════════════════════════════════════════════

// sessionInfo is the authenticated caller attached to the request context.
type sessionInfo struct {
	UserID string
	Role   user.Role
}

// rolePredicate gates an endpoint on the caller's role.
type rolePredicate func(user.Role) bool

var (
	roleCanManageLessons rolePredicate = user.Role.CanManageLessons
	roleCanManageUsers   rolePredicate = user.Role.CanManageUsers
)

// requireAuth resolves the bearer token and attaches the session to the
// request context. Missing or invalid tokens get 401.
func (s *Server) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			writeJSONError(w, http.StatusUnauthorized, "unauthorized", "Missing bearer token")
			return
		}

		userID, role, err := s.deps.Sessions.Resolve(r.Context(), token)
		if err != nil {
			writeJSONError(w, http.StatusUnauthorized, "unauthorized", "Invalid or expired session")
			return
		}

		sess := sessionInfo{UserID: userID, Role: user.Role(role)}
		ctx := context.WithValue(r.Context(), contextKeySession, sess)
		next(w, r.WithContext(ctx))
	}
}

// requireRole is requireAuth plus a role gate. Authenticated callers
// without the role get 403.
func (s *Server) requireRole(next http.HandlerFunc, allowed rolePredicate) http.HandlerFunc {
	return s.requireAuth(func(w http.ResponseWriter, r *http.Request) {
		sess, ok := sessionFrom(r.Context())
		if !ok || !allowed(sess.Role) {
			writeJSONError(w, http.StatusForbidden, "forbidden", "Insufficient permissions")
			return
		}
		next(w, r)
	})
}

// sessionFrom extracts the session from the request context.
func sessionFrom(ctx context.Context) (sessionInfo, bool) {
	sess, ok := ctx.Value(contextKeySession).(sessionInfo)
	return sess, ok
}

// bearerToken extracts the token from the Authorization header.
func bearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(auth) > len(prefix) && strings.EqualFold(auth[:len(prefix)], prefix) {
		return strings.TrimSpace(auth[len(prefix):])
	}
	return ""
}
