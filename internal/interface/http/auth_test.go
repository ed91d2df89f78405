package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codequest-edu/codequest-backend/internal/domain/shared"
)

// fakeSessions resolves one fixed token.
type fakeSessions struct {
	token  string
	userID string
	role   string
}

func (f *fakeSessions) Resolve(_ context.Context, token string) (string, string, error) {
	if token != f.token {
		return "", "", shared.ErrExpired
	}
	return f.userID, f.role, nil
}

func testServer(role string) *Server {
	cfg := DefaultConfig()
	cfg.RateLimitPerMinute = 0
	return NewServer(cfg, Dependencies{
		Sessions: &fakeSessions{token: "valid-token", userID: "u1", role: role},
	})
}

func echoSession(t *testing.T, captured *sessionInfo) http.HandlerFunc {
	t.Helper()
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := sessionFrom(r.Context())
		require.True(t, ok)
		*captured = sess
		w.WriteHeader(http.StatusOK)
	}
}

func TestRequireAuthMissingToken(t *testing.T) {
	s := testServer("student")
	handler := s.requireAuth(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	})

	rec := httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodGet, "/api/v1/me", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireAuthInvalidToken(t *testing.T) {
	s := testServer("student")
	handler := s.requireAuth(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/me", nil)
	req.Header.Set("Authorization", "Bearer expired-token")
	rec := httptest.NewRecorder()
	handler(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireAuthAttachesSession(t *testing.T) {
	s := testServer("student")
	var sess sessionInfo
	handler := s.requireAuth(echoSession(t, &sess))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/me", nil)
	req.Header.Set("Authorization", "Bearer valid-token")
	rec := httptest.NewRecorder()
	handler(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "u1", sess.UserID)
	assert.Equal(t, "student", string(sess.Role))
}

func TestRequireRoleRejectsStudents(t *testing.T) {
	s := testServer("student")
	handler := s.requireRole(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	}, roleCanManageLessons)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/lessons", nil)
	req.Header.Set("Authorization", "Bearer valid-token")
	rec := httptest.NewRecorder()
	handler(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRequireRoleAllowsAdmins(t *testing.T) {
	s := testServer("admin")
	var sess sessionInfo
	handler := s.requireRole(echoSession(t, &sess), roleCanManageLessons)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/lessons", nil)
	req.Header.Set("Authorization", "Bearer valid-token")
	rec := httptest.NewRecorder()
	handler(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "u1", sess.UserID)
}

func TestBearerToken(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Equal(t, "", bearerToken(req))

	req.Header.Set("Authorization", "bearer abc123")
	assert.Equal(t, "abc123", bearerToken(req), "scheme match is case-insensitive")

	req.Header.Set("Authorization", "Basic abc123")
	assert.Equal(t, "", bearerToken(req))
}

func TestGetQueryParamInt(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/leaderboard?page=3&page_size=abc", nil)

	assert.Equal(t, 3, getQueryParamInt(req, "page", 1))
	assert.Equal(t, 20, getQueryParamInt(req, "page_size", 20), "non-numeric falls back to default")
	assert.Equal(t, 20, getQueryParamInt(req, "missing", 20))
}
