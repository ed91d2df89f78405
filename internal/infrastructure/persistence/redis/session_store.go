package redis

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// SESSION STORE ERRORS
// ══════════════════════════════════════════════════════════════════════════════

var (
	// ErrSessionNotFound is returned when no session exists for a token.
	ErrSessionNotFound = errors.New("session_store: session not found")

	// ErrTokenEmpty is returned when an empty token is provided.
	ErrTokenEmpty = errors.New("session_store: token cannot be empty")
)

// ══════════════════════════════════════════════════════════════════════════════
// SESSION STORE
// ══════════════════════════════════════════════════════════════════════════════

// Session is the data kept server-side for an authenticated user.
type Session struct {
	// UserID identifies the authenticated user.
	UserID string `json:"user_id"`

	// Role is the user's role at login time.
	Role string `json:"role"`

	// CreatedAt is when the session was issued.
	CreatedAt time.Time `json:"created_at"`
}

// SessionStore keeps opaque bearer tokens in Redis with a sliding TTL.
// Tokens are random and never derived from user data, so revocation is
// just a key delete.
type SessionStore struct {
	cache *Cache
	ttl   time.Duration
}

// NewSessionStore creates a SessionStore with the given session TTL.
func NewSessionStore(cache *Cache, ttl time.Duration) *SessionStore {
	if ttl <= 0 {
		ttl = TTLSessionData
	}
	return &SessionStore{cache: cache, ttl: ttl}
}

// Create issues a new session token for a user.
func (s *SessionStore) Create(ctx context.Context, userID, role string) (string, error) {
	if userID == "" {
		return "", ErrCacheNilValue
	}

	token, err := generateToken()
	if err != nil {
		return "", fmt.Errorf("failed to generate session token: %w", err)
	}

	sess := Session{
		UserID:    userID,
		Role:      role,
		CreatedAt: time.Now().UTC(),
	}

	if err := s.cache.Set(ctx, SessionKey(token), sess, s.ttl); err != nil {
		return "", err
	}

	return token, nil
}

// Get resolves a token to its session and refreshes the TTL.
// Returns ErrSessionNotFound for unknown or expired tokens.
func (s *SessionStore) Get(ctx context.Context, token string) (*Session, error) {
	if token == "" {
		return nil, ErrTokenEmpty
	}

	var sess Session
	if err := s.cache.Get(ctx, SessionKey(token), &sess); err != nil {
		if errors.Is(err, ErrCacheMiss) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}

	// Sliding expiration: activity keeps the session alive.
	_ = s.cache.Expire(ctx, SessionKey(token), s.ttl)

	return &sess, nil
}

// Resolve returns the user and role behind a token. It satisfies the HTTP
// layer's session resolver.
func (s *SessionStore) Resolve(ctx context.Context, token string) (string, string, error) {
	sess, err := s.Get(ctx, token)
	if err != nil {
		return "", "", err
	}
	return sess.UserID, sess.Role, nil
}

// Revoke deletes a session token. Revoking an unknown token is a no-op.
func (s *SessionStore) Revoke(ctx context.Context, token string) error {
	if token == "" {
		return ErrTokenEmpty
	}
	return s.cache.Delete(ctx, SessionKey(token))
}

// RevokeAll deletes every session (used when rotating credentials).
func (s *SessionStore) RevokeAll(ctx context.Context) error {
	return s.cache.DeleteByPattern(ctx, PrefixSession+"*")
}

// generateToken returns a 256-bit random hex token.
func generateToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
