package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ══════════════════════════════════════════════════════════════════════════════
// LEADERBOARD CACHE ERRORS
// ══════════════════════════════════════════════════════════════════════════════

var (
	// ErrLeaderboardEmpty is returned when the cached leaderboard has no entries.
	ErrLeaderboardEmpty = errors.New("leaderboard_cache: leaderboard is empty")

	// ErrUserNotInLeaderboard is returned when the user is not in the cache.
	ErrUserNotInLeaderboard = errors.New("leaderboard_cache: user not in leaderboard")

	// ErrUserIDEmpty is returned when an empty user ID is provided.
	ErrUserIDEmpty = errors.New("leaderboard_cache: user id cannot be empty")

	// ErrInvalidPageParams is returned when invalid pagination parameters are provided.
	ErrInvalidPageParams = errors.New("leaderboard_cache: invalid page parameters")
)

// ══════════════════════════════════════════════════════════════════════════════
// LEADERBOARD ENTRY STRUCTURE
// ══════════════════════════════════════════════════════════════════════════════

// LeaderboardEntry represents a single entry in the cached leaderboard.
type LeaderboardEntry struct {
	// UserID is the unique identifier of the user.
	UserID string `json:"user_id"`

	// DisplayName is the user's display name.
	DisplayName string `json:"display_name"`

	// XP is the user's lifetime XP.
	XP int64 `json:"xp"`

	// Level is the level derived from XP.
	Level int `json:"level"`

	// Rank is the position in the leaderboard (1-based).
	Rank int64 `json:"rank"`

	// GradeLevel is the user's K-12 grade as shown on the board.
	GradeLevel string `json:"grade_level,omitempty"`

	// LessonsCompleted is the user's completed-lesson count.
	LessonsCompleted int `json:"lessons_completed"`
}

// LeaderboardPage represents a page of leaderboard entries.
type LeaderboardPage struct {
	Entries    []LeaderboardEntry `json:"entries"`
	TotalCount int64              `json:"total_count"`
	Page       int                `json:"page"`
	PageSize   int                `json:"page_size"`
	TotalPages int                `json:"total_pages"`
	HasNext    bool               `json:"has_next"`
	HasPrev    bool               `json:"has_prev"`
}

// ══════════════════════════════════════════════════════════════════════════════
// LEADERBOARD CACHE
// ══════════════════════════════════════════════════════════════════════════════

// LeaderboardCache provides fast leaderboard reads using Redis Sorted Sets.
//
// Architecture:
//   - Sorted Set "leaderboard:xp:{scope}" stores userID -> XP mapping
//   - Hash "leaderboard:info:{scope}" stores userID -> LeaderboardEntry JSON
//   - String "leaderboard:meta:{scope}" stores rebuild metadata
//
// A scope is either "all" or "grade:{n}". Rank lookups are O(log N) and
// range queries O(log N + M). PostgreSQL remains the source of truth; the
// cache is rebuilt periodically and patched on XP changes.
type LeaderboardCache struct {
	cache *Cache
}

// Key patterns for leaderboard cache.
const (
	// keyLeaderboardXP is the sorted set for XP rankings.
	keyLeaderboardXP = "leaderboard:xp:"

	// keyLeaderboardInfo is the hash for entry details.
	keyLeaderboardInfo = "leaderboard:info:"

	// keyLeaderboardMeta is the metadata key.
	keyLeaderboardMeta = "leaderboard:meta:"

	// ScopeAll is the global leaderboard scope.
	ScopeAll = "all"
)

// GradeScope returns the per-grade leaderboard scope.
func GradeScope(grade int) string {
	return fmt.Sprintf("grade:%d", grade)
}

// LeaderboardMeta contains metadata about a cached leaderboard scope.
type LeaderboardMeta struct {
	LastUpdatedAt time.Time `json:"last_updated_at"`
	TotalUsers    int64     `json:"total_users"`
	TotalXP       int64     `json:"total_xp"`
	AverageXP     float64   `json:"average_xp"`
	Scope         string    `json:"scope"`
}

// NewLeaderboardCache creates a new LeaderboardCache instance.
func NewLeaderboardCache(cache *Cache) *LeaderboardCache {
	return &LeaderboardCache{cache: cache}
}

// ══════════════════════════════════════════════════════════════════════════════
// WRITE OPERATIONS
// ══════════════════════════════════════════════════════════════════════════════

// RebuildFromSnapshot rebuilds a scope from a full snapshot.
// This clears existing data and replaces it with the snapshot.
func (l *LeaderboardCache) RebuildFromSnapshot(ctx context.Context, entries []LeaderboardEntry, scope string) error {
	if scope == "" {
		scope = ScopeAll
	}

	xpKey := keyLeaderboardXP + scope
	infoKey := keyLeaderboardInfo + scope

	pipe := l.cache.Client().TxPipeline()

	pipe.Del(ctx, xpKey, infoKey)

	if len(entries) == 0 {
		_, err := pipe.Exec(ctx)
		return err
	}

	zMembers := make([]redis.Z, 0, len(entries))
	hashData := make(map[string]interface{}, len(entries))
	var totalXP int64

	for _, entry := range entries {
		if entry.UserID == "" {
			continue
		}

		zMembers = append(zMembers, redis.Z{
			Score:  float64(entry.XP),
			Member: entry.UserID,
		})

		data, _ := json.Marshal(entry)
		hashData[entry.UserID] = data
		totalXP += entry.XP
	}

	if len(zMembers) > 0 {
		pipe.ZAdd(ctx, xpKey, zMembers...)
	}
	if len(hashData) > 0 {
		pipe.HSet(ctx, infoKey, hashData)
	}

	meta := LeaderboardMeta{
		LastUpdatedAt: time.Now().UTC(),
		TotalUsers:    int64(len(entries)),
		TotalXP:       totalXP,
		AverageXP:     float64(totalXP) / float64(len(entries)),
		Scope:         scope,
	}
	metaData, _ := json.Marshal(meta)
	pipe.Set(ctx, keyLeaderboardMeta+scope, metaData, TTLLeaderboardCache)

	pipe.Expire(ctx, xpKey, TTLLeaderboardCache)
	pipe.Expire(ctx, infoKey, TTLLeaderboardCache)

	_, err := pipe.Exec(ctx)
	return err
}

// UpdateEntry updates or adds a single entry in a scope.
// This is an O(log N) operation.
func (l *LeaderboardCache) UpdateEntry(ctx context.Context, entry LeaderboardEntry, scope string) error {
	if entry.UserID == "" {
		return ErrUserIDEmpty
	}
	if scope == "" {
		scope = ScopeAll
	}

	pipe := l.cache.Client().Pipeline()

	xpKey := keyLeaderboardXP + scope
	pipe.ZAdd(ctx, xpKey, redis.Z{
		Score:  float64(entry.XP),
		Member: entry.UserID,
	})

	infoKey := keyLeaderboardInfo + scope
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal entry: %w", err)
	}
	pipe.HSet(ctx, infoKey, entry.UserID, data)

	pipe.Expire(ctx, xpKey, TTLLeaderboardCache)
	pipe.Expire(ctx, infoKey, TTLLeaderboardCache)

	_, err = pipe.Exec(ctx)
	return err
}

// UpdateXP updates only the XP score for a user (fast path after a
// submission; the full entry refreshes on the next rebuild).
func (l *LeaderboardCache) UpdateXP(ctx context.Context, userID string, newXP int64, scope string) error {
	if userID == "" {
		return ErrUserIDEmpty
	}
	if scope == "" {
		scope = ScopeAll
	}

	xpKey := keyLeaderboardXP + scope
	return l.cache.Client().ZAdd(ctx, xpKey, redis.Z{
		Score:  float64(newXP),
		Member: userID,
	}).Err()
}

// RemoveEntry removes a user from a scope.
func (l *LeaderboardCache) RemoveEntry(ctx context.Context, userID string, scope string) error {
	if userID == "" {
		return ErrUserIDEmpty
	}
	if scope == "" {
		scope = ScopeAll
	}

	pipe := l.cache.Client().Pipeline()

	pipe.ZRem(ctx, keyLeaderboardXP+scope, userID)
	pipe.HDel(ctx, keyLeaderboardInfo+scope, userID)

	_, err := pipe.Exec(ctx)
	return err
}

// ══════════════════════════════════════════════════════════════════════════════
// READ OPERATIONS
// ══════════════════════════════════════════════════════════════════════════════

// GetTop returns the top N entries from a scope.
func (l *LeaderboardCache) GetTop(ctx context.Context, count int, scope string) ([]LeaderboardEntry, error) {
	if count <= 0 {
		return nil, ErrInvalidPageParams
	}
	if scope == "" {
		scope = ScopeAll
	}

	xpKey := keyLeaderboardXP + scope

	userIDs, err := l.cache.Client().ZRevRange(ctx, xpKey, 0, int64(count-1)).Result()
	if err != nil {
		return nil, err
	}

	if len(userIDs) == 0 {
		return []LeaderboardEntry{}, nil
	}

	return l.getEntriesWithRanks(ctx, userIDs, scope)
}

// GetPage returns a paginated view of a scope. Page numbers start at 1.
// Returns ErrLeaderboardEmpty when the scope holds no data, so callers can
// fall back to the database.
func (l *LeaderboardCache) GetPage(ctx context.Context, page, pageSize int, scope string) (*LeaderboardPage, error) {
	if page < 1 || pageSize < 1 {
		return nil, ErrInvalidPageParams
	}
	if scope == "" {
		scope = ScopeAll
	}

	xpKey := keyLeaderboardXP + scope

	totalCount, err := l.cache.Client().ZCard(ctx, xpKey).Result()
	if err != nil {
		return nil, err
	}
	if totalCount == 0 {
		return nil, ErrLeaderboardEmpty
	}

	totalPages := int((totalCount + int64(pageSize) - 1) / int64(pageSize))

	start := int64((page - 1) * pageSize)
	end := start + int64(pageSize) - 1

	userIDs, err := l.cache.Client().ZRevRange(ctx, xpKey, start, end).Result()
	if err != nil {
		return nil, err
	}

	entries, err := l.getEntriesWithRanks(ctx, userIDs, scope)
	if err != nil {
		return nil, err
	}

	return &LeaderboardPage{
		Entries:    entries,
		TotalCount: totalCount,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
		HasNext:    page < totalPages,
		HasPrev:    page > 1,
	}, nil
}

// GetRank returns the rank (1-based) of a user in a scope.
// Returns ErrUserNotInLeaderboard if the user is not cached.
func (l *LeaderboardCache) GetRank(ctx context.Context, userID string, scope string) (int64, error) {
	if userID == "" {
		return 0, ErrUserIDEmpty
	}
	if scope == "" {
		scope = ScopeAll
	}

	rank, err := l.cache.Client().ZRevRank(ctx, keyLeaderboardXP+scope, userID).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, ErrUserNotInLeaderboard
		}
		return 0, err
	}

	return rank + 1, nil
}

// GetMeta returns the rebuild metadata for a scope.
func (l *LeaderboardCache) GetMeta(ctx context.Context, scope string) (*LeaderboardMeta, error) {
	if scope == "" {
		scope = ScopeAll
	}

	var meta LeaderboardMeta
	if err := l.cache.Get(ctx, keyLeaderboardMeta+scope, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Internal helpers
// ─────────────────────────────────────────────────────────────────────────────

// getEntriesWithRanks resolves entry payloads from the info hash and fills
// in 1-based ranks from the sorted set.
func (l *LeaderboardCache) getEntriesWithRanks(ctx context.Context, userIDs []string, scope string) ([]LeaderboardEntry, error) {
	if len(userIDs) == 0 {
		return []LeaderboardEntry{}, nil
	}

	infoKey := keyLeaderboardInfo + scope
	values, err := l.cache.Client().HMGet(ctx, infoKey, userIDs...).Result()
	if err != nil {
		return nil, err
	}

	xpKey := keyLeaderboardXP + scope
	entries := make([]LeaderboardEntry, 0, len(userIDs))

	for i, val := range values {
		var entry LeaderboardEntry

		if s, ok := val.(string); ok && s != "" {
			if err := json.Unmarshal([]byte(s), &entry); err != nil {
				entry = LeaderboardEntry{UserID: userIDs[i]}
			}
		} else {
			// Score exists without details; degrade to a bare entry.
			entry = LeaderboardEntry{UserID: userIDs[i]}
			if score, err := l.cache.Client().ZScore(ctx, xpKey, userIDs[i]).Result(); err == nil {
				entry.XP = int64(score)
			}
		}

		rank, err := l.cache.Client().ZRevRank(ctx, xpKey, userIDs[i]).Result()
		if err == nil {
			entry.Rank = rank + 1
		}

		entries = append(entries, entry)
	}

	return entries, nil
}
