package query

import (
	"context"
	"time"

	"github.com/codequest-edu/codequest-backend/internal/domain/progression"
	"github.com/codequest-edu/codequest-backend/internal/domain/shared"
	"github.com/codequest-edu/codequest-backend/internal/domain/user"
	redisstore "github.com/codequest-edu/codequest-backend/internal/infrastructure/persistence/redis"
	"github.com/codequest-edu/codequest-backend/pkg/circuitbreaker"
	"github.com/codequest-edu/codequest-backend/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET LEADERBOARD QUERY
// Cache-first: Redis sorted sets serve the hot path; PostgreSQL is the
// fallback behind a circuit breaker so a degraded cache cannot stall reads.
// ══════════════════════════════════════════════════════════════════════════════

// GetLeaderboardQuery contains the leaderboard request parameters.
type GetLeaderboardQuery struct {
	// Grade filters to one K-12 grade (nil = global leaderboard).
	Grade *int

	// Page is 1-based.
	Page int

	// PageSize is the number of entries per page.
	PageSize int
}

// LeaderboardEntryDTO is one leaderboard row.
type LeaderboardEntryDTO struct {
	Rank        int64  `json:"rank"`
	UserID      string `json:"user_id"`
	DisplayName string `json:"display_name"`
	XP          int64  `json:"xp"`
	Level       int    `json:"level"`
	GradeLevel  string `json:"grade_level,omitempty"`
}

// GetLeaderboardResult contains one leaderboard page.
type GetLeaderboardResult struct {
	Entries     []LeaderboardEntryDTO `json:"entries"`
	TotalCount  int64                 `json:"total_count"`
	Page        int                   `json:"page"`
	PageSize    int                   `json:"page_size"`
	TotalPages  int                   `json:"total_pages"`
	HasNext     bool                  `json:"has_next"`
	HasPrev     bool                  `json:"has_prev"`
	Scope       string                `json:"scope"`
	FromCache   bool                  `json:"-"`
	GeneratedAt time.Time             `json:"generated_at"`
}

// GetLeaderboardHandlerConfig bounds page parameters.
type GetLeaderboardHandlerConfig struct {
	DefaultPageSize int
	MaxPageSize     int
}

// GetLeaderboardHandler handles leaderboard queries.
type GetLeaderboardHandler struct {
	userRepo user.Repository
	cache    *redisstore.LeaderboardCache
	breaker  *circuitbreaker.Breaker
	config   GetLeaderboardHandlerConfig
	logger   *logger.Logger
}

// NewGetLeaderboardHandler creates a new GetLeaderboardHandler.
func NewGetLeaderboardHandler(
	userRepo user.Repository,
	cache *redisstore.LeaderboardCache,
	breaker *circuitbreaker.Breaker,
	config GetLeaderboardHandlerConfig,
	log *logger.Logger,
) *GetLeaderboardHandler {
	if config.DefaultPageSize <= 0 {
		config.DefaultPageSize = 20
	}
	if config.MaxPageSize <= 0 {
		config.MaxPageSize = 100
	}
	if log == nil {
		log = logger.Default()
	}
	return &GetLeaderboardHandler{
		userRepo: userRepo,
		cache:    cache,
		breaker:  breaker,
		config:   config,
		logger:   log.With(logger.Component("get_leaderboard")),
	}
}

// Handle returns one leaderboard page. The cache path runs inside the
// circuit breaker; on any cache failure (or an open circuit) the query
// falls back to the database, which is authoritative.
func (h *GetLeaderboardHandler) Handle(ctx context.Context, query GetLeaderboardQuery) (*GetLeaderboardResult, error) {
	if err := h.normalize(&query); err != nil {
		return nil, err
	}

	scope := redisstore.ScopeAll
	if query.Grade != nil {
		scope = redisstore.GradeScope(*query.Grade)
	}

	if h.cache != nil {
		if result, err := h.fromCache(ctx, query, scope); err == nil {
			return result, nil
		}
	}

	return h.fromDatabase(ctx, query, scope)
}

func (h *GetLeaderboardHandler) normalize(query *GetLeaderboardQuery) error {
	if query.Page <= 0 {
		query.Page = 1
	}
	if query.PageSize <= 0 {
		query.PageSize = h.config.DefaultPageSize
	}
	if query.PageSize > h.config.MaxPageSize {
		query.PageSize = h.config.MaxPageSize
	}
	if query.Grade != nil && !shared.GradeLevel(*query.Grade).IsValid() {
		return shared.NewDomainError("query", "GetLeaderboard", shared.ErrValueOutOfRange, "grade level out of range")
	}
	return nil
}

func (h *GetLeaderboardHandler) fromCache(ctx context.Context, query GetLeaderboardQuery, scope string) (*GetLeaderboardResult, error) {
	var page *redisstore.LeaderboardPage

	err := h.breaker.Execute(ctx, func(ctx context.Context) error {
		var err error
		page, err = h.cache.GetPage(ctx, query.Page, query.PageSize, scope)
		return err
	})
	if err != nil {
		h.logger.Debug("leaderboard cache miss", logger.String("scope", scope), logger.Err(err))
		return nil, err
	}

	entries := make([]LeaderboardEntryDTO, 0, len(page.Entries))
	for _, e := range page.Entries {
		entries = append(entries, LeaderboardEntryDTO{
			Rank:        e.Rank,
			UserID:      e.UserID,
			DisplayName: e.DisplayName,
			XP:          e.XP,
			Level:       e.Level,
			GradeLevel:  e.GradeLevel,
		})
	}

	return &GetLeaderboardResult{
		Entries:     entries,
		TotalCount:  page.TotalCount,
		Page:        page.Page,
		PageSize:    page.PageSize,
		TotalPages:  page.TotalPages,
		HasNext:     page.HasNext,
		HasPrev:     page.HasPrev,
		Scope:       scope,
		FromCache:   true,
		GeneratedAt: time.Now().UTC(),
	}, nil
}

func (h *GetLeaderboardHandler) fromDatabase(ctx context.Context, query GetLeaderboardQuery, scope string) (*GetLeaderboardResult, error) {
	var grade *shared.GradeLevel
	if query.Grade != nil {
		g := shared.GradeLevel(*query.Grade)
		grade = &g
	}

	users, err := h.userRepo.TopByXP(ctx, grade, user.ListOptions{
		Limit:  query.PageSize,
		Offset: (query.Page - 1) * query.PageSize,
	})
	if err != nil {
		return nil, err
	}

	entries := make([]LeaderboardEntryDTO, 0, len(users))
	baseRank := int64((query.Page-1)*query.PageSize) + 1
	for i, u := range users {
		entries = append(entries, LeaderboardEntryDTO{
			Rank:        baseRank + int64(i),
			UserID:      u.ID,
			DisplayName: u.DisplayName,
			XP:          int64(u.XPTotal),
			Level:       progression.LevelFromXP(u.XPTotal),
			GradeLevel:  u.GradeLevel.String(),
		})
	}

	// Total count is approximated from the page shape on the fallback
	// path; the exact figure returns with the cache.
	totalCount := int64((query.Page-1)*query.PageSize + len(users))
	hasNext := len(users) == query.PageSize
	totalPages := query.Page
	if hasNext {
		totalPages++
	}

	return &GetLeaderboardResult{
		Entries:     entries,
		TotalCount:  totalCount,
		Page:        query.Page,
		PageSize:    query.PageSize,
		TotalPages:  totalPages,
		HasNext:     hasNext,
		HasPrev:     query.Page > 1,
		Scope:       scope,
		GeneratedAt: time.Now().UTC(),
	}, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// GET RANK QUERY
// ══════════════════════════════════════════════════════════════════════════════

// GetRankHandler returns a single user's leaderboard position.
type GetRankHandler struct {
	userRepo user.Repository
	cache    *redisstore.LeaderboardCache
	breaker  *circuitbreaker.Breaker
}

// NewGetRankHandler creates a new GetRankHandler.
func NewGetRankHandler(userRepo user.Repository, cache *redisstore.LeaderboardCache, breaker *circuitbreaker.Breaker) *GetRankHandler {
	return &GetRankHandler{userRepo: userRepo, cache: cache, breaker: breaker}
}

// RankDTO is a user's position on one leaderboard scope.
type RankDTO struct {
	UserID string `json:"user_id"`
	Scope  string `json:"scope"`
	Rank   int64  `json:"rank"`
	XP     int64  `json:"xp"`
}

// Handle resolves the rank from the cache. When the cache is unavailable
// or the user is not cached yet, the rank reports as 0 (unranked) rather
// than failing the request.
func (h *GetRankHandler) Handle(ctx context.Context, userID string, grade *int) (*RankDTO, error) {
	if userID == "" {
		return nil, shared.NewDomainError("query", "GetRank", shared.ErrEmptyValue, "user_id is required")
	}

	u, err := h.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	scope := redisstore.ScopeAll
	if grade != nil {
		scope = redisstore.GradeScope(*grade)
	}

	dto := &RankDTO{
		UserID: userID,
		Scope:  scope,
		XP:     int64(u.XPTotal),
	}

	if h.cache == nil {
		return dto, nil
	}

	_ = h.breaker.Execute(ctx, func(ctx context.Context) error {
		rank, err := h.cache.GetRank(ctx, userID, scope)
		if err != nil {
			return err
		}
		dto.Rank = rank
		return nil
	})

	return dto, nil
}
