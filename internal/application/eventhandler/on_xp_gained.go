package eventhandler

import (
	"context"
	"time"

	"github.com/codequest-edu/codequest-backend/internal/domain/shared"
	"github.com/codequest-edu/codequest-backend/internal/domain/user"
	redisstore "github.com/codequest-edu/codequest-backend/internal/infrastructure/persistence/redis"
	"github.com/codequest-edu/codequest-backend/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// ON XP GAINED
// Patches the cached leaderboards when a user's XP moves. The periodic
// rebuild job remains the consistency backstop; this handler just keeps
// the cache fresh between rebuilds.
// ══════════════════════════════════════════════════════════════════════════════

// OnXPGained updates the leaderboard cache entries for a user.
type OnXPGained struct {
	userRepo user.Repository
	cache    *redisstore.LeaderboardCache
	timeout  time.Duration
	logger   *logger.Logger
}

// NewOnXPGained creates the handler.
func NewOnXPGained(userRepo user.Repository, cache *redisstore.LeaderboardCache, log *logger.Logger) *OnXPGained {
	if log == nil {
		log = logger.Default()
	}
	return &OnXPGained{
		userRepo: userRepo,
		cache:    cache,
		timeout:  10 * time.Second,
		logger:   log.With(logger.Component("on_xp_gained")),
	}
}

// Name implements shared.EventHandler.
func (h *OnXPGained) Name() string {
	return "leaderboard_cache_update"
}

// Handle implements shared.EventHandler.
func (h *OnXPGained) Handle(event shared.Event) error {
	if event.EventType() != shared.EventXPGained {
		return nil
	}

	userID := event.AggregateID()
	if userID == "" {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.timeout)
	defer cancel()

	u, err := h.userRepo.GetByID(ctx, userID)
	if err != nil {
		return err
	}

	// Only students appear on leaderboards.
	if !u.IsStudent() {
		return nil
	}

	entry := redisstore.LeaderboardEntry{
		UserID:      u.ID,
		DisplayName: u.DisplayName,
		XP:          int64(u.XPTotal),
		Level:       u.Level,
		GradeLevel:  u.GradeLevel.String(),
	}

	if err := h.cache.UpdateEntry(ctx, entry, redisstore.ScopeAll); err != nil {
		return err
	}
	if err := h.cache.UpdateEntry(ctx, entry, redisstore.GradeScope(int(u.GradeLevel))); err != nil {
		return err
	}

	return nil
}
