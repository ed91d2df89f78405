// Package jobs contains the scheduled background jobs.
package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/codequest-edu/codequest-backend/internal/domain/shared"
	"github.com/codequest-edu/codequest-backend/internal/domain/user"
	redisstore "github.com/codequest-edu/codequest-backend/internal/infrastructure/persistence/redis"
)

// ══════════════════════════════════════════════════════════════════════════════
// REBUILD LEADERBOARD JOB
// ══════════════════════════════════════════════════════════════════════════════

// RebuildLeaderboardJob rebuilds the cached leaderboards from the database.
// The incremental cache updates on XP gain keep the cache mostly fresh; this
// job is the consistency backstop that repairs drift and repopulates the
// cache after a Redis flush or an expired TTL.
type RebuildLeaderboardJob struct {
	userRepo  user.Repository
	cache     *redisstore.LeaderboardCache
	publisher shared.EventPublisher
	logger    *slog.Logger
	config    RebuildLeaderboardConfig

	lastStats atomic.Value // *RebuildStats
}

// RebuildLeaderboardConfig contains configuration for the rebuild job.
type RebuildLeaderboardConfig struct {
	// MaxEntries is the number of rows loaded per scope.
	MaxEntries int

	// RankChangeTopN limits rank-change detection to the global top N.
	// Zero disables rank-change events.
	RankChangeTopN int

	// Timeout bounds one full rebuild across all scopes.
	Timeout time.Duration
}

// DefaultRebuildLeaderboardConfig returns sensible defaults.
func DefaultRebuildLeaderboardConfig() RebuildLeaderboardConfig {
	return RebuildLeaderboardConfig{
		MaxEntries:     1000,
		RankChangeTopN: 100,
		Timeout:        2 * time.Minute,
	}
}

// RebuildStats summarizes one rebuild run.
type RebuildStats struct {
	StartedAt       time.Time
	Duration        time.Duration
	ScopesRebuilt   int
	EntriesWritten  int
	RankChanges     int
	ScopeFailures   int
}

// NewRebuildLeaderboardJob creates the job.
func NewRebuildLeaderboardJob(
	userRepo user.Repository,
	cache *redisstore.LeaderboardCache,
	publisher shared.EventPublisher,
	logger *slog.Logger,
	config RebuildLeaderboardConfig,
) *RebuildLeaderboardJob {
	if logger == nil {
		logger = slog.Default()
	}
	if config.MaxEntries <= 0 {
		config.MaxEntries = DefaultRebuildLeaderboardConfig().MaxEntries
	}
	if config.Timeout <= 0 {
		config.Timeout = DefaultRebuildLeaderboardConfig().Timeout
	}
	return &RebuildLeaderboardJob{
		userRepo:  userRepo,
		cache:     cache,
		publisher: publisher,
		logger:    logger.With("job", "rebuild_leaderboard"),
		config:    config,
	}
}

// Name implements scheduler.Job.
func (j *RebuildLeaderboardJob) Name() string {
	return "rebuild_leaderboard"
}

// Description implements scheduler.Job.
func (j *RebuildLeaderboardJob) Description() string {
	return "Rebuilds the cached XP leaderboards (global and per grade) from the database"
}

// Run implements scheduler.Job. It rebuilds the global scope first, then
// each grade scope. A failed scope is logged and skipped so one bad scope
// cannot leave the others stale.
func (j *RebuildLeaderboardJob) Run(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, j.config.Timeout)
	defer cancel()

	stats := &RebuildStats{StartedAt: time.Now().UTC()}

	previousRanks := j.snapshotRanks(ctx)

	written, err := j.rebuildScope(ctx, nil, redisstore.ScopeAll)
	if err != nil {
		// Without the global scope the run is a failure; grade scopes
		// are still attempted below.
		j.logger.Error("global scope rebuild failed", "error", err)
		stats.ScopeFailures++
	} else {
		stats.ScopesRebuilt++
		stats.EntriesWritten += written
	}

	for grade := 0; grade <= 12; grade++ {
		g := shared.GradeLevel(grade)
		n, gradeErr := j.rebuildScope(ctx, &g, redisstore.GradeScope(grade))
		if gradeErr != nil {
			j.logger.Error("grade scope rebuild failed", "grade", grade, "error", gradeErr)
			stats.ScopeFailures++
			continue
		}
		stats.ScopesRebuilt++
		stats.EntriesWritten += n
	}

	if err == nil {
		stats.RankChanges = j.publishRankChanges(ctx, previousRanks)
	}

	stats.Duration = time.Since(stats.StartedAt)
	j.lastStats.Store(stats)

	j.logger.Info("leaderboard rebuild finished",
		"scopes", stats.ScopesRebuilt,
		"entries", stats.EntriesWritten,
		"rank_changes", stats.RankChanges,
		"failures", stats.ScopeFailures,
		"duration", stats.Duration.String(),
	)

	if err != nil {
		return fmt.Errorf("rebuild leaderboard: %w", err)
	}
	return nil
}

// LastStats returns the stats from the most recent run, or nil.
func (j *RebuildLeaderboardJob) LastStats() *RebuildStats {
	v, _ := j.lastStats.Load().(*RebuildStats)
	return v
}

func (j *RebuildLeaderboardJob) rebuildScope(ctx context.Context, grade *shared.GradeLevel, scope string) (int, error) {
	users, err := j.userRepo.TopByXP(ctx, grade, user.ListOptions{
		Limit:     j.config.MaxEntries,
		OrderByXP: true,
	})
	if err != nil {
		return 0, fmt.Errorf("load users for scope %s: %w", scope, err)
	}

	entries := make([]redisstore.LeaderboardEntry, 0, len(users))
	for _, u := range users {
		entries = append(entries, redisstore.LeaderboardEntry{
			UserID:      u.ID,
			DisplayName: u.DisplayName,
			XP:          int64(u.XPTotal),
			Level:       u.Level,
			GradeLevel:  u.GradeLevel.String(),
		})
	}

	if err := j.cache.RebuildFromSnapshot(ctx, entries, scope); err != nil {
		return 0, fmt.Errorf("write scope %s: %w", scope, err)
	}

	return len(entries), nil
}

// snapshotRanks captures the global top-N ranks before the rebuild so rank
// movement can be detected afterwards. A cold or unreachable cache yields an
// empty map and the run simply reports no changes.
func (j *RebuildLeaderboardJob) snapshotRanks(ctx context.Context) map[string]int64 {
	ranks := make(map[string]int64)
	if j.config.RankChangeTopN <= 0 {
		return ranks
	}

	entries, err := j.cache.GetTop(ctx, j.config.RankChangeTopN, redisstore.ScopeAll)
	if err != nil {
		return ranks
	}
	for _, e := range entries {
		ranks[e.UserID] = e.Rank
	}
	return ranks
}

func (j *RebuildLeaderboardJob) publishRankChanges(ctx context.Context, previous map[string]int64) int {
	if j.publisher == nil || j.config.RankChangeTopN <= 0 || len(previous) == 0 {
		return 0
	}

	entries, err := j.cache.GetTop(ctx, j.config.RankChangeTopN, redisstore.ScopeAll)
	if err != nil {
		j.logger.Warn("rank change detection skipped", "error", err)
		return 0
	}

	changes := 0
	for _, e := range entries {
		oldRank, seen := previous[e.UserID]
		if !seen || oldRank == e.Rank {
			continue
		}
		event := shared.NewRankChangedEvent(e.UserID, int(oldRank), int(e.Rank))
		if err := j.publisher.Publish(event); err != nil {
			j.logger.Warn("failed to publish rank change", "user_id", e.UserID, "error", err)
			continue
		}
		changes++
	}
	return changes
}
