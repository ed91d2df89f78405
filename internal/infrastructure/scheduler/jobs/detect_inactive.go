package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/codequest-edu/codequest-backend/internal/domain/shared"
	"github.com/codequest-edu/codequest-backend/internal/domain/user"
)

// ══════════════════════════════════════════════════════════════════════════════
// DETECT INACTIVE USERS JOB
// ══════════════════════════════════════════════════════════════════════════════

// DetectInactiveJob marks users inactive after a period without activity.
// Inactive users stop appearing in leaderboard rebuilds once their status
// flips; their XP and progress are untouched and any new submission flows
// through normally, which reactivates them on the next status sweep.
type DetectInactiveJob struct {
	userRepo  user.Repository
	publisher shared.EventPublisher
	logger    *slog.Logger
	config    DetectInactiveConfig
}

// DetectInactiveConfig contains configuration for the inactivity sweep.
type DetectInactiveConfig struct {
	// InactivityThreshold is how long a user can go without a submission
	// before being marked inactive.
	InactivityThreshold time.Duration

	// BatchLimit caps how many users one run will flip. Zero means no cap.
	BatchLimit int

	// Timeout bounds one full sweep.
	Timeout time.Duration
}

// DefaultDetectInactiveConfig returns sensible defaults.
func DefaultDetectInactiveConfig() DetectInactiveConfig {
	return DetectInactiveConfig{
		InactivityThreshold: 30 * 24 * time.Hour,
		BatchLimit:          500,
		Timeout:             time.Minute,
	}
}

// NewDetectInactiveJob creates the job.
func NewDetectInactiveJob(
	userRepo user.Repository,
	publisher shared.EventPublisher,
	logger *slog.Logger,
	config DetectInactiveConfig,
) *DetectInactiveJob {
	if logger == nil {
		logger = slog.Default()
	}
	if config.InactivityThreshold <= 0 {
		config.InactivityThreshold = DefaultDetectInactiveConfig().InactivityThreshold
	}
	if config.Timeout <= 0 {
		config.Timeout = DefaultDetectInactiveConfig().Timeout
	}
	return &DetectInactiveJob{
		userRepo:  userRepo,
		publisher: publisher,
		logger:    logger.With("job", "detect_inactive"),
		config:    config,
	}
}

// Name implements scheduler.Job.
func (j *DetectInactiveJob) Name() string {
	return "detect_inactive"
}

// Description implements scheduler.Job.
func (j *DetectInactiveJob) Description() string {
	return "Marks users inactive after a period without submissions"
}

// Run implements scheduler.Job. Each user is updated independently; one
// failed update is logged and the sweep moves on.
func (j *DetectInactiveJob) Run(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, j.config.Timeout)
	defer cancel()

	candidates, err := j.userRepo.FindInactive(ctx, j.config.InactivityThreshold)
	if err != nil {
		return fmt.Errorf("detect inactive: %w", err)
	}

	if j.config.BatchLimit > 0 && len(candidates) > j.config.BatchLimit {
		candidates = candidates[:j.config.BatchLimit]
	}

	now := time.Now().UTC()
	marked := 0
	failed := 0

	for _, u := range candidates {
		u.MarkInactive()
		if err := j.userRepo.Update(ctx, u); err != nil {
			j.logger.Warn("failed to mark user inactive", "user_id", u.ID, "error", err)
			failed++
			continue
		}
		marked++

		if j.publisher != nil {
			event := shared.NewUserInactiveEvent(u.ID, u.DaysInactive(now))
			if err := j.publisher.Publish(event); err != nil {
				j.logger.Warn("failed to publish user inactive event", "user_id", u.ID, "error", err)
			}
		}
	}

	j.logger.Info("inactivity sweep finished",
		"candidates", len(candidates),
		"marked", marked,
		"failed", failed,
	)

	return nil
}
