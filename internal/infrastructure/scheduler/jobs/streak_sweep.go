package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/codequest-edu/codequest-backend/internal/domain/progression"
	"github.com/codequest-edu/codequest-backend/internal/domain/shared"
	"github.com/codequest-edu/codequest-backend/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// STREAK SWEEP JOB
// ══════════════════════════════════════════════════════════════════════════════

// StreakSweepJob zeroes streaks that lapsed. The record path already resets
// a lapsed streak on the user's next submission; this daily sweep covers
// users who stopped submitting entirely, so their summary shows the lost
// streak instead of a stale count.
type StreakSweepJob struct {
	streakRepo progression.StreakRepository
	publisher  shared.EventPublisher
	logger     *slog.Logger
	timeout    time.Duration
}

// NewStreakSweepJob creates the job.
func NewStreakSweepJob(
	streakRepo progression.StreakRepository,
	publisher shared.EventPublisher,
	logger *slog.Logger,
	timeout time.Duration,
) *StreakSweepJob {
	if logger == nil {
		logger = slog.Default()
	}
	if timeout <= 0 {
		timeout = time.Minute
	}
	return &StreakSweepJob{
		streakRepo: streakRepo,
		publisher:  publisher,
		logger:     logger.With("job", "streak_sweep"),
		timeout:    timeout,
	}
}

// Name implements scheduler.Job.
func (j *StreakSweepJob) Name() string {
	return "streak_sweep"
}

// Description implements scheduler.Job.
func (j *StreakSweepJob) Description() string {
	return "Zeroes daily streaks that lapsed without new activity"
}

// Run implements scheduler.Job. A streak is lapsed when its last active day
// is before yesterday: activity yesterday still keeps the streak alive
// until the end of today.
func (j *StreakSweepJob) Run(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, j.timeout)
	defer cancel()

	cutoff := timeutil.StartOfDay(time.Now().UTC()).AddDate(0, 0, -1)

	lapsed, err := j.streakRepo.FindLapsed(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("streak sweep: %w", err)
	}

	swept := 0
	failed := 0

	for _, s := range lapsed {
		lost := s.Lapse()
		if err := j.streakRepo.Save(ctx, s); err != nil {
			j.logger.Warn("failed to save lapsed streak", "user_id", s.UserID, "error", err)
			failed++
			continue
		}
		swept++

		if j.publisher != nil && lost > 1 {
			event := shared.NewStreakBrokenEvent(s.UserID, lost)
			if err := j.publisher.Publish(event); err != nil {
				j.logger.Warn("failed to publish streak broken event", "user_id", s.UserID, "error", err)
			}
		}
	}

	j.logger.Info("streak sweep finished",
		"lapsed", len(lapsed),
		"swept", swept,
		"failed", failed,
	)

	return nil
}
