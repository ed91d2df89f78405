package progression

import (
	"context"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// REPOSITORY INTERFACES
// Implementations live in infrastructure/persistence. The two Record/Award
// operations are the write paths of the progression engine and carry its
// atomicity guarantees.
// ══════════════════════════════════════════════════════════════════════════════

// SubmissionOutcome is the result of atomically recording one submission.
type SubmissionOutcome struct {
	// Progress - the record after the submission was applied.
	Progress *Progress

	// XPEarned - XP delta from this submission (0 for idempotent repeats).
	XPEarned int

	// OldXP / NewXP - the user's XP totals around the update.
	OldXP int
	NewXP int

	// OldLevel / NewLevel - the user's derived levels around the update.
	OldLevel int
	NewLevel int

	// FirstCompletion - true only when this submission transitioned the
	// record into completed for the first time.
	FirstCompletion bool
}

// ProgressRepository defines the storage contract for progress records.
type ProgressRepository interface {
	// Get returns the record for (userID, lessonID).
	// Returns ErrProgressNotFound if no record exists yet.
	Get(ctx context.Context, userID, lessonID string) (*Progress, error)

	// GetAllForUser returns all of the user's records ordered by the
	// lesson's (module, order_index).
	GetAllForUser(ctx context.Context, userID string) ([]*Progress, error)

	// CountCompleted returns the user's completed-lesson count.
	CountCompleted(ctx context.Context, userID string) (int, error)

	// Snapshot aggregates the user's full progress history for achievement
	// criteria evaluation.
	Snapshot(ctx context.Context, userID string) (Snapshot, error)

	// RecordSubmission atomically applies a submission: it locks (or creates)
	// the (userID, lessonID) row, applies the domain transition via
	// Progress.Apply with the lesson's XP reward, and on a first completion
	// adds the XP delta to the user and recomputes the stored level. The
	// progress upsert and the XP update are never observably split, and two
	// concurrent completions for the same pair serialize so only one earns
	// a nonzero delta.
	//
	// Returns ErrLessonNotFound or ErrUserNotFound without mutation when the
	// referenced rows are missing; validation errors likewise mutate nothing.
	RecordSubmission(ctx context.Context, userID, lessonID string, sub Submission) (*SubmissionOutcome, error)
}

// AwardOutcome is the result of an atomic achievement award attempt.
type AwardOutcome struct {
	// Awarded - false when the (user, achievement) pair already existed;
	// the uniqueness constraint is the authoritative guard and a conflict
	// is treated as already-awarded, not as an error.
	Awarded bool

	// OldXP / NewXP / OldLevel / NewLevel - XP bonus bookkeeping. Meaningful
	// only when Awarded is true.
	OldXP    int
	NewXP    int
	OldLevel int
	NewLevel int
}

// AchievementRepository defines the storage contract for achievement rules
// and awards.
type AchievementRepository interface {
	// GetAllRules returns every achievement rule definition.
	GetAllRules(ctx context.Context) ([]*Achievement, error)

	// GetBySlug returns a rule by its stable slug.
	// Returns ErrAchievementNotFound if it does not exist.
	GetBySlug(ctx context.Context, slug string) (*Achievement, error)

	// GetEarnedIDs returns the set of achievement IDs the user has earned.
	GetEarnedIDs(ctx context.Context, userID string) (map[string]struct{}, error)

	// GetEarned returns the user's awards ordered by earned_at.
	GetEarned(ctx context.Context, userID string) ([]Earned, error)

	// Award atomically inserts the (userID, achievement) award and applies
	// the XP bonus to the user, recomputing the stored level. An existing
	// award reports Awarded=false with no mutation.
	Award(ctx context.Context, userID string, a *Achievement, at time.Time) (*AwardOutcome, error)
}

// StreakRepository defines the storage contract for daily streaks.
type StreakRepository interface {
	// Get returns the user's streak tracker, or a zero-valued tracker when
	// none has been persisted yet.
	Get(ctx context.Context, userID string) (*Streak, error)

	// Save upserts the streak tracker.
	Save(ctx context.Context, s *Streak) error

	// FindLapsed returns streaks still counting (current_streak > 0) whose
	// last active date is strictly before the cutoff. Used by the daily
	// sweep that marks broken streaks.
	FindLapsed(ctx context.Context, before time.Time) ([]*Streak, error)
}
