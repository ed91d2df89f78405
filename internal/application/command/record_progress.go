// Package command contains write operations (CQRS - Commands).
package command

import (
	"context"
	"time"

	"github.com/codequest-edu/codequest-backend/internal/application/saga"
	"github.com/codequest-edu/codequest-backend/internal/domain/progression"
	"github.com/codequest-edu/codequest-backend/internal/domain/shared"
	"github.com/codequest-edu/codequest-backend/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// RECORD PROGRESS COMMAND
// The single write path of the progression engine. Applies one submission
// against a lesson, awards XP on first completion, advances the daily streak
// and runs the achievement evaluation so newly earned achievements come back
// in the same response.
// ══════════════════════════════════════════════════════════════════════════════

// RecordProgressCommand contains one progress submission.
type RecordProgressCommand struct {
	// UserID is the submitting user.
	UserID string

	// LessonID is the target lesson.
	LessonID string

	// TargetStatus is the requested status: in_progress or completed.
	TargetStatus string

	// Score is the optional score, 0-100.
	Score *int

	// Code is the optional submission payload, stored opaquely.
	Code string

	// Timestamp is when the submission happened (defaults to now if zero).
	Timestamp time.Time

	// CorrelationID for tracing.
	CorrelationID string
}

// Validate validates the command.
func (c RecordProgressCommand) Validate() error {
	if c.UserID == "" {
		return shared.NewDomainError("command", "RecordProgress", shared.ErrEmptyValue, "user_id is required")
	}
	if c.LessonID == "" {
		return shared.NewDomainError("command", "RecordProgress", shared.ErrEmptyValue, "lesson_id is required")
	}
	if _, err := progression.ParseStatus(c.TargetStatus); err != nil {
		return err
	}
	if c.Score != nil && (*c.Score < 0 || *c.Score > 100) {
		return shared.ErrInvalidScore
	}
	return nil
}

// RecordProgressResult contains the result of recording a submission.
type RecordProgressResult struct {
	// Progress is the record after the submission was applied.
	Progress *progression.Progress

	// XPEarned is the XP delta from this submission.
	XPEarned int

	// NewXPTotal is the user's XP after the submission.
	NewXPTotal int

	// Level is the user's level after the submission.
	Level int

	// LeveledUp is true when the submission crossed a level boundary.
	LeveledUp bool

	// FirstCompletion is true only when this submission completed the
	// lesson for the first time.
	FirstCompletion bool

	// CurrentStreak is the daily streak after the submission.
	CurrentStreak int

	// StreakAdvanced is true when the streak moved today.
	StreakAdvanced bool

	// Achievements contains achievements newly awarded by this submission.
	Achievements []*progression.Achievement

	// Events contains the domain events generated.
	Events []shared.Event
}

// ══════════════════════════════════════════════════════════════════════════════
// HANDLER
// ══════════════════════════════════════════════════════════════════════════════

// RecordProgressHandler handles the RecordProgressCommand.
type RecordProgressHandler struct {
	progressRepo progression.ProgressRepository
	streakRepo   progression.StreakRepository
	flow         *saga.AchievementFlow
	publisher    shared.EventPublisher
	logger       *logger.Logger
}

// NewRecordProgressHandler creates a new RecordProgressHandler.
// The achievement flow may be nil, in which case evaluation is left to
// whatever is subscribed to the lesson-completed event.
func NewRecordProgressHandler(
	progressRepo progression.ProgressRepository,
	streakRepo progression.StreakRepository,
	flow *saga.AchievementFlow,
	publisher shared.EventPublisher,
	log *logger.Logger,
) *RecordProgressHandler {
	if log == nil {
		log = logger.Default()
	}
	return &RecordProgressHandler{
		progressRepo: progressRepo,
		streakRepo:   streakRepo,
		flow:         flow,
		publisher:    publisher,
		logger:       log.With(logger.Component("record_progress")),
	}
}

// Handle executes the record progress command.
//
// The submission itself is atomic in the repository. The streak update and
// event publication run after the commit: they are best-effort side effects
// and never roll back a recorded submission.
func (h *RecordProgressHandler) Handle(ctx context.Context, cmd RecordProgressCommand) (*RecordProgressResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	timestamp := cmd.Timestamp
	if timestamp.IsZero() {
		timestamp = time.Now().UTC()
	}

	status, err := progression.ParseStatus(cmd.TargetStatus)
	if err != nil {
		return nil, err
	}

	sub := progression.Submission{
		TargetStatus: status,
		Score:        cmd.Score,
		Code:         cmd.Code,
		At:           timestamp,
	}

	outcome, err := h.progressRepo.RecordSubmission(ctx, cmd.UserID, cmd.LessonID, sub)
	if err != nil {
		return nil, err
	}

	result := &RecordProgressResult{
		Progress:        outcome.Progress,
		XPEarned:        outcome.XPEarned,
		NewXPTotal:      outcome.NewXP,
		Level:           outcome.NewLevel,
		LeveledUp:       outcome.NewLevel > outcome.OldLevel,
		FirstCompletion: outcome.FirstCompletion,
		Events:          make([]shared.Event, 0, 4),
	}

	h.updateStreak(ctx, cmd.UserID, timestamp, result)
	h.collectEvents(cmd, outcome, result)
	h.publish(result.Events, cmd.CorrelationID)
	h.evaluateAchievements(ctx, cmd.UserID, result)

	return result, nil
}

// evaluateAchievements runs the achievement flow after a first completion and
// folds newly awarded achievements into the result. The flow publishes its
// own award events. A failed evaluation is logged and swallowed: the
// submission is committed and a later run will pick the awards up.
func (h *RecordProgressHandler) evaluateAchievements(ctx context.Context, userID string, result *RecordProgressResult) {
	if h.flow == nil || !result.FirstCompletion {
		return
	}

	flowResult, err := h.flow.Run(ctx, userID)
	if err != nil {
		h.logger.Warn("achievement evaluation failed", logger.UserID(userID), logger.Err(err))
		return
	}

	for _, award := range flowResult.Awarded {
		result.Achievements = append(result.Achievements, award.Achievement)
		result.NewXPTotal = award.NewXPTotal
		if award.LeveledUp {
			result.LeveledUp = true
		}
	}
	if n := len(flowResult.Awarded); n > 0 {
		result.Level = progression.LevelFromXP(result.NewXPTotal)
		h.logger.Info("achievements awarded",
			logger.UserID(userID),
			logger.Int("count", n),
		)
	}
}

// updateStreak advances the user's daily streak. Failures are logged and
// swallowed so a streak hiccup never loses a recorded submission.
func (h *RecordProgressHandler) updateStreak(ctx context.Context, userID string, at time.Time, result *RecordProgressResult) {
	streak, err := h.streakRepo.Get(ctx, userID)
	if err != nil {
		h.logger.Warn("failed to load streak", logger.UserID(userID), logger.Err(err))
		return
	}

	previousStreak := streak.CurrentStreak
	previousDate := streak.LastActiveDate

	broken := streak.RecordActivity(at)
	changed := streak.CurrentStreak != previousStreak || !streak.LastActiveDate.Equal(previousDate)

	if changed {
		if err := h.streakRepo.Save(ctx, streak); err != nil {
			h.logger.Warn("failed to save streak", logger.UserID(userID), logger.Err(err))
			return
		}
		if broken && previousStreak > 1 {
			result.Events = append(result.Events,
				shared.NewStreakBrokenEvent(userID, previousStreak))
		}
		result.Events = append(result.Events,
			shared.NewStreakUpdatedEvent(userID, streak.CurrentStreak, streak.BestStreak))
	}

	result.CurrentStreak = streak.CurrentStreak
	result.StreakAdvanced = changed
}

// collectEvents builds the domain events produced by this submission.
func (h *RecordProgressHandler) collectEvents(
	cmd RecordProgressCommand,
	outcome *progression.SubmissionOutcome,
	result *RecordProgressResult,
) {
	if outcome.FirstCompletion {
		result.Events = append(result.Events, shared.NewLessonCompletedEvent(
			cmd.UserID,
			cmd.LessonID,
			outcome.Progress.Score,
			outcome.XPEarned,
			outcome.Progress.Attempts,
		))
	}

	if outcome.NewXP > outcome.OldXP {
		result.Events = append(result.Events,
			shared.NewXPGainedEvent(cmd.UserID, outcome.OldXP, outcome.NewXP, "lesson_completed"))
	}

	if outcome.NewLevel > outcome.OldLevel {
		result.Events = append(result.Events,
			shared.NewLevelUpEvent(cmd.UserID, outcome.OldLevel, outcome.NewLevel))
	}
}

// publish emits the collected events. Publishing failures are logged, not
// returned: the submission is already committed.
func (h *RecordProgressHandler) publish(events []shared.Event, correlationID string) {
	if h.publisher == nil {
		return
	}
	for _, event := range events {
		if err := h.publisher.Publish(event); err != nil {
			h.logger.Error("failed to publish event",
				logger.String("event_type", string(event.EventType())),
				logger.String("correlation_id", correlationID),
				logger.Err(err),
			)
		}
	}
}
