// Package eventhandler contains the subscribers wired onto the event bus.
// Each handler reacts to one event type and drives a side effect that must
// not sit on the submission write path.
package eventhandler

import (
	"context"
	"time"

	"github.com/codequest-edu/codequest-backend/internal/application/saga"
	"github.com/codequest-edu/codequest-backend/internal/domain/shared"
	"github.com/codequest-edu/codequest-backend/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// ON LESSON COMPLETED
// Triggers achievement evaluation after a first completion.
// ══════════════════════════════════════════════════════════════════════════════

// OnLessonCompleted runs the achievement flow whenever a lesson is
// completed for the first time.
type OnLessonCompleted struct {
	flow    *saga.AchievementFlow
	timeout time.Duration
	logger  *logger.Logger
}

// NewOnLessonCompleted creates the handler.
func NewOnLessonCompleted(flow *saga.AchievementFlow, log *logger.Logger) *OnLessonCompleted {
	if log == nil {
		log = logger.Default()
	}
	return &OnLessonCompleted{
		flow:    flow,
		timeout: 30 * time.Second,
		logger:  log.With(logger.Component("on_lesson_completed")),
	}
}

// Name implements shared.EventHandler.
func (h *OnLessonCompleted) Name() string {
	return "achievement_evaluation"
}

// Handle implements shared.EventHandler.
func (h *OnLessonCompleted) Handle(event shared.Event) error {
	if event.EventType() != shared.EventLessonCompleted {
		return nil
	}

	userID := event.AggregateID()
	if userID == "" {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.timeout)
	defer cancel()

	result, err := h.flow.Run(ctx, userID)
	if err != nil {
		return err
	}

	if len(result.Awarded) > 0 {
		h.logger.Info("achievements awarded",
			logger.UserID(userID),
			logger.Int("count", len(result.Awarded)),
		)
	}

	return nil
}
