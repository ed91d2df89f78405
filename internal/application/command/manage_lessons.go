package command

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/codequest-edu/codequest-backend/internal/domain/lesson"
	"github.com/codequest-edu/codequest-backend/internal/domain/shared"
	"github.com/codequest-edu/codequest-backend/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// LESSON CATALOG COMMANDS
// Admin-only writes against the lesson catalog. Role checks happen at the
// HTTP layer; these handlers assume an authorized caller.
// ══════════════════════════════════════════════════════════════════════════════

// CreateLessonCommand contains the data to create a lesson.
type CreateLessonCommand struct {
	Module     string
	OrderIndex int
	Title      string
	XPReward   int
	Content    lesson.Content
}

// UpdateLessonCommand contains the data to update a lesson.
// Nil pointer fields are left unchanged.
type UpdateLessonCommand struct {
	LessonID string
	Title    *string
	XPReward *int
	Content  *lesson.Content
}

// ManageLessonsHandler handles lesson catalog writes.
type ManageLessonsHandler struct {
	lessonRepo lesson.Repository
	logger     *logger.Logger
}

// NewManageLessonsHandler creates a new ManageLessonsHandler.
func NewManageLessonsHandler(lessonRepo lesson.Repository, log *logger.Logger) *ManageLessonsHandler {
	if log == nil {
		log = logger.Default()
	}
	return &ManageLessonsHandler{
		lessonRepo: lessonRepo,
		logger:     log.With(logger.Component("manage_lessons")),
	}
}

// CreateLesson validates and creates a lesson.
func (h *ManageLessonsHandler) CreateLesson(ctx context.Context, cmd CreateLessonCommand) (*lesson.Lesson, error) {
	l, err := lesson.NewLesson(
		uuid.NewString(),
		lesson.ModuleKey(cmd.Module),
		cmd.OrderIndex,
		cmd.Title,
		cmd.XPReward,
		cmd.Content,
	)
	if err != nil {
		return nil, err
	}

	if err := h.lessonRepo.Create(ctx, l); err != nil {
		return nil, err
	}

	h.logger.Info("lesson created",
		logger.LessonID(l.ID),
		logger.String("module", l.Module.String()),
	)

	return l, nil
}

// UpdateLesson applies partial updates to an existing lesson.
// Module and order index are immutable once created; reordering is a
// delete-and-recreate operation.
func (h *ManageLessonsHandler) UpdateLesson(ctx context.Context, cmd UpdateLessonCommand) (*lesson.Lesson, error) {
	if cmd.LessonID == "" {
		return nil, shared.NewDomainError("command", "UpdateLesson", shared.ErrEmptyValue, "lesson_id is required")
	}

	l, err := h.lessonRepo.GetByID(ctx, cmd.LessonID)
	if err != nil {
		return nil, err
	}

	if cmd.Title != nil {
		title := strings.TrimSpace(*cmd.Title)
		if title == "" {
			return nil, shared.NewDomainError("command", "UpdateLesson", shared.ErrEmptyValue, "title is required")
		}
		l.Title = title
	}
	if cmd.XPReward != nil {
		if *cmd.XPReward <= 0 {
			return nil, shared.ErrInvalidXPReward
		}
		l.XPReward = *cmd.XPReward
	}
	if cmd.Content != nil {
		if cmd.Content.Difficulty != "" && !cmd.Content.Difficulty.IsValid() {
			return nil, shared.NewDomainError("command", "UpdateLesson", shared.ErrInvalidInput, "invalid difficulty")
		}
		l.Content = *cmd.Content
	}

	if err := h.lessonRepo.Update(ctx, l); err != nil {
		return nil, err
	}

	h.logger.Info("lesson updated", logger.LessonID(l.ID))

	return l, nil
}

// DeleteLesson removes a lesson. Existing progress rows cascade away with
// it; earned XP stays with the user.
func (h *ManageLessonsHandler) DeleteLesson(ctx context.Context, lessonID string) error {
	if lessonID == "" {
		return shared.NewDomainError("command", "DeleteLesson", shared.ErrEmptyValue, "lesson_id is required")
	}

	if err := h.lessonRepo.Delete(ctx, lessonID); err != nil {
		return err
	}

	h.logger.Info("lesson deleted", logger.LessonID(lessonID))
	return nil
}
