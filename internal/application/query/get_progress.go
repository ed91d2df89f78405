// Package query contains read operations (CQRS - Queries).
// Queries never modify state.
package query

import (
	"context"
	"time"

	"github.com/codequest-edu/codequest-backend/internal/domain/lesson"
	"github.com/codequest-edu/codequest-backend/internal/domain/progression"
	"github.com/codequest-edu/codequest-backend/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET PROGRESS QUERY
// Returns a user's per-lesson progress joined with the lesson catalog.
// ══════════════════════════════════════════════════════════════════════════════

// ProgressEntryDTO is one lesson with the user's progress against it.
type ProgressEntryDTO struct {
	// LessonID identifies the lesson.
	LessonID string `json:"lesson_id"`

	// Module is the curriculum module key.
	Module string `json:"module"`

	// OrderIndex is the lesson's position within the module.
	OrderIndex int `json:"order_index"`

	// Title is the lesson title.
	Title string `json:"title"`

	// XPReward is the base XP for completing the lesson.
	XPReward int `json:"xp_reward"`

	// Status is the user's progress status (not_started when no record).
	Status string `json:"status"`

	// Score is the best known score, when one was submitted.
	Score *int `json:"score,omitempty"`

	// Attempts is the number of submissions.
	Attempts int `json:"attempts"`

	// CompletedAt is set on completed lessons.
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// GetProgressResult is the full progress listing for a user.
type GetProgressResult struct {
	UserID         string             `json:"user_id"`
	Entries        []ProgressEntryDTO `json:"entries"`
	TotalLessons   int                `json:"total_lessons"`
	CompletedCount int                `json:"completed_count"`
}

// GetProgressHandler handles progress listing queries.
type GetProgressHandler struct {
	progressRepo progression.ProgressRepository
	lessonRepo   lesson.Repository
}

// NewGetProgressHandler creates a new GetProgressHandler.
func NewGetProgressHandler(progressRepo progression.ProgressRepository, lessonRepo lesson.Repository) *GetProgressHandler {
	return &GetProgressHandler{
		progressRepo: progressRepo,
		lessonRepo:   lessonRepo,
	}
}

// Handle returns the whole catalog in curriculum order with the user's
// progress merged in. Lessons without a progress record show as
// not_started with zero attempts.
func (h *GetProgressHandler) Handle(ctx context.Context, userID string) (*GetProgressResult, error) {
	if userID == "" {
		return nil, shared.NewDomainError("query", "GetProgress", shared.ErrEmptyValue, "user_id is required")
	}

	lessons, err := h.lessonRepo.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	records, err := h.progressRepo.GetAllForUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	byLesson := make(map[string]*progression.Progress, len(records))
	for _, p := range records {
		byLesson[p.LessonID] = p
	}

	result := &GetProgressResult{
		UserID:       userID,
		Entries:      make([]ProgressEntryDTO, 0, len(lessons)),
		TotalLessons: len(lessons),
	}

	for _, l := range lessons {
		entry := ProgressEntryDTO{
			LessonID:   l.ID,
			Module:     l.Module.String(),
			OrderIndex: l.OrderIndex,
			Title:      l.Title,
			XPReward:   l.XPReward,
			Status:     string(progression.StatusNotStarted),
		}

		if p, ok := byLesson[l.ID]; ok {
			entry.Status = string(p.Status)
			entry.Score = p.Score
			entry.Attempts = p.Attempts
			entry.CompletedAt = p.CompletedAt
			if p.IsCompleted() {
				result.CompletedCount++
			}
		}

		result.Entries = append(result.Entries, entry)
	}

	return result, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// GET SINGLE PROGRESS QUERY
// ══════════════════════════════════════════════════════════════════════════════

// GetLessonProgressHandler returns one (user, lesson) progress record.
type GetLessonProgressHandler struct {
	progressRepo progression.ProgressRepository
	lessonRepo   lesson.Repository
}

// NewGetLessonProgressHandler creates a new GetLessonProgressHandler.
func NewGetLessonProgressHandler(progressRepo progression.ProgressRepository, lessonRepo lesson.Repository) *GetLessonProgressHandler {
	return &GetLessonProgressHandler{
		progressRepo: progressRepo,
		lessonRepo:   lessonRepo,
	}
}

// Handle returns the record for one lesson. A missing record against an
// existing lesson reports as not_started, not as an error.
func (h *GetLessonProgressHandler) Handle(ctx context.Context, userID, lessonID string) (*ProgressEntryDTO, error) {
	if userID == "" || lessonID == "" {
		return nil, shared.NewDomainError("query", "GetLessonProgress", shared.ErrEmptyValue, "user_id and lesson_id are required")
	}

	l, err := h.lessonRepo.GetByID(ctx, lessonID)
	if err != nil {
		return nil, err
	}

	entry := &ProgressEntryDTO{
		LessonID:   l.ID,
		Module:     l.Module.String(),
		OrderIndex: l.OrderIndex,
		Title:      l.Title,
		XPReward:   l.XPReward,
		Status:     string(progression.StatusNotStarted),
	}

	p, err := h.progressRepo.Get(ctx, userID, lessonID)
	if err != nil {
		if shared.IsNotFound(err) {
			return entry, nil
		}
		return nil, err
	}

	entry.Status = string(p.Status)
	entry.Score = p.Score
	entry.Attempts = p.Attempts
	entry.CompletedAt = p.CompletedAt

	return entry, nil
}
