// Package lesson contains the lesson catalog domain model.
// Lessons are static business data: immutable during a learning session and
// edited only through admin CRUD.
package lesson

import (
	"strings"
	"time"

	"github.com/codequest-edu/codequest-backend/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// VALUE OBJECTS
// ══════════════════════════════════════════════════════════════════════════════

// ModuleKey groups lessons into a curriculum module (e.g. "python-basics",
// "ai-foundations"). Order within a module is defined by OrderIndex.
type ModuleKey string

// AIModule is the fixed module identifier used by the ai_lesson_completed
// achievement criteria.
const AIModule ModuleKey = "ai-foundations"

// IsValid checks the module key format.
func (m ModuleKey) IsValid() bool {
	s := string(m)
	return len(s) >= 2 && len(s) <= 64 && !strings.ContainsAny(s, " \t\n\r")
}

// String returns the string representation.
func (m ModuleKey) String() string {
	return string(m)
}

// Difficulty is the lesson's declared difficulty.
type Difficulty string

const (
	DifficultyBeginner     Difficulty = "beginner"
	DifficultyIntermediate Difficulty = "intermediate"
	DifficultyAdvanced     Difficulty = "advanced"
)

// IsValid checks that the difficulty is one of the known values.
func (d Difficulty) IsValid() bool {
	switch d {
	case DifficultyBeginner, DifficultyIntermediate, DifficultyAdvanced:
		return true
	default:
		return false
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// CONTENT PAYLOAD
// ══════════════════════════════════════════════════════════════════════════════

// TestCase describes one expected-output check for a lesson's starter code.
type TestCase struct {
	// Input - value fed to the student's code.
	Input string `json:"input"`

	// Expected - expected output.
	Expected string `json:"expected"`

	// Description - shown to the student on failure.
	Description string `json:"description,omitempty"`
}

// Content is the lesson's content payload, stored as JSONB.
type Content struct {
	// Difficulty - declared difficulty.
	Difficulty Difficulty `json:"difficulty"`

	// EstimatedMinutes - expected time to complete.
	EstimatedMinutes int `json:"estimated_minutes"`

	// Objectives - learning objectives.
	Objectives []string `json:"objectives,omitempty"`

	// Body - lesson text (markdown).
	Body string `json:"body,omitempty"`

	// StarterCode - optional executable starter code.
	StarterCode string `json:"starter_code,omitempty"`

	// TestCases - optional checks against the starter code.
	TestCases []TestCase `json:"test_cases,omitempty"`
}

// ══════════════════════════════════════════════════════════════════════════════
// ENTITY
// ══════════════════════════════════════════════════════════════════════════════

// Lesson is a static content unit.
type Lesson struct {
	// ID - internal UUID.
	ID string

	// Module - curriculum grouping key.
	Module ModuleKey

	// OrderIndex - position within the module, unique per module.
	OrderIndex int

	// Title - lesson title. The function_written achievement criteria
	// matches on this field.
	Title string

	// XPReward - XP granted on first completion, before score scaling.
	XPReward int

	// Content - content payload.
	Content Content

	// CreatedAt / UpdatedAt - audit timestamps.
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewLesson validates and creates a lesson.
func NewLesson(id string, module ModuleKey, orderIndex int, title string, xpReward int, content Content) (*Lesson, error) {
	if !module.IsValid() {
		return nil, shared.NewDomainError("lesson", "New", shared.ErrInvalidInput, "invalid module key")
	}
	if orderIndex < 0 {
		return nil, shared.NewDomainError("lesson", "New", shared.ErrNegativeValue, "order index cannot be negative")
	}
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, shared.NewDomainError("lesson", "New", shared.ErrEmptyValue, "title is required")
	}
	if xpReward <= 0 {
		return nil, shared.ErrInvalidXPReward
	}
	if content.Difficulty != "" && !content.Difficulty.IsValid() {
		return nil, shared.NewDomainError("lesson", "New", shared.ErrInvalidInput, "invalid difficulty")
	}

	now := time.Now().UTC()
	return &Lesson{
		ID:         id,
		Module:     module,
		OrderIndex: orderIndex,
		Title:      title,
		XPReward:   xpReward,
		Content:    content,
		CreatedAt:  now,
		UpdatedAt:  now,
	}, nil
}

// IsAILesson returns true if the lesson belongs to the AI module.
func (l *Lesson) IsAILesson() bool {
	return l.Module == AIModule
}

// MentionsFunction returns true if the title contains "function",
// case-insensitive. Used by the function_written achievement criteria.
func (l *Lesson) MentionsFunction() bool {
	return strings.Contains(strings.ToLower(l.Title), "function")
}

// Summary is the reduced lesson view joined into progress listings.
type Summary struct {
	ID         string     `json:"id"`
	Module     string     `json:"module"`
	OrderIndex int        `json:"order_index"`
	Title      string     `json:"title"`
	XPReward   int        `json:"xp_reward"`
	Difficulty Difficulty `json:"difficulty,omitempty"`
}

// Summarize returns the reduced view of the lesson.
func (l *Lesson) Summarize() Summary {
	return Summary{
		ID:         l.ID,
		Module:     string(l.Module),
		OrderIndex: l.OrderIndex,
		Title:      l.Title,
		XPReward:   l.XPReward,
		Difficulty: l.Content.Difficulty,
	}
}
