package progression

import (
	"time"

	"github.com/codequest-edu/codequest-backend/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// ACHIEVEMENTS
// Achievements are static rule definitions evaluated against a user's
// aggregate progress. Awards are granted exactly once and never revoked.
// ══════════════════════════════════════════════════════════════════════════════

// CriteriaKind is the closed set of achievement criteria types. Adding a new
// kind means adding a case to Criteria.Satisfied - unknown kinds fail closed.
type CriteriaKind string

const (
	// CriteriaLessonCompleted - total completed lessons >= Count.
	CriteriaLessonCompleted CriteriaKind = "lesson_completed"

	// CriteriaFunctionWritten - completed lessons whose title contains
	// "function" (case-insensitive) >= Count.
	CriteriaFunctionWritten CriteriaKind = "function_written"

	// CriteriaAILessonCompleted - completed lessons in the AI module >= Count.
	CriteriaAILessonCompleted CriteriaKind = "ai_lesson_completed"

	// CriteriaStreak - daily streak >= Count. Streaks are tracked but this
	// criteria kind is intentionally not evaluated yet: it fails closed so
	// no streak achievement can be awarded by accident.
	CriteriaStreak CriteriaKind = "streak"
)

// IsKnown reports whether the kind is part of the closed set.
func (k CriteriaKind) IsKnown() bool {
	switch k {
	case CriteriaLessonCompleted, CriteriaFunctionWritten, CriteriaAILessonCompleted, CriteriaStreak:
		return true
	default:
		return false
	}
}

// Criteria is the tagged rule payload of an achievement.
type Criteria struct {
	// Kind - criteria type tag.
	Kind CriteriaKind `json:"type"`

	// Count - threshold the matching counter must reach.
	Count int `json:"count"`
}

// Validate checks that the criteria definition is well-formed. A well-formed
// definition may still fail closed at evaluation time (unknown kind).
func (c Criteria) Validate() error {
	if c.Kind == "" {
		return shared.ErrUnknownCriteria
	}
	if c.Count <= 0 {
		return shared.NewDomainError("progression", "Validate", shared.ErrValueOutOfRange, "criteria count must be positive")
	}
	return nil
}

// Snapshot aggregates a user's full progress history for criteria evaluation.
type Snapshot struct {
	// LessonsCompleted - count of progress records with status completed.
	LessonsCompleted int

	// FunctionLessonsCompleted - completed lessons whose title contains
	// "function" (case-insensitive).
	FunctionLessonsCompleted int

	// AILessonsCompleted - completed lessons in the AI module.
	AILessonsCompleted int

	// CurrentStreak - current daily streak (informational; streak criteria
	// fail closed).
	CurrentStreak int
}

// Satisfied evaluates the criteria against a snapshot. Unknown and
// unimplemented kinds never satisfy (no false positives).
func (c Criteria) Satisfied(s Snapshot) bool {
	switch c.Kind {
	case CriteriaLessonCompleted:
		return s.LessonsCompleted >= c.Count
	case CriteriaFunctionWritten:
		return s.FunctionLessonsCompleted >= c.Count
	case CriteriaAILessonCompleted:
		return s.AILessonsCompleted >= c.Count
	case CriteriaStreak:
		// Tracked but not yet awarded. Fail closed.
		return false
	default:
		return false
	}
}

// Achievement is a static achievement rule.
type Achievement struct {
	// ID - internal UUID.
	ID string

	// Slug - stable identifier used in seeds and clients (e.g. "first-steps").
	Slug string

	// Name / Description - display strings.
	Name        string
	Description string

	// Criteria - the rule payload.
	Criteria Criteria

	// XPReward - XP bonus granted on award.
	XPReward int
}

// Validate checks the rule definition.
func (a *Achievement) Validate() error {
	if a.Slug == "" || a.Name == "" {
		return shared.NewDomainError("progression", "Validate", shared.ErrEmptyValue, "achievement slug and name are required")
	}
	if a.XPReward < 0 {
		return shared.ErrNegativeXP
	}
	return a.Criteria.Validate()
}

// Earned records an awarded achievement for a user. Rows are created only by
// the evaluator, never updated, and deleted only alongside the user.
type Earned struct {
	UserID        string
	AchievementID string
	EarnedAt      time.Time
}

// ══════════════════════════════════════════════════════════════════════════════
// EVALUATOR
// ══════════════════════════════════════════════════════════════════════════════

// Evaluator scans achievement rules against a progress snapshot.
type Evaluator struct{}

// NewEvaluator creates an achievement evaluator.
func NewEvaluator() *Evaluator {
	return &Evaluator{}
}

// EvaluationError reports a single rule that could not be evaluated. Rule
// failures are isolated: one malformed definition never blocks the others.
type EvaluationError struct {
	AchievementID string
	Slug          string
	Err           error
}

// NewlySatisfied returns the achievements whose criteria newly evaluate true:
// rules already present in the earned set are skipped before any criteria
// evaluation, so re-running against unchanged state yields an empty result.
func (e *Evaluator) NewlySatisfied(
	rules []*Achievement,
	earned map[string]struct{},
	snapshot Snapshot,
) ([]*Achievement, []EvaluationError) {
	var satisfied []*Achievement
	var failures []EvaluationError

	for _, rule := range rules {
		if _, already := earned[rule.ID]; already {
			continue
		}
		if err := rule.Validate(); err != nil {
			failures = append(failures, EvaluationError{
				AchievementID: rule.ID,
				Slug:          rule.Slug,
				Err:           err,
			})
			continue
		}
		if rule.Criteria.Satisfied(snapshot) {
			satisfied = append(satisfied, rule)
		}
	}

	return satisfied, failures
}
