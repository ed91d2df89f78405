package progression

import (
	"time"

	"github.com/codequest-edu/codequest-backend/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// USER PROGRESS
// One record per (user, lesson) pair, enforced unique in storage. Attempts
// count every submission; XP is earned only on the first transition into
// the completed status.
// ══════════════════════════════════════════════════════════════════════════════

// Status is the lifecycle status of a progress record.
type Status string

const (
	// StatusNotStarted - no interaction yet (records are created lazily, so
	// this value only appears in API responses for missing records).
	StatusNotStarted Status = "not_started"
	// StatusInProgress - the user has opened or submitted the lesson without
	// completing it.
	StatusInProgress Status = "in_progress"
	// StatusCompleted - the lesson has been completed at least once.
	StatusCompleted Status = "completed"
)

// IsValid checks that the status is one of the known values.
func (s Status) IsValid() bool {
	switch s {
	case StatusNotStarted, StatusInProgress, StatusCompleted:
		return true
	default:
		return false
	}
}

// ParseStatus parses a submission target status. Only in_progress and
// completed are accepted from callers.
func ParseStatus(raw string) (Status, error) {
	s := Status(raw)
	if s != StatusInProgress && s != StatusCompleted {
		return "", shared.ErrInvalidProgressStatus
	}
	return s, nil
}

// Progress is the per-(user, lesson) progress record.
type Progress struct {
	// UserID / LessonID - the unique pair.
	UserID   string
	LessonID string

	// Status - current status. Never moves backwards out of completed.
	Status Status

	// Score - best known score, 0-100. Nil until a scored submission.
	Score *int

	// Attempts - number of submissions, >= 1 once the record exists.
	Attempts int

	// CompletedAt - set exactly once, on the first transition into completed.
	CompletedAt *time.Time

	// CodeSubmissions - append-only history of submission payloads keyed by
	// RFC3339Nano timestamp. Never pruned or replaced.
	CodeSubmissions map[string]string

	// CreatedAt / UpdatedAt - audit timestamps.
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewProgress creates a fresh record for a first interaction.
func NewProgress(userID, lessonID string, at time.Time) *Progress {
	return &Progress{
		UserID:          userID,
		LessonID:        lessonID,
		Status:          StatusInProgress,
		Attempts:        0,
		CodeSubmissions: make(map[string]string),
		CreatedAt:       at,
		UpdatedAt:       at,
	}
}

// Submission is one progress-update request against a lesson.
type Submission struct {
	// TargetStatus - in_progress or completed.
	TargetStatus Status

	// Score - optional, 0-100.
	Score *int

	// Code - optional free-form submission payload, stored opaquely.
	Code string

	// At - submission time (UTC).
	At time.Time
}

// Validate checks the submission against the caller contract.
func (s Submission) Validate() error {
	if s.TargetStatus != StatusInProgress && s.TargetStatus != StatusCompleted {
		return shared.ErrInvalidProgressStatus
	}
	if s.Score != nil && (*s.Score < 0 || *s.Score > 100) {
		return shared.ErrInvalidScore
	}
	return nil
}

// Apply applies a submission to the record and returns the XP delta earned,
// scaled by the score when one is supplied.
//
// The delta is nonzero only on the first transition into completed: repeat
// completions increment attempts, append to the submission history and earn
// nothing. Score, status and CompletedAt of an already-completed record are
// left untouched so the first completion stays authoritative.
func (p *Progress) Apply(sub Submission, xpReward int) (int, error) {
	if err := sub.Validate(); err != nil {
		return 0, err
	}

	at := sub.At
	if at.IsZero() {
		at = time.Now().UTC()
	}

	p.Attempts++
	p.UpdatedAt = at

	if sub.Code != "" {
		if p.CodeSubmissions == nil {
			p.CodeSubmissions = make(map[string]string)
		}
		p.CodeSubmissions[at.Format(time.RFC3339Nano)] = sub.Code
	}

	// Idempotent no-op: already completed.
	if p.Status == StatusCompleted {
		return 0, nil
	}

	if sub.TargetStatus == StatusInProgress {
		p.Status = StatusInProgress
		if sub.Score != nil {
			p.Score = sub.Score
		}
		return 0, nil
	}

	// First transition into completed.
	p.Status = StatusCompleted
	p.Score = sub.Score
	completedAt := at
	p.CompletedAt = &completedAt

	return ScaleXPByScore(xpReward, sub.Score), nil
}

// IsCompleted returns true once the lesson has been completed.
func (p *Progress) IsCompleted() bool {
	return p.Status == StatusCompleted
}
