package progression

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codequest-edu/codequest-backend/internal/domain/shared"
)

func TestParseStatusAcceptsCallerValues(t *testing.T) {
	s, err := ParseStatus("in_progress")
	require.NoError(t, err)
	assert.Equal(t, StatusInProgress, s)

	s, err = ParseStatus("completed")
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, s)
}

func TestParseStatusRejectsNotStarted(t *testing.T) {
	_, err := ParseStatus("not_started")
	assert.ErrorIs(t, err, shared.ErrInvalidProgressStatus)

	_, err = ParseStatus("done")
	assert.ErrorIs(t, err, shared.ErrInvalidProgressStatus)
}

func TestSubmissionValidateScoreRange(t *testing.T) {
	bad := 101
	sub := Submission{TargetStatus: StatusCompleted, Score: &bad}
	assert.ErrorIs(t, sub.Validate(), shared.ErrInvalidScore)

	neg := -1
	sub.Score = &neg
	assert.ErrorIs(t, sub.Validate(), shared.ErrInvalidScore)

	ok := 100
	sub.Score = &ok
	assert.NoError(t, sub.Validate())
}

func TestApplyFirstCompletionEarnsXP(t *testing.T) {
	now := time.Date(2026, 3, 10, 14, 0, 0, 0, time.UTC)
	p := NewProgress("u1", "l1", now)
	score := 80

	delta, err := p.Apply(Submission{TargetStatus: StatusCompleted, Score: &score, At: now}, 50)

	require.NoError(t, err)
	assert.Equal(t, 40, delta)
	assert.Equal(t, StatusCompleted, p.Status)
	assert.Equal(t, 1, p.Attempts)
	require.NotNil(t, p.CompletedAt)
	assert.Equal(t, now, *p.CompletedAt)
}

func TestApplyRepeatCompletionEarnsNothing(t *testing.T) {
	now := time.Date(2026, 3, 10, 14, 0, 0, 0, time.UTC)
	p := NewProgress("u1", "l1", now)
	first := 90

	_, err := p.Apply(Submission{TargetStatus: StatusCompleted, Score: &first, At: now}, 50)
	require.NoError(t, err)
	completedAt := *p.CompletedAt

	later := now.Add(2 * time.Hour)
	second := 100
	delta, err := p.Apply(Submission{TargetStatus: StatusCompleted, Score: &second, At: later}, 50)

	require.NoError(t, err)
	assert.Equal(t, 0, delta)
	assert.Equal(t, 2, p.Attempts)
	// First completion stays authoritative.
	assert.Equal(t, 90, *p.Score)
	assert.Equal(t, completedAt, *p.CompletedAt)
	assert.Equal(t, StatusCompleted, p.Status)
}

func TestApplyNeverLeavesCompleted(t *testing.T) {
	now := time.Now().UTC()
	p := NewProgress("u1", "l1", now)

	_, err := p.Apply(Submission{TargetStatus: StatusCompleted, At: now}, 25)
	require.NoError(t, err)

	delta, err := p.Apply(Submission{TargetStatus: StatusInProgress, At: now.Add(time.Hour)}, 25)

	require.NoError(t, err)
	assert.Equal(t, 0, delta)
	assert.Equal(t, StatusCompleted, p.Status)
}

func TestApplyInProgressUpdatesScoreOnly(t *testing.T) {
	now := time.Now().UTC()
	p := NewProgress("u1", "l1", now)
	score := 40

	delta, err := p.Apply(Submission{TargetStatus: StatusInProgress, Score: &score, At: now}, 25)

	require.NoError(t, err)
	assert.Equal(t, 0, delta)
	assert.Equal(t, StatusInProgress, p.Status)
	assert.Equal(t, 40, *p.Score)
	assert.Nil(t, p.CompletedAt)
}

func TestApplyAppendsCodeSubmissions(t *testing.T) {
	now := time.Date(2026, 3, 10, 14, 0, 0, 0, time.UTC)
	p := NewProgress("u1", "l1", now)

	_, err := p.Apply(Submission{TargetStatus: StatusInProgress, Code: "print('hi')", At: now}, 25)
	require.NoError(t, err)
	_, err = p.Apply(Submission{TargetStatus: StatusCompleted, Code: "print('bye')", At: now.Add(time.Minute)}, 25)
	require.NoError(t, err)

	assert.Len(t, p.CodeSubmissions, 2)
	assert.Equal(t, "print('hi')", p.CodeSubmissions[now.Format(time.RFC3339Nano)])
}

func TestApplyRejectsInvalidSubmission(t *testing.T) {
	p := NewProgress("u1", "l1", time.Now().UTC())

	_, err := p.Apply(Submission{TargetStatus: "finished"}, 25)

	assert.ErrorIs(t, err, shared.ErrInvalidProgressStatus)
	assert.Equal(t, 0, p.Attempts)
}
