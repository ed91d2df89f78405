package command

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codequest-edu/codequest-backend/internal/domain/progression"
	"github.com/codequest-edu/codequest-backend/internal/domain/shared"
)

// ──────────────────────────────────────────────────────────────────────────────
// FAKES
// ──────────────────────────────────────────────────────────────────────────────

type fakeProgressRepo struct {
	outcome  *progression.SubmissionOutcome
	err      error
	snapshot progression.Snapshot
	lastSub  progression.Submission
}

func (f *fakeProgressRepo) Get(context.Context, string, string) (*progression.Progress, error) {
	return nil, shared.ErrProgressNotFound
}

func (f *fakeProgressRepo) GetAllForUser(context.Context, string) ([]*progression.Progress, error) {
	return nil, nil
}

func (f *fakeProgressRepo) CountCompleted(context.Context, string) (int, error) {
	return f.snapshot.LessonsCompleted, nil
}

func (f *fakeProgressRepo) Snapshot(context.Context, string) (progression.Snapshot, error) {
	return f.snapshot, nil
}

func (f *fakeProgressRepo) RecordSubmission(_ context.Context, _, _ string, sub progression.Submission) (*progression.SubmissionOutcome, error) {
	f.lastSub = sub
	return f.outcome, f.err
}

type fakeStreakRepo struct {
	streak  *progression.Streak
	getErr  error
	saveErr error
	saved   bool
}

func (f *fakeStreakRepo) Get(_ context.Context, userID string) (*progression.Streak, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	if f.streak == nil {
		f.streak = progression.NewStreak(userID)
	}
	return f.streak, nil
}

func (f *fakeStreakRepo) Save(_ context.Context, s *progression.Streak) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.saved = true
	f.streak = s
	return nil
}

func (f *fakeStreakRepo) FindLapsed(context.Context, time.Time) ([]*progression.Streak, error) {
	return nil, nil
}

type fakePublisher struct {
	events []shared.Event
}

func (f *fakePublisher) Publish(event shared.Event) error {
	f.events = append(f.events, event)
	return nil
}

func (f *fakePublisher) types() []shared.EventType {
	out := make([]shared.EventType, 0, len(f.events))
	for _, e := range f.events {
		out = append(out, e.EventType())
	}
	return out
}

func completionOutcome(xpEarned int) *progression.SubmissionOutcome {
	now := time.Now().UTC()
	return &progression.SubmissionOutcome{
		Progress: &progression.Progress{
			UserID:      "u1",
			LessonID:    "l1",
			Status:      progression.StatusCompleted,
			Attempts:    1,
			CompletedAt: &now,
		},
		XPEarned:        xpEarned,
		OldXP:           50,
		NewXP:           50 + xpEarned,
		OldLevel:        1,
		NewLevel:        progression.LevelFromXP(50 + xpEarned),
		FirstCompletion: true,
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// TESTS
// ──────────────────────────────────────────────────────────────────────────────

func TestRecordProgressValidation(t *testing.T) {
	h := NewRecordProgressHandler(&fakeProgressRepo{}, &fakeStreakRepo{}, nil, nil, nil)

	_, err := h.Handle(context.Background(), RecordProgressCommand{LessonID: "l1", TargetStatus: "completed"})
	assert.Error(t, err, "missing user id")

	_, err = h.Handle(context.Background(), RecordProgressCommand{UserID: "u1", TargetStatus: "completed"})
	assert.Error(t, err, "missing lesson id")

	_, err = h.Handle(context.Background(), RecordProgressCommand{UserID: "u1", LessonID: "l1", TargetStatus: "not_started"})
	assert.ErrorIs(t, err, shared.ErrInvalidProgressStatus)

	bad := 150
	_, err = h.Handle(context.Background(), RecordProgressCommand{UserID: "u1", LessonID: "l1", TargetStatus: "completed", Score: &bad})
	assert.ErrorIs(t, err, shared.ErrInvalidScore)
}

func TestRecordProgressFirstCompletion(t *testing.T) {
	repo := &fakeProgressRepo{outcome: completionOutcome(75)}
	streaks := &fakeStreakRepo{}
	pub := &fakePublisher{}
	h := NewRecordProgressHandler(repo, streaks, nil, pub, nil)

	result, err := h.Handle(context.Background(), RecordProgressCommand{
		UserID:       "u1",
		LessonID:     "l1",
		TargetStatus: "completed",
		Timestamp:    time.Date(2026, 3, 10, 14, 0, 0, 0, time.UTC),
	})

	require.NoError(t, err)
	assert.True(t, result.FirstCompletion)
	assert.Equal(t, 75, result.XPEarned)
	assert.Equal(t, 125, result.NewXPTotal)
	assert.Equal(t, 2, result.Level)
	assert.True(t, result.LeveledUp)
	assert.Equal(t, 1, result.CurrentStreak)
	assert.True(t, result.StreakAdvanced)
	assert.True(t, streaks.saved)

	types := pub.types()
	assert.Contains(t, types, shared.EventLessonCompleted)
	assert.Contains(t, types, shared.EventXPGained)
	assert.Contains(t, types, shared.EventLevelUp)
	assert.Contains(t, types, shared.EventStreakUpdated)
}

func TestRecordProgressRepeatCompletionIsQuiet(t *testing.T) {
	outcome := completionOutcome(0)
	outcome.FirstCompletion = false
	outcome.NewXP = outcome.OldXP
	outcome.NewLevel = outcome.OldLevel
	outcome.Progress.Attempts = 3

	pub := &fakePublisher{}
	h := NewRecordProgressHandler(&fakeProgressRepo{outcome: outcome}, &fakeStreakRepo{}, nil, pub, nil)

	result, err := h.Handle(context.Background(), RecordProgressCommand{
		UserID: "u1", LessonID: "l1", TargetStatus: "completed",
	})

	require.NoError(t, err)
	assert.False(t, result.FirstCompletion)
	assert.Equal(t, 0, result.XPEarned)
	assert.False(t, result.LeveledUp)

	types := pub.types()
	assert.NotContains(t, types, shared.EventLessonCompleted)
	assert.NotContains(t, types, shared.EventXPGained)
}

func TestRecordProgressStreakBrokenEvent(t *testing.T) {
	streak := progression.NewStreak("u1")
	streak.RecordActivity(time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC))
	streak.RecordActivity(time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC))
	streak.RecordActivity(time.Date(2026, 3, 3, 10, 0, 0, 0, time.UTC))

	pub := &fakePublisher{}
	h := NewRecordProgressHandler(
		&fakeProgressRepo{outcome: completionOutcome(10)},
		&fakeStreakRepo{streak: streak},
		nil, pub, nil,
	)

	result, err := h.Handle(context.Background(), RecordProgressCommand{
		UserID:       "u1",
		LessonID:     "l1",
		TargetStatus: "completed",
		Timestamp:    time.Date(2026, 3, 10, 14, 0, 0, 0, time.UTC),
	})

	require.NoError(t, err)
	assert.Equal(t, 1, result.CurrentStreak)
	assert.Contains(t, pub.types(), shared.EventStreakBroken)
}

func TestRecordProgressStreakFailureIsSwallowed(t *testing.T) {
	streaks := &fakeStreakRepo{getErr: errors.New("redis down")}
	h := NewRecordProgressHandler(&fakeProgressRepo{outcome: completionOutcome(10)}, streaks, nil, &fakePublisher{}, nil)

	result, err := h.Handle(context.Background(), RecordProgressCommand{
		UserID: "u1", LessonID: "l1", TargetStatus: "completed",
	})

	require.NoError(t, err)
	assert.Equal(t, 0, result.CurrentStreak)
	assert.False(t, result.StreakAdvanced)
}

func TestRecordProgressRepositoryErrorPropagates(t *testing.T) {
	h := NewRecordProgressHandler(&fakeProgressRepo{err: shared.ErrLessonNotFound}, &fakeStreakRepo{}, nil, nil, nil)

	_, err := h.Handle(context.Background(), RecordProgressCommand{
		UserID: "u1", LessonID: "missing", TargetStatus: "completed",
	})

	assert.ErrorIs(t, err, shared.ErrLessonNotFound)
}

func TestRecordProgressDefaultsTimestamp(t *testing.T) {
	repo := &fakeProgressRepo{outcome: completionOutcome(10)}
	h := NewRecordProgressHandler(repo, &fakeStreakRepo{}, nil, nil, nil)

	_, err := h.Handle(context.Background(), RecordProgressCommand{
		UserID: "u1", LessonID: "l1", TargetStatus: "completed",
	})

	require.NoError(t, err)
	assert.False(t, repo.lastSub.At.IsZero())
}
