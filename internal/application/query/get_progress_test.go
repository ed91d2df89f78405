package query

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codequest-edu/codequest-backend/internal/domain/lesson"
	"github.com/codequest-edu/codequest-backend/internal/domain/progression"
	"github.com/codequest-edu/codequest-backend/internal/domain/shared"
)

// ──────────────────────────────────────────────────────────────────────────────
// FAKES
// ──────────────────────────────────────────────────────────────────────────────

type fakeLessonRepo struct {
	lessons []*lesson.Lesson
}

func (f *fakeLessonRepo) Create(context.Context, *lesson.Lesson) error { return nil }

func (f *fakeLessonRepo) GetByID(_ context.Context, id string) (*lesson.Lesson, error) {
	for _, l := range f.lessons {
		if l.ID == id {
			return l, nil
		}
	}
	return nil, shared.ErrLessonNotFound
}

func (f *fakeLessonRepo) GetAll(context.Context) ([]*lesson.Lesson, error) {
	return f.lessons, nil
}

func (f *fakeLessonRepo) GetByModule(_ context.Context, module lesson.ModuleKey) ([]*lesson.Lesson, error) {
	var out []*lesson.Lesson
	for _, l := range f.lessons {
		if l.Module == module {
			out = append(out, l)
		}
	}
	return out, nil
}

func (f *fakeLessonRepo) Update(context.Context, *lesson.Lesson) error { return nil }
func (f *fakeLessonRepo) Delete(context.Context, string) error         { return nil }

func (f *fakeLessonRepo) Count(context.Context) (int, error) {
	return len(f.lessons), nil
}

type fakeProgressReader struct {
	records []*progression.Progress
}

func (f *fakeProgressReader) Get(_ context.Context, userID, lessonID string) (*progression.Progress, error) {
	for _, p := range f.records {
		if p.UserID == userID && p.LessonID == lessonID {
			return p, nil
		}
	}
	return nil, shared.ErrProgressNotFound
}

func (f *fakeProgressReader) GetAllForUser(_ context.Context, userID string) ([]*progression.Progress, error) {
	var out []*progression.Progress
	for _, p := range f.records {
		if p.UserID == userID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeProgressReader) CountCompleted(context.Context, string) (int, error) { return 0, nil }

func (f *fakeProgressReader) Snapshot(context.Context, string) (progression.Snapshot, error) {
	return progression.Snapshot{}, nil
}

func (f *fakeProgressReader) RecordSubmission(context.Context, string, string, progression.Submission) (*progression.SubmissionOutcome, error) {
	return nil, shared.ErrProgressNotFound
}

func mustLesson(t *testing.T, id string, module lesson.ModuleKey, order int, title string) *lesson.Lesson {
	t.Helper()
	l, err := lesson.NewLesson(id, module, order, title, 50, lesson.Content{})
	require.NoError(t, err)
	return l
}

// ──────────────────────────────────────────────────────────────────────────────
// TESTS
// ──────────────────────────────────────────────────────────────────────────────

func TestGetProgressMergesCatalogWithRecords(t *testing.T) {
	lessons := &fakeLessonRepo{lessons: []*lesson.Lesson{
		mustLesson(t, "l1", "python-basics", 0, "Variables"),
		mustLesson(t, "l2", "python-basics", 1, "Loops"),
		mustLesson(t, "l3", "ai-foundations", 0, "What is AI"),
	}}
	completedAt := time.Date(2026, 3, 10, 14, 0, 0, 0, time.UTC)
	score := 90
	records := &fakeProgressReader{records: []*progression.Progress{
		{UserID: "u1", LessonID: "l1", Status: progression.StatusCompleted, Score: &score, Attempts: 2, CompletedAt: &completedAt},
		{UserID: "u1", LessonID: "l2", Status: progression.StatusInProgress, Attempts: 1},
	}}

	result, err := NewGetProgressHandler(records, lessons).Handle(context.Background(), "u1")

	require.NoError(t, err)
	assert.Equal(t, 3, result.TotalLessons)
	assert.Equal(t, 1, result.CompletedCount)
	require.Len(t, result.Entries, 3)

	assert.Equal(t, "completed", result.Entries[0].Status)
	assert.Equal(t, 90, *result.Entries[0].Score)
	assert.Equal(t, "in_progress", result.Entries[1].Status)
	assert.Equal(t, "not_started", result.Entries[2].Status)
	assert.Equal(t, 0, result.Entries[2].Attempts)
}

func TestGetProgressRequiresUserID(t *testing.T) {
	h := NewGetProgressHandler(&fakeProgressReader{}, &fakeLessonRepo{})

	_, err := h.Handle(context.Background(), "")

	assert.Error(t, err)
}

func TestGetLessonProgressMissingRecordIsNotStarted(t *testing.T) {
	lessons := &fakeLessonRepo{lessons: []*lesson.Lesson{
		mustLesson(t, "l1", "python-basics", 0, "Variables"),
	}}
	h := NewGetLessonProgressHandler(&fakeProgressReader{}, lessons)

	entry, err := h.Handle(context.Background(), "u1", "l1")

	require.NoError(t, err)
	assert.Equal(t, "not_started", entry.Status)
	assert.Equal(t, "Variables", entry.Title)
	assert.Equal(t, 0, entry.Attempts)
}

func TestGetLessonProgressUnknownLessonFails(t *testing.T) {
	h := NewGetLessonProgressHandler(&fakeProgressReader{}, &fakeLessonRepo{})

	_, err := h.Handle(context.Background(), "u1", "missing")

	assert.ErrorIs(t, err, shared.ErrLessonNotFound)
}
