package saga

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

type fakeAchievementRepo struct {
	rules    []*progression.Achievement
	earned   map[string]struct{}
	outcomes map[string]*progression.AwardOutcome
	awardErr map[string]error
	awards   []string
}

func (f *fakeAchievementRepo) GetAllRules(context.Context) ([]*progression.Achievement, error) {
	return f.rules, nil
}

func (f *fakeAchievementRepo) GetBySlug(context.Context, string) (*progression.Achievement, error) {
	return nil, shared.ErrAchievementNotFound
}

func (f *fakeAchievementRepo) GetEarnedIDs(context.Context, string) (map[string]struct{}, error) {
	return f.earned, nil
}

func (f *fakeAchievementRepo) GetEarned(context.Context, string) ([]progression.Earned, error) {
	return nil, nil
}

func (f *fakeAchievementRepo) Award(_ context.Context, _ string, a *progression.Achievement, _ time.Time) (*progression.AwardOutcome, error) {
	if err := f.awardErr[a.Slug]; err != nil {
		return nil, err
	}
	f.awards = append(f.awards, a.Slug)
	if outcome, ok := f.outcomes[a.Slug]; ok {
		return outcome, nil
	}
	return &progression.AwardOutcome{Awarded: true, OldXP: 0, NewXP: a.XPReward, OldLevel: 1, NewLevel: progression.LevelFromXP(a.XPReward)}, nil
}

type fakeSnapshotRepo struct {
	snapshot progression.Snapshot
}

func (f *fakeSnapshotRepo) Get(context.Context, string, string) (*progression.Progress, error) {
	return nil, shared.ErrProgressNotFound
}

func (f *fakeSnapshotRepo) GetAllForUser(context.Context, string) ([]*progression.Progress, error) {
	return nil, nil
}

func (f *fakeSnapshotRepo) CountCompleted(context.Context, string) (int, error) {
	return f.snapshot.LessonsCompleted, nil
}

func (f *fakeSnapshotRepo) Snapshot(context.Context, string) (progression.Snapshot, error) {
	return f.snapshot, nil
}

func (f *fakeSnapshotRepo) RecordSubmission(context.Context, string, string, progression.Submission) (*progression.SubmissionOutcome, error) {
	return nil, errors.New("not used")
}

type capturingPublisher struct {
	events []shared.Event
}

func (c *capturingPublisher) Publish(event shared.Event) error {
	c.events = append(c.events, event)
	return nil
}

func rule(id, slug string, count, xp int) *progression.Achievement {
	return &progression.Achievement{
		ID:       id,
		Slug:     slug,
		Name:     slug,
		Criteria: progression.Criteria{Kind: progression.CriteriaLessonCompleted, Count: count},
		XPReward: xp,
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// TESTS
// ──────────────────────────────────────────────────────────────────────────────

func TestFlowAwardsNewlySatisfiedRules(t *testing.T) {
	repo := &fakeAchievementRepo{
		rules: []*progression.Achievement{
			rule("a1", "first-steps", 1, 50),
			rule("a2", "five-lessons", 5, 100),
		},
	}
	pub := &capturingPublisher{}
	flow := NewAchievementFlow(repo, &fakeSnapshotRepo{snapshot: progression.Snapshot{LessonsCompleted: 2}}, pub, nil)

	result, err := flow.Run(context.Background(), "u1")

	require.NoError(t, err)
	require.Len(t, result.Awarded, 1)
	assert.Equal(t, "first-steps", result.Awarded[0].Achievement.Slug)
	assert.Equal(t, 50, result.Awarded[0].XPBonus)
	assert.Equal(t, []string{"first-steps"}, repo.awards)

	var types []shared.EventType
	for _, e := range pub.events {
		types = append(types, e.EventType())
	}
	assert.Contains(t, types, shared.EventAchievementUnlocked)
	assert.Contains(t, types, shared.EventXPGained)
}

func TestFlowSkipsEarnedRules(t *testing.T) {
	repo := &fakeAchievementRepo{
		rules:  []*progression.Achievement{rule("a1", "first-steps", 1, 50)},
		earned: map[string]struct{}{"a1": {}},
	}
	flow := NewAchievementFlow(repo, &fakeSnapshotRepo{snapshot: progression.Snapshot{LessonsCompleted: 10}}, nil, nil)

	result, err := flow.Run(context.Background(), "u1")

	require.NoError(t, err)
	assert.Empty(t, result.Awarded)
	assert.Empty(t, repo.awards)
}

func TestFlowCountsLostRaces(t *testing.T) {
	repo := &fakeAchievementRepo{
		rules: []*progression.Achievement{rule("a1", "first-steps", 1, 50)},
		outcomes: map[string]*progression.AwardOutcome{
			// Concurrent evaluation got there first.
			"first-steps": {Awarded: false},
		},
	}
	flow := NewAchievementFlow(repo, &fakeSnapshotRepo{snapshot: progression.Snapshot{LessonsCompleted: 1}}, nil, nil)

	result, err := flow.Run(context.Background(), "u1")

	require.NoError(t, err)
	assert.Empty(t, result.Awarded)
	assert.Equal(t, 1, result.SkippedExisting)
}

func TestFlowIsolatesAwardFailures(t *testing.T) {
	repo := &fakeAchievementRepo{
		rules: []*progression.Achievement{
			rule("a1", "flaky", 1, 50),
			rule("a2", "solid", 1, 25),
		},
		awardErr: map[string]error{"flaky": errors.New("insert failed")},
	}
	flow := NewAchievementFlow(repo, &fakeSnapshotRepo{snapshot: progression.Snapshot{LessonsCompleted: 1}}, nil, nil)

	result, err := flow.Run(context.Background(), "u1")

	require.NoError(t, err)
	require.Len(t, result.Awarded, 1)
	assert.Equal(t, "solid", result.Awarded[0].Achievement.Slug)
}

func TestFlowReportsRuleFailures(t *testing.T) {
	broken := rule("bad", "broken", 1, 50)
	broken.Criteria.Count = 0

	repo := &fakeAchievementRepo{
		rules: []*progression.Achievement{broken, rule("a1", "first-steps", 1, 50)},
	}
	flow := NewAchievementFlow(repo, &fakeSnapshotRepo{snapshot: progression.Snapshot{LessonsCompleted: 1}}, nil, nil)

	result, err := flow.Run(context.Background(), "u1")

	require.NoError(t, err)
	assert.Equal(t, 1, result.RuleFailures)
	require.Len(t, result.Awarded, 1)
	assert.Equal(t, "first-steps", result.Awarded[0].Achievement.Slug)
}
