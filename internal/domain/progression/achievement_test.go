package progression

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCriteriaSatisfiedByKind(t *testing.T) {
	snap := Snapshot{
		LessonsCompleted:         5,
		FunctionLessonsCompleted: 2,
		AILessonsCompleted:       1,
		CurrentStreak:            10,
	}

	assert.True(t, Criteria{Kind: CriteriaLessonCompleted, Count: 5}.Satisfied(snap))
	assert.False(t, Criteria{Kind: CriteriaLessonCompleted, Count: 6}.Satisfied(snap))
	assert.True(t, Criteria{Kind: CriteriaFunctionWritten, Count: 1}.Satisfied(snap))
	assert.True(t, Criteria{Kind: CriteriaAILessonCompleted, Count: 1}.Satisfied(snap))
}

func TestStreakCriteriaFailsClosed(t *testing.T) {
	snap := Snapshot{CurrentStreak: 100}

	assert.False(t, Criteria{Kind: CriteriaStreak, Count: 1}.Satisfied(snap))
}

func TestUnknownCriteriaKindFailsClosed(t *testing.T) {
	snap := Snapshot{LessonsCompleted: 1000}

	assert.False(t, Criteria{Kind: "world_domination", Count: 1}.Satisfied(snap))
	assert.False(t, CriteriaKind("world_domination").IsKnown())
}

func TestCriteriaValidate(t *testing.T) {
	assert.NoError(t, Criteria{Kind: CriteriaLessonCompleted, Count: 1}.Validate())
	assert.Error(t, Criteria{Kind: "", Count: 1}.Validate())
	assert.Error(t, Criteria{Kind: CriteriaLessonCompleted, Count: 0}.Validate())
}

func testRule(id, slug string, kind CriteriaKind, count int) *Achievement {
	return &Achievement{
		ID:       id,
		Slug:     slug,
		Name:     slug,
		Criteria: Criteria{Kind: kind, Count: count},
		XPReward: 50,
	}
}

func TestNewlySatisfiedAwardsMatchingRules(t *testing.T) {
	rules := []*Achievement{
		testRule("a1", "first-steps", CriteriaLessonCompleted, 1),
		testRule("a2", "getting-serious", CriteriaLessonCompleted, 5),
	}
	snap := Snapshot{LessonsCompleted: 3}

	satisfied, failures := NewEvaluator().NewlySatisfied(rules, nil, snap)

	require.Len(t, satisfied, 1)
	assert.Equal(t, "first-steps", satisfied[0].Slug)
	assert.Empty(t, failures)
}

func TestNewlySatisfiedSkipsAlreadyEarned(t *testing.T) {
	rules := []*Achievement{
		testRule("a1", "first-steps", CriteriaLessonCompleted, 1),
	}
	earned := map[string]struct{}{"a1": {}}

	satisfied, failures := NewEvaluator().NewlySatisfied(rules, earned, Snapshot{LessonsCompleted: 10})

	assert.Empty(t, satisfied)
	assert.Empty(t, failures)
}

func TestNewlySatisfiedIsolatesRuleFailures(t *testing.T) {
	rules := []*Achievement{
		{ID: "bad", Slug: "broken", Name: "broken", Criteria: Criteria{Kind: CriteriaLessonCompleted, Count: 0}},
		testRule("a1", "first-steps", CriteriaLessonCompleted, 1),
	}

	satisfied, failures := NewEvaluator().NewlySatisfied(rules, nil, Snapshot{LessonsCompleted: 1})

	require.Len(t, satisfied, 1)
	assert.Equal(t, "first-steps", satisfied[0].Slug)
	require.Len(t, failures, 1)
	assert.Equal(t, "broken", failures[0].Slug)
	assert.Error(t, failures[0].Err)
}

func TestNewlySatisfiedIdempotentSecondRun(t *testing.T) {
	rules := []*Achievement{
		testRule("a1", "first-steps", CriteriaLessonCompleted, 1),
	}
	snap := Snapshot{LessonsCompleted: 2}

	first, _ := NewEvaluator().NewlySatisfied(rules, nil, snap)
	require.Len(t, first, 1)

	earned := map[string]struct{}{first[0].ID: {}}
	second, _ := NewEvaluator().NewlySatisfied(rules, earned, snap)

	assert.Empty(t, second)
}
