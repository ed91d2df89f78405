package lesson

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLessonValidation(t *testing.T) {
	content := Content{Difficulty: DifficultyBeginner, EstimatedMinutes: 15}

	_, err := NewLesson("l1", "a", 0, "Variables", 50, content)
	assert.Error(t, err, "module key too short")

	_, err = NewLesson("l1", "python basics", 0, "Variables", 50, content)
	assert.Error(t, err, "module key with whitespace")

	_, err = NewLesson("l1", "python-basics", -1, "Variables", 50, content)
	assert.Error(t, err, "negative order index")

	_, err = NewLesson("l1", "python-basics", 0, "   ", 50, content)
	assert.Error(t, err, "blank title")

	_, err = NewLesson("l1", "python-basics", 0, "Variables", 0, content)
	assert.Error(t, err, "zero xp reward")

	_, err = NewLesson("l1", "python-basics", 0, "Variables", 50, Content{Difficulty: "impossible"})
	assert.Error(t, err, "unknown difficulty")

	l, err := NewLesson("l1", "python-basics", 0, "  Variables  ", 50, content)
	require.NoError(t, err)
	assert.Equal(t, "Variables", l.Title, "title is trimmed")
}

func TestIsAILesson(t *testing.T) {
	ai, err := NewLesson("l1", AIModule, 0, "What is AI", 50, Content{})
	require.NoError(t, err)
	python, err := NewLesson("l2", "python-basics", 0, "Variables", 50, Content{})
	require.NoError(t, err)

	assert.True(t, ai.IsAILesson())
	assert.False(t, python.IsAILesson())
}

func TestMentionsFunction(t *testing.T) {
	l, err := NewLesson("l1", "python-basics", 3, "Writing Your First FUNCTION", 50, Content{})
	require.NoError(t, err)
	other, err := NewLesson("l2", "python-basics", 4, "Loops", 50, Content{})
	require.NoError(t, err)

	assert.True(t, l.MentionsFunction())
	assert.False(t, other.MentionsFunction())
}

func TestSummarize(t *testing.T) {
	l, err := NewLesson("l1", "python-basics", 2, "Variables", 50, Content{
		Difficulty: DifficultyBeginner,
		Body:       "long lesson text",
	})
	require.NoError(t, err)

	s := l.Summarize()

	assert.Equal(t, "l1", s.ID)
	assert.Equal(t, "python-basics", s.Module)
	assert.Equal(t, 2, s.OrderIndex)
	assert.Equal(t, DifficultyBeginner, s.Difficulty)
}
