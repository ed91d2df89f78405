package shared

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEmailNormalizes(t *testing.T) {
	e, err := NewEmail("  Student@School.EDU ")

	require.NoError(t, err)
	assert.Equal(t, "student@school.edu", e.String())
	assert.True(t, e.IsValid())
}

func TestNewEmailRejectsMalformed(t *testing.T) {
	for _, raw := range []string{"", "plainaddress", "@school.edu", "student@", "student@school"} {
		_, err := NewEmail(raw)
		assert.ErrorIs(t, err, ErrInvalidEmail, "input %q", raw)
	}
}

func TestGradeLevelRange(t *testing.T) {
	assert.True(t, GradeLevel(0).IsValid())
	assert.True(t, GradeLevel(12).IsValid())
	assert.False(t, GradeLevel(-1).IsValid())
	assert.False(t, GradeLevel(13).IsValid())
}

func TestGradeLevelStringKindergarten(t *testing.T) {
	assert.Equal(t, "K", GradeLevel(0).String())
	assert.Equal(t, "7", GradeLevel(7).String())
}

func TestIDValidation(t *testing.T) {
	assert.True(t, UserID("d9b2d63d-a233-4123-847a-fd00b4edb613").IsValid())
	assert.False(t, UserID("").IsValid())
	assert.False(t, UserID("not-a-uuid").IsValid())
	assert.True(t, LessonID("D9B2D63D-A233-4123-847A-FD00B4EDB613").IsValid())
}
