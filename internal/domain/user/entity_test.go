package user

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codequest-edu/codequest-backend/internal/domain/shared"
)

func newTestUser(t *testing.T) *User {
	t.Helper()
	email, err := shared.NewEmail("student@school.edu")
	require.NoError(t, err)
	u, err := NewUser("d9b2d63d-a233-4123-847a-fd00b4edb613", email, "correct-horse", "Alex", RoleStudent, 5)
	require.NoError(t, err)
	return u
}

func TestNewUserDefaults(t *testing.T) {
	u := newTestUser(t)

	assert.Equal(t, 0, u.XPTotal)
	assert.Equal(t, 1, u.Level)
	assert.Equal(t, StatusActive, u.Status)
	assert.True(t, u.IsStudent())
	assert.NotEmpty(t, u.PasswordHash)
}

func TestNewUserValidation(t *testing.T) {
	email, _ := shared.NewEmail("student@school.edu")

	_, err := NewUser("id", email, "correct-horse", "", RoleStudent, 5)
	assert.Error(t, err, "display name required")

	_, err = NewUser("id", email, "short", "Alex", RoleStudent, 5)
	assert.Error(t, err, "password too short")

	_, err = NewUser("id", email, "correct-horse", "Alex", Role("wizard"), 5)
	assert.ErrorIs(t, err, shared.ErrInvalidRole)

	_, err = NewUser("id", email, "correct-horse", "Alex", RoleStudent, 13)
	assert.Error(t, err, "grade out of range")
}

func TestCheckPassword(t *testing.T) {
	u := newTestUser(t)

	assert.NoError(t, u.CheckPassword("correct-horse"))
	assert.ErrorIs(t, u.CheckPassword("wrong"), shared.ErrInvalidCredential)
}

func TestAddXPRejectsNegativeDelta(t *testing.T) {
	u := newTestUser(t)

	total, err := u.AddXP(150)
	require.NoError(t, err)
	assert.Equal(t, 150, total)

	_, err = u.AddXP(-10)
	assert.ErrorIs(t, err, shared.ErrNegativeXP)
	assert.Equal(t, 150, u.XPTotal)
}

func TestMarkActiveReactivatesInactiveUser(t *testing.T) {
	u := newTestUser(t)
	u.MarkInactive()
	require.Equal(t, StatusInactive, u.Status)

	u.MarkActive(time.Now().UTC())

	assert.Equal(t, StatusActive, u.Status)
}

func TestMarkInactiveLeavesSuspendedAlone(t *testing.T) {
	u := newTestUser(t)
	u.Status = StatusSuspended

	u.MarkInactive()

	assert.Equal(t, StatusSuspended, u.Status)
}

func TestDaysInactive(t *testing.T) {
	u := newTestUser(t)
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	u.LastActiveAt = now.AddDate(0, 0, -31)

	assert.Equal(t, 31, u.DaysInactive(now))
}

func TestParseRole(t *testing.T) {
	r, err := ParseRole("")
	require.NoError(t, err)
	assert.Equal(t, RoleStudent, r)

	r, err = ParseRole("  Admin ")
	require.NoError(t, err)
	assert.Equal(t, RoleAdmin, r)

	_, err = ParseRole("wizard")
	assert.ErrorIs(t, err, shared.ErrInvalidRole)
}

func TestRolePermissions(t *testing.T) {
	assert.False(t, RoleStudent.CanManageLessons())
	assert.False(t, RoleTeacher.CanManageLessons())
	assert.True(t, RoleAdmin.CanManageLessons())
	assert.True(t, RoleSuperAdmin.CanManageUsers())
}

func TestStatusCanSubmitProgress(t *testing.T) {
	assert.True(t, StatusActive.CanSubmitProgress())
	assert.True(t, StatusInactive.CanSubmitProgress())
	assert.False(t, StatusSuspended.CanSubmitProgress())
}
