// Package user contains the user domain model for CodeQuest.
// This is core business logic - there are no infrastructure dependencies here
// except password hashing.
package user

import (
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/codequest-edu/codequest-backend/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// ENUMS
// ══════════════════════════════════════════════════════════════════════════════

// Role defines what a user is allowed to do on the platform.
type Role string

const (
	// RoleStudent - a learner working through lessons.
	RoleStudent Role = "student"
	// RoleTeacher - manages students and views their progress.
	RoleTeacher Role = "teacher"
	// RoleAdmin - manages lessons and users.
	RoleAdmin Role = "admin"
	// RoleSuperAdmin - full platform control.
	RoleSuperAdmin Role = "superadmin"
)

// IsValid checks that the role is one of the known roles.
func (r Role) IsValid() bool {
	switch r {
	case RoleStudent, RoleTeacher, RoleAdmin, RoleSuperAdmin:
		return true
	default:
		return false
	}
}

// CanManageLessons returns true if the role may create, update or delete lessons.
func (r Role) CanManageLessons() bool {
	return r == RoleAdmin || r == RoleSuperAdmin
}

// CanManageUsers returns true if the role may delete users.
func (r Role) CanManageUsers() bool {
	return r == RoleAdmin || r == RoleSuperAdmin
}

// ParseRole parses a role string, defaulting to student for empty input.
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	if r == "" {
		return RoleStudent, nil
	}
	if !r.IsValid() {
		return "", shared.ErrInvalidRole
	}
	return r, nil
}

// Status defines the user's lifecycle status.
type Status string

const (
	// StatusActive - the user is actively using the platform.
	StatusActive Status = "active"
	// StatusInactive - no activity beyond the configured threshold.
	StatusInactive Status = "inactive"
	// StatusSuspended - access temporarily revoked by an admin.
	StatusSuspended Status = "suspended"
)

// IsValid checks that the status is one of the known statuses.
func (s Status) IsValid() bool {
	switch s {
	case StatusActive, StatusInactive, StatusSuspended:
		return true
	default:
		return false
	}
}

// CanSubmitProgress returns true if the user may record lesson progress.
func (s Status) CanSubmitProgress() bool {
	return s == StatusActive || s == StatusInactive
}

// ══════════════════════════════════════════════════════════════════════════════
// ENTITY
// ══════════════════════════════════════════════════════════════════════════════

// User is the aggregate root for a platform account.
//
// XPTotal is monotonically non-decreasing and is mutated only by the
// progression engine (lesson completion and achievement bonuses). Level is
// derived from XPTotal and stored denormalized for leaderboard queries.
type User struct {
	// ID - internal UUID.
	ID string

	// Email - unique, normalized to lowercase.
	Email shared.Email

	// PasswordHash - bcrypt hash of the password.
	PasswordHash []byte

	// DisplayName - name shown on leaderboards and dashboards.
	DisplayName string

	// Role - student, teacher, admin or superadmin.
	Role Role

	// GradeLevel - K-12 grade (0 = kindergarten).
	GradeLevel shared.GradeLevel

	// XPTotal - lifetime XP. Never decreases.
	XPTotal int

	// Level - derived from XPTotal, stored denormalized.
	Level int

	// Status - lifecycle status.
	Status Status

	// LastActiveAt - last time the user submitted anything.
	LastActiveAt time.Time

	// CreatedAt / UpdatedAt - audit timestamps.
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewUser creates a user with a hashed password and student defaults.
func NewUser(id string, email shared.Email, password, displayName string, role Role, grade shared.GradeLevel) (*User, error) {
	if !email.IsValid() {
		return nil, shared.ErrInvalidEmail
	}
	if !role.IsValid() {
		return nil, shared.ErrInvalidRole
	}
	if !grade.IsValid() {
		return nil, shared.NewDomainError("user", "New", shared.ErrValueOutOfRange, "grade level must be within K-12")
	}
	displayName = strings.TrimSpace(displayName)
	if displayName == "" {
		return nil, shared.NewDomainError("user", "New", shared.ErrEmptyValue, "display name is required")
	}

	now := time.Now().UTC()
	u := &User{
		ID:           id,
		Email:        email,
		DisplayName:  displayName,
		Role:         role,
		GradeLevel:   grade,
		XPTotal:      0,
		Level:        1,
		Status:       StatusActive,
		LastActiveAt: now,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := u.SetPassword(password); err != nil {
		return nil, err
	}
	return u, nil
}

// SetPassword hashes and stores the password.
func (u *User) SetPassword(password string) error {
	if len(password) < 8 {
		return shared.NewDomainError("user", "SetPassword", shared.ErrValidation, "password must be at least 8 characters")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return shared.WrapError("user", "SetPassword", shared.ErrInvalidInput, "failed to hash password", err)
	}
	u.PasswordHash = hash
	return nil
}

// CheckPassword verifies a password against the stored hash.
func (u *User) CheckPassword(password string) error {
	if err := bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(password)); err != nil {
		return shared.ErrInvalidCredential
	}
	return nil
}

// AddXP increases the user's XP by delta and returns the new total.
// Negative deltas are rejected: XP is monotonically non-decreasing.
func (u *User) AddXP(delta int) (int, error) {
	if delta < 0 {
		return u.XPTotal, shared.ErrNegativeXP
	}
	u.XPTotal += delta
	u.UpdatedAt = time.Now().UTC()
	return u.XPTotal, nil
}

// MarkActive records activity and reactivates an inactive user.
func (u *User) MarkActive(at time.Time) {
	u.LastActiveAt = at
	if u.Status == StatusInactive {
		u.Status = StatusActive
	}
	u.UpdatedAt = time.Now().UTC()
}

// MarkInactive transitions an active user to inactive.
func (u *User) MarkInactive() {
	if u.Status == StatusActive {
		u.Status = StatusInactive
		u.UpdatedAt = time.Now().UTC()
	}
}

// DaysInactive returns full days since the last activity.
func (u *User) DaysInactive(now time.Time) int {
	if u.LastActiveAt.IsZero() {
		return 0
	}
	return int(now.Sub(u.LastActiveAt).Hours() / 24)
}

// IsStudent returns true for student accounts.
func (u *User) IsStudent() bool {
	return u.Role == RoleStudent
}
