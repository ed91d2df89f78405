// Package shared contains common domain types, errors, events, and value objects
// that are used across all domain packages.
package shared

import (
	"fmt"
	"regexp"
	"strings"
)

// ═══════════════════════════════════════════════════════════════════════════
// ID Value Objects
// ═══════════════════════════════════════════════════════════════════════════

// UserID identifies a user. IDs are UUIDs generated at registration.
type UserID string

// IsValid checks that the user ID is a non-empty UUID-shaped string.
func (id UserID) IsValid() bool {
	return uuidRegex.MatchString(string(id))
}

// String returns the string representation.
func (id UserID) String() string {
	return string(id)
}

// LessonID identifies a lesson.
type LessonID string

// IsValid checks that the lesson ID is a non-empty UUID-shaped string.
func (id LessonID) IsValid() bool {
	return uuidRegex.MatchString(string(id))
}

// String returns the string representation.
func (id LessonID) String() string {
	return string(id)
}

// AchievementID identifies an achievement rule.
type AchievementID string

// IsValid checks that the achievement ID is a non-empty UUID-shaped string.
func (id AchievementID) IsValid() bool {
	return uuidRegex.MatchString(string(id))
}

// String returns the string representation.
func (id AchievementID) String() string {
	return string(id)
}

var uuidRegex = regexp.MustCompile(`^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}$`)

// ═══════════════════════════════════════════════════════════════════════════
// Email Value Object
// ═══════════════════════════════════════════════════════════════════════════

// Email represents a validated email address.
type Email string

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// ErrInvalidEmail indicates a malformed email address.
var ErrInvalidEmail = NewDomainError("shared", "NewEmail", ErrValidation, "invalid email address")

// NewEmail normalizes and validates an email address.
func NewEmail(raw string) (Email, error) {
	e := strings.ToLower(strings.TrimSpace(raw))
	if !emailRegex.MatchString(e) {
		return "", ErrInvalidEmail
	}
	return Email(e), nil
}

// String returns the string representation.
func (e Email) String() string {
	return string(e)
}

// IsValid reports whether the email matches the expected format.
func (e Email) IsValid() bool {
	return emailRegex.MatchString(string(e))
}

// ═══════════════════════════════════════════════════════════════════════════
// GradeLevel Value Object
// ═══════════════════════════════════════════════════════════════════════════

// GradeLevel represents a K-12 grade (0 = kindergarten, 1..12).
type GradeLevel int

// IsValid reports whether the grade is within the K-12 range.
func (g GradeLevel) IsValid() bool {
	return g >= 0 && g <= 12
}

// String returns a human-readable representation.
func (g GradeLevel) String() string {
	if g == 0 {
		return "K"
	}
	return fmt.Sprintf("%d", int(g))
}
