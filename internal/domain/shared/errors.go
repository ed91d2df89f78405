// Package shared contains common domain types, errors, events, and value objects
// that are used across all domain packages. This package has zero external dependencies.
package shared

import (
	"errors"
	"fmt"
)

// Base domain errors that can be used for error checking with errors.Is().
var (
	// Entity errors
	ErrNotFound      = errors.New("entity not found")
	ErrAlreadyExists = errors.New("entity already exists")
	ErrInvalidEntity = errors.New("invalid entity")

	// Validation errors
	ErrValidation      = errors.New("validation error")
	ErrInvalidID       = errors.New("invalid ID")
	ErrInvalidInput    = errors.New("invalid input")
	ErrEmptyValue      = errors.New("value cannot be empty")
	ErrNegativeValue   = errors.New("value cannot be negative")
	ErrValueOutOfRange = errors.New("value out of range")

	// State errors
	ErrInvalidState     = errors.New("invalid state")
	ErrStateTransition  = errors.New("invalid state transition")
	ErrAlreadyProcessed = errors.New("already processed")
	ErrExpired          = errors.New("expired")

	// Authorization errors
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")

	// Concurrency errors
	ErrConcurrentModification = errors.New("concurrent modification detected")

	// Infrastructure errors
	ErrStoreUnavailable = errors.New("store unavailable")
	ErrTimeout          = errors.New("operation timeout")
)

// DomainError represents a domain-specific error with context.
type DomainError struct {
	Domain  string // e.g., "user", "lesson", "progression"
	Op      string // Operation that failed, e.g., "Create", "Record"
	Kind    error  // Base error type for errors.Is() checking
	Message string // Human-readable message
	Err     error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s.%s: %s: %v", e.Domain, e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("%s.%s: %s", e.Domain, e.Op, e.Message)
}

// Unwrap returns the underlying error for errors.Unwrap().
func (e *DomainError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return e.Kind
}

// Is implements errors.Is() matching.
func (e *DomainError) Is(target error) bool {
	if e.Kind != nil && errors.Is(e.Kind, target) {
		return true
	}
	if e.Err != nil && errors.Is(e.Err, target) {
		return true
	}
	return false
}

// NewDomainError creates a new domain error.
func NewDomainError(domain, op string, kind error, message string) *DomainError {
	return &DomainError{
		Domain:  domain,
		Op:      op,
		Kind:    kind,
		Message: message,
	}
}

// WrapError wraps an existing error with domain context.
func WrapError(domain, op string, kind error, message string, err error) *DomainError {
	return &DomainError{
		Domain:  domain,
		Op:      op,
		Kind:    kind,
		Message: message,
		Err:     err,
	}
}

// User domain errors
var (
	ErrUserNotFound      = NewDomainError("user", "Find", ErrNotFound, "user not found")
	ErrUserAlreadyExists = NewDomainError("user", "Create", ErrAlreadyExists, "user already exists")
	ErrEmailTaken        = NewDomainError("user", "Create", ErrAlreadyExists, "email already registered")
	ErrInvalidCredential = NewDomainError("user", "Authenticate", ErrUnauthorized, "invalid email or password")
	ErrUserNotActive     = NewDomainError("user", "CheckStatus", ErrInvalidState, "user is not active")
	ErrInvalidRole       = NewDomainError("user", "Validate", ErrInvalidInput, "invalid role")
)

// Lesson domain errors
var (
	ErrLessonNotFound      = NewDomainError("lesson", "Find", ErrNotFound, "lesson not found")
	ErrLessonAlreadyExists = NewDomainError("lesson", "Create", ErrAlreadyExists, "lesson already exists at this position")
	ErrInvalidXPReward     = NewDomainError("lesson", "Validate", ErrValueOutOfRange, "xp reward must be positive")
)

// Progression domain errors
var (
	ErrProgressNotFound      = NewDomainError("progression", "Find", ErrNotFound, "progress record not found")
	ErrInvalidScore          = NewDomainError("progression", "Validate", ErrValueOutOfRange, "score must be between 0 and 100")
	ErrInvalidProgressStatus = NewDomainError("progression", "Validate", ErrInvalidInput, "invalid progress status")
	ErrAchievementNotFound   = NewDomainError("progression", "Find", ErrNotFound, "achievement not found")
	ErrAchievementAlreadyWon = NewDomainError("progression", "Award", ErrAlreadyProcessed, "achievement already earned")
	ErrUnknownCriteria       = NewDomainError("progression", "Evaluate", ErrInvalidInput, "unknown achievement criteria")
	ErrNegativeXP            = NewDomainError("progression", "Validate", ErrNegativeValue, "xp cannot be negative")
)

// Leaderboard domain errors
var (
	ErrLeaderboardEmpty = NewDomainError("leaderboard", "Find", ErrNotFound, "leaderboard is empty")
	ErrInvalidPage      = NewDomainError("leaderboard", "Validate", ErrValueOutOfRange, "invalid page parameters")
)

// IsNotFound checks if the error is a "not found" error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsAlreadyExists checks if the error is an "already exists" error.
func IsAlreadyExists(err error) bool {
	return errors.Is(err, ErrAlreadyExists)
}

// IsValidation checks if the error is a validation error.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrInvalidID) ||
		errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrEmptyValue) ||
		errors.Is(err, ErrNegativeValue) ||
		errors.Is(err, ErrValueOutOfRange) ||
		errors.Is(err, ErrInvalidState)
}

// IsUnauthorized checks if the error is an authentication failure.
func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrUnauthorized)
}

// IsRetryable checks if the operation can be retried.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrStoreUnavailable) ||
		errors.Is(err, ErrTimeout) ||
		errors.Is(err, ErrConcurrentModification)
}
