package user

import (
	"context"
	"time"

	"github.com/codequest-edu/codequest-backend/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// REPOSITORY INTERFACES
// These interfaces define the storage contract for users.
// Implementations live in infrastructure/persistence.
// ══════════════════════════════════════════════════════════════════════════════

// ListOptions controls pagination and ordering for list queries.
type ListOptions struct {
	// Limit - maximum number of rows (0 = repository default).
	Limit int

	// Offset - rows to skip.
	Offset int

	// OrderByXP - order by XP descending instead of creation time.
	OrderByXP bool
}

// Repository defines the CRUD operations for users.
type Repository interface {
	// Create creates a new user.
	// Returns ErrUserAlreadyExists / ErrEmailTaken on uniqueness conflicts.
	Create(ctx context.Context, u *User) error

	// GetByID returns a user by internal ID.
	// Returns ErrUserNotFound if the user does not exist.
	GetByID(ctx context.Context, id string) (*User, error)

	// GetByEmail returns a user by normalized email.
	// Returns ErrUserNotFound if the user does not exist.
	GetByEmail(ctx context.Context, email shared.Email) (*User, error)

	// Update persists all mutable user fields.
	// Returns ErrUserNotFound if the user does not exist.
	Update(ctx context.Context, u *User) error

	// Delete removes the user. Progress and achievement rows cascade.
	// Returns ErrUserNotFound if the user does not exist.
	Delete(ctx context.Context, id string) error

	// GetAll returns users with pagination.
	GetAll(ctx context.Context, opts ListOptions) ([]*User, error)

	// Count returns the total number of users.
	Count(ctx context.Context) (int, error)

	// FindInactive returns active users whose last activity is older than
	// the threshold.
	FindInactive(ctx context.Context, threshold time.Duration) ([]*User, error)

	// TopByXP returns students ordered by XP descending, optionally filtered
	// by grade level (nil = all grades). Used as the leaderboard source of
	// truth and by the cache rebuild job.
	TopByXP(ctx context.Context, grade *shared.GradeLevel, opts ListOptions) ([]*User, error)
}
