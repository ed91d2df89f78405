package lesson

import "context"

// ══════════════════════════════════════════════════════════════════════════════
// REPOSITORY INTERFACE
// Implementations live in infrastructure/persistence.
// ══════════════════════════════════════════════════════════════════════════════

// Repository defines the storage contract for the lesson catalog.
type Repository interface {
	// Create creates a new lesson.
	// Returns ErrLessonAlreadyExists if (module, order_index) is taken.
	Create(ctx context.Context, l *Lesson) error

	// GetByID returns a lesson by ID.
	// Returns ErrLessonNotFound if the lesson does not exist.
	GetByID(ctx context.Context, id string) (*Lesson, error)

	// GetAll returns the whole catalog ordered by (module, order_index).
	GetAll(ctx context.Context) ([]*Lesson, error)

	// GetByModule returns the lessons of one module ordered by order_index.
	GetByModule(ctx context.Context, module ModuleKey) ([]*Lesson, error)

	// Update persists all mutable lesson fields.
	// Returns ErrLessonNotFound if the lesson does not exist.
	Update(ctx context.Context, l *Lesson) error

	// Delete removes a lesson.
	// Returns ErrLessonNotFound if the lesson does not exist.
	Delete(ctx context.Context, id string) error

	// Count returns the catalog size.
	Count(ctx context.Context) (int, error)
}
