package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/codequest-edu/codequest-backend/internal/domain/lesson"
	"github.com/codequest-edu/codequest-backend/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// LESSON REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// LessonRepository implements lesson.Repository for PostgreSQL.
type LessonRepository struct {
	conn *Connection
}

// NewLessonRepository creates a new LessonRepository.
func NewLessonRepository(conn *Connection) *LessonRepository {
	return &LessonRepository{conn: conn}
}

const lessonColumns = `id, module, title, order_index, xp_reward, content, created_at, updated_at`

// Create creates a new lesson.
func (r *LessonRepository) Create(ctx context.Context, l *lesson.Lesson) error {
	query := `
		INSERT INTO lessons (id, module, title, order_index, xp_reward, content, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	contentJSON, err := json.Marshal(l.Content)
	if err != nil {
		return fmt.Errorf("failed to marshal lesson content: %w", err)
	}

	_, err = r.conn.Exec(ctx, query,
		l.ID,
		string(l.Module),
		l.Title,
		l.OrderIndex,
		l.XPReward,
		contentJSON,
		l.CreatedAt,
		l.UpdatedAt,
	)
	if err != nil {
		if IsUniqueViolation(err) {
			return shared.ErrLessonAlreadyExists
		}
		return fmt.Errorf("failed to create lesson: %w", err)
	}

	return nil
}

// GetByID returns a lesson by ID.
func (r *LessonRepository) GetByID(ctx context.Context, id string) (*lesson.Lesson, error) {
	query := fmt.Sprintf(`SELECT %s FROM lessons WHERE id = $1`, lessonColumns)

	row := r.conn.QueryRow(ctx, query, id)
	return r.scanLesson(row)
}

// GetAll returns the whole catalog ordered by (module, order_index).
func (r *LessonRepository) GetAll(ctx context.Context) ([]*lesson.Lesson, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM lessons
		ORDER BY module ASC, order_index ASC
	`, lessonColumns)

	rows, err := r.conn.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query lessons: %w", err)
	}
	defer rows.Close()

	return r.scanLessons(rows)
}

// GetByModule returns the lessons of one module ordered by order_index.
func (r *LessonRepository) GetByModule(ctx context.Context, module lesson.ModuleKey) ([]*lesson.Lesson, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM lessons
		WHERE module = $1
		ORDER BY order_index ASC
	`, lessonColumns)

	rows, err := r.conn.Query(ctx, query, string(module))
	if err != nil {
		return nil, fmt.Errorf("failed to query lessons by module: %w", err)
	}
	defer rows.Close()

	return r.scanLessons(rows)
}

// Update persists all mutable lesson fields.
func (r *LessonRepository) Update(ctx context.Context, l *lesson.Lesson) error {
	query := `
		UPDATE lessons SET
			module = $1,
			title = $2,
			order_index = $3,
			xp_reward = $4,
			content = $5,
			updated_at = $6
		WHERE id = $7
	`

	contentJSON, err := json.Marshal(l.Content)
	if err != nil {
		return fmt.Errorf("failed to marshal lesson content: %w", err)
	}

	result, err := r.conn.Exec(ctx, query,
		string(l.Module),
		l.Title,
		l.OrderIndex,
		l.XPReward,
		contentJSON,
		time.Now().UTC(),
		l.ID,
	)
	if err != nil {
		if IsUniqueViolation(err) {
			return shared.ErrLessonAlreadyExists
		}
		return fmt.Errorf("failed to update lesson: %w", err)
	}

	if result.RowsAffected() == 0 {
		return shared.ErrLessonNotFound
	}

	return nil
}

// Delete removes a lesson. Progress rows referencing it cascade.
func (r *LessonRepository) Delete(ctx context.Context, id string) error {
	result, err := r.conn.Exec(ctx, `DELETE FROM lessons WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete lesson: %w", err)
	}

	if result.RowsAffected() == 0 {
		return shared.ErrLessonNotFound
	}

	return nil
}

// Count returns the catalog size.
func (r *LessonRepository) Count(ctx context.Context) (int, error) {
	var count int
	err := r.conn.QueryRow(ctx, "SELECT COUNT(*) FROM lessons").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count lessons: %w", err)
	}
	return count, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Scanning helpers
// ─────────────────────────────────────────────────────────────────────────────

func (r *LessonRepository) scanLesson(row pgx.Row) (*lesson.Lesson, error) {
	var (
		l           lesson.Lesson
		module      string
		contentJSON []byte
	)

	err := row.Scan(
		&l.ID,
		&module,
		&l.Title,
		&l.OrderIndex,
		&l.XPReward,
		&contentJSON,
		&l.CreatedAt,
		&l.UpdatedAt,
	)
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrLessonNotFound
		}
		return nil, fmt.Errorf("failed to scan lesson: %w", err)
	}

	l.Module = lesson.ModuleKey(module)
	if len(contentJSON) > 0 {
		if err := json.Unmarshal(contentJSON, &l.Content); err != nil {
			return nil, fmt.Errorf("failed to unmarshal lesson content: %w", err)
		}
	}

	return &l, nil
}

func (r *LessonRepository) scanLessons(rows pgx.Rows) ([]*lesson.Lesson, error) {
	lessons := make([]*lesson.Lesson, 0)
	for rows.Next() {
		l, err := r.scanLesson(rows)
		if err != nil {
			return nil, err
		}
		lessons = append(lessons, l)
	}
	return lessons, rows.Err()
}
