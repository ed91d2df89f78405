package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/codequest-edu/codequest-backend/internal/domain/shared"
	"github.com/codequest-edu/codequest-backend/internal/domain/user"
)

// ══════════════════════════════════════════════════════════════════════════════
// USER REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// UserRepository implements user.Repository for PostgreSQL.
type UserRepository struct {
	conn *Connection
}

// NewUserRepository creates a new UserRepository.
func NewUserRepository(conn *Connection) *UserRepository {
	return &UserRepository{conn: conn}
}

const userColumns = `id, email, password_hash, display_name, role, grade_level,
	   xp_total, level, status, last_active_at, created_at, updated_at`

// ─────────────────────────────────────────────────────────────────────────────
// CRUD Operations
// ─────────────────────────────────────────────────────────────────────────────

// Create creates a new user.
func (r *UserRepository) Create(ctx context.Context, u *user.User) error {
	query := `
		INSERT INTO users (
			id, email, password_hash, display_name, role, grade_level,
			xp_total, level, status, last_active_at, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	_, err := r.conn.Exec(ctx, query,
		u.ID,
		u.Email.String(),
		string(u.PasswordHash),
		u.DisplayName,
		string(u.Role),
		int(u.GradeLevel),
		u.XPTotal,
		u.Level,
		string(u.Status),
		u.LastActiveAt,
		u.CreatedAt,
		u.UpdatedAt,
	)
	if err != nil {
		if IsUniqueViolation(err) {
			return shared.ErrEmailTaken
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	return nil
}

// GetByID returns a user by internal ID.
func (r *UserRepository) GetByID(ctx context.Context, id string) (*user.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE id = $1`, userColumns)

	row := r.conn.QueryRow(ctx, query, id)
	return r.scanUser(row)
}

// GetByEmail returns a user by normalized email.
func (r *UserRepository) GetByEmail(ctx context.Context, email shared.Email) (*user.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE email = $1`, userColumns)

	row := r.conn.QueryRow(ctx, query, email.String())
	return r.scanUser(row)
}

// Update persists all mutable user fields.
func (r *UserRepository) Update(ctx context.Context, u *user.User) error {
	query := `
		UPDATE users SET
			email = $1,
			password_hash = $2,
			display_name = $3,
			role = $4,
			grade_level = $5,
			xp_total = $6,
			level = $7,
			status = $8,
			last_active_at = $9,
			updated_at = $10
		WHERE id = $11
	`

	result, err := r.conn.Exec(ctx, query,
		u.Email.String(),
		string(u.PasswordHash),
		u.DisplayName,
		string(u.Role),
		int(u.GradeLevel),
		u.XPTotal,
		u.Level,
		string(u.Status),
		u.LastActiveAt,
		time.Now().UTC(),
		u.ID,
	)
	if err != nil {
		if IsUniqueViolation(err) {
			return shared.ErrEmailTaken
		}
		return fmt.Errorf("failed to update user: %w", err)
	}

	if result.RowsAffected() == 0 {
		return shared.ErrUserNotFound
	}

	return nil
}

// Delete removes the user. Progress, achievement and streak rows cascade.
func (r *UserRepository) Delete(ctx context.Context, id string) error {
	result, err := r.conn.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}

	if result.RowsAffected() == 0 {
		return shared.ErrUserNotFound
	}

	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Bulk Operations
// ─────────────────────────────────────────────────────────────────────────────

// GetAll returns users with pagination.
func (r *UserRepository) GetAll(ctx context.Context, opts user.ListOptions) ([]*user.User, error) {
	order := "created_at DESC"
	if opts.OrderByXP {
		order = "xp_total DESC, created_at ASC"
	}

	query := fmt.Sprintf(`
		SELECT %s FROM users
		ORDER BY %s
		LIMIT $1 OFFSET $2
	`, userColumns, order)

	rows, err := r.conn.Query(ctx, query, normalizeLimit(opts.Limit), opts.Offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	return r.scanUsers(rows)
}

// Count returns the total number of users.
func (r *UserRepository) Count(ctx context.Context) (int, error) {
	var count int
	err := r.conn.QueryRow(ctx, "SELECT COUNT(*) FROM users").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}
	return count, nil
}

// FindInactive returns active users whose last activity is older than the threshold.
func (r *UserRepository) FindInactive(ctx context.Context, threshold time.Duration) ([]*user.User, error) {
	cutoff := time.Now().UTC().Add(-threshold)

	query := fmt.Sprintf(`
		SELECT %s FROM users
		WHERE status = $1 AND last_active_at < $2
		ORDER BY last_active_at ASC
	`, userColumns)

	rows, err := r.conn.Query(ctx, query, string(user.StatusActive), cutoff)
	if err != nil {
		return nil, fmt.Errorf("failed to query inactive users: %w", err)
	}
	defer rows.Close()

	return r.scanUsers(rows)
}

// TopByXP returns students ordered by XP descending, optionally filtered by grade.
// Ties break by account age so ordering is stable across rebuilds.
func (r *UserRepository) TopByXP(ctx context.Context, grade *shared.GradeLevel, opts user.ListOptions) ([]*user.User, error) {
	limit := normalizeLimit(opts.Limit)

	var (
		rows pgx.Rows
		err  error
	)
	if grade != nil {
		query := fmt.Sprintf(`
			SELECT %s FROM users
			WHERE role = $1 AND status != $2 AND grade_level = $3
			ORDER BY xp_total DESC, created_at ASC
			LIMIT $4 OFFSET $5
		`, userColumns)
		rows, err = r.conn.Query(ctx, query,
			string(user.RoleStudent), string(user.StatusSuspended), int(*grade), limit, opts.Offset)
	} else {
		query := fmt.Sprintf(`
			SELECT %s FROM users
			WHERE role = $1 AND status != $2
			ORDER BY xp_total DESC, created_at ASC
			LIMIT $3 OFFSET $4
		`, userColumns)
		rows, err = r.conn.Query(ctx, query,
			string(user.RoleStudent), string(user.StatusSuspended), limit, opts.Offset)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query top users: %w", err)
	}
	defer rows.Close()

	return r.scanUsers(rows)
}

// ─────────────────────────────────────────────────────────────────────────────
// Scanning helpers
// ─────────────────────────────────────────────────────────────────────────────

func (r *UserRepository) scanUser(row pgx.Row) (*user.User, error) {
	var (
		u            user.User
		email        string
		passwordHash string
		role         string
		grade        int
		status       string
	)

	err := row.Scan(
		&u.ID,
		&email,
		&passwordHash,
		&u.DisplayName,
		&role,
		&grade,
		&u.XPTotal,
		&u.Level,
		&status,
		&u.LastActiveAt,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to scan user: %w", err)
	}

	u.Email = shared.Email(email)
	u.PasswordHash = []byte(passwordHash)
	u.Role = user.Role(role)
	u.GradeLevel = shared.GradeLevel(grade)
	u.Status = user.Status(status)

	return &u, nil
}

func (r *UserRepository) scanUsers(rows pgx.Rows) ([]*user.User, error) {
	users := make([]*user.User, 0)
	for rows.Next() {
		u, err := r.scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// normalizeLimit applies the repository default page size for zero limits.
func normalizeLimit(limit int) int {
	if limit <= 0 {
		return 50
	}
	return limit
}
