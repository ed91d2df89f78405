package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/codequest-edu/codequest-backend/internal/domain/lesson"
	"github.com/codequest-edu/codequest-backend/internal/domain/progression"
	"github.com/codequest-edu/codequest-backend/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// PROGRESS REPOSITORY IMPLEMENTATION
//
// RecordSubmission is the write path of the progression engine. It runs the
// whole read-modify-write inside one transaction with the user row locked,
// so the progress upsert and the XP update commit or roll back together and
// concurrent submissions for the same (user, lesson) pair serialize.
// ══════════════════════════════════════════════════════════════════════════════

// ProgressRepository implements progression.ProgressRepository for PostgreSQL.
type ProgressRepository struct {
	conn *Connection
}

// NewProgressRepository creates a new ProgressRepository.
func NewProgressRepository(conn *Connection) *ProgressRepository {
	return &ProgressRepository{conn: conn}
}

const progressColumns = `user_id, lesson_id, status, score, attempts, completed_at,
	   code_submissions, created_at, updated_at`

// Get returns the record for (userID, lessonID).
func (r *ProgressRepository) Get(ctx context.Context, userID, lessonID string) (*progression.Progress, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM user_progress
		WHERE user_id = $1 AND lesson_id = $2
	`, progressColumns)

	row := r.conn.QueryRow(ctx, query, userID, lessonID)
	return scanProgress(row)
}

// GetAllForUser returns all of the user's records ordered by the lesson's
// (module, order_index).
func (r *ProgressRepository) GetAllForUser(ctx context.Context, userID string) ([]*progression.Progress, error) {
	query := `
		SELECT p.user_id, p.lesson_id, p.status, p.score, p.attempts, p.completed_at,
			   p.code_submissions, p.created_at, p.updated_at
		FROM user_progress p
		JOIN lessons l ON l.id = p.lesson_id
		WHERE p.user_id = $1
		ORDER BY l.module ASC, l.order_index ASC
	`

	rows, err := r.conn.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query user progress: %w", err)
	}
	defer rows.Close()

	records := make([]*progression.Progress, 0)
	for rows.Next() {
		p, err := scanProgress(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, p)
	}
	return records, rows.Err()
}

// CountCompleted returns the user's completed-lesson count.
func (r *ProgressRepository) CountCompleted(ctx context.Context, userID string) (int, error) {
	var count int
	err := r.conn.QueryRow(ctx, `
		SELECT COUNT(*) FROM user_progress
		WHERE user_id = $1 AND status = $2
	`, userID, string(progression.StatusCompleted)).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count completed lessons: %w", err)
	}
	return count, nil
}

// Snapshot aggregates the user's full progress history for achievement
// criteria evaluation.
func (r *ProgressRepository) Snapshot(ctx context.Context, userID string) (progression.Snapshot, error) {
	var snap progression.Snapshot

	err := r.conn.QueryRow(ctx, `
		SELECT
			COUNT(*) FILTER (WHERE p.status = 'completed'),
			COUNT(*) FILTER (WHERE p.status = 'completed' AND l.title ILIKE '%function%'),
			COUNT(*) FILTER (WHERE p.status = 'completed' AND l.module = $2)
		FROM user_progress p
		JOIN lessons l ON l.id = p.lesson_id
		WHERE p.user_id = $1
	`, userID, string(lesson.AIModule)).Scan(
		&snap.LessonsCompleted,
		&snap.FunctionLessonsCompleted,
		&snap.AILessonsCompleted,
	)
	if err != nil {
		return progression.Snapshot{}, fmt.Errorf("failed to build progress snapshot: %w", err)
	}

	err = r.conn.QueryRow(ctx, `
		SELECT current_streak FROM user_streaks WHERE user_id = $1
	`, userID).Scan(&snap.CurrentStreak)
	if err != nil && !IsNoRows(err) {
		return progression.Snapshot{}, fmt.Errorf("failed to read streak for snapshot: %w", err)
	}

	return snap, nil
}

// RecordSubmission atomically applies a submission.
func (r *ProgressRepository) RecordSubmission(
	ctx context.Context,
	userID, lessonID string,
	sub progression.Submission,
) (*progression.SubmissionOutcome, error) {
	// Reject malformed submissions before touching the database.
	if err := sub.Validate(); err != nil {
		return nil, err
	}

	at := sub.At
	if at.IsZero() {
		at = time.Now().UTC()
		sub.At = at
	}

	var outcome *progression.SubmissionOutcome

	err := r.conn.WithTx(ctx, DefaultTxOptions(), func(tx pgx.Tx) error {
		// Resolve the lesson's reward first; a missing lesson aborts with
		// nothing written.
		var xpReward int
		err := tx.QueryRow(ctx, `SELECT xp_reward FROM lessons WHERE id = $1`, lessonID).Scan(&xpReward)
		if err != nil {
			if IsNoRows(err) {
				return shared.ErrLessonNotFound
			}
			return fmt.Errorf("failed to read lesson reward: %w", err)
		}

		// Lock the user row. This serializes concurrent submissions for the
		// same user, including the two-completions race on one lesson.
		var oldXP int
		err = tx.QueryRow(ctx, `SELECT xp_total FROM users WHERE id = $1 FOR UPDATE`, userID).Scan(&oldXP)
		if err != nil {
			if IsNoRows(err) {
				return shared.ErrUserNotFound
			}
			return fmt.Errorf("failed to lock user row: %w", err)
		}

		p, err := getProgressForUpdate(ctx, tx, userID, lessonID)
		if errors.Is(err, shared.ErrProgressNotFound) {
			p = progression.NewProgress(userID, lessonID, at)
			if err := insertProgress(ctx, tx, p); err != nil {
				return err
			}
		} else if err != nil {
			return err
		}

		wasCompleted := p.IsCompleted()
		xpEarned, err := p.Apply(sub, xpReward)
		if err != nil {
			return err
		}
		firstCompletion := !wasCompleted && p.IsCompleted()

		if err := updateProgress(ctx, tx, p); err != nil {
			return err
		}

		newXP := oldXP
		if xpEarned > 0 {
			newXP = oldXP + xpEarned
		}
		newLevel := progression.LevelFromXP(newXP)

		// Any submission is user activity; XP and level move only on a
		// first completion.
		_, err = tx.Exec(ctx, `
			UPDATE users SET xp_total = $1, level = $2, last_active_at = $3, updated_at = $3
			WHERE id = $4
		`, newXP, newLevel, at, userID)
		if err != nil {
			return fmt.Errorf("failed to apply XP update: %w", err)
		}

		outcome = &progression.SubmissionOutcome{
			Progress:        p,
			XPEarned:        xpEarned,
			OldXP:           oldXP,
			NewXP:           newXP,
			OldLevel:        progression.LevelFromXP(oldXP),
			NewLevel:        newLevel,
			FirstCompletion: firstCompletion,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return outcome, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Row helpers
// ─────────────────────────────────────────────────────────────────────────────

func getProgressForUpdate(ctx context.Context, tx pgx.Tx, userID, lessonID string) (*progression.Progress, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM user_progress
		WHERE user_id = $1 AND lesson_id = $2
		FOR UPDATE
	`, progressColumns)

	return scanProgress(tx.QueryRow(ctx, query, userID, lessonID))
}

func insertProgress(ctx context.Context, tx pgx.Tx, p *progression.Progress) error {
	submissionsJSON, err := json.Marshal(p.CodeSubmissions)
	if err != nil {
		return fmt.Errorf("failed to marshal code submissions: %w", err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO user_progress (
			user_id, lesson_id, status, score, attempts, completed_at,
			code_submissions, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`,
		p.UserID,
		p.LessonID,
		string(p.Status),
		p.Score,
		p.Attempts,
		p.CompletedAt,
		submissionsJSON,
		p.CreatedAt,
		p.UpdatedAt,
	)
	if err != nil {
		if IsForeignKeyViolation(err) {
			return shared.ErrLessonNotFound
		}
		return fmt.Errorf("failed to insert progress: %w", err)
	}
	return nil
}

func updateProgress(ctx context.Context, tx pgx.Tx, p *progression.Progress) error {
	submissionsJSON, err := json.Marshal(p.CodeSubmissions)
	if err != nil {
		return fmt.Errorf("failed to marshal code submissions: %w", err)
	}

	_, err = tx.Exec(ctx, `
		UPDATE user_progress SET
			status = $1,
			score = $2,
			attempts = $3,
			completed_at = $4,
			code_submissions = $5,
			updated_at = $6
		WHERE user_id = $7 AND lesson_id = $8
	`,
		string(p.Status),
		p.Score,
		p.Attempts,
		p.CompletedAt,
		submissionsJSON,
		p.UpdatedAt,
		p.UserID,
		p.LessonID,
	)
	if err != nil {
		return fmt.Errorf("failed to update progress: %w", err)
	}
	return nil
}

func scanProgress(row pgx.Row) (*progression.Progress, error) {
	var (
		p               progression.Progress
		status          string
		submissionsJSON []byte
	)

	err := row.Scan(
		&p.UserID,
		&p.LessonID,
		&status,
		&p.Score,
		&p.Attempts,
		&p.CompletedAt,
		&submissionsJSON,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrProgressNotFound
		}
		return nil, fmt.Errorf("failed to scan progress: %w", err)
	}

	p.Status = progression.Status(status)
	p.CodeSubmissions = make(map[string]string)
	if len(submissionsJSON) > 0 {
		if err := json.Unmarshal(submissionsJSON, &p.CodeSubmissions); err != nil {
			return nil, fmt.Errorf("failed to unmarshal code submissions: %w", err)
		}
	}

	return &p, nil
}
