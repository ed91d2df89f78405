package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/codequest-edu/codequest-backend/internal/domain/progression"
	"github.com/codequest-edu/codequest-backend/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// ACHIEVEMENT REPOSITORY IMPLEMENTATION
//
// Award relies on the UNIQUE(user_id, achievement_id) constraint as the
// authoritative exactly-once guard: an insert that conflicts reports
// Awarded=false and leaves the user untouched.
// ══════════════════════════════════════════════════════════════════════════════

// AchievementRepository implements progression.AchievementRepository for PostgreSQL.
type AchievementRepository struct {
	conn *Connection
}

// NewAchievementRepository creates a new AchievementRepository.
func NewAchievementRepository(conn *Connection) *AchievementRepository {
	return &AchievementRepository{conn: conn}
}

const achievementColumns = `id, slug, name, description, criteria, xp_reward`

// GetAllRules returns every achievement rule definition.
func (r *AchievementRepository) GetAllRules(ctx context.Context) ([]*progression.Achievement, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM achievements
		ORDER BY created_at ASC
	`, achievementColumns)

	rows, err := r.conn.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query achievement rules: %w", err)
	}
	defer rows.Close()

	rules := make([]*progression.Achievement, 0)
	for rows.Next() {
		a, err := scanAchievement(rows)
		if err != nil {
			return nil, err
		}
		rules = append(rules, a)
	}
	return rules, rows.Err()
}

// GetBySlug returns a rule by its stable slug.
func (r *AchievementRepository) GetBySlug(ctx context.Context, slug string) (*progression.Achievement, error) {
	query := fmt.Sprintf(`SELECT %s FROM achievements WHERE slug = $1`, achievementColumns)

	return scanAchievement(r.conn.QueryRow(ctx, query, slug))
}

// GetEarnedIDs returns the set of achievement IDs the user has earned.
func (r *AchievementRepository) GetEarnedIDs(ctx context.Context, userID string) (map[string]struct{}, error) {
	rows, err := r.conn.Query(ctx, `
		SELECT achievement_id FROM user_achievements WHERE user_id = $1
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query earned achievements: %w", err)
	}
	defer rows.Close()

	earned := make(map[string]struct{})
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan earned achievement: %w", err)
		}
		earned[id] = struct{}{}
	}
	return earned, rows.Err()
}

// GetEarned returns the user's awards ordered by earned_at.
func (r *AchievementRepository) GetEarned(ctx context.Context, userID string) ([]progression.Earned, error) {
	rows, err := r.conn.Query(ctx, `
		SELECT user_id, achievement_id, earned_at
		FROM user_achievements
		WHERE user_id = $1
		ORDER BY earned_at ASC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query awards: %w", err)
	}
	defer rows.Close()

	awards := make([]progression.Earned, 0)
	for rows.Next() {
		var e progression.Earned
		if err := rows.Scan(&e.UserID, &e.AchievementID, &e.EarnedAt); err != nil {
			return nil, fmt.Errorf("failed to scan award: %w", err)
		}
		awards = append(awards, e)
	}
	return awards, rows.Err()
}

// Award atomically inserts the (userID, achievement) award and applies the
// XP bonus to the user. An existing award reports Awarded=false with no
// mutation.
func (r *AchievementRepository) Award(
	ctx context.Context,
	userID string,
	a *progression.Achievement,
	at time.Time,
) (*progression.AwardOutcome, error) {
	if at.IsZero() {
		at = time.Now().UTC()
	}

	var outcome *progression.AwardOutcome

	err := r.conn.WithTx(ctx, DefaultTxOptions(), func(tx pgx.Tx) error {
		// Lock the user row before inserting so the XP bonus serializes with
		// concurrent submissions.
		var oldXP int
		err := tx.QueryRow(ctx, `SELECT xp_total FROM users WHERE id = $1 FOR UPDATE`, userID).Scan(&oldXP)
		if err != nil {
			if IsNoRows(err) {
				return shared.ErrUserNotFound
			}
			return fmt.Errorf("failed to lock user row: %w", err)
		}

		tag, err := tx.Exec(ctx, `
			INSERT INTO user_achievements (user_id, achievement_id, earned_at)
			VALUES ($1, $2, $3)
			ON CONFLICT (user_id, achievement_id) DO NOTHING
		`, userID, a.ID, at)
		if err != nil {
			if IsForeignKeyViolation(err) {
				return shared.ErrAchievementNotFound
			}
			return fmt.Errorf("failed to insert award: %w", err)
		}

		// Conflict: somebody already awarded this pair. Not an error.
		if tag.RowsAffected() == 0 {
			outcome = &progression.AwardOutcome{Awarded: false, OldXP: oldXP, NewXP: oldXP}
			return nil
		}

		newXP := oldXP + a.XPReward
		newLevel := progression.LevelFromXP(newXP)

		_, err = tx.Exec(ctx, `
			UPDATE users SET xp_total = $1, level = $2, updated_at = $3
			WHERE id = $4
		`, newXP, newLevel, at, userID)
		if err != nil {
			return fmt.Errorf("failed to apply XP bonus: %w", err)
		}

		outcome = &progression.AwardOutcome{
			Awarded:  true,
			OldXP:    oldXP,
			NewXP:    newXP,
			OldLevel: progression.LevelFromXP(oldXP),
			NewLevel: newLevel,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return outcome, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Scanning helpers
// ─────────────────────────────────────────────────────────────────────────────

func scanAchievement(row pgx.Row) (*progression.Achievement, error) {
	var (
		a            progression.Achievement
		criteriaJSON []byte
	)

	err := row.Scan(
		&a.ID,
		&a.Slug,
		&a.Name,
		&a.Description,
		&criteriaJSON,
		&a.XPReward,
	)
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrAchievementNotFound
		}
		return nil, fmt.Errorf("failed to scan achievement: %w", err)
	}

	// A malformed criteria payload stays in the rule and fails closed at
	// evaluation time instead of poisoning the whole rule list.
	if len(criteriaJSON) > 0 {
		if err := json.Unmarshal(criteriaJSON, &a.Criteria); err != nil {
			a.Criteria = progression.Criteria{}
		}
	}

	return &a, nil
}
