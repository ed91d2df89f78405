package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/codequest-edu/codequest-backend/internal/domain/progression"
)

// ══════════════════════════════════════════════════════════════════════════════
// STREAK REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// StreakRepository implements progression.StreakRepository for PostgreSQL.
type StreakRepository struct {
	conn *Connection
}

// NewStreakRepository creates a new StreakRepository.
func NewStreakRepository(conn *Connection) *StreakRepository {
	return &StreakRepository{conn: conn}
}

// Get returns the user's streak tracker, or a zero-valued tracker when none
// has been persisted yet.
func (r *StreakRepository) Get(ctx context.Context, userID string) (*progression.Streak, error) {
	var (
		s              progression.Streak
		lastActiveDate *time.Time
		startedOn      *time.Time
	)

	err := r.conn.QueryRow(ctx, `
		SELECT user_id, current_streak, best_streak, last_active_date, started_on
		FROM user_streaks
		WHERE user_id = $1
	`, userID).Scan(&s.UserID, &s.CurrentStreak, &s.BestStreak, &lastActiveDate, &startedOn)
	if err != nil {
		if IsNoRows(err) {
			return progression.NewStreak(userID), nil
		}
		return nil, fmt.Errorf("failed to query streak: %w", err)
	}

	if lastActiveDate != nil {
		s.LastActiveDate = lastActiveDate.UTC()
	}
	if startedOn != nil {
		s.StartedOn = startedOn.UTC()
	}

	return &s, nil
}

// Save upserts the streak tracker.
func (r *StreakRepository) Save(ctx context.Context, s *progression.Streak) error {
	var lastActiveDate, startedOn *time.Time
	if !s.LastActiveDate.IsZero() {
		d := s.LastActiveDate
		lastActiveDate = &d
	}
	if !s.StartedOn.IsZero() {
		d := s.StartedOn
		startedOn = &d
	}

	_, err := r.conn.Exec(ctx, `
		INSERT INTO user_streaks (user_id, current_streak, best_streak, last_active_date, started_on)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id) DO UPDATE SET
			current_streak = EXCLUDED.current_streak,
			best_streak = EXCLUDED.best_streak,
			last_active_date = EXCLUDED.last_active_date,
			started_on = EXCLUDED.started_on
	`, s.UserID, s.CurrentStreak, s.BestStreak, lastActiveDate, startedOn)
	if err != nil {
		return fmt.Errorf("failed to save streak: %w", err)
	}

	return nil
}

// FindLapsed returns streaks still counting whose last active date is
// strictly before the cutoff.
func (r *StreakRepository) FindLapsed(ctx context.Context, before time.Time) ([]*progression.Streak, error) {
	rows, err := r.conn.Query(ctx, `
		SELECT user_id, current_streak, best_streak, last_active_date, started_on
		FROM user_streaks
		WHERE current_streak > 0 AND last_active_date < $1
		ORDER BY last_active_date
	`, before)
	if err != nil {
		return nil, fmt.Errorf("failed to query lapsed streaks: %w", err)
	}
	defer rows.Close()

	var streaks []*progression.Streak
	for rows.Next() {
		var (
			s              progression.Streak
			lastActiveDate *time.Time
			startedOn      *time.Time
		)
		if err := rows.Scan(&s.UserID, &s.CurrentStreak, &s.BestStreak, &lastActiveDate, &startedOn); err != nil {
			return nil, fmt.Errorf("failed to scan streak: %w", err)
		}
		if lastActiveDate != nil {
			s.LastActiveDate = lastActiveDate.UTC()
		}
		if startedOn != nil {
			s.StartedOn = startedOn.UTC()
		}
		streaks = append(streaks, &s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read lapsed streaks: %w", err)
	}

	return streaks, nil
}
