package progression

import (
	"time"

	"github.com/codequest-edu/codequest-backend/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// STREAK (consecutive active days)
// A day counts as active when the user completes at least one submission.
// Streaks are tracked and surfaced in the progress summary; streak-based
// achievement criteria fail closed until awarding rules are settled.
// ══════════════════════════════════════════════════════════════════════════════

// Streak tracks a user's consecutive active days.
type Streak struct {
	// UserID - owner.
	UserID string

	// CurrentStreak - consecutive active days ending at LastActiveDate.
	CurrentStreak int

	// BestStreak - best streak ever reached.
	BestStreak int

	// LastActiveDate - date (UTC midnight) of the last activity.
	LastActiveDate time.Time

	// StartedOn - date the current streak began.
	StartedOn time.Time
}

// NewStreak creates an empty streak tracker.
func NewStreak(userID string) *Streak {
	return &Streak{UserID: userID}
}

// RecordActivity registers activity on the given date and updates the streak.
// Returns true if the previous streak was broken by this activity.
func (s *Streak) RecordActivity(at time.Time) bool {
	day := timeutil.StartOfDay(at)

	if s.LastActiveDate.IsZero() {
		s.CurrentStreak = 1
		s.BestStreak = 1
		s.LastActiveDate = day
		s.StartedOn = day
		return false
	}

	switch timeutil.DaysBetween(s.LastActiveDate, day) {
	case 0:
		// Same day - nothing changes.
		return false
	case 1:
		s.CurrentStreak++
		if s.CurrentStreak > s.BestStreak {
			s.BestStreak = s.CurrentStreak
		}
		s.LastActiveDate = day
		return false
	default:
		s.CurrentStreak = 1
		s.StartedOn = day
		s.LastActiveDate = day
		return true
	}
}

// Lapse zeroes the current streak after it was detected as broken and
// returns the streak length that was lost. BestStreak is untouched.
func (s *Streak) Lapse() int {
	lost := s.CurrentStreak
	s.CurrentStreak = 0
	s.StartedOn = time.Time{}
	return lost
}

// IsBroken returns true if the streak lapsed (no activity yesterday or today).
func (s *Streak) IsBroken(now time.Time) bool {
	if s.LastActiveDate.IsZero() {
		return false
	}
	return timeutil.DaysBetween(s.LastActiveDate, timeutil.StartOfDay(now)) > 1
}
