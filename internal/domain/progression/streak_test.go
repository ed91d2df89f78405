package progression

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 12, 30, 0, 0, time.UTC)
}

func TestRecordActivityFirstEver(t *testing.T) {
	s := NewStreak("u1")

	broken := s.RecordActivity(day(2026, 3, 10))

	assert.False(t, broken)
	assert.Equal(t, 1, s.CurrentStreak)
	assert.Equal(t, 1, s.BestStreak)
	assert.Equal(t, time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC), s.LastActiveDate)
	assert.Equal(t, s.LastActiveDate, s.StartedOn)
}

func TestRecordActivitySameDayIsNoOp(t *testing.T) {
	s := NewStreak("u1")
	s.RecordActivity(day(2026, 3, 10))

	broken := s.RecordActivity(day(2026, 3, 10).Add(5 * time.Hour))

	assert.False(t, broken)
	assert.Equal(t, 1, s.CurrentStreak)
	assert.Equal(t, 1, s.BestStreak)
}

func TestRecordActivityConsecutiveDaysExtend(t *testing.T) {
	s := NewStreak("u1")
	s.RecordActivity(day(2026, 3, 10))
	s.RecordActivity(day(2026, 3, 11))

	broken := s.RecordActivity(day(2026, 3, 12))

	assert.False(t, broken)
	assert.Equal(t, 3, s.CurrentStreak)
	assert.Equal(t, 3, s.BestStreak)
}

func TestRecordActivityGapResetsAndReportsBreak(t *testing.T) {
	s := NewStreak("u1")
	s.RecordActivity(day(2026, 3, 10))
	s.RecordActivity(day(2026, 3, 11))

	broken := s.RecordActivity(day(2026, 3, 14))

	assert.True(t, broken)
	assert.Equal(t, 1, s.CurrentStreak)
	assert.Equal(t, 2, s.BestStreak)
	assert.Equal(t, time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC), s.StartedOn)
}

func TestRecordActivityBestStreakSurvivesReset(t *testing.T) {
	s := NewStreak("u1")
	for d := 1; d <= 5; d++ {
		s.RecordActivity(day(2026, 3, d))
	}

	s.RecordActivity(day(2026, 3, 20))
	s.RecordActivity(day(2026, 3, 21))

	assert.Equal(t, 2, s.CurrentStreak)
	assert.Equal(t, 5, s.BestStreak)
}

func TestLapseZeroesCurrentKeepsBest(t *testing.T) {
	s := NewStreak("u1")
	s.RecordActivity(day(2026, 3, 10))
	s.RecordActivity(day(2026, 3, 11))
	s.RecordActivity(day(2026, 3, 12))

	lost := s.Lapse()

	assert.Equal(t, 3, lost)
	assert.Equal(t, 0, s.CurrentStreak)
	assert.Equal(t, 3, s.BestStreak)
	assert.True(t, s.StartedOn.IsZero())
}

func TestIsBroken(t *testing.T) {
	s := NewStreak("u1")
	assert.False(t, s.IsBroken(day(2026, 3, 12)), "empty streak is never broken")

	s.RecordActivity(day(2026, 3, 10))

	assert.False(t, s.IsBroken(day(2026, 3, 10)), "active today")
	assert.False(t, s.IsBroken(day(2026, 3, 11)), "active yesterday")
	assert.True(t, s.IsBroken(day(2026, 3, 12)), "two days idle")
}
