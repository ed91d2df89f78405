package scheduler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestIntervalScheduleNext(t *testing.T) {
	s := NewIntervalSchedule(5 * time.Minute)
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	assert.Equal(t, now.Add(5*time.Minute), s.Next(now))
	assert.Equal(t, "@every 5m0s", s.String())
}

func TestDailyScheduleNextSameDay(t *testing.T) {
	s := NewDailySchedule(3, 30)
	now := time.Date(2026, 3, 10, 1, 0, 0, 0, time.UTC)

	assert.Equal(t, time.Date(2026, 3, 10, 3, 30, 0, 0, time.UTC), s.Next(now))
}

func TestDailyScheduleNextRollsToTomorrow(t *testing.T) {
	s := NewDailySchedule(3, 30)

	// Past today's slot.
	after := time.Date(2026, 3, 10, 4, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2026, 3, 11, 3, 30, 0, 0, time.UTC), s.Next(after))

	// Exactly at the slot counts as past.
	at := time.Date(2026, 3, 10, 3, 30, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2026, 3, 11, 3, 30, 0, 0, time.UTC), s.Next(at))
}

func TestDailySchedulePreservesLocation(t *testing.T) {
	s := NewDailySchedule(6, 0)
	loc := time.FixedZone("UTC+5", 5*3600)
	now := time.Date(2026, 3, 10, 1, 0, 0, 0, loc)

	next := s.Next(now)

	assert.Equal(t, loc, next.Location())
	assert.Equal(t, 6, next.Hour())
}

func TestDailyScheduleClampsOutOfRange(t *testing.T) {
	s := NewDailySchedule(27, 90)

	assert.Equal(t, 0, s.Hour)
	assert.Equal(t, 0, s.Minute)
	assert.Equal(t, "@daily 00:00", s.String())
}
