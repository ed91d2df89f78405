package timeutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestStartOfDayNormalizesToUTC(t *testing.T) {
	loc := time.FixedZone("UTC+5", 5*3600)
	// 02:30 local on March 11 is still March 10 in UTC.
	got := StartOfDay(time.Date(2026, 3, 11, 2, 30, 0, 0, loc))

	assert.Equal(t, time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC), got)
}

func TestDaysBetween(t *testing.T) {
	a := time.Date(2026, 3, 10, 23, 59, 0, 0, time.UTC)
	b := time.Date(2026, 3, 11, 0, 1, 0, 0, time.UTC)

	assert.Equal(t, 1, DaysBetween(a, b))
	assert.Equal(t, 0, DaysBetween(a, a))
	assert.Equal(t, -1, DaysBetween(b, a))
	assert.Equal(t, 4, DaysBetween(a, a.AddDate(0, 0, 4)))
}

func TestSameDayAndIsYesterday(t *testing.T) {
	morning := time.Date(2026, 3, 10, 1, 0, 0, 0, time.UTC)
	evening := time.Date(2026, 3, 10, 23, 0, 0, 0, time.UTC)
	nextDay := time.Date(2026, 3, 11, 1, 0, 0, 0, time.UTC)

	assert.True(t, SameDay(morning, evening))
	assert.False(t, SameDay(evening, nextDay))
	assert.True(t, IsYesterday(evening, nextDay))
	assert.False(t, IsYesterday(morning, evening))
}

func TestNextDailyRun(t *testing.T) {
	now := time.Date(2026, 3, 10, 2, 0, 0, 0, time.UTC)

	assert.Equal(t, time.Date(2026, 3, 10, 3, 30, 0, 0, time.UTC), NextDailyRun(now, 3, 30))
	// Already past today's slot: roll to tomorrow.
	assert.Equal(t, time.Date(2026, 3, 11, 1, 0, 0, 0, time.UTC), NextDailyRun(now, 1, 0))
	// Exactly at the slot counts as past.
	assert.Equal(t, time.Date(2026, 3, 11, 2, 0, 0, 0, time.UTC), NextDailyRun(now, 2, 0))
}
