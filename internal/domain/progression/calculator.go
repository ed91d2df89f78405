// Package progression contains the progression engine: XP/level math,
// per-lesson progress records, daily streaks, and achievement rules.
// This is the core business logic - no infrastructure dependencies here.
package progression

import "math"

// ══════════════════════════════════════════════════════════════════════════════
// XP / LEVEL CALCULATOR
// Level = floor(sqrt(XP / 100)) + 1. Level 1 starts at 0 XP, level 2 at 100,
// level 3 at 400, level 4 at 900 and so on: each level costs quadratically
// more than the last.
// ══════════════════════════════════════════════════════════════════════════════

// xpPerLevelUnit is the quadratic scaling unit of the level curve.
const xpPerLevelUnit = 100

// LevelFromXP returns the level for a total XP amount. The result is always
// >= 1 and monotonically non-decreasing in xp. Negative XP is a caller
// contract violation; it is clamped to level 1 rather than handled.
func LevelFromXP(xp int) int {
	if xp <= 0 {
		return 1
	}
	return int(math.Sqrt(float64(xp)/xpPerLevelUnit)) + 1
}

// XPFloorForLevel returns the minimum XP required to be at the given level.
func XPFloorForLevel(level int) int {
	if level <= 1 {
		return 0
	}
	return (level - 1) * (level - 1) * xpPerLevelUnit
}

// LevelProgress describes where within the current level a user sits.
type LevelProgress struct {
	// Level - current level.
	Level int `json:"level"`

	// XPIntoLevel - XP earned past the current level's floor.
	XPIntoLevel int `json:"xp_into_level"`

	// XPForNextLevel - XP span between the current and next level floors.
	XPForNextLevel int `json:"xp_for_next_level"`

	// Percent - progress within the level, 0-100.
	Percent float64 `json:"percent"`
}

// ProgressWithinLevel returns the user's position inside their current level.
func ProgressWithinLevel(xp int) LevelProgress {
	if xp < 0 {
		xp = 0
	}
	level := LevelFromXP(xp)
	floor := XPFloorForLevel(level)
	next := XPFloorForLevel(level + 1)
	span := next - floor

	return LevelProgress{
		Level:          level,
		XPIntoLevel:    xp - floor,
		XPForNextLevel: span,
		Percent:        float64(xp-floor) / float64(span) * 100,
	}
}

// ScaleXPByScore applies the score multiplier to a lesson's XP reward:
// reward * score/100, rounded to the nearest integer (half away from zero).
// A nil score means no scaling.
func ScaleXPByScore(reward int, score *int) int {
	if score == nil {
		return reward
	}
	return int(math.Round(float64(reward) * float64(*score) / 100))
}
