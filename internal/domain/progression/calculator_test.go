package progression

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLevelFromXPStartsAtOne(t *testing.T) {
	assert.Equal(t, 1, LevelFromXP(0))
	assert.Equal(t, 1, LevelFromXP(50))
	assert.Equal(t, 1, LevelFromXP(99))
}

func TestLevelFromXPBoundaries(t *testing.T) {
	assert.Equal(t, 2, LevelFromXP(100))
	assert.Equal(t, 2, LevelFromXP(399))
	assert.Equal(t, 3, LevelFromXP(400))
	assert.Equal(t, 4, LevelFromXP(900))
	assert.Equal(t, 11, LevelFromXP(10000))
}

func TestLevelFromXPClampsNegative(t *testing.T) {
	assert.Equal(t, 1, LevelFromXP(-500))
}

func TestXPFloorForLevel(t *testing.T) {
	assert.Equal(t, 0, XPFloorForLevel(1))
	assert.Equal(t, 100, XPFloorForLevel(2))
	assert.Equal(t, 400, XPFloorForLevel(3))
	assert.Equal(t, 900, XPFloorForLevel(4))
	assert.Equal(t, 0, XPFloorForLevel(0))
}

func TestXPFloorIsInverseOfLevelFromXP(t *testing.T) {
	for level := 1; level <= 20; level++ {
		floor := XPFloorForLevel(level)
		assert.Equal(t, level, LevelFromXP(floor), "floor of level %d must map back", level)
		if floor > 0 {
			assert.Equal(t, level-1, LevelFromXP(floor-1))
		}
	}
}

func TestProgressWithinLevel(t *testing.T) {
	p := ProgressWithinLevel(150)

	assert.Equal(t, 2, p.Level)
	assert.Equal(t, 50, p.XPIntoLevel)
	assert.Equal(t, 300, p.XPForNextLevel)
	assert.InDelta(t, 16.66, p.Percent, 0.01)
}

func TestProgressWithinLevelAtFloor(t *testing.T) {
	p := ProgressWithinLevel(400)

	assert.Equal(t, 3, p.Level)
	assert.Equal(t, 0, p.XPIntoLevel)
	assert.Equal(t, 500, p.XPForNextLevel)
	assert.Equal(t, 0.0, p.Percent)
}

func TestScaleXPByScore(t *testing.T) {
	full := 100
	half := 50
	zero := 0
	odd := 33

	assert.Equal(t, 40, ScaleXPByScore(40, nil))
	assert.Equal(t, 40, ScaleXPByScore(40, &full))
	assert.Equal(t, 20, ScaleXPByScore(40, &half))
	assert.Equal(t, 0, ScaleXPByScore(40, &zero))
	assert.Equal(t, 13, ScaleXPByScore(40, &odd)) // 13.2 rounds down
}

func TestScaleXPByScoreRoundsHalfUp(t *testing.T) {
	score := 50
	assert.Equal(t, 13, ScaleXPByScore(25, &score)) // 12.5 rounds away from zero
}
