package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFeatureFlagDefaults(t *testing.T) {
	ff := LoadFeatureFlags()

	assert.True(t, ff.IsEnabled(FeatureProgressionAchievements, nil))
	assert.True(t, ff.IsEnabled(FeatureLeaderboardEnabled, nil))
	assert.False(t, ff.IsEnabled(FeatureExperimentalHints, nil))
	assert.False(t, ff.IsEnabled("does.not.exist", nil))
}

func TestFeatureFlagEnvOverride(t *testing.T) {
	t.Setenv("FEATURE_EXPERIMENTAL_HINTS", "true")
	t.Setenv("FEATURE_PROGRESSION_STREAKS", "false")

	ff := LoadFeatureFlags()

	assert.True(t, ff.IsEnabled(FeatureExperimentalHints, nil))
	assert.False(t, ff.IsEnabled(FeatureProgressionStreaks, nil))
}

func TestFeatureFlagPercentRolloutIsConsistent(t *testing.T) {
	t.Setenv("FEATURE_EXPERIMENTAL_HINTS", "50")
	ff := LoadFeatureFlags()

	ctx := &FeatureContext{UserID: "d9b2d63d-a233-4123-847a-fd00b4edb613"}
	first := ff.IsEnabled(FeatureExperimentalHints, ctx)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, ff.IsEnabled(FeatureExperimentalHints, ctx), "bucket assignment is stable")
	}
}

func TestFeatureFlagAdminBypass(t *testing.T) {
	ff := LoadFeatureFlags()

	assert.True(t, ff.IsEnabled(FeatureExperimentalHints, &FeatureContext{UserID: "u1", IsAdmin: true}))
}

func TestFeatureFlagUserOverrideWins(t *testing.T) {
	ff := LoadFeatureFlags()
	ff.SetUserOverride("u1", FeatureExperimentalHints, true)

	assert.True(t, ff.IsEnabled(FeatureExperimentalHints, &FeatureContext{UserID: "u1"}))
	assert.False(t, ff.IsEnabled(FeatureExperimentalHints, &FeatureContext{UserID: "u2"}))

	ff.ClearUserOverrides("u1")
	assert.False(t, ff.IsEnabled(FeatureExperimentalHints, &FeatureContext{UserID: "u1"}))
}

func TestSetRolloutPercent(t *testing.T) {
	ff := LoadFeatureFlags()

	require.NoError(t, ff.EnableFeature(FeatureExperimentalHints))
	assert.True(t, ff.IsEnabled(FeatureExperimentalHints, nil))

	require.NoError(t, ff.DisableFeature(FeatureExperimentalHints))
	assert.False(t, ff.IsEnabled(FeatureExperimentalHints, nil))

	assert.ErrorIs(t, ff.SetRolloutPercent("does.not.exist", 50), ErrFeatureNotFound)
	assert.ErrorIs(t, ff.SetRolloutPercent(FeatureExperimentalHints, 150), ErrInvalidRolloutPercent)
}
