package config

import (
	"hash/fnv"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"
)

// FeatureFlags manages feature toggles and gradual rollouts.
// Supports percentage rollout, grade-band targeting, and per-user overrides.
type FeatureFlags struct {
	mu sync.RWMutex

	// Core features
	features map[string]*Feature

	// Override rules (for testing/debugging)
	userOverrides map[string]map[string]bool // userID -> feature -> enabled
}

// Feature represents a single feature flag.
type Feature struct {
	Name        string
	Description string
	Enabled     bool

	// Rollout percentage (0-100)
	// Users are assigned based on hash of their ID
	RolloutPercent int

	// Grade targeting (e.g., "K-5", "6-8", "9-12")
	// Empty means all grades
	TargetGradeBands []string

	// Time-based activation
	EnabledFrom  *time.Time
	EnabledUntil *time.Time

	// A/B test variant (for experiments)
	Variants []string
}

// FeatureContext provides context for feature flag evaluation.
type FeatureContext struct {
	UserID    string // user UUID
	GradeBand string // e.g. "6-8"
	IsAdmin   bool
}

// Predefined feature flag names.
const (
	// === Progression Features ===
	FeatureProgressionAchievements = "progression.achievements" // Unlock achievements
	FeatureProgressionStreaks      = "progression.streaks"      // Track daily streaks
	FeatureProgressionLevelUpToast = "progression.level_up"     // Level-up payloads in responses

	// === Leaderboard Features ===
	FeatureLeaderboardEnabled    = "leaderboard.enabled"     // Leaderboard endpoints
	FeatureLeaderboardGradeScope = "leaderboard.grade_scope" // Per-grade rankings

	// === Lesson Features ===
	FeatureLessonsAIModule    = "lessons.ai_module"    // AI foundations module visible
	FeatureLessonsStarterCode = "lessons.starter_code" // Include starter code in payloads

	// === Experimental Features ===
	FeatureExperimentalHints     = "experimental.hints"     // Adaptive hints
	FeatureExperimentalAnalytics = "experimental.analytics" // Advanced analytics
)

// LoadFeatureFlags loads feature flags from environment variables.
func LoadFeatureFlags() *FeatureFlags {
	ff := &FeatureFlags{
		features:      make(map[string]*Feature),
		userOverrides: make(map[string]map[string]bool),
	}

	ff.initializeDefaults()
	ff.loadFromEnvironment()

	return ff
}

// initializeDefaults sets up all features with default values.
func (ff *FeatureFlags) initializeDefaults() {
	ff.features[FeatureProgressionAchievements] = &Feature{
		Name:           FeatureProgressionAchievements,
		Description:    "Evaluate and award achievements",
		Enabled:        true,
		RolloutPercent: 100,
	}

	ff.features[FeatureProgressionStreaks] = &Feature{
		Name:           FeatureProgressionStreaks,
		Description:    "Track daily activity streaks",
		Enabled:        true,
		RolloutPercent: 100,
	}

	ff.features[FeatureProgressionLevelUpToast] = &Feature{
		Name:           FeatureProgressionLevelUpToast,
		Description:    "Include level-up details in progress responses",
		Enabled:        true,
		RolloutPercent: 100,
	}

	ff.features[FeatureLeaderboardEnabled] = &Feature{
		Name:           FeatureLeaderboardEnabled,
		Description:    "Serve leaderboard endpoints",
		Enabled:        true,
		RolloutPercent: 100,
	}

	ff.features[FeatureLeaderboardGradeScope] = &Feature{
		Name:           FeatureLeaderboardGradeScope,
		Description:    "Allow filtering leaderboard by grade",
		Enabled:        true,
		RolloutPercent: 100,
	}

	ff.features[FeatureLessonsAIModule] = &Feature{
		Name:           FeatureLessonsAIModule,
		Description:    "Expose the AI foundations module",
		Enabled:        true,
		RolloutPercent: 100,
	}

	ff.features[FeatureLessonsStarterCode] = &Feature{
		Name:           FeatureLessonsStarterCode,
		Description:    "Include starter code in lesson payloads",
		Enabled:        true,
		RolloutPercent: 100,
	}

	ff.features[FeatureExperimentalHints] = &Feature{
		Name:           FeatureExperimentalHints,
		Description:    "Adaptive hint generation",
		Enabled:        false,
		RolloutPercent: 0,
	}

	ff.features[FeatureExperimentalAnalytics] = &Feature{
		Name:           FeatureExperimentalAnalytics,
		Description:    "Advanced analytics dashboard",
		Enabled:        false,
		RolloutPercent: 0,
	}
}

// loadFromEnvironment loads feature flag overrides from env vars.
// Format: FEATURE_<NAME>=true|false|<percent>
// Example: FEATURE_PROGRESSION_STREAKS=true
// Example: FEATURE_EXPERIMENTAL_HINTS=25 (25% rollout)
func (ff *FeatureFlags) loadFromEnvironment() {
	for name, feature := range ff.features {
		envKey := featureNameToEnvKey(name)
		if val := os.Getenv(envKey); val != "" {
			// Try parsing as boolean
			if b, err := strconv.ParseBool(val); err == nil {
				feature.Enabled = b
				if b {
					feature.RolloutPercent = 100
				} else {
					feature.RolloutPercent = 0
				}
				continue
			}

			// Try parsing as percentage
			if p, err := strconv.Atoi(val); err == nil && p >= 0 && p <= 100 {
				feature.Enabled = p > 0
				feature.RolloutPercent = p
			}
		}
	}
}

// featureNameToEnvKey converts feature name to environment variable key.
// "progression.streaks" -> "FEATURE_PROGRESSION_STREAKS"
func featureNameToEnvKey(name string) string {
	key := strings.ToUpper(name)
	key = strings.ReplaceAll(key, ".", "_")
	return "FEATURE_" + key
}

// IsEnabled checks if a feature is enabled for the given context.
func (ff *FeatureFlags) IsEnabled(featureName string, ctx *FeatureContext) bool {
	ff.mu.RLock()
	defer ff.mu.RUnlock()

	// Check user overrides first
	if ctx != nil && ctx.UserID != "" {
		if userOverrides, ok := ff.userOverrides[ctx.UserID]; ok {
			if enabled, ok := userOverrides[featureName]; ok {
				return enabled
			}
		}
	}

	feature, ok := ff.features[featureName]
	if !ok {
		return false
	}

	// Admin users get all features
	if ctx != nil && ctx.IsAdmin {
		return true
	}

	if !feature.Enabled {
		return false
	}

	// Check time-based activation
	now := time.Now()
	if feature.EnabledFrom != nil && now.Before(*feature.EnabledFrom) {
		return false
	}
	if feature.EnabledUntil != nil && now.After(*feature.EnabledUntil) {
		return false
	}

	// Check grade-band targeting
	if len(feature.TargetGradeBands) > 0 && ctx != nil && ctx.GradeBand != "" {
		match := false
		for _, b := range feature.TargetGradeBands {
			if b == ctx.GradeBand {
				match = true
				break
			}
		}
		if !match {
			return false
		}
	}

	// Check rollout percentage
	if feature.RolloutPercent < 100 && ctx != nil && ctx.UserID != "" {
		return ff.isInRollout(ctx.UserID, featureName, feature.RolloutPercent)
	}

	return feature.RolloutPercent > 0
}

// isInRollout determines if a user is in the rollout percentage.
// Uses consistent hashing so users stay in their bucket.
func (ff *FeatureFlags) isInRollout(userID string, featureName string, percent int) bool {
	h := fnv.New32a()
	h.Write([]byte(featureName))
	h.Write([]byte(userID))
	hash := h.Sum32()

	// Map to 0-99 range
	bucket := int(hash % 100)

	return bucket < percent
}

// GetVariant returns the A/B test variant for a user.
// Returns empty string if no variants defined or feature disabled.
func (ff *FeatureFlags) GetVariant(featureName string, ctx *FeatureContext) string {
	ff.mu.RLock()
	defer ff.mu.RUnlock()

	feature, ok := ff.features[featureName]
	if !ok || !ff.IsEnabled(featureName, ctx) {
		return ""
	}

	if len(feature.Variants) == 0 || ctx == nil {
		return ""
	}

	h := fnv.New32a()
	h.Write([]byte(featureName + "_variant"))
	h.Write([]byte(ctx.UserID))
	hash := h.Sum32()

	variantIndex := int(hash % uint32(len(feature.Variants)))
	return feature.Variants[variantIndex]
}

// SetUserOverride sets a feature override for a specific user.
// Useful for testing and debugging.
func (ff *FeatureFlags) SetUserOverride(userID string, featureName string, enabled bool) {
	ff.mu.Lock()
	defer ff.mu.Unlock()

	if _, ok := ff.userOverrides[userID]; !ok {
		ff.userOverrides[userID] = make(map[string]bool)
	}
	ff.userOverrides[userID][featureName] = enabled
}

// ClearUserOverrides removes all overrides for a user.
func (ff *FeatureFlags) ClearUserOverrides(userID string) {
	ff.mu.Lock()
	defer ff.mu.Unlock()
	delete(ff.userOverrides, userID)
}

// SetRolloutPercent updates the rollout percentage for a feature.
// Thread-safe for live updates.
func (ff *FeatureFlags) SetRolloutPercent(featureName string, percent int) error {
	ff.mu.Lock()
	defer ff.mu.Unlock()

	feature, ok := ff.features[featureName]
	if !ok {
		return ErrFeatureNotFound
	}

	if percent < 0 || percent > 100 {
		return ErrInvalidRolloutPercent
	}

	feature.RolloutPercent = percent
	feature.Enabled = percent > 0

	return nil
}

// EnableFeature enables a feature at 100% rollout.
func (ff *FeatureFlags) EnableFeature(featureName string) error {
	return ff.SetRolloutPercent(featureName, 100)
}

// DisableFeature disables a feature completely.
func (ff *FeatureFlags) DisableFeature(featureName string) error {
	return ff.SetRolloutPercent(featureName, 0)
}

// GetAllFeatures returns a copy of all feature configurations.
func (ff *FeatureFlags) GetAllFeatures() map[string]*Feature {
	ff.mu.RLock()
	defer ff.mu.RUnlock()

	result := make(map[string]*Feature, len(ff.features))
	for k, v := range ff.features {
		featureCopy := *v
		result[k] = &featureCopy
	}
	return result
}

// --- Errors ---

var (
	ErrFeatureNotFound       = &FeatureFlagError{Message: "feature not found"}
	ErrInvalidRolloutPercent = &FeatureFlagError{Message: "rollout percent must be 0-100"}
)

// FeatureFlagError represents a feature flag error.
type FeatureFlagError struct {
	Message string
}

func (e *FeatureFlagError) Error() string {
	return e.Message
}
