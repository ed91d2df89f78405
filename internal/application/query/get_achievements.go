package query

import (
	"context"
	"time"

	"github.com/codequest-edu/codequest-backend/internal/domain/progression"
	"github.com/codequest-edu/codequest-backend/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET ACHIEVEMENTS QUERY
// Returns the full rule catalog with the user's earned state merged in.
// ══════════════════════════════════════════════════════════════════════════════

// AchievementDTO is one achievement with the user's earned state.
type AchievementDTO struct {
	// ID identifies the achievement.
	ID string `json:"id"`

	// Slug is the stable machine identifier.
	Slug string `json:"slug"`

	// Title / Description are the display strings.
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`

	// XPReward is the bonus XP granted on award.
	XPReward int `json:"xp_reward"`

	// CriteriaKind / CriteriaCount describe the awarding rule.
	CriteriaKind  string `json:"criteria_kind"`
	CriteriaCount int    `json:"criteria_count"`

	// Earned is true when the user holds this achievement.
	Earned bool `json:"earned"`

	// EarnedAt is set when Earned is true.
	EarnedAt *time.Time `json:"earned_at,omitempty"`
}

// GetAchievementsResult is the catalog with earned state.
type GetAchievementsResult struct {
	UserID       string           `json:"user_id"`
	Achievements []AchievementDTO `json:"achievements"`
	EarnedCount  int              `json:"earned_count"`
}

// GetAchievementsHandler handles achievement listing queries.
type GetAchievementsHandler struct {
	achievementRepo progression.AchievementRepository
}

// NewGetAchievementsHandler creates a new GetAchievementsHandler.
func NewGetAchievementsHandler(achievementRepo progression.AchievementRepository) *GetAchievementsHandler {
	return &GetAchievementsHandler{achievementRepo: achievementRepo}
}

// Handle returns every rule with the user's earned state.
func (h *GetAchievementsHandler) Handle(ctx context.Context, userID string) (*GetAchievementsResult, error) {
	if userID == "" {
		return nil, shared.NewDomainError("query", "GetAchievements", shared.ErrEmptyValue, "user_id is required")
	}

	rules, err := h.achievementRepo.GetAllRules(ctx)
	if err != nil {
		return nil, err
	}

	awards, err := h.achievementRepo.GetEarned(ctx, userID)
	if err != nil {
		return nil, err
	}

	earnedAt := make(map[string]time.Time, len(awards))
	for _, a := range awards {
		earnedAt[a.AchievementID] = a.EarnedAt
	}

	result := &GetAchievementsResult{
		UserID:       userID,
		Achievements: make([]AchievementDTO, 0, len(rules)),
	}

	for _, rule := range rules {
		dto := AchievementDTO{
			ID:            rule.ID,
			Slug:          rule.Slug,
			Title:         rule.Name,
			Description:   rule.Description,
			XPReward:      rule.XPReward,
			CriteriaKind:  string(rule.Criteria.Kind),
			CriteriaCount: rule.Criteria.Count,
		}

		if at, ok := earnedAt[rule.ID]; ok {
			dto.Earned = true
			at := at
			dto.EarnedAt = &at
			result.EarnedCount++
		}

		result.Achievements = append(result.Achievements, dto)
	}

	return result, nil
}
