package query

import (
	"context"
	"time"

	"github.com/codequest-edu/codequest-backend/internal/domain/progression"
	"github.com/codequest-edu/codequest-backend/internal/domain/shared"
	"github.com/codequest-edu/codequest-backend/internal/domain/user"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET SUMMARY QUERY
// The dashboard view: XP, level position, streak and completion counters.
// ══════════════════════════════════════════════════════════════════════════════

// SummaryDTO aggregates a user's progression state.
type SummaryDTO struct {
	// UserID identifies the user.
	UserID string `json:"user_id"`

	// DisplayName is the user's display name.
	DisplayName string `json:"display_name"`

	// GradeLevel is the K-12 grade as shown on dashboards.
	GradeLevel string `json:"grade_level"`

	// XPTotal is the lifetime XP.
	XPTotal int `json:"xp_total"`

	// Level and the position within it.
	Level          int     `json:"level"`
	XPIntoLevel    int     `json:"xp_into_level"`
	XPForNextLevel int     `json:"xp_for_next_level"`
	LevelPercent   float64 `json:"level_percent"`

	// LessonsCompleted is the completed-lesson count.
	LessonsCompleted int `json:"lessons_completed"`

	// AchievementsEarned is the earned-achievement count.
	AchievementsEarned int `json:"achievements_earned"`

	// CurrentStreak / BestStreak are the daily streak counters.
	CurrentStreak int `json:"current_streak"`
	BestStreak    int `json:"best_streak"`

	// LastActiveAt is the user's last activity timestamp.
	LastActiveAt *time.Time `json:"last_active_at,omitempty"`
}

// GetSummaryHandler handles summary queries.
type GetSummaryHandler struct {
	userRepo        user.Repository
	progressRepo    progression.ProgressRepository
	achievementRepo progression.AchievementRepository
	streakRepo      progression.StreakRepository
}

// NewGetSummaryHandler creates a new GetSummaryHandler.
func NewGetSummaryHandler(
	userRepo user.Repository,
	progressRepo progression.ProgressRepository,
	achievementRepo progression.AchievementRepository,
	streakRepo progression.StreakRepository,
) *GetSummaryHandler {
	return &GetSummaryHandler{
		userRepo:        userRepo,
		progressRepo:    progressRepo,
		achievementRepo: achievementRepo,
		streakRepo:      streakRepo,
	}
}

// Handle builds the summary for one user.
func (h *GetSummaryHandler) Handle(ctx context.Context, userID string) (*SummaryDTO, error) {
	if userID == "" {
		return nil, shared.NewDomainError("query", "GetSummary", shared.ErrEmptyValue, "user_id is required")
	}

	u, err := h.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	completed, err := h.progressRepo.CountCompleted(ctx, userID)
	if err != nil {
		return nil, err
	}

	earned, err := h.achievementRepo.GetEarnedIDs(ctx, userID)
	if err != nil {
		return nil, err
	}

	streak, err := h.streakRepo.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	lp := progression.ProgressWithinLevel(u.XPTotal)

	dto := &SummaryDTO{
		UserID:             u.ID,
		DisplayName:        u.DisplayName,
		GradeLevel:         u.GradeLevel.String(),
		XPTotal:            u.XPTotal,
		Level:              lp.Level,
		XPIntoLevel:        lp.XPIntoLevel,
		XPForNextLevel:     lp.XPForNextLevel,
		LevelPercent:       lp.Percent,
		LessonsCompleted:   completed,
		AchievementsEarned: len(earned),
		CurrentStreak:      streak.CurrentStreak,
		BestStreak:         streak.BestStreak,
	}

	if !u.LastActiveAt.IsZero() {
		dto.LastActiveAt = &u.LastActiveAt
	}

	return dto, nil
}
