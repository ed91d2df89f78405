package http

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/codequest-edu/codequest-backend/internal/application/command"
	"github.com/codequest-edu/codequest-backend/internal/application/query"
	"github.com/codequest-edu/codequest-backend/internal/domain/lesson"
)

// ══════════════════════════════════════════════════════════════════════════════
// HEALTH HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status": "ok",
		"uptime": s.Uptime().String(),
	})
}

func (s *Server) handleLive(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "alive"})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.deps.HealthChecker == nil {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
		return
	}

	checks := s.deps.HealthChecker.CheckHealth(r.Context())
	status := http.StatusOK
	details := make(map[string]string, len(checks))
	for name, err := range checks {
		if err != nil {
			status = http.StatusServiceUnavailable
			details[name] = err.Error()
		} else {
			details[name] = "ok"
		}
	}

	writeJSON(w, status, map[string]interface{}{
		"status": map[bool]string{true: "ready", false: "degraded"}[status == http.StatusOK],
		"checks": details,
	})
}

// ══════════════════════════════════════════════════════════════════════════════
// AUTH HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

type registerRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name"`
	GradeLevel  int    `json:"grade_level"`
}

type userResponse struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
	Role        string `json:"role"`
	GradeLevel  string `json:"grade_level"`
	XPTotal     int    `json:"xp_total"`
	Level       int    `json:"level"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_json", "Request body is not valid JSON")
		return
	}

	result, err := s.deps.RegisterUserHandler.Handle(r.Context(), command.RegisterUserCommand{
		Email:       req.Email,
		Password:    req.Password,
		DisplayName: req.DisplayName,
		GradeLevel:  req.GradeLevel,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	u := result.User
	writeJSON(w, http.StatusCreated, userResponse{
		ID:          u.ID,
		Email:       u.Email.String(),
		DisplayName: u.DisplayName,
		Role:        string(u.Role),
		GradeLevel:  u.GradeLevel.String(),
		XPTotal:     u.XPTotal,
		Level:       u.Level,
	})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_json", "Request body is not valid JSON")
		return
	}

	result, err := s.deps.LoginHandler.Handle(r.Context(), command.LoginCommand{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"token": result.Token,
		"user": userResponse{
			ID:          result.User.ID,
			Email:       result.User.Email.String(),
			DisplayName: result.User.DisplayName,
			Role:        string(result.User.Role),
			GradeLevel:  result.User.GradeLevel.String(),
			XPTotal:     result.User.XPTotal,
			Level:       result.User.Level,
		},
	})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.LogoutHandler.Handle(r.Context(), bearerToken(r)); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "logged_out"})
}

// ══════════════════════════════════════════════════════════════════════════════
// LESSON CATALOG HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

func (s *Server) handleListLessons(w http.ResponseWriter, r *http.Request) {
	lessons, err := s.deps.LessonRepo.GetAll(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}

	views := make([]LessonView, 0, len(lessons))
	for _, l := range lessons {
		views = append(views, toLessonView(l, false))
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"lessons": views,
		"count":   len(views),
	})
}

func (s *Server) handleGetLesson(w http.ResponseWriter, r *http.Request) {
	l, err := s.deps.LessonRepo.GetByID(r.Context(), r.PathValue("id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toLessonView(l, true))
}

// toLessonView maps a lesson onto the client projection. The body and
// starter code are heavy and only included on single-lesson reads.
func toLessonView(l *lesson.Lesson, includeContent bool) LessonView {
	view := LessonView{
		ID:               l.ID,
		Module:           l.Module.String(),
		OrderIndex:       l.OrderIndex,
		Title:            l.Title,
		XPReward:         l.XPReward,
		Difficulty:       string(l.Content.Difficulty),
		EstimatedMinutes: l.Content.EstimatedMinutes,
	}
	if includeContent {
		view.Objectives = l.Content.Objectives
		view.Body = l.Content.Body
		view.StarterCode = l.Content.StarterCode
	}
	return view
}

// ══════════════════════════════════════════════════════════════════════════════
// ME HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

func (s *Server) handleGetMe(w http.ResponseWriter, r *http.Request) {
	sess, _ := sessionFrom(r.Context())

	summary, err := s.deps.GetSummaryHandler.Handle(r.Context(), sess.UserID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, summary)
}

func (s *Server) handleGetProgress(w http.ResponseWriter, r *http.Request) {
	sess, _ := sessionFrom(r.Context())

	result, err := s.deps.GetProgressHandler.Handle(r.Context(), sess.UserID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleGetLessonProgress(w http.ResponseWriter, r *http.Request) {
	sess, _ := sessionFrom(r.Context())

	entry, err := s.deps.GetLessonProgressHandler.Handle(r.Context(), sess.UserID, r.PathValue("lessonID"))
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, entry)
}

type recordProgressRequest struct {
	Status string `json:"status"`
	Score  *int   `json:"score,omitempty"`
	Code   string `json:"code,omitempty"`
}

type recordProgressResponse struct {
	LessonID        string     `json:"lesson_id"`
	Status          string     `json:"status"`
	Score           *int       `json:"score,omitempty"`
	Attempts        int        `json:"attempts"`
	CompletedAt     *time.Time `json:"completed_at,omitempty"`
	XPEarned        int        `json:"xp_earned"`
	XPTotal         int        `json:"xp_total"`
	Level           int        `json:"level"`
	LeveledUp       bool       `json:"leveled_up"`
	FirstCompletion bool       `json:"first_completion"`
	CurrentStreak   int        `json:"current_streak"`

	// Achievements newly unlocked by this submission.
	Achievements []awardedAchievementView `json:"achievements"`
}

type awardedAchievementView struct {
	Slug        string `json:"slug"`
	Name        string `json:"name"`
	Description string `json:"description"`
	XPReward    int    `json:"xp_reward"`
}

// handleRecordProgress records one submission. Repeat completions are
// idempotent and respond 200 with xp_earned 0 rather than an error.
func (s *Server) handleRecordProgress(w http.ResponseWriter, r *http.Request) {
	sess, _ := sessionFrom(r.Context())

	var req recordProgressRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_json", "Request body is not valid JSON")
		return
	}

	result, err := s.deps.RecordProgressHandler.Handle(r.Context(), command.RecordProgressCommand{
		UserID:        sess.UserID,
		LessonID:      r.PathValue("lessonID"),
		TargetStatus:  req.Status,
		Score:         req.Score,
		Code:          req.Code,
		CorrelationID: getRequestID(r.Context()),
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	awards := make([]awardedAchievementView, 0, len(result.Achievements))
	for _, a := range result.Achievements {
		awards = append(awards, awardedAchievementView{
			Slug:        a.Slug,
			Name:        a.Name,
			Description: a.Description,
			XPReward:    a.XPReward,
		})
	}

	writeJSON(w, http.StatusOK, recordProgressResponse{
		LessonID:        result.Progress.LessonID,
		Status:          string(result.Progress.Status),
		Score:           result.Progress.Score,
		Attempts:        result.Progress.Attempts,
		CompletedAt:     result.Progress.CompletedAt,
		XPEarned:        result.XPEarned,
		XPTotal:         result.NewXPTotal,
		Level:           result.Level,
		LeveledUp:       result.LeveledUp,
		FirstCompletion: result.FirstCompletion,
		CurrentStreak:   result.CurrentStreak,
		Achievements:    awards,
	})
}

func (s *Server) handleGetAchievements(w http.ResponseWriter, r *http.Request) {
	sess, _ := sessionFrom(r.Context())

	result, err := s.deps.GetAchievementsHandler.Handle(r.Context(), sess.UserID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleGetRank(w http.ResponseWriter, r *http.Request) {
	sess, _ := sessionFrom(r.Context())

	var grade *int
	if g := getQueryParamInt(r, "grade", -1); g >= 0 {
		grade = &g
	}

	result, err := s.deps.GetRankHandler.Handle(r.Context(), sess.UserID, grade)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// ══════════════════════════════════════════════════════════════════════════════
// LEADERBOARD HANDLER
// ══════════════════════════════════════════════════════════════════════════════

func (s *Server) handleGetLeaderboard(w http.ResponseWriter, r *http.Request) {
	q := query.GetLeaderboardQuery{
		Page:     getQueryParamInt(r, "page", 1),
		PageSize: getQueryParamInt(r, "page_size", 0),
	}
	if g := getQueryParamInt(r, "grade", -1); g >= 0 {
		q.Grade = &g
	}

	result, err := s.deps.GetLeaderboardHandler.Handle(r.Context(), q)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}
