package http

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/codequest-edu/codequest-backend/internal/application/command"
	"github.com/codequest-edu/codequest-backend/internal/domain/lesson"
	"github.com/codequest-edu/codequest-backend/internal/domain/user"
)

// ══════════════════════════════════════════════════════════════════════════════
// ADMIN: LESSON CATALOG
// ══════════════════════════════════════════════════════════════════════════════

type createLessonRequest struct {
	Module     string         `json:"module"`
	OrderIndex int            `json:"order_index"`
	Title      string         `json:"title"`
	XPReward   int            `json:"xp_reward"`
	Content    lesson.Content `json:"content"`
}

func (s *Server) handleCreateLesson(w http.ResponseWriter, r *http.Request) {
	var req createLessonRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_json", "Request body is not valid JSON")
		return
	}

	l, err := s.deps.ManageLessonsHandler.CreateLesson(r.Context(), command.CreateLessonCommand{
		Module:     req.Module,
		OrderIndex: req.OrderIndex,
		Title:      req.Title,
		XPReward:   req.XPReward,
		Content:    req.Content,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toLessonView(l, true))
}

type updateLessonRequest struct {
	Title    *string         `json:"title,omitempty"`
	XPReward *int            `json:"xp_reward,omitempty"`
	Content  *lesson.Content `json:"content,omitempty"`
}

func (s *Server) handleUpdateLesson(w http.ResponseWriter, r *http.Request) {
	var req updateLessonRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_json", "Request body is not valid JSON")
		return
	}

	l, err := s.deps.ManageLessonsHandler.UpdateLesson(r.Context(), command.UpdateLessonCommand{
		LessonID: r.PathValue("id"),
		Title:    req.Title,
		XPReward: req.XPReward,
		Content:  req.Content,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toLessonView(l, true))
}

func (s *Server) handleDeleteLesson(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.ManageLessonsHandler.DeleteLesson(r.Context(), r.PathValue("id")); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// ══════════════════════════════════════════════════════════════════════════════
// ADMIN: USER MANAGEMENT
// ══════════════════════════════════════════════════════════════════════════════

type adminUserView struct {
	ID           string     `json:"id"`
	Email        string     `json:"email"`
	DisplayName  string     `json:"display_name"`
	Role         string     `json:"role"`
	GradeLevel   string     `json:"grade_level"`
	XPTotal      int        `json:"xp_total"`
	Level        int        `json:"level"`
	Status       string     `json:"status"`
	LastActiveAt *time.Time `json:"last_active_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

func toAdminUserView(u *user.User) adminUserView {
	view := adminUserView{
		ID:          u.ID,
		Email:       u.Email.String(),
		DisplayName: u.DisplayName,
		Role:        string(u.Role),
		GradeLevel:  u.GradeLevel.String(),
		XPTotal:     u.XPTotal,
		Level:       u.Level,
		Status:      string(u.Status),
		CreatedAt:   u.CreatedAt,
	}
	if !u.LastActiveAt.IsZero() {
		t := u.LastActiveAt
		view.LastActiveAt = &t
	}
	return view
}

func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	page := getQueryParamInt(r, "page", 1)
	if page < 1 {
		page = 1
	}
	pageSize := getQueryParamInt(r, "page_size", 50)
	if pageSize < 1 || pageSize > 200 {
		pageSize = 50
	}

	users, err := s.deps.UserRepo.GetAll(r.Context(), user.ListOptions{
		Limit:  pageSize,
		Offset: (page - 1) * pageSize,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	total, err := s.deps.UserRepo.Count(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}

	views := make([]adminUserView, 0, len(users))
	for _, u := range users {
		views = append(views, toAdminUserView(u))
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"users":     views,
		"total":     total,
		"page":      page,
		"page_size": pageSize,
	})
}

func (s *Server) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	// A superadmin deleting itself is almost certainly a mistake.
	if sess, ok := sessionFrom(r.Context()); ok && sess.UserID == id {
		writeJSONError(w, http.StatusConflict, "self_delete", "Cannot delete your own account")
		return
	}

	if err := s.deps.UserRepo.Delete(r.Context(), id); err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
