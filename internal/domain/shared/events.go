// Package shared contains common domain types, errors, events, and value objects
// that are used across all domain packages.
package shared

import (
	"encoding/json"
	"time"
)

// EventType represents the type of domain event.
type EventType string

// Domain event types - these drive the event-driven architecture.
// Each event represents something significant that happened in the domain.
const (
	// User events
	EventUserRegistered  EventType = "user.registered"
	EventUserDeactivated EventType = "user.deactivated"
	EventUserDeleted     EventType = "user.deleted"

	// Progress events
	EventLessonStarted   EventType = "progress.lesson_started"
	EventLessonCompleted EventType = "progress.lesson_completed"
	EventXPGained        EventType = "progress.xp_gained"
	EventLevelUp         EventType = "progress.level_up"
	EventStreakUpdated   EventType = "progress.streak_updated"
	EventStreakBroken    EventType = "progress.streak_broken"

	// Achievement events
	EventAchievementUnlocked EventType = "achievement.unlocked"

	// Leaderboard events
	EventRankChanged        EventType = "leaderboard.rank_changed"
	EventLeaderboardRebuilt EventType = "leaderboard.rebuilt"

	// System events
	EventUserInactive EventType = "system.user_inactive"
)

// Event is the base interface for all domain events.
type Event interface {
	// EventType returns the type of the event.
	EventType() EventType

	// OccurredAt returns when the event occurred.
	OccurredAt() time.Time

	// AggregateID returns the ID of the aggregate that produced this event.
	AggregateID() string

	// Payload returns the event data as a map for serialization.
	Payload() map[string]interface{}
}

// EventHandler processes domain events.
type EventHandler interface {
	// Handle processes the event. Returning an error does not stop other handlers.
	Handle(event Event) error

	// Name returns a unique handler name for logging and metrics.
	Name() string
}

// EventPublisher publishes domain events to interested handlers.
type EventPublisher interface {
	Publish(event Event) error
}

// BaseEvent provides common event functionality.
type BaseEvent struct {
	Type          EventType `json:"type"`
	Timestamp     time.Time `json:"timestamp"`
	AggregateId   string    `json:"aggregate_id"`
	Version       int       `json:"version"`
	CorrelationID string    `json:"correlation_id,omitempty"`
}

// EventType implements Event interface.
func (e BaseEvent) EventType() EventType {
	return e.Type
}

// OccurredAt implements Event interface.
func (e BaseEvent) OccurredAt() time.Time {
	return e.Timestamp
}

// AggregateID implements Event interface.
func (e BaseEvent) AggregateID() string {
	return e.AggregateId
}

// WithCorrelationID returns a copy of the event with the correlation ID set.
func (e BaseEvent) WithCorrelationID(id string) BaseEvent {
	e.CorrelationID = id
	return e
}

// NewBaseEvent creates a BaseEvent for the given type and aggregate.
func NewBaseEvent(eventType EventType, aggregateID string) BaseEvent {
	return BaseEvent{
		Type:        eventType,
		Timestamp:   time.Now().UTC(),
		AggregateId: aggregateID,
		Version:     1,
	}
}

// MarshalJSON serializes the event payload together with the envelope.
func MarshalEvent(e Event) ([]byte, error) {
	envelope := map[string]interface{}{
		"type":         e.EventType(),
		"occurred_at":  e.OccurredAt(),
		"aggregate_id": e.AggregateID(),
		"payload":      e.Payload(),
	}
	return json.Marshal(envelope)
}

// ─────────────────────────────────────────────────────────────────────────────
// Concrete events
// ─────────────────────────────────────────────────────────────────────────────

// UserRegisteredEvent is emitted when a new user registers.
type UserRegisteredEvent struct {
	BaseEvent
	UserID     string `json:"user_id"`
	Email      string `json:"email"`
	Role       string `json:"role"`
	GradeLevel int    `json:"grade_level"`
}

// NewUserRegisteredEvent creates a UserRegisteredEvent.
func NewUserRegisteredEvent(userID, email, role string, gradeLevel int) UserRegisteredEvent {
	return UserRegisteredEvent{
		BaseEvent:  NewBaseEvent(EventUserRegistered, userID),
		UserID:     userID,
		Email:      email,
		Role:       role,
		GradeLevel: gradeLevel,
	}
}

// Payload implements Event interface.
func (e UserRegisteredEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"user_id":     e.UserID,
		"email":       e.Email,
		"role":        e.Role,
		"grade_level": e.GradeLevel,
	}
}

// LessonCompletedEvent is emitted on the first transition of a progress record
// into the completed status.
type LessonCompletedEvent struct {
	BaseEvent
	UserID   string `json:"user_id"`
	LessonID string `json:"lesson_id"`
	Score    *int   `json:"score,omitempty"`
	XPEarned int    `json:"xp_earned"`
	Attempts int    `json:"attempts"`
}

// NewLessonCompletedEvent creates a LessonCompletedEvent.
func NewLessonCompletedEvent(userID, lessonID string, score *int, xpEarned, attempts int) LessonCompletedEvent {
	return LessonCompletedEvent{
		BaseEvent: NewBaseEvent(EventLessonCompleted, userID),
		UserID:    userID,
		LessonID:  lessonID,
		Score:     score,
		XPEarned:  xpEarned,
		Attempts:  attempts,
	}
}

// Payload implements Event interface.
func (e LessonCompletedEvent) Payload() map[string]interface{} {
	p := map[string]interface{}{
		"user_id":   e.UserID,
		"lesson_id": e.LessonID,
		"xp_earned": e.XPEarned,
		"attempts":  e.Attempts,
	}
	if e.Score != nil {
		p["score"] = *e.Score
	}
	return p
}

// XPGainedEvent is emitted whenever a user's total XP increases.
type XPGainedEvent struct {
	BaseEvent
	UserID string `json:"user_id"`
	OldXP  int    `json:"old_xp"`
	NewXP  int    `json:"new_xp"`
	Delta  int    `json:"delta"`
	Reason string `json:"reason"` // lesson_completed, achievement_bonus
}

// NewXPGainedEvent creates an XPGainedEvent.
func NewXPGainedEvent(userID string, oldXP, newXP int, reason string) XPGainedEvent {
	return XPGainedEvent{
		BaseEvent: NewBaseEvent(EventXPGained, userID),
		UserID:    userID,
		OldXP:     oldXP,
		NewXP:     newXP,
		Delta:     newXP - oldXP,
		Reason:    reason,
	}
}

// Payload implements Event interface.
func (e XPGainedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"user_id": e.UserID,
		"old_xp":  e.OldXP,
		"new_xp":  e.NewXP,
		"delta":   e.Delta,
		"reason":  e.Reason,
	}
}

// LevelUpEvent is emitted when a user's derived level increases.
type LevelUpEvent struct {
	BaseEvent
	UserID   string `json:"user_id"`
	OldLevel int    `json:"old_level"`
	NewLevel int    `json:"new_level"`
}

// NewLevelUpEvent creates a LevelUpEvent.
func NewLevelUpEvent(userID string, oldLevel, newLevel int) LevelUpEvent {
	return LevelUpEvent{
		BaseEvent: NewBaseEvent(EventLevelUp, userID),
		UserID:    userID,
		OldLevel:  oldLevel,
		NewLevel:  newLevel,
	}
}

// Payload implements Event interface.
func (e LevelUpEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"user_id":   e.UserID,
		"old_level": e.OldLevel,
		"new_level": e.NewLevel,
	}
}

// AchievementUnlockedEvent is emitted when an achievement is awarded.
type AchievementUnlockedEvent struct {
	BaseEvent
	UserID        string `json:"user_id"`
	AchievementID string `json:"achievement_id"`
	Slug          string `json:"slug"`
	XPBonus       int    `json:"xp_bonus"`
}

// NewAchievementUnlockedEvent creates an AchievementUnlockedEvent.
func NewAchievementUnlockedEvent(userID, achievementID, slug string, xpBonus int) AchievementUnlockedEvent {
	return AchievementUnlockedEvent{
		BaseEvent:     NewBaseEvent(EventAchievementUnlocked, userID),
		UserID:        userID,
		AchievementID: achievementID,
		Slug:          slug,
		XPBonus:       xpBonus,
	}
}

// Payload implements Event interface.
func (e AchievementUnlockedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"user_id":        e.UserID,
		"achievement_id": e.AchievementID,
		"slug":           e.Slug,
		"xp_bonus":       e.XPBonus,
	}
}

// StreakUpdatedEvent is emitted when a user's daily streak advances.
type StreakUpdatedEvent struct {
	BaseEvent
	UserID        string `json:"user_id"`
	CurrentStreak int    `json:"current_streak"`
	BestStreak    int    `json:"best_streak"`
}

// NewStreakUpdatedEvent creates a StreakUpdatedEvent.
func NewStreakUpdatedEvent(userID string, current, best int) StreakUpdatedEvent {
	return StreakUpdatedEvent{
		BaseEvent:     NewBaseEvent(EventStreakUpdated, userID),
		UserID:        userID,
		CurrentStreak: current,
		BestStreak:    best,
	}
}

// Payload implements Event interface.
func (e StreakUpdatedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"user_id":        e.UserID,
		"current_streak": e.CurrentStreak,
		"best_streak":    e.BestStreak,
	}
}

// StreakBrokenEvent is emitted when a user's daily streak resets.
type StreakBrokenEvent struct {
	BaseEvent
	UserID         string `json:"user_id"`
	PreviousStreak int    `json:"previous_streak"`
}

// NewStreakBrokenEvent creates a StreakBrokenEvent.
func NewStreakBrokenEvent(userID string, previousStreak int) StreakBrokenEvent {
	return StreakBrokenEvent{
		BaseEvent:      NewBaseEvent(EventStreakBroken, userID),
		UserID:         userID,
		PreviousStreak: previousStreak,
	}
}

// Payload implements Event interface.
func (e StreakBrokenEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"user_id":         e.UserID,
		"previous_streak": e.PreviousStreak,
	}
}

// RankChangedEvent is emitted when a user's leaderboard position changes.
type RankChangedEvent struct {
	BaseEvent
	UserID  string `json:"user_id"`
	OldRank int    `json:"old_rank"`
	NewRank int    `json:"new_rank"`
}

// NewRankChangedEvent creates a RankChangedEvent.
func NewRankChangedEvent(userID string, oldRank, newRank int) RankChangedEvent {
	return RankChangedEvent{
		BaseEvent: NewBaseEvent(EventRankChanged, userID),
		UserID:    userID,
		OldRank:   oldRank,
		NewRank:   newRank,
	}
}

// Payload implements Event interface.
func (e RankChangedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"user_id":  e.UserID,
		"old_rank": e.OldRank,
		"new_rank": e.NewRank,
	}
}

// UserInactiveEvent is emitted by the worker when a user has been inactive
// beyond the configured threshold.
type UserInactiveEvent struct {
	BaseEvent
	UserID       string `json:"user_id"`
	DaysInactive int    `json:"days_inactive"`
}

// NewUserInactiveEvent creates a UserInactiveEvent.
func NewUserInactiveEvent(userID string, daysInactive int) UserInactiveEvent {
	return UserInactiveEvent{
		BaseEvent:    NewBaseEvent(EventUserInactive, userID),
		UserID:       userID,
		DaysInactive: daysInactive,
	}
}

// Payload implements Event interface.
func (e UserInactiveEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"user_id":       e.UserID,
		"days_inactive": e.DaysInactive,
	}
}
