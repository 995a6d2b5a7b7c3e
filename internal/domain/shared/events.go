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
	// Progress events
	EventCompletionRecorded EventType = "progress.completion_recorded"
	EventReviewRecorded     EventType = "progress.review_recorded"
	EventQuizSubmitted      EventType = "progress.quiz_submitted"

	// Gamification events
	EventXPGained      EventType = "gamification.xp_gained"
	EventLevelUp       EventType = "gamification.level_up"
	EventBadgeGranted  EventType = "gamification.badge_granted"
	EventStreakUpdated EventType = "gamification.streak_updated"
	EventStreakBroken  EventType = "gamification.streak_broken"

	// Leaderboard events
	EventLeaderboardUpdated EventType = "leaderboard.updated"
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

// NewBaseEvent creates a new base event.
func NewBaseEvent(eventType EventType, aggregateID string) BaseEvent {
	return BaseEvent{
		Type:        eventType,
		Timestamp:   time.Now(),
		AggregateId: aggregateID,
		Version:     1,
	}
}

// WithCorrelationID sets the correlation ID for tracing.
func (e BaseEvent) WithCorrelationID(id string) BaseEvent {
	e.CorrelationID = id
	return e
}

// ═══════════════════════════════════════════════════════════════════════════
// Progress Events
// ═══════════════════════════════════════════════════════════════════════════

// CompletionRecordedEvent is emitted when an audio lesson completion is recorded.
type CompletionRecordedEvent struct {
	BaseEvent
	UserID      int64     `json:"user_id"`
	AudibleID   int64     `json:"audible_id"`
	TopicID     int64     `json:"topic_id"`
	CompletedAt time.Time `json:"completed_at"`
}

// Payload implements Event interface.
func (e CompletionRecordedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"user_id":      e.UserID,
		"audible_id":   e.AudibleID,
		"topic_id":     e.TopicID,
		"completed_at": e.CompletedAt.Format(time.RFC3339),
	}
}

// NewCompletionRecordedEvent creates a new CompletionRecordedEvent.
func NewCompletionRecordedEvent(userID UserID, audibleID AudibleID, topicID TopicID, completedAt time.Time) CompletionRecordedEvent {
	return CompletionRecordedEvent{
		BaseEvent:   NewBaseEvent(EventCompletionRecorded, userID.String()),
		UserID:      userID.Int64(),
		AudibleID:   audibleID.Int64(),
		TopicID:     topicID.Int64(),
		CompletedAt: completedAt,
	}
}

// ReviewRecordedEvent is emitted when a flashcard review is recorded.
type ReviewRecordedEvent struct {
	BaseEvent
	UserID     int64     `json:"user_id"`
	CardID     int64     `json:"card_id"`
	ReviewedAt time.Time `json:"reviewed_at"`
}

// Payload implements Event interface.
func (e ReviewRecordedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"user_id":     e.UserID,
		"card_id":     e.CardID,
		"reviewed_at": e.ReviewedAt.Format(time.RFC3339),
	}
}

// NewReviewRecordedEvent creates a new ReviewRecordedEvent.
func NewReviewRecordedEvent(userID UserID, cardID CardID, reviewedAt time.Time) ReviewRecordedEvent {
	return ReviewRecordedEvent{
		BaseEvent:  NewBaseEvent(EventReviewRecorded, userID.String()),
		UserID:     userID.Int64(),
		CardID:     cardID.Int64(),
		ReviewedAt: reviewedAt,
	}
}

// QuizSubmittedEvent is emitted when a quiz score is recorded.
type QuizSubmittedEvent struct {
	BaseEvent
	UserID      int64     `json:"user_id"`
	TopicID     int64     `json:"topic_id"`
	Score       int       `json:"score"`
	Total       int       `json:"total"`
	XPEarned    int       `json:"xp_earned"`
	SubmittedAt time.Time `json:"submitted_at"`
}

// Payload implements Event interface.
func (e QuizSubmittedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"user_id":      e.UserID,
		"topic_id":     e.TopicID,
		"score":        e.Score,
		"total":        e.Total,
		"xp_earned":    e.XPEarned,
		"submitted_at": e.SubmittedAt.Format(time.RFC3339),
	}
}

// NewQuizSubmittedEvent creates a new QuizSubmittedEvent.
func NewQuizSubmittedEvent(userID UserID, topicID TopicID, score, total, xpEarned int, submittedAt time.Time) QuizSubmittedEvent {
	return QuizSubmittedEvent{
		BaseEvent:   NewBaseEvent(EventQuizSubmitted, userID.String()),
		UserID:      userID.Int64(),
		TopicID:     topicID.Int64(),
		Score:       score,
		Total:       total,
		XPEarned:    xpEarned,
		SubmittedAt: submittedAt,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Gamification Events
// ═══════════════════════════════════════════════════════════════════════════

// XPGainedEvent is emitted when a user gains XP.
type XPGainedEvent struct {
	BaseEvent
	UserID   int64  `json:"user_id"`
	Amount   int    `json:"amount"`
	NewTotal int    `json:"new_total"`
	Source   string `json:"source"` // e.g., "quiz"
}

// Payload implements Event interface.
func (e XPGainedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"user_id":   e.UserID,
		"amount":    e.Amount,
		"new_total": e.NewTotal,
		"source":    e.Source,
	}
}

// NewXPGainedEvent creates a new XPGainedEvent.
func NewXPGainedEvent(userID UserID, amount, newTotal int, source string) XPGainedEvent {
	return XPGainedEvent{
		BaseEvent: NewBaseEvent(EventXPGained, userID.String()),
		UserID:    userID.Int64(),
		Amount:    amount,
		NewTotal:  newTotal,
		Source:    source,
	}
}

// LevelUpEvent is emitted when a user's level increases.
type LevelUpEvent struct {
	BaseEvent
	UserID   int64 `json:"user_id"`
	OldLevel int   `json:"old_level"`
	NewLevel int   `json:"new_level"`
	TotalXP  int   `json:"total_xp"`
}

// Payload implements Event interface.
func (e LevelUpEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"user_id":   e.UserID,
		"old_level": e.OldLevel,
		"new_level": e.NewLevel,
		"total_xp":  e.TotalXP,
	}
}

// NewLevelUpEvent creates a new LevelUpEvent.
func NewLevelUpEvent(userID UserID, oldLevel, newLevel Level, totalXP XP) LevelUpEvent {
	return LevelUpEvent{
		BaseEvent: NewBaseEvent(EventLevelUp, userID.String()),
		UserID:    userID.Int64(),
		OldLevel:  oldLevel.Int(),
		NewLevel:  newLevel.Int(),
		TotalXP:   totalXP.Int(),
	}
}

// BadgeGrantedEvent is emitted when a user earns a new badge.
type BadgeGrantedEvent struct {
	BaseEvent
	UserID int64  `json:"user_id"`
	Badge  string `json:"badge"`
}

// Payload implements Event interface.
func (e BadgeGrantedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"user_id": e.UserID,
		"badge":   e.Badge,
	}
}

// NewBadgeGrantedEvent creates a new BadgeGrantedEvent.
func NewBadgeGrantedEvent(userID UserID, badge string) BadgeGrantedEvent {
	return BadgeGrantedEvent{
		BaseEvent: NewBaseEvent(EventBadgeGranted, userID.String()),
		UserID:    userID.Int64(),
		Badge:     badge,
	}
}

// StreakUpdatedEvent is emitted when a user's daily streak changes.
type StreakUpdatedEvent struct {
	BaseEvent
	UserID        int64  `json:"user_id"`
	CurrentStreak int    `json:"current_streak"`
	LongestStreak int    `json:"longest_streak"`
	ActivityDate  string `json:"activity_date"`
}

// Payload implements Event interface.
func (e StreakUpdatedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"user_id":        e.UserID,
		"current_streak": e.CurrentStreak,
		"longest_streak": e.LongestStreak,
		"activity_date":  e.ActivityDate,
	}
}

// NewStreakUpdatedEvent creates a new StreakUpdatedEvent.
func NewStreakUpdatedEvent(userID UserID, currentStreak, longestStreak int, activityDate string) StreakUpdatedEvent {
	return StreakUpdatedEvent{
		BaseEvent:     NewBaseEvent(EventStreakUpdated, userID.String()),
		UserID:        userID.Int64(),
		CurrentStreak: currentStreak,
		LongestStreak: longestStreak,
		ActivityDate:  activityDate,
	}
}

// StreakBrokenEvent is emitted when a user's daily streak resets.
type StreakBrokenEvent struct {
	BaseEvent
	UserID         int64 `json:"user_id"`
	PreviousStreak int   `json:"previous_streak"`
	DaysMissed     int   `json:"days_missed"`
}

// Payload implements Event interface.
func (e StreakBrokenEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"user_id":         e.UserID,
		"previous_streak": e.PreviousStreak,
		"days_missed":     e.DaysMissed,
	}
}

// NewStreakBrokenEvent creates a new StreakBrokenEvent.
func NewStreakBrokenEvent(userID UserID, previousStreak, daysMissed int) StreakBrokenEvent {
	return StreakBrokenEvent{
		BaseEvent:      NewBaseEvent(EventStreakBroken, userID.String()),
		UserID:         userID.Int64(),
		PreviousStreak: previousStreak,
		DaysMissed:     daysMissed,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Leaderboard Events
// ═══════════════════════════════════════════════════════════════════════════

// LeaderboardUpdatedEvent is emitted when a leaderboard entry is refreshed.
type LeaderboardUpdatedEvent struct {
	BaseEvent
	UserID int64  `json:"user_id"`
	Board  string `json:"board"` // "xp" or "streak"
	Score  int    `json:"score"`
}

// Payload implements Event interface.
func (e LeaderboardUpdatedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"user_id": e.UserID,
		"board":   e.Board,
		"score":   e.Score,
	}
}

// NewLeaderboardUpdatedEvent creates a new LeaderboardUpdatedEvent.
func NewLeaderboardUpdatedEvent(userID UserID, board string, score int) LeaderboardUpdatedEvent {
	return LeaderboardUpdatedEvent{
		BaseEvent: NewBaseEvent(EventLeaderboardUpdated, userID.String()),
		UserID:    userID.Int64(),
		Board:     board,
		Score:     score,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Event Envelope (for serialization and transport)
// ═══════════════════════════════════════════════════════════════════════════

// EventEnvelope wraps an event for transport/storage.
type EventEnvelope struct {
	ID            string          `json:"id"`
	Type          EventType       `json:"type"`
	AggregateID   string          `json:"aggregate_id"`
	Timestamp     time.Time       `json:"timestamp"`
	Version       int             `json:"version"`
	CorrelationID string          `json:"correlation_id,omitempty"`
	Payload       json.RawMessage `json:"payload"`
}

// EventHandler is a function that handles an event.
type EventHandler func(event Event) error

// EventPublisher defines the interface for publishing events.
type EventPublisher interface {
	// Publish sends an event to subscribers.
	Publish(event Event) error
}

// EventSubscriber defines the interface for subscribing to events.
type EventSubscriber interface {
	// Subscribe registers a handler for an event type.
	Subscribe(eventType EventType, handler EventHandler) error

	// SubscribeAll registers a handler for all events.
	SubscribeAll(handler EventHandler) error
}

// EventBus combines publishing and subscribing.
type EventBus interface {
	EventPublisher
	EventSubscriber
}
