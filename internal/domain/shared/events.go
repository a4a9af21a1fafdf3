// Package shared contains common domain types, errors, events, and value objects
// that are used across all domain packages.
package shared

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// EventType represents the type of domain event.
type EventType string

// Domain event types - these drive the event-driven architecture.
// Each event represents something significant that happened in the domain.
const (
	// Learner events
	EventLearnerRegistered EventType = "learner.registered"
	EventFeedbackLeft      EventType = "learner.feedback_left"

	// Progress events
	EventPointsGained       EventType = "progress.points_gained"
	EventTaskCompleted      EventType = "progress.task_completed"
	EventDailyStreakUpdated EventType = "progress.daily_streak_updated"
	EventTopicMilestone     EventType = "progress.topic_milestone"
	EventBadgeUnlocked      EventType = "progress.badge_unlocked"

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
	EventID       string    `json:"event_id"`
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

// ID returns the unique event identifier.
func (e BaseEvent) ID() string {
	return e.EventID
}

// NewBaseEvent creates a new base event.
func NewBaseEvent(eventType EventType, aggregateID string) BaseEvent {
	return BaseEvent{
		EventID:     uuid.NewString(),
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

// TaskCompletedEvent is emitted when a learner records a completion for a task.
// FirstAttempt is false for repeat-lap answers.
type TaskCompletedEvent struct {
	BaseEvent
	TelegramID   int64  `json:"telegram_id"`
	TaskID       string `json:"task_id"`
	Topic        string `json:"topic"`
	IsCorrect    bool   `json:"is_correct"`
	FirstAttempt bool   `json:"first_attempt"`
	Delta        int    `json:"delta"`
}

// Payload implements Event interface.
func (e TaskCompletedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"telegram_id":   e.TelegramID,
		"task_id":       e.TaskID,
		"topic":         e.Topic,
		"is_correct":    e.IsCorrect,
		"first_attempt": e.FirstAttempt,
		"delta":         e.Delta,
	}
}

// NewTaskCompletedEvent creates a new TaskCompletedEvent.
func NewTaskCompletedEvent(telegramID int64, taskID, topic string, isCorrect, firstAttempt bool, delta int) TaskCompletedEvent {
	return TaskCompletedEvent{
		BaseEvent:    NewBaseEvent(EventTaskCompleted, TelegramID(telegramID).String()),
		TelegramID:   telegramID,
		TaskID:       taskID,
		Topic:        topic,
		IsCorrect:    isCorrect,
		FirstAttempt: firstAttempt,
		Delta:        delta,
	}
}

// PointsGainedEvent is emitted when a learner's score changes.
type PointsGainedEvent struct {
	BaseEvent
	TelegramID int64  `json:"telegram_id"`
	Amount     int    `json:"amount"`
	NewTotal   int    `json:"new_total"`
	Source     string `json:"source"` // e.g., "answer", "streak_bonus", "badge"
}

// Payload implements Event interface.
func (e PointsGainedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"telegram_id": e.TelegramID,
		"amount":      e.Amount,
		"new_total":   e.NewTotal,
		"source":      e.Source,
	}
}

// NewPointsGainedEvent creates a new PointsGainedEvent.
func NewPointsGainedEvent(telegramID int64, amount, newTotal int, source string) PointsGainedEvent {
	return PointsGainedEvent{
		BaseEvent:  NewBaseEvent(EventPointsGained, TelegramID(telegramID).String()),
		TelegramID: telegramID,
		Amount:     amount,
		NewTotal:   newTotal,
		Source:     source,
	}
}

// DailyStreakUpdatedEvent is emitted after the daily streak is recalculated.
type DailyStreakUpdatedEvent struct {
	BaseEvent
	TelegramID int64 `json:"telegram_id"`
	Streak     int   `json:"streak"`
	WasReset   bool  `json:"was_reset"`
	Bonus      int   `json:"bonus"`
}

// Payload implements Event interface.
func (e DailyStreakUpdatedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"telegram_id": e.TelegramID,
		"streak":      e.Streak,
		"was_reset":   e.WasReset,
		"bonus":       e.Bonus,
	}
}

// NewDailyStreakUpdatedEvent creates a new DailyStreakUpdatedEvent.
func NewDailyStreakUpdatedEvent(telegramID int64, streak int, wasReset bool, bonus int) DailyStreakUpdatedEvent {
	return DailyStreakUpdatedEvent{
		BaseEvent:  NewBaseEvent(EventDailyStreakUpdated, TelegramID(telegramID).String()),
		TelegramID: telegramID,
		Streak:     streak,
		WasReset:   wasReset,
		Bonus:      bonus,
	}
}

// TopicMilestoneEvent is emitted when a per-topic streak milestone is awarded.
type TopicMilestoneEvent struct {
	BaseEvent
	TelegramID int64  `json:"telegram_id"`
	Topic      string `json:"topic"`
	Threshold  int    `json:"threshold"`
	Bonus      int    `json:"bonus"`
}

// Payload implements Event interface.
func (e TopicMilestoneEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"telegram_id": e.TelegramID,
		"topic":       e.Topic,
		"threshold":   e.Threshold,
		"bonus":       e.Bonus,
	}
}

// NewTopicMilestoneEvent creates a new TopicMilestoneEvent.
func NewTopicMilestoneEvent(telegramID int64, topic string, threshold, bonus int) TopicMilestoneEvent {
	return TopicMilestoneEvent{
		BaseEvent:  NewBaseEvent(EventTopicMilestone, TelegramID(telegramID).String()),
		TelegramID: telegramID,
		Topic:      topic,
		Threshold:  threshold,
		Bonus:      bonus,
	}
}

// BadgeUnlockedEvent is emitted when the badge evaluator grants a new badge.
type BadgeUnlockedEvent struct {
	BaseEvent
	TelegramID int64  `json:"telegram_id"`
	Badge      string `json:"badge"`
	Reward     int    `json:"reward"`
}

// Payload implements Event interface.
func (e BadgeUnlockedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"telegram_id": e.TelegramID,
		"badge":       e.Badge,
		"reward":      e.Reward,
	}
}

// NewBadgeUnlockedEvent creates a new BadgeUnlockedEvent.
func NewBadgeUnlockedEvent(telegramID int64, badge string, reward int) BadgeUnlockedEvent {
	return BadgeUnlockedEvent{
		BaseEvent:  NewBaseEvent(EventBadgeUnlocked, TelegramID(telegramID).String()),
		TelegramID: telegramID,
		Badge:      badge,
		Reward:     reward,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Learner Events
// ═══════════════════════════════════════════════════════════════════════════

// LearnerRegisteredEvent is emitted when a new learner runs /start for the first time.
type LearnerRegisteredEvent struct {
	BaseEvent
	TelegramID  int64  `json:"telegram_id"`
	DisplayName string `json:"display_name"`
}

// Payload implements Event interface.
func (e LearnerRegisteredEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"telegram_id":  e.TelegramID,
		"display_name": e.DisplayName,
	}
}

// NewLearnerRegisteredEvent creates a new LearnerRegisteredEvent.
func NewLearnerRegisteredEvent(telegramID int64, displayName string) LearnerRegisteredEvent {
	return LearnerRegisteredEvent{
		BaseEvent:   NewBaseEvent(EventLearnerRegistered, TelegramID(telegramID).String()),
		TelegramID:  telegramID,
		DisplayName: displayName,
	}
}

// FeedbackLeftEvent is emitted when a learner submits feedback.
type FeedbackLeftEvent struct {
	BaseEvent
	TelegramID int64  `json:"telegram_id"`
	FeedbackID string `json:"feedback_id"`
}

// Payload implements Event interface.
func (e FeedbackLeftEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"telegram_id": e.TelegramID,
		"feedback_id": e.FeedbackID,
	}
}

// NewFeedbackLeftEvent creates a new FeedbackLeftEvent.
func NewFeedbackLeftEvent(telegramID int64, feedbackID string) FeedbackLeftEvent {
	return FeedbackLeftEvent{
		BaseEvent:  NewBaseEvent(EventFeedbackLeft, TelegramID(telegramID).String()),
		TelegramID: telegramID,
		FeedbackID: feedbackID,
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
