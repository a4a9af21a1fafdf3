// Package eventhandler contains domain event handlers. They run the
// side effects that do not belong inside the submit-answer unit of work,
// such as cache invalidation and milestone logging.
package eventhandler

import (
	"context"
	"log/slog"

	"github.com/Matviy-commands/math-nmt-bot/internal/domain/learner"
	"github.com/Matviy-commands/math-nmt-bot/internal/domain/shared"
)

// ═══════════════════════════════════════════════════════════════════════════
// ON TASK COMPLETED HANDLER
// Every scoring event makes the cached leaderboard stale, so the handler
// invalidates it and lets the next /top read repopulate it.
// ═══════════════════════════════════════════════════════════════════════════

// OnTaskCompletedHandler reacts to completion and points events.
type OnTaskCompletedHandler struct {
	cache  learner.LeaderboardCache
	logger *slog.Logger
}

// NewOnTaskCompletedHandler creates a new OnTaskCompletedHandler.
func NewOnTaskCompletedHandler(cache learner.LeaderboardCache, logger *slog.Logger) *OnTaskCompletedHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &OnTaskCompletedHandler{
		cache:  cache,
		logger: logger.With("handler", "on_task_completed"),
	}
}

// Register subscribes the handler to every event that can move a score.
func (h *OnTaskCompletedHandler) Register(bus shared.EventSubscriber) error {
	for _, t := range []shared.EventType{
		shared.EventTaskCompleted,
		shared.EventPointsGained,
		shared.EventBadgeUnlocked,
	} {
		if err := bus.Subscribe(t, h.Handle); err != nil {
			return err
		}
	}
	return nil
}

// Handle implements shared.EventHandler.
func (h *OnTaskCompletedHandler) Handle(event shared.Event) error {
	switch e := event.(type) {
	case shared.TaskCompletedEvent:
		h.logger.Info("task completed",
			"telegram_id", e.TelegramID,
			"task_id", e.TaskID,
			"topic", e.Topic,
			"is_correct", e.IsCorrect,
			"first_attempt", e.FirstAttempt,
			"delta", e.Delta,
		)
	case shared.PointsGainedEvent:
		h.logger.Info("points gained",
			"telegram_id", e.TelegramID,
			"amount", e.Amount,
			"new_total", e.NewTotal,
		)
	case shared.BadgeUnlockedEvent:
		h.logger.Info("badge unlocked",
			"telegram_id", e.TelegramID,
			"badge", e.Badge,
			"reward", e.Reward,
		)
	}

	if h.cache == nil {
		return nil
	}
	if err := h.cache.Invalidate(context.Background()); err != nil {
		// Stale cache entries expire by TTL anyway.
		h.logger.Warn("leaderboard cache invalidation failed", "error", err)
	}
	return nil
}
