// Package query contains read operations following CQRS pattern.
// Queries never modify state - they only read and return data.
package query

import (
	"context"
	"errors"

	"github.com/Matviy-commands/math-nmt-bot/internal/domain/learner"
	"github.com/Matviy-commands/math-nmt-bot/internal/domain/quiz"
	"github.com/Matviy-commands/math-nmt-bot/internal/domain/shared"
	"github.com/Matviy-commands/math-nmt-bot/internal/domain/task"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET CURRENT ITEM QUERY
// Resolves the item the user should be shown right now, annotated with
// everything the presenter needs: first-attempt vs repeat, queue position
// and the live topic streak.
// ══════════════════════════════════════════════════════════════════════════════

// GetCurrentItemQuery identifies the session owner.
type GetCurrentItemQuery struct {
	// TelegramID is the session owner.
	TelegramID int64
}

// Validate validates the query.
func (q GetCurrentItemQuery) Validate() error {
	if q.TelegramID <= 0 {
		return errors.New("get_current_item: telegram_id is required")
	}
	return nil
}

// GetCurrentItemResult annotates the current item for presentation.
type GetCurrentItemResult struct {
	// Task is the item to present.
	Task *task.Task

	// FirstAttempt is false when this item is shown on a repeat lap.
	FirstAttempt bool

	// Position is the 1-based index within the queue.
	Position int

	// Total is the queue length (1 for daily).
	Total int

	// TopicStreak is the live per-topic streak.
	TopicStreak int

	// IsRepeatLap reports the session lap kind.
	IsRepeatLap bool

	// IsDaily is true for the degenerate daily session.
	IsDaily bool
}

// GetCurrentItemHandler handles GetCurrentItemQuery.
type GetCurrentItemHandler struct {
	sessions quiz.SessionStore
	tasks    task.Repository
	progress learner.ProgressRepository
}

// NewGetCurrentItemHandler creates a new GetCurrentItemHandler.
func NewGetCurrentItemHandler(sessions quiz.SessionStore, tasks task.Repository, progress learner.ProgressRepository) *GetCurrentItemHandler {
	return &GetCurrentItemHandler{sessions: sessions, tasks: tasks, progress: progress}
}

// Handle processes the query.
func (h *GetCurrentItemHandler) Handle(ctx context.Context, q GetCurrentItemQuery) (*GetCurrentItemResult, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	user := shared.TelegramID(q.TelegramID)

	s, err := h.sessions.Get(ctx, user)
	if err != nil {
		return nil, err
	}
	id, err := s.CurrentTaskID()
	if err != nil {
		return nil, err
	}
	t, err := h.tasks.GetByID(ctx, id)
	if err != nil {
		return nil, shared.WrapError("quiz", "GetCurrentItem", shared.ErrServiceUnavailable, "item repository call failed", err)
	}

	res := &GetCurrentItemResult{
		Task:         t,
		FirstAttempt: s.IsFirstAttempt(id),
		Position:     s.Index + 1,
		Total:        len(s.Queue),
		IsRepeatLap:  s.IsRepeatLap,
		IsDaily:      s.IsDaily,
	}

	if !s.IsDaily && t.Topic != "" {
		ts, err := h.progress.GetTopicStreak(ctx, user, t.Topic)
		if err != nil {
			return nil, err
		}
		res.TopicStreak = ts.Current
	}

	return res, nil
}
