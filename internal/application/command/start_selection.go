// Package command contains write operations (CQRS - Commands).
package command

import (
	"context"
	"errors"

	"github.com/Matviy-commands/math-nmt-bot/internal/domain/quiz"
	"github.com/Matviy-commands/math-nmt-bot/internal/domain/shared"
	"github.com/Matviy-commands/math-nmt-bot/internal/domain/task"
)

// ══════════════════════════════════════════════════════════════════════════════
// START SELECTION COMMAND
// Resets the user's session to the category step and returns the options.
// Any previous session (including an abandoned solving queue) is discarded:
// a lost session is recovered by restarting the flow, never by resuming.
// ══════════════════════════════════════════════════════════════════════════════

// StartSelectionCommand contains the data to start a selection flow.
type StartSelectionCommand struct {
	// TelegramID is the user starting the flow.
	TelegramID int64
}

// Validate validates the command.
func (c StartSelectionCommand) Validate() error {
	if c.TelegramID <= 0 {
		return errors.New("start_selection: telegram_id is required")
	}
	return nil
}

// StartSelectionResult contains the options for the first step.
type StartSelectionResult struct {
	// Step is the current selection step.
	Step quiz.Step

	// Categories are the selectable categories (each has at least one item).
	Categories []string
}

// ══════════════════════════════════════════════════════════════════════════════
// HANDLER
// ══════════════════════════════════════════════════════════════════════════════

// StartSelectionHandler handles StartSelectionCommand.
type StartSelectionHandler struct {
	sessions quiz.SessionStore
	tasks    task.Repository
}

// NewStartSelectionHandler creates a new StartSelectionHandler.
func NewStartSelectionHandler(sessions quiz.SessionStore, tasks task.Repository) *StartSelectionHandler {
	return &StartSelectionHandler{sessions: sessions, tasks: tasks}
}

// Handle processes the command.
func (h *StartSelectionHandler) Handle(ctx context.Context, cmd StartSelectionCommand) (*StartSelectionResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}
	user := shared.TelegramID(cmd.TelegramID)

	categories, err := h.tasks.ListCategories(ctx)
	if err != nil {
		return nil, shared.WrapError("quiz", "StartSelection", shared.ErrServiceUnavailable, "failed to list categories", err)
	}

	if err := h.sessions.Clear(ctx, user); err != nil {
		return nil, err
	}
	if err := h.sessions.Save(ctx, quiz.NewSession(user)); err != nil {
		return nil, err
	}

	return &StartSelectionResult{
		Step:       quiz.StepCategory,
		Categories: categories,
	}, nil
}

// ClearSession discards the user's session (explicit return to the menu).
func (h *StartSelectionHandler) ClearSession(ctx context.Context, telegramID int64) error {
	return h.sessions.Clear(ctx, shared.TelegramID(telegramID))
}
