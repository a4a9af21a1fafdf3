package handler

import (
	"context"
	"errors"
	"fmt"

	"github.com/Matviy-commands/math-nmt-bot/internal/application/command"
	"github.com/Matviy-commands/math-nmt-bot/internal/application/query"
	"github.com/Matviy-commands/math-nmt-bot/internal/domain/shared"
	"github.com/Matviy-commands/math-nmt-bot/internal/interface/telegram/presenter"
)

// ══════════════════════════════════════════════════════════════════════════════
// DAILY HANDLER
// Handles the daily task button: one task per calendar day, the answer
// keeps the daily streak alive.
// ══════════════════════════════════════════════════════════════════════════════

// DailyHandler handles the daily task flow.
type DailyHandler struct {
	daily     *command.StartDailyHandler
	keyboards *presenter.KeyboardBuilder
	taskCards *presenter.TaskCardPresenter
}

// NewDailyHandler creates a new DailyHandler.
func NewDailyHandler(
	daily *command.StartDailyHandler,
	keyboards *presenter.KeyboardBuilder,
	taskCards *presenter.TaskCardPresenter,
) *DailyHandler {
	return &DailyHandler{daily: daily, keyboards: keyboards, taskCards: taskCards}
}

// Handle starts the daily session and shows the task.
func (h *DailyHandler) Handle(ctx context.Context, telegramID int64) (*Response, error) {
	result, err := h.daily.Handle(ctx, command.StartDailyCommand{TelegramID: telegramID})
	if err != nil {
		switch {
		case errors.Is(err, shared.ErrDailyAlreadyTakenToday):
			return HTML(
				"✅ Сьогоднішнє щоденне завдання вже виконано. Повертайтесь завтра!",
				h.keyboards.MainMenu(),
			), nil
		case errors.Is(err, shared.ErrNoItemsAvailable):
			return HTML(
				"😕 Щоденних завдань поки немає. Зазирніть пізніше!",
				h.keyboards.MainMenu(),
			), nil
		default:
			return HTML(
				"😔 Щось пішло не так. Спробуйте ще раз за хвилину.",
				h.keyboards.MainMenu(),
			), nil
		}
	}

	resp := NewResponse()
	if result.DailyStreak > 0 {
		resp.Append(Message{
			Text: fmt.Sprintf(
				"🔥 Поточна серія: <b>%d</b> %s. Відповідь сьогодні продовжить її!",
				result.DailyStreak, presenter.DayWord(result.DailyStreak),
			),
			ParseMode: "HTML",
		})
	}

	view := h.taskCards.FormatTask(&query.GetCurrentItemResult{
		Task:         result.Task,
		FirstAttempt: true,
		Position:     1,
		Total:        1,
		IsDaily:      true,
	})
	resp.Append(Message{
		Text:      view.Text,
		ParseMode: view.ParseMode,
		MediaRef:  view.MediaRef,
		Keyboard:  h.keyboards.Solving(),
	})

	return resp, nil
}
