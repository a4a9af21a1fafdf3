package handler

import (
	"context"
	"errors"

	"github.com/Matviy-commands/math-nmt-bot/internal/application/query"
	"github.com/Matviy-commands/math-nmt-bot/internal/domain/shared"
	"github.com/Matviy-commands/math-nmt-bot/internal/interface/telegram/presenter"
)

// ══════════════════════════════════════════════════════════════════════════════
// PROGRESS HANDLER
// Handles the progress button: score, title, streak, topics and badges.
// ══════════════════════════════════════════════════════════════════════════════

// ProgressHandler handles the progress card request.
type ProgressHandler struct {
	progress  *query.GetProgressHandler
	cards     *presenter.ProgressCardPresenter
	keyboards *presenter.KeyboardBuilder
}

// NewProgressHandler creates a new ProgressHandler.
func NewProgressHandler(
	progress *query.GetProgressHandler,
	cards *presenter.ProgressCardPresenter,
	keyboards *presenter.KeyboardBuilder,
) *ProgressHandler {
	return &ProgressHandler{progress: progress, cards: cards, keyboards: keyboards}
}

// Handle builds the progress card.
func (h *ProgressHandler) Handle(ctx context.Context, telegramID int64) (*Response, error) {
	result, err := h.progress.Handle(ctx, query.GetProgressQuery{TelegramID: telegramID})
	if err != nil {
		if errors.Is(err, shared.ErrLearnerNotFound) {
			return HTML(
				"🤷 Вас ще немає в системі. Надішліть /start, щоб зареєструватися.",
				h.keyboards.MainMenu(),
			), nil
		}
		return HTML(
			"😔 Не вдалося завантажити прогрес. Спробуйте пізніше.",
			h.keyboards.MainMenu(),
		), nil
	}

	view := h.cards.FormatProgressCard(result)
	return HTML(view.Text, h.keyboards.MainMenu()), nil
}
