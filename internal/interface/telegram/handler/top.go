package handler

import (
	"context"

	"github.com/Matviy-commands/math-nmt-bot/internal/application/query"
	"github.com/Matviy-commands/math-nmt-bot/internal/interface/telegram/presenter"
)

// ══════════════════════════════════════════════════════════════════════════════
// TOP HANDLER
// Handles the leaderboard button.
// ══════════════════════════════════════════════════════════════════════════════

// TopHandler handles the leaderboard request.
type TopHandler struct {
	leaderboard *query.GetLeaderboardHandler
	cards       *presenter.LeaderboardPresenter
	keyboards   *presenter.KeyboardBuilder
}

// NewTopHandler creates a new TopHandler.
func NewTopHandler(
	leaderboard *query.GetLeaderboardHandler,
	cards *presenter.LeaderboardPresenter,
	keyboards *presenter.KeyboardBuilder,
) *TopHandler {
	return &TopHandler{leaderboard: leaderboard, cards: cards, keyboards: keyboards}
}

// Handle builds the leaderboard view.
func (h *TopHandler) Handle(ctx context.Context, telegramID int64) (*Response, error) {
	result, err := h.leaderboard.Handle(ctx, query.GetLeaderboardQuery{TelegramID: telegramID})
	if err != nil {
		return HTML(
			"😔 Не вдалося завантажити рейтинг. Спробуйте пізніше.",
			h.keyboards.MainMenu(),
		), nil
	}

	view := h.cards.FormatLeaderboard(result)
	return HTML(view.Text, h.keyboards.MainMenu()), nil
}
