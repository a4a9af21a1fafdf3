package handler

import (
	"context"
	"fmt"

	"github.com/Matviy-commands/math-nmt-bot/internal/application/command"
	"github.com/Matviy-commands/math-nmt-bot/internal/domain/shared"
	"github.com/Matviy-commands/math-nmt-bot/internal/interface/telegram/presenter"
)

// ══════════════════════════════════════════════════════════════════════════════
// START HANDLER
// Handles /start: registers the learner (or refreshes the display name)
// and shows the main menu.
// ══════════════════════════════════════════════════════════════════════════════

// StartHandler handles the /start command.
type StartHandler struct {
	register  *command.RegisterLearnerHandler
	keyboards *presenter.KeyboardBuilder
	events    shared.EventPublisher
}

// NewStartHandler creates a new StartHandler.
// The publisher may be nil; events are then dropped.
func NewStartHandler(
	register *command.RegisterLearnerHandler,
	keyboards *presenter.KeyboardBuilder,
	events shared.EventPublisher,
) *StartHandler {
	return &StartHandler{register: register, keyboards: keyboards, events: events}
}

// StartRequest contains the parsed /start command data.
type StartRequest struct {
	// TelegramID is the user's Telegram ID.
	TelegramID int64

	// FirstName is the Telegram first name.
	FirstName string

	// Username is the Telegram username, used when FirstName is empty.
	Username string
}

// Handle processes the /start command.
func (h *StartHandler) Handle(ctx context.Context, req StartRequest) (*Response, error) {
	name := req.FirstName
	if name == "" {
		name = req.Username
	}
	if name == "" {
		name = "Учень"
	}

	result, err := h.register.Handle(ctx, command.RegisterLearnerCommand{
		TelegramID:  req.TelegramID,
		DisplayName: name,
	})
	if err != nil {
		return HTML("😔 Щось пішло не так. Спробуйте ще раз за хвилину.", h.keyboards.MainMenu()), nil
	}

	publishAll(h.events, result.Events)

	var text string
	if result.IsNew {
		text = fmt.Sprintf(
			"Привіт, <b>%s</b>! 👋\n\n"+
				"Я допоможу підготуватися до НМТ з математики:\n"+
				"• %s — завдання за темами й рівнями\n"+
				"• %s — одне завдання щодня, серія і бонуси\n"+
				"• %s — бали, бейджі та опановані теми\n\n"+
				"Почнімо? 🚀",
			presenter.EscapeHTML(result.Learner.DisplayName),
			presenter.BtnPractice, presenter.BtnDaily, presenter.BtnProgress,
		)
	} else {
		text = fmt.Sprintf(
			"З поверненням, <b>%s</b>! 👋\nОбирайте, чим займемось:",
			presenter.EscapeHTML(result.Learner.DisplayName),
		)
	}

	return HTML(text, h.keyboards.MainMenu()), nil
}

// publishAll publishes events, ignoring publish failures.
func publishAll(bus shared.EventPublisher, events []shared.Event) {
	if bus == nil {
		return
	}
	for _, e := range events {
		_ = bus.Publish(e)
	}
}
