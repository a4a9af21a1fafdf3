package handler

import (
	"context"
	"strings"
	"sync"

	"github.com/Matviy-commands/math-nmt-bot/internal/application/command"
	"github.com/Matviy-commands/math-nmt-bot/internal/domain/shared"
	"github.com/Matviy-commands/math-nmt-bot/internal/interface/telegram/presenter"
)

// ══════════════════════════════════════════════════════════════════════════════
// FEEDBACK HANDLER
// Handles the feedback flow: the button arms a per-user pending state,
// the next text message becomes the feedback body. The pending state is
// process-local; a restart simply drops unfinished prompts.
// ══════════════════════════════════════════════════════════════════════════════

// FeedbackHandler handles the feedback flow.
type FeedbackHandler struct {
	feedback  *command.LeaveFeedbackHandler
	keyboards *presenter.KeyboardBuilder
	events    shared.EventPublisher

	mu      sync.Mutex
	pending map[int64]struct{}
}

// NewFeedbackHandler creates a new FeedbackHandler.
func NewFeedbackHandler(
	feedback *command.LeaveFeedbackHandler,
	keyboards *presenter.KeyboardBuilder,
	events shared.EventPublisher,
) *FeedbackHandler {
	return &FeedbackHandler{
		feedback:  feedback,
		keyboards: keyboards,
		events:    events,
		pending:   make(map[int64]struct{}),
	}
}

// Begin arms the pending state and prompts for the feedback text.
func (h *FeedbackHandler) Begin(ctx context.Context, telegramID int64) (*Response, error) {
	h.mu.Lock()
	h.pending[telegramID] = struct{}{}
	h.mu.Unlock()

	return HTML(
		"✍️ Напишіть, що можна покращити, або що сподобалось.\nОдне повідомлення — один відгук.",
		h.keyboards.FeedbackEntry(),
	), nil
}

// IsPending reports whether the user's next message is a feedback body.
func (h *FeedbackHandler) IsPending(telegramID int64) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	_, ok := h.pending[telegramID]
	return ok
}

// Submit stores the feedback text and disarms the pending state.
func (h *FeedbackHandler) Submit(ctx context.Context, telegramID int64, text string) (*Response, error) {
	h.mu.Lock()
	delete(h.pending, telegramID)
	h.mu.Unlock()

	if text == presenter.BtnCancel {
		return HTML("Гаразд, без відгуку. 😉", h.keyboards.MainMenu()), nil
	}

	result, err := h.feedback.Handle(ctx, command.LeaveFeedbackCommand{
		TelegramID: telegramID,
		Text:       text,
	})
	if err != nil {
		return HTML(
			"😔 Не вдалося зберегти відгук. Спробуйте ще раз пізніше.",
			h.keyboards.MainMenu(),
		), nil
	}

	publishAll(h.events, result.Events)

	var sb strings.Builder
	sb.WriteString("💙 Дякуємо за відгук!")
	for _, b := range result.NewBadges {
		sb.WriteString("\n🏅 Новий бейдж: ")
		sb.WriteString(b.Emoji)
		sb.WriteString(" <b>")
		sb.WriteString(presenter.EscapeHTML(b.Title))
		sb.WriteString("</b>")
	}

	return HTML(sb.String(), h.keyboards.MainMenu()), nil
}
