package handler

import (
	"context"

	"github.com/Matviy-commands/math-nmt-bot/internal/interface/telegram/presenter"
)

// HelpHandler handles the /help command and the help button.
type HelpHandler struct {
	keyboards *presenter.KeyboardBuilder
}

// NewHelpHandler creates a new HelpHandler.
func NewHelpHandler(keyboards *presenter.KeyboardBuilder) *HelpHandler {
	return &HelpHandler{keyboards: keyboards}
}

const helpText = `ℹ️ <b>Як користуватись ботом</b>

📚 <b>Практика</b> — оберіть розділ, тему й рівень, розв'язуйте завдання.
🎯 <b>Щоденне завдання</b> — одне завдання на день, тримає серію 🔥.
📊 <b>Мій прогрес</b> — бали, бейджі й виконані теми.
🏆 <b>Рейтинг</b> — ваше місце серед інших учнів.
✍️ <b>Відгук</b> — напишіть нам, що покращити.

Під час розв'язування:
❓ <b>Не знаю</b> — пропустити завдання й побачити відповідь.
🔄 <b>Змінити тему</b> — повернутись до вибору теми.

Команди: /start, /daily, /progress, /top, /feedback, /help`

// Handle returns the static help card.
func (h *HelpHandler) Handle(ctx context.Context) (*Response, error) {
	return HTML(helpText, h.keyboards.MainMenu()), nil
}
