// Package presenter formats data for Telegram display.
// Presenters handle the conversion from application results to
// user-facing messages and reply keyboards.
package presenter

// ══════════════════════════════════════════════════════════════════════════════
// BUTTON LABELS
// The bot is driven by reply keyboards: the button label IS the message
// text the user sends back, so labels double as routing keys.
// ══════════════════════════════════════════════════════════════════════════════

const (
	// BtnPractice starts the topic selection flow.
	BtnPractice = "📚 Практика"

	// BtnDaily requests the daily task.
	BtnDaily = "🎯 Щоденне завдання"

	// BtnProgress shows the progress card.
	BtnProgress = "📊 Мій прогрес"

	// BtnTop shows the leaderboard.
	BtnTop = "🏆 Рейтинг"

	// BtnFeedback starts the feedback flow.
	BtnFeedback = "✍️ Відгук"

	// BtnHelp shows the help message.
	BtnHelp = "ℹ️ Допомога"

	// BtnSkip skips the current task ("I don't know").
	BtnSkip = "❓ Не знаю"

	// BtnChangeTopic abandons the queue and restarts selection.
	BtnChangeTopic = "🔄 Змінити тему"

	// BtnMenu abandons any flow and returns to the main menu.
	BtnMenu = "↩️ Меню"

	// BtnBack steps one selection step back.
	BtnBack = "↩️ Назад"

	// BtnAllTopics browses topics across every category.
	BtnAllTopics = "📚 Всі теми"

	// BtnCancel aborts the feedback flow.
	BtnCancel = "❌ Скасувати"
)

// ══════════════════════════════════════════════════════════════════════════════
// REPLY KEYBOARD TYPES
// Library-agnostic keyboard representation; the bot layer converts it
// into the wire format of the Telegram client.
// ══════════════════════════════════════════════════════════════════════════════

// Keyboard is a reply keyboard as rows of button labels.
type Keyboard struct {
	Rows        [][]string
	Placeholder string
}

// NewKeyboardRows creates a keyboard from explicit rows.
func NewKeyboardRows(rows ...[]string) *Keyboard {
	return &Keyboard{Rows: rows}
}

// AddRow appends a row of labels.
func (k *Keyboard) AddRow(labels ...string) *Keyboard {
	k.Rows = append(k.Rows, labels)
	return k
}

// AddGrid appends labels laid out in rows of the given width.
func (k *Keyboard) AddGrid(width int, labels ...string) *Keyboard {
	if width <= 0 {
		width = 2
	}
	for i := 0; i < len(labels); i += width {
		end := i + width
		if end > len(labels) {
			end = len(labels)
		}
		k.AddRow(labels[i:end]...)
	}
	return k
}

// WithPlaceholder sets the input field placeholder.
func (k *Keyboard) WithPlaceholder(text string) *Keyboard {
	k.Placeholder = text
	return k
}

// ══════════════════════════════════════════════════════════════════════════════
// KEYBOARD BUILDER
// ══════════════════════════════════════════════════════════════════════════════

// KeyboardBuilder builds reply keyboards for the bot's flows.
type KeyboardBuilder struct{}

// NewKeyboardBuilder creates a new KeyboardBuilder.
func NewKeyboardBuilder() *KeyboardBuilder {
	return &KeyboardBuilder{}
}

// ─────────────────────────────────────────────────────────────────────────────
// Main menu
// ─────────────────────────────────────────────────────────────────────────────

// MainMenu is the resting keyboard between flows.
func (b *KeyboardBuilder) MainMenu() *Keyboard {
	return NewKeyboardRows().
		AddRow(BtnPractice, BtnDaily).
		AddRow(BtnProgress, BtnTop).
		AddRow(BtnFeedback, BtnHelp)
}

// ─────────────────────────────────────────────────────────────────────────────
// Selection flow
// ─────────────────────────────────────────────────────────────────────────────

// Categories lists selectable categories plus the all-topics shortcut.
func (b *KeyboardBuilder) Categories(categories []string) *Keyboard {
	k := NewKeyboardRows().AddGrid(2, categories...)
	k.AddRow(BtnAllTopics)
	k.AddRow(BtnMenu)
	return k.WithPlaceholder("Оберіть розділ")
}

// Topics lists selectable topics with back navigation.
func (b *KeyboardBuilder) Topics(topics []string) *Keyboard {
	k := NewKeyboardRows().AddGrid(2, topics...)
	k.AddRow(BtnBack, BtnMenu)
	return k.WithPlaceholder("Оберіть тему")
}

// Levels lists the levels the chosen topic actually has.
func (b *KeyboardBuilder) Levels(levels []string) *Keyboard {
	k := NewKeyboardRows().AddGrid(3, levels...)
	k.AddRow(BtnBack, BtnMenu)
	return k.WithPlaceholder("Оберіть рівень")
}

// ─────────────────────────────────────────────────────────────────────────────
// Solving
// ─────────────────────────────────────────────────────────────────────────────

// Solving is shown while a task awaits an answer.
func (b *KeyboardBuilder) Solving() *Keyboard {
	return NewKeyboardRows().
		AddRow(BtnSkip).
		AddRow(BtnChangeTopic, BtnMenu).
		WithPlaceholder("Введіть відповідь")
}

// AfterQueue is shown when a queue is finished. Remaining levels are
// listed in the message text; the keyboard restarts selection.
func (b *KeyboardBuilder) AfterQueue() *Keyboard {
	return NewKeyboardRows().AddRow(BtnChangeTopic, BtnMenu)
}

// ─────────────────────────────────────────────────────────────────────────────
// Feedback
// ─────────────────────────────────────────────────────────────────────────────

// FeedbackEntry is shown while the bot waits for feedback text.
func (b *KeyboardBuilder) FeedbackEntry() *Keyboard {
	return NewKeyboardRows().
		AddRow(BtnCancel).
		WithPlaceholder("Напишіть відгук")
}
