// Package task містить доменну модель практичного завдання (Item) —
// одиниці контенту, яку движок сесій видає користувачу. Завдання
// створюються адмінським потоком поза межами цього ядра і для движка
// доступні тільки для читання.
package task

import (
	"strings"
	"time"

	"github.com/Matviy-commands/math-nmt-bot/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// VALUE OBJECTS & ENUMS
// ══════════════════════════════════════════════════════════════════════════════

// Type — тип завдання, визначає правило перевірки відповіді та базові бали.
type Type string

const (
	// TypeSingle — одна правильна відповідь (або точний набір), 1 бал.
	TypeSingle Type = "single"

	// TypeMatch — відповідність: нараховується частковий matchCount, до 3 балів.
	TypeMatch Type = "match"

	// TypeOpen — відкрита відповідь, 2 бали.
	TypeOpen Type = "open"

	// TypeBoss — бос-завдання рівня, 10 балів.
	TypeBoss Type = "boss"

	// TypeLight — розминка, бали не нараховуються.
	TypeLight Type = "light"
)

// IsValid перевіряє, чи відомий тип завдання.
func (t Type) IsValid() bool {
	switch t {
	case TypeSingle, TypeMatch, TypeOpen, TypeBoss, TypeLight:
		return true
	}
	return false
}

// String повертає рядкове представлення.
func (t Type) String() string {
	return string(t)
}

// Level — рівень складності завдання. Порядок: легкий < середній < важкий.
type Level string

const (
	LevelEasy   Level = "легкий"
	LevelMedium Level = "середній"
	LevelHard   Level = "важкий"
)

// Levels повертає всі рівні у канонічному порядку.
func Levels() []Level {
	return []Level{LevelEasy, LevelMedium, LevelHard}
}

// IsValid перевіряє, чи відомий рівень.
func (l Level) IsValid() bool {
	switch l {
	case LevelEasy, LevelMedium, LevelHard:
		return true
	}
	return false
}

// Order повертає порядковий номер рівня (для сортування меню).
func (l Level) Order() int {
	switch l {
	case LevelEasy:
		return 0
	case LevelMedium:
		return 1
	case LevelHard:
		return 2
	}
	return 3
}

// FallbackType повертає тип завдання для записів без валідного типу:
// легкий → single, середній → open, важкий → boss, інакше single.
func (l Level) FallbackType() Type {
	switch l {
	case LevelEasy:
		return TypeSingle
	case LevelMedium:
		return TypeOpen
	case LevelHard:
		return TypeBoss
	}
	return TypeSingle
}

// String повертає рядкове представлення.
func (l Level) String() string {
	return string(l)
}

// ══════════════════════════════════════════════════════════════════════════════
// MAIN ENTITY
// ══════════════════════════════════════════════════════════════════════════════

// Task — практичне завдання. Незмінне після створення (правки — тільки
// через адмінський потік, який поза межами движка).
type Task struct {
	// ID — унікальний ідентифікатор (UUID).
	ID shared.TaskID

	// Category — розділ програми (наприклад, "Алгебра").
	Category string

	// Topic — тема всередині розділу (наприклад, "Квадратні рівняння").
	Topic string

	// Level — рівень складності.
	Level Level

	// Type — тип завдання; може бути порожнім у легасі-записах,
	// тоді застосовується Level.FallbackType.
	Type Type

	// Prompt — текст умови.
	Prompt string

	// MediaRef — опціональне посилання на зображення умови.
	MediaRef string

	// Answers — упорядкований набір прийнятних токенів відповіді.
	Answers []string

	// Explanation — розбір розв'язку, показується після відповіді.
	// Може бути порожнім у частини контенту.
	Explanation string

	// IsDaily — щоденні завдання виключені з меню тем/рівнів
	// та з топікової логіки стріків і бейджів.
	IsDaily bool

	// CreatedAt — момент створення.
	CreatedAt time.Time
}

// ══════════════════════════════════════════════════════════════════════════════
// FACTORY & VALIDATION
// ══════════════════════════════════════════════════════════════════════════════

// NewTaskParams — параметри створення завдання.
type NewTaskParams struct {
	ID          shared.TaskID
	Category    string
	Topic       string
	Level       Level
	Type        Type
	Prompt      string
	MediaRef    string
	Answers     []string
	Explanation string
	IsDaily     bool
}

// NewTask створює завдання з валідацією.
func NewTask(p NewTaskParams) (*Task, error) {
	if p.ID.IsEmpty() || !p.ID.IsValid() {
		return nil, shared.ErrInvalidTaskID
	}
	if strings.TrimSpace(p.Topic) == "" && !p.IsDaily {
		return nil, shared.NewDomainError("task", "New", shared.ErrEmptyValue, "topic is required")
	}
	if strings.TrimSpace(p.Prompt) == "" {
		return nil, shared.NewDomainError("task", "New", shared.ErrEmptyValue, "prompt is required")
	}
	if len(p.Answers) == 0 {
		return nil, shared.NewDomainError("task", "New", shared.ErrEmptyValue, "at least one accepted answer is required")
	}
	if p.Level != "" && !p.Level.IsValid() {
		return nil, shared.NewDomainError("task", "New", shared.ErrInvalidInput, "unknown level")
	}

	return &Task{
		ID:          p.ID,
		Category:    strings.TrimSpace(p.Category),
		Topic:       strings.TrimSpace(p.Topic),
		Level:       p.Level,
		Type:        p.Type,
		Prompt:      p.Prompt,
		MediaRef:    p.MediaRef,
		Answers:     p.Answers,
		Explanation: strings.TrimSpace(p.Explanation),
		IsDaily:     p.IsDaily,
		CreatedAt:   time.Now(),
	}, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// DOMAIN METHODS
// ══════════════════════════════════════════════════════════════════════════════

// EffectiveType повертає тип завдання з урахуванням фолбеку за рівнем.
func (t *Task) EffectiveType() Type {
	if t.Type.IsValid() {
		return t.Type
	}
	return t.Level.FallbackType()
}

// HasMedia повідомляє, чи має завдання прикріплене зображення.
func (t *Task) HasMedia() bool {
	return t.MediaRef != ""
}

// Clone повертає глибоку копію завдання.
func (t *Task) Clone() *Task {
	clone := *t
	clone.Answers = append([]string(nil), t.Answers...)
	return &clone
}
