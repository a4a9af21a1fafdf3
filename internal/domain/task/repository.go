package task

import (
	"context"

	"github.com/Matviy-commands/math-nmt-bot/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// FIND OPTIONS
// ══════════════════════════════════════════════════════════════════════════════

// FindOptions — фільтри вибірки завдань. Порожній фільтр означає "всі".
type FindOptions struct {
	// Category обмежує вибірку розділом.
	Category string

	// Topic обмежує вибірку темою.
	Topic string

	// Level обмежує вибірку рівнем складності.
	Level Level

	// Daily: nil — без фільтра, інакше — тільки щоденні / тільки звичайні.
	Daily *bool

	// ExcludingCompletedBy виключає завдання, вже виконані цим користувачем.
	ExcludingCompletedBy shared.TelegramID
}

// WithCategory встановлює фільтр за розділом.
func (o FindOptions) WithCategory(category string) FindOptions {
	o.Category = category
	return o
}

// WithTopic встановлює фільтр за темою.
func (o FindOptions) WithTopic(topic string) FindOptions {
	o.Topic = topic
	return o
}

// WithLevel встановлює фільтр за рівнем.
func (o FindOptions) WithLevel(level Level) FindOptions {
	o.Level = level
	return o
}

// WithDaily встановлює фільтр за ознакою щоденного завдання.
func (o FindOptions) WithDaily(daily bool) FindOptions {
	o.Daily = &daily
	return o
}

// WithoutCompletedBy виключає завдання, виконані користувачем.
func (o FindOptions) WithoutCompletedBy(id shared.TelegramID) FindOptions {
	o.ExcludingCompletedBy = id
	return o
}

// OnlyRegular — зручний конструктор фільтра "тільки звичайні завдання".
func OnlyRegular() FindOptions {
	return FindOptions{}.WithDaily(false)
}

// ══════════════════════════════════════════════════════════════════════════════
// TOPIC PROGRESS
// ══════════════════════════════════════════════════════════════════════════════

// TopicProgress — агрегат по темі: скільки звичайних завдань усього
// і скільки з них виконав користувач (на всіх рівнях).
type TopicProgress struct {
	Topic     string
	Total     int
	Completed int
}

// Ratio повертає частку виконаних завдань теми, 0 якщо тема порожня.
func (p TopicProgress) Ratio() float64 {
	if p.Total == 0 {
		return 0
	}
	return float64(p.Completed) / float64(p.Total)
}

// ══════════════════════════════════════════════════════════════════════════════
// REPOSITORY
// ══════════════════════════════════════════════════════════════════════════════

// Repository — сховище завдань та фактів виконання.
// Реалізація — internal/infrastructure/persistence/postgres.
type Repository interface {
	// ─────────────────────────────────────────────────────────────────────────
	// Читання контенту
	// ─────────────────────────────────────────────────────────────────────────

	// Find повертає впорядкований список завдань за фільтром.
	Find(ctx context.Context, opts FindOptions) ([]*Task, error)

	// GetByID повертає завдання або shared.ErrTaskNotFound.
	GetByID(ctx context.Context, id shared.TaskID) (*Task, error)

	// ListCategories повертає розділи, що мають хоча б одне звичайне завдання.
	ListCategories(ctx context.Context) ([]string, error)

	// ListTopics повертає теми з хоча б одним звичайним завданням;
	// category == "" — без фільтра за розділом.
	ListTopics(ctx context.Context, category string) ([]string, error)

	// ListLevels повертає тільки ті рівні, на яких тема реально має завдання,
	// у канонічному порядку.
	ListLevels(ctx context.Context, topic string) ([]Level, error)

	// ─────────────────────────────────────────────────────────────────────────
	// Факти виконання
	// ─────────────────────────────────────────────────────────────────────────

	// RecordCompletion ідемпотентно фіксує факт виконання (user, task).
	// Повертає true, якщо запис створено вперше. Реалізація зобов'язана
	// робити атомарний insert-if-absent, а не перевірку з наступною вставкою.
	RecordCompletion(ctx context.Context, user shared.TelegramID, id shared.TaskID) (wasNewlyRecorded bool, err error)

	// CompletedIDs повертає множину виконаних користувачем завдань за фільтром.
	CompletedIDs(ctx context.Context, user shared.TelegramID, opts FindOptions) (map[shared.TaskID]struct{}, error)

	// TopicProgress повертає агрегат виконання теми для користувача
	// (щоденні завдання не враховуються).
	TopicProgress(ctx context.Context, user shared.TelegramID, topic string) (TopicProgress, error)

	// AllTopicsProgress повертає агрегати по всіх темах користувача.
	AllTopicsProgress(ctx context.Context, user shared.TelegramID) ([]TopicProgress, error)
}
