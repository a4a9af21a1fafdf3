package learner

import (
	"context"
	"time"

	"github.com/Matviy-commands/math-nmt-bot/internal/domain/shared"
	"github.com/Matviy-commands/math-nmt-bot/internal/domain/task"
)

// ══════════════════════════════════════════════════════════════════════════════
// LEADERBOARD ENTRY
// ══════════════════════════════════════════════════════════════════════════════

// LeaderboardEntry — рядок рейтингу.
type LeaderboardEntry struct {
	Rank        shared.Rank
	TelegramID  shared.TelegramID
	DisplayName string
	Score       shared.Points
}

// ══════════════════════════════════════════════════════════════════════════════
// REPOSITORIES
// ══════════════════════════════════════════════════════════════════════════════

// Repository — сховище агрегатів користувачів.
// Реалізація — internal/infrastructure/persistence/postgres.
type Repository interface {
	// ─────────────────────────────────────────────────────────────────────────
	// CRUD
	// ─────────────────────────────────────────────────────────────────────────

	// GetByTelegramID повертає агрегат або shared.ErrLearnerNotFound.
	GetByTelegramID(ctx context.Context, id shared.TelegramID) (*Learner, error)

	// Upsert реєструє користувача або оновлює ім'я (виклик /start).
	Upsert(ctx context.Context, l *Learner) error

	// Apply застосовує набір команд зміни агрегату.
	Apply(ctx context.Context, id shared.TelegramID, updates ...Update) error

	// ─────────────────────────────────────────────────────────────────────────
	// Рейтинг
	// ─────────────────────────────────────────────────────────────────────────

	// Top повертає перші limit користувачів за рахунком.
	Top(ctx context.Context, limit int) ([]LeaderboardEntry, error)

	// RankOf повертає позицію користувача в рейтингу (1-базована).
	RankOf(ctx context.Context, id shared.TelegramID) (shared.Rank, error)

	// Count повертає загальну кількість користувачів.
	Count(ctx context.Context) (int, error)
}

// ProgressRepository — сховище стріків, порогів та бейджів.
type ProgressRepository interface {
	// ─────────────────────────────────────────────────────────────────────────
	// Топікові стріки
	// ─────────────────────────────────────────────────────────────────────────

	// GetTopicStreak повертає серію (user, topic); нульова серія — не помилка.
	GetTopicStreak(ctx context.Context, id shared.TelegramID, topic string) (TopicStreak, error)

	// SetTopicStreak зберігає серію (upsert).
	SetTopicStreak(ctx context.Context, id shared.TelegramID, streak TopicStreak) error

	// ─────────────────────────────────────────────────────────────────────────
	// Пороги
	// ─────────────────────────────────────────────────────────────────────────

	// HasMilestoneAward перевіряє, чи поріг уже виплачений.
	HasMilestoneAward(ctx context.Context, id shared.TelegramID, topic string, threshold int) (bool, error)

	// MarkMilestoneAward атомарно фіксує виплату порога.
	// Повертає false, якщо запис уже існував (insert-if-absent).
	MarkMilestoneAward(ctx context.Context, id shared.TelegramID, topic string, threshold int) (bool, error)

	// ─────────────────────────────────────────────────────────────────────────
	// Бейджі
	// ─────────────────────────────────────────────────────────────────────────

	// HeldBadges повертає множину бейджів користувача.
	HeldBadges(ctx context.Context, id shared.TelegramID) (map[BadgeName]struct{}, error)

	// GrantBadge атомарно фіксує видачу бейджа.
	// Повертає false, якщо бейдж уже був виданий.
	GrantBadge(ctx context.Context, id shared.TelegramID, name BadgeName) (bool, error)
}

// LeaderboardCache — кеш топу у швидкому сховищі. Miss не є помилкою.
type LeaderboardCache interface {
	// GetTop повертає закешований топ; found=false означає cache miss.
	GetTop(ctx context.Context, limit int) (entries []LeaderboardEntry, found bool, err error)

	// SetTop зберігає топ з TTL.
	SetTop(ctx context.Context, entries []LeaderboardEntry, ttl time.Duration) error

	// Invalidate скидає кеш після зміни рахунків.
	Invalidate(ctx context.Context) error
}

// FeedbackRepository — сховище відгуків користувачів.
type FeedbackRepository interface {
	// Save зберігає текст відгуку та повертає його ідентифікатор.
	Save(ctx context.Context, id shared.TelegramID, text string) (string, error)
}

// StreakAtRisk — користувач, який може втратити щоденну серію сьогодні.
type StreakAtRisk struct {
	TelegramID  shared.TelegramID
	DisplayName string
	Streak      int
}

// ReminderRepository — вибірка для фонового джоба нагадувань.
type ReminderRepository interface {
	// StreaksAtRisk повертає користувачів з ненульовою серією, остання
	// активність яких припадає на календарний день day.
	StreaksAtRisk(ctx context.Context, day time.Time) ([]StreakAtRisk, error)
}

// ══════════════════════════════════════════════════════════════════════════════
// UNIT OF WORK
// ══════════════════════════════════════════════════════════════════════════════

// CompletionRecorder — мінімальний зріз сховища завдань, потрібний
// транзакції: ідемпотентний запис факту виконання.
type CompletionRecorder interface {
	RecordCompletion(ctx context.Context, user shared.TelegramID, id shared.TaskID) (wasNewlyRecorded bool, err error)
}

// CompletionReader — читання агрегатів виконання в межах тієї самої
// транзакції, де щойно записано факт виконання. Читання через пул
// не бачить незакомічений запис, і співвідношення опанування теми
// відстає на одне завдання.
type CompletionReader interface {
	TopicProgress(ctx context.Context, user shared.TelegramID, topic string) (task.TopicProgress, error)
	AllTopicsProgress(ctx context.Context, user shared.TelegramID) ([]task.TopicProgress, error)
}

// UnitOfWork виконує fn в межах однієї транзакції сховища: запис факту
// виконання та всі оновлення рахунку/стріків/бейджів або застосовуються
// разом, або не застосовуються зовсім.
type UnitOfWork interface {
	Within(ctx context.Context, fn func(ctx context.Context, tx TxRepositories) error) error
}

// TxRepositories — репозиторії, прив'язані до відкритої транзакції.
type TxRepositories struct {
	Learners    Repository
	Progress    ProgressRepository
	Completions CompletionRecorder
	Tasks       CompletionReader
}
