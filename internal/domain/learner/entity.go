// Package learner містить агрегат користувача: рахунок, стріки, бейджі
// та лічильники прогресу. Агрегат змінюється виключно операціями движка
// (нарахування балів, стріки, бейджі); записи ніколи не видаляються.
package learner

import (
	"strings"
	"time"

	"github.com/Matviy-commands/math-nmt-bot/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// MAIN ENTITY
// ══════════════════════════════════════════════════════════════════════════════

// Learner — агрегат користувача бота.
type Learner struct {
	// TelegramID — ідентифікатор користувача в Telegram, первинний ключ.
	TelegramID shared.TelegramID

	// DisplayName — ім'я для відображення (з профілю Telegram).
	DisplayName string

	// Score — накопичені бали.
	Score shared.Points

	// DailyStreak — поточна серія днів активності.
	DailyStreak int

	// LastActivityDate — дата останньої активності (без часу),
	// основа для обчислення щоденного стріку.
	LastActivityDate time.Time

	// LastDailyAt — дата останнього щоденного завдання;
	// щоденне завдання доступне раз на календарний день.
	LastDailyAt time.Time

	// FeedbackCount — кількість залишених відгуків (вхід предикатів бейджів).
	FeedbackCount int

	// TopicsCompleted — кількість повністю закритих тем.
	TopicsCompleted int

	// AllTasksCompleted — ознака, що користувач закрив усі звичайні завдання.
	AllTasksCompleted bool

	// Badges — множина отриманих бейджів.
	Badges map[BadgeName]struct{}

	// CreatedAt / UpdatedAt — службові позначки часу.
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ══════════════════════════════════════════════════════════════════════════════
// FACTORY & VALIDATION
// ══════════════════════════════════════════════════════════════════════════════

// NewLearnerParams — параметри реєстрації користувача.
type NewLearnerParams struct {
	TelegramID  int64
	DisplayName string
}

// NewLearner створює нового користувача з валідацією.
func NewLearner(p NewLearnerParams) (*Learner, error) {
	id, err := shared.NewTelegramID(p.TelegramID)
	if err != nil {
		return nil, err
	}

	name := strings.TrimSpace(p.DisplayName)
	if name == "" {
		name = id.String()
	}

	now := time.Now()
	return &Learner{
		TelegramID:  id,
		DisplayName: name,
		Score:       0,
		Badges:      make(map[BadgeName]struct{}),
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// DOMAIN METHODS
// ══════════════════════════════════════════════════════════════════════════════

// AddScore нараховує бали (від'ємні дельти підлогою обрізаються до нуля).
func (l *Learner) AddScore(delta int) {
	l.Score = l.Score.Add(delta)
	l.UpdatedAt = time.Now()
}

// HasBadge повідомляє, чи вже тримає користувач бейдж.
func (l *Learner) HasBadge(name BadgeName) bool {
	_, ok := l.Badges[name]
	return ok
}

// GrantBadge додає бейдж; повторна видача — no-op, повертає false.
func (l *Learner) GrantBadge(name BadgeName) bool {
	if l.Badges == nil {
		l.Badges = make(map[BadgeName]struct{})
	}
	if l.HasBadge(name) {
		return false
	}
	l.Badges[name] = struct{}{}
	l.UpdatedAt = time.Now()
	return true
}

// CanTakeDaily повідомляє, чи доступне користувачу щоденне завдання
// станом на день now.
func (l *Learner) CanTakeDaily(now time.Time) bool {
	if l.LastDailyAt.IsZero() {
		return true
	}
	return !sameDay(l.LastDailyAt, now)
}

// Title повертає звання за поточним рахунком.
func (l *Learner) Title() string {
	return l.Score.Title()
}

// Clone повертає копію агрегату.
func (l *Learner) Clone() *Learner {
	clone := *l
	clone.Badges = make(map[BadgeName]struct{}, len(l.Badges))
	for b := range l.Badges {
		clone.Badges[b] = struct{}{}
	}
	return &clone
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
