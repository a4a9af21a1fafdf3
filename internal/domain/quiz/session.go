package quiz

import (
	"context"
	"time"

	"github.com/Matviy-commands/math-nmt-bot/internal/domain/shared"
	"github.com/Matviy-commands/math-nmt-bot/internal/domain/task"
)

// ══════════════════════════════════════════════════════════════════════════════
// SESSION STEPS
// ══════════════════════════════════════════════════════════════════════════════

// Step — крок машини станів вибору.
type Step string

const (
	// StepCategory — вибір розділу.
	StepCategory Step = "category"

	// StepTopic — вибір теми.
	StepTopic Step = "topic"

	// StepLevel — вибір рівня складності.
	StepLevel Step = "level"

	// StepSolving — проходження черги завдань.
	StepSolving Step = "solving"
)

// ══════════════════════════════════════════════════════════════════════════════
// SESSION ENTITY
// Ефемерний стан одного користувача: створюється на старті вибору,
// знищується по завершенню черги, скасуванню або поверненню в меню.
// Після втрати стан не відновлюється — користувач починає вибір заново.
// ══════════════════════════════════════════════════════════════════════════════

// Session — стан сесії вибору та розв'язування одного користувача.
// Поля експортовані для серіалізації у зовнішнє швидке сховище.
type Session struct {
	// User — власник сесії.
	User shared.TelegramID `json:"user"`

	// Step — поточний крок.
	Step Step `json:"step"`

	// Category — обраний розділ; порожній рядок — перегляд усіх тем.
	Category string `json:"category,omitempty"`

	// Topic — обрана тема.
	Topic string `json:"topic,omitempty"`

	// Level — обраний рівень.
	Level task.Level `json:"level,omitempty"`

	// Queue — впорядкована черга ідентифікаторів завдань.
	Queue []shared.TaskID `json:"queue,omitempty"`

	// PreCompleted — знімок завдань, виконаних ДО старту сесії.
	// Відрізняє першу спробу від повторного проходження.
	PreCompleted map[shared.TaskID]struct{} `json:"-"`

	// PreCompletedList — те саме у вигляді списку для серіалізації.
	PreCompletedList []shared.TaskID `json:"pre_completed,omitempty"`

	// Index — позиція в черзі.
	Index int `json:"index"`

	// IsRepeatLap — черга зібрана з повного набору, бо нових завдань
	// не лишилось.
	IsRepeatLap bool `json:"is_repeat_lap"`

	// IsDaily — вироджена одноелементна сесія щоденного завдання.
	IsDaily bool `json:"is_daily"`

	// StartedAt — момент створення сесії.
	StartedAt time.Time `json:"started_at"`
}

// NewSession створює сесію на кроці вибору розділу.
func NewSession(user shared.TelegramID) *Session {
	return &Session{
		User:      user,
		Step:      StepCategory,
		StartedAt: time.Now(),
	}
}

// NewDailySession створює вироджену одноелементну сесію щоденного завдання.
func NewDailySession(user shared.TelegramID, id shared.TaskID) *Session {
	return &Session{
		User:      user,
		Step:      StepSolving,
		Queue:     []shared.TaskID{id},
		IsDaily:   true,
		StartedAt: time.Now(),
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Переходи між кроками
// ─────────────────────────────────────────────────────────────────────────────

// ChooseCategory переводить сесію на крок вибору теми.
func (s *Session) ChooseCategory(category string) error {
	if s.Step != StepCategory {
		return shared.ErrInvalidSelection
	}
	s.Category = category
	s.Step = StepTopic
	return nil
}

// ChooseTopic переводить сесію на крок вибору рівня.
func (s *Session) ChooseTopic(topic string) error {
	if s.Step != StepTopic {
		return shared.ErrInvalidSelection
	}
	s.Topic = topic
	s.Step = StepLevel
	return nil
}

// BackToCategory повертає сесію на крок вибору розділу.
func (s *Session) BackToCategory() {
	s.Step = StepCategory
	s.Category = ""
	s.Topic = ""
	s.Level = ""
}

// BackToTopic повертає сесію на крок вибору теми.
func (s *Session) BackToTopic() {
	s.Step = StepTopic
	s.Topic = ""
	s.Level = ""
}

// StartQueue запускає проходження черги для (topic, level).
// queue — черга, preCompleted — знімок виконаних до сесії,
// repeat — ознака повторного проходження.
func (s *Session) StartQueue(level task.Level, queue []shared.TaskID, preCompleted map[shared.TaskID]struct{}, repeat bool) error {
	if s.Step != StepLevel {
		return shared.ErrInvalidSelection
	}
	if len(queue) == 0 {
		return shared.ErrEmptyQueue
	}
	s.Level = level
	s.Queue = queue
	s.PreCompleted = preCompleted
	s.PreCompletedList = setToList(preCompleted)
	s.Index = 0
	s.IsRepeatLap = repeat
	s.Step = StepSolving
	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Проходження черги
// ─────────────────────────────────────────────────────────────────────────────

// CurrentTaskID повертає ідентифікатор поточного завдання.
func (s *Session) CurrentTaskID() (shared.TaskID, error) {
	if s.Step != StepSolving {
		return "", shared.ErrStaleSession
	}
	if s.Index < 0 || s.Index >= len(s.Queue) {
		return "", shared.ErrQueueExhausted
	}
	return s.Queue[s.Index], nil
}

// IsFirstAttempt повідомляє, чи бачить користувач завдання вперше:
// воно не входило у знімок виконаних до старту сесії.
func (s *Session) IsFirstAttempt(id shared.TaskID) bool {
	if s.IsDaily {
		return true
	}
	s.ensureSet()
	_, done := s.PreCompleted[id]
	return !done
}

// AdvanceQueue зсуває індекс. Повертає true, якщо в черзі є наступне
// завдання, і false, якщо черга вичерпана й сесію слід завершити.
func (s *Session) AdvanceQueue() bool {
	s.Index++
	return s.Index < len(s.Queue)
}

// Remaining повертає кількість завдань після поточного.
func (s *Session) Remaining() int {
	left := len(s.Queue) - s.Index - 1
	if left < 0 {
		return 0
	}
	return left
}

// ensureSet відбудовує PreCompleted після десеріалізації.
func (s *Session) ensureSet() {
	if s.PreCompleted == nil {
		s.PreCompleted = make(map[shared.TaskID]struct{}, len(s.PreCompletedList))
		for _, id := range s.PreCompletedList {
			s.PreCompleted[id] = struct{}{}
		}
	}
}

func setToList(set map[shared.TaskID]struct{}) []shared.TaskID {
	out := make([]shared.TaskID, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	return out
}

// ══════════════════════════════════════════════════════════════════════════════
// SESSION STORE
// Стан сесії живе поза процесом обробки одного повідомлення: у пам'яті
// процесу або в зовнішньому швидкому сховищі. Ключ — користувач;
// стан ніколи не ділиться між користувачами.
// ══════════════════════════════════════════════════════════════════════════════

// SessionStore — сховище сесій з явним життєвим циклом create/clear.
type SessionStore interface {
	// Get повертає сесію користувача або shared.ErrStaleSession.
	Get(ctx context.Context, user shared.TelegramID) (*Session, error)

	// Save зберігає сесію (створення або перезапис).
	Save(ctx context.Context, s *Session) error

	// Clear видаляє сесію користувача; відсутність сесії — не помилка.
	Clear(ctx context.Context, user shared.TelegramID) error
}
