package command

import (
	"context"
	"errors"
	"time"

	"github.com/Matviy-commands/math-nmt-bot/internal/domain/learner"
	"github.com/Matviy-commands/math-nmt-bot/internal/domain/quiz"
	"github.com/Matviy-commands/math-nmt-bot/internal/domain/shared"
	"github.com/Matviy-commands/math-nmt-bot/internal/domain/task"
	"github.com/Matviy-commands/math-nmt-bot/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// START DAILY COMMAND
// Opens the degenerate one-item session for today's daily task. The item is
// picked by day-index rotation over the daily items the user has not yet
// completed; once the pool is exhausted, rotation falls back to the full pool.
// ══════════════════════════════════════════════════════════════════════════════

// StartDailyCommand opens the daily task for a user.
type StartDailyCommand struct {
	// TelegramID is the requesting user.
	TelegramID int64
}

// Validate validates the command.
func (c StartDailyCommand) Validate() error {
	if c.TelegramID <= 0 {
		return errors.New("start_daily: telegram_id is required")
	}
	return nil
}

// StartDailyResult carries today's daily task.
type StartDailyResult struct {
	// Task is the item to present.
	Task *task.Task

	// DailyStreak is the current streak, for the prompt header.
	DailyStreak int
}

// StartDailyHandler handles StartDailyCommand.
type StartDailyHandler struct {
	sessions quiz.SessionStore
	tasks    task.Repository
	learners learner.Repository

	now func() time.Time
}

// NewStartDailyHandler creates a new StartDailyHandler.
func NewStartDailyHandler(sessions quiz.SessionStore, tasks task.Repository, learners learner.Repository) *StartDailyHandler {
	return &StartDailyHandler{
		sessions: sessions,
		tasks:    tasks,
		learners: learners,
		now:      timeutil.Now,
	}
}

// WithClock overrides the time source (tests).
func (h *StartDailyHandler) WithClock(now func() time.Time) *StartDailyHandler {
	h.now = now
	return h
}

// Handle processes the command.
func (h *StartDailyHandler) Handle(ctx context.Context, cmd StartDailyCommand) (*StartDailyResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}
	user := shared.TelegramID(cmd.TelegramID)
	now := h.now()

	l, err := h.learners.GetByTelegramID(ctx, user)
	if err != nil {
		return nil, err
	}
	if !l.CanTakeDaily(now) {
		return nil, shared.NewDomainError("learner", "StartDaily", shared.ErrDailyAlreadyTakenToday,
			"daily task already taken today")
	}

	// Rotation runs over the items the user has not completed yet; the
	// full pool is the fallback once everything is done.
	pool, err := h.tasks.Find(ctx, task.FindOptions{}.WithDaily(true).WithoutCompletedBy(user))
	if err != nil {
		return nil, wrapRepo("StartDaily", err)
	}
	if len(pool) == 0 {
		pool, err = h.tasks.Find(ctx, task.FindOptions{}.WithDaily(true))
		if err != nil {
			return nil, wrapRepo("StartDaily", err)
		}
	}
	if len(pool) == 0 {
		return nil, shared.NewDomainError("task", "StartDaily", shared.ErrNoItemsAvailable,
			"no daily tasks configured")
	}

	t := pool[dayIndex(now)%len(pool)]

	// Any open selection is replaced by the daily session.
	if err := h.sessions.Clear(ctx, user); err != nil {
		return nil, err
	}
	s := quiz.NewDailySession(user, t.ID)
	if err := h.sessions.Save(ctx, s); err != nil {
		return nil, err
	}

	return &StartDailyResult{Task: t, DailyStreak: l.DailyStreak}, nil
}

// dayIndex counts whole days since the Unix epoch in the bot timezone.
func dayIndex(now time.Time) int {
	return int(now.Unix() / 86400)
}
