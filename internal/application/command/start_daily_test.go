package command

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Matviy-commands/math-nmt-bot/internal/domain/learner"
	"github.com/Matviy-commands/math-nmt-bot/internal/domain/shared"
	"github.com/Matviy-commands/math-nmt-bot/internal/domain/task"
)

func mustDaily(t *testing.T, answer string) *task.Task {
	t.Helper()
	tk, err := task.NewTask(task.NewTaskParams{
		ID:      shared.TaskID(uuid.NewString()),
		Prompt:  "3 + 3 = ?",
		Answers: []string{answer},
		Type:    task.TypeSingle,
		IsDaily: true,
	})
	require.NoError(t, err)
	return tk
}

func dailyHarness(t *testing.T, tasks ...*task.Task) (*StartDailyHandler, *memTaskRepo) {
	t.Helper()
	sessions := newMemSessionStore()
	repo := newMemTaskRepo(tasks...)
	state := newMemLearnerState()

	l, err := learner.NewLearner(learner.NewLearnerParams{TelegramID: 42, DisplayName: "Марія"})
	require.NoError(t, err)
	require.NoError(t, state.Upsert(context.Background(), l))

	h := NewStartDailyHandler(sessions, repo, state)
	h.WithClock(func() time.Time { return time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC) })
	return h, repo
}

func TestStartDaily_PrefersUncompletedTask(t *testing.T) {
	ctx := context.Background()
	a := mustDaily(t, "6")
	b := mustDaily(t, "7")
	h, repo := dailyHarness(t, a, b)

	// Completing one item must steer the rotation to the other,
	// whatever today's index lands on.
	_, err := repo.RecordCompletion(ctx, shared.TelegramID(42), a.ID)
	require.NoError(t, err)

	res, err := h.Handle(ctx, StartDailyCommand{TelegramID: 42})
	require.NoError(t, err)
	assert.Equal(t, b.ID, res.Task.ID)
}

func TestStartDaily_ExhaustedPoolFallsBackToRotation(t *testing.T) {
	ctx := context.Background()
	a := mustDaily(t, "6")
	b := mustDaily(t, "7")
	h, repo := dailyHarness(t, a, b)

	_, err := repo.RecordCompletion(ctx, shared.TelegramID(42), a.ID)
	require.NoError(t, err)
	_, err = repo.RecordCompletion(ctx, shared.TelegramID(42), b.ID)
	require.NoError(t, err)

	res, err := h.Handle(ctx, StartDailyCommand{TelegramID: 42})
	require.NoError(t, err)
	assert.Contains(t, []shared.TaskID{a.ID, b.ID}, res.Task.ID)
}

func TestStartDaily_NoPoolReturnsNoItems(t *testing.T) {
	h, _ := dailyHarness(t)
	_, err := h.Handle(context.Background(), StartDailyCommand{TelegramID: 42})
	require.ErrorIs(t, err, shared.ErrNoItemsAvailable)
}
