package command

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Matviy-commands/math-nmt-bot/internal/domain/quiz"
	"github.com/Matviy-commands/math-nmt-bot/internal/domain/shared"
	"github.com/Matviy-commands/math-nmt-bot/internal/domain/task"
)

func mustTask(t *testing.T, topic string, level task.Level, answers ...string) *task.Task {
	t.Helper()
	tk, err := task.NewTask(task.NewTaskParams{
		ID:      shared.TaskID(uuid.NewString()),
		Topic:   topic,
		Level:   level,
		Type:    task.TypeSingle,
		Prompt:  "2 + 2 = ?",
		Answers: answers,
	})
	require.NoError(t, err)
	return tk
}

func selectionHarness(t *testing.T, tasks ...*task.Task) (*StartSelectionHandler, *AdvanceSelectionHandler, *memSessionStore, *memTaskRepo) {
	t.Helper()
	sessions := newMemSessionStore()
	repo := newMemTaskRepo(tasks...)
	return NewStartSelectionHandler(sessions, repo), NewAdvanceSelectionHandler(sessions, repo), sessions, repo
}

func TestSelectionFlow_TopicThenLevelStartsQueue(t *testing.T) {
	ctx := context.Background()
	tasks := []*task.Task{
		mustTask(t, "Дроби", task.LevelEasy, "4"),
		mustTask(t, "Дроби", task.LevelEasy, "5"),
		mustTask(t, "Дроби", task.LevelHard, "6"),
		mustTask(t, "Рівняння", task.LevelEasy, "7"),
	}
	start, advance, sessions, _ := selectionHarness(t, tasks...)

	_, err := start.Handle(ctx, StartSelectionCommand{TelegramID: 42})
	require.NoError(t, err)

	res, err := advance.Handle(ctx, AdvanceSelectionCommand{TelegramID: 42, Choice: ChoiceAllTopics})
	require.NoError(t, err)
	assert.Equal(t, quiz.StepTopic, res.Step)
	assert.ElementsMatch(t, []string{"Дроби", "Рівняння"}, res.Options)

	res, err = advance.Handle(ctx, AdvanceSelectionCommand{TelegramID: 42, Choice: "Дроби"})
	require.NoError(t, err)
	assert.Equal(t, quiz.StepLevel, res.Step)
	assert.Equal(t, []string{"легкий", "важкий"}, res.Options)

	res, err = advance.Handle(ctx, AdvanceSelectionCommand{TelegramID: 42, Choice: "легкий"})
	require.NoError(t, err)
	assert.True(t, res.QueueStarted)
	assert.False(t, res.IsRepeatLap)
	assert.Equal(t, 2, res.QueueLength)

	s, err := sessions.Get(ctx, shared.TelegramID(42))
	require.NoError(t, err)
	assert.Equal(t, quiz.StepSolving, s.Step)
}

func TestSelection_LevelsNeverIncludeAbsentMedium(t *testing.T) {
	// A topic that has no medium items must never offer "середній",
	// on the level keyboard or anywhere else.
	ctx := context.Background()
	tasks := []*task.Task{
		mustTask(t, "Логарифми", task.LevelEasy, "1"),
		mustTask(t, "Логарифми", task.LevelHard, "2"),
	}
	start, advance, _, _ := selectionHarness(t, tasks...)

	_, err := start.Handle(ctx, StartSelectionCommand{TelegramID: 42})
	require.NoError(t, err)
	_, err = advance.Handle(ctx, AdvanceSelectionCommand{TelegramID: 42, Choice: ChoiceAllTopics})
	require.NoError(t, err)

	res, err := advance.Handle(ctx, AdvanceSelectionCommand{TelegramID: 42, Choice: "Логарифми"})
	require.NoError(t, err)
	assert.NotContains(t, res.Options, "середній")

	// Typing the absent level anyway fully specifies a topic+level with
	// no items: the session is cleared, not re-prompted.
	res, err = advance.Handle(ctx, AdvanceSelectionCommand{TelegramID: 42, Choice: "середній"})
	require.ErrorIs(t, err, shared.ErrEmptyQueue)
	assert.True(t, res.SessionCleared)
}

func TestSelection_UnknownTopicReprompts(t *testing.T) {
	ctx := context.Background()
	start, advance, sessions, _ := selectionHarness(t, mustTask(t, "Дроби", task.LevelEasy, "4"))

	_, err := start.Handle(ctx, StartSelectionCommand{TelegramID: 42})
	require.NoError(t, err)
	_, err = advance.Handle(ctx, AdvanceSelectionCommand{TelegramID: 42, Choice: ChoiceAllTopics})
	require.NoError(t, err)

	res, err := advance.Handle(ctx, AdvanceSelectionCommand{TelegramID: 42, Choice: "Стереометрія"})
	require.NoError(t, err)
	assert.True(t, res.Invalid)
	assert.Equal(t, quiz.StepTopic, res.Step)

	s, err := sessions.Get(ctx, shared.TelegramID(42))
	require.NoError(t, err)
	assert.Equal(t, quiz.StepTopic, s.Step)
}

func TestSelection_RepeatLapAfterFullCompletion(t *testing.T) {
	ctx := context.Background()
	a := mustTask(t, "Дроби", task.LevelEasy, "4")
	b := mustTask(t, "Дроби", task.LevelEasy, "5")
	start, advance, _, repo := selectionHarness(t, a, b)

	// Everything at the level is already completed.
	_, err := repo.RecordCompletion(ctx, shared.TelegramID(42), a.ID)
	require.NoError(t, err)
	_, err = repo.RecordCompletion(ctx, shared.TelegramID(42), b.ID)
	require.NoError(t, err)

	_, err = start.Handle(ctx, StartSelectionCommand{TelegramID: 42})
	require.NoError(t, err)
	_, err = advance.Handle(ctx, AdvanceSelectionCommand{TelegramID: 42, Choice: ChoiceAllTopics})
	require.NoError(t, err)
	_, err = advance.Handle(ctx, AdvanceSelectionCommand{TelegramID: 42, Choice: "Дроби"})
	require.NoError(t, err)

	res, err := advance.Handle(ctx, AdvanceSelectionCommand{TelegramID: 42, Choice: "легкий"})
	require.NoError(t, err)
	assert.True(t, res.QueueStarted)
	assert.True(t, res.IsRepeatLap)
	assert.Equal(t, 2, res.QueueLength)
}

func TestSelection_PartialCompletionQueuesOnlyFresh(t *testing.T) {
	ctx := context.Background()
	a := mustTask(t, "Дроби", task.LevelEasy, "4")
	b := mustTask(t, "Дроби", task.LevelEasy, "5")
	start, advance, sessions, repo := selectionHarness(t, a, b)

	_, err := repo.RecordCompletion(ctx, shared.TelegramID(42), a.ID)
	require.NoError(t, err)

	_, err = start.Handle(ctx, StartSelectionCommand{TelegramID: 42})
	require.NoError(t, err)
	_, err = advance.Handle(ctx, AdvanceSelectionCommand{TelegramID: 42, Choice: ChoiceAllTopics})
	require.NoError(t, err)
	_, err = advance.Handle(ctx, AdvanceSelectionCommand{TelegramID: 42, Choice: "Дроби"})
	require.NoError(t, err)

	res, err := advance.Handle(ctx, AdvanceSelectionCommand{TelegramID: 42, Choice: "легкий"})
	require.NoError(t, err)
	assert.False(t, res.IsRepeatLap)
	assert.Equal(t, 1, res.QueueLength)

	s, err := sessions.Get(ctx, shared.TelegramID(42))
	require.NoError(t, err)
	id, err := s.CurrentTaskID()
	require.NoError(t, err)
	assert.Equal(t, b.ID, id)
}

func TestSelection_NoItemsClearsSession(t *testing.T) {
	ctx := context.Background()
	// The only item is daily, so the regular pool for the topic is empty.
	daily, err := task.NewTask(task.NewTaskParams{
		ID:      shared.TaskID(uuid.NewString()),
		Prompt:  "3 * 3 = ?",
		Answers: []string{"9"},
		IsDaily: true,
	})
	require.NoError(t, err)
	easy := mustTask(t, "Дроби", task.LevelEasy, "4")
	start, advance, sessions, repo := selectionHarness(t, daily, easy)

	// Remove the regular item from under the open session.
	_, err = start.Handle(ctx, StartSelectionCommand{TelegramID: 42})
	require.NoError(t, err)
	_, err = advance.Handle(ctx, AdvanceSelectionCommand{TelegramID: 42, Choice: ChoiceAllTopics})
	require.NoError(t, err)
	_, err = advance.Handle(ctx, AdvanceSelectionCommand{TelegramID: 42, Choice: "Дроби"})
	require.NoError(t, err)
	repo.tasks = []*task.Task{daily}

	res, err := advance.Handle(ctx, AdvanceSelectionCommand{TelegramID: 42, Choice: "легкий"})
	require.ErrorIs(t, err, shared.ErrEmptyQueue)
	assert.True(t, res.SessionCleared)

	_, err = sessions.Get(ctx, shared.TelegramID(42))
	assert.ErrorIs(t, err, shared.ErrStaleSession)
}

func TestSelection_BackNavigation(t *testing.T) {
	ctx := context.Background()
	start, advance, _, _ := selectionHarness(t, mustTask(t, "Дроби", task.LevelEasy, "4"))

	_, err := start.Handle(ctx, StartSelectionCommand{TelegramID: 42})
	require.NoError(t, err)
	_, err = advance.Handle(ctx, AdvanceSelectionCommand{TelegramID: 42, Choice: ChoiceAllTopics})
	require.NoError(t, err)
	_, err = advance.Handle(ctx, AdvanceSelectionCommand{TelegramID: 42, Choice: "Дроби"})
	require.NoError(t, err)

	res, err := advance.Handle(ctx, AdvanceSelectionCommand{TelegramID: 42, Choice: ChoiceBack})
	require.NoError(t, err)
	assert.Equal(t, quiz.StepTopic, res.Step)
	assert.Contains(t, res.Options, "Дроби")
}

func TestSelection_NoSessionIsStale(t *testing.T) {
	ctx := context.Background()
	_, advance, _, _ := selectionHarness(t, mustTask(t, "Дроби", task.LevelEasy, "4"))

	_, err := advance.Handle(ctx, AdvanceSelectionCommand{TelegramID: 42, Choice: "Дроби"})
	assert.ErrorIs(t, err, shared.ErrStaleSession)
}
