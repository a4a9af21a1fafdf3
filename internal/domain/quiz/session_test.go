package quiz

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Matviy-commands/math-nmt-bot/internal/domain/shared"
	"github.com/Matviy-commands/math-nmt-bot/internal/domain/task"
)

var (
	taskA = shared.TaskID("6ba7b810-9dad-11d1-80b4-00c04fd430c1")
	taskB = shared.TaskID("6ba7b810-9dad-11d1-80b4-00c04fd430c2")
	taskC = shared.TaskID("6ba7b810-9dad-11d1-80b4-00c04fd430c3")
)

func TestSession_SelectionFlow(t *testing.T) {
	s := NewSession(42)
	assert.Equal(t, StepCategory, s.Step)

	require.NoError(t, s.ChooseCategory("Алгебра"))
	assert.Equal(t, StepTopic, s.Step)

	require.NoError(t, s.ChooseTopic("Логарифми"))
	assert.Equal(t, StepLevel, s.Step)

	err := s.StartQueue(task.LevelEasy, []shared.TaskID{taskA, taskB}, nil, false)
	require.NoError(t, err)
	assert.Equal(t, StepSolving, s.Step)
	assert.Equal(t, 0, s.Index)
}

func TestSession_WrongStepIsInvalidSelection(t *testing.T) {
	s := NewSession(42)

	// Вибір теми до вибору розділу
	err := s.ChooseTopic("Логарифми")
	assert.ErrorIs(t, err, shared.ErrInvalidSelection)

	// Запуск черги до вибору рівня
	err = s.StartQueue(task.LevelEasy, []shared.TaskID{taskA}, nil, false)
	assert.ErrorIs(t, err, shared.ErrInvalidSelection)
}

func TestSession_EmptyQueue(t *testing.T) {
	s := NewSession(42)
	require.NoError(t, s.ChooseCategory(""))
	require.NoError(t, s.ChooseTopic("Логарифми"))

	err := s.StartQueue(task.LevelEasy, nil, nil, false)
	assert.ErrorIs(t, err, shared.ErrEmptyQueue)
}

func TestSession_BackNavigation(t *testing.T) {
	s := NewSession(42)
	require.NoError(t, s.ChooseCategory("Алгебра"))
	require.NoError(t, s.ChooseTopic("Логарифми"))

	s.BackToTopic()
	assert.Equal(t, StepTopic, s.Step)
	assert.Empty(t, s.Topic)

	s.BackToCategory()
	assert.Equal(t, StepCategory, s.Step)
	assert.Empty(t, s.Category)
}

func TestSession_FirstAttemptVsRepeat(t *testing.T) {
	s := NewSession(42)
	require.NoError(t, s.ChooseCategory(""))
	require.NoError(t, s.ChooseTopic("Логарифми"))

	pre := map[shared.TaskID]struct{}{taskB: {}}
	require.NoError(t, s.StartQueue(task.LevelHard, []shared.TaskID{taskA, taskB, taskC}, pre, true))

	assert.True(t, s.IsFirstAttempt(taskA))
	assert.False(t, s.IsFirstAttempt(taskB), "завдання зі знімка — повторне проходження")
	assert.True(t, s.IsFirstAttempt(taskC))
}

func TestSession_AdvanceQueueToEnd(t *testing.T) {
	s := NewSession(42)
	require.NoError(t, s.ChooseCategory(""))
	require.NoError(t, s.ChooseTopic("Логарифми"))
	require.NoError(t, s.StartQueue(task.LevelEasy, []shared.TaskID{taskA, taskB}, nil, false))

	id, err := s.CurrentTaskID()
	require.NoError(t, err)
	assert.Equal(t, taskA, id)
	assert.Equal(t, 1, s.Remaining())

	assert.True(t, s.AdvanceQueue())
	id, err = s.CurrentTaskID()
	require.NoError(t, err)
	assert.Equal(t, taskB, id)

	assert.False(t, s.AdvanceQueue(), "черга вичерпана")
	_, err = s.CurrentTaskID()
	assert.ErrorIs(t, err, shared.ErrQueueExhausted)
}

func TestSession_DailyIsDegenerate(t *testing.T) {
	s := NewDailySession(42, taskA)

	assert.Equal(t, StepSolving, s.Step)
	assert.True(t, s.IsDaily)
	assert.True(t, s.IsFirstAttempt(taskA))

	id, err := s.CurrentTaskID()
	require.NoError(t, err)
	assert.Equal(t, taskA, id)

	assert.False(t, s.AdvanceQueue(), "одне завдання — сесія завершується")
}

func TestSession_CurrentBeforeSolvingIsStale(t *testing.T) {
	s := NewSession(42)
	_, err := s.CurrentTaskID()
	assert.ErrorIs(t, err, shared.ErrStaleSession)
}

func TestSession_SnapshotSurvivesSerialization(t *testing.T) {
	s := NewSession(42)
	require.NoError(t, s.ChooseCategory(""))
	require.NoError(t, s.ChooseTopic("Логарифми"))
	pre := map[shared.TaskID]struct{}{taskA: {}}
	require.NoError(t, s.StartQueue(task.LevelEasy, []shared.TaskID{taskA, taskB}, pre, true))

	// Після round-trip через JSON мапа відбудовується зі списку
	restored := &Session{
		User:             s.User,
		Step:             s.Step,
		Queue:            s.Queue,
		PreCompletedList: s.PreCompletedList,
		IsRepeatLap:      s.IsRepeatLap,
	}
	assert.False(t, restored.IsFirstAttempt(taskA))
	assert.True(t, restored.IsFirstAttempt(taskB))
}
