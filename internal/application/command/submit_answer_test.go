package command

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Matviy-commands/math-nmt-bot/internal/domain/learner"
	"github.com/Matviy-commands/math-nmt-bot/internal/domain/quiz"
	"github.com/Matviy-commands/math-nmt-bot/internal/domain/shared"
	"github.com/Matviy-commands/math-nmt-bot/internal/domain/task"
)

type answerHarness struct {
	handler  *SubmitAnswerHandler
	sessions *memSessionStore
	tasks    *memTaskRepo
	state    *memLearnerState
}

func newAnswerHarness(t *testing.T, tasks ...*task.Task) *answerHarness {
	t.Helper()
	sessions := newMemSessionStore()
	repo := newMemTaskRepo(tasks...)
	state := newMemLearnerState()

	l, err := learner.NewLearner(learner.NewLearnerParams{TelegramID: 42, DisplayName: "Марія"})
	require.NoError(t, err)
	require.NoError(t, state.Upsert(context.Background(), l))

	uow := &memUnitOfWork{state: state, tasks: repo}
	h := NewSubmitAnswerHandler(sessions, repo, uow, quiz.NewStandardPolicy(), learner.NewEvaluator())
	h.WithClock(func() time.Time { return time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC) })

	return &answerHarness{handler: h, sessions: sessions, tasks: repo, state: state}
}

func (a *answerHarness) openQueue(t *testing.T, topic string, level task.Level, queue []shared.TaskID, pre map[shared.TaskID]struct{}, repeat bool) {
	t.Helper()
	ctx := context.Background()
	s := quiz.NewSession(shared.TelegramID(42))
	require.NoError(t, s.ChooseCategory(""))
	require.NoError(t, s.ChooseTopic(topic))
	require.NoError(t, s.StartQueue(level, queue, pre, repeat))
	require.NoError(t, a.sessions.Save(ctx, s))
}

func (a *answerHarness) learner(t *testing.T) *learner.Learner {
	t.Helper()
	l, err := a.state.GetByTelegramID(context.Background(), shared.TelegramID(42))
	require.NoError(t, err)
	return l
}

func TestSubmitAnswer_CorrectFirstAttempt(t *testing.T) {
	ctx := context.Background()
	a := mustTask(t, "Дроби", task.LevelEasy, "4")
	b := mustTask(t, "Дроби", task.LevelEasy, "5")
	h := newAnswerHarness(t, a, b,
		mustTask(t, "Рівняння", task.LevelEasy, "8"),
		mustTask(t, "Рівняння", task.LevelEasy, "9"))
	h.openQueue(t, "Дроби", task.LevelEasy, []shared.TaskID{a.ID, b.ID}, nil, false)

	res, err := h.handler.Handle(ctx, SubmitAnswerCommand{TelegramID: 42, RawResponse: "4"})
	require.NoError(t, err)

	assert.True(t, res.IsCorrect)
	assert.True(t, res.FirstAttempt)
	assert.Equal(t, 1, res.Delta)
	assert.Equal(t, 1, res.TopicStreak)
	assert.False(t, res.SessionEnded)
	assert.Equal(t, 1, h.learner(t).Score.Int())

	// The queue moved to the next item.
	s, err := h.sessions.Get(ctx, shared.TelegramID(42))
	require.NoError(t, err)
	id, err := s.CurrentTaskID()
	require.NoError(t, err)
	assert.Equal(t, b.ID, id)
}

func TestSubmitAnswer_CarriesExplanation(t *testing.T) {
	ctx := context.Background()
	a, err := task.NewTask(task.NewTaskParams{
		ID:          shared.TaskID("b2c3d4e5-f6a7-4b8c-9d0e-1f2a3b4c5d6e"),
		Topic:       "Дроби",
		Level:       task.LevelEasy,
		Type:        task.TypeSingle,
		Prompt:      "1/2 + 1/2 = ?",
		Answers:     []string{"1"},
		Explanation: "Однакові знаменники: додаємо чисельники.",
	})
	require.NoError(t, err)
	b := mustTask(t, "Дроби", task.LevelEasy, "5")
	h := newAnswerHarness(t, a, b)
	h.openQueue(t, "Дроби", task.LevelEasy, []shared.TaskID{a.ID, b.ID}, nil, false)

	// The explanation rides along for wrong answers too.
	res, err := h.handler.Handle(ctx, SubmitAnswerCommand{TelegramID: 42, RawResponse: "2"})
	require.NoError(t, err)
	assert.False(t, res.IsCorrect)
	assert.Equal(t, "Однакові знаменники: додаємо чисельники.", res.Explanation)
}

func TestSubmitAnswer_RepeatLapPaysNothing(t *testing.T) {
	ctx := context.Background()
	a := mustTask(t, "Дроби", task.LevelEasy, "4")
	h := newAnswerHarness(t, a,
		mustTask(t, "Рівняння", task.LevelEasy, "8"),
		mustTask(t, "Рівняння", task.LevelEasy, "9"))

	// Already completed once: repeat lap over the full set.
	_, err := h.tasks.RecordCompletion(ctx, shared.TelegramID(42), a.ID)
	require.NoError(t, err)
	pre := map[shared.TaskID]struct{}{a.ID: {}}
	h.openQueue(t, "Дроби", task.LevelEasy, []shared.TaskID{a.ID}, pre, true)

	res, err := h.handler.Handle(ctx, SubmitAnswerCommand{TelegramID: 42, RawResponse: "4"})
	require.NoError(t, err)

	assert.True(t, res.IsCorrect)
	assert.False(t, res.FirstAttempt)
	assert.Equal(t, 0, res.Delta)
	assert.Equal(t, 0, h.learner(t).Score.Int())

	// The repeat lap touches the topic streak in neither direction.
	ts, err := h.state.GetTopicStreak(ctx, shared.TelegramID(42), "Дроби")
	require.NoError(t, err)
	assert.Equal(t, 0, ts.Current)
}

func TestSubmitAnswer_WrongFirstAttemptResetsStreak(t *testing.T) {
	ctx := context.Background()
	a := mustTask(t, "Дроби", task.LevelEasy, "4")
	b := mustTask(t, "Дроби", task.LevelEasy, "5")
	h := newAnswerHarness(t, a, b)
	require.NoError(t, h.state.SetTopicStreak(ctx, shared.TelegramID(42), learner.TopicStreak{Topic: "Дроби", Current: 5}))
	h.openQueue(t, "Дроби", task.LevelEasy, []shared.TaskID{a.ID, b.ID}, nil, false)

	res, err := h.handler.Handle(ctx, SubmitAnswerCommand{TelegramID: 42, RawResponse: "7"})
	require.NoError(t, err)

	assert.False(t, res.IsCorrect)
	assert.Equal(t, 0, res.Delta)
	assert.Equal(t, 0, res.TopicStreak)

	ts, err := h.state.GetTopicStreak(ctx, shared.TelegramID(42), "Дроби")
	require.NoError(t, err)
	assert.Equal(t, 0, ts.Current)
}

func TestSubmitAnswer_SkipCountsAsIncorrect(t *testing.T) {
	ctx := context.Background()
	a := mustTask(t, "Дроби", task.LevelEasy, "4")
	b := mustTask(t, "Дроби", task.LevelEasy, "5")
	h := newAnswerHarness(t, a, b)
	require.NoError(t, h.state.SetTopicStreak(ctx, shared.TelegramID(42), learner.TopicStreak{Topic: "Дроби", Current: 2}))
	h.openQueue(t, "Дроби", task.LevelEasy, []shared.TaskID{a.ID, b.ID}, nil, false)

	res, err := h.handler.Skip(ctx, 42)
	require.NoError(t, err)

	assert.False(t, res.IsCorrect)
	assert.Equal(t, 0, res.Delta)
	assert.Equal(t, []string{"4"}, res.CorrectAnswer)

	ts, err := h.state.GetTopicStreak(ctx, shared.TelegramID(42), "Дроби")
	require.NoError(t, err)
	assert.Equal(t, 0, ts.Current)

	// The skipped item is still recorded and the queue advances.
	s, err := h.sessions.Get(ctx, shared.TelegramID(42))
	require.NoError(t, err)
	id, err := s.CurrentTaskID()
	require.NoError(t, err)
	assert.Equal(t, b.ID, id)
}

func TestSubmitAnswer_EndOfQueueReportsOtherLevels(t *testing.T) {
	ctx := context.Background()
	a := mustTask(t, "Дроби", task.LevelEasy, "4")
	hard := mustTask(t, "Дроби", task.LevelHard, "5")
	h := newAnswerHarness(t, a, hard)
	h.openQueue(t, "Дроби", task.LevelEasy, []shared.TaskID{a.ID}, nil, false)

	res, err := h.handler.Handle(ctx, SubmitAnswerCommand{TelegramID: 42, RawResponse: "4"})
	require.NoError(t, err)

	assert.True(t, res.SessionEnded)
	assert.Equal(t, []task.Level{task.LevelHard}, res.NextLevels)

	_, err = h.sessions.Get(ctx, shared.TelegramID(42))
	assert.ErrorIs(t, err, shared.ErrStaleSession)
}

func TestSubmitAnswer_TopicMilestonePaidOnce(t *testing.T) {
	ctx := context.Background()
	// A large enough topic that plain completion stays far from the
	// mastery and half-way bars while the streak crosses 3.
	var tasks []*task.Task
	for i := 0; i < 10; i++ {
		tasks = append(tasks, mustTask(t, "Дроби", task.LevelEasy, "4"))
	}
	h := newAnswerHarness(t, tasks...)
	queue := []shared.TaskID{tasks[0].ID, tasks[1].ID, tasks[2].ID}
	h.openQueue(t, "Дроби", task.LevelEasy, queue, nil, false)

	var last *SubmitAnswerResult
	for i := 0; i < 3; i++ {
		res, err := h.handler.Handle(ctx, SubmitAnswerCommand{TelegramID: 42, RawResponse: "4"})
		require.NoError(t, err)
		last = res
	}

	// The third correct answer crosses the streak-3 threshold.
	require.Len(t, last.StreakBonuses, 1)
	assert.Equal(t, "topic", last.StreakBonuses[0].Kind)
	assert.Equal(t, 3, last.StreakBonuses[0].Threshold)
	assert.Equal(t, 2, last.StreakBonuses[0].Amount)

	// 3 answers + the milestone bonus.
	assert.Equal(t, 5, h.learner(t).Score.Int())
}

func TestSubmitAnswer_MasteryBonusOnThreshold(t *testing.T) {
	ctx := context.Background()
	// 4 items, 3 completed after this answer: ratio 0.75 >= 0.7.
	a := mustTask(t, "Дроби", task.LevelEasy, "4")
	b := mustTask(t, "Дроби", task.LevelEasy, "5")
	c := mustTask(t, "Дроби", task.LevelEasy, "6")
	d := mustTask(t, "Дроби", task.LevelEasy, "7")
	h := newAnswerHarness(t, a, b, c, d)

	_, err := h.tasks.RecordCompletion(ctx, shared.TelegramID(42), a.ID)
	require.NoError(t, err)
	_, err = h.tasks.RecordCompletion(ctx, shared.TelegramID(42), b.ID)
	require.NoError(t, err)

	h.openQueue(t, "Дроби", task.LevelEasy, []shared.TaskID{c.ID, d.ID}, map[shared.TaskID]struct{}{a.ID: {}, b.ID: {}}, false)

	res, err := h.handler.Handle(ctx, SubmitAnswerCommand{TelegramID: 42, RawResponse: "6"})
	require.NoError(t, err)

	var mastery *StreakBonus
	for i := range res.StreakBonuses {
		if res.StreakBonuses[i].Kind == "mastery" {
			mastery = &res.StreakBonuses[i]
		}
	}
	require.NotNil(t, mastery)
	assert.Equal(t, learner.MasteryThreshold, mastery.Threshold)
	assert.Equal(t, learner.MasteryBonus, mastery.Amount)

	// Passing the bar again must not pay twice.
	res, err = h.handler.Handle(ctx, SubmitAnswerCommand{TelegramID: 42, RawResponse: "7"})
	require.NoError(t, err)
	for _, sb := range res.StreakBonuses {
		assert.NotEqual(t, "mastery", sb.Kind)
	}
}

func TestSubmitAnswer_MasteryCountsCurrentAnswer(t *testing.T) {
	ctx := context.Background()
	a := mustTask(t, "Дроби", task.LevelEasy, "4")
	b := mustTask(t, "Дроби", task.LevelEasy, "5")
	c := mustTask(t, "Дроби", task.LevelEasy, "6")

	// Separate completion stores: the handler's repository never sees
	// the completion written inside the unit of work. Progress must be
	// read through the transaction, so the crossing answer itself
	// counts toward the mastery ratio.
	pool := newMemTaskRepo(a, b, c)
	tx := newMemTaskRepo(a, b, c)

	sessions := newMemSessionStore()
	state := newMemLearnerState()
	l, err := learner.NewLearner(learner.NewLearnerParams{TelegramID: 42, DisplayName: "Марія"})
	require.NoError(t, err)
	require.NoError(t, state.Upsert(ctx, l))

	h := NewSubmitAnswerHandler(sessions, pool, &memUnitOfWork{state: state, tasks: tx}, quiz.NewStandardPolicy(), learner.NewEvaluator())
	h.WithClock(func() time.Time { return time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC) })

	s := quiz.NewSession(shared.TelegramID(42))
	require.NoError(t, s.ChooseCategory(""))
	require.NoError(t, s.ChooseTopic("Дроби"))
	require.NoError(t, s.StartQueue(task.LevelEasy, []shared.TaskID{a.ID, b.ID, c.ID}, nil, false))
	require.NoError(t, sessions.Save(ctx, s))

	answers := []string{"4", "5", "6"}
	var last *SubmitAnswerResult
	for _, ans := range answers {
		res, err := h.Handle(ctx, SubmitAnswerCommand{TelegramID: 42, RawResponse: ans})
		require.NoError(t, err)
		last = res
	}

	// The third answer brings the topic to 3/3 >= 0.7.
	var mastery *StreakBonus
	for i := range last.StreakBonuses {
		if last.StreakBonuses[i].Kind == "mastery" {
			mastery = &last.StreakBonuses[i]
		}
	}
	require.NotNil(t, mastery)
	assert.Equal(t, learner.MasteryThreshold, mastery.Threshold)
	assert.Equal(t, learner.MasteryBonus, mastery.Amount)
}

func TestSubmitAnswer_DailyUpdatesStreakAndPaysNothing(t *testing.T) {
	ctx := context.Background()
	daily, err := task.NewTask(task.NewTaskParams{
		ID:      shared.TaskID("c7f3d1a0-9a2b-4c5d-8e6f-112233445566"),
		Prompt:  "5 + 5 = ?",
		Answers: []string{"10"},
		Type:    task.TypeSingle,
		IsDaily: true,
	})
	require.NoError(t, err)
	h := newAnswerHarness(t, daily)

	l := h.learner(t)
	l.DailyStreak = 2
	l.LastActivityDate = time.Date(2025, 3, 9, 8, 0, 0, 0, time.UTC)

	require.NoError(t, h.sessions.Save(ctx, quiz.NewDailySession(shared.TelegramID(42), daily.ID)))

	res, err := h.handler.Handle(ctx, SubmitAnswerCommand{TelegramID: 42, RawResponse: "10"})
	require.NoError(t, err)

	assert.True(t, res.IsCorrect)
	assert.Equal(t, 0, res.Delta)
	assert.Equal(t, 3, res.DailyStreak)
	assert.True(t, res.SessionEnded)

	// Streak 3 milestone pays 5; the answer itself pays nothing.
	require.Len(t, res.StreakBonuses, 1)
	assert.Equal(t, "daily", res.StreakBonuses[0].Kind)
	assert.Equal(t, 5, res.StreakBonuses[0].Amount)
	assert.Equal(t, 5, h.learner(t).Score.Int())
	assert.Equal(t, 3, h.learner(t).DailyStreak)
}

func TestSubmitAnswer_FailureLeavesSessionInPlace(t *testing.T) {
	ctx := context.Background()
	a := mustTask(t, "Дроби", task.LevelEasy, "4")
	b := mustTask(t, "Дроби", task.LevelEasy, "5")
	// A third topic keeps the overall completion ratio below any badge bar,
	// so the retry pays exactly the answer itself.
	h := newAnswerHarness(t, a, b, mustTask(t, "Рівняння", task.LevelEasy, "8"))
	h.openQueue(t, "Дроби", task.LevelEasy, []shared.TaskID{a.ID, b.ID}, nil, false)

	h.tasks.failRecordCompletion = true
	_, err := h.handler.Handle(ctx, SubmitAnswerCommand{TelegramID: 42, RawResponse: "4"})
	require.Error(t, err)

	// Nothing moved: the same submission can be retried.
	assert.Equal(t, 0, h.learner(t).Score.Int())
	s, err := h.sessions.Get(ctx, shared.TelegramID(42))
	require.NoError(t, err)
	id, err := s.CurrentTaskID()
	require.NoError(t, err)
	assert.Equal(t, a.ID, id)

	h.tasks.failRecordCompletion = false
	res, err := h.handler.Handle(ctx, SubmitAnswerCommand{TelegramID: 42, RawResponse: "4"})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Delta)
	assert.Equal(t, 1, h.learner(t).Score.Int())
}
