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
// SUBMIT ANSWER COMMAND
// The single unit of work of the engine: the completion record and every
// score/streak/badge mutation are applied inside one repository transaction.
// If the transaction fails, nothing is applied and the session index is not
// advanced, so the caller may retry the same submission: the idempotent
// completion insert guards against double-scoring.
// ══════════════════════════════════════════════════════════════════════════════

// SubmitAnswerCommand contains a raw user response for the current item.
type SubmitAnswerCommand struct {
	// TelegramID is the answering user.
	TelegramID int64

	// RawResponse is the unparsed message text.
	RawResponse string

	// IsSkip marks a "❓ Не знаю" response: incorrect by construction,
	// delta 0, still records the completion and advances the queue.
	IsSkip bool
}

// Validate validates the command.
func (c SubmitAnswerCommand) Validate() error {
	if c.TelegramID <= 0 {
		return errors.New("submit_answer: telegram_id is required")
	}
	if !c.IsSkip && c.RawResponse == "" {
		return errors.New("submit_answer: response is required")
	}
	return nil
}

// StreakBonus is a single streak payout included in the answer outcome.
type StreakBonus struct {
	// Kind is "daily", "topic" or "mastery".
	Kind string

	// Topic is set for topic and mastery bonuses.
	Topic string

	// Threshold is the milestone value that was reached.
	Threshold int

	// Amount is the points paid.
	Amount int
}

// SubmitAnswerResult is the full outcome of one answer submission.
type SubmitAnswerResult struct {
	// IsCorrect reports the evaluation verdict.
	IsCorrect bool

	// MatchCount is the partial match size (match items only).
	MatchCount int

	// Delta is the points paid for the answer itself.
	Delta int

	// FirstAttempt is false for repeat-lap answers.
	FirstAttempt bool

	// StreakBonuses lists every milestone payout triggered by this answer.
	StreakBonuses []StreakBonus

	// NewBadges lists badges granted by the eager badge reconciliation.
	NewBadges []learner.Badge

	// TopicStreak is the per-topic streak after this answer (non-daily).
	TopicStreak int

	// DailyStreak is the daily streak after this answer (daily items).
	DailyStreak int

	// CorrectAnswer is the accepted answer set, for feedback display.
	CorrectAnswer []string

	// Explanation is the worked solution attached to the item ("" when
	// the content has none).
	Explanation string

	// SessionEnded is true when the queue is exhausted (or the item was daily).
	SessionEnded bool

	// IsRepeatLap reports the lap kind of the ended session.
	IsRepeatLap bool

	// NextLevels lists the levels of the finished topic that still have
	// items, excluding the one just finished. Empty for daily sessions.
	NextLevels []task.Level

	// Topic is the session topic ("" for daily).
	Topic string

	// Events are the domain events produced by this submission.
	Events []shared.Event
}

// ══════════════════════════════════════════════════════════════════════════════
// HANDLER
// ══════════════════════════════════════════════════════════════════════════════

// SubmitAnswerHandler handles SubmitAnswerCommand and SkipCommand-shaped calls.
type SubmitAnswerHandler struct {
	sessions quiz.SessionStore
	tasks    task.Repository
	uow      learner.UnitOfWork
	policy   quiz.ScoringPolicy
	badges   *learner.Evaluator

	// now is injectable for tests; defaults to timeutil.Now.
	now func() time.Time
}

// NewSubmitAnswerHandler creates a new SubmitAnswerHandler.
func NewSubmitAnswerHandler(
	sessions quiz.SessionStore,
	tasks task.Repository,
	uow learner.UnitOfWork,
	policy quiz.ScoringPolicy,
	badges *learner.Evaluator,
) *SubmitAnswerHandler {
	return &SubmitAnswerHandler{
		sessions: sessions,
		tasks:    tasks,
		uow:      uow,
		policy:   policy,
		badges:   badges,
		now:      timeutil.Now,
	}
}

// WithClock overrides the time source (tests).
func (h *SubmitAnswerHandler) WithClock(now func() time.Time) *SubmitAnswerHandler {
	h.now = now
	return h
}

// Handle processes the submission.
func (h *SubmitAnswerHandler) Handle(ctx context.Context, cmd SubmitAnswerCommand) (*SubmitAnswerResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}
	user := shared.TelegramID(cmd.TelegramID)

	s, err := h.sessions.Get(ctx, user)
	if err != nil {
		return nil, err
	}
	taskID, err := s.CurrentTaskID()
	if err != nil {
		return nil, err
	}
	t, err := h.tasks.GetByID(ctx, taskID)
	if err != nil {
		return nil, wrapRepo("SubmitAnswer", err)
	}

	// Evaluation and scoring are pure; nothing is mutated yet.
	var eval quiz.EvaluationResult
	if !cmd.IsSkip {
		eval = quiz.Evaluate(t, cmd.RawResponse)
	}
	delta := h.policy.ComputeDelta(t, eval)
	firstAttempt := s.IsFirstAttempt(taskID)

	res := &SubmitAnswerResult{
		IsCorrect:     eval.IsCorrect,
		MatchCount:    eval.MatchCount,
		FirstAttempt:  firstAttempt,
		CorrectAnswer: t.Answers,
		Explanation:   t.Explanation,
		Topic:         t.Topic,
	}

	err = h.uow.Within(ctx, func(ctx context.Context, tx learner.TxRepositories) error {
		return h.applyOutcome(ctx, tx, s, t, cmd, eval, delta, firstAttempt, res)
	})
	if err != nil {
		// No partial credit is retained; the session step is untouched,
		// the same submission can be resubmitted safely.
		return nil, err
	}

	// The unit of work committed: only now does the queue move.
	if err := h.advanceSession(ctx, s, t, res); err != nil {
		return nil, err
	}

	return res, nil
}

// Skip processes a "не знаю" response: same shape as Handle with
// isCorrect=false and delta=0 by construction.
func (h *SubmitAnswerHandler) Skip(ctx context.Context, telegramID int64) (*SubmitAnswerResult, error) {
	return h.Handle(ctx, SubmitAnswerCommand{TelegramID: telegramID, IsSkip: true})
}

// ─────────────────────────────────────────────────────────────────────────────
// Unit of work body
// ─────────────────────────────────────────────────────────────────────────────

func (h *SubmitAnswerHandler) applyOutcome(
	ctx context.Context,
	tx learner.TxRepositories,
	s *quiz.Session,
	t *task.Task,
	cmd SubmitAnswerCommand,
	eval quiz.EvaluationResult,
	delta int,
	firstAttempt bool,
	res *SubmitAnswerResult,
) error {
	user := s.User
	now := h.now()

	l, err := tx.Learners.GetByTelegramID(ctx, user)
	if err != nil {
		return err
	}

	wasNew, err := tx.Completions.RecordCompletion(ctx, user, t.ID)
	if err != nil {
		return err
	}

	var updates []learner.Update
	scoreDelta := 0
	dailyStreak := l.DailyStreak

	// Points for the answer itself are paid once per (user, item): the
	// completion record's existence is the idempotence boundary.
	if wasNew && delta > 0 {
		scoreDelta += delta
		res.Delta = delta
		res.Events = append(res.Events,
			shared.NewTaskCompletedEvent(user.Int64(), t.ID.String(), t.Topic, eval.IsCorrect, firstAttempt, delta))
	}

	if t.IsDaily {
		// The daily item is the qualifying activity for the daily streak.
		ds := learner.DailyStreak{Current: l.DailyStreak, LastActiveDate: l.LastActivityDate}
		r := ds.RecordActivity(now)
		if r.Changed {
			updates = append(updates, learner.SetDailyStreak{Streak: r.Streak, LastActiveDate: ds.LastActiveDate})
			res.Events = append(res.Events,
				shared.NewDailyStreakUpdatedEvent(user.Int64(), r.Streak, r.WasReset, r.Bonus))
		}
		if r.Bonus > 0 {
			scoreDelta += r.Bonus
			res.StreakBonuses = append(res.StreakBonuses, StreakBonus{Kind: "daily", Threshold: r.Streak, Amount: r.Bonus})
		}
		res.DailyStreak = r.Streak
		dailyStreak = r.Streak
		updates = append(updates, learner.SetLastDaily{Date: now})
	} else if firstAttempt {
		bonuses, streak, err := h.updateTopicStreak(ctx, tx, user, t, eval.IsCorrect && !cmd.IsSkip, res)
		if err != nil {
			return err
		}
		res.TopicStreak = streak
		for _, b := range bonuses {
			scoreDelta += b.Amount
			res.StreakBonuses = append(res.StreakBonuses, b)
		}
	} else {
		// Repeat lap: the topic streak is untouched in either direction.
		ts, err := tx.Progress.GetTopicStreak(ctx, user, t.Topic)
		if err != nil {
			return err
		}
		res.TopicStreak = ts.Current
	}

	// Eager badge reconciliation after every scoring event.
	newBadges, badgeDelta, err := h.reconcileBadges(ctx, tx, l, dailyStreak, scoreDelta, &updates)
	if err != nil {
		return err
	}
	scoreDelta += badgeDelta
	res.NewBadges = newBadges
	for _, b := range newBadges {
		res.Events = append(res.Events, shared.NewBadgeUnlockedEvent(user.Int64(), b.Name.String(), b.Reward))
	}

	if scoreDelta > 0 {
		updates = append(updates, learner.AddScore{Delta: scoreDelta})
		res.Events = append(res.Events,
			shared.NewPointsGainedEvent(user.Int64(), scoreDelta, l.Score.Add(scoreDelta).Int(), "answer"))
	}
	if len(updates) == 0 {
		return nil
	}
	return tx.Learners.Apply(ctx, user, updates...)
}

// updateTopicStreak applies the first-attempt streak rules for a non-daily
// item and returns the due payouts (already deduplicated against the
// permanent milestone-award records).
func (h *SubmitAnswerHandler) updateTopicStreak(
	ctx context.Context,
	tx learner.TxRepositories,
	user shared.TelegramID,
	t *task.Task,
	correct bool,
	res *SubmitAnswerResult,
) ([]StreakBonus, int, error) {
	ts, err := tx.Progress.GetTopicStreak(ctx, user, t.Topic)
	if err != nil {
		return nil, 0, err
	}
	ts.Topic = t.Topic

	if !correct {
		ts.Reset()
		if err := tx.Progress.SetTopicStreak(ctx, user, ts); err != nil {
			return nil, 0, err
		}
		return nil, 0, nil
	}

	due := ts.RecordCorrect()
	if err := tx.Progress.SetTopicStreak(ctx, user, ts); err != nil {
		return nil, 0, err
	}

	var bonuses []StreakBonus
	for _, award := range due {
		marked, err := tx.Progress.MarkMilestoneAward(ctx, user, award.Topic, award.Threshold)
		if err != nil {
			return nil, 0, err
		}
		if !marked {
			continue // already paid for this (user, topic, threshold)
		}
		bonuses = append(bonuses, StreakBonus{Kind: "topic", Topic: award.Topic, Threshold: award.Threshold, Amount: award.Bonus})
		res.Events = append(res.Events,
			shared.NewTopicMilestoneEvent(user.Int64(), award.Topic, award.Threshold, award.Bonus))
	}

	// Topic mastery: recomputed only here, on a first-attempt-correct
	// non-daily answer; the once-only award guard absorbs repeats.
	// Read through the transaction so the completion recorded above
	// is counted in the ratio.
	progress, err := tx.Tasks.TopicProgress(ctx, user, t.Topic)
	if err != nil {
		return nil, 0, err
	}
	if progress.Total > 0 && progress.Ratio() >= learner.MasteryRatio {
		marked, err := tx.Progress.MarkMilestoneAward(ctx, user, t.Topic, learner.MasteryThreshold)
		if err != nil {
			return nil, 0, err
		}
		if marked {
			bonuses = append(bonuses, StreakBonus{Kind: "mastery", Topic: t.Topic, Threshold: learner.MasteryThreshold, Amount: learner.MasteryBonus})
			res.Events = append(res.Events,
				shared.NewTopicMilestoneEvent(user.Int64(), t.Topic, learner.MasteryThreshold, learner.MasteryBonus))
		}
	}

	return bonuses, ts.Current, nil
}

// reconcileBadges evaluates the fixed badge list against fresh aggregates
// and grants the missing ones, paying their rewards.
func (h *SubmitAnswerHandler) reconcileBadges(
	ctx context.Context,
	tx learner.TxRepositories,
	l *learner.Learner,
	dailyStreak int,
	pendingScore int,
	updates *[]learner.Update,
) ([]learner.Badge, int, error) {
	user := l.TelegramID

	all, err := tx.Tasks.AllTopicsProgress(ctx, user)
	if err != nil {
		return nil, 0, err
	}
	total, completed, topicsDone := 0, 0, 0
	for _, p := range all {
		total += p.Total
		completed += p.Completed
		if p.Total > 0 && p.Completed >= p.Total {
			topicsDone++
		}
	}
	ratio := 0.0
	if total > 0 {
		ratio = float64(completed) / float64(total)
	}
	allDone := total > 0 && completed >= total

	if topicsDone != l.TopicsCompleted {
		*updates = append(*updates, learner.SetTopicsCompleted{Count: topicsDone})
	}
	if allDone != l.AllTasksCompleted {
		*updates = append(*updates, learner.SetAllTasksCompleted{Done: allDone})
	}

	held, err := tx.Progress.HeldBadges(ctx, user)
	if err != nil {
		return nil, 0, err
	}

	agg := learner.Aggregates{
		Score:             l.Score.Add(pendingScore).Int(),
		TasksCompleted:    completed,
		CompletionRatio:   ratio,
		FeedbackCount:     l.FeedbackCount,
		AllTasksCompleted: allDone,
		DailyStreak:       dailyStreak,
	}

	var granted []learner.Badge
	reward := 0
	for _, b := range h.badges.Reconcile(agg, held) {
		ok, err := tx.Progress.GrantBadge(ctx, user, b.Name)
		if err != nil {
			return nil, 0, err
		}
		if !ok {
			continue
		}
		granted = append(granted, b)
		reward += b.Reward
	}
	return granted, reward, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Session advancement (after commit)
// ─────────────────────────────────────────────────────────────────────────────

func (h *SubmitAnswerHandler) advanceSession(ctx context.Context, s *quiz.Session, t *task.Task, res *SubmitAnswerResult) error {
	if s.IsDaily {
		// Degenerate one-item queue: any outcome ends the session.
		res.SessionEnded = true
		return h.sessions.Clear(ctx, s.User)
	}

	if s.AdvanceQueue() {
		return h.sessions.Save(ctx, s)
	}

	// End of queue: report the lap kind and the levels still available
	// for the topic, excluding the one just finished.
	res.SessionEnded = true
	res.IsRepeatLap = s.IsRepeatLap

	levels, err := h.tasks.ListLevels(ctx, s.Topic)
	if err != nil {
		return wrapRepo("SubmitAnswer", err)
	}
	for _, l := range levels {
		if l != s.Level {
			res.NextLevels = append(res.NextLevels, l)
		}
	}

	return h.sessions.Clear(ctx, s.User)
}
