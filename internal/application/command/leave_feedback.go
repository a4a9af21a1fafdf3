package command

import (
	"context"
	"errors"
	"strings"

	"github.com/Matviy-commands/math-nmt-bot/internal/domain/learner"
	"github.com/Matviy-commands/math-nmt-bot/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// LEAVE FEEDBACK COMMAND
// Stores a feedback message, bumps the learner's feedback counter and runs
// the badge reconciliation (the "Критик" badge is feedback-driven) inside
// one unit of work.
// ══════════════════════════════════════════════════════════════════════════════

const maxFeedbackLen = 2000

// LeaveFeedbackCommand stores one feedback message.
type LeaveFeedbackCommand struct {
	// TelegramID is the author.
	TelegramID int64

	// Text is the feedback body.
	Text string
}

// Validate validates the command.
func (c LeaveFeedbackCommand) Validate() error {
	if c.TelegramID <= 0 {
		return errors.New("leave_feedback: telegram_id is required")
	}
	if strings.TrimSpace(c.Text) == "" {
		return errors.New("leave_feedback: text is required")
	}
	if len(c.Text) > maxFeedbackLen {
		return errors.New("leave_feedback: text is too long")
	}
	return nil
}

// LeaveFeedbackResult reports the stored feedback and any badge payout.
type LeaveFeedbackResult struct {
	// FeedbackID is the stored record identifier.
	FeedbackID string

	// NewBadges lists badges granted by this feedback.
	NewBadges []learner.Badge

	// Events are the domain events produced by this command.
	Events []shared.Event
}

// LeaveFeedbackHandler handles LeaveFeedbackCommand.
type LeaveFeedbackHandler struct {
	feedback learner.FeedbackRepository
	uow      learner.UnitOfWork
	badges   *learner.Evaluator
}

// NewLeaveFeedbackHandler creates a new LeaveFeedbackHandler.
func NewLeaveFeedbackHandler(feedback learner.FeedbackRepository, uow learner.UnitOfWork, badges *learner.Evaluator) *LeaveFeedbackHandler {
	return &LeaveFeedbackHandler{feedback: feedback, uow: uow, badges: badges}
}

// Handle processes the command.
func (h *LeaveFeedbackHandler) Handle(ctx context.Context, cmd LeaveFeedbackCommand) (*LeaveFeedbackResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}
	user := shared.TelegramID(cmd.TelegramID)
	res := &LeaveFeedbackResult{}

	id, err := h.feedback.Save(ctx, user, strings.TrimSpace(cmd.Text))
	if err != nil {
		return nil, err
	}
	res.FeedbackID = id
	res.Events = append(res.Events, shared.NewFeedbackLeftEvent(user.Int64(), id))

	err = h.uow.Within(ctx, func(ctx context.Context, tx learner.TxRepositories) error {
		l, err := tx.Learners.GetByTelegramID(ctx, user)
		if err != nil {
			return err
		}
		updates := []learner.Update{learner.IncrementFeedback{}}

		held, err := tx.Progress.HeldBadges(ctx, user)
		if err != nil {
			return err
		}
		// Task aggregates are left at zero: only the feedback and
		// score predicates can flip on this path.
		agg := learner.Aggregates{
			Score:             l.Score.Int(),
			FeedbackCount:     l.FeedbackCount + 1,
			AllTasksCompleted: l.AllTasksCompleted,
			DailyStreak:       l.DailyStreak,
		}

		reward := 0
		for _, b := range h.badges.Reconcile(agg, held) {
			ok, err := tx.Progress.GrantBadge(ctx, user, b.Name)
			if err != nil {
				return err
			}
			if !ok {
				continue
			}
			res.NewBadges = append(res.NewBadges, b)
			reward += b.Reward
			res.Events = append(res.Events, shared.NewBadgeUnlockedEvent(user.Int64(), b.Name.String(), b.Reward))
		}
		if reward > 0 {
			updates = append(updates, learner.AddScore{Delta: reward})
		}
		return tx.Learners.Apply(ctx, user, updates...)
	})
	if err != nil {
		return nil, err
	}

	return res, nil
}
