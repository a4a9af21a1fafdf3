package query

import (
	"context"
	"errors"

	"github.com/Matviy-commands/math-nmt-bot/internal/domain/learner"
	"github.com/Matviy-commands/math-nmt-bot/internal/domain/shared"
	"github.com/Matviy-commands/math-nmt-bot/internal/domain/task"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET PROGRESS QUERY
// Builds the /progress screen: score with rank title, daily streak, per-topic
// completion ratios, held badges and the leaderboard rank.
// ══════════════════════════════════════════════════════════════════════════════

// GetProgressQuery identifies the user.
type GetProgressQuery struct {
	// TelegramID is the user.
	TelegramID int64
}

// Validate validates the query.
func (q GetProgressQuery) Validate() error {
	if q.TelegramID <= 0 {
		return errors.New("get_progress: telegram_id is required")
	}
	return nil
}

// TopicProgressDTO is one per-topic completion line.
type TopicProgressDTO struct {
	// Topic is the topic name.
	Topic string `json:"topic"`

	// Completed is the number of completed items.
	Completed int `json:"completed"`

	// Total is the item count in the topic.
	Total int `json:"total"`

	// Ratio is Completed/Total, 0 for empty topics.
	Ratio float64 `json:"ratio"`

	// Mastered is true when the 70% mastery bar is reached.
	Mastered bool `json:"mastered"`
}

// BadgeDTO is one held badge for display.
type BadgeDTO struct {
	// Title is the human-readable badge name.
	Title string `json:"title"`

	// Emoji is the badge icon.
	Emoji string `json:"emoji"`
}

// GetProgressResult is the full /progress payload.
type GetProgressResult struct {
	// DisplayName is the learner's name.
	DisplayName string `json:"display_name"`

	// Score is the point total.
	Score int `json:"score"`

	// Title is the rank title derived from Score.
	Title string `json:"title"`

	// DailyStreak is the current daily streak.
	DailyStreak int `json:"daily_streak"`

	// Rank is the leaderboard position (0 = unranked).
	Rank int `json:"rank"`

	// Topics lists per-topic completion.
	Topics []TopicProgressDTO `json:"topics"`

	// Badges lists held badges in definition order.
	Badges []BadgeDTO `json:"badges"`

	// TasksCompleted is the overall completed count.
	TasksCompleted int `json:"tasks_completed"`

	// TasksTotal is the overall item count.
	TasksTotal int `json:"tasks_total"`
}

// GetProgressHandler handles GetProgressQuery.
type GetProgressHandler struct {
	learners learner.Repository
	progress learner.ProgressRepository
	tasks    task.Repository
}

// NewGetProgressHandler creates a new GetProgressHandler.
func NewGetProgressHandler(learners learner.Repository, progress learner.ProgressRepository, tasks task.Repository) *GetProgressHandler {
	return &GetProgressHandler{learners: learners, progress: progress, tasks: tasks}
}

// Handle processes the query.
func (h *GetProgressHandler) Handle(ctx context.Context, q GetProgressQuery) (*GetProgressResult, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	user := shared.TelegramID(q.TelegramID)

	l, err := h.learners.GetByTelegramID(ctx, user)
	if err != nil {
		return nil, err
	}

	res := &GetProgressResult{
		DisplayName: l.DisplayName,
		Score:       l.Score.Int(),
		Title:       l.Score.Title(),
		DailyStreak: l.DailyStreak,
	}

	rank, err := h.learners.RankOf(ctx, user)
	if err != nil {
		return nil, err
	}
	res.Rank = rank.Int()

	all, err := h.tasks.AllTopicsProgress(ctx, user)
	if err != nil {
		return nil, shared.WrapError("learner", "GetProgress", shared.ErrServiceUnavailable, "item repository call failed", err)
	}
	for _, p := range all {
		res.TasksCompleted += p.Completed
		res.TasksTotal += p.Total
		res.Topics = append(res.Topics, TopicProgressDTO{
			Topic:     p.Topic,
			Completed: p.Completed,
			Total:     p.Total,
			Ratio:     p.Ratio(),
			Mastered:  p.Total > 0 && p.Ratio() >= learner.MasteryRatio,
		})
	}

	held, err := h.progress.HeldBadges(ctx, user)
	if err != nil {
		return nil, err
	}
	for _, b := range learner.Definitions() {
		if _, ok := held[b.Name]; ok {
			res.Badges = append(res.Badges, BadgeDTO{Title: b.Title, Emoji: b.Emoji})
		}
	}

	return res, nil
}
