package query

import (
	"context"
	"errors"
	"time"

	"github.com/Matviy-commands/math-nmt-bot/internal/domain/learner"
	"github.com/Matviy-commands/math-nmt-bot/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET LEADERBOARD QUERY
// Returns the top-N learners plus the caller's own rank. The top is served
// through a short-lived cache that the task-completed handler invalidates.
// ══════════════════════════════════════════════════════════════════════════════

const leaderboardCacheTTL = 2 * time.Minute

// GetLeaderboardQuery contains leaderboard request parameters.
type GetLeaderboardQuery struct {
	// TelegramID is the caller, used to attach their own rank.
	TelegramID int64

	// Limit is the number of entries (default 10, max 50).
	Limit int
}

// Validate validates the query and applies defaults.
func (q *GetLeaderboardQuery) Validate() error {
	if q.TelegramID <= 0 {
		return errors.New("get_leaderboard: telegram_id is required")
	}
	if q.Limit < 0 {
		return errors.New("get_leaderboard: limit cannot be negative")
	}
	if q.Limit == 0 {
		q.Limit = 10
	}
	if q.Limit > 50 {
		q.Limit = 50
	}
	return nil
}

// LeaderboardRowDTO is one leaderboard line.
type LeaderboardRowDTO struct {
	// Rank is the 1-based position.
	Rank int `json:"rank"`

	// Medal is the emoji for top-3 positions, "" otherwise.
	Medal string `json:"medal,omitempty"`

	// DisplayName is the learner's name.
	DisplayName string `json:"display_name"`

	// Score is the point total.
	Score int `json:"score"`

	// IsCaller marks the requesting user's own row.
	IsCaller bool `json:"is_caller,omitempty"`
}

// GetLeaderboardResult contains the leaderboard payload.
type GetLeaderboardResult struct {
	// Rows are the top entries.
	Rows []LeaderboardRowDTO `json:"rows"`

	// CallerRank is the caller's position (0 = unranked).
	CallerRank int `json:"caller_rank"`

	// CallerInTop is true when the caller appears in Rows.
	CallerInTop bool `json:"caller_in_top"`

	// TotalCount is the number of ranked learners.
	TotalCount int `json:"total_count"`
}

// GetLeaderboardHandler handles GetLeaderboardQuery.
type GetLeaderboardHandler struct {
	learners learner.Repository
	cache    learner.LeaderboardCache
}

// NewGetLeaderboardHandler creates a new GetLeaderboardHandler.
// The cache may be nil; reads then always hit the repository.
func NewGetLeaderboardHandler(learners learner.Repository, cache learner.LeaderboardCache) *GetLeaderboardHandler {
	return &GetLeaderboardHandler{learners: learners, cache: cache}
}

// Handle processes the query.
func (h *GetLeaderboardHandler) Handle(ctx context.Context, q GetLeaderboardQuery) (*GetLeaderboardResult, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	user := shared.TelegramID(q.TelegramID)

	entries, err := h.topEntries(ctx, q.Limit)
	if err != nil {
		return nil, err
	}

	res := &GetLeaderboardResult{}
	for _, e := range entries {
		row := LeaderboardRowDTO{
			Rank:        e.Rank.Int(),
			Medal:       e.Rank.Medal(),
			DisplayName: e.DisplayName,
			Score:       e.Score.Int(),
		}
		if e.TelegramID == user {
			row.IsCaller = true
			res.CallerInTop = true
			res.CallerRank = row.Rank
		}
		res.Rows = append(res.Rows, row)
	}

	if !res.CallerInTop {
		rank, err := h.learners.RankOf(ctx, user)
		if err != nil && !shared.IsNotFound(err) {
			return nil, err
		}
		res.CallerRank = rank.Int()
	}

	total, err := h.learners.Count(ctx)
	if err != nil {
		return nil, err
	}
	res.TotalCount = total

	return res, nil
}

// topEntries reads through the cache when one is configured. Cache errors
// degrade to a repository read instead of failing the query.
func (h *GetLeaderboardHandler) topEntries(ctx context.Context, limit int) ([]learner.LeaderboardEntry, error) {
	if h.cache != nil {
		if entries, found, err := h.cache.GetTop(ctx, limit); err == nil && found {
			return entries, nil
		}
	}

	entries, err := h.learners.Top(ctx, limit)
	if err != nil {
		return nil, shared.WrapError("learner", "GetLeaderboard", shared.ErrServiceUnavailable, "leaderboard read failed", err)
	}

	if h.cache != nil {
		_ = h.cache.SetTop(ctx, entries, leaderboardCacheTTL)
	}
	return entries, nil
}
