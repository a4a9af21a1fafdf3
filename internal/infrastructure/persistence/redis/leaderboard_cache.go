package redis

import (
	"context"
	"errors"
	"time"

	"github.com/Matviy-commands/math-nmt-bot/internal/domain/learner"
	"github.com/Matviy-commands/math-nmt-bot/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// LEADERBOARD CACHE
// The /top screen is read far more often than scores change, so the top is
// cached as one JSON blob invalidated by the task-completed handler and
// bounded by TTL as a backstop.
// ══════════════════════════════════════════════════════════════════════════════

// cachedEntry mirrors learner.LeaderboardEntry for JSON storage.
type cachedEntry struct {
	Rank        int    `json:"rank"`
	TelegramID  int64  `json:"telegram_id"`
	DisplayName string `json:"display_name"`
	Score       int    `json:"score"`
}

// LeaderboardCache implements learner.LeaderboardCache on Redis.
type LeaderboardCache struct {
	cache *Cache
}

// NewLeaderboardCache creates a new LeaderboardCache.
func NewLeaderboardCache(cache *Cache) *LeaderboardCache {
	return &LeaderboardCache{cache: cache}
}

// GetTop returns the cached top sliced to limit; found=false on miss or
// when the cached list is shorter than the requested limit.
func (c *LeaderboardCache) GetTop(ctx context.Context, limit int) ([]learner.LeaderboardEntry, bool, error) {
	var cached []cachedEntry
	err := c.cache.Get(ctx, LeaderboardKey(), &cached)
	if err != nil {
		if errors.Is(err, ErrCacheMiss) {
			return nil, false, nil
		}
		return nil, false, err
	}
	if len(cached) < limit {
		return nil, false, nil
	}

	entries := make([]learner.LeaderboardEntry, 0, limit)
	for _, e := range cached[:limit] {
		entries = append(entries, learner.LeaderboardEntry{
			Rank:        shared.Rank(e.Rank),
			TelegramID:  shared.TelegramID(e.TelegramID),
			DisplayName: e.DisplayName,
			Score:       shared.Points(e.Score),
		})
	}
	return entries, true, nil
}

// SetTop stores the top with a TTL.
func (c *LeaderboardCache) SetTop(ctx context.Context, entries []learner.LeaderboardEntry, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = TTLLeaderboard
	}
	cached := make([]cachedEntry, 0, len(entries))
	for _, e := range entries {
		cached = append(cached, cachedEntry{
			Rank:        e.Rank.Int(),
			TelegramID:  e.TelegramID.Int64(),
			DisplayName: e.DisplayName,
			Score:       e.Score.Int(),
		})
	}
	return c.cache.Set(ctx, LeaderboardKey(), cached, ttl)
}

// Invalidate drops the cached top.
func (c *LeaderboardCache) Invalidate(ctx context.Context) error {
	return c.cache.Delete(ctx, LeaderboardKey())
}
