package query

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Matviy-commands/math-nmt-bot/internal/domain/learner"
	"github.com/Matviy-commands/math-nmt-bot/internal/domain/shared"
)

// ─────────────────────────────────────────────────────────────────────────────
// Fakes
// ─────────────────────────────────────────────────────────────────────────────

type fakeLearnerRepo struct {
	entries  []learner.LeaderboardEntry
	ranks    map[shared.TelegramID]shared.Rank
	total    int
	topErr   error
	topCalls int
}

func (r *fakeLearnerRepo) GetByTelegramID(context.Context, shared.TelegramID) (*learner.Learner, error) {
	return nil, shared.ErrLearnerNotFound
}

func (r *fakeLearnerRepo) Upsert(context.Context, *learner.Learner) error { return nil }

func (r *fakeLearnerRepo) Apply(context.Context, shared.TelegramID, ...learner.Update) error {
	return nil
}

func (r *fakeLearnerRepo) Top(_ context.Context, limit int) ([]learner.LeaderboardEntry, error) {
	r.topCalls++
	if r.topErr != nil {
		return nil, r.topErr
	}
	if limit > len(r.entries) {
		limit = len(r.entries)
	}
	return r.entries[:limit], nil
}

func (r *fakeLearnerRepo) RankOf(_ context.Context, id shared.TelegramID) (shared.Rank, error) {
	rank, ok := r.ranks[id]
	if !ok {
		return 0, shared.ErrLearnerNotFound
	}
	return rank, nil
}

func (r *fakeLearnerRepo) Count(context.Context) (int, error) { return r.total, nil }

type fakeTopCache struct {
	entries []learner.LeaderboardEntry
	found   bool
	getErr  error

	setEntries []learner.LeaderboardEntry
	setTTL     time.Duration
}

func (c *fakeTopCache) GetTop(context.Context, int) ([]learner.LeaderboardEntry, bool, error) {
	return c.entries, c.found, c.getErr
}

func (c *fakeTopCache) SetTop(_ context.Context, entries []learner.LeaderboardEntry, ttl time.Duration) error {
	c.setEntries = entries
	c.setTTL = ttl
	return nil
}

func (c *fakeTopCache) Invalidate(context.Context) error { return nil }

func testEntries() []learner.LeaderboardEntry {
	return []learner.LeaderboardEntry{
		{Rank: 1, TelegramID: 100, DisplayName: "Оля", Score: 420},
		{Rank: 2, TelegramID: 200, DisplayName: "Максим", Score: 310},
		{Rank: 3, TelegramID: 300, DisplayName: "Ірина", Score: 150},
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Tests
// ─────────────────────────────────────────────────────────────────────────────

func TestGetLeaderboard_CacheMissFallsBackToRepository(t *testing.T) {
	repo := &fakeLearnerRepo{entries: testEntries(), total: 3}
	cache := &fakeTopCache{found: false}
	h := NewGetLeaderboardHandler(repo, cache)

	res, err := h.Handle(context.Background(), GetLeaderboardQuery{TelegramID: 100, Limit: 10})
	require.NoError(t, err)

	require.Len(t, res.Rows, 3)
	assert.Equal(t, 1, repo.topCalls)
	assert.Equal(t, "🥇", res.Rows[0].Medal)
	assert.Equal(t, "Оля", res.Rows[0].DisplayName)
	assert.True(t, res.Rows[0].IsCaller)
	assert.True(t, res.CallerInTop)
	assert.Equal(t, 1, res.CallerRank)
	assert.Equal(t, 3, res.TotalCount)

	// Miss repopulates the cache.
	assert.Len(t, cache.setEntries, 3)
	assert.Equal(t, leaderboardCacheTTL, cache.setTTL)
}

func TestGetLeaderboard_CacheHitSkipsRepository(t *testing.T) {
	repo := &fakeLearnerRepo{entries: testEntries(), total: 3}
	cache := &fakeTopCache{entries: testEntries(), found: true}
	h := NewGetLeaderboardHandler(repo, cache)

	res, err := h.Handle(context.Background(), GetLeaderboardQuery{TelegramID: 200})
	require.NoError(t, err)

	assert.Equal(t, 0, repo.topCalls)
	require.Len(t, res.Rows, 3)
	assert.Equal(t, "🥈", res.Rows[1].Medal)
	assert.True(t, res.Rows[1].IsCaller)
}

func TestGetLeaderboard_CacheErrorDegradesToRepository(t *testing.T) {
	repo := &fakeLearnerRepo{entries: testEntries(), total: 3}
	cache := &fakeTopCache{getErr: errors.New("redis down")}
	h := NewGetLeaderboardHandler(repo, cache)

	res, err := h.Handle(context.Background(), GetLeaderboardQuery{TelegramID: 100})
	require.NoError(t, err)
	assert.Equal(t, 1, repo.topCalls)
	assert.Len(t, res.Rows, 3)
}

func TestGetLeaderboard_CallerOutsideTop(t *testing.T) {
	repo := &fakeLearnerRepo{
		entries: testEntries(),
		ranks:   map[shared.TelegramID]shared.Rank{777: 42},
		total:   50,
	}
	h := NewGetLeaderboardHandler(repo, nil)

	res, err := h.Handle(context.Background(), GetLeaderboardQuery{TelegramID: 777})
	require.NoError(t, err)

	assert.False(t, res.CallerInTop)
	assert.Equal(t, 42, res.CallerRank)
	assert.Equal(t, 50, res.TotalCount)
}

func TestGetLeaderboard_UnrankedCaller(t *testing.T) {
	repo := &fakeLearnerRepo{entries: testEntries(), total: 3}
	h := NewGetLeaderboardHandler(repo, nil)

	res, err := h.Handle(context.Background(), GetLeaderboardQuery{TelegramID: 999})
	require.NoError(t, err)
	assert.Equal(t, 0, res.CallerRank)
}

func TestGetLeaderboard_Validation(t *testing.T) {
	h := NewGetLeaderboardHandler(&fakeLearnerRepo{}, nil)

	_, err := h.Handle(context.Background(), GetLeaderboardQuery{TelegramID: 0})
	assert.Error(t, err)

	// Limit is clamped, not rejected.
	repo := &fakeLearnerRepo{entries: testEntries(), total: 3}
	h = NewGetLeaderboardHandler(repo, nil)
	_, err = h.Handle(context.Background(), GetLeaderboardQuery{TelegramID: 100, Limit: 500})
	assert.NoError(t, err)
}

func TestGetLeaderboard_RepositoryError(t *testing.T) {
	repo := &fakeLearnerRepo{topErr: errors.New("connection refused")}
	h := NewGetLeaderboardHandler(repo, nil)

	_, err := h.Handle(context.Background(), GetLeaderboardQuery{TelegramID: 100})
	require.Error(t, err)
	assert.True(t, errors.Is(err, shared.ErrServiceUnavailable))
}
