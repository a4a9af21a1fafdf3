package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Matviy-commands/math-nmt-bot/internal/domain/learner"
	"github.com/Matviy-commands/math-nmt-bot/internal/domain/shared"
	"github.com/Matviy-commands/math-nmt-bot/internal/infrastructure/external/telegram"
)

// ─────────────────────────────────────────────────────────────────────────────
// Fakes
// ─────────────────────────────────────────────────────────────────────────────

type fakeTopLister struct {
	entries []learner.LeaderboardEntry
	err     error
}

func (f *fakeTopLister) Top(_ context.Context, limit int) ([]learner.LeaderboardEntry, error) {
	if f.err != nil {
		return nil, f.err
	}
	if limit < len(f.entries) {
		return f.entries[:limit], nil
	}
	return f.entries, nil
}

type fakeLeaderboardCache struct {
	entries []learner.LeaderboardEntry
	ttl     time.Duration
	sets    int
}

func (f *fakeLeaderboardCache) GetTop(_ context.Context, _ int) ([]learner.LeaderboardEntry, bool, error) {
	return nil, false, nil
}

func (f *fakeLeaderboardCache) SetTop(_ context.Context, entries []learner.LeaderboardEntry, ttl time.Duration) error {
	f.entries = entries
	f.ttl = ttl
	f.sets++
	return nil
}

func (f *fakeLeaderboardCache) Invalidate(_ context.Context) error {
	f.entries = nil
	return nil
}

type fakeReminderRepo struct {
	atRisk []learner.StreakAtRisk
	err    error
	day    time.Time
}

func (f *fakeReminderRepo) StreaksAtRisk(_ context.Context, day time.Time) ([]learner.StreakAtRisk, error) {
	f.day = day
	return f.atRisk, f.err
}

type fakeMessenger struct {
	sent    map[int64]string
	failFor map[int64]struct{}
}

func newFakeMessenger() *fakeMessenger {
	return &fakeMessenger{
		sent:    make(map[int64]string),
		failFor: make(map[int64]struct{}),
	}
}

func (f *fakeMessenger) SendHTML(_ context.Context, chatID int64, html string) (*telegram.Message, error) {
	if _, ok := f.failFor[chatID]; ok {
		return nil, errors.New("forbidden: bot was blocked by the user")
	}
	f.sent[chatID] = html
	return &telegram.Message{}, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Rebuild leaderboard
// ─────────────────────────────────────────────────────────────────────────────

func TestRebuildLeaderboardJob_WarmsCache(t *testing.T) {
	lister := &fakeTopLister{entries: []learner.LeaderboardEntry{
		{Rank: 1, TelegramID: shared.TelegramID(100), DisplayName: "Оля", Score: 250},
		{Rank: 2, TelegramID: shared.TelegramID(200), DisplayName: "Іван", Score: 120},
	}}
	cache := &fakeLeaderboardCache{}

	job := NewRebuildLeaderboardJob(lister, cache, nil, RebuildLeaderboardConfig{
		TopSize:  50,
		CacheTTL: 10 * time.Minute,
	})

	err := job.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, cache.sets)
	assert.Len(t, cache.entries, 2)
	assert.Equal(t, 10*time.Minute, cache.ttl)

	stats := job.LastRebuildStats()
	require.NotNil(t, stats)
	assert.Equal(t, 2, stats.EntriesCached)
}

func TestRebuildLeaderboardJob_RepositoryError(t *testing.T) {
	lister := &fakeTopLister{err: errors.New("connection refused")}
	cache := &fakeLeaderboardCache{}

	job := NewRebuildLeaderboardJob(lister, cache, nil, DefaultRebuildLeaderboardConfig())

	err := job.Run(context.Background())
	require.Error(t, err)
	assert.Equal(t, 0, cache.sets)
	assert.Nil(t, job.LastRebuildStats())
}

// ─────────────────────────────────────────────────────────────────────────────
// Streak reminder
// ─────────────────────────────────────────────────────────────────────────────

func TestStreakReminderJob_SendsToEveryoneAtRisk(t *testing.T) {
	repo := &fakeReminderRepo{atRisk: []learner.StreakAtRisk{
		{TelegramID: shared.TelegramID(100), DisplayName: "Оля", Streak: 7},
		{TelegramID: shared.TelegramID(200), DisplayName: "Іван", Streak: 1},
	}}
	messenger := newFakeMessenger()

	job := NewStreakReminderJob(repo, messenger, nil, StreakReminderConfig{
		OnlySafeHours: false,
	})

	err := job.Run(context.Background())
	require.NoError(t, err)

	require.Len(t, messenger.sent, 2)
	assert.Contains(t, messenger.sent[100], "7 днів")
	assert.Contains(t, messenger.sent[200], "1 дня")

	stats := job.LastReminderStats()
	require.NotNil(t, stats)
	assert.Equal(t, 2, stats.AtRisk)
	assert.Equal(t, 2, stats.Sent)
	assert.Equal(t, 0, stats.Failed)
}

func TestStreakReminderJob_BlockedUserDoesNotAbortRun(t *testing.T) {
	repo := &fakeReminderRepo{atRisk: []learner.StreakAtRisk{
		{TelegramID: shared.TelegramID(100), Streak: 3},
		{TelegramID: shared.TelegramID(200), Streak: 5},
	}}
	messenger := newFakeMessenger()
	messenger.failFor[100] = struct{}{}

	job := NewStreakReminderJob(repo, messenger, nil, StreakReminderConfig{
		OnlySafeHours: false,
	})

	err := job.Run(context.Background())
	require.NoError(t, err)

	stats := job.LastReminderStats()
	require.NotNil(t, stats)
	assert.Equal(t, 1, stats.Sent)
	assert.Equal(t, 1, stats.Failed)
}

func TestStreakReminderJob_QueryError(t *testing.T) {
	repo := &fakeReminderRepo{err: errors.New("connection refused")}
	messenger := newFakeMessenger()

	job := NewStreakReminderJob(repo, messenger, nil, StreakReminderConfig{
		OnlySafeHours: false,
	})

	err := job.Run(context.Background())
	require.Error(t, err)
	assert.Empty(t, messenger.sent)
}

func TestDayWord(t *testing.T) {
	cases := []struct {
		n    int
		want string
	}{
		{1, "дня"},
		{2, "днів"},
		{5, "днів"},
		{11, "днів"},
		{21, "дня"},
		{100, "днів"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, dayWord(tc.n), "n=%d", tc.n)
	}
}
