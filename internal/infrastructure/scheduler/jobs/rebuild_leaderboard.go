// Package jobs contains implementations of scheduled jobs for the bot worker.
package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/Matviy-commands/math-nmt-bot/internal/domain/learner"
)

// ══════════════════════════════════════════════════════════════════════════════
// REBUILD LEADERBOARD JOB
// ══════════════════════════════════════════════════════════════════════════════

// TopLister is the slice of the learner repository the job needs.
type TopLister interface {
	Top(ctx context.Context, limit int) ([]learner.LeaderboardEntry, error)
}

// RebuildLeaderboardJob recomputes the top from the database and rewrites the
// cached copy. The task-completed handler only invalidates the cache, so
// between a score change and the next /top request the cache is cold; this
// job keeps it warm and fences the window where many users hit the database
// at once after a popular daily task.
type RebuildLeaderboardJob struct {
	learners TopLister
	cache    learner.LeaderboardCache
	logger   *slog.Logger
	config   RebuildLeaderboardConfig

	lastStats atomic.Value // *RebuildStats
}

// RebuildLeaderboardConfig contains configuration for the rebuild job.
type RebuildLeaderboardConfig struct {
	// TopSize is how many entries to cache. Must cover the largest
	// limit the leaderboard query accepts.
	TopSize int

	// CacheTTL is the TTL for the cached top.
	CacheTTL time.Duration

	// Timeout is the maximum duration for one rebuild.
	Timeout time.Duration
}

// DefaultRebuildLeaderboardConfig returns sensible defaults.
func DefaultRebuildLeaderboardConfig() RebuildLeaderboardConfig {
	return RebuildLeaderboardConfig{
		TopSize:  50,
		CacheTTL: 10 * time.Minute,
		Timeout:  time.Minute,
	}
}

// RebuildStats contains statistics from a rebuild run.
type RebuildStats struct {
	StartedAt     time.Time
	CompletedAt   time.Time
	Duration      time.Duration
	EntriesCached int
}

// NewRebuildLeaderboardJob creates a new rebuild leaderboard job.
func NewRebuildLeaderboardJob(
	learners TopLister,
	cache learner.LeaderboardCache,
	logger *slog.Logger,
	config RebuildLeaderboardConfig,
) *RebuildLeaderboardJob {
	if logger == nil {
		logger = slog.Default()
	}
	if config.TopSize <= 0 {
		config.TopSize = DefaultRebuildLeaderboardConfig().TopSize
	}

	return &RebuildLeaderboardJob{
		learners: learners,
		cache:    cache,
		logger:   logger,
		config:   config,
	}
}

// Name returns the job name.
func (j *RebuildLeaderboardJob) Name() string {
	return "rebuild_leaderboard"
}

// Description returns a human-readable description.
func (j *RebuildLeaderboardJob) Description() string {
	return "Recomputes the score top and rewrites the leaderboard cache"
}

// Run executes the rebuild job.
func (j *RebuildLeaderboardJob) Run(ctx context.Context) error {
	startedAt := time.Now()

	if j.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, j.config.Timeout)
		defer cancel()
	}

	entries, err := j.learners.Top(ctx, j.config.TopSize)
	if err != nil {
		return fmt.Errorf("failed to query top: %w", err)
	}

	if err := j.cache.SetTop(ctx, entries, j.config.CacheTTL); err != nil {
		return fmt.Errorf("failed to cache top: %w", err)
	}

	stats := &RebuildStats{
		StartedAt:     startedAt,
		CompletedAt:   time.Now(),
		EntriesCached: len(entries),
	}
	stats.Duration = stats.CompletedAt.Sub(stats.StartedAt)
	j.lastStats.Store(stats)

	j.logger.Info("rebuild_leaderboard job completed",
		"entries", stats.EntriesCached,
		"duration", stats.Duration.String(),
	)
	return nil
}

// LastRebuildStats returns statistics from the last rebuild.
func (j *RebuildLeaderboardJob) LastRebuildStats() *RebuildStats {
	stats := j.lastStats.Load()
	if stats == nil {
		return nil
	}
	return stats.(*RebuildStats)
}
