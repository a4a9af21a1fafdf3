package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/Matviy-commands/math-nmt-bot/internal/domain/learner"
	"github.com/Matviy-commands/math-nmt-bot/internal/infrastructure/external/telegram"
	"github.com/Matviy-commands/math-nmt-bot/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// STREAK REMINDER JOB
// ══════════════════════════════════════════════════════════════════════════════

// Messenger is the slice of the Telegram client the job needs.
// Satisfied by *telegram.Client.
type Messenger interface {
	SendHTML(ctx context.Context, chatID int64, html string) (*telegram.Message, error)
}

// StreakReminderJob messages learners whose daily streak is about to break.
// A streak survives only if the learner solves a task every Kyiv calendar
// day, so in the evening the job picks everyone whose last activity was
// yesterday and who has not practiced yet today.
type StreakReminderJob struct {
	reminders learner.ReminderRepository
	messenger Messenger
	logger    *slog.Logger
	config    StreakReminderConfig

	lastStats atomic.Value // *ReminderStats
}

// StreakReminderConfig contains configuration for the reminder job.
type StreakReminderConfig struct {
	// SendDelay is the pause between messages. Telegram throttles bots
	// around 30 messages per second; staying well under that avoids
	// retry storms on big evenings.
	SendDelay time.Duration

	// OnlySafeHours skips the run outside the 9:00-22:00 Kyiv window.
	OnlySafeHours bool

	// Timeout is the maximum duration for one run.
	Timeout time.Duration
}

// DefaultStreakReminderConfig returns sensible defaults.
func DefaultStreakReminderConfig() StreakReminderConfig {
	return StreakReminderConfig{
		SendDelay:     100 * time.Millisecond,
		OnlySafeHours: true,
		Timeout:       2 * time.Minute,
	}
}

// ReminderStats contains statistics from a reminder run.
type ReminderStats struct {
	StartedAt   time.Time
	CompletedAt time.Time
	Duration    time.Duration
	AtRisk      int
	Sent        int
	Failed      int
}

// NewStreakReminderJob creates a new streak reminder job.
func NewStreakReminderJob(
	reminders learner.ReminderRepository,
	messenger Messenger,
	logger *slog.Logger,
	config StreakReminderConfig,
) *StreakReminderJob {
	if logger == nil {
		logger = slog.Default()
	}

	return &StreakReminderJob{
		reminders: reminders,
		messenger: messenger,
		logger:    logger,
		config:    config,
	}
}

// Name returns the job name.
func (j *StreakReminderJob) Name() string {
	return "streak_reminder"
}

// Description returns a human-readable description.
func (j *StreakReminderJob) Description() string {
	return "Reminds learners whose daily streak breaks at midnight"
}

// Run executes the reminder job.
func (j *StreakReminderJob) Run(ctx context.Context) error {
	now := timeutil.Now()

	if j.config.OnlySafeHours && !timeutil.IsSafeNotificationTime(now) {
		j.logger.Info("streak_reminder skipped outside safe hours",
			"hour", now.Hour(),
		)
		return nil
	}

	startedAt := time.Now()
	stats := &ReminderStats{StartedAt: startedAt}

	if j.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, j.config.Timeout)
		defer cancel()
	}

	yesterday := now.AddDate(0, 0, -1)
	atRisk, err := j.reminders.StreaksAtRisk(ctx, yesterday)
	if err != nil {
		return fmt.Errorf("failed to query streaks at risk: %w", err)
	}
	stats.AtRisk = len(atRisk)

	for _, entry := range atRisk {
		if err := ctx.Err(); err != nil {
			break
		}

		text := reminderText(entry.Streak)
		if _, err := j.messenger.SendHTML(ctx, entry.TelegramID.Int64(), text); err != nil {
			// Users who blocked the bot fail here; not worth aborting the run.
			stats.Failed++
			j.logger.Debug("failed to send streak reminder",
				"telegram_id", entry.TelegramID.Int64(),
				"error", err,
			)
		} else {
			stats.Sent++
		}

		if j.config.SendDelay > 0 {
			select {
			case <-ctx.Done():
			case <-time.After(j.config.SendDelay):
			}
		}
	}

	stats.CompletedAt = time.Now()
	stats.Duration = stats.CompletedAt.Sub(startedAt)
	j.lastStats.Store(stats)

	j.logger.Info("streak_reminder job completed",
		"at_risk", stats.AtRisk,
		"sent", stats.Sent,
		"failed", stats.Failed,
		"duration", stats.Duration.String(),
	)
	return nil
}

// reminderText builds the Ukrainian reminder message for a streak length.
func reminderText(streak int) string {
	return fmt.Sprintf(
		"🔥 Твоя серія з <b>%d %s</b> під загрозою!\n"+
			"Розв'яжи хоча б одне завдання до півночі, щоб її зберегти. 💪",
		streak, dayWord(streak),
	)
}

// dayWord returns the genitive form of "день" used after "серія з".
func dayWord(n int) string {
	if n%10 == 1 && n%100 != 11 {
		return "дня"
	}
	return "днів"
}

// LastReminderStats returns statistics from the last run.
func (j *StreakReminderJob) LastReminderStats() *ReminderStats {
	stats := j.lastStats.Load()
	if stats == nil {
		return nil
	}
	return stats.(*ReminderStats)
}
