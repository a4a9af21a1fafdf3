// Команда worker запускає фонові процеси бота.
//
// Worker відповідає за періодичні задачі:
//   - прогрів Redis-кешу лідерборда, щоб /top не ходив у Postgres;
//   - вечірні нагадування користувачам, чия щоденна серія під загрозою.
//
// Worker працює поруч із процесом bot і ділить з ним базу та Redis,
// але не приймає оновлень від Telegram.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/Matviy-commands/math-nmt-bot/config"
	"github.com/Matviy-commands/math-nmt-bot/internal/infrastructure/external/telegram"
	"github.com/Matviy-commands/math-nmt-bot/internal/infrastructure/persistence/postgres"
	"github.com/Matviy-commands/math-nmt-bot/internal/infrastructure/persistence/redis"
	"github.com/Matviy-commands/math-nmt-bot/internal/infrastructure/scheduler"
	"github.com/Matviy-commands/math-nmt-bot/internal/infrastructure/scheduler/jobs"
	"github.com/Matviy-commands/math-nmt-bot/pkg/timeutil"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	// ───────────────────────────────────────────────────────────────────
	// 1. Конфігурація та логер
	// ───────────────────────────────────────────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("validate config: %w", err)
	}
	if !cfg.Scheduler.Enabled {
		return fmt.Errorf("scheduler disabled, nothing to do (set SCHEDULER_ENABLED=true)")
	}

	log := setupLogger(cfg)
	slog.SetDefault(log)

	log.Info("starting math-nmt-bot worker",
		"version", cfg.App.Version,
		"environment", cfg.App.Environment,
	)

	// ───────────────────────────────────────────────────────────────────
	// 2. PostgreSQL
	// ───────────────────────────────────────────────────────────────────
	dbConn, err := postgres.NewConnectionFromURL(ctx, cfg.Database.URL)
	if err != nil {
		return fmt.Errorf("connect to postgres: %w", err)
	}
	defer dbConn.Close()

	if err := dbConn.Ping(ctx); err != nil {
		return fmt.Errorf("ping postgres: %w", err)
	}

	learnerRepo := postgres.NewLearnerRepository(dbConn)

	// ───────────────────────────────────────────────────────────────────
	// 3. Redis (потрібен лише для прогріву лідерборда)
	// ───────────────────────────────────────────────────────────────────
	var redisCache *redis.Cache
	if !cfg.Redis.Disabled {
		redisCfg := redis.DefaultConfig()
		redisCfg.Host = cfg.Redis.Host
		redisCfg.Port = cfg.Redis.Port
		redisCfg.Password = cfg.Redis.Password
		redisCfg.DB = cfg.Redis.DB

		redisCache, err = redis.NewCache(redisCfg)
		if err != nil {
			log.Warn("redis unavailable, leaderboard warm-up disabled", "error", err)
			redisCache = nil
		} else {
			defer redisCache.Close()
		}
	}

	// ───────────────────────────────────────────────────────────────────
	// 4. Планувальник
	// ───────────────────────────────────────────────────────────────────
	tz := cfg.App.Location
	if tz == nil {
		tz = timeutil.KyivTZ
	}

	schedCfg := scheduler.DefaultSchedulerConfig()
	schedCfg.Logger = log
	schedCfg.Timezone = tz
	sched := scheduler.NewScheduler(schedCfg)

	// 4a. Прогрів кешу лідерборда.
	if redisCache != nil && cfg.Features.IsEnabled(config.FeatureLeaderboardCache, nil) {
		rebuildCfg := jobs.DefaultRebuildLeaderboardConfig()
		rebuildCfg.CacheTTL = 2 * cfg.Scheduler.LeaderboardInterval
		rebuildCfg.Timeout = cfg.Scheduler.JobTimeout

		rebuildJob := jobs.NewRebuildLeaderboardJob(
			learnerRepo,
			redis.NewLeaderboardCache(redisCache),
			log,
			rebuildCfg,
		)
		if err := sched.Register(rebuildJob, scheduler.NewIntervalSchedule(cfg.Scheduler.LeaderboardInterval)); err != nil {
			return fmt.Errorf("register %s: %w", rebuildJob.Name(), err)
		}
	} else {
		log.Info("leaderboard warm-up job not registered",
			"redis_available", redisCache != nil,
		)
	}

	// 4b. Вечірнє нагадування про серію.
	if cfg.Features.IsEnabled(config.FeatureNotifyStreakReminder, nil) {
		tgClient := telegram.NewClient(telegram.DefaultClientConfig(cfg.Telegram.Token))

		reminderCfg := jobs.DefaultStreakReminderConfig()
		reminderCfg.Timeout = cfg.Scheduler.JobTimeout

		reminderJob := jobs.NewStreakReminderJob(learnerRepo, tgClient, log, reminderCfg)

		expr := fmt.Sprintf("%d %d * * *", cfg.Scheduler.ReminderMinute, cfg.Scheduler.ReminderHour)
		reminderSchedule, err := scheduler.ParseCronExpression(expr)
		if err != nil {
			return fmt.Errorf("parse reminder schedule %q: %w", expr, err)
		}
		if err := sched.Register(reminderJob, reminderSchedule); err != nil {
			return fmt.Errorf("register %s: %w", reminderJob.Name(), err)
		}
	} else {
		log.Info("streak reminder job disabled by feature flag")
	}

	// ───────────────────────────────────────────────────────────────────
	// 5. Запуск та graceful shutdown
	// ───────────────────────────────────────────────────────────────────
	if err := sched.Start(ctx); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	select {
	case sig := <-sigCh:
		log.Info("shutdown signal received", "signal", sig.String())
	case <-ctx.Done():
		log.Info("context cancelled, shutting down")
	}

	if err := sched.Stop(); err != nil {
		log.Error("scheduler shutdown error", "error", err)
	}

	log.Info("worker shutdown complete")
	return nil
}

// setupLogger налаштовує slog відповідно до конфігурації.
func setupLogger(cfg *config.Config) *slog.Logger {
	var level slog.Level
	switch cfg.Observability.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.Observability.LogFormat == "json" || cfg.App.Environment == config.EnvProduction {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	return slog.New(handler).With(
		"app", cfg.App.Name+"-worker",
		"env", string(cfg.App.Environment),
	)
}
