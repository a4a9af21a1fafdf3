// Команда bot запускає Telegram-бота для підготовки до НМТ з математики.
//
// Бот приймає оновлення через long polling або webhook, проводить квіз-сесії,
// нараховує бали і серії та відповідає на команди /start, /progress, /top.
// Поруч із ботом (опційно) піднімається HTTP-сервер з health-чеками,
// read-only API та приймачем webhook-оновлень.
//
// Уся конфігурація читається зі змінних середовища, див. пакет config.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/Matviy-commands/math-nmt-bot/config"
	"github.com/Matviy-commands/math-nmt-bot/internal/application/command"
	"github.com/Matviy-commands/math-nmt-bot/internal/application/eventhandler"
	"github.com/Matviy-commands/math-nmt-bot/internal/application/query"
	"github.com/Matviy-commands/math-nmt-bot/internal/domain/learner"
	"github.com/Matviy-commands/math-nmt-bot/internal/domain/quiz"
	"github.com/Matviy-commands/math-nmt-bot/internal/infrastructure/messaging"
	"github.com/Matviy-commands/math-nmt-bot/internal/infrastructure/persistence/memory"
	"github.com/Matviy-commands/math-nmt-bot/internal/infrastructure/persistence/postgres"
	"github.com/Matviy-commands/math-nmt-bot/internal/infrastructure/persistence/redis"
	httpserver "github.com/Matviy-commands/math-nmt-bot/internal/interface/http"
	"github.com/Matviy-commands/math-nmt-bot/internal/interface/http/handlers"
	"github.com/Matviy-commands/math-nmt-bot/internal/interface/telegram"
	"github.com/Matviy-commands/math-nmt-bot/pkg/logger"
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
	// 1. Конфігурація
	// ───────────────────────────────────────────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("validate config: %w", err)
	}

	// ───────────────────────────────────────────────────────────────────
	// 2. Логер
	// ───────────────────────────────────────────────────────────────────
	log := setupLogger(cfg)
	slog.SetDefault(log)

	log.Info("starting math-nmt-bot",
		"version", cfg.App.Version,
		"environment", cfg.App.Environment,
		"webhook_mode", cfg.Telegram.UseWebhook,
	)

	// ───────────────────────────────────────────────────────────────────
	// 3. PostgreSQL + міграції
	// ───────────────────────────────────────────────────────────────────
	dbConn, err := postgres.NewConnectionFromURL(ctx, cfg.Database.URL)
	if err != nil {
		return fmt.Errorf("connect to postgres: %w", err)
	}
	defer dbConn.Close()

	if err := dbConn.Ping(ctx); err != nil {
		return fmt.Errorf("ping postgres: %w", err)
	}

	migrator := postgres.NewMigrator(dbConn)
	if err := migrator.Migrate(ctx); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	applied, err := migrator.GetAppliedMigrations(ctx)
	if err != nil {
		return fmt.Errorf("read migration status: %w", err)
	}
	log.Info("database ready", "migrations_applied", len(applied))

	// ───────────────────────────────────────────────────────────────────
	// 4. Redis (опційно)
	// ───────────────────────────────────────────────────────────────────
	var redisCache *redis.Cache
	if !cfg.Redis.Disabled {
		redisCfg := redis.DefaultConfig()
		redisCfg.Host = cfg.Redis.Host
		redisCfg.Port = cfg.Redis.Port
		redisCfg.Password = cfg.Redis.Password
		redisCfg.DB = cfg.Redis.DB
		if cfg.Redis.PoolSize > 0 {
			redisCfg.PoolSize = cfg.Redis.PoolSize
		}

		redisCache, err = redis.NewCache(redisCfg)
		if err != nil {
			// Бот здатен працювати без Redis, лише повільніше.
			log.Warn("redis unavailable, falling back to in-memory sessions", "error", err)
			redisCache = nil
		} else {
			defer redisCache.Close()
			log.Info("redis connected", "host", cfg.Redis.Host, "port", cfg.Redis.Port)
		}
	} else {
		log.Info("redis disabled by config")
	}

	// ───────────────────────────────────────────────────────────────────
	// 5. Репозиторії та сховище сесій
	// ───────────────────────────────────────────────────────────────────
	learnerRepo := postgres.NewLearnerRepository(dbConn)
	taskRepo := postgres.NewTaskRepository(dbConn)
	uow := postgres.NewUnitOfWork(dbConn)

	var sessions quiz.SessionStore
	var leaderboardCache learner.LeaderboardCache
	if redisCache != nil {
		sessions = redis.NewSessionStore(redisCache)
		if cfg.Features.IsEnabled(config.FeatureLeaderboardCache, nil) {
			leaderboardCache = redis.NewLeaderboardCache(redisCache)
		}
	} else {
		sessions = memory.NewSessionStore()
	}

	// ───────────────────────────────────────────────────────────────────
	// 6. Шина подій
	// ───────────────────────────────────────────────────────────────────
	busCfg := messaging.DefaultInMemoryEventBusConfig()
	busCfg.Logger = log
	busCfg.AsyncMode = true
	eventBus := messaging.NewInMemoryEventBus(busCfg)
	defer eventBus.Close()

	if leaderboardCache != nil {
		onCompleted := eventhandler.NewOnTaskCompletedHandler(leaderboardCache, log)
		if err := onCompleted.Register(eventBus); err != nil {
			return fmt.Errorf("register event handlers: %w", err)
		}
	}

	// ───────────────────────────────────────────────────────────────────
	// 7. Політика нарахування балів
	// ───────────────────────────────────────────────────────────────────
	var policy quiz.ScoringPolicy
	if cfg.Features.ScoringV2Enabled() {
		policy = quiz.NewStandardPolicy()
	} else {
		policy = quiz.NewLegacyPolicy()
	}
	log.Info("scoring policy selected", "policy", policy.Name())

	badges := learner.NewEvaluator()

	// ───────────────────────────────────────────────────────────────────
	// 8. Обробники команд і запитів (CQRS)
	// ───────────────────────────────────────────────────────────────────
	registerCmd := command.NewRegisterLearnerHandler(learnerRepo)
	startSelectionCmd := command.NewStartSelectionHandler(sessions, taskRepo)
	advanceSelectionCmd := command.NewAdvanceSelectionHandler(sessions, taskRepo)
	submitAnswerCmd := command.NewSubmitAnswerHandler(sessions, taskRepo, uow, policy, badges)
	startDailyCmd := command.NewStartDailyHandler(sessions, taskRepo, learnerRepo)
	leaveFeedbackCmd := command.NewLeaveFeedbackHandler(learnerRepo, uow, badges)

	currentItemQuery := query.NewGetCurrentItemHandler(sessions, taskRepo, learnerRepo)
	progressQuery := query.NewGetProgressHandler(learnerRepo, learnerRepo, taskRepo)
	leaderboardQuery := query.NewGetLeaderboardHandler(learnerRepo, leaderboardCache)

	// ───────────────────────────────────────────────────────────────────
	// 9. Telegram-бот
	// ───────────────────────────────────────────────────────────────────
	botCfg := telegram.DefaultBotConfig(cfg.Telegram.Token)
	botCfg.Debug = cfg.App.Debug
	botCfg.Logger = log
	botCfg.PollingTimeout = int(cfg.Telegram.PollingTimeout.Seconds())
	if cfg.Telegram.UseWebhook {
		botCfg.Mode = "webhook"
		botCfg.WebhookURL = cfg.Telegram.WebhookURL
		botCfg.WebhookSecret = cfg.Telegram.WebhookSecret
	}

	bot, err := telegram.NewBot(botCfg, telegram.BotDependencies{
		Sessions:            sessions,
		RegisterLearnerCmd:  registerCmd,
		StartSelectionCmd:   startSelectionCmd,
		AdvanceSelectionCmd: advanceSelectionCmd,
		SubmitAnswerCmd:     submitAnswerCmd,
		StartDailyCmd:       startDailyCmd,
		LeaveFeedbackCmd:    leaveFeedbackCmd,
		CurrentItemQuery:    currentItemQuery,
		ProgressQuery:       progressQuery,
		LeaderboardQuery:    leaderboardQuery,
		Events:              eventBus,
	})
	if err != nil {
		return fmt.Errorf("create bot: %w", err)
	}

	// ───────────────────────────────────────────────────────────────────
	// 10. HTTP-сервер (health, read API, webhook)
	// ───────────────────────────────────────────────────────────────────
	var httpServer *httpserver.Server
	if cfg.HTTP.Enabled {
		httpServer, err = buildHTTPServer(cfg, bot, dbConn, redisCache, leaderboardQuery, progressQuery)
		if err != nil {
			return fmt.Errorf("build http server: %w", err)
		}
	} else if cfg.Telegram.UseWebhook {
		return fmt.Errorf("webhook mode requires the http server, set HTTP_ENABLED=true")
	}

	// ───────────────────────────────────────────────────────────────────
	// 11. Запуск
	// ───────────────────────────────────────────────────────────────────
	errCh := make(chan error, 2)

	if httpServer != nil {
		go func() {
			log.Info("http server starting", "address", fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port))
			if err := httpServer.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- fmt.Errorf("http server: %w", err)
			}
		}()
	}

	go func() {
		if err := bot.Start(ctx); err != nil {
			errCh <- fmt.Errorf("bot: %w", err)
		}
	}()

	// ───────────────────────────────────────────────────────────────────
	// 12. Очікування сигналу та graceful shutdown
	// ───────────────────────────────────────────────────────────────────
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	select {
	case sig := <-sigCh:
		log.Info("shutdown signal received", "signal", sig.String())
	case err := <-errCh:
		log.Error("component failed, shutting down", "error", err)
	case <-ctx.Done():
		log.Info("context cancelled, shutting down")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer shutdownCancel()

	if err := bot.Stop(shutdownCtx); err != nil {
		log.Error("bot shutdown error", "error", err)
	}
	if httpServer != nil {
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.Error("http server shutdown error", "error", err)
		}
	}

	log.Info("shutdown complete")
	return nil
}

// buildHTTPServer збирає HTTP-сервер з health-чеками, read API
// та (у webhook-режимі) приймачем оновлень Telegram.
func buildHTTPServer(
	cfg *config.Config,
	bot *telegram.Bot,
	dbConn *postgres.Connection,
	redisCache *redis.Cache,
	leaderboardQuery *query.GetLeaderboardHandler,
	progressQuery *query.GetProgressHandler,
) (*httpserver.Server, error) {
	health := handlers.NewCompositeHealthChecker(cfg.App.Version)
	health.AddCheck("database", handlers.NewDatabaseCheck(dbConn))
	if redisCache != nil {
		health.AddCheck("cache", handlers.NewCacheCheck(redisCache))
	}
	health.AddCheck("telegram_api", handlers.NewBotAPICheck(bot.Client()))

	var webhookHandler handlers.WebhookHandler = handlers.NewNoopWebhookHandler()
	if cfg.Telegram.UseWebhook {
		secretHash, err := handlers.HashWebhookSecret(cfg.Telegram.WebhookSecret)
		if err != nil {
			return nil, fmt.Errorf("hash webhook secret: %w", err)
		}
		webhookHandler = handlers.NewTelegramWebhookHandler(bot.HandleUpdate, secretHash)
	}

	serverCfg := httpserver.DefaultConfig()
	serverCfg.Host = cfg.HTTP.Host
	serverCfg.Port = cfg.HTTP.Port
	serverCfg.ReadTimeout = cfg.HTTP.ReadTimeout
	serverCfg.WriteTimeout = cfg.HTTP.WriteTimeout
	serverCfg.IdleTimeout = cfg.HTTP.IdleTimeout
	serverCfg.EnableCORS = cfg.HTTP.EnableCORS
	serverCfg.AllowedOrigins = cfg.HTTP.AllowedOrigins
	serverCfg.RateLimitPerMinute = cfg.HTTP.RateLimitPerMinute
	serverCfg.WebhookRateLimitPerMinute = cfg.HTTP.WebhookRateLimitPerMinute
	serverCfg.APIKeys = cfg.HTTP.APIKeys

	deps := httpserver.Dependencies{
		GetLeaderboardHandler: leaderboardQuery,
		GetProgressHandler:    progressQuery,
		Logger:                logger.Default(),
		HealthChecker:         health,
		WebhookHandler:        webhookHandler,
	}
	if redisCache != nil {
		deps.WebhookCounter = redisCache
	}

	return httpserver.NewServer(serverCfg, deps), nil
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
		"app", cfg.App.Name,
		"env", string(cfg.App.Environment),
	)
}
