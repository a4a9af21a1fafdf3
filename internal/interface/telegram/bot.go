// Package telegram implements the Telegram bot interface for the math practice bot.
// This package is the entry point for all Telegram interactions, handling
// updates, routing them to appropriate handlers, and managing the bot lifecycle.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/Matviy-commands/math-nmt-bot/internal/application/command"
	"github.com/Matviy-commands/math-nmt-bot/internal/application/query"
	"github.com/Matviy-commands/math-nmt-bot/internal/domain/quiz"
	"github.com/Matviy-commands/math-nmt-bot/internal/domain/shared"
	"github.com/Matviy-commands/math-nmt-bot/internal/infrastructure/external/telegram"
	"github.com/Matviy-commands/math-nmt-bot/internal/interface/telegram/handler"
	"github.com/Matviy-commands/math-nmt-bot/internal/interface/telegram/middleware"
	"github.com/Matviy-commands/math-nmt-bot/internal/interface/telegram/presenter"
)

// ══════════════════════════════════════════════════════════════════════════════
// BOT CONFIGURATION
// ══════════════════════════════════════════════════════════════════════════════

// BotConfig contains configuration for the Telegram bot.
type BotConfig struct {
	// Token is the Telegram Bot API token.
	Token string

	// Mode is the update receiving mode: "polling" or "webhook".
	Mode string

	// WebhookURL is the URL for webhook mode (required if Mode is "webhook").
	WebhookURL string

	// WebhookSecret is the secret token Telegram echoes back on webhook calls.
	WebhookSecret string

	// PollingTimeout is the timeout for long polling (in seconds).
	PollingTimeout int

	// Debug enables debug logging.
	Debug bool

	// Logger for structured logging.
	Logger *slog.Logger

	// AllowedUpdates specifies which update types to receive.
	AllowedUpdates []string

	// MaxConcurrentUpdates limits concurrent update processing.
	MaxConcurrentUpdates int

	// GracefulShutdownTimeout is the timeout for graceful shutdown.
	GracefulShutdownTimeout time.Duration
}

// DefaultBotConfig returns sensible defaults.
func DefaultBotConfig(token string) BotConfig {
	return BotConfig{
		Token:                   token,
		Mode:                    "polling",
		PollingTimeout:          30,
		Debug:                   false,
		Logger:                  slog.Default(),
		AllowedUpdates:          []string{"message"},
		MaxConcurrentUpdates:    100,
		GracefulShutdownTimeout: 30 * time.Second,
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// BOT DEPENDENCIES
// Aggregates all dependencies needed by handlers.
// ══════════════════════════════════════════════════════════════════════════════

// BotDependencies contains all dependencies for the bot handlers.
type BotDependencies struct {
	// Session storage
	Sessions quiz.SessionStore

	// Commands
	RegisterLearnerCmd  *command.RegisterLearnerHandler
	StartSelectionCmd   *command.StartSelectionHandler
	AdvanceSelectionCmd *command.AdvanceSelectionHandler
	SubmitAnswerCmd     *command.SubmitAnswerHandler
	StartDailyCmd       *command.StartDailyHandler
	LeaveFeedbackCmd    *command.LeaveFeedbackHandler

	// Queries
	CurrentItemQuery *query.GetCurrentItemHandler
	ProgressQuery    *query.GetProgressHandler
	LeaderboardQuery *query.GetLeaderboardHandler

	// Events is the publisher handlers emit domain events to. May be nil.
	Events shared.EventPublisher
}

// ══════════════════════════════════════════════════════════════════════════════
// BOT
// Main bot structure that orchestrates Telegram interactions.
// ══════════════════════════════════════════════════════════════════════════════

// Bot is the main Telegram bot controller.
type Bot struct {
	config BotConfig
	client *telegram.Client
	router *Router
	logger *slog.Logger

	// Middleware chain
	rateLimiter        *middleware.RateLimiter
	recoveryMiddleware *middleware.RecoveryMiddleware

	// Lifecycle management
	running   bool
	runningMu sync.RWMutex
	stopCh    chan struct{}
	updateSem chan struct{} // Semaphore for concurrent update limiting
	wg        sync.WaitGroup

	// Statistics
	stats *BotStats
}

// BotStats holds runtime statistics.
type BotStats struct {
	mu              sync.RWMutex
	StartedAt       time.Time
	UpdatesReceived int64
	UpdatesHandled  int64
	ErrorsCount     int64
	CommandsCount   map[string]int64
}

// NewBot creates a new Telegram bot with all dependencies.
func NewBot(config BotConfig, deps BotDependencies) (*Bot, error) {
	if config.Token == "" {
		return nil, errors.New("telegram token is required")
	}

	if config.Logger == nil {
		config.Logger = slog.Default()
	}

	clientConfig := telegram.DefaultClientConfig(config.Token)
	clientConfig.Logger = config.Logger
	clientConfig.Debug = config.Debug
	client := telegram.NewClient(clientConfig)

	// Presenters
	keyboards := presenter.NewKeyboardBuilder()
	taskCards := presenter.NewTaskCardPresenter()
	progressCards := presenter.NewProgressCardPresenter()
	leaderboardCards := presenter.NewLeaderboardPresenter()

	// Handlers
	handlers := RouterHandlers{
		Start: handler.NewStartHandler(
			deps.RegisterLearnerCmd,
			keyboards,
			deps.Events,
		),
		Quiz: handler.NewQuizHandler(
			deps.Sessions,
			deps.StartSelectionCmd,
			deps.AdvanceSelectionCmd,
			deps.SubmitAnswerCmd,
			deps.CurrentItemQuery,
			keyboards,
			taskCards,
			deps.Events,
		),
		Daily: handler.NewDailyHandler(
			deps.StartDailyCmd,
			keyboards,
			taskCards,
		),
		Progress: handler.NewProgressHandler(
			deps.ProgressQuery,
			progressCards,
			keyboards,
		),
		Top: handler.NewTopHandler(
			deps.LeaderboardQuery,
			leaderboardCards,
			keyboards,
		),
		Feedback: handler.NewFeedbackHandler(
			deps.LeaveFeedbackCmd,
			keyboards,
			deps.Events,
		),
		Help: handler.NewHelpHandler(keyboards),
	}

	// Middleware
	rateLimiter := middleware.NewRateLimiter(
		middleware.DefaultRateLimitConfig(),
	)

	recoveryConfig := middleware.DefaultRecoveryConfig()
	recoveryConfig.Logger = config.Logger
	recoveryMiddleware := middleware.NewRecoveryMiddleware(recoveryConfig)

	router := NewRouter(RouterConfig{
		Logger: config.Logger,
		Debug:  config.Debug,
	}, handlers)

	bot := &Bot{
		config:             config,
		client:             client,
		router:             router,
		logger:             config.Logger,
		rateLimiter:        rateLimiter,
		recoveryMiddleware: recoveryMiddleware,
		stopCh:             make(chan struct{}),
		updateSem:          make(chan struct{}, config.MaxConcurrentUpdates),
		stats: &BotStats{
			CommandsCount: make(map[string]int64),
		},
	}

	return bot, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// LIFECYCLE MANAGEMENT
// ══════════════════════════════════════════════════════════════════════════════

// Start starts the bot and begins receiving updates.
func (b *Bot) Start(ctx context.Context) error {
	b.runningMu.Lock()
	if b.running {
		b.runningMu.Unlock()
		return errors.New("bot is already running")
	}
	b.running = true
	b.stats.StartedAt = time.Now()
	b.runningMu.Unlock()

	b.logger.Info("starting telegram bot",
		"mode", b.config.Mode,
		"debug", b.config.Debug,
	)

	if err := b.verifyToken(ctx); err != nil {
		return fmt.Errorf("failed to verify bot token: %w", err)
	}

	switch b.config.Mode {
	case "polling":
		return b.startPolling(ctx)
	case "webhook":
		return b.startWebhook(ctx)
	default:
		return fmt.Errorf("unknown bot mode: %s", b.config.Mode)
	}
}

// Stop gracefully stops the bot.
func (b *Bot) Stop(ctx context.Context) error {
	b.runningMu.Lock()
	if !b.running {
		b.runningMu.Unlock()
		return nil
	}
	b.running = false
	b.runningMu.Unlock()

	b.logger.Info("stopping telegram bot")

	close(b.stopCh)

	done := make(chan struct{})
	go func() {
		b.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		b.logger.Info("all handlers completed gracefully")
	case <-time.After(b.config.GracefulShutdownTimeout):
		b.logger.Warn("graceful shutdown timeout exceeded")
	case <-ctx.Done():
		b.logger.Warn("context cancelled during shutdown")
		return ctx.Err()
	}

	return nil
}

// IsRunning returns whether the bot is currently running.
func (b *Bot) IsRunning() bool {
	b.runningMu.RLock()
	defer b.runningMu.RUnlock()
	return b.running
}

// verifyToken verifies the bot token by calling getMe.
func (b *Bot) verifyToken(ctx context.Context) error {
	me, err := b.client.GetMe(ctx)
	if err != nil {
		return err
	}

	b.logger.Info("bot verified",
		"id", me.ID,
		"username", me.Username,
		"first_name", me.FirstName,
	)

	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// POLLING MODE
// ══════════════════════════════════════════════════════════════════════════════

// startPolling starts long polling for updates.
func (b *Bot) startPolling(ctx context.Context) error {
	b.logger.Info("starting long polling")

	return b.client.StartPolling(ctx, func(ctx context.Context, update *telegram.Update) error {
		return b.HandleUpdate(ctx, update)
	})
}

// ══════════════════════════════════════════════════════════════════════════════
// WEBHOOK MODE
// ══════════════════════════════════════════════════════════════════════════════

// startWebhook registers the webhook with Telegram. The HTTP server that
// receives the updates and feeds them to HandleUpdate lives in the http
// interface package.
func (b *Bot) startWebhook(ctx context.Context) error {
	if b.config.WebhookURL == "" {
		return errors.New("webhook URL is required for webhook mode")
	}

	b.logger.Info("registering webhook", "url", b.config.WebhookURL)

	err := b.client.SetWebhook(ctx, b.config.WebhookURL, b.config.WebhookSecret, b.config.AllowedUpdates)
	if err != nil {
		return fmt.Errorf("failed to set webhook: %w", err)
	}

	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// UPDATE HANDLING
// ══════════════════════════════════════════════════════════════════════════════

// HandleUpdate processes a single Telegram update. It is the entry point
// for both polling and webhook delivery.
func (b *Bot) HandleUpdate(ctx context.Context, update *telegram.Update) error {
	// Acquire semaphore slot
	select {
	case b.updateSem <- struct{}{}:
		defer func() { <-b.updateSem }()
	case <-ctx.Done():
		return ctx.Err()
	}

	b.wg.Add(1)
	defer b.wg.Done()

	b.stats.mu.Lock()
	b.stats.UpdatesReceived++
	b.stats.mu.Unlock()

	startTime := time.Now()

	ctx = middleware.ContextWithTelegramID(ctx, extractTelegramID(update))
	ctx = context.WithValue(ctx, middleware.StartTimeContextKey, startTime)

	var err error
	switch {
	case update.Message != nil:
		err = b.handleMessage(ctx, update.Message)
	default:
		// Edited messages and everything else are ignored
		return nil
	}

	duration := time.Since(startTime)

	if err != nil {
		b.stats.mu.Lock()
		b.stats.ErrorsCount++
		b.stats.mu.Unlock()
		b.logger.Error("failed to handle update",
			"update_id", update.UpdateID,
			"error", err,
			"duration", duration,
		)
	} else {
		b.stats.mu.Lock()
		b.stats.UpdatesHandled++
		b.stats.mu.Unlock()
	}

	return err
}

// handleMessage processes a Telegram message.
func (b *Bot) handleMessage(ctx context.Context, msg *telegram.Message) error {
	if msg == nil || msg.From == nil {
		return nil
	}
	if !telegram.IsPrivateChat(msg) {
		// The bot works in private chats only
		return nil
	}

	telegramID := msg.From.ID
	chatID := msg.Chat.ID

	if b.config.Debug {
		b.logger.Debug("incoming message",
			"telegram_id", telegramID,
			"chat_id", chatID,
			"text", msg.Text,
		)
	}

	command := telegram.ExtractCommand(msg)
	if command != "" {
		return b.handleCommand(ctx, telegramID, chatID, command, telegram.ExtractCommandArgs(msg), msg)
	}

	if msg.Text != "" {
		return b.handleTextMessage(ctx, telegramID, chatID, msg)
	}

	return nil
}

// handleCommand processes a bot command.
func (b *Bot) handleCommand(
	ctx context.Context,
	telegramID, chatID int64,
	command, args string,
	msg *telegram.Message,
) error {
	b.stats.mu.Lock()
	b.stats.CommandsCount[command]++
	b.stats.mu.Unlock()

	rateLimitResult := b.rateLimiter.Check(ctx, telegramID)
	if !rateLimitResult.Allowed {
		_, err := b.client.SendHTML(ctx, chatID, rateLimitResult.ResponseMessage)
		return err
	}

	recoveryResult := b.recoveryMiddleware.RecoverWithHandler(ctx, telegramID, command, func() error {
		return b.router.HandleCommand(ctx, command, CommandContext{
			TelegramID: telegramID,
			ChatID:     chatID,
			Args:       args,
			Message:    msg,
			Client:     b.client,
		})
	})

	if recoveryResult.Recovered {
		_, err := b.client.SendHTML(ctx, chatID, recoveryResult.UserMessage)
		return err
	}

	return nil
}

// handleTextMessage processes a non-command text message: a keyboard
// button press, a selection choice, an answer or a feedback body.
func (b *Bot) handleTextMessage(ctx context.Context, telegramID, chatID int64, msg *telegram.Message) error {
	rateLimitResult := b.rateLimiter.Check(ctx, telegramID)
	if !rateLimitResult.Allowed {
		_, err := b.client.SendHTML(ctx, chatID, rateLimitResult.ResponseMessage)
		return err
	}

	recoveryResult := b.recoveryMiddleware.RecoverWithHandler(ctx, telegramID, "text", func() error {
		return b.router.HandleText(ctx, TextInputContext{
			TelegramID: telegramID,
			ChatID:     chatID,
			Text:       msg.Text,
			Message:    msg,
			Client:     b.client,
		})
	})

	if recoveryResult.Recovered {
		_, err := b.client.SendHTML(ctx, chatID, recoveryResult.UserMessage)
		return err
	}

	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// HELPER METHODS
// ══════════════════════════════════════════════════════════════════════════════

// extractTelegramID extracts the Telegram user ID from an update.
func extractTelegramID(update *telegram.Update) int64 {
	if update.Message != nil && update.Message.From != nil {
		return update.Message.From.ID
	}
	return 0
}

// ══════════════════════════════════════════════════════════════════════════════
// STATISTICS
// ══════════════════════════════════════════════════════════════════════════════

// GetStats returns current bot statistics.
func (b *Bot) GetStats() map[string]interface{} {
	b.stats.mu.RLock()
	defer b.stats.mu.RUnlock()

	uptime := time.Since(b.stats.StartedAt)

	commandsCopy := make(map[string]int64)
	for k, v := range b.stats.CommandsCount {
		commandsCopy[k] = v
	}

	return map[string]interface{}{
		"started_at":       b.stats.StartedAt,
		"uptime":           uptime.String(),
		"updates_received": b.stats.UpdatesReceived,
		"updates_handled":  b.stats.UpdatesHandled,
		"errors_count":     b.stats.ErrorsCount,
		"commands_count":   commandsCopy,
		"running":          b.IsRunning(),
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// CLIENT ACCESS
// ══════════════════════════════════════════════════════════════════════════════

// Client returns the Telegram client for direct API access.
// Use sparingly - prefer going through handlers.
func (b *Bot) Client() *telegram.Client {
	return b.client
}

// Router returns the router for direct dispatch.
func (b *Bot) Router() *Router {
	return b.router
}
