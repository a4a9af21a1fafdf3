// Package telegram implements the Telegram bot interface for the math practice bot.
package telegram

import (
	"context"
	"log/slog"
	"strings"

	"github.com/Matviy-commands/math-nmt-bot/internal/infrastructure/external/telegram"
	"github.com/Matviy-commands/math-nmt-bot/internal/interface/telegram/handler"
	"github.com/Matviy-commands/math-nmt-bot/internal/interface/telegram/presenter"
)

// ══════════════════════════════════════════════════════════════════════════════
// ROUTER CONFIGURATION
// ══════════════════════════════════════════════════════════════════════════════

// RouterConfig contains configuration for the router.
type RouterConfig struct {
	// Logger for structured logging.
	Logger *slog.Logger

	// Debug enables debug logging for routing decisions.
	Debug bool
}

// RouterHandlers bundles the concrete handlers the router dispatches to.
type RouterHandlers struct {
	Start    *handler.StartHandler
	Quiz     *handler.QuizHandler
	Daily    *handler.DailyHandler
	Progress *handler.ProgressHandler
	Top      *handler.TopHandler
	Feedback *handler.FeedbackHandler
	Help     *handler.HelpHandler
}

// ══════════════════════════════════════════════════════════════════════════════
// CONTEXT TYPES
// These types carry context information through the routing process.
// ══════════════════════════════════════════════════════════════════════════════

// CommandContext contains context for command handling.
type CommandContext struct {
	// TelegramID is the user's Telegram ID.
	TelegramID int64

	// ChatID is the chat ID where the command was sent.
	ChatID int64

	// Args is the command arguments (text after the command).
	Args string

	// Message is the original Telegram message.
	Message *telegram.Message

	// Client is the Telegram client for sending responses.
	Client *telegram.Client
}

// TextInputContext contains context for plain text handling
// (answers, keyboard button presses, feedback bodies).
type TextInputContext struct {
	// TelegramID is the user's Telegram ID.
	TelegramID int64

	// ChatID is the chat ID.
	ChatID int64

	// Text is the input text.
	Text string

	// Message is the original message.
	Message *telegram.Message

	// Client is the Telegram client.
	Client *telegram.Client
}

// ══════════════════════════════════════════════════════════════════════════════
// ROUTER
// Routes incoming updates to appropriate handlers. There are no inline
// keyboards: every button is a reply-keyboard button, so its label arrives
// back as an ordinary text message and is routed by label.
// ══════════════════════════════════════════════════════════════════════════════

// Router routes Telegram updates to appropriate handlers.
type Router struct {
	config   RouterConfig
	logger   *slog.Logger
	handlers RouterHandlers
}

// NewRouter creates a new router.
func NewRouter(config RouterConfig, handlers RouterHandlers) *Router {
	if config.Logger == nil {
		config.Logger = slog.Default()
	}

	return &Router{
		config:   config,
		logger:   config.Logger,
		handlers: handlers,
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// COMMAND ROUTING
// ══════════════════════════════════════════════════════════════════════════════

// HandleCommand routes a slash command to its handler.
// The command comes without the leading "/".
func (r *Router) HandleCommand(ctx context.Context, command string, cmdCtx CommandContext) error {
	if r.config.Debug {
		r.logger.Debug("routing command", "command", command, "telegram_id", cmdCtx.TelegramID)
	}

	switch command {
	case "start":
		return r.handleStart(ctx, cmdCtx)
	case "practice":
		resp, err := r.handlers.Quiz.StartSelection(ctx, cmdCtx.TelegramID)
		return r.respond(ctx, cmdCtx.Client, cmdCtx.ChatID, resp, err)
	case "daily":
		resp, err := r.handlers.Daily.Handle(ctx, cmdCtx.TelegramID)
		return r.respond(ctx, cmdCtx.Client, cmdCtx.ChatID, resp, err)
	case "progress":
		resp, err := r.handlers.Progress.Handle(ctx, cmdCtx.TelegramID)
		return r.respond(ctx, cmdCtx.Client, cmdCtx.ChatID, resp, err)
	case "top":
		resp, err := r.handlers.Top.Handle(ctx, cmdCtx.TelegramID)
		return r.respond(ctx, cmdCtx.Client, cmdCtx.ChatID, resp, err)
	case "feedback":
		resp, err := r.handlers.Feedback.Begin(ctx, cmdCtx.TelegramID)
		return r.respond(ctx, cmdCtx.Client, cmdCtx.ChatID, resp, err)
	case "help":
		resp, err := r.handlers.Help.Handle(ctx)
		return r.respond(ctx, cmdCtx.Client, cmdCtx.ChatID, resp, err)
	default:
		return r.handleUnknownCommand(ctx, cmdCtx)
	}
}

func (r *Router) handleStart(ctx context.Context, cmdCtx CommandContext) error {
	req := handler.StartRequest{TelegramID: cmdCtx.TelegramID}
	if cmdCtx.Message != nil && cmdCtx.Message.From != nil {
		req.FirstName = cmdCtx.Message.From.FirstName
		req.Username = cmdCtx.Message.From.Username
	}

	resp, err := r.handlers.Start.Handle(ctx, req)
	return r.respond(ctx, cmdCtx.Client, cmdCtx.ChatID, resp, err)
}

// handleUnknownCommand handles commands that don't have a registered handler.
func (r *Router) handleUnknownCommand(ctx context.Context, cmdCtx CommandContext) error {
	text := "❓ <b>Невідома команда</b>\n\n" +
		"Доступні команди:\n" +
		"• /practice — розв'язувати завдання\n" +
		"• /daily — щоденне завдання\n" +
		"• /progress — твій прогрес\n" +
		"• /top — рейтинг\n" +
		"• /feedback — залишити відгук\n" +
		"• /help — довідка"

	_, err := cmdCtx.Client.SendHTML(ctx, cmdCtx.ChatID, text)
	return err
}

// ══════════════════════════════════════════════════════════════════════════════
// TEXT ROUTING
// Dispatch order matters: a pending feedback prompt swallows the next
// message, then menu button labels, then anything else goes to the quiz
// flow (session-step dependent).
// ══════════════════════════════════════════════════════════════════════════════

// HandleText routes a plain text message to its handler.
func (r *Router) HandleText(ctx context.Context, inputCtx TextInputContext) error {
	text := strings.TrimSpace(inputCtx.Text)
	if text == "" {
		return nil
	}

	if r.handlers.Feedback.IsPending(inputCtx.TelegramID) {
		resp, err := r.handlers.Feedback.Submit(ctx, inputCtx.TelegramID, text)
		return r.respond(ctx, inputCtx.Client, inputCtx.ChatID, resp, err)
	}

	switch text {
	case presenter.BtnPractice, presenter.BtnChangeTopic:
		resp, err := r.handlers.Quiz.StartSelection(ctx, inputCtx.TelegramID)
		return r.respond(ctx, inputCtx.Client, inputCtx.ChatID, resp, err)
	case presenter.BtnDaily:
		resp, err := r.handlers.Daily.Handle(ctx, inputCtx.TelegramID)
		return r.respond(ctx, inputCtx.Client, inputCtx.ChatID, resp, err)
	case presenter.BtnProgress:
		resp, err := r.handlers.Progress.Handle(ctx, inputCtx.TelegramID)
		return r.respond(ctx, inputCtx.Client, inputCtx.ChatID, resp, err)
	case presenter.BtnTop:
		resp, err := r.handlers.Top.Handle(ctx, inputCtx.TelegramID)
		return r.respond(ctx, inputCtx.Client, inputCtx.ChatID, resp, err)
	case presenter.BtnFeedback:
		resp, err := r.handlers.Feedback.Begin(ctx, inputCtx.TelegramID)
		return r.respond(ctx, inputCtx.Client, inputCtx.ChatID, resp, err)
	case presenter.BtnHelp:
		resp, err := r.handlers.Help.Handle(ctx)
		return r.respond(ctx, inputCtx.Client, inputCtx.ChatID, resp, err)
	case presenter.BtnMenu:
		resp, err := r.handlers.Quiz.LeaveToMenu(ctx, inputCtx.TelegramID)
		return r.respond(ctx, inputCtx.Client, inputCtx.ChatID, resp, err)
	}

	// Everything else is a selection choice or an answer; the quiz
	// handler decides based on the session step.
	resp, err := r.handlers.Quiz.HandleText(ctx, inputCtx.TelegramID, text)
	return r.respond(ctx, inputCtx.Client, inputCtx.ChatID, resp, err)
}

// ══════════════════════════════════════════════════════════════════════════════
// RESPONSE SENDING
// ══════════════════════════════════════════════════════════════════════════════

// respond sends every message of a handler response in order.
func (r *Router) respond(ctx context.Context, client *telegram.Client, chatID int64, resp *handler.Response, err error) error {
	if err != nil {
		return err
	}
	if resp == nil {
		return nil
	}

	for _, msg := range resp.Messages {
		if err := r.sendMessage(ctx, client, chatID, msg); err != nil {
			return err
		}
	}
	return nil
}

// sendMessage sends a single response message, as a photo when it
// carries a media reference.
func (r *Router) sendMessage(ctx context.Context, client *telegram.Client, chatID int64, msg handler.Message) error {
	markup := convertKeyboard(msg.Keyboard)

	if msg.MediaRef != "" {
		params := telegram.SendPhotoParams{
			ChatID:    chatID,
			Photo:     msg.MediaRef,
			Caption:   msg.Text,
			ParseMode: msg.ParseMode,
		}
		if markup != nil {
			params.ReplyMarkup = markup
		}
		_, err := client.SendPhoto(ctx, params)
		return err
	}

	params := telegram.SendMessageParams{
		ChatID:    chatID,
		Text:      msg.Text,
		ParseMode: msg.ParseMode,
	}
	if markup != nil {
		params.ReplyMarkup = markup
	}
	_, err := client.SendMessage(ctx, params)
	return err
}

// convertKeyboard converts presenter.Keyboard to telegram.ReplyKeyboardMarkup.
func convertKeyboard(kb *presenter.Keyboard) *telegram.ReplyKeyboardMarkup {
	if kb == nil || len(kb.Rows) == 0 {
		return nil
	}

	builder := telegram.NewKeyboardBuilder()
	for _, row := range kb.Rows {
		builder.Row(row...)
	}
	if kb.Placeholder != "" {
		builder.Placeholder(kb.Placeholder)
	}
	return builder.Build()
}
