// Package handlers contains HTTP handler interfaces and implementations.
package handlers

import (
	"context"
	"encoding/json"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/Matviy-commands/math-nmt-bot/internal/infrastructure/external/telegram"
)

// ══════════════════════════════════════════════════════════════════════════════
// TELEGRAM WEBHOOK HANDLER
// Decodes webhook payloads and feeds them to the bot's update pipeline.
// The secret token Telegram echoes back in the
// X-Telegram-Bot-Api-Secret-Token header is verified against a bcrypt
// hash, so the plain secret never sits in the server config.
// ══════════════════════════════════════════════════════════════════════════════

// WebhookHandler defines the interface for handling Telegram webhooks.
type WebhookHandler interface {
	// HandleTelegramUpdate processes a Telegram webhook update payload.
	HandleTelegramUpdate(ctx context.Context, payload []byte) error

	// VerifySecret reports whether the given secret token is valid.
	VerifySecret(token string) bool
}

// UpdateSink receives decoded updates. The bot's HandleUpdate satisfies it.
type UpdateSink func(ctx context.Context, update *telegram.Update) error

// TelegramWebhookHandler implements WebhookHandler for Telegram.
type TelegramWebhookHandler struct {
	sink       UpdateSink
	secretHash []byte
}

// NewTelegramWebhookHandler creates a webhook handler that verifies the
// secret token against secretHash and forwards decoded updates to sink.
// An empty secretHash disables verification.
func NewTelegramWebhookHandler(sink UpdateSink, secretHash []byte) *TelegramWebhookHandler {
	return &TelegramWebhookHandler{
		sink:       sink,
		secretHash: secretHash,
	}
}

// HashWebhookSecret produces the bcrypt hash of a webhook secret token.
// Call it once at startup and hand the result to NewTelegramWebhookHandler.
func HashWebhookSecret(secret string) ([]byte, error) {
	return bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
}

// VerifySecret reports whether the given secret token matches the hash.
func (h *TelegramWebhookHandler) VerifySecret(token string) bool {
	if len(h.secretHash) == 0 {
		return true
	}
	return bcrypt.CompareHashAndPassword(h.secretHash, []byte(token)) == nil
}

// HandleTelegramUpdate processes a Telegram webhook update payload.
func (h *TelegramWebhookHandler) HandleTelegramUpdate(ctx context.Context, payload []byte) error {
	var update telegram.Update
	if err := json.Unmarshal(payload, &update); err != nil {
		return fmt.Errorf("failed to parse update: %w", err)
	}

	if h.sink == nil {
		return nil
	}
	return h.sink(ctx, &update)
}

// ══════════════════════════════════════════════════════════════════════════════
// NOOP IMPLEMENTATION (for testing/default)
// ══════════════════════════════════════════════════════════════════════════════

// NoopWebhookHandler discards all webhooks.
type NoopWebhookHandler struct{}

// NewNoopWebhookHandler creates a new noop webhook handler.
func NewNoopWebhookHandler() *NoopWebhookHandler {
	return &NoopWebhookHandler{}
}

// HandleTelegramUpdate is a no-op.
func (n *NoopWebhookHandler) HandleTelegramUpdate(ctx context.Context, payload []byte) error {
	return nil
}

// VerifySecret always accepts.
func (n *NoopWebhookHandler) VerifySecret(token string) bool {
	return true
}
