package middleware

import "context"

// contextKey is a private type for context keys to avoid collisions.
type contextKey string

const (
	// TelegramIDContextKey is the context key for the Telegram user ID.
	TelegramIDContextKey contextKey = "telegram_id"

	// RequestIDContextKey is the context key for the request ID.
	RequestIDContextKey contextKey = "request_id"

	// StartTimeContextKey is the context key for the request start time.
	StartTimeContextKey contextKey = "start_time"
)

// ContextWithTelegramID adds a Telegram ID to the context.
func ContextWithTelegramID(ctx context.Context, telegramID int64) context.Context {
	return context.WithValue(ctx, TelegramIDContextKey, telegramID)
}

// TelegramIDFromContext extracts the Telegram ID from the context.
func TelegramIDFromContext(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(TelegramIDContextKey).(int64)
	return id, ok
}
