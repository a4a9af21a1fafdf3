// Package http implements REST API and webhook endpoints for the math practice bot.
package http

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/Matviy-commands/math-nmt-bot/internal/application/query"
	"github.com/Matviy-commands/math-nmt-bot/internal/domain/shared"
	"github.com/Matviy-commands/math-nmt-bot/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// HEALTH & STATUS HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleRoot serves the root endpoint with basic API information.
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	info := map[string]interface{}{
		"name":        "Math NMT Bot API",
		"version":     "v1",
		"description": "Read-only REST API and Telegram webhook for the math practice bot",
		"endpoints": map[string]string{
			"health":      "/health",
			"leaderboard": "/api/v1/leaderboard",
			"progress":    "/api/v1/learners/{id}/progress",
			"stats":       "/api/v1/stats",
		},
	}

	writeJSON(w, http.StatusOK, info)
}

// handleHealth handles the health check endpoint.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.deps.HealthChecker != nil {
		status := s.deps.HealthChecker.Check(r.Context())
		if !status.Healthy {
			writeJSON(w, http.StatusServiceUnavailable, status)
			return
		}
		writeJSON(w, http.StatusOK, status)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "healthy",
		"uptime":  s.Uptime().String(),
		"version": "v1",
	})
}

// handleReady handles the readiness probe endpoint (for Kubernetes).
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.deps.HealthChecker != nil {
		status := s.deps.HealthChecker.Check(r.Context())
		if !status.Ready {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "not_ready",
				"reason": status.Message,
			})
			return
		}
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// handleLive handles the liveness probe endpoint (for Kubernetes).
func (s *Server) handleLive(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "alive"})
}

// ══════════════════════════════════════════════════════════════════════════════
// LEADERBOARD HANDLER
// ══════════════════════════════════════════════════════════════════════════════

// handleGetLeaderboard handles GET /api/v1/leaderboard?caller={telegram_id}&limit={n}
func (s *Server) handleGetLeaderboard(w http.ResponseWriter, r *http.Request) {
	if s.deps.GetLeaderboardHandler == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "Leaderboard handler not configured")
		return
	}

	caller := getQueryParamInt64(r, "caller", 0)
	if caller <= 0 {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "caller query parameter is required")
		return
	}

	q := query.GetLeaderboardQuery{
		TelegramID: caller,
		Limit:      getQueryParamInt(r, "limit", 10),
	}

	result, err := s.deps.GetLeaderboardHandler.Handle(r.Context(), q)
	if err != nil {
		s.logger.Error("failed to get leaderboard", logger.Err(err))
		writeJSONError(w, http.StatusInternalServerError, "internal_error", "Failed to get leaderboard")
		return
	}

	meta := &ResponseMeta{
		TotalCount: result.TotalCount,
	}

	writeJSONWithMeta(w, r, http.StatusOK, result, meta)
}

// ══════════════════════════════════════════════════════════════════════════════
// LEARNER PROGRESS HANDLER
// ══════════════════════════════════════════════════════════════════════════════

// handleGetLearnerProgress handles GET /api/v1/learners/{id}/progress
func (s *Server) handleGetLearnerProgress(w http.ResponseWriter, r *http.Request) {
	if s.deps.GetProgressHandler == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "Progress handler not configured")
		return
	}

	telegramID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || telegramID <= 0 {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "Learner ID must be a positive integer")
		return
	}

	result, err := s.deps.GetProgressHandler.Handle(r.Context(), query.GetProgressQuery{
		TelegramID: telegramID,
	})
	if err != nil {
		if errors.Is(err, shared.ErrLearnerNotFound) {
			writeJSONError(w, http.StatusNotFound, "not_found", "Learner not found")
			return
		}
		s.logger.Error("failed to get progress",
			logger.Err(err),
			logger.Int64("telegram_id", telegramID),
		)
		writeJSONError(w, http.StatusInternalServerError, "internal_error", "Failed to get progress")
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// ══════════════════════════════════════════════════════════════════════════════
// STATS HANDLER
// ══════════════════════════════════════════════════════════════════════════════

// handleGetStats handles GET /api/v1/stats
func (s *Server) handleGetStats(w http.ResponseWriter, r *http.Request) {
	stats := map[string]interface{}{
		"server": map[string]interface{}{
			"uptime":  s.Uptime().String(),
			"running": s.IsRunning(),
		},
	}

	writeJSON(w, http.StatusOK, stats)
}

// ══════════════════════════════════════════════════════════════════════════════
// WEBHOOK HANDLER
// ══════════════════════════════════════════════════════════════════════════════

// handleTelegramWebhook handles POST /webhook/telegram
func (s *Server) handleTelegramWebhook(w http.ResponseWriter, r *http.Request) {
	if s.deps.WebhookHandler == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "Webhook handler not configured")
		return
	}

	// Secret token check first, before touching the body
	token := r.Header.Get("X-Telegram-Bot-Api-Secret-Token")
	if !s.deps.WebhookHandler.VerifySecret(token) {
		s.logger.Warn("invalid webhook secret token", logger.String("ip", getClientIP(r)))
		writeJSONError(w, http.StatusUnauthorized, "unauthorized", "Invalid webhook token")
		return
	}

	// Redis-backed rate limit per source IP
	if s.deps.WebhookCounter != nil && s.config.WebhookRateLimitPerMinute > 0 {
		key := "webhook:" + getClientIP(r)
		count, err := s.deps.WebhookCounter.IncrementWindow(r.Context(), key, time.Minute)
		if err == nil && count > int64(s.config.WebhookRateLimitPerMinute) {
			w.Header().Set("Retry-After", "60")
			writeJSONError(w, http.StatusTooManyRequests, "rate_limit_exceeded", "Too many webhook requests")
			return
		}
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, s.config.MaxBodyBytes))
	if err != nil {
		s.logger.Error("failed to read webhook body", logger.Err(err))
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "Failed to read request body")
		return
	}
	defer r.Body.Close()

	if err := s.deps.WebhookHandler.HandleTelegramUpdate(r.Context(), body); err != nil {
		s.logger.Error("failed to handle telegram update", logger.Err(err))
		// Still return 200 to Telegram to avoid retries
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "received"})
}
