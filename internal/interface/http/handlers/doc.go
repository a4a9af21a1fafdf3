// Package handlers contains HTTP handler interfaces, implementations, and middleware.
//
// This package provides:
//   - Health check interfaces and implementations
//   - Webhook handling for Telegram integration
//   - Reusable middleware components
//
// # Health Checks
//
// The HealthChecker interface allows registering multiple named health checks
// that are executed in parallel:
//
//	checker := handlers.NewCompositeHealthChecker("v1.0.0")
//	checker.AddCheck("database", handlers.NewDatabaseCheck(db))
//	checker.AddCheck("cache", handlers.NewCacheCheck(cache))
//	checker.AddCheck("telegram", handlers.NewBotAPICheck(tgClient))
//
//	status := checker.Check(ctx)
//	if !status.Healthy {
//	    log.Printf("Health check failed: %s", status.Message)
//	}
//
// # Webhook Handling
//
// The WebhookHandler interface decodes Telegram webhook payloads and feeds
// them to the bot's update pipeline:
//
//	hash, _ := handlers.HashWebhookSecret(cfg.WebhookSecret)
//	webhook := handlers.NewTelegramWebhookHandler(bot.HandleUpdate, hash)
//
//	if !webhook.VerifySecret(r.Header.Get("X-Telegram-Bot-Api-Secret-Token")) {
//	    // reject
//	}
//	err := webhook.HandleTelegramUpdate(ctx, payload)
//
// # Middleware
//
// The package provides several reusable middleware components:
//
//	// API Key authentication
//	auth := handlers.NewAPIKeyAuth("X-API-Key", []string{"secret-key"})
//	protected := auth.Middleware(myHandler)
//
//	// Chain multiple middleware
//	handler := handlers.ChainHandler(
//	    myHandler,
//	    handlers.SecurityHeadersMiddleware,
//	    handlers.NoCacheMiddleware,
//	    auth.Middleware,
//	)
//
// When handling webhooks, always return 200 to Telegram to prevent retries,
// and validate the secret token before processing the payload.
package handlers
