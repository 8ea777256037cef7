// ABOUTME: Entry point for the Mixboard backend service
// ABOUTME: Provides the HTTP API proxying AI providers and login flows

package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/canvasai/mixboard/backend/config"
	"github.com/canvasai/mixboard/backend/handlers"
	"github.com/canvasai/mixboard/backend/logger"
	"github.com/canvasai/mixboard/backend/middleware"
	"github.com/canvasai/mixboard/backend/providers"
	"github.com/canvasai/mixboard/backend/services"
)

func main() {
	logger.Init()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	slog.Info("Starting Mixboard backend", "env", cfg.Env)
	reportProviderConfig(cfg)

	store := services.NewAuthStore()
	defer store.Close()

	images := providers.NewRegistry(cfg)
	chats := providers.NewChatRegistry(cfg)
	wechat := services.NewWeChatClient(cfg.WeChatAppID, cfg.WeChatAppSecret)
	if !wechat.Configured() {
		slog.Warn("WeChat login not configured, QR flow will not complete")
	}

	h := handlers.NewHandler(cfg, images, chats, store, wechat)

	mux := http.NewServeMux()
	registerRoutes(mux, h, cfg)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: mux,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("Server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		slog.Info("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		slog.Error("Server failed", "error", err)
		os.Exit(1)
	}
}

// registerRoutes wires the route table through the middleware chain, picking
// the rate limiter by route group.
func registerRoutes(mux *http.ServeMux, h *handlers.Handler, cfg *config.Config) {
	var aiLimiter, authLimiter, defaultLimiter *middleware.RateLimiter
	if cfg.RateLimitEnabled {
		aiLimiter = middleware.NewRateLimiter(cfg.RateLimitAI, time.Minute)
		authLimiter = middleware.NewRateLimiter(cfg.RateLimitAuth, time.Minute)
		defaultLimiter = middleware.NewRateLimiter(cfg.RateLimitDefault, time.Minute)
	}

	cors := middleware.CORS(cfg.CORSOrigin)

	for _, route := range h.Routes() {
		limiter := defaultLimiter
		switch route.Group {
		case "ai":
			limiter = aiLimiter
		case "auth":
			limiter = authLimiter
		}

		mux.HandleFunc(route.Method+" "+route.Path, middleware.Chain(
			route.Handler,
			cors,
			middleware.LogRequest,
			middleware.RateLimit(limiter),
		))
	}

	// Browser preflights arrive as OPTIONS on arbitrary API paths.
	mux.HandleFunc("OPTIONS /api/", cors(func(w http.ResponseWriter, r *http.Request) {}))
	mux.HandleFunc("/api/", middleware.Chain(h.NotFound, cors, middleware.LogRequest))
}

// reportProviderConfig logs the provider stanza with masked keys.
func reportProviderConfig(cfg *config.Config) {
	configured, warnings := config.ValidateAll(cfg.Providers, cfg.Development())

	for name, pc := range cfg.Providers {
		if pc.APIKey == "" {
			continue
		}
		slog.Info("Provider configured", "provider", name, "key", config.MaskAPIKey(pc.APIKey))
	}
	for _, warning := range warnings {
		slog.Warn("Provider configuration warning", "detail", warning)
	}

	if len(configured) == 0 {
		slog.Warn("No valid AI provider configured, chat falls back to the mock")
	} else {
		slog.Info("Providers ready", "count", len(configured), "providers", configured)
	}
}
