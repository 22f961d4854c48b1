package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/openkaspa/market-gateway/internal/api"
	"github.com/openkaspa/market-gateway/internal/config"
	"github.com/openkaspa/market-gateway/internal/errorreporting"
	"github.com/openkaspa/market-gateway/internal/logger"
	"github.com/openkaspa/market-gateway/internal/middleware"
	"github.com/openkaspa/market-gateway/internal/server"
	"github.com/openkaspa/market-gateway/internal/tracing"
)

func main() {
	noEnvFile := godotenv.Load() != nil

	cfg := config.Load()
	logger.Init(cfg.LogLevel)
	if noEnvFile {
		logger.Info("no .env file found, using system environment")
	}

	if err := errorreporting.Init(cfg.SentryEnvironment); err != nil {
		logger.Warn("sentry init failed", "error", err)
	}
	defer errorreporting.Flush(2 * time.Second)

	shutdownTracing, err := tracing.Init("market-gateway")
	if err != nil {
		logger.Warn("tracing init failed", "error", err)
		shutdownTracing = func(context.Context) error { return nil }
	}

	srv, err := server.New()
	if err != nil {
		logger.Error("failed to assemble server", "error", err)
		os.Exit(1)
	}
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	srv.Start(ctx)

	var handler http.Handler = api.NewRouter(srv.Gateway)
	handler = middleware.Compress(handler)
	if cfg.EnableRateLimit {
		rl := middleware.NewRateLimiter(
			cfg.RateLimitGlobal, cfg.RateLimitGlobalBurst,
			cfg.RateLimitPerIP, cfg.RateLimitPerIPBurst)
		defer rl.Stop()
		handler = rl.Limit(handler)
	}
	corsCfg := middleware.DefaultCORSConfig()
	corsCfg.AllowedOrigins = cfg.CORSAllowedOrigins
	handler = middleware.CORS(corsCfg)(handler)
	handler = middleware.RecoverWithSentry(handler)
	handler = middleware.RequestID(handler)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Info("gateway listening", "port", cfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server failed", "error", err)
			errorreporting.CaptureError(err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down")

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		logger.Warn("tracing shutdown failed", "error", err)
	}
}
