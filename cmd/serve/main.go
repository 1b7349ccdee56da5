package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/cruxstack/flodesk-verify-go/internal/config"
	"github.com/cruxstack/flodesk-verify-go/internal/handler"
	"github.com/cruxstack/flodesk-verify-go/internal/logging"
	"github.com/cruxstack/flodesk-verify-go/internal/server"
	"github.com/cruxstack/flodesk-verify-go/internal/verifier"
	"github.com/joho/godotenv"
)

func main() {
	if _, err := os.Stat(".env"); err == nil {
		_ = godotenv.Load(".env")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.New(ctx)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if os.Getenv("APP_LOG_FORMAT") == "" {
		cfg.AppLogFormat = "text"
	}
	logging.Setup(cfg.AppLogLevel, cfg.AppLogFormat)

	slog.Info("starting verifier",
		"api_host", cfg.FlodeskApiHost,
		"api_key_set", cfg.HasApiKey(),
		"segment_gating", cfg.HasRequiredSegment(),
	)

	v, err := verifier.NewFlodeskVerifier(ctx, cfg)
	if err != nil {
		slog.Error("failed to init verifier", "error", err)
		os.Exit(1)
	}

	router := server.NewRouter(handler.New(cfg, v))
	if err := server.Run(ctx, cfg.AppListenAddr, router); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}
