package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/cruxstack/flodesk-verify-go/internal/config"
	"github.com/cruxstack/flodesk-verify-go/internal/handler"
	"github.com/cruxstack/flodesk-verify-go/internal/logging"
	"github.com/cruxstack/flodesk-verify-go/internal/verifier"
)

func main() {
	ctx := context.Background()

	cfg, err := config.New(ctx)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	logging.Setup(cfg.AppLogLevel, cfg.AppLogFormat)

	if !cfg.HasApiKey() {
		slog.Warn("FLODESK_API_KEY is not set, every request will fail with missing_api_key")
	}

	if cfg.HasRequiredSegment() {
		slog.Info("segment gating enabled", "segment_id", cfg.FlodeskRequiredSegmentId)
	} else {
		slog.Info("segment gating disabled")
	}

	v, err := verifier.NewFlodeskVerifier(ctx, cfg)
	if err != nil {
		slog.Error("failed to init verifier", "error", err)
		os.Exit(1)
	}

	h := handler.New(cfg, v)
	lambda.Start(h.HandleFunctionURL)
}
