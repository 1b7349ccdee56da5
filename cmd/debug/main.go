package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/cruxstack/flodesk-verify-go/internal/config"
	"github.com/cruxstack/flodesk-verify-go/internal/handler"
	"github.com/cruxstack/flodesk-verify-go/internal/logging"
	"github.com/cruxstack/flodesk-verify-go/internal/verifier"
	"github.com/joho/godotenv"
)

var (
	dataPath   string
	policyPath string
	email      string
)

func init() {
	flag.StringVar(&dataPath, "data", "", "path to JSON file with an array of request bodies")
	flag.StringVar(&policyPath, "policy", "", "override path to Rego decision policy")
	flag.StringVar(&email, "email", "", "verify a single email instead of a data file")
	flag.Parse()
}

func NewDebugConfig(ctx context.Context) (*config.Config, error) {
	envpath := filepath.Join("..", "..", ".env")
	if _, err := os.Stat(envpath); err == nil {
		_ = godotenv.Load(envpath)
	}

	cfg, err := config.New(ctx)
	if err != nil {
		return nil, err
	}

	cfg.DebugMode = true
	cfg.AppLogFormat = "text"

	if policyPath != "" {
		cfg.AppDecisionPolicyPath = policyPath
	}

	if cfg.DebugDataPath == "" {
		cfg.DebugDataPath = filepath.Join("..", "..", "fixtures", "debug-data.json")
	}
	if dataPath != "" {
		cfg.DebugDataPath = dataPath
	}

	return cfg, nil
}

func loadBodies(cfg *config.Config) ([]json.RawMessage, error) {
	if email != "" {
		bs, err := json.Marshal(map[string]string{"email": email})
		if err != nil {
			return nil, err
		}
		return []json.RawMessage{bs}, nil
	}

	data, err := os.ReadFile(cfg.DebugDataPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read data file %s: %w", cfg.DebugDataPath, err)
	}

	bodies := []json.RawMessage{}
	if err := json.Unmarshal(data, &bodies); err != nil {
		return nil, fmt.Errorf("failed to parse data file: %w", err)
	}
	return bodies, nil
}

func main() {
	ctx := context.Background()

	cfg, err := NewDebugConfig(ctx)
	if err != nil {
		slog.Error("failed to load debug config", "error", err)
		os.Exit(1)
	}
	logging.Setup(cfg.AppLogLevel, cfg.AppLogFormat)

	v, err := verifier.NewFlodeskVerifier(ctx, cfg)
	if err != nil {
		slog.Error("failed to init verifier", "error", err)
		os.Exit(1)
	}
	h := handler.New(cfg, v)

	bodies, err := loadBodies(cfg)
	if err != nil {
		slog.Error("failed to load requests", "error", err)
		os.Exit(1)
	}

	for i, body := range bodies {
		resp := h.Handle(ctx, handler.Request{
			Method:    "POST",
			Body:      body,
			RequestID: fmt.Sprintf("debug-%d", i),
		})
		slog.Info("verification finished", "index", i, "status", resp.StatusCode, "body", string(resp.Body))
	}
}
