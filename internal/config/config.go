package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/cruxstack/flodesk-verify-go/internal/aws"
)

const (
	// AllowedOrigin is the only caller origin permitted by CORS. It is fixed
	// rather than configurable.
	AllowedOrigin  = "https://www.genetargeting.com"
	AllowedMethods = "POST, OPTIONS"
	AllowedHeaders = "Content-Type"

	FlodeskUserAgent      = "GT-Webhook/1.0"
	DefaultFlodeskApiHost = "https://api.flodesk.com"
)

type Config struct {
	AppLogLevel           slog.Level
	AppLogFormat          string
	AppListenAddr         string
	AppDecisionPolicyPath string
	AppKmsKeyId           string
	DebugMode             bool
	DebugDataPath         string

	FlodeskApiHost           string
	FlodeskApiKey            string
	FlodeskApiKeyEncrypted   string
	FlodeskRequiredSegmentId string
	FlodeskRequestTimeout    time.Duration

	UserAgent string
}

// New reads the process environment once. A missing Flodesk API key is not an
// error here; it is reported per request instead.
func New(ctx context.Context) (*Config, error) {
	cfg := Config{
		AppLogLevel:           slog.LevelInfo,
		AppLogFormat:          strings.ToLower(strings.TrimSpace(os.Getenv("APP_LOG_FORMAT"))),
		AppListenAddr:         os.Getenv("APP_LISTEN_ADDR"),
		AppDecisionPolicyPath: os.Getenv("APP_DECISION_POLICY_PATH"),
		AppKmsKeyId:           os.Getenv("APP_KMS_KEY_ID"),
		DebugMode:             os.Getenv("APP_DEBUG_MODE") == "true",
		DebugDataPath:         os.Getenv("APP_DEBUG_DATA_PATH"),

		FlodeskApiHost:           strings.TrimRight(os.Getenv("FLODESK_API_HOST"), "/"),
		FlodeskApiKey:            strings.TrimSpace(os.Getenv("FLODESK_API_KEY")),
		FlodeskApiKeyEncrypted:   strings.TrimSpace(os.Getenv("FLODESK_API_KEY_ENCRYPTED")),
		FlodeskRequiredSegmentId: strings.TrimSpace(os.Getenv("FLODESK_REQUIRED_SEGMENT_ID")),
		FlodeskRequestTimeout:    2 * time.Second,

		UserAgent: FlodeskUserAgent,
	}

	if levelStr := os.Getenv("APP_LOG_LEVEL"); levelStr != "" {
		var level slog.Level
		if err := level.UnmarshalText([]byte(levelStr)); err == nil {
			cfg.AppLogLevel = level
		}
	}

	if cfg.AppLogFormat == "" {
		cfg.AppLogFormat = "json"
	}

	if cfg.AppListenAddr == "" {
		cfg.AppListenAddr = ":8080"
	}

	if cfg.FlodeskApiHost == "" {
		cfg.FlodeskApiHost = DefaultFlodeskApiHost
	}

	if timeoutStr := os.Getenv("FLODESK_REQUEST_TIMEOUT"); timeoutStr != "" {
		if timeout, err := time.ParseDuration(timeoutStr); err == nil {
			cfg.FlodeskRequestTimeout = timeout
		} else {
			slog.Warn("invalid FLODESK_REQUEST_TIMEOUT, using default", "value", timeoutStr, "default", "2s")
		}
	}

	// deprecated
	if cfg.FlodeskApiKey == "" && os.Getenv("APP_FLODESK_API_KEY") != "" {
		cfg.FlodeskApiKey = strings.TrimSpace(os.Getenv("APP_FLODESK_API_KEY"))
		slog.Warn("deprecated env var used", "old", "APP_FLODESK_API_KEY", "new", "FLODESK_API_KEY")
	}

	if cfg.FlodeskApiKey == "" && cfg.FlodeskApiKeyEncrypted != "" {
		key, err := decryptApiKey(ctx, cfg.AppKmsKeyId, cfg.FlodeskApiKeyEncrypted)
		if err != nil {
			return nil, fmt.Errorf("failed to decrypt FLODESK_API_KEY_ENCRYPTED: %w", err)
		}
		cfg.FlodeskApiKey = key
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks that configured values are usable. It does not require the
// API key.
func (c *Config) Validate() error {
	u, err := url.Parse(c.FlodeskApiHost)
	if err != nil {
		return fmt.Errorf("FLODESK_API_HOST is invalid: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return errors.New("FLODESK_API_HOST must be an http or https url")
	}
	if u.Host == "" {
		return errors.New("FLODESK_API_HOST must include a host")
	}

	if c.FlodeskRequestTimeout <= 0 {
		return errors.New("FLODESK_REQUEST_TIMEOUT must be positive")
	}

	if c.AppLogFormat != "json" && c.AppLogFormat != "text" {
		return errors.New("APP_LOG_FORMAT must be 'json' or 'text'")
	}

	return nil
}

// HasApiKey reports whether a lookup credential is configured.
func (c *Config) HasApiKey() bool {
	return c.FlodeskApiKey != ""
}

// HasRequiredSegment reports whether segment gating is enabled.
func (c *Config) HasRequiredSegment() bool {
	return c.FlodeskRequiredSegmentId != ""
}

func decryptApiKey(ctx context.Context, keyId, ciphertext string) (string, error) {
	kms, err := aws.NewKMSClient(ctx)
	if err != nil {
		return "", err
	}
	return kms.Decrypt(ctx, keyId, ciphertext)
}
