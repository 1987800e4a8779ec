package bootstrap

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/nova-ar/arbackend/internal/config"
	"github.com/nova-ar/arbackend/internal/database"
	"github.com/nova-ar/arbackend/internal/inference"
	"github.com/nova-ar/arbackend/internal/inference/gemini"
	"github.com/nova-ar/arbackend/internal/inference/openai"
	"github.com/nova-ar/arbackend/internal/speech"
	"github.com/nova-ar/arbackend/internal/speech/google"
	speechopenai "github.com/nova-ar/arbackend/internal/speech/openai"
)

// NewLogger returns a development logger in debug mode and a JSON production logger otherwise.
func NewLogger(debugMode bool) (*zap.Logger, error) {
	if debugMode {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// OpenDatabase connects, waits for the database to answer and applies the schema when configured to.
func OpenDatabase(ctx context.Context, cfg config.DatabaseConfig, logger *zap.Logger) (*sqlx.DB, error) {
	db, err := database.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("database.Open() > %w", err)
	}
	if err := database.WaitReady(ctx, db, cfg.ReadyAttempts, logger); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("database.WaitReady() > %w", err)
	}
	if cfg.AutoMigrate {
		if err := database.Migrate(ctx, db); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("database.Migrate() > %w", err)
		}
		logger.Info("database schema applied", zap.String("driver", cfg.Driver))
	}
	return db, nil
}

// NewModel builds the client for the configured provider. The returned func releases it.
func NewModel(ctx context.Context, cfg *config.Config, logger *zap.Logger) (inference.Client, func() error, error) {
	apiKey := cfg.InferenceAPIKey()
	timeout := time.Duration(cfg.Inference.TimeoutSeconds) * time.Second

	switch cfg.Inference.Provider {
	case inference.ProviderOpenAI:
		if apiKey == "" {
			return nil, nil, fmt.Errorf("OPENAI_API_KEY environment variable is required")
		}
		c := cfg.Inference.OpenAI
		client := openai.NewClient(apiKey, c.Model, c.BaseURL, timeout, logger)
		logger.Info("model client ready", zap.String("provider", inference.ProviderOpenAI), zap.String("model", client.GetModel()))
		return client, client.Close, nil
	case inference.ProviderGemini, "":
		if apiKey == "" {
			return nil, nil, fmt.Errorf("GEMINI_API_KEY environment variable is required")
		}
		c := cfg.Inference.Gemini
		client, err := gemini.NewClient(ctx, apiKey, c.Model, c.BaseURL, timeout)
		if err != nil {
			return nil, nil, fmt.Errorf("gemini.NewClient() > %w", err)
		}
		logger.Info("model client ready", zap.String("provider", inference.ProviderGemini), zap.String("model", client.GetModel()))
		return client, func() error { return nil }, nil
	default:
		return nil, nil, fmt.Errorf("unknown inference provider %q", cfg.Inference.Provider)
	}
}

// NewSpeech builds the speech adapter for the configured backend.
// A backend that cannot be created is logged and replaced with speech.Disabled so answers still flow without audio.
func NewSpeech(ctx context.Context, cfg config.SpeechConfig, logger *zap.Logger) (*speech.Adapter, func() error) {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	noop := func() error { return nil }

	var synthesizer speech.Synthesizer = speech.Disabled{}
	closer := noop
	switch cfg.Backend {
	case speech.BackendGoogle:
		client, err := google.NewClient(ctx, cfg.Google)
		if err != nil {
			logger.Warn("google text-to-speech unavailable, answers will have no audio", zap.Error(err))
			break
		}
		synthesizer = client
		closer = client.Close
	case speech.BackendOpenAI:
		c := cfg.OpenAI
		synthesizer = speechopenai.NewClient(c.BaseURL, c.APIKey, c.Model, c.Voice, timeout)
	case speech.BackendNone:
	default:
		logger.Warn("unknown speech backend, answers will have no audio", zap.String("backend", cfg.Backend))
	}
	logger.Info("speech backend ready", zap.String("backend", cfg.Backend))
	return speech.NewAdapter(synthesizer, logger).WithTimeout(timeout), closer
}
