package main

import (
	"context"
	"fmt"

	"github.com/nova-ar/arbackend/internal/answer"
	"github.com/nova-ar/arbackend/internal/bootstrap"
	"github.com/nova-ar/arbackend/internal/config"
	"github.com/nova-ar/arbackend/internal/knowledge"
	"github.com/nova-ar/arbackend/internal/object"
)

func loadConfig() (*config.Config, error) {
	loader, err := config.NewConfigLoader(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to create config loader: %w", err)
	}
	return loader.Load()
}

// newService builds the same answer service the server runs. The returned func releases everything it opened.
func newService(ctx context.Context, cfg *config.Config) (*answer.Service, func(), error) {
	db, err := bootstrap.OpenDatabase(ctx, cfg.Database, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("bootstrap.OpenDatabase() > %w", err)
	}
	kb, err := knowledge.FromConfig(cfg.KnowledgeBase, logger)
	if err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("knowledge.FromConfig() > %w", err)
	}
	model, closeModel, err := bootstrap.NewModel(ctx, cfg, logger)
	if err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("bootstrap.NewModel() > %w", err)
	}
	speaker, closeSpeech := bootstrap.NewSpeech(ctx, cfg.Speech, logger)

	service := answer.NewService(object.NewDBRepository(db), model, kb, speaker, logger)
	return service, func() {
		_ = closeSpeech()
		_ = closeModel()
		_ = db.Close()
	}, nil
}
