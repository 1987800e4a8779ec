package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"

	"github.com/labstack/echo/v4"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/net/http2"

	"github.com/nova-ar/arbackend/internal/answer"
	"github.com/nova-ar/arbackend/internal/bootstrap"
	"github.com/nova-ar/arbackend/internal/config"
	"github.com/nova-ar/arbackend/internal/knowledge"
	"github.com/nova-ar/arbackend/internal/object"
	"github.com/nova-ar/arbackend/internal/server"
)

var (
	configFile string
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		if _, fprintfErr := fmt.Fprintf(os.Stderr, "error: %+v\n", err); fprintfErr != nil {
			panic(fmt.Errorf("failed to output an error: %w. Reason: %w", err, fprintfErr))
		}
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var debugMode bool
	rootCommand := &cobra.Command{
		Use:           "arbackend-server",
		Short:         "Serve the AR learning API",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return fmt.Errorf("loadConfig() > %w", err)
			}
			logger, err := bootstrap.NewLogger(debugMode)
			if err != nil {
				return fmt.Errorf("bootstrap.NewLogger() > %w", err)
			}
			defer func() {
				_ = logger.Sync()
			}()
			return run(cmd.Context(), cfg, logger)
		},
	}
	rootCommand.PersistentFlags().StringVar(&configFile, "config", "", "config file path")
	rootCommand.PersistentFlags().BoolVar(&debugMode, "debug", false, "Enable debug mode")
	return rootCommand
}

func loadConfig() (*config.Config, error) {
	loader, err := config.NewConfigLoader(configFile)
	if err != nil {
		return nil, fmt.Errorf("config.NewConfigLoader() > %w", err)
	}
	return loader.Load()
}

func run(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	app := bootstrap.New()
	e, err := build(ctx, app, cfg, logger)
	if err != nil {
		return err
	}

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	return app.Run(ctx, func(ctx context.Context) error {
		logger.Info("starting server", zap.String("addr", addr))
		if err := e.StartH2CServer(addr, &http2.Server{}); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("e.StartH2CServer() > %w", err)
		}
		return nil
	})
}

// build wires every component and registers its shutdown on app. Hooks run in reverse,
// so the HTTP server stops before the clients and the database it depends on are closed.
func build(ctx context.Context, app *bootstrap.App, cfg *config.Config, logger *zap.Logger) (*echo.Echo, error) {
	db, err := bootstrap.OpenDatabase(ctx, cfg.Database, logger)
	if err != nil {
		return nil, fmt.Errorf("bootstrap.OpenDatabase() > %w", err)
	}
	app.AddShutdownHook(func(ctx context.Context) error {
		return db.Close()
	})

	kb, err := knowledge.FromConfig(cfg.KnowledgeBase, logger)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("knowledge.FromConfig() > %w", err)
	}

	model, closeModel, err := bootstrap.NewModel(ctx, cfg, logger)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("bootstrap.NewModel() > %w", err)
	}
	app.AddShutdownHook(func(ctx context.Context) error {
		return closeModel()
	})

	speaker, closeSpeech := bootstrap.NewSpeech(ctx, cfg.Speech, logger)
	app.AddShutdownHook(func(ctx context.Context) error {
		return closeSpeech()
	})

	repository := object.NewDBRepository(db)
	service := answer.NewService(repository, model, kb, speaker, logger)
	e := server.New(server.NewHandler(service, speaker, repository, logger), cfg.Server, logger)
	app.AddShutdownHook(e.Shutdown)
	return e, nil
}
