// Package parsa wires the Gemini gateway, the conversation registry, the image studio and
// the HTTP server into one service.
package parsa

import (
	"context"
	"errors"
	"fmt"

	"github.com/Desarso/parsa/models"
	"github.com/Desarso/parsa/models/gemini"
	"github.com/Desarso/parsa/server"
	"github.com/Desarso/parsa/sessions"
	"github.com/Desarso/parsa/stores"
	"github.com/rs/zerolog"
)

// App owns every long-lived component of the service.
type App struct {
	Config   *Config
	Logger   zerolog.Logger
	Gateway  models.Gateway
	Store    stores.MessageStore // nil when archiving is off
	Images   stores.ImageStore
	Registry *sessions.Registry
	Studio   *sessions.StudioSession
	Janitor  *stores.Janitor
	Server   *server.Server
}

// NewApp connects to Gemini with cfg.GeminiAPIKey and builds the service.
func NewApp(ctx context.Context, cfg *Config, logger zerolog.Logger) (*App, error) {
	if cfg.GeminiAPIKey == "" {
		return nil, errors.New("GEMINI_API_KEY is not set")
	}
	gw, err := gemini.New(ctx, cfg.GeminiAPIKey, cfg.Models, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	return NewAppWithGateway(ctx, cfg, gw, logger)
}

// NewAppWithGateway builds the service around an existing gateway.
func NewAppWithGateway(ctx context.Context, cfg *Config, gw models.Gateway, logger zerolog.Logger) (*App, error) {
	store, err := stores.NewStore(cfg.StoreConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to open %s store: %w", cfg.StoreType, err)
	}

	images, imageDir, err := newImageStore(ctx, cfg, logger)
	if err != nil {
		store.Close()
		return nil, err
	}

	registry := sessions.NewRegistry(gw, store, logger)
	registry.HistoryLimit = cfg.HistoryLimit
	studio := sessions.NewStudioSession(gw, images, logger)

	srv := server.New(server.Options{
		Addr:            cfg.HTTPAddr,
		Environment:     cfg.Environment,
		ShutdownTimeout: cfg.ShutdownTimeout,
		MaxUploadBytes:  cfg.MaxUploadBytes,
		ImageDir:        imageDir,
	}, server.Deps{
		Registry: registry,
		Studio:   studio,
		Gateway:  gw,
		Store:    store,
	}, logger)

	return &App{
		Config:   cfg,
		Logger:   logger,
		Gateway:  gw,
		Store:    store,
		Images:   images,
		Registry: registry,
		Studio:   studio,
		Janitor:  stores.NewJanitor(cfg.JanitorConfig(), images, registry, logger),
		Server:   srv,
	}, nil
}

// newImageStore returns the configured image store and, for the local store, the
// directory the server should expose under /images.
func newImageStore(ctx context.Context, cfg *Config, logger zerolog.Logger) (stores.ImageStore, string, error) {
	switch cfg.ImageStore {
	case "minio":
		s, err := stores.NewMinioImageStore(ctx, cfg.MinioConfig(), logger)
		if err != nil {
			return nil, "", fmt.Errorf("failed to open minio image store: %w", err)
		}
		return s, "", nil
	default:
		s, err := stores.NewLocalImageStore(cfg.ImageDir, cfg.ServerHost, logger)
		if err != nil {
			return nil, "", fmt.Errorf("failed to open image directory: %w", err)
		}
		return s, s.Dir(), nil
	}
}

// Run starts the retention janitor and serves HTTP until ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	if err := a.Janitor.Start(); err != nil {
		return err
	}
	defer func() {
		<-a.Janitor.Stop().Done()
	}()

	a.Logger.Info().
		Str("store", a.Config.StoreType).
		Str("images", a.Config.ImageStore).
		Msg("parsa starting")
	return a.Server.Run(ctx)
}

// Close releases the archive connection.
func (a *App) Close() error {
	if a.Store == nil {
		return nil
	}
	return a.Store.Close()
}
