// Package app initializes and holds long-lived application services,
// acting as a dependency injection container.
package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/gfiorillo/albowatch/internal/config"
	"github.com/gfiorillo/albowatch/internal/enrich"
	"github.com/gfiorillo/albowatch/internal/logging"
	"github.com/gfiorillo/albowatch/internal/metrics"
	"github.com/gfiorillo/albowatch/internal/notify"
	"github.com/gfiorillo/albowatch/internal/pipeline"
	"github.com/gfiorillo/albowatch/internal/seenstore"
	"github.com/gfiorillo/albowatch/internal/source"
	"github.com/gfiorillo/albowatch/internal/summarize"
)

// App holds the shared services for the watcher: the logger, the
// seen-store, the notification provider, and the assembled pipeline.
// It is initialized once at startup and closed by a Cobra hook.
type App struct {
	cfg      config.Config
	logger   *zap.Logger
	store    seenstore.Store
	notifier notify.Provider
	pipeline *pipeline.Pipeline
}

// New creates the App from validated configuration. It is the central
// point for service initialization and fails fast if any provider cannot
// be constructed.
func New(ctx context.Context, cfg config.Config) (*App, error) {
	logger, err := logging.New(cfg.Logging.Development)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	metrics.Init()

	store, err := buildStore(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("init seen-store: %w", err)
	}
	logger.Info("seen-store initialized", zap.String("provider", cfg.State.Provider))

	notifier, err := buildNotifier(ctx, cfg, logger)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("init notifier: %w", err)
	}
	logger.Info("notifier initialized", zap.String("provider", cfg.Notify.Provider))

	src, err := source.New(source.Config{
		BaseURL:      cfg.Source.BaseURL,
		StartURL:     cfg.Source.StartURL,
		UserAgent:    cfg.Source.UserAgent,
		PageDelay:    cfg.Source.PageDelay(),
		Timeout:      cfg.Source.Timeout(),
		MaxRetries:   cfg.Source.MaxRetries,
		MaxPages:     cfg.Source.MaxPages,
		MinRowFields: cfg.Source.MinRowFields,
	}, logger)
	if err != nil {
		_ = store.Close()
		_ = notifier.Close()
		return nil, fmt.Errorf("init source: %w", err)
	}

	var enricher pipeline.Enricher
	if cfg.Enrichment.Enabled {
		built, err := buildEnricher(cfg, logger)
		if err != nil {
			_ = store.Close()
			_ = notifier.Close()
			return nil, fmt.Errorf("init enricher: %w", err)
		}
		enricher = built
		logger.Info("enrichment enabled",
			zap.String("model", cfg.Enrichment.Summarizer.Model),
			zap.String("ocr_language", cfg.Enrichment.OCRLanguage),
		)
	}

	return &App{
		cfg:      cfg,
		logger:   logger,
		store:    store,
		notifier: notifier,
		pipeline: pipeline.New(src, store, notifier, enricher, cfg.Notify.DispatchDelay(), logger),
	}, nil
}

// Logger returns the shared zap logger.
func (a *App) Logger() *zap.Logger {
	return a.logger
}

// Pipeline returns the assembled run pipeline.
func (a *App) Pipeline() *pipeline.Pipeline {
	return a.pipeline
}

// Config returns the loaded configuration.
func (a *App) Config() config.Config {
	return a.cfg
}

// Close shuts down all services held by the container.
func (a *App) Close() {
	if err := a.store.Close(); err != nil {
		a.logger.Warn("error closing seen-store", zap.Error(err))
	}
	if err := a.notifier.Close(); err != nil {
		a.logger.Warn("error closing notifier", zap.Error(err))
	}
	// Best effort: logging itself may be the failing part here.
	_ = a.logger.Sync()
}

func buildStore(ctx context.Context, cfg config.Config) (seenstore.Store, error) {
	switch cfg.State.Provider {
	case "gist":
		return seenstore.NewGistStore(cfg.State.Gist.ID, cfg.State.Gist.Token, cfg.State.Gist.Filename), nil
	case "gcs":
		return seenstore.NewGCSStore(ctx, cfg.State.GCS.Bucket, cfg.State.GCS.Object)
	case "sqlite":
		return seenstore.OpenSQLiteStore(cfg.State.SQLite.Path)
	case "noop":
		return &seenstore.NoOpStore{}, nil
	default:
		return nil, fmt.Errorf("unknown state provider: %s", cfg.State.Provider)
	}
}

func buildNotifier(ctx context.Context, cfg config.Config, logger *zap.Logger) (notify.Provider, error) {
	switch cfg.Notify.Provider {
	case "telegram":
		return notify.NewTelegramProvider(cfg.Notify.Telegram.BotToken, cfg.Notify.Telegram.ChatID, logger), nil
	case "pubsub":
		return notify.NewPubSubProvider(ctx, cfg.Notify.PubSub.ProjectID, cfg.Notify.PubSub.TopicName)
	case "noop":
		return &notify.NoOpProvider{}, nil
	default:
		return nil, fmt.Errorf("unknown notify provider: %s", cfg.Notify.Provider)
	}
}

func buildEnricher(cfg config.Config, logger *zap.Logger) (*enrich.Enricher, error) {
	locator, err := enrich.NewHTTPLocator(cfg.Source.BaseURL, cfg.Source.UserAgent, cfg.Source.Timeout())
	if err != nil {
		return nil, fmt.Errorf("init attachment locator: %w", err)
	}

	summarizer := summarize.NewClient(
		cfg.Enrichment.Summarizer.Endpoint,
		cfg.Enrichment.Summarizer.Model,
		cfg.Enrichment.Summarizer.APIKey,
		cfg.Enrichment.Summarizer.Timeout(),
	)

	return enrich.New(
		locator,
		enrich.NewPDFExtractor(),
		enrich.NewTesseractOCR(),
		summarizer,
		enrich.Config{
			MinTextChars: cfg.Enrichment.MinTextChars,
			OCRLanguage:  cfg.Enrichment.OCRLanguage,
		},
		logger,
	), nil
}
