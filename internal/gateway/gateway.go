// Package gateway wires configuration into the running components.
package gateway

import (
	"context"
	"fmt"
	"time"

	"pooly/internal/catalog"
	"pooly/internal/chat"
	"pooly/internal/config"
	"pooly/internal/extract"
	"pooly/internal/llm"
	"pooly/internal/memory"
	"pooly/internal/nlu"
	"pooly/internal/notify"

	log "github.com/sirupsen/logrus"
)

const verifyTimeout = 10 * time.Second

// App holds the components built from one configuration.
type App struct {
	Config   *config.Config
	Store    *memory.FileStore
	Cache    *catalog.Cache
	Service  *chat.Service
	Notifier notify.Notifier
}

// Build assembles the full application, including the language model client
// and, when enabled, the notification mailer.
func Build(ctx context.Context, cfg *config.Config) (*App, error) {
	adapter, err := llm.NewAdapter(llm.Options{
		Provider:    llm.Provider(cfg.LLM.Provider),
		Model:       cfg.LLM.Model,
		BaseURL:     cfg.LLM.BaseURL,
		APIKey:      cfg.LLM.APIKey,
		Temperature: cfg.LLM.Temperature,
		MaxTokens:   cfg.LLM.MaxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize adapter: %w", err)
	}

	app := newApp(cfg)
	app.Notifier = newNotifier(ctx, cfg)

	opts := []chat.ServiceOption{
		chat.WithClassifier(nlu.NewClassifier(cfg.Chat.CatalogKeywords, cfg.Chat.TriggerKeywords)),
		chat.WithSystemPrompt(chat.DefaultSystemPrompt(cfg.Chat.ContactEmail, cfg.Chat.ContactPhone)),
		chat.WithHistoryWindow(cfg.Chat.HistoryWindow),
		chat.WithSearchLimit(cfg.Chat.SearchLimit),
	}
	if app.Notifier != nil {
		opts = append(opts, chat.WithNotifier(app.Notifier))
	}
	app.Service = chat.NewService(adapter, app.Store, app.Cache, opts...)

	log.WithFields(log.Fields{
		"provider": cfg.LLM.Provider,
		"model":    adapter.Model(),
		"data_dir": cfg.DataDir,
		"notify":   app.Notifier != nil,
	}).Info("gateway: service ready")
	return app, nil
}

// BuildOffline assembles the catalog and session components without a
// language model, for maintenance commands.
func BuildOffline(cfg *config.Config) *App {
	app := newApp(cfg)
	app.Service = chat.NewService(nil, app.Store, app.Cache)
	return app
}

func newApp(cfg *config.Config) *App {
	extractor := extract.New(
		extract.WithCommand(cfg.Catalog.PDFToText),
		extract.WithTimeout(cfg.Catalog.ExtractTimeout),
	)
	if err := extractor.CheckAvailable(); err != nil {
		log.WithError(err).Warn("gateway: pdf catalogs cannot be extracted")
	}

	return &App{
		Config: cfg,
		Store:  memory.NewFileStore(cfg.MemoryPath()),
		Cache:  catalog.NewCache(catalog.DefaultLayout(cfg.DataDir), extractor),
	}
}

// newNotifier returns nil when notifications are off. A mailer that fails
// verification is replaced by a no-op that logs each skipped notification.
func newNotifier(ctx context.Context, cfg *config.Config) notify.Notifier {
	if !cfg.Notify.Enabled {
		return nil
	}
	mailer := notify.NewMailer(notify.SMTPConfig{
		Host:     cfg.Notify.SMTPHost,
		Port:     cfg.Notify.SMTPPort,
		Username: cfg.Notify.Username,
		Password: cfg.Notify.Password,
		To:       cfg.NotifyRecipient(),
	})

	vctx, cancel := context.WithTimeout(ctx, verifyTimeout)
	defer cancel()
	if err := mailer.Verify(vctx); err != nil {
		log.WithError(err).Warn("gateway: email transport not available, notifications disabled")
		return notify.Nop{Reason: err.Error()}
	}
	log.Info("gateway: 📧 email transport OK")
	return mailer
}
