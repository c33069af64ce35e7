package main

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/shubh-37/minddump/config"
	"github.com/shubh-37/minddump/internal/agents"
	"github.com/shubh-37/minddump/internal/database"
	"github.com/shubh-37/minddump/internal/logging"
	"github.com/shubh-37/minddump/internal/pipeline"
	"github.com/shubh-37/minddump/internal/sheets"
	"github.com/shubh-37/minddump/internal/store"
	"github.com/shubh-37/minddump/internal/webhooks"
)

// app holds the wired components shared by every command.
type app struct {
	cfg        *config.Config
	logger     *zap.Logger
	pipeline   *pipeline.Orchestrator
	store      store.ThoughtStore
	dispatcher *webhooks.Dispatcher
	db         *database.DB
	components map[string]bool
}

func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	if logFormat != "" {
		cfg.LogFormat = logFormat
	}
	if err := cfg.Validate(); err != nil {
		return nil, eris.Wrap(err, "configuration error")
	}

	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return nil, eris.Wrap(err, "failed to build logger")
	}

	a := &app{cfg: cfg, logger: logger}

	analyzer, err := buildAnalyzer(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	gateway := agents.NewGateway(analyzer, cfg.Analysis.Timeout, logger)

	var api sheets.API
	if cfg.SheetsConfigured() {
		client, err := sheets.NewGoogleClient(ctx, []byte(cfg.Sheets.CredentialsJSON))
		if err != nil {
			return nil, err
		}
		api = client
	}
	master := sheets.NewMasterLog(api, sheets.MasterConfig{
		SheetID:       cfg.Sheets.MasterSheetID,
		Range:         cfg.Sheets.MasterRange,
		EncryptionKey: cfg.Sheets.EncryptionKey,
	}, logger)
	if api != nil && !master.Configured() {
		logger.Warn("MASTER_SHEET_ID missing or invalid, master log disabled")
	}
	projects := sheets.NewProjectSheets(api, cfg.Sheets.ProjectTimeout, logger)

	a.dispatcher = webhooks.NewDispatcher(webhooks.NewStaticConfig(cfg.Webhooks.Enabled, cfg.Webhooks.URLs), nil, 0, logger)

	if err := a.openStore(ctx); err != nil {
		return nil, err
	}

	a.pipeline, err = pipeline.New(pipeline.Deps{
		Gateway:  gateway,
		Master:   master,
		Projects: projects,
		Webhooks: a.dispatcher,
		Store:    a.store,
		Logger:   logger,
	})
	if err != nil {
		a.close()
		return nil, err
	}

	a.components = map[string]bool{
		"analysis":      gateway.Configured(),
		"masterSheet":   master.Configured(),
		"projectSheets": projects.Configured(),
		"webhooks":      cfg.Webhooks.Enabled,
		"slack":         cfg.SlackConfigured(),
		"linear":        cfg.LinearConfigured(),
		"database":      a.db != nil,
	}
	logger.Info("components configured", zap.Any("components", a.components))

	return a, nil
}

// buildAnalyzer returns nil when the selected provider has no credential.
func buildAnalyzer(ctx context.Context, cfg *config.Config, logger *zap.Logger) (agents.Analyzer, error) {
	if !cfg.AnalysisConfigured() {
		logger.Warn("analysis provider not configured, only pre-analyzed thoughts will be accepted",
			zap.String("provider", cfg.Analysis.Provider))
		return nil, nil
	}
	switch cfg.Analysis.Provider {
	case "gemini":
		g, err := agents.NewGeminiAgent(ctx, cfg.Analysis.GeminiKey, cfg.Analysis.GeminiModel, logger)
		if err != nil {
			return nil, err
		}
		return g, nil
	case "mock":
		return agents.MockAnalyzer{}, nil
	default:
		return agents.NewCategorizerAgent(cfg.Analysis.AnthropicKey, cfg.Analysis.Model, logger), nil
	}
}

func (a *app) openStore(ctx context.Context) error {
	switch a.cfg.Storage.Backend {
	case "memory":
		a.store = store.NewMemory()
	case "postgres":
		db, err := database.NewDB(ctx, a.cfg.Storage.DatabaseURL, a.logger)
		if err != nil {
			return err
		}
		if err := db.CreateTables(ctx); err != nil {
			db.Close()
			return err
		}
		a.db = db
		a.store = database.NewThoughtRepository(db)
	default:
		a.store = store.Noop{}
	}
	return nil
}

func (a *app) close() {
	a.dispatcher.Wait()
	if a.db != nil {
		a.db.Close()
	}
	_ = a.logger.Sync()
}
