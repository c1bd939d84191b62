package main

import (
	"fmt"

	"github.com/Anshul-ydv/Legal-document-agentic-assistant/config"
	"github.com/Anshul-ydv/Legal-document-agentic-assistant/middleware"
	"github.com/Anshul-ydv/Legal-document-agentic-assistant/pkg/logger"
	"github.com/Anshul-ydv/Legal-document-agentic-assistant/service"
	"github.com/spf13/cobra"
)

// loadConfig reads the config named by the --config flag and initializes
// logging from it.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger.Init(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
	})
	return cfg, nil
}

// stores bundles the persistence backends one process uses. With a sqlite
// path configured all three are the same database; otherwise each is an
// in-memory store.
type stores struct {
	documents service.DocumentStore
	audit     service.AuditLog
	transfers service.TransferStore
	closer    func() error
}

func openStores(cfg *config.Config) (*stores, error) {
	if cfg.Store.Path != "" {
		db, err := service.NewSQLiteStore(cfg.Store.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to open store: %w", err)
		}
		return &stores{documents: db, audit: db, transfers: db, closer: db.Close}, nil
	}
	return &stores{
		documents: service.NewMemoryStore(&cfg.Store),
		audit:     service.NewMemoryAuditLog(),
		transfers: service.NewMemoryTransferStore(),
		closer:    func() error { return nil },
	}, nil
}

// buildProcessor assembles Pipeline A over the given stores.
func buildProcessor(cfg *config.Config, st *stores) *service.Processor {
	oracle := service.NewHTTPOracle(&cfg.Oracle)
	return service.NewProcessor(
		st.documents,
		st.audit,
		service.NewFileExtractor(),
		service.NewClauseExtractor(oracle),
		service.NewRiskAssessor(oracle, oracle, cfg.Risk, cfg.Oracle.RetrievalK),
		service.NewTierRouter(cfg.Router),
		st.transfers,
		cfg.Pipeline,
	)
}

// buildAdvisor assembles Pipeline B over the given stores.
func buildAdvisor(cfg *config.Config, st *stores) *service.Advisor {
	oracle := service.NewHTTPOracle(&cfg.Oracle)
	suggester := service.NewSuggestionGenerator(service.NewTemplateLibrary(), nil, oracle, cfg.Risk)
	reporter := service.NewReportSynthesizer(cfg.Risk)
	return service.NewAdvisor(st.documents, st.audit, suggester, reporter, cfg.Risk)
}

// serviceToken mints short-lived bearer tokens for service-to-service calls
// between the two pipelines.
func serviceToken(cfg *config.Config, name string) service.TokenSource {
	return func() (string, error) {
		token, _, err := middleware.GenerateToken(name, "system", &cfg.Auth)
		return token, err
	}
}
