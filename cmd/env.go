package main

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/validate-cli/internal/compare"
	"github.com/sells-group/validate-cli/internal/extract"
	"github.com/sells-group/validate-cli/internal/navigate"
	"github.com/sells-group/validate-cli/internal/pipeline"
	"github.com/sells-group/validate-cli/internal/store"
	"github.com/sells-group/validate-cli/pkg/ocr"
	"github.com/sells-group/validate-cli/pkg/semantic"
)

func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite":
		dsn := cfg.Store.DatabaseURL
		if dsn == "" {
			dsn = "validate.db"
		}
		return store.NewSQLite(dsn)
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL, nil)
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}

func initSemantic() (semantic.Client, error) {
	switch cfg.Compare.Backend {
	case "http":
		return semantic.NewClient(
			semantic.WithBaseURL(cfg.Semantic.BaseURL),
			semantic.WithRateLimit(cfg.Semantic.RatePerSec, cfg.Semantic.Burst),
		), nil
	case "claude":
		if cfg.Semantic.APIKey == "" {
			return nil, eris.New("claude backend requires an API key (VALIDATE_SEMANTIC_API_KEY)")
		}
		return semantic.NewClaudeClient(cfg.Semantic.APIKey, cfg.Semantic.Model), nil
	default:
		return nil, eris.Errorf("unsupported compare backend: %s", cfg.Compare.Backend)
	}
}

// buildBatch wires all pipeline collaborators from config. sink may be nil.
func buildBatch(sink pipeline.EvidenceSink, log *zap.Logger) (*pipeline.Batch, error) {
	semClient, err := initSemantic()
	if err != nil {
		return nil, err
	}

	var ocrClient ocr.Client
	if cfg.OCR.BaseURL != "" {
		ocrClient = ocr.NewClient(ocr.WithBaseURL(cfg.OCR.BaseURL))
	}

	navigator := navigate.NewHTTPNavigator(navigate.HTTPOptions{
		Timeout:   cfg.Navigate.Timeout,
		UserAgent: cfg.Navigate.UserAgent,
	}, log)

	coordinator := extract.NewCoordinator(ocrClient, cfg.Extract.ConfidenceThreshold, cfg.Pipeline.MaxConcurrentFields, log)
	comparator := compare.NewComparator(semClient, cfg.Compare, log)
	orchestrator := pipeline.NewOrchestrator(navigator, coordinator, comparator, cfg.Pipeline.MaxConcurrentFields, log)

	return pipeline.NewBatch(orchestrator, sink, cfg.Pipeline.MaxConcurrentRecords, log), nil
}
