// Package store persists validation runs and their record verdicts.
package store

import (
	"context"

	"github.com/sells-group/validate-cli/internal/model"
)

// RunFilter specifies criteria for listing runs.
type RunFilter struct {
	Status  model.RunStatus `json:"status,omitempty"`
	Dataset string          `json:"dataset,omitempty"`
	Limit   int             `json:"limit,omitempty"`
	Offset  int             `json:"offset,omitempty"`
}

// Store defines the persistence interface for the validation pipeline.
// SaveVerdict doubles as the pipeline's evidence sink.
type Store interface {
	// Runs
	CreateRun(ctx context.Context, dataset, urlTemplate string) (*model.Run, error)
	UpdateRunStatus(ctx context.Context, runID string, status model.RunStatus) error
	UpdateRunResult(ctx context.Context, runID string, result *model.RunResult) error
	GetRun(ctx context.Context, runID string) (*model.Run, error)
	ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error)

	// Verdicts
	SaveVerdict(ctx context.Context, runID string, verdict model.RecordVerdict) error
	ListVerdicts(ctx context.Context, runID string) ([]model.RecordVerdict, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
