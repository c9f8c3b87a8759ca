// Package pipeline drives records through the validation phases: navigate,
// extract, compare, aggregate. Each record is an independent state machine;
// phase transitions are one-directional and retries happen inside a phase,
// never across phases.
package pipeline

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/validate-cli/internal/compare"
	"github.com/sells-group/validate-cli/internal/extract"
	"github.com/sells-group/validate-cli/internal/model"
	"github.com/sells-group/validate-cli/internal/navigate"
)

// EvidenceSink receives each finished verdict. Sink failures are logged and
// never affect the verdict itself.
type EvidenceSink interface {
	SaveVerdict(ctx context.Context, runID string, verdict model.RecordVerdict) error
}

// Orchestrator runs one record through all phases and emits its verdict.
type Orchestrator struct {
	navigator   navigate.Navigator
	coordinator *extract.Coordinator
	comparator  *compare.Comparator

	maxConcurrentFields int
	log                 *zap.Logger
}

// NewOrchestrator wires the phase collaborators together.
func NewOrchestrator(nav navigate.Navigator, coord *extract.Coordinator, comp *compare.Comparator, maxConcurrentFields int, log *zap.Logger) *Orchestrator {
	if maxConcurrentFields <= 0 {
		maxConcurrentFields = 3
	}
	if log == nil {
		log = zap.L()
	}
	return &Orchestrator{
		navigator:           nav,
		coordinator:         coord,
		comparator:          comp,
		maxConcurrentFields: maxConcurrentFields,
		log:                 log,
	}
}

// ProcessRecord drives a record Idle through Completed or Failed and always
// returns a whole verdict. A navigation failure is fatal for this record
// only: the verdict carries the error and a non-match, and later phases are
// skipped.
func (o *Orchestrator) ProcessRecord(ctx context.Context, urlTemplate string, record model.Record, mappings *model.MappingSet) model.RecordVerdict {
	start := time.Now()
	verdict := model.RecordVerdict{RowID: record.RowID}

	state := o.transition(record.RowID, model.StateIdle, model.StateNavigating)
	snapshot, err := o.navigator.Navigate(ctx, urlTemplate, record)
	if err != nil {
		o.log.Error("pipeline: navigation failed",
			zap.String("row_id", record.RowID),
			zap.Error(err),
		)
		verdict.Errors = append(verdict.Errors, err.Error())
		verdict.ProcessingTimeMs = time.Since(start).Milliseconds()
		o.transition(record.RowID, state, model.StateFailed)
		return verdict
	}

	state = o.transition(record.RowID, state, model.StateExtracting)
	extractions, err := o.coordinator.ExtractAll(ctx, snapshot, record, mappings.Mappings)
	if err != nil {
		verdict.Errors = append(verdict.Errors, err.Error())
		verdict.ProcessingTimeMs = time.Since(start).Milliseconds()
		o.transition(record.RowID, state, model.StateFailed)
		return verdict
	}

	state = o.transition(record.RowID, state, model.StateComparing)
	decisions := o.compareAll(ctx, record, mappings, extractions)

	state = o.transition(record.RowID, state, model.StateAggregating)
	verdict.FieldDecisions = decisions
	verdict.OverallMatch, verdict.OverallConfidence = aggregate(decisions, mappings)
	verdict.ProcessingTimeMs = time.Since(start).Milliseconds()

	o.transition(record.RowID, state, model.StateCompleted)
	o.log.Info("pipeline: record completed",
		zap.String("row_id", record.RowID),
		zap.Bool("overall_match", verdict.OverallMatch),
		zap.Float64("overall_confidence", verdict.OverallConfidence),
		zap.Int64("processing_time_ms", verdict.ProcessingTimeMs),
	)
	return verdict
}

// compareAll runs the comparator for each extraction with bounded fan-out.
// Decisions land in mapping order regardless of completion order.
func (o *Orchestrator) compareAll(ctx context.Context, record model.Record, mappings *model.MappingSet, extractions []model.ExtractionResult) []model.ValidationDecision {
	decisions := make([]model.ValidationDecision, len(extractions))
	var mu sync.Mutex

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(o.maxConcurrentFields)

	for i, extraction := range extractions {
		mapping := mappings.ByField(extraction.Field)
		if mapping == nil {
			continue
		}
		g.Go(func() error {
			d := o.comparator.Compare(gCtx, *mapping, record.Value(mapping.SourceField), extraction)
			mu.Lock()
			decisions[i] = d
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	return decisions
}

// transition logs a phase change and returns the new state.
func (o *Orchestrator) transition(rowID string, from, to model.RecordState) model.RecordState {
	o.log.Debug("pipeline: phase transition",
		zap.String("row_id", rowID),
		zap.String("from", string(from)),
		zap.String("to", string(to)),
	)
	return to
}
