package pipeline

import (
	"context"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/validate-cli/internal/model"
)

// Batch fans records out over a bounded worker pool. Records are isolated:
// one record's failure never cancels or taints another's verdict.
type Batch struct {
	orchestrator         *Orchestrator
	sink                 EvidenceSink
	maxConcurrentRecords int
	log                  *zap.Logger
}

// NewBatch creates a batch runner. sink may be nil when verdicts are only
// returned, not persisted.
func NewBatch(orchestrator *Orchestrator, sink EvidenceSink, maxConcurrentRecords int, log *zap.Logger) *Batch {
	if maxConcurrentRecords <= 0 {
		maxConcurrentRecords = 4
	}
	if log == nil {
		log = zap.L()
	}
	return &Batch{
		orchestrator:         orchestrator,
		sink:                 sink,
		maxConcurrentRecords: maxConcurrentRecords,
		log:                  log,
	}
}

// Run processes every record and returns verdicts in record order. Each
// verdict is handed to the sink as soon as its record finishes; a sink
// failure is logged and does not affect the verdict.
func (b *Batch) Run(ctx context.Context, runID, urlTemplate string, records []model.Record, mappings *model.MappingSet) []model.RecordVerdict {
	verdicts := make([]model.RecordVerdict, len(records))
	var mu sync.Mutex

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(b.maxConcurrentRecords)

	for i, record := range records {
		g.Go(func() error {
			v := b.orchestrator.ProcessRecord(gCtx, urlTemplate, record, mappings)

			if b.sink != nil {
				if err := b.sink.SaveVerdict(gCtx, runID, v); err != nil {
					b.log.Warn("pipeline: evidence sink failure",
						zap.String("run_id", runID),
						zap.String("row_id", v.RowID),
						zap.Error(err),
					)
				}
			}

			mu.Lock()
			verdicts[i] = v
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	return verdicts
}

// Summarize folds verdicts into a run-level result.
func Summarize(verdicts []model.RecordVerdict, durationMs int64) *model.RunResult {
	result := &model.RunResult{
		RecordsTotal: len(verdicts),
		DurationMs:   durationMs,
	}
	if len(verdicts) == 0 {
		return result
	}

	var sum float64
	for _, v := range verdicts {
		sum += v.OverallConfidence
		if v.OverallMatch {
			result.RecordsMatched++
		}
		if len(v.Errors) > 0 {
			result.RecordsFailed++
		}
	}
	result.MeanConfidence = sum / float64(len(verdicts))
	return result
}
