package extract

import (
	"context"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/validate-cli/internal/model"
	"github.com/sells-group/validate-cli/internal/navigate"
	"github.com/sells-group/validate-cli/pkg/ocr"
)

// Coordinator runs extraction for all field mappings of a record, escalating
// low-confidence structural results to the recognition channel.
type Coordinator struct {
	ocr           ocr.Client
	threshold     float64
	maxConcurrent int
	log           *zap.Logger
}

// NewCoordinator creates a Coordinator. ocrClient may be nil when no
// recognition service is configured; hybrid fields then stay structural.
func NewCoordinator(ocrClient ocr.Client, threshold float64, maxConcurrent int, log *zap.Logger) *Coordinator {
	if threshold <= 0 {
		threshold = 0.6
	}
	if maxConcurrent <= 0 {
		maxConcurrent = 3
	}
	if log == nil {
		log = zap.L()
	}
	return &Coordinator{
		ocr:           ocrClient,
		threshold:     threshold,
		maxConcurrent: maxConcurrent,
		log:           log,
	}
}

// ExtractAll resolves one ExtractionResult per mapping, in mapping order.
// Per-field failures never abort the record: a field that produces nothing
// on either channel yields a result with confidence 0 and a nil value.
func (c *Coordinator) ExtractAll(ctx context.Context, snapshot *navigate.PageSnapshot, record model.Record, mappings []model.FieldMapping) ([]model.ExtractionResult, error) {
	page, err := ParsePage(snapshot)
	if err != nil {
		return nil, err
	}

	results := make([]model.ExtractionResult, len(mappings))
	var mu sync.Mutex

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(c.maxConcurrent)

	for i, mapping := range mappings {
		g.Go(func() error {
			r := c.extractField(gCtx, page, record, mapping)
			mu.Lock()
			results[i] = r
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	return results, nil
}

// extractField runs the channel-selection cascade for one mapping.
func (c *Coordinator) extractField(ctx context.Context, page *Page, record model.Record, mapping model.FieldMapping) model.ExtractionResult {
	structural := model.ExtractionResult{Field: mapping.SourceField, Method: model.MethodStructural}
	if mapping.Strategy.AllowsStructural() {
		structural = page.Structural(mapping)
	}

	// Above threshold the recognition channel is never invoked.
	if structural.Confidence >= c.threshold || !mapping.Strategy.AllowsRecognition() {
		return structural
	}

	hint := record.Value(mapping.SourceField)
	recognized := Recognize(ctx, c.ocr, c.log, mapping, page.Screenshot(), hint)

	// Higher confidence wins; structural wins ties.
	winner := structural
	if recognized.Confidence > structural.Confidence {
		winner = recognized
	}

	if winner.Value == nil {
		c.log.Debug("extract: no value from either channel",
			zap.String("field", mapping.SourceField),
			zap.String("row_id", record.RowID),
		)
	} else if winner.Method == model.MethodRecognition {
		c.log.Debug("extract: recognition channel selected",
			zap.String("field", mapping.SourceField),
			zap.Float64("structural_confidence", structural.Confidence),
			zap.Float64("recognition_confidence", recognized.Confidence),
		)
	}

	return winner
}
