package pipeline

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sells-group/validate-cli/internal/compare"
	"github.com/sells-group/validate-cli/internal/config"
	"github.com/sells-group/validate-cli/internal/extract"
	"github.com/sells-group/validate-cli/internal/model"
	"github.com/sells-group/validate-cli/internal/navigate"
	"github.com/sells-group/validate-cli/pkg/ocr"
	"github.com/sells-group/validate-cli/pkg/semantic"
)

type fakeNavigator struct {
	html    string
	image   []byte
	failFor map[string]bool
}

func (f *fakeNavigator) Navigate(_ context.Context, urlTemplate string, record model.Record) (*navigate.PageSnapshot, error) {
	if f.failFor[record.RowID] {
		return nil, &navigate.NavigationError{URL: urlTemplate, Reason: "connection refused"}
	}
	return &navigate.PageSnapshot{
		FinalURL:   urlTemplate,
		StatusCode: 200,
		HTML:       f.html,
		Screenshot: f.image,
	}, nil
}

type fakeRecognizer struct {
	result *ocr.Result
}

func (f *fakeRecognizer) Recognize(_ context.Context, _ []byte) (*ocr.Result, error) {
	return f.result, nil
}

func (f *fakeRecognizer) Healthy(_ context.Context) error { return nil }

type fakeSemantic struct {
	response string
}

func (f *fakeSemantic) Validate(_ context.Context, _ semantic.Request) (string, error) {
	return f.response, nil
}

func (f *fakeSemantic) Healthy(_ context.Context) error { return nil }

type recordingSink struct {
	verdicts []model.RecordVerdict
	err      error
}

func (s *recordingSink) SaveVerdict(_ context.Context, _ string, v model.RecordVerdict) error {
	s.verdicts = append(s.verdicts, v)
	return s.err
}

func newTestOrchestrator(nav navigate.Navigator, ocrClient ocr.Client, sem semantic.Client) *Orchestrator {
	log := zap.NewNop()
	coord := extract.NewCoordinator(ocrClient, 0.6, 3, log)
	comp := compare.NewComparator(sem, config.CompareConfig{
		MaxAttempts:         2,
		InitialBackoff:      time.Millisecond,
		RequestTimeout:      time.Second,
		ProbeTimeout:        100 * time.Millisecond,
		TextSimilarity:      0.85,
		NameTokenSimilarity: 0.8,
		NameCoverage:        0.6,
		CurrencyTolerance:   0.01,
	}, log)
	return NewOrchestrator(nav, coord, comp, 3, log)
}

const companyPage = `<html><body>
	<h1 id="company-name">Acme Incorporated</h1>
	<table><tr><td id="revenue">$1,234.50</td></tr></table>
	<span id="email">contact@acme.example</span>
</body></html>`

func companyMappings() *model.MappingSet {
	return model.NewMappingSet([]model.FieldMapping{
		{SourceField: "name", TargetSelector: "#company-name", FieldType: model.FieldTypeName, Required: true},
		{SourceField: "revenue", TargetSelector: "#revenue", FieldType: model.FieldTypeCurrency, Required: true},
		{SourceField: "email", TargetSelector: "#email", FieldType: model.FieldTypeEmail},
	})
}

func companyRecord() model.Record {
	return model.NewRecord("row-1",
		[]string{"name", "revenue", "email"},
		[]string{"Acme Incorporated", "1234.50", "CONTACT@acme.example"},
	)
}

func TestProcessRecordHappyPath(t *testing.T) {
	o := newTestOrchestrator(&fakeNavigator{html: companyPage}, nil, &fakeSemantic{
		response: `{"match": true, "confidence": 0.9, "reasoning": "same"}`,
	})

	v := o.ProcessRecord(context.Background(), "https://acme.example/{name}", companyRecord(), companyMappings())

	require.Len(t, v.FieldDecisions, 3)
	assert.True(t, v.OverallMatch)
	assert.Greater(t, v.OverallConfidence, 0.9)
	assert.Empty(t, v.Errors)
	for _, d := range v.FieldDecisions {
		assert.True(t, d.Match, "field %s", d.Field)
	}
}

func TestProcessRecordNavigationFailure(t *testing.T) {
	o := newTestOrchestrator(&fakeNavigator{failFor: map[string]bool{"row-1": true}}, nil, nil)

	v := o.ProcessRecord(context.Background(), "https://acme.example", companyRecord(), companyMappings())

	assert.False(t, v.OverallMatch)
	assert.Empty(t, v.FieldDecisions)
	require.Len(t, v.Errors, 1)
	assert.Contains(t, v.Errors[0], "connection refused")
}

func TestProcessRecordRequiredFieldMissing(t *testing.T) {
	// The page lacks the revenue element; the required field's extraction
	// comes back empty, forcing a record-level non-match.
	page := `<html><body><h1 id="company-name">Acme Incorporated</h1>
		<span id="email">contact@acme.example</span></body></html>`
	o := newTestOrchestrator(&fakeNavigator{html: page}, nil, &fakeSemantic{
		response: `{"match": true, "confidence": 0.9, "reasoning": "same"}`,
	})

	v := o.ProcessRecord(context.Background(), "https://acme.example", companyRecord(), companyMappings())

	require.Len(t, v.FieldDecisions, 3)
	assert.False(t, v.OverallMatch)

	var revenue *model.ValidationDecision
	for i := range v.FieldDecisions {
		if v.FieldDecisions[i].Field == "revenue" {
			revenue = &v.FieldDecisions[i]
		}
	}
	require.NotNil(t, revenue)
	assert.False(t, revenue.Match)
	assert.Contains(t, revenue.Issues, compare.IssueExtractionEmpty)
}

func TestProcessRecordRecognitionEscalation(t *testing.T) {
	// Structural extraction finds nothing; the recognition channel returns a
	// low-confidence candidate. The pipeline must still emit a whole verdict
	// with the recognition result selected.
	page := `<html><body><p>nothing structured here</p></body></html>`
	rec := &fakeRecognizer{result: &ocr.Result{Text: "N/A", Confidence: 0.3}}
	o := newTestOrchestrator(&fakeNavigator{html: page, image: []byte{0x89}}, rec, &fakeSemantic{
		response: `{"match": false, "confidence": 0.4, "reasoning": "placeholder value"}`,
	})

	mappings := model.NewMappingSet([]model.FieldMapping{
		{SourceField: "name", TargetSelector: "#company-name", FieldType: model.FieldTypeText, Required: true, Strategy: model.StrategyHybrid},
	})
	record := model.NewRecord("row-1", []string{"name"}, []string{"Acme Incorporated"})

	v := o.ProcessRecord(context.Background(), "https://acme.example", record, mappings)

	require.Len(t, v.FieldDecisions, 1)
	assert.False(t, v.OverallMatch)
	assert.Empty(t, v.Errors)
}

func TestAggregate(t *testing.T) {
	mappings := model.NewMappingSet([]model.FieldMapping{
		{SourceField: "a", Required: true},
		{SourceField: "b"},
	})

	tests := []struct {
		name      string
		decisions []model.ValidationDecision
		wantMatch bool
		wantConf  float64
	}{
		{
			name: "required matches optional fails",
			decisions: []model.ValidationDecision{
				{Field: "a", Match: true, Confidence: 0.9},
				{Field: "b", Match: false, Confidence: 0.3},
			},
			wantMatch: true,
			wantConf:  0.6,
		},
		{
			name: "required fails",
			decisions: []model.ValidationDecision{
				{Field: "a", Match: false, Confidence: 0.2},
				{Field: "b", Match: true, Confidence: 0.8},
			},
			wantMatch: false,
			wantConf:  0.5,
		},
		{
			name:      "no decisions",
			decisions: nil,
			wantMatch: false,
			wantConf:  0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			match, conf := aggregate(tt.decisions, mappings)
			assert.Equal(t, tt.wantMatch, match)
			assert.InDelta(t, tt.wantConf, conf, 1e-9)
		})
	}
}

func TestBatchIsolatesRecordFailures(t *testing.T) {
	nav := &fakeNavigator{html: companyPage, failFor: map[string]bool{"row-2": true}}
	o := newTestOrchestrator(nav, nil, &fakeSemantic{
		response: `{"match": true, "confidence": 0.9, "reasoning": "same"}`,
	})
	sink := &recordingSink{}
	b := NewBatch(o, sink, 2, zap.NewNop())

	records := []model.Record{
		model.NewRecord("row-1", []string{"name", "revenue", "email"}, []string{"Acme Incorporated", "1234.50", "contact@acme.example"}),
		model.NewRecord("row-2", []string{"name", "revenue", "email"}, []string{"Globex", "99", "x@globex.example"}),
		model.NewRecord("row-3", []string{"name", "revenue", "email"}, []string{"Acme Incorporated", "1234.50", "contact@acme.example"}),
	}

	verdicts := b.Run(context.Background(), "run-1", "https://acme.example", records, companyMappings())

	require.Len(t, verdicts, 3)
	assert.Equal(t, "row-1", verdicts[0].RowID)
	assert.Equal(t, "row-2", verdicts[1].RowID)
	assert.Equal(t, "row-3", verdicts[2].RowID)

	assert.True(t, verdicts[0].OverallMatch)
	assert.False(t, verdicts[1].OverallMatch)
	assert.NotEmpty(t, verdicts[1].Errors)
	assert.True(t, verdicts[2].OverallMatch, "neighbor failure must not taint this record")

	assert.Len(t, sink.verdicts, 3)
}

func TestBatchSinkFailureIsNonFatal(t *testing.T) {
	o := newTestOrchestrator(&fakeNavigator{html: companyPage}, nil, &fakeSemantic{
		response: `{"match": true, "confidence": 0.9, "reasoning": "same"}`,
	})
	sink := &recordingSink{err: assert.AnError}
	b := NewBatch(o, sink, 1, zap.NewNop())

	verdicts := b.Run(context.Background(), "run-1", "https://acme.example",
		[]model.Record{companyRecord()}, companyMappings())

	require.Len(t, verdicts, 1)
	assert.True(t, verdicts[0].OverallMatch)
}

func TestSummarize(t *testing.T) {
	verdicts := []model.RecordVerdict{
		{OverallMatch: true, OverallConfidence: 0.9},
		{OverallMatch: false, OverallConfidence: 0.3, Errors: []string{"navigation failed"}},
		{OverallMatch: true, OverallConfidence: 0.6},
	}

	r := Summarize(verdicts, 1500)

	assert.Equal(t, 3, r.RecordsTotal)
	assert.Equal(t, 2, r.RecordsMatched)
	assert.Equal(t, 1, r.RecordsFailed)
	assert.InDelta(t, 0.6, r.MeanConfidence, 1e-9)
	assert.Equal(t, int64(1500), r.DurationMs)
}
