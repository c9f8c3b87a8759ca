package report

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/validate-cli/internal/model"
)

func sampleRun() (*model.Run, []model.RecordVerdict) {
	run := &model.Run{
		ID:          "run-1",
		Dataset:     "companies.csv",
		URLTemplate: "https://example.com/{id}",
		Status:      model.RunStatusComplete,
		Result: &model.RunResult{
			RecordsTotal:   2,
			RecordsMatched: 1,
			RecordsFailed:  0,
			MeanConfidence: 0.7,
			DurationMs:     1234,
		},
	}
	verdicts := []model.RecordVerdict{
		{
			RowID:             "row-1",
			OverallMatch:      true,
			OverallConfidence: 0.95,
			FieldDecisions: []model.ValidationDecision{
				{Field: "name", Match: true, Confidence: 0.95},
			},
		},
		{
			RowID:             "row-2",
			OverallMatch:      false,
			OverallConfidence: 0.45,
			FieldDecisions: []model.ValidationDecision{
				{Field: "name", Match: true, Confidence: 0.9},
				{
					Field: "revenue", Match: false, Confidence: 0.2,
					NormalizedSource: "100", NormalizedExtracted: "250",
					Reasoning: "relative difference 0.6000 exceeds tolerance",
					Issues:    []string{"semantic_service_unreachable"},
				},
			},
		},
	}
	return run, verdicts
}

func TestMarkdown(t *testing.T) {
	run, verdicts := sampleRun()

	md := Markdown(run, verdicts)

	assert.Contains(t, md, "# Validation Report")
	assert.Contains(t, md, "`run-1`")
	assert.Contains(t, md, "2 total, 1 matched")
	assert.Contains(t, md, "| row-1 | yes | 0.95 |")
	assert.Contains(t, md, "| row-2 | NO | 0.45 |")
	assert.Contains(t, md, "### Row row-2")
	assert.Contains(t, md, "**revenue**")
	assert.Contains(t, md, "semantic_service_unreachable")
	// Matching fields stay out of the mismatch detail.
	assert.NotContains(t, md, "### Row row-1")
}

func TestJSON(t *testing.T) {
	run, verdicts := sampleRun()

	out, err := JSON(run, verdicts)
	require.NoError(t, err)

	var doc struct {
		Run      model.Run             `json:"run"`
		Verdicts []model.RecordVerdict `json:"verdicts"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &doc))
	assert.Equal(t, "run-1", doc.Run.ID)
	require.Len(t, doc.Verdicts, 2)
	assert.False(t, doc.Verdicts[1].OverallMatch)
}
