package model

import "time"

// ExtractionMethod identifies which channel produced an extraction result.
type ExtractionMethod string

const (
	MethodStructural  ExtractionMethod = "structural"
	MethodRecognition ExtractionMethod = "recognition"
)

// ExtractionResult is the outcome of extracting one field from one page.
// Created once per field per record; a new result supersedes rather than
// edits. Value is nil when neither channel produced anything; that is a
// valid negative outcome, not an error.
type ExtractionResult struct {
	Field       string           `json:"field"`
	Value       *string          `json:"value"`
	Confidence  float64          `json:"confidence"`
	Method      ExtractionMethod `json:"method"`
	RawArtifact string           `json:"raw_artifact,omitempty"`
}

// Extracted returns the extracted value or "" when the extraction was empty.
func (r ExtractionResult) Extracted() string {
	if r.Value == nil {
		return ""
	}
	return *r.Value
}

// ValidationDecision is the comparator's verdict for a single field.
// Produced exactly once per field; immutable.
type ValidationDecision struct {
	Field               string   `json:"field"`
	Match               bool     `json:"match"`
	Confidence          float64  `json:"confidence"`
	Reasoning           string   `json:"reasoning"`
	NormalizedSource    string   `json:"normalized_source"`
	NormalizedExtracted string   `json:"normalized_extracted"`
	Issues              []string `json:"issues,omitempty"`
}

// RecordVerdict is the terminal per-record outcome. Emitted whole to the
// evidence and report sinks, never partially.
type RecordVerdict struct {
	RowID             string               `json:"row_id"`
	OverallMatch      bool                 `json:"overall_match"`
	OverallConfidence float64              `json:"overall_confidence"`
	FieldDecisions    []ValidationDecision `json:"field_decisions"`
	Errors            []string             `json:"errors,omitempty"`
	ProcessingTimeMs  int64                `json:"processing_time_ms"`
}

// RecordState is the pipeline phase a record is in. Transitions are
// one-directional; retries happen inside a state, never across states.
type RecordState string

const (
	StateIdle        RecordState = "idle"
	StateNavigating  RecordState = "navigating"
	StateExtracting  RecordState = "extracting"
	StateComparing   RecordState = "comparing"
	StateAggregating RecordState = "aggregating"
	StateCompleted   RecordState = "completed"
	StateFailed      RecordState = "failed"
)

// RunStatus tracks a whole validation run across all records.
type RunStatus string

const (
	RunStatusQueued   RunStatus = "queued"
	RunStatusRunning  RunStatus = "running"
	RunStatusComplete RunStatus = "complete"
	RunStatusFailed   RunStatus = "failed"
)

// Run is one validation run over a dataset.
type Run struct {
	ID          string     `json:"id"`
	Dataset     string     `json:"dataset"`
	URLTemplate string     `json:"url_template"`
	Status      RunStatus  `json:"status"`
	Result      *RunResult `json:"result,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// RunResult summarizes a completed run.
type RunResult struct {
	RecordsTotal   int     `json:"records_total"`
	RecordsMatched int     `json:"records_matched"`
	RecordsFailed  int     `json:"records_failed"`
	MeanConfidence float64 `json:"mean_confidence"`
	DurationMs     int64   `json:"duration_ms"`
	Report         string  `json:"report,omitempty"`
}
