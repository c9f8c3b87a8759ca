// Package semantic provides clients for the semantic validation service.
//
// The service compares a source value against a value extracted from a web
// page and judges whether they represent the same information. Backends are
// interchangeable: the default talks to a local validation server over HTTP;
// an alternate backend prompts Claude directly with the same contract.
package semantic

// Request carries one field comparison to the validation service.
type Request struct {
	SourceValue    string `json:"csv_value"`
	ExtractedValue string `json:"web_value"`
	FieldType      string `json:"field_type"`
	FieldName      string `json:"field_name"`
}

// Decision is the service's expected structured response. Responses are not
// guaranteed to conform, so callers must treat the raw text as authoritative
// and parse defensively.
type Decision struct {
	Match      bool    `json:"match"`
	Confidence float64 `json:"confidence"`
	Reasoning  string  `json:"reasoning"`
}
