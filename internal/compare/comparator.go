package compare

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/validate-cli/internal/config"
	"github.com/sells-group/validate-cli/internal/model"
	"github.com/sells-group/validate-cli/internal/resilience"
	"github.com/sells-group/validate-cli/pkg/semantic"
)

// Issue markers recorded on degraded decisions.
const (
	IssueExtractionEmpty    = "extraction_empty"
	IssueServiceUnreachable = "semantic_service_unreachable"
	IssueUnparsedResponse   = "unparsed_response"
)

// Comparator decides whether extracted values match their source values.
// Strongly typed fields are settled deterministically after normalization;
// free-form fields are escalated to the semantic service with retries and a
// liveness probe. Compare never fails: a dead service degrades to a
// conservative string-comparison fallback.
type Comparator struct {
	client semantic.Client
	policy resilience.Policy

	textSimilarity      float64
	nameTokenSimilarity float64
	nameCoverage        float64
	currencyTolerance   float64
	requestTimeout      time.Duration

	log *zap.Logger
}

// NewComparator builds a Comparator from configuration. client may be nil;
// every field then resolves through deterministic rules and the fallback.
func NewComparator(client semantic.Client, cfg config.CompareConfig, log *zap.Logger) *Comparator {
	if log == nil {
		log = zap.L()
	}

	policy := resilience.DefaultPolicy()
	if cfg.MaxAttempts > 0 {
		policy.MaxAttempts = cfg.MaxAttempts
	}
	if cfg.InitialBackoff > 0 {
		policy.InitialBackoff = cfg.InitialBackoff
	}
	if cfg.ProbeTimeout > 0 {
		policy.ProbeTimeout = cfg.ProbeTimeout
	}
	if client != nil {
		policy.Probe = client.Healthy
	}
	policy.OnRetry = resilience.RetryLogger(log, "semantic", "validate")

	c := &Comparator{
		client:              client,
		policy:              policy,
		textSimilarity:      cfg.TextSimilarity,
		nameTokenSimilarity: cfg.NameTokenSimilarity,
		nameCoverage:        cfg.NameCoverage,
		currencyTolerance:   cfg.CurrencyTolerance,
		requestTimeout:      cfg.RequestTimeout,
		log:                 log,
	}
	if c.textSimilarity <= 0 {
		c.textSimilarity = 0.85
	}
	if c.nameTokenSimilarity <= 0 {
		c.nameTokenSimilarity = 0.8
	}
	if c.nameCoverage <= 0 {
		c.nameCoverage = 0.6
	}
	if c.currencyTolerance <= 0 {
		c.currencyTolerance = 0.01
	}
	if c.requestTimeout <= 0 {
		c.requestTimeout = 30 * time.Second
	}
	return c
}

// Compare produces the validation decision for one field. An empty
// extraction is an automatic non-match; everything else is normalized and
// compared by field type.
func (c *Comparator) Compare(ctx context.Context, mapping model.FieldMapping, source string, extraction model.ExtractionResult) model.ValidationDecision {
	decision := model.ValidationDecision{Field: mapping.SourceField}

	if extraction.Value == nil {
		decision.Reasoning = "no value extracted from page"
		decision.Issues = append(decision.Issues, IssueExtractionEmpty)
		decision.NormalizedSource = Normalize(mapping.FieldType, source)
		return decision
	}

	normSrc := Normalize(mapping.FieldType, source)
	normExt := Normalize(mapping.FieldType, *extraction.Value)
	decision.NormalizedSource = normSrc
	decision.NormalizedExtracted = normExt

	// Canonical equality settles any type without a service call.
	if normSrc == normExt && normSrc != "" {
		decision.Match = true
		decision.Confidence = 0.95
		decision.Reasoning = "values identical after normalization"
		return decision
	}

	if rule, ok := c.applyRules(mapping.FieldType, normSrc, normExt); ok {
		decision.Match = rule.match
		decision.Confidence = clamp(rule.confidence)
		decision.Reasoning = rule.reasoning
		return decision
	}

	return c.semanticCompare(ctx, mapping, source, extraction, decision)
}

// applyRules runs the deterministic comparison for strongly typed fields.
// Text-like types return false so the semantic service gets the final word.
func (c *Comparator) applyRules(fieldType model.FieldType, normSrc, normExt string) (ruleDecision, bool) {
	switch fieldType {
	case model.FieldTypeName:
		return nameTokensMatch(normSrc, normExt, c.nameTokenSimilarity, c.nameCoverage), true
	case model.FieldTypeCurrency, model.FieldTypeNumber:
		if rule, ok := amountsMatch(normSrc, normExt, c.currencyTolerance); ok {
			return rule, true
		}
		return ruleDecision{}, false
	case model.FieldTypeEmail, model.FieldTypeDate, model.FieldTypePhone, model.FieldTypeBoolean:
		// Exact-after-canonicalization types: inequality is decisive.
		sim := textSimilarity(normSrc, normExt)
		return ruleDecision{
			match:      false,
			confidence: clamp(0.95 - sim*0.2),
			reasoning:  fmt.Sprintf("canonical %s values differ", fieldType),
		}, true
	default:
		return ruleDecision{}, false
	}
}

// semanticCompare escalates free-form fields to the validation service. The
// raw response goes through the interpretation ladder; an unreachable
// service degrades to a similarity fallback instead of an error.
func (c *Comparator) semanticCompare(ctx context.Context, mapping model.FieldMapping, source string, extraction model.ExtractionResult, decision model.ValidationDecision) model.ValidationDecision {
	if c.client == nil {
		return c.fallback(decision, IssueServiceUnreachable)
	}

	req := semantic.Request{
		SourceValue:    source,
		ExtractedValue: *extraction.Value,
		FieldType:      string(mapping.FieldType),
		FieldName:      mapping.SourceField,
	}

	raw, err := resilience.DoVal(ctx, c.policy, func(ctx context.Context) (string, error) {
		callCtx, cancel := context.WithTimeout(ctx, c.requestTimeout)
		defer cancel()
		return c.client.Validate(callCtx, req)
	})
	if err != nil {
		c.log.Warn("compare: semantic service unavailable, using fallback",
			zap.String("field", mapping.SourceField),
			zap.Error(err),
		)
		return c.fallback(decision, IssueServiceUnreachable)
	}

	parsed, ok := Interpret(raw)
	if !ok {
		return c.fallback(decision, IssueUnparsedResponse)
	}
	if parsed.Reasoning == "unparsed" {
		decision.Issues = append(decision.Issues, IssueUnparsedResponse)
	}

	decision.Match = parsed.Match
	decision.Confidence = clamp(parsed.Confidence)
	decision.Reasoning = parsed.Reasoning
	return decision
}

// fallback is the deterministic stand-in when the service gave no usable
// answer. Equal normalized strings earn a cautious match; anything else is
// a low-confidence non-match so a human reviews it.
func (c *Comparator) fallback(decision model.ValidationDecision, issue string) model.ValidationDecision {
	decision.Issues = append(decision.Issues, issue)
	if decision.NormalizedSource != "" && decision.NormalizedSource == decision.NormalizedExtracted {
		decision.Match = true
		decision.Confidence = 0.6
		decision.Reasoning = "fallback comparison: normalized values identical"
		return decision
	}
	decision.Match = false
	decision.Confidence = 0.2
	decision.Reasoning = "fallback comparison: values differ and semantic review was unavailable"
	// A near-miss under outage deserves a closer look once the service is back.
	if textSimilarity(decision.NormalizedSource, decision.NormalizedExtracted) >= c.textSimilarity {
		decision.Reasoning = "fallback comparison: values nearly identical but semantic review was unavailable"
	}
	return decision
}
