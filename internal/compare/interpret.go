package compare

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"

	"github.com/sells-group/validate-cli/pkg/semantic"
)

// interpreter attempts to recover a Decision from raw service output.
// Interpreters run in order; the first success wins.
type interpreter func(text string) (*semantic.Decision, bool)

var interpreters = []interpreter{
	parseDirect,
	parseBraced,
	parseRepaired,
	parsePatterns,
}

// Interpret turns the raw text of a semantic response into a Decision.
// Well-formed JSON parses directly; degraded responses fall through a
// ladder of increasingly lenient readers. The final pattern reader always
// produces a decision, so the second return is false only for blank input.
func Interpret(text string) (*semantic.Decision, bool) {
	if strings.TrimSpace(text) == "" {
		return nil, false
	}
	for _, in := range interpreters {
		if d, ok := in(text); ok {
			d.Confidence = clamp(d.Confidence)
			return d, true
		}
	}
	return nil, false
}

// rawDecision distinguishes absent keys from zero values.
type rawDecision struct {
	Match      *bool    `json:"match"`
	Confidence *float64 `json:"confidence"`
	Reasoning  string   `json:"reasoning"`
}

func (r rawDecision) decision() (*semantic.Decision, bool) {
	if r.Match == nil {
		return nil, false
	}
	d := &semantic.Decision{Match: *r.Match, Confidence: 0.5, Reasoning: r.Reasoning}
	if r.Confidence != nil {
		d.Confidence = *r.Confidence
	}
	return d, true
}

// parseDirect handles a response that is exactly one JSON object.
func parseDirect(text string) (*semantic.Decision, bool) {
	var raw rawDecision
	if err := json.Unmarshal([]byte(strings.TrimSpace(text)), &raw); err != nil {
		return nil, false
	}
	return raw.decision()
}

// parseBraced scans for the first balanced brace-delimited substring and
// parses it. Covers responses that wrap the object in prose or code fences.
func parseBraced(text string) (*semantic.Decision, bool) {
	candidate, ok := firstBalancedObject(text)
	if !ok {
		return nil, false
	}
	var raw rawDecision
	if err := json.Unmarshal([]byte(candidate), &raw); err != nil {
		return nil, false
	}
	return raw.decision()
}

// firstBalancedObject returns the first {...} substring with balanced
// braces, tracking string literals so braces inside them do not count.
func firstBalancedObject(text string) (string, bool) {
	start := -1
	depth := 0
	inString := false
	escaped := false
	for i, r := range text {
		if inString {
			switch {
			case escaped:
				escaped = false
			case r == '\\':
				escaped = true
			case r == '"':
				inString = false
			}
			continue
		}
		switch r {
		case '"':
			inString = true
		case '{':
			if depth == 0 {
				start = i
			}
			depth++
		case '}':
			if depth == 0 {
				continue
			}
			depth--
			if depth == 0 {
				return text[start : i+1], true
			}
		}
	}
	return "", false
}

var (
	trailingCommaRe = regexp.MustCompile(`,\s*([}\]])`)
	bareKeyRe       = regexp.MustCompile(`([{,]\s*)([A-Za-z_][A-Za-z0-9_]*)(\s*:)`)
	curlyQuotes     = strings.NewReplacer("“", `"`, "”", `"`, "‘", "'", "’", "'")
)

// parseRepaired applies textual repairs common in model output, then retries
// the braced parse: smart quotes straightened, trailing commas dropped,
// bare keys quoted.
func parseRepaired(text string) (*semantic.Decision, bool) {
	repaired := curlyQuotes.Replace(text)
	repaired = trailingCommaRe.ReplaceAllString(repaired, "$1")
	repaired = bareKeyRe.ReplaceAllString(repaired, `$1"$2"$3`)
	return parseBraced(repaired)
}

var (
	matchRe      = regexp.MustCompile(`(?i)["']?match["']?\s*[:=]?\s*(true|false|yes|no)`)
	confidenceRe = regexp.MustCompile(`(?i)["']?confidence["']?\s*[:=]?\s*(1(?:\.0+)?|0?\.\d+|0|1)`)
	reasoningRe  = regexp.MustCompile(`(?i)(?:["']?reasoning["']?\s*[:=]|because)\s*["']?([^"'\n{}]+)`)
)

// parsePatterns is the last rung: scrape match/confidence/reasoning out of
// free text. Missing pieces default conservatively to a low-confidence
// non-match.
func parsePatterns(text string) (*semantic.Decision, bool) {
	d := &semantic.Decision{Match: false, Confidence: 0.5, Reasoning: "unparsed"}

	if m := matchRe.FindStringSubmatch(text); m != nil {
		v := strings.ToLower(m[1])
		d.Match = v == "true" || v == "yes"
	}
	if m := confidenceRe.FindStringSubmatch(text); m != nil {
		if v, err := strconv.ParseFloat(m[1], 64); err == nil {
			d.Confidence = v
		}
	}
	if m := reasoningRe.FindStringSubmatch(text); m != nil {
		d.Reasoning = strings.TrimSpace(m[1])
	}
	return d, true
}
