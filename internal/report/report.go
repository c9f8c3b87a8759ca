// Package report renders run results for humans and machines.
package report

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/validate-cli/internal/model"
)

// Markdown renders a validation run as a markdown document: a summary table
// followed by one section per non-matching record.
func Markdown(run *model.Run, verdicts []model.RecordVerdict) string {
	var b strings.Builder

	b.WriteString("# Validation Report\n\n")
	fmt.Fprintf(&b, "- Run: `%s`\n", run.ID)
	fmt.Fprintf(&b, "- Dataset: `%s`\n", run.Dataset)
	fmt.Fprintf(&b, "- URL template: `%s`\n", run.URLTemplate)
	if run.Result != nil {
		fmt.Fprintf(&b, "- Records: %d total, %d matched, %d failed\n",
			run.Result.RecordsTotal, run.Result.RecordsMatched, run.Result.RecordsFailed)
		fmt.Fprintf(&b, "- Mean confidence: %.2f\n", run.Result.MeanConfidence)
		fmt.Fprintf(&b, "- Duration: %dms\n", run.Result.DurationMs)
	}
	b.WriteString("\n## Records\n\n")
	b.WriteString("| Row | Match | Confidence | Errors |\n")
	b.WriteString("|-----|-------|------------|--------|\n")
	for _, v := range verdicts {
		fmt.Fprintf(&b, "| %s | %s | %.2f | %s |\n",
			v.RowID, matchMark(v.OverallMatch), v.OverallConfidence, strings.Join(v.Errors, "; "))
	}

	mismatches := nonMatching(verdicts)
	if len(mismatches) > 0 {
		b.WriteString("\n## Mismatches\n")
		for _, v := range mismatches {
			fmt.Fprintf(&b, "\n### Row %s\n\n", v.RowID)
			for _, e := range v.Errors {
				fmt.Fprintf(&b, "- error: %s\n", e)
			}
			for _, d := range v.FieldDecisions {
				if d.Match {
					continue
				}
				fmt.Fprintf(&b, "- **%s**: %q vs %q (confidence %.2f) %s\n",
					d.Field, d.NormalizedSource, d.NormalizedExtracted, d.Confidence, d.Reasoning)
				if len(d.Issues) > 0 {
					fmt.Fprintf(&b, "  - issues: %s\n", strings.Join(d.Issues, ", "))
				}
			}
		}
	}

	return b.String()
}

// JSON renders the run and its verdicts as one machine-readable document.
func JSON(run *model.Run, verdicts []model.RecordVerdict) (string, error) {
	doc := struct {
		Run      *model.Run            `json:"run"`
		Verdicts []model.RecordVerdict `json:"verdicts"`
	}{Run: run, Verdicts: verdicts}

	out, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", eris.Wrap(err, "report: marshal")
	}
	return string(out), nil
}

func matchMark(match bool) string {
	if match {
		return "yes"
	}
	return "NO"
}

func nonMatching(verdicts []model.RecordVerdict) []model.RecordVerdict {
	var out []model.RecordVerdict
	for _, v := range verdicts {
		if !v.OverallMatch {
			out = append(out, v)
		}
	}
	return out
}
