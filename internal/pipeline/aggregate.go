package pipeline

import "github.com/sells-group/validate-cli/internal/model"

// aggregate combines field decisions into the record-level verdict.
// Overall confidence is the unweighted mean of all field confidences;
// overall match requires every required field to match. Non-required
// fields contribute confidence but never block the match.
func aggregate(decisions []model.ValidationDecision, mappings *model.MappingSet) (bool, float64) {
	if len(decisions) == 0 {
		return false, 0
	}

	match := true
	var sum float64
	for _, d := range decisions {
		sum += d.Confidence
		if m := mappings.ByField(d.Field); m != nil && m.Required && !d.Match {
			match = false
		}
	}
	return match, sum / float64(len(decisions))
}
