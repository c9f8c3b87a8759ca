package extract

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/validate-cli/internal/model"
	"github.com/sells-group/validate-cli/pkg/ocr"
)

// Recognize runs the image-based channel for one field. The hint is the
// record's source value; recognized text is scored by how closely any
// candidate line matches the hint, blended with the recognizer's own token
// confidence. No screenshot or an empty recognition yields the zero result.
func Recognize(ctx context.Context, client ocr.Client, log *zap.Logger, mapping model.FieldMapping, image []byte, hint string) model.ExtractionResult {
	result := model.ExtractionResult{
		Field:  mapping.SourceField,
		Method: model.MethodRecognition,
	}

	if client == nil || len(image) == 0 {
		return result
	}

	rec, err := client.Recognize(ctx, image)
	if err != nil {
		log.Warn("extract: recognition failed",
			zap.String("field", mapping.SourceField),
			zap.Error(err),
		)
		return result
	}
	if rec == nil || strings.TrimSpace(rec.Text) == "" {
		return result
	}

	value, score := bestCandidate(rec, hint)
	if value == "" {
		return result
	}

	result.Value = &value
	result.Confidence = clamp(score)
	result.RawArtifact = rec.Text
	return result
}

// bestCandidate picks the recognized line closest to the hint. With no hint
// to anchor on, the whole recognized text is used and scored purely by the
// recognizer's confidence.
func bestCandidate(rec *ocr.Result, hint string) (string, float64) {
	tokenConf := rec.Confidence
	if tokenConf <= 0 {
		tokenConf = meanWordConfidence(rec.Words)
	}

	hint = strings.TrimSpace(hint)
	if hint == "" {
		return strings.TrimSpace(rec.Text), tokenConf
	}

	best := ""
	bestSim := 0.0
	for _, line := range strings.Split(rec.Text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if sim := Similarity(line, hint); sim > bestSim {
			bestSim = sim
			best = line
		}
	}
	if best == "" {
		return "", 0
	}

	// Blend match quality with the recognizer's own confidence.
	return best, 0.5*bestSim + 0.5*tokenConf
}

func meanWordConfidence(words []ocr.Word) float64 {
	if len(words) == 0 {
		return 0.5
	}
	var sum float64
	for _, w := range words {
		sum += w.Confidence
	}
	return sum / float64(len(words))
}

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
