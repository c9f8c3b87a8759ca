package navigate

import (
	"net/url"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/validate-cli/internal/model"
)

var placeholderRe = regexp.MustCompile(`\{([^{}]+)\}`)

// ResolveURL substitutes {column} placeholders in the template with
// URL-encoded record values. An unresolved placeholder is left intact and
// logged as a warning rather than treated as fatal; the navigator will report
// the real failure if the resulting URL is unreachable.
func ResolveURL(log *zap.Logger, template string, record model.Record) string {
	return placeholderRe.ReplaceAllStringFunc(template, func(match string) string {
		column := strings.TrimSpace(match[1 : len(match)-1])
		if !record.Has(column) {
			log.Warn("url template: unresolved placeholder",
				zap.String("placeholder", column),
				zap.String("row_id", record.RowID),
			)
			return match
		}
		return url.QueryEscape(record.Value(column))
	})
}
