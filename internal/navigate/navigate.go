// Package navigate resolves URL templates against records and loads the
// resulting pages.
package navigate

import (
	"context"
	"errors"
	"fmt"

	"github.com/sells-group/validate-cli/internal/model"
)

// PageSnapshot is the loaded target page for one record. HTML carries the
// structured content for selector queries; Screenshot, when a navigator can
// supply one, carries the rendered image for the recognition channel.
type PageSnapshot struct {
	FinalURL   string
	StatusCode int
	HTML       string
	Screenshot []byte
	LoadTimeMs int64
}

// Navigator locates and loads the target page for a record.
type Navigator interface {
	Navigate(ctx context.Context, urlTemplate string, record model.Record) (*PageSnapshot, error)
}

// NavigationError is fatal for the record it occurred on: no further phases
// run, but other records are unaffected.
type NavigationError struct {
	URL    string
	Reason string
}

func (e *NavigationError) Error() string {
	return fmt.Sprintf("navigation failed for %s: %s", e.URL, e.Reason)
}

// IsNavigationError reports whether err is (or wraps) a NavigationError.
func IsNavigationError(err error) bool {
	var ne *NavigationError
	return errors.As(err, &ne)
}
