package navigate

import (
	"context"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/validate-cli/internal/model"
)

// HTTPOptions configures the HTTP navigator.
type HTTPOptions struct {
	Timeout   time.Duration
	UserAgent string
}

// HTTPNavigator loads pages over plain HTTP. It cannot produce screenshots;
// fields that need the recognition channel require a rendering navigator.
type HTTPNavigator struct {
	client *http.Client
	opts   HTTPOptions
	log    *zap.Logger
}

// NewHTTPNavigator creates an HTTP navigator with the given options.
func NewHTTPNavigator(opts HTTPOptions, log *zap.Logger) *HTTPNavigator {
	if opts.Timeout == 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.UserAgent == "" {
		opts.UserAgent = "validate-cli/1.0"
	}
	if log == nil {
		log = zap.L()
	}
	return &HTTPNavigator{
		client: &http.Client{
			Timeout: opts.Timeout,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		opts: opts,
		log:  log,
	}
}

// Navigate resolves the URL template for the record and fetches the page.
// Any transport failure or non-2xx status yields a NavigationError.
func (n *HTTPNavigator) Navigate(ctx context.Context, urlTemplate string, record model.Record) (*PageSnapshot, error) {
	target := ResolveURL(n.log, urlTemplate, record)
	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, &NavigationError{URL: target, Reason: err.Error()}
	}
	req.Header.Set("User-Agent", n.opts.UserAgent)

	resp, err := n.client.Do(req)
	if err != nil {
		return nil, &NavigationError{URL: target, Reason: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &NavigationError{URL: target, Reason: "status " + resp.Status}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &NavigationError{URL: target, Reason: "read body: " + err.Error()}
	}

	loadMs := time.Since(start).Milliseconds()
	n.log.Debug("navigate: page loaded",
		zap.String("url", resp.Request.URL.String()),
		zap.Int("status", resp.StatusCode),
		zap.Int64("load_ms", loadMs),
	)

	return &PageSnapshot{
		FinalURL:   resp.Request.URL.String(),
		StatusCode: resp.StatusCode,
		HTML:       string(body),
		LoadTimeMs: loadMs,
	}, nil
}
