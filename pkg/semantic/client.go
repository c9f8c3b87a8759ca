package semantic

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/sells-group/validate-cli/internal/resilience"
)

const defaultBaseURL = "http://localhost:8000"

// Client performs semantic validation calls.
type Client interface {
	// Validate submits one comparison and returns the service's raw response
	// text. Callers own interpretation of the text; the client only
	// classifies transport-level failures.
	Validate(ctx context.Context, req Request) (string, error)

	// Healthy reports whether the service is ready to accept validation
	// requests. Used as a cheap pre-attempt liveness probe.
	Healthy(ctx context.Context) error
}

// Option configures the HTTP client.
type Option func(*httpClient)

// WithBaseURL overrides the default service base URL.
func WithBaseURL(url string) Option {
	return func(c *httpClient) {
		c.baseURL = url
	}
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithRateLimit sets a token-bucket limit on validation calls.
func WithRateLimit(perSec float64, burst int) Option {
	return func(c *httpClient) {
		if perSec > 0 && burst > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(perSec), burst)
		}
	}
}

type httpClient struct {
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
}

// NewClient creates a validation service client.
func NewClient(opts ...Option) Client {
	c := &httpClient{
		baseURL: defaultBaseURL,
		http: &http.Client{
			Timeout: 60 * time.Second,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 20,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *httpClient) Validate(ctx context.Context, req Request) (string, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return "", eris.Wrap(err, "semantic: rate limiter wait")
		}
	}

	body, err := json.Marshal(req)
	if err != nil {
		return "", eris.Wrap(err, "semantic: marshal request")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/validate", bytes.NewReader(body))
	if err != nil {
		return "", eris.Wrap(err, "semantic: create request")
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return "", resilience.NewTransientError(eris.Wrap(err, "semantic: send request"), 0)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", resilience.NewTransientError(eris.Wrap(err, "semantic: read response"), resp.StatusCode)
	}

	if resp.StatusCode != http.StatusOK {
		err := eris.Errorf("semantic: unexpected status %d: %s", resp.StatusCode, string(respBody))
		if resilience.IsTransientHTTPStatus(resp.StatusCode) {
			return "", resilience.NewTransientError(err, resp.StatusCode)
		}
		return "", err
	}

	return string(respBody), nil
}

// healthResponse mirrors the service's /health payload.
type healthResponse struct {
	Status      string `json:"status"`
	ModelLoaded bool   `json:"model_loaded"`
}

func (c *httpClient) Healthy(ctx context.Context) error {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return eris.Wrap(err, "semantic: create health request")
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return eris.Wrap(err, "semantic: health request")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return eris.Errorf("semantic: health status %d", resp.StatusCode)
	}

	var health healthResponse
	if err := json.NewDecoder(resp.Body).Decode(&health); err != nil {
		return eris.Wrap(err, "semantic: decode health response")
	}
	if !health.ModelLoaded {
		return eris.New("semantic: model not loaded")
	}
	return nil
}
