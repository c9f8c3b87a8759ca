// Package ocr provides a client for the text recognition service.
package ocr

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/validate-cli/internal/resilience"
)

const defaultBaseURL = "http://localhost:5000"

// Client performs text recognition against the OCR service.
type Client interface {
	Recognize(ctx context.Context, image []byte) (*Result, error)
	Healthy(ctx context.Context) error
}

// Result is the recognized text for one image region.
type Result struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
	Words      []Word  `json:"words"`
}

// Word is a single recognized token with its confidence and bounding box.
type Word struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
	BBox       [4]int  `json:"bbox"` // x, y, width, height
}

// Option configures the client.
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

type httpClient struct {
	baseURL string
	http    *http.Client
}

// NewClient creates an OCR service client.
func NewClient(opts ...Option) Client {
	c := &httpClient{
		baseURL: defaultBaseURL,
		http: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// extractRequest is the wire format for POST /extract. The service expects
// the image as base64, optionally with a data URI prefix.
type extractRequest struct {
	Image   string         `json:"image"`
	Options map[string]any `json:"options,omitempty"`
}

func (c *httpClient) Recognize(ctx context.Context, image []byte) (*Result, error) {
	if len(image) == 0 {
		return nil, eris.New("ocr: empty image")
	}

	body, err := json.Marshal(extractRequest{
		Image: base64.StdEncoding.EncodeToString(image),
	})
	if err != nil {
		return nil, eris.Wrap(err, "ocr: marshal request")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/extract", bytes.NewReader(body))
	if err != nil {
		return nil, eris.Wrap(err, "ocr: create request")
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, resilience.NewTransientError(eris.Wrap(err, "ocr: send request"), 0)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "ocr: read response")
	}

	if resp.StatusCode != http.StatusOK {
		err := eris.Errorf("ocr: unexpected status %d: %s", resp.StatusCode, string(respBody))
		if resilience.IsTransientHTTPStatus(resp.StatusCode) {
			return nil, resilience.NewTransientError(err, resp.StatusCode)
		}
		return nil, err
	}

	var result Result
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, eris.Wrap(err, "ocr: unmarshal response")
	}

	return &result, nil
}

func (c *httpClient) Healthy(ctx context.Context) error {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return eris.Wrap(err, "ocr: create health request")
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return eris.Wrap(err, "ocr: health request")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return eris.Errorf("ocr: health status %d", resp.StatusCode)
	}
	return nil
}
