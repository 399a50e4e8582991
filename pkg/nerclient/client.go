// Package nerclient talks to the externally-served entity recognition
// model over HTTP. The service runs out of process; this client only
// submits text and reads back the per-field raw values.
package nerclient

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
)

const (
	defaultBaseURL = "http://localhost:8008"

	maxRetryAttempts = 3
	retryBaseDelay   = 500 * time.Millisecond
)

// Client performs extractions against the model service.
type Client interface {
	Extract(ctx context.Context, text string) (*ExtractResponse, error)
	Health(ctx context.Context) error
}

// ExtractRequest is the request body for POST /extract.
type ExtractRequest struct {
	Text string `json:"text"`
}

// ExtractResponse carries the raw field values the model found, verbatim
// from the input text, null for fields it did not find.
type ExtractResponse struct {
	Mileage *string `json:"mileage"`
	Year    *string `json:"year"`
	Power   *string `json:"power"`
	Fuel    *string `json:"fuel"`
}

// Option configures the client.
type Option func(*httpClient)

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

// NewClient creates a model service client. An empty baseURL uses the
// local default.
func NewClient(baseURL string, opts ...Option) Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	c := &httpClient{
		baseURL: baseURL,
		http: &http.Client{
			Timeout: 30 * time.Second,
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

func (c *httpClient) Extract(ctx context.Context, text string) (*ExtractResponse, error) {
	body, err := json.Marshal(ExtractRequest{Text: text})
	if err != nil {
		return nil, eris.Wrap(err, "nerclient: marshal request")
	}

	respBody, err := c.post(ctx, c.baseURL+"/extract", body)
	if err != nil {
		return nil, err
	}

	var result ExtractResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, eris.Wrap(err, "nerclient: unmarshal response")
	}
	return &result, nil
}

func (c *httpClient) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return eris.Wrap(err, "nerclient: create request")
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return eris.Wrap(err, "nerclient: send request")
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return eris.Errorf("nerclient: unexpected status %d", resp.StatusCode)
	}
	return nil
}

// post sends the body, retrying transient failures (network errors, 429,
// 5xx) with exponential backoff. Other 4xx responses fail immediately.
func (c *httpClient) post(ctx context.Context, url string, body []byte) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt < maxRetryAttempts; attempt++ {
		if attempt > 0 {
			delay := retryBaseDelay << (attempt - 1)
			select {
			case <-ctx.Done():
				return nil, eris.Wrap(ctx.Err(), "nerclient: retry aborted")
			case <-time.After(delay):
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
		if err != nil {
			return nil, eris.Wrap(err, "nerclient: create request")
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.http.Do(req)
		if err != nil {
			lastErr = eris.Wrap(err, "nerclient: send request")
			continue
		}

		respBody, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = eris.Wrap(err, "nerclient: read response")
			continue
		}

		if resp.StatusCode == http.StatusOK {
			return respBody, nil
		}
		lastErr = eris.Errorf("nerclient: unexpected status %d: %s", resp.StatusCode, string(respBody))
		if resp.StatusCode != http.StatusTooManyRequests && resp.StatusCode < 500 {
			return nil, lastErr
		}
	}
	return nil, lastErr
}
