package identitysdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Client is a client for the Vitrine identity service. It covers the
// unauthenticated protocol endpoints plus the bearer-token session surface.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client

	// MobileDigits configures client-side classification. Zero means
	// DefaultMobileDigits.
	MobileDigits int
}

// NewClient creates an identity service client.
func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Classify tags a raw identifier using the client's configured mobile digit
// count.
func (c *Client) Classify(raw string) Identifier {
	return Classify(raw, c.MobileDigits)
}

func (c *Client) url(path string) string {
	return c.BaseURL + path
}

// envelope carries the fields every response shares. Endpoint payloads
// embed it.
type envelope struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
	RetryIn int    `json:"retry_in"`
}

// statusEnvelope is implemented by response payloads so doJSON can apply
// the shared status convention.
type statusEnvelope interface {
	env() envelope
}

func (e envelope) env() envelope { return e }

// doJSON sends a request with an optional JSON body and decodes the
// response payload. Failure envelopes come back as typed errors; callers
// only see decoded payloads for status 1 and 2.
func (c *Client) doJSON(ctx context.Context, method, path, bearer string, body, out any) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.url(path), reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	se, ok := out.(statusEnvelope)
	if !ok {
		return nil
	}
	if e := se.env(); e.Status == StatusFailure {
		if resp.StatusCode == http.StatusTooManyRequests && e.RetryIn > 0 {
			return &RateLimitedError{
				RetryIn: time.Duration(e.RetryIn) * time.Second,
				Message: e.Message,
			}
		}
		return &APIError{StatusCode: resp.StatusCode, Message: e.Message}
	}
	return nil
}
