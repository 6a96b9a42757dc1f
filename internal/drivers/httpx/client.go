// Package httpx is the shared HTTP plumbing for data-source drivers:
// a JSON client with proactive per-source rate limiting and uniform
// classification of response failures as retryable or terminal.
package httpx

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/custodia-labs/prospect-cli/internal/core/domain"
)

// maxErrorBody bounds how much of an error response body is kept for
// diagnostics.
const maxErrorBody = 512

// StatusError reports a non-2xx response.
type StatusError struct {
	Code int
	Body string
}

// Error implements the error interface.
func (e *StatusError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("unexpected status %d: %s", e.Code, e.Body)
	}
	return fmt.Sprintf("unexpected status %d", e.Code)
}

// Client is a JSON HTTP client shared by driver implementations. Each
// driver owns one, so the token bucket throttles a single source without
// coupling sources to each other.
type Client struct {
	http    *http.Client
	limiter *rate.Limiter
}

// New creates a client throttled to rps requests per second.
func New(rps float64, burst int) *Client {
	return &Client{
		http:    &http.Client{},
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
	}
}

// GetJSON performs a rate-limited GET and decodes the JSON response into v.
func (c *Client) GetJSON(ctx context.Context, url string, header http.Header, v any) error {
	return c.doJSON(ctx, http.MethodGet, url, nil, header, v)
}

// PostJSON performs a rate-limited POST with a JSON body and decodes the
// JSON response into v.
func (c *Client) PostJSON(ctx context.Context, url string, body any, header http.Header, v any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return domain.Terminalf("encode request: %v", err)
	}
	return c.doJSON(ctx, http.MethodPost, url, payload, header, v)
}

func (c *Client) doJSON(ctx context.Context, method, url string, body []byte, header http.Header, v any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		// Wait also refuses outright when the bucket delay would overrun
		// the attempt deadline. The caller has not aborted; the attempt
		// ran out of time, which is a retryable condition.
		return domain.Transient(err)
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return domain.Terminalf("build request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for key, values := range header {
		for _, value := range values {
			req.Header.Add(key, value)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		// Network-level failures (resets, DNS, TLS) are worth retrying.
		return domain.Transient(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return classifyStatus(resp)
	}

	if v == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return domain.Terminalf("decode response: %v", err)
	}
	return nil
}

// classifyStatus maps a non-2xx response to a classified failure.
// Auth rejections and client errors are terminal; rate limits and server
// errors are transient.
func classifyStatus(resp *http.Response) error {
	snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	statusErr := &StatusError{Code: resp.StatusCode, Body: string(bytes.TrimSpace(snippet))}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		if d := retryAfter(resp); d > 0 {
			return domain.Transientf("%w after %s: %v", domain.ErrRateLimited, d, statusErr)
		}
		return domain.Transientf("%w: %v", domain.ErrRateLimited, statusErr)
	case resp.StatusCode == http.StatusUnauthorized, resp.StatusCode == http.StatusForbidden:
		return domain.Terminal(statusErr)
	case resp.StatusCode >= 500:
		return domain.Transient(statusErr)
	default:
		return domain.Terminal(statusErr)
	}
}

// retryAfter parses the Retry-After header, if present.
func retryAfter(resp *http.Response) time.Duration {
	raw := resp.Header.Get("Retry-After")
	if raw == "" {
		return 0
	}
	var seconds int
	if _, err := fmt.Sscanf(raw, "%d", &seconds); err != nil || seconds < 0 {
		return 0
	}
	return time.Duration(seconds) * time.Second
}

// IsStatus reports whether err carries a StatusError with the given code.
// Drivers use it to turn "defined absence" responses (e.g. a 404 from an
// entity lookup) into successful empty results.
func IsStatus(err error, code int) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Code == code
}
