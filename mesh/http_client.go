package mesh

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"
)

const (
	// DefaultFetchTimeout bounds a single batch download.
	DefaultFetchTimeout = 30 * time.Second

	// DefaultMaxRetries is the number of attempts made for a batch.
	DefaultMaxRetries = 3

	defaultBaseBackoff = 500 * time.Millisecond

	// maxRetryAfter caps a server-supplied Retry-After.
	maxRetryAfter = 30 * time.Second

	// maxBatchBytes matches the POST /scans body limit.
	maxBatchBytes = 64 << 20
)

// FetchOption configures FetchMeshBatch behavior.
type FetchOption func(*fetchConfig)

type fetchConfig struct {
	timeout     time.Duration
	maxRetries  int
	baseBackoff time.Duration
	client      *http.Client
}

// WithTimeout sets the per-request timeout of the default client.
func WithTimeout(d time.Duration) FetchOption {
	return func(c *fetchConfig) { c.timeout = d }
}

// WithMaxRetries sets the total number of attempts.
func WithMaxRetries(n int) FetchOption {
	return func(c *fetchConfig) { c.maxRetries = n }
}

// WithBaseBackoff sets the first retry delay; later delays double.
func WithBaseBackoff(d time.Duration) FetchOption {
	return func(c *fetchConfig) { c.baseBackoff = d }
}

// WithHTTPClient replaces the default client.
func WithHTTPClient(client *http.Client) FetchOption {
	return func(c *fetchConfig) { c.client = client }
}

// fetchStatusError is a non-200 reply from the capture device.
type fetchStatusError struct {
	URL        string
	Code       int
	RetryAfter time.Duration
}

func (e *fetchStatusError) Error() string {
	return fmt.Sprintf("GET %s: status %d", e.URL, e.Code)
}

// retryable is true for 5xx, 408 and 429. Other 4xx replies are final.
func (e *fetchStatusError) retryable() bool {
	switch {
	case e.Code >= 500:
		return true
	case e.Code == http.StatusRequestTimeout, e.Code == http.StatusTooManyRequests:
		return true
	}
	return false
}

// FetchMeshBatch downloads and decodes a mesh batch (raw or compressed JSON)
// from a capture device or relay, e.g. "http://scanner.local/api/scans/latest".
func FetchMeshBatch(batchURL string, opts ...FetchOption) (*MeshBatch, error) {
	return FetchMeshBatchWithContext(context.Background(), batchURL, opts...)
}

// FetchMeshBatchWithContext is FetchMeshBatch with cancellation. Network
// failures, 5xx, 408 and 429 replies are retried with exponential backoff,
// or after the server's Retry-After when it sends one. Other client errors
// and undecodable bodies fail immediately.
func FetchMeshBatchWithContext(ctx context.Context, batchURL string, opts ...FetchOption) (*MeshBatch, error) {
	if batchURL == "" {
		return nil, fmt.Errorf("fetch batch: URL is empty")
	}

	cfg := fetchConfig{
		timeout:     DefaultFetchTimeout,
		maxRetries:  DefaultMaxRetries,
		baseBackoff: defaultBaseBackoff,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	attempts := max(cfg.maxRetries, 1)
	client := cfg.client
	if client == nil {
		client = &http.Client{Timeout: cfg.timeout}
	}

	var (
		lastErr error
		wait    time.Duration
	)
	for attempt := 1; attempt <= attempts; attempt++ {
		if attempt > 1 {
			logger().Debug("waiting before next batch download", "url", batchURL, "attempt", attempt, "wait", wait)
			select {
			case <-ctx.Done():
				return nil, fmt.Errorf("fetch batch: %w", ctx.Err())
			case <-time.After(wait):
			}
		}

		body, err := getBatch(ctx, client, batchURL)
		if err == nil {
			batch, err := DecodeMeshBatch(body)
			if err != nil {
				return nil, fmt.Errorf("fetch batch: %w", err)
			}
			return batch, nil
		}
		if ctx.Err() != nil {
			return nil, fmt.Errorf("fetch batch: %w", ctx.Err())
		}

		lastErr = err
		wait = cfg.baseBackoff << (attempt - 1)
		var statusErr *fetchStatusError
		if errors.As(err, &statusErr) {
			if !statusErr.retryable() {
				return nil, fmt.Errorf("fetch batch: %w", err)
			}
			if statusErr.RetryAfter > 0 {
				wait = statusErr.RetryAfter
			}
		}
		logger().Warn("batch download failed", "url", batchURL, "attempt", attempt, "error", err)
	}

	return nil, fmt.Errorf("fetch batch: all %d attempts failed: %w", attempts, lastErr)
}

// getBatch issues one GET and returns the body of a 200 reply.
func getBatch(ctx context.Context, client *http.Client, batchURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, batchURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))
		return nil, &fetchStatusError{
			URL:        batchURL,
			Code:       resp.StatusCode,
			RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After"), time.Now()),
		}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBatchBytes))
	if err != nil {
		return nil, fmt.Errorf("reading batch from %s: %w", batchURL, err)
	}
	return body, nil
}

// parseRetryAfter accepts delay-seconds or an HTTP date, capped at
// maxRetryAfter. Anything unparseable or in the past yields zero.
func parseRetryAfter(v string, now time.Time) time.Duration {
	if v == "" {
		return 0
	}
	var d time.Duration
	if secs, err := strconv.Atoi(v); err == nil {
		d = time.Duration(secs) * time.Second
	} else if at, err := http.ParseTime(v); err == nil {
		d = at.Sub(now)
	}
	return min(max(d, 0), maxRetryAfter)
}
