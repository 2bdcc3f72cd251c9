package papersources

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/helixir/literature-search-service/internal/domain"
)

// MaxResponseBytes caps the size of a response body read by Fetch.
const MaxResponseBytes = 10 << 20

// RequestObserver receives per-request telemetry. observability.Metrics
// satisfies it.
type RequestObserver interface {
	RecordSourceRequest(source, endpoint string, durationSeconds float64)
	RecordSourceRequestFailed(source, endpoint, errorType string)
	RecordSourceRateLimited(source string)
}

// HTTPClientConfig configures the HTTP client.
type HTTPClientConfig struct {
	// Source names the engine in errors and metrics.
	Source string

	// Timeout is the request timeout for HTTP operations.
	Timeout time.Duration

	// RateLimit is the maximum requests per second.
	RateLimit float64

	// BurstSize is the maximum burst of requests allowed.
	BurstSize int

	// MaxRetries is the maximum number of retry attempts.
	MaxRetries int

	// RetryDelay is the base delay between retries.
	RetryDelay time.Duration

	// UserAgent is the User-Agent header sent with requests.
	UserAgent string

	// Accept is sent as the Accept header when set.
	Accept string

	// Observer is notified of every request outcome. Optional.
	Observer RequestObserver
}

// HTTPClient wraps http.Client with rate limiting and retries.
// It implements Fetcher and is safe for concurrent use.
type HTTPClient struct {
	client      *http.Client
	rateLimiter *RateLimiter
	config      HTTPClientConfig
}

var _ Fetcher = (*HTTPClient)(nil)

// NewHTTPClient creates a new HTTP client with rate limiting.
func NewHTTPClient(cfg HTTPClientConfig) *HTTPClient {
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.RateLimit == 0 {
		cfg.RateLimit = 10
	}
	if cfg.BurstSize == 0 {
		cfg.BurstSize = 10
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.RetryDelay == 0 {
		cfg.RetryDelay = time.Second
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "Helixir-LiteratureSearch/1.0"
	}

	return &HTTPClient{
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
		rateLimiter: NewRateLimiter(cfg.RateLimit, cfg.BurstSize),
		config:      cfg,
	}
}

// Fetch performs a GET on rawURL and returns the response body.
// A non-2xx final status yields an ExternalAPIError.
func (c *HTTPClient) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if c.config.Accept != "" {
		req.Header.Set("Accept", c.config.Accept)
	}

	endpoint := req.URL.Path
	startTime := time.Now()

	resp, err := c.Do(req)
	if err != nil {
		c.observeFailure(endpoint, "transport")
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxResponseBytes))
	if err != nil {
		c.observeFailure(endpoint, "read_body")
		return nil, fmt.Errorf("read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.observeFailure(endpoint, "http_"+strconv.Itoa(resp.StatusCode))
		return nil, domain.NewExternalAPIError(c.config.Source, resp.StatusCode, truncate(string(body), 200), nil)
	}

	if c.config.Observer != nil {
		c.config.Observer.RecordSourceRequest(c.config.Source, endpoint, time.Since(startTime).Seconds())
	}
	return body, nil
}

// Do executes an HTTP request with rate limiting and retries on 429 and 5xx
// responses, honouring Retry-After when present.
func (c *HTTPClient) Do(req *http.Request) (*http.Response, error) {
	if req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", c.config.UserAgent)
	}

	var lastErr error
	for attempt := 0; attempt <= c.config.MaxRetries; attempt++ {
		if err := c.rateLimiter.Wait(req.Context()); err != nil {
			return nil, fmt.Errorf("rate limiter wait: %w", err)
		}

		resp, err := c.client.Do(req)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil, err
			}
			lastErr = fmt.Errorf("request failed: %w", err)
			if attempt < c.config.MaxRetries {
				if err := c.waitForRetry(req.Context(), c.config.RetryDelay); err != nil {
					return nil, err
				}
				continue
			}
			return nil, lastErr
		}

		if !c.shouldRetry(resp.StatusCode) {
			return resp, nil
		}

		if resp.StatusCode == http.StatusTooManyRequests && c.config.Observer != nil {
			c.config.Observer.RecordSourceRateLimited(c.config.Source)
		}

		// Last attempt: hand the response back so the caller sees the status.
		if attempt == c.config.MaxRetries {
			return resp, nil
		}

		retryDelay := c.getRetryDelay(resp)
		_, _ = io.Copy(io.Discard, resp.Body)
		resp.Body.Close()

		lastErr = fmt.Errorf("server returned status %d", resp.StatusCode)
		if err := c.waitForRetry(req.Context(), retryDelay); err != nil {
			return nil, err
		}
	}

	if lastErr != nil {
		return nil, lastErr
	}
	return nil, errors.New("no response received")
}

func (c *HTTPClient) shouldRetry(statusCode int) bool {
	if statusCode == http.StatusTooManyRequests {
		return true
	}
	return statusCode >= 500 && statusCode < 600
}

// getRetryDelay reads Retry-After as seconds or an HTTP date, falling back to
// the configured delay.
func (c *HTTPClient) getRetryDelay(resp *http.Response) time.Duration {
	retryAfter := resp.Header.Get("Retry-After")
	if retryAfter == "" {
		return c.config.RetryDelay
	}

	if seconds, err := strconv.ParseInt(retryAfter, 10, 64); err == nil {
		if seconds > 0 {
			return time.Duration(seconds) * time.Second
		}
		return c.config.RetryDelay
	}

	if t, err := http.ParseTime(retryAfter); err == nil {
		if delay := time.Until(t); delay > 0 {
			return delay
		}
	}

	return c.config.RetryDelay
}

func (c *HTTPClient) waitForRetry(ctx context.Context, delay time.Duration) error {
	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (c *HTTPClient) observeFailure(endpoint, errorType string) {
	if c.config.Observer != nil {
		c.config.Observer.RecordSourceRequestFailed(c.config.Source, endpoint, errorType)
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
