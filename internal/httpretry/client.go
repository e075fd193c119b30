// Package httpretry wraps outbound HTTP calls to third-party APIs with bounded
// linear-backoff retries and an optional circuit breaker.
package httpretry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

const (
	DefaultMaxRetries = 2
	DefaultRetryDelay = 300 * time.Millisecond
	DefaultTimeout    = 10 * time.Second

	maxBodyBytes = 4 << 20
)

// StatusError is returned when the upstream answers with a non-2xx status.
type StatusError struct {
	StatusCode int
	URL        string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("upstream %s responded with status %d", e.URL, e.StatusCode)
}

// Config controls retry behaviour. MaxRetries counts attempts after the first.
type Config struct {
	Timeout    time.Duration
	MaxRetries int
	RetryDelay time.Duration
	Breaker    *gobreaker.CircuitBreaker
}

// DefaultConfig returns the stock policy: 2 retries, 300ms linear backoff, 10s per call.
func DefaultConfig() Config {
	return Config{
		Timeout:    DefaultTimeout,
		MaxRetries: DefaultMaxRetries,
		RetryDelay: DefaultRetryDelay,
	}
}

// Client performs HTTP requests with retries. It keeps no state between calls
// apart from the optional circuit breaker.
type Client struct {
	httpClient *http.Client
	maxRetries int
	retryDelay time.Duration
	breaker    *gobreaker.CircuitBreaker
	logger     *zap.Logger
	sleep      func(ctx context.Context, d time.Duration) error
}

// New creates a retrying client. A nil logger disables logging.
func New(cfg Config, logger *zap.Logger) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.RetryDelay < 0 {
		cfg.RetryDelay = 0
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		maxRetries: cfg.MaxRetries,
		retryDelay: cfg.RetryDelay,
		breaker:    cfg.Breaker,
		logger:     logger,
		sleep:      sleepContext,
	}
}

// NewBreaker creates a circuit breaker that opens after five consecutive
// retryable failures and probes the upstream again after 30 seconds.
func NewBreaker(name string, logger *zap.Logger) *gobreaker.CircuitBreaker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("Circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})
}

// Retryable reports whether err may succeed on another attempt: transport
// failures without a status, and 5xx responses. Open breakers and
// cancellation are final.
func Retryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode >= 500 && statusErr.StatusCode < 600
	}
	return true
}

// GetJSON issues a GET to rawURL and decodes the JSON body into out.
func (c *Client) GetJSON(ctx context.Context, rawURL string, out interface{}) error {
	body, err := c.Do(ctx, func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")
		return req, nil
	})
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// Do runs the request built by buildRequest, retrying retryable failures with
// a delay of RetryDelay*attempt. Once retries are used up the last error is
// returned as is.
func (c *Client) Do(ctx context.Context, buildRequest func(ctx context.Context) (*http.Request, error)) ([]byte, error) {
	var lastErr error

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			delay := c.retryDelay * time.Duration(attempt)
			c.logger.Debug("Retrying upstream request",
				zap.Int("attempt", attempt),
				zap.Duration("delay", delay),
				zap.Error(lastErr),
			)
			if err := c.sleep(ctx, delay); err != nil {
				return nil, err
			}
		}

		req, err := buildRequest(ctx)
		if err != nil {
			return nil, err
		}

		body, err := c.execute(req)
		if err == nil {
			return body, nil
		}
		lastErr = err

		if !Retryable(err) || ctx.Err() != nil {
			break
		}
	}

	return nil, lastErr
}

type response struct {
	status int
	body   []byte
}

func (c *Client) execute(req *http.Request) ([]byte, error) {
	run := func() (interface{}, error) {
		resp, err := c.httpClient.Do(req)
		if err != nil {
			var urlErr *url.Error
			if errors.As(err, &urlErr) {
				urlErr.URL = redactedURL(req)
			}
			return nil, err
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
		if err != nil {
			return nil, err
		}
		// Only server-side failures count against the breaker
		if resp.StatusCode >= 500 {
			return nil, &StatusError{StatusCode: resp.StatusCode, URL: redactedURL(req)}
		}
		return &response{status: resp.StatusCode, body: body}, nil
	}

	var (
		out interface{}
		err error
	)
	if c.breaker != nil {
		out, err = c.breaker.Execute(run)
	} else {
		out, err = run()
	}
	if err != nil {
		return nil, err
	}

	res := out.(*response)
	if res.status < 200 || res.status >= 300 {
		return nil, &StatusError{StatusCode: res.status, URL: redactedURL(req)}
	}
	return res.body, nil
}

// redactedURL drops the query string, which may carry API keys.
func redactedURL(req *http.Request) string {
	u := *req.URL
	u.RawQuery = ""
	return u.String()
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
