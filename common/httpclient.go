package common

import (
	"errors"
	"fmt"
	"math/rand"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
)

// HttpClient is an interface for HTTP operations with optional retry logic.
// This allows mocking or custom transport layers in testing.
type HttpClient interface {
	Do(req *http.Request) (*http.Response, error)
	CloseIdleConnections()
	RetryWithExponentialBackoff(operation func() (interface{}, error)) (interface{}, error)
	SetRandAndSleepForTest(sleep func(d time.Duration), seed int64)
}

// RequestIDHeader carries the per-request correlation id.
const RequestIDHeader = "X-Request-ID"

// NewRequestID returns a fresh correlation id for RequestIDHeader.
func NewRequestID() string {
	return uuid.New().String()
}

// HTTPError is a custom error that captures unexpected status codes and response bodies.
type HTTPError struct {
	StatusCode int
	Body       []byte
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("unexpected status code: %d, body: %s", e.StatusCode, string(e.Body))
}

// TransportError marks a request that was sent but never produced a usable response.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("request failed: %v", e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// userAgentRoundTripper is a custom RoundTripper that adds a User-Agent header.
type userAgentRoundTripper struct {
	Wrapped   http.RoundTripper
	UserAgent string
}

func (rt *userAgentRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	// clone request to avoid mutating the original
	clone := req.Clone(req.Context())
	clone.Header.Set("User-Agent", rt.UserAgent)
	return rt.Wrapped.RoundTrip(clone)
}

// Implementation of HttpClient that wraps a standard *http.Client with retry logic.
type httpClient struct {
	client    *http.Client
	sleepFunc func(d time.Duration)

	mu  sync.Mutex
	rng *rand.Rand
}

// DefaultTimeout is applied when NewHttpClient is given a non-positive timeout.
const DefaultTimeout = 10 * time.Second

// NewHttpClient returns a new HttpClient with the given timeout, a custom User-Agent
// and span attributes recorded for every round trip. With logging set, round trips
// outside a recording span are logged at debug level instead.
func NewHttpClient(userAgent string, base *http.Client, timeout time.Duration, logging bool) HttpClient {
	if base == nil {
		base = &http.Client{}
	}
	if base.Transport == nil {
		base.Transport = http.DefaultTransport
	}
	base.Transport = &tracingRoundTripper{
		Wrapped: &userAgentRoundTripper{
			Wrapped:   base.Transport,
			UserAgent: userAgent,
		},
		LogFallback: logging,
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	base.Timeout = timeout

	return &httpClient{
		client:    base,
		sleepFunc: time.Sleep,
		rng:       rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (h *httpClient) Do(req *http.Request) (*http.Response, error) {
	return h.client.Do(req)
}

func (h *httpClient) CloseIdleConnections() {
	h.client.CloseIdleConnections()
}

// Exponential backoff constants
const (
	maxRetries = 5
	baseDelay  = 1 * time.Second
	maxDelay   = 32 * time.Second
)

// RetryWithExponentialBackoff attempts the given operation() multiple times if
// we encounter a retryable HTTPError (5xx gateway-ish statuses).
func (h *httpClient) RetryWithExponentialBackoff(operation func() (interface{}, error)) (interface{}, error) {
	var result interface{}
	var err error
	delay := baseDelay

	for i := 0; i < maxRetries; i++ {
		if result, err = operation(); err == nil {
			return result, nil
		}

		if !IsRetryableStatus(err) || i == maxRetries-1 {
			break
		}

		h.sleepFunc(delay + h.jitter(delay))

		delay *= 2
		if delay > maxDelay {
			delay = maxDelay
		}
	}
	return nil, err
}

func (h *httpClient) jitter(delay time.Duration) time.Duration {
	h.mu.Lock()
	defer h.mu.Unlock()
	return time.Duration(h.rng.Int63n(int64(delay)))
}

func (h *httpClient) SetRandAndSleepForTest(sleep func(d time.Duration), seed int64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.sleepFunc = sleep
	h.rng = rand.New(rand.NewSource(seed))
}

// IsRetryableStatus reports whether err carries a server status worth retrying.
func IsRetryableStatus(err error) bool {
	var httpErr *HTTPError
	if !errors.As(err, &httpErr) {
		return false
	}
	switch httpErr.StatusCode {
	case http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}
