package gateway

import (
	"log/slog"
	"net/http"
	"net/url"

	"github.com/guarzo/recruitapi/common"
)

// Option configures a Client at construction.
type Option func(*Client)

// WithHttpClient replaces the transport built from the config.
func WithHttpClient(h common.HttpClient) Option {
	return func(c *Client) { c.httpClient = h }
}

// WithAuthClient replaces the refresh exchange. By default the Client calls
// its own refresh endpoint.
func WithAuthClient(a common.AuthClient) Option {
	return func(c *Client) { c.authClient = a }
}

// WithSessionExpiredHook registers fn to be called whenever the session becomes
// irrecoverable and the caller should send the user back to login.
func WithSessionExpiredHook(fn func()) Option {
	return func(c *Client) { c.onSessionExpired = fn }
}

func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithRefreshPath overrides the default "/auth/refresh".
func WithRefreshPath(path string) Option {
	return func(c *Client) { c.refreshPath = path }
}

// RequestOption customizes a single call.
type RequestOption func(*request)

// WithHeader adds an extra header to one call.
func WithHeader(key, value string) RequestOption {
	return func(r *request) {
		if r.headers == nil {
			r.headers = http.Header{}
		}
		r.headers.Set(key, value)
	}
}

// WithQuery adds a query parameter to one call.
func WithQuery(key, value string) RequestOption {
	return func(r *request) {
		if r.query == nil {
			r.query = url.Values{}
		}
		r.query.Add(key, value)
	}
}

// WithProgress reports upload progress as a percentage (0-100).
func WithProgress(fn func(percent int)) RequestOption {
	return func(r *request) { r.progress = fn }
}

// WithoutAuthRetry hands a 401 back to the caller untouched: no refresh, no
// retry and no session expiry. Login uses it so bad credentials stay a plain
// auth failure.
func WithoutAuthRetry() RequestOption {
	return func(r *request) { r.noAuthRetry = true }
}
