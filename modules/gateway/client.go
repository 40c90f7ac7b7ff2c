package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/sync/singleflight"

	"github.com/guarzo/recruitapi/common"
	"github.com/guarzo/recruitapi/modules/credential"
)

// DefaultRefreshPath is the endpoint that exchanges a refresh token.
const DefaultRefreshPath = "/auth/refresh"

// Requester is the subset of Client used by resource clients; it lets them be
// tested against a mock.
type Requester interface {
	Get(ctx context.Context, path string, out interface{}, opts ...RequestOption) error
	Post(ctx context.Context, path string, body, out interface{}, opts ...RequestOption) error
	Put(ctx context.Context, path string, body, out interface{}, opts ...RequestOption) error
	Patch(ctx context.Context, path string, body, out interface{}, opts ...RequestOption) error
	Delete(ctx context.Context, path string, out interface{}, opts ...RequestOption) error
}

var _ Requester = (*Client)(nil)
var _ common.AuthClient = (*Client)(nil)

// Client issues API calls with the stored bearer credential, refreshes the
// credential at most once at a time on 401 and retries the rejected call once.
// Every error it returns is a *common.APIError.
type Client struct {
	baseURL    *url.URL
	httpClient common.HttpClient
	authClient common.AuthClient
	store      *credential.Store

	// flight holds the in-flight refresh; concurrent 401s join it.
	flight singleflight.Group

	logger           *slog.Logger
	logging          bool
	refreshPath      string
	onSessionExpired func()
}

// New creates a Client for cfg.BaseURL that owns store. A nil store keeps the
// credential in memory.
func New(cfg common.Config, store *credential.Store, opts ...Option) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/") + "/")
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	if store == nil {
		store = credential.NewStore(nil)
	}

	c := &Client{
		baseURL:     base,
		store:       store,
		logger:      slog.Default(),
		logging:     cfg.Logging,
		refreshPath: DefaultRefreshPath,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.httpClient == nil {
		c.httpClient = common.NewHttpClient(cfg.UserAgent, &http.Client{}, cfg.Timeout, cfg.Logging)
	}
	if c.authClient == nil {
		c.authClient = c
	}
	return c, nil
}

// Store returns the credential store owned by the client.
func (c *Client) Store() *credential.Store {
	return c.store
}

// SessionGeneration reports the credential store's generation; resource
// clients key their caches on it.
func (c *Client) SessionGeneration() uint64 {
	return c.store.Generation()
}

// Close releases idle connections.
func (c *Client) Close() {
	c.httpClient.CloseIdleConnections()
}

// Get issues a GET; 5xx gateway errors are retried with backoff.
func (c *Client) Get(ctx context.Context, path string, out interface{}, opts ...RequestOption) error {
	return c.do(ctx, newRequest(http.MethodGet, path, nil, "", opts), out)
}

func (c *Client) Post(ctx context.Context, path string, body, out interface{}, opts ...RequestOption) error {
	return c.doJSON(ctx, http.MethodPost, path, body, out, opts)
}

func (c *Client) Put(ctx context.Context, path string, body, out interface{}, opts ...RequestOption) error {
	return c.doJSON(ctx, http.MethodPut, path, body, out, opts)
}

func (c *Client) Patch(ctx context.Context, path string, body, out interface{}, opts ...RequestOption) error {
	return c.doJSON(ctx, http.MethodPatch, path, body, out, opts)
}

func (c *Client) Delete(ctx context.Context, path string, out interface{}, opts ...RequestOption) error {
	return c.do(ctx, newRequest(http.MethodDelete, path, nil, "", opts), out)
}

// Upload posts file as the multipart field "file".
func (c *Client) Upload(ctx context.Context, path string, file io.Reader, filename string, out interface{}, opts ...RequestOption) error {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", filename)
	if err != nil {
		return common.Normalize(fmt.Errorf("failed to create form file: %w", err))
	}
	if _, err := io.Copy(part, file); err != nil {
		return common.Normalize(fmt.Errorf("failed to read upload: %w", err))
	}
	if err := w.Close(); err != nil {
		return common.Normalize(fmt.Errorf("failed to close multipart writer: %w", err))
	}
	return c.do(ctx, newRequest(http.MethodPost, path, buf.Bytes(), w.FormDataContentType(), opts), out)
}

func (c *Client) doJSON(ctx context.Context, method, path string, body, out interface{}, opts []RequestOption) error {
	var payload []byte
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return common.Normalize(fmt.Errorf("failed to encode request body: %w", err))
		}
		payload = b
	}
	return c.do(ctx, newRequest(method, path, payload, "application/json", opts), out)
}

func (c *Client) do(ctx context.Context, r *request, out interface{}) error {
	data, err := c.execute(ctx, r)
	if err != nil {
		return common.Normalize(err)
	}
	if err := decodePayload(data, out); err != nil {
		return &common.APIError{
			Message: "Failed to decode response",
			Code:    common.CodeDecode,
			Status:  http.StatusInternalServerError,
			Err:     err,
		}
	}
	return nil
}

// execute sends r and applies the 401 rules: the refresh call and an already
// retried call are terminal; anything else refreshes (or reuses a newer stored
// token) and is resubmitted exactly once.
func (c *Client) execute(ctx context.Context, r *request) ([]byte, error) {
	token, _ := c.store.AccessToken(ctx)
	for {
		data, err := c.send(ctx, r, token)
		if err == nil || !common.IsAuth(err) || r.noAuthRetry {
			return data, err
		}
		if r.isRefresh {
			return nil, c.expireSession(ctx, "refresh rejected", err)
		}
		if r.retried {
			return nil, c.expireSession(ctx, "retried request rejected", err)
		}
		r.retried = true

		token, err = c.tokenForRetry(ctx, token)
		if err != nil {
			return nil, err
		}
	}
}

// tokenForRetry returns the stored token when another refresh already replaced
// the one the call was sent with; otherwise it joins or starts a refresh.
func (c *Client) tokenForRetry(ctx context.Context, used string) (string, error) {
	if current, ok := c.store.AccessToken(ctx); ok && current != used {
		return current, nil
	}
	return c.refresh(ctx, used)
}

func (c *Client) send(ctx context.Context, r *request, token string) ([]byte, error) {
	urlStr, err := c.buildURL(r.path, r.query)
	if err != nil {
		return nil, err
	}

	operation := func() (interface{}, error) {
		return c.roundTrip(ctx, r, urlStr, token)
	}
	if r.method != http.MethodGet {
		data, err := c.roundTrip(ctx, r, urlStr, token)
		return data, err
	}

	result, err := c.httpClient.RetryWithExponentialBackoff(operation)
	if err != nil {
		return nil, err
	}
	return result.([]byte), nil
}

// roundTrip performs one HTTP exchange. Non-2xx statuses come back as
// *common.HTTPError, transport failures as *common.TransportError.
func (c *Client) roundTrip(ctx context.Context, r *request, urlStr, token string) ([]byte, error) {
	var body io.Reader
	if r.body != nil {
		body = bytes.NewReader(r.body)
		if r.progress != nil {
			body = newProgressReader(body, len(r.body), r.progress)
		}
	}

	req, err := http.NewRequestWithContext(ctx, r.method, urlStr, body)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if r.body != nil && r.contentType != "" {
		req.Header.Set("Content-Type", r.contentType)
	}
	for k, vs := range r.headers {
		req.Header[k] = append([]string(nil), vs...)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	requestID := common.NewRequestID()
	req.Header.Set(common.RequestIDHeader, requestID)

	if c.logging {
		c.logger.Debug("api request", "method", r.method, "url", urlStr, "request_id", requestID, "retry", r.retried)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &common.TransportError{Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &common.TransportError{Err: fmt.Errorf("failed to read response body: %w", err)}
	}

	if c.logging {
		c.logger.Debug("api response", "method", r.method, "url", urlStr, "request_id", requestID, "status", resp.StatusCode)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &common.HTTPError{
			StatusCode: resp.StatusCode,
			Body:       data,
		}
	}
	return data, nil
}

// buildURL resolves path against the base URL, keeping the base path prefix.
func (c *Client) buildURL(path string, params url.Values) (string, error) {
	ref, err := url.Parse(strings.TrimLeft(path, "/"))
	if err != nil {
		return "", fmt.Errorf("invalid endpoint: %w", err)
	}

	fullURL := c.baseURL.ResolveReference(ref)
	if len(params) > 0 {
		q := fullURL.Query()
		for k, vs := range params {
			for _, v := range vs {
				q.Add(k, v)
			}
		}
		fullURL.RawQuery = q.Encode()
	}
	return fullURL.String(), nil
}

func (c *Client) expireSession(ctx context.Context, reason string, cause error) error {
	c.clearCredentials(ctx)
	c.logger.Warn("session expired, login required", "reason", reason)
	if c.onSessionExpired != nil {
		c.onSessionExpired()
	}

	apiErr := common.Normalize(cause)
	return &common.APIError{
		Message: apiErr.Message,
		Code:    common.CodeSessionExpired,
		Status:  apiErr.Status,
		Details: apiErr.Details,
		Err:     fmt.Errorf("%w: %w", common.ErrSessionExpired, cause),
	}
}

func (c *Client) clearCredentials(ctx context.Context) {
	if err := c.store.Clear(ctx); err != nil {
		c.logger.Warn("failed to clear credentials", "error", err)
	}
}

// decodePayload unwraps a top-level "data" member when present, then decodes
// into out. A nil out or empty body is not an error.
func decodePayload(data []byte, out interface{}) error {
	if out == nil {
		return nil
	}
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil
	}
	if trimmed[0] == '{' {
		var outer map[string]json.RawMessage
		if err := json.Unmarshal(trimmed, &outer); err == nil {
			if inner, ok := outer["data"]; ok {
				return json.Unmarshal(inner, out)
			}
		}
	}
	return json.Unmarshal(trimmed, out)
}

type request struct {
	method      string
	path        string
	body        []byte
	contentType string
	headers     http.Header
	query       url.Values
	progress    func(percent int)

	isRefresh   bool
	retried     bool
	noAuthRetry bool
}

func newRequest(method, path string, body []byte, contentType string, opts []RequestOption) *request {
	r := &request{
		method:      method,
		path:        path,
		body:        body,
		contentType: contentType,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

type progressReader struct {
	r     io.Reader
	total int
	read  int
	last  int
	fn    func(percent int)
}

func newProgressReader(r io.Reader, total int, fn func(percent int)) *progressReader {
	return &progressReader{r: r, total: total, last: -1, fn: fn}
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	p.read += n
	if p.total > 0 {
		if pct := p.read * 100 / p.total; pct != p.last {
			p.last = pct
			p.fn(pct)
		}
	}
	return n, err
}
