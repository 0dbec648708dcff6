package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/dmitrijs2005/nutrikeeper/internal/client/cache"
	"github.com/dmitrijs2005/nutrikeeper/internal/client/metrics"
	"github.com/dmitrijs2005/nutrikeeper/internal/logging"
	"github.com/google/uuid"
)

const (
	DefaultNetworkRetryDelay = time.Second
	DefaultRequestTimeout    = 30 * time.Second
	DefaultAnalysisTimeout   = 45 * time.Second
	DefaultAnalysisAttempts  = 3
	DefaultAnalysisBackoff   = time.Second

	maxResponseBytes = 10 << 20
)

// TokenStore is where the client reads the bearer token on every request
// and erases it on 401. storage.TokenStorage implements it.
type TokenStore interface {
	Get(ctx context.Context) (string, error)
	Delete(ctx context.Context) error
}

// UnauthorizedHandler runs after a 401 once the token has been erased. The
// application uses it to log the user out and return to the entry screen.
type UnauthorizedHandler func(ctx context.Context)

// HTTPClient talks to the backend REST API.
type HTTPClient struct {
	baseURL string
	http    *http.Client
	tokens  TokenStore
	cache   *cache.QueryCache
	metrics *metrics.Collector
	log     logging.Logger

	onUnauthorized UnauthorizedHandler

	retryDelay       time.Duration
	analysisTimeout  time.Duration
	analysisAttempts int
	analysisBackoff  time.Duration
}

type Option func(*HTTPClient)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *HTTPClient) { c.http = hc }
}

func WithLogger(l logging.Logger) Option {
	return func(c *HTTPClient) { c.log = l }
}

func WithMetrics(m *metrics.Collector) Option {
	return func(c *HTTPClient) { c.metrics = m }
}

// WithCache enables caching of read endpoints in q.
func WithCache(q *cache.QueryCache) Option {
	return func(c *HTTPClient) { c.cache = q }
}

func WithUnauthorizedHandler(h UnauthorizedHandler) Option {
	return func(c *HTTPClient) { c.onUnauthorized = h }
}

// WithNetworkRetryDelay sets the pause before resending a request that got
// no response.
func WithNetworkRetryDelay(d time.Duration) Option {
	return func(c *HTTPClient) { c.retryDelay = d }
}

// WithAnalysisPolicy configures the meal-analysis attempt timeout, the
// total number of attempts and the base of the exponential backoff.
func WithAnalysisPolicy(timeout time.Duration, attempts int, backoff time.Duration) Option {
	return func(c *HTTPClient) {
		c.analysisTimeout = timeout
		c.analysisAttempts = attempts
		c.analysisBackoff = backoff
	}
}

func New(baseURL string, tokens TokenStore, opts ...Option) (*HTTPClient, error) {
	if baseURL == "" {
		return nil, errors.New("api: empty base URL")
	}
	if tokens == nil {
		return nil, errors.New("api: nil token store")
	}

	c := &HTTPClient{
		baseURL:          strings.TrimRight(baseURL, "/"),
		http:             &http.Client{Timeout: DefaultRequestTimeout},
		tokens:           tokens,
		log:              logging.Nop(),
		retryDelay:       DefaultNetworkRetryDelay,
		analysisTimeout:  DefaultAnalysisTimeout,
		analysisAttempts: DefaultAnalysisAttempts,
		analysisBackoff:  DefaultAnalysisBackoff,
	}
	for _, o := range opts {
		o(c)
	}
	if c.analysisAttempts < 1 {
		c.analysisAttempts = 1
	}
	if c.analysisBackoff <= 0 {
		c.analysisBackoff = DefaultAnalysisBackoff
	}
	return c, nil
}

// request is one logical call. The flags live for the whole call so the
// interceptor never retries or runs the 401 cascade twice for it.
type request struct {
	method string
	path   string
	body   []byte
	header http.Header

	// bearer, when set, replaces the stored token for this call.
	bearer *string

	retried     bool
	authHandled bool
}

func newRequest(method, path string, in any) (*request, error) {
	r := &request{method: method, path: path, header: http.Header{}}
	if in == nil {
		return r, nil
	}
	b, err := json.Marshal(in)
	if err != nil {
		return nil, &Error{Message: "Failed to encode request", Code: CodeInvalidRequest, Err: err}
	}
	r.body = b
	return r, nil
}

// send performs a single HTTP exchange. Unless the request carries its own
// bearer, the token is read from storage each time; a storage failure only
// means the request goes out anonymous.
func (c *HTTPClient) send(ctx context.Context, r *request) (*http.Response, error) {
	var body io.Reader
	if r.body != nil {
		body = bytes.NewReader(r.body)
	}

	req, err := http.NewRequestWithContext(ctx, r.method, c.baseURL+r.path, body)
	if err != nil {
		return nil, err
	}
	for k, v := range r.header {
		req.Header[k] = v
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if r.body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	if token := c.bearerFor(ctx, r); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	c.log.Debug(ctx, "api request", "method", r.method, "path", r.path, "request_id", req.Header.Get("X-Request-ID"))
	return c.http.Do(req)
}

func (c *HTTPClient) bearerFor(ctx context.Context, r *request) string {
	if r.bearer != nil {
		return *r.bearer
	}
	token, err := c.tokens.Get(ctx)
	if err != nil {
		c.log.Warn(ctx, "token read failed, sending without authorization", "path", r.path, "error", err)
		return ""
	}
	return token
}

// interceptor wraps send with the transport-level policy:
//   - no response and not yet retried: wait retryDelay, resend once;
//   - 401 not yet handled: erase the token and fire the unauthorized
//     handler, then hand the response back so the caller still gets an
//     error.
func (c *HTTPClient) interceptor(ctx context.Context, r *request) (*http.Response, error) {
	for {
		resp, err := c.send(ctx, r)
		if err != nil {
			if r.retried || ctx.Err() != nil {
				return nil, err
			}
			r.retried = true
			c.metrics.NetworkRetry()
			c.log.Warn(ctx, "no response, retrying once", "method", r.method, "path", r.path, "error", err)
			if werr := sleep(ctx, c.retryDelay); werr != nil {
				return nil, err
			}
			continue
		}

		if resp.StatusCode == http.StatusUnauthorized && !r.authHandled {
			r.authHandled = true
			c.handleUnauthorized(ctx, r)
		}
		return resp, nil
	}
}

func (c *HTTPClient) handleUnauthorized(ctx context.Context, r *request) {
	c.metrics.UnauthorizedResponse()
	c.log.Warn(ctx, "unauthorized response, clearing session", "method", r.method, "path", r.path)

	if err := c.tokens.Delete(ctx); err != nil {
		c.log.Error(ctx, "failed to erase token", "error", err)
	}
	c.clearCache()
	if c.onUnauthorized != nil {
		c.onUnauthorized(ctx)
	}
}

// roundTrip runs r through the interceptor and unwraps the envelope into
// out (which may be nil).
func (c *HTTPClient) roundTrip(ctx context.Context, r *request, out any) error {
	resp, err := c.interceptor(ctx, r)
	if err != nil {
		c.metrics.Request(r.method, "no_response")
		return transportError(err)
	}
	defer resp.Body.Close()

	if err := c.unwrap(ctx, resp, out); err != nil {
		c.metrics.Request(r.method, "error")
		return err
	}
	c.metrics.Request(r.method, "ok")
	return nil
}

func (c *HTTPClient) unwrap(ctx context.Context, resp *http.Response, out any) error {
	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		if ctx.Err() != nil {
			return transportError(ctx.Err())
		}
		return transportError(err)
	}

	var env envelope
	decodeErr := error(nil)
	if len(bytes.TrimSpace(raw)) > 0 {
		decodeErr = json.Unmarshal(raw, &env)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		if decodeErr != nil {
			return statusError(resp.StatusCode, nil)
		}
		return statusError(resp.StatusCode, &env)
	}

	if len(bytes.TrimSpace(raw)) == 0 {
		if resp.StatusCode == http.StatusNoContent || out == nil {
			return nil
		}
		return &Error{Message: msgInvalidResponse, Status: resp.StatusCode, Code: CodeInvalidResponse}
	}
	if decodeErr != nil {
		return &Error{Message: msgInvalidResponse, Status: resp.StatusCode, Code: CodeInvalidResponse, Err: decodeErr}
	}
	if !env.Success {
		return statusError(resp.StatusCode, &env)
	}

	if out == nil || len(env.Data) == 0 || string(env.Data) == "null" {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return &Error{Message: msgInvalidResponse, Status: resp.StatusCode, Code: CodeInvalidResponse, Err: fmt.Errorf("decode data: %w", err)}
	}
	return nil
}

// call is the plumbing every endpoint goes through.
func (c *HTTPClient) call(ctx context.Context, method, path string, in, out any) error {
	r, err := newRequest(method, path, in)
	if err != nil {
		return err
	}
	return c.roundTrip(ctx, r, out)
}

// do decodes the envelope data into a fresh T.
func do[T any](ctx context.Context, c *HTTPClient, method, path string, in any) (*T, error) {
	var out T
	if err := c.call(ctx, method, path, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// cached serves GET path from the query cache when one is configured. The
// cache keeps the raw envelope data and every caller decodes its own T, so
// results can be modified freely.
func cached[T any](ctx context.Context, c *HTTPClient, path string) (*T, error) {
	if c.cache == nil {
		return do[T](ctx, c, http.MethodGet, path, nil)
	}
	v, err := c.cache.Fetch(ctx, path, func(ctx context.Context) (any, error) {
		raw, err := do[json.RawMessage](ctx, c, http.MethodGet, path, nil)
		if err != nil {
			return nil, err
		}
		if _, err := decodeRaw[T](*raw); err != nil {
			return nil, err
		}
		return *raw, nil
	})
	if err != nil {
		return nil, err
	}
	raw, _ := v.(json.RawMessage)
	return decodeRaw[T](raw)
}

func decodeRaw[T any](raw json.RawMessage) (*T, error) {
	var out T
	if len(raw) == 0 {
		return &out, nil
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, &Error{Message: msgInvalidResponse, Code: CodeInvalidResponse, Err: fmt.Errorf("decode data: %w", err)}
	}
	return &out, nil
}

func (c *HTTPClient) invalidate(prefixes ...string) {
	if c.cache != nil {
		c.cache.Invalidate(prefixes...)
	}
}

func (c *HTTPClient) clearCache() {
	if c.cache != nil {
		c.cache.Clear()
	}
}

// Ping checks that the backend answers at all. It bypasses the
// interceptor: no retry, no 401 handling.
func (c *HTTPClient) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return transportError(err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= http.StatusInternalServerError {
		return statusError(resp.StatusCode, nil)
	}
	return nil
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
