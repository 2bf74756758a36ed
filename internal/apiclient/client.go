// Package apiclient implements service.Service against the to-do REST API.
//
// Every call carries the stored access token as a bearer credential. A call
// rejected with 401 triggers one refresh of the token pair followed by one
// re-issue of the call; a failed refresh clears the stored pair and fires the
// session-expired hook.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/oauth2"
	"google.golang.org/api/googleapi"

	"todo/internal/credstore"
	"todo/internal/service"
)

const (
	// DefaultTimeout bounds a single HTTP exchange.
	DefaultTimeout = 30 * time.Second

	// maxRetries is the number of re-issues allowed after a token refresh.
	maxRetries = 1

	refreshPath = "/auth/refresh"
)

var (
	// ErrNoRefreshToken is returned when a 401 arrives and no refresh token is stored.
	ErrNoRefreshToken = errors.New("no refresh token available")

	// ErrSessionExpired wraps every failure of the refresh path. The stored
	// tokens are gone by the time it is returned.
	ErrSessionExpired = errors.New("session expired")
)

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the HTTP client used for all calls.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithTimeout sets the per-exchange timeout. Zero or negative disables it.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// WithLogger sets the logger for request tracing.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// Client talks to the to-do backend.
type Client struct {
	baseURL string
	http    *http.Client
	tokens  credstore.Store
	timeout time.Duration
	logger  *slog.Logger

	mu        sync.Mutex
	onExpired func()
}

// New creates a client rooted at baseURL (e.g. http://localhost:8000/api/v1).
func New(baseURL string, tokens credstore.Store, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil {
		return nil, fmt.Errorf("invalid api url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid api url: %q: scheme must be http or https", baseURL)
	}
	if tokens == nil {
		return nil, fmt.Errorf("token store is required")
	}

	c := &Client{
		baseURL: strings.TrimRight(u.String(), "/"),
		http:    http.DefaultClient,
		tokens:  tokens,
		timeout: DefaultTimeout,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// OnSessionExpired registers fn to run after a failed refresh has cleared
// the stored tokens. It replaces any previous hook.
func (c *Client) OnSessionExpired(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onExpired = fn
}

// call is one logical request; it can be sent more than once.
type call struct {
	method string
	path   string
	body   []byte
}

// do marshals in, runs the call with retry-on-401 and decodes the reply into out.
func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body []byte
	if in != nil {
		var err error
		body, err = json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
	}
	return c.send(ctx, call{method: method, path: path, body: body}, out, 0)
}

// send issues the call. attempt counts re-issues; only attempt 0 may refresh.
func (c *Client) send(ctx context.Context, cl call, out any, attempt int) error {
	pair, err := c.tokens.Load(ctx)
	if err != nil {
		return fmt.Errorf("load tokens: %w", err)
	}

	res, err := c.exchange(ctx, cl, pair.AccessToken)
	if err != nil {
		return err
	}
	c.logger.Debug("api response", "method", cl.method, "path", cl.path, "status", res.StatusCode, "attempt", attempt)

	if res.StatusCode == http.StatusUnauthorized && attempt < maxRetries {
		if _, err := c.refresh(ctx); err != nil {
			return err
		}
		return c.send(ctx, cl, out, attempt+1)
	}

	if err := googleapi.CheckResponse(res); err != nil {
		return err
	}
	return decode(res, out)
}

// exchange performs one HTTP round trip and buffers the body so the
// response can be inspected after the per-call timeout is released.
func (c *Client) exchange(ctx context.Context, cl call, accessToken string) (*http.Response, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	var body io.Reader
	if cl.body != nil {
		body = bytes.NewReader(cl.body)
	}
	req, err := http.NewRequestWithContext(ctx, cl.method, c.baseURL+cl.path, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if cl.body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if accessToken != "" {
		tok := bearer(accessToken)
		if !tok.Valid() {
			c.logger.Debug("sending expired access token", "expiry", tok.Expiry)
		}
		tok.SetAuthHeader(req)
	}

	res, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", cl.method, cl.path, err)
	}
	defer res.Body.Close()

	data, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("%s %s: read body: %w", cl.method, cl.path, err)
	}
	res.Body = io.NopCloser(bytes.NewReader(data))
	return res, nil
}

// refresh trades the stored refresh token for a new pair and persists it.
// Any failure expires the session.
func (c *Client) refresh(ctx context.Context) (service.TokenPair, error) {
	current, err := c.tokens.Load(ctx)
	if err != nil {
		return service.TokenPair{}, c.expire(ctx, fmt.Errorf("load tokens: %w", err))
	}
	if current.RefreshToken == "" {
		return service.TokenPair{}, c.expire(ctx, ErrNoRefreshToken)
	}

	c.logger.Debug("refreshing access token")
	body, err := json.Marshal(map[string]string{"refresh_token": current.RefreshToken})
	if err != nil {
		return service.TokenPair{}, c.expire(ctx, fmt.Errorf("encode refresh request: %w", err))
	}

	res, err := c.exchange(ctx, call{method: http.MethodPost, path: refreshPath, body: body}, "")
	if err != nil {
		return service.TokenPair{}, c.expire(ctx, err)
	}
	if err := googleapi.CheckResponse(res); err != nil {
		return service.TokenPair{}, c.expire(ctx, err)
	}

	var next service.TokenPair
	if err := decode(res, &next); err != nil {
		return service.TokenPair{}, c.expire(ctx, err)
	}
	if next.AccessToken == "" {
		return service.TokenPair{}, c.expire(ctx, fmt.Errorf("refresh reply has no access token"))
	}
	if next.RefreshToken == "" {
		next.RefreshToken = current.RefreshToken
	}

	if err := c.tokens.Save(ctx, next); err != nil {
		return service.TokenPair{}, c.expire(ctx, fmt.Errorf("save tokens: %w", err))
	}
	return next, nil
}

// expire clears the stored pair, notifies the hook and wraps cause.
func (c *Client) expire(ctx context.Context, cause error) error {
	c.logger.Debug("token refresh failed, clearing session", "error", cause)

	// Clearing must happen even if the caller's context is already done.
	if err := c.tokens.Clear(context.WithoutCancel(ctx)); err != nil {
		c.logger.Error("clear tokens", "error", err)
	}

	c.mu.Lock()
	hook := c.onExpired
	c.mu.Unlock()
	if hook != nil {
		hook()
	}

	return fmt.Errorf("%w: %w", ErrSessionExpired, cause)
}

// decode unmarshals a buffered JSON body into out. Empty bodies are ignored.
func decode(res *http.Response, out any) error {
	if out == nil || res.StatusCode == http.StatusNoContent {
		return nil
	}
	data, err := io.ReadAll(res.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// bearer wraps an access token for header injection.
func bearer(accessToken string) *oauth2.Token {
	tok := &oauth2.Token{AccessToken: accessToken, TokenType: "Bearer"}
	if exp, ok := TokenExpiry(accessToken); ok {
		tok.Expiry = exp
	}
	return tok
}
