package client

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

	"github.com/Miraines/MoonyAndStarry/session-service/internal/adapters/transport/http/dto"
	"github.com/Miraines/MoonyAndStarry/session-service/internal/domain/auth/model"
	"go.uber.org/zap"
)

const DefaultTimeout = 10 * time.Second

// Client talks to the session service. Authenticated calls go through an
// Interceptor; register, login and refresh use a bare client so that a 401
// there never triggers a refresh.
type Client struct {
	baseURL string
	store   *TokenStore
	log     *zap.Logger

	timeout   time.Duration
	transport http.RoundTripper
	onExpired func()

	api  *http.Client
	bare *http.Client
}

type Option func(*Client)

func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

func WithTransport(rt http.RoundTripper) Option {
	return func(c *Client) { c.transport = rt }
}

func WithLogger(log *zap.Logger) Option {
	return func(c *Client) { c.log = log }
}

// WithSessionExpired registers a callback run after a failed refresh has
// cleared the local session.
func WithSessionExpired(fn func()) Option {
	return func(c *Client) { c.onExpired = fn }
}

func New(baseURL string, store *TokenStore, opts ...Option) *Client {
	c := &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		store:     store,
		log:       zap.NewNop(),
		timeout:   DefaultTimeout,
		transport: http.DefaultTransport,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.store == nil {
		c.store = NewTokenStore(nil)
	}

	c.bare = &http.Client{Timeout: c.timeout, Transport: c.transport}
	c.api = &http.Client{
		Timeout: c.timeout,
		Transport: &Interceptor{
			next:      c.transport,
			store:     c.store,
			refresh:   c.Refresh,
			onExpired: c.sessionExpired,
			log:       c.log,
		},
	}
	return c
}

func (c *Client) Store() *TokenStore { return c.store }

// HTTPClient returns the intercepted client for calls to other protected
// endpoints of the same service.
func (c *Client) HTTPClient() *http.Client { return c.api }

func (c *Client) URL(path string) string { return c.baseURL + path }

func (c *Client) Register(ctx context.Context, in dto.RegisterDTO) (model.Profile, error) {
	var out dto.SessionResponse
	if err := c.do(ctx, c.bare, http.MethodPost, "/auth/register", in, &out); err != nil {
		return model.Profile{}, err
	}
	return c.adopt(ctx, out)
}

func (c *Client) Login(ctx context.Context, email, password string) (model.Profile, error) {
	var out dto.SessionResponse
	in := dto.LoginDTO{Email: email, Password: password}
	if err := c.do(ctx, c.bare, http.MethodPost, "/auth/login", in, &out); err != nil {
		return model.Profile{}, err
	}
	return c.adopt(ctx, out)
}

// Refresh exchanges a refresh token for a new session. It does not touch the
// store; the interceptor decides what to do with the result.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (dto.SessionResponse, error) {
	var out dto.SessionResponse
	in := dto.RefreshDTO{RefreshToken: refreshToken}
	if err := c.do(ctx, c.bare, http.MethodPost, "/auth/refresh", in, &out); err != nil {
		return dto.SessionResponse{}, err
	}
	return out, nil
}

func (c *Client) Me(ctx context.Context) (model.Profile, error) {
	var out model.Profile
	if err := c.do(ctx, c.api, http.MethodGet, "/users/me", nil, &out); err != nil {
		return model.Profile{}, err
	}
	return out, nil
}

func (c *Client) Logout(ctx context.Context) error {
	return c.store.Clear(ctx)
}

func (c *Client) adopt(ctx context.Context, s dto.SessionResponse) (model.Profile, error) {
	if err := c.store.Save(ctx, s.AccessToken, s.RefreshToken, s.User); err != nil {
		return s.User, fmt.Errorf("persist session: %w", err)
	}
	return s.User, nil
}

func (c *Client) sessionExpired() {
	if c.onExpired != nil {
		c.onExpired()
	}
}

func (c *Client) do(ctx context.Context, hc *http.Client, method, path string, in, out any) error {
	req, err := c.newRequest(ctx, method, path, in)
	if err != nil {
		return err
	}

	resp, err := hc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, in any) (*http.Request, error) {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return nil, err
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.URL(path), body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req, nil
}

func decodeError(resp *http.Response) error {
	apiErr := &APIError{StatusCode: resp.StatusCode}
	var body dto.ErrorResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&body); err == nil {
		apiErr.Message = body.Error
	}
	return apiErr
}

func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	ok := errors.As(err, &apiErr)
	return apiErr, ok
}
