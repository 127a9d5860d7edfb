// internal/gateway/client.go
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/javajoker/storefront/internal/cart"
	"github.com/javajoker/storefront/internal/config"
	"github.com/javajoker/storefront/internal/storage"
)

const userAgent = "storefront-session/1.0"

// envelope is the backend's response shape.
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// RemoteError is a backend failure that fits no cart sentinel.
type RemoteError struct {
	Status  int
	Code    string
	Message string
}

func (e *RemoteError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("remote request failed with status %d", e.Status)
	}
	return fmt.Sprintf("remote request failed with status %d: %s", e.Status, e.Message)
}

// RemoteMessage is the server's own message, shown to shoppers as is.
func (e *RemoteError) RemoteMessage() string {
	return e.Message
}

// Client talks to the storefront backend. It is shared by all sessions; Session binds
// it to one session's storage for bearer auth.
type Client struct {
	httpClient *http.Client
	baseURL    string
	limiter    *rate.Limiter
	logger     *logrus.Entry
}

type ClientOption func(*Client)

func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

func WithLogger(logger *logrus.Entry) ClientOption {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

func NewClient(cfg config.RemoteConfig, opts ...ClientOption) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("remote base URL is required")
	}
	if _, err := url.Parse(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("invalid remote base URL: %w", err)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	limit := rate.Inf
	if cfg.RateLimit > 0 {
		limit = rate.Limit(cfg.RateLimit)
	}
	burst := cfg.RateBurst
	if burst <= 0 {
		burst = 1
	}

	c := &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    cfg.BaseURL,
		limiter:    rate.NewLimiter(limit, burst),
		logger:     logrus.NewEntry(logrus.StandardLogger()),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Session returns the gateway view of one session; its bearer token is read from store.
func (c *Client) Session(store storage.Store) *Session {
	return &Session{client: c, storage: store}
}

type request struct {
	method string
	path   string
	query  url.Values
	body   interface{}
	token  string
	// cartEndpoint enables the cart error mapping.
	cartEndpoint bool
}

// do sends req and decodes the envelope's data into out, when out is non-nil.
func (c *Client) do(ctx context.Context, req request, out interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	endpoint := c.baseURL + req.path
	if len(req.query) > 0 {
		endpoint += "?" + req.query.Encode()
	}

	var body io.Reader
	if req.body != nil {
		raw, err := json.Marshal(req.body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method, endpoint, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("User-Agent", userAgent)
	if req.body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if req.token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+req.token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.logger.WithError(err).WithFields(logrus.Fields{
			"method": req.method,
			"path":   req.path,
		}).Warn("Remote request failed")
		return fmt.Errorf("remote request %s %s: %w", req.method, req.path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	c.logger.WithFields(logrus.Fields{
		"method":   req.method,
		"path":     req.path,
		"status":   resp.StatusCode,
		"duration": time.Since(start),
	}).Debug("Remote request")

	if len(bytes.TrimSpace(raw)) == 0 {
		if resp.StatusCode >= 400 {
			return c.parseError(resp.StatusCode, envelope{}, req.cartEndpoint)
		}
		return nil
	}

	var env envelope
	decodeErr := json.Unmarshal(raw, &env)

	if resp.StatusCode >= 400 || (decodeErr == nil && !env.Success) {
		return c.parseError(resp.StatusCode, env, req.cartEndpoint)
	}
	if decodeErr != nil {
		return fmt.Errorf("failed to decode response: %w", decodeErr)
	}

	if out != nil && len(env.Data) > 0 && string(env.Data) != "null" {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("failed to decode response data: %w", err)
		}
	}
	return nil
}

// parseError maps a failed response onto the cart sentinels or a RemoteError.
func (c *Client) parseError(status int, env envelope, cartEndpoint bool) error {
	var code, msg string
	if env.Error != nil {
		code = env.Error.Code
		msg = env.Error.Message
	}

	switch code {
	case "INVALID_OWNER", "INVALID_USER":
		return fmt.Errorf("%w: %s", cart.ErrInvalidOwner, msg)
	case "SYNC_UNSUPPORTED":
		return fmt.Errorf("%w: %s", cart.ErrSyncUnsupported, msg)
	}

	if cartEndpoint {
		switch status {
		case http.StatusUnauthorized, http.StatusForbidden:
			return fmt.Errorf("%w: %s", cart.ErrInvalidOwner, msg)
		case http.StatusNotFound, http.StatusMethodNotAllowed, http.StatusNotImplemented:
			return fmt.Errorf("%w: status %d", cart.ErrSyncUnsupported, status)
		}
	}

	return &RemoteError{Status: status, Code: code, Message: msg}
}
