package twitter

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dghubble/oauth1"
	"twscraper/pkg/auth"
	"twscraper/pkg/config"
	"twscraper/pkg/errors"
	"twscraper/pkg/logger"
	"twscraper/pkg/models"
	"twscraper/pkg/ratelimit"
	"twscraper/pkg/retry"
)

// RequestObserver is told about every completed HTTP exchange
type RequestObserver interface {
	ObserveRequest(endpoint string, status int, duration time.Duration)
}

// Client talks to the v1.1 REST API
type Client struct {
	baseHTTP *http.Client
	baseURL  string
	pageSize int
	timeout  time.Duration
	limiter  ratelimit.Limiter
	observer RequestObserver
	logger   logger.Logger
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient sets the client whose transport carries the signed requests
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.baseHTTP = hc }
}

// WithLimiter replaces the default rate limit window
func WithLimiter(l ratelimit.Limiter) Option {
	return func(c *Client) { c.limiter = l }
}

// WithObserver registers a RequestObserver
func WithObserver(o RequestObserver) Option {
	return func(c *Client) { c.observer = o }
}

// NewClient creates a new API client from the twitter configuration section
func NewClient(cfg config.TwitterConfig, log logger.Logger, opts ...Option) *Client {
	if log == nil {
		log = logger.GetLogger()
	}

	c := &Client{
		baseHTTP: &http.Client{},
		baseURL:  cfg.BaseURL,
		pageSize: cfg.PageSize,
		timeout:  cfg.Timeout,
		logger:   log,
	}
	if c.baseURL == "" {
		c.baseURL = DefaultBaseURL
	}
	if c.pageSize <= 0 {
		c.pageSize = DefaultPageSize
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.limiter == nil {
		c.limiter = ratelimit.NewWindow(ratelimit.WithOnWait(func(endpoint string, d time.Duration) {
			logger.LogRateLimit(c.logger, endpoint, d.Seconds())
		}))
	}

	return c
}

// Session is an authenticated connection to the API
type Session struct {
	ScreenName string
	UserID     int64

	http *http.Client
}

// Authenticate signs requests with the four secrets and checks them against the
// service. Missing secrets and rejected credentials are authentication errors.
func (c *Client) Authenticate(ctx context.Context, creds auth.Credentials) (*Session, error) {
	if missing := creds.Missing(); len(missing) > 0 {
		return nil, errors.NewAuthError("authenticate", "missing "+strings.Join(missing, ", "), 0, nil)
	}

	oauthConfig := oauth1.NewConfig(creds.APIKey, creds.APISecret)
	token := oauth1.NewToken(creds.AccessToken, creds.AccessTokenSecret)

	signed := oauthConfig.Client(context.WithValue(ctx, oauth1.HTTPClient, c.baseHTTP), token)
	signed.Timeout = c.timeout

	var user models.User
	if err := c.getJSON(ctx, signed, VerifyCredentialsEndpoint, nil, &user); err != nil {
		return nil, err
	}

	c.logger.DebugWithFields("authenticated", map[string]interface{}{
		"screen_name": user.ScreenName,
		"user_id":     user.ID,
	})

	return &Session{ScreenName: user.ScreenName, UserID: user.ID, http: signed}, nil
}

// getJSON sends a GET and decodes the response into target. Exhausted quota is
// waited out and the same request re-sent.
func (c *Client) getJSON(ctx context.Context, hc *http.Client, endpoint string, params url.Values, target interface{}) error {
	op := "GET " + endpoint
	u := endpointURL(c.baseURL, endpoint, params)

	return retry.Do(ctx, func(ctx context.Context) error {
		return c.attempt(ctx, hc, op, endpoint, u, target)
	}, &retry.Config{RetryIf: errors.IsRateLimit, Op: op, Logger: c.logger})
}

// attempt waits for quota, sends one request and decodes it. A throttled
// response marks the endpoint exhausted and returns a rate limit error.
func (c *Client) attempt(ctx context.Context, hc *http.Client, op, endpoint, u string, target interface{}) error {
	if err := c.limiter.Wait(ctx, endpoint); err != nil {
		return errors.NewTransportError(op, "interrupted while waiting for rate limit", 0, err)
	}

	resp, body, err := c.do(ctx, hc, endpoint, u)
	if err != nil {
		return errors.NewTransportError(op, "network error", 0, err)
	}

	c.limiter.Observe(endpoint, resp.Header)

	if errors.IsRateLimitStatus(resp.StatusCode) {
		c.limiter.Exhaust(endpoint, resp.Header)
		c.logger.WarnWithFields("rate limit exceeded", map[string]interface{}{
			"endpoint": endpoint,
			"status":   resp.StatusCode,
		})
		return errors.NewRateLimitError(op, resp.StatusCode)
	}

	if err := c.checkResponseStatus(op, resp.StatusCode, body); err != nil {
		return err
	}

	if err := json.Unmarshal(body, target); err != nil {
		preview := string(body)
		if len(preview) > 200 {
			preview = preview[:200] + "..."
		}
		c.logger.ErrorWithFields("failed to parse JSON response", map[string]interface{}{
			"endpoint":     endpoint,
			"status":       resp.StatusCode,
			"error":        err.Error(),
			"body_preview": preview,
		})
		return errors.NewTransportError(op, "failed to parse JSON", resp.StatusCode, err)
	}
	return nil
}

// do performs one request and reads the whole body
func (c *Client) do(ctx context.Context, hc *http.Client, endpoint, u string) (*http.Response, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	c.logger.DebugWithFields("sending HTTP request", map[string]interface{}{
		"method": req.Method,
		"url":    u,
	})

	resp, err := hc.Do(req)
	duration := time.Since(start)
	if err != nil {
		c.logger.ErrorWithFields("HTTP request failed", map[string]interface{}{
			"url":      u,
			"error":    err.Error(),
			"duration": duration,
		})
		return nil, nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if c.observer != nil {
		c.observer.ObserveRequest(endpoint, resp.StatusCode, duration)
	}
	c.logger.DebugWithFields("HTTP request completed", map[string]interface{}{
		"url":      u,
		"status":   resp.StatusCode,
		"duration": duration,
	})

	return resp, body, nil
}

// checkResponseStatus maps a non-2xx status to a classified error
func (c *Client) checkResponseStatus(op string, status int, body []byte) error {
	if status >= 200 && status < 300 {
		return nil
	}

	msg := platformMessage(body)
	if msg == "" {
		msg = http.StatusText(status)
	}

	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		c.logger.WarnWithFields("authentication error", map[string]interface{}{
			"op":     op,
			"status": status,
		})
		return errors.NewAuthError(op, msg, status, nil)
	default:
		c.logger.ErrorWithFields("API error", map[string]interface{}{
			"op":     op,
			"status": status,
		})
		return errors.NewTransportError(op, msg, status, nil)
	}
}

// platformMessage joins the errors[].message entries of an error body
func platformMessage(body []byte) string {
	var resp models.ErrorResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return ""
	}

	msgs := make([]string, 0, len(resp.Errors))
	for _, e := range resp.Errors {
		if e.Message != "" {
			msgs = append(msgs, e.Message)
		}
	}
	return strings.Join(msgs, "; ")
}
