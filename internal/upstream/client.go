// Package upstream talks to the extraction pipeline's review backend.
package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/entity-review-api/internal/models"
	"github.com/noah-isme/entity-review-api/pkg/config"
	appErrors "github.com/noah-isme/entity-review-api/pkg/errors"
)

const maxErrorBody = 4 << 10

// Observer receives timing for every backend call.
type Observer interface {
	ObserveUpstreamRequest(operation string, status int, duration time.Duration)
}

// Client is a thin JSON client for the review backend. Calls are single attempts: no retries.
type Client struct {
	baseURL  string
	http     *http.Client
	logger   *zap.Logger
	observer Observer
}

// Option configures the client.
type Option func(*Client)

// WithHTTPClient overrides the transport, mainly for tests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithObserver attaches request metrics.
func WithObserver(o Observer) Option {
	return func(c *Client) {
		c.observer = o
	}
}

// NewClient constructs a client for the configured backend.
func NewClient(cfg config.UpstreamConfig, logger *zap.Logger, opts ...Option) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	c := &Client{
		baseURL: cfg.BaseURL,
		http:    &http.Client{Timeout: timeout},
		logger:  logger,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// Login exchanges reviewer credentials for a backend access token.
func (c *Client) Login(ctx context.Context, username, password string) (*models.UpstreamLogin, error) {
	body := map[string]string{"username": username, "password": password}
	var out models.UpstreamLogin
	if err := c.do(ctx, "login", http.MethodPost, "/auth/login", "", body, &out); err != nil {
		if appErrors.FromError(err).Status == http.StatusUnauthorized {
			return nil, appErrors.ErrInvalidCredentials
		}
		return nil, err
	}
	if out.AccessToken == "" {
		return nil, appErrors.Clone(appErrors.ErrUpstream, "login response carried no access token")
	}
	return &out, nil
}

// ListPending returns the backend's pending review queue.
func (c *Client) ListPending(ctx context.Context, token string) ([]models.PendingReview, error) {
	var out []models.PendingReview
	if err := c.do(ctx, "list_pending", http.MethodGet, "/reviews/pending", token, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetReview loads one review job.
func (c *Client) GetReview(ctx context.Context, token, reviewID string) (*models.ReviewJob, error) {
	var out models.ReviewJob
	if err := c.do(ctx, "get_review", http.MethodGet, "/reviews/"+url.PathEscape(reviewID), token, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Submit posts the reviewer's decisions. The backend answers success or failure only.
func (c *Client) Submit(ctx context.Context, token string, payload models.SubmissionPayload) error {
	return c.do(ctx, "submit", http.MethodPost, "/reviews", token, payload, nil)
}

func (c *Client) do(ctx context.Context, op, method, path, token string, in, out interface{}) error {
	var body io.Reader
	if in != nil {
		buf, err := json.Marshal(in)
		if err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to encode backend request")
		}
		body = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to build backend request")
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	duration := time.Since(start)
	if err != nil {
		c.observe(op, http.StatusServiceUnavailable, duration)
		c.logger.Warn("review backend unreachable", zap.String("operation", op), zap.Error(err))
		return appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "review backend unreachable")
	}
	defer resp.Body.Close()
	c.observe(op, resp.StatusCode, duration)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		c.logger.Warn("review backend rejected request",
			zap.String("operation", op),
			zap.Int("status", resp.StatusCode),
			zap.ByteString("body", snippet),
		)
		return statusError(op, resp.StatusCode)
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "malformed review backend response")
	}
	return nil
}

func (c *Client) observe(op string, status int, d time.Duration) {
	if c.observer != nil {
		c.observer.ObserveUpstreamRequest(op, status, d)
	}
}

func statusError(op string, status int) error {
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return appErrors.Clone(appErrors.ErrSessionExpired, "review backend rejected the session")
	case http.StatusNotFound:
		return appErrors.Clone(appErrors.ErrNotFound, "review not found")
	default:
		return appErrors.Clone(appErrors.ErrUpstream, fmt.Sprintf("review backend %s failed with status %d", op, status))
	}
}
