// Package marketplace is the HTTP client for the remote collaborators: the
// listing source, billing, deletion history and CSV generation services.
package marketplace

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/Veraticus/dead-stock/internal/common"
	"github.com/Veraticus/dead-stock/internal/model"
	"github.com/Veraticus/dead-stock/internal/service"
)

// Per-call timeouts, scaled by expected payload size.
const (
	HealthTimeout   = 5 * time.Second
	CreditsTimeout  = 10 * time.Second
	HistoryTimeout  = 10 * time.Second
	ExportTimeout   = 60 * time.Second
	ListingsTimeout = 120 * time.Second
)

// Config holds marketplace API configuration.
type Config struct {
	BaseURL string
	APIKey  string
	User    string
}

// Validate ensures all required fields are present.
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("%w: marketplace base URL is required", common.ErrMissingConfig)
	}
	if !strings.HasPrefix(c.BaseURL, "http://") && !strings.HasPrefix(c.BaseURL, "https://") {
		return fmt.Errorf("%w: marketplace base URL must be http or https", common.ErrInvalidConfig)
	}
	if c.User == "" {
		return fmt.Errorf("%w: user is required", common.ErrMissingConfig)
	}
	return nil
}

// Option configures a Client.
type Option func(*Client)

// WithReadRetry overrides the retry policy for health and credit reads.
func WithReadRetry(opts service.RetryOptions) Option {
	return func(c *Client) {
		c.readRetry = opts
	}
}

// Client talks to the marketplace collaborator API.
type Client struct {
	http      *resty.Client
	logger    *slog.Logger
	user      string
	readRetry service.RetryOptions
}

// NewClient creates a client for the given configuration.
func NewClient(cfg Config, opts ...Option) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	httpClient := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetHeader("Accept", "application/json").
		SetHeader("X-User", cfg.User)
	if cfg.APIKey != "" {
		httpClient.SetAuthToken(cfg.APIKey)
	}

	c := &Client{
		http:      httpClient,
		user:      cfg.User,
		logger:    slog.Default().With("component", "marketplace"),
		readRetry: service.ReadRetry,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

type listingsResponse struct {
	Listings []model.RawListing `json:"listings"`
}

type totalResponse struct {
	Total int `json:"total"`
}

type consumeRequest struct {
	Credits int `json:"credits"`
}

type historyRequest struct {
	User    string              `json:"user"`
	Records []model.AuditRecord `json:"records"`
}

type generateRequest struct {
	TargetTool string          `json:"target_tool"`
	ExportMode model.ExportMode `json:"export_mode"`
	Items      []model.Listing  `json:"items"`
	Survivors  []model.Listing  `json:"survivors,omitempty"`
}

// Health checks that the API is reachable.
func (c *Client) Health(ctx context.Context) error {
	return c.call(ctx, "health", HealthTimeout, c.readRetry, func(r *resty.Request) (*resty.Response, error) {
		return r.Get("/health")
	})
}

// FetchListings returns the user's raw listings. Bulk fetches are not
// retried.
func (c *Client) FetchListings(ctx context.Context) ([]model.RawListing, error) {
	var out listingsResponse
	err := c.call(ctx, "fetch listings", ListingsTimeout, service.NoRetry, func(r *resty.Request) (*resty.Response, error) {
		return r.SetResult(&out).Get("/listings")
	})
	if err != nil {
		return nil, err
	}

	c.logger.Info("Fetched listings", "count", len(out.Listings))
	return out.Listings, nil
}

// Balance returns the user's scan credits.
func (c *Client) Balance(ctx context.Context) (*model.CreditBalance, error) {
	var out model.CreditBalance
	err := c.call(ctx, "credit balance", CreditsTimeout, c.readRetry, func(r *resty.Request) (*resty.Response, error) {
		return r.SetResult(&out).Get("/credits")
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Consume spends credits for a costed scan.
func (c *Client) Consume(ctx context.Context, credits int) (*model.CreditBalance, error) {
	var out model.CreditBalance
	err := c.call(ctx, "consume credits", CreditsTimeout, service.NoRetry, func(r *resty.Request) (*resty.Response, error) {
		return r.SetBody(consumeRequest{Credits: credits}).SetResult(&out).SetError(&out).Post("/credits/consume")
	})
	if err != nil {
		var statusErr *statusError
		if errors.As(err, &statusErr) && statusErr.code == http.StatusPaymentRequired {
			return nil, &common.CreditError{Required: credits, Available: out.AvailableCredits}
		}
		return nil, err
	}
	return &out, nil
}

// Append writes audit records to the remote history and returns the total.
func (c *Client) Append(ctx context.Context, userKey string, records []model.AuditRecord) (int, error) {
	var out totalResponse
	err := c.call(ctx, "append history", HistoryTimeout, service.NoRetry, func(r *resty.Request) (*resty.Response, error) {
		return r.SetBody(historyRequest{User: userKey, Records: records}).SetResult(&out).Post("/history")
	})
	if err != nil {
		return 0, err
	}
	return out.Total, nil
}

// Count returns the user's remote history total.
func (c *Client) Count(ctx context.Context, userKey string) (int, error) {
	var out totalResponse
	err := c.call(ctx, "count history", HistoryTimeout, service.NoRetry, func(r *resty.Request) (*resty.Response, error) {
		return r.SetQueryParam("user", userKey).SetResult(&out).Get("/history/count")
	})
	if err != nil {
		return 0, err
	}
	return out.Total, nil
}

// Generate asks the export service for file bytes.
func (c *Client) Generate(ctx context.Context, req service.GenerateRequest) ([]byte, error) {
	var body []byte
	err := c.call(ctx, "generate csv", ExportTimeout, service.NoRetry, func(r *resty.Request) (*resty.Response, error) {
		resp, err := r.
			SetHeader("Accept", "text/csv").
			SetBody(generateRequest{
				TargetTool: req.TargetTool,
				ExportMode: req.ExportMode,
				Items:      req.Items,
				Survivors:  req.Survivors,
			}).
			Post("/export/csv")
		if resp != nil {
			body = resp.Body()
		}
		return resp, err
	})
	if err != nil {
		return nil, err
	}
	return body, nil
}

// statusError is an unexpected non-success HTTP status.
type statusError struct {
	body string
	code int
}

func (e *statusError) Error() string {
	return fmt.Sprintf("unexpected status %d: %s", e.code, e.body)
}

// call runs one request under its own timeout per attempt, mapping
// transport and status failures onto the error taxonomy.
func (c *Client) call(ctx context.Context, op string, timeout time.Duration, retry service.RetryOptions,
	do func(*resty.Request) (*resty.Response, error)) error {
	return common.WithRetry(ctx, func() error {
		attemptCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		resp, err := do(c.http.R().SetContext(attemptCtx))
		if err := classify(op, resp, err); err != nil {
			c.logger.Debug("Request failed", "op", op, "error", err)
			return err
		}
		return nil
	}, retry)
}

func classify(op string, resp *resty.Response, err error) error {
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return err
		}
		return &common.NetworkError{Op: op, Err: err}
	}

	code := resp.StatusCode()
	switch {
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return &common.AuthError{Op: op, Err: &statusError{code: code, body: snippet(resp)}}
	case code == http.StatusTooManyRequests:
		return fmt.Errorf("%s: %w", op, common.ErrRateLimit)
	case code >= http.StatusInternalServerError:
		return &common.NetworkError{Op: op, Err: &statusError{code: code, body: snippet(resp)}}
	case code >= http.StatusBadRequest:
		return fmt.Errorf("%s: %w", op, &statusError{code: code, body: snippet(resp)})
	}
	return nil
}

func snippet(resp *resty.Response) string {
	const maxLen = 200
	body := strings.TrimSpace(string(resp.Body()))
	if len(body) > maxLen {
		body = body[:maxLen] + "..."
	}
	return body
}

var (
	_ service.ListingSource = (*Client)(nil)
	_ service.Billing       = (*Client)(nil)
	_ service.HistoryLog    = (*Client)(nil)
	_ service.CSVGenerator  = (*Client)(nil)
	_ service.HealthChecker = (*Client)(nil)
)
