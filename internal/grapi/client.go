// Package grapi is the client of the goods-receipt backend.
package grapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"path"
	"strconv"
	"time"

	ferrors "git.home.luguber.info/inful/grdesk/internal/foundation/errors"
	"git.home.luguber.info/inful/grdesk/internal/logfields"
	"git.home.luguber.info/inful/grdesk/internal/receipts"
	"git.home.luguber.info/inful/grdesk/internal/retry"
)

const (
	operationsPath  = "/goods-receipts/operations"
	statusRulesPath = "/goods-receipts/status-rules"
)

// Config configures a Client.
type Config struct {
	BaseURL string
	Token   string
	Timeout time.Duration
	Retry   retry.Policy
}

// Client talks JSON over HTTP to the goods-receipt backend. GET requests are
// retried with the configured policy; creation is never retried.
type Client struct {
	baseURL    *url.URL
	token      string
	httpClient *http.Client
	policy     retry.Policy
	logger     *slog.Logger
}

var _ receipts.Backend = (*Client)(nil)

// NewClient validates cfg and returns a Client.
func NewClient(cfg Config, logger *slog.Logger) (*Client, error) {
	u, err := url.Parse(cfg.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, ferrors.ConfigError("invalid backend url").
			WithContext("url", cfg.BaseURL).
			WithCause(err).
			Build()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.Retry.Validate() != nil {
		cfg.Retry = retry.DefaultPolicy()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL:    u,
		token:      cfg.Token,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		policy:     cfg.Retry,
		logger:     logger,
	}, nil
}

// CreateOperation posts a new operation.
func (c *Client) CreateOperation(ctx context.Context, body receipts.CreateBody) (receipts.Operation, error) {
	var op receipts.Operation
	req, err := c.newRequest(ctx, http.MethodPost, operationsPath, nil, body)
	if err != nil {
		return op, err
	}
	err = c.doRequest(req, &op)
	return op, err
}

// ListOperations lists operations matching filter.
func (c *Client) ListOperations(ctx context.Context, filter receipts.ListFilter) (receipts.OperationsList, error) {
	q := url.Values{}
	if filter.SupNumber != "" {
		q.Set("supNumber", filter.SupNumber)
	}
	if filter.Limit > 0 {
		q.Set("limit", strconv.Itoa(filter.Limit))
	}
	var out receipts.OperationsList
	err := c.get(ctx, operationsPath, q, &out)
	return out, err
}

// StatusRules returns the operation status rules.
func (c *Client) StatusRules(ctx context.Context) ([]receipts.StatusRule, error) {
	var rules []receipts.StatusRule
	err := c.get(ctx, statusRulesPath, nil, &rules)
	return rules, err
}

func (c *Client) get(ctx context.Context, endpoint string, q url.Values, result any) error {
	return c.policy.Do(ctx, ferrors.IsRetryable, func(ctx context.Context) error {
		req, err := c.newRequest(ctx, http.MethodGet, endpoint, q, nil)
		if err != nil {
			return err
		}
		err = c.doRequest(req, result)
		if err != nil && ferrors.IsRetryable(err) {
			c.logger.DebugContext(ctx, "Backend request failed, retrying",
				logfields.Path(endpoint), logfields.Error(err))
		}
		return err
	})
}

func (c *Client) newRequest(ctx context.Context, method, endpoint string, q url.Values, body any) (*http.Request, error) {
	u := *c.baseURL
	u.Path = path.Join(u.Path, endpoint)
	u.RawQuery = q.Encode()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return nil, ferrors.InternalError("encode request body").WithCause(err).Build()
		}
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, u.String(), reader)
	if err != nil {
		return nil, ferrors.InternalError("build request").WithCause(err).Build()
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "grdesk/1.0")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	return req, nil
}

func (c *Client) doRequest(req *http.Request, result any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctxErr := req.Context().Err(); ctxErr != nil {
			return ctxErr
		}
		return ErrUnreachable.WithContext(logfields.KeyPath, req.URL.Path).WithCause(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		cause := fmt.Errorf("%s: %s", resp.Status, bytes.TrimSpace(msg))
		var base *ferrors.ClassifiedError
		switch {
		case resp.StatusCode == http.StatusNotFound:
			base = ErrNotFound
		case resp.StatusCode >= 500:
			base = ErrBackend
		default:
			base = ErrRejected
		}
		return base.WithContext(logfields.KeyPath, req.URL.Path).
			WithContext("status", resp.StatusCode).
			WithCause(cause)
	}

	if result == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return ErrDecode.WithContext(logfields.KeyPath, req.URL.Path).WithCause(err)
	}
	return nil
}
