// Package client calls the RunEase verification API over HTTP. Failures come
// back as *APIError values that unwrap to the matching domain sentinel, so
// callers can use errors.Is exactly as they would against the service.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/runease-api/internal/domain"
)

// APIError is a non-2xx response, or a 2xx response that reports a partial failure.
type APIError struct {
	Status  int
	Reason  string
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("runease api: status %d", e.Status)
	}
	return fmt.Sprintf("runease api: %s (status %d)", e.Message, e.Status)
}

// Unwrap maps the reason, or failing that the status, onto a domain error.
func (e *APIError) Unwrap() error {
	if err := domain.ErrorForReason(e.Reason); err != nil {
		return err
	}
	switch e.Status {
	case http.StatusBadRequest:
		return domain.ErrValidation
	case http.StatusNotFound:
		return domain.ErrNotFound
	case http.StatusConflict:
		return domain.ErrConflict
	case http.StatusUnauthorized:
		return domain.ErrInvalidCode
	case http.StatusGone:
		return domain.ErrExpired
	case http.StatusTooManyRequests:
		return domain.ErrTooManyRequests
	}
	return nil
}

type Client struct {
	baseURL string
	http    *http.Client
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 15 * time.Second},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Code    string          `json:"code,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// IssueCode asks the service to email a fresh code.
func (c *Client) IssueCode(ctx context.Context, email string) error {
	_, err := c.post(ctx, "/send-otp", domain.SendCodeRequest{Email: email})
	return err
}

// VerifyCode submits a code for email.
func (c *Client) VerifyCode(ctx context.Context, email, code string) error {
	_, err := c.post(ctx, "/verify-otp", domain.VerifyCodeRequest{Email: email, Code: code})
	return err
}

// Register creates an account. When the account was created but its first
// code could not be sent, the user is returned together with an error that
// wraps domain.ErrDelivery.
func (c *Client) Register(ctx context.Context, req domain.CreateUserRequest) (*domain.User, error) {
	env, err := c.post(ctx, "/users", req)
	if env == nil {
		return nil, err
	}
	var u domain.User
	if decErr := json.Unmarshal(env.Data, &u); decErr != nil {
		return nil, fmt.Errorf("decode user: %w", decErr)
	}
	return &u, err
}

// Health returns nil when the service answers its health check.
func (c *Client) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	if resp.StatusCode != http.StatusOK {
		return &APIError{Status: resp.StatusCode}
	}
	return nil
}

// post returns the decoded envelope for any 2xx status. The error is non-nil
// for failures and for successes that carry a reason code.
func (c *Client) post(ctx context.Context, path string, body any) (*envelope, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("POST %s: %w", path, err)
	}
	defer resp.Body.Close()

	var env envelope
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read %s response: %w", path, err)
	}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &env); err != nil && resp.StatusCode < 300 {
			return nil, fmt.Errorf("decode %s response: %w", path, err)
		}
	}

	if resp.StatusCode >= 300 {
		return nil, &APIError{Status: resp.StatusCode, Reason: env.Code, Message: env.Message}
	}
	if env.Code != "" {
		return &env, &APIError{Status: resp.StatusCode, Reason: env.Code, Message: env.Message}
	}
	return &env, nil
}
