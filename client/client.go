// Package client is a Go SDK for the storefront HTTP API. It keeps the
// bearer token between calls and guards wishlist mutations against
// duplicate in-flight submissions.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	goerrors "github.com/goliatone/go-errors"
)

const defaultTimeout = 10 * time.Second

// Config holds client configuration
type Config struct {
	// BaseURL is the server origin, e.g. "http://localhost:8080"
	BaseURL    string
	HTTPClient *http.Client
	UserAgent  string
}

// Client talks to the storefront API
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
	userAgent  string

	mu    sync.RWMutex
	token string

	inflight *InFlight
}

// New validates cfg and returns a Client without a token
func New(cfg Config) (*Client, error) {
	raw := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if raw == "" {
		return nil, fmt.Errorf("client: base url is required")
	}

	base, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("client: invalid base url: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("client: base url must be absolute, got %q", raw)
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}

	return &Client{
		baseURL:    base,
		httpClient: httpClient,
		userAgent:  cfg.UserAgent,
		inflight:   NewInFlight(),
	}, nil
}

// SetToken stores the bearer token sent with every request
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = strings.TrimSpace(token)
	c.mu.Unlock()
}

// Token returns the stored bearer token
func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// Logout forgets the token. Tokens are stateless, nothing is sent to the
// server.
func (c *Client) Logout() {
	c.SetToken("")
}

// InFlight exposes the mutation guard, callers can check Busy before
// rendering a control as enabled
func (c *Client) InFlight() *InFlight {
	return c.inflight
}

func (c *Client) endpoint(path string, query url.Values) string {
	u := *c.baseURL
	u.Path = strings.TrimRight(u.Path, "/") + "/" + strings.TrimLeft(path, "/")
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	return u.String()
}

func (c *Client) newRequest(ctx context.Context, method, path string, query url.Values, body any) (*http.Request, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("client: encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.endpoint(path, query), reader)
	if err != nil {
		return nil, err
	}

	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	if token := c.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req, nil
}

// do sends the request and decodes a JSON body into out when out is not
// nil. Non 2xx responses are returned as *goerrors.Error.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	req, err := c.newRequest(ctx, method, path, query, body)
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return decodeError(resp)
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil && err != io.EOF {
		return fmt.Errorf("client: decode %s %s: %w", method, path, err)
	}
	return nil
}

// deleteIdempotent treats 204 and 404 as success
func (c *Client) deleteIdempotent(ctx context.Context, path string) error {
	err := c.do(ctx, http.MethodDelete, path, nil, nil, nil)
	if err == nil {
		return nil
	}

	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) && richErr.Code == http.StatusNotFound {
		return nil
	}
	return err
}

func decodeError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))

	envelope := goerrors.ErrorResponse{}
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Error != nil && envelope.Error.Message != "" {
		richErr := envelope.Error
		richErr.Code = resp.StatusCode
		if richErr.Category == "" {
			richErr.Category = categoryForStatus(resp.StatusCode)
		}
		return richErr
	}

	message := strings.TrimSpace(string(body))
	if message == "" {
		message = http.StatusText(resp.StatusCode)
	}
	return goerrors.New(message, categoryForStatus(resp.StatusCode)).
		WithCode(resp.StatusCode)
}

func categoryForStatus(status int) goerrors.Category {
	switch status {
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return goerrors.CategoryValidation
	case http.StatusUnauthorized:
		return goerrors.CategoryAuth
	case http.StatusForbidden:
		return goerrors.CategoryAuthz
	case http.StatusNotFound:
		return goerrors.CategoryNotFound
	case http.StatusConflict:
		return goerrors.CategoryConflict
	default:
		return goerrors.CategoryExternal
	}
}
