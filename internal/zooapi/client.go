// Package zooapi is the HTTP client for the zoo services REST API.
package zooapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/smileynet/zoodesk/internal/zoo"
)

// Client implements zoo.Repository over HTTP.
type Client struct {
	baseURL    string
	httpClient *http.Client
	token      string
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout sets the HTTP timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// WithToken sets a bearer token sent on every request.
func WithToken(token string) Option {
	return func(c *Client) {
		c.token = token
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// New creates a client for the API rooted at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ErrorResponse is the JSON error body returned by the API.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// List returns all services.
func (c *Client) List(ctx context.Context) ([]zoo.Service, error) {
	var services []zoo.Service
	if err := c.do(ctx, http.MethodGet, "/services", nil, http.StatusOK, &services); err != nil {
		return nil, err
	}
	return services, nil
}

// Create posts a new service and returns it with its assigned ID.
func (c *Client) Create(ctx context.Context, f zoo.Fields) (zoo.Service, error) {
	var created zoo.Service
	if err := c.do(ctx, http.MethodPost, "/services", f, http.StatusCreated, &created); err != nil {
		return zoo.Service{}, err
	}
	return created, nil
}

// Update replaces the fields of service id.
func (c *Client) Update(ctx context.Context, id string, f zoo.Fields) (zoo.Service, error) {
	var updated zoo.Service
	if err := c.do(ctx, http.MethodPut, "/services/"+url.PathEscape(id), f, http.StatusOK, &updated); err != nil {
		return zoo.Service{}, err
	}
	return updated, nil
}

// Delete removes service id.
func (c *Client) Delete(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/services/"+url.PathEscape(id), nil, http.StatusNoContent, nil)
}

// do sends one request and decodes a successful response into out.
func (c *Client) do(ctx context.Context, method, path string, body any, want int, out any) error {
	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("zooapi: encoding request: %w", err)
		}
		r = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, r)
	if err != nil {
		return fmt.Errorf("zooapi: building request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s %s: %v", zoo.ErrTransport, method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != want && !(want == http.StatusNoContent && resp.StatusCode == http.StatusOK) {
		return parseError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decoding %s %s response: %v", zoo.ErrTransport, method, path, err)
	}
	return nil
}

// parseError maps a non-success response onto a zoo error kind.
func parseError(resp *http.Response) error {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	msg := http.StatusText(resp.StatusCode)
	var er ErrorResponse
	if json.Unmarshal(data, &er) == nil && (er.Message != "" || er.Error != "") {
		msg = er.Message
		if msg == "" {
			msg = er.Error
		}
	}

	switch resp.StatusCode {
	case http.StatusNotFound:
		return fmt.Errorf("%w: %s", zoo.ErrNotFound, msg)
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return fmt.Errorf("%w: %s", zoo.ErrValidation, msg)
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("%w: %s", zoo.ErrForbidden, msg)
	default:
		return fmt.Errorf("%w: status %d: %s", zoo.ErrTransport, resp.StatusCode, msg)
	}
}
