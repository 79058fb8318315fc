// Package graphql is the registry transport: one Submit operation that
// posts a query with its variables and returns the decoded reply.
package graphql

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

	"github.com/google/uuid"
)

var (
	// ErrGraphQL matches replies that carry server-reported errors.
	ErrGraphQL = errors.New("graphql: server reported errors")

	ErrNotConfigured = errors.New("graphql: endpoint not configured")
)

// Request is one operation.
type Request struct {
	Query         string         `json:"query"`
	OperationName string         `json:"operationName,omitempty"`
	Variables     map[string]any `json:"variables,omitempty"`
}

// Error is one entry of a reply's errors list.
type Error struct {
	Message    string         `json:"message"`
	Path       []any          `json:"path,omitempty"`
	Extensions map[string]any `json:"extensions,omitempty"`
}

// Errors is the errors list of a reply. It matches ErrGraphQL.
type Errors []Error

func (e Errors) Error() string {
	msgs := make([]string, len(e))
	for i, err := range e {
		msgs[i] = err.Message
	}
	return "graphql: " + strings.Join(msgs, "; ")
}

func (e Errors) Is(target error) bool { return target == ErrGraphQL }

// Response is a decoded reply.
type Response struct {
	Data   json.RawMessage `json:"data"`
	Errors Errors          `json:"errors,omitempty"`
}

// Submitter sends one operation.
type Submitter interface {
	Submit(ctx context.Context, req Request) (*Response, error)
}

// TokenSource supplies bearer tokens.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// StaticToken is a TokenSource that always returns itself.
type StaticToken string

func (t StaticToken) Token(context.Context) (string, error) { return string(t), nil }

// HTTPError is a non-200 reply.
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("graphql: http %d: %s", e.StatusCode, e.Body)
}

// Config configures a Client.
type Config struct {
	URL        string
	Tokens     TokenSource
	Timeout    time.Duration
	HTTPClient *http.Client
}

// Client posts operations to a GraphQL endpoint.
type Client struct {
	httpClient *http.Client
	url        string
	tokens     TokenSource
}

// NewClient returns a Client for cfg.URL.
func NewClient(cfg Config) (*Client, error) {
	if cfg.URL == "" {
		return nil, ErrNotConfigured
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout == 0 {
			timeout = 30 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	return &Client{httpClient: httpClient, url: cfg.URL, tokens: cfg.Tokens}, nil
}

// Submit posts req. A reply with an errors list returns both the response
// and an Errors value.
func (c *Client) Submit(ctx context.Context, req Request) (*Response, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("X-Request-ID", uuid.NewString())
	if c.tokens != nil {
		token, err := c.tokens.Token(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to get token: %w", err)
		}
		httpReq.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, &HTTPError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(b))}
	}

	var out Response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if len(out.Errors) > 0 {
		return &out, out.Errors
	}
	return &out, nil
}

// Do submits req and decodes its data into T.
func Do[T any](ctx context.Context, s Submitter, req Request) (*T, error) {
	resp, err := s.Submit(ctx, req)
	if err != nil {
		return nil, err
	}
	var out T
	if len(resp.Data) == 0 || string(resp.Data) == "null" {
		return &out, nil
	}
	if err := json.Unmarshal(resp.Data, &out); err != nil {
		return nil, fmt.Errorf("failed to decode %s data: %w", req.OperationName, err)
	}
	return &out, nil
}
