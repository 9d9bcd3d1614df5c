// Package graphql implements a minimal GraphQL-over-HTTP client for the
// Aptos indexer API: one POST per query, typed transport and decode
// failures, no retries. Retry and pagination policy belong to the caller.
package graphql

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Executor sends one query/response cycle to the remote endpoint. It exists
// so pagination can be driven against a scripted fake in tests.
type Executor interface {
	Execute(ctx context.Context, query string, variables map[string]any) (*Response, error)
}

// Response is the standard GraphQL response envelope. Data is kept raw so
// callers decode only the collection field they asked for.
type Response struct {
	Data   json.RawMessage `json:"data"`
	Errors []Error         `json:"errors,omitempty"`
}

// Error is one entry of the GraphQL errors array.
type Error struct {
	Message    string         `json:"message"`
	Extensions map[string]any `json:"extensions,omitempty"`
}

// Opts configures a Client. The zero value of optional fields picks defaults.
type Opts struct {
	Endpoint   string
	AuthToken  string
	Timeout    time.Duration
	HTTPClient *http.Client
}

// Client is an immutable GraphQL query executor. All request state (endpoint,
// auth header) is fixed at construction; there is no shared session object.
type Client struct {
	endpoint  string
	authToken string
	client    *http.Client
}

// New creates a Client with the given options.
func New(o Opts) *Client {
	if o.Timeout <= 0 {
		o.Timeout = 15 * time.Second
	}
	client := o.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: o.Timeout}
	}
	return &Client{
		endpoint:  o.Endpoint,
		authToken: o.AuthToken,
		client:    client,
	}
}

type request struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables"`
}

// Execute POSTs {query, variables} to the endpoint and decodes the response
// envelope. Network and non-2xx failures surface as *TransportError, bodies
// that are not valid JSON as *DecodeError. GraphQL-level errors are returned
// inside the Response, not as a Go error.
func (c *Client) Execute(ctx context.Context, query string, variables map[string]any) (*Response, error) {
	if variables == nil {
		variables = map[string]any{}
	}
	body, err := json.Marshal(request{Query: query, Variables: variables})
	if err != nil {
		return nil, fmt.Errorf("marshal query: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.authToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.authToken)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, &TransportError{Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Status: resp.StatusCode, Err: err}
	}

	if resp.StatusCode >= 300 {
		return nil, &TransportError{
			Status: resp.StatusCode,
			Err:    fmt.Errorf("http %d: %s", resp.StatusCode, excerpt(raw)),
		}
	}

	var out Response
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, &DecodeError{Err: err, Excerpt: excerpt(raw)}
	}
	return &out, nil
}

func excerpt(body []byte) string {
	return string(body[:min(200, len(body))])
}
