// Package apiclient provides a REST API client for bpctl.
package apiclient

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const defaultTimeout = 30 * time.Second

// Client is the blobpool API client.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a client for the server at baseURL.
func New(baseURL string) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
}

// WithTimeout returns a new client with the given request timeout.
// Archive runs upload whole blob containers, so bpctl uses a much
// longer timeout for them than for status reads.
func (c *Client) WithTimeout(timeout time.Duration) *Client {
	return &Client{
		baseURL:    c.baseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// BaseURL returns the server URL the client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// envelope is the server's standard response wrapper.
type envelope struct {
	Status    string          `json:"status"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data,omitempty"`
	Error     string          `json:"error,omitempty"`
}

func (c *Client) newRequest(method, path string, body any) (*http.Request, error) {
	var payload io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		payload = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, c.baseURL+path, payload)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	return req, nil
}

// do performs an HTTP request, unwraps the response envelope and
// decodes its data payload into result.
func (c *Client) do(method, path string, body, result any) error {
	req, err := c.newRequest(method, path, body)
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to reach the server: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read the response: %w", err)
	}

	if resp.StatusCode >= 400 {
		return apiError(resp.StatusCode, respBody)
	}
	if result == nil || len(respBody) == 0 {
		return nil
	}

	var env envelope
	if err := json.Unmarshal(respBody, &env); err != nil {
		return fmt.Errorf("failed to decode the response envelope: %w", err)
	}
	if len(env.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Data, result); err != nil {
		return fmt.Errorf("failed to decode response data: %w", err)
	}
	return nil
}

// apiError shapes an error response into an *APIError. Envelope bodies
// contribute their status and error fields; anything else is passed
// through raw.
func apiError(code int, body []byte) *APIError {
	var env envelope
	if json.Unmarshal(body, &env) == nil && env.Error != "" {
		return &APIError{
			StatusCode: code,
			Status:     env.Status,
			Message:    env.Error,
		}
	}
	return &APIError{
		StatusCode: code,
		Message:    string(body),
	}
}

func (c *Client) get(path string, result any) error {
	return c.do(http.MethodGet, path, nil, result)
}

func (c *Client) post(path string, body, result any) error {
	return c.do(http.MethodPost, path, body, result)
}
