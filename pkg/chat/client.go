package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// ChatPath is the endpoint every turn is POSTed to.
const ChatPath = "/api/v1/chat"

// Client sends chat turns to a server. It performs exactly one HTTP
// request per Send and never retries.
type Client struct {
	baseURL    string
	httpClient *http.Client
	timeout    time.Duration
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient overrides the underlying http.Client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithTimeout bounds each Send. Zero (the default) leaves requests unbounded.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.timeout = d
	}
}

// NewClient creates a Client talking to the server at baseURL
// (e.g. "http://localhost:8000").
func NewClient(baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the server URL turns are sent to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Send POSTs req to the chat endpoint. The bearer token is attached only
// when it is non-empty after trimming.
//
// A non-2xx answer returns a *StatusError carrying the raw body. Any other
// error means the exchange could not be completed.
func (c *Client) Send(ctx context.Context, token string, req TurnRequest) (*TurnResponse, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+ChatPath, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if tok := strings.TrimSpace(token); tok != "" {
		httpReq.Header.Set("Authorization", "Bearer "+tok)
	}

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode < 200 || httpResp.StatusCode > 299 {
		// Best effort: whatever could be read is surfaced as-is.
		raw, _ := io.ReadAll(httpResp.Body)
		return nil, &StatusError{
			Code:   httpResp.StatusCode,
			Status: statusText(httpResp),
			Body:   string(raw),
		}
	}

	var resp TurnResponse
	if err := json.NewDecoder(httpResp.Body).Decode(&resp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	return &resp, nil
}

// statusText extracts the reason phrase from resp.Status ("500 Internal
// Server Error" -> "Internal Server Error"), falling back to the standard
// text for the code.
func statusText(resp *http.Response) string {
	text := strings.TrimSpace(strings.TrimPrefix(resp.Status, strconv.Itoa(resp.StatusCode)))
	if text == "" {
		text = http.StatusText(resp.StatusCode)
	}
	return text
}
