package http

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
)

const (
	MethodGet  = http.MethodGet
	MethodPost = http.MethodPost
	MethodPut  = http.MethodPut
)

// defaultUserAgent identifies this service to the public search APIs.
// Reddit in particular throttles requests with a generic agent.
const defaultUserAgent = "money-loop/1.0"

const maxErrorBody = 2048

// ClientOption configures Client.
type ClientOption func(*Client)

// RequestOptions holds one outbound request's parameters.
type RequestOptions struct {
	Method      string
	URL         string
	Headers     map[string]string
	QueryParams map[string][]string
	Body        interface{}
}

// Client wraps http.Client for the external API integrations. All
// integrations share the same timeout and decode conventions.
type Client struct {
	timeout time.Duration
	client  *http.Client
}

func NewClient(opts ...ClientOption) *Client {
	c := &Client{timeout: 30 * time.Second}
	for _, opt := range opts {
		opt(c)
	}
	c.client = &http.Client{Timeout: c.timeout}
	return c
}

// WithTimeout sets the client timeout.
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) { c.timeout = timeout }
}

// SendRequest sends an HTTP request and returns the raw response. The
// caller owns the body.
func (c *Client) SendRequest(ctx context.Context, opts *RequestOptions) (*http.Response, error) {
	req, err := c.buildRequest(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	return resp, nil
}

// SendAndParse sends the request and decodes a 2xx response into dest:
// *[]byte gets the raw body, io.Writer gets a copy, anything else is
// decoded as JSON. Non-2xx responses become errors carrying a bounded
// slice of the body.
func (c *Client) SendAndParse(ctx context.Context, opts *RequestOptions, dest interface{}) error {
	resp, err := c.SendRequest(ctx, opts)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, body)
	}
	if dest == nil {
		return nil
	}

	switch v := dest.(type) {
	case *[]byte:
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("read body: %w", err)
		}
		*v = body
	case io.Writer:
		if _, err := io.Copy(v, resp.Body); err != nil {
			return fmt.Errorf("copy body: %w", err)
		}
	default:
		if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
			return fmt.Errorf("decode json: %w", err)
		}
	}
	return nil
}

func (c *Client) buildRequest(ctx context.Context, opts *RequestOptions) (*http.Request, error) {
	body, err := requestBody(opts)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, opts.Method, opts.URL, body)
	if err != nil {
		return nil, err
	}

	if len(opts.QueryParams) > 0 {
		q := req.URL.Query()
		for key, values := range opts.QueryParams {
			for _, value := range values {
				q.Add(key, value)
			}
		}
		req.URL.RawQuery = q.Encode()
	}

	for key, value := range opts.Headers {
		req.Header.Set(key, value)
	}
	if req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", defaultUserAgent)
	}
	if req.Header.Get("Content-Type") == "" && req.Body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req, nil
}

func requestBody(opts *RequestOptions) (io.Reader, error) {
	switch v := opts.Body.(type) {
	case nil:
		return nil, nil
	case []byte:
		return bytes.NewReader(v), nil
	case string:
		return strings.NewReader(v), nil
	case io.Reader:
		return v, nil
	case map[string]string:
		if opts.Headers["Content-Type"] == "application/x-www-form-urlencoded" {
			values := url.Values{}
			for k, val := range v {
				values.Set(k, val)
			}
			return strings.NewReader(values.Encode()), nil
		}
	}

	jsonBody, err := json.Marshal(opts.Body)
	if err != nil {
		return nil, fmt.Errorf("marshal json: %w", err)
	}
	return bytes.NewReader(jsonBody), nil
}
