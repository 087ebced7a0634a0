package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"dockwatch/internal"
)

const (
	// DefaultTimeout is the per-attempt deadline.
	DefaultTimeout = 30 * time.Second
	// DefaultMaxRetries is how many additional attempts follow the first.
	DefaultMaxRetries = 3

	baseBackoff = 1000 * time.Millisecond
	maxBackoff  = 10 * time.Second
)

// Request describes one logical HTTP call. The body is held as bytes so
// retried attempts can replay it.
type Request struct {
	Method      string
	URL         string
	Header      http.Header
	Body        []byte
	ContentType string
}

// Response is the buffered outcome of a successful call.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Client issues HTTP requests with per-attempt timeouts and exponential
// backoff on transient failures. No retry state is shared across calls.
type Client struct {
	HTTP       *http.Client
	Timeout    time.Duration
	MaxRetries int
	// Backoff maps a zero-based attempt index to a delay before the next
	// attempt. Overridable so tests do not have to wait out real delays.
	Backoff func(attempt int) time.Duration
	Logger  *internal.Logger
}

// New builds a client with the default retry policy.
func New(timeout time.Duration, maxRetries int) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if maxRetries < 0 {
		maxRetries = DefaultMaxRetries
	}
	return &Client{
		HTTP:       &http.Client{},
		Timeout:    timeout,
		MaxRetries: maxRetries,
		Backoff:    BackoffDelay,
		Logger:     internal.DefaultLogger,
	}
}

// BackoffDelay is the production schedule: min(1000ms * 2^attempt, 10s).
func BackoffDelay(attempt int) time.Duration {
	d := baseBackoff << uint(attempt)
	if d > maxBackoff || d <= 0 {
		return maxBackoff
	}
	return d
}

// Do performs the request, retrying on transport errors and 5xx responses.
// 4xx responses surface immediately as non-retryable REQUEST_ERRORs.
func (c *Client) Do(ctx context.Context, req Request) (*Response, error) {
	if err := c.validate(&req); err != nil {
		return nil, err
	}

	var lastErr error
	for attempt := 0; attempt <= c.MaxRetries; attempt++ {
		if attempt > 0 {
			if err := c.wait(ctx, c.Backoff(attempt-1)); err != nil {
				return nil, err
			}
			c.logger().Debug("retrying %s %s (attempt %d/%d)", req.Method, req.URL, attempt+1, c.MaxRetries+1)
		}

		resp, err := c.attempt(ctx, req)
		if err == nil {
			return resp, nil
		}
		lastErr = err
		if !IsRetryable(err) {
			return nil, err
		}
	}
	return nil, lastErr
}

func (c *Client) validate(req *Request) *RequestError {
	if req.Method == "" {
		req.Method = http.MethodGet
	}
	if strings.TrimSpace(req.URL) == "" {
		return validationError("request URL is empty")
	}
	parsed, err := url.Parse(req.URL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return validationError("request URL is not absolute: " + req.URL)
	}
	return nil
}

func (c *Client) attempt(ctx context.Context, req Request) (*Response, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, c.Timeout)
	defer cancel()

	var body io.Reader
	if len(req.Body) > 0 {
		body = bytes.NewReader(req.Body)
	}
	httpReq, err := http.NewRequestWithContext(attemptCtx, req.Method, req.URL, body)
	if err != nil {
		return nil, &RequestError{Kind: KindValidation, Message: "build request: " + err.Error(), Err: err}
	}
	for k, vs := range req.Header {
		for _, v := range vs {
			httpReq.Header.Add(k, v)
		}
	}
	if req.ContentType != "" {
		httpReq.Header.Set("Content-Type", req.ContentType)
	}

	resp, err := c.HTTP.Do(httpReq)
	if err != nil {
		return nil, classifyTransport(attemptCtx, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &RequestError{Kind: KindNetwork, Status: resp.StatusCode, Message: "read response body: " + err.Error(), Err: err}
	}

	if resp.StatusCode >= 400 {
		return nil, &RequestError{
			Kind:    KindRequest,
			Status:  resp.StatusCode,
			Message: "backend returned " + resp.Status,
		}
	}

	return &Response{StatusCode: resp.StatusCode, Header: resp.Header, Body: raw}, nil
}

// wait sleeps for the backoff delay, bailing out if the caller cancels.
func (c *Client) wait(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return classifyTransport(ctx, ctx.Err())
	case <-timer.C:
		return nil
	}
}

func classifyTransport(ctx context.Context, err error) *RequestError {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return &RequestError{Kind: KindTimeout, Message: "request timed out", Err: err}
	}
	return &RequestError{Kind: KindNetwork, Message: err.Error(), Err: err}
}

// DecodeJSON unmarshals a response body, mapping malformed bodies to PARSE_ERROR.
func DecodeJSON(resp *Response, v interface{}) error {
	if err := json.Unmarshal(resp.Body, v); err != nil {
		return &RequestError{
			Kind:    KindParse,
			Status:  resp.StatusCode,
			Message: "malformed JSON body: " + err.Error(),
			Err:     err,
		}
	}
	return nil
}

func (c *Client) logger() *internal.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return internal.DefaultLogger
}
