package httpx

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

	"golang.org/x/time/rate"
)

// Observer receives the outcome of every round trip. status is zero when the
// request failed before a response was received.
type Observer func(method string, status int, elapsed time.Duration, err error)

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the HTTP client used by the helper.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.httpClient = h
		}
	}
}

// WithHeaders assigns default headers added to every request.
func WithHeaders(h http.Header) Option {
	return func(c *Client) {
		for k, values := range h {
			for _, v := range values {
				c.headers.Add(k, v)
			}
		}
	}
}

// WithRateLimit spaces outbound requests to at most rps per second. A
// non-positive rps disables limiting.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *Client) {
		if rps <= 0 {
			c.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithObserver registers a callback invoked after each request.
func WithObserver(fn Observer) Option {
	return func(c *Client) {
		c.observe = fn
	}
}

// Client wraps http.Client with default headers and uniform error handling.
// It never retries and does not impose a timeout of its own; callers bound
// requests through the context.
type Client struct {
	httpClient *http.Client
	headers    http.Header
	limiter    *rate.Limiter
	observe    Observer
}

// Request describes a single outbound request against a fully built URL.
type Request struct {
	Method string
	URL    string
	Header http.Header
	Body   io.Reader
}

// NewClient creates a Client.
func NewClient(opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{},
		headers:    make(http.Header),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Do executes the provided request. Responses outside the 2xx range are
// consumed and returned as *HTTPError; otherwise the caller owns resp.Body.
func (c *Client) Do(ctx context.Context, req *Request) (*http.Response, error) {
	if req == nil {
		return nil, errors.New("httpx: request is nil")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if req.Method == "" {
		return nil, errors.New("httpx: HTTP method is required")
	}
	if strings.TrimSpace(req.URL) == "" {
		return nil, errors.New("httpx: URL is required")
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	body := req.Body
	if body == nil {
		body = http.NoBody
	}
	httpReq, err := http.NewRequestWithContext(ctx, req.Method, req.URL, body)
	if err != nil {
		return nil, fmt.Errorf("httpx: build request: %w", err)
	}
	httpReq.Header = cloneHeader(c.headers)
	for k, values := range req.Header {
		for _, v := range values {
			httpReq.Header.Add(k, v)
		}
	}

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.report(req.Method, 0, start, err)
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		err = c.handleError(req, resp)
		c.report(req.Method, resp.StatusCode, start, err)
		return nil, err
	}
	c.report(req.Method, resp.StatusCode, start, nil)
	return resp, nil
}

func (c *Client) report(method string, status int, start time.Time, err error) {
	if c.observe != nil {
		c.observe(method, status, time.Since(start), err)
	}
}

func (c *Client) handleError(req *Request, resp *http.Response) error {
	body := readErrorBody(resp.Body)
	httpErr := &HTTPError{
		Method:     req.Method,
		URL:        req.URL,
		StatusCode: resp.StatusCode,
		Body:       string(body),
		Header:     resp.Header.Clone(),
	}
	if isJSON(resp.Header.Get("Content-Type")) {
		httpErr.JSON = decodeJSONBody(body)
	}
	return httpErr
}

// readErrorBody drains the body of a failed response. The error text is best
// effort: a body that cannot be read is reported as empty.
func readErrorBody(rc io.ReadCloser) []byte {
	data, err := ReadAllAndClose(rc)
	if err != nil {
		return nil
	}
	return data
}

func closeBody(rc io.ReadCloser) {
	if rc != nil {
		_ = rc.Close()
	}
}

// WithJSONBody serializes the supplied value into JSON and returns a reusable reader.
func WithJSONBody(v any) (io.Reader, string, error) {
	data, err := jsonMarshal(v)
	if err != nil {
		return nil, "", err
	}
	return bytes.NewReader(data), "application/json", nil
}

// ReadAllAndClose drains the reader and ensures it is closed.
func ReadAllAndClose(rc io.ReadCloser) ([]byte, error) {
	if rc == nil {
		return nil, nil
	}
	defer closeBody(rc)
	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, err
	}
	return data, nil
}

func isJSON(contentType string) bool {
	if contentType == "" {
		return false
	}
	if idx := strings.Index(contentType, ";"); idx >= 0 {
		contentType = contentType[:idx]
	}
	return strings.TrimSpace(contentType) == "application/json"
}

func cloneHeader(src http.Header) http.Header {
	dst := make(http.Header, len(src))
	for k, values := range src {
		vCopy := make([]string, len(values))
		copy(vCopy, values)
		dst[k] = vCopy
	}
	return dst
}

func jsonMarshal(v any) ([]byte, error) {
	buf := &bytes.Buffer{}
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	data := bytes.TrimRight(buf.Bytes(), "\n")
	return data, nil
}
