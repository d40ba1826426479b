package carapi

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"sync"

	"github.com/carfamily/carfamily_sdk_go/internal/httpx"
	"github.com/carfamily/carfamily_sdk_go/internal/jsonbody"
	"github.com/carfamily/carfamily_sdk_go/internal/metrics"
	"github.com/carfamily/carfamily_sdk_go/pkg/prefs"
)

// Option configures a Client.
type Option func(*Client)

// WithConfig replaces the default configuration.
func WithConfig(cfg Config) Option {
	return func(c *Client) {
		c.cfg = cfg
	}
}

// WithPrefs sets the durable store the user name is read from and written to.
// Without it the user name lives in memory only.
func WithPrefs(store prefs.Store) Option {
	return func(c *Client) {
		if store != nil {
			c.prefs = store
		}
	}
}

// WithHTTPClient overrides the underlying *http.Client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		c.httpOpts = append(c.httpOpts, httpx.WithHTTPClient(h))
	}
}

// WithHeader adds a header sent with every request.
func WithHeader(key, value string) Option {
	return func(c *Client) {
		c.httpOpts = append(c.httpOpts, httpx.WithHeaders(http.Header{key: {value}}))
	}
}

// WithRateLimit caps outbound requests per second.
func WithRateLimit(rps float64) Option {
	return func(c *Client) {
		c.httpOpts = append(c.httpOpts, httpx.WithRateLimit(rps, 1))
	}
}

// WithLogger enables request logging.
func WithLogger(l *log.Logger) Option {
	return func(c *Client) {
		c.logger = l
	}
}

// WithMetrics records request counts and latencies.
func WithMetrics(r *metrics.Registry) Option {
	return func(c *Client) {
		c.metrics = r
	}
}

// Client talks to the remote car resource. Configuration and the acting user
// name can be changed between calls; each call uses the values current when
// it starts.
type Client struct {
	mu   sync.RWMutex
	cfg  Config
	user string

	prefs    prefs.Store
	http     *httpx.Client
	httpOpts []httpx.Option
	logger   *log.Logger
	metrics  *metrics.Registry
}

// New constructs a Client. The user name is read once from the preference
// store and falls back to DefaultUserName.
func New(opts ...Option) (*Client, error) {
	c := &Client{
		cfg:   DefaultConfig(),
		prefs: prefs.NewMemoryStore(),
	}
	for _, opt := range opts {
		opt(c)
	}
	httpOpts := c.httpOpts
	if c.metrics != nil {
		httpOpts = append(httpOpts, httpx.WithObserver(c.metrics.ObserveRequest))
	}
	c.http = httpx.NewClient(httpOpts...)

	stored, _, err := c.prefs.Get(UserNameKey)
	if err != nil {
		return nil, fmt.Errorf("carapi: load user name: %w", err)
	}
	c.user = cleanUserName(stored)
	return c, nil
}

// SetConfig merges a partial configuration into the current one.
func (c *Client) SetConfig(patch ConfigPatch) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cfg = patch.Apply(c.cfg)
}

// Config returns a copy of the current configuration.
func (c *Client) Config() Config {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.cfg
}

// SetUserName trims name, substitutes DefaultUserName when nothing is left,
// and persists the result. The in-memory value is updated even when the
// store write fails.
func (c *Client) SetUserName(name string) error {
	user := cleanUserName(name)
	c.mu.Lock()
	c.user = user
	c.mu.Unlock()
	if err := c.prefs.Set(UserNameKey, user); err != nil {
		return fmt.Errorf("carapi: persist user name: %w", err)
	}
	return nil
}

// UserName returns the name sent with every request.
func (c *Client) UserName() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.user
}

// Metrics returns the registry set with WithMetrics, or nil.
func (c *Client) Metrics() *metrics.Registry {
	return c.metrics
}

// URL returns the request URL for id, or for the collection when id is nil.
func (c *Client) URL(id any) string {
	cfg, user := c.snapshot()
	return BuildURL(cfg, user, id)
}

func (c *Client) snapshot() (Config, string) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.cfg, c.user
}

func cleanUserName(name string) string {
	if trimmed := strings.TrimSpace(name); trimmed != "" {
		return trimmed
	}
	return DefaultUserName
}

// List fetches every car. A response that is valid JSON but not an array
// yields an empty slice.
func (c *Client) List(ctx context.Context) ([]Record, error) {
	cfg, user := c.snapshot()
	target := BuildURL(cfg, user, nil)
	c.logRequest(http.MethodGet, target, nil)

	resp, err := c.http.Do(ctx, &httpx.Request{Method: http.MethodGet, URL: target})
	if err != nil {
		return nil, fmt.Errorf("carapi: list: %w", err)
	}
	data, err := httpx.ReadAllAndClose(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("carapi: read list response: %w", err)
	}
	items, err := jsonbody.Array(data)
	if err != nil {
		return nil, fmt.Errorf("carapi: decode list response: %w", err)
	}

	records := make([]Record, 0, len(items))
	for _, item := range items {
		obj, _ := item.(map[string]any)
		records = append(records, Normalize(cfg.Mapping, obj))
	}
	return records, nil
}

// Create posts a new car. The payload never carries an id. A nil record with
// a nil error means the service accepted the write but returned nothing
// usable.
func (c *Client) Create(ctx context.Context, fields Fields) (*Record, error) {
	cfg, user := c.snapshot()
	return c.write(ctx, cfg, http.MethodPost, BuildURL(cfg, user, nil), Denormalize(cfg, fields.Record()))
}

// Update replaces the car identified by id. The id is sent both in the URL
// and in the body. Like Create, a nil record with a nil error signals an
// empty response.
func (c *Client) Update(ctx context.Context, id any, fields Fields) (*Record, error) {
	if id == nil {
		return nil, &ValidationError{Op: "update", Err: ErrMissingID}
	}
	cfg, user := c.snapshot()
	rec := fields.Record()
	rec.ID = id
	return c.write(ctx, cfg, http.MethodPut, BuildURL(cfg, user, id), Denormalize(cfg, rec))
}

// Delete removes the car identified by id. Any response body is discarded.
func (c *Client) Delete(ctx context.Context, id any) error {
	if id == nil {
		return &ValidationError{Op: "delete", Err: ErrMissingID}
	}
	target := c.URL(id)
	c.logRequest(http.MethodDelete, target, nil)

	resp, err := c.http.Do(ctx, &httpx.Request{Method: http.MethodDelete, URL: target})
	if err != nil {
		return fmt.Errorf("carapi: delete: %w", err)
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
	return nil
}

func (c *Client) write(ctx context.Context, cfg Config, method, target string, payload *Payload) (*Record, error) {
	body, contentType, err := httpx.WithJSONBody(payload)
	if err != nil {
		return nil, fmt.Errorf("carapi: encode %s payload: %w", method, err)
	}
	c.logRequest(method, target, payload)

	resp, err := c.http.Do(ctx, &httpx.Request{
		Method: method,
		URL:    target,
		Header: http.Header{"Content-Type": []string{contentType}},
		Body:   body,
	})
	if err != nil {
		return nil, fmt.Errorf("carapi: %s: %w", strings.ToLower(method), err)
	}

	data, err := httpx.ReadAllAndClose(resp.Body)
	if err != nil {
		c.logf("carapi: unreadable response method=%s url=%s err=%v", method, target, err)
		return nil, nil
	}
	obj, ok := jsonbody.Object(data)
	if !ok {
		return nil, nil
	}
	rec := Normalize(cfg.Mapping, obj)
	return &rec, nil
}

func (c *Client) logRequest(method, target string, payload *Payload) {
	if c.logger == nil {
		return
	}
	if payload == nil {
		c.logger.Printf("carapi: request method=%s url=%s", method, target)
		return
	}
	data, err := payload.MarshalJSON()
	if err != nil {
		data = []byte("<unencodable>")
	}
	c.logger.Printf("carapi: request method=%s url=%s payload=%s", method, target, data)
}

func (c *Client) logf(format string, args ...any) {
	if c.logger != nil {
		c.logger.Printf(format, args...)
	}
}
