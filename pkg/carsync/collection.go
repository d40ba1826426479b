package carsync

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/google/uuid"

	"github.com/carfamily/carfamily_sdk_go/internal/metrics"
	"github.com/carfamily/carfamily_sdk_go/pkg/carapi"
)

// Option configures a Collection.
type Option func(*Collection)

// WithLogger logs fallback reloads and failed mutations.
func WithLogger(l *log.Logger) Option {
	return func(c *Collection) {
		c.logger = l
	}
}

// WithMetrics counts fallback reloads and tracks the collection size.
func WithMetrics(r *metrics.Registry) Option {
	return func(c *Collection) {
		c.metrics = r
	}
}

// WithFallbackHook registers fn to run before every fallback reload.
func WithFallbackHook(fn func(Op)) Option {
	return func(c *Collection) {
		c.onFallback = fn
	}
}

// Collection is the local view of the remote car collection. Reads are safe
// from any goroutine; mutations are expected to be issued one at a time.
type Collection struct {
	api Transport

	mu      sync.RWMutex
	entries []Entry
	// pos maps a local key to its index in entries. byID maps the textual
	// remote id to the key of the first entry carrying it.
	pos  map[string]int
	byID map[string]string

	logger     *log.Logger
	metrics    *metrics.Registry
	onFallback func(Op)
	newKey     func() string
}

// New returns an empty collection backed by api. Call Reload to populate it.
func New(api Transport, opts ...Option) *Collection {
	c := &Collection{
		api:     api,
		entries: []Entry{},
		pos:     map[string]int{},
		byID:    map[string]string{},
		newKey:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Reload fetches every car and replaces the collection with the result. On
// failure the collection is left as it was.
func (c *Collection) Reload(ctx context.Context) ([]Entry, error) {
	if err := c.reload(ctx); err != nil {
		return nil, fmt.Errorf("carsync: reload: %w", err)
	}
	return c.Entries(), nil
}

func (c *Collection) reload(ctx context.Context) error {
	records, err := c.api.List(ctx)
	if err != nil {
		c.logf("carsync: reload failed err=%v", err)
		return err
	}

	entries := make([]Entry, 0, len(records))
	for _, rec := range records {
		entries = append(entries, Entry{Key: c.newKey(), Record: rec})
	}

	c.mu.Lock()
	c.entries = entries
	c.reindexLocked()
	c.mu.Unlock()
	c.observeSize()
	return nil
}

// Create submits a new car. A returned record is appended as a new entry;
// an empty response triggers one full reload instead.
func (c *Collection) Create(ctx context.Context, fields carapi.Fields) (Result, error) {
	created, err := c.api.Create(ctx, fields)
	if err != nil {
		c.logf("carsync: write failed op=%s err=%v", OpCreate, err)
		return Result{}, fmt.Errorf("carsync: create: %w", err)
	}
	if created == nil {
		return c.fallback(ctx, OpCreate)
	}

	entry := Entry{Key: c.newKey(), Record: merge(*created, fields, nil)}
	c.mu.Lock()
	c.entries = append(c.entries, entry)
	c.reindexLocked()
	c.mu.Unlock()
	c.observeSize()
	return Result{Outcome: OutcomeApplied, Entry: entry}, nil
}

// Update replaces the fields of the entry named by key. Unsynced entries are
// rejected with a *carapi.ValidationError before any request is made.
func (c *Collection) Update(ctx context.Context, key string, fields carapi.Fields) (Result, error) {
	current, ok := c.Get(key)
	if !ok {
		return Result{}, fmt.Errorf("%w: %s", ErrUnknownEntry, key)
	}
	if !current.Synced() {
		return Result{}, &carapi.ValidationError{Op: string(OpUpdate), Err: carapi.ErrMissingID}
	}

	updated, err := c.api.Update(ctx, current.ID, fields)
	if err != nil {
		c.logf("carsync: write failed op=%s key=%s err=%v", OpUpdate, key, err)
		return Result{}, fmt.Errorf("carsync: update: %w", err)
	}
	if updated == nil {
		return c.fallback(ctx, OpUpdate)
	}

	entry := Entry{Key: key, Record: merge(*updated, fields, current.ID)}
	c.mu.Lock()
	if i := c.indexLocked(key); i >= 0 {
		c.entries[i] = entry
		c.reindexLocked()
	}
	c.mu.Unlock()
	return Result{Outcome: OutcomeApplied, Entry: entry}, nil
}

// Delete removes the entry named by key. Unsynced entries are dropped
// locally; synced entries are removed only after the service confirms.
func (c *Collection) Delete(ctx context.Context, key string) (Outcome, error) {
	current, ok := c.Get(key)
	if !ok {
		return OutcomeNone, fmt.Errorf("%w: %s", ErrUnknownEntry, key)
	}

	outcome := OutcomeLocalOnly
	if current.Synced() {
		if err := c.api.Delete(ctx, current.ID); err != nil {
			c.logf("carsync: write failed op=%s key=%s err=%v", OpDelete, key, err)
			return OutcomeNone, fmt.Errorf("carsync: delete: %w", err)
		}
		outcome = OutcomeApplied
	}

	c.mu.Lock()
	if i := c.indexLocked(key); i >= 0 {
		c.entries = append(c.entries[:i], c.entries[i+1:]...)
		c.reindexLocked()
	}
	c.mu.Unlock()
	c.observeSize()
	return outcome, nil
}

// Entries returns a copy of the collection in order.
func (c *Collection) Entries() []Entry {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Entry, len(c.entries))
	copy(out, c.entries)
	return out
}

// Get returns the entry with the given local key.
func (c *Collection) Get(key string) (Entry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if i := c.indexLocked(key); i >= 0 {
		return c.entries[i], true
	}
	return Entry{}, false
}

// Lookup returns the first entry whose remote identifier matches id.
// Identifiers are compared by their textual form, so json.Number("7"), 7 and
// "7" all match the same entry.
func (c *Collection) Lookup(id any) (Entry, bool) {
	if id == nil {
		return Entry{}, false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	key, ok := c.byID[idString(id)]
	if !ok {
		return Entry{}, false
	}
	return c.entries[c.pos[key]], true
}

// Len reports the number of entries.
func (c *Collection) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func (c *Collection) fallback(ctx context.Context, op Op) (Result, error) {
	c.logf("carsync: empty response, reloading op=%s", op)
	if c.metrics != nil {
		c.metrics.Fallbacks.WithLabelValues(string(op)).Inc()
	}
	if c.onFallback != nil {
		c.onFallback(op)
	}
	if err := c.reload(ctx); err != nil {
		return Result{}, fmt.Errorf("carsync: reload after empty %s response: %w", op, err)
	}
	return Result{Outcome: OutcomeReloaded}, nil
}

func (c *Collection) indexLocked(key string) int {
	if i, ok := c.pos[key]; ok {
		return i
	}
	return -1
}

// reindexLocked rebuilds pos and byID after entries changed.
func (c *Collection) reindexLocked() {
	c.pos = make(map[string]int, len(c.entries))
	c.byID = make(map[string]string, len(c.entries))
	for i, e := range c.entries {
		c.pos[e.Key] = i
		if e.ID == nil {
			continue
		}
		if _, seen := c.byID[idString(e.ID)]; !seen {
			c.byID[idString(e.ID)] = e.Key
		}
	}
}

func (c *Collection) observeSize() {
	if c.metrics != nil {
		c.metrics.CollectionSize.Set(float64(c.Len()))
	}
}

func (c *Collection) logf(format string, args ...any) {
	if c.logger != nil {
		c.logger.Printf(format, args...)
	}
}

// merge fills gaps in a service response with the submitted values. Price
// is always taken from the response. The identifier falls back to priorID.
func merge(resp carapi.Record, submitted carapi.Fields, priorID any) carapi.Record {
	if resp.Brand == "" {
		resp.Brand = submitted.Brand
	}
	resp.Name = resp.Brand
	if resp.Model == "" {
		resp.Model = submitted.Model
	}
	if resp.Year == nil {
		resp.Year = submitted.Year
	}
	if resp.ID == nil {
		resp.ID = priorID
	}
	return resp
}

func idString(id any) string {
	if s, ok := id.(string); ok {
		return s
	}
	return fmt.Sprint(id)
}
