package mock

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
)

// Server is an in-memory stand-in for the remote car service. Records are
// partitioned by the user name query parameter, as the real service does,
// and identifiers are assigned from a shared counter.
type Server struct {
	mu          sync.Mutex
	resource    string
	idKey       string
	userParam   string
	emptyWrites bool
	nextID      int64
	users       map[string]*bucket
}

type bucket struct {
	order []string
	items map[string]map[string]any
}

// Option configures the mock instance.
type Option func(*Server)

// WithResource sets the collection path (default "/api/CarFamily").
func WithResource(path string) Option {
	return func(s *Server) {
		s.resource = "/" + strings.Trim(path, "/")
	}
}

// WithIDKey sets the external key holding record identifiers (default "carId").
func WithIDKey(key string) Option {
	return func(s *Server) {
		if key != "" {
			s.idKey = key
		}
	}
}

// WithUserParam sets the query parameter naming the user (default
// "userName"). An empty name disables partitioning.
func WithUserParam(name string) Option {
	return func(s *Server) {
		s.userParam = name
	}
}

// WithEmptyWrites makes POST and PUT answer 204 without a body.
func WithEmptyWrites(enabled bool) Option {
	return func(s *Server) {
		s.emptyWrites = enabled
	}
}

// New creates an empty mock service.
func New(opts ...Option) *Server {
	s := &Server{
		resource:  "/api/CarFamily",
		idKey:     "carId",
		userParam: "userName",
		users:     make(map[string]*bucket),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Seed stores records for user. Records without an identifier get one.
func (s *Server) Seed(user string, records []map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	b := s.bucketLocked(user)
	for i, rec := range records {
		if rec == nil {
			return fmt.Errorf("mock carapi: seed record %d is empty", i)
		}
		stored := cloneRecord(rec)
		key := s.ensureIDLocked(stored)
		if _, exists := b.items[key]; !exists {
			b.order = append(b.order, key)
		}
		b.items[key] = stored
	}
	return nil
}

// Records returns a copy of the records stored for user in insertion order.
func (s *Server) Records(user string) []map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	b := s.users[user]
	if b == nil {
		return []map[string]any{}
	}
	out := make([]map[string]any, 0, len(b.order))
	for _, key := range b.order {
		out = append(out, cloneRecord(b.items[key]))
	}
	return out
}

// HTTPClient returns a client whose requests are served in process.
func (s *Server) HTTPClient() *http.Client {
	return &http.Client{Transport: s.Transport()}
}

// Transport returns a RoundTripper dispatching directly to ServeHTTP.
func (s *Server) Transport() http.RoundTripper {
	return roundTripper{handler: s}
}

type roundTripper struct {
	handler http.Handler
}

func (rt roundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Body != nil {
		defer req.Body.Close()
	}
	if err := req.Context().Err(); err != nil {
		return nil, err
	}
	rec := httptest.NewRecorder()
	rt.handler.ServeHTTP(rec, req)
	resp := rec.Result()
	resp.Request = req
	return resp, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id, ok := s.route(r.URL.Path)
	if !ok {
		http.NotFound(w, r)
		return
	}
	user := ""
	if s.userParam != "" {
		user = r.URL.Query().Get(s.userParam)
		if user == "" {
			http.Error(w, "missing "+s.userParam+" parameter", http.StatusBadRequest)
			return
		}
	}

	switch {
	case id == "" && r.Method == http.MethodGet:
		writeJSON(w, http.StatusOK, s.Records(user))
	case id == "" && r.Method == http.MethodPost:
		s.handleCreate(w, r, user)
	case id != "" && r.Method == http.MethodGet:
		s.handleGet(w, user, id)
	case id != "" && r.Method == http.MethodPut:
		s.handleUpdate(w, r, user, id)
	case id != "" && r.Method == http.MethodDelete:
		s.handleDelete(w, user, id)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// route splits a request path into the optional identifier segment.
func (s *Server) route(path string) (id string, ok bool) {
	if path == s.resource || path == s.resource+"/" {
		return "", true
	}
	rest, found := strings.CutPrefix(path, s.resource+"/")
	if !found || rest == "" || strings.Contains(rest, "/") {
		return "", false
	}
	return rest, true
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request, user string) {
	rec, err := decodeRecord(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	b := s.bucketLocked(user)
	delete(rec, s.idKey)
	key := s.ensureIDLocked(rec)
	b.order = append(b.order, key)
	b.items[key] = rec
	out := cloneRecord(rec)
	s.mu.Unlock()

	if s.emptyWrites {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusCreated, out)
}

func (s *Server) handleGet(w http.ResponseWriter, user, id string) {
	s.mu.Lock()
	rec, ok := s.lookupLocked(user, id)
	s.mu.Unlock()
	if !ok {
		http.Error(w, "car not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request, user, id string) {
	rec, err := decodeRecord(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	existing, ok := s.lookupLocked(user, id)
	if !ok {
		s.mu.Unlock()
		http.Error(w, "car not found", http.StatusNotFound)
		return
	}
	rec[s.idKey] = existing[s.idKey]
	s.users[user].items[id] = rec
	out := cloneRecord(rec)
	s.mu.Unlock()

	if s.emptyWrites {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleDelete(w http.ResponseWriter, user, id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b := s.users[user]
	if b == nil {
		http.Error(w, "car not found", http.StatusNotFound)
		return
	}
	if _, ok := b.items[id]; !ok {
		http.Error(w, "car not found", http.StatusNotFound)
		return
	}
	delete(b.items, id)
	for i, key := range b.order {
		if key == id {
			b.order = append(b.order[:i], b.order[i+1:]...)
			break
		}
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) bucketLocked(user string) *bucket {
	b := s.users[user]
	if b == nil {
		b = &bucket{items: make(map[string]map[string]any)}
		s.users[user] = b
	}
	return b
}

func (s *Server) lookupLocked(user, id string) (map[string]any, bool) {
	b := s.users[user]
	if b == nil {
		return nil, false
	}
	rec, ok := b.items[id]
	if !ok {
		return nil, false
	}
	return cloneRecord(rec), true
}

// ensureIDLocked assigns the next identifier when rec has none and returns
// the identifier's string form.
func (s *Server) ensureIDLocked(rec map[string]any) string {
	if v, ok := rec[s.idKey]; ok && v != nil {
		key := fmt.Sprint(v)
		if n, err := strconv.ParseInt(key, 10, 64); err == nil && n > s.nextID {
			s.nextID = n
		}
		return key
	}
	s.nextID++
	rec[s.idKey] = s.nextID
	return strconv.FormatInt(s.nextID, 10)
}

func decodeRecord(r *http.Request) (map[string]any, error) {
	dec := json.NewDecoder(r.Body)
	dec.UseNumber()
	var rec map[string]any
	if err := dec.Decode(&rec); err != nil {
		return nil, fmt.Errorf("invalid car payload: %w", err)
	}
	if rec == nil {
		return nil, fmt.Errorf("invalid car payload: expected an object")
	}
	return rec, nil
}

func cloneRecord(rec map[string]any) map[string]any {
	out := make(map[string]any, len(rec))
	for k, v := range rec {
		out[k] = v
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	buf := &bytes.Buffer{}
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(payload); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}
