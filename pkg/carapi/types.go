package carapi

import (
	"errors"
	"time"

	"github.com/carfamily/carfamily_sdk_go/internal/httpx"
)

// Record is the internal, schema-independent representation of a car.
//
// ID is copied verbatim from the remote record and is nil for cars that were
// never persisted. Numeric identifiers arrive as json.Number. Name mirrors
// Brand for consumers written against the older field name.
type Record struct {
	ID    any     `json:"id"`
	Name  string  `json:"name"`
	Brand string  `json:"brand"`
	Model string  `json:"model"`
	Price float64 `json:"price"`
	Year  *int    `json:"year"`
}

// Fields holds user-submitted values for a create or update.
type Fields struct {
	Brand string
	Model string
	Price float64
	Year  *int
}

// Record converts the fields into an unsaved Record.
func (f Fields) Record() Record {
	return Record{Name: f.Brand, Brand: f.Brand, Model: f.Model, Price: f.Price, Year: f.Year}
}

// Fields returns the editable part of the record.
func (r Record) Fields() Fields {
	return Fields{Brand: r.Brand, Model: r.Model, Price: r.Price, Year: r.Year}
}

// Persisted reports whether the record carries a remote identifier.
func (r Record) Persisted() bool {
	return r.ID != nil
}

// Age returns the car's age in whole years relative to now. ok is false when
// the year is unknown.
func (r Record) Age(now time.Time) (age int, ok bool) {
	if r.Year == nil || *r.Year == 0 {
		return 0, false
	}
	return now.Year() - *r.Year, true
}

// IntPtr is a convenience for populating Year.
func IntPtr(v int) *int {
	return &v
}

// TransportError is returned for any non-2xx response. It carries the HTTP
// method, the full request URL, the status code and the response body text
// (empty when the body could not be read).
type TransportError = httpx.HTTPError

// ValidationError reports an operation invoked without data it requires.
type ValidationError struct {
	Op  string
	Err error
}

func (e *ValidationError) Error() string {
	return "carapi: " + e.Op + ": " + e.Err.Error()
}

func (e *ValidationError) Unwrap() error { return e.Err }

var (
	// ErrMissingID is wrapped by ValidationError when an update or delete
	// targets a record that has no remote identifier.
	ErrMissingID = errors.New("missing id")
)
