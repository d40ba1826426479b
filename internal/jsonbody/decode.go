package jsonbody

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// ErrEmpty is returned when a document was required but the body is blank.
var ErrEmpty = errors.New("jsonbody: empty body")

// Decode parses a single JSON document. Numbers are kept as json.Number so
// identifiers round-trip without float rounding. Trailing data after the
// first document is rejected.
func Decode(body []byte) (any, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return nil, ErrEmpty
	}
	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.UseNumber()
	var out any
	if err := dec.Decode(&out); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("jsonbody: unexpected data after document")
	}
	return out, nil
}

// Object interprets body as a JSON object. ok is false when the body is
// blank, malformed, or holds any other JSON value; callers treat that as
// "no data" rather than a failure.
func Object(body []byte) (obj map[string]any, ok bool) {
	doc, err := Decode(body)
	if err != nil {
		return nil, false
	}
	obj, ok = doc.(map[string]any)
	return obj, ok
}

// Array interprets body as a JSON array. A well-formed document that is not
// an array yields an empty slice; a blank or malformed body is an error.
func Array(body []byte) ([]any, error) {
	doc, err := Decode(body)
	if err != nil {
		return nil, err
	}
	items, ok := doc.([]any)
	if !ok {
		return []any{}, nil
	}
	return items, nil
}
