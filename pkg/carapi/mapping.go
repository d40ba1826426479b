package carapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// maxYearMagnitude bounds years that convert to int without overflow.
const maxYearMagnitude = 1e15

// HasModel decides which of the two external shapes a car takes: a car with
// a non-blank model is sent with the "model" discriminator and its model key,
// any other car with the "base" discriminator and no model key.
func HasModel(model string) bool {
	return strings.TrimSpace(model) != ""
}

// Normalize converts an external record into a Record using the mapping.
// Year and price are coerced to numbers; a year that is not a finite number
// becomes nil and such a price becomes 0. The identifier is kept as is.
func Normalize(m Mapping, obj map[string]any) Record {
	brand := stringValue(obj[m.Brand])
	rec := Record{
		ID:    obj[m.ID],
		Name:  brand,
		Brand: brand,
		Model: stringValue(obj[m.Model]),
	}
	if year, ok := toNumber(obj[m.Year]); ok && math.Abs(year) < maxYearMagnitude {
		y := int(math.Trunc(year))
		rec.Year = &y
	}
	if price, ok := toNumber(obj[m.Price]); ok {
		rec.Price = price
	}
	return rec
}

// Denormalize converts a Record into the external shape described by cfg.
// Keys are emitted in a fixed order: discriminator, id, brand, year, price,
// model. The id key is present only for persisted records and the model key
// only when HasModel holds.
func Denormalize(cfg Config, rec Record) *Payload {
	m := cfg.Mapping
	p := NewPayload()
	if cfg.TypeEnabled {
		if HasModel(rec.Model) {
			p.Set(m.TypeField, m.TypeValues.Model)
		} else {
			p.Set(m.TypeField, m.TypeValues.Base)
		}
	}
	if rec.ID != nil {
		p.Set(m.ID, rec.ID)
	}
	p.Set(m.Brand, rec.Brand)
	if rec.Year != nil {
		p.Set(m.Year, *rec.Year)
	} else {
		p.Set(m.Year, nil)
	}
	p.Set(m.Price, rec.Price)
	if HasModel(rec.Model) {
		p.Set(m.Model, rec.Model)
	}
	return p
}

// toNumber applies loose numeric coercion. Absent, null and blank values are
// not numbers; booleans count as 0 and 1; strings must parse as a float.
// Infinities and NaN are rejected.
func toNumber(v any) (float64, bool) {
	var f float64
	switch x := v.(type) {
	case nil:
		return 0, false
	case json.Number:
		parsed, err := strconv.ParseFloat(x.String(), 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	case float64:
		f = x
	case float32:
		f = float64(x)
	case int:
		f = float64(x)
	case int32:
		f = float64(x)
	case int64:
		f = float64(x)
	case uint64:
		f = float64(x)
	case bool:
		if x {
			f = 1
		}
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return 0, false
		}
		parsed, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func stringValue(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case json.Number:
		return x.String()
	default:
		return fmt.Sprint(x)
	}
}

// Payload is a JSON object that remembers insertion order. Setting an
// existing key replaces its value in place.
type Payload struct {
	keys   []string
	values map[string]any
}

// NewPayload returns an empty payload.
func NewPayload() *Payload {
	return &Payload{values: make(map[string]any)}
}

// Set adds key at the end, or replaces its value in place when present.
func (p *Payload) Set(key string, value any) {
	if _, exists := p.values[key]; !exists {
		p.keys = append(p.keys, key)
	}
	p.values[key] = value
}

// MarshalJSON writes the object with keys in insertion order.
func (p *Payload) MarshalJSON() ([]byte, error) {
	buf := &bytes.Buffer{}
	buf.WriteByte('{')
	for i, k := range p.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := encodeCompact(k)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		val, err := encodeCompact(p.values[k])
		if err != nil {
			return nil, fmt.Errorf("encode %q: %w", k, err)
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func encodeCompact(v any) ([]byte, error) {
	buf := &bytes.Buffer{}
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
