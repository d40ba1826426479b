package jsonbody

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestObject(t *testing.T) {
	tests := []struct {
		name string
		body string
		ok   bool
	}{
		{name: "object", body: `{"carId":5}`, ok: true},
		{name: "padded object", body: "\n  {\"carId\":5}\n", ok: true},
		{name: "empty body", body: ``, ok: false},
		{name: "null", body: `null`, ok: false},
		{name: "array", body: `[{"carId":5}]`, ok: false},
		{name: "number", body: `5`, ok: false},
		{name: "malformed", body: `{"carId":`, ok: false},
		{name: "trailing garbage", body: `{"carId":5} x`, ok: false},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			_, ok := Object([]byte(tc.body))
			if ok != tc.ok {
				t.Fatalf("Object(%q) ok=%v, want %v", tc.body, ok, tc.ok)
			}
		})
	}
}

func TestObjectKeepsNumbers(t *testing.T) {
	obj, ok := Object([]byte(`{"carId":12345678901234567890}`))
	if !ok {
		t.Fatalf("expected object")
	}
	id, isNumber := obj["carId"].(json.Number)
	if !isNumber {
		t.Fatalf("expected json.Number, got %T", obj["carId"])
	}
	if id.String() != "12345678901234567890" {
		t.Fatalf("number mismatch: %s", id)
	}
}

func TestArray(t *testing.T) {
	items, err := Array([]byte(`[{"a":1},2]`))
	if err != nil {
		t.Fatalf("Array: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}

	items, err = Array([]byte(`{"items":[]}`))
	if err != nil {
		t.Fatalf("Array non-array: %v", err)
	}
	if items == nil || len(items) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", items)
	}

	if _, err := Array(nil); !errors.Is(err, ErrEmpty) {
		t.Fatalf("expected ErrEmpty, got %v", err)
	}
	if _, err := Array([]byte(`[1,`)); err == nil {
		t.Fatalf("expected error for malformed array")
	}
}
