package carapi

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildURL(t *testing.T) {
	cfg := DefaultConfig()
	cfg.BaseURL = "http://x/"
	cfg.Resource = "api"

	tests := []struct {
		name string
		id   any
		want string
	}{
		{name: "collection", id: nil, want: "http://x/api?userName=bob"},
		{name: "string id", id: "7", want: "http://x/api/7?userName=bob"},
		{name: "number id", id: json.Number("7"), want: "http://x/api/7?userName=bob"},
		{name: "int id", id: 42, want: "http://x/api/42?userName=bob"},
		{name: "escaped id", id: "a/b c?", want: "http://x/api/a%2Fb%20c%3F?userName=bob"},
		{name: "plus", id: "a+b", want: "http://x/api/a%2Bb?userName=bob"},
		{name: "colon", id: "a:b", want: "http://x/api/a%3Ab?userName=bob"},
		{name: "query chars", id: "x&y=z", want: "http://x/api/x%26y%3Dz?userName=bob"},
		{name: "dollar and at", id: "$u@h", want: "http://x/api/%24u%40h?userName=bob"},
		{name: "unreserved marks", id: "a-b_c.d!e~f*g'h(i)", want: "http://x/api/a-b_c.d!e~f*g'h(i)?userName=bob"},
		{name: "utf-8", id: "bilé", want: "http://x/api/bil%C3%A9?userName=bob"},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, BuildURL(cfg, "bob", tc.id))
		})
	}
}

func TestBuildURLNormalisesSlashes(t *testing.T) {
	cfg := DefaultConfig()
	cfg.BaseURL = "http://x///"
	cfg.Resource = "//api/cars"
	assert.Equal(t, "http://x/api/cars?userName=bob", BuildURL(cfg, "bob", nil))

	cfg.Resource = "/api/cars"
	assert.Equal(t, "http://x/api/cars?userName=bob", BuildURL(cfg, "bob", nil))
}

func TestBuildURLQuery(t *testing.T) {
	cfg := DefaultConfig()
	cfg.BaseURL = "http://x"
	assert.Equal(t, "http://x/api/CarFamily?userName=Default+VSCode+User", BuildURL(cfg, DefaultUserName, nil))
	assert.Equal(t, "http://x/api/CarFamily?userName=a%26b", BuildURL(cfg, "a&b", nil))

	cfg.UserParam = "owner"
	assert.Equal(t, "http://x/api/CarFamily/1?owner=bob", BuildURL(cfg, "bob", 1))

	cfg.UserParam = ""
	assert.Equal(t, "http://x/api/CarFamily/1", BuildURL(cfg, "bob", 1))
}
