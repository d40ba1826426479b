package carapi

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
)

// BuildURL returns the request URL for the collection (id == nil) or for a
// single car. Trailing slashes on the base URL are dropped, the resource gets
// exactly one leading slash and the id is escaped as a single path segment.
// The user name is attached as a query parameter unless cfg.UserParam is
// empty.
func BuildURL(cfg Config, userName string, id any) string {
	base := strings.TrimRight(cfg.BaseURL, "/")
	resource := "/" + strings.TrimLeft(cfg.Resource, "/")
	path := base + resource
	if id != nil {
		path += "/" + escapeSegment(formatID(id))
	}

	params := url.Values{}
	if cfg.UserParam != "" {
		params.Set(cfg.UserParam, userName)
	}
	if qs := params.Encode(); qs != "" {
		return path + "?" + qs
	}
	return path
}

func formatID(id any) string {
	switch v := id.(type) {
	case string:
		return v
	case json.Number:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}

// escapeSegment percent-encodes everything except letters, digits and
// -_.!~*'() so reserved characters such as + : & = never reach the path raw.
func escapeSegment(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if isUnreservedComponent(c) {
			b.WriteByte(c)
			continue
		}
		fmt.Fprintf(&b, "%%%02X", c)
	}
	return b.String()
}

func isUnreservedComponent(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	}
	return strings.IndexByte("-_.!~*'()", c) >= 0
}
