package httpx

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// HTTPError represents a non-2xx HTTP response returned by the remote service.
// Body holds the raw response text, or "" when it could not be read.
type HTTPError struct {
	Method     string
	URL        string
	StatusCode int
	Body       string
	Header     http.Header
	JSON       any
}

func (e *HTTPError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("%s %s failed: %d %s", e.Method, e.URL, e.StatusCode, e.Body)
}

// NotFound reports whether the remote service answered 404.
func (e *HTTPError) NotFound() bool {
	return e != nil && e.StatusCode == http.StatusNotFound
}

// decodeJSONBody parses the body bytes into a generic JSON payload.
func decodeJSONBody(body []byte) any {
	if len(body) == 0 {
		return nil
	}
	var payload any
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil
	}
	return payload
}
