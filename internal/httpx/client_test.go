package httpx_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carfamily/carfamily_sdk_go/internal/httpx"
)

func TestDoSuccessAppliesHeaders(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "carfamily-test", r.Header.Get("User-Agent"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		body, _ := io.ReadAll(r.Body)
		assert.JSONEq(t, `{"carName":"Audi"}`, string(body))
		w.WriteHeader(http.StatusCreated)
		io.WriteString(w, `{"carId":1}`)
	}))
	defer srv.Close()

	var observed []int
	client := httpx.NewClient(
		httpx.WithHeaders(http.Header{"User-Agent": {"carfamily-test"}}),
		httpx.WithObserver(func(method string, status int, _ time.Duration, err error) {
			assert.Equal(t, http.MethodPost, method)
			assert.NoError(t, err)
			observed = append(observed, status)
		}),
	)

	body, contentType, err := httpx.WithJSONBody(map[string]string{"carName": "Audi"})
	require.NoError(t, err)

	resp, err := client.Do(context.Background(), &httpx.Request{
		Method: http.MethodPost,
		URL:    srv.URL + "/api/CarFamily",
		Header: http.Header{"Content-Type": {contentType}},
		Body:   body,
	})
	require.NoError(t, err)
	data, err := httpx.ReadAllAndClose(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, `{"carId":1}`, string(data))
	assert.Equal(t, []int{http.StatusCreated}, observed)
}

func TestDoErrorCarriesRequestAndBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		io.WriteString(w, `{"error":"bad year"}`)
	}))
	defer srv.Close()

	client := httpx.NewClient()
	url := srv.URL + "/api/CarFamily/7?userName=bob"
	_, err := client.Do(context.Background(), &httpx.Request{Method: http.MethodPut, URL: url})

	var httpErr *httpx.HTTPError
	require.True(t, errors.As(err, &httpErr), "expected HTTPError, got %v", err)
	assert.Equal(t, http.MethodPut, httpErr.Method)
	assert.Equal(t, url, httpErr.URL)
	assert.Equal(t, http.StatusBadRequest, httpErr.StatusCode)
	assert.Equal(t, `{"error":"bad year"}`, httpErr.Body)
	assert.Equal(t, map[string]any{"error": "bad year"}, httpErr.JSON)
	assert.Equal(t, "PUT "+url+` failed: 400 {"error":"bad year"}`, httpErr.Error())
}

func TestDoErrorBodyUnreadable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Promise more bytes than are sent so the client read fails.
		w.Header().Set("Content-Length", "100")
		w.WriteHeader(http.StatusInternalServerError)
		io.WriteString(w, "part")
	}))
	defer srv.Close()

	client := httpx.NewClient()
	_, err := client.Do(context.Background(), &httpx.Request{Method: http.MethodGet, URL: srv.URL})

	var httpErr *httpx.HTTPError
	require.True(t, errors.As(err, &httpErr), "expected HTTPError, got %v", err)
	assert.Equal(t, http.StatusInternalServerError, httpErr.StatusCode)
	assert.Equal(t, "", httpErr.Body)
}

func TestDoValidatesRequest(t *testing.T) {
	client := httpx.NewClient()
	_, err := client.Do(context.Background(), nil)
	assert.Error(t, err)
	_, err = client.Do(context.Background(), &httpx.Request{URL: "http://x"})
	assert.Error(t, err)
	_, err = client.Do(context.Background(), &httpx.Request{Method: http.MethodGet, URL: " "})
	assert.Error(t, err)
}

func TestDoRateLimitHonoursContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	client := httpx.NewClient(httpx.WithRateLimit(0.001, 1))
	resp, err := client.Do(context.Background(), &httpx.Request{Method: http.MethodDelete, URL: srv.URL})
	require.NoError(t, err)
	resp.Body.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = client.Do(ctx, &httpx.Request{Method: http.MethodDelete, URL: srv.URL})
	require.Error(t, err)
	assert.False(t, strings.Contains(err.Error(), "failed: 204"))
}
