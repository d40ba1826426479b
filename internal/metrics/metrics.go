package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Registry struct {
	reg *prometheus.Registry

	Requests        *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	Fallbacks       *prometheus.CounterVec
	CollectionSize  prometheus.Gauge
}

func NewRegistry() *Registry {
	r := prometheus.NewRegistry()
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "carapi_requests_total",
		Help: "Requests against the car resource by method and outcome.",
	}, []string{"method", "outcome"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "carapi_request_duration_seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method"})
	fallbacks := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "carsync_reload_fallbacks_total",
		Help: "Full reloads triggered because a write returned no usable body.",
	}, []string{"op"})
	size := prometheus.NewGauge(prometheus.GaugeOpts{Name: "carsync_collection_size"})

	r.MustRegister(requests, duration, fallbacks, size)
	return &Registry{
		reg:             r,
		Requests:        requests,
		RequestDuration: duration,
		Fallbacks:       fallbacks,
		CollectionSize:  size,
	}
}

// ObserveRequest records one round trip. status 0 means the request never
// got a response.
func (r *Registry) ObserveRequest(method string, status int, elapsed time.Duration, err error) {
	if r == nil {
		return
	}
	r.Requests.WithLabelValues(method, Outcome(status, err)).Inc()
	r.RequestDuration.WithLabelValues(method).Observe(elapsed.Seconds())
}

// Outcome maps a status and error to a low-cardinality label.
func Outcome(status int, err error) string {
	switch {
	case status == 0 && err != nil:
		return "error"
	case status >= 200 && status <= 299:
		return "ok"
	default:
		return strconv.Itoa(status/100) + "xx"
	}
}

func (r *Registry) Handler() http.Handler { return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{}) }
