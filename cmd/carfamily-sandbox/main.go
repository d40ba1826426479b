package main

import (
	"errors"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/jessevdk/go-flags"
	"github.com/joho/godotenv"

	"github.com/carfamily/carfamily_sdk_go/internal/devseed"
	"github.com/carfamily/carfamily_sdk_go/internal/metrics"
	"github.com/carfamily/carfamily_sdk_go/pkg/carapi"
	"github.com/carfamily/carfamily_sdk_go/pkg/carapi/mock"
)

type options struct {
	Addr        string        `long:"addr" default:":8787" description:"listen address"`
	Seed        string        `long:"seed" description:"path to YAML or JSON seed for the car mock"`
	Latency     time.Duration `long:"latency" description:"artificial latency to inject per request"`
	Fail        string        `long:"fail" description:"failure injection (rate=<float>,code=<httpStatus>)"`
	EmptyWrites bool          `long:"empty-writes" description:"answer POST and PUT with 204 and no body"`
	Resource    string        `long:"resource" default:"/api/CarFamily" description:"collection path"`
	IDKey       string        `long:"id-key" default:"carId" description:"external key holding record identifiers"`
	UserParam   string        `long:"user-param" default:"userName" description:"query parameter naming the user; empty disables partitioning"`
	Metrics     bool          `long:"metrics" description:"expose Prometheus metrics on /metrics"`
}

type failConfig struct {
	rate float64
	code int
}

const apiURLEnv = "CARFAMILY_API_URL"

func main() {
	_ = godotenv.Load(".env.local")

	var opts options
	if _, err := flags.NewParser(&opts, flags.Default).Parse(); err != nil {
		var flagsErr *flags.Error
		if errors.As(err, &flagsErr) && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(2)
	}

	failCfg, err := parseFailConfig(opts.Fail)
	if err != nil {
		log.Fatalf("parse fail flag: %v", err)
	}

	srv := mock.New(
		mock.WithResource(opts.Resource),
		mock.WithIDKey(opts.IDKey),
		mock.WithUserParam(opts.UserParam),
		mock.WithEmptyWrites(opts.EmptyWrites),
	)
	if opts.Seed != "" {
		if err := applySeed(srv, opts.Seed, opts.UserParam != ""); err != nil {
			log.Fatalf("%v", err)
		}
	}

	var reg *metrics.Registry
	if opts.Metrics {
		reg = metrics.NewRegistry()
	}
	logger := log.New(os.Stderr, "", log.LstdFlags)

	server := &http.Server{
		Addr:    opts.Addr,
		Handler: newHandler(srv, reg, logger, opts.Latency, failCfg),
	}

	log.Printf("carfamily-sandbox listening on %s", opts.Addr)
	fmt.Println()
	fmt.Println("export CARFAMILY_RUNTIME_MODE=http")
	host := opts.Addr
	if strings.HasPrefix(host, ":") {
		host = "localhost" + host
	}
	fmt.Printf("export %s=http://%s\n", apiURLEnv, host)
	fmt.Println()

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("server failed: %v", err)
	}
}

func applySeed(srv *mock.Server, path string, partitioned bool) error {
	seed, err := devseed.LoadCarSeed(path)
	if err != nil {
		return fmt.Errorf("load car seed: %w", err)
	}
	user := carapi.DefaultUserName
	switch {
	case !partitioned:
		user = ""
	case seed.User != "":
		user = seed.User
	}
	if err := srv.Seed(user, seed.Records); err != nil {
		return fmt.Errorf("apply car seed: %w", err)
	}
	return nil
}

// newHandler serves the car mock behind latency and failure injection. With
// a registry, /metrics is exposed and every car request is counted.
func newHandler(srv *mock.Server, reg *metrics.Registry, logger *log.Logger, delay time.Duration, failCfg failConfig) http.Handler {
	router := mux.NewRouter()
	router.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}).Methods(http.MethodGet)
	if reg != nil {
		router.Handle("/metrics", reg.Handler()).Methods(http.MethodGet)
	}
	router.PathPrefix("/").Handler(withMiddleware(delay, failCfg, srv))
	router.Use(accessLog(logger, reg))
	return router
}

func withMiddleware(delay time.Duration, failCfg failConfig, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if delay > 0 {
			time.Sleep(delay)
		}
		if failCfg.rate > 0 && rand.Float64() < failCfg.rate {
			status := failCfg.code
			if status == 0 {
				status = http.StatusInternalServerError
			}
			http.Error(w, "failure injected", status)
			return
		}
		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func accessLog(logger *log.Logger, reg *metrics.Registry) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)
			elapsed := time.Since(start)
			if r.URL.Path != "/metrics" && r.URL.Path != "/healthz" {
				reg.ObserveRequest(r.Method, rec.status, elapsed, nil)
			}
			if logger != nil {
				logger.Printf("carfamily-sandbox: request method=%s uri=%s status=%d duration=%s",
					r.Method, r.URL.RequestURI(), rec.status, elapsed)
			}
		})
	}
}

func parseFailConfig(raw string) (failConfig, error) {
	if strings.TrimSpace(raw) == "" {
		return failConfig{}, nil
	}
	cfg := failConfig{code: http.StatusInternalServerError}
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		key, val, ok := strings.Cut(part, "=")
		if !ok {
			return failConfig{}, fmt.Errorf("invalid fail segment %q", part)
		}
		val = strings.TrimSpace(val)
		switch strings.TrimSpace(key) {
		case "rate":
			rate, err := strconv.ParseFloat(val, 64)
			if err != nil {
				return failConfig{}, err
			}
			if rate < 0 || rate > 1 {
				return failConfig{}, fmt.Errorf("fail rate %v out of range [0,1]", rate)
			}
			cfg.rate = rate
		case "code":
			code, err := strconv.Atoi(val)
			if err != nil {
				return failConfig{}, err
			}
			cfg.code = code
		default:
			return failConfig{}, fmt.Errorf("unknown fail key %q", key)
		}
	}
	return cfg, nil
}
