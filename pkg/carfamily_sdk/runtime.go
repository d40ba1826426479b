package carfamily_sdk

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/carfamily/carfamily_sdk_go/internal/devseed"
	"github.com/carfamily/carfamily_sdk_go/pkg/carapi"
	"github.com/carfamily/carfamily_sdk_go/pkg/carapi/mock"
	"github.com/carfamily/carfamily_sdk_go/pkg/carsync"
	"github.com/carfamily/carfamily_sdk_go/pkg/prefs"
)

const (
	envMode        = "CARFAMILY_RUNTIME_MODE"
	envAPIURL      = "CARFAMILY_API_URL"
	envResource    = "CARFAMILY_RESOURCE"
	envUserParam   = "CARFAMILY_USER_PARAM"
	envMappingFile = "CARFAMILY_MAPPING_FILE"
	envPrefsDir    = "CARFAMILY_PREFS_DIR"
	envMockSeed    = "CARFAMILY_MOCK_SEED"
	envLogRequests = "CARFAMILY_LOG_REQUESTS"
	envRateLimit   = "CARFAMILY_RATE_LIMIT"
	modeAuto       = "auto"
	modeHTTP       = "http"
	modeMock       = "mock"
)

// Runtime is a client resolved from the environment together with the
// resources it owns.
type Runtime struct {
	Client *carapi.Client
	// Mode is "http" or "mock".
	Mode string
	// Mock is the in-process service backing the client in mock mode.
	Mock *mock.Server
	// Logger is set when request logging is enabled.
	Logger *log.Logger

	prefs prefs.Store
}

// Collection returns a synchronizer over the runtime's client. The runtime
// logger and the client's metrics registry are used unless opts override
// them.
func (r *Runtime) Collection(opts ...carsync.Option) *carsync.Collection {
	var defaults []carsync.Option
	if r.Logger != nil {
		defaults = append(defaults, carsync.WithLogger(r.Logger))
	}
	if reg := r.Client.Metrics(); reg != nil {
		defaults = append(defaults, carsync.WithMetrics(reg))
	}
	return carsync.New(r.Client, append(defaults, opts...)...)
}

// Close releases the preference store.
func (r *Runtime) Close() error {
	if r == nil || r.prefs == nil {
		return nil
	}
	return r.prefs.Close()
}

// NewFromEnv builds a Runtime from CARFAMILY_* environment variables. Extra
// options are applied after the ones derived from the environment.
func NewFromEnv(opts ...carapi.Option) (*Runtime, error) {
	mode := strings.ToLower(strings.TrimSpace(os.Getenv(envMode)))
	apiURL := strings.TrimSpace(os.Getenv(envAPIURL))

	switch mode {
	case "", modeAuto:
		if apiURL != "" {
			mode = modeHTTP
		} else {
			mode = modeMock
		}
	case modeHTTP:
		if apiURL == "" {
			return nil, fmt.Errorf("carfamily_sdk: HTTP mode requires %s", envAPIURL)
		}
	case modeMock:
	default:
		return nil, fmt.Errorf("carfamily_sdk: unsupported %s value %q", envMode, mode)
	}

	cfg, err := configFromEnv(apiURL)
	if err != nil {
		return nil, err
	}

	store, err := prefsFromEnv()
	if err != nil {
		return nil, err
	}
	rt := &Runtime{Mode: mode, prefs: store}

	clientOpts := []carapi.Option{carapi.WithConfig(cfg), carapi.WithPrefs(store)}
	if on, _ := strconv.ParseBool(strings.TrimSpace(os.Getenv(envLogRequests))); on {
		rt.Logger = log.New(os.Stderr, "", log.LstdFlags)
		clientOpts = append(clientOpts, carapi.WithLogger(rt.Logger))
	}
	if raw := strings.TrimSpace(os.Getenv(envRateLimit)); raw != "" {
		rps, err := strconv.ParseFloat(raw, 64)
		if err != nil || rps < 0 {
			store.Close()
			return nil, fmt.Errorf("carfamily_sdk: invalid %s value %q", envRateLimit, raw)
		}
		clientOpts = append(clientOpts, carapi.WithRateLimit(rps))
	}
	if mode == modeMock {
		rt.Mock = mock.New(
			mock.WithResource(cfg.Resource),
			mock.WithIDKey(cfg.Mapping.ID),
			mock.WithUserParam(cfg.UserParam),
		)
		clientOpts = append(clientOpts, carapi.WithHTTPClient(rt.Mock.HTTPClient()))
	}

	client, err := carapi.New(append(clientOpts, opts...)...)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("carfamily_sdk: init client: %w", err)
	}
	rt.Client = client

	if rt.Mock != nil {
		if err := seedMock(rt.Mock, cfg.UserParam != "", client.UserName()); err != nil {
			store.Close()
			return nil, err
		}
	}
	return rt, nil
}

func configFromEnv(apiURL string) (carapi.Config, error) {
	cfg := carapi.DefaultConfig()
	if path := strings.TrimSpace(os.Getenv(envMappingFile)); path != "" {
		patch, err := carapi.LoadConfigPatch(path)
		if err != nil {
			return carapi.Config{}, fmt.Errorf("carfamily_sdk: load mapping file: %w", err)
		}
		cfg = patch.Apply(cfg)
	}
	if apiURL != "" {
		cfg.BaseURL = apiURL
	}
	if resource, ok := os.LookupEnv(envResource); ok && strings.TrimSpace(resource) != "" {
		cfg.Resource = strings.TrimSpace(resource)
	}
	// Unlike the resource, an empty user parameter is meaningful: it drops
	// the query string.
	if param, ok := os.LookupEnv(envUserParam); ok {
		cfg.UserParam = strings.TrimSpace(param)
	}
	return cfg, nil
}

func prefsFromEnv() (prefs.Store, error) {
	dir := strings.TrimSpace(os.Getenv(envPrefsDir))
	if dir == "" {
		return prefs.NewMemoryStore(), nil
	}
	store, err := prefs.NewPebbleStore(dir)
	if err != nil {
		return nil, fmt.Errorf("carfamily_sdk: open prefs: %w", err)
	}
	return store, nil
}

// seedMock loads CARFAMILY_MOCK_SEED into srv. Records go to the seed's own
// user when it names one, otherwise to user. Without a user parameter the
// mock keeps a single partition.
func seedMock(srv *mock.Server, partitioned bool, user string) error {
	path := strings.TrimSpace(os.Getenv(envMockSeed))
	if path == "" {
		return nil
	}
	seed, err := devseed.LoadCarSeed(path)
	if err != nil {
		return fmt.Errorf("carfamily_sdk: load mock seed: %w", err)
	}
	switch {
	case !partitioned:
		user = ""
	case seed.User != "":
		user = seed.User
	}
	if err := srv.Seed(user, seed.Records); err != nil {
		return fmt.Errorf("carfamily_sdk: apply mock seed: %w", err)
	}
	return nil
}
