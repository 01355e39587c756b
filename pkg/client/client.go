// Package client resolves FRED requests against a response cache and the FRED
// API according to a per-call lookup policy.
package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"

	"github.com/Sternrassler/fred-client/pkg/cache"
	"github.com/Sternrassler/fred-client/pkg/debugsink"
	"github.com/Sternrassler/fred-client/pkg/logging"
	"github.com/Sternrassler/fred-client/pkg/request"
	"github.com/Sternrassler/fred-client/pkg/series"
)

// Prometheus metrics for FRED client operations.
var (
	fredRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fred_requests_total",
		Help: "Total FRED resolutions by lookup policy, source and outcome",
	}, []string{"lookup", "source", "outcome"})

	fredRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "fred_request_duration_seconds",
		Help:    "FRED resolution duration in seconds by source",
		Buckets: []float64{0.005, 0.05, 0.1, 0.5, 1, 2, 5, 10},
	}, []string{"source"})

	fredCacheWriteFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fred_cache_write_failures_total",
		Help: "Successful FRED responses that could not be stored",
	})

	fredUpstreamErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fred_upstream_errors_total",
		Help: "Non-200 FRED responses by status code",
	}, []string{"status"})
)

// Metric label values.
const (
	sourceCache = "cache"
	sourceFred  = "fred"

	outcomeHit       = "hit"
	outcomeMiss      = "miss"
	outcomeOK        = "ok"
	outcomeStatus    = "status_error"
	outcomeTransport = "transport_error"
	outcomeCacheErr  = "cache_error"
)

// Client resolves FRED requests.
type Client struct {
	store     cache.Store
	transport Transport
	sink      debugsink.Sink
	builder   *request.Builder
	logger    zerolog.Logger

	onCacheWriteError func(*ResolveError)
}

// Config holds the client configuration.
type Config struct {
	// Store holds raw responses keyed by request.Spec.Key() (REQUIRED).
	Store cache.Store

	// Transport sends requests to FRED (default: HTTPTransport).
	Transport Transport

	// Sink receives a copy of every returned body (default: debugsink.Nop).
	Sink debugsink.Sink

	// Builder prepares requests for Fetch (default: request.FromEnv()).
	Builder *request.Builder

	// Logger overrides the component logger.
	Logger *zerolog.Logger

	// OnCacheWriteError is called when a fetched response could not be
	// stored. The response is still returned to the caller.
	OnCacheWriteError func(*ResolveError)
}

// DefaultConfig returns a configuration using store and the default transport,
// with the API key taken from FRED_API_KEY.
func DefaultConfig(store cache.Store) Config {
	return Config{
		Store:     store,
		Transport: NewHTTPTransport(nil),
		Sink:      debugsink.Nop,
		Builder:   request.FromEnv(),
	}
}

// New creates a new FRED client.
func New(cfg Config) (*Client, error) {
	if cfg.Store == nil {
		return nil, fmt.Errorf("cache store is required")
	}
	if cfg.Transport == nil {
		cfg.Transport = NewHTTPTransport(nil)
	}
	if cfg.Sink == nil {
		cfg.Sink = debugsink.Nop
	}
	if cfg.Builder == nil {
		cfg.Builder = request.FromEnv()
	}

	logger := logging.NewLogger(logging.ComponentClient)
	if cfg.Logger != nil {
		logger = *cfg.Logger
	}

	return &Client{
		store:             cfg.Store,
		transport:         cfg.Transport,
		sink:              cfg.Sink,
		builder:           cfg.Builder,
		logger:            logger,
		onCacheWriteError: cfg.OnCacheWriteError,
	}, nil
}

// Builder returns the builder used by Fetch.
func (c *Client) Builder() *request.Builder {
	return c.builder
}

// Resolve returns the response bytes for spec according to lookup.
//
// out is the prepared request sent to FRED when the policy may require the
// network; it may be nil only for CacheOnly. A nil out with any other policy
// fails with request.ErrMissingCredential before the cache is read. Other
// errors are *ResolveError values matching one of ErrCacheMiss,
// ErrUpstreamStatus, ErrTransport or ErrCacheRead.
func (c *Client) Resolve(ctx context.Context, spec request.Spec, out *request.Outbound, lookup Lookup) ([]byte, error) {
	if spec.IsZero() {
		return nil, fmt.Errorf("resolve: %w: zero spec", request.ErrInvalidQueryFragment)
	}
	if out == nil && (lookup == FredOnly || lookup == FredOnCacheMiss) {
		return nil, fmt.Errorf("resolve %s (%s): %w", spec, lookup, request.ErrMissingCredential)
	}

	logger := c.logger.With().
		Str("spec", spec.String()).
		Str("lookup", lookup.String()).
		Logger()

	var (
		body []byte
		err  error
	)

	switch lookup {
	case CacheOnly:
		body, err = c.fromCache(ctx, spec, lookup, logger)

	case FredOnCacheMiss:
		// Step 1: Check Cache
		body, err = c.fromCache(ctx, spec, lookup, logger)

		// Step 2: Fetch from FRED on miss
		if errors.Is(err, ErrCacheMiss) {
			body, err = c.fromFred(ctx, spec, out, lookup, logger)
		}

	case FredOnly:
		body, err = c.fromFred(ctx, spec, out, lookup, logger)

	default:
		return nil, fmt.Errorf("resolve %s: %w: %d", spec, ErrUnknownLookup, int(lookup))
	}

	if err != nil {
		return nil, err
	}

	c.mirror(spec, body, logger)
	return body, nil
}

// Fetch builds fragment with the client's Builder and resolves it.
// Only CacheOnly works without an API key; the other policies fail at build
// time with request.ErrMissingCredential.
func (c *Client) Fetch(ctx context.Context, fragment string, lookup Lookup) ([]byte, error) {
	spec, out, err := c.builder.Build(fragment, "")
	if errors.Is(err, request.ErrMissingCredential) && lookup == CacheOnly {
		spec, err = request.ParseSpec(fragment)
		out = nil
	}
	if err != nil {
		return nil, err
	}
	return c.Resolve(ctx, spec, out, lookup)
}

// Cached looks up spec in the cache without touching the network or the
// debug sink. A miss is reported as ok == false with a nil error.
func (c *Client) Cached(ctx context.Context, spec request.Spec) ([]byte, bool, error) {
	body, err := c.store.Get(ctx, spec.Key())
	if errors.Is(err, cache.ErrCacheMiss) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, &ResolveError{Spec: spec, Lookup: CacheOnly, Kind: ErrCacheRead, Err: err}
	}
	return body, true, nil
}

// ErrEvictUnsupported is returned by Evict when the store cannot delete.
var ErrEvictUnsupported = errors.New("cache store does not support eviction")

// Evict drops the cached response for spec so the next FredOnCacheMiss
// lookup goes to FRED. Evicting an uncached spec is not an error.
func (c *Client) Evict(ctx context.Context, spec request.Spec) error {
	deleter, ok := c.store.(cache.Deleter)
	if !ok {
		return fmt.Errorf("evict %s: %w", spec, ErrEvictUnsupported)
	}
	if err := deleter.Delete(ctx, spec.Key()); err != nil {
		return fmt.Errorf("evict %s: %w", spec, err)
	}
	c.logger.Debug().Str("spec", spec.String()).Msg("Evicted cached response")
	return nil
}

// fromCache reads spec from the store.
func (c *Client) fromCache(ctx context.Context, spec request.Spec, lookup Lookup, logger zerolog.Logger) ([]byte, error) {
	startTime := time.Now()
	defer func() {
		fredRequestDuration.WithLabelValues(sourceCache).Observe(time.Since(startTime).Seconds())
	}()

	body, err := c.store.Get(ctx, spec.Key())
	switch {
	case err == nil:
		logger.Debug().Str("source", sourceCache).Int("bytes", len(body)).Msg("Cache hit")
		fredRequestsTotal.WithLabelValues(lookup.String(), sourceCache, outcomeHit).Inc()
		return body, nil

	case errors.Is(err, cache.ErrCacheMiss):
		logger.Debug().Str("source", sourceCache).Msg("Cache miss")
		fredRequestsTotal.WithLabelValues(lookup.String(), sourceCache, outcomeMiss).Inc()
		return nil, &ResolveError{Spec: spec, Lookup: lookup, Kind: ErrCacheMiss}

	default:
		logger.Debug().Err(err).Str("source", sourceCache).Msg("Cache read failed")
		fredRequestsTotal.WithLabelValues(lookup.String(), sourceCache, outcomeCacheErr).Inc()
		return nil, &ResolveError{Spec: spec, Lookup: lookup, Kind: ErrCacheRead, Err: err}
	}
}

// fromFred sends out and stores a successful response under spec.
func (c *Client) fromFred(ctx context.Context, spec request.Spec, out *request.Outbound, lookup Lookup, logger zerolog.Logger) ([]byte, error) {
	// Step 1: Send
	logger.Debug().Str("source", sourceFred).Str("request", out.String()).Msg("Sending FRED request")

	startTime := time.Now()
	status, body, err := c.transport.Send(ctx, out)
	fredRequestDuration.WithLabelValues(sourceFred).Observe(time.Since(startTime).Seconds())

	if err == nil {
		// A response that raced a cancellation is not persisted.
		err = ctx.Err()
	}
	if err != nil {
		logger.Debug().Err(err).Str("source", sourceFred).Msg("FRED request failed")
		fredRequestsTotal.WithLabelValues(lookup.String(), sourceFred, outcomeTransport).Inc()
		return nil, &ResolveError{Spec: spec, Lookup: lookup, Kind: ErrTransport, Err: err}
	}

	// Step 2: Reject non-200 responses
	if status != http.StatusOK {
		message := series.ErrorMessage(body)
		logger.Debug().
			Str("source", sourceFred).
			Int("status", status).
			Str("message", message).
			Msg("FRED request error")
		fredRequestsTotal.WithLabelValues(lookup.String(), sourceFred, outcomeStatus).Inc()
		fredUpstreamErrorsTotal.WithLabelValues(strconv.Itoa(status)).Inc()
		return nil, &ResolveError{
			Spec:       spec,
			Lookup:     lookup,
			Kind:       ErrUpstreamStatus,
			StatusCode: status,
			Message:    message,
		}
	}
	fredRequestsTotal.WithLabelValues(lookup.String(), sourceFred, outcomeOK).Inc()

	// Step 3: Update Cache
	if err := c.store.Put(ctx, spec.Key(), body); err != nil {
		logger.Warn().Err(err).Msg("Failed to cache response")
		fredCacheWriteFailures.Inc()
		if c.onCacheWriteError != nil {
			c.onCacheWriteError(&ResolveError{Spec: spec, Lookup: lookup, Kind: ErrCacheWriteFailed, Err: err})
		}
	} else {
		logger.Debug().Str("source", sourceFred).Int("status", status).Int("bytes", len(body)).Msg("Cached response")
	}

	return body, nil
}

// mirror copies body to the debug sink.
func (c *Client) mirror(spec request.Spec, body []byte, logger zerolog.Logger) {
	if err := c.sink.Write(spec.String(), body); err != nil {
		logger.Warn().Err(err).Msg("Failed to write debug artifact")
	}
}
