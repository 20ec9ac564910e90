package jwks

import (
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/auth0/go-jwks-cache/telemetry"
)

// Option is how options for the Cache are set up.
type Option func(*config) error

// config holds internal configuration for creating a Cache.
type config struct {
	jwksURL      *url.URL
	httpClient   *http.Client
	fetcher      Fetcher
	clock        Clock
	defaultTTL   time.Duration
	logger       telemetry.Logger
	metrics      telemetry.Metrics
	tracer       telemetry.Tracer
	singleFlight bool
	serveStale   bool
}

// WithURL sets the JWKS location fetched by the default HTTP fetcher.
// If neither WithURL nor WithFetcher is given, DefaultJWKSURL is used.
func WithURL(jwksURL *url.URL) Option {
	return func(c *config) error {
		if jwksURL == nil {
			return fmt.Errorf("JWKS URL cannot be nil")
		}
		c.jwksURL = jwksURL
		return nil
	}
}

// WithHTTPClient sets the HTTP client used by the default HTTP fetcher.
// If not specified, a client with a 30s timeout is used.
func WithHTTPClient(client *http.Client) Option {
	return func(c *config) error {
		if client == nil {
			return fmt.Errorf("HTTP client cannot be nil")
		}
		c.httpClient = client
		return nil
	}
}

// WithFetcher replaces the HTTP fetcher entirely. WithURL and WithHTTPClient
// are ignored when a fetcher is supplied.
func WithFetcher(f Fetcher) Option {
	return func(c *config) error {
		if f == nil {
			return fmt.Errorf("fetcher cannot be nil")
		}
		c.fetcher = f
		return nil
	}
}

// WithClock sets the time source used for expiry decisions.
func WithClock(clock Clock) Option {
	return func(c *config) error {
		if clock == nil {
			return fmt.Errorf("clock cannot be nil")
		}
		c.clock = clock
		return nil
	}
}

// WithDefaultTTL sets the lifetime applied when the provider sends no usable
// max-age directive. Zero restores DefaultTTL.
func WithDefaultTTL(ttl time.Duration) Option {
	return func(c *config) error {
		if ttl < 0 {
			return fmt.Errorf("default TTL cannot be negative")
		}
		if ttl == 0 {
			ttl = DefaultTTL
		}
		c.defaultTTL = ttl
		return nil
	}
}

// WithLogger sets the logger. The default discards all output.
func WithLogger(logger telemetry.Logger) Option {
	return func(c *config) error {
		if logger == nil {
			return fmt.Errorf("logger cannot be nil")
		}
		c.logger = logger
		return nil
	}
}

// WithMetrics sets the metrics sink.
func WithMetrics(metrics telemetry.Metrics) Option {
	return func(c *config) error {
		if metrics == nil {
			return fmt.Errorf("metrics cannot be nil")
		}
		c.metrics = metrics
		return nil
	}
}

// WithTracer sets the tracer used to wrap each fetch in a span.
func WithTracer(tracer telemetry.Tracer) Option {
	return func(c *config) error {
		if tracer == nil {
			return fmt.Errorf("tracer cannot be nil")
		}
		c.tracer = tracer
		return nil
	}
}

// WithSingleFlight makes concurrent callers that miss share one in-flight
// fetch instead of each issuing their own. Off by default.
func WithSingleFlight(enabled bool) Option {
	return func(c *config) error {
		c.singleFlight = enabled
		return nil
	}
}

// WithServeStaleOnError makes Get return the expired key set, if one is held,
// when a refetch fails. Off by default: the fetch error is returned.
func WithServeStaleOnError(enabled bool) Option {
	return func(c *config) error {
		c.serveStale = enabled
		return nil
	}
}
