package jwks

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwk"
	"golang.org/x/sync/singleflight"

	"github.com/auth0/go-jwks-cache/telemetry"
)

const (
	// DefaultTTL applies when a response carries no usable max-age directive.
	DefaultTTL = 1800 * time.Second

	// DefaultJWKSURL is Google's OAuth2 certificate set.
	DefaultJWKSURL = "https://www.googleapis.com/oauth2/v3/certs"

	flightKey = "jwks"
)

// Provider is anything that can hand out the current key set.
// Cache, StaticProvider and FetchOnceProvider all satisfy it.
type Provider interface {
	Get(ctx context.Context) (jwk.Set, error)
}

// Cache keeps the most recently fetched key set in memory and refetches it
// once it expires or is invalidated.
//
// The fetch always happens outside the store's lock. Without single-flight,
// callers that miss at the same time each fetch and the last write wins.
type Cache struct {
	store   Store
	fetcher Fetcher
	source  string
	clock   Clock

	defaultTTL   time.Duration
	singleFlight bool
	serveStale   bool
	flight       singleflight.Group

	logger  telemetry.Logger
	metrics telemetry.Metrics
	tracer  telemetry.Tracer
}

// New builds an empty Cache. Nothing is fetched until the first Get.
//
// Example:
//
//	u, _ := url.Parse("https://auth.example.com/.well-known/jwks.json")
//	cache, err := jwks.New(
//	    jwks.WithURL(u),
//	    jwks.WithDefaultTTL(10*time.Minute),
//	)
func New(opts ...Option) (*Cache, error) {
	cfg := &config{
		clock:      SystemClock{},
		defaultTTL: DefaultTTL,
		logger:     telemetry.NopLogger{},
		metrics:    &telemetry.NoopMetrics{},
		tracer:     &telemetry.NoopTracer{},
	}

	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, fmt.Errorf("invalid option: %w", err)
		}
	}

	c := &Cache{
		fetcher:      cfg.fetcher,
		source:       "custom",
		clock:        cfg.clock,
		defaultTTL:   cfg.defaultTTL,
		singleFlight: cfg.singleFlight,
		serveStale:   cfg.serveStale,
		logger:       cfg.logger,
		metrics:      cfg.metrics,
		tracer:       cfg.tracer,
	}

	if c.fetcher == nil {
		jwksURL := cfg.jwksURL
		if jwksURL == nil {
			var err error
			if jwksURL, err = url.Parse(DefaultJWKSURL); err != nil {
				return nil, fmt.Errorf("could not parse default JWKS URL: %w", err)
			}
		}
		hf, err := NewHTTPFetcher(jwksURL, cfg.httpClient)
		if err != nil {
			return nil, err
		}
		hf.Logger = cfg.logger
		c.fetcher = hf
		c.source = jwksURL.String()
	}

	return c, nil
}

// Get returns a copy of the cached key set, fetching a new one first when the
// cache is empty or expired. A failed fetch leaves the cache untouched and its
// *FetchError is returned as is.
func (c *Cache) Get(ctx context.Context) (jwk.Set, error) {
	entry := c.store.Snapshot()
	if entry.Fresh(c.clock.Now()) {
		c.metrics.IncCounter(telemetry.MetricCacheRequests, map[string]string{"result": "hit"})
		return cloneSet(entry.Set)
	}
	c.metrics.IncCounter(telemetry.MetricCacheRequests, map[string]string{"result": "miss"})

	set, err := c.refresh(ctx)
	if err != nil {
		if c.serveStale {
			if stale := c.store.Snapshot(); stale.Present() {
				c.logger.Warnf("serving stale JWKS from %s (expired %s): %v",
					c.source, stale.ExpiresAt.Format(time.RFC3339), err)
				return cloneSet(stale.Set)
			}
		}
		return nil, err
	}

	return cloneSet(set)
}

// Invalidate drops the cached key set so the next Get fetches. It is safe to
// call repeatedly.
func (c *Cache) Invalidate() {
	c.store.Clear()
	if c.singleFlight {
		c.flight.Forget(flightKey)
	}
	c.logger.Debugf("JWKS cache for %s invalidated", c.source)
}

// Snapshot exposes the stored entry for inspection. The returned set is the
// cached value itself and must not be modified.
func (c *Cache) Snapshot() Entry {
	return c.store.Snapshot()
}

// KeyFunc adheres to the keyFunc signature used by JWT validators.
// As long as the error is nil the returned value is a jwk.Set.
func (c *Cache) KeyFunc(ctx context.Context) (any, error) {
	return c.Get(ctx)
}

// LookupKeyID returns the key with the given id from the current key set.
func (c *Cache) LookupKeyID(ctx context.Context, kid string) (jwk.Key, error) {
	set, err := c.Get(ctx)
	if err != nil {
		return nil, err
	}
	key, ok := set.LookupKeyID(kid)
	if !ok {
		return nil, fmt.Errorf("%w: kid %q", ErrKeyNotFound, kid)
	}
	return key, nil
}

func (c *Cache) refresh(ctx context.Context) (jwk.Set, error) {
	if !c.singleFlight {
		return c.fetchAndStore(ctx)
	}

	// The shared fetch must not die with whichever caller started it.
	ch := c.flight.DoChan(flightKey, func() (any, error) {
		if entry := c.store.Snapshot(); entry.Fresh(c.clock.Now()) {
			return entry.Set, nil
		}
		return c.fetchAndStore(context.WithoutCancel(ctx))
	})

	select {
	case <-ctx.Done():
		return nil, &FetchError{Kind: KindNetwork, URL: c.source, Err: ctx.Err()}
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(jwk.Set), nil
	}
}

func (c *Cache) fetchAndStore(ctx context.Context) (jwk.Set, error) {
	ctx, span := c.tracer.StartSpan(ctx, "jwks.fetch")
	defer span.Finish()
	span.SetTag("jwks.source", c.source)

	start := time.Now()
	set, maxAge, err := c.fetcher.Fetch(ctx)
	c.metrics.ObserveHistogram(telemetry.MetricFetchDuration, time.Since(start).Seconds(), map[string]string{})

	if err == nil && set == nil {
		err = &FetchError{Kind: KindDecode, URL: c.source, Err: fmt.Errorf("fetcher returned no key set")}
	}
	if err != nil {
		result := kindOf(err).String()
		c.metrics.IncCounter(telemetry.MetricFetches, map[string]string{"result": result})
		span.SetTag("jwks.result", result)
		span.RecordError(err)
		c.logger.Errorf("JWKS fetch from %s failed: %v", c.source, err)
		return nil, err
	}

	ttl := c.defaultTTL
	if maxAge > 0 {
		ttl = maxAge
	} else {
		c.logger.Debugf("no max-age from %s, using default TTL %s", c.source, ttl)
	}

	expiresAt := c.clock.Now().Add(ttl)
	c.store.Replace(set, expiresAt)

	if set.Len() == 0 {
		c.logger.Warnf("JWKS from %s contains no keys", c.source)
	}
	c.metrics.IncCounter(telemetry.MetricFetches, map[string]string{"result": "success"})
	c.metrics.SetGauge(telemetry.MetricKeys, float64(set.Len()), map[string]string{})
	span.SetTag("jwks.result", "success")
	span.SetTag("jwks.keys", set.Len())
	span.SetTag("jwks.ttl", ttl)
	c.logger.Infof("fetched JWKS from %s: %d keys, expires at %s",
		c.source, set.Len(), expiresAt.Format(time.RFC3339))

	return set, nil
}

func cloneSet(set jwk.Set) (jwk.Set, error) {
	clone, err := set.Clone()
	if err != nil {
		return nil, fmt.Errorf("could not copy JWKS: %w", err)
	}
	return clone, nil
}
