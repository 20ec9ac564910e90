package jwks

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/lestrrat-go/httpcc"
	"github.com/lestrrat-go/jwx/v2/jwk"

	"github.com/auth0/go-jwks-cache/telemetry"
)

const (
	// maxResponseBytes caps the JWKS body; real key sets are a few KB.
	maxResponseBytes = 1 * 1024 * 1024

	minDirectiveTTL = 1 * time.Second
	maxDirectiveTTL = 7 * 24 * time.Hour
)

// errHeaderParse marks a Cache-Control header the fetcher could not use.
// It never leaves the fetcher.
var errHeaderParse = errors.New("unusable max-age directive")

// Fetcher performs one retrieval of the key set per call.
//
// The returned duration is the provider's freshness directive, or zero when
// the response carried none. Failures are reported as *FetchError.
type Fetcher interface {
	Fetch(ctx context.Context) (jwk.Set, time.Duration, error)
}

// FetcherFunc adapts a plain function to the Fetcher interface.
type FetcherFunc func(ctx context.Context) (jwk.Set, time.Duration, error)

// Fetch implements Fetcher.
func (f FetcherFunc) Fetch(ctx context.Context) (jwk.Set, time.Duration, error) {
	return f(ctx)
}

// HTTPFetcher retrieves a JWKS with a single HTTP GET and reads the
// Cache-Control max-age directive from the response.
type HTTPFetcher struct {
	URL    *url.URL // Required.
	Client *http.Client
	Logger telemetry.Logger
}

// NewHTTPFetcher builds an HTTPFetcher for jwksURL. A nil client gets the
// default 30s-timeout client.
func NewHTTPFetcher(jwksURL *url.URL, client *http.Client) (*HTTPFetcher, error) {
	if jwksURL == nil {
		return nil, fmt.Errorf("JWKS URL is required")
	}
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &HTTPFetcher{URL: jwksURL, Client: client, Logger: telemetry.NopLogger{}}, nil
}

// Fetch implements Fetcher. It never retries.
func (f *HTTPFetcher) Fetch(ctx context.Context) (jwk.Set, time.Duration, error) {
	jwksURL := f.URL.String()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, jwksURL, nil)
	if err != nil {
		return nil, 0, &FetchError{Kind: KindNetwork, URL: jwksURL, Err: fmt.Errorf("failed to create request: %w", err)}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, 0, &FetchError{Kind: KindNetwork, URL: jwksURL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBytes))
		return nil, 0, &FetchError{Kind: KindStatus, URL: jwksURL, StatusCode: resp.StatusCode}
	}

	set, err := jwk.ParseReader(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, 0, &FetchError{Kind: KindDecode, URL: jwksURL, Err: err}
	}

	maxAge, err := parseMaxAge(resp.Header.Get("Cache-Control"))
	if err != nil && f.Logger != nil {
		f.Logger.Debugf("ignoring Cache-Control from %s: %v", jwksURL, err)
	}

	return set, maxAge, nil
}

// parseMaxAge extracts max-age from a Cache-Control header value.
// It returns zero with no error when the header carries no max-age, and zero
// with errHeaderParse when the directive is malformed or outside [1s, 7d].
func parseMaxAge(cacheControl string) (time.Duration, error) {
	if cacheControl == "" {
		return 0, nil
	}

	dir, err := httpcc.ParseResponse(cacheControl)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", errHeaderParse, err)
	}

	seconds, ok := dir.MaxAge()
	if !ok {
		return 0, nil
	}

	if seconds > uint64(maxDirectiveTTL/time.Second) {
		return 0, fmt.Errorf("%w: max-age=%d exceeds %s", errHeaderParse, seconds, maxDirectiveTTL)
	}
	ttl := time.Duration(seconds) * time.Second
	if ttl < minDirectiveTTL {
		return 0, fmt.Errorf("%w: max-age=%d below %s", errHeaderParse, seconds, minDirectiveTTL)
	}

	return ttl, nil
}
