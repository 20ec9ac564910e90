/*
Package jwks keeps a JSON Web Key Set from a remote identity provider in
memory so that signed tokens can be checked without a network round-trip on
every verification.

# Overview

The package is built from four pieces:
  - Clock: the wall-clock source used for expiry decisions
  - Fetcher: one HTTP GET of the key set, plus the provider's max-age hint
  - Store: the current key set and its expiry, guarded by a RWMutex
  - Cache: read, check, refetch, write; the type callers use

# Basic Usage

	jwksURL, _ := url.Parse("https://auth.example.com/.well-known/jwks.json")

	cache, err := jwks.New(
	    jwks.WithURL(jwksURL),
	)
	if err != nil {
	    log.Fatal(err)
	}

	set, err := cache.Get(ctx)
	if err != nil {
	    // *jwks.FetchError: network, status or decode failure
	}

	// After a key rotation is detected
	cache.Invalidate()

Without WithURL or WithFetcher the cache reads Google's OAuth2 certificates
from DefaultJWKSURL.

# Cache-Control Header Support

A response carrying "Cache-Control: max-age=N" is kept for N seconds.
Otherwise the default TTL (1800 seconds, see WithDefaultTTL) applies.

Behavior:
  - max-age replaces the default TTL, longer or shorter
  - A malformed directive is ignored and treated as absent
  - Values below 1 second or above 7 days are ignored

# Cache Behavior

1. Fast path: a fresh entry is returned without touching the network.

2. The lock is held only to read or swap the entry, never across a fetch.

3. A failed fetch returns its error and leaves the stored entry alone.
The stale value is not served unless WithServeStaleOnError is set.

4. Callers that miss at the same time each fetch. WithSingleFlight makes
them share a single in-flight fetch instead.

5. Every caller gets its own copy of the set.

# Other Providers

StaticProvider decodes a fixed JWKS document once and serves it forever.
FetchOnceProvider performs one successful fetch and never refreshes. Both
satisfy Provider together with Cache.

# Error Handling

	set, err := cache.Get(ctx)
	switch {
	case errors.Is(err, jwks.ErrStatus):
	    // provider answered with something other than 200
	case errors.Is(err, jwks.ErrDecode):
	    // body was not a key set
	case errors.Is(err, jwks.ErrNetwork):
	    // transport failure or cancelled context
	}

# Thread Safety

Cache, StaticProvider and FetchOnceProvider can be shared across goroutines.
*/
package jwks
