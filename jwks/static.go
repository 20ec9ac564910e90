package jwks

import (
	"bytes"
	"context"
	"fmt"
	"sync"

	"github.com/lestrrat-go/jwx/v2/jwk"
)

// StaticProvider serves a key set decoded from fixed JSON. The JSON is parsed
// on first use and the result never changes or expires.
type StaticProvider struct {
	load func() (jwk.Set, error)
}

// NewStaticProvider returns a provider for raw, typically an embedded JWKS
// snapshot. raw is copied.
func NewStaticProvider(raw []byte) *StaticProvider {
	data := bytes.Clone(raw)
	return &StaticProvider{
		load: sync.OnceValues(func() (jwk.Set, error) {
			set, err := jwk.Parse(data)
			if err != nil {
				return nil, &FetchError{Kind: KindDecode, URL: "static", Err: err}
			}
			return set, nil
		}),
	}
}

// Get returns a copy of the static key set. A snapshot that fails to decode
// fails the same way on every call.
func (p *StaticProvider) Get(_ context.Context) (jwk.Set, error) {
	set, err := p.load()
	if err != nil {
		return nil, err
	}
	return cloneSet(set)
}

// KeyFunc adheres to the keyFunc signature used by JWT validators.
func (p *StaticProvider) KeyFunc(ctx context.Context) (any, error) {
	return p.Get(ctx)
}

// FetchOnceProvider fetches the key set on first use and keeps it forever.
// Failed fetches are not remembered, so a later Get tries again.
type FetchOnceProvider struct {
	fetcher Fetcher

	mu  sync.RWMutex
	set jwk.Set
}

// NewFetchOnceProvider builds a FetchOnceProvider around f.
func NewFetchOnceProvider(f Fetcher) (*FetchOnceProvider, error) {
	if f == nil {
		return nil, fmt.Errorf("fetcher cannot be nil")
	}
	return &FetchOnceProvider{fetcher: f}, nil
}

// Get returns a copy of the key set, fetching it if no fetch has succeeded yet.
// Concurrent first callers may each fetch; the first result stored is kept.
func (p *FetchOnceProvider) Get(ctx context.Context) (jwk.Set, error) {
	p.mu.RLock()
	set := p.set
	p.mu.RUnlock()
	if set != nil {
		return cloneSet(set)
	}

	fetched, _, err := p.fetcher.Fetch(ctx)
	if err != nil {
		return nil, err
	}
	if fetched == nil {
		return nil, &FetchError{Kind: KindDecode, URL: "fetch-once", Err: fmt.Errorf("fetcher returned no key set")}
	}

	p.mu.Lock()
	if p.set == nil {
		p.set = fetched
	}
	set = p.set
	p.mu.Unlock()

	return cloneSet(set)
}

// KeyFunc adheres to the keyFunc signature used by JWT validators.
func (p *FetchOnceProvider) KeyFunc(ctx context.Context) (any, error) {
	return p.Get(ctx)
}

var (
	_ Provider = (*Cache)(nil)
	_ Provider = (*StaticProvider)(nil)
	_ Provider = (*FetchOnceProvider)(nil)
)
