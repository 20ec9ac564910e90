package jwks

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwk"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// countingFetcher returns a configurable result and counts calls.
type countingFetcher struct {
	calls atomic.Int32

	mu     sync.Mutex
	set    jwk.Set
	maxAge time.Duration
	err    error
	delay  time.Duration
}

func (f *countingFetcher) Fetch(ctx context.Context) (jwk.Set, time.Duration, error) {
	f.calls.Add(1)

	f.mu.Lock()
	set, maxAge, err, delay := f.set, f.maxAge, f.err, f.delay
	f.mu.Unlock()

	if delay > 0 {
		time.Sleep(delay)
	}
	if err != nil {
		return nil, 0, err
	}
	return set, maxAge, nil
}

func (f *countingFetcher) respond(set jwk.Set, maxAge time.Duration, err error) {
	f.mu.Lock()
	f.set, f.maxAge, f.err = set, maxAge, err
	f.mu.Unlock()
}

func (f *countingFetcher) count() int {
	return int(f.calls.Load())
}

func generateJWKS(t *testing.T, kids ...string) jwk.Set {
	t.Helper()

	set := jwk.NewSet()
	for _, kid := range kids {
		privateKey, err := rsa.GenerateKey(rand.Reader, 2048)
		require.NoError(t, err)

		key, err := jwk.FromRaw(&privateKey.PublicKey)
		require.NoError(t, err)
		require.NoError(t, key.Set(jwk.KeyIDKey, kid))
		require.NoError(t, key.Set(jwk.AlgorithmKey, "RS256"))
		require.NoError(t, set.AddKey(key))
	}
	return set
}

func keyIDs(set jwk.Set) []string {
	ids := make([]string, 0, set.Len())
	for i := 0; i < set.Len(); i++ {
		key, ok := set.Key(i)
		if !ok {
			panic(fmt.Sprintf("missing key at index %d", i))
		}
		ids = append(ids, key.KeyID())
	}
	sort.Strings(ids)
	return ids
}
