package jwks

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_StaticProvider(t *testing.T) {
	snapshot := generateJWKS(t, "g1", "g2")
	raw, err := json.Marshal(snapshot)
	require.NoError(t, err)

	t.Run("It serves the decoded snapshot", func(t *testing.T) {
		p := NewStaticProvider(raw)

		set, err := p.Get(context.Background())
		require.NoError(t, err)
		assert.Equal(t, []string{"g1", "g2"}, keyIDs(set))

		keys, err := p.KeyFunc(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 2, keys.(interface{ Len() int }).Len())
	})

	t.Run("It is unaffected by later changes to the input", func(t *testing.T) {
		buf := append([]byte(nil), raw...)
		p := NewStaticProvider(buf)
		for i := range buf {
			buf[i] = ' '
		}

		set, err := p.Get(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 2, set.Len())
	})

	t.Run("It fails with a decode error on every call for bad input", func(t *testing.T) {
		p := NewStaticProvider([]byte("not json"))

		_, err := p.Get(context.Background())
		assert.ErrorIs(t, err, ErrDecode)
		_, err = p.Get(context.Background())
		assert.ErrorIs(t, err, ErrDecode)
	})
}

func Test_FetchOnceProvider(t *testing.T) {
	set := generateJWKS(t, "once")

	t.Run("It fetches a single time", func(t *testing.T) {
		f := &countingFetcher{set: set, maxAge: time.Second}
		p, err := NewFetchOnceProvider(f)
		require.NoError(t, err)

		for i := 0; i < 3; i++ {
			got, err := p.Get(context.Background())
			require.NoError(t, err)
			assert.Equal(t, []string{"once"}, keyIDs(got))
		}
		assert.Equal(t, 1, f.count())
	})

	t.Run("It retries after a failure", func(t *testing.T) {
		f := &countingFetcher{err: &FetchError{Kind: KindStatus, URL: "x", StatusCode: 500}}
		p, err := NewFetchOnceProvider(f)
		require.NoError(t, err)

		_, err = p.Get(context.Background())
		assert.ErrorIs(t, err, ErrStatus)

		f.respond(set, 0, nil)
		got, err := p.Get(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 1, got.Len())
		assert.Equal(t, 2, f.count())
	})

	t.Run("Concurrent first callers agree on the stored set", func(t *testing.T) {
		f := &countingFetcher{set: set, delay: 5 * time.Millisecond}
		p, err := NewFetchOnceProvider(f)
		require.NoError(t, err)

		var wg sync.WaitGroup
		for i := 0; i < 10; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				got, err := p.Get(context.Background())
				if assert.NoError(t, err) {
					assert.Equal(t, []string{"once"}, keyIDs(got))
				}
			}()
		}
		wg.Wait()
	})

	t.Run("It requires a fetcher", func(t *testing.T) {
		_, err := NewFetchOnceProvider(nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "fetcher cannot be nil")
	})
}
