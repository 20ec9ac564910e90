package jwks

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestEntry(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	t.Run("empty entry is never fresh", func(t *testing.T) {
		e := Entry{ExpiresAt: now.Add(time.Hour)}
		assert.False(t, e.Present())
		assert.False(t, e.Fresh(now))
	})

	t.Run("fresh up to and including expiry", func(t *testing.T) {
		e := Entry{Set: generateJWKS(t, "a"), ExpiresAt: now}
		assert.True(t, e.Present())
		assert.True(t, e.Fresh(now.Add(-time.Second)))
		assert.True(t, e.Fresh(now))
		assert.False(t, e.Fresh(now.Add(time.Nanosecond)))
	})
}

func TestStore(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	set := generateJWKS(t, "a", "b")

	t.Run("starts empty", func(t *testing.T) {
		var s Store
		assert.Equal(t, Entry{}, s.Snapshot())
	})

	t.Run("replace then clear", func(t *testing.T) {
		var s Store
		s.Replace(set, now)

		e := s.Snapshot()
		assert.Same(t, set, e.Set)
		assert.Equal(t, now, e.ExpiresAt)

		s.Clear()
		assert.Equal(t, Entry{}, s.Snapshot())

		s.Clear()
		assert.Equal(t, Entry{}, s.Snapshot())
	})

	t.Run("readers see value and expiry change together", func(t *testing.T) {
		var s Store
		other := generateJWKS(t, "c")
		first, second := now, now.Add(time.Hour)

		var wg sync.WaitGroup
		stop := make(chan struct{})
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; ; i++ {
				select {
				case <-stop:
					return
				default:
				}
				if i%2 == 0 {
					s.Replace(set, first)
				} else {
					s.Replace(other, second)
				}
			}
		}()

		for i := 0; i < 10000; i++ {
			e := s.Snapshot()
			switch e.Set {
			case nil:
				assert.True(t, e.ExpiresAt.IsZero())
			case set:
				assert.Equal(t, first, e.ExpiresAt)
			default:
				assert.Equal(t, second, e.ExpiresAt)
			}
		}
		close(stop)
		wg.Wait()
	})
}
