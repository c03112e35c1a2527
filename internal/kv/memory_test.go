package kv

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func TestMemoryStore_SetGet(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "k1", "v1", time.Minute))
	v, err := s.Get(ctx, "k1")
	require.NoError(t, err)
	assert.Equal(t, "v1", v)

	_, err = s.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore_TTLExpiry(t *testing.T) {
	clk := newFakeClock()
	s := NewMemoryStoreWithClock(clk.Now)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "k1", "v1", time.Minute))

	clk.Advance(59 * time.Second)
	_, err := s.Get(ctx, "k1")
	require.NoError(t, err)

	clk.Advance(2 * time.Second)
	_, err = s.Get(ctx, "k1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore_SetOverwritesValueAndTTL(t *testing.T) {
	clk := newFakeClock()
	s := NewMemoryStoreWithClock(clk.Now)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "k1", "old", time.Minute))
	require.NoError(t, s.Set(ctx, "k1", "new", time.Hour))

	clk.Advance(30 * time.Minute)
	v, err := s.Get(ctx, "k1")
	require.NoError(t, err)
	assert.Equal(t, "new", v)
}

func TestMemoryStore_SetNX(t *testing.T) {
	clk := newFakeClock()
	s := NewMemoryStoreWithClock(clk.Now)
	ctx := context.Background()

	ok, err := s.SetNX(ctx, "k1", "v1", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.SetNX(ctx, "k1", "v2", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	// The losing write must not have touched the value.
	v, err := s.Get(ctx, "k1")
	require.NoError(t, err)
	assert.Equal(t, "v1", v)

	// Once expired, the slot is free again.
	clk.Advance(2 * time.Minute)
	ok, err = s.SetNX(ctx, "k1", "v3", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestMemoryStore_DeleteIfEquals(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "k1", "secret", time.Minute))

	ok, err := s.DeleteIfEquals(ctx, "k1", "wrong")
	require.NoError(t, err)
	assert.False(t, ok)

	// A mismatch must not burn the stored value.
	v, err := s.Get(ctx, "k1")
	require.NoError(t, err)
	assert.Equal(t, "secret", v)

	ok, err = s.DeleteIfEquals(ctx, "k1", "secret")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.DeleteIfEquals(ctx, "k1", "secret")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryStore_DeleteIfEquals_ConcurrentSingleUse(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, s.Set(ctx, "k1", "code", time.Minute))

	const n = 32
	results := make(chan bool, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := s.DeleteIfEquals(ctx, "k1", "code")
			require.NoError(t, err)
			results <- ok
		}()
	}
	wg.Wait()
	close(results)

	wins := 0
	for ok := range results {
		if ok {
			wins++
		}
	}
	assert.Equal(t, 1, wins)
}

func TestMemoryStore_Increment(t *testing.T) {
	clk := newFakeClock()
	s := NewMemoryStoreWithClock(clk.Now)
	ctx := context.Background()

	n, err := s.Increment(ctx, "cnt", time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = s.Increment(ctx, "cnt", time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	// Counter TTL is fixed at creation; later increments don't extend it.
	clk.Advance(61 * time.Minute)
	n, err = s.Increment(ctx, "cnt", time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestMemoryStore_Delete(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "k1", "v1", time.Minute))
	require.NoError(t, s.Delete(ctx, "k1"))
	_, err := s.Get(ctx, "k1")
	assert.ErrorIs(t, err, ErrNotFound)

	// Deleting an absent key is not an error.
	require.NoError(t, s.Delete(ctx, "k1"))
}
