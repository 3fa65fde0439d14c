package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newRedisStore(t *testing.T) *RedisStore {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisStore(client, "test:")
}

func newMemoryStore(t *testing.T) *MemoryStore {
	t.Helper()
	s, err := NewMemoryStore(1024)
	require.NoError(t, err)
	return s
}

func stores(t *testing.T) map[string]Store {
	return map[string]Store{
		"memory": newMemoryStore(t),
		"redis":  newRedisStore(t),
	}
}

func TestLimiter_RejectsAfterLimitAndRecovers(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			clock := &fakeClock{now: time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)}
			l := NewLimiter(store, "ask", 3, time.Minute, WithClock(clock.Now))

			for i := 0; i < 3; i++ {
				d, err := l.Allow(ctx, "1.2.3.4|web")
				require.NoError(t, err)
				assert.True(t, d.Allowed, "hit %d", i+1)
				assert.Equal(t, 2-i, d.Remaining)
				assert.Equal(t, 3, d.Limit)
				clock.Advance(time.Second)
			}

			d, err := l.Allow(ctx, "1.2.3.4|web")
			require.NoError(t, err)
			assert.False(t, d.Allowed)
			assert.Equal(t, 0, d.Remaining)
			assert.Equal(t, 57*time.Second, d.RetryAfter)

			clock.Advance(57 * time.Second)
			d, err = l.Allow(ctx, "1.2.3.4|web")
			require.NoError(t, err)
			assert.True(t, d.Allowed)
		})
	}
}

func TestLimiter_RejectedHitsAreNotCounted(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			clock := &fakeClock{now: time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)}
			l := NewLimiter(store, "ai", 1, 10*time.Second, WithClock(clock.Now))

			d, err := l.Allow(ctx, "k")
			require.NoError(t, err)
			require.True(t, d.Allowed)

			for i := 0; i < 5; i++ {
				clock.Advance(time.Second)
				d, err = l.Allow(ctx, "k")
				require.NoError(t, err)
				require.False(t, d.Allowed)
			}

			clock.Advance(5 * time.Second)
			d, err = l.Allow(ctx, "k")
			require.NoError(t, err)
			assert.True(t, d.Allowed)
		})
	}
}

func TestLimiter_KeysAreIndependent(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			clock := &fakeClock{now: time.Now()}
			ask := NewLimiter(store, "ask", 1, time.Minute, WithClock(clock.Now))
			suggest := NewLimiter(store, "suggest", 1, time.Minute, WithClock(clock.Now))

			d, _ := ask.Allow(ctx, "a")
			assert.True(t, d.Allowed)
			d, _ = ask.Allow(ctx, "b")
			assert.True(t, d.Allowed)
			d, _ = suggest.Allow(ctx, "a")
			assert.True(t, d.Allowed)
			d, _ = ask.Allow(ctx, "a")
			assert.False(t, d.Allowed)
		})
	}
}

func TestLimiter_DisabledWhenLimitIsZero(t *testing.T) {
	l := NewLimiter(newMemoryStore(t), "off", 0, time.Minute)
	for i := 0; i < 10; i++ {
		d, err := l.Allow(context.Background(), "k")
		require.NoError(t, err)
		assert.True(t, d.Allowed)
	}
}

func TestMemoryStore_ConcurrentHitsRespectLimit(t *testing.T) {
	store := newMemoryStore(t)
	l := NewLimiter(store, "ask", 50, time.Minute)

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		allowed int
	)
	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			d, err := l.Allow(context.Background(), "shared")
			if err == nil && d.Allowed {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 50, allowed)
}

func TestMemoryStore_IsBounded(t *testing.T) {
	store, err := NewMemoryStore(32)
	require.NoError(t, err)
	l := NewLimiter(store, "ask", 1, time.Minute)
	for i := 0; i < 1000; i++ {
		_, err := l.Allow(context.Background(), fmt.Sprintf("client-%d", i))
		require.NoError(t, err)
	}
	assert.LessOrEqual(t, store.Len(), 32)
}
