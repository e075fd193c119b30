package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestLimiter(limit int, period time.Duration) (*MemoryLimiter, *fakeClock) {
	clock := &fakeClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	l := NewMemoryLimiter(limit, period)
	l.now = clock.now
	return l, clock
}

func TestMemoryLimiter_Allow(t *testing.T) {
	l, clock := newTestLimiter(3, time.Minute)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		d, err := l.Allow(ctx, "10.0.0.1")
		require.NoError(t, err)
		assert.True(t, d.Allowed)
		assert.Equal(t, 2-i, d.Remaining)
	}

	clock.advance(20 * time.Second)
	d, err := l.Allow(ctx, "10.0.0.1")
	require.NoError(t, err)
	assert.False(t, d.Allowed)
	assert.Equal(t, 0, d.Remaining)
	assert.Equal(t, 40*time.Second, d.RetryAfter)

	// Other clients have their own window
	d, _ = l.Allow(ctx, "10.0.0.2")
	assert.True(t, d.Allowed)

	// A new window starts once the old one ends
	clock.advance(40 * time.Second)
	d, _ = l.Allow(ctx, "10.0.0.1")
	assert.True(t, d.Allowed)
	assert.Equal(t, 2, d.Remaining)
}

func TestMemoryLimiter_RetryAfterIsAtLeastOneSecond(t *testing.T) {
	l, clock := newTestLimiter(1, time.Minute)
	ctx := context.Background()

	l.Allow(ctx, "k")
	clock.advance(time.Minute - time.Millisecond)
	d, _ := l.Allow(ctx, "k")

	assert.False(t, d.Allowed)
	assert.Equal(t, time.Second, d.RetryAfter)
}

func TestMemoryLimiter_Prune(t *testing.T) {
	l, clock := newTestLimiter(10, time.Minute)
	ctx := context.Background()

	l.Allow(ctx, "a")
	clock.advance(30 * time.Second)
	l.Allow(ctx, "b")
	clock.advance(45 * time.Second)

	assert.Equal(t, 1, l.Prune())
	assert.Equal(t, 1, l.Len())
}

func TestMemoryLimiter_Concurrent(t *testing.T) {
	l := NewMemoryLimiter(50, time.Hour)
	ctx := context.Background()

	var wg sync.WaitGroup
	var mu sync.Mutex
	allowed := 0
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			d, _ := l.Allow(ctx, "shared")
			l.Allow(ctx, fmt.Sprintf("own-%d", i))
			if d.Allowed {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 50, allowed)
	assert.Equal(t, 101, l.Len())
}
