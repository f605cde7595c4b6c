package cache

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock lets tests advance time without sleeping.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)}
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

func TestMemory_SetAndGet(t *testing.T) {
	store := NewMemory(10*time.Minute, 100)

	store.Set("fp1", "text_extraction", "raw text result")

	v, ok := store.Get("fp1", "text_extraction")
	require.True(t, ok)
	assert.Equal(t, "raw text result", v)
}

func TestMemory_MissOnUnknownKey(t *testing.T) {
	store := NewMemory(10*time.Minute, 100)

	_, ok := store.Get("unknown", "text_extraction")
	assert.False(t, ok)
}

func TestMemory_KeyIsFingerprintAndStage(t *testing.T) {
	store := NewMemory(10*time.Minute, 100)

	store.Set("fp1", "text_extraction", "text result")
	store.Set("fp1", "entity_extraction", "entity result")

	v, ok := store.Get("fp1", "text_extraction")
	require.True(t, ok)
	assert.Equal(t, "text result", v)

	v, ok = store.Get("fp1", "entity_extraction")
	require.True(t, ok)
	assert.Equal(t, "entity result", v)

	_, ok = store.Get("fp2", "text_extraction")
	assert.False(t, ok)
}

func TestMemory_ExpiredEntryIsAMiss(t *testing.T) {
	clock := newFakeClock()
	store := NewMemoryWithClock(10*time.Minute, 100, clock.Now)

	store.Set("fp1", "text_extraction", "result")

	_, ok := store.Get("fp1", "text_extraction")
	require.True(t, ok)

	clock.Advance(10*time.Minute + time.Second)

	_, ok = store.Get("fp1", "text_extraction")
	assert.False(t, ok, "entry past its TTL must read as a miss")
	assert.Equal(t, 0, store.Len(), "expired entry should be swept on read")
}

func TestMemory_ExpiryComputedAtWriteTime(t *testing.T) {
	clock := newFakeClock()
	store := NewMemoryWithClock(10*time.Minute, 100, clock.Now)

	store.Set("fp1", "text_extraction", "result")
	clock.Advance(9 * time.Minute)

	// Reads do not extend the TTL.
	_, ok := store.Get("fp1", "text_extraction")
	require.True(t, ok)

	clock.Advance(2 * time.Minute)
	_, ok = store.Get("fp1", "text_extraction")
	assert.False(t, ok)
}

func TestMemory_DefaultTTL(t *testing.T) {
	store := NewMemory(0, 100)
	assert.Equal(t, DefaultTTL, store.ttl)
}

func TestMemory_OverwriteRefreshesExpiry(t *testing.T) {
	clock := newFakeClock()
	store := NewMemoryWithClock(10*time.Minute, 100, clock.Now)

	store.Set("fp1", "text_extraction", "first")
	clock.Advance(8 * time.Minute)
	store.Set("fp1", "text_extraction", "second")
	clock.Advance(8 * time.Minute)

	v, ok := store.Get("fp1", "text_extraction")
	require.True(t, ok)
	assert.Equal(t, "second", v)
}

func TestMemory_LRUEviction(t *testing.T) {
	store := NewMemory(10*time.Minute, 2)

	store.Set("fp1", "s", 1)
	store.Set("fp2", "s", 2)

	// Touch fp1 so fp2 becomes least recently used.
	_, ok := store.Get("fp1", "s")
	require.True(t, ok)

	store.Set("fp3", "s", 3)

	_, ok = store.Get("fp2", "s")
	assert.False(t, ok, "least recently used entry should be evicted")
	_, ok = store.Get("fp1", "s")
	assert.True(t, ok)
	_, ok = store.Get("fp3", "s")
	assert.True(t, ok)
}

func TestMemory_ConcurrentAccess(t *testing.T) {
	store := NewMemory(10*time.Minute, 1000)

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			fp := fmt.Sprintf("fp%d", n%4)
			for j := 0; j < 100; j++ {
				store.Set(fp, "text_extraction", n)
				store.Get(fp, "text_extraction")
			}
		}(i)
	}
	wg.Wait()

	assert.LessOrEqual(t, store.Len(), 4)
}

func TestNewMetrics_SingleRegistration(t *testing.T) {
	a := NewMetrics()
	b := NewMetrics()
	assert.Same(t, a, b)
}
