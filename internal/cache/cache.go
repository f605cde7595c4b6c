// Package cache provides the content-addressed cross-request result store
// for the appointment pipeline.
//
// Entries are keyed by (fingerprint, stage) and are immutable once written
// until they expire: the value is a deterministic function of the key, so
// concurrent last-write-wins races are harmless. An expired entry is
// indistinguishable from absence.
//
// Example usage:
//
//	store := cache.NewMemory(10*time.Minute, 1000)
//	store.Set(fp, "text_extraction", result)
//	v, ok := store.Get(fp, "text_extraction")
package cache

import (
	"sync"
	"time"
)

// DefaultTTL is the horizon after which an entry is no longer valid.
const DefaultTTL = 600 * time.Second

// Store is the lookup contract the pipeline depends on.
//
// Get never errors: a failed, absent, or expired lookup is a miss. Any
// backing-store failure must degrade to a miss rather than surface to the
// pipeline.
type Store interface {
	// Get returns the stored stage result for (fingerprint, stage), or
	// (nil, false) on a miss.
	Get(fingerprint, stage string) (any, bool)

	// Set stores a stage result. Expiry is computed at write time.
	Set(fingerprint, stage string, value any)
}

type entry struct {
	value        any
	expiresAt    time.Time
	lastAccessed time.Time
}

// Memory is a thread-safe in-memory Store with TTL expiry and an LRU cap.
type Memory struct {
	mu         sync.RWMutex
	entries    map[string]*entry
	ttl        time.Duration
	maxEntries int
	now        func() time.Time
	metrics    *Metrics
}

// NewMemory creates a store with the given TTL and maximum entry count.
// A non-positive TTL falls back to DefaultTTL; a non-positive maxEntries
// disables the LRU cap.
func NewMemory(ttl time.Duration, maxEntries int) *Memory {
	return NewMemoryWithClock(ttl, maxEntries, time.Now)
}

// NewMemoryWithClock is NewMemory with an injectable clock for tests.
func NewMemoryWithClock(ttl time.Duration, maxEntries int, now func() time.Time) *Memory {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Memory{
		entries:    make(map[string]*entry),
		ttl:        ttl,
		maxEntries: maxEntries,
		now:        now,
	}
}

// SetMetrics attaches an optional metrics tracker.
func (m *Memory) SetMetrics(metrics *Metrics) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.metrics = metrics
}

func key(fingerprint, stage string) string {
	return fingerprint + ":" + stage
}

// Get returns the stored value for (fingerprint, stage) if present and not
// expired. Expired entries are removed lazily.
func (m *Memory) Get(fingerprint, stage string) (any, bool) {
	k := key(fingerprint, stage)

	m.mu.RLock()
	e, exists := m.entries[k]
	metrics := m.metrics
	m.mu.RUnlock()

	if !exists {
		if metrics != nil {
			metrics.RecordMiss()
		}
		return nil, false
	}

	if m.now().After(e.expiresAt) {
		m.mu.Lock()
		delete(m.entries, k)
		if m.metrics != nil {
			m.metrics.SetSize(len(m.entries))
		}
		m.mu.Unlock()

		// Expired is a miss.
		if metrics != nil {
			metrics.RecordMiss()
		}
		return nil, false
	}

	m.mu.Lock()
	e.lastAccessed = m.now()
	m.mu.Unlock()

	if metrics != nil {
		metrics.RecordHit()
	}
	return e.value, true
}

// Set stores a value for (fingerprint, stage), computing expiry at write
// time. When the store is at capacity the least recently used entry is
// evicted first.
func (m *Memory) Set(fingerprint, stage string, value any) {
	k := key(fingerprint, stage)

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.maxEntries > 0 && len(m.entries) >= m.maxEntries {
		if _, exists := m.entries[k]; !exists {
			m.evictLRU()
		}
	}

	now := m.now()
	m.entries[k] = &entry{
		value:        value,
		expiresAt:    now.Add(m.ttl),
		lastAccessed: now,
	}

	if m.metrics != nil {
		m.metrics.SetSize(len(m.entries))
	}
}

// Len reports the number of live entries, counting not-yet-swept expired ones.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

// evictLRU removes the least recently used entry. Caller holds the write lock.
func (m *Memory) evictLRU() {
	var oldestKey string
	var oldestTime time.Time

	first := true
	for k, e := range m.entries {
		if first || e.lastAccessed.Before(oldestTime) {
			oldestKey = k
			oldestTime = e.lastAccessed
			first = false
		}
	}

	if oldestKey != "" {
		delete(m.entries, oldestKey)
	}
}

var _ Store = (*Memory)(nil)
