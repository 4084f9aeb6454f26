// SPDX-License-Identifier: MIT

// Package cache provides a TTL cache for serialized resolution payloads.
package cache

import (
	"sync"
	"time"
)

// Cache stores opaque payloads with expiration support. Implementations are
// safe for concurrent use; a Set installs its value atomically so readers
// never observe a partial payload.
type Cache interface {
	// Get retrieves a payload. The second return is false if the key is
	// absent or expired.
	Get(key string) ([]byte, bool)
	// Set stores a payload with the specified TTL.
	Set(key string, value []byte, ttl time.Duration)
	// Delete removes a payload.
	Delete(key string)
	// Stats returns cache statistics.
	Stats() Stats
}

// Stats holds cache performance counters.
type Stats struct {
	Hits        int64 `json:"hits"`
	Misses      int64 `json:"misses"`
	Sets        int64 `json:"sets"`
	Evictions   int64 `json:"evictions"`
	CurrentSize int   `json:"current_size"`
}

type entry struct {
	value      []byte
	expiration time.Time
}

// memoryCache is the in-memory implementation of Cache.
type memoryCache struct {
	mu      sync.RWMutex
	entries map[string]*entry
	stats   Stats
	now     func() time.Time
	janitor *janitor
}

// NewMemory creates an in-memory cache. If cleanupInterval is positive a
// background janitor removes expired entries; call Stop to end it.
func NewMemory(cleanupInterval time.Duration) *Memory {
	return newMemory(cleanupInterval, time.Now)
}

// NewMemoryWithClock is NewMemory with an injected clock, for tests that
// need to step time deterministically.
func NewMemoryWithClock(cleanupInterval time.Duration, now func() time.Time) *Memory {
	return newMemory(cleanupInterval, now)
}

// Memory exports the in-memory cache so owners can stop its janitor.
type Memory struct {
	*memoryCache
}

func newMemory(cleanupInterval time.Duration, now func() time.Time) *Memory {
	c := &memoryCache{
		entries: make(map[string]*entry),
		now:     now,
	}
	if cleanupInterval > 0 {
		c.janitor = &janitor{
			interval: cleanupInterval,
			stop:     make(chan struct{}),
		}
		go c.janitor.run(c)
	}
	return &Memory{c}
}

func (c *memoryCache) expired(e *entry) bool {
	return c.now().After(e.expiration)
}

func (c *memoryCache) Get(key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, found := c.entries[key]
	if !found || c.expired(e) {
		c.stats.Misses++
		return nil, false
	}

	c.stats.Hits++
	return e.value, true
}

func (c *memoryCache) Set(key string, value []byte, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = &entry{
		value:      value,
		expiration: c.now().Add(ttl),
	}
	c.stats.Sets++
}

func (c *memoryCache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

func (c *memoryCache) Stats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	stats := c.stats
	stats.CurrentSize = len(c.entries)
	return stats
}

func (c *memoryCache) deleteExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	count := 0
	for key, e := range c.entries {
		if c.expired(e) {
			delete(c.entries, key)
			count++
		}
	}
	c.stats.Evictions += int64(count)
	return count
}

// Stop ends the background cleanup goroutine.
func (c *memoryCache) Stop() {
	if c.janitor != nil {
		c.janitor.stop <- struct{}{}
	}
}

type janitor struct {
	interval time.Duration
	stop     chan struct{}
}

func (j *janitor) run(c *memoryCache) {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.deleteExpired()
		case <-j.stop:
			return
		}
	}
}
