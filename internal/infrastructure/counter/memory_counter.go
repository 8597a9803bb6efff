package counter

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	value    int64
	expireAt time.Time
}

// MemoryCounter is the single-process counter used when redis is not configured.
type MemoryCounter struct {
	mu      sync.Mutex
	now     func() time.Time
	entries map[string]memoryEntry
}

func NewMemoryCounter() *MemoryCounter {
	return &MemoryCounter{
		now:     time.Now,
		entries: make(map[string]memoryEntry),
	}
}

func (c *MemoryCounter) Increment(_ context.Context, key string, expireAt time.Time) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	c.sweepLocked(now)

	entry := c.entries[key]
	entry.value++
	entry.expireAt = expireAt
	c.entries[key] = entry
	return entry.value, nil
}

func (c *MemoryCounter) sweepLocked(now time.Time) {
	for key, entry := range c.entries {
		if !entry.expireAt.IsZero() && !now.Before(entry.expireAt) {
			delete(c.entries, key)
		}
	}
}
