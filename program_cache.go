package autosplit

import "sync"

// MemoryProgramCache is a ProgramCache kept in memory. Entries beyond the
// limit evict the oldest insertion.
type MemoryProgramCache struct {
	mu      sync.Mutex
	limit   int
	order   []string
	entries map[string]any
}

// NewMemoryProgramCache returns a cache holding at most limit programs. A
// limit of zero or less keeps every program.
func NewMemoryProgramCache(limit int) *MemoryProgramCache {
	return &MemoryProgramCache{
		limit:   limit,
		entries: make(map[string]any),
	}
}

func (c *MemoryProgramCache) Get(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	value, ok := c.entries[key]
	return value, ok
}

func (c *MemoryProgramCache) Set(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.entries[key]; !exists {
		c.order = append(c.order, key)
	}
	c.entries[key] = value
	for c.limit > 0 && len(c.order) > c.limit {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.entries, oldest)
	}
}

// Len returns the number of cached programs.
func (c *MemoryProgramCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
