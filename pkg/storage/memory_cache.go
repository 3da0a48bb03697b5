package storage

import (
	"container/list"
	"sync"
	"time"

	"kwcluster/pkg/keyword"
)

// cacheItem represents an item in the cache
type cacheItem struct {
	key       TableKey
	table     *keyword.Table
	timestamp time.Time
	element   *list.Element
}

// MemoryCache implements an LRU table cache with TTL support
type MemoryCache struct {
	maxSize int
	items   map[TableKey]*cacheItem
	lruList *list.List
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time

	hits   uint64
	misses uint64

	stop     chan struct{}
	stopOnce sync.Once
}

// NewMemoryCache creates a new in-memory cache with specified size
func NewMemoryCache(maxSize int) *MemoryCache {
	return NewMemoryCacheWithTTL(maxSize, 0) // No TTL by default
}

// NewMemoryCacheWithTTL creates a new in-memory cache with TTL
func NewMemoryCacheWithTTL(maxSize int, ttl time.Duration) *MemoryCache {
	if maxSize <= 0 {
		maxSize = 1
	}
	cache := &MemoryCache{
		maxSize: maxSize,
		items:   make(map[TableKey]*cacheItem),
		lruList: list.New(),
		ttl:     ttl,
		now:     time.Now,
		stop:    make(chan struct{}),
	}

	// Start cleanup routine if TTL is enabled
	if ttl > 0 {
		go cache.cleanupRoutine()
	}

	return cache
}

// Set adds or updates a table in the cache
func (mc *MemoryCache) Set(key TableKey, table *keyword.Table) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	now := mc.now()

	if item, exists := mc.items[key]; exists {
		item.table = table
		item.timestamp = now
		mc.lruList.MoveToFront(item.element)
		return
	}

	item := &cacheItem{
		key:       key,
		table:     table,
		timestamp: now,
	}
	item.element = mc.lruList.PushFront(item)
	mc.items[key] = item

	// Evict oldest items if cache is full
	for len(mc.items) > mc.maxSize {
		mc.evictOldest()
	}
}

// Get retrieves a table from the cache
func (mc *MemoryCache) Get(key TableKey) (*keyword.Table, bool) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	item, exists := mc.items[key]
	if !exists {
		mc.misses++
		return nil, false
	}

	if mc.expired(item) {
		mc.deleteItem(item)
		mc.misses++
		return nil, false
	}

	// Move to front (mark as recently used)
	mc.lruList.MoveToFront(item.element)
	mc.hits++

	return item.table, true
}

// Clear removes all items from the cache
func (mc *MemoryCache) Clear() {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	mc.items = make(map[TableKey]*cacheItem)
	mc.lruList = list.New()
}

// Close stops the cleanup routine
func (mc *MemoryCache) Close() {
	mc.stopOnce.Do(func() { close(mc.stop) })
}

// Stats returns cache statistics
func (mc *MemoryCache) Stats() CacheStats {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	return CacheStats{
		Size:    len(mc.items),
		MaxSize: mc.maxSize,
		TTL:     mc.ttl,
		Hits:    mc.hits,
		Misses:  mc.misses,
	}
}

func (mc *MemoryCache) expired(item *cacheItem) bool {
	return mc.ttl > 0 && mc.now().Sub(item.timestamp) > mc.ttl
}

// evictOldest removes the least recently used item
func (mc *MemoryCache) evictOldest() {
	element := mc.lruList.Back()
	if element != nil {
		mc.deleteItem(element.Value.(*cacheItem))
	}
}

// deleteItem removes an item from both map and list
func (mc *MemoryCache) deleteItem(item *cacheItem) {
	delete(mc.items, item.key)
	mc.lruList.Remove(item.element)
}

// cleanupRoutine periodically removes expired items
func (mc *MemoryCache) cleanupRoutine() {
	ticker := time.NewTicker(mc.ttl / 2) // Cleanup every half TTL
	defer ticker.Stop()

	for {
		select {
		case <-mc.stop:
			return
		case <-ticker.C:
			mc.cleanupExpired()
		}
	}
}

// cleanupExpired removes all expired items
func (mc *MemoryCache) cleanupExpired() {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	var expiredItems []*cacheItem
	for _, item := range mc.items {
		if mc.expired(item) {
			expiredItems = append(expiredItems, item)
		}
	}

	for _, item := range expiredItems {
		mc.deleteItem(item)
	}
}

// CacheStats represents cache statistics
type CacheStats struct {
	Size    int           `json:"size"`
	MaxSize int           `json:"max_size"`
	TTL     time.Duration `json:"ttl"`
	Hits    uint64        `json:"hits"`
	Misses  uint64        `json:"misses"`
}

// NoopCache never stores anything; the analyzer uses it when caching is disabled.
type NoopCache struct{}

func (NoopCache) Get(TableKey) (*keyword.Table, bool) { return nil, false }
func (NoopCache) Set(TableKey, *keyword.Table)        {}
func (NoopCache) Clear()                              {}
func (NoopCache) Stats() CacheStats                   { return CacheStats{} }
