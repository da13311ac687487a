package offline

import (
	"net/http"
	"sync"
	"time"
)

// defaultCapacity bounds each named cache
const defaultCapacity = 256

// Entry is a stored response
type Entry struct {
	Status   int
	Header   http.Header
	Body     []byte
	StoredAt time.Time
}

// Cache is a thread-safe least recently used response cache
type Cache struct {
	name     string
	mutex    sync.RWMutex
	capacity int
	items    map[string]*cacheNode
	head     *cacheNode // most recently used
	tail     *cacheNode // least recently used
	hits     int64
	misses   int64
}

type cacheNode struct {
	key   string
	entry *Entry
	prev  *cacheNode
	next  *cacheNode
}

// NewCache creates a cache; a non-positive capacity uses the default
func NewCache(name string, capacity int) *Cache {
	if capacity <= 0 {
		capacity = defaultCapacity
	}

	c := &Cache{
		name:     name,
		capacity: capacity,
		items:    make(map[string]*cacheNode),
	}
	c.head = &cacheNode{}
	c.tail = &cacheNode{}
	c.head.next = c.tail
	c.tail.prev = c.head
	return c
}

// Name returns the cache name
func (c *Cache) Name() string {
	return c.name
}

// Get returns the entry for key and marks it recently used
func (c *Cache) Get(key string) (*Entry, bool) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if node, ok := c.items[key]; ok {
		c.moveToFront(node)
		c.hits++
		return node.entry, true
	}

	c.misses++
	return nil, false
}

// take returns the entry for key without touching the counters when it is
// missing; a present entry counts as a hit
func (c *Cache) take(key string) (*Entry, bool) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	node, ok := c.items[key]
	if !ok {
		return nil, false
	}
	c.moveToFront(node)
	c.hits++
	return node.entry, true
}

// Put adds or replaces the entry for key, evicting the least recently used
// entry when full
func (c *Cache) Put(key string, entry *Entry) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if node, ok := c.items[key]; ok {
		node.entry = entry
		c.moveToFront(node)
		return
	}

	node := &cacheNode{key: key, entry: entry}
	c.addToFront(node)
	c.items[key] = node

	if len(c.items) > c.capacity {
		c.evictLRU()
	}
}

// Remove deletes key from the cache
func (c *Cache) Remove(key string) bool {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if node, ok := c.items[key]; ok {
		c.removeNode(node)
		delete(c.items, key)
		return true
	}
	return false
}

// Len returns the number of entries
func (c *Cache) Len() int {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return len(c.items)
}

// Keys returns the keys from most to least recently used
func (c *Cache) Keys() []string {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	keys := make([]string, 0, len(c.items))
	for n := c.head.next; n != c.tail; n = n.next {
		keys = append(keys, n.key)
	}
	return keys
}

// Stats returns hit and miss counters
func (c *Cache) Stats() CacheStats {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	total := c.hits + c.misses
	hitRate := float64(0)
	if total > 0 {
		hitRate = float64(c.hits) / float64(total) * 100
	}

	return CacheStats{
		Name:     c.name,
		Hits:     c.hits,
		Misses:   c.misses,
		HitRate:  hitRate,
		Size:     len(c.items),
		Capacity: c.capacity,
	}
}

func (c *Cache) moveToFront(node *cacheNode) {
	c.removeNode(node)
	c.addToFront(node)
}

func (c *Cache) addToFront(node *cacheNode) {
	node.prev = c.head
	node.next = c.head.next
	c.head.next.prev = node
	c.head.next = node
}

func (c *Cache) removeNode(node *cacheNode) {
	node.prev.next = node.next
	node.next.prev = node.prev
}

func (c *Cache) evictLRU() {
	lru := c.tail.prev
	if lru != c.head {
		c.removeNode(lru)
		delete(c.items, lru.key)
	}
}

// CacheStats provides statistics about cache performance
type CacheStats struct {
	Name     string  `json:"name"`
	Hits     int64   `json:"hits"`
	Misses   int64   `json:"misses"`
	HitRate  float64 `json:"hit_rate_percent"`
	Size     int     `json:"current_size"`
	Capacity int     `json:"max_capacity"`
}

// Storage holds named caches in creation order
type Storage struct {
	mu       sync.Mutex
	capacity int
	caches   map[string]*Cache
	order    []string
	misses   int64
}

// NewStorage creates an empty cache storage
func NewStorage(capacity int) *Storage {
	return &Storage{
		capacity: capacity,
		caches:   make(map[string]*Cache),
	}
}

// Open returns the named cache, creating it when missing
func (s *Storage) Open(name string) *Cache {
	s.mu.Lock()
	defer s.mu.Unlock()

	if c, ok := s.caches[name]; ok {
		return c
	}
	c := NewCache(name, s.capacity)
	s.caches[name] = c
	s.order = append(s.order, name)
	return c
}

// Has reports whether the named cache exists
func (s *Storage) Has(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.caches[name]
	return ok
}

// Delete removes the named cache
func (s *Storage) Delete(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.caches[name]; !ok {
		return false
	}
	delete(s.caches, name)
	for i, n := range s.order {
		if n == name {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return true
}

// Names returns the cache names in creation order
func (s *Storage) Names() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.order...)
}

// Match looks key up in every cache, oldest cache first. A hit is counted
// on the cache that held the entry; a miss in every cache is counted once
// by the storage.
func (s *Storage) Match(key string) (*Entry, bool) {
	for _, c := range s.snapshot() {
		if e, ok := c.take(key); ok {
			return e, true
		}
	}
	s.mu.Lock()
	s.misses++
	s.mu.Unlock()
	return nil, false
}

// Misses returns the number of Match calls no cache could answer
func (s *Storage) Misses() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.misses
}

// Stats returns statistics for every cache
func (s *Storage) Stats() []CacheStats {
	caches := s.snapshot()
	stats := make([]CacheStats, 0, len(caches))
	for _, c := range caches {
		stats = append(stats, c.Stats())
	}
	return stats
}

func (s *Storage) snapshot() []*Cache {
	s.mu.Lock()
	defer s.mu.Unlock()

	caches := make([]*Cache, 0, len(s.order))
	for _, n := range s.order {
		caches = append(caches, s.caches[n])
	}
	return caches
}
