package tokens

import (
	"sync"

	"github.com/a3tai/mcp-doc-viewer/internal/document"
)

// DefaultCacheSize is the number of token lists kept when no size is given
const DefaultCacheSize = 100

// Cache is a thread-safe least recently used cache of token lists keyed by
// URL. Token files are immutable, so entries never expire; they are only
// evicted for space.
type Cache struct {
	mutex    sync.RWMutex
	capacity int
	items    map[string]*cacheNode
	head     *cacheNode // most recently used
	tail     *cacheNode // least recently used
	hits     int64
	misses   int64
}

type cacheNode struct {
	key    string
	tokens []document.Token
	prev   *cacheNode
	next   *cacheNode
}

// NewCache creates a cache holding at most capacity token lists
func NewCache(capacity int) *Cache {
	if capacity <= 0 {
		capacity = DefaultCacheSize
	}

	c := &Cache{
		capacity: capacity,
		items:    make(map[string]*cacheNode),
		head:     &cacheNode{},
		tail:     &cacheNode{},
	}
	c.head.next = c.tail
	c.tail.prev = c.head

	return c
}

// Get returns the cached tokens for url and marks them as recently used
func (c *Cache) Get(url string) ([]document.Token, bool) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if node, ok := c.items[url]; ok {
		c.moveToFront(node)
		c.hits++
		return node.tokens, true
	}

	c.misses++
	return nil, false
}

// Put stores tokens for url, evicting the least recently used entry when full
func (c *Cache) Put(url string, tokens []document.Token) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if node, ok := c.items[url]; ok {
		node.tokens = tokens
		c.moveToFront(node)
		return
	}

	node := &cacheNode{key: url, tokens: tokens}
	c.addToFront(node)
	c.items[url] = node

	if len(c.items) > c.capacity {
		lru := c.tail.prev
		c.removeNode(lru)
		delete(c.items, lru.key)
	}
}

// Len returns the number of cached token lists
func (c *Cache) Len() int {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return len(c.items)
}

// Keys returns cached URLs from most to least recently used
func (c *Cache) Keys() []string {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	keys := make([]string, 0, len(c.items))
	for n := c.head.next; n != c.tail; n = n.next {
		keys = append(keys, n.key)
	}
	return keys
}

// Stats returns hit/miss counters
func (c *Cache) Stats() CacheStats {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	var hitRate float64
	if total := c.hits + c.misses; total > 0 {
		hitRate = float64(c.hits) / float64(total) * 100
	}

	return CacheStats{
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

// CacheStats describes cache effectiveness
type CacheStats struct {
	Hits     int64   `json:"hits"`
	Misses   int64   `json:"misses"`
	HitRate  float64 `json:"hit_rate_percent"`
	Size     int     `json:"current_size"`
	Capacity int     `json:"max_capacity"`
}
