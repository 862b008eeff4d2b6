package loader

import (
	"context"
	"image"
	"log/slog"
	"sync"

	"golang.org/x/sync/singleflight"
)

// DefaultCacheSize is the number of decoded images a Cache keeps.
const DefaultCacheSize = 32

// Cache wraps a Loader and keeps the most recently used decoded images by
// source. Concurrent misses for the same source share one underlying load.
// Failed loads are not cached.
//
// Cache is safe for concurrent use and must not be copied after creation.
type Cache struct {
	next     Loader
	capacity int
	flight   singleflight.Group

	mu      sync.Mutex
	entries map[string]*lruNode
	lru     lruList
	stats   CacheStats
}

// CacheStats contains cache statistics.
type CacheStats struct {
	Len       int
	Capacity  int
	Hits      uint64
	Misses    uint64
	Evictions uint64
}

// NewCache creates a cache in front of next holding up to capacity images.
// A capacity <= 0 selects DefaultCacheSize.
func NewCache(next Loader, capacity int) *Cache {
	if capacity <= 0 {
		capacity = DefaultCacheSize
	}
	return &Cache{
		next:     next,
		capacity: capacity,
		entries:  make(map[string]*lruNode, capacity),
	}
}

// Load returns the cached image for src or loads it through the wrapped
// loader.
func (c *Cache) Load(ctx context.Context, src string) (image.Image, error) {
	if img, ok := c.get(src); ok {
		return img, nil
	}
	v, err, _ := c.flight.Do(src, func() (any, error) {
		img, err := c.next.Load(ctx, src)
		if err != nil {
			return nil, err
		}
		c.put(src, img)
		return img, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(image.Image), nil
}

// SetLogger forwards l to the wrapped loader if it accepts a logger.
func (c *Cache) SetLogger(l *slog.Logger) {
	if s, ok := c.next.(interface{ SetLogger(*slog.Logger) }); ok {
		s.SetLogger(l)
	}
}

// Forget drops src so that the next Load fetches it again.
func (c *Cache) Forget(src string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	n, ok := c.entries[src]
	if !ok {
		return false
	}
	c.lru.remove(n)
	delete(c.entries, src)
	return true
}

// Purge empties the cache. Statistics are kept.
func (c *Cache) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*lruNode, c.capacity)
	c.lru = lruList{}
}

// Stats returns cache statistics.
func (c *Cache) Stats() CacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.stats
	s.Len = len(c.entries)
	s.Capacity = c.capacity
	return s
}

func (c *Cache) get(src string) (image.Image, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	n, ok := c.entries[src]
	if !ok {
		c.stats.Misses++
		return nil, false
	}
	c.stats.Hits++
	c.lru.moveToFront(n)
	return n.img, true
}

func (c *Cache) put(src string, img image.Image) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if n, ok := c.entries[src]; ok {
		n.img = img
		c.lru.moveToFront(n)
		return
	}
	c.entries[src] = c.lru.pushFront(src, img)
	for len(c.entries) > c.capacity {
		oldest := c.lru.tail
		c.lru.remove(oldest)
		delete(c.entries, oldest.src)
		c.stats.Evictions++
	}
}

// lruNode is a node in a doubly-linked LRU list. It carries its key so
// that eviction can delete the map entry in O(1).
type lruNode struct {
	src  string
	img  image.Image
	prev *lruNode
	next *lruNode
}

// lruList orders nodes from most (head) to least (tail) recently used.
// It is not safe for concurrent use; Cache guards it with its mutex.
type lruList struct {
	head *lruNode
	tail *lruNode
}

func (l *lruList) pushFront(src string, img image.Image) *lruNode {
	n := &lruNode{src: src, img: img}
	l.linkFront(n)
	return n
}

func (l *lruList) moveToFront(n *lruNode) {
	if n == l.head {
		return
	}
	l.remove(n)
	l.linkFront(n)
}

func (l *lruList) linkFront(n *lruNode) {
	n.prev = nil
	n.next = l.head
	if l.head != nil {
		l.head.prev = n
	}
	l.head = n
	if l.tail == nil {
		l.tail = n
	}
}

// remove unlinks n and clears its pointers.
func (l *lruList) remove(n *lruNode) {
	if n.prev != nil {
		n.prev.next = n.next
	} else {
		l.head = n.next
	}
	if n.next != nil {
		n.next.prev = n.prev
	} else {
		l.tail = n.prev
	}
	n.prev = nil
	n.next = nil
}
