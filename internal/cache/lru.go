package cache

import (
	"container/list"
	"context"
	"sync"
	"time"
)

// LRUCache is the in-process dashboard cache used when no Redis URL is
// configured. Keys are "<userID>:<YYYY-MM>", one entry per rendered month.
// The working set is small (the current month plus whatever the user pages
// through), so a bounded list with a short TTL is enough; any store change
// purges the whole thing anyway.
type LRUCache[T any] struct {
	mu       sync.Mutex
	capacity int
	ttl      time.Duration
	byKey    map[string]*list.Element
	order    *list.List // front is most recently read or written
	now      func() time.Time
}

type entry[T any] struct {
	key     string
	value   T
	expires time.Time
}

func (e *entry[T]) expiredAt(t time.Time) bool { return t.After(e.expires) }

// NewLRUCache keeps at most capacity months, each for ttl. A capacity below
// one is treated as one.
func NewLRUCache[T any](capacity int, ttl time.Duration) *LRUCache[T] {
	return &LRUCache[T]{
		capacity: max(capacity, 1),
		ttl:      ttl,
		byKey:    make(map[string]*list.Element),
		order:    list.New(),
		now:      time.Now,
	}
}

// Get returns the cached month and marks it recently used. Expired entries
// are dropped on read.
func (c *LRUCache[T]) Get(_ context.Context, key string) (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero T
	el, ok := c.byKey[key]
	if !ok {
		return zero, false
	}
	e := el.Value.(*entry[T])
	if e.expiredAt(c.now()) {
		c.unlink(el)
		return zero, false
	}
	c.order.MoveToFront(el)
	return e.value, true
}

// Set stores value under key with a fresh TTL.
func (c *LRUCache[T]) Set(_ context.Context, key string, value T) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e := &entry[T]{key: key, value: value, expires: c.now().Add(c.ttl)}
	if el, ok := c.byKey[key]; ok {
		el.Value = e
		c.order.MoveToFront(el)
		return
	}
	c.byKey[key] = c.order.PushFront(e)
	for c.order.Len() > c.capacity {
		c.unlink(c.order.Back())
	}
}

func (c *LRUCache[T]) Delete(_ context.Context, key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.byKey[key]; ok {
		c.unlink(el)
	}
}

// Purge drops every month. Called on each store change notification.
func (c *LRUCache[T]) Purge(_ context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	clear(c.byKey)
	c.order.Init()
}

// Sweep drops expired months and reports how many went. The cache Manager
// calls it on its cleanup tick so idle months do not pin memory until the
// next read.
func (c *LRUCache[T]) Sweep() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	n := 0
	for el := c.order.Back(); el != nil; {
		prev := el.Prev()
		if el.Value.(*entry[T]).expiredAt(now) {
			c.unlink(el)
			n++
		}
		el = prev
	}
	return n
}

// Len is the number of months currently held, expired or not.
func (c *LRUCache[T]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

func (c *LRUCache[T]) unlink(el *list.Element) {
	delete(c.byKey, el.Value.(*entry[T]).key)
	c.order.Remove(el)
}
