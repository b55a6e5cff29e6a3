package cache

import (
	"container/list"
	"time"
)

// LRUCache keeps at most maxSize reports, dropping the least recently read
// one first. An entry older than ttl reads as a miss and is removed.
// Not safe for concurrent use.
type LRUCache[T any] struct {
	maxSize int
	ttl     time.Duration
	byKey   map[string]*list.Element
	order   *list.List // front is most recently used
	now     func() time.Time
}

type entry[T any] struct {
	key     string
	report  T
	expires time.Time
}

func NewLRUCache[T any](maxSize int, ttl time.Duration) *LRUCache[T] {
	return &LRUCache[T]{
		maxSize: maxSize,
		ttl:     ttl,
		byKey:   make(map[string]*list.Element),
		order:   list.New(),
		now:     time.Now,
	}
}

func (c *LRUCache[T]) Get(key string) (T, bool) {
	var zero T
	elem, ok := c.byKey[key]
	if !ok {
		return zero, false
	}
	e := elem.Value.(*entry[T])
	if c.now().After(e.expires) {
		c.drop(elem)
		return zero, false
	}
	c.order.MoveToFront(elem)
	return e.report, true
}

// Set stores report under key, replacing any previous one.
func (c *LRUCache[T]) Set(key string, report T) {
	e := &entry[T]{key: key, report: report, expires: c.now().Add(c.ttl)}
	if elem, ok := c.byKey[key]; ok {
		elem.Value = e
		c.order.MoveToFront(elem)
		return
	}
	c.byKey[key] = c.order.PushFront(e)
	for c.order.Len() > c.maxSize {
		c.drop(c.order.Back())
	}
}

func (c *LRUCache[T]) Clear() {
	clear(c.byKey)
	c.order.Init()
}

func (c *LRUCache[T]) Size() int {
	return len(c.byKey)
}

func (c *LRUCache[T]) drop(elem *list.Element) {
	delete(c.byKey, elem.Value.(*entry[T]).key)
	c.order.Remove(elem)
}
