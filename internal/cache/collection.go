package cache

import "sync"

// Collection holds the last-fetched value of one backend collection in
// fetch order. Reads return copies so callers can never mutate cached state.
type Collection[T any] struct {
	mu     sync.RWMutex
	items  []T
	idOf   func(T) string
	loaded bool
}

func NewCollection[T any](idOf func(T) string) *Collection[T] {
	return &Collection[T]{idOf: idOf}
}

// ReplaceAll swaps the whole collection for items and marks it loaded.
func (c *Collection[T]) ReplaceAll(items []T) {
	next := make([]T, len(items))
	copy(next, items)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = next
	c.loaded = true
}

func (c *Collection[T]) Insert(item T) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = append(c.items, item)
}

// Upsert replaces the item with the same id in place, or appends it.
func (c *Collection[T]) Upsert(item T) {
	id := c.idOf(item)

	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.items {
		if c.idOf(c.items[i]) == id {
			c.items[i] = item
			return
		}
	}
	c.items = append(c.items, item)
}

// UpdateByID applies patch to the item with the given id. Items other than
// the patched one are left untouched. It reports whether an item matched.
func (c *Collection[T]) UpdateByID(id string, patch func(T) T) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.items {
		if c.idOf(c.items[i]) == id {
			c.items[i] = patch(c.items[i])
			return true
		}
	}
	return false
}

func (c *Collection[T]) RemoveByID(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.items {
		if c.idOf(c.items[i]) == id {
			c.items = append(c.items[:i:i], c.items[i+1:]...)
			return true
		}
	}
	return false
}

func (c *Collection[T]) Get(id string) (T, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, it := range c.items {
		if c.idOf(it) == id {
			return it, true
		}
	}
	var zero T
	return zero, false
}

// Find returns the first item matching pred.
func (c *Collection[T]) Find(pred func(T) bool) (T, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, it := range c.items {
		if pred(it) {
			return it, true
		}
	}
	var zero T
	return zero, false
}

func (c *Collection[T]) All() []T {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]T, len(c.items))
	copy(out, c.items)
	return out
}

func (c *Collection[T]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// Loaded reports whether ReplaceAll has run since creation or the last Clear.
func (c *Collection[T]) Loaded() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loaded
}

func (c *Collection[T]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = nil
	c.loaded = false
}
