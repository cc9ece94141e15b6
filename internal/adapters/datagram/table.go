package datagram

import (
	"sync"

	"github.com/hashicorp/golang-lru/v2/simplelru"
)

// table maps client addresses to their associations. It is bounded; the
// least recently active association is closed to make room for a new one.
type table struct {
	mu  sync.Mutex
	lru *simplelru.LRU[string, *association]
}

func newTable(size int) *table {
	// NewLRU only fails on a non-positive size.
	l, _ := simplelru.NewLRU[string, *association](max(size, 1), func(_ string, a *association) {
		a.close()
	})
	return &table{lru: l}
}

// get returns the association of key, marking it recently used.
func (t *table) get(key string) (*association, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.lru.Get(key)
}

// add stores a, closing any association it replaces or evicts.
// It reports whether an older association was evicted to make room.
func (t *table) add(key string, a *association) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if old, ok := t.lru.Peek(key); ok && old != a {
		t.lru.Remove(key)
	}
	return t.lru.Add(key, a)
}

// remove deletes key if it still maps to a.
func (t *table) remove(key string, a *association) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if cur, ok := t.lru.Peek(key); ok && cur == a {
		t.lru.Remove(key)
	}
}

// purge closes every association.
func (t *table) purge() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.lru.Purge()
}

func (t *table) len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.lru.Len()
}
