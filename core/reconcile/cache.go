package reconcile

import "sync"

// Index is a read-mostly lookup table shared between concurrent reconcilers.
// Replace swaps the whole table at once so readers never observe a partial load.
type Index[K comparable, V any] struct {
	mu      sync.RWMutex
	entries map[K]V
}

// NewIndex creates an empty index.
func NewIndex[K comparable, V any]() *Index[K, V] {
	return &Index[K, V]{entries: make(map[K]V)}
}

// Get returns the entry stored under key.
func (i *Index[K, V]) Get(key K) (V, bool) {
	i.mu.RLock()
	v, ok := i.entries[key]
	i.mu.RUnlock()
	return v, ok
}

// Put stores a single entry.
func (i *Index[K, V]) Put(key K, value V) {
	i.mu.Lock()
	i.entries[key] = value
	i.mu.Unlock()
}

// Replace installs a fully built table. The index takes ownership of entries.
func (i *Index[K, V]) Replace(entries map[K]V) {
	if entries == nil {
		entries = make(map[K]V)
	}
	i.mu.Lock()
	i.entries = entries
	i.mu.Unlock()
}

// Len returns the number of entries.
func (i *Index[K, V]) Len() int {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return len(i.entries)
}
