package keylock

import (
	"sort"
	"sync"
)

type entry struct {
	mu   sync.Mutex
	refs int
}

// KeyedMutex provides mutual exclusion scoped to string keys. Different
// keys lock independently; entries are dropped once the last holder
// releases them, so the map does not grow with the key space.
type KeyedMutex struct {
	mu      sync.Mutex
	entries map[string]*entry
}

func New() *KeyedMutex {
	return &KeyedMutex{entries: make(map[string]*entry)}
}

func (k *KeyedMutex) Lock(key string) {
	k.mu.Lock()
	e, ok := k.entries[key]
	if !ok {
		e = &entry{}
		k.entries[key] = e
	}
	e.refs++
	k.mu.Unlock()

	e.mu.Lock()
}

func (k *KeyedMutex) Unlock(key string) {
	k.mu.Lock()
	e, ok := k.entries[key]
	if !ok {
		k.mu.Unlock()
		panic("keylock: unlock of unlocked key " + key)
	}
	e.refs--
	if e.refs == 0 {
		delete(k.entries, key)
	}
	k.mu.Unlock()

	e.mu.Unlock()
}

// LockKeys acquires every distinct key in sorted order, so callers that
// need several keys at once cannot deadlock against each other.
func (k *KeyedMutex) LockKeys(keys ...string) {
	for _, key := range dedupeSorted(keys) {
		k.Lock(key)
	}
}

func (k *KeyedMutex) UnlockKeys(keys ...string) {
	for _, key := range dedupeSorted(keys) {
		k.Unlock(key)
	}
}

func dedupeSorted(keys []string) []string {
	sorted := make([]string, len(keys))
	copy(sorted, keys)
	sort.Strings(sorted)
	result := sorted[:0]
	for i, key := range sorted {
		if i == 0 || sorted[i-1] != key {
			result = append(result, key)
		}
	}
	return result
}
