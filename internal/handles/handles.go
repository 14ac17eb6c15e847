// Package handles maps Go objects to integer IDs that can travel through C
// memory, such as the opaque pointer handed to AVIO callbacks. Go pointers
// must not be stored in C memory, the IDs can.
package handles

import "sync"

// Table is a registry of live objects of one type. The zero value is ready
// to use. Safe for concurrent use.
type Table[T any] struct {
	mu     sync.RWMutex
	items  map[uintptr]T
	nextID uintptr
}

// Register stores v and returns its non-zero ID. v stays reachable until
// Unregister is called.
func (t *Table[T]) Register(v T) uintptr {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.items == nil {
		t.items = make(map[uintptr]T)
	}
	t.nextID++
	t.items[t.nextID] = v
	return t.nextID
}

// Lookup returns the object registered under id.
func (t *Table[T]) Lookup(id uintptr) (T, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	v, ok := t.items[id]
	return v, ok
}

// Unregister forgets id. Unknown IDs are ignored.
func (t *Table[T]) Unregister(id uintptr) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.items, id)
}

// Len returns the number of registered objects.
func (t *Table[T]) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.items)
}
