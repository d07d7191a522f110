package geyser

import "sync"

// handleRegistry maps raw handle values to the native resources that must
// outlive normal texture destruction. Entries are inserted on export or
// import and removed on release; removal of an absent key reports ok=false
// rather than failing, which is what makes release idempotent.
//
// The registry is the only mutable state shared between goroutines inside a
// manager, so it carries the manager's whole locking discipline.
type handleRegistry[T any] struct {
	mu      sync.Mutex
	entries map[uint64]T
}

func newHandleRegistry[T any]() *handleRegistry[T] {
	return &handleRegistry[T]{entries: make(map[uint64]T)}
}

// insert records v under key, replacing any previous entry. A replaced entry
// means the same raw value was exported or imported twice; the registry keeps
// exactly one entry per live value, last writer wins.
func (r *handleRegistry[T]) insert(key uint64, v T) {
	r.mu.Lock()
	r.entries[key] = v
	r.mu.Unlock()
}

// remove deletes and returns the entry for key.
func (r *handleRegistry[T]) remove(key uint64) (T, bool) {
	r.mu.Lock()
	v, ok := r.entries[key]
	if ok {
		delete(r.entries, key)
	}
	r.mu.Unlock()
	return v, ok
}

// get returns the entry for key without removing it.
func (r *handleRegistry[T]) get(key uint64) (T, bool) {
	r.mu.Lock()
	v, ok := r.entries[key]
	r.mu.Unlock()
	return v, ok
}

// drain removes and returns all entries, for manager teardown.
func (r *handleRegistry[T]) drain() map[uint64]T {
	r.mu.Lock()
	out := r.entries
	r.entries = make(map[uint64]T)
	r.mu.Unlock()
	return out
}

func (r *handleRegistry[T]) len() int {
	r.mu.Lock()
	n := len(r.entries)
	r.mu.Unlock()
	return n
}
