// Package cmap implements the runtime's thread-safe keyed map,
// concurrent::ConcurrentMap in the original actor framework: a single mutex
// guarding a plain Go map, with each/eachWhile snapshotting entries under the
// lock before invoking any user callback outside of it (so a callback that
// re-enters the map can never deadlock against the map's own mutex).
package cmap

import (
	"sync"

	"github.com/roasbeef/corert/internal/corert/corerterrors"
	"github.com/roasbeef/corert/internal/corert/immutable"
)

// Map is a thread-safe key/value store. Values stored in it must be
// immutable. The zero value is not usable; construct with New.
type Map struct {
	mu sync.Mutex
	m  map[any]any
}

// New constructs an empty Map. initialCapacity is a sizing hint only,
// matching the original's constructor signature.
func New(initialCapacity int) *Map {
	if initialCapacity < 0 {
		initialCapacity = 0
	}
	return &Map{m: make(map[any]any, initialCapacity)}
}

// IsEmpty reports whether the map has zero entries.
func (cm *Map) IsEmpty() bool {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	return len(cm.m) == 0
}

// Size returns the number of entries.
func (cm *Map) Size() int {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	return len(cm.m)
}

// Get returns the value for key, or nil if unmapped.
func (cm *Map) Get(key any) any {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	return cm.m[key]
}

// Set stores val under key, overwriting any existing entry. val must be
// immutable.
func (cm *Map) Set(key, val any) error {
	if !immutable.IsImmutable(val) {
		return notImmutable()
	}
	cm.mu.Lock()
	defer cm.mu.Unlock()
	cm.m[key] = val
	return nil
}

// GetAndSet stores val under key and returns the previous value (nil if
// unmapped). val must be immutable.
func (cm *Map) GetAndSet(key, val any) (any, error) {
	if !immutable.IsImmutable(val) {
		return nil, notImmutable()
	}
	cm.mu.Lock()
	defer cm.mu.Unlock()
	old := cm.m[key]
	cm.m[key] = val
	return old, nil
}

// Add stores val under key, failing with KindArg if key is already mapped.
// val must be immutable.
func (cm *Map) Add(key, val any) error {
	if !immutable.IsImmutable(val) {
		return notImmutable()
	}
	cm.mu.Lock()
	defer cm.mu.Unlock()
	if _, ok := cm.m[key]; ok {
		return corerterrors.New(corerterrors.KindArg, "key already mapped: %v", key)
	}
	cm.m[key] = val
	return nil
}

// GetOrAdd returns the value for key, inserting defVal first if key is
// unmapped. defVal must be immutable.
func (cm *Map) GetOrAdd(key, defVal any) (any, error) {
	if !immutable.IsImmutable(defVal) {
		return nil, notImmutable()
	}
	cm.mu.Lock()
	defer cm.mu.Unlock()
	if v, ok := cm.m[key]; ok {
		return v, nil
	}
	cm.m[key] = defVal
	return defVal, nil
}

// SetAll copies every entry of other into cm, overwriting on key collision.
func (cm *Map) SetAll(other *Map) *Map {
	entries := other.snapshot()

	cm.mu.Lock()
	defer cm.mu.Unlock()
	for _, e := range entries {
		cm.m[e.key] = e.val
	}
	return cm
}

// Remove deletes key, returning its prior value (nil if unmapped).
func (cm *Map) Remove(key any) any {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	old := cm.m[key]
	delete(cm.m, key)
	return old
}

// Clear removes every entry.
func (cm *Map) Clear() {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	cm.m = make(map[any]any)
}

// ContainsKey reports whether key is mapped.
func (cm *Map) ContainsKey(key any) bool {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	_, ok := cm.m[key]
	return ok
}

// Keys returns a snapshot slice of every mapped key, in no particular
// order.
func (cm *Map) Keys() []any {
	entries := cm.snapshot()
	keys := make([]any, len(entries))
	for i, e := range entries {
		keys[i] = e.key
	}
	return keys
}

// Vals returns a snapshot slice of every mapped value, in no particular
// order.
func (cm *Map) Vals() []any {
	entries := cm.snapshot()
	vals := make([]any, len(entries))
	for i, e := range entries {
		vals[i] = e.val
	}
	return vals
}

// Each invokes fn once per entry. Entries are snapshotted under the lock
// before fn is ever called, so fn may safely call back into cm (e.g. to
// Remove the entry it's visiting) without deadlocking.
func (cm *Map) Each(fn func(key, val any)) {
	for _, e := range cm.snapshot() {
		fn(e.key, e.val)
	}
}

// EachWhile invokes fn once per entry until fn returns a non-nil result,
// which EachWhile then returns immediately. Returns nil if fn never does.
// Like Each, entries are snapshotted before any callback runs.
func (cm *Map) EachWhile(fn func(key, val any) any) any {
	for _, e := range cm.snapshot() {
		if res := fn(e.key, e.val); res != nil {
			return res
		}
	}
	return nil
}

type entry struct {
	key, val any
}

// snapshot copies the current key/value pairs under the lock and returns
// them for lock-free iteration.
func (cm *Map) snapshot() []entry {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	entries := make([]entry, 0, len(cm.m))
	for k, v := range cm.m {
		entries = append(entries, entry{key: k, val: v})
	}
	return entries
}

func notImmutable() error {
	return corerterrors.New(corerterrors.KindNotImmutable, "ConcurrentMap values must be immutable")
}
