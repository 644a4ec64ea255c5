// Package atomiccell implements the three lock-backed atomic cells of the
// concurrency runtime: AtomicBool, AtomicInt, and AtomicRef. The contract is
// atomicity, not lock-freedom — each cell protects its value with a mutex,
// the same strategy the original concurrent::AtomicBool/AtomicInt/AtomicRef
// runtime classes use (a threading.Lock guarding a single Python attribute).
package atomiccell

import (
	"reflect"
	"sync"

	"github.com/roasbeef/corert/internal/corert/corerterrors"
	"github.com/roasbeef/corert/internal/corert/immutable"
)

// Bool is a lock-backed atomic boolean cell.
type Bool struct {
	mu  sync.Mutex
	val bool
}

// NewBool constructs a Bool cell with the given initial value.
func NewBool(val bool) *Bool {
	return &Bool{val: val}
}

// Get returns the current value.
func (b *Bool) Get() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.val
}

// Set stores a new value unconditionally.
func (b *Bool) Set(val bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.val = val
}

// GetAndSet atomically stores val and returns the previous value.
func (b *Bool) GetAndSet(val bool) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	old := b.val
	b.val = val
	return old
}

// CompareAndSet atomically stores update if the current value equals
// expect, reporting whether the swap happened.
func (b *Bool) CompareAndSet(expect, update bool) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.val != expect {
		return false
	}
	b.val = update
	return true
}

// Int is a lock-backed atomic integer cell.
type Int struct {
	mu  sync.Mutex
	val int64
}

// NewInt constructs an Int cell with the given initial value.
func NewInt(val int64) *Int {
	return &Int{val: val}
}

// Get returns the current value.
func (i *Int) Get() int64 {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.val
}

// Set stores a new value unconditionally.
func (i *Int) Set(val int64) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.val = val
}

// GetAndSet atomically stores val and returns the previous value.
func (i *Int) GetAndSet(val int64) int64 {
	i.mu.Lock()
	defer i.mu.Unlock()
	old := i.val
	i.val = val
	return old
}

// CompareAndSet atomically stores update if the current value equals
// expect, reporting whether the swap happened.
func (i *Int) CompareAndSet(expect, update int64) bool {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.val != expect {
		return false
	}
	i.val = update
	return true
}

// GetAndIncrement atomically increments the value and returns the value
// observed before incrementing.
func (i *Int) GetAndIncrement() int64 {
	return i.GetAndAdd(1)
}

// GetAndDecrement atomically decrements the value and returns the value
// observed before decrementing.
func (i *Int) GetAndDecrement() int64 {
	return i.GetAndAdd(-1)
}

// GetAndAdd atomically adds delta and returns the value observed before
// adding.
func (i *Int) GetAndAdd(delta int64) int64 {
	i.mu.Lock()
	defer i.mu.Unlock()
	old := i.val
	i.val += delta
	return old
}

// IncrementAndGet atomically increments the value and returns the new
// value.
func (i *Int) IncrementAndGet() int64 {
	return i.AddAndGet(1)
}

// DecrementAndGet atomically decrements the value and returns the new
// value.
func (i *Int) DecrementAndGet() int64 {
	return i.AddAndGet(-1)
}

// AddAndGet atomically adds delta and returns the new value.
func (i *Int) AddAndGet(delta int64) int64 {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.val += delta
	return i.val
}

// Increment atomically increments the value, discarding the result.
func (i *Int) Increment() {
	i.AddAndGet(1)
}

// Decrement atomically decrements the value, discarding the result.
func (i *Int) Decrement() {
	i.AddAndGet(-1)
}

// Add atomically adds delta, discarding the result.
func (i *Int) Add(delta int64) {
	i.AddAndGet(delta)
}

// Ref is a lock-backed atomic reference cell. Stored values must be
// immutable; attempting to store a mutable value fails with
// corerterrors.KindNotImmutable, returned as an error by NewRef and by each
// storing method below.
type Ref struct {
	mu  sync.Mutex
	val any
}

// NewRef constructs a Ref cell with the given initial value, which must
// already be immutable (nil is always permitted).
func NewRef(val any) (*Ref, error) {
	if val != nil && !immutable.IsImmutable(val) {
		return nil, notImmutable()
	}
	return &Ref{val: val}, nil
}

// Get returns the current value.
func (r *Ref) Get() any {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.val
}

// Set stores a new value unconditionally. val must be immutable.
func (r *Ref) Set(val any) error {
	if val != nil && !immutable.IsImmutable(val) {
		return notImmutable()
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.val = val
	return nil
}

// GetAndSet atomically stores val and returns the previous value. val must
// be immutable.
func (r *Ref) GetAndSet(val any) (any, error) {
	if val != nil && !immutable.IsImmutable(val) {
		return nil, notImmutable()
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	old := r.val
	r.val = val
	return old, nil
}

// CompareAndSet atomically stores update if the current value matches
// expect, reporting whether the swap happened. update must be immutable.
//
// Matching the source runtime's "identity or equality" comparison (resolved
// as an open question in DESIGN.md): two values match if they are the same
// object (pointer identity, when the stored kind is a pointer/reference
// type) or if reflect.DeepEqual reports them equal.
func (r *Ref) CompareAndSet(expect, update any) (bool, error) {
	if update != nil && !immutable.IsImmutable(update) {
		return false, notImmutable()
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if !refsMatch(r.val, expect) {
		return false, nil
	}
	r.val = update
	return true, nil
}

// refsMatch implements the "identity OR equality" comparison used by
// CompareAndSet.
func refsMatch(current, expect any) bool {
	if current == nil || expect == nil {
		return current == expect
	}

	cv := reflect.ValueOf(current)
	ev := reflect.ValueOf(expect)
	if cv.Kind() == ev.Kind() {
		switch cv.Kind() {
		case reflect.Ptr, reflect.Chan, reflect.Func, reflect.UnsafePointer:
			if cv.Pointer() == ev.Pointer() {
				return true
			}
		}
	}

	return reflect.DeepEqual(current, expect)
}

func notImmutable() error {
	return corerterrors.New(corerterrors.KindNotImmutable, "AtomicRef value is not immutable")
}
