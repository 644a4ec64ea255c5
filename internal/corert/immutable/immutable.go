// Package immutable implements the runtime's mutable-vs-immutable value
// predicate and deep-freeze coercion. Every boundary crossing in the actor
// core (send*, Future.complete, atomic ref/map stores) routes through
// IsImmutable/ToImmutable, mirroring the role fan.sys.ObjUtil.is_immutable /
// to_immutable play for the original actor framework.
package immutable

import (
	"reflect"

	"github.com/roasbeef/corert/internal/corert/corerterrors"
)

// Immutable is implemented by any value that can assert its own
// immutability, bypassing the kind-based heuristics below. Value objects
// that wrap non-comparable internals (e.g. a pre-frozen slice) should
// implement this directly rather than relying on reflection.
type Immutable interface {
	// ImmutableValue is a marker method; its existence is what is tested
	// for, not its return value.
	ImmutableValue()
}

// Unsafe is a single-field wrapper whose sole purpose is to smuggle a
// mutable reference across an API that requires immutability. The runtime
// never inspects its contents; IsImmutable always reports true for an
// Unsafe, and ToImmutable passes it through unchanged.
type Unsafe struct {
	Value any
}

// ImmutableValue implements Immutable.
func (Unsafe) ImmutableValue() {}

// IsImmutable reports whether v is of a known immutable kind: nil, a
// primitive numeric/string/bool kind, an Unsafe wrapper, a value that
// implements Immutable, or an array or struct whose elements are all
// immutable (unexported struct fields are not inspected). Pointers, maps,
// slices, channels, and funcs (outside of Unsafe) are considered mutable,
// matching the original runtime's conservative kind test.
func IsImmutable(v any) bool {
	if v == nil {
		return true
	}
	if _, ok := v.(Immutable); ok {
		return true
	}

	switch rv := reflect.ValueOf(v); rv.Kind() {
	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64,
		reflect.String,
		reflect.Complex64, reflect.Complex128:

		return true

	case reflect.Array:
		for i := 0; i < rv.Len(); i++ {
			if !IsImmutable(rv.Index(i).Interface()) {
				return false
			}
		}
		return true

	case reflect.Struct:
		for i := 0; i < rv.NumField(); i++ {
			field := rv.Field(i)
			if !field.CanInterface() {
				continue
			}
			if !IsImmutable(field.Interface()) {
				return false
			}
		}
		return true

	default:
		return false
	}
}

// ToImmutable coerces v into an immutable value, deep-copying any mutable
// collection (slice or map) into a frozen equivalent. It fails with
// KindNotImmutable when v cannot be made safe to share across actors (e.g. a
// pointer, channel, or func that isn't wrapped in an Unsafe).
func ToImmutable(v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	if IsImmutable(v) {
		return v, nil
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice:
		frozen := make([]any, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			elem, err := ToImmutable(rv.Index(i).Interface())
			if err != nil {
				return nil, err
			}
			frozen[i] = elem
		}
		return FrozenList(frozen), nil

	case reflect.Map:
		frozen := make(map[any]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			key, err := ToImmutable(iter.Key().Interface())
			if err != nil {
				return nil, err
			}
			val, err := ToImmutable(iter.Value().Interface())
			if err != nil {
				return nil, err
			}
			frozen[key] = val
		}
		return FrozenMap(frozen), nil

	default:
		return nil, corerterrors.New(
			corerterrors.KindNotImmutable,
			"value of type %T is not immutable and cannot be coerced", v,
		)
	}
}

// MustImmutable is ToImmutable's panic-on-failure counterpart, used by
// internal call sites that have already validated their input (e.g. after an
// earlier IsImmutable check under the same lock).
func MustImmutable(v any) any {
	out, err := ToImmutable(v)
	if err != nil {
		panic(err)
	}
	return out
}

// FrozenList is the deep-frozen equivalent of a user-supplied slice,
// produced by ToImmutable. Its elements are themselves immutable.
type FrozenList []any

// ImmutableValue implements Immutable.
func (FrozenList) ImmutableValue() {}

// FrozenMap is the deep-frozen equivalent of a user-supplied map, produced
// by ToImmutable. Its keys and values are themselves immutable.
type FrozenMap map[any]any

// ImmutableValue implements Immutable.
func (FrozenMap) ImmutableValue() {}
