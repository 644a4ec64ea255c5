package codec

import (
	"fmt"
	"math/big"
	"time"
)

// Kind enumerates the shapes a decoded Value can take.
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindInt
	KindFloat
	KindDecimal
	KindDuration
	KindURI
	KindString
	KindList
	KindMap
	KindComplex
)

// MapEntry is one key/value pair of a decoded Map value. A slice of entries
// is used instead of a Go map since a Value is not a valid Go map key type.
type MapEntry struct {
	Key Value
	Val Value
}

// FieldEntry is one field assignment (`ident = value`) inside a decoded
// complex object.
type FieldEntry struct {
	Name string
	Val  Value
}

// Complex is a decoded type literal, optionally followed by a `{ ... }`
// body of field assignments and/or bare collection items.
type Complex struct {
	Type   string
	Fields []FieldEntry
	Items  []Value
}

// Value is a single decoded (or to-be-encoded) node of the serialization
// grammar. The zero Value is KindNull. Value has no mutating methods, so
// callers should treat every Value (including the List/Map slices it
// holds) as read-only; the decoder itself does not run values through the
// immutable package.
type Value struct {
	Kind Kind

	Bool     bool
	Int      int64
	Float    float64
	Decimal  *big.Rat
	Duration time.Duration
	URI      string
	Str      string

	List    []Value
	Map     []MapEntry
	Complex *Complex
}

// Null is the shared null Value.
var Null = Value{Kind: KindNull}

// NewBool wraps a bool as a Value.
func NewBool(b bool) Value { return Value{Kind: KindBool, Bool: b} }

// NewInt wraps an int64 as a Value.
func NewInt(i int64) Value { return Value{Kind: KindInt, Int: i} }

// NewFloat wraps a float64 as a Value.
func NewFloat(f float64) Value { return Value{Kind: KindFloat, Float: f} }

// NewDecimal wraps a big.Rat as a Value.
func NewDecimal(d *big.Rat) Value { return Value{Kind: KindDecimal, Decimal: d} }

// NewDuration wraps a time.Duration as a Value.
func NewDuration(d time.Duration) Value { return Value{Kind: KindDuration, Duration: d} }

// NewURI wraps a URI literal string as a Value.
func NewURI(u string) Value { return Value{Kind: KindURI, URI: u} }

// NewString wraps a string as a Value.
func NewString(s string) Value { return Value{Kind: KindString, Str: s} }

// NewList wraps a slice of Values as a list Value.
func NewList(items []Value) Value { return Value{Kind: KindList, List: items} }

// NewMap wraps a slice of MapEntry as a map Value.
func NewMap(entries []MapEntry) Value { return Value{Kind: KindMap, Map: entries} }

// NewComplex wraps a Complex as a Value.
func NewComplex(c *Complex) Value { return Value{Kind: KindComplex, Complex: c} }

// ImmutableValue implements immutable.Immutable, letting a decoded Value
// flow directly through Actor.Send/Future.Complete without the generic
// reflect-based immutability check rejecting it (its internal slices are
// never mutated in place by this package).
func (Value) ImmutableValue() {}

// String implements fmt.Stringer for diagnostics; it is not the encoder
// (see Encode for the wire format).
func (v Value) String() string {
	switch v.Kind {
	case KindNull:
		return "null"
	case KindBool:
		return fmt.Sprintf("%t", v.Bool)
	case KindInt:
		return fmt.Sprintf("%d", v.Int)
	case KindFloat:
		return fmt.Sprintf("%g", v.Float)
	case KindDecimal:
		return v.Decimal.RatString()
	case KindDuration:
		return v.Duration.String()
	case KindURI:
		return "`" + v.URI + "`"
	case KindString:
		return v.Str
	case KindList:
		return fmt.Sprintf("list[%d]", len(v.List))
	case KindMap:
		return fmt.Sprintf("map[%d]", len(v.Map))
	case KindComplex:
		return v.Complex.Type
	default:
		return "?"
	}
}
