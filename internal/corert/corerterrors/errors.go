// Package corerterrors defines the typed error taxonomy shared by every
// component of the concurrency runtime. Every failure that crosses a public
// API boundary is a *Error carrying one of the Kind values below, so callers
// can branch with errors.Is against the sentinel of the kind they care about
// instead of string-matching messages.
package corerterrors

import "fmt"

// Kind identifies the category of a runtime error. Kind values are never
// exposed as Go error types directly; they are always wrapped in an *Error.
type Kind uint8

const (
	// KindArg marks an invalid argument: bad configuration, an empty actor
	// list passed to balance, or a future of the wrong concrete type passed
	// to sendWhenComplete.
	KindArg Kind = iota

	// KindNotImmutable marks an attempt to cross an immutability boundary
	// (send, Future.complete, atomic ref/map store) with a mutable value.
	KindNotImmutable

	// KindQueueOverflow marks an actor queue that would exceed maxQueue.
	// Always surfaced through the caller's Future, never thrown out of
	// send.
	KindQueueOverflow

	// KindCancelled marks a Future observed after cancellation.
	KindCancelled

	// KindNotComplete marks Future.err() observed before a terminal state.
	KindNotComplete

	// KindTimeout marks an elapsed Future.get(timeout) or Pool.join(timeout).
	KindTimeout

	// KindParse marks malformed or semantically invalid serialization
	// input.
	KindParse

	// KindIO marks an underlying stream failure during serialization.
	KindIO

	// KindPoolStopped marks a send* call against a pool that is stopping or
	// done.
	KindPoolStopped
)

// String returns the human-readable name of the kind.
func (k Kind) String() string {
	switch k {
	case KindArg:
		return "Arg"
	case KindNotImmutable:
		return "NotImmutable"
	case KindQueueOverflow:
		return "QueueOverflow"
	case KindCancelled:
		return "Cancelled"
	case KindNotComplete:
		return "NotComplete"
	case KindTimeout:
		return "Timeout"
	case KindParse:
		return "Parse"
	case KindIO:
		return "IO"
	case KindPoolStopped:
		return "PoolStopped"
	default:
		return "Unknown"
	}
}

// Error is the concrete error type raised by every corert component. It
// pairs a Kind with a message and an optional wrapped cause.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap exposes the wrapped cause, if any, to errors.Is/errors.As.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target is a *Error of the same Kind, enabling
// errors.Is(err, corerterrors.New(KindTimeout, "")) style checks against the
// sentinels below.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// New constructs an *Error of the given kind with a formatted message.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap constructs an *Error of the given kind wrapping cause.
func Wrap(kind Kind, cause error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// Sentinels usable with errors.Is to test a Kind without caring about the
// message, e.g. errors.Is(err, corerterrors.ErrTimeout).
var (
	ErrArg           = &Error{Kind: KindArg}
	ErrNotImmutable  = &Error{Kind: KindNotImmutable}
	ErrQueueOverflow = &Error{Kind: KindQueueOverflow}
	ErrCancelled     = &Error{Kind: KindCancelled}
	ErrNotComplete   = &Error{Kind: KindNotComplete}
	ErrTimeout       = &Error{Kind: KindTimeout}
	ErrParse         = &Error{Kind: KindParse}
	ErrIO            = &Error{Kind: KindIO}
	ErrPoolStopped   = &Error{Kind: KindPoolStopped}
)

// Is reports whether err is a *Error carrying the given kind.
func Is(err error, kind Kind) bool {
	e, ok := err.(*Error)
	if !ok {
		return false
	}
	return e.Kind == kind
}
