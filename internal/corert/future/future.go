// Package future implements the runtime's single-assignment result cell,
// concurrent::ActorFuture in the original actor framework. A Future starts
// Pending and moves exactly once to a terminal state (Ok, Err, or
// Cancelled); waiters block on a condition variable, and when-done
// continuations registered before the terminal transition are drained
// outside the lock to avoid lock-order inversion with whatever they touch
// next (typically an Actor's queue).
package future

import (
	"time"

	"github.com/roasbeef/corert/internal/corert/corerterrors"
	"github.com/roasbeef/corert/internal/corert/immutable"
	"sync"
)

// Status is the lifecycle state of a Future.
type Status int

const (
	// Pending means the computation has not completed.
	Pending Status = iota
	// Ok means the computation completed successfully.
	Ok
	// Err means the computation completed with an error.
	Err
	// Cancelled means the Future was cancelled before it completed.
	Cancelled
)

// String implements fmt.Stringer.
func (s Status) String() string {
	switch s {
	case Pending:
		return "pending"
	case Ok:
		return "ok"
	case Err:
		return "err"
	case Cancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// IsComplete reports whether s is any terminal state.
func (s Status) IsComplete() bool { return s != Pending }

// Future is a single-assignment result cell parameterized by its result
// type R. The zero value is not usable; construct with New.
type Future[R any] struct {
	mu   sync.Mutex
	cond *sync.Cond

	status Status
	msg    any
	result R
	errVal error

	// whenDone holds continuations to run, in registration order, exactly
	// once at the terminal transition. Each is a closure so the future
	// package never needs to know about Actor or message types.
	whenDone []func()

	// next is a singly-linked-list link managed through Next/SetNext. The
	// actor package does not use it; its queue links its own node values.
	next *Future[R]
}

// New constructs a Pending Future wrapping msg, the message that will
// produce this Future's eventual result. msg may be nil for futures not
// tied to an actor send (e.g. Future.MakeCompletable in the original API).
func New[R any](msg any) *Future[R] {
	f := &Future[R]{status: Pending, msg: msg}
	f.cond = sync.NewCond(&f.mu)
	return f
}

// Msg returns the originating message, or nil once cancelled.
func (f *Future[R]) Msg() any {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.msg
}

// SetMsg replaces the originating message. Used by an Actor's coalescing
// queue to merge a new send into an already-pending Future for the same
// key.
func (f *Future[R]) SetMsg(msg any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.msg = msg
}

// Next returns the list link last set by SetNext.
func (f *Future[R]) Next() *Future[R] {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.next
}

// SetNext sets the list link.
func (f *Future[R]) SetNext(n *Future[R]) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.next = n
}

// Status returns the current lifecycle state.
func (f *Future[R]) Status() Status {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.status
}

// IsDone reports whether the Future has reached a terminal state.
func (f *Future[R]) IsDone() bool {
	return f.Status().IsComplete()
}

// IsCancelled reports whether the Future was cancelled.
func (f *Future[R]) IsCancelled() bool {
	return f.Status() == Cancelled
}

// Get blocks until the Future reaches a terminal state, then returns the
// result. A nil timeout blocks forever. On an elapsed timeout it fails with
// KindTimeout. On Cancelled it fails with KindCancelled. On Err it re-raises
// the stored error. On Ok it returns the stored value, already coerced to
// immutable by Complete.
func (f *Future[R]) Get(timeout *time.Duration) (R, error) {
	if err := f.block(timeout); err != nil {
		var zero R
		return zero, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	switch f.status {
	case Cancelled:
		var zero R
		return zero, corerterrors.New(corerterrors.KindCancelled, "future cancelled")
	case Err:
		var zero R
		return zero, f.errVal
	default:
		return f.result, nil
	}
}

// WaitFor blocks until the Future reaches a terminal state (or timeout
// elapses) and returns the Future itself, never re-raising the stored
// error/cancellation the way Get does.
func (f *Future[R]) WaitFor(timeout *time.Duration) (*Future[R], error) {
	if err := f.block(timeout); err != nil {
		return f, err
	}
	return f, nil
}

// block waits on the condition variable until terminal or timeout. Returns
// KindTimeout if timeout elapses first.
func (f *Future[R]) block(timeout *time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.status.IsComplete() {
		return nil
	}
	if timeout == nil {
		for !f.status.IsComplete() {
			f.cond.Wait()
		}
		return nil
	}

	deadline := time.Now().Add(*timeout)
	for !f.status.IsComplete() {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return corerterrors.New(corerterrors.KindTimeout, "future.get timed out")
		}
		waitWithTimeout(f.cond, remaining)
	}
	return nil
}

// waitWithTimeout wakes cond.Wait() after at most d, racing a timer against
// the usual Signal/Broadcast; sync.Cond itself has no deadline support.
func waitWithTimeout(cond *sync.Cond, d time.Duration) {
	timer := time.AfterFunc(d, func() {
		cond.L.Lock()
		cond.Broadcast()
		cond.L.Unlock()
	})
	defer timer.Stop()
	cond.Wait()
}

// ErrVal returns the stored failure. In Ok it returns nil. In Err it returns
// the stored error. In Cancelled it returns a fresh Cancelled error. In
// Pending it fails with KindNotComplete.
func (f *Future[R]) ErrVal() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	switch f.status {
	case Ok:
		return nil
	case Err:
		return f.errVal
	case Cancelled:
		return corerterrors.New(corerterrors.KindCancelled, "future cancelled")
	default:
		return corerterrors.New(corerterrors.KindNotComplete, "future is pending")
	}
}

// Cancel transitions a Pending Future to Cancelled. It is idempotent: a
// Future already in a terminal state is left untouched (ok/err never
// becomes cancelled). Clears the originating message and wakes waiters, then
// drains when-done continuations outside the lock.
func (f *Future[R]) Cancel() {
	f.mu.Lock()
	if f.status.IsComplete() {
		f.mu.Unlock()
		return
	}

	f.status = Cancelled
	f.msg = nil
	var zero R
	f.result = zero
	f.cond.Broadcast()
	toDrain := f.whenDone
	f.whenDone = nil
	f.mu.Unlock()

	drain(toDrain)
}

// Complete transitions a Pending Future to Ok with the given value, coerced
// to immutable first. If already Cancelled, this is a silent no-op
// (tolerating the race between a racing cancel and normal completion). If
// already Ok/Err, it fails with KindArg.
func (f *Future[R]) Complete(val R) error {
	immVal, err := immutable.ToImmutable(val)
	if err != nil {
		return err
	}
	coerced, ok := immVal.(R)
	if immVal == nil {
		var zero R
		coerced = zero
	} else if !ok {
		return corerterrors.New(corerterrors.KindNotImmutable,
			"value of type %T has no immutable form of the same type", val)
	}

	f.mu.Lock()
	if f.status == Cancelled {
		f.mu.Unlock()
		return nil
	}
	if f.status.IsComplete() {
		f.mu.Unlock()
		return corerterrors.New(corerterrors.KindArg, "future already complete")
	}

	f.status = Ok
	f.result = coerced
	f.cond.Broadcast()
	toDrain := f.whenDone
	f.whenDone = nil
	f.mu.Unlock()

	drain(toDrain)
	return nil
}

// CompleteErr transitions a Pending Future to Err, symmetric with Complete.
func (f *Future[R]) CompleteErr(cause error) error {
	f.mu.Lock()
	if f.status == Cancelled {
		f.mu.Unlock()
		return nil
	}
	if f.status.IsComplete() {
		f.mu.Unlock()
		return corerterrors.New(corerterrors.KindArg, "future already complete")
	}

	f.status = Err
	f.errVal = cause
	f.cond.Broadcast()
	toDrain := f.whenDone
	f.whenDone = nil
	f.mu.Unlock()

	drain(toDrain)
	return nil
}

// Then is a blocking continuation: it waits for a terminal state, then
// invokes onOk(value) on Ok, or onErr(err) on Err/Cancelled (if onErr is
// non-nil). Because a single method cannot introduce a fresh type
// parameter, the continuation's result is carried as `any` in the returned
// Future.
func (f *Future[R]) Then(
	onOk func(R) (any, error),
	onErr func(error) (any, error),
) *Future[any] {

	result := New[any](nil)

	if _, err := f.WaitFor(nil); err != nil {
		result.CompleteErr(err)
		return result
	}

	f.mu.Lock()
	status := f.status
	val := f.result
	errVal := f.errVal
	f.mu.Unlock()

	var (
		out any
		err error
	)
	switch status {
	case Ok:
		out, err = onOk(val)
	case Err:
		if onErr != nil {
			out, err = onErr(errVal)
		}
	case Cancelled:
		if onErr != nil {
			out, err = onErr(corerterrors.New(corerterrors.KindCancelled, "future cancelled"))
		}
	}

	if err != nil {
		result.CompleteErr(err)
	} else {
		result.Complete(out)
	}
	return result
}

// OnDone registers fn to run exactly once when the Future reaches a
// terminal state: immediately (synchronously, on the calling goroutine) if
// already terminal, otherwise queued to run on whichever goroutine drains
// the when-done list at the terminal transition. This is the primitive
// Actor.sendWhenComplete is built on: fn there is a closure that enqueues a
// continuation Future onto the target actor.
func (f *Future[R]) OnDone(fn func()) {
	f.mu.Lock()
	if f.status.IsComplete() {
		f.mu.Unlock()
		fn()
		return
	}
	f.whenDone = append(f.whenDone, fn)
	f.mu.Unlock()
}

// drain runs each when-done continuation outside of any Future lock,
// preventing lock-order inversion with whatever the continuation touches
// (typically another Actor's queue mutex).
func drain(fns []func()) {
	for _, fn := range fns {
		fn()
	}
}

// WaitForAll blocks on every future in fs until each reaches a terminal
// state. A nil timeout blocks forever; otherwise the same overall deadline
// applies across all futures, matching ActorFuture.wait_for_all's shared
// deadline semantics.
func WaitForAll[R any](fs []*Future[R], timeout *time.Duration) error {
	if timeout == nil {
		for _, f := range fs {
			if _, err := f.WaitFor(nil); err != nil {
				return err
			}
		}
		return nil
	}

	deadline := time.Now().Add(*timeout)
	for _, f := range fs {
		remaining := time.Until(deadline)
		if remaining < 0 {
			remaining = 0
		}
		if _, err := f.WaitFor(&remaining); err != nil {
			return err
		}
	}
	return nil
}
