// Package actor implements the runtime's actor primitive, concurrent::Actor
// in the original framework: a single-threaded-by-construction message
// processor backed by a Pool worker. Each Actor owns a FIFO (optionally
// coalescing) singly-linked queue of pending futures, dispatches at most one
// message at a time, and yields back to the Pool after a configurable time
// budget so no single actor can starve its siblings.
package actor

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/roasbeef/corert/internal/corert/cmap"
	"github.com/roasbeef/corert/internal/corert/corerterrors"
	"github.com/roasbeef/corert/internal/corert/future"
	"github.com/roasbeef/corert/internal/corert/immutable"
	"github.com/roasbeef/corert/internal/corert/pool"
)

// nextOwner hands out Lock.Token identities for actor goroutines, since Go
// has no goroutine-local storage to key a reentrant lock on.
var nextOwner int64

// NewOwnerToken allocates a fresh, process-unique lock owner identity.
func NewOwnerToken() int64 {
	return atomic.AddInt64(&nextOwner, 1)
}

// Receive is the user-supplied message handler. ctx carries the Actor's own
// cancellation (cancelled on Kill); msg is whatever was passed to Send. The
// returned value (coerced to immutable) or error completes the Future
// associated with this message.
type Receive[M, R any] func(ctx context.Context, msg M) (R, error)

// CoalesceKey extracts a coalescing key from a message. Messages with equal
// keys that are still queued (not yet dispatched) are merged: the queued
// Future's message is replaced by the newest Send and no new queue entry is
// added. Deliveries from SendLater and SendWhenComplete always add their own
// entry. A nil CoalesceKey (the default) disables coalescing entirely.
type CoalesceKey[M any] func(msg M) any

// Config configures an Actor at construction time.
type Config[M, R any] struct {
	name     string
	coalesce CoalesceKey[M]
}

// Option configures an Actor.
type Option[M, R any] func(*Config[M, R])

// WithName sets the actor's diagnostic name.
func WithName[M, R any](name string) Option[M, R] {
	return func(c *Config[M, R]) { c.name = name }
}

// WithCoalesce installs a coalescing key function.
func WithCoalesce[M, R any](key CoalesceKey[M]) Option[M, R] {
	return func(c *Config[M, R]) { c.coalesce = key }
}

// node is one entry in the Actor's FIFO queue: a pending Future paired with
// the message that will produce its result and (when coalescing) the key it
// was filed under.
type node[M, R any] struct {
	fut  *future.Future[R]
	msg  M
	key  any
	next *node[M, R]
}

// Actor is a single message processor bound to a Pool. The zero value is
// not usable; construct with New.
type Actor[M, R any] struct {
	id   string
	name string
	p    *pool.Pool
	recv Receive[M, R]

	coalesce CoalesceKey[M]

	owner int64
	locals *cmap.Map

	mu        sync.Mutex
	head      *node[M, R]
	tail      *node[M, R]
	size      int
	submitted bool

	ctx    context.Context
	cancel context.CancelFunc

	sent      atomic.Int64
	received  atomic.Int64
	cancelled atomic.Int64
}

// New constructs an Actor bound to p, dispatching messages to recv.
func New[M, R any](p *pool.Pool, recv Receive[M, R], opts ...Option[M, R]) (*Actor[M, R], error) {
	if p == nil {
		return nil, corerterrors.New(corerterrors.KindArg, "actor requires a non-nil pool")
	}
	if recv == nil {
		return nil, corerterrors.New(corerterrors.KindArg, "actor requires a non-nil Receive func")
	}

	cfg := &Config[M, R]{}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.name == "" {
		cfg.name = "actor-" + uuid.NewString()
	}

	ctx, cancel := context.WithCancel(context.Background())

	a := &Actor[M, R]{
		id:       uuid.NewString(),
		name:     cfg.name,
		p:        p,
		recv:     recv,
		coalesce: cfg.coalesce,
		owner:    NewOwnerToken(),
		locals:   cmap.New(4),
		ctx:      ctx,
		cancel:   cancel,
	}
	return a, nil
}

// ID returns the actor's unique identifier.
func (a *Actor[M, R]) ID() string { return a.id }

// Name returns the actor's diagnostic name.
func (a *Actor[M, R]) Name() string { return a.name }

// Locals returns the actor's thread-confined key/value store, analogous to
// Actor.locals in the original framework. Only the actor's own Receive
// callback should read or write it, since nothing else serializes access to
// the values stored inside (the map itself is thread-safe, but the values'
// mutation order across concurrent senders is not actor-confined).
func (a *Actor[M, R]) Locals() *cmap.Map { return a.locals }

// QueueSize reports the number of futures currently queued and not yet
// taken for dispatch; a message whose Receive is running is not counted.
// Satisfies pool.Balanceable so a slice of Actors can be load-balanced
// with pool.Balance.
func (a *Actor[M, R]) QueueSize() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.size
}

// SentCount returns the number of messages that have reached this actor's
// queue so far, including ones merged by coalescing and ones still queued
// or in flight. A SendLater or SendWhenComplete message counts once it is
// delivered to the queue, not when it is scheduled.
func (a *Actor[M, R]) SentCount() int64 { return a.sent.Load() }

// ReceivedCount returns the number of messages this actor has finished
// dispatching (successfully or not).
func (a *Actor[M, R]) ReceivedCount() int64 { return a.received.Load() }

// Send enqueues msg for dispatch and returns a Future for its eventual
// result. Fails with KindPoolStopped if the pool has been killed or
// stopped, or KindNotImmutable if msg cannot be coerced to an immutable
// value of type M. If the actor's queue is already at the pool's configured
// max depth, the returned Future is failed with KindQueueOverflow instead.
func (a *Actor[M, R]) Send(msg M) (*future.Future[R], error) {
	return a.enqueue(msg, true)
}

// SendLater behaves like Send but defers enqueuing until dur has elapsed,
// using the Pool's Scheduler. If the Scheduler is stopped before the
// deadline, the returned Future is cancelled instead. Per the original
// framework's semantics, an already-elapsed (or negative) duration is still
// routed through the Scheduler rather than enqueued immediately.
func (a *Actor[M, R]) SendLater(dur time.Duration, msg M) (*future.Future[R], error) {
	if a.p.IsKilled() || a.p.IsStopped() {
		return nil, corerterrors.New(corerterrors.KindPoolStopped, "pool is stopped")
	}

	fut := future.New[R](msg)

	a.p.Schedule(dur,
		func() {
			if _, err := a.enqueueFuture(fut, msg, false, true); err != nil {
				fut.CompleteErr(err)
			}
		},
		func() {
			fut.Cancel()
		},
	)
	return fut, nil
}

// SendWhenComplete enqueues msg for dispatch only once dep reaches a
// terminal state, chaining off dep's when-done hook. If dep is cancelled
// or errors, the returned Future is failed/cancelled the same way without
// ever invoking this actor's Receive.
func SendWhenComplete[D, M, R any](a *Actor[M, R], dep *future.Future[D], msg M) *future.Future[R] {
	fut := future.New[R](msg)

	dep.OnDone(func() {
		switch {
		case dep.IsCancelled():
			fut.Cancel()
		default:
			if _, err := dep.Get(nil); err != nil {
				fut.CompleteErr(err)
				return
			}
			if _, err := a.enqueueFuture(fut, msg, false, true); err != nil {
				fut.CompleteErr(err)
			}
		}
	})
	return fut
}

// Kill cancels this actor's context (visible to an in-flight Receive call)
// and cancels every future still queued, without touching the Pool itself.
func (a *Actor[M, R]) Kill() {
	a.cancel()

	a.mu.Lock()
	n := a.head
	a.head, a.tail, a.size = nil, nil, 0
	a.mu.Unlock()

	for ; n != nil; n = n.next {
		n.fut.Cancel()
		a.cancelled.Add(1)
	}
}

// enqueue builds a new Future for msg and enqueues it, applying coalescing
// and max-queue checks.
func (a *Actor[M, R]) enqueue(msg M, checkMaxQueue bool) (*future.Future[R], error) {
	fut := future.New[R](msg)
	return a.enqueueFuture(fut, msg, true, checkMaxQueue)
}

// enqueueFuture implements the two-flag dispatch policy from the original
// _enqueue: coalesce (merge into an existing queued entry with an equal
// key) and checkMaxQueue (once the queue is at the pool's configured cap,
// fail fut with KindQueueOverflow and return it without enqueueing). It
// always first checks whether the pool has been killed or stopped, and
// coerces msg to immutable before it ever reaches the queue.
func (a *Actor[M, R]) enqueueFuture(fut *future.Future[R], msg M, coalesce, checkMaxQueue bool) (*future.Future[R], error) {
	if a.p.IsKilled() || a.p.IsStopped() {
		return nil, corerterrors.New(corerterrors.KindPoolStopped, "pool is stopped")
	}

	immMsg, err := immutable.ToImmutable(msg)
	if err != nil {
		return nil, err
	}
	coerced, ok := immMsg.(M)
	if immMsg == nil {
		var zero M
		coerced = zero
	} else if !ok {
		return nil, corerterrors.New(corerterrors.KindNotImmutable,
			"message of type %T has no immutable form of the same type", msg)
	}
	msg = coerced

	a.mu.Lock()

	if a.coalesce != nil {
		key := a.coalesce(msg)
		for n := a.head; coalesce && n != nil; n = n.next {
			if n.key == key {
				n.msg = msg
				n.fut.SetMsg(msg)
				a.mu.Unlock()
				a.sent.Add(1)
				return n.fut, nil
			}
		}
		n := &node[M, R]{fut: fut, msg: msg, key: key}
		if err := a.appendLocked(n, checkMaxQueue); err != nil {
			a.mu.Unlock()
			fut.CompleteErr(err)
			return fut, nil
		}
	} else {
		n := &node[M, R]{fut: fut, msg: msg}
		if err := a.appendLocked(n, checkMaxQueue); err != nil {
			a.mu.Unlock()
			fut.CompleteErr(err)
			return fut, nil
		}
	}

	submit := !a.submitted
	if submit {
		a.submitted = true
	}
	a.mu.Unlock()

	a.sent.Add(1)

	if submit {
		a.p.Submit(a)
	}
	return fut, nil
}

// appendLocked appends n to the tail of the queue, subject to the max-queue
// check. Must be called with a.mu held.
func (a *Actor[M, R]) appendLocked(n *node[M, R], checkMaxQueue bool) error {
	if checkMaxQueue && a.size >= a.p.MaxQueue() {
		return corerterrors.New(corerterrors.KindQueueOverflow,
			"actor %q queue is full (max %d)", a.name, a.p.MaxQueue())
	}

	if a.tail == nil {
		a.head, a.tail = n, n
	} else {
		a.tail.next = n
		a.tail = n
	}
	a.size++
	return nil
}

// RunBatch implements pool.Runnable. It dispatches queued messages one at a
// time until the queue drains or the configured yield-time budget elapses,
// re-submitting itself to the Pool in the latter case so other actors get a
// turn.
func (a *Actor[M, R]) RunBatch() {
	deadline := time.Now().Add(a.p.MaxTimeBeforeYield())

	for {
		a.mu.Lock()
		n := a.head
		if n == nil {
			a.submitted = false
			a.mu.Unlock()
			return
		}
		a.head = n.next
		if a.head == nil {
			a.tail = nil
		}
		a.size--
		a.mu.Unlock()

		a.dispatch(n)

		if time.Now().After(deadline) {
			a.mu.Lock()
			yieldNeeded := a.head != nil
			a.mu.Unlock()
			if yieldNeeded {
				a.p.Submit(a)
				return
			}
		}
	}
}

// dispatch runs one queued node's Receive call, recovering from a panicking
// handler the same way the original framework logs-and-fails rather than
// crashing the worker thread.
func (a *Actor[M, R]) dispatch(n *node[M, R]) {
	defer a.received.Add(1)

	if a.p.IsKilled() {
		n.fut.Cancel()
		a.cancelled.Add(1)
		return
	}

	if err := a.ctx.Err(); err != nil {
		n.fut.Cancel()
		a.cancelled.Add(1)
		return
	}

	result, err := a.safeReceive(n.msg)
	if err != nil {
		log.ErrorS(a.ctx, "actor receive failed", "actor", a.name, "err", err)
		n.fut.CompleteErr(err)
		return
	}
	if err := n.fut.Complete(result); err != nil {
		log.ErrorS(a.ctx, "actor future complete failed", "actor", a.name, "err", err)
	}
}

func (a *Actor[M, R]) safeReceive(msg M) (res R, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = corerterrors.New(corerterrors.KindArg, "actor %q receive panicked: %v", a.name, r)
		}
	}()
	return a.recv(a.ctx, msg)
}

// String implements fmt.Stringer for diagnostics.
func (a *Actor[M, R]) String() string {
	return fmt.Sprintf("Actor{name=%s id=%s queue=%d}", a.name, a.id, a.QueueSize())
}
