// Package pool implements the runtime's bounded worker pool,
// concurrent::ActorPool in the original actor framework: a fixed-size
// goroutine worker set that actors submit themselves onto, plus the
// lifecycle state machine (running -> stopping -> done) and an embedded
// Scheduler for sendLater support.
package pool

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/lightningnetwork/lnd/fn/v2"

	"github.com/roasbeef/corert/internal/corert/corerterrors"
	"github.com/roasbeef/corert/internal/corert/sched"
)

// State is the Pool's lifecycle state.
type State int

const (
	// Running accepts new sends and actively dispatches work.
	Running State = iota
	// Stopping no longer accepts new sends but drains pending work.
	Stopping
	// Done means every worker has terminated.
	Done
)

// String implements fmt.Stringer.
func (s State) String() string {
	switch s {
	case Running:
		return "running"
	case Stopping:
		return "stopping"
	case Done:
		return "done"
	default:
		return "unknown"
	}
}

// Runnable is the single unit of work a Pool dispatches: an Actor's _work
// batch. The pool package never imports the actor package, so Actor
// satisfies this interface structurally.
type Runnable interface {
	RunBatch()
}

const (
	defaultMaxThreads         = 100
	defaultMaxQueue           = 100_000_000
	defaultMaxTimeBeforeYield = time.Second
)

// Option configures a Pool at construction time, following the functional-
// option convention used throughout this module.
type Option func(*config)

type config struct {
	name               string
	maxThreads         int
	maxQueue           int
	maxTimeBeforeYield time.Duration
}

// WithName sets the pool's diagnostic name. Defaults to "pool-<uuid>".
func WithName(name string) Option {
	return func(c *config) { c.name = name }
}

// WithMaxThreads sets the maximum number of concurrently-running workers.
// Must be >= 1.
func WithMaxThreads(n int) Option {
	return func(c *config) { c.maxThreads = n }
}

// WithMaxQueue sets the maximum per-actor queue depth enforced by Actor.Send.
// Must be >= 1.
func WithMaxQueue(n int) Option {
	return func(c *config) { c.maxQueue = n }
}

// WithMaxTimeBeforeYield sets the cooperative-yield batch budget an Actor's
// work loop honors.
func WithMaxTimeBeforeYield(d time.Duration) Option {
	return func(c *config) { c.maxTimeBeforeYield = d }
}

// Pool is a bounded worker set. The zero value is not usable; construct
// with New.
type Pool struct {
	id   string
	name string

	maxThreads         int
	maxQueue           int
	maxTimeBeforeYield time.Duration

	scheduler *sched.Scheduler

	mu      sync.Mutex
	state   State
	killed  bool
	pending int

	sem      chan struct{}
	wg       sync.WaitGroup
	doneOnce sync.Once
	doneCh   chan struct{}
}

// New constructs a running Pool. Invalid configuration (maxThreads < 1 or
// maxQueue < 1) fails with KindArg.
func New(opts ...Option) (*Pool, error) {
	cfg := &config{
		maxThreads:         defaultMaxThreads,
		maxQueue:           defaultMaxQueue,
		maxTimeBeforeYield: defaultMaxTimeBeforeYield,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.name == "" {
		cfg.name = "pool-" + uuid.NewString()
	}

	if cfg.maxThreads < 1 {
		return nil, corerterrors.New(corerterrors.KindArg, "Pool.maxThreads must be >= 1, not %d", cfg.maxThreads)
	}
	if cfg.maxQueue < 1 {
		return nil, corerterrors.New(corerterrors.KindArg, "Pool.maxQueue must be >= 1, not %d", cfg.maxQueue)
	}

	p := &Pool{
		id:                 uuid.NewString(),
		name:               cfg.name,
		maxThreads:         cfg.maxThreads,
		maxQueue:           cfg.maxQueue,
		maxTimeBeforeYield: cfg.maxTimeBeforeYield,
		scheduler:          sched.New(cfg.name),
		state:              Running,
		sem:                make(chan struct{}, cfg.maxThreads),
		doneCh:             make(chan struct{}),
	}
	return p, nil
}

// ID returns the pool's unique identifier.
func (p *Pool) ID() string { return p.id }

// Name returns the pool's diagnostic name.
func (p *Pool) Name() string { return p.name }

// MaxQueue returns the configured max per-actor queue depth.
func (p *Pool) MaxQueue() int { return p.maxQueue }

// MaxTimeBeforeYield returns the configured cooperative-yield budget.
func (p *Pool) MaxTimeBeforeYield() time.Duration { return p.maxTimeBeforeYield }

// Scheduler returns the pool's embedded deferred-work scheduler, used by
// Actor.SendLater.
func (p *Pool) Scheduler() *sched.Scheduler { return p.scheduler }

// IsKilled reports whether Kill has been called; workers check this before
// dispatching a Future.
func (p *Pool) IsKilled() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.killed
}

// IsStopped reports whether the pool has left the Running state.
func (p *Pool) IsStopped() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state != Running
}

// IsDone reports whether every worker has terminated and no work remains
// pending. Once the pool is stopped, a call here can lazily promote
// Stopping -> Done.
func (p *Pool) IsDone() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state == Done {
		return true
	}
	if p.state == Running {
		return false
	}
	if p.pending == 0 {
		p.state = Done
		p.markDoneLocked()
		return true
	}
	return false
}

// markDoneLocked closes doneCh exactly once; must be called with mu held.
func (p *Pool) markDoneLocked() {
	p.doneOnce.Do(func() { close(p.doneCh) })
}

// HasPending reports whether any work is currently submitted to the
// executor.
func (p *Pool) HasPending() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.pending > 0
}

// Stop requests an orderly shutdown: no new sends are accepted, but workers
// finish draining any actor batch already submitted.
func (p *Pool) Stop() *Pool {
	p.scheduler.Stop()
	p.mu.Lock()
	if p.state == Running {
		p.state = Stopping
	}
	p.mu.Unlock()
	return p
}

// Kill requests an unorderly shutdown: the killed flag is set (workers
// check it before dispatching the next Future and cancel instead), and a
// running pool transitions to Stopping immediately.
func (p *Pool) Kill() *Pool {
	p.scheduler.Stop()
	p.mu.Lock()
	if p.state == Running {
		p.state = Stopping
	}
	p.killed = true
	p.mu.Unlock()
	return p
}

// Join waits for all submitted work to finish running. Must be called after
// Stop or Kill. A nil timeout blocks forever; otherwise fails with
// KindTimeout if workers have not finished in time.
func (p *Pool) Join(timeout *time.Duration) (*Pool, error) {
	if !p.IsStopped() {
		return nil, corerterrors.New(corerterrors.KindArg, "Pool is not stopped")
	}

	if timeout == nil {
		p.wg.Wait()
		p.finishJoin()
		return p, nil
	}

	waitCh := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(waitCh)
	}()

	select {
	case <-waitCh:
		p.finishJoin()
		return p, nil
	case <-time.After(*timeout):
		return nil, corerterrors.New(corerterrors.KindTimeout, "Pool.join timed out")
	}
}

func (p *Pool) finishJoin() {
	p.mu.Lock()
	p.state = Done
	p.markDoneLocked()
	p.mu.Unlock()
}

// Submit records one more pending work unit and runs r.RunBatch() on a
// worker goroutine bounded by maxThreads, decrementing the pending counter
// on completion.
func (p *Pool) Submit(r Runnable) {
	p.mu.Lock()
	p.pending++
	p.mu.Unlock()

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		p.sem <- struct{}{}
		defer func() { <-p.sem }()

		defer func() {
			p.mu.Lock()
			p.pending--
			p.mu.Unlock()
		}()

		r.RunBatch()
	}()
}

// Schedule hands work to fire after dur onto the Pool's Scheduler. enqueue
// is invoked at the deadline (the Scheduler-side "enqueueLater" callback);
// cancelFuture is invoked instead if the Scheduler is stopped first.
func (p *Pool) Schedule(dur time.Duration, enqueue, cancelFuture func()) {
	p.scheduler.Schedule(dur.Nanoseconds(), sched.NewWork(enqueue, cancelFuture))
}

// Balanceable is the minimal surface Pool.Balance needs from an actor:
// just its current queue depth.
type Balanceable interface {
	QueueSize() int
}

// Balance returns the element of actors with the smallest QueueSize,
// short-circuiting as soon as a zero-size actor is found (resolving the
// spec's stable-first-on-ties open question the same way the original
// ActorPool.balance does: first element wins ties, and an empty queue found
// anywhere in the scan returns immediately). Fails with KindArg on an empty
// slice.
func Balance[A Balanceable](actors []A) (A, error) {
	var zero A
	if len(actors) == 0 {
		return zero, corerterrors.New(corerterrors.KindArg, "empty actor list")
	}

	best := actors[0]
	bestSize := best.QueueSize()
	if bestSize == 0 {
		return best, nil
	}

	for _, actor := range actors[1:] {
		size := actor.QueueSize()
		if size < bestSize {
			best = actor
			bestSize = size
			if bestSize == 0 {
				return best, nil
			}
		}
	}
	return best, nil
}

// Result is a thin re-export of fn.Result for callers of this package that
// prefer that style without importing lnd/fn/v2 themselves. No Pool method
// returns it; the Pool API uses (value, error) pairs.
type Result[T any] = fn.Result[T]
