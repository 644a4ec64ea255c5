// Package sched implements the runtime's deferred-work scheduler,
// concurrent::Scheduler in the original actor framework: a single
// lazily-launched background goroutine draining a sorted singly-linked list
// of (deadline, work) nodes, woken by a condition variable whenever the
// earliest deadline changes.
package sched

import (
	"context"
	"sync"
	"time"

	"github.com/roasbeef/corert/internal/corert/clock"
)

// Work is a unit of deferred work. Work fires when its deadline elapses;
// Cancel fires instead if the Scheduler is stopped while the work is still
// pending.
type Work interface {
	// Work is invoked once the deadline has elapsed.
	Work()
	// Cancel is invoked if the Scheduler stops before the deadline.
	Cancel()
}

// funcWork adapts two closures into a Work, the shape Pool.Schedule uses to
// wrap an Actor's "enqueue this future later" callback without the sched
// package needing to import actor.
type funcWork struct {
	work   func()
	cancel func()
}

// Work implements Work.
func (f funcWork) Work() { f.work() }

// Cancel implements Work.
func (f funcWork) Cancel() { f.cancel() }

// NewWork constructs a Work from two closures.
func NewWork(work, cancel func()) Work {
	return funcWork{work: work, cancel: cancel}
}

type node struct {
	deadlineNs int64
	work       Work
	next       *node
}

// Scheduler delivers Work items at or after their requested deadline. The
// background goroutine is started lazily on the first Schedule call and
// exits when Stop is called.
type Scheduler struct {
	name  string
	clock clock.Clock

	mu      sync.Mutex
	cond    *sync.Cond
	alive   bool
	head    *node
	started bool
}

// New constructs a Scheduler. The background goroutine is not started until
// the first call to Schedule.
func New(name string) *Scheduler {
	s := &Scheduler{name: name, clock: clock.System, alive: true}
	s.cond = sync.NewCond(&s.mu)
	return s
}

// Schedule inserts work into the sorted list to fire after ns nanoseconds
// have elapsed, lazily starting the background goroutine on first use.
func (s *Scheduler) Schedule(ns int64, work Work) {
	s.mu.Lock()

	newHead := s.insert(s.clock.NowNs()+ns, work)

	if !s.started {
		s.started = true
		go s.run()
	}

	if newHead {
		s.cond.Broadcast()
	}
	s.mu.Unlock()
}

// insert adds a node into the sorted list, keeping ascending order by
// deadline with ties broken by insertion order (new entries are inserted
// after existing entries with an equal deadline, matching the original's
// "strictly less than" comparison while scanning). Returns true if the new
// node became the head, changing the next wake-up time.
func (s *Scheduler) insert(deadlineNs int64, work Work) bool {
	n := &node{deadlineNs: deadlineNs, work: work}

	if s.head == nil {
		s.head = n
		return true
	}
	if deadlineNs < s.head.deadlineNs {
		n.next = s.head
		s.head = n
		return true
	}

	last := s.head
	cur := s.head.next
	for cur != nil {
		if deadlineNs < cur.deadlineNs {
			n.next = cur
			last.next = n
			return false
		}
		last = cur
		cur = cur.next
	}
	last.next = n
	return false
}

// Stop halts the background goroutine and cancels every still-pending Work
// item. Safe to call even if the goroutine was never started.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	s.alive = false
	s.cond.Broadcast()

	pending := s.head
	s.head = nil
	s.mu.Unlock()

	for n := pending; n != nil; n = n.next {
		safeCancel(n.work)
	}
}

// run is the background goroutine loop. It holds the lock only while
// inspecting/popping the list; Work.Work() itself always runs lock-free.
func (s *Scheduler) run() {
	for {
		s.mu.Lock()
		if !s.alive {
			s.mu.Unlock()
			return
		}

		now := s.clock.NowNs()
		if s.head == nil {
			s.cond.Wait()
			s.mu.Unlock()
			continue
		}
		if s.head.deadlineNs > now {
			waitUntil(s.cond, time.Duration(s.head.deadlineNs-now))
			s.mu.Unlock()
			continue
		}

		work := s.head.work
		s.head = s.head.next
		s.mu.Unlock()

		safeWork(work)
	}
}

// waitUntil sleeps on cond for at most d, so a newly-scheduled earlier
// deadline (signaled via Broadcast) or Stop can still wake the loop early.
func waitUntil(cond *sync.Cond, d time.Duration) {
	if d <= 0 {
		return
	}
	timer := time.AfterFunc(d, func() {
		cond.L.Lock()
		cond.Broadcast()
		cond.L.Unlock()
	})
	defer timer.Stop()
	cond.Wait()
}

func safeWork(w Work) {
	defer func() {
		if r := recover(); r != nil {
			log.ErrorS(context.Background(), "scheduler work panicked", "recover", r)
		}
	}()
	w.Work()
}

func safeCancel(w Work) {
	defer func() {
		if r := recover(); r != nil {
			log.ErrorS(context.Background(), "scheduler cancel panicked", "recover", r)
		}
	}()
	w.Cancel()
}
