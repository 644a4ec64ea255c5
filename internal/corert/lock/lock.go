// Package lock implements the runtime's reentrant mutex, the concurrent::Lock
// of the original actor framework. Go's sync.Mutex is not reentrant, so the
// implementation tracks an owner token supplied by the caller and a hold
// count, in place of the owning thread the source's threading.RLock keys on.
package lock

import (
	"sync"
	"time"

	"github.com/roasbeef/corert/internal/corert/corerterrors"
)

// Lock is a reentrant mutual-exclusion lock. The zero value is not usable;
// construct with New.
type Lock struct {
	mu    sync.Mutex
	cond  *sync.Cond
	owner int64
	count int
}

// New constructs an unlocked reentrant Lock.
func New() *Lock {
	l := &Lock{}
	l.cond = sync.NewCond(&l.mu)
	return l
}

// goroutineID would require runtime introspection Go deliberately doesn't
// expose; instead callers pass an explicit token identifying the logical
// owner (typically the actor or goroutine-local ID they already track).
// actor.NewOwnerToken hands out such IDs; the actor package does not itself
// take a Lock.
type Token = int64

// Lock acquires the lock for owner, blocking until available. Reentrant: the
// same owner may call Lock again while already holding it, incrementing the
// hold count; Unlock must be called the same number of times.
func (l *Lock) Lock(owner Token) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for l.count > 0 && l.owner != owner {
		l.cond.Wait()
	}
	l.owner = owner
	l.count++
}

// Unlock releases one hold of the lock for owner. Fails with KindArg if
// owner does not currently hold the lock.
func (l *Lock) Unlock(owner Token) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.count == 0 || l.owner != owner {
		return corerterrors.New(corerterrors.KindArg, "Lock: unlock called by non-owner")
	}

	l.count--
	if l.count == 0 {
		l.cond.Broadcast()
	}
	return nil
}

// TryLock attempts to acquire the lock for owner without blocking. Returns
// true on success.
func (l *Lock) TryLock(owner Token) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.count > 0 && l.owner != owner {
		return false
	}
	l.owner = owner
	l.count++
	return true
}

// TryLockTimeout attempts to acquire the lock for owner, blocking up to
// timeout. Returns true on success, false if timeout elapses first. Unlike a
// bare poll loop, the calling goroutine still sleeps on the lock's condition
// variable between wake-ups rather than busy-waiting.
func (l *Lock) TryLockTimeout(owner Token, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)

	l.mu.Lock()
	defer l.mu.Unlock()

	for l.count > 0 && l.owner != owner {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return false
		}
		waitOrTimeout(l.cond, remaining)
	}

	l.owner = owner
	l.count++
	return true
}

// waitOrTimeout wakes cond.Wait() after at most d by racing a timer
// goroutine against the broadcast; sync.Cond has no native timeout support.
func waitOrTimeout(cond *sync.Cond, d time.Duration) {
	timer := time.AfterFunc(d, func() {
		cond.L.Lock()
		cond.Broadcast()
		cond.L.Unlock()
	})
	defer timer.Stop()
	cond.Wait()
}
