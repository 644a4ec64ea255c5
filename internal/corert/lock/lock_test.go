package lock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestReentrantLockSameOwner(t *testing.T) {
	l := New()
	l.Lock(1)
	l.Lock(1)

	require.NoError(t, l.Unlock(1))
	require.NoError(t, l.Unlock(1))
}

func TestUnlockByNonOwnerFails(t *testing.T) {
	l := New()
	l.Lock(1)
	err := l.Unlock(2)
	require.Error(t, err)
	require.NoError(t, l.Unlock(1))
}

func TestTryLockFailsWhenHeld(t *testing.T) {
	l := New()
	require.True(t, l.TryLock(1))
	require.False(t, l.TryLock(2))
	require.NoError(t, l.Unlock(1))
	require.True(t, l.TryLock(2))
}

func TestTryLockTimeoutSucceedsOnceReleased(t *testing.T) {
	l := New()
	l.Lock(1)

	go func() {
		time.Sleep(20 * time.Millisecond)
		l.Unlock(1)
	}()

	ok := l.TryLockTimeout(2, 500*time.Millisecond)
	require.True(t, ok)
	require.NoError(t, l.Unlock(2))
}

func TestTryLockTimeoutFailsAndLeavesLockHeldByOriginalOwner(t *testing.T) {
	l := New()
	l.Lock(1)

	ok := l.TryLockTimeout(2, 20*time.Millisecond)
	require.False(t, ok)

	// Owner 1 still holds the lock; owner 2 never acquired it.
	require.NoError(t, l.Unlock(1))
}
