package future

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/roasbeef/corert/internal/corert/corerterrors"
)

func TestCompleteThenGet(t *testing.T) {
	f := New[int](nil)
	require.NoError(t, f.Complete(42))

	v, err := f.Get(nil)
	require.NoError(t, err)
	require.Equal(t, 42, v)
	require.Equal(t, Ok, f.Status())
}

func TestCompleteErrThenGet(t *testing.T) {
	f := New[int](nil)
	cause := corerterrors.New(corerterrors.KindArg, "boom")
	require.NoError(t, f.CompleteErr(cause))

	_, err := f.Get(nil)
	require.ErrorIs(t, err, cause)
	require.Equal(t, Err, f.Status())
}

func TestCancelIsIdempotentAfterTerminal(t *testing.T) {
	f := New[int](nil)
	require.NoError(t, f.Complete(7))

	f.Cancel()
	require.Equal(t, Ok, f.Status())

	v, err := f.Get(nil)
	require.NoError(t, err)
	require.Equal(t, 7, v)
}

func TestCancelBeforeComplete(t *testing.T) {
	f := New[int](nil)
	f.Cancel()

	require.True(t, f.IsCancelled())
	_, err := f.Get(nil)
	require.ErrorIs(t, err, corerterrors.ErrCancelled)
}

func TestCompleteAfterCancelIsNoop(t *testing.T) {
	f := New[int](nil)
	f.Cancel()
	require.NoError(t, f.Complete(99))
	require.True(t, f.IsCancelled())
}

func TestDoubleCompleteFails(t *testing.T) {
	f := New[int](nil)
	require.NoError(t, f.Complete(1))
	err := f.Complete(2)
	require.ErrorIs(t, err, corerterrors.ErrArg)
}

func TestGetTimeout(t *testing.T) {
	f := New[int](nil)
	d := 20 * time.Millisecond
	_, err := f.Get(&d)
	require.ErrorIs(t, err, corerterrors.ErrTimeout)
}

func TestOnDoneRunsOnceAtTerminal(t *testing.T) {
	f := New[int](nil)
	var count int
	var mu sync.Mutex
	f.OnDone(func() {
		mu.Lock()
		count++
		mu.Unlock()
	})

	require.NoError(t, f.Complete(1))

	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, 1, count)
}

func TestOnDoneRunsImmediatelyIfAlreadyTerminal(t *testing.T) {
	f := New[int](nil)
	require.NoError(t, f.Complete(1))

	ran := false
	f.OnDone(func() { ran = true })
	require.True(t, ran)
}

func TestConcurrentCompleters(t *testing.T) {
	f := New[int](nil)
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			f.Complete(i)
		}(i)
	}
	wg.Wait()

	_, err := f.Get(nil)
	require.NoError(t, err)
	require.Equal(t, Ok, f.Status())
}

func TestWaitForAllSharedDeadline(t *testing.T) {
	f1 := New[int](nil)
	f2 := New[int](nil)
	require.NoError(t, f1.Complete(1))
	require.NoError(t, f2.Complete(2))

	timeout := 50 * time.Millisecond
	err := WaitForAll([]*Future[int]{f1, f2}, &timeout)
	require.NoError(t, err)
}

func TestThenOnOk(t *testing.T) {
	f := New[int](nil)
	require.NoError(t, f.Complete(10))

	result := f.Then(func(v int) (any, error) {
		return v * 2, nil
	}, nil)

	v, err := result.Get(nil)
	require.NoError(t, err)
	require.Equal(t, 20, v)
}
