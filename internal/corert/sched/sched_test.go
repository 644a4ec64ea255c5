package sched

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func closureWork(work, cancel func()) Work {
	return NewWork(work, cancel)
}

func TestFiresInDeadlineOrder(t *testing.T) {
	s := New("test")
	defer s.Stop()

	var mu sync.Mutex
	var order []int

	var wg sync.WaitGroup
	wg.Add(3)

	s.Schedule(int64(30*time.Millisecond), closureWork(func() {
		mu.Lock()
		order = append(order, 3)
		mu.Unlock()
		wg.Done()
	}, func() {}))

	s.Schedule(int64(10*time.Millisecond), closureWork(func() {
		mu.Lock()
		order = append(order, 1)
		mu.Unlock()
		wg.Done()
	}, func() {}))

	s.Schedule(int64(20*time.Millisecond), closureWork(func() {
		mu.Lock()
		order = append(order, 2)
		mu.Unlock()
		wg.Done()
	}, func() {}))

	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, []int{1, 2, 3}, order)
}

func TestStopCancelsPendingWork(t *testing.T) {
	s := New("test")

	cancelled := make(chan struct{}, 1)
	s.Schedule(int64(time.Hour), closureWork(func() {}, func() {
		cancelled <- struct{}{}
	}))

	s.Stop()

	select {
	case <-cancelled:
	case <-time.After(time.Second):
		t.Fatal("cancel was never invoked")
	}
}

func TestStopWithoutScheduleIsSafe(t *testing.T) {
	s := New("test")
	s.Stop()
}

func TestPanicInWorkDoesNotKillScheduler(t *testing.T) {
	s := New("test")
	defer s.Stop()

	done := make(chan struct{})
	s.Schedule(0, closureWork(func() {
		panic("boom")
	}, func() {}))

	s.Schedule(int64(10*time.Millisecond), closureWork(func() {
		close(done)
	}, func() {}))

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("scheduler did not recover from panicking work")
	}
}
