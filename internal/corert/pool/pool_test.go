package pool

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type countingRunnable struct {
	fn func()
}

func (c countingRunnable) RunBatch() { c.fn() }

func TestNewRejectsInvalidConfig(t *testing.T) {
	_, err := New(WithMaxThreads(0))
	require.Error(t, err)

	_, err = New(WithMaxQueue(0))
	require.Error(t, err)
}

func TestSubmitRunsAndTracksPending(t *testing.T) {
	p, err := New(WithMaxThreads(2))
	require.NoError(t, err)

	started := make(chan struct{})
	release := make(chan struct{})
	p.Submit(countingRunnable{fn: func() {
		close(started)
		<-release
	}})

	<-started
	require.True(t, p.HasPending())
	close(release)

	require.Eventually(t, func() bool { return !p.HasPending() }, time.Second, time.Millisecond)
}

func TestStopThenJoinTransitionsToDone(t *testing.T) {
	p, err := New(WithMaxThreads(1))
	require.NoError(t, err)

	var ran bool
	p.Submit(countingRunnable{fn: func() { ran = true }})

	p.Stop()
	timeout := time.Second
	_, err = p.Join(&timeout)
	require.NoError(t, err)
	require.True(t, ran)
	require.True(t, p.IsDone())
}

func TestJoinBeforeStopFails(t *testing.T) {
	p, err := New(WithMaxThreads(1))
	require.NoError(t, err)

	timeout := 10 * time.Millisecond
	_, err = p.Join(&timeout)
	require.Error(t, err)
}

func TestKillSetsKilledFlag(t *testing.T) {
	p, err := New(WithMaxThreads(1))
	require.NoError(t, err)

	require.False(t, p.IsKilled())
	p.Kill()
	require.True(t, p.IsKilled())
	require.True(t, p.IsStopped())
}

func TestSubmitRespectsMaxThreadsBound(t *testing.T) {
	p, err := New(WithMaxThreads(1))
	require.NoError(t, err)

	var mu sync.Mutex
	var concurrent, maxConcurrent int
	release := make(chan struct{})

	for i := 0; i < 3; i++ {
		p.Submit(countingRunnable{fn: func() {
			mu.Lock()
			concurrent++
			if concurrent > maxConcurrent {
				maxConcurrent = concurrent
			}
			mu.Unlock()

			<-release
			<-release

			mu.Lock()
			concurrent--
			mu.Unlock()
		}})
	}

	time.Sleep(20 * time.Millisecond)
	close(release)

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return concurrent == 0
	}, time.Second, time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, 1, maxConcurrent)
}

type sizedActor struct {
	name string
	size int
}

func (a sizedActor) QueueSize() int { return a.size }

func TestBalancePicksSmallestQueue(t *testing.T) {
	actors := []sizedActor{
		{name: "a", size: 5},
		{name: "b", size: 2},
		{name: "c", size: 8},
	}
	best, err := Balance(actors)
	require.NoError(t, err)
	require.Equal(t, "b", best.name)
}

func TestBalanceShortCircuitsOnZero(t *testing.T) {
	actors := []sizedActor{
		{name: "a", size: 3},
		{name: "b", size: 0},
		{name: "c", size: 0},
	}
	best, err := Balance(actors)
	require.NoError(t, err)
	require.Equal(t, "b", best.name)
}

func TestBalanceFirstWinsTies(t *testing.T) {
	actors := []sizedActor{
		{name: "a", size: 4},
		{name: "b", size: 4},
	}
	best, err := Balance(actors)
	require.NoError(t, err)
	require.Equal(t, "a", best.name)
}

func TestBalanceEmptyFails(t *testing.T) {
	_, err := Balance([]sizedActor{})
	require.Error(t, err)
}
