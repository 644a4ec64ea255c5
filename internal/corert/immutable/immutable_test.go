package immutable

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type point struct {
	X, Y int
}

func TestIsImmutablePrimitives(t *testing.T) {
	require.True(t, IsImmutable(nil))
	require.True(t, IsImmutable(42))
	require.True(t, IsImmutable("hi"))
	require.True(t, IsImmutable(3.14))
	require.True(t, IsImmutable(point{1, 2}))
}

func TestIsImmutableMutableKinds(t *testing.T) {
	require.False(t, IsImmutable([]int{1, 2}))
	require.False(t, IsImmutable(map[string]int{"a": 1}))
	require.False(t, IsImmutable(&point{1, 2}))
}

func TestUnsafeBypassesChecks(t *testing.T) {
	u := Unsafe{Value: make(chan int)}
	require.True(t, IsImmutable(u))

	got, err := ToImmutable(u)
	require.NoError(t, err)
	require.Equal(t, u, got)
}

func TestToImmutableFreezesSlice(t *testing.T) {
	got, err := ToImmutable([]int{1, 2, 3})
	require.NoError(t, err)

	frozen, ok := got.(FrozenList)
	require.True(t, ok)
	require.Equal(t, FrozenList{1, 2, 3}, frozen)
	require.True(t, IsImmutable(frozen))
}

func TestToImmutableFreezesMap(t *testing.T) {
	got, err := ToImmutable(map[string]int{"a": 1})
	require.NoError(t, err)

	frozen, ok := got.(FrozenMap)
	require.True(t, ok)
	require.Equal(t, 1, frozen["a"])
}

func TestToImmutableRejectsPointer(t *testing.T) {
	_, err := ToImmutable(&point{1, 2})
	require.Error(t, err)
}

func TestMustImmutablePanicsOnFailure(t *testing.T) {
	require.Panics(t, func() {
		MustImmutable(&point{1, 2})
	})
}
