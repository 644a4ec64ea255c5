package cmap

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roasbeef/corert/internal/corert/corerterrors"
)

func TestSetGetAndSize(t *testing.T) {
	m := New(0)
	require.True(t, m.IsEmpty())

	require.NoError(t, m.Set("a", 1))
	require.Equal(t, 1, m.Size())
	require.Equal(t, 1, m.Get("a"))
	require.False(t, m.IsEmpty())
}

func TestSetRejectsMutableValue(t *testing.T) {
	m := New(0)
	err := m.Set("a", []int{1, 2})
	require.ErrorIs(t, err, corerterrors.ErrNotImmutable)
}

func TestGetAndSetReturnsPrevious(t *testing.T) {
	m := New(0)
	require.NoError(t, m.Set("a", 1))

	old, err := m.GetAndSet("a", 2)
	require.NoError(t, err)
	require.Equal(t, 1, old)
	require.Equal(t, 2, m.Get("a"))
}

func TestAddFailsOnExistingKey(t *testing.T) {
	m := New(0)
	require.NoError(t, m.Add("a", 1))
	err := m.Add("a", 2)
	require.Error(t, err)
	require.Equal(t, 1, m.Get("a"))
}

func TestGetOrAddInsertsOnce(t *testing.T) {
	m := New(0)
	v, err := m.GetOrAdd("a", 1)
	require.NoError(t, err)
	require.Equal(t, 1, v)

	v, err = m.GetOrAdd("a", 2)
	require.NoError(t, err)
	require.Equal(t, 1, v)
}

func TestSetAllCopiesEntries(t *testing.T) {
	src := New(0)
	require.NoError(t, src.Set("a", 1))
	require.NoError(t, src.Set("b", 2))

	dst := New(0)
	require.NoError(t, dst.Set("b", 99))
	dst.SetAll(src)

	require.Equal(t, 1, dst.Get("a"))
	require.Equal(t, 2, dst.Get("b"))
}

func TestRemoveAndClear(t *testing.T) {
	m := New(0)
	require.NoError(t, m.Set("a", 1))

	old := m.Remove("a")
	require.Equal(t, 1, old)
	require.False(t, m.ContainsKey("a"))

	require.NoError(t, m.Set("b", 2))
	m.Clear()
	require.True(t, m.IsEmpty())
}

func TestKeysAndVals(t *testing.T) {
	m := New(0)
	require.NoError(t, m.Set("a", 1))
	require.NoError(t, m.Set("b", 2))

	require.ElementsMatch(t, []any{"a", "b"}, m.Keys())
	require.ElementsMatch(t, []any{1, 2}, m.Vals())
}

func TestEachReentrantRemove(t *testing.T) {
	m := New(0)
	require.NoError(t, m.Set("a", 1))
	require.NoError(t, m.Set("b", 2))

	var seen []any
	m.Each(func(key, val any) {
		seen = append(seen, key)
		m.Remove(key)
	})

	require.ElementsMatch(t, []any{"a", "b"}, seen)
	require.True(t, m.IsEmpty())
}

func TestEachWhileShortCircuits(t *testing.T) {
	m := New(0)
	require.NoError(t, m.Set("a", 1))
	require.NoError(t, m.Set("b", 2))
	require.NoError(t, m.Set("c", 3))

	var visited int
	res := m.EachWhile(func(key, val any) any {
		visited++
		if key == "a" {
			return "found"
		}
		return nil
	})

	require.Equal(t, "found", res)
	require.LessOrEqual(t, visited, 3)
}
