package corerterrors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestKindString(t *testing.T) {
	require.Equal(t, "Arg", KindArg.String())
	require.Equal(t, "Timeout", KindTimeout.String())
	require.Equal(t, "Unknown", Kind(255).String())
}

func TestNewAndError(t *testing.T) {
	err := New(KindParse, "bad token %q", "@")
	require.EqualError(t, err, "Parse: bad token \"@\"")
}

func TestWrapIncludesCause(t *testing.T) {
	cause := errors.New("underlying")
	err := Wrap(KindIO, cause, "write failed")
	require.ErrorContains(t, err, "underlying")
	require.Equal(t, cause, err.Unwrap())
}

func TestErrorsIsMatchesByKindOnly(t *testing.T) {
	err := New(KindTimeout, "get timed out after 5s")
	require.ErrorIs(t, err, ErrTimeout)
	require.False(t, errors.Is(err, ErrArg))
}

func TestPackageLevelIs(t *testing.T) {
	err := New(KindQueueOverflow, "queue full")
	require.True(t, Is(err, KindQueueOverflow))
	require.False(t, Is(err, KindCancelled))
	require.False(t, Is(errors.New("plain"), KindQueueOverflow))
}
