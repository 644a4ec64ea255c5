package codec

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

// genScalar produces a random leaf Value: int, bool, or string.
func genScalar(t *rapid.T) Value {
	switch rapid.IntRange(0, 2).Draw(t, "scalarKind") {
	case 0:
		return NewInt(rapid.Int64Range(-1_000_000, 1_000_000).Draw(t, "intVal"))
	case 1:
		return NewBool(rapid.Bool().Draw(t, "boolVal"))
	default:
		return NewString(rapid.StringMatching(`[a-zA-Z0-9 ]{0,20}`).Draw(t, "strVal"))
	}
}

// genList produces a random flat list of scalar Values.
func genList(t *rapid.T) Value {
	n := rapid.IntRange(0, 5).Draw(t, "listLen")
	// Built by append so an empty list is nil, as the decoder produces it.
	var items []Value
	for i := 0; i < n; i++ {
		items = append(items, genScalar(t))
	}
	return NewList(items)
}

func TestRoundTripScalarsProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		v := genScalar(t)

		var sb strings.Builder
		require.NoError(t, Encode(&sb, v))

		got, err := NewDecoder(strings.NewReader(sb.String())).Decode()
		require.NoError(t, err)
		require.Equal(t, v, got)
	})
}

func TestRoundTripListsProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		v := genList(t)

		var sb strings.Builder
		require.NoError(t, Encode(&sb, v))

		got, err := NewDecoder(strings.NewReader(sb.String())).Decode()
		require.NoError(t, err)
		require.Equal(t, v, got)
	})
}
