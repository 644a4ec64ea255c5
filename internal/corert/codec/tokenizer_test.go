package codec

import (
	"math/big"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func tokenize(t *testing.T, src string) []TokenType {
	t.Helper()
	tok := NewTokenizer(strings.NewReader(src))
	var types []TokenType
	for {
		typ, err := tok.Next()
		require.NoError(t, err)
		if typ == TokEOF {
			return types
		}
		types = append(types, typ)
	}
}

func TestTokenizeKeywordsAndBooleans(t *testing.T) {
	types := tokenize(t, "true false null")
	require.Equal(t, []TokenType{TokBoolLiteral, TokBoolLiteral, TokNullLiteral}, types)
}

func TestTokenizeIntLiteral(t *testing.T) {
	tok := NewTokenizer(strings.NewReader("42"))
	typ, err := tok.Next()
	require.NoError(t, err)
	require.Equal(t, TokIntLiteral, typ)
	require.Equal(t, int64(42), tok.Val)
}

func TestTokenizeNegativeInt(t *testing.T) {
	tok := NewTokenizer(strings.NewReader("-7"))
	typ, err := tok.Next()
	require.NoError(t, err)
	require.Equal(t, TokIntLiteral, typ)
	require.Equal(t, int64(-7), tok.Val)
}

func TestTokenizeHexLiteral(t *testing.T) {
	tok := NewTokenizer(strings.NewReader("0xFF"))
	typ, err := tok.Next()
	require.NoError(t, err)
	require.Equal(t, TokIntLiteral, typ)
	require.Equal(t, int64(255), tok.Val)
}

func TestTokenizeFloatLiteral(t *testing.T) {
	tok := NewTokenizer(strings.NewReader("3.5f"))
	typ, err := tok.Next()
	require.NoError(t, err)
	require.Equal(t, TokFloatLiteral, typ)
	require.InDelta(t, 3.5, tok.Val.(float64), 0.0001)
}

func TestTokenizeDecimalLiteral(t *testing.T) {
	tok := NewTokenizer(strings.NewReader("1.25d"))
	typ, err := tok.Next()
	require.NoError(t, err)
	require.Equal(t, TokDecimalLiteral, typ)
	rat := tok.Val.(*big.Rat)
	f, _ := rat.Float64()
	require.InDelta(t, 1.25, f, 0.0001)
}

func TestTokenizeDurationLiteral(t *testing.T) {
	tok := NewTokenizer(strings.NewReader("5sec"))
	typ, err := tok.Next()
	require.NoError(t, err)
	require.Equal(t, TokDurationLiteral, typ)
	require.Equal(t, 5*time.Second, tok.Val.(time.Duration))
}

func TestTokenizeStringLiteralWithEscapes(t *testing.T) {
	tok := NewTokenizer(strings.NewReader(`"a\nb\tc"`))
	typ, err := tok.Next()
	require.NoError(t, err)
	require.Equal(t, TokStrLiteral, typ)
	require.Equal(t, "a\nb\tc", tok.Val)
}

func TestTokenizeCharLiteral(t *testing.T) {
	tok := NewTokenizer(strings.NewReader(`'A'`))
	typ, err := tok.Next()
	require.NoError(t, err)
	require.Equal(t, TokIntLiteral, typ)
	require.Equal(t, int64('A'), tok.Val)
}

func TestTokenizeURILiteral(t *testing.T) {
	tok := NewTokenizer(strings.NewReader("`http://example.com`"))
	typ, err := tok.Next()
	require.NoError(t, err)
	require.Equal(t, TokURILiteral, typ)
	require.Equal(t, "http://example.com", tok.Val)
}

func TestTokenizePunctuation(t *testing.T) {
	types := tokenize(t, "[ ] [] {} ( ) , ; = # ? @ $ . :: :")
	require.Equal(t, []TokenType{
		TokLBracket, TokRBracket, TokLRBracket,
		TokLBrace, TokRBrace, TokLParen, TokRParen,
		TokComma, TokSemicolon, TokEq, TokPound, TokQuestion,
		TokAt, TokDollar, TokDot, TokDoubleColon, TokColon,
	}, types)
}

func TestTokenizeLineComment(t *testing.T) {
	types := tokenize(t, "1 // comment here\n2")
	require.Equal(t, []TokenType{TokIntLiteral, TokIntLiteral}, types)
}

func TestTokenizeNestedBlockComment(t *testing.T) {
	types := tokenize(t, "1 /* outer /* inner */ still */ 2")
	require.Equal(t, []TokenType{TokIntLiteral, TokIntLiteral}, types)
}

func TestTokenizeUnexpectedSymbolErrors(t *testing.T) {
	tok := NewTokenizer(strings.NewReader("^"))
	_, err := tok.Next()
	require.Error(t, err)
}

func TestUndoPushesBackOneToken(t *testing.T) {
	tok := NewTokenizer(strings.NewReader("foo bar"))
	typ, err := tok.Next()
	require.NoError(t, err)
	require.Equal(t, TokID, typ)

	require.NoError(t, tok.Undo(typ, tok.Val, tok.Line))

	typ2, err := tok.Next()
	require.NoError(t, err)
	require.Equal(t, TokID, typ2)
	require.Equal(t, "foo", tok.Val)

	typ3, err := tok.Next()
	require.NoError(t, err)
	require.Equal(t, TokID, typ3)
	require.Equal(t, "bar", tok.Val)
}

func TestUndoOnlySupportsOneLevel(t *testing.T) {
	tok := NewTokenizer(strings.NewReader("foo bar"))
	typ, err := tok.Next()
	require.NoError(t, err)
	require.NoError(t, tok.Undo(typ, tok.Val, tok.Line))
	err = tok.Undo(typ, tok.Val, tok.Line)
	require.Error(t, err)
}
