package codec

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/roasbeef/corert/internal/corert/corerterrors"
)

// EncoderOption configures an Encoder, following this module's functional-
// option convention.
type EncoderOption func(*Encoder)

// WithIndent sets the number of spaces used per nesting level when encoding
// complex objects. Zero (the default) produces single-line output.
func WithIndent(n int) EncoderOption {
	return func(e *Encoder) { e.indent = n }
}

// WithSkipErrors makes Encode write `null /* Not serializable: ... */`
// for an unsupported Value.Kind instead of failing with KindIO.
func WithSkipErrors(skip bool) EncoderOption {
	return func(e *Encoder) { e.skipErrors = skip }
}

// Encoder writes Value trees back out to the serialization grammar,
// porting fanx.ObjEncoder's configurable indent/skipErrors behavior.
type Encoder struct {
	w          io.Writer
	indent     int
	skipErrors bool
}

// NewEncoder constructs an Encoder writing to w.
func NewEncoder(w io.Writer, opts ...EncoderOption) *Encoder {
	e := &Encoder{w: w}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Encode writes v to the underlying stream.
func (e *Encoder) Encode(v Value) error {
	return e.encode(v, 0)
}

func (e *Encoder) encode(v Value, depth int) error {
	switch v.Kind {
	case KindNull:
		return e.write("null")
	case KindBool:
		return e.write(strconv.FormatBool(v.Bool))
	case KindInt:
		return e.write(strconv.FormatInt(v.Int, 10))
	case KindFloat:
		return e.write(formatFloat(v.Float))
	case KindDecimal:
		return e.write(v.Decimal.RatString() + "d")
	case KindDuration:
		return e.write(formatDuration(v))
	case KindURI:
		return e.write("`" + escapeURI(v.URI) + "`")
	case KindString:
		return e.write(`"` + escapeString(v.Str) + `"`)
	case KindList:
		return e.encodeList(v.List, depth)
	case KindMap:
		return e.encodeMap(v.Map, depth)
	case KindComplex:
		return e.encodeComplex(v.Complex, depth)
	default:
		if e.skipErrors {
			return e.write(fmt.Sprintf("null /* Not serializable: kind %d */", v.Kind))
		}
		return corerterrors.New(corerterrors.KindIO, "cannot encode value of kind %d", v.Kind)
	}
}

func formatFloat(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "INF"
	case math.IsInf(f, -1):
		return "-INF"
	default:
		return strconv.FormatFloat(f, 'g', -1, 64) + "f"
	}
}

func formatDuration(v Value) string {
	ns := v.Duration.Nanoseconds()
	return strconv.FormatInt(ns, 10) + "ns"
}

func escapeString(s string) string {
	var sb strings.Builder
	for _, r := range s {
		switch r {
		case '"':
			sb.WriteString(`\"`)
		case '\\':
			sb.WriteString(`\\`)
		case '\n':
			sb.WriteString(`\n`)
		case '\r':
			sb.WriteString(`\r`)
		case '\t':
			sb.WriteString(`\t`)
		case '\b':
			sb.WriteString(`\b`)
		case '\f':
			sb.WriteString(`\f`)
		case '$':
			sb.WriteString(`\$`)
		default:
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

func escapeURI(s string) string {
	return strings.ReplaceAll(s, "`", "\\`")
}

func (e *Encoder) encodeList(items []Value, depth int) error {
	if len(items) == 0 {
		return e.write("[,]")
	}
	if err := e.write("["); err != nil {
		return err
	}
	for i, item := range items {
		if i > 0 {
			if err := e.write(", "); err != nil {
				return err
			}
		}
		if err := e.encode(item, depth+1); err != nil {
			return err
		}
	}
	return e.write("]")
}

func (e *Encoder) encodeMap(entries []MapEntry, depth int) error {
	if len(entries) == 0 {
		return e.write("[:]")
	}
	if err := e.write("["); err != nil {
		return err
	}
	for i, entry := range entries {
		if i > 0 {
			if err := e.write(", "); err != nil {
				return err
			}
		}
		if err := e.encode(entry.Key, depth+1); err != nil {
			return err
		}
		if err := e.write(":"); err != nil {
			return err
		}
		if err := e.encode(entry.Val, depth+1); err != nil {
			return err
		}
	}
	return e.write("]")
}

func (e *Encoder) encodeComplex(c *Complex, depth int) error {
	if err := e.write(c.Type); err != nil {
		return err
	}
	if len(c.Fields) == 0 && len(c.Items) == 0 {
		return nil
	}

	if err := e.write(" {"); err != nil {
		return err
	}
	if e.indent > 0 {
		if err := e.write("\n"); err != nil {
			return err
		}
	}

	writeSep := func() error {
		if e.indent > 0 {
			return e.write(strings.Repeat(" ", e.indent*(depth+1)))
		}
		return e.write(" ")
	}

	for _, f := range c.Fields {
		if err := writeSep(); err != nil {
			return err
		}
		if err := e.write(f.Name + " = "); err != nil {
			return err
		}
		if err := e.encode(f.Val, depth+1); err != nil {
			return err
		}
		if err := e.write(terminator(e.indent)); err != nil {
			return err
		}
	}
	for _, item := range c.Items {
		if err := writeSep(); err != nil {
			return err
		}
		if err := e.encode(item, depth+1); err != nil {
			return err
		}
		if err := e.write(terminator(e.indent)); err != nil {
			return err
		}
	}

	if e.indent > 0 {
		if err := e.write(strings.Repeat(" ", e.indent*depth)); err != nil {
			return err
		}
	}
	return e.write("}")
}

func terminator(indent int) string {
	if indent > 0 {
		return "\n"
	}
	return "; "
}

func (e *Encoder) write(s string) error {
	_, err := io.WriteString(e.w, s)
	return err
}

// Encode is a convenience wrapper constructing a default Encoder.
func Encode(w io.Writer, v Value, opts ...EncoderOption) error {
	return NewEncoder(w, opts...).Encode(v)
}
