package codec

import (
	"io"
	"math/big"
	"strings"
	"time"

	"github.com/roasbeef/corert/internal/corert/corerterrors"
)

// Decoder performs recursive-descent decoding of the serialization grammar
// into Value trees, porting fanx.ObjDecoder's structure (minus the dynamic
// type registry: type names in a Complex are kept as plain strings instead
// of being resolved against a live type system, since this runtime has no
// analog of Fantom's reflective pod/type registry).
type Decoder struct {
	tok *Tokenizer
}

// NewDecoder constructs a Decoder reading from r.
func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{tok: NewTokenizer(r)}
}

// Decode parses one optional sequence of `using` statements followed by a
// single obj production, per the stream grammar.
func (d *Decoder) Decode() (Value, error) {
	if err := d.skipUsing(); err != nil {
		return Value{}, err
	}
	if _, err := d.tok.Next(); err != nil {
		return Value{}, err
	}
	return d.readObj()
}

// skipUsing consumes zero or more `using pod ("::" type ["as" id])? ';'?`
// prefixes. This runtime has no pod/type registry to populate, so the
// statements are parsed only to advance past them.
func (d *Decoder) skipUsing() error {
	for {
		typ, err := d.tok.Next()
		if err != nil {
			return err
		}
		if typ != TokUsing {
			return d.tok.Undo(typ, d.tok.Val, d.tok.Line)
		}

		if _, err := d.expect(TokID); err != nil {
			return err
		}
		typ, err = d.tok.Next()
		if err != nil {
			return err
		}
		if typ == TokDoubleColon {
			if _, err := d.expect(TokID); err != nil {
				return err
			}
			typ, err = d.tok.Next()
			if err != nil {
				return err
			}
			if typ == TokAs {
				if _, err := d.expect(TokID); err != nil {
					return err
				}
				typ, err = d.tok.Next()
				if err != nil {
					return err
				}
			}
		}
		if typ != TokSemicolon {
			if err := d.tok.Undo(typ, d.tok.Val, d.tok.Line); err != nil {
				return err
			}
		}
	}
}

// readObj decodes the current token (already consumed via Next) as one obj
// production.
func (d *Decoder) readObj() (Value, error) {
	typ := d.tok.Type

	if typ.IsLiteral() {
		return d.literal(typ)
	}

	switch typ {
	case TokLBracket, TokLRBracket:
		return d.collection("")
	case TokID:
		return d.typed(d.tok.Val.(string))
	case TokEOF:
		return Value{}, corerterrors.New(corerterrors.KindParse, "unexpected end of input")
	default:
		return Value{}, corerterrors.New(corerterrors.KindParse, "unexpected token %s", typ)
	}
}

func (d *Decoder) literal(typ TokenType) (Value, error) {
	switch typ {
	case TokNullLiteral:
		return Null, nil
	case TokBoolLiteral:
		return NewBool(d.tok.Val.(bool)), nil
	case TokStrLiteral:
		return NewString(d.tok.Val.(string)), nil
	case TokIntLiteral:
		return NewInt(d.tok.Val.(int64)), nil
	case TokFloatLiteral:
		return NewFloat(d.tok.Val.(float64)), nil
	case TokDecimalLiteral:
		return NewDecimal(d.tok.Val.(*big.Rat)), nil
	case TokDurationLiteral:
		return NewDuration(d.tok.Val.(time.Duration)), nil
	case TokURILiteral:
		return NewURI(d.tok.Val.(string)), nil
	default:
		return Value{}, corerterrors.New(corerterrors.KindParse, "unsupported literal token %s", typ)
	}
}

// typed decodes a type-prefixed production: `type(str)`, `type#slot`,
// `type[...]` (typed collection), or `type { ... }` / bare `type`.
func (d *Decoder) typed(typeName string) (Value, error) {
	for {
		typ, err := d.tok.Next()
		if err != nil {
			return Value{}, err
		}
		if typ != TokDot {
			if err := d.tok.Undo(typ, d.tok.Val, d.tok.Line); err != nil {
				return Value{}, err
			}
			break
		}
		part, err := d.expect(TokID)
		if err != nil {
			return Value{}, err
		}
		typeName = typeName + "." + part.Val.(string)
	}

	typ, err := d.tok.Next()
	if err != nil {
		return Value{}, err
	}

	switch typ {
	case TokLParen:
		strTok, err := d.expect(TokStrLiteral)
		if err != nil {
			return Value{}, err
		}
		if _, err := d.expect(TokRParen); err != nil {
			return Value{}, err
		}
		return NewComplex(&Complex{Type: typeName, Fields: []FieldEntry{{Name: "fromStr", Val: NewString(strTok.Val.(string))}}}), nil

	case TokPound:
		slot := ""
		next, err := d.tok.Next()
		if err != nil {
			return Value{}, err
		}
		if next == TokID {
			slot = d.tok.Val.(string)
		} else if err := d.tok.Undo(next, d.tok.Val, d.tok.Line); err != nil {
			return Value{}, err
		}
		return NewComplex(&Complex{Type: typeName + "#" + slot}), nil

	case TokLBracket, TokLRBracket:
		return d.collection(typeName)

	case TokLBrace:
		return d.complexBody(typeName)

	default:
		if err := d.tok.Undo(typ, d.tok.Val, d.tok.Line); err != nil {
			return Value{}, err
		}
		return NewComplex(&Complex{Type: typeName}), nil
	}
}

// collection decodes a `[ ... ]`/`[,]`/`[:]` production. The leading `[`
// (or the already-consumed `[]` for an explicitly empty untyped list) has
// been consumed by the caller.
func (d *Decoder) collection(elemType string) (Value, error) {
	if d.tok.Type == TokLRBracket {
		return NewList(nil), nil
	}

	typ, err := d.tok.Next()
	if err != nil {
		return Value{}, err
	}

	if typ == TokComma {
		if _, err := d.expect(TokRBracket); err != nil {
			return Value{}, err
		}
		return NewList(nil), nil
	}
	if typ == TokColon {
		if _, err := d.expect(TokRBracket); err != nil {
			return Value{}, err
		}
		return NewMap(nil), nil
	}

	if err := d.tok.Undo(typ, d.tok.Val, d.tok.Line); err != nil {
		return Value{}, err
	}

	if _, err := d.tok.Next(); err != nil {
		return Value{}, err
	}
	first, err := d.readObj()
	if err != nil {
		return Value{}, err
	}

	next, err := d.tok.Next()
	if err != nil {
		return Value{}, err
	}

	if next == TokColon {
		if _, err := d.tok.Next(); err != nil {
			return Value{}, err
		}
		firstVal, err := d.readObj()
		if err != nil {
			return Value{}, err
		}
		entries := []MapEntry{{Key: first, Val: firstVal}}

		for {
			typ, err := d.tok.Next()
			if err != nil {
				return Value{}, err
			}
			if typ == TokRBracket {
				break
			}
			if typ != TokComma {
				return Value{}, corerterrors.New(corerterrors.KindParse, "expected ',' or ']' in map")
			}
			if _, err := d.tok.Next(); err != nil {
				return Value{}, err
			}
			if d.tok.Type == TokRBracket {
				break
			}
			k, err := d.readObj()
			if err != nil {
				return Value{}, err
			}
			if _, err := d.expect(TokColon); err != nil {
				return Value{}, err
			}
			if _, err := d.tok.Next(); err != nil {
				return Value{}, err
			}
			v, err := d.readObj()
			if err != nil {
				return Value{}, err
			}
			entries = append(entries, MapEntry{Key: k, Val: v})
		}
		return NewMap(entries), nil
	}

	items := []Value{first}
	cur := next
	for {
		if cur == TokRBracket {
			break
		}
		if cur != TokComma {
			return Value{}, corerterrors.New(corerterrors.KindParse, "expected ',' or ']' in list")
		}
		t2, err := d.tok.Next()
		if err != nil {
			return Value{}, err
		}
		if t2 == TokRBracket {
			break
		}
		item, err := d.readObj()
		if err != nil {
			return Value{}, err
		}
		items = append(items, item)
		cur, err = d.tok.Next()
		if err != nil {
			return Value{}, err
		}
	}
	return NewList(items), nil
}

// complexBody decodes the `{ (field '=' obj | obj)* }` body of a complex
// object. The opening `{` has already been consumed by the caller.
func (d *Decoder) complexBody(typeName string) (Value, error) {
	c := &Complex{Type: typeName}

	for {
		typ, err := d.tok.Next()
		if err != nil {
			return Value{}, err
		}
		if typ == TokRBrace {
			break
		}
		if typ == TokSemicolon {
			continue
		}

		if typ == TokID {
			name := d.tok.Val.(string)
			next, err := d.tok.Next()
			if err != nil {
				return Value{}, err
			}
			if next == TokEq {
				if _, err := d.tok.Next(); err != nil {
					return Value{}, err
				}
				val, err := d.readObj()
				if err != nil {
					return Value{}, err
				}
				c.Fields = append(c.Fields, FieldEntry{Name: name, Val: val})
				continue
			}
			if err := d.tok.Undo(next, d.tok.Val, d.tok.Line); err != nil {
				return Value{}, err
			}
			item, err := d.typed(name)
			if err != nil {
				return Value{}, err
			}
			c.Items = append(c.Items, item)
			continue
		}

		if err := d.tok.Undo(typ, d.tok.Val, d.tok.Line); err != nil {
			return Value{}, err
		}
		item, err := d.readObj()
		if err != nil {
			return Value{}, err
		}
		c.Items = append(c.Items, item)
	}

	return NewComplex(c), nil
}

func (d *Decoder) expect(want TokenType) (*Tokenizer, error) {
	typ, err := d.tok.Next()
	if err != nil {
		return nil, err
	}
	if typ != want {
		return nil, corerterrors.New(corerterrors.KindParse, "expected %s, got %s [line %d]", want, typ, d.tok.Line)
	}
	return d.tok, nil
}

// DecodeAll decodes every whitespace/comment-separated obj in src in
// sequence, returning them as a slice. Used by the CLI to accept a batch of
// jobs in one file.
func DecodeAll(src string) ([]Value, error) {
	r := strings.NewReader(src)
	dec := NewDecoder(r)

	var out []Value
	for {
		v, err := dec.Decode()
		if err != nil {
			if corerterrors.Is(err, corerterrors.KindParse) && dec.tok.Type == TokEOF {
				break
			}
			return out, err
		}
		out = append(out, v)
		if dec.tok.Type == TokEOF {
			break
		}
	}
	return out, nil
}
