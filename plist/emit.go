package plist

import (
	"encoding/hex"
	"fmt"
	"strings"
	"unicode/utf8"
)

// SerializeOptions configures the serializer layout. Layout never changes
// which value tree the output parses back to.
type SerializeOptions struct {
	// Indent is written once per nesting level (empty for none)
	Indent string

	// InlineScalarArrays writes arrays without containers on one line:
	// (a, b) for mixed scalars, (1,2) when every element is a number
	InlineScalarArrays bool

	// DataWrap breaks data literals every DataWrap bytes (0 for never)
	DataWrap int

	// TrailingNewline ends the document with a newline
	TrailingNewline bool
}

// DefaultSerializeOptions returns the canonical layout: four-space
// indentation, one dictionary entry or array element per line.
func DefaultSerializeOptions() SerializeOptions {
	return SerializeOptions{
		Indent: "    ",
	}
}

// GlyphsSerializeOptions returns the layout written by the Glyphs font
// editor: no indentation, inline scalar arrays and a final newline.
func GlyphsSerializeOptions() SerializeOptions {
	return SerializeOptions{
		Indent:             "",
		InlineScalarArrays: true,
		TrailingNewline:    true,
	}
}

// Serialize converts a value tree to canonical plist text.
func Serialize(v *Value) (string, error) {
	return SerializeWithOptions(v, DefaultSerializeOptions())
}

// MustSerialize is like Serialize but panics on a malformed tree.
func MustSerialize(v *Value) string {
	s, err := Serialize(v)
	if err != nil {
		panic(err)
	}
	return s
}

// SerializeWithOptions converts a value tree with custom layout options.
func SerializeWithOptions(v *Value, opts SerializeOptions) (string, error) {
	e := &emitter{opts: opts}
	if err := e.emit(v, 0, nil); err != nil {
		return "", err
	}
	if opts.TrailingNewline {
		e.sb.WriteByte('\n')
	}
	return e.sb.String(), nil
}

type emitter struct {
	sb   strings.Builder
	opts SerializeOptions
}

func (e *emitter) emit(v *Value, depth int, p *path) error {
	if v == nil {
		return e.fail(p, ErrNilValue, "nil value")
	}

	switch v.kind {
	case KindString:
		return e.emitString(v.str, p)

	case KindNumber:
		if !isNumeric(v.str) {
			return e.fail(p, ErrInvalidNumber, fmt.Sprintf("%q is not a number literal", v.str))
		}
		e.sb.WriteString(v.str)

	case KindBoolean:
		if v.boolVal {
			e.sb.WriteString("true")
		} else {
			e.sb.WriteString("false")
		}

	case KindData:
		e.emitData(v.data, depth)

	case KindArray:
		return e.emitArray(v.array, depth, p)

	case KindDictionary:
		return e.emitDict(v.dict, depth, p)

	default:
		return e.fail(p, ErrNilValue, "uninitialized value")
	}
	return nil
}

func (e *emitter) emitString(s string, p *path) error {
	if !utf8.ValidString(s) {
		return e.fail(p, ErrInvalidString, fmt.Sprintf("string %q is not valid UTF-8", s))
	}
	e.sb.WriteString(canonString(s))
	return nil
}

func (e *emitter) emitData(b []byte, depth int) {
	e.sb.WriteByte('<')
	if e.opts.DataWrap <= 0 || len(b) <= e.opts.DataWrap {
		e.sb.WriteString(hex.EncodeToString(b))
	} else {
		for i := 0; i < len(b); i += e.opts.DataWrap {
			if i > 0 {
				e.sb.WriteByte('\n')
				e.writeIndent(depth + 1)
			}
			end := min(i+e.opts.DataWrap, len(b))
			e.sb.WriteString(hex.EncodeToString(b[i:end]))
		}
	}
	e.sb.WriteByte('>')
}

func (e *emitter) emitArray(items []*Value, depth int, p *path) error {
	if len(items) == 0 {
		e.sb.WriteString("()")
		return nil
	}

	if e.opts.InlineScalarArrays && allScalars(items) {
		sep := ", "
		if allNumbers(items) {
			sep = ","
		}
		e.sb.WriteByte('(')
		for i, item := range items {
			if i > 0 {
				e.sb.WriteString(sep)
			}
			if err := e.emit(item, depth+1, p.at(i)); err != nil {
				return err
			}
		}
		e.sb.WriteByte(')')
		return nil
	}

	e.sb.WriteString("(\n")
	for i, item := range items {
		e.writeIndent(depth + 1)
		if err := e.emit(item, depth+1, p.at(i)); err != nil {
			return err
		}
		if i < len(items)-1 {
			e.sb.WriteByte(',')
		}
		e.sb.WriteByte('\n')
	}
	e.writeIndent(depth)
	e.sb.WriteByte(')')
	return nil
}

func (e *emitter) emitDict(d *Dict, depth int, p *path) error {
	if d.Len() == 0 {
		e.sb.WriteString("{}")
		return nil
	}

	e.sb.WriteString("{\n")
	for _, entry := range d.entries {
		child := p.child(entry.Key)
		e.writeIndent(depth + 1)
		if err := e.emitString(entry.Key, child); err != nil {
			return err
		}
		e.sb.WriteString(" = ")
		if err := e.emit(entry.Value, depth+1, child); err != nil {
			return err
		}
		e.sb.WriteString(";\n")
	}
	e.writeIndent(depth)
	e.sb.WriteByte('}')
	return nil
}

func (e *emitter) writeIndent(depth int) {
	for i := 0; i < depth; i++ {
		e.sb.WriteString(e.opts.Indent)
	}
}

func (e *emitter) fail(p *path, sentinel error, msg string) error {
	return &SerializeError{Path: p.String(), Message: msg, Err: sentinel}
}

func allScalars(items []*Value) bool {
	for _, v := range items {
		if k := v.Kind(); k == KindArray || k == KindDictionary {
			return false
		}
	}
	return true
}

func allNumbers(items []*Value) bool {
	for _, v := range items {
		if v.Kind() != KindNumber {
			return false
		}
	}
	return true
}
