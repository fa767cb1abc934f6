package plist

import (
	"bytes"
	"fmt"
)

// Kind identifies the variant held by a Value.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindDictionary
	KindArray
	KindString
	KindNumber
	KindBoolean
	KindData
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindDictionary:
		return "dictionary"
	case KindArray:
		return "array"
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindBoolean:
		return "boolean"
	case KindData:
		return "data"
	default:
		return "invalid"
	}
}

// Value is a node of a property list tree.
//
// Scalars are immutable. Containers change only through whole-subtree
// operations (Dict.Set, Dict.Delete, SetIndex, Append).
type Value struct {
	kind Kind

	// str holds the string value, or the literal text of a number.
	str     string
	boolVal bool
	data    []byte

	array []*Value
	dict  *Dict

	// Source location for error reporting
	pos Position
}

// Position represents a source location. Line and Column are 1-based;
// Column counts runes. Offset is the 0-based byte offset.
type Position struct {
	Line   int
	Column int
	Offset int
}

// String returns position as "line:column".
func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// IsValid reports whether the position refers to a source location.
func (p Position) IsValid() bool {
	return p.Line > 0
}

// PositionAt computes the position of a byte offset in src.
func PositionAt(src string, offset int) Position {
	pos := Position{Line: 1, Column: 1}
	if offset > len(src) {
		offset = len(src)
	}
	for i := 0; i < offset; i++ {
		switch {
		case src[i] == '\n':
			pos.Line++
			pos.Column = 1
		case src[i]&0xC0 != 0x80:
			pos.Column++
		}
	}
	pos.Offset = offset
	return pos
}

// ============================================================
// Constructors
// ============================================================

// String creates a string value.
func String(s string) *Value {
	return &Value{kind: KindString, str: s}
}

// Bool creates a boolean value.
func Bool(b bool) *Value {
	return &Value{kind: KindBoolean, boolVal: b}
}

// Int creates an integer number value.
func Int(n int64) *Value {
	return NumberValue(IntNumber(n))
}

// Uint creates an unsigned integer number value.
func Uint(n uint64) *Value {
	return NumberValue(UintNumber(n))
}

// Float creates a number value from a float, written in its shortest
// round-tripping form.
func Float(f float64) *Value {
	return NumberValue(FloatNumber(f, 64))
}

// NumberValue wraps a Number.
func NumberValue(n Number) *Value {
	return &Value{kind: KindNumber, str: n.lit}
}

// Data creates a data value. The slice is not copied.
func Data(b []byte) *Value {
	if b == nil {
		b = []byte{}
	}
	return &Value{kind: KindData, data: b}
}

// Array creates an array value.
func Array(values ...*Value) *Value {
	if values == nil {
		values = []*Value{}
	}
	return &Value{kind: KindArray, array: values}
}

// Dictionary creates a dictionary value from entries. A repeated key
// replaces the earlier value in place.
func Dictionary(entries ...Entry) *Value {
	return FromDict(NewDict(entries...))
}

// FromDict wraps an existing Dict. The Dict is shared, not copied.
func FromDict(d *Dict) *Value {
	if d == nil {
		d = NewDict()
	}
	return &Value{kind: KindDictionary, dict: d}
}

// Pair creates an Entry for use in Dictionary construction.
func Pair(key string, value *Value) Entry {
	return Entry{Key: key, Value: value}
}

// ============================================================
// Accessors
// ============================================================

// Kind returns the value kind.
func (v *Value) Kind() Kind {
	if v == nil {
		return KindInvalid
	}
	return v.kind
}

func (v *Value) expect(k Kind) error {
	if v == nil {
		return fmt.Errorf("plist: nil value: %w", ErrNilValue)
	}
	if v.kind != k {
		return fmt.Errorf("plist: expected %s, got %s: %w", k, v.kind, ErrTypeMismatch)
	}
	return nil
}

// AsString returns the string value.
func (v *Value) AsString() (string, error) {
	if err := v.expect(KindString); err != nil {
		return "", err
	}
	return v.str, nil
}

// AsNumber returns the number value.
func (v *Value) AsNumber() (Number, error) {
	if err := v.expect(KindNumber); err != nil {
		return Number{}, err
	}
	return Number{lit: v.str}, nil
}

// AsBool returns the boolean value.
func (v *Value) AsBool() (bool, error) {
	if err := v.expect(KindBoolean); err != nil {
		return false, err
	}
	return v.boolVal, nil
}

// AsData returns the bytes of a data value. The slice must not be modified.
func (v *Value) AsData() ([]byte, error) {
	if err := v.expect(KindData); err != nil {
		return nil, err
	}
	return v.data, nil
}

// AsArray returns the array elements. The slice must not be modified; use
// SetIndex or Append instead.
func (v *Value) AsArray() ([]*Value, error) {
	if err := v.expect(KindArray); err != nil {
		return nil, err
	}
	return v.array, nil
}

// AsDict returns the dictionary.
func (v *Value) AsDict() (*Dict, error) {
	if err := v.expect(KindDictionary); err != nil {
		return nil, err
	}
	return v.dict, nil
}

// Len returns the length of an array or dictionary, and 0 otherwise.
func (v *Value) Len() int {
	switch v.Kind() {
	case KindArray:
		return len(v.array)
	case KindDictionary:
		return v.dict.Len()
	default:
		return 0
	}
}

// Get returns the value stored under key in a dictionary, or nil.
func (v *Value) Get(key string) *Value {
	if v.Kind() != KindDictionary {
		return nil
	}
	return v.dict.Get(key)
}

// Index returns the i-th element of an array.
func (v *Value) Index(i int) (*Value, error) {
	if err := v.expect(KindArray); err != nil {
		return nil, err
	}
	if i < 0 || i >= len(v.array) {
		return nil, fmt.Errorf("plist: index %d out of bounds (len=%d)", i, len(v.array))
	}
	return v.array[i], nil
}

// Pos returns the source position of this value. Values built in code have
// the zero Position.
func (v *Value) Pos() Position {
	if v == nil {
		return Position{}
	}
	return v.pos
}

// ============================================================
// Mutators
// ============================================================

// Append adds a value to an array.
func (v *Value) Append(val *Value) {
	if v.Kind() != KindArray {
		panic("plist: cannot append to non-array")
	}
	v.array = append(v.array, val)
}

// SetIndex replaces the i-th element of an array.
func (v *Value) SetIndex(i int, val *Value) error {
	if err := v.expect(KindArray); err != nil {
		return err
	}
	if i < 0 || i >= len(v.array) {
		return fmt.Errorf("plist: index %d out of bounds (len=%d)", i, len(v.array))
	}
	v.array[i] = val
	return nil
}

// String returns the canonical text of v, for debugging.
func (v *Value) String() string {
	s, err := Serialize(v)
	if err != nil {
		return fmt.Sprintf("<invalid plist: %v>", err)
	}
	return s
}

// ============================================================
// Equality
// ============================================================

// Equal reports whether a and b are structurally identical: same kinds,
// same dictionary key order, same number literal text and same bytes.
// Source positions are ignored.
func Equal(a, b *Value) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case KindString, KindNumber:
		return a.str == b.str
	case KindBoolean:
		return a.boolVal == b.boolVal
	case KindData:
		return bytes.Equal(a.data, b.data)
	case KindArray:
		if len(a.array) != len(b.array) {
			return false
		}
		for i := range a.array {
			if !Equal(a.array[i], b.array[i]) {
				return false
			}
		}
		return true
	case KindDictionary:
		if a.dict.Len() != b.dict.Len() {
			return false
		}
		for i, e := range a.dict.entries {
			o := b.dict.entries[i]
			if e.Key != o.Key || !Equal(e.Value, o.Value) {
				return false
			}
		}
		return true
	default:
		return true
	}
}
