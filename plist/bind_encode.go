package plist

import (
	"encoding"
	"math"
	"reflect"
	"slices"
	"strconv"
	"unicode/utf8"
)

type encoder struct {
	opts     BindOptions
	maxDepth int
}

// encode converts rv to a value tree. A nil result with no error means the
// value is absent (nil pointer, nil interface) and the caller omits it.
func (e *encoder) encode(rv reflect.Value, p *path, depth int) (*Value, error) {
	if depth > e.maxDepth {
		return nil, &BindingError{Path: p.String(), Message: "nesting deeper than " + strconv.Itoa(e.maxDepth), Err: ErrMaxDepth}
	}

	switch rv.Type() {
	case valuePtrType:
		if rv.IsNil() {
			return nil, nil
		}
		return rv.Interface().(*Value), nil
	case valueType:
		v := rv.Interface().(Value)
		return &v, nil
	case dictPtrType:
		if rv.IsNil() {
			return nil, nil
		}
		return FromDict(rv.Interface().(*Dict)), nil
	case numberType:
		n := rv.Interface().(Number)
		if n.lit == "" {
			return Int(0), nil
		}
		if !isNumeric(n.lit) {
			return nil, &BindingError{Path: p.String(), Message: "invalid number literal " + strconv.Quote(n.lit), Err: ErrInvalidNumber}
		}
		return NumberValue(n), nil
	}

	if rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return nil, nil
		}
	}

	if v, ok, err := e.encodeCustom(rv, p); ok {
		return v, err
	}

	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface:
		return e.encode(rv.Elem(), p, depth)

	case reflect.String:
		s := rv.String()
		if !utf8.ValidString(s) {
			return nil, &BindingError{Path: p.String(), Message: "string is not valid UTF-8", Err: ErrUnsupportedValue}
		}
		return String(s), nil

	case reflect.Bool:
		if e.opts.BoolAsNumber {
			if rv.Bool() {
				return Int(1), nil
			}
			return Int(0), nil
		}
		return Bool(rv.Bool()), nil

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return Int(rv.Int()), nil

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return Uint(rv.Uint()), nil

	case reflect.Float32:
		return e.encodeFloat(rv.Float(), 32, p)

	case reflect.Float64:
		return e.encodeFloat(rv.Float(), 64, p)

	case reflect.Slice:
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			return Data(append([]byte{}, rv.Bytes()...)), nil
		}
		return e.encodeList(rv, p, depth)

	case reflect.Array:
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			b := make([]byte, rv.Len())
			reflect.Copy(reflect.ValueOf(b), rv)
			return Data(b), nil
		}
		return e.encodeList(rv, p, depth)

	case reflect.Map:
		return e.encodeMap(rv, p, depth)

	case reflect.Struct:
		return e.encodeStruct(rv, p, depth)

	default:
		return nil, &BindingError{Path: p.String(), Message: "cannot encode " + rv.Type().String(), Err: ErrUnsupportedType}
	}
}

// encodeCustom handles Marshaler and encoding.TextMarshaler.
func (e *encoder) encodeCustom(rv reflect.Value, p *path) (*Value, bool, error) {
	target := rv
	if !target.Type().Implements(marshalerType) && !target.Type().Implements(textMarshalerType) {
		if !rv.CanAddr() {
			return nil, false, nil
		}
		target = rv.Addr()
	}

	switch m := target.Interface().(type) {
	case Marshaler:
		v, err := m.MarshalPlist()
		if err != nil {
			return nil, true, wrapBindError(p, nil, err)
		}
		if v == nil {
			return nil, true, &BindingError{Path: p.String(), Message: "MarshalPlist returned nil", Err: ErrNilValue}
		}
		return v, true, nil
	case encoding.TextMarshaler:
		text, err := m.MarshalText()
		if err != nil {
			return nil, true, wrapBindError(p, nil, err)
		}
		return String(string(text)), true, nil
	}
	return nil, false, nil
}

func (e *encoder) encodeFloat(f float64, bitSize int, p *path) (*Value, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, &BindingError{
			Path:    p.String(),
			Message: strconv.FormatFloat(f, 'g', -1, 64) + " has no plist representation",
			Err:     ErrUnsupportedValue,
		}
	}
	if e.opts.FloatPrecision > 0 {
		scale := math.Pow10(e.opts.FloatPrecision)
		if r := math.Round(f*scale) / scale; !math.IsInf(r, 0) && !math.IsNaN(r) {
			f = r
			bitSize = 64
		}
	}
	return NumberValue(FloatNumber(f, bitSize)), nil
}

func (e *encoder) encodeList(rv reflect.Value, p *path, depth int) (*Value, error) {
	items := make([]*Value, rv.Len())
	for i := range items {
		item, err := e.encode(rv.Index(i), p.at(i), depth+1)
		if err != nil {
			return nil, err
		}
		if item == nil {
			return nil, &BindingError{Path: p.at(i).String(), Message: "nil element has no plist representation", Err: ErrNilValue}
		}
		items[i] = item
	}
	return Array(items...), nil
}

// encodeMap writes map entries sorted by key.
func (e *encoder) encodeMap(rv reflect.Value, p *path, depth int) (*Value, error) {
	if rv.Type().Key().Kind() != reflect.String {
		return nil, &BindingError{Path: p.String(), Message: "map key type " + rv.Type().Key().String() + " is not a string", Err: ErrUnsupportedType}
	}
	keys := rv.MapKeys()
	slices.SortFunc(keys, func(a, b reflect.Value) int {
		switch {
		case a.String() < b.String():
			return -1
		case a.String() > b.String():
			return 1
		}
		return 0
	})

	d := NewDict()
	for _, k := range keys {
		key := k.String()
		val, err := e.encode(rv.MapIndex(k), p.child(key), depth+1)
		if err != nil {
			return nil, err
		}
		if val != nil {
			d.Set(key, val)
		}
	}
	return FromDict(d), nil
}

func (e *encoder) encodeStruct(rv reflect.Value, p *path, depth int) (*Value, error) {
	plan, err := planFor(rv.Type())
	if err != nil {
		return nil, &BindingError{Path: p.String(), Message: err.Error(), Err: ErrUnsupportedType}
	}

	d := NewDict()
	for i := range plan.fields {
		f := &plan.fields[i]
		fv := rv.FieldByIndex(f.index)
		if f.omitEmpty && isEmptyValue(fv) {
			continue
		}
		val, err := e.encode(fv, p.child(f.name), depth+1)
		if err != nil {
			return nil, err
		}
		if val != nil {
			d.Set(f.name, val)
		}
	}
	return FromDict(d), nil
}

// isEmptyValue reports whether v is a zero scalar or an empty container.
func isEmptyValue(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Slice, reflect.Map, reflect.String:
		return v.Len() == 0
	case reflect.Array:
		return v.Len() == 0 || v.IsZero()
	default:
		return v.IsZero()
	}
}
