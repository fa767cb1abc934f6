package plist

import (
	"encoding"
	"errors"
	"reflect"
	"strings"
)

type decoder struct {
	opts     BindOptions
	maxDepth int
}

func (d *decoder) decode(v *Value, rv reflect.Value, p *path, depth int) error {
	if v == nil {
		return &BindingError{Path: p.String(), Message: "nil value", Err: ErrNilValue}
	}
	if depth > d.maxDepth {
		return bindError(p, v, ErrMaxDepth, "nesting deeper than %d", d.maxDepth)
	}

	switch rv.Type() {
	case valuePtrType:
		rv.Set(reflect.ValueOf(v))
		return nil
	case valueType:
		rv.Set(reflect.ValueOf(v).Elem())
		return nil
	case dictPtrType:
		if v.kind != KindDictionary {
			return mismatch(p, v, "dictionary")
		}
		rv.Set(reflect.ValueOf(v.dict))
		return nil
	case numberType:
		if v.kind != KindNumber {
			return mismatch(p, v, "number")
		}
		rv.Set(reflect.ValueOf(Number{lit: v.str}))
		return nil
	}

	if rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			rv.Set(reflect.New(rv.Type().Elem()))
		}
		return d.decode(v, rv.Elem(), p, depth)
	}

	if rv.CanAddr() {
		addr := rv.Addr()
		if addr.Type().Implements(unmarshalerType) {
			if err := addr.Interface().(Unmarshaler).UnmarshalPlist(v); err != nil {
				return wrapBindError(p, v, err)
			}
			return nil
		}
		if addr.Type().Implements(textUnmarshalerType) {
			s, ok := scalarText(v)
			if !ok {
				return mismatch(p, v, "string")
			}
			if err := addr.Interface().(encoding.TextUnmarshaler).UnmarshalText([]byte(s)); err != nil {
				return wrapBindError(p, v, err)
			}
			return nil
		}
	}

	switch rv.Kind() {
	case reflect.String:
		s, ok := scalarText(v)
		if !ok {
			return mismatch(p, v, "string")
		}
		rv.SetString(s)

	case reflect.Bool:
		return d.decodeBool(v, rv, p)

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if v.kind != KindNumber {
			return mismatch(p, v, "number")
		}
		i, err := Number{lit: v.str}.Int64()
		if err != nil {
			return numberError(p, v, err)
		}
		if rv.OverflowInt(i) {
			return bindError(p, v, ErrOverflow, "number %s does not fit in %s", v.str, rv.Type())
		}
		rv.SetInt(i)

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		if v.kind != KindNumber {
			return mismatch(p, v, "number")
		}
		u, err := Number{lit: v.str}.Uint64()
		if err != nil {
			return numberError(p, v, err)
		}
		if rv.OverflowUint(u) {
			return bindError(p, v, ErrOverflow, "number %s does not fit in %s", v.str, rv.Type())
		}
		rv.SetUint(u)

	case reflect.Float32, reflect.Float64:
		if v.kind != KindNumber {
			return mismatch(p, v, "number")
		}
		f, err := Number{lit: v.str}.Float64()
		if err != nil {
			return numberError(p, v, err)
		}
		if rv.OverflowFloat(f) {
			return bindError(p, v, ErrOverflow, "number %s does not fit in %s", v.str, rv.Type())
		}
		rv.SetFloat(f)

	case reflect.Slice:
		if rv.Type().Elem().Kind() == reflect.Uint8 && v.kind == KindData {
			rv.SetBytes(append([]byte{}, v.data...))
			return nil
		}
		if v.kind != KindArray {
			return mismatch(p, v, "array")
		}
		out := reflect.MakeSlice(rv.Type(), len(v.array), len(v.array))
		for i, item := range v.array {
			if err := d.decode(item, out.Index(i), p.at(i), depth+1); err != nil {
				return err
			}
		}
		rv.Set(out)

	case reflect.Array:
		return d.decodeTuple(v, rv, p, depth)

	case reflect.Map:
		return d.decodeMap(v, rv, p, depth)

	case reflect.Struct:
		return d.decodeStruct(v, rv, p, depth)

	case reflect.Interface:
		if rv.NumMethod() != 0 {
			return bindError(p, v, ErrUnsupportedType, "cannot decode into interface %s", rv.Type())
		}
		rv.Set(reflect.ValueOf(v))

	default:
		return bindError(p, v, ErrUnsupportedType, "cannot decode into %s", rv.Type())
	}
	return nil
}

// decodeBool accepts a Boolean, or the numbers 0 and 1.
func (d *decoder) decodeBool(v *Value, rv reflect.Value, p *path) error {
	switch v.kind {
	case KindBoolean:
		rv.SetBool(v.boolVal)
		return nil
	case KindNumber:
		i, err := Number{lit: v.str}.Int64()
		if err == nil && (i == 0 || i == 1) {
			rv.SetBool(i == 1)
			return nil
		}
	}
	return mismatch(p, v, "boolean")
}

// decodeTuple fills a fixed-size array from an array of the same length,
// or a byte array from data of the same length.
func (d *decoder) decodeTuple(v *Value, rv reflect.Value, p *path, depth int) error {
	n := rv.Len()
	if rv.Type().Elem().Kind() == reflect.Uint8 && v.kind == KindData {
		if len(v.data) != n {
			return bindError(p, v, ErrTypeMismatch, "expected %d bytes, got %d", n, len(v.data))
		}
		reflect.Copy(rv, reflect.ValueOf(v.data))
		return nil
	}
	if v.kind != KindArray {
		return mismatch(p, v, "array")
	}
	if len(v.array) != n {
		return bindError(p, v, ErrTypeMismatch, "expected array of %d elements, got %d", n, len(v.array))
	}
	for i, item := range v.array {
		if err := d.decode(item, rv.Index(i), p.at(i), depth+1); err != nil {
			return err
		}
	}
	return nil
}

func (d *decoder) decodeMap(v *Value, rv reflect.Value, p *path, depth int) error {
	t := rv.Type()
	if t.Key().Kind() != reflect.String {
		return bindError(p, v, ErrUnsupportedType, "map key type %s is not a string", t.Key())
	}
	if v.kind != KindDictionary {
		return mismatch(p, v, "dictionary")
	}
	if rv.IsNil() {
		rv.Set(reflect.MakeMapWithSize(t, v.dict.Len()))
	}
	for _, e := range v.dict.entries {
		elem := reflect.New(t.Elem()).Elem()
		if err := d.decode(e.Value, elem, p.child(e.Key), depth+1); err != nil {
			return err
		}
		rv.SetMapIndex(reflect.ValueOf(e.Key).Convert(t.Key()), elem)
	}
	return nil
}

func (d *decoder) decodeStruct(v *Value, rv reflect.Value, p *path, depth int) error {
	plan, err := planFor(rv.Type())
	if err != nil {
		return &BindingError{Path: p.String(), Message: err.Error(), Err: ErrUnsupportedType}
	}
	if v.kind != KindDictionary {
		return mismatch(p, v, "dictionary")
	}

	seen := make([]bool, len(plan.fields))
	for _, e := range v.dict.entries {
		i, ok := plan.byKey[e.Key]
		if !ok {
			if d.opts.Strict {
				return bindError(p.child(e.Key), e.Value, ErrUnknownField, "unknown field %q", e.Key)
			}
			continue
		}
		seen[i] = true
		if err := d.decode(e.Value, rv.FieldByIndex(plan.fields[i].index), p.child(e.Key), depth+1); err != nil {
			return err
		}
	}

	for i := range plan.fields {
		f := &plan.fields[i]
		if !seen[i] && f.required() {
			return bindError(p.child(f.name), v, ErrMissingField, "missing required field %q", f.name)
		}
	}
	return nil
}

// scalarText returns the text of a String, or the literal of a Number.
func scalarText(v *Value) (string, bool) {
	switch v.kind {
	case KindString, KindNumber:
		return v.str, true
	}
	return "", false
}

func numberError(p *path, v *Value, err error) *BindingError {
	sentinel := ErrTypeMismatch
	if errors.Is(err, ErrOverflow) {
		sentinel = ErrOverflow
	}
	e := bindError(p, v, sentinel, "%s", strings.TrimPrefix(err.Error(), "plist: "))
	if sentinel == ErrTypeMismatch {
		e.Expected = "integer"
		e.Actual = "number " + v.str
	}
	return e
}

// wrapBindError attaches the path to an error returned by a custom
// decoder, keeping nested binding errors as they are.
func wrapBindError(p *path, v *Value, err error) error {
	var be *BindingError
	if errors.As(err, &be) {
		return err
	}
	return &BindingError{Path: p.String(), Message: err.Error(), Pos: v.Pos(), Err: err}
}
