package plist

import (
	"encoding"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"unicode"
)

// ============================================================
// Typed Binding
// ============================================================
//
// Go values bind to value trees by reflection. Struct fields are named by
// a `plist` tag or, without one, by the lower-camel field name:
//
//	type Master struct {
//	    ID       string   `plist:"id"`
//	    Name     string   `plist:"name,omitempty"`
//	    Weight   float64  `plist:"weightValue,optional,alias=weight"`
//	    Guides   []Guide  `plist:",omitempty"`
//	    Internal string   `plist:"-"`
//	}
//
// A field is required on decode unless it is a pointer or tagged omitempty
// or optional. Types that need a custom shape implement Marshaler and
// Unmarshaler.

// Marshaler is implemented by types that build their own plist value.
type Marshaler interface {
	MarshalPlist() (*Value, error)
}

// Unmarshaler is implemented by types that read themselves from a plist
// value.
type Unmarshaler interface {
	UnmarshalPlist(v *Value) error
}

// BindOptions configures the typed bridge.
type BindOptions struct {
	// Strict rejects dictionary keys that match no struct field.
	Strict bool

	// MaxDepth bounds value nesting; <= 0 means DefaultMaxDepth.
	MaxDepth int

	// FloatPrecision rounds encoded floats to this many decimal places;
	// <= 0 writes the shortest round-tripping form.
	FloatPrecision int

	// BoolAsNumber encodes bools as the numbers 1 and 0.
	BoolAsNumber bool
}

// DefaultBindOptions returns lenient decoding and exact float output.
func DefaultBindOptions() BindOptions {
	return BindOptions{MaxDepth: DefaultMaxDepth}
}

// GlyphsBindOptions matches the Glyphs font editor: floats rounded to four
// decimals and bools written as 1/0.
func GlyphsBindOptions() BindOptions {
	return BindOptions{
		MaxDepth:       DefaultMaxDepth,
		FloatPrecision: 4,
		BoolAsNumber:   true,
	}
}

func (o BindOptions) maxDepth() int {
	if o.MaxDepth <= 0 {
		return DefaultMaxDepth
	}
	return o.MaxDepth
}

// Decode binds a value tree to a new T.
func Decode[T any](v *Value) (T, error) {
	return DecodeWithOptions[T](v, DefaultBindOptions())
}

// DecodeWithOptions binds a value tree to a new T with options.
func DecodeWithOptions[T any](v *Value, opts BindOptions) (T, error) {
	var out T
	if err := DecodeInto(v, &out, opts); err != nil {
		var zero T
		return zero, err
	}
	return out, nil
}

// DecodeInto binds a value tree into the value target points to.
func DecodeInto(v *Value, target any, opts BindOptions) error {
	rv := reflect.ValueOf(target)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return &BindingError{
			Path:    "root",
			Message: fmt.Sprintf("decode target must be a non-nil pointer, got %T", target),
			Err:     ErrUnsupportedType,
		}
	}
	d := &decoder{opts: opts, maxDepth: opts.maxDepth()}
	return d.decode(v, rv.Elem(), nil, 0)
}

// DecodeText parses text and binds it to a new T.
func DecodeText[T any](text string) (T, error) {
	v, err := Parse(text)
	if err != nil {
		var zero T
		return zero, err
	}
	return Decode[T](v)
}

// Encode converts *x to a value tree.
func Encode[T any](x *T) (*Value, error) {
	return EncodeWithOptions(x, DefaultBindOptions())
}

// EncodeWithOptions converts *x to a value tree with options.
func EncodeWithOptions[T any](x *T, opts BindOptions) (*Value, error) {
	if x == nil {
		return nil, &BindingError{Path: "root", Message: "cannot encode nil pointer", Err: ErrNilValue}
	}
	e := &encoder{opts: opts, maxDepth: opts.maxDepth()}
	v, err := e.encode(reflect.ValueOf(x).Elem(), nil, 0)
	if err != nil {
		return nil, err
	}
	if v == nil {
		return nil, &BindingError{Path: "root", Message: "value has no plist representation", Err: ErrNilValue}
	}
	return v, nil
}

// EncodeText converts *x to canonical plist text.
func EncodeText[T any](x *T) (string, error) {
	v, err := Encode(x)
	if err != nil {
		return "", err
	}
	return Serialize(v)
}

// ============================================================
// Type Plans
// ============================================================

var (
	valueType           = reflect.TypeFor[Value]()
	valuePtrType        = reflect.TypeFor[*Value]()
	dictPtrType         = reflect.TypeFor[*Dict]()
	numberType          = reflect.TypeFor[Number]()
	marshalerType       = reflect.TypeFor[Marshaler]()
	unmarshalerType     = reflect.TypeFor[Unmarshaler]()
	textMarshalerType   = reflect.TypeFor[encoding.TextMarshaler]()
	textUnmarshalerType = reflect.TypeFor[encoding.TextUnmarshaler]()
)

// structPlan describes how a struct type maps onto a dictionary.
type structPlan struct {
	fields []fieldPlan
	byKey  map[string]int // names and aliases to field index
	err    error
}

type fieldPlan struct {
	name      string
	aliases   []string
	index     []int
	typ       reflect.Type
	omitEmpty bool
	optional  bool
}

func (f *fieldPlan) required() bool {
	return !f.omitEmpty && !f.optional && f.typ.Kind() != reflect.Pointer
}

// planCache maps reflect.Type to *structPlan. Plans only record field
// metadata, so recursive types resolve lazily at bind time.
var planCache sync.Map

func planFor(t reflect.Type) (*structPlan, error) {
	if cached, ok := planCache.Load(t); ok {
		plan := cached.(*structPlan)
		return plan, plan.err
	}
	plan := buildPlan(t)
	actual, _ := planCache.LoadOrStore(t, plan)
	plan = actual.(*structPlan)
	return plan, plan.err
}

func buildPlan(t reflect.Type) *structPlan {
	plan := &structPlan{byKey: make(map[string]int)}
	collectFields(t, nil, plan)
	if plan.err != nil {
		return plan
	}
	for i, f := range plan.fields {
		for _, key := range append([]string{f.name}, f.aliases...) {
			if j, dup := plan.byKey[key]; dup {
				plan.err = fmt.Errorf("plist: %s: fields %s and %s both map to key %q: %w",
					t, plan.fields[j].name, f.name, key, ErrUnsupportedType)
				return plan
			}
			plan.byKey[key] = i
		}
	}
	return plan
}

// collectFields gathers exported fields, inlining untagged embedded
// structs.
func collectFields(t reflect.Type, prefix []int, plan *structPlan) {
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		tag, hasTag := sf.Tag.Lookup("plist")
		if tag == "-" {
			continue
		}
		index := append(append([]int(nil), prefix...), i)

		if sf.Anonymous && sf.Type.Kind() == reflect.Struct && (!hasTag || tagName(tag) == "") {
			collectFields(sf.Type, index, plan)
			continue
		}
		if !sf.IsExported() {
			continue
		}

		f := fieldPlan{name: lowerCamel(sf.Name), index: index, typ: sf.Type}
		if hasTag {
			parts := strings.Split(tag, ",")
			if parts[0] != "" {
				f.name = parts[0]
			}
			for _, opt := range parts[1:] {
				switch {
				case opt == "omitempty":
					f.omitEmpty = true
				case opt == "optional":
					f.optional = true
				case strings.HasPrefix(opt, "alias="):
					f.aliases = append(f.aliases, strings.TrimPrefix(opt, "alias="))
				case opt == "":
				default:
					plan.err = fmt.Errorf("plist: %s.%s: unknown tag option %q: %w", t, sf.Name, opt, ErrUnsupportedType)
					return
				}
			}
		}
		plan.fields = append(plan.fields, f)
	}
}

func tagName(tag string) string {
	name, _, _ := strings.Cut(tag, ",")
	return name
}

// lowerCamel derives a key from a Go field name: FamilyName → familyName,
// ID → id, URLPath → urlPath.
func lowerCamel(s string) string {
	runes := []rune(s)
	n := 0
	for n < len(runes) && unicode.IsUpper(runes[n]) {
		n++
	}
	switch {
	case n == 0:
		return s
	case n == len(runes):
		return strings.ToLower(s)
	case n > 1:
		n--
	}
	for i := 0; i < n; i++ {
		runes[i] = unicode.ToLower(runes[i])
	}
	return string(runes)
}

// ============================================================
// Errors
// ============================================================

func bindError(p *path, v *Value, sentinel error, format string, args ...any) *BindingError {
	return &BindingError{
		Path:    p.String(),
		Message: fmt.Sprintf(format, args...),
		Pos:     v.Pos(),
		Err:     sentinel,
	}
}

func mismatch(p *path, v *Value, expected string) *BindingError {
	e := bindError(p, v, ErrTypeMismatch, "expected %s, got %s", expected, v.Kind())
	e.Expected = expected
	e.Actual = v.Kind().String()
	return e
}
