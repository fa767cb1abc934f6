package plist

import (
	"fmt"
	"math"
	"net/netip"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ============================================================
// Test Types
// ============================================================

type testMaster struct {
	ID     string  `plist:"id"`
	Name   string  `plist:"name"`
	Weight float64 `plist:"weightValue,optional,alias=weight"`
}

type testFont struct {
	FamilyName string `plist:"familyName"`
	UnitsPerEm int
	Masters    []testMaster `plist:"masters"`
	Version    *int         `plist:"versionMajor"`
	Tags       []string     `plist:",omitempty"`
	Scratch    string       `plist:"-"`
}

type testRecord struct {
	Name  string
	Count int
}

// testNode reads and writes the "x y TYPE" node strings of a glyph path.
type testNode struct {
	X, Y float64
	Type string
}

func (n *testNode) UnmarshalPlist(v *Value) error {
	s, err := v.AsString()
	if err != nil {
		return err
	}
	_, err = fmt.Sscanf(s, "%g %g %s", &n.X, &n.Y, &n.Type)
	return err
}

func (n testNode) MarshalPlist() (*Value, error) {
	return String(fmt.Sprintf("%g %g %s", n.X, n.Y, n.Type)), nil
}

type testPath struct {
	Closed bool       `plist:"closed"`
	Nodes  []testNode `plist:"nodes"`
}

type testComponent struct {
	Name     string
	Children []testComponent `plist:",omitempty"`
}

type testBase struct {
	ID string `plist:"id"`
}

type testGlyph struct {
	testBase
	Name string
}

const fontSource = `{
    familyName = "My Font";
    unitsPerEm = 1000;
    masters = (
        { id = m01; name = Regular; weightValue = 400; },
        { id = m02; name = Bold; weight = 700.5; },
        { id = m03; name = 5; }
    );
    versionMajor = 2;
    unknownKey = ignored;
}`

// ============================================================
// Decode Tests
// ============================================================

func TestDecode_Font(t *testing.T) {
	font, err := DecodeText[testFont](fontSource)
	require.NoError(t, err)

	two := 2
	want := testFont{
		FamilyName: "My Font",
		UnitsPerEm: 1000,
		Masters: []testMaster{
			{ID: "m01", Name: "Regular", Weight: 400},
			{ID: "m02", Name: "Bold", Weight: 700.5},
			{ID: "m03", Name: "5"},
		},
		Version: &two,
	}
	if diff := cmp.Diff(want, font); diff != "" {
		t.Errorf("decoded font mismatch (-want +got):\n%s", diff)
	}
}

func TestDecode_ErrorPath(t *testing.T) {
	src := `{ familyName = x; unitsPerEm = 1; masters = ({id = a; name = b;}, {id = c; name = d;}, {id = e; name = ();}); }`
	_, err := DecodeText[testFont](src)
	require.ErrorIs(t, err, ErrTypeMismatch)

	var bindErr *BindingError
	require.ErrorAs(t, err, &bindErr)
	assert.Equal(t, "root.masters[2].name", bindErr.Path)
	assert.Equal(t, "string", bindErr.Expected)
	assert.Equal(t, "array", bindErr.Actual)
	assert.Equal(t, 1, bindErr.Pos.Line)
	assert.Contains(t, err.Error(), "root.masters[2].name: expected string, got array")
}

func TestDecode_Strictness(t *testing.T) {
	v, err := Parse(`{ name = "X"; }`)
	require.NoError(t, err)
	_, err = Decode[testRecord](v)
	require.ErrorIs(t, err, ErrMissingField)
	var bindErr *BindingError
	require.ErrorAs(t, err, &bindErr)
	assert.Equal(t, "root.count", bindErr.Path)

	v, err = Parse(`{ name = "X"; count = 3; extra = 1; }`)
	require.NoError(t, err)
	rec, err := Decode[testRecord](v)
	require.NoError(t, err)
	assert.Equal(t, testRecord{Name: "X", Count: 3}, rec)

	_, err = DecodeWithOptions[testRecord](v, BindOptions{Strict: true})
	require.ErrorIs(t, err, ErrUnknownField)
	require.ErrorAs(t, err, &bindErr)
	assert.Equal(t, "root.extra", bindErr.Path)
}

func TestDecode_Scalars(t *testing.T) {
	type scalars struct {
		S   string
		N   string
		B   bool
		One bool
		I8  int8
		U16 uint16
		F32 float32
		F64 float64
	}
	got, err := DecodeText[scalars](`{ s = hello; n = 3.14000; b = YES; one = 1; i8 = -128; u16 = 65535; f32 = 0.5; f64 = 1e3; }`)
	require.NoError(t, err)
	assert.Equal(t, scalars{S: "hello", N: "3.14000", B: true, One: true, I8: -128, U16: 65535, F32: 0.5, F64: 1000}, got)
}

func TestDecode_Errors(t *testing.T) {
	type small struct {
		Small int8
	}
	type unsigned struct {
		U uint8
	}
	type flag struct {
		Flag bool
	}
	type whole struct {
		N int
	}
	tests := []struct {
		name     string
		decode   func() error
		sentinel error
		path     string
	}{
		{"int overflow", func() error { _, err := DecodeText[small](`{ small = 300; }`); return err }, ErrOverflow, "root.small"},
		{"negative unsigned", func() error { _, err := DecodeText[unsigned](`{ u = -1; }`); return err }, ErrOverflow, "root.u"},
		{"fraction into int", func() error { _, err := DecodeText[whole](`{ n = 2.5; }`); return err }, ErrTypeMismatch, "root.n"},
		{"string into int", func() error { _, err := DecodeText[whole](`{ n = "2"; }`); return err }, ErrTypeMismatch, "root.n"},
		{"bool from 2", func() error { _, err := DecodeText[flag](`{ flag = 2; }`); return err }, ErrTypeMismatch, "root.flag"},
		{"array into struct", func() error { _, err := DecodeText[whole](`(1)`); return err }, ErrTypeMismatch, "root"},
		{"tuple length", func() error { _, err := DecodeText[[2]float64](`(1, 2, 3)`); return err }, ErrTypeMismatch, "root"},
		{"byte array length", func() error { _, err := DecodeText[[4]byte](`<0102>`); return err }, ErrTypeMismatch, "root"},
		{"int map keys", func() error { _, err := DecodeText[map[int]string](`{ a = b; }`); return err }, ErrUnsupportedType, "root"},
		{"channel", func() error { _, err := DecodeText[chan int](`x`); return err }, ErrUnsupportedType, "root"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.decode()
			require.ErrorIs(t, err, tt.sentinel)
			var bindErr *BindingError
			require.ErrorAs(t, err, &bindErr)
			assert.Equal(t, tt.path, bindErr.Path)
		})
	}
}

func TestDecode_Containers(t *testing.T) {
	type containers struct {
		Counts map[string]int
		Point  [2]float64
		Blob   []byte
		Hash   [4]byte
		Opt    *string
		Raw    *Value
		Any    any
		Dict   *Dict
	}
	got, err := DecodeText[containers](`{
		counts = { b = 2; a = 1; };
		point = (1.5, -2);
		blob = <0102>;
		hash = <01020304>;
		raw = (x, y);
		any = { k = v; };
		dict = { z = 1; };
	}`)
	require.NoError(t, err)

	assert.Equal(t, map[string]int{"a": 1, "b": 2}, got.Counts)
	assert.Equal(t, [2]float64{1.5, -2}, got.Point)
	assert.Equal(t, []byte{1, 2}, got.Blob)
	assert.Equal(t, [4]byte{1, 2, 3, 4}, got.Hash)
	assert.Nil(t, got.Opt)
	assert.Equal(t, 2, got.Raw.Len())

	anyValue, ok := got.Any.(*Value)
	require.True(t, ok, "any should hold *Value, got %T", got.Any)
	assert.Equal(t, KindDictionary, anyValue.Kind())
	assert.Equal(t, []string{"z"}, got.Dict.Keys())
}

func TestDecode_CustomUnmarshaler(t *testing.T) {
	p, err := DecodeText[testPath](`{ closed = 1; nodes = ("354 0 LINE", "10.5 -2 CURVE"); }`)
	require.NoError(t, err)
	want := testPath{
		Closed: true,
		Nodes:  []testNode{{354, 0, "LINE"}, {10.5, -2, "CURVE"}},
	}
	if diff := cmp.Diff(want, p); diff != "" {
		t.Errorf("path mismatch (-want +got):\n%s", diff)
	}

	_, err = DecodeText[testPath](`{ closed = 0; nodes = ((1, 2)); }`)
	require.ErrorIs(t, err, ErrTypeMismatch)
	var bindErr *BindingError
	require.ErrorAs(t, err, &bindErr)
	assert.Equal(t, "root.nodes[0]", bindErr.Path)
}

func TestDecode_TextUnmarshaler(t *testing.T) {
	type server struct {
		Addr netip.Addr
	}
	got, err := DecodeText[server](`{ addr = 192.168.0.1; }`)
	require.NoError(t, err)
	assert.Equal(t, netip.MustParseAddr("192.168.0.1"), got.Addr)

	_, err = DecodeText[server](`{ addr = "not an address"; }`)
	var bindErr *BindingError
	require.ErrorAs(t, err, &bindErr)
	assert.Equal(t, "root.addr", bindErr.Path)
}

func TestBind_NumberField(t *testing.T) {
	type measure struct {
		N Number
		M *Number
	}
	got, err := DecodeText[measure](`{ n = 3.14000; m = 1e3; }`)
	require.NoError(t, err)
	assert.Equal(t, "3.14000", got.N.String())
	require.NotNil(t, got.M)
	assert.Equal(t, "1e3", got.M.String())

	text, err := EncodeText(&got)
	require.NoError(t, err)
	assert.Equal(t, "{\n    n = 3.14000;\n    m = 1e3;\n}", text)

	_, err = DecodeText[measure](`{ n = abc; }`)
	var bindErr *BindingError
	require.ErrorAs(t, err, &bindErr)
	assert.ErrorIs(t, err, ErrTypeMismatch)
	assert.Equal(t, "root.n", bindErr.Path)
	assert.Equal(t, "number", bindErr.Expected)

	text, err = EncodeText(&measure{})
	require.NoError(t, err)
	assert.Equal(t, "{\n    n = 0;\n}", text)

	_, err = EncodeText(&measure{N: Number{lit: "1x"}})
	assert.ErrorIs(t, err, ErrInvalidNumber)
}

func TestDecode_Recursive(t *testing.T) {
	src := `{ name = a; children = ({ name = b; children = ({ name = c; }); }); }`
	got, err := DecodeText[testComponent](src)
	require.NoError(t, err)
	want := testComponent{
		Name: "a",
		Children: []testComponent{
			{Name: "b", Children: []testComponent{{Name: "c"}}},
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("component mismatch (-want +got):\n%s", diff)
	}

	v, err := Parse(src)
	require.NoError(t, err)
	_, err = DecodeWithOptions[testComponent](v, BindOptions{MaxDepth: 2})
	assert.ErrorIs(t, err, ErrMaxDepth)
}

func TestDecode_EmbeddedStruct(t *testing.T) {
	got, err := DecodeText[testGlyph](`{ id = g1; name = A; }`)
	require.NoError(t, err)
	assert.Equal(t, "g1", got.ID)
	assert.Equal(t, "A", got.Name)

	_, err = DecodeText[testGlyph](`{ name = A; }`)
	assert.ErrorIs(t, err, ErrMissingField)
}

func TestDecodeInto_Target(t *testing.T) {
	v := String("x")
	var s string
	err := DecodeInto(v, s, DefaultBindOptions())
	require.ErrorIs(t, err, ErrUnsupportedType)

	require.NoError(t, DecodeInto(v, &s, DefaultBindOptions()))
	assert.Equal(t, "x", s)

	_, err = Decode[string](nil)
	assert.ErrorIs(t, err, ErrNilValue)
}

func TestDecode_BadPlans(t *testing.T) {
	type duplicate struct {
		A int `plist:"x"`
		B int `plist:"x"`
	}
	type badOption struct {
		A int `plist:"a,sometimes"`
	}
	type aliasClash struct {
		A int `plist:"a,alias=b"`
		B int
	}

	_, err := DecodeText[duplicate](`{ x = 1; }`)
	assert.ErrorIs(t, err, ErrUnsupportedType)
	_, err = DecodeText[badOption](`{ a = 1; }`)
	assert.ErrorIs(t, err, ErrUnsupportedType)
	_, err = DecodeText[aliasClash](`{ a = 1; }`)
	assert.ErrorIs(t, err, ErrUnsupportedType)

	_, err = Encode(&duplicate{})
	assert.ErrorIs(t, err, ErrUnsupportedType)
}

// ============================================================
// Encode Tests
// ============================================================

func TestEncode_Font(t *testing.T) {
	font := testFont{
		FamilyName: "My Font",
		UnitsPerEm: 1000,
		Masters: []testMaster{
			{ID: "m01", Name: "Regular", Weight: 400},
		},
		Scratch: "never written",
	}
	text, err := EncodeText(&font)
	require.NoError(t, err)

	want := `{
    familyName = "My Font";
    unitsPerEm = 1000;
    masters = (
        {
            id = m01;
            name = Regular;
            weightValue = 400;
        }
    );
}`
	assert.Equal(t, want, text)

	back, err := DecodeText[testFont](text)
	require.NoError(t, err)
	font.Scratch = ""
	if diff := cmp.Diff(font, back); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestEncode_Containers(t *testing.T) {
	type containers struct {
		Counts map[string]int
		Point  [2]float64
		Blob   []byte
		Hash   [2]byte
		Ptr    *int
		Raw    *Value
		Node   testNode
		Addr   netip.Addr
		Empty  []string `plist:",omitempty"`
		Zero   int      `plist:"zero,omitempty"`
	}
	n := 7
	v, err := Encode(&containers{
		Counts: map[string]int{"b": 2, "a": 1},
		Point:  [2]float64{1.5, -2},
		Blob:   []byte{0xde, 0xad},
		Hash:   [2]byte{1, 2},
		Ptr:    &n,
		Raw:    Array(String("x")),
		Node:   testNode{1, 2, "LINE"},
		Addr:   netip.MustParseAddr("10.0.0.1"),
	})
	require.NoError(t, err)

	d, err := v.AsDict()
	require.NoError(t, err)
	assert.Equal(t, []string{"counts", "point", "blob", "hash", "ptr", "raw", "node", "addr"}, d.Keys())

	counts, _ := v.Get("counts").AsDict()
	assert.Equal(t, []string{"a", "b"}, counts.Keys())

	out, err := Serialize(v.Get("point"))
	require.NoError(t, err)
	assert.Equal(t, "(\n    1.5,\n    -2\n)", out)

	blob, _ := v.Get("blob").AsData()
	assert.Equal(t, []byte{0xde, 0xad}, blob)
	hash, _ := v.Get("hash").AsData()
	assert.Equal(t, []byte{1, 2}, hash)

	node, _ := v.Get("node").AsString()
	assert.Equal(t, "1 2 LINE", node)
	addr, _ := v.Get("addr").AsString()
	assert.Equal(t, "10.0.0.1", addr)
}

func TestEncode_Errors(t *testing.T) {
	type weighted struct {
		W float64
	}
	type badString struct {
		S string
	}
	type listOfPointers struct {
		Items []*int
	}
	type channel struct {
		C chan int
	}

	tests := []struct {
		name     string
		encode   func() error
		sentinel error
		path     string
	}{
		{"NaN", func() error { _, err := Encode(&weighted{W: math.NaN()}); return err }, ErrUnsupportedValue, "root.w"},
		{"Inf", func() error { _, err := Encode(&weighted{W: math.Inf(1)}); return err }, ErrUnsupportedValue, "root.w"},
		{"invalid utf8", func() error { _, err := Encode(&badString{S: "\xff"}); return err }, ErrUnsupportedValue, "root.s"},
		{"nil element", func() error { _, err := Encode(&listOfPointers{Items: []*int{nil}}); return err }, ErrNilValue, "root.items[0]"},
		{"channel", func() error { _, err := Encode(&channel{C: make(chan int)}); return err }, ErrUnsupportedType, "root.c"},
		{"int map", func() error { _, err := Encode(&map[int]int{1: 1}); return err }, ErrUnsupportedType, "root"},
		{"nil root", func() error { _, err := Encode[int](nil); return err }, ErrNilValue, "root"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.encode()
			require.ErrorIs(t, err, tt.sentinel)
			var bindErr *BindingError
			require.ErrorAs(t, err, &bindErr)
			assert.Equal(t, tt.path, bindErr.Path)
		})
	}
}

func TestEncode_NilPointerRootIsAbsent(t *testing.T) {
	var p *int
	_, err := Encode(&p)
	assert.ErrorIs(t, err, ErrNilValue)
}

func TestEncode_GlyphsOptions(t *testing.T) {
	type layer struct {
		Width   float64
		Visible bool
		Hidden  bool
	}
	v, err := EncodeWithOptions(&layer{Width: 1.23456789, Visible: true}, GlyphsBindOptions())
	require.NoError(t, err)

	w, _ := v.Get("width").AsNumber()
	assert.Equal(t, "1.2346", w.String())
	visible, _ := v.Get("visible").AsNumber()
	assert.Equal(t, "1", visible.String())
	hidden, _ := v.Get("hidden").AsNumber()
	assert.Equal(t, "0", hidden.String())

	back, err := Decode[layer](v)
	require.NoError(t, err)
	assert.Equal(t, layer{Width: 1.2346, Visible: true}, back)

	v, err = Encode(&layer{Width: 1.23456789})
	require.NoError(t, err)
	w, _ = v.Get("width").AsNumber()
	assert.Equal(t, "1.23456789", w.String())
	assert.Equal(t, KindBoolean, v.Get("visible").Kind())
}

func TestEncode_Recursive(t *testing.T) {
	c := testComponent{Name: "a", Children: []testComponent{{Name: "b"}}}
	text, err := EncodeText(&c)
	require.NoError(t, err)
	assert.Equal(t, "{\n    name = a;\n    children = (\n        {\n            name = b;\n        }\n    );\n}", text)

	deep := testComponent{Name: "a", Children: []testComponent{{Name: "b", Children: []testComponent{{Name: "c"}}}}}
	_, err = EncodeWithOptions(&deep, BindOptions{MaxDepth: 2})
	assert.ErrorIs(t, err, ErrMaxDepth)
}

func TestEncode_EmbeddedStruct(t *testing.T) {
	g := testGlyph{testBase: testBase{ID: "g1"}, Name: "A"}
	v, err := Encode(&g)
	require.NoError(t, err)
	d, _ := v.AsDict()
	assert.Equal(t, []string{"id", "name"}, d.Keys())
}

func TestLowerCamel(t *testing.T) {
	tests := map[string]string{
		"FamilyName": "familyName",
		"ID":         "id",
		"URLPath":    "urlPath",
		"HTTPServer": "httpServer",
		"X":          "x",
		"A1":         "a1",
		"name":       "name",
	}
	for in, want := range tests {
		assert.Equal(t, want, lowerCamel(in), in)
	}
}
