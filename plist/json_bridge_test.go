package plist

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ============================================================
// JSON Bridge Tests
// ============================================================

func TestToJSON(t *testing.T) {
	v, err := Parse(`{ a = 1; b = (x, "42", 3.14000); c = <0001>; d = YES; e = {}; }`)
	require.NoError(t, err)

	got, err := ToJSON(v)
	require.NoError(t, err)
	assert.Equal(t, `{"a":1,"b":["x","42",3.14000],"c":"AAE=","d":true,"e":{}}`, string(got))

	got, err = ToJSONWithOpts(v, BridgeOpts{Extended: true})
	require.NoError(t, err)
	assert.Equal(t, `{"a":1,"b":["x","42",3.14000],"c":{"$data":"0001"},"d":true,"e":{}}`, string(got))
}

func TestToJSON_NormalizesNumbers(t *testing.T) {
	v, err := Parse(`(+5, .5, 5., 007, -0, 1E+05, -.25)`)
	require.NoError(t, err)
	got, err := ToJSON(v)
	require.NoError(t, err)
	assert.Equal(t, `[5,0.5,5.0,7,-0,1E+05,-0.25]`, string(got))
}

func TestToJSON_Indent(t *testing.T) {
	got, err := ToJSONWithOpts(Array(Int(1), String("a")), BridgeOpts{Indent: "  "})
	require.NoError(t, err)
	assert.Equal(t, "[\n  1,\n  \"a\"\n]", string(got))
}

func TestToJSON_Errors(t *testing.T) {
	_, err := ToJSON(nil)
	assert.ErrorIs(t, err, ErrNilValue)

	_, err = ToJSON(Array(Float(nan())))
	assert.ErrorIs(t, err, ErrInvalidNumber)
}

func TestFromJSON(t *testing.T) {
	input := `{
		// comment
		"zebra": 1,
		"apple": [true, "x", 2.50, -1e3],
		"nested": {"k": false},
	}`
	v, err := FromJSON([]byte(input))
	require.NoError(t, err)

	d, err := v.AsDict()
	require.NoError(t, err)
	assert.Equal(t, []string{"zebra", "apple", "nested"}, d.Keys())

	items, err := v.Get("apple").AsArray()
	require.NoError(t, err)
	require.Len(t, items, 4)
	assert.Equal(t, KindBoolean, items[0].Kind())
	n, _ := items[2].AsNumber()
	assert.Equal(t, "2.50", n.String())
	n, _ = items[3].AsNumber()
	assert.Equal(t, "-1e3", n.String())

	out, err := Serialize(v)
	require.NoError(t, err)
	assert.Contains(t, out, "2.50,")
}

func TestFromJSON_DataMarker(t *testing.T) {
	input := []byte(`{"blob": {"$data": "cafe"}}`)

	v, err := FromJSONWithOpts(input, BridgeOpts{Extended: true})
	require.NoError(t, err)
	b, err := v.Get("blob").AsData()
	require.NoError(t, err)
	assert.Equal(t, []byte{0xca, 0xfe}, b)

	v, err = FromJSON(input)
	require.NoError(t, err)
	assert.Equal(t, KindDictionary, v.Get("blob").Kind())

	_, err = FromJSONWithOpts([]byte(`{"$data": "zz"}`), BridgeOpts{Extended: true})
	assert.ErrorIs(t, err, ErrInvalidData)
}

func TestFromJSON_Errors(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		sentinel error
	}{
		{"null", `{"a": null}`, ErrUnsupportedValue},
		{"trailing value", `{} {}`, ErrTrailingContent},
		{"deep", strings.Repeat("[", DefaultMaxDepth+1) + strings.Repeat("]", DefaultMaxDepth+1), ErrMaxDepth},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FromJSON([]byte(tt.input))
			assert.ErrorIs(t, err, tt.sentinel)
		})
	}

	for _, bad := range []string{``, `{"a": }`, `[1, 2`, `{"a" 1}`} {
		_, err := FromJSON([]byte(bad))
		assert.Error(t, err, bad)
	}
}

func TestJSON_ExtendedRoundTrip(t *testing.T) {
	inputs := []string{
		`{ a = 1; b = (x, "42", 3.14000); c = <00ff>; d = NO; e = (); }`,
		`( <>, { k = <01>; }, "with \"quotes\"" )`,
	}
	for _, input := range inputs {
		v, err := Parse(input)
		require.NoError(t, err)

		js, err := ToJSONWithOpts(v, BridgeOpts{Extended: true})
		require.NoError(t, err)
		back, err := FromJSONWithOpts(js, BridgeOpts{Extended: true})
		require.NoError(t, err, string(js))
		assert.True(t, Equal(v, back), "round trip changed tree: %s", js)
	}
}
