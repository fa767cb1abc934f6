package plist

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ============================================================
// YAML Bridge Tests
// ============================================================

func TestYAML_RoundTrip(t *testing.T) {
	v, err := Parse(`{ zebra = 1; apple = (x, "42", 3.14000, "YES"); blob = <0001>; flag = YES; empty = {}; }`)
	require.NoError(t, err)

	out, err := ToYAML(v)
	require.NoError(t, err)
	text := string(out)
	assert.Contains(t, text, `"42"`)
	assert.Contains(t, text, "!!binary AAE=")
	assert.Contains(t, text, "flag: true")
	assert.Less(t, strings.Index(text, "zebra"), strings.Index(text, "apple"))

	back, err := FromYAML(out)
	require.NoError(t, err, text)
	assert.True(t, Equal(v, back), "round trip changed tree:\n%s", text)
}

func TestFromYAML_Scalars(t *testing.T) {
	v, err := FromYAML([]byte(`
name: Regular
weight: 400
ratio: 0.50
hex: 0x1F
on: true
when: 2001-12-14
quoted: "123"
`))
	require.NoError(t, err)

	d, _ := v.AsDict()
	assert.Equal(t, []string{"name", "weight", "ratio", "hex", "on", "when", "quoted"}, d.Keys())

	n, _ := v.Get("weight").AsNumber()
	assert.Equal(t, "400", n.String())
	n, _ = v.Get("ratio").AsNumber()
	assert.Equal(t, "0.50", n.String())
	n, _ = v.Get("hex").AsNumber()
	assert.Equal(t, "31", n.String())
	b, _ := v.Get("on").AsBool()
	assert.True(t, b)
	s, _ := v.Get("when").AsString()
	assert.Equal(t, "2001-12-14", s)
	assert.Equal(t, KindString, v.Get("quoted").Kind())
}

func TestFromYAML_Aliases(t *testing.T) {
	v, err := FromYAML([]byte(`
base: &b
  x: 1
copy: *b
`))
	require.NoError(t, err)
	assert.True(t, Equal(v.Get("base"), v.Get("copy")))

	_, err = FromYAML([]byte(`
base: &b
  x: 1
merged:
  <<: *b
  y: 2
`))
	assert.ErrorIs(t, err, ErrUnsupportedValue)
}

func TestFromYAML_AliasExpansionLimit(t *testing.T) {
	// Each level references the previous one ten times: 10^6 leaves.
	var sb strings.Builder
	sb.WriteString("l0: &a0 x\n")
	for i := 1; i <= 6; i++ {
		fmt.Fprintf(&sb, "l%d: &a%d [", i, i)
		for j := range 10 {
			if j > 0 {
				sb.WriteString(", ")
			}
			fmt.Fprintf(&sb, "*a%d", i-1)
		}
		sb.WriteString("]\n")
	}

	_, err := FromYAML([]byte(sb.String()))
	assert.ErrorIs(t, err, ErrAliasExpansion)

	// Two levels stay well inside the limit.
	v, err := FromYAML([]byte("l0: &a0 x\nl1: &a1 [*a0, *a0]\nl2: [*a1, *a1, *a1]\n"))
	require.NoError(t, err)
	assert.Equal(t, 3, v.Get("l2").Len())
}

func TestFromYAML_MultilineBinary(t *testing.T) {
	v, err := FromYAML([]byte("blob: !!binary |\n  AAEC\n  AwQF\n"))
	require.NoError(t, err)
	b, err := v.Get("blob").AsData()
	require.NoError(t, err)
	assert.Equal(t, []byte{0, 1, 2, 3, 4, 5}, b)
}

func TestFromYAML_Errors(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		sentinel error
	}{
		{"null", "a: ~\n", ErrUnsupportedValue},
		{"infinity", "a: .inf\n", ErrUnsupportedValue},
		{"nan", "a: .nan\n", ErrUnsupportedValue},
		{"empty", "", ErrUnexpectedEOF},
		{"bad binary", "a: !!binary '%%%'\n", ErrInvalidData},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FromYAML([]byte(tt.input))
			assert.ErrorIs(t, err, tt.sentinel)
		})
	}

	_, err := FromYAML([]byte("a: [1, 2"))
	assert.Error(t, err)
}
