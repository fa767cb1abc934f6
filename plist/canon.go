package plist

import (
	"fmt"
	"strings"
)

// ============================================================
// Word Classification
// ============================================================

// isBareChar reports whether ch may appear in an unquoted word.
// Alphabet: ASCII letters, digits, . _ $ / : - +
func isBareChar(ch byte) bool {
	switch {
	case ch >= 'a' && ch <= 'z', ch >= 'A' && ch <= 'Z', ch >= '0' && ch <= '9':
		return true
	}
	switch ch {
	case '.', '_', '$', '/', ':', '-', '+':
		return true
	}
	return false
}

// isNumeric reports whether s matches the numeric grammar:
//
//	[+-]? ( digits ( "." digits? )? | "." digits ) ( [eE] [+-]? digits )?
func isNumeric(s string) bool {
	i := 0
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		i++
	}

	intDigits := scanDigits(s, i)
	i += intDigits
	fracDigits := 0
	if i < len(s) && s[i] == '.' {
		i++
		fracDigits = scanDigits(s, i)
		i += fracDigits
	}
	if intDigits == 0 && fracDigits == 0 {
		return false
	}

	if i < len(s) && (s[i] == 'e' || s[i] == 'E') {
		i++
		if i < len(s) && (s[i] == '+' || s[i] == '-') {
			i++
		}
		expDigits := scanDigits(s, i)
		if expDigits == 0 {
			return false
		}
		i += expDigits
	}
	return i == len(s)
}

func scanDigits(s string, i int) int {
	n := 0
	for i+n < len(s) && s[i+n] >= '0' && s[i+n] <= '9' {
		n++
	}
	return n
}

// wordValue classifies an unquoted word.
func wordValue(word string) *Value {
	if isNumeric(word) {
		return &Value{kind: KindNumber, str: word}
	}
	switch word {
	case "true", "YES":
		return Bool(true)
	case "false", "NO":
		return Bool(false)
	}
	return String(word)
}

// ============================================================
// String Quoting
// ============================================================

// isBareSafe reports whether s reads back as the same String when written
// unquoted.
func isBareSafe(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if !isBareChar(s[i]) {
			return false
		}
	}
	if strings.HasPrefix(s, "//") || strings.HasPrefix(s, "/*") {
		return false
	}
	return wordValue(s).kind == KindString
}

// canonString returns s bare if safe, otherwise quoted.
func canonString(s string) string {
	if isBareSafe(s) {
		return s
	}
	return quoteString(s)
}

// quoteString returns a double-quoted string with minimal escapes.
func quoteString(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 2)
	b.WriteByte('"')

	for _, r := range s {
		switch r {
		case '\\':
			b.WriteString(`\\`)
		case '"':
			b.WriteString(`\"`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		default:
			if r < 0x20 || r == 0x7F {
				fmt.Fprintf(&b, `\%03o`, r)
			} else {
				b.WriteRune(r)
			}
		}
	}

	b.WriteByte('"')
	return b.String()
}
