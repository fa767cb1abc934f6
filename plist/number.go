package plist

import (
	"fmt"
	"math"
	"math/big"
	"strconv"
	"strings"
)

// Number is a numeric literal. The text is kept exactly as written so that
// parse and serialize round trip without loss.
type Number struct {
	lit string
}

// ParseNumber validates lit against the numeric grammar.
func ParseNumber(lit string) (Number, error) {
	if !isNumeric(lit) {
		return Number{}, fmt.Errorf("plist: %q: %w", lit, ErrInvalidNumber)
	}
	return Number{lit: lit}, nil
}

// IntNumber returns the literal for n.
func IntNumber(n int64) Number {
	return Number{lit: strconv.FormatInt(n, 10)}
}

// UintNumber returns the literal for n.
func UintNumber(n uint64) Number {
	return Number{lit: strconv.FormatUint(n, 10)}
}

// FloatNumber returns the shortest literal that reads back as f at the
// given bit size (32 or 64). NaN and infinities produce a literal that
// Serialize rejects.
func FloatNumber(f float64, bitSize int) Number {
	return Number{lit: formatFloat(f, bitSize)}
}

func formatFloat(f float64, bitSize int) string {
	abs := math.Abs(f)
	if abs != 0 && (abs < 1e-6 || abs >= 1e21) {
		return strconv.FormatFloat(f, 'g', -1, bitSize)
	}
	return strconv.FormatFloat(f, 'f', -1, bitSize)
}

// String returns the literal text.
func (n Number) String() string {
	return n.lit
}

// IsInteger reports whether the literal has neither a fraction nor an
// exponent.
func (n Number) IsInteger() bool {
	return n.lit != "" && !strings.ContainsAny(n.lit, ".eE")
}

// Int64 converts the number to int64. Integral values written with a
// fraction or exponent ("600.0", "1e3") are accepted.
func (n Number) Int64() (int64, error) {
	if n.IsInteger() {
		i, err := strconv.ParseInt(strings.TrimPrefix(n.lit, "+"), 10, 64)
		if err != nil {
			return 0, n.rangeError("int64")
		}
		return i, nil
	}
	b, err := n.integral()
	if err != nil {
		return 0, err
	}
	if !b.IsInt64() {
		return 0, n.rangeError("int64")
	}
	return b.Int64(), nil
}

// Uint64 converts the number to uint64.
func (n Number) Uint64() (uint64, error) {
	if n.IsInteger() {
		lit := strings.TrimPrefix(n.lit, "+")
		if strings.HasPrefix(lit, "-") {
			if strings.Trim(lit[1:], "0") == "" {
				return 0, nil
			}
			return 0, n.rangeError("uint64")
		}
		u, err := strconv.ParseUint(lit, 10, 64)
		if err != nil {
			return 0, n.rangeError("uint64")
		}
		return u, nil
	}
	b, err := n.integral()
	if err != nil {
		return 0, err
	}
	if !b.IsUint64() {
		return 0, n.rangeError("uint64")
	}
	return b.Uint64(), nil
}

// Float64 converts the number to float64. Values beyond the float64 range
// are an ErrOverflow.
func (n Number) Float64() (float64, error) {
	f, err := strconv.ParseFloat(n.normalized(), 64)
	if err != nil {
		return 0, n.rangeError("float64")
	}
	return f, nil
}

// BigInt returns the exact integer value, or false if the literal is not
// integral.
func (n Number) BigInt() (*big.Int, bool) {
	b, err := n.integral()
	if err != nil {
		return nil, false
	}
	return b, true
}

// BigFloat returns the value as an exact rational.
func (n Number) BigFloat() (*big.Rat, bool) {
	r, ok := new(big.Rat).SetString(n.normalized())
	return r, ok
}

func (n Number) integral() (*big.Int, error) {
	if n.IsInteger() {
		b, ok := new(big.Int).SetString(strings.TrimPrefix(n.lit, "+"), 10)
		if !ok {
			return nil, fmt.Errorf("plist: %q: %w", n.lit, ErrInvalidNumber)
		}
		return b, nil
	}
	r, ok := n.BigFloat()
	if !ok {
		return nil, fmt.Errorf("plist: %q: %w", n.lit, ErrInvalidNumber)
	}
	if !r.IsInt() {
		return nil, fmt.Errorf("plist: number %s is not an integer: %w", n.lit, ErrTypeMismatch)
	}
	return r.Num(), nil
}

func (n Number) rangeError(target string) error {
	return fmt.Errorf("plist: number %s does not fit in %s: %w", n.lit, target, ErrOverflow)
}

// normalized rewrites the literal into JSON number syntax: no leading '+',
// no redundant leading zeros and a digit on both sides of the point.
func (n Number) normalized() string {
	return normalizeNumber(n.lit)
}

func normalizeNumber(lit string) string {
	var sb strings.Builder
	s := lit
	if s != "" && (s[0] == '+' || s[0] == '-') {
		if s[0] == '-' {
			sb.WriteByte('-')
		}
		s = s[1:]
	}

	mant, exp := s, ""
	if i := strings.IndexAny(s, "eE"); i >= 0 {
		mant, exp = s[:i], s[i:]
	}
	intPart, frac, hasPoint := strings.Cut(mant, ".")

	intPart = strings.TrimLeft(intPart, "0")
	if intPart == "" {
		intPart = "0"
	}
	sb.WriteString(intPart)
	if hasPoint {
		if frac == "" {
			frac = "0"
		}
		sb.WriteByte('.')
		sb.WriteString(frac)
	}
	sb.WriteString(exp)
	return sb.String()
}
