package plist

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

// Lexical errors.
var (
	ErrUnterminatedString  = errors.New("unterminated string")
	ErrUnterminatedComment = errors.New("unterminated comment")
	ErrUnterminatedData    = errors.New("unterminated data")
	ErrInvalidEscape       = errors.New("invalid escape sequence")
	ErrInvalidData         = errors.New("invalid data literal")
	ErrInvalidCharacter    = errors.New("invalid character")
)

// Syntax errors.
var (
	ErrUnexpectedToken  = errors.New("unexpected token")
	ErrUnexpectedEOF    = errors.New("unexpected end of input")
	ErrUnbalanced       = errors.New("unbalanced delimiter")
	ErrMissingSeparator = errors.New("missing separator")
	ErrTrailingContent  = errors.New("trailing content")
	ErrDuplicateKey     = errors.New("duplicate key")
	ErrMaxDepth         = errors.New("maximum nesting depth exceeded")
	ErrAliasExpansion   = errors.New("alias expansion limit exceeded")
)

// Binding errors.
var (
	ErrMissingField     = errors.New("missing field")
	ErrUnknownField     = errors.New("unknown field")
	ErrTypeMismatch     = errors.New("type mismatch")
	ErrOverflow         = errors.New("numeric overflow")
	ErrUnsupportedType  = errors.New("unsupported type")
	ErrUnsupportedValue = errors.New("unsupported value")
)

// Serialization errors.
var (
	ErrInvalidString = errors.New("invalid UTF-8 in string")
	ErrInvalidNumber = errors.New("invalid number literal")
	ErrNilValue      = errors.New("nil value")
)

// LexError is a malformed token.
type LexError struct {
	Message string
	Pos     Position
	Err     error
}

func (e *LexError) Error() string {
	return fmt.Sprintf("%s at %s", e.Message, e.Pos)
}

func (e *LexError) Unwrap() error { return e.Err }

// ParseError represents a parsing error with location.
type ParseError struct {
	Message  string
	Pos      Position
	Expected string
	Found    string
	Err      error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s at %s", e.Message, e.Pos)
}

func (e *ParseError) Unwrap() error { return e.Err }

// BindingError reports a mismatch between a value tree and a Go type.
// Pos is set when the offending value came from parsed text.
type BindingError struct {
	Path     string
	Message  string
	Expected string
	Actual   string
	Pos      Position
	Err      error
}

func (e *BindingError) Error() string {
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

func (e *BindingError) Unwrap() error { return e.Err }

// SerializeError reports a value tree that violates the data model.
type SerializeError struct {
	Path    string
	Message string
	Err     error
}

func (e *SerializeError) Error() string {
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

func (e *SerializeError) Unwrap() error { return e.Err }

// errorPos extracts a source position from err.
func errorPos(err error) (Position, bool) {
	var lexErr *LexError
	if errors.As(err, &lexErr) {
		return lexErr.Pos, true
	}
	var parseErr *ParseError
	if errors.As(err, &parseErr) {
		return parseErr.Pos, true
	}
	var bindErr *BindingError
	if errors.As(err, &bindErr) && bindErr.Pos.IsValid() {
		return bindErr.Pos, true
	}
	return Position{}, false
}

// Diagnostic renders err against the source text it came from:
//
//	3:9: missing ';' after value of "a"
//	    a = 1 b = 2;
//	          ^
//
// Errors without a position are returned as their message.
func Diagnostic(src string, err error) string {
	if err == nil {
		return ""
	}
	pos, ok := errorPos(err)
	if !ok {
		return err.Error()
	}

	msg := err.Error()
	var lexErr *LexError
	var parseErr *ParseError
	switch {
	case errors.As(err, &lexErr):
		msg = lexErr.Message
	case errors.As(err, &parseErr):
		msg = parseErr.Message
	}

	offset := pos.Offset
	if offset > len(src) {
		offset = len(src)
	}
	start := strings.LastIndexByte(src[:offset], '\n') + 1
	end := strings.IndexByte(src[offset:], '\n')
	if end < 0 {
		end = len(src)
	} else {
		end += offset
	}
	line := strings.TrimSuffix(src[start:end], "\r")

	var sb strings.Builder
	fmt.Fprintf(&sb, "%s: %s\n", pos, msg)
	sb.WriteString("    ")
	sb.WriteString(line)
	sb.WriteString("\n    ")
	for _, r := range src[start:offset] {
		if r == '\t' {
			sb.WriteByte('\t')
		} else if r != utf8.RuneError {
			sb.WriteByte(' ')
		}
	}
	sb.WriteByte('^')
	return sb.String()
}
