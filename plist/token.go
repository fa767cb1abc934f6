package plist

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// TokenType represents the type of a lexer token.
type TokenType uint8

const (
	TokenEOF TokenType = iota
	TokenError

	// Structural
	TokenLBrace    // {
	TokenRBrace    // }
	TokenLParen    // (
	TokenRParen    // )
	TokenEq        // =
	TokenSemicolon // ;
	TokenComma     // ,

	// Literals
	TokenString // "quoted string", already unescaped
	TokenWord   // unquoted run of the bare alphabet
	TokenData   // <hex>, digits only
)

// String returns the token type name.
func (t TokenType) String() string {
	switch t {
	case TokenEOF:
		return "end of input"
	case TokenError:
		return "error"
	case TokenLBrace:
		return "'{'"
	case TokenRBrace:
		return "'}'"
	case TokenLParen:
		return "'('"
	case TokenRParen:
		return "')'"
	case TokenEq:
		return "'='"
	case TokenSemicolon:
		return "';'"
	case TokenComma:
		return "','"
	case TokenString:
		return "string"
	case TokenWord:
		return "word"
	case TokenData:
		return "data"
	default:
		return "unknown"
	}
}

// Token represents a lexer token.
type Token struct {
	Type  TokenType
	Value string
	Pos   Position
}

// String returns a debug representation of the token.
func (t Token) String() string {
	switch t.Type {
	case TokenString, TokenWord:
		return fmt.Sprintf("%s %q", t.Type, t.Value)
	case TokenData:
		return "data <" + t.Value + ">"
	default:
		return t.Type.String()
	}
}

const byteOrderMark = "\uFEFF"

// Lexer tokenizes plist text.
type Lexer struct {
	input string
	pos   int // Current position in input
	line  int // Current line number (1-based)
	col   int // Current column number (1-based, in runes)
}

// NewLexer creates a new lexer for the given input. A leading UTF-8 byte
// order mark is skipped.
func NewLexer(input string) *Lexer {
	l := &Lexer{input: input, line: 1, col: 1}
	if strings.HasPrefix(input, byteOrderMark) {
		l.pos = len(byteOrderMark)
	}
	return l
}

// Tokenize returns all tokens from the input, ending with TokenEOF.
func (l *Lexer) Tokenize() ([]Token, error) {
	var tokens []Token
	for {
		tok, err := l.Next()
		if err != nil {
			return tokens, err
		}
		tokens = append(tokens, tok)
		if tok.Type == TokenEOF {
			return tokens, nil
		}
	}
}

// Next returns the next token. At the end of input it returns TokenEOF,
// and keeps doing so on further calls.
func (l *Lexer) Next() (Token, error) {
	if err := l.skipWhitespaceAndComments(); err != nil {
		return Token{Type: TokenError, Pos: l.currentPos()}, err
	}

	startPos := l.currentPos()
	if l.pos >= len(l.input) {
		return Token{Type: TokenEOF, Pos: startPos}, nil
	}

	ch := l.peek()
	switch ch {
	case '{':
		l.advance()
		return Token{Type: TokenLBrace, Value: "{", Pos: startPos}, nil
	case '}':
		l.advance()
		return Token{Type: TokenRBrace, Value: "}", Pos: startPos}, nil
	case '(':
		l.advance()
		return Token{Type: TokenLParen, Value: "(", Pos: startPos}, nil
	case ')':
		l.advance()
		return Token{Type: TokenRParen, Value: ")", Pos: startPos}, nil
	case '=':
		l.advance()
		return Token{Type: TokenEq, Value: "=", Pos: startPos}, nil
	case ';':
		l.advance()
		return Token{Type: TokenSemicolon, Value: ";", Pos: startPos}, nil
	case ',':
		l.advance()
		return Token{Type: TokenComma, Value: ",", Pos: startPos}, nil
	case '"', '\'':
		return l.scanString(ch)
	case '<':
		return l.scanData()
	}

	if isBareChar(ch) {
		return l.scanWord(), nil
	}

	r, _ := utf8.DecodeRuneInString(l.input[l.pos:])
	if r == utf8.RuneError {
		return l.errorToken(startPos, ErrInvalidCharacter, "invalid UTF-8 byte 0x%02x", ch)
	}
	return l.errorToken(startPos, ErrInvalidCharacter, "unexpected character %q", r)
}

// scanWord scans a run of bare characters.
func (l *Lexer) scanWord() Token {
	startPos := l.currentPos()
	start := l.pos
	for l.pos < len(l.input) && isBareChar(l.peek()) {
		l.advance()
	}
	return Token{Type: TokenWord, Value: l.input[start:l.pos], Pos: startPos}
}

// scanString scans a string quoted with the given delimiter.
func (l *Lexer) scanString(quote byte) (Token, error) {
	startPos := l.currentPos()
	l.advance() // consume opening quote

	var sb strings.Builder
	for {
		if l.pos >= len(l.input) {
			return l.errorToken(startPos, ErrUnterminatedString, "unterminated string")
		}

		ch := l.peek()
		switch {
		case ch == quote:
			l.advance() // consume closing quote
			return Token{Type: TokenString, Value: sb.String(), Pos: startPos}, nil
		case ch == '\\':
			if err := l.scanEscape(&sb, startPos); err != nil {
				return Token{Type: TokenError, Pos: startPos}, err
			}
		case ch < utf8.RuneSelf:
			sb.WriteByte(ch)
			l.advance()
		default:
			r, size := utf8.DecodeRuneInString(l.input[l.pos:])
			if r == utf8.RuneError && size == 1 {
				return l.errorToken(l.currentPos(), ErrInvalidCharacter, "invalid UTF-8 byte 0x%02x in string", ch)
			}
			sb.WriteString(l.input[l.pos : l.pos+size])
			for range size {
				l.advance()
			}
		}
	}
}

// scanEscape decodes one backslash escape into sb.
func (l *Lexer) scanEscape(sb *strings.Builder, stringPos Position) error {
	escPos := l.currentPos()
	l.advance() // consume backslash
	if l.pos >= len(l.input) {
		_, err := l.errorToken(stringPos, ErrUnterminatedString, "unterminated string")
		return err
	}

	ch := l.peek()
	l.advance()
	switch ch {
	case '"', '\'', '\\', '/':
		sb.WriteByte(ch)
	case 'n':
		sb.WriteByte('\n')
	case 't':
		sb.WriteByte('\t')
	case 'r':
		sb.WriteByte('\r')
	case 'a':
		sb.WriteByte('\a')
	case 'b':
		sb.WriteByte('\b')
	case 'f':
		sb.WriteByte('\f')
	case 'v':
		sb.WriteByte('\v')
	case '0', '1', '2', '3', '4', '5', '6', '7':
		n := int(ch - '0')
		for range 2 {
			d := l.peek()
			if d < '0' || d > '7' {
				_, err := l.errorToken(escPos, ErrInvalidEscape, "octal escape needs three digits")
				return err
			}
			n = n*8 + int(d-'0')
			l.advance()
		}
		if n > 0xFF {
			_, err := l.errorToken(escPos, ErrInvalidEscape, "octal escape \\%03o out of range", n)
			return err
		}
		sb.WriteRune(rune(n))
	case 'U', 'u':
		unit, ok := l.scanHex4()
		if !ok {
			_, err := l.errorToken(escPos, ErrInvalidEscape, "\\%c escape needs four hex digits", ch)
			return err
		}
		r := rune(unit)
		switch {
		case isHighSurrogate(unit):
			low, ok := l.scanLowSurrogate()
			if !ok {
				_, err := l.errorToken(escPos, ErrInvalidEscape, "unpaired surrogate \\%c%04X", ch, unit)
				return err
			}
			r = 0x10000 + (rune(unit)-0xD800)<<10 + (rune(low) - 0xDC00)
		case isLowSurrogate(unit):
			_, err := l.errorToken(escPos, ErrInvalidEscape, "unpaired surrogate \\%c%04X", ch, unit)
			return err
		}
		sb.WriteRune(r)
	default:
		_, err := l.errorToken(escPos, ErrInvalidEscape, "unknown escape \\%c", ch)
		return err
	}
	return nil
}

// scanHex4 consumes exactly four hex digits.
func (l *Lexer) scanHex4() (uint16, bool) {
	if l.pos+4 > len(l.input) {
		return 0, false
	}
	var n uint16
	for i := 0; i < 4; i++ {
		d, ok := hexValue(l.input[l.pos+i])
		if !ok {
			return 0, false
		}
		n = n<<4 | uint16(d)
	}
	for range 4 {
		l.advance()
	}
	return n, true
}

// scanLowSurrogate consumes a \UXXXX escape holding a low surrogate.
func (l *Lexer) scanLowSurrogate() (uint16, bool) {
	if l.pos+2 > len(l.input) || l.input[l.pos] != '\\' || (l.input[l.pos+1] != 'U' && l.input[l.pos+1] != 'u') {
		return 0, false
	}
	save := *l
	l.advance()
	l.advance()
	low, ok := l.scanHex4()
	if !ok || !isLowSurrogate(low) {
		*l = save
		return 0, false
	}
	return low, true
}

// scanData scans a <hex> literal. The token value holds the digits with
// whitespace removed.
func (l *Lexer) scanData() (Token, error) {
	startPos := l.currentPos()
	l.advance() // consume <

	var sb strings.Builder
	for {
		if l.pos >= len(l.input) {
			return l.errorToken(startPos, ErrUnterminatedData, "unterminated data literal")
		}
		ch := l.peek()
		switch {
		case ch == '>':
			l.advance()
			if sb.Len()%2 != 0 {
				return l.errorToken(startPos, ErrInvalidData, "data literal has an odd number of hex digits")
			}
			return Token{Type: TokenData, Value: sb.String(), Pos: startPos}, nil
		case isSpace(ch):
			l.advance()
		case isHexDigit(ch):
			sb.WriteByte(ch)
			l.advance()
		default:
			return l.errorToken(l.currentPos(), ErrInvalidData, "invalid character %q in data literal", ch)
		}
	}
}

// skipWhitespaceAndComments skips whitespace, // and /* */ comments.
func (l *Lexer) skipWhitespaceAndComments() error {
	for l.pos < len(l.input) {
		ch := l.peek()

		if isSpace(ch) {
			l.advance()
			continue
		}

		if ch == '/' && l.pos+1 < len(l.input) {
			switch l.input[l.pos+1] {
			case '/':
				for l.pos < len(l.input) && l.peek() != '\n' {
					l.advance()
				}
				continue
			case '*':
				startPos := l.currentPos()
				end := strings.Index(l.input[l.pos+2:], "*/")
				if end < 0 {
					_, err := l.errorToken(startPos, ErrUnterminatedComment, "unterminated comment")
					return err
				}
				stop := l.pos + 2 + end + 2
				for l.pos < stop {
					l.advance()
				}
				continue
			}
		}

		break
	}
	return nil
}

func (l *Lexer) errorToken(pos Position, sentinel error, format string, args ...any) (Token, error) {
	return Token{Type: TokenError, Pos: pos}, &LexError{
		Message: fmt.Sprintf(format, args...),
		Pos:     pos,
		Err:     sentinel,
	}
}

// Helper methods

func (l *Lexer) peek() byte {
	if l.pos >= len(l.input) {
		return 0
	}
	return l.input[l.pos]
}

func (l *Lexer) advance() {
	if l.pos < len(l.input) {
		switch ch := l.input[l.pos]; {
		case ch == '\n':
			l.line++
			l.col = 1
		case ch&0xC0 != 0x80:
			l.col++
		}
		l.pos++
	}
}

func (l *Lexer) currentPos() Position {
	return Position{Line: l.line, Column: l.col, Offset: l.pos}
}

// Character classification

func isSpace(ch byte) bool {
	return ch == ' ' || ch == '\t' || ch == '\n' || ch == '\r' || ch == '\f' || ch == '\v'
}

func isHexDigit(ch byte) bool {
	_, ok := hexValue(ch)
	return ok
}

func hexValue(ch byte) (byte, bool) {
	switch {
	case ch >= '0' && ch <= '9':
		return ch - '0', true
	case ch >= 'a' && ch <= 'f':
		return ch - 'a' + 10, true
	case ch >= 'A' && ch <= 'F':
		return ch - 'A' + 10, true
	}
	return 0, false
}

func isHighSurrogate(u uint16) bool { return u >= 0xD800 && u <= 0xDBFF }
func isLowSurrogate(u uint16) bool  { return u >= 0xDC00 && u <= 0xDFFF }

// TokenStream pulls tokens from a Lexer with one token of lookahead. A
// lexical error is surfaced as a TokenError token; Err returns it.
type TokenStream struct {
	lexer  *Lexer
	cur    Token
	err    error
	primed bool
}

// NewTokenStream creates a token stream over lexer.
func NewTokenStream(lexer *Lexer) *TokenStream {
	return &TokenStream{lexer: lexer}
}

// Peek returns the current token without advancing.
func (ts *TokenStream) Peek() Token {
	if !ts.primed {
		ts.cur, ts.err = ts.lexer.Next()
		ts.primed = true
	}
	return ts.cur
}

// Advance moves to the next token and returns the current one.
func (ts *TokenStream) Advance() Token {
	tok := ts.Peek()
	if tok.Type != TokenEOF && tok.Type != TokenError {
		ts.primed = false
	}
	return tok
}

// Match returns true and advances if the current token matches.
func (ts *TokenStream) Match(typ TokenType) bool {
	if ts.Peek().Type == typ {
		ts.Advance()
		return true
	}
	return false
}

// AtEnd returns true if at end of stream.
func (ts *TokenStream) AtEnd() bool {
	return ts.Peek().Type == TokenEOF
}

// Err returns the lexical error behind a TokenError token.
func (ts *TokenStream) Err() error {
	return ts.err
}
