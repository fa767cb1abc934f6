package plist

import (
	"encoding/hex"
	"fmt"
)

// DefaultMaxDepth bounds container nesting when no limit is configured.
const DefaultMaxDepth = 512

// DuplicatePolicy selects how the parser treats a repeated dictionary key.
type DuplicatePolicy uint8

const (
	// RejectDuplicates fails with ErrDuplicateKey at the second occurrence.
	RejectDuplicates DuplicatePolicy = iota
	// LastWins keeps the later value at the position of the first key.
	LastWins
)

// String returns the policy name.
func (d DuplicatePolicy) String() string {
	switch d {
	case LastWins:
		return "last-wins"
	default:
		return "reject"
	}
}

// ParseOptions configures the parser behavior.
type ParseOptions struct {
	MaxDepth   int // Container nesting limit; <= 0 means DefaultMaxDepth
	Duplicates DuplicatePolicy
}

// DefaultParseOptions returns strict parsing options.
func DefaultParseOptions() ParseOptions {
	return ParseOptions{MaxDepth: DefaultMaxDepth, Duplicates: RejectDuplicates}
}

// Parser builds a value tree from a token stream.
type Parser struct {
	stream *TokenStream
	opts   ParseOptions
}

// Parse parses one plist document.
func Parse(input string) (*Value, error) {
	return ParseWithOptions(input, DefaultParseOptions())
}

// ParseBytes parses one plist document held in a byte slice.
func ParseBytes(data []byte) (*Value, error) {
	return Parse(string(data))
}

// ParseWithOptions parses with full options.
func ParseWithOptions(input string, opts ParseOptions) (*Value, error) {
	if opts.MaxDepth <= 0 {
		opts.MaxDepth = DefaultMaxDepth
	}
	p := &Parser{
		stream: NewTokenStream(NewLexer(input)),
		opts:   opts,
	}

	tok := p.stream.Peek()
	if tok.Type == TokenError {
		return nil, p.stream.Err()
	}
	if tok.Type == TokenEOF {
		return nil, p.errorf(tok, ErrUnexpectedEOF, "value", "empty document")
	}

	v, err := p.parseValue(0)
	if err != nil {
		return nil, err
	}

	tok = p.stream.Peek()
	switch tok.Type {
	case TokenEOF:
		return v, nil
	case TokenError:
		return nil, p.stream.Err()
	default:
		return nil, p.errorf(tok, ErrTrailingContent, "end of input", "unexpected %s after the document root", tok)
	}
}

// parseValue parses any value. depth counts the enclosing containers.
func (p *Parser) parseValue(depth int) (*Value, error) {
	tok := p.stream.Peek()
	switch tok.Type {
	case TokenError:
		return nil, p.stream.Err()

	case TokenLBrace:
		return p.parseDict(depth + 1)

	case TokenLParen:
		return p.parseArray(depth + 1)

	case TokenString:
		p.stream.Advance()
		v := String(tok.Value)
		v.pos = tok.Pos
		return v, nil

	case TokenWord:
		p.stream.Advance()
		v := wordValue(tok.Value)
		v.pos = tok.Pos
		return v, nil

	case TokenData:
		p.stream.Advance()
		b, err := hex.DecodeString(tok.Value)
		if err != nil {
			return nil, &LexError{Message: err.Error(), Pos: tok.Pos, Err: ErrInvalidData}
		}
		v := Data(b)
		v.pos = tok.Pos
		return v, nil

	case TokenEOF:
		if depth > 0 {
			return nil, p.errorf(tok, ErrUnbalanced, "value", "expected a value, found end of input inside a container")
		}
		return nil, p.errorf(tok, ErrUnexpectedEOF, "value", "expected a value, found end of input")

	case TokenRBrace, TokenRParen:
		return nil, p.errorf(tok, ErrUnbalanced, "value", "unexpected %s", tok)

	default:
		return nil, p.errorf(tok, ErrUnexpectedToken, "value", "expected a value, found %s", tok)
	}
}

// parseDict parses { key = value; ... }.
func (p *Parser) parseDict(depth int) (*Value, error) {
	open := p.stream.Advance() // consume {
	if depth > p.opts.MaxDepth {
		return nil, p.errorf(open, ErrMaxDepth, "", "nesting deeper than %d", p.opts.MaxDepth)
	}

	d := NewDict()
	for {
		keyTok := p.stream.Peek()
		switch keyTok.Type {
		case TokenError:
			return nil, p.stream.Err()
		case TokenRBrace:
			p.stream.Advance()
			v := FromDict(d)
			v.pos = open.Pos
			return v, nil
		case TokenEOF:
			return nil, p.errorf(open, ErrUnbalanced, "'}'", "'{' opened at %s is never closed", open.Pos)
		case TokenString, TokenWord:
			p.stream.Advance()
		default:
			return nil, p.errorf(keyTok, ErrUnexpectedToken, "key or '}'", "expected a key or '}', found %s", keyTok)
		}
		key := keyTok.Value

		eq := p.stream.Peek()
		switch eq.Type {
		case TokenError:
			return nil, p.stream.Err()
		case TokenEOF:
			return nil, p.errorf(open, ErrUnbalanced, "'}'", "'{' opened at %s is never closed", open.Pos)
		}
		if eq.Type != TokenEq {
			return nil, p.errorf(eq, ErrMissingSeparator, "'='", "missing '=' after key %q", key)
		}
		p.stream.Advance()

		val, err := p.parseValue(depth)
		if err != nil {
			return nil, err
		}

		semi := p.stream.Peek()
		switch semi.Type {
		case TokenError:
			return nil, p.stream.Err()
		case TokenEOF:
			return nil, p.errorf(open, ErrUnbalanced, "'}'", "'{' opened at %s is never closed", open.Pos)
		}
		if semi.Type != TokenSemicolon {
			return nil, p.errorf(semi, ErrMissingSeparator, "';'", "missing ';' after value of %q", key)
		}
		p.stream.Advance()

		if prev, ok := d.Lookup(key); ok && p.opts.Duplicates == RejectDuplicates {
			return nil, p.errorf(keyTok, ErrDuplicateKey, "",
				"duplicate key %q (first value at %s)", key, prev.Pos())
		}
		d.Set(key, val)
	}
}

// parseArray parses ( value, value, ... ) with an optional trailing comma.
func (p *Parser) parseArray(depth int) (*Value, error) {
	open := p.stream.Advance() // consume (
	if depth > p.opts.MaxDepth {
		return nil, p.errorf(open, ErrMaxDepth, "", "nesting deeper than %d", p.opts.MaxDepth)
	}

	items := []*Value{}
	for {
		tok := p.stream.Peek()
		switch tok.Type {
		case TokenError:
			return nil, p.stream.Err()
		case TokenRParen:
			p.stream.Advance()
			v := Array(items...)
			v.pos = open.Pos
			return v, nil
		case TokenEOF:
			return nil, p.errorf(open, ErrUnbalanced, "')'", "'(' opened at %s is never closed", open.Pos)
		}

		val, err := p.parseValue(depth)
		if err != nil {
			return nil, err
		}
		items = append(items, val)

		next := p.stream.Peek()
		switch next.Type {
		case TokenComma:
			p.stream.Advance()
		case TokenRParen:
			// closed on the next iteration
		case TokenError:
			return nil, p.stream.Err()
		case TokenEOF:
			return nil, p.errorf(open, ErrUnbalanced, "')'", "'(' opened at %s is never closed", open.Pos)
		default:
			return nil, p.errorf(next, ErrMissingSeparator, "',' or ')'", "missing ',' between array elements, found %s", next)
		}
	}
}

// Error handling

func (p *Parser) errorf(tok Token, sentinel error, expected, format string, args ...any) *ParseError {
	return &ParseError{
		Message:  fmt.Sprintf(format, args...),
		Pos:      tok.Pos,
		Expected: expected,
		Found:    tok.String(),
		Err:      sentinel,
	}
}
