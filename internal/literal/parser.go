// Package literal parses the loose object/array/string literal syntax that
// browser network tooling emits in "copy as fetch" exports. The grammar is a
// superset of JSON: single, double and backtick quoted strings, `+` string
// concatenation, bare identifier keys, trailing commas, line and block
// comments.
package literal

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"
)

// SyntaxError reports the byte offset where decoding failed. Offsets are
// relative to the buffer handed to the parser, so callers scanning a larger
// document can translate them.
type SyntaxError struct {
	Offset int
	Msg    string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("syntax error at offset %d: %s", e.Offset, e.Msg)
}

// Parser is a cursor over a text buffer. ParseValue consumes exactly one
// literal expression and leaves the cursor on the byte after it.
type Parser struct {
	src string
	pos int
}

func NewParser(src string) *Parser {
	return &Parser{src: src}
}

// Parse decodes a single literal that must span the whole input, modulo
// trailing whitespace and comments.
func Parse(src string) (*Value, error) {
	p := NewParser(src)

	v, err := p.ParseValue()
	if err != nil {
		return nil, err
	}

	p.SkipSpace()
	if p.pos < len(p.src) {
		return nil, p.errorf("unexpected trailing text")
	}

	return v, nil
}

func (p *Parser) Pos() int { return p.pos }

func (p *Parser) SetPos(pos int) { p.pos = pos }

// Source returns the buffer the parser was created over.
func (p *Parser) Source() string { return p.src }

func (p *Parser) errorf(format string, args ...any) *SyntaxError {
	return &SyntaxError{Offset: p.pos, Msg: fmt.Sprintf(format, args...)}
}

// SkipSpace advances past whitespace, // line comments and /* */ block
// comments.
func (p *Parser) SkipSpace() {
	for p.pos < len(p.src) {
		c := p.src[p.pos]

		if c == ' ' || c == '\t' || c == '\n' || c == '\r' {
			p.pos++
			continue
		}

		if c == '/' && p.pos+1 < len(p.src) {
			switch p.src[p.pos+1] {
			case '/':
				p.pos += 2
				for p.pos < len(p.src) && p.src[p.pos] != '\n' {
					p.pos++
				}
				continue
			case '*':
				p.pos += 2
				for p.pos+1 < len(p.src) {
					if p.src[p.pos] == '*' && p.src[p.pos+1] == '/' {
						p.pos += 2
						break
					}
					p.pos++
				}
				// An unterminated block comment swallows the rest of
				// the buffer; the next token read reports the error.
				if p.pos+1 >= len(p.src) && !strings.HasSuffix(p.src[:p.pos], "*/") {
					p.pos = len(p.src)
				}
				continue
			}
		}

		return
	}
}

// ParseValue decodes one value at the cursor.
func (p *Parser) ParseValue() (*Value, error) {
	p.SkipSpace()

	if p.pos >= len(p.src) {
		return nil, p.errorf("unexpected end of input")
	}

	switch c := p.src[p.pos]; {
	case c == '{':
		return p.parseObject()
	case c == '[':
		return p.parseArray()
	case c == '"' || c == '\'' || c == '`':
		return p.parseString()
	case c == '-' || c == '+' || c == '.' || (c >= '0' && c <= '9'):
		return p.parseNumber()
	case isIdentByte(c):
		return p.parseKeyword()
	default:
		return nil, p.errorf("unexpected character %q", c)
	}
}

func (p *Parser) parseKeyword() (*Value, error) {
	start := p.pos
	for p.pos < len(p.src) && isIdentByte(p.src[p.pos]) {
		p.pos++
	}

	ident := p.src[start:p.pos]

	switch ident {
	case "null", "undefined":
		return Null(), nil
	case "true":
		return BoolValue(true), nil
	case "false":
		return BoolValue(false), nil
	}

	p.pos = start
	return nil, p.errorf("unexpected identifier %q", ident)
}

func (p *Parser) parseNumber() (*Value, error) {
	start := p.pos

	if p.pos < len(p.src) && (p.src[p.pos] == '-' || p.src[p.pos] == '+') {
		p.pos++
	}

	digits := 0
	for p.pos < len(p.src) && p.src[p.pos] >= '0' && p.src[p.pos] <= '9' {
		p.pos++
		digits++
	}

	fractional := false
	if p.pos < len(p.src) && p.src[p.pos] == '.' {
		fractional = true
		p.pos++
		for p.pos < len(p.src) && p.src[p.pos] >= '0' && p.src[p.pos] <= '9' {
			p.pos++
			digits++
		}
	}

	if digits == 0 {
		p.pos = start
		return nil, p.errorf("malformed number")
	}

	if p.pos < len(p.src) && (p.src[p.pos] == 'e' || p.src[p.pos] == 'E') {
		mark := p.pos
		p.pos++
		if p.pos < len(p.src) && (p.src[p.pos] == '-' || p.src[p.pos] == '+') {
			p.pos++
		}
		expDigits := 0
		for p.pos < len(p.src) && p.src[p.pos] >= '0' && p.src[p.pos] <= '9' {
			p.pos++
			expDigits++
		}
		if expDigits == 0 {
			p.pos = mark
			return nil, p.errorf("malformed exponent")
		}
		fractional = true
	}

	text := p.src[start:p.pos]

	if !fractional {
		if i, err := strconv.ParseInt(text, 10, 64); err == nil {
			return IntValue(i), nil
		}
	}

	f, err := strconv.ParseFloat(text, 64)
	if err != nil {
		p.pos = start
		return nil, p.errorf("malformed number %q", text)
	}

	return FloatValue(f), nil
}

// parseString decodes a quoted literal, then folds `"a" + "b"` chains into a
// single string.
func (p *Parser) parseString() (*Value, error) {
	s, err := p.parseOneString()
	if err != nil {
		return nil, err
	}

	for {
		mark := p.pos
		p.SkipSpace()

		if p.pos >= len(p.src) || p.src[p.pos] != '+' {
			p.pos = mark
			return StringValue(s), nil
		}
		p.pos++
		p.SkipSpace()

		if p.pos >= len(p.src) || !isQuote(p.src[p.pos]) {
			return nil, p.errorf("expected string literal after +")
		}

		next, err := p.parseOneString()
		if err != nil {
			return nil, err
		}
		s += next
	}
}

func (p *Parser) parseOneString() (string, error) {
	quote := p.src[p.pos]
	start := p.pos
	p.pos++

	var sb strings.Builder
	for p.pos < len(p.src) {
		c := p.src[p.pos]

		if c == quote {
			p.pos++
			return sb.String(), nil
		}

		// Backticks are the multi-line form; a newline inside the other
		// quote kinds means the literal was truncated.
		if (c == '\n' || c == '\r') && quote != '`' {
			break
		}

		if c == '\\' {
			if p.pos+1 >= len(p.src) {
				break
			}
			if err := p.parseEscape(&sb); err != nil {
				return "", err
			}
			continue
		}

		sb.WriteByte(c)
		p.pos++
	}

	p.pos = start
	return "", p.errorf("unterminated string")
}

func (p *Parser) parseEscape(sb *strings.Builder) error {
	p.pos++ // consume backslash
	c := p.src[p.pos]
	p.pos++

	switch c {
	case 'n':
		sb.WriteByte('\n')
	case 't':
		sb.WriteByte('\t')
	case 'r':
		sb.WriteByte('\r')
	case 'b':
		sb.WriteByte('\b')
	case 'f':
		sb.WriteByte('\f')
	case '0':
		sb.WriteByte(0)
	case 'u':
		r, err := p.parseUnicodeEscape()
		if err != nil {
			return err
		}
		sb.WriteRune(r)
	case 'x':
		if p.pos+2 > len(p.src) {
			return p.errorf("truncated hex escape")
		}
		n, err := strconv.ParseUint(p.src[p.pos:p.pos+2], 16, 8)
		if err != nil {
			return p.errorf("invalid hex escape")
		}
		p.pos += 2
		sb.WriteByte(byte(n))
	default:
		// \', \", \`, \\, \/ and anything unrecognized map to the
		// escaped character itself.
		sb.WriteByte(c)
	}

	return nil
}

func (p *Parser) parseUnicodeEscape() (rune, error) {
	if p.pos+4 > len(p.src) {
		return 0, p.errorf("truncated unicode escape")
	}

	n, err := strconv.ParseUint(p.src[p.pos:p.pos+4], 16, 32)
	if err != nil {
		return 0, p.errorf("invalid unicode escape")
	}
	p.pos += 4

	r := rune(n)

	if r < 0xD800 || r > 0xDFFF {
		return r, nil
	}

	// High surrogate: try to combine with a following \uXXXX low surrogate.
	if r <= 0xDBFF && p.pos+6 <= len(p.src) &&
		p.src[p.pos] == '\\' && p.src[p.pos+1] == 'u' {
		low, err := strconv.ParseUint(p.src[p.pos+2:p.pos+6], 16, 32)
		if err == nil && rune(low) >= 0xDC00 && rune(low) <= 0xDFFF {
			p.pos += 6
			return 0x10000 + (r-0xD800)<<10 + (rune(low) - 0xDC00), nil
		}
	}

	return utf8.RuneError, nil
}

func (p *Parser) parseArray() (*Value, error) {
	p.pos++ // consume [
	items := []*Value{}

	for {
		p.SkipSpace()

		if p.pos >= len(p.src) {
			return nil, p.errorf("unterminated array")
		}

		if p.src[p.pos] == ']' {
			p.pos++
			return &Value{Kind: KindArray, Items: items}, nil
		}

		item, err := p.ParseValue()
		if err != nil {
			return nil, err
		}
		items = append(items, item)

		p.SkipSpace()
		if p.pos >= len(p.src) {
			return nil, p.errorf("unterminated array")
		}

		switch p.src[p.pos] {
		case ',':
			p.pos++
		case ']':
			// handled on the next loop turn
		default:
			return nil, p.errorf("expected , or ] in array")
		}
	}
}

func (p *Parser) parseObject() (*Value, error) {
	p.pos++ // consume {
	fields := []Field{}
	seen := map[string]int{}

	for {
		p.SkipSpace()

		if p.pos >= len(p.src) {
			return nil, p.errorf("unterminated object")
		}

		if p.src[p.pos] == '}' {
			p.pos++
			return &Value{Kind: KindObject, Fields: fields}, nil
		}

		key, err := p.parseKey()
		if err != nil {
			return nil, err
		}

		p.SkipSpace()
		if p.pos >= len(p.src) || p.src[p.pos] != ':' {
			return nil, p.errorf("expected : after object key %q", key)
		}
		p.pos++

		value, err := p.ParseValue()
		if err != nil {
			return nil, err
		}

		// Duplicate keys keep their first position, last value wins.
		if idx, ok := seen[key]; ok {
			fields[idx].Value = value
		} else {
			seen[key] = len(fields)
			fields = append(fields, Field{Key: key, Value: value})
		}

		p.SkipSpace()
		if p.pos >= len(p.src) {
			return nil, p.errorf("unterminated object")
		}

		switch p.src[p.pos] {
		case ',':
			p.pos++
		case '}':
			// handled on the next loop turn
		default:
			return nil, p.errorf("expected , or } in object")
		}
	}
}

// parseKey accepts a quoted string or a bare identifier of letters, digits,
// underscores and dollar signs.
func (p *Parser) parseKey() (string, error) {
	if isQuote(p.src[p.pos]) {
		return p.parseOneString()
	}

	if !isIdentByte(p.src[p.pos]) {
		return "", p.errorf("expected object key")
	}

	start := p.pos
	for p.pos < len(p.src) && isIdentByte(p.src[p.pos]) {
		p.pos++
	}

	return p.src[start:p.pos], nil
}

func isQuote(c byte) bool {
	return c == '"' || c == '\'' || c == '`'
}

func isIdentByte(c byte) bool {
	return c == '_' || c == '$' ||
		(c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}
