package pdf

import (
	"errors"
	"fmt"

	"github.com/tdewolff/parse/v2/strconv"
)

// ErrTokenize marks a content stream with a malformed byte sequence.
var ErrTokenize = errors.New("pdf: malformed content stream")

var errNoOperators = fmt.Errorf("%w: no operators in non-blank content", ErrTokenize)

// TokenKind tags a content-stream token.
type TokenKind uint8

const (
	NumberToken TokenKind = iota
	OperatorToken
)

// Token is a number operand or an operator. Strings, names, arrays,
// dictionaries and comments never produce tokens.
type Token struct {
	Kind  TokenKind
	Value float64
	Op    string
}

func (t Token) String() string {
	if t.Kind == OperatorToken {
		return t.Op
	}
	return fmt.Sprintf("%g", t.Value)
}

// Tokenize lexes a decoded content stream and hands each token to emit as
// it is read. Each byte is one Latin-1 character; only ASCII bytes can
// start a number or an operator.
func Tokenize(data []byte, emit func(Token)) error {
	l := &lexer{data: data, emit: emit}
	return l.run()
}

// operators holds the names of the standard operators so that lexing them
// does not allocate.
var operators = func() map[string]string {
	names := []string{
		"b", "B", "b*", "B*", "BDC", "BI", "BMC", "BT", "BX", "c", "cm", "CS", "cs",
		"d", "d0", "d1", "Do", "DP", "EI", "EMC", "ET", "EX", "f", "F", "f*",
		"G", "g", "gs", "h", "i", "ID", "j", "J", "K", "k", "l", "m", "M", "MP",
		"n", "q", "Q", "re", "RG", "rg", "ri", "s", "S", "SC", "sc", "SCN", "scn",
		"sh", "T*", "Tc", "Td", "TD", "Tf", "Tj", "TJ", "TL", "Tm", "Tr", "Ts",
		"Tw", "Tz", "v", "w", "W", "W*", "y", "'", "\"",
	}
	m := make(map[string]string, len(names))
	for _, n := range names {
		m[n] = n
	}
	return m
}()

type lexer struct {
	data []byte
	pos  int
	emit func(Token)
}

func (l *lexer) run() error {
	for l.pos < len(l.data) {
		c := l.data[l.pos]
		switch {
		case isWhitespace(c):
			l.pos++
		case c == '%':
			l.skipComment()
		case c == '(':
			if err := l.skipString(); err != nil {
				return err
			}
		case c == '<':
			if l.peek(1) == '<' {
				l.pos += 2
				continue
			}
			if err := l.skipHexString(); err != nil {
				return err
			}
		case c == '>':
			// stray '>' or the second half of '>>'
			l.pos++
			if l.peek(0) == '>' {
				l.pos++
			}
		case c == '/':
			l.skipName()
		case c == '[' || c == ']' || c == '{' || c == '}' || c == ')':
			l.pos++
		case c == '+' || c == '-' || c == '.' || isDigit(c):
			if err := l.readNumber(); err != nil {
				return err
			}
		case isOperatorByte(c):
			if err := l.readOperator(); err != nil {
				return err
			}
		default:
			// non-ASCII or control bytes outside any object carry no meaning
			l.pos++
		}
	}
	return nil
}

func (l *lexer) peek(off int) byte {
	if l.pos+off < len(l.data) {
		return l.data[l.pos+off]
	}
	return 0
}

func (l *lexer) skipComment() {
	for l.pos < len(l.data) && l.data[l.pos] != '\n' && l.data[l.pos] != '\r' {
		l.pos++
	}
}

// skipString consumes a literal string, honouring balanced parentheses
// and backslash escapes.
func (l *lexer) skipString() error {
	start := l.pos
	l.pos++
	depth := 1
	for l.pos < len(l.data) {
		switch l.data[l.pos] {
		case '\\':
			l.pos += 2
			continue
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				l.pos++
				return nil
			}
		}
		l.pos++
	}
	return fmt.Errorf("%w: unterminated string at offset %d", ErrTokenize, start)
}

func (l *lexer) skipHexString() error {
	start := l.pos
	l.pos++
	for l.pos < len(l.data) {
		c := l.data[l.pos]
		switch {
		case c == '>':
			l.pos++
			return nil
		case isHexDigit(c) || isWhitespace(c):
			l.pos++
		default:
			return fmt.Errorf("%w: invalid byte 0x%02x in hex string at offset %d", ErrTokenize, c, start)
		}
	}
	return fmt.Errorf("%w: unterminated hex string at offset %d", ErrTokenize, start)
}

func (l *lexer) skipName() {
	l.pos++
	for l.pos < len(l.data) && !isWhitespace(l.data[l.pos]) && !isDelimiter(l.data[l.pos]) {
		l.pos++
	}
}

func (l *lexer) readNumber() error {
	start := l.pos
	if c := l.data[l.pos]; c == '+' || c == '-' {
		l.pos++
	}
	seenDot := false
	digits := 0
	for l.pos < len(l.data) {
		c := l.data[l.pos]
		if isDigit(c) {
			digits++
		} else if c == '.' && !seenDot {
			seenDot = true
		} else {
			break
		}
		l.pos++
	}
	if digits == 0 {
		return fmt.Errorf("%w: number without digits at offset %d", ErrTokenize, start)
	}

	num := l.data[start:l.pos]
	if num[len(num)-1] == '.' {
		num = num[:len(num)-1]
	}
	if num[0] == '+' {
		num = num[1:]
	}
	v, n := strconv.ParseFloat(num)
	if n != len(num) {
		return fmt.Errorf("%w: invalid number %q at offset %d", ErrTokenize, l.data[start:l.pos], start)
	}
	l.emit(Token{Kind: NumberToken, Value: v})
	return nil
}

func (l *lexer) readOperator() error {
	start := l.pos
	for l.pos < len(l.data) && isOperatorByte(l.data[l.pos]) {
		l.pos++
	}
	raw := l.data[start:l.pos]
	op, known := operators[string(raw)]
	if !known {
		switch string(raw) {
		case "true", "false", "null":
			return nil
		}
		op = string(raw)
	}
	l.emit(Token{Kind: OperatorToken, Op: op})
	if op == "ID" {
		return l.skipInlineImage(start)
	}
	return nil
}

// skipInlineImage jumps over the binary payload that follows ID and emits
// the closing EI. The payload ends at an EI surrounded by whitespace.
func (l *lexer) skipInlineImage(start int) error {
	l.pos++ // single whitespace byte after ID
	for i := l.pos; i+1 < len(l.data); i++ {
		if l.data[i] != 'E' || l.data[i+1] != 'I' {
			continue
		}
		if i > 0 && !isWhitespace(l.data[i-1]) {
			continue
		}
		if i+2 < len(l.data) && !isWhitespace(l.data[i+2]) && !isDelimiter(l.data[i+2]) {
			continue
		}
		l.pos = i + 2
		l.emit(Token{Kind: OperatorToken, Op: "EI"})
		return nil
	}
	return fmt.Errorf("%w: unterminated inline image at offset %d", ErrTokenize, start)
}

func isWhitespace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f' || c == 0
}

func isDelimiter(c byte) bool {
	switch c {
	case '(', ')', '<', '>', '[', ']', '{', '}', '/', '%':
		return true
	}
	return false
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isHexDigit(c byte) bool {
	return isDigit(c) || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

func isOperatorByte(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || c == '*' || c == '\'' || c == '"'
}
