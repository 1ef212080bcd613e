// Package lexer converts gscript source text into tokens.
package lexer

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/deepnoodle-ai/gscript/internal/token"
)

// Lexer holds our object-state.
type Lexer struct {
	// The input being lexed
	input string

	// position is the byte offset of the current character
	position int

	// line is the 0-indexed line number of the current character
	line int

	// lineStart is the byte offset at which the current line begins
	lineStart int

	// filename is used in token positions
	filename string
}

// New returns a Lexer for the given input.
func New(input string) *Lexer {
	return &Lexer{input: input}
}

// SetFilename sets the filename recorded in token positions.
func (l *Lexer) SetFilename(filename string) {
	l.filename = filename
}

// Filename returns the filename recorded in token positions.
func (l *Lexer) Filename() string {
	return l.filename
}

// State captures the lexer position so that it can be restored later.
type State struct {
	position  int
	line      int
	lineStart int
}

// SaveState returns the current lexer state.
func (l *Lexer) SaveState() State {
	return State{position: l.position, line: l.line, lineStart: l.lineStart}
}

// RestoreState rewinds the lexer to a previously saved state.
func (l *Lexer) RestoreState(s State) {
	l.position = s.position
	l.line = s.line
	l.lineStart = s.lineStart
}

// Next returns the next token. On failure an ILLEGAL token is returned
// together with the error.
func (l *Lexer) Next() (token.Token, error) {
	l.skipWhitespaceAndComments()
	start := l.pos()
	if l.position >= len(l.input) {
		return l.token(token.EOF, "", start), nil
	}
	ch := l.input[l.position]
	switch ch {
	case '\n':
		l.position++
		tok := l.token(token.NEWLINE, "\n", start)
		l.line++
		l.lineStart = l.position
		return tok, nil
	case ';':
		return l.single(token.SEMICOLON, start), nil
	case ',':
		return l.single(token.COMMA, start), nil
	case '(':
		return l.single(token.LPAREN, start), nil
	case ')':
		return l.single(token.RPAREN, start), nil
	case '{':
		return l.single(token.LBRACE, start), nil
	case '}':
		return l.single(token.RBRACE, start), nil
	case '?':
		return l.single(token.QUESTION, start), nil
	case ':':
		return l.single(token.COLON, start), nil
	case '%':
		return l.single(token.MOD, start), nil
	case '+':
		return l.oneOrTwo(token.PLUS, '=', token.PLUS_EQUALS, start), nil
	case '-':
		return l.oneOrTwo(token.MINUS, '=', token.MINUS_EQUALS, start), nil
	case '*':
		return l.oneOrTwo(token.ASTERISK, '=', token.ASTERISK_EQUALS, start), nil
	case '/':
		return l.oneOrTwo(token.SLASH, '=', token.SLASH_EQUALS, start), nil
	case '=':
		return l.oneOrTwo(token.ASSIGN, '=', token.EQ, start), nil
	case '!':
		return l.oneOrTwo(token.BANG, '=', token.NOT_EQ, start), nil
	case '<':
		return l.oneOrTwo(token.LT, '=', token.LT_EQUALS, start), nil
	case '>':
		return l.oneOrTwo(token.GT, '=', token.GT_EQUALS, start), nil
	case '&':
		if l.peekChar() == '&' {
			l.position += 2
			return l.token(token.AND, "&&", start), nil
		}
	case '|':
		if l.peekChar() == '|' {
			l.position += 2
			return l.token(token.OR, "||", start), nil
		}
	case '"', '\'':
		return l.readString(ch, start)
	}
	if isDigit(ch) || (ch == '.' && isDigit(l.peekChar())) {
		return l.readNumber(start)
	}
	if isIdentStart(ch) {
		return l.readIdentifier(start), nil
	}
	r, size := utf8.DecodeRuneInString(l.input[l.position:])
	l.position += size
	if r >= 0x80 || r < 0x20 {
		return l.token(token.ILLEGAL, string(r), start),
			fmt.Errorf("invalid identifier: %s", string(r))
	}
	return l.token(token.ILLEGAL, string(r), start),
		fmt.Errorf("unexpected character: %q", r)
}

// GetLineText returns the full text of the line containing the token.
func (l *Lexer) GetLineText(tok token.Token) string {
	start := tok.StartPosition.LineStart
	if start < 0 || start > len(l.input) {
		return ""
	}
	end := strings.IndexByte(l.input[start:], '\n')
	if end < 0 {
		return l.input[start:]
	}
	return l.input[start : start+end]
}

func (l *Lexer) pos() token.Position {
	return token.Position{
		Char:      l.position,
		LineStart: l.lineStart,
		Line:      l.line,
		Column:    l.position - l.lineStart,
		File:      l.filename,
	}
}

func (l *Lexer) token(typ token.Type, literal string, start token.Position) token.Token {
	return token.Token{
		Type:          typ,
		Literal:       literal,
		StartPosition: start,
		EndPosition:   l.pos(),
	}
}

func (l *Lexer) single(typ token.Type, start token.Position) token.Token {
	l.position++
	return l.token(typ, string(typ), start)
}

func (l *Lexer) oneOrTwo(one token.Type, next byte, two token.Type, start token.Position) token.Token {
	if l.peekChar() == next {
		l.position += 2
		return l.token(two, string(two), start)
	}
	return l.single(one, start)
}

func (l *Lexer) peekChar() byte {
	if l.position+1 >= len(l.input) {
		return 0
	}
	return l.input[l.position+1]
}

func (l *Lexer) skipWhitespaceAndComments() {
	for l.position < len(l.input) {
		ch := l.input[l.position]
		switch {
		case ch == ' ' || ch == '\t' || ch == '\r':
			l.position++
		case ch == '#' || (ch == '/' && l.peekChar() == '/'):
			for l.position < len(l.input) && l.input[l.position] != '\n' {
				l.position++
			}
		default:
			return
		}
	}
}

// readIdentifier reads a dotted name such as "in.base" or "math.clamp".
func (l *Lexer) readIdentifier(start token.Position) token.Token {
	begin := l.position
	for {
		for l.position < len(l.input) && isIdentPart(l.input[l.position]) {
			l.position++
		}
		if l.position+1 < len(l.input) && l.input[l.position] == '.' &&
			isIdentStart(l.input[l.position+1]) {
			l.position++
			continue
		}
		break
	}
	literal := l.input[begin:l.position]
	return l.token(token.LookupIdentifier(literal), literal, start)
}

func (l *Lexer) readNumber(start token.Position) (token.Token, error) {
	begin := l.position
	for l.position < len(l.input) && isDigit(l.input[l.position]) {
		l.position++
	}
	if l.position < len(l.input) && l.input[l.position] == '.' {
		l.position++
		for l.position < len(l.input) && isDigit(l.input[l.position]) {
			l.position++
		}
	}
	if l.position < len(l.input) && (l.input[l.position] == 'e' || l.input[l.position] == 'E') {
		next := l.position + 1
		if next < len(l.input) && (l.input[next] == '+' || l.input[next] == '-') {
			next++
		}
		if next < len(l.input) && isDigit(l.input[next]) {
			l.position = next
			for l.position < len(l.input) && isDigit(l.input[l.position]) {
				l.position++
			}
		}
	}
	// A number may not run directly into an identifier
	if l.position < len(l.input) && (isIdentPart(l.input[l.position]) || l.input[l.position] == '.') {
		l.position++
		literal := l.input[begin:l.position]
		return l.token(token.ILLEGAL, literal, start),
			fmt.Errorf("invalid decimal literal: %s", literal)
	}
	literal := l.input[begin:l.position]
	if _, err := strconv.ParseFloat(literal, 64); err != nil {
		return l.token(token.ILLEGAL, literal, start),
			fmt.Errorf("invalid decimal literal: %s", literal)
	}
	return l.token(token.NUMBER, literal, start), nil
}

func (l *Lexer) readString(quote byte, start token.Position) (token.Token, error) {
	var out strings.Builder
	l.position++ // opening quote
	for {
		if l.position >= len(l.input) || l.input[l.position] == '\n' {
			return l.token(token.ILLEGAL, out.String(), start),
				fmt.Errorf("unterminated string literal")
		}
		ch := l.input[l.position]
		if ch == quote {
			l.position++
			return l.token(token.STRING, out.String(), start), nil
		}
		if ch != '\\' {
			out.WriteByte(ch)
			l.position++
			continue
		}
		if l.position+1 >= len(l.input) {
			return l.token(token.ILLEGAL, out.String(), start),
				fmt.Errorf("unterminated string literal")
		}
		esc := l.input[l.position+1]
		l.position += 2
		switch esc {
		case 'n':
			out.WriteByte('\n')
		case 't':
			out.WriteByte('\t')
		case 'r':
			out.WriteByte('\r')
		case '0':
			out.WriteByte(0)
		case '\\', '"', '\'':
			out.WriteByte(esc)
		case 'x':
			v, err := l.readHex(2)
			if err != nil {
				return l.token(token.ILLEGAL, out.String(), start), err
			}
			out.WriteByte(byte(v))
		case 'u':
			v, err := l.readHex(4)
			if err != nil {
				return l.token(token.ILLEGAL, out.String(), start), err
			}
			out.WriteRune(rune(v))
		default:
			return l.token(token.ILLEGAL, out.String(), start),
				fmt.Errorf("invalid escape sequence: \\%c", esc)
		}
	}
}

func (l *Lexer) readHex(n int) (uint64, error) {
	if l.position+n > len(l.input) {
		return 0, fmt.Errorf("invalid escape sequence: too few hex digits")
	}
	digits := l.input[l.position : l.position+n]
	v, err := strconv.ParseUint(digits, 16, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid escape sequence: %q is not hexadecimal", digits)
	}
	l.position += n
	return v, nil
}

func isDigit(ch byte) bool {
	return '0' <= ch && ch <= '9'
}

func isIdentStart(ch byte) bool {
	return ch == '_' || ('a' <= ch && ch <= 'z') || ('A' <= ch && ch <= 'Z')
}

func isIdentPart(ch byte) bool {
	return isIdentStart(ch) || isDigit(ch)
}
