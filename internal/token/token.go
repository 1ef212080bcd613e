// Package token defines language keywords and tokens used when lexing source code.
package token

// Type describes the type of a token as a string.
type Type string

// Position points to a particular location in an input string.
type Position struct {
	Char      int    // byte offset within the file
	LineStart int    // byte offset of the start of the current line
	Line      int    // 0-indexed line number
	Column    int    // 0-indexed column number
	File      string // filename
}

// LineNumber returns the 1-indexed line number for this position in the input.
func (p Position) LineNumber() int {
	return p.Line + 1
}

// ColumnNumber returns the 1-indexed column number for this position in the input.
func (p Position) ColumnNumber() int {
	return p.Column + 1
}

// Advance returns a new Position advanced by n bytes.
// Note: This assumes the advance does not cross line boundaries.
func (p Position) Advance(n int) Position {
	return Position{
		Char:      p.Char + n,
		LineStart: p.LineStart,
		Line:      p.Line,
		Column:    p.Column + n,
		File:      p.File,
	}
}

// IsValid returns true if this position has been set.
func (p Position) IsValid() bool {
	return p.File != "" || p.Line > 0 || p.Column > 0 || p.Char > 0
}

// NoPos is the zero value Position, representing an invalid/unset position.
var NoPos = Position{}

// Token represents one token lexed from the input source code.
type Token struct {
	Type          Type
	Literal       string
	StartPosition Position
	EndPosition   Position
}

// Token types
const (
	AND             Type = "&&"
	ASSIGN          Type = "="
	ASTERISK        Type = "*"
	ASTERISK_EQUALS Type = "*="
	BANG            Type = "!"
	COLON           Type = ":"
	COMMA           Type = ","
	EOF             Type = "EOF"
	EQ              Type = "=="
	FALSE           Type = "FALSE"
	GT              Type = ">"
	GT_EQUALS       Type = ">="
	HOOK            Type = "HOOK"
	IDENT           Type = "IDENT"
	ILLEGAL         Type = "ILLEGAL"
	LBRACE          Type = "{"
	LET             Type = "LET"
	LPAREN          Type = "("
	LT              Type = "<"
	LT_EQUALS       Type = "<="
	MINUS           Type = "-"
	MINUS_EQUALS    Type = "-="
	MOD             Type = "%"
	NEWLINE         Type = "EOL"
	NOT_EQ          Type = "!="
	NUMBER          Type = "NUMBER"
	OR              Type = "||"
	PLUS            Type = "+"
	PLUS_EQUALS     Type = "+="
	QUESTION        Type = "?"
	RBRACE          Type = "}"
	RPAREN          Type = ")"
	SEMICOLON       Type = ";"
	SLASH           Type = "/"
	SLASH_EQUALS    Type = "/="
	STRING          Type = "STRING"
	TRUE            Type = "TRUE"
)

// Reserved keywords
var keywords = map[string]Type{
	"false": FALSE,
	"hook":  HOOK,
	"let":   LET,
	"true":  TRUE,
}

// LookupIdentifier used to determinate whether identifier is keyword nor not
func LookupIdentifier(identifier string) Type {
	if tok, ok := keywords[identifier]; ok {
		return tok
	}
	return IDENT
}

// IsAssignment reports whether t is "=" or a compound assignment operator.
func IsAssignment(t Type) bool {
	switch t {
	case ASSIGN, PLUS_EQUALS, MINUS_EQUALS, ASTERISK_EQUALS, SLASH_EQUALS:
		return true
	}
	return false
}
