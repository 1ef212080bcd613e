package bytecode

import (
	"fmt"
	"strconv"
	"strings"
)

// SourceLocation is the script position an instruction was generated from.
// The filename is stored once on the ScriptBlocks.
type SourceLocation struct {
	Line   int // 1-based line number
	Column int // 1-based column number
}

// String returns the location as "line:column".
func (s SourceLocation) String() string {
	return fmt.Sprintf("%d:%d", s.Line, s.Column)
}

// IsZero returns true if the location has not been set.
func (s SourceLocation) IsZero() bool {
	return s.Line == 0 && s.Column == 0
}

// ParseSourceLocation parses the String form of a location. The empty
// string parses to the zero location.
func ParseSourceLocation(s string) (SourceLocation, error) {
	if s == "" {
		return SourceLocation{}, nil
	}
	line, col, ok := strings.Cut(s, ":")
	if !ok {
		return SourceLocation{}, fmt.Errorf("invalid source location %q", s)
	}
	l, err := strconv.Atoi(line)
	if err != nil {
		return SourceLocation{}, fmt.Errorf("invalid source location %q: %w", s, err)
	}
	c, err := strconv.Atoi(col)
	if err != nil {
		return SourceLocation{}, fmt.Errorf("invalid source location %q: %w", s, err)
	}
	return SourceLocation{Line: l, Column: c}, nil
}
