package errors

// ErrorCode identifies a kind of compile error. Codes are grouped by
// category:
//   - E1xxx: syntax errors
//   - E2xxx: resolution, type and slot budget errors
type ErrorCode string

const (
	// Syntax errors (E1xxx)
	E1001 ErrorCode = "E1001" // Unexpected token
	E1002 ErrorCode = "E1002" // Unterminated string literal
	E1003 ErrorCode = "E1003" // Invalid syntax
	E1004 ErrorCode = "E1004" // Missing expression
	E1005 ErrorCode = "E1005" // Invalid assignment target
	E1006 ErrorCode = "E1006" // Expected identifier
	E1007 ErrorCode = "E1007" // Unclosed delimiter
	E1008 ErrorCode = "E1008" // Invalid number literal
	E1009 ErrorCode = "E1009" // Maximum nesting depth exceeded
	E1010 ErrorCode = "E1010" // Invalid escape sequence

	// Semantic errors (E2xxx)
	E2001 ErrorCode = "E2001" // Symbol not found
	E2002 ErrorCode = "E2002" // Unknown function
	E2007 ErrorCode = "E2007" // Register exhaustion
	E2008 ErrorCode = "E2008" // Too many constants
	E2009 ErrorCode = "E2009" // Too many closures
	E2011 ErrorCode = "E2011" // Argument kind mismatch
	E2012 ErrorCode = "E2012" // Argument count mismatch
	E2013 ErrorCode = "E2013" // Output kind mismatch
	E2014 ErrorCode = "E2014" // Too many locals
	E2015 ErrorCode = "E2015" // Too many arguments
	E2016 ErrorCode = "E2016" // Too many strings
	E2017 ErrorCode = "E2017" // Duplicate hook
	E2018 ErrorCode = "E2018" // Unknown block type
	E2019 ErrorCode = "E2019" // Redeclared symbol
	E2020 ErrorCode = "E2020" // Not assignable
	E2021 ErrorCode = "E2021" // Not callable
	E2022 ErrorCode = "E2022" // Invalid operand kind
	E2023 ErrorCode = "E2023" // Expression has no effect
)

var codeDescriptions = map[ErrorCode]string{
	E1001: "unexpected token",
	E1002: "unterminated string literal",
	E1003: "invalid syntax",
	E1004: "missing expression",
	E1005: "invalid assignment target",
	E1006: "expected identifier",
	E1007: "unclosed delimiter",
	E1008: "invalid number literal",
	E1009: "maximum nesting depth exceeded",
	E1010: "invalid escape sequence",

	E2001: "symbol not found",
	E2002: "unknown function",
	E2007: "script bad command: register exhaustion",
	E2008: "too many constants",
	E2009: "too many closures",
	E2011: "argument kind mismatch",
	E2012: "argument count mismatch",
	E2013: "output kind mismatch",
	E2014: "too many locals",
	E2015: "too many arguments",
	E2016: "too many strings",
	E2017: "duplicate hook",
	E2018: "unknown block type",
	E2019: "redeclared symbol",
	E2020: "not assignable",
	E2021: "not callable",
	E2022: "invalid operand kind",
	E2023: "expression has no effect",
}

// Description returns the short description for an error code.
func (c ErrorCode) Description() string {
	if desc, ok := codeDescriptions[c]; ok {
		return desc
	}
	return "unknown error"
}

func (c ErrorCode) String() string {
	return string(c)
}

// Category returns "syntax", "budget" or "semantic" based on the code.
func (c ErrorCode) Category() string {
	if len(c) < 2 {
		return "unknown"
	}
	switch c {
	case E2007, E2008, E2009, E2014, E2015, E2016:
		return "budget"
	}
	switch c[1] {
	case '1':
		return "syntax"
	case '2':
		return "semantic"
	default:
		return "unknown"
	}
}
