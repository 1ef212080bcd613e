package ast

import (
	"github.com/deepnoodle-ai/gscript/builtin"
)

// SymbolKind classifies what an identifier resolved to. The order of the
// constants is the resolution priority used by the parser.
type SymbolKind uint8

const (
	SymLocal SymbolKind = iota
	SymParam
	SymInput
	SymOutput
	SymConstant
	SymFunction
)

func (k SymbolKind) String() string {
	switch k {
	case SymLocal:
		return "local"
	case SymParam:
		return "parameter"
	case SymInput:
		return "input"
	case SymOutput:
		return "output"
	case SymConstant:
		return "constant"
	case SymFunction:
		return "function"
	default:
		return "unknown"
	}
}

// Symbol is the resolved meaning of an identifier.
type Symbol struct {
	Kind SymbolKind
	Name string

	// Index is the local slot, the parameter position, or the combined
	// input/output offset, depending on Kind.
	Index int

	// ValueKind is the kind of value read from or written to the symbol.
	ValueKind builtin.Kind

	// Value holds the numeric value of a constant.
	Value float64

	// Command is set for functions.
	Command *builtin.Command
}

// Assignable reports whether statements may write to the symbol.
func (s *Symbol) Assignable() bool {
	return s.Kind == SymLocal || s.Kind == SymOutput
}
