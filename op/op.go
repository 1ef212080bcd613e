// Package op defines the opcodes used by the gscript compiler and virtual
// machine.
//
// The opcode set is closed. Every instruction writes one destination
// address and reads OperandCount source addresses.
package op

// Code is an integer opcode that indicates an operation to execute.
type Code uint8

const (
	Invalid Code = 0

	// Data movement
	Move   Code = 1
	Select Code = 2 // dst = src0 != 0 ? src1 : src2

	// Unary
	Negate Code = 10
	Not    Code = 11

	// Arithmetic
	Add      Code = 20
	Subtract Code = 21
	Multiply Code = 22
	Divide   Code = 23
	Modulo   Code = 24

	// Comparison and logic, producing 1 or 0
	Equal              Code = 30
	NotEqual           Code = 31
	LessThan           Code = 32
	LessThanOrEqual    Code = 33
	GreaterThan        Code = 34
	GreaterThanOrEqual Code = 35
	And                Code = 36
	Or                 Code = 37

	// Global state accessors
	GlobalInit Code = 50
	GlobalGet  Code = 51
	GlobalSet  Code = 52
	GlobalHas  Code = 53
	GlobalDel  Code = 54

	// Numeric functions
	IsNaN    Code = 60
	IsInf    Code = 61
	Abs      Code = 62
	Min      Code = 63
	Max      Code = 64
	Floor    Code = 65
	Ceil     Code = 66
	Round    Code = 67
	Clamp    Code = 68
	Saturate Code = 69
	Lerp     Code = 70
	Sqrt     Code = 71
	Degrees  Code = 72
	Radians  Code = 73
	Sin      Code = 74
	Cos      Code = 75
	Tan      Code = 76
)

// Info contains information about an opcode.
type Info struct {
	Code         Code
	Name         string
	OperandCount int
	// Pure opcodes depend only on their operands and may be folded at
	// compile time.
	Pure bool
}

// Valid reports whether the info describes a known opcode.
func (i Info) Valid() bool {
	return i.Code != Invalid
}

var infos [256]Info

func init() {
	type opInfo struct {
		op    Code
		name  string
		count int
		pure  bool
	}
	ops := []opInfo{
		{Move, "MOVE", 1, false},
		{Select, "SELECT", 3, true},
		{Negate, "NEG", 1, true},
		{Not, "NOT", 1, true},
		{Add, "ADD", 2, true},
		{Subtract, "SUB", 2, true},
		{Multiply, "MUL", 2, true},
		{Divide, "DIV", 2, true},
		{Modulo, "MOD", 2, true},
		{Equal, "EQ", 2, true},
		{NotEqual, "NE", 2, true},
		{LessThan, "LT", 2, true},
		{LessThanOrEqual, "LE", 2, true},
		{GreaterThan, "GT", 2, true},
		{GreaterThanOrEqual, "GE", 2, true},
		{And, "AND", 2, true},
		{Or, "OR", 2, true},
		{GlobalInit, "G_INIT", 2, false},
		{GlobalGet, "G_GET", 1, false},
		{GlobalSet, "G_SET", 2, false},
		{GlobalHas, "G_HAS", 1, false},
		{GlobalDel, "G_DEL", 1, false},
		{IsNaN, "IS_NAN", 1, true},
		{IsInf, "IS_INF", 1, true},
		{Abs, "ABS", 1, true},
		{Min, "MIN", 2, true},
		{Max, "MAX", 2, true},
		{Floor, "FLOOR", 1, true},
		{Ceil, "CEIL", 1, true},
		{Round, "ROUND", 1, true},
		{Clamp, "CLAMP", 3, true},
		{Saturate, "SATURATE", 1, true},
		{Lerp, "LERP", 3, true},
		{Sqrt, "SQRT", 1, true},
		{Degrees, "DEGREES", 1, true},
		{Radians, "RADIANS", 1, true},
		{Sin, "SIN", 1, true},
		{Cos, "COS", 1, true},
		{Tan, "TAN", 1, true},
	}
	for _, o := range ops {
		infos[o.op] = Info{
			Code:         o.op,
			Name:         o.name,
			OperandCount: o.count,
			Pure:         o.pure,
		}
	}
}

// GetInfo returns information about the given opcode. The returned Info is
// not Valid for unknown opcodes.
func GetInfo(op Code) Info {
	return infos[op]
}

// Lookup returns the opcode with the given name.
func Lookup(name string) (Code, bool) {
	for _, info := range infos {
		if info.Valid() && info.Name == name {
			return info.Code, true
		}
	}
	return Invalid, false
}

// String returns the opcode name, e.g. "ADD".
func (c Code) String() string {
	if info := infos[c]; info.Valid() {
		return info.Name
	}
	return "INVALID"
}

// Codes returns every known opcode in ascending order.
func Codes() []Code {
	var codes []Code
	for _, info := range infos {
		if info.Valid() {
			codes = append(codes, info.Code)
		}
	}
	return codes
}
