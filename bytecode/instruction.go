package bytecode

import (
	"fmt"
	"strings"

	"github.com/deepnoodle-ai/gscript/op"
	"github.com/deepnoodle-ai/gscript/segment"
)

// Instruction is one register operation: it reads Argc operands from Args
// and writes a single value to Dst. Operands past Argc are zero.
type Instruction struct {
	Op   op.Code
	Argc uint8
	Dst  segment.Address
	Args [segment.MaxFunctionArguments]segment.Address
}

// NewInstruction builds an instruction, checking the operand count against
// the opcode.
func NewInstruction(code op.Code, dst segment.Address, args ...segment.Address) (Instruction, error) {
	info := op.GetInfo(code)
	if !info.Valid() {
		return Instruction{}, fmt.Errorf("unknown opcode %d", code)
	}
	if len(args) != info.OperandCount {
		return Instruction{}, fmt.Errorf("%s takes %d operands, got %d", info.Name, info.OperandCount, len(args))
	}
	ins := Instruction{Op: code, Argc: uint8(len(args)), Dst: dst}
	copy(ins.Args[:], args)
	return ins, nil
}

// Operands returns the used operand addresses.
func (i Instruction) Operands() []segment.Address {
	n := min(int(i.Argc), len(i.Args))
	return i.Args[:n:n]
}

// String renders the instruction as "ADD reg[0], in_0[0], const[1]".
func (i Instruction) String() string {
	var b strings.Builder
	b.WriteString(i.Op.String())
	b.WriteString(" ")
	b.WriteString(i.Dst.String())
	for _, a := range i.Operands() {
		b.WriteString(", ")
		b.WriteString(a.String())
	}
	return b.String()
}
