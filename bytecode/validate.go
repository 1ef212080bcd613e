package bytecode

import (
	"fmt"

	"github.com/hashicorp/go-multierror"

	"github.com/deepnoodle-ai/gscript/op"
	"github.com/deepnoodle-ai/gscript/segment"
)

// Validate re-checks every structural bound of the artifact: opcodes are
// known and have the right operand count, register and closure operands
// fit the fixed arrays, constant and string operands fall inside the pools,
// and destinations are writable segments. All problems are reported
// together.
func (s *ScriptBlocks) Validate() error {
	var result *multierror.Error
	if s.version != FormatVersion {
		result = multierror.Append(result,
			fmt.Errorf("unsupported format version %d (expected %d)", s.version, FormatVersion))
	}
	if len(s.params) > segment.MaxClosure {
		result = multierror.Append(result,
			fmt.Errorf("%d parameters exceed the closure segment (%d)", len(s.params), segment.MaxClosure))
	}
	if len(s.constants) > segment.MaxOffset+1 {
		result = multierror.Append(result,
			fmt.Errorf("%d constants exceed the constant segment (%d)", len(s.constants), segment.MaxOffset+1))
	}
	if len(s.strings) > segment.MaxOffset+1 {
		result = multierror.Append(result,
			fmt.Errorf("%d strings exceed the string segment (%d)", len(s.strings), segment.MaxOffset+1))
	}
	seen := map[string]bool{}
	for i, b := range s.blocks {
		if b == nil {
			result = multierror.Append(result, fmt.Errorf("block %d is nil", i))
			continue
		}
		if b.name == "" {
			result = multierror.Append(result, fmt.Errorf("block %d has no name", i))
		} else if seen[b.name] {
			result = multierror.Append(result, fmt.Errorf("duplicate block %q", b.name))
		}
		seen[b.name] = true
		for _, err := range s.validateBlock(b) {
			result = multierror.Append(result, fmt.Errorf("block %q: %w", b.name, err))
		}
	}
	return result.ErrorOrNil()
}

func (s *ScriptBlocks) validateBlock(b *Block) []error {
	var errs []error
	if b.registerCount < 0 || b.registerCount > segment.MaxRegister {
		errs = append(errs, fmt.Errorf("register count %d out of range [0, %d]", b.registerCount, segment.MaxRegister))
	}
	if b.localCount < 0 || b.localCount > segment.MaxLocal || b.localCount > b.registerCount {
		errs = append(errs, fmt.Errorf("local count %d out of range", b.localCount))
	}
	if len(b.locations) != 0 && len(b.locations) != len(b.instructions) {
		errs = append(errs, fmt.Errorf("%d source locations for %d instructions", len(b.locations), len(b.instructions)))
	}
	for ip, ins := range b.instructions {
		if err := s.validateInstruction(b, ins); err != nil {
			errs = append(errs, fmt.Errorf("instruction %d: %w", ip, err))
		}
	}
	return errs
}

func (s *ScriptBlocks) validateInstruction(b *Block, ins Instruction) error {
	info := op.GetInfo(ins.Op)
	if !info.Valid() {
		return fmt.Errorf("unknown opcode %d", ins.Op)
	}
	if int(ins.Argc) != info.OperandCount {
		return fmt.Errorf("%s has %d operands (expected %d)", info.Name, ins.Argc, info.OperandCount)
	}
	for i := int(ins.Argc); i < len(ins.Args); i++ {
		if ins.Args[i] != 0 {
			return fmt.Errorf("%s has a stray operand in slot %d", info.Name, i)
		}
	}
	if !ins.Dst.Segment().Writable() {
		return fmt.Errorf("%s writes to read-only segment %s", info.Name, ins.Dst.Segment())
	}
	if err := s.validateAddress(b, ins.Dst); err != nil {
		return fmt.Errorf("%s destination: %w", info.Name, err)
	}
	for i, a := range ins.Operands() {
		if err := s.validateAddress(b, a); err != nil {
			return fmt.Errorf("%s operand %d: %w", info.Name, i, err)
		}
	}
	return nil
}

// validateAddress checks the address against the bounds known from the
// artifact. Input and output offsets depend on the caller's image and are
// checked at run time.
func (s *ScriptBlocks) validateAddress(b *Block, a segment.Address) error {
	off := a.Offset()
	switch seg := a.Segment(); seg {
	case segment.Register:
		if off >= b.registerCount {
			return fmt.Errorf("%s is past the block's %d registers", a, b.registerCount)
		}
	case segment.Closure:
		if off >= len(s.params) {
			return fmt.Errorf("%s is past the %d parameters", a, len(s.params))
		}
	case segment.Constant:
		if off >= len(s.constants) {
			return fmt.Errorf("%s is past the %d constants", a, len(s.constants))
		}
	case segment.String:
		if off >= len(s.strings) {
			return fmt.Errorf("%s is past the %d strings", a, len(s.strings))
		}
	}
	return nil
}
