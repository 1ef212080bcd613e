// Package vm executes compiled gscript blocks.
//
// A block is a flat list of register instructions. The machine advances
// linearly from the first instruction to the last: there are no jumps, so
// every run terminates. Each instruction reads its operands from the
// memory image, applies its opcode and stores one value to its
// destination.
//
// The machine keeps no state between runs. Run and RunIndex do not
// allocate on the success path when called without options, and do not
// retain the memory image after returning, so one artifact may be run
// concurrently against independent images.
package vm

import (
	"fmt"

	"github.com/deepnoodle-ai/gscript/bytecode"
	"github.com/deepnoodle-ai/gscript/errz"
	"github.com/deepnoodle-ai/gscript/op"
	"github.com/deepnoodle-ai/gscript/segment"
)

// Run executes the block for the named hook against mem.
func Run(blocks *bytecode.ScriptBlocks, hook string, mem *Memory, options ...Option) error {
	if blocks == nil {
		return errz.Newf(errz.MissingHook, "no artifact")
	}
	index, ok := blocks.BlockIndex(hook)
	if !ok {
		f := errz.Newf(errz.MissingHook, "no block for hook %q", hook)
		f.Block = hook
		return f
	}
	return RunIndex(blocks, index, mem, options...)
}

// RunIndex executes the block at the given index against mem.
func RunIndex(blocks *bytecode.ScriptBlocks, index int, mem *Memory, options ...Option) error {
	if blocks == nil || index < 0 || index >= blocks.BlockCount() {
		return errz.Newf(errz.MissingHook, "no block with index %d", index)
	}
	block := blocks.Block(index)
	if mem == nil {
		f := errz.Newf(errz.InvalidMemory, "nil memory image")
		f.Block = block.Name()
		return f
	}
	m := machine{block: block, mem: mem}
	if len(options) > 0 {
		m.tracer = configure(options).tracer
	}
	return m.run()
}

type machine struct {
	block  *bytecode.Block
	mem    *Memory
	tracer Tracer
	ip     int
	ins    bytecode.Instruction
}

func (m *machine) run() error {
	var args [segment.MaxFunctionArguments]float64
	count := m.block.InstructionCount()
	for m.ip = 0; m.ip < count; m.ip++ {
		m.ins = m.block.InstructionAt(m.ip)
		argc := int(m.ins.Argc)
		if argc > len(args) {
			return m.fault(errz.UnknownCommand, "operand count %d", argc)
		}
		for i := 0; i < argc; i++ {
			v, err := m.load(m.ins.Args[i])
			if err != nil {
				return err
			}
			args[i] = v
		}
		result, err := m.execute(&args)
		if err != nil {
			return err
		}
		if err := m.store(m.ins.Dst, result); err != nil {
			return err
		}
		if m.tracer != nil {
			m.tracer(StepEvent{
				Block:       m.block.Name(),
				IP:          m.ip,
				Opcode:      m.ins.Op,
				Instruction: m.ins,
				Result:      result,
				Location:    m.block.LocationAt(m.ip),
			})
		}
	}
	return nil
}

func (m *machine) execute(args *[segment.MaxFunctionArguments]float64) (float64, error) {
	switch m.ins.Op {
	case op.GlobalInit, op.GlobalGet, op.GlobalSet, op.GlobalHas, op.GlobalDel:
		return m.global(args)
	}
	if result, ok := eval(m.ins.Op, args); ok {
		return result, nil
	}
	return 0, m.fault(errz.UnknownCommand, "opcode %d", uint8(m.ins.Op))
}

func (m *machine) global(args *[segment.MaxFunctionArguments]float64) (float64, error) {
	g := m.mem.Globals
	if g == nil {
		return 0, m.fault(errz.InvalidMemory, "no globals handle")
	}
	key, ok := m.mem.Lookup(args[0])
	if !ok {
		return 0, m.fault(errz.AddressOutOfRange, "string handle %v outside the string segment (%d)",
			args[0], len(m.mem.Strings))
	}
	switch m.ins.Op {
	case op.GlobalInit:
		return g.Init(key, args[1]), nil
	case op.GlobalGet:
		return g.Get(key), nil
	case op.GlobalSet:
		return g.Set(key, args[1]), nil
	case op.GlobalHas:
		return bool2num(g.Has(key)), nil
	default:
		return bool2num(g.Del(key)), nil
	}
}

func (m *machine) load(a segment.Address) (float64, error) {
	off := a.Offset()
	switch seg := a.Segment(); {
	case seg == segment.Register:
		if off >= len(m.mem.Registers) {
			return 0, m.fault(errz.StackOverflow, "read of %s", a)
		}
		return m.mem.Registers[off], nil
	case seg == segment.Closure:
		if off >= len(m.mem.Closures) {
			return 0, m.fault(errz.StackOverflow, "read of %s", a)
		}
		return m.mem.Closures[off], nil
	case seg.IsOutput():
		out := m.mem.Outputs[seg.OutputIndex()]
		if off >= len(out) {
			return 0, m.fault(errz.AddressOutOfRange, "read of %s past the caller's segment (%d)", a, len(out))
		}
		return out[off], nil
	case seg.IsInput():
		in := m.mem.Inputs[seg.InputIndex()]
		if off >= len(in) {
			return 0, m.fault(errz.AddressOutOfRange, "read of %s past the caller's segment (%d)", a, len(in))
		}
		return in[off], nil
	case seg == segment.Constant:
		if off >= len(m.mem.Constants) {
			return 0, m.fault(errz.AddressOutOfRange, "read of %s past the constant segment (%d)", a, len(m.mem.Constants))
		}
		return m.mem.Constants[off], nil
	case seg == segment.String:
		if off >= len(m.mem.Strings) {
			return 0, m.fault(errz.AddressOutOfRange, "read of %s past the string segment (%d)", a, len(m.mem.Strings))
		}
		return float64(off), nil
	}
	return 0, m.fault(errz.AddressOutOfRange, "read of %s", a)
}

func (m *machine) store(a segment.Address, v float64) error {
	off := a.Offset()
	switch seg := a.Segment(); {
	case seg == segment.Register:
		if off >= len(m.mem.Registers) {
			return m.fault(errz.StackOverflow, "write to %s", a)
		}
		m.mem.Registers[off] = v
	case seg == segment.Closure:
		if off >= len(m.mem.Closures) {
			return m.fault(errz.StackOverflow, "write to %s", a)
		}
		m.mem.Closures[off] = v
	case seg.IsOutput():
		out := m.mem.Outputs[seg.OutputIndex()]
		if off >= len(out) {
			return m.fault(errz.AddressOutOfRange, "write to %s past the caller's segment (%d)", a, len(out))
		}
		out[off] = v
	default:
		return m.fault(errz.AddressOutOfRange, "write to read-only segment %s", seg)
	}
	return nil
}

func (m *machine) fault(kind errz.FaultKind, format string, args ...any) *errz.Fault {
	return &errz.Fault{
		Kind:    kind,
		Message: fmt.Sprintf(format, args...),
		Block:   m.block.Name(),
		IP:      m.ip,
		Op:      m.ins.Op.String(),
	}
}
