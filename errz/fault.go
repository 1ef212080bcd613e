// Package errz defines the runtime error domain of the VM: a Fault with a
// closed set of kinds. Faults are never retried; the block that raised one
// stops immediately and its outputs are undefined.
package errz

import (
	"errors"
	"fmt"
)

// FaultKind is the category of a runtime fault.
type FaultKind int

const (
	// AddressOutOfRange is an operand outside the caller's segment, a string
	// handle outside the string pool, or a write to a read-only segment.
	AddressOutOfRange FaultKind = iota + 1
	// UnknownCommand is an opcode the VM does not implement.
	UnknownCommand
	// StackOverflow is a register or closure offset past the fixed arrays.
	// Validated artifacts never raise it.
	StackOverflow
	// MissingHook is a request for a block that was not compiled.
	MissingHook
	// InvalidMemory is a nil memory image, or a G.* command executed
	// without a globals handle.
	InvalidMemory
)

func (k FaultKind) String() string {
	switch k {
	case AddressOutOfRange:
		return "address out of range"
	case UnknownCommand:
		return "unknown command"
	case StackOverflow:
		return "stack overflow"
	case MissingHook:
		return "missing hook"
	case InvalidMemory:
		return "invalid memory"
	default:
		return "fault"
	}
}

// Error lets a bare kind be used as a sentinel with errors.Is.
func (k FaultKind) Error() string {
	return k.String()
}

// Fault is a runtime fault raised while executing a block.
type Fault struct {
	Kind    FaultKind
	Message string
	Block   string // hook name, when known
	IP      int    // index of the faulting instruction, -1 before execution
	Op      string // opcode name of the faulting instruction
}

// Error implements the error interface.
func (f *Fault) Error() string {
	msg := f.Kind.String()
	if f.Message != "" {
		msg += ": " + f.Message
	}
	switch {
	case f.Block != "" && f.IP >= 0:
		return fmt.Sprintf("runtime fault: %s (hook %q, ip %d, %s)", msg, f.Block, f.IP, f.Op)
	case f.Block != "":
		return fmt.Sprintf("runtime fault: %s (hook %q)", msg, f.Block)
	}
	return "runtime fault: " + msg
}

// Is matches another Fault of the same kind, or a bare FaultKind.
func (f *Fault) Is(target error) bool {
	switch t := target.(type) {
	case FaultKind:
		return f.Kind == t
	case *Fault:
		return f.Kind == t.Kind
	}
	return false
}

// Newf returns a fault not tied to an instruction.
func Newf(kind FaultKind, format string, args ...any) *Fault {
	return &Fault{Kind: kind, Message: fmt.Sprintf(format, args...), IP: -1}
}

// KindOf returns the kind of the fault carried by err, or 0.
func KindOf(err error) FaultKind {
	var f *Fault
	if errors.As(err, &f) {
		return f.Kind
	}
	return 0
}
