// Package segment defines the fixed addressing scheme targeted by the
// gscript compiler and virtual machine.
//
// Memory is split into 16 segments. Every instruction operand is an Address,
// a (segment, offset) pair packed into 16 bits: the top 4 bits select the
// segment and the low 12 bits hold the offset.
package segment

import (
	"fmt"
	"strconv"
	"strings"
)

// Segment identifies one of the 16 address spaces.
type Segment uint8

const (
	Register Segment = 0
	Closure  Segment = 1
	Out0     Segment = 2
	Out1     Segment = 3
	Out2     Segment = 4
	Out3     Segment = 5
	Out4     Segment = 6
	Constant Segment = 7
	In0      Segment = 8
	In1      Segment = 9
	In2      Segment = 10
	In3      Segment = 11
	In4      Segment = 12
	In5      Segment = 13
	In6      Segment = 14
	String   Segment = 15
)

// Limits enforced by the code generator. The VM re-checks them, but a
// violation at runtime indicates a generator defect.
const (
	// Count is the number of segments.
	Count = 16

	// OffsetBits is the width of the offset field of an Address.
	OffsetBits = 12

	// MaxOffset is the largest offset representable in an Address.
	MaxOffset = 1<<OffsetBits - 1

	// MaxInOutOffset bounds the combined offsets used by input and output
	// tables. A combined offset selects both the segment and the offset.
	MaxInOutOffset = MaxOffset * 8

	// MaxRegister is the number of register slots available to a block.
	MaxRegister = 48

	// MaxLocal is the number of register slots that may be reserved by
	// local variables.
	MaxLocal = 24

	// MaxClosure is the number of closure slots (one per parameter).
	MaxClosure = 32

	// MaxFunctionArguments is the largest argument count of a command.
	MaxFunctionArguments = 8

	// OutputSegments is the number of output segments.
	OutputSegments = 5

	// InputSegments is the number of input segments.
	InputSegments = 7
)

var names = [Count]string{
	"reg", "closure",
	"out_0", "out_1", "out_2", "out_3", "out_4",
	"const",
	"in_0", "in_1", "in_2", "in_3", "in_4", "in_5", "in_6",
	"str",
}

// String returns the short name of the segment, e.g. "in_3".
func (s Segment) String() string {
	if int(s) < Count {
		return names[s]
	}
	return fmt.Sprintf("segment(%d)", uint8(s))
}

// IsOutput reports whether s is one of the output segments.
func (s Segment) IsOutput() bool {
	return s >= Out0 && s <= Out4
}

// IsInput reports whether s is one of the input segments.
func (s Segment) IsInput() bool {
	return s >= In0 && s <= In6
}

// Writable reports whether instructions may store into s.
func (s Segment) Writable() bool {
	return s == Register || s == Closure || s.IsOutput()
}

// Capacity returns the maximum number of slots addressable in s.
func (s Segment) Capacity() int {
	switch s {
	case Register:
		return MaxRegister
	case Closure:
		return MaxClosure
	default:
		return MaxOffset + 1
	}
}

// OutputIndex returns the index of an output segment (0 for out_0).
func (s Segment) OutputIndex() int {
	return int(s - Out0)
}

// InputIndex returns the index of an input segment (0 for in_0).
func (s Segment) InputIndex() int {
	return int(s - In0)
}

// Address is a validated (segment, offset) pair.
type Address uint16

// NewAddress returns the address of the given offset within a segment. It
// fails when the segment is unknown or the offset does not fit the segment.
func NewAddress(seg Segment, offset int) (Address, error) {
	if int(seg) >= Count {
		return 0, fmt.Errorf("invalid segment %d", seg)
	}
	if offset < 0 || offset >= seg.Capacity() {
		return 0, fmt.Errorf("offset %d out of range for segment %s (capacity %d)",
			offset, seg, seg.Capacity())
	}
	return Address(uint16(seg)<<OffsetBits | uint16(offset)), nil
}

// MustAddress is like NewAddress but panics on an invalid address. It is
// intended for tests and static tables.
func MustAddress(seg Segment, offset int) Address {
	a, err := NewAddress(seg, offset)
	if err != nil {
		panic(err)
	}
	return a
}

// Segment returns the segment the address belongs to.
func (a Address) Segment() Segment {
	return Segment(a >> OffsetBits)
}

// Offset returns the offset of the address within its segment.
func (a Address) Offset() int {
	return int(a & MaxOffset)
}

// String renders the address as "segment[offset]", e.g. "in_0[12]".
func (a Address) String() string {
	return a.Segment().String() + "[" + strconv.Itoa(a.Offset()) + "]"
}

// ParseAddress parses the String form of an address.
func ParseAddress(s string) (Address, error) {
	open := strings.IndexByte(s, '[')
	if open < 1 || !strings.HasSuffix(s, "]") {
		return 0, fmt.Errorf("invalid address %q", s)
	}
	name := s[:open]
	offset, err := strconv.Atoi(s[open+1 : len(s)-1])
	if err != nil {
		return 0, fmt.Errorf("invalid address %q: %w", s, err)
	}
	for i, n := range names {
		if n == name {
			return NewAddress(Segment(i), offset)
		}
	}
	return 0, fmt.Errorf("invalid address %q: unknown segment %q", s, name)
}

// InputAddress maps a combined input offset to an address in one of the
// input segments.
func InputAddress(combined int) (Address, error) {
	return inoutAddress(combined, In0, InputSegments)
}

// OutputAddress maps a combined output offset to an address in one of the
// output segments.
func OutputAddress(combined int) (Address, error) {
	return inoutAddress(combined, Out0, OutputSegments)
}

func inoutAddress(combined int, base Segment, count int) (Address, error) {
	if combined < 0 || combined > MaxInOutOffset {
		return 0, fmt.Errorf("combined offset %d out of range [0, %d]", combined, MaxInOutOffset)
	}
	index := combined >> OffsetBits
	if index >= count {
		return 0, fmt.Errorf("combined offset %d selects segment %d but only %d exist",
			combined, index, count)
	}
	return NewAddress(base+Segment(index), combined&MaxOffset)
}
