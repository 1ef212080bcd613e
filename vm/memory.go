package vm

import (
	"fmt"

	"github.com/deepnoodle-ai/gscript/bytecode"
	"github.com/deepnoodle-ai/gscript/segment"
)

// Globals is the key to number table behind the G.* commands. It is
// injected by the caller through Memory.Globals.
type Globals interface {
	// Init stores value when key is absent and returns the stored value.
	Init(key string, value float64) float64
	// Get returns the value for key, or 0 when absent.
	Get(key string) float64
	// Set stores value and returns it.
	Set(key string, value float64) float64
	// Has reports whether key is present.
	Has(key string) bool
	// Del removes key and reports whether it was present.
	Del(key string) bool
}

// Memory is the image a block executes against. The caller owns the input
// and output segments; the constant and string segments come from the
// artifact. Numeric slots refer to strings by handle, the offset of the
// string in Strings.
type Memory struct {
	Registers [segment.MaxRegister]float64
	Closures  [segment.MaxClosure]float64
	Outputs   [segment.OutputSegments][]float64
	Inputs    [segment.InputSegments][]float64
	Constants []float64
	Strings   []string
	Globals   Globals

	interned int // strings appended by Intern
}

// NewMemory returns an image bound to the constant and string segments of
// an artifact. Input and output segments start empty; see Size.
func NewMemory(blocks *bytecode.ScriptBlocks) *Memory {
	return &Memory{
		Constants: blocks.Constants(),
		Strings:   blocks.Strings(),
	}
}

// Size allocates zeroed input and output segments with the given lengths,
// typically the InputSizes and OutputSizes of a block type.
func (m *Memory) Size(inputs [segment.InputSegments]int, outputs [segment.OutputSegments]int) {
	for i, n := range inputs {
		m.Inputs[i] = make([]float64, n)
	}
	for i, n := range outputs {
		m.Outputs[i] = make([]float64, n)
	}
}

// Reset clears registers, closures and outputs without allocating, and
// drops the strings added by Intern. Handles to those strings held in
// input segments are stale afterwards and must be set again.
func (m *Memory) Reset() {
	m.Registers = [segment.MaxRegister]float64{}
	m.Closures = [segment.MaxClosure]float64{}
	for _, out := range m.Outputs {
		clear(out)
	}
	if m.interned > 0 {
		n := len(m.Strings) - m.interned
		clear(m.Strings[n:])
		m.Strings = m.Strings[:n]
		m.interned = 0
	}
}

// SetArgs stores parameter values into the closure slots.
func (m *Memory) SetArgs(args ...float64) error {
	if len(args) > segment.MaxClosure {
		return fmt.Errorf("%d arguments exceed the %d closure slots", len(args), segment.MaxClosure)
	}
	copy(m.Closures[:], args)
	return nil
}

// Intern returns the handle of s in the string segment, appending it when
// it is not already present. Str inputs hold handles returned here. An
// image reused across frames with changing strings should be Reset
// between frames so the segment does not grow.
func (m *Memory) Intern(s string) float64 {
	for i, existing := range m.Strings {
		if existing == s {
			return float64(i)
		}
	}
	m.Strings = append(m.Strings, s)
	m.interned++
	return float64(len(m.Strings) - 1)
}

// Lookup returns the string with the given handle.
func (m *Memory) Lookup(handle float64) (string, bool) {
	i := int(handle)
	if float64(i) != handle || i < 0 || i >= len(m.Strings) {
		return "", false
	}
	return m.Strings[i], true
}

// SetInput stores v at a combined input offset, growing the segment when
// needed.
func (m *Memory) SetInput(combined int, v float64) error {
	addr, err := segment.InputAddress(combined)
	if err != nil {
		return err
	}
	seg := &m.Inputs[addr.Segment().InputIndex()]
	if off := addr.Offset(); off >= len(*seg) {
		*seg = append(*seg, make([]float64, off+1-len(*seg))...)
	}
	(*seg)[addr.Offset()] = v
	return nil
}

// Output returns the value at a combined output offset.
func (m *Memory) Output(combined int) (float64, error) {
	addr, err := segment.OutputAddress(combined)
	if err != nil {
		return 0, err
	}
	seg := m.Outputs[addr.Segment().OutputIndex()]
	if addr.Offset() >= len(seg) {
		return 0, fmt.Errorf("output %s is past the end of its segment (%d)", addr, len(seg))
	}
	return seg[addr.Offset()], nil
}
