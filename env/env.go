// Package env describes the tables a script is compiled against: global
// constants and, per block type, the declared inputs, outputs and callable
// functions.
package env

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"

	"github.com/deepnoodle-ai/gscript/builtin"
	"github.com/deepnoodle-ai/gscript/segment"
)

// DefaultBlockName names the block holding top-level statements unless an
// environment says otherwise.
const DefaultBlockName = "main"

// Slot is a declared input or output: a combined in/out offset and the
// kind of value stored there.
type Slot struct {
	Offset int
	Kind   builtin.Kind
}

// InputAddress returns the input segment address of the slot.
func (s Slot) InputAddress() (segment.Address, error) {
	return segment.InputAddress(s.Offset)
}

// OutputAddress returns the output segment address of the slot.
func (s Slot) OutputAddress() (segment.Address, error) {
	return segment.OutputAddress(s.Offset)
}

// BlockType holds the symbol tables used to resolve names inside blocks of
// one type.
type BlockType struct {
	Name      string
	inputs    map[string]Slot
	outputs   map[string]Slot
	functions map[string]builtin.Command
}

// NewBlockType returns an empty block type.
func NewBlockType(name string) *BlockType {
	return &BlockType{
		Name:      name,
		inputs:    map[string]Slot{},
		outputs:   map[string]Slot{},
		functions: map[string]builtin.Command{},
	}
}

// AddInput declares a read-only input.
func (b *BlockType) AddInput(name string, offset int, kind builtin.Kind) error {
	if err := b.checkName(name); err != nil {
		return err
	}
	if _, err := segment.InputAddress(offset); err != nil {
		return fmt.Errorf("input %q: %w", name, err)
	}
	b.inputs[name] = Slot{Offset: offset, Kind: kind}
	return nil
}

// AddOutput declares a writable output.
func (b *BlockType) AddOutput(name string, offset int, kind builtin.Kind) error {
	if err := b.checkName(name); err != nil {
		return err
	}
	if _, err := segment.OutputAddress(offset); err != nil {
		return fmt.Errorf("output %q: %w", name, err)
	}
	for other, slot := range b.outputs {
		if slot.Offset == offset {
			return fmt.Errorf("output %q: offset %d already used by %q", name, offset, other)
		}
	}
	b.outputs[name] = Slot{Offset: offset, Kind: kind}
	return nil
}

func (b *BlockType) checkName(name string) error {
	if !ValidName(name) {
		return fmt.Errorf("invalid symbol name %q", name)
	}
	if _, ok := b.inputs[name]; ok {
		return fmt.Errorf("symbol %q already declared as an input", name)
	}
	if _, ok := b.outputs[name]; ok {
		return fmt.Errorf("symbol %q already declared as an output", name)
	}
	return nil
}

// AddFunction makes a command callable under the given name.
func (b *BlockType) AddFunction(name string, cmd builtin.Command) error {
	if !ValidName(name) {
		return fmt.Errorf("invalid function name %q", name)
	}
	if len(cmd.Args) > segment.MaxFunctionArguments {
		return fmt.Errorf("function %q takes %d arguments, the limit is %d",
			name, len(cmd.Args), segment.MaxFunctionArguments)
	}
	b.functions[name] = cmd
	return nil
}

// AllowFunctions adds every built-in command matching the patterns under
// its own name. Patterns are exact names, "*", or prefixes like "math.*".
func (b *BlockType) AllowFunctions(patterns ...string) error {
	for _, p := range patterns {
		matched := builtin.Match(p)
		if len(matched) == 0 {
			return fmt.Errorf("function pattern %q matches no built-in command", p)
		}
		for _, cmd := range matched {
			if err := b.AddFunction(cmd.Name, cmd); err != nil {
				return err
			}
		}
	}
	return nil
}

// Input returns the declared input with the given name.
func (b *BlockType) Input(name string) (Slot, bool) {
	s, ok := b.inputs[name]
	return s, ok
}

// Output returns the declared output with the given name.
func (b *BlockType) Output(name string) (Slot, bool) {
	s, ok := b.outputs[name]
	return s, ok
}

// Function returns the callable command with the given name.
func (b *BlockType) Function(name string) (builtin.Command, bool) {
	c, ok := b.functions[name]
	return c, ok
}

// Inputs returns a copy of the input table.
func (b *BlockType) Inputs() map[string]Slot { return copyMap(b.inputs) }

// Outputs returns a copy of the output table.
func (b *BlockType) Outputs() map[string]Slot { return copyMap(b.outputs) }

// Functions returns the sorted callable names.
func (b *BlockType) Functions() []string { return sortedKeys(b.functions) }

// InputSizes returns, per input segment, the number of slots needed to
// hold every declared input.
func (b *BlockType) InputSizes() [segment.InputSegments]int {
	var sizes [segment.InputSegments]int
	for _, s := range b.inputs {
		seg, off := s.Offset>>segment.OffsetBits, s.Offset&segment.MaxOffset
		sizes[seg] = max(sizes[seg], off+1)
	}
	return sizes
}

// OutputSizes returns, per output segment, the number of slots needed to
// hold every declared output.
func (b *BlockType) OutputSizes() [segment.OutputSegments]int {
	var sizes [segment.OutputSegments]int
	for _, s := range b.outputs {
		seg, off := s.Offset>>segment.OffsetBits, s.Offset&segment.MaxOffset
		sizes[seg] = max(sizes[seg], off+1)
	}
	return sizes
}

// Names returns every name resolvable in the block type, for suggestions.
func (b *BlockType) Names() []string {
	names := sortedKeys(b.inputs)
	names = append(names, sortedKeys(b.outputs)...)
	return append(names, sortedKeys(b.functions)...)
}

// Environment is the complete set of tables for compilation. It is not
// safe to modify while compilations using it are running.
type Environment struct {
	// DefaultBlock is the name and block type of top-level statements.
	DefaultBlock string

	constants  map[string]float64
	blockTypes map[string]*BlockType
}

// New returns an environment holding the built-in constants and no block
// types.
func New() *Environment {
	return &Environment{
		DefaultBlock: DefaultBlockName,
		constants:    builtin.Constants(),
		blockTypes:   map[string]*BlockType{},
	}
}

// Default returns an environment with a single "main" block type that may
// call every built-in command and declares no inputs or outputs.
func Default() *Environment {
	e := New()
	main := NewBlockType(DefaultBlockName)
	if err := main.AllowFunctions("*"); err != nil {
		panic(err)
	}
	e.AddBlockType(main)
	return e
}

// AddConstant declares a global constant.
func (e *Environment) AddConstant(name string, value float64) error {
	if !ValidName(name) {
		return fmt.Errorf("invalid constant name %q", name)
	}
	if _, ok := builtin.LookupConstant(name); ok {
		return fmt.Errorf("constant %q is built in", name)
	}
	e.constants[name] = value
	return nil
}

// Constant returns the value of a global constant.
func (e *Environment) Constant(name string) (float64, bool) {
	v, ok := e.constants[name]
	return v, ok
}

// Constants returns the sorted constant names.
func (e *Environment) Constants() []string { return sortedKeys(e.constants) }

// AddBlockType registers or replaces a block type.
func (e *Environment) AddBlockType(b *BlockType) {
	e.blockTypes[b.Name] = b
}

// BlockType returns the block type with the given name.
func (e *Environment) BlockType(name string) (*BlockType, bool) {
	b, ok := e.blockTypes[name]
	return b, ok
}

// BlockTypes returns the sorted block type names.
func (e *Environment) BlockTypes() []string { return sortedKeys(e.blockTypes) }

// Fingerprint is a stable digest of every table in the environment. Two
// environments with equal fingerprints compile any script identically.
func (e *Environment) Fingerprint() string {
	h := sha256.New()
	fmt.Fprintf(h, "default=%s\n", e.DefaultBlock)
	for _, name := range e.Constants() {
		fmt.Fprintf(h, "const %s=%x\n", name, e.constants[name])
	}
	for _, name := range e.BlockTypes() {
		b := e.blockTypes[name]
		fmt.Fprintf(h, "type %s\n", name)
		for _, in := range sortedKeys(b.inputs) {
			s := b.inputs[in]
			fmt.Fprintf(h, " in %s=%d:%s\n", in, s.Offset, s.Kind)
		}
		for _, out := range sortedKeys(b.outputs) {
			s := b.outputs[out]
			fmt.Fprintf(h, " out %s=%d:%s\n", out, s.Offset, s.Kind)
		}
		for _, fn := range b.Functions() {
			fmt.Fprintf(h, " fn %s=%s\n", fn, b.functions[fn].Signature())
		}
	}
	return hex.EncodeToString(h.Sum(nil))
}

// ValidName reports whether name is a possibly dotted identifier such as
// "in.base" or "CRIT".
func ValidName(name string) bool {
	if name == "" {
		return false
	}
	start := true
	for i := 0; i < len(name); i++ {
		ch := name[i]
		switch {
		case ch == '.':
			if start {
				return false
			}
			start = true
			continue
		case ch == '_' || ('a' <= ch && ch <= 'z') || ('A' <= ch && ch <= 'Z'):
		case '0' <= ch && ch <= '9':
			if start {
				return false
			}
		default:
			return false
		}
		start = false
	}
	return !start && !isKeyword(name)
}

func isKeyword(name string) bool {
	switch name {
	case "let", "hook", "true", "false":
		return true
	}
	return false
}

func copyMap[V any](m map[string]V) map[string]V {
	result := make(map[string]V, len(m))
	for k, v := range m {
		result[k] = v
	}
	return result
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
