package bytecode

// FormatVersion is the version of the artifact format and of the command
// vocabulary it was compiled against. Loading an artifact with a different
// version fails validation.
const FormatVersion = 1

// ScriptBlocks is a compiled script: the constant and string segments
// shared by every block, the formal parameters bound to closure slots, and
// one block per hook. It is immutable after creation and safe to run
// concurrently against independent memory images.
type ScriptBlocks struct {
	version   int
	params    []string
	constants []float64
	strings   []string
	source    string
	filename  string
	blocks    []*Block
	index     map[string]int
}

// Params contains parameters for creating new ScriptBlocks.
type Params struct {
	// Version defaults to FormatVersion when zero.
	Version   int
	Params    []string
	Constants []float64
	Strings   []string
	Source    string
	Filename  string
	Blocks    []*Block
}

// NewScriptBlocks creates a new immutable artifact from the given
// parameters. Input slices are copied. Blocks are already immutable and
// are shared. When two blocks have the same name the first one wins a
// lookup by name; Validate reports the duplicate.
func NewScriptBlocks(p Params) *ScriptBlocks {
	version := p.Version
	if version == 0 {
		version = FormatVersion
	}
	s := &ScriptBlocks{
		version:   version,
		params:    copyStrings(p.Params),
		constants: copyFloats(p.Constants),
		strings:   copyStrings(p.Strings),
		source:    p.Source,
		filename:  p.Filename,
		index:     make(map[string]int, len(p.Blocks)),
	}
	if len(p.Blocks) > 0 {
		s.blocks = make([]*Block, len(p.Blocks))
		copy(s.blocks, p.Blocks)
	}
	for i, b := range s.blocks {
		if _, ok := s.index[b.name]; !ok {
			s.index[b.name] = i
		}
	}
	return s
}

// Version returns the artifact format version.
func (s *ScriptBlocks) Version() int {
	return s.version
}

// ParamCount returns the number of formal parameters.
func (s *ScriptBlocks) ParamCount() int {
	return len(s.params)
}

// Params returns a copy of the formal parameter names. Parameter i is
// bound to closure slot i.
func (s *ScriptBlocks) Params() []string {
	return copyStrings(s.params)
}

// ConstantCount returns the size of the constant segment.
func (s *ScriptBlocks) ConstantCount() int {
	return len(s.constants)
}

// ConstantAt returns the constant at the given offset.
func (s *ScriptBlocks) ConstantAt(index int) float64 {
	return s.constants[index]
}

// Constants returns a copy of the constant segment.
func (s *ScriptBlocks) Constants() []float64 {
	return copyFloats(s.constants)
}

// StringCount returns the size of the string segment.
func (s *ScriptBlocks) StringCount() int {
	return len(s.strings)
}

// StringAt returns the interned string with the given handle.
func (s *ScriptBlocks) StringAt(index int) string {
	return s.strings[index]
}

// Strings returns a copy of the string segment.
func (s *ScriptBlocks) Strings() []string {
	return copyStrings(s.strings)
}

// Source returns the script source, if it was recorded.
func (s *ScriptBlocks) Source() string {
	return s.source
}

// Filename returns the script filename, if it was recorded.
func (s *ScriptBlocks) Filename() string {
	return s.filename
}

// BlockCount returns the number of blocks.
func (s *ScriptBlocks) BlockCount() int {
	return len(s.blocks)
}

// Block returns the block at the given index.
func (s *ScriptBlocks) Block(index int) *Block {
	return s.blocks[index]
}

// BlockIndex returns the index of the block for the named hook.
func (s *ScriptBlocks) BlockIndex(name string) (int, bool) {
	i, ok := s.index[name]
	return i, ok
}

// BlockNames returns the hook names in block order.
func (s *ScriptBlocks) BlockNames() []string {
	names := make([]string, len(s.blocks))
	for i, b := range s.blocks {
		names[i] = b.name
	}
	return names
}
