package bytecode

// Block is the compiled form of one hook. It is immutable after creation
// and safe for concurrent use.
type Block struct {
	name          string
	blockType     string
	instructions  []Instruction
	locations     []SourceLocation
	registerCount int
	localCount    int
	localNames    []string
}

// BlockParams contains parameters for creating a new Block.
type BlockParams struct {
	Name          string
	BlockType     string
	Instructions  []Instruction
	Locations     []SourceLocation // optional, one per instruction
	RegisterCount int
	LocalCount    int
	LocalNames    []string // for disassembly
}

// NewBlock creates a new immutable Block. Input slices are copied.
func NewBlock(params BlockParams) *Block {
	return &Block{
		name:          params.Name,
		blockType:     params.BlockType,
		instructions:  copyInstructions(params.Instructions),
		locations:     copyLocations(params.Locations),
		registerCount: params.RegisterCount,
		localCount:    params.LocalCount,
		localNames:    copyStrings(params.LocalNames),
	}
}

// Name returns the hook name used to select the block at run time.
func (b *Block) Name() string {
	return b.name
}

// BlockType returns the name of the block type the block was compiled
// against.
func (b *Block) BlockType() string {
	return b.blockType
}

// InstructionCount returns the number of instructions.
func (b *Block) InstructionCount() int {
	return len(b.instructions)
}

// InstructionAt returns the instruction at the given index.
func (b *Block) InstructionAt(index int) Instruction {
	return b.instructions[index]
}

// Instructions returns a copy of the instruction list.
func (b *Block) Instructions() []Instruction {
	return copyInstructions(b.instructions)
}

// LocationAt returns the source location for the instruction at the given
// index, or the zero location when none was recorded.
func (b *Block) LocationAt(ip int) SourceLocation {
	if ip < 0 || ip >= len(b.locations) {
		return SourceLocation{}
	}
	return b.locations[ip]
}

// RegisterCount returns the number of registers the block uses.
func (b *Block) RegisterCount() int {
	return b.registerCount
}

// LocalCount returns the number of registers reserved by locals.
func (b *Block) LocalCount() int {
	return b.localCount
}

// LocalNameAt returns the name of the local with the given index. Returns
// an empty string if the index is out of range.
func (b *Block) LocalNameAt(index int) string {
	if index < 0 || index >= len(b.localNames) {
		return ""
	}
	return b.localNames[index]
}

// LocalNameCount returns the number of recorded local names.
func (b *Block) LocalNameCount() int {
	return len(b.localNames)
}
