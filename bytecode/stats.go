package bytecode

// Stats contains statistics about a compiled artifact.
// This is useful for auditing scripts before execution.
type Stats struct {
	// BlockCount is the number of hooks.
	BlockCount int

	// InstructionCount is the total number of instructions in all blocks.
	InstructionCount int

	// ConstantCount is the number of entries in the constant segment.
	ConstantCount int

	// StringCount is the number of entries in the string segment.
	StringCount int

	// MaxRegisterCount is the largest register count of any block.
	MaxRegisterCount int

	// SourceBytes is the size of the original source code in bytes.
	SourceBytes int
}

// Stats computes statistics for the artifact.
func (s *ScriptBlocks) Stats() Stats {
	stats := Stats{
		BlockCount:    len(s.blocks),
		ConstantCount: len(s.constants),
		StringCount:   len(s.strings),
		SourceBytes:   len(s.source),
	}
	for _, b := range s.blocks {
		stats.InstructionCount += len(b.instructions)
		stats.MaxRegisterCount = max(stats.MaxRegisterCount, b.registerCount)
	}
	return stats
}
