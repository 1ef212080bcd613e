// Package bytecode provides the immutable compiled form of a gscript
// program.
//
// This package defines the output of compilation: a [ScriptBlocks] artifact
// holding the shared constant and string pools, the formal parameters and
// one [Block] of register instructions per hook. An artifact is created once
// and shared safely across goroutines and memory images.
//
// # Key Types
//
//   - [ScriptBlocks]: The complete artifact for one script
//   - [Block]: The straight-line instruction list of one hook
//   - [Instruction]: One operation with a destination and up to eight operands
//   - [SourceLocation]: Maps an instruction back to the script (value type)
//
// # Immutability Guarantees
//
// All types in this package are immutable after construction:
//
//   - No mutation methods exist on ScriptBlocks or Block
//   - Constructors copy input slices to prevent caller mutation
//   - Accessors return values or copies, never internal slices
//
// Index-based access is used for all collections:
//
//	blocks.Block(0).InstructionAt(3)
//	blocks.ConstantAt(i)
//	blocks.StringAt(j)
//
// # Serialization
//
// Artifacts have two serialized forms carrying the same information. The
// JSON form produced by [Marshal] is meant for people: opcodes are written
// by name and addresses as "in_0[12]". The binary form produced by [Encode]
// is canonical CBOR. Both [Unmarshal] and [Decode] run [ScriptBlocks.Validate]
// before returning, so a loaded artifact can be executed without further
// checks.
package bytecode
