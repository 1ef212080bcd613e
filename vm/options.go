package vm

import (
	"github.com/deepnoodle-ai/gscript/bytecode"
	"github.com/deepnoodle-ai/gscript/op"
)

// Option is a configuration function for a run.
type Option func(*config)

type config struct {
	tracer Tracer
}

func configure(options []Option) config {
	cfg := &config{}
	for _, opt := range options {
		opt(cfg)
	}
	return *cfg
}

// StepEvent describes one executed instruction.
type StepEvent struct {
	// Block is the name of the executing hook.
	Block string

	// IP is the index of the instruction in the block.
	IP int

	// Opcode is the operation that was executed.
	Opcode op.Code

	// Instruction is the full instruction.
	Instruction bytecode.Instruction

	// Result is the value written to the destination.
	Result float64

	// Location is the source location of the instruction, if recorded.
	Location bytecode.SourceLocation
}

// Tracer receives a StepEvent after every executed instruction. It is
// called synchronously, so implementations should be fast.
type Tracer func(StepEvent)

// WithTracer sets a callback invoked after every instruction.
func WithTracer(t Tracer) Option {
	return func(c *config) {
		c.tracer = t
	}
}
