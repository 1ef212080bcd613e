// Package gscript compiles gameplay formula scripts into ScriptBlocks and
// runs them against segmented memory images.
//
//	blocks, err := gscript.Compile(source, []string{"level"},
//		gscript.WithEnvironment(environment))
//	if err != nil {
//		return err
//	}
//	image, err := gscript.NewImage(blocks, "on_hit", gscript.WithEnvironment(environment))
//	if err != nil {
//		return err
//	}
//	image.Set("in.damage", 30)
//	if err := image.Run(); err != nil {
//		return err
//	}
//	hp, _ := image.Get("out.hp")
//
// A ScriptBlocks value is immutable and may be run concurrently against
// independent images.
package gscript

import (
	"context"

	"github.com/deepnoodle-ai/gscript/bytecode"
	"github.com/deepnoodle-ai/gscript/compiler"
	"github.com/deepnoodle-ai/gscript/env"
	"github.com/deepnoodle-ai/gscript/parser"
	"github.com/deepnoodle-ai/gscript/store"
	"github.com/deepnoodle-ai/gscript/vm"
)

// DefaultEnvironment returns the built-in constants and a "main" block type
// that may call every built-in command.
func DefaultEnvironment() *env.Environment {
	return env.Default()
}

// Compile parses and compiles source against the configured environment.
// Parameter i is bound to closure slot i. The returned ScriptBlocks is
// immutable and safe for concurrent use.
func Compile(source string, params []string, opts ...Option) (*bytecode.ScriptBlocks, error) {
	return CompileContext(context.Background(), source, params, opts...)
}

// CompileContext is Compile with a context, used by the parser and by
// cache backends.
func CompileContext(ctx context.Context, source string, params []string, opts ...Option) (*bytecode.ScriptBlocks, error) {
	o := collectOptions(opts...)
	if o.cache == nil {
		return compile(ctx, source, params, o)
	}
	key := store.Key(o.env.Fingerprint()+"\n"+o.filename, source, params)
	entry, err := o.cache.Get(ctx, key, func(ctx context.Context) (*bytecode.ScriptBlocks, error) {
		return compile(ctx, source, params, o)
	})
	if err != nil {
		return nil, err
	}
	return entry.Blocks, nil
}

func compile(ctx context.Context, source string, params []string, o *options) (*bytecode.ScriptBlocks, error) {
	program, err := parser.Parse(ctx, source, o.parserOpts(params)...)
	if err != nil {
		o.logger.Debug().Err(err).Str("filename", o.filename).Msg("parse failed")
		return nil, err
	}
	blocks, err := compiler.Compile(program, &compiler.Config{
		Params:   params,
		Filename: o.filename,
		Source:   source,
	})
	if err != nil {
		o.logger.Debug().Err(err).Str("filename", o.filename).Msg("compile failed")
		return nil, err
	}
	stats := blocks.Stats()
	o.logger.Debug().
		Str("filename", o.filename).
		Int("blocks", stats.BlockCount).
		Int("instructions", stats.InstructionCount).
		Int("constants", stats.ConstantCount).
		Int("strings", stats.StringCount).
		Int("registers", stats.MaxRegisterCount).
		Msg("compiled")
	return blocks, nil
}

// Run executes the block for hook against mem. Without options Run
// allocates nothing; to run the same hook every frame with a tracer or
// logger, create an Image once and call its Run.
func Run(blocks *bytecode.ScriptBlocks, hook string, mem *vm.Memory, opts ...Option) error {
	if len(opts) == 0 {
		return vm.Run(blocks, hook, mem)
	}
	o := applyOptions(opts...)
	err := vm.Run(blocks, hook, mem, o.vmOpts()...)
	if err != nil {
		o.logger.Debug().Err(err).Str("hook", hook).Msg("run failed")
	}
	return err
}
