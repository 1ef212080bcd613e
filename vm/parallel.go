package vm

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/deepnoodle-ai/gscript/bytecode"
	"github.com/deepnoodle-ai/gscript/errz"
)

// RunParallel runs the block for hook against every image, at most limit
// at a time (unlimited when limit <= 0). It returns the first fault. The
// context only stops new runs from being scheduled; a started run always
// completes.
func RunParallel(ctx context.Context, blocks *bytecode.ScriptBlocks, hook string, images []*Memory, limit int, options ...Option) error {
	if blocks == nil {
		return errz.Newf(errz.MissingHook, "no artifact")
	}
	index, ok := blocks.BlockIndex(hook)
	if !ok {
		f := errz.Newf(errz.MissingHook, "no block for hook %q", hook)
		f.Block = hook
		return f
	}
	g, ctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}
	for _, mem := range images {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			return RunIndex(blocks, index, mem, options...)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}
