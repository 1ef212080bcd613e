package gscript

import (
	"fmt"
	"sort"

	"github.com/rs/zerolog"

	"github.com/deepnoodle-ai/gscript/builtin"
	"github.com/deepnoodle-ai/gscript/bytecode"
	"github.com/deepnoodle-ai/gscript/env"
	"github.com/deepnoodle-ai/gscript/errz"
	"github.com/deepnoodle-ai/gscript/vm"
)

// Image is a memory image for one hook, sized from the hook's block type,
// with inputs and outputs addressed by their declared names. An Image is
// reusable across runs but not safe for concurrent use. Options are
// resolved once by NewImage, so Run allocates nothing unless a tracer is
// set.
type Image struct {
	*vm.Memory

	blocks    *bytecode.ScriptBlocks
	index     int
	hook      string
	blockType *env.BlockType
	vmOpts    []vm.Option
	logger    zerolog.Logger
}

// NewImage returns an image for running hook. The options supply the
// environment the artifact was compiled against and the G.* table.
func NewImage(blocks *bytecode.ScriptBlocks, hook string, opts ...Option) (*Image, error) {
	if blocks == nil {
		return nil, errz.Newf(errz.MissingHook, "no artifact")
	}
	index, ok := blocks.BlockIndex(hook)
	if !ok {
		f := errz.Newf(errz.MissingHook, "no block for hook %q", hook)
		f.Block = hook
		return nil, f
	}
	o := collectOptions(opts...)
	name := blocks.Block(index).BlockType()
	bt, ok := o.env.BlockType(name)
	if !ok {
		return nil, fmt.Errorf("hook %q has block type %q, which the environment does not declare", hook, name)
	}
	mem := vm.NewMemory(blocks)
	mem.Size(bt.InputSizes(), bt.OutputSizes())
	mem.Globals = o.globals
	return &Image{
		Memory:    mem,
		blocks:    blocks,
		index:     index,
		hook:      hook,
		blockType: bt,
		vmOpts:    o.vmOpts(),
		logger:    o.logger,
	}, nil
}

// Hook returns the name of the hook the image runs.
func (i *Image) Hook() string {
	return i.hook
}

// Run executes the hook against the image.
func (i *Image) Run() error {
	err := vm.RunIndex(i.blocks, i.index, i.Memory, i.vmOpts...)
	if err != nil {
		i.logger.Debug().Err(err).Str("hook", i.hook).Msg("run failed")
	}
	return err
}

func (i *Image) input(name string, kind builtin.Kind) (env.Slot, error) {
	slot, ok := i.blockType.Input(name)
	if !ok {
		return slot, fmt.Errorf("block type %q has no input %q", i.blockType.Name, name)
	}
	if slot.Kind != kind {
		return slot, fmt.Errorf("input %q holds a %s, not a %s", name, slot.Kind, kind)
	}
	return slot, nil
}

func (i *Image) output(name string) (env.Slot, error) {
	slot, ok := i.blockType.Output(name)
	if !ok {
		return slot, fmt.Errorf("block type %q has no output %q", i.blockType.Name, name)
	}
	return slot, nil
}

// Set stores a number in the named input.
func (i *Image) Set(name string, v float64) error {
	slot, err := i.input(name, builtin.Num)
	if err != nil {
		return err
	}
	return i.SetInput(slot.Offset, v)
}

// SetString interns s and stores its handle in the named input.
func (i *Image) SetString(name, s string) error {
	slot, err := i.input(name, builtin.Str)
	if err != nil {
		return err
	}
	return i.SetInput(slot.Offset, i.Intern(s))
}

// Get returns the number held by the named output. For a Str output this
// is the string handle.
func (i *Image) Get(name string) (float64, error) {
	slot, err := i.output(name)
	if err != nil {
		return 0, err
	}
	return i.Output(slot.Offset)
}

// GetString returns the string held by the named Str output.
func (i *Image) GetString(name string) (string, error) {
	slot, err := i.output(name)
	if err != nil {
		return "", err
	}
	if slot.Kind != builtin.Str {
		return "", fmt.Errorf("output %q holds a %s, not a str", name, slot.Kind)
	}
	handle, err := i.Output(slot.Offset)
	if err != nil {
		return "", err
	}
	s, ok := i.Lookup(handle)
	if !ok {
		return "", fmt.Errorf("output %q holds %v, which is not a string handle", name, handle)
	}
	return s, nil
}

// Outputs returns every declared output by name. Str outputs are returned
// as strings when they hold a valid handle.
func (i *Image) Outputs() map[string]any {
	outputs := i.blockType.Outputs()
	result := make(map[string]any, len(outputs))
	for name, slot := range outputs {
		v, err := i.Output(slot.Offset)
		if err != nil {
			continue
		}
		if slot.Kind == builtin.Str {
			if s, ok := i.Lookup(v); ok {
				result[name] = s
				continue
			}
		}
		result[name] = v
	}
	return result
}

// OutputNames returns the declared output names in sorted order.
func (i *Image) OutputNames() []string {
	names := make([]string, 0, len(i.blockType.Outputs()))
	for name := range i.blockType.Outputs() {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// InputKind returns the kind of the named input.
func (i *Image) InputKind(name string) (builtin.Kind, bool) {
	slot, ok := i.blockType.Input(name)
	return slot.Kind, ok
}
