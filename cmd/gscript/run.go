package main

import (
	"fmt"
	"io"
	"math"

	"github.com/spf13/cobra"

	"github.com/deepnoodle-ai/gscript"
	"github.com/deepnoodle-ai/gscript/builtin"
	"github.com/deepnoodle-ai/gscript/bytecode"
	"github.com/deepnoodle-ai/gscript/dis"
	"github.com/deepnoodle-ai/gscript/env"
	"github.com/deepnoodle-ai/gscript/globals"
	"github.com/deepnoodle-ai/gscript/vm"
)

func (a *app) newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run FILE|ARTIFACT",
		Short: "Run one hook of a script",
		Args:  cobra.MaximumNArgs(1),
		RunE:  a.runHandler,
	}
	flags := cmd.Flags()
	flags.String("hook", env.DefaultBlockName, "Hook to run")
	flags.StringArray("in", nil, "Set an input: name=value (repeatable)")
	flags.StringArray("arg", nil, "Bind the next script parameter (repeatable)")
	flags.StringArray("global", nil, "Seed a G.* entry: key=value (repeatable)")
	flags.StringP("output", "o", "text", "Output format: text or json")
	flags.Bool("trace", false, "Print every executed instruction to stderr")
	return cmd
}

func (a *app) runHandler(cmd *cobra.Command, args []string) error {
	flags := cmd.Flags()
	hook, _ := flags.GetString("hook")
	inputs, _ := flags.GetStringArray("in")
	scriptArgs, _ := flags.GetStringArray("arg")
	seeds, _ := flags.GetStringArray("global")
	format, _ := flags.GetString("output")
	trace, _ := flags.GetBool("trace")

	src, err := a.readSource(cmd, args)
	if err != nil {
		return err
	}
	blocks, err := a.compileSource(cmd, src)
	if err != nil {
		return err
	}
	e, err := a.environment()
	if err != nil {
		return err
	}

	table, err := seedGlobals(seeds)
	if err != nil {
		return err
	}
	opts := []gscript.Option{
		gscript.WithEnvironment(e),
		gscript.WithLogger(a.logger()),
		gscript.WithGlobals(table),
	}
	if trace {
		opts = append(opts, gscript.WithTracer(tracer(cmd.ErrOrStderr())))
	}
	image, err := newImage(blocks, hook, inputs, scriptArgs, opts...)
	if err != nil {
		return err
	}

	if err := image.Run(); err != nil {
		return err
	}

	r := result{Hook: hook, Outputs: image.Outputs(), Globals: table.Values()}
	if format == "json" {
		r = jsonSafe(r)
	}
	return a.writeResult(cmd.OutOrStdout(), r, format)
}

func seedGlobals(seeds []string) (*globals.Table, error) {
	seed := map[string]float64{}
	for _, s := range seeds {
		key, value, err := parseAssignment(s)
		if err != nil {
			return nil, err
		}
		if seed[key], err = parseNumber("global "+key, value); err != nil {
			return nil, err
		}
	}
	return globals.New(seed), nil
}

// newImage prepares an image for hook with the --in and --arg values applied.
func newImage(blocks *bytecode.ScriptBlocks, hook string, inputs, args []string, opts ...gscript.Option) (*gscript.Image, error) {
	image, err := gscript.NewImage(blocks, hook, opts...)
	if err != nil {
		return nil, err
	}
	if err := setInputs(image, inputs); err != nil {
		return nil, err
	}
	values := make([]float64, len(args))
	for i, s := range args {
		if values[i], err = parseNumber(fmt.Sprintf("argument %d", i+1), s); err != nil {
			return nil, err
		}
	}
	if err := image.SetArgs(values...); err != nil {
		return nil, err
	}
	return image, nil
}

func setInputs(image *gscript.Image, inputs []string) error {
	for _, s := range inputs {
		name, value, err := parseAssignment(s)
		if err != nil {
			return err
		}
		kind, ok := image.InputKind(name)
		if !ok {
			return fmt.Errorf("hook %q has no input %q", image.Hook(), name)
		}
		if kind == builtin.Str {
			err = image.SetString(name, value)
		} else {
			var v float64
			if v, err = parseNumber("input "+name, value); err == nil {
				err = image.Set(name, v)
			}
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func tracer(w io.Writer) vm.Tracer {
	return func(e vm.StepEvent) {
		loc := ""
		if !e.Location.IsZero() {
			loc = " @" + e.Location.String()
		}
		fmt.Fprintf(w, "%s:%-4d %-40s -> %s%s\n", e.Block, e.IP, e.Instruction, dis.FormatNumber(e.Result), loc)
	}
}

// jsonSafe replaces values JSON cannot encode with their text form.
func jsonSafe(r result) result {
	for name, v := range r.Outputs {
		if f, ok := v.(float64); ok && (math.IsNaN(f) || math.IsInf(f, 0)) {
			r.Outputs[name] = dis.FormatNumber(f)
		}
	}
	for key, v := range r.Globals {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			delete(r.Globals, key)
		}
	}
	return r
}
