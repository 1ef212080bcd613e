package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/deepnoodle-ai/gscript"
)

func (a *app) newCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check FILE",
		Short: "Report compile errors without producing an artifact",
		Args:  cobra.MaximumNArgs(1),
		RunE:  a.checkHandler,
	}
}

func (a *app) checkHandler(cmd *cobra.Command, args []string) error {
	src, err := a.readSource(cmd, args)
	if err != nil {
		return err
	}
	if src.artifact != nil {
		return fmt.Errorf("%s is already compiled", src.name)
	}
	e, err := a.environment()
	if err != nil {
		return err
	}
	opts := []gscript.Option{gscript.WithEnvironment(e), gscript.WithLogger(a.logger())}
	if src.name != "" {
		opts = append(opts, gscript.WithFilename(src.name))
	}
	blocks, err := gscript.Compile(src.text, a.params(), opts...)
	if err != nil {
		return err
	}
	name := src.name
	if name == "" {
		name = "<code>"
	}
	stats := blocks.Stats()
	fmt.Fprintf(cmd.OutOrStdout(), "%s: ok (%d hooks: %s; %d instructions)\n",
		name, stats.BlockCount, strings.Join(blocks.BlockNames(), ", "), stats.InstructionCount)
	return nil
}
