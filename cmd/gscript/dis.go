package main

import (
	"github.com/spf13/cobra"

	"github.com/deepnoodle-ai/gscript/dis"
)

func (a *app) newDisCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dis FILE|ARTIFACT",
		Short: "Disassemble a script or a compiled artifact",
		Args:  cobra.MaximumNArgs(1),
		RunE:  a.disHandler,
	}
}

func (a *app) disHandler(cmd *cobra.Command, args []string) error {
	src, err := a.readSource(cmd, args)
	if err != nil {
		return err
	}
	blocks, err := a.compileSource(cmd, src)
	if err != nil {
		return err
	}
	return dis.PrintAll(blocks, cmd.OutOrStdout())
}
