package main

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/deepnoodle-ai/gscript/testing"
)

func (a *app) newTestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "test [PATTERN...]",
		Short: "Run *_test.yaml scenario suites",
		RunE:  a.testHandler,
	}
	cmd.Flags().StringP("run", "r", "", "Run only cases matching this regex")
	cmd.Flags().BoolP("verbose", "v", false, "Print every case")
	return cmd
}

func (a *app) testHandler(cmd *cobra.Command, args []string) error {
	run, _ := cmd.Flags().GetString("run")
	verbose, _ := cmd.Flags().GetBool("verbose")
	summary, err := testing.Run(cmd.Context(), &testing.Config{
		Patterns:   args,
		RunPattern: run,
		Logger:     a.logger(),
	})
	if err != nil {
		return err
	}
	out := testing.NewOutput(testing.OutputConfig{
		Writer:   cmd.OutOrStdout(),
		Verbose:  verbose,
		UseColor: a.useColor(),
	})
	out.PrintResults(summary)
	if !summary.Success() {
		return errors.New("scenario suites failed")
	}
	return nil
}
