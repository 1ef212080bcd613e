package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hokaccha/go-prettyjson"
	"github.com/spf13/cobra"

	"github.com/deepnoodle-ai/gscript"
	"github.com/deepnoodle-ai/gscript/bytecode"
)

func (a *app) newCompileCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compile FILE",
		Short: "Compile a script into a JSON or CBOR artifact",
		Args:  cobra.MaximumNArgs(1),
		RunE:  a.compileHandler,
	}
	cmd.Flags().StringP("output", "o", "", "Write the artifact to this file instead of stdout")
	cmd.Flags().String("format", "", "Artifact format: json or cbor (default from the output extension)")
	return cmd
}

// compileSource compiles src with the configured environment and store.
func (a *app) compileSource(cmd *cobra.Command, src *source) (*bytecode.ScriptBlocks, error) {
	if src.artifact != nil {
		return src.artifact, nil
	}
	e, err := a.environment()
	if err != nil {
		return nil, err
	}
	opts, closer, err := a.options(cmd.Context(), e, src.name)
	if err != nil {
		return nil, err
	}
	defer closer()
	return gscript.CompileContext(cmd.Context(), src.text, a.params(), opts...)
}

func artifactFormat(flag, path string) (string, error) {
	format := strings.ToLower(flag)
	if format == "" {
		format = "json"
		if strings.EqualFold(filepath.Ext(path), ".cbor") {
			format = "cbor"
		}
	}
	if format != "json" && format != "cbor" {
		return "", fmt.Errorf("unknown artifact format: %s (expected json or cbor)", flag)
	}
	return format, nil
}

func (a *app) compileHandler(cmd *cobra.Command, args []string) error {
	out, _ := cmd.Flags().GetString("output")
	flag, _ := cmd.Flags().GetString("format")
	format, err := artifactFormat(flag, out)
	if err != nil {
		return err
	}
	src, err := a.readSource(cmd, args)
	if err != nil {
		return err
	}
	blocks, err := a.compileSource(cmd, src)
	if err != nil {
		return err
	}

	var data []byte
	if format == "cbor" {
		data, err = bytecode.Encode(blocks)
	} else {
		data, err = bytecode.Marshal(blocks)
	}
	if err != nil {
		return err
	}

	if out != "" {
		return os.WriteFile(out, data, 0o644)
	}
	w := cmd.OutOrStdout()
	if format == "cbor" {
		if f, ok := w.(*os.File); ok && isTerminal(f) {
			return fmt.Errorf("refusing to write binary output to a terminal (use -o)")
		}
		_, err = w.Write(data)
		return err
	}
	if a.useColor() {
		if colored, err := prettyjson.Format(data); err == nil {
			data = colored
		}
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}
