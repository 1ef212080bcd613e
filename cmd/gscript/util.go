package main

import (
	goerrors "errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/deepnoodle-ai/gscript/bytecode"
	"github.com/deepnoodle-ai/gscript/errors"
)

var red = color.New(color.FgRed).SprintFunc()

func fatal(err error) {
	fmt.Fprintln(os.Stderr, formatError(err, !color.NoColor))
}

func isTerminal(f *os.File) bool {
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// formatError renders compile errors as diagnostics and anything else as a
// single red line.
func formatError(err error, useColor bool) string {
	formatter := errors.NewFormatter(useColor)
	var many *errors.CompileErrors
	if goerrors.As(err, &many) {
		return formatter.FormatAll(many.Errors)
	}
	var one *errors.CompileError
	if goerrors.As(err, &one) {
		return formatter.Format(one)
	}
	if useColor {
		return red(err.Error())
	}
	return err.Error()
}

// source is the input of a command: script text or a compiled artifact.
type source struct {
	name     string
	text     string
	artifact *bytecode.ScriptBlocks
}

// readSource reads the script named by args[0], or the --code flag.
// Files ending in .json or .cbor are loaded as artifacts.
func (a *app) readSource(cmd *cobra.Command, args []string) (*source, error) {
	code := a.v.GetString("code")
	switch {
	case len(args) > 0 && code != "":
		return nil, goerrors.New("multiple input sources specified")
	case code != "":
		return &source{text: code}, nil
	case len(args) == 0:
		return nil, goerrors.New("no input provided")
	}
	path := args[0]
	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(cmd.InOrStdin())
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, err
	}
	src := &source{name: path}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		src.artifact, err = bytecode.Unmarshal(data)
	case ".cbor":
		src.artifact, err = bytecode.Decode(data)
	default:
		src.text = string(data)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return src, nil
}

// parseAssignment splits "name=value".
func parseAssignment(s string) (string, string, error) {
	name, value, ok := strings.Cut(s, "=")
	name = strings.TrimSpace(name)
	if !ok || name == "" {
		return "", "", fmt.Errorf("invalid assignment %q (expected name=value)", s)
	}
	return name, strings.TrimSpace(value), nil
}

func parseNumber(what, s string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: %q is not a number", what, s)
	}
	return v, nil
}
