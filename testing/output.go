package testing

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
)

// OutputConfig configures output formatting.
type OutputConfig struct {
	Writer io.Writer

	// Verbose prints a RUN line for every case.
	Verbose bool

	UseColor bool
}

// Output prints results in the style of go test.
type Output struct {
	w        io.Writer
	verbose  bool
	useColor bool
}

// NewOutput creates a new Output formatter.
func NewOutput(cfg OutputConfig) *Output {
	return &Output{w: cfg.Writer, verbose: cfg.Verbose, useColor: cfg.UseColor}
}

var (
	green  = color.New(color.FgGreen)
	red    = color.New(color.FgRed)
	yellow = color.New(color.FgYellow)
)

func (o *Output) colorize(c *color.Color, s string) string {
	if !o.useColor {
		return s
	}
	c.EnableColor()
	return c.Sprint(s)
}

// EndTest prints the result line of a case and its details.
func (o *Output) EndTest(file string, r *TestResult) {
	if o.verbose {
		fmt.Fprintf(o.w, "=== RUN   %s/%s\n", file, r.Name)
	}
	var status string
	switch r.Status {
	case StatusPassed:
		if !o.verbose {
			return
		}
		status = o.colorize(green, "--- PASS:")
	case StatusFailed:
		status = o.colorize(red, "--- FAIL:")
	case StatusSkipped:
		if !o.verbose {
			return
		}
		status = o.colorize(yellow, "--- SKIP:")
	case StatusError:
		status = o.colorize(red, "--- ERROR:")
	}
	fmt.Fprintf(o.w, "%s %s/%s (%.3fs)\n", status, file, r.Name, r.Duration.Seconds())
	if r.Status == StatusSkipped {
		fmt.Fprintf(o.w, "    %s\n", r.SkipReason)
	}
	if r.Error != nil {
		for _, line := range strings.Split(strings.TrimRight(r.Error.Error(), "\n"), "\n") {
			fmt.Fprintf(o.w, "    %s\n", line)
		}
	}
	for _, f := range r.Failures {
		fmt.Fprintf(o.w, "    %s\n", f.Message)
		if f.Got != "" || f.Want != "" {
			fmt.Fprintf(o.w, "        %s:  %s\n", o.colorize(red, "got"), f.Got)
			fmt.Fprintf(o.w, "        %s: %s\n", o.colorize(green, "want"), f.Want)
		}
	}
}

// Summary prints the final status and counts.
func (o *Output) Summary(s *Summary) {
	if s.Success() {
		fmt.Fprintln(o.w, o.colorize(green, "PASS"))
	} else {
		fmt.Fprintln(o.w, o.colorize(red, "FAIL"))
	}
	var parts []string
	if s.Passed > 0 {
		parts = append(parts, o.colorize(green, fmt.Sprintf("%d passed", s.Passed)))
	}
	if s.Failed > 0 {
		parts = append(parts, o.colorize(red, fmt.Sprintf("%d failed", s.Failed)))
	}
	if s.Skipped > 0 {
		parts = append(parts, o.colorize(yellow, fmt.Sprintf("%d skipped", s.Skipped)))
	}
	if s.Errors > 0 {
		parts = append(parts, o.colorize(red, fmt.Sprintf("%d errors", s.Errors)))
	}
	if len(parts) > 0 {
		fmt.Fprintln(o.w, strings.Join(parts, ", "))
	}
}

// PrintResults prints load errors, then failing cases, then the summary.
func (o *Output) PrintResults(s *Summary) {
	for _, f := range s.Files {
		if f.LoadErr != nil {
			fmt.Fprintf(o.w, "%s %s\n    %s\n", o.colorize(red, "LOAD ERROR:"), f.Filename, f.LoadErr)
		}
	}
	for _, f := range s.Files {
		for _, t := range f.Tests {
			o.EndTest(f.Filename, t)
		}
	}
	o.Summary(s)
}
