package errors

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
)

// Formatter renders compile errors as Rust-like diagnostics:
//
//	error[E2001]: symbol not found: in.bse (block type "main")
//	  --> damage.gs:1:11
//	   |
//	 1 | out.dmg = in.bse * 2
//	   |           ^^^^^^
//	   = hint: did you mean 'in.base'?
type Formatter struct {
	// UseColor enables ANSI color codes in output.
	UseColor bool
}

// NewFormatter creates a new error formatter.
func NewFormatter(useColor bool) *Formatter {
	return &Formatter{UseColor: useColor}
}

var (
	colorHeader   = color.New(color.FgHiRed, color.Bold)
	colorCode     = color.New(color.FgHiBlack)
	colorLocation = color.New(color.FgCyan)
	colorGutter   = color.New(color.FgHiBlack)
	colorCaret    = color.New(color.FgHiRed, color.Bold)
	colorHint     = color.New(color.FgHiYellow)
	colorNote     = color.New(color.FgHiBlue)
)

func (f *Formatter) paint(c *color.Color, s string) string {
	if !f.UseColor {
		return s
	}
	c.EnableColor()
	return c.Sprint(s)
}

// Format renders a single error.
func (f *Formatter) Format(err *CompileError) string {
	return f.format(err, "")
}

func (f *Formatter) format(err *CompileError, counter string) string {
	var b strings.Builder
	width := len(fmt.Sprint(err.Line))
	if width < 2 {
		width = 2
	}
	gutter := strings.Repeat(" ", width)

	// error[E2001]: message
	b.WriteString(f.paint(colorHeader, "error"))
	switch {
	case err.Code != "":
		b.WriteString(f.paint(colorCode, "["+string(err.Code)+"]"))
	case counter != "":
		b.WriteString(f.paint(colorCode, "["+counter+"]"))
	}
	b.WriteString(": ")
	b.WriteString(err.Message)
	b.WriteString("\n")

	if loc := location(err); loc != "" {
		b.WriteString(gutter)
		b.WriteString(f.paint(colorLocation, "--> "+loc))
		b.WriteString("\n")
	}

	if err.SourceLine != "" && err.Line > 0 {
		b.WriteString(f.paint(colorGutter, gutter+" |"))
		b.WriteString("\n")
		b.WriteString(f.paint(colorGutter, fmt.Sprintf("%*d | ", width, err.Line)))
		b.WriteString(err.SourceLine)
		b.WriteString("\n")
		if err.Column > 0 {
			span := 1
			if err.EndColumn >= err.Column {
				span = err.EndColumn - err.Column + 1
			}
			b.WriteString(f.paint(colorGutter, gutter+" | "))
			b.WriteString(strings.Repeat(" ", err.Column-1))
			b.WriteString(f.paint(colorCaret, strings.Repeat("^", span)))
			b.WriteString("\n")
		}
	}

	if len(err.Suggestions) > 0 {
		b.WriteString(f.paint(colorGutter, gutter+" = "))
		b.WriteString(f.paint(colorHint, "hint: "))
		b.WriteString(FormatSuggestions(err.Suggestions))
		b.WriteString("\n")
	}
	if err.Note != "" {
		b.WriteString(f.paint(colorGutter, gutter+" = "))
		b.WriteString(f.paint(colorNote, "note: "))
		b.WriteString(err.Note)
		b.WriteString("\n")
	}
	return b.String()
}

// FormatAll renders several errors, numbering them when there is more
// than one, followed by a summary line.
func (f *Formatter) FormatAll(errs []*CompileError) string {
	switch len(errs) {
	case 0:
		return ""
	case 1:
		return f.Format(errs[0])
	}
	var b strings.Builder
	for i, err := range errs {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(f.format(err, fmt.Sprintf("%d/%d", i+1, len(errs))))
	}
	b.WriteString("\n")
	b.WriteString(f.paint(colorHeader, fmt.Sprintf("found %d errors", len(errs))))
	b.WriteString("\n")
	return b.String()
}

func location(err *CompileError) string {
	switch {
	case err.Filename != "" && err.Line > 0:
		return fmt.Sprintf("%s:%d:%d", err.Filename, err.Line, err.Column)
	case err.Filename != "":
		return err.Filename
	case err.Line > 0:
		return fmt.Sprintf("%d:%d", err.Line, err.Column)
	}
	return ""
}
