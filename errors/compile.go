// Package errors defines the compile-time error domain: coded errors with
// source locations, "did you mean" suggestions and a diagnostic formatter.
package errors

import (
	stderrors "errors"
	"fmt"
	"strings"

	"github.com/deepnoodle-ai/gscript/internal/token"
)

// CompileError is a single compile error with location context.
type CompileError struct {
	Code        ErrorCode
	Message     string
	Filename    string
	Line        int // 1-based, 0 when unknown
	Column      int // 1-based, 0 when unknown
	EndColumn   int
	SourceLine  string
	BlockType   string
	Suggestions []Suggestion
	Note        string
}

// New returns a CompileError positioned at the given token range.
func New(code ErrorCode, start, end token.Position, format string, args ...any) *CompileError {
	e := &CompileError{
		Code:     code,
		Message:  fmt.Sprintf(format, args...),
		Filename: start.File,
	}
	if start.IsValid() || end.IsValid() {
		e.Line = start.LineNumber()
		e.Column = start.ColumnNumber()
		if end.Line == start.Line && end.Column > start.Column {
			e.EndColumn = end.Column
		}
	}
	return e
}

// Error implements the error interface.
func (e *CompileError) Error() string {
	var b strings.Builder
	if e.Filename != "" {
		b.WriteString(e.Filename)
		b.WriteString(":")
	}
	if e.Line > 0 {
		fmt.Fprintf(&b, "%d:%d:", e.Line, e.Column)
	}
	if b.Len() > 0 {
		b.WriteString(" ")
	}
	b.WriteString(e.Message)
	if e.Code != "" {
		fmt.Fprintf(&b, " [%s]", e.Code)
	}
	return b.String()
}

// FriendlyErrorMessage renders the error as an uncolored diagnostic.
func (e *CompileError) FriendlyErrorMessage() string {
	return NewFormatter(false).Format(e)
}

// CompileErrors aggregates the errors found in one compilation.
type CompileErrors struct {
	Errors []*CompileError
}

// Error implements the error interface.
func (e *CompileErrors) Error() string {
	switch len(e.Errors) {
	case 0:
		return ""
	case 1:
		return e.Errors[0].Error()
	}
	return fmt.Sprintf("%s (and %d more errors)", e.Errors[0].Error(), len(e.Errors)-1)
}

// Unwrap exposes the individual errors to errors.Is and errors.As.
func (e *CompileErrors) Unwrap() []error {
	errs := make([]error, len(e.Errors))
	for i, err := range e.Errors {
		errs[i] = err
	}
	return errs
}

// FriendlyErrorMessage renders all errors as uncolored diagnostics.
func (e *CompileErrors) FriendlyErrorMessage() string {
	return NewFormatter(false).FormatAll(e.Errors)
}

func (e *CompileErrors) Add(err *CompileError) {
	e.Errors = append(e.Errors, err)
}

func (e *CompileErrors) Count() int {
	return len(e.Errors)
}

func (e *CompileErrors) HasErrors() bool {
	return len(e.Errors) > 0
}

// ToError returns nil, the single error, or the aggregate.
func (e *CompileErrors) ToError() error {
	switch len(e.Errors) {
	case 0:
		return nil
	case 1:
		return e.Errors[0]
	}
	return e
}

// Codes returns the error codes found in err, which may be a single
// CompileError or an aggregate.
func Codes(err error) []ErrorCode {
	var codes []ErrorCode
	var many *CompileErrors
	if stderrors.As(err, &many) {
		for _, e := range many.Errors {
			codes = append(codes, e.Code)
		}
		return codes
	}
	var one *CompileError
	if stderrors.As(err, &one) {
		codes = append(codes, one.Code)
	}
	return codes
}

// HasCode reports whether err carries a compile error with the given code.
func HasCode(err error, code ErrorCode) bool {
	for _, c := range Codes(err) {
		if c == code {
			return true
		}
	}
	return false
}
