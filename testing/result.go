package testing

import (
	"fmt"
	"time"
)

// Status is the outcome of one case.
type Status int

const (
	StatusPassed Status = iota
	StatusFailed
	StatusSkipped
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusPassed:
		return "PASS"
	case StatusFailed:
		return "FAIL"
	case StatusSkipped:
		return "SKIP"
	case StatusError:
		return "ERROR"
	}
	return fmt.Sprintf("Status(%d)", int(s))
}

// Failure is one unmet expectation.
type Failure struct {
	Message string
	Got     string
	Want    string
}

// TestResult is the outcome of one case.
type TestResult struct {
	Name       string
	Status     Status
	Duration   time.Duration
	Failures   []Failure
	Error      error
	SkipReason string
}

func (r *TestResult) fail(msg, got, want string) {
	r.Status = StatusFailed
	r.Failures = append(r.Failures, Failure{Message: msg, Got: got, Want: want})
}

// FileResult is the outcome of one suite file.
type FileResult struct {
	Filename string
	LoadErr  error
	Tests    []*TestResult
}

// Summary aggregates every suite of a run.
type Summary struct {
	Files    []*FileResult
	Duration time.Duration

	Passed  int
	Failed  int
	Skipped int
	Errors  int
}

// ComputeTotals recounts the per-status totals. A suite that could not be
// loaded counts as one error.
func (s *Summary) ComputeTotals() {
	s.Passed, s.Failed, s.Skipped, s.Errors = 0, 0, 0, 0
	for _, f := range s.Files {
		if f.LoadErr != nil {
			s.Errors++
		}
		for _, t := range f.Tests {
			switch t.Status {
			case StatusPassed:
				s.Passed++
			case StatusFailed:
				s.Failed++
			case StatusSkipped:
				s.Skipped++
			case StatusError:
				s.Errors++
			}
		}
	}
}

// Success reports whether nothing failed.
func (s *Summary) Success() bool {
	return s.Failed == 0 && s.Errors == 0
}
