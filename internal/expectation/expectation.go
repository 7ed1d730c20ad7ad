// Package expectation defines the assertions a test script makes about a SUT
// run and validates them against process results.
package expectation

import (
	"bytes"

	"github.com/omtt/omtt-go/internal/process"
)

// Expectation is one assertion parsed from an EXPECT clause. The set of
// implementations is closed: EmptyOutput, FullOutput, PartialOutput,
// ExitCode, SuccessfulExit and FailureExit.
type Expectation interface {
	expectation()
}

// EmptyOutput expects the SUT to write nothing to stdout.
type EmptyOutput struct{}

// FullOutput expects stdout to equal Text exactly.
type FullOutput struct {
	Text []byte
}

// PartialOutput expects stdout to contain Text.
type PartialOutput struct {
	Text []byte
}

// ExitCode expects the SUT to exit with Code.
type ExitCode struct {
	Code int
}

// SuccessfulExit expects exit code zero.
type SuccessfulExit struct{}

// FailureExit expects a non-zero exit code.
type FailureExit struct{}

func (EmptyOutput) expectation()    {}
func (FullOutput) expectation()     {}
func (PartialOutput) expectation()  {}
func (ExitCode) expectation()       {}
func (SuccessfulExit) expectation() {}
func (FailureExit) expectation()    {}

// Kind returns a stable snake_case name for e.
func Kind(e Expectation) string {
	switch e.(type) {
	case EmptyOutput:
		return "empty_output"
	case FullOutput:
		return "full_output"
	case PartialOutput:
		return "partial_output"
	case ExitCode:
		return "exit_code"
	case SuccessfulExit:
		return "successful_exit"
	case FailureExit:
		return "failure_exit"
	}
	return "unknown"
}

// Validate checks e against r and returns the reason it does not hold, or nil
// when it is satisfied.
func Validate(e Expectation, r process.Results) Cause {
	switch e := e.(type) {
	case EmptyOutput:
		if len(r.Output) == 0 {
			return nil
		}
		return EmptyOutputCause{Output: r.Output}

	case FullOutput:
		if bytes.Equal(e.Text, r.Output) {
			return nil
		}
		return FullOutputCause{
			Position: firstDifference(e.Text, r.Output),
			Expected: e.Text,
			Output:   r.Output,
		}

	case PartialOutput:
		if bytes.Contains(r.Output, e.Text) {
			return nil
		}
		return PartialOutputCause{Expected: e.Text}

	case ExitCode:
		if r.ExitCode == e.Code {
			return nil
		}
		return ExitCodeCause{Expected: e.Code, Got: r.ExitCode}

	case SuccessfulExit:
		if r.ExitCode == 0 {
			return nil
		}
		return SuccessfulExitCause{ExitCode: r.ExitCode}

	case FailureExit:
		if r.ExitCode != 0 {
			return nil
		}
		return FailureExitCause{ExitCode: r.ExitCode}
	}
	return nil
}

// firstDifference returns the index of the first byte at which a and b
// differ, or the length of the shorter slice when one is a prefix of the other.
func firstDifference(a, b []byte) int {
	n := min(len(a), len(b))
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			return i
		}
	}
	return n
}
