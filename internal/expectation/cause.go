package expectation

import "github.com/omtt/omtt-go/internal/process"

// Cause explains why an expectation failed. Like Expectation, the set of
// implementations is closed.
type Cause interface {
	cause()
}

// EmptyOutputCause carries the output that should have been empty.
type EmptyOutputCause struct {
	Output []byte
}

// FullOutputCause locates the first byte where the output diverges.
type FullOutputCause struct {
	Position int
	Expected []byte
	Output   []byte
}

// PartialOutputCause carries the text that was not found.
type PartialOutputCause struct {
	Expected []byte
}

// ExitCodeCause records the expected and actual exit codes.
type ExitCodeCause struct {
	Expected int
	Got      int
}

// SuccessfulExitCause records the non-zero exit code.
type SuccessfulExitCause struct {
	ExitCode int
}

// FailureExitCause records the zero exit code.
type FailureExitCause struct {
	ExitCode int
}

func (EmptyOutputCause) cause()    {}
func (FullOutputCause) cause()     {}
func (PartialOutputCause) cause()  {}
func (ExitCodeCause) cause()       {}
func (SuccessfulExitCause) cause() {}
func (FailureExitCause) cause()    {}

// Verdict is the outcome of one test.
type Verdict int

const (
	Pass Verdict = iota
	Fail
)

func (v Verdict) String() string {
	if v == Pass {
		return "PASS"
	}
	return "FAIL"
}

// Summary is the validation outcome of one test script.
type Summary struct {
	Verdict Verdict
	// Causes holds one entry per failed expectation, in script order.
	Causes []Cause
}

// Summarize validates every expectation against r. A script without
// expectations passes.
func Summarize(exps []Expectation, r process.Results) Summary {
	s := Summary{Verdict: Pass}
	for _, e := range exps {
		if c := Validate(e, r); c != nil {
			s.Verdict = Fail
			s.Causes = append(s.Causes, c)
		}
	}
	return s
}
