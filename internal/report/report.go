// Package report writes the human-readable test report.
package report

import (
	"fmt"
	"io"
	"strconv"

	"github.com/gookit/color"

	"github.com/omtt/omtt-go/internal/expectation"
	"github.com/omtt/omtt-go/internal/process"
)

const (
	sectionRule = "===================="
	causeRule   = "--------------------"
)

// Reporter writes the report for one run of the tool. Report lines go to
// out and fatal errors to errOut.
type Reporter struct {
	out    io.Writer
	errOut io.Writer
	color  bool
}

// New returns a Reporter. Verdicts are coloured when colored is true.
func New(out, errOut io.Writer, colored bool) *Reporter {
	return &Reporter{out: out, errOut: errOut, color: colored}
}

// SutPath announces the program under test. Paths are printed with control
// characters masked.
func (r *Reporter) SutPath(path string) {
	fmt.Fprintf(r.out, "Testing: %s\n", printablePath(path))
}

// BeginTest announces test number i of n.
func (r *Reporter) BeginTest(i, n int, path string) {
	fmt.Fprintf(r.out, "%s\nRunning test (%d/%d): %s\n", sectionRule, i, n, printablePath(path))
}

// EndTest prints the verdict followed by one block per cause.
func (r *Reporter) EndTest(s expectation.Summary) {
	fmt.Fprintf(r.out, "Verdict: %s", r.verdict(s.Verdict))
	for _, c := range s.Causes {
		fmt.Fprintf(r.out, "\n%s\n=> Cause:\n%s", causeRule, describe(c))
	}
	fmt.Fprintln(r.out)
}

// Fatal reports an error that stopped the current test.
func (r *Reporter) Fatal(err error) {
	fmt.Fprintf(r.errOut, "fatal error: %v\n", err)
}

// Overall prints the closing statistics.
func (r *Reporter) Overall(total, passed, failed int) {
	fmt.Fprintf(r.out, "%s\n%d tests total, %d passed, %d failed\n", sectionRule, total, passed, failed)
}

func (r *Reporter) verdict(v expectation.Verdict) string {
	if !r.color {
		return v.String()
	}
	c := color.FgGreen
	if v == expectation.Fail {
		c = color.FgRed
	}
	return fmt.Sprintf(color.FullColorTpl, c.Code(), v.String())
}

// describe renders one cause.
func describe(c expectation.Cause) string {
	switch c := c.(type) {
	case expectation.EmptyOutputCause:
		return "Expected empty output.\nGot (context):\n" + renderContext(c.Output, 0, false)
	case expectation.ExitCodeCause:
		return fmt.Sprintf("Exit code doesn't match.\nExpected: %d\nGot: %s", c.Expected, exitCode(c.Got))
	case expectation.FullOutputCause:
		return fmt.Sprintf("Output doesn't match.\nFirst difference at byte: %d\nExpected (context):\n%s\nGot (context):\n%s",
			c.Position,
			renderContext(c.Expected, c.Position, true),
			renderContext(c.Output, c.Position, true))
	case expectation.PartialOutputCause:
		return "Text not found in output.\nExpected (context):\n" + renderContext(c.Expected, 0, false)
	case expectation.SuccessfulExitCause:
		return "Expected successful exit.\nGot exit code: " + exitCode(c.ExitCode)
	case expectation.FailureExitCause:
		return "Expected failure exit.\nGot exit code: " + exitCode(c.ExitCode)
	}
	return fmt.Sprintf("%#v", c)
}

func exitCode(code int) string {
	if code == process.ExitCodeUnknown {
		return "unknown"
	}
	return strconv.Itoa(code)
}
