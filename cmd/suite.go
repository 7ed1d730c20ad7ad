package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/omtt/omtt-go/internal/ctxlog"
	"github.com/omtt/omtt-go/internal/expectation"
	"github.com/omtt/omtt-go/internal/parser"
	"github.com/omtt/omtt-go/internal/process"
	"github.com/omtt/omtt-go/internal/report"
	"github.com/omtt/omtt-go/internal/textutil"
)

// suite runs test scripts one after another against a single SUT.
type suite struct {
	io          RunIO
	reporter    *report.Reporter
	command     process.Command
	pollTimeout time.Duration
}

// stats counts the outcome of a suite.
type stats struct {
	total  int
	passed int
	failed int
	// fatal counts scripts that could not be run to a verdict.
	fatal int
}

// run executes every script in order. It stops early, returning the error,
// only when the run itself was interrupted.
func (s *suite) run(ctx context.Context, scripts []string) (stats, error) {
	logger := ctxlog.FromContext(ctx)
	st := stats{total: len(scripts)}

	s.reporter.SutPath(s.command.Path)
	for i, path := range scripts {
		s.reporter.BeginTest(i+1, len(scripts), path)
		logger.Debug("running test", "path", path, "index", i+1)

		summary, err := s.runScript(ctx, path)
		if isInterruption(err) {
			return st, err
		}
		if err != nil {
			s.reporter.Fatal(err)
			st.failed++
			st.fatal++
			continue
		}

		s.reporter.EndTest(summary)
		if summary.Verdict == expectation.Pass {
			st.passed++
		} else {
			st.failed++
		}
	}
	s.reporter.Overall(st.total, st.passed, st.failed)
	return st, nil
}

func (s *suite) runScript(ctx context.Context, path string) (expectation.Summary, error) {
	buf, err := s.io.ReadScript(path)
	if err != nil {
		return expectation.Summary{}, fmt.Errorf("reading test file: %w", err)
	}

	spec, err := parser.ParseScript(textutil.NormalizeLineEndings(buf))
	if err != nil {
		return expectation.Summary{}, err
	}

	res, err := s.io.RunSUT(ctx, s.command, spec.Input, s.pollTimeout)
	if err != nil {
		return expectation.Summary{}, err
	}
	res.Output = textutil.NormalizeLineEndings(res.Output)
	res.Errors = textutil.NormalizeLineEndings(res.Errors)

	return expectation.Summarize(spec.Expectations, res), nil
}

// isInterruption reports whether err ends the whole run rather than one test.
func isInterruption(err error) bool {
	var sigErr *process.SignalReceivedError
	return errors.As(err, &sigErr) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// exitCode maps the outcome of a completed suite to the process exit code.
func (st stats) exitCode() int {
	if st.fatal > 0 {
		return ExitFatal
	}
	return failedExitCode(st.failed)
}
