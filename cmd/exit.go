package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

// Process exit codes. A run whose tests completed exits with the number of
// failed tests, capped at MaxFailedExitCode.
const (
	// MaxFailedExitCode caps the exit code of a run with failed tests.
	MaxFailedExitCode = 50
	// ExitFatal reports that at least one test could not be run to a verdict.
	ExitFatal = 60
	// ExitInformational follows help or version output instead of a run.
	ExitInformational = 61
	// ExitInvalidUsage reports bad flags, arguments or settings.
	ExitInvalidUsage = 64
)

// ExitError is an error that carries the process exit code. An empty
// Message means everything worth saying was already printed.
type ExitError struct {
	Code    int
	Message string
}

func (e *ExitError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("exit status %d", e.Code)
	}
	return e.Message
}

func usageError(format string, args ...any) error {
	return &ExitError{Code: ExitInvalidUsage, Message: fmt.Sprintf(format, args...)}
}

func fatalError(err error) error {
	return &ExitError{Code: ExitFatal, Message: fmt.Sprintf("fatal error: %v", err)}
}

// failedExitCode maps a failed-test count to an exit code.
func failedExitCode(failed int) int {
	return min(failed, MaxFailedExitCode)
}

// Execute runs root and returns the process exit code. Errors are printed to
// the command's error stream.
func Execute(root *cobra.Command) int {
	informational := false
	help := root.HelpFunc()
	root.SetHelpFunc(func(c *cobra.Command, args []string) {
		informational = true
		help(c, args)
	})

	err := root.Execute()
	if err == nil {
		if informational || versionRequested(root) {
			return ExitInformational
		}
		return 0
	}

	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		if exitErr.Message != "" {
			fmt.Fprintln(root.ErrOrStderr(), exitErr.Message)
		}
		return exitErr.Code
	}
	fmt.Fprintf(root.ErrOrStderr(), "error: %v\nRun '%s --help' for usage.\n", err, root.CommandPath())
	return ExitInvalidUsage
}

func versionRequested(root *cobra.Command) bool {
	f := root.Flags().Lookup("version")
	return f != nil && f.Changed
}
