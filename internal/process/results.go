package process

import "math"

// ExitCodeUnknown is reported when the SUT did not terminate through a
// normal exit (for example it was killed by a signal), so no exit code exists.
const ExitCodeUnknown = math.MaxInt

// Results is what a single SUT execution produced.
type Results struct {
	ExitCode int
	Output   []byte
	Errors   []byte
}

// Command describes the program to execute.
type Command struct {
	// Path is the SUT executable, or the script handed to Interpreter.
	Path string
	// Interpreter, when set, is executed instead of Path with Path as its
	// first argument.
	Interpreter string
	// Args are passed to the SUT after its own path.
	Args []string
}

// argv returns the executable path and the full argument vector, argv[0]
// included.
func (c Command) argv() (string, []string) {
	if c.Interpreter != "" {
		argv := make([]string, 0, len(c.Args)+2)
		argv = append(argv, c.Interpreter, c.Path)
		return c.Interpreter, append(argv, c.Args...)
	}
	argv := make([]string, 0, len(c.Args)+1)
	argv = append(argv, c.Path)
	return c.Path, append(argv, c.Args...)
}
