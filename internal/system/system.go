// Package system is the thin facade over the pipe, process, signal and poll
// primitives used to run a SUT. Every primitive the process runner needs goes
// through the Syscalls interface so tests can script each response.
package system

import (
	"errors"
	"fmt"
	"os"
	"time"

	"golang.org/x/sys/unix"
)

// Pipe holds both ends of a unidirectional pipe.
type Pipe struct {
	ReadEnd  int
	WriteEnd int
}

// SpawnAttr configures a spawned child.
type SpawnAttr struct {
	// Env is the complete child environment.
	Env []string
	// Files maps child descriptor i to parent descriptor Files[i]. Parent
	// descriptors not listed are not inherited.
	Files []int
}

// Syscalls is the set of OS primitives used to run a SUT.
type Syscalls interface {
	// Pipe creates a close-on-exec pipe.
	Pipe() (Pipe, error)
	Read(fd int, p []byte) (int, error)
	Write(fd int, p []byte) (int, error)
	Close(fd int) error
	// SetNonblock switches fd to non-blocking mode.
	SetNonblock(fd int) error
	// CloseOnExec sets FD_CLOEXEC on fd.
	CloseOnExec(fd int) error
	// Spawn forks, redirects the child's descriptors per attr and execs path.
	Spawn(path string, argv []string, attr SpawnAttr) (pid int, err error)
	// Exec replaces the current process image. It only returns on failure.
	Exec(path string, argv []string, env []string) error
	// Exit terminates the current process immediately.
	Exit(code int)
	Wait4(pid int, options int) (wpid int, status unix.WaitStatus, err error)
	Kill(pid int, sig unix.Signal) error
	// Poll waits up to timeout for readiness on fds. A positive timeout
	// below one millisecond waits one millisecond. An interrupted wait
	// reports zero ready descriptors.
	Poll(fds []unix.PollFd, timeout time.Duration) (int, error)
	// Notify relays sigs to c instead of their default action.
	Notify(c chan<- os.Signal, sigs ...os.Signal)
	// Stop ends relaying to c. Other channels registered for the same
	// signals keep receiving them.
	Stop(c chan<- os.Signal)
	// Executable returns the path of the running binary.
	Executable() (string, error)
}

// Error is a failed primitive. Op names the primitive and Errno is the
// platform error code.
type Error struct {
	Op    string
	Errno unix.Errno
}

func (e *Error) Error() string {
	return fmt.Sprintf("failure in %s(): %v", e.Op, e.Errno)
}

func (e *Error) Unwrap() error { return e.Errno }

// pollMillis converts timeout to poll(2) milliseconds, rounding a positive
// sub-millisecond timeout up so it never becomes a non-blocking poll.
func pollMillis(timeout time.Duration) int {
	ms := timeout.Milliseconds()
	if timeout > 0 && ms == 0 {
		return 1
	}
	return int(ms)
}

// wrap converts a raw primitive error into *Error when it carries an errno.
func wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	var errno unix.Errno
	if errors.As(err, &errno) {
		return &Error{Op: op, Errno: errno}
	}
	return fmt.Errorf("%s: %w", op, err)
}
