// Package process runs a SUT with its standard streams captured.
//
// A run creates four pipes (stdout, stdin, stderr and an internal error
// pipe), spawns the SUT through the spawn trampoline and then services the
// pipes from a single poll loop. Each pass reads stdout, reads stderr, writes
// pending stdin, reads the error pipe and checks for exit, in that order. The
// loop ends once the SUT has exited and a following pass read nothing, or
// when a tracked signal arrives.
package process

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sys/unix"

	"github.com/omtt/omtt-go/internal/ctxlog"
	"github.com/omtt/omtt-go/internal/system"
)

const (
	// DefaultPollTimeout bounds each poll so exit and signals are noticed
	// promptly.
	DefaultPollTimeout = 50 * time.Millisecond
	// DefaultReadBufferSize is the most bytes taken from one pipe per pass.
	DefaultReadBufferSize = 4096
)

// TrackedSignals abort a run when delivered.
var TrackedSignals = []os.Signal{unix.SIGINT, unix.SIGHUP, unix.SIGTERM, unix.SIGUSR1, unix.SIGUSR2}

// Runner executes one SUT at a time.
type Runner struct {
	Sys            system.Syscalls
	PollTimeout    time.Duration
	ReadBufferSize int
	Signals        []os.Signal
}

// New returns a Runner over sys with default settings.
func New(sys system.Syscalls) *Runner {
	return &Runner{
		Sys:            sys,
		PollTimeout:    DefaultPollTimeout,
		ReadBufferSize: DefaultReadBufferSize,
		Signals:        TrackedSignals,
	}
}

// Run executes cmd, feeds it input and blocks until it terminates. The child
// is reaped and every descriptor is closed before Run returns, on every path.
//
// Errors are a *system.Error for a failed primitive, a *SpawnError when the
// child never became the SUT, a *SignalReceivedError when a tracked signal
// arrived, or the context's error when ctx ends first. Tracked signals are
// relayed to Run only while it executes, alongside any channel the caller
// registered for them.
func (r *Runner) Run(ctx context.Context, cmd Command, input []byte) (Results, error) {
	logger := ctxlog.FromContext(ctx).With("run_id", uuid.NewString())

	// Capacity 1: the first pending signal is enough to abort.
	sigs := make(chan os.Signal, 1)
	r.Sys.Notify(sigs, r.Signals...)
	defer r.Sys.Stop(sigs)

	self, err := r.Sys.Executable()
	if err != nil {
		return Results{}, err
	}

	pipes, err := newPipeSet(r.Sys)
	if err != nil {
		return Results{}, err
	}
	defer func() {
		if err := pipes.Close(); err != nil {
			logger.Warn("closing pipes", "error", err)
		}
	}()

	path, argv := cmd.argv()
	pid, err := r.Sys.Spawn(self, system.TrampolineArgs(self, path, argv), system.SpawnAttr{
		Env:   system.TrampolineEnv(os.Environ()),
		Files: pipes.childFiles(),
	})
	if err != nil {
		return Results{}, err
	}
	logger.Debug("spawned sut", "pid", pid, "path", path, "args", argv[1:])

	c := &child{sys: r.Sys, pid: pid}
	defer c.release(logger)

	if err := pipes.closeChildEnds(); err != nil {
		return Results{}, err
	}

	s := newSession(r, pipes, c, input, logger)
	if err := s.loop(ctx, sigs); err != nil {
		return Results{}, err
	}

	if len(s.spawnErr) > 0 {
		return Results{}, &SpawnError{Message: string(s.spawnErr)}
	}
	res := Results{ExitCode: c.exitCode(), Output: s.stdout, Errors: s.stderr}
	logger.Debug("sut finished", "exit_code", res.ExitCode, "output_bytes", len(res.Output), "error_bytes", len(res.Errors))
	return res, nil
}

// child tracks the spawned process until it is reaped.
type child struct {
	sys    system.Syscalls
	pid    int
	status unix.WaitStatus
	reaped bool
}

// poll reports whether the child has exited, without blocking.
func (c *child) poll() (bool, error) {
	wpid, status, err := c.sys.Wait4(c.pid, unix.WNOHANG)
	if err != nil {
		return false, err
	}
	if wpid != c.pid {
		return false, nil
	}
	c.status, c.reaped = status, true
	return true, nil
}

// release kills and reaps a child that is still running.
func (c *child) release(logger *slog.Logger) {
	if c.reaped {
		return
	}
	if err := c.sys.Kill(c.pid, unix.SIGKILL); err != nil {
		logger.Warn("killing sut", "pid", c.pid, "error", err)
	}
	_, status, err := c.sys.Wait4(c.pid, 0)
	if err != nil {
		logger.Warn("reaping sut", "pid", c.pid, "error", err)
		return
	}
	c.status, c.reaped = status, true
	logger.Debug("killed sut", "pid", c.pid)
}

func (c *child) exitCode() int {
	if c.status.Exited() {
		return c.status.ExitStatus()
	}
	return ExitCodeUnknown
}

// Poll slots, in service order.
const (
	slotStdout = iota
	slotStderr
	slotStdin
	slotErrpipe
	slotCount
)

// session is the state of one poll loop.
type session struct {
	sys     system.Syscalls
	timeout time.Duration
	pipes   *pipeSet
	child   *child
	logger  *slog.Logger

	input   []byte
	written int

	stdout   []byte
	stderr   []byte
	spawnErr []byte

	buf []byte
	fds [slotCount]unix.PollFd
}

func newSession(r *Runner, pipes *pipeSet, c *child, input []byte, logger *slog.Logger) *session {
	size := r.ReadBufferSize
	if size <= 0 {
		size = DefaultReadBufferSize
	}
	s := &session{
		sys:     r.Sys,
		timeout: r.PollTimeout,
		pipes:   pipes,
		child:   c,
		logger:  logger,
		input:   input,
		buf:     make([]byte, size),
	}
	s.fds[slotStdout] = unix.PollFd{Fd: int32(pipes.stdout.r.fd), Events: unix.POLLIN}
	s.fds[slotStderr] = unix.PollFd{Fd: int32(pipes.stderr.r.fd), Events: unix.POLLIN}
	s.fds[slotStdin] = unix.PollFd{Fd: int32(pipes.stdin.w.fd), Events: unix.POLLOUT}
	s.fds[slotErrpipe] = unix.PollFd{Fd: int32(pipes.errpipe.r.fd), Events: unix.POLLIN}
	return s
}

func (s *session) loop(ctx context.Context, sigs <-chan os.Signal) error {
	if len(s.input) == 0 {
		if err := s.closeStdin(); err != nil {
			return err
		}
	}

	exited := false
	for {
		select {
		case sig := <-sigs:
			s.logger.Debug("signal received", "signal", sig)
			return &SignalReceivedError{Signal: sig}
		default:
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		// Hang-up can be reported before all output is drained, so a pass
		// after the exit was seen must come back empty before stopping.
		exitedBefore := exited
		if _, err := s.sys.Poll(s.fds[:], s.timeout); err != nil {
			return err
		}
		read, err := s.service()
		if err != nil {
			return err
		}
		if !exited {
			if exited, err = s.child.poll(); err != nil {
				return err
			}
		}
		if exitedBefore && read == 0 {
			return nil
		}
	}
}

// service performs one pass over the pipes and returns the bytes read.
func (s *session) service() (int, error) {
	total := 0
	n, err := s.drain(slotStdout, &s.stdout)
	if err != nil {
		return 0, err
	}
	total += n
	if n, err = s.drain(slotStderr, &s.stderr); err != nil {
		return 0, err
	}
	total += n
	if err := s.feed(); err != nil {
		return 0, err
	}
	if n, err = s.drain(slotErrpipe, &s.spawnErr); err != nil {
		return 0, err
	}
	return total + n, nil
}

// drain reads once from a ready pipe into sink. End of file takes the pipe
// out of the poll set.
func (s *session) drain(slot int, sink *[]byte) (int, error) {
	pfd := &s.fds[slot]
	if pfd.Fd < 0 || pfd.Revents&(unix.POLLIN|unix.POLLHUP|unix.POLLERR) == 0 {
		return 0, nil
	}
	n, err := s.sys.Read(int(pfd.Fd), s.buf)
	if errors.Is(err, unix.EAGAIN) || errors.Is(err, unix.EINTR) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	if n == 0 {
		pfd.Fd = -1
		return 0, nil
	}
	*sink = append(*sink, s.buf[:n]...)
	return n, nil
}

// feed writes the next chunk of input. A full pipe counts as nothing
// written. A closed reader drops whatever input is left.
func (s *session) feed() error {
	pfd := &s.fds[slotStdin]
	if pfd.Fd < 0 || pfd.Revents&(unix.POLLOUT|unix.POLLERR|unix.POLLHUP) == 0 {
		return nil
	}
	n, err := s.sys.Write(int(pfd.Fd), s.input[s.written:])
	switch {
	case errors.Is(err, unix.EAGAIN):
		n = 0
	case errors.Is(err, unix.EPIPE):
		s.logger.Debug("sut closed its stdin", "dropped_bytes", len(s.input)-s.written)
		n = len(s.input) - s.written
	case err != nil:
		return err
	}
	s.written += n
	if s.written >= len(s.input) {
		return s.closeStdin()
	}
	return nil
}

func (s *session) closeStdin() error {
	s.fds[slotStdin].Fd = -1
	return s.pipes.stdin.w.Close()
}
