package process

import (
	"os"
	"sort"
	"time"

	"golang.org/x/sys/unix"

	"github.com/omtt/omtt-go/internal/system"
)

// Pipes are created in this order.
const (
	roleStdout = iota
	roleStdin
	roleStderr
	roleErrpipe
)

const fakePID = 4242

// fakeSys is a scripted system.Syscalls. Readable pipes return their chunks
// one per read and then end of file. Stdout and stderr only reach end of
// file once the child has exited.
type fakeSys struct {
	// script
	failPipe      int // 1-based Pipe call that fails
	failNonblock  bool
	spawnErr      error
	chunks        [4][]string
	exitAfter     int // WNOHANG waits that still report a running child
	exitStatus    unix.WaitStatus
	stdinBroken   bool
	writeLimit    int
	eagainWrites  int
	signalAtPoll  int
	pollErr       error
	waitErr       error
	executableErr error

	// observed
	nextFD     int
	pipes      []system.Pipe
	open       map[int]bool
	closes     map[int]int
	nonblockFD int
	spawned    bool
	spawnPath  string
	spawnArgv  []string
	spawnAttr  system.SpawnAttr
	notified   chan<- os.Signal
	notifySigs []os.Signal
	stopped    chan<- os.Signal
	polls      int
	waits      int
	exited     bool
	reaps      int
	killed     []unix.Signal
	written    []byte
	writeCalls int
}

func newFakeSys() *fakeSys {
	return &fakeSys{nextFD: 10, open: map[int]bool{}, closes: map[int]int{}}
}

func (f *fakeSys) Pipe() (system.Pipe, error) {
	if len(f.pipes)+1 == f.failPipe {
		return system.Pipe{}, &system.Error{Op: "pipe2", Errno: unix.EMFILE}
	}
	p := system.Pipe{ReadEnd: f.nextFD, WriteEnd: f.nextFD + 1}
	f.nextFD += 2
	f.open[p.ReadEnd], f.open[p.WriteEnd] = true, true
	f.pipes = append(f.pipes, p)
	return p, nil
}

func (f *fakeSys) roleOf(fd int) int {
	for i, p := range f.pipes {
		if fd == p.ReadEnd || fd == p.WriteEnd {
			return i
		}
	}
	return -1
}

func (f *fakeSys) end(role int, write bool) int {
	if write {
		return f.pipes[role].WriteEnd
	}
	return f.pipes[role].ReadEnd
}

func (f *fakeSys) Read(fd int, p []byte) (int, error) {
	if !f.open[fd] {
		return 0, &system.Error{Op: "read", Errno: unix.EBADF}
	}
	role := f.roleOf(fd)
	if len(f.chunks[role]) == 0 {
		return 0, nil
	}
	n := copy(p, f.chunks[role][0])
	f.chunks[role][0] = f.chunks[role][0][n:]
	if f.chunks[role][0] == "" {
		f.chunks[role] = f.chunks[role][1:]
	}
	return n, nil
}

func (f *fakeSys) Write(fd int, p []byte) (int, error) {
	f.writeCalls++
	if !f.open[fd] {
		return 0, &system.Error{Op: "write", Errno: unix.EBADF}
	}
	if f.stdinBroken {
		return 0, &system.Error{Op: "write", Errno: unix.EPIPE}
	}
	if f.eagainWrites > 0 {
		f.eagainWrites--
		return 0, &system.Error{Op: "write", Errno: unix.EAGAIN}
	}
	n := len(p)
	if f.writeLimit > 0 && n > f.writeLimit {
		n = f.writeLimit
	}
	f.written = append(f.written, p[:n]...)
	return n, nil
}

func (f *fakeSys) Close(fd int) error {
	f.closes[fd]++
	if !f.open[fd] {
		return &system.Error{Op: "close", Errno: unix.EBADF}
	}
	f.open[fd] = false
	return nil
}

func (f *fakeSys) SetNonblock(fd int) error {
	if f.failNonblock {
		return &system.Error{Op: "fcntl", Errno: unix.EINVAL}
	}
	f.nonblockFD = fd
	return nil
}

func (f *fakeSys) CloseOnExec(int) error { return nil }

func (f *fakeSys) Spawn(path string, argv []string, attr system.SpawnAttr) (int, error) {
	f.spawnPath, f.spawnArgv, f.spawnAttr = path, argv, attr
	if f.spawnErr != nil {
		return 0, f.spawnErr
	}
	f.spawned = true
	return fakePID, nil
}

func (f *fakeSys) Exec(string, []string, []string) error {
	return &system.Error{Op: "execve", Errno: unix.ENOSYS}
}

func (f *fakeSys) Exit(int) {}

func (f *fakeSys) Wait4(pid int, options int) (int, unix.WaitStatus, error) {
	if f.waitErr != nil {
		return 0, 0, f.waitErr
	}
	if pid != fakePID || f.reaps > 0 {
		return 0, 0, &system.Error{Op: "wait4", Errno: unix.ECHILD}
	}
	if options&unix.WNOHANG != 0 {
		f.waits++
		if f.waits <= f.exitAfter {
			return 0, 0, nil
		}
		f.exited = true
		f.reaps++
		return pid, f.exitStatus, nil
	}
	f.reaps++
	if len(f.killed) > 0 {
		return pid, unix.WaitStatus(unix.SIGKILL), nil
	}
	f.exited = true
	return pid, f.exitStatus, nil
}

func (f *fakeSys) Kill(pid int, sig unix.Signal) error {
	f.killed = append(f.killed, sig)
	return nil
}

func (f *fakeSys) Poll(fds []unix.PollFd, _ time.Duration) (int, error) {
	f.polls++
	if f.pollErr != nil {
		return 0, f.pollErr
	}
	if f.polls == f.signalAtPoll {
		select {
		case f.notified <- unix.SIGTERM:
		default:
		}
	}
	ready := 0
	for i := range fds {
		fds[i].Revents = 0
		if fds[i].Fd < 0 {
			continue
		}
		switch role := f.roleOf(int(fds[i].Fd)); {
		case role == roleStdin && f.stdinBroken:
			fds[i].Revents = unix.POLLERR
		case role == roleStdin:
			fds[i].Revents = unix.POLLOUT
		case len(f.chunks[role]) > 0:
			fds[i].Revents = unix.POLLIN
		case f.exited || role == roleErrpipe:
			fds[i].Revents = unix.POLLHUP
		}
		if fds[i].Revents != 0 {
			ready++
		}
	}
	return ready, nil
}

func (f *fakeSys) Notify(c chan<- os.Signal, sigs ...os.Signal) {
	f.notified, f.notifySigs = c, sigs
}

func (f *fakeSys) Stop(c chan<- os.Signal) { f.stopped = c }

func (f *fakeSys) Executable() (string, error) {
	if f.executableErr != nil {
		return "", f.executableErr
	}
	return "/usr/bin/omtt", nil
}

// openFDs lists descriptors that were never closed.
func (f *fakeSys) openFDs() []int {
	var fds []int
	for fd, open := range f.open {
		if open {
			fds = append(fds, fd)
		}
	}
	sort.Ints(fds)
	return fds
}

// doubleCloses lists descriptors closed more than once.
func (f *fakeSys) doubleCloses() []int {
	var fds []int
	for fd, n := range f.closes {
		if n > 1 {
			fds = append(fds, fd)
		}
	}
	sort.Ints(fds)
	return fds
}
