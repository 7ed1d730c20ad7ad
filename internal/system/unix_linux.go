//go:build linux

package system

import (
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sys/unix"
)

// linuxSyscalls implements Syscalls with golang.org/x/sys/unix.
type linuxSyscalls struct{}

// New returns the real OS implementation of Syscalls.
func New() Syscalls {
	return linuxSyscalls{}
}

func (linuxSyscalls) Pipe() (Pipe, error) {
	var fds [2]int
	if err := unix.Pipe2(fds[:], unix.O_CLOEXEC); err != nil {
		return Pipe{}, wrap("pipe2", err)
	}
	return Pipe{ReadEnd: fds[0], WriteEnd: fds[1]}, nil
}

func (linuxSyscalls) Read(fd int, p []byte) (int, error) {
	n, err := unix.Read(fd, p)
	if err != nil {
		return 0, wrap("read", err)
	}
	return n, nil
}

func (linuxSyscalls) Write(fd int, p []byte) (int, error) {
	n, err := unix.Write(fd, p)
	if err != nil {
		return 0, wrap("write", err)
	}
	return n, nil
}

func (linuxSyscalls) Close(fd int) error {
	return wrap("close", unix.Close(fd))
}

func (linuxSyscalls) SetNonblock(fd int) error {
	return wrap("fcntl", unix.SetNonblock(fd, true))
}

func (linuxSyscalls) CloseOnExec(fd int) error {
	_, err := unix.FcntlInt(uintptr(fd), unix.F_SETFD, unix.FD_CLOEXEC)
	return wrap("fcntl", err)
}

func (linuxSyscalls) Spawn(path string, argv []string, attr SpawnAttr) (int, error) {
	files := make([]uintptr, len(attr.Files))
	for i, fd := range attr.Files {
		files[i] = uintptr(fd)
	}
	pid, err := syscall.ForkExec(path, argv, &syscall.ProcAttr{
		Env:   attr.Env,
		Files: files,
	})
	if err != nil {
		return 0, wrap("fork", err)
	}
	return pid, nil
}

func (linuxSyscalls) Exec(path string, argv []string, env []string) error {
	return wrap("execve", unix.Exec(path, argv, env))
}

func (linuxSyscalls) Exit(code int) {
	unix.Exit(code)
}

func (linuxSyscalls) Wait4(pid int, options int) (int, unix.WaitStatus, error) {
	var status unix.WaitStatus
	for {
		wpid, err := unix.Wait4(pid, &status, options, nil)
		if errors.Is(err, unix.EINTR) {
			continue
		}
		if err != nil {
			return 0, 0, wrap("wait4", err)
		}
		return wpid, status, nil
	}
}

func (linuxSyscalls) Kill(pid int, sig unix.Signal) error {
	return wrap("kill", unix.Kill(pid, sig))
}

func (linuxSyscalls) Poll(fds []unix.PollFd, timeout time.Duration) (int, error) {
	n, err := unix.Poll(fds, pollMillis(timeout))
	if errors.Is(err, unix.EINTR) {
		return 0, nil
	}
	if err != nil {
		return 0, wrap("poll", err)
	}
	return n, nil
}

func (linuxSyscalls) Notify(c chan<- os.Signal, sigs ...os.Signal) {
	signal.Notify(c, sigs...)
}

func (linuxSyscalls) Stop(c chan<- os.Signal) {
	signal.Stop(c)
}

func (linuxSyscalls) Executable() (string, error) {
	path, err := os.Executable()
	if err != nil {
		return "", wrap("readlink", err)
	}
	return path, nil
}
