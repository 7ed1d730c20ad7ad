package process

import (
	"errors"

	"github.com/omtt/omtt-go/internal/system"
)

// descriptor owns one file descriptor and closes it at most once.
type descriptor struct {
	sys  system.Syscalls
	fd   int
	open bool
}

func newDescriptor(sys system.Syscalls, fd int) descriptor {
	return descriptor{sys: sys, fd: fd, open: true}
}

// Close releases the descriptor. Later calls do nothing.
func (d *descriptor) Close() error {
	if !d.open {
		return nil
	}
	d.open = false
	return d.sys.Close(d.fd)
}

// pipe owns both ends of a system pipe.
type pipe struct {
	r descriptor
	w descriptor
}

func openPipe(sys system.Syscalls) (pipe, error) {
	p, err := sys.Pipe()
	if err != nil {
		return pipe{}, err
	}
	return pipe{r: newDescriptor(sys, p.ReadEnd), w: newDescriptor(sys, p.WriteEnd)}, nil
}

func (p *pipe) Close() error {
	return errors.Join(p.r.Close(), p.w.Close())
}

// pipeSet holds the four pipes of one run. The child writes stdout, stderr
// and errpipe and reads stdin.
type pipeSet struct {
	stdin   pipe
	stdout  pipe
	stderr  pipe
	errpipe pipe
}

// newPipeSet creates every pipe and makes the parent's stdin end
// non-blocking. On failure the pipes created so far are closed.
func newPipeSet(sys system.Syscalls) (*pipeSet, error) {
	ps := &pipeSet{}
	for _, p := range ps.all() {
		created, err := openPipe(sys)
		if err != nil {
			_ = ps.Close()
			return nil, err
		}
		*p = created
	}
	if err := sys.SetNonblock(ps.stdin.w.fd); err != nil {
		_ = ps.Close()
		return nil, err
	}
	return ps, nil
}

func (ps *pipeSet) all() []*pipe {
	return []*pipe{&ps.stdout, &ps.stdin, &ps.stderr, &ps.errpipe}
}

// childFiles maps the child's descriptors 0 to 3 onto pipe ends.
func (ps *pipeSet) childFiles() []int {
	return []int{ps.stdin.r.fd, ps.stdout.w.fd, ps.stderr.w.fd, ps.errpipe.w.fd}
}

// closeChildEnds releases the ends that belong to the child once it holds
// its own copies.
func (ps *pipeSet) closeChildEnds() error {
	return errors.Join(ps.stdin.r.Close(), ps.stdout.w.Close(), ps.stderr.w.Close(), ps.errpipe.w.Close())
}

// Close releases every end that is still open.
func (ps *pipeSet) Close() error {
	var errs []error
	for _, p := range ps.all() {
		errs = append(errs, p.Close())
	}
	return errors.Join(errs...)
}
