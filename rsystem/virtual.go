package rsystem

import (
	"bytes"
	"sync"

	"golang.org/x/sys/unix"
)

// VirtualSystem is an in-memory System, the counterpart to UnixSystem used by
// tests that need to drive SharedSystem's scheduling logic deterministically
// without touching real file descriptors, processes, or signals. It is
// grounded on the same System contract UnixSystem implements (system.rs's
// System trait is deliberately an interface precisely so a test double can
// stand in for the real kernel), and on the common idiom of backing an
// interface with a small in-memory struct for tests (expand.listEnviron next
// to expand.Environ).
type VirtualSystem struct {
	mu sync.Mutex

	nextFd int
	files  map[int]*virtualFile
	execs  map[string]bool // paths IsExecutableFile should answer true for

	nextPid    int
	procs      map[int]*virtualProc
	exitedPids []int // order in which procs finished, for Wait to drain

	mask     SigSet
	handlers map[int]SignalHandling
	pending  map[int]int // signal -> queued occurrence count
	caught   []int
}

type virtualFile struct {
	buf      bytes.Buffer
	closed   bool
	nonblock bool
	// peer, if set, is the other end of a pipe: writes to this file land in
	// peer's buffer, where reads of peer find them.
	peer *virtualFile
}

type virtualProc struct {
	pid    int
	status WaitResult
	done   bool
}

// NewVirtualSystem returns an empty VirtualSystem. execPaths lists the paths
// IsExecutableFile should report as runnable.
func NewVirtualSystem(execPaths ...string) *VirtualSystem {
	execs := make(map[string]bool, len(execPaths))
	for _, p := range execPaths {
		execs[p] = true
	}
	return &VirtualSystem{
		nextFd:   3,
		files:    make(map[int]*virtualFile),
		execs:    execs,
		nextPid:  1000,
		procs:    make(map[int]*virtualProc),
		handlers: make(map[int]SignalHandling),
		pending:  make(map[int]int),
	}
}

func (v *VirtualSystem) IsExecutableFile(path string) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.execs[path]
}

func (v *VirtualSystem) Pipe() (int, int, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	r := &virtualFile{}
	w := &virtualFile{}
	r.peer = w
	w.peer = r
	rfd, wfd := v.nextFd, v.nextFd+1
	v.nextFd += 2
	v.files[rfd] = r
	v.files[wfd] = w
	return rfd, wfd, nil
}

func (v *VirtualSystem) Dup(from, toMin int, _ bool) (int, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	f, ok := v.files[from]
	if !ok {
		return 0, unix.EBADF
	}
	to := toMin
	if to < v.nextFd {
		to = v.nextFd
	}
	v.files[to] = f
	if to >= v.nextFd {
		v.nextFd = to + 1
	}
	return to, nil
}

func (v *VirtualSystem) Dup2(from, to int) (int, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	f, ok := v.files[from]
	if !ok {
		return 0, unix.EBADF
	}
	v.files[to] = f
	return to, nil
}

func (v *VirtualSystem) Open(path string, _ int, _ uint32) (int, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	f := &virtualFile{}
	fd := v.nextFd
	v.nextFd++
	v.files[fd] = f
	return fd, nil
}

func (v *VirtualSystem) Close(fd int) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	f, ok := v.files[fd]
	if !ok {
		return nil // System.Close tolerates double-close, like UnixSystem's.
	}
	f.closed = true
	delete(v.files, fd)
	return nil
}

func (v *VirtualSystem) FcntlGetFl(fd int) (int, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	f, ok := v.files[fd]
	if !ok {
		return 0, unix.EBADF
	}
	if f.nonblock {
		return unix.O_NONBLOCK, nil
	}
	return 0, nil
}

func (v *VirtualSystem) FcntlSetFl(fd int, flags int) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	f, ok := v.files[fd]
	if !ok {
		return unix.EBADF
	}
	f.nonblock = flags&unix.O_NONBLOCK != 0
	return nil
}

func (v *VirtualSystem) Read(fd int, buf []byte) (int, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	f, ok := v.files[fd]
	if !ok {
		return 0, unix.EBADF
	}
	if f.buf.Len() == 0 {
		if f.nonblock {
			return 0, unix.EAGAIN
		}
		return 0, nil // EOF for a blocking empty read in this in-memory model.
	}
	return f.buf.Read(buf)
}

func (v *VirtualSystem) Write(fd int, buf []byte) (int, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	f, ok := v.files[fd]
	if !ok {
		return 0, unix.EBADF
	}
	dst := f
	if f.peer != nil {
		dst = f.peer
	}
	return dst.buf.Write(buf)
}

func (v *VirtualSystem) SigMask(how int, set *SigSet, oldset *SigSet) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if oldset != nil {
		*oldset = v.mask.Clone()
	}
	if set == nil {
		return nil
	}
	switch how {
	case unix.SIG_BLOCK:
		for sig := range set.m {
			v.mask.Add(sig)
		}
	case unix.SIG_UNBLOCK:
		for sig := range set.m {
			v.mask.Remove(sig)
		}
	case unix.SIG_SETMASK:
		v.mask = set.Clone()
	}
	return nil
}

func (v *VirtualSystem) SigAction(sig int, handling SignalHandling) (SignalHandling, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	prev := v.handlers[sig]
	v.handlers[sig] = handling
	return prev, nil
}

func (v *VirtualSystem) CaughtSignals() []int {
	v.mu.Lock()
	defer v.mu.Unlock()
	out := v.caught
	v.caught = nil
	return out
}

// Raise queues sig for delivery: if the signal is Caught and currently
// unblocked it is recorded immediately (as real delivery would interrupt a
// blocking syscall); otherwise it waits in pending until a Select call runs
// with a mask that does not block it.
func (v *VirtualSystem) Raise(sig int) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.handlers[sig] == Catch && !v.mask.Has(sig) {
		v.caught = append(v.caught, sig)
		return
	}
	v.pending[sig]++
}

func (v *VirtualSystem) Select(readers, writers *FdSet, mask *SigSet) (int, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	effective := v.mask
	if mask != nil {
		effective = *mask
	}
	for sig, n := range v.pending {
		if n > 0 && v.handlers[sig] == Catch && !effective.Has(sig) {
			v.caught = append(v.caught, sig)
			v.pending[sig] = 0
		}
	}

	n := 0
	for _, fd := range readers.Fds() {
		f, ok := v.files[fd]
		if !ok || f.buf.Len() == 0 {
			readers.Remove(fd)
			continue
		}
		n++
	}
	for _, fd := range writers.Fds() {
		if _, ok := v.files[fd]; !ok {
			writers.Remove(fd)
			continue
		}
		n++ // an in-memory pipe is always writable in this model.
	}
	if len(v.caught) > 0 {
		return n, unix.EINTR
	}
	return n, nil
}

func (v *VirtualSystem) NewChildProcess() (ChildProcess, error) {
	v.mu.Lock()
	pid := v.nextPid
	v.nextPid++
	proc := &virtualProc{pid: pid}
	v.procs[pid] = proc
	v.mu.Unlock()
	return &virtualChildProcess{sys: v, proc: proc}, nil
}

type virtualChildProcess struct {
	sys  *VirtualSystem
	proc *virtualProc
}

// Run executes task in the calling goroutine, since a VirtualSystem has no
// real process boundary to cross, and returns the child's PID. The exit
// status a later Wait reports is whatever VirtualSystem.Finish records.
func (c *virtualChildProcess) Run(task func()) int {
	task()
	return c.proc.pid
}

// Finish records pid's exit status for a later Wait to report. Tests drive
// this directly instead of relying on task() to call it, since task()
// usually only exercises SharedSystem's async I/O, not process lifecycle.
func (v *VirtualSystem) Finish(pid int, status WaitResult) {
	v.mu.Lock()
	defer v.mu.Unlock()
	proc, ok := v.procs[pid]
	if !ok {
		return
	}
	status.Pid = pid
	proc.status = status
	proc.done = true
	v.exitedPids = append(v.exitedPids, pid)
}

func (v *VirtualSystem) Wait() (WaitResult, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if len(v.exitedPids) == 0 {
		return WaitResult{NoChild: len(v.procs) == 0}, nil
	}
	pid := v.exitedPids[0]
	v.exitedPids = v.exitedPids[1:]
	proc := v.procs[pid]
	delete(v.procs, pid)
	return proc.status, nil
}

func (v *VirtualSystem) Execve(path string, args, env []string) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if !v.execs[path] {
		return unix.ENOENT
	}
	return nil
}

var _ System = (*VirtualSystem)(nil)
