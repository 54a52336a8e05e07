// Package rsystem implements component D part 2: a cooperative scheduler
// layered on top of a blocking, select(2)-shaped kernel primitive. It
// exposes async read, write-all, and wait-for-signal operations to
// goroutines that never see the raw, blocking system calls directly.
//
// Exactly one goroutine may be driving Select at any time (see SharedSystem.
// Select); every other goroutine that wants progress registers itself as an
// awaiter and blocks on a channel until that driving goroutine wakes it.
// There is no implicit polling thread: something in the caller's process
// (typically a small loop in cmd/extsh) must call Select repeatedly for
// awaiters to ever make progress.
package rsystem

import (
	"context"
	"sync"

	"golang.org/x/sys/unix"
)

// SignalHandling is how a signal's disposition is configured.
type SignalHandling int

const (
	// Default performs the signal's default action.
	Default SignalHandling = iota
	// Ignore discards the signal.
	Ignore
	// Catch accumulates the signal for retrieval via System.CaughtSignals,
	// to be collected by SharedSystem.Select and delivered to
	// WaitForSignal awaiters.
	Catch
)

func (h SignalHandling) String() string {
	switch h {
	case Default:
		return "Default"
	case Ignore:
		return "Ignore"
	case Catch:
		return "Catch"
	default:
		return "Unknown"
	}
}

// SigSet is a small, portable signal set used at the rsystem API boundary.
// It exists so this package's scheduling logic never has to reach into the
// kernel's sigset_t layout directly; only the real System implementation
// (unix.go) converts to and from the kernel representation.
type SigSet struct {
	m map[int]bool
}

// NewSigSet returns a SigSet containing the given signals.
func NewSigSet(sigs ...int) SigSet {
	s := SigSet{m: make(map[int]bool, len(sigs))}
	for _, sig := range sigs {
		s.m[sig] = true
	}
	return s
}

// Add inserts sig into the set.
func (s *SigSet) Add(sig int) {
	if s.m == nil {
		s.m = make(map[int]bool)
	}
	s.m[sig] = true
}

// Remove deletes sig from the set.
func (s *SigSet) Remove(sig int) {
	delete(s.m, sig)
}

// Has reports whether sig is in the set.
func (s SigSet) Has(sig int) bool { return s.m[sig] }

// Clone returns an independent copy of s.
func (s SigSet) Clone() SigSet {
	cp := SigSet{m: make(map[int]bool, len(s.m))}
	for sig := range s.m {
		cp.m[sig] = true
	}
	return cp
}

// WaitResult is the outcome of a Wait call, i.e. a waitpid(2) report.
type WaitResult struct {
	Pid    int
	Exited bool
	Code   int
	// Signal, when non-zero, is the signal that terminated or stopped/
	// continued the process (interpretation depends on which of Signaled,
	// Stopped, Continued is set).
	Signal    int
	Signaled  bool
	Stopped   bool
	Continued bool
	// NoChild reports that there is currently nothing to wait for (the
	// WNOHANG case where waitpid returns 0).
	NoChild bool
}

// ChildProcess is returned by System.NewChildProcess; Run must be called
// exactly once.
type ChildProcess interface {
	// Run executes task in the child, or returns the child's PID in the
	// parent. It never returns in the child.
	Run(task func()) int
}

// System is the syscall surface SharedSystem drives. Real processes use the
// golang.org/x/sys/unix-backed implementation in unix.go; tests use
// VirtualSystem.
type System interface {
	IsExecutableFile(path string) bool

	Pipe() (r, w int, err error)
	Dup(from, toMin int, cloexec bool) (int, error)
	Dup2(from, to int) (int, error)
	Open(path string, flags int, mode uint32) (int, error)
	Close(fd int) error

	FcntlGetFl(fd int) (int, error)
	FcntlSetFl(fd int, flags int) error

	Read(fd int, buf []byte) (int, error)
	Write(fd int, buf []byte) (int, error)

	// SigMask updates the process signal mask per how (SIG_BLOCK/
	// SIG_UNBLOCK/SIG_SETMASK), writing the previous mask into oldset if
	// non-nil.
	SigMask(how int, set *SigSet, oldset *SigSet) error
	// SigAction installs handling for sig and returns its previous
	// disposition.
	SigAction(sig int, handling SignalHandling) (SignalHandling, error)
	// CaughtSignals returns and clears the list of signals caught since
	// the last call.
	CaughtSignals() []int

	// Select blocks until an FD in readers/writers is ready or a signal is
	// caught, narrowing readers/writers to the ready subset. If mask is
	// non-nil the process signal mask is temporarily set to it for the
	// duration of the call.
	Select(readers, writers *FdSet, mask *SigSet) (int, error)

	NewChildProcess() (ChildProcess, error)
	// Wait performs a single non-blocking waitpid(-1, WUNTRACED|WCONTINUED|WNOHANG).
	Wait() (WaitResult, error)
	Execve(path string, args, env []string) error
}

// FdSet is a small, portable file-descriptor set mirroring SigSet's role:
// scheduling logic in this package only ever touches FdSet, never the
// kernel's fd_set layout.
type FdSet struct {
	m map[int]bool
}

func NewFdSet(fds ...int) FdSet {
	s := FdSet{m: make(map[int]bool, len(fds))}
	for _, fd := range fds {
		s.m[fd] = true
	}
	return s
}

func (s *FdSet) Add(fd int)      { s.m[fd] = true }
func (s *FdSet) Remove(fd int)   { delete(s.m, fd) }
func (s FdSet) Has(fd int) bool  { return s.m[fd] }
func (s FdSet) Len() int         { return len(s.m) }
func (s FdSet) Fds() []int {
	out := make([]int, 0, len(s.m))
	for fd := range s.m {
		out = append(out, fd)
	}
	return out
}

type fdAwaiter struct {
	fd    int
	ready chan struct{}
}

type signalAwaiter struct {
	sig    int
	ready  chan struct{}
	caught bool
}

// SharedSystem wraps a System with the bookkeeping needed to support
// ReadAsync, WriteAll, and WaitForSignal: lists of FD/signal awaiters and
// the signal mask currently installed via SetSignalHandling.
type SharedSystem struct {
	mu sync.Mutex

	sys System

	readers []*fdAwaiter
	writers []*fdAwaiter
	sigs    []*signalAwaiter

	currentMask    SigSet
	haveCurrentMask bool
}

// New wraps sys in a SharedSystem.
func New(sys System) *SharedSystem {
	return &SharedSystem{sys: sys}
}

// Raw returns the underlying System, for operations with no async
// counterpart (Pipe, Dup2, Execve, ...).
func (s *SharedSystem) Raw() System { return s.sys }

func (s *SharedSystem) setNonblocking(fd int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	flags, err := s.sys.FcntlGetFl(fd)
	if err != nil {
		return 0, err
	}
	if flags&unix.O_NONBLOCK == 0 {
		if err := s.sys.FcntlSetFl(fd, flags|unix.O_NONBLOCK); err != nil {
			return 0, err
		}
	}
	return flags, nil
}

func (s *SharedSystem) resetNonblocking(fd, oldFlags int) {
	if oldFlags&unix.O_NONBLOCK == 0 {
		s.mu.Lock()
		_ = s.sys.FcntlSetFl(fd, oldFlags)
		s.mu.Unlock()
	}
}

// ReadAsync reads from fd, suspending the calling goroutine (via ctx, not a
// busy loop) whenever the read would block, until SharedSystem.Select
// reports fd ready. The FD's O_NONBLOCK flag is toggled for the duration of
// the call and restored (even on error or ctx cancellation) on return.
func (s *SharedSystem) ReadAsync(ctx context.Context, fd int, buf []byte) (int, error) {
	flags, err := s.setNonblocking(fd)
	if err != nil {
		return 0, err
	}
	defer s.resetNonblocking(fd, flags)

	for {
		s.mu.Lock()
		n, rerr := s.sys.Read(fd, buf)
		if rerr == unix.EAGAIN {
			ready := make(chan struct{}, 1)
			s.readers = append(s.readers, &fdAwaiter{fd: fd, ready: ready})
			s.mu.Unlock()
			select {
			case <-ready:
				continue
			case <-ctx.Done():
				return 0, ctx.Err()
			}
		}
		s.mu.Unlock()
		return n, rerr
	}
}

// WriteAll writes the whole of buf to fd, looping until every byte is
// written (or an error other than EAGAIN/EINTR occurs), suspending between
// attempts exactly like ReadAsync. An empty buf returns immediately without
// touching fd.
func (s *SharedSystem) WriteAll(ctx context.Context, fd int, buf []byte) (int, error) {
	if len(buf) == 0 {
		return 0, nil
	}

	flags, err := s.setNonblocking(fd)
	if err != nil {
		return 0, err
	}
	defer s.resetNonblocking(fd, flags)

	written := 0
	for {
		s.mu.Lock()
		n, werr := s.sys.Write(fd, buf)
		if n > 0 {
			written += n
			buf = buf[n:]
		}
		if werr == nil && len(buf) == 0 {
			s.mu.Unlock()
			return written, nil
		}
		if werr != nil && werr != unix.EAGAIN && werr != unix.EINTR {
			s.mu.Unlock()
			return written, werr
		}
		ready := make(chan struct{}, 1)
		s.writers = append(s.writers, &fdAwaiter{fd: fd, ready: ready})
		s.mu.Unlock()
		select {
		case <-ready:
		case <-ctx.Done():
			return written, ctx.Err()
		}
	}
}

// SetSignalHandling installs handling for sig and returns its previous
// disposition. The order of the underlying mask/action syscalls matters:
// for Default/Ignore the disposition is installed before the signal is
// unblocked; for Catch the signal is blocked before the catching
// disposition is installed. This keeps a caught signal from ever being
// delivered outside of Select, where the mask is relaxed deliberately.
func (s *SharedSystem) SetSignalHandling(sig int, handling SignalHandling) (SignalHandling, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	set := NewSigSet(sig)
	var old SigSet

	switch handling {
	case Default, Ignore:
		prev, err := s.sys.SigAction(sig, handling)
		if err != nil {
			return 0, err
		}
		if err := s.sys.SigMask(unix.SIG_UNBLOCK, &set, &old); err != nil {
			return 0, err
		}
		old.Remove(sig)
		s.currentMask, s.haveCurrentMask = old, true
		return prev, nil
	case Catch:
		if err := s.sys.SigMask(unix.SIG_BLOCK, &set, &old); err != nil {
			return 0, err
		}
		old.Add(sig)
		s.currentMask, s.haveCurrentMask = old, true
		return s.sys.SigAction(sig, handling)
	default:
		panic("rsystem: invalid SignalHandling")
	}
}

// WaitForSignal blocks until sig is next caught, or ctx is done. The caller
// must have previously called SetSignalHandling(sig, Catch); otherwise this
// never returns (Select never relaxes the mask for a signal nobody set to
// Catch).
func (s *SharedSystem) WaitForSignal(ctx context.Context, sig int) error {
	ready := make(chan struct{}, 1)
	s.mu.Lock()
	s.sigs = append(s.sigs, &signalAwaiter{sig: sig, ready: ready})
	s.mu.Unlock()

	select {
	case <-ready:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Select runs one scheduler tick: it builds FD sets from the registered
// awaiters, relaxes the current signal mask by every signal with a live
// WaitForSignal awaiter, and calls the kernel select. FD and signal
// awaiters whose condition is met are woken and removed from their list.
//
// EBADF wakes every FD awaiter (the caller cannot tell which FD was bad) and
// is returned to the caller; EINTR is swallowed after still draining and
// delivering caught signals, since a signal delivery is exactly what EINTR
// usually means here.
func (s *SharedSystem) Select() error {
	s.mu.Lock()
	readers := NewFdSet()
	for _, a := range s.readers {
		readers.Add(a.fd)
	}
	writers := NewFdSet()
	for _, a := range s.writers {
		writers.Add(a.fd)
	}

	var mask *SigSet
	var relaxed SigSet
	if s.haveCurrentMask {
		relaxed = s.currentMask.Clone()
		for _, a := range s.sigs {
			relaxed.Remove(a.sig)
		}
		mask = &relaxed
	}
	s.mu.Unlock()

	_, err := s.sys.Select(&readers, &writers, mask)

	s.mu.Lock()
	defer s.mu.Unlock()

	switch err {
	case nil:
		s.wakeIO(readers, writers)
		s.wakeSignals(s.sys.CaughtSignals())
		return nil
	case unix.EBADF:
		s.wakeAllIO()
		return err
	case unix.EINTR:
		s.wakeSignals(s.sys.CaughtSignals())
		return nil
	default:
		return err
	}
}

func (s *SharedSystem) wakeIO(readyReaders, readyWriters FdSet) {
	s.readers = wakeMatching(s.readers, func(fd int) bool { return readyReaders.Has(fd) })
	s.writers = wakeMatching(s.writers, func(fd int) bool { return readyWriters.Has(fd) })
}

func (s *SharedSystem) wakeAllIO() {
	s.readers = wakeMatching(s.readers, func(int) bool { return true })
	s.writers = wakeMatching(s.writers, func(int) bool { return true })
}

func wakeMatching(awaiters []*fdAwaiter, ready func(fd int) bool) []*fdAwaiter {
	var remaining []*fdAwaiter
	for _, a := range awaiters {
		if ready(a.fd) {
			select {
			case a.ready <- struct{}{}:
			default:
			}
			continue
		}
		remaining = append(remaining, a)
	}
	return remaining
}

func (s *SharedSystem) wakeSignals(caught []int) {
	if len(caught) == 0 {
		return
	}
	set := make(map[int]bool, len(caught))
	for _, sig := range caught {
		set[sig] = true
	}
	var remaining []*signalAwaiter
	for _, a := range s.sigs {
		if set[a.sig] {
			a.caught = true
			select {
			case a.ready <- struct{}{}:
			default:
			}
			continue
		}
		remaining = append(remaining, a)
	}
	s.sigs = remaining
}
