// Package job tracks the child processes started by the shell: their PIDs,
// their last known wait status, and the "current" and "previous" job
// selection used by job-control builtins such as fg/bg/jobs.
//
// A JobSet is a stable-index container: the index returned by Add never
// changes until the job is removed, and removal may let a later Add reuse
// the freed index. This mirrors how job numbers (%1, %2, ...) stay fixed
// for the life of a job in a real job-control shell.
package job

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"
)

// StatusKind discriminates the states a Job's process can be in.
type StatusKind int

const (
	StillAlive StatusKind = iota
	Exited
	Signaled
	Stopped
	Continued
)

func (k StatusKind) String() string {
	switch k {
	case StillAlive:
		return "StillAlive"
	case Exited:
		return "Exited"
	case Signaled:
		return "Signaled"
	case Stopped:
		return "Stopped"
	case Continued:
		return "Continued"
	default:
		return "Unknown"
	}
}

// Status is the last wait(2)-observed state of a job's process. Code is
// meaningful only when Kind is Exited; Signal only when Kind is Signaled or
// Stopped.
type Status struct {
	Kind   StatusKind
	Code   int
	Signal int
}

// IsSuspended reports whether the process is stopped (e.g. by SIGTSTP).
func (s Status) IsSuspended() bool { return s.Kind == Stopped }

func Alive() Status                { return Status{Kind: StillAlive} }
func ExitedWith(code int) Status   { return Status{Kind: Exited, Code: code} }
func SignaledBy(sig int) Status    { return Status{Kind: Signaled, Signal: sig} }
func StoppedBy(sig int) Status     { return Status{Kind: Stopped, Signal: sig} }
func ContinuedStatus() Status      { return Status{Kind: Continued} }

// Job is one process the shell is tracking.
type Job struct {
	Pid int

	// JobControlled is true if the process runs in its own process group
	// (i.e. it is the process group leader of a job-controlled pipeline).
	JobControlled bool

	Status Status

	// StatusChanged is set whenever Status changes and cleared by
	// ReportJob/ReportJobs once the change has been shown to the user.
	StatusChanged bool

	// Name is the text of the command line that started the job, used for
	// "jobs" listings.
	Name string
}

// New creates a Job in the StillAlive state, with StatusChanged set (a
// freshly started job is always worth reporting once).
func New(pid int) Job {
	return Job{Pid: pid, Status: Alive(), StatusChanged: true}
}

func (j Job) IsSuspended() bool { return j.Status.IsSuspended() }

// SetCurrentJobError is the error type returned by JobSet.SetCurrentJob.
type SetCurrentJobError struct {
	err string
}

func (e *SetCurrentJobError) Error() string { return e.err }

var (
	// ErrNoSuchJob is returned when an index does not refer to any job.
	ErrNoSuchJob = &SetCurrentJobError{"job: no such job"}
	// ErrNotSuspended is returned when an index refers to a running job
	// while at least one other job is suspended.
	ErrNotSuspended = &SetCurrentJobError{"job: job is not suspended"}
)

// JobSet is a stable-index collection of Jobs plus the bookkeeping needed
// for current/previous job selection. The zero value is an empty, usable
// set.
type JobSet struct {
	jobs          []*Job
	free          []int // stack of reusable indices, LIFO like the freed order
	pidsToIndices map[int]int

	currentIndex  int
	previousIndex int

	lastAsyncPid int
}

// NewSet returns an empty JobSet. Equivalent to a zero-valued JobSet{}.
func NewSet() *JobSet { return &JobSet{} }

func (s *JobSet) ensureMaps() {
	if s.pidsToIndices == nil {
		s.pidsToIndices = make(map[int]int)
	}
}

func (s *JobSet) getJob(index int) *Job {
	if index < 0 || index >= len(s.jobs) {
		return nil
	}
	return s.jobs[index]
}

// Get returns a copy of the job at index, if any.
func (s *JobSet) Get(index int) (Job, bool) {
	j := s.getJob(index)
	if j == nil {
		return Job{}, false
	}
	return *j, true
}

// Len reports the number of jobs currently in the set.
func (s *JobSet) Len() int { return len(s.pidsToIndices) }

// IsEmpty reports whether the set contains no jobs.
func (s *JobSet) IsEmpty() bool { return s.Len() == 0 }

// IndexByPID finds the index of the job with the given process ID.
func (s *JobSet) IndexByPID(pid int) (int, bool) {
	idx, ok := s.pidsToIndices[pid]
	return idx, ok
}

// IndexedJob pairs a job with its stable index, as returned by All.
type IndexedJob struct {
	Index int
	Job   Job
}

// All returns every job in the set, ordered by index.
func (s *JobSet) All() []IndexedJob {
	var out []IndexedJob
	for idx, j := range s.jobs {
		if j != nil {
			out = append(out, IndexedJob{idx, *j})
		}
	}
	return out
}

func (s *JobSet) currentJobRaw() (int, *Job, bool) {
	j := s.getJob(s.currentIndex)
	if j == nil {
		return 0, nil, false
	}
	return s.currentIndex, j, true
}

// previousJobRaw mirrors CurrentJob/PreviousJob's public contract: the
// previous job is never reported as the same job as the current one, even
// if both indices happen to coincide because the set is otherwise empty.
func (s *JobSet) previousJobRaw() (int, *Job, bool) {
	if s.previousIndex == s.currentIndex {
		return 0, nil, false
	}
	j := s.getJob(s.previousIndex)
	if j == nil {
		return 0, nil, false
	}
	return s.previousIndex, j, true
}

// CurrentJob returns the current job, if the set is non-empty.
func (s *JobSet) CurrentJob() (int, Job, bool) {
	idx, j, ok := s.currentJobRaw()
	if !ok {
		return 0, Job{}, false
	}
	return idx, *j, true
}

// PreviousJob returns the previous job, if the set has at least two jobs.
func (s *JobSet) PreviousJob() (int, Job, bool) {
	idx, j, ok := s.previousJobRaw()
	if !ok {
		return 0, Job{}, false
	}
	return idx, *j, true
}

func (s *JobSet) anySuspendedJobButCurrent() (int, bool) {
	for idx, j := range s.jobs {
		if j != nil && idx != s.currentIndex && j.IsSuspended() {
			return idx, true
		}
	}
	return 0, false
}

func (s *JobSet) anyJobButCurrent() (int, bool) {
	for idx, j := range s.jobs {
		if j != nil && idx != s.currentIndex {
			return idx, true
		}
	}
	return 0, false
}

func (s *JobSet) insert(job Job) int {
	if idx, ok := s.pidsToIndices[job.Pid]; ok {
		cp := job
		s.jobs[idx] = &cp
		return idx
	}
	var idx int
	if n := len(s.free); n > 0 {
		idx = s.free[n-1]
		s.free = s.free[:n-1]
	} else {
		idx = len(s.jobs)
		s.jobs = append(s.jobs, nil)
	}
	cp := job
	s.jobs[idx] = &cp
	s.pidsToIndices[job.Pid] = idx
	return idx
}

// Add inserts job into the set and returns its assigned index. If a job
// with the same PID already exists, it is silently replaced and its index
// reused.
//
// The new job's suspension affects which job is now current/previous:
//   - if there was no current job, the new job becomes current;
//   - else if the current job is running and the new one is suspended, the
//     new job becomes current and the old current job becomes previous;
//   - else if there was no previous job, the new job becomes previous;
//   - else if the previous job is running and the new one is suspended, the
//     new job becomes previous;
//   - otherwise the current/previous selection is unchanged.
func (s *JobSet) Add(job Job) int {
	s.ensureMaps()

	newSus := job.IsSuspended()
	_, curJob, curOk := s.currentJobRaw()
	curSus := curOk && curJob.IsSuspended()
	_, prevJob, prevOk := s.previousJobRaw()
	prevSus := prevOk && prevJob.IsSuspended()

	index := s.insert(job)

	switch {
	case !curOk:
		s.currentIndex = index
	case !curSus && newSus:
		s.forceCurrentJob(index)
	default:
		switch {
		case !prevOk:
			s.previousIndex = index
		case !prevSus && newSus:
			s.previousIndex = index
		}
	}
	return index
}

// forceCurrentJob makes index the current job unconditionally, the old
// current job becoming previous. Callers must already know index refers to
// a job eligible to be current (Add and update's running-to-suspended
// transition both establish this before calling it).
func (s *JobSet) forceCurrentJob(index int) {
	if index != s.currentIndex {
		s.previousIndex = s.currentIndex
		s.currentIndex = index
	}
}

// Remove deletes the job at index and returns it. If the removed job was
// current, the previous job is promoted to current; a new previous job is
// then chosen from any suspended job other than the (new) current job,
// falling back to any job at all, falling back to 0.
func (s *JobSet) Remove(index int) (Job, bool) {
	j := s.getJob(index)
	if j == nil {
		return Job{}, false
	}
	removed := *j
	delete(s.pidsToIndices, removed.Pid)
	s.jobs[index] = nil
	s.free = append(s.free, index)

	if s.IsEmpty() {
		// Dropping the backing slice (instead of just emptying free)
		// purges reused indices so the next Add starts again from 0.
		s.jobs = nil
		s.free = nil
	}

	becameCurrent := index == s.currentIndex
	if becameCurrent {
		s.currentIndex = s.previousIndex
	}
	if becameCurrent || index == s.previousIndex {
		if idx, ok := s.anySuspendedJobButCurrent(); ok {
			s.previousIndex = idx
		} else if idx, ok := s.anyJobButCurrent(); ok {
			s.previousIndex = idx
		} else {
			s.previousIndex = 0
		}
	}
	return removed, true
}

// Retain removes every job for which f returns false. f is called with each
// remaining job's index and current value; indices are visited in order,
// but removals during the scan never revisit an index twice.
func (s *JobSet) Retain(f func(index int, job Job) bool) {
	maxIndex := -1
	for idx, j := range s.jobs {
		if j != nil {
			maxIndex = idx
		}
	}
	for idx := 0; idx <= maxIndex; idx++ {
		j := s.getJob(idx)
		if j == nil {
			continue
		}
		if !f(idx, *j) {
			s.Remove(idx)
		}
	}
}

// Update applies a freshly observed wait status to the job with the given
// PID, setting StatusChanged, and returns its index. It reports false if no
// job in the set has that PID.
//
// A running-to-suspended transition makes the job current (the old current
// job becoming previous). A suspended-to-running transition, if the updated
// job was current and the previous job is suspended, promotes the previous
// job to current and picks a new previous job from any other suspended
// job; if the updated job was itself the previous job, the same fallback
// applies without touching current.
func (s *JobSet) Update(pid int, status Status) (int, bool) {
	idx, ok := s.pidsToIndices[pid]
	if !ok {
		return 0, false
	}
	j := s.jobs[idx]
	wasSus := j.IsSuspended()
	j.Status = status
	j.StatusChanged = true

	switch {
	case !wasSus && j.IsSuspended():
		s.forceCurrentJob(idx)
	case wasSus && !j.IsSuspended():
		if prevIdx, prevJob, ok := s.previousJobRaw(); ok {
			becameCurrent := idx == s.currentIndex && prevJob.IsSuspended()
			if becameCurrent {
				s.currentIndex = prevIdx
			}
			if becameCurrent || idx == prevIdx {
				if newPrev, ok := s.anySuspendedJobButCurrent(); ok {
					s.previousIndex = newPrev
				} else {
					s.previousIndex = idx
				}
			}
		}
	}
	return idx, true
}

// SetCurrentJob makes the job at index current, the old current job
// becoming previous. If any job in the set is suspended, index must refer
// to one of them (ErrNotSuspended otherwise); an index with no job returns
// ErrNoSuchJob.
func (s *JobSet) SetCurrentJob(index int) error {
	j := s.getJob(index)
	if j == nil {
		return ErrNoSuchJob
	}
	if !j.IsSuspended() {
		for _, other := range s.jobs {
			if other != nil && other.IsSuspended() {
				return ErrNotSuspended
			}
		}
	}
	s.forceCurrentJob(index)
	return nil
}

// ReportJob passes the job at index to f; if f returns true, the job's
// StatusChanged flag is cleared. f is not called if there is no job at
// index.
func (s *JobSet) ReportJob(index int, f func(Job) bool) {
	j := s.getJob(index)
	if j == nil {
		return
	}
	if f(*j) {
		j.StatusChanged = false
	}
}

// ReportJobs calls f with every job's index and value, in index order,
// clearing StatusChanged for each job whose f call returns true.
func (s *JobSet) ReportJobs(f func(index int, job Job) bool) {
	for idx, j := range s.jobs {
		if j == nil {
			continue
		}
		if f(idx, *j) {
			j.StatusChanged = false
		}
	}
}

// LastAsyncPID returns the PID of the most recently started asynchronous
// command (the value of the "$!" special parameter), or 0 if none has run.
func (s *JobSet) LastAsyncPID() int { return s.lastAsyncPid }

// SetLastAsyncPID records the PID of a just-started asynchronous command.
func (s *JobSet) SetLastAsyncPID(pid int) { s.lastAsyncPid = pid }

// Reap waits for a batch of processes concurrently, one goroutine per PID,
// and applies each resulting Status to the set. Updates are serialized
// under a single lock so that concurrent waitFor completions never race on
// current/previous job reselection. It returns the first error from
// waitFor, if any, after all goroutines have finished.
func (s *JobSet) Reap(ctx context.Context, pids []int, waitFor func(ctx context.Context, pid int) (Status, error)) error {
	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	for _, pid := range pids {
		pid := pid
		g.Go(func() error {
			status, err := waitFor(gctx, pid)
			if err != nil {
				return err
			}
			mu.Lock()
			defer mu.Unlock()
			s.Update(pid, status)
			return nil
		})
	}
	return g.Wait()
}
