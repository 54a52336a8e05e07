package job

import (
	"context"
	"testing"

	qt "github.com/frankban/quicktest"
)

func TestAddAndRemoveJob(t *testing.T) {
	c := qt.New(t)
	var set JobSet

	c.Assert(set.Add(New(10)), qt.Equals, 0)
	c.Assert(set.Add(New(11)), qt.Equals, 1)
	c.Assert(set.Add(New(12)), qt.Equals, 2)

	removed, ok := set.Remove(0)
	c.Assert(ok, qt.IsTrue)
	c.Assert(removed.Pid, qt.Equals, 10)
	removed, ok = set.Remove(1)
	c.Assert(ok, qt.IsTrue)
	c.Assert(removed.Pid, qt.Equals, 11)

	// Indices are reused in the reverse order of removal.
	c.Assert(set.Add(New(13)), qt.Equals, 1)
	c.Assert(set.Add(New(14)), qt.Equals, 0)

	removed, _ = set.Remove(0)
	c.Assert(removed.Pid, qt.Equals, 14)
	removed, _ = set.Remove(1)
	c.Assert(removed.Pid, qt.Equals, 13)
	removed, _ = set.Remove(2)
	c.Assert(removed.Pid, qt.Equals, 12)

	// Once the set is empty, indices start from 0 again.
	c.Assert(set.Add(New(13)), qt.Equals, 0)
	c.Assert(set.Add(New(14)), qt.Equals, 1)
}

func TestAddJobSamePID(t *testing.T) {
	c := qt.New(t)
	var set JobSet

	first := New(10)
	first.Name = "first job"
	iFirst := set.Add(first)

	second := New(10)
	second.Name = "second job"
	iSecond := set.Add(second)

	j, ok := set.Get(iSecond)
	c.Assert(ok, qt.IsTrue)
	c.Assert(j.Pid, qt.Equals, 10)
	c.Assert(j.Name, qt.Equals, "second job")

	// Adding a job with a PID already in the set reuses the same index.
	c.Assert(iFirst, qt.Equals, iSecond)
}

func TestRetain(t *testing.T) {
	c := qt.New(t)
	var set JobSet
	for _, pid := range []int{4, 5, 6, 7, 8, 9} {
		set.Add(New(pid))
	}
	set.Retain(func(index int, j Job) bool {
		return index != 2 && j.Pid != 8
	})
	var pids []int
	for _, ij := range set.All() {
		pids = append(pids, ij.Job.Pid)
	}
	c.Assert(pids, qt.DeepEquals, []int{4, 5, 7, 9})
}

func TestIndexByPID(t *testing.T) {
	c := qt.New(t)
	var set JobSet
	_, ok := set.IndexByPID(10)
	c.Assert(ok, qt.IsFalse)

	i10 := set.Add(New(10))
	i20 := set.Add(New(20))
	i30 := set.Add(New(30))
	idx, ok := set.IndexByPID(10)
	c.Assert(ok, qt.IsTrue)
	c.Assert(idx, qt.Equals, i10)
	idx, _ = set.IndexByPID(20)
	c.Assert(idx, qt.Equals, i20)
	idx, _ = set.IndexByPID(30)
	c.Assert(idx, qt.Equals, i30)
	_, ok = set.IndexByPID(40)
	c.Assert(ok, qt.IsFalse)

	set.Remove(i10)
	_, ok = set.IndexByPID(10)
	c.Assert(ok, qt.IsFalse)
}

func TestUpdateJob(t *testing.T) {
	c := qt.New(t)
	var set JobSet

	_, ok := set.Update(20, ExitedWith(15))
	c.Assert(ok, qt.IsFalse)

	i10 := set.Add(New(10))
	i20 := set.Add(New(20))
	i30 := set.Add(New(30))

	j, _ := set.Get(i20)
	c.Assert(j.Status.Kind, qt.Equals, StillAlive)

	set.ReportJob(i20, func(Job) bool { return true })

	idx, ok := set.Update(20, ExitedWith(15))
	c.Assert(ok, qt.IsTrue)
	c.Assert(idx, qt.Equals, i20)
	j, _ = set.Get(i20)
	c.Assert(j.Status.Kind, qt.Equals, Exited)
	c.Assert(j.Status.Code, qt.Equals, 15)
	c.Assert(j.StatusChanged, qt.IsTrue)

	j, _ = set.Get(i10)
	c.Assert(j.Status.Kind, qt.Equals, StillAlive)
	j, _ = set.Get(i30)
	c.Assert(j.Status.Kind, qt.Equals, StillAlive)
}

func TestReportJob(t *testing.T) {
	c := qt.New(t)
	var set JobSet
	set.ReportJob(0, func(Job) bool { t.Fatal("unreachable"); return false })

	i5 := set.Add(New(5))
	set.ReportJob(i5, func(j Job) bool {
		c.Assert(j.StatusChanged, qt.IsTrue)
		return false
	})
	j, _ := set.Get(i5)
	c.Assert(j.StatusChanged, qt.IsTrue)

	set.ReportJob(i5, func(j Job) bool {
		c.Assert(j.StatusChanged, qt.IsTrue)
		return true
	})
	j, _ = set.Get(i5)
	c.Assert(j.StatusChanged, qt.IsFalse)

	set.ReportJob(i5, func(j Job) bool {
		c.Assert(j.StatusChanged, qt.IsFalse)
		return true
	})
	j, _ = set.Get(i5)
	c.Assert(j.StatusChanged, qt.IsFalse)
}

func TestReportJobs(t *testing.T) {
	c := qt.New(t)
	var set JobSet
	set.ReportJobs(func(int, Job) bool { t.Fatal("unreachable"); return false })

	i5 := set.Add(New(5))
	i7 := set.Add(New(7))
	i9 := set.Add(New(9))
	var seen []int
	set.ReportJobs(func(index int, j Job) bool {
		seen = append(seen, j.Pid)
		return index == i7
	})
	c.Assert(seen, qt.DeepEquals, []int{5, 7, 9})

	j, _ := set.Get(i5)
	c.Assert(j.StatusChanged, qt.IsTrue)
	j, _ = set.Get(i7)
	c.Assert(j.StatusChanged, qt.IsFalse)
	j, _ = set.Get(i9)
	c.Assert(j.StatusChanged, qt.IsTrue)
}

func TestNoCurrentOrPreviousInEmptySet(t *testing.T) {
	c := qt.New(t)
	var set JobSet
	_, _, ok := set.CurrentJob()
	c.Assert(ok, qt.IsFalse)
	_, _, ok = set.PreviousJob()
	c.Assert(ok, qt.IsFalse)
}

func TestCurrentAndPreviousWithOneJob(t *testing.T) {
	c := qt.New(t)
	var set JobSet
	i10 := set.Add(New(10))
	idx, j, ok := set.CurrentJob()
	c.Assert(ok, qt.IsTrue)
	c.Assert(idx, qt.Equals, i10)
	c.Assert(j.Pid, qt.Equals, 10)
	_, _, ok = set.PreviousJob()
	c.Assert(ok, qt.IsFalse)
}

func TestCurrentAndPreviousSuspendedWins(t *testing.T) {
	c := qt.New(t)
	// A suspended job always becomes current over a running one, regardless
	// of add order.
	suspended := New(10)
	suspended.Status = StoppedBy(19)
	running := New(20)

	var set JobSet
	i10 := set.Add(suspended)
	i20 := set.Add(running)
	cidx, _, _ := set.CurrentJob()
	pidx, _, _ := set.PreviousJob()
	c.Assert(cidx, qt.Equals, i10)
	c.Assert(pidx, qt.Equals, i20)

	set = JobSet{}
	i20 = set.Add(running)
	i10 = set.Add(suspended)
	cidx, _, _ = set.CurrentJob()
	pidx, _, _ = set.PreviousJob()
	c.Assert(cidx, qt.Equals, i10)
	c.Assert(pidx, qt.Equals, i20)
}

func TestAddingSuspendedJobWithRunningCurrentAndPrevious(t *testing.T) {
	c := qt.New(t)
	var set JobSet
	set.Add(New(11))
	set.Add(New(12))
	exCurrent, _, _ := set.CurrentJob()

	suspended := New(20)
	suspended.Status = StoppedBy(19)
	i20 := set.Add(suspended)

	nowCurrent, _, _ := set.CurrentJob()
	nowPrevious, _, _ := set.PreviousJob()
	c.Assert(nowCurrent, qt.Equals, i20)
	c.Assert(nowPrevious, qt.Equals, exCurrent)
}

func TestRemovingCurrentJob(t *testing.T) {
	c := qt.New(t)
	var set JobSet
	i10 := set.Add(New(10))

	s1, s2, s3 := New(11), New(12), New(13)
	s1.Status, s2.Status, s3.Status = StoppedBy(19), StoppedBy(19), StoppedBy(19)
	set.Add(s1)
	set.Add(s2)
	set.Add(s3)

	cur1, _, _ := set.CurrentJob()
	prev1, _, _ := set.PreviousJob()
	c.Assert(cur1, qt.Not(qt.Equals), i10)
	c.Assert(prev1, qt.Not(qt.Equals), i10)

	set.Remove(cur1)
	cur2, _, _ := set.CurrentJob()
	prev2, prevJob2, _ := set.PreviousJob()
	c.Assert(cur2, qt.Equals, prev1)
	c.Assert(prev2, qt.Not(qt.Equals), cur2)
	c.Assert(prevJob2.IsSuspended(), qt.IsTrue)

	set.Remove(cur2)
	cur3, _, _ := set.CurrentJob()
	prev3, _, _ := set.PreviousJob()
	c.Assert(cur3, qt.Equals, prev2)
	c.Assert(prev3, qt.Equals, i10)

	set.Remove(cur3)
	cur4, _, _ := set.CurrentJob()
	c.Assert(cur4, qt.Equals, i10)
	_, _, ok := set.PreviousJob()
	c.Assert(ok, qt.IsFalse)
}

func TestSetCurrentJob(t *testing.T) {
	c := qt.New(t)
	var set JobSet
	i21 := set.Add(New(21))
	i22 := set.Add(New(22))

	c.Assert(set.SetCurrentJob(i21), qt.IsNil)
	cur, _, _ := set.CurrentJob()
	c.Assert(cur, qt.Equals, i21)

	c.Assert(set.SetCurrentJob(i22), qt.IsNil)
	cur, _, _ = set.CurrentJob()
	c.Assert(cur, qt.Equals, i22)
}

func TestSetCurrentJobErrors(t *testing.T) {
	c := qt.New(t)
	var empty JobSet
	c.Assert(empty.SetCurrentJob(0), qt.Equals, ErrNoSuchJob)

	var set JobSet
	suspended := New(10)
	suspended.Status = StoppedBy(20)
	i10 := set.Add(suspended)
	i20 := set.Add(New(20))

	c.Assert(set.SetCurrentJob(i20), qt.Equals, ErrNotSuspended)
	cur, _, _ := set.CurrentJob()
	c.Assert(cur, qt.Equals, i10)
}

func TestResumingCurrentJobWithoutOtherSuspended(t *testing.T) {
	c := qt.New(t)
	var set JobSet
	suspended := New(10)
	suspended.Status = StoppedBy(20)
	i10 := set.Add(suspended)
	i20 := set.Add(New(20))

	set.Update(10, ContinuedStatus())
	cur, _, _ := set.CurrentJob()
	prev, _, _ := set.PreviousJob()
	c.Assert(cur, qt.Equals, i10)
	c.Assert(prev, qt.Equals, i20)
}

func TestResumingCurrentJobWithAnotherSuspended(t *testing.T) {
	c := qt.New(t)
	var set JobSet
	s1, s2 := New(10), New(20)
	s1.Status, s2.Status = StoppedBy(20), StoppedBy(20)
	i10 := set.Add(s1)
	i20 := set.Add(s2)
	set.SetCurrentJob(i10)

	set.Update(10, ContinuedStatus())
	cur, _, _ := set.CurrentJob()
	prev, _, _ := set.PreviousJob()
	c.Assert(cur, qt.Equals, i20)
	c.Assert(prev, qt.Equals, i10)
}

func TestSuspendingCurrentJob(t *testing.T) {
	c := qt.New(t)
	var set JobSet
	i11 := set.Add(New(11))
	i12 := set.Add(New(12))
	set.SetCurrentJob(i11)
	set.Update(11, StoppedBy(22))
	cur, _, _ := set.CurrentJob()
	prev, _, _ := set.PreviousJob()
	c.Assert(cur, qt.Equals, i11)
	c.Assert(prev, qt.Equals, i12)
}

func TestSuspendingPreviousJob(t *testing.T) {
	c := qt.New(t)
	var set JobSet
	i11 := set.Add(New(11))
	i12 := set.Add(New(12))
	set.SetCurrentJob(i11)
	set.Update(12, StoppedBy(22))
	cur, _, _ := set.CurrentJob()
	prev, _, _ := set.PreviousJob()
	c.Assert(cur, qt.Equals, i12)
	c.Assert(prev, qt.Equals, i11)
}

func TestReap(t *testing.T) {
	c := qt.New(t)
	var set JobSet
	i10 := set.Add(New(10))
	i20 := set.Add(New(20))

	err := set.Reap(context.Background(), []int{10, 20}, func(_ context.Context, pid int) (Status, error) {
		return ExitedWith(pid % 7), nil
	})
	c.Assert(err, qt.IsNil)

	j, _ := set.Get(i10)
	c.Assert(j.Status, qt.Equals, ExitedWith(10%7))
	j, _ = set.Get(i20)
	c.Assert(j.Status, qt.Equals, ExitedWith(20%7))
}
