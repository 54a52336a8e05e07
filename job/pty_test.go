//go:build unix

package job

import (
	"os/exec"
	"syscall"
	"testing"
	"time"

	"github.com/creack/pty"
	qt "github.com/frankban/quicktest"
	"golang.org/x/sys/unix"
)

// TestStopAndContinueAgainstRealProcess exercises the Stopped/Continued
// transitions (S8/S9) against an actual kernel-scheduled process attached to
// a controlling terminal, rather than synthetic Status values: a real shell
// job control implementation observes these transitions through wait4's
// WUNTRACED/WCONTINUED, and a pty is what gives a child something to be a
// session/process-group leader of in the first place.
func TestStopAndContinueAgainstRealProcess(t *testing.T) {
	c := qt.New(t)

	cmd := exec.Command("sleep", "30")
	ptmx, err := pty.Start(cmd)
	c.Assert(err, qt.IsNil)
	defer ptmx.Close()
	defer func() {
		_ = cmd.Process.Kill()
		_, _ = cmd.Process.Wait()
	}()

	pid := cmd.Process.Pid

	var set JobSet
	other := set.Add(New(10))
	mine := set.Add(New(pid))
	c.Assert(other, qt.Equals, 0)
	c.Assert(mine, qt.Equals, 1)

	c.Assert(cmd.Process.Signal(syscall.SIGSTOP), qt.IsNil)
	stopped := waitForState(c, pid, func(status unix.WaitStatus) bool { return status.Stopped() })
	_, ok := set.Update(pid, StoppedBy(int(stopped.StopSignal())))
	c.Assert(ok, qt.IsTrue)

	curIdx, curJob, ok := set.CurrentJob()
	c.Assert(ok, qt.IsTrue)
	c.Assert(curIdx, qt.Equals, mine)
	c.Assert(curJob.IsSuspended(), qt.IsTrue)
	prevIdx, _, ok := set.PreviousJob()
	c.Assert(ok, qt.IsTrue)
	c.Assert(prevIdx, qt.Equals, other)

	c.Assert(cmd.Process.Signal(syscall.SIGCONT), qt.IsNil)
	waitForState(c, pid, func(status unix.WaitStatus) bool { return status.Continued() })
	_, ok = set.Update(pid, ContinuedStatus())
	c.Assert(ok, qt.IsTrue)

	curIdx, curJob, ok = set.CurrentJob()
	c.Assert(ok, qt.IsTrue)
	c.Assert(curIdx, qt.Equals, mine)
	c.Assert(curJob.IsSuspended(), qt.IsFalse)
}

// waitForState polls wait4(pid, WUNTRACED|WCONTINUED|WNOHANG) until want
// reports the status we're looking for, failing the test after a generous
// timeout rather than hanging forever if the kernel never delivers it.
func waitForState(c *qt.C, pid int, want func(unix.WaitStatus) bool) unix.WaitStatus {
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		var status unix.WaitStatus
		got, err := unix.Wait4(pid, &status, unix.WUNTRACED|unix.WCONTINUED|unix.WNOHANG, nil)
		if err == nil && got == pid && want(status) {
			return status
		}
		time.Sleep(10 * time.Millisecond)
	}
	c.Fatal("timed out waiting for process state change")
	return unix.WaitStatus(0)
}
