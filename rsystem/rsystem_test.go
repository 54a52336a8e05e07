package rsystem

import (
	"context"
	"testing"
	"time"

	qt "github.com/frankban/quicktest"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sys/unix"
)

func TestReadAsyncBlocksUntilSelectMakesProgress(t *testing.T) {
	c := qt.New(t)
	vsys := NewVirtualSystem()
	sys := New(vsys)
	r, w, err := vsys.Pipe()
	c.Assert(err, qt.IsNil)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	var g errgroup.Group
	buf := make([]byte, 16)
	var n int
	g.Go(func() error {
		var rerr error
		n, rerr = sys.ReadAsync(ctx, r, buf)
		return rerr
	})

	// Give the reader goroutine time to register as an awaiter before any
	// data exists for it to read.
	time.Sleep(10 * time.Millisecond)
	_, werr := vsys.Write(w, []byte("hi"))
	c.Assert(werr, qt.IsNil)

	// ReadAsync is still blocked on its channel until a Select tick notices
	// the pipe has become readable.
	for i := 0; i < 10 && n == 0; i++ {
		c.Assert(sys.Select(), qt.IsNil)
		time.Sleep(time.Millisecond)
	}

	c.Assert(g.Wait(), qt.IsNil)
	c.Assert(n, qt.Equals, 2)
	c.Assert(string(buf[:n]), qt.Equals, "hi")
}

func TestWriteAllWritesEverything(t *testing.T) {
	c := qt.New(t)
	vsys := NewVirtualSystem()
	sys := New(vsys)
	r, w, err := vsys.Pipe()
	c.Assert(err, qt.IsNil)

	ctx := context.Background()
	n, err := sys.WriteAll(ctx, w, []byte("hello world"))
	c.Assert(err, qt.IsNil)
	c.Assert(n, qt.Equals, 11)

	got := make([]byte, 11)
	rn, err := vsys.Read(r, got)
	c.Assert(err, qt.IsNil)
	c.Assert(string(got[:rn]), qt.Equals, "hello world")
}

func TestWriteAllEmptyBufNoops(t *testing.T) {
	c := qt.New(t)
	vsys := NewVirtualSystem()
	sys := New(vsys)
	n, err := sys.WriteAll(context.Background(), 99, nil)
	c.Assert(err, qt.IsNil)
	c.Assert(n, qt.Equals, 0)
}

func TestSetSignalHandlingOrdering(t *testing.T) {
	c := qt.New(t)
	vsys := NewVirtualSystem()
	sys := New(vsys)

	prev, err := sys.SetSignalHandling(unix.SIGINT, Catch)
	c.Assert(err, qt.IsNil)
	c.Assert(prev, qt.Equals, Default)
	c.Assert(vsys.mask.Has(unix.SIGINT), qt.IsTrue)

	prev, err = sys.SetSignalHandling(unix.SIGINT, Ignore)
	c.Assert(err, qt.IsNil)
	c.Assert(prev, qt.Equals, Catch)
	c.Assert(vsys.mask.Has(unix.SIGINT), qt.IsFalse)
}

func TestWaitForSignalDeliveredThroughSelect(t *testing.T) {
	c := qt.New(t)
	vsys := NewVirtualSystem()
	sys := New(vsys)

	_, err := sys.SetSignalHandling(unix.SIGINT, Catch)
	c.Assert(err, qt.IsNil)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	var g errgroup.Group
	g.Go(func() error { return sys.WaitForSignal(ctx, unix.SIGINT) })

	time.Sleep(10 * time.Millisecond)
	vsys.Raise(unix.SIGINT)

	var tickErr error
	for i := 0; i < 10; i++ {
		tickErr = sys.Select()
		if tickErr == nil {
			break
		}
	}
	c.Assert(tickErr, qt.IsNil)
	c.Assert(g.Wait(), qt.IsNil)
}

func TestReadAsyncOnClosedFdFailsWithoutBlocking(t *testing.T) {
	c := qt.New(t)
	vsys := NewVirtualSystem()
	sys := New(vsys)
	r, _, err := vsys.Pipe()
	c.Assert(err, qt.IsNil)
	c.Assert(vsys.Close(r), qt.IsNil)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	buf := make([]byte, 8)
	_, err = sys.ReadAsync(ctx, r, buf)
	c.Assert(err, qt.Equals, unix.EBADF)
}
