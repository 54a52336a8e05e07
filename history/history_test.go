package history

import (
	"bytes"
	"path/filepath"
	"testing"

	qt "github.com/frankban/quicktest"
)

func TestOpenMissingFileIsEmpty(t *testing.T) {
	c := qt.New(t)
	f, err := Open(filepath.Join(t.TempDir(), "missing"))
	c.Assert(err, qt.IsNil)
	c.Assert(f.Len(), qt.Equals, 0)
}

func TestAppendAndReopen(t *testing.T) {
	c := qt.New(t)
	path := filepath.Join(t.TempDir(), "hist")

	f, err := Open(path)
	c.Assert(err, qt.IsNil)
	c.Assert(f.Append("echo hi"), qt.IsNil)
	c.Assert(f.Append("ls -l"), qt.IsNil)
	c.Assert(f.Len(), qt.Equals, 2)

	reopened, err := Open(path)
	c.Assert(err, qt.IsNil)
	c.Assert(reopened.Len(), qt.Equals, 2)
	c.Assert(reopened.At(0).Line, qt.Equals, "echo hi")
	c.Assert(reopened.At(1).Line, qt.Equals, "ls -l")

	last, ok := reopened.Last()
	c.Assert(ok, qt.IsTrue)
	c.Assert(last.Line, qt.Equals, "ls -l")
}

func TestAppendTrimsTrailingNewlineAndSkipsBlank(t *testing.T) {
	c := qt.New(t)
	path := filepath.Join(t.TempDir(), "hist")
	f, err := Open(path)
	c.Assert(err, qt.IsNil)

	c.Assert(f.Append("echo hi\n"), qt.IsNil)
	c.Assert(f.Append(""), qt.IsNil)
	c.Assert(f.Append("\n"), qt.IsNil)
	c.Assert(f.Len(), qt.Equals, 1)
	c.Assert(f.At(0).Line, qt.Equals, "echo hi")
}

func TestTraceDiffNoPreviousEntry(t *testing.T) {
	c := qt.New(t)
	var buf bytes.Buffer
	wrote, err := TraceDiff(&buf, Entry{}, "echo hi")
	c.Assert(err, qt.IsNil)
	c.Assert(wrote, qt.IsFalse)
	c.Assert(buf.Len(), qt.Equals, 0)
}

func TestTraceDiffShowsChange(t *testing.T) {
	c := qt.New(t)
	var buf bytes.Buffer
	wrote, err := TraceDiff(&buf, Entry{Line: "echo hi"}, "echo hey")
	c.Assert(err, qt.IsNil)
	c.Assert(wrote, qt.IsTrue)
	c.Assert(buf.Len() > 0, qt.IsTrue)
}

func TestTraceDiffIdenticalStillReportsRan(t *testing.T) {
	c := qt.New(t)
	var buf bytes.Buffer
	wrote, err := TraceDiff(&buf, Entry{Line: "echo hi"}, "echo hi")
	c.Assert(err, qt.IsNil)
	c.Assert(wrote, qt.IsTrue)
}
