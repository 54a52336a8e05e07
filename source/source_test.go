package source

import (
	"testing"

	qt "github.com/frankban/quicktest"
)

func TestCodeFlushAdvancesStartLine(t *testing.T) {
	c := qt.New(t)

	code := NewCode(File("script.sh"), 1)
	code.Append("echo one\necho two\n")

	loc := code.LocationRange(0, 4)
	c.Assert(loc.Text(), qt.Equals, "echo")
	c.Assert(loc.Line(), qt.Equals, 1)

	next := code.Flush()
	c.Assert(next.StartLine(), qt.Equals, 3)

	// Locations handed out before the flush remain valid and keep
	// pointing at the pre-flush buffer.
	c.Assert(loc.Text(), qt.Equals, "echo")
	c.Assert(loc.Code.Value(), qt.Equals, "echo one\necho two\n")
}

func TestLocationRangeEmptyAtEOF(t *testing.T) {
	c := qt.New(t)

	code := NewCode(Stdin(), 1)
	code.Append("hi")

	loc := code.LocationRange(2, 2)
	c.Assert(loc.Empty(), qt.IsTrue)
}

func TestLocationRangeStartAtEOFMustBeEmpty(t *testing.T) {
	c := qt.New(t)

	code := NewCode(Stdin(), 1)
	code.Append("hi")

	defer func() {
		c.Assert(recover(), qt.Not(qt.IsNil))
	}()
	code.LocationRange(2, 3)
}

func TestAliasChainDetectsSameName(t *testing.T) {
	c := qt.New(t)

	outer := NewCode(File("a.sh"), 1)
	outer.Append("ll foo\n")
	outerLoc := outer.LocationRange(0, 2)

	ll := &Alias{Name: "ll", Replacement: "ls -l ", Origin: outerLoc}
	aliasCode := NewCode(AliasSource(outerLoc, ll), outerLoc.Line())
	aliasCode.Append("ls -l ")
	innerLoc := aliasCode.LocationRange(0, 2)

	chain := innerLoc.AliasChain()
	c.Assert(chain, qt.HasLen, 1)
	c.Assert(chain[0].Name, qt.Equals, "ll")

	c.Assert(innerLoc.Origin().Text(), qt.Equals, "ll")
}

func TestLineAtCountsNewlines(t *testing.T) {
	c := qt.New(t)

	code := NewCode(File("x.sh"), 5)
	code.Append("one\ntwo\nthree")

	c.Assert(code.LineAt(0), qt.Equals, 5)
	c.Assert(code.LineAt(4), qt.Equals, 6)
	c.Assert(code.LineAt(8), qt.Equals, 7)
}
