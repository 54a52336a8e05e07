package alias

import (
	"testing"

	qt "github.com/frankban/quicktest"

	"github.com/extsh/extsh/source"
)

func TestDefineLookupRemove(t *testing.T) {
	c := qt.New(t)

	tbl := New()
	_, ok := tbl.Lookup("ll")
	c.Assert(ok, qt.IsFalse)

	tbl.Define("ll", "ls -l ", false, source.Location{})
	a, ok := tbl.Lookup("ll")
	c.Assert(ok, qt.IsTrue)
	c.Assert(a.Replacement, qt.Equals, "ls -l ")

	c.Assert(tbl.Remove("ll"), qt.IsTrue)
	c.Assert(tbl.Remove("ll"), qt.IsFalse)
	_, ok = tbl.Lookup("ll")
	c.Assert(ok, qt.IsFalse)
}

// Loop prevention: "ll" is not eligible again at a location that lies
// inside its own replacement, while a different alias name still is.
func TestEligibleLoopPrevention(t *testing.T) {
	c := qt.New(t)

	tbl := New()
	outer := source.NewCode(source.File("t.sh"), 1)
	outer.Append("ll foo\n")
	outerLoc := outer.LocationRange(0, 2)

	tbl.Define("ll", "ls -l ", false, outerLoc)
	defined, _ := tbl.Lookup("ll")

	a, ok := tbl.Eligible("ll", outerLoc)
	c.Assert(ok, qt.IsTrue)
	c.Assert(a, qt.Equals, defined)

	// Simulate having already substituted "ll" once: a nested location
	// whose Code was produced by expanding the "ll" alias must not be
	// eligible to expand "ll" again, even though the table still defines it.
	aliasCode := source.NewCode(source.AliasSource(outerLoc, defined), outerLoc.Line())
	aliasCode.Append("ls -l ")
	innerLoc := aliasCode.LocationRange(0, 2)

	_, ok = tbl.Eligible("ll", innerLoc)
	c.Assert(ok, qt.IsFalse)

	// A different alias name is unaffected by "ll" being active.
	tbl.Define("la", "ls -a ", false, outerLoc)
	_, ok = tbl.Eligible("la", innerLoc)
	c.Assert(ok, qt.IsTrue)

	// Undefined names are never eligible.
	_, ok = tbl.Eligible("nope", outerLoc)
	c.Assert(ok, qt.IsFalse)
}

func TestIsAfterBlankEndingAliasTrailingBlankRule(t *testing.T) {
	c := qt.New(t)

	outer := source.NewCode(source.File("t.sh"), 1)
	outer.Append("ll foo\n")
	outerLoc := outer.LocationRange(0, 2)

	alias := &source.Alias{Name: "ll", Replacement: "ls -l ", Origin: outerLoc}
	aliasCode := source.NewCode(source.AliasSource(outerLoc, alias), outerLoc.Line())
	aliasCode.Append("ls -l ")

	// Build the lexer-visible character buffer for the replacement text
	// "ls -l ", each character located within aliasCode.
	buf := make([]source.SourceChar, 0, len("ls -l "))
	text := "ls -l "
	for i, r := range text {
		buf = append(buf, source.SourceChar{
			Value:    r,
			Location: aliasCode.LocationRange(i, i+1),
		})
	}

	// idx 6 is one past the trailing blank, i.e. where "foo" would start
	// once appended to this same buffer: the blank at idx 5 is the last
	// character of the alias replacement, so the trailing-blank rule fires.
	c.Assert(IsAfterBlankEndingAlias(buf, 6, IsBlank), qt.IsTrue)

	// A blank that isn't the terminal character of an alias replacement
	// (nothing follows it within the same Code here, but it's not preceded
	// by alias-origin text at all) does not trigger the rule.
	plain := source.NewCode(source.File("t.sh"), 1)
	plain.Append("a b")
	plainBuf := []source.SourceChar{
		{Value: 'a', Location: plain.LocationRange(0, 1)},
		{Value: ' ', Location: plain.LocationRange(1, 2)},
		{Value: 'b', Location: plain.LocationRange(2, 3)},
	}
	c.Assert(IsAfterBlankEndingAlias(plainBuf, 2, IsBlank), qt.IsFalse)
}

func TestIsBlank(t *testing.T) {
	c := qt.New(t)
	c.Assert(IsBlank(' '), qt.IsTrue)
	c.Assert(IsBlank('\t'), qt.IsTrue)
	c.Assert(IsBlank('a'), qt.IsFalse)
	c.Assert(IsBlank('\n'), qt.IsFalse)
}
