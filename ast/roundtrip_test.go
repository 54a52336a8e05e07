package ast_test

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	qt "github.com/frankban/quicktest"

	"github.com/extsh/extsh/alias"
	"github.com/extsh/extsh/ast"
	"github.com/extsh/extsh/lexer"
	"github.com/extsh/extsh/parser"
	"github.com/extsh/extsh/source"
)

// ignoreLocations drops every source.Location field from a comparison, since
// invariant 1 only promises structural equality "up to location metadata".
var ignoreLocations = cmpopts.IgnoreTypes(source.Location{})

func parseList(c *qt.C, s string) ast.List {
	lx := lexer.New(lexer.StringInput(s), source.CommandStringSource(), 1)
	p := parser.New(lx, alias.New())
	list, err := p.Program()
	c.Assert(err, qt.IsNil)
	return list
}

func parse(c *qt.C, s string) string {
	return parseList(c, s).String()
}

// checkStructuralRoundTrip is invariant 1 read literally: parsing the
// alternate-form display of a parsed list must produce a structurally
// identical list, modulo Location metadata.
func checkStructuralRoundTrip(c *qt.C, input string) {
	first := parseList(c, input)
	second := parseList(c, first.StringAlternate())
	if diff := cmp.Diff(first, second, ignoreLocations); diff != "" {
		c.Fatalf("parse(display_alternate(L)) != L (-first +second):\n%s", diff)
	}
}

// Invariant 1 (display round-trip): printing a parsed list and re-parsing the
// result must be a fixed point — the second print matches the first byte for
// byte, since the printer never introduces forms the parser can't re-accept.
func checkRoundTrips(c *qt.C, input string) {
	first := parse(c, input)
	second := parse(c, first)
	c.Assert(second, qt.Equals, first)
}

func TestRoundTripSimpleCommand(t *testing.T) {
	c := qt.New(t)
	checkRoundTrips(c, "echo hello world")
	checkStructuralRoundTrip(c, "echo hello world")
}

func TestRoundTripPipelineAndAndOr(t *testing.T) {
	c := qt.New(t)
	checkRoundTrips(c, "a | b && c || d")
}

func TestRoundTripAsyncItem(t *testing.T) {
	c := qt.New(t)
	checkRoundTrips(c, "sleep 1 &")
}

func TestRoundTripAssignmentsAndParam(t *testing.T) {
	c := qt.New(t)
	checkRoundTrips(c, "a=1 b=2 echo $a")
}

func TestRoundTripIfElifElse(t *testing.T) {
	c := qt.New(t)
	checkRoundTrips(c, "if true; then echo a; elif false; then echo b; else echo c; fi")
	checkStructuralRoundTrip(c, "if true; then echo a; elif false; then echo b; else echo c; fi")
}

func TestRoundTripForClause(t *testing.T) {
	c := qt.New(t)
	checkRoundTrips(c, "for x in a b c; do echo $x; done")
}

func TestRoundTripCaseClause(t *testing.T) {
	c := qt.New(t)
	checkRoundTrips(c, "case $x in a|b) echo ab ;; *) echo other ;; esac")
}

func TestRoundTripGroupingAndSubshell(t *testing.T) {
	c := qt.New(t)
	checkRoundTrips(c, "{ echo a; }")
	checkRoundTrips(c, "(echo a)")
}

// A reserved word used as a command name must print in a form that re-parses
// back to the same reserved-word-as-literal meaning, not as a keyword.
func TestRoundTripReservedWordAsCommandName(t *testing.T) {
	c := qt.New(t)
	checkRoundTrips(c, "\\if echo hi")
}

func TestRoundTripFunctionDefinition(t *testing.T) {
	c := qt.New(t)
	checkRoundTrips(c, "f() { echo body; }")
	checkStructuralRoundTrip(c, "f() { echo body; }")
}

// Invariant 2 (location containment): every Location a parsed node carries
// must index a substring of the original source text, for input that has no
// alias or command-substitution replacement (those carry their own Original
// back-reference, checked separately by alias.Eligible's loop-prevention
// walk and by the command-substitution sub-lexer's own Code).
func TestLocationContainmentSimpleCommand(t *testing.T) {
	c := qt.New(t)
	const src = "a=1 b=2 echo $a | grep x"
	list := parseList(c, src)

	pl := list[0].AndOr.First
	c.Assert(strings.Contains(src, pl.Commands[0].Location().Text()), qt.IsTrue)
	c.Assert(strings.Contains(src, pl.Commands[1].Location().Text()), qt.IsTrue)

	sc, ok := ast.AsSimpleCommand(pl.Commands[0])
	c.Assert(ok, qt.IsTrue)
	for _, a := range sc.Assigns {
		c.Assert(strings.Contains(src, a.Location().Text()), qt.IsTrue)
	}
	for _, w := range sc.Words {
		c.Assert(strings.Contains(src, w.Location().Text()), qt.IsTrue)
	}
}

func TestLocationContainmentIfClause(t *testing.T) {
	c := qt.New(t)
	const src = "if true; then echo a; else echo c; fi"
	list := parseList(c, src)

	fcc, ok := list[0].AndOr.First.Commands[0].(*ast.FullCompoundCommand)
	c.Assert(ok, qt.IsTrue)
	c.Assert(strings.Contains(src, fcc.Location().Text()), qt.IsTrue)

	ifc, ok := fcc.Command.(*ast.IfClause)
	c.Assert(ok, qt.IsTrue)
	c.Assert(strings.Contains(src, ifc.Location().Text()), qt.IsTrue)
}
