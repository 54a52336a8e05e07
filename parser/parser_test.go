package parser

import (
	"testing"

	qt "github.com/frankban/quicktest"

	"github.com/extsh/extsh/alias"
	"github.com/extsh/extsh/ast"
	"github.com/extsh/extsh/lexer"
	"github.com/extsh/extsh/source"
)

func parseString(c *qt.C, s string) ast.List {
	lx := lexer.New(lexer.StringInput(s), source.CommandStringSource(), 1)
	p := New(lx, alias.New())
	list, err := p.Program()
	c.Assert(err, qt.IsNil)
	return list
}

func simpleWords(c *qt.C, list ast.List) []string {
	c.Assert(list, qt.HasLen, 1)
	c.Assert(list[0].AndOr.Rest, qt.HasLen, 0)
	c.Assert(list[0].AndOr.First.Commands, qt.HasLen, 1)
	sc, ok := ast.AsSimpleCommand(list[0].AndOr.First.Commands[0])
	c.Assert(ok, qt.IsTrue)
	var words []string
	for _, w := range sc.Words {
		words = append(words, w.String())
	}
	return words
}

// S1: "echo hello world" -> SimpleCommand{words=[echo,hello,world]}; round-trips.
func TestSeedEchoHelloWorld(t *testing.T) {
	c := qt.New(t)
	list := parseString(c, "echo hello world")
	c.Assert(simpleWords(c, list), qt.DeepEquals, []string{"echo", "hello", "world"})
	c.Assert(list.String(), qt.Equals, "echo hello world")
}

// S3: "a=1 b=2 echo $a" -> SimpleCommand{assigns=[a=1,b=2], words=[echo, RawParam(a)]}.
func TestSeedAssignmentsAndParam(t *testing.T) {
	c := qt.New(t)
	list := parseString(c, "a=1 b=2 echo $a")
	c.Assert(list, qt.HasLen, 1)
	sc, ok := ast.AsSimpleCommand(list[0].AndOr.First.Commands[0])
	c.Assert(ok, qt.IsTrue)
	c.Assert(sc.Assigns, qt.HasLen, 2)
	c.Assert(sc.Assigns[0].Name, qt.Equals, "a")
	c.Assert(sc.Assigns[1].Name, qt.Equals, "b")
	c.Assert(sc.Words, qt.HasLen, 2)
	c.Assert(sc.Words[0].String(), qt.Equals, "echo")
	c.Assert(sc.Words[1].Units, qt.HasLen, 1)
	unq, ok := sc.Words[1].Units[0].(*ast.Unquoted)
	c.Assert(ok, qt.IsTrue)
	param, ok := unq.Unit.(*ast.RawParam)
	c.Assert(ok, qt.IsTrue)
	c.Assert(param.Name, qt.Equals, "a")
}

// S4: if/elif/else/fi parses into an IfClause with one elif and one else.
func TestSeedIfElifElse(t *testing.T) {
	c := qt.New(t)
	list := parseString(c, "if true; then echo a; elif false; then echo b; else echo c; fi")
	c.Assert(list, qt.HasLen, 1)
	fcc, ok := list[0].AndOr.First.Commands[0].(*ast.FullCompoundCommand)
	c.Assert(ok, qt.IsTrue)
	ifc, ok := fcc.Command.(*ast.IfClause)
	c.Assert(ok, qt.IsTrue)
	c.Assert(ifc.Elifs, qt.HasLen, 1)
	c.Assert(ifc.Else, qt.Not(qt.IsNil))
}

// S6: "${#+?}" -> Param{name="#", modifier=Switch{type=Alter, cond=Unset, word="?"}}.
func TestSeedHashAlterModifier(t *testing.T) {
	c := qt.New(t)
	list := parseString(c, "echo ${#+?}")
	sc, ok := ast.AsSimpleCommand(list[0].AndOr.First.Commands[0])
	c.Assert(ok, qt.IsTrue)
	c.Assert(sc.Words, qt.HasLen, 2)
	unq, ok := sc.Words[1].Units[0].(*ast.Unquoted)
	c.Assert(ok, qt.IsTrue)
	bp, ok := unq.Unit.(*ast.BracedParam)
	c.Assert(ok, qt.IsTrue)
	c.Assert(bp.Param.Name, qt.Equals, "#")
	c.Assert(bp.Param.Modifier.Kind, qt.Equals, ast.ModSwitch)
	c.Assert(bp.Param.Modifier.SwitchType, qt.Equals, ast.SwAlter)
	c.Assert(bp.Param.Modifier.SwitchCond, qt.Equals, ast.CondUnset)
	c.Assert(bp.Param.Modifier.SwitchWord.String(), qt.Equals, "?")
}

// S7: "${#x+}" is a syntax error (length prefix cannot also carry a switch).
func TestSeedMultipleModifierIsSyntaxError(t *testing.T) {
	c := qt.New(t)
	lx := lexer.New(lexer.StringInput("echo ${#x+}"), source.CommandStringSource(), 1)
	p := New(lx, alias.New())
	_, err := p.Program()
	c.Assert(err, qt.Not(qt.IsNil))
}

func TestPipelineAndAndOr(t *testing.T) {
	c := qt.New(t)
	list := parseString(c, "a | b && c || d")
	c.Assert(list.String(), qt.Equals, "a | b && c || d")
}

func TestAsyncItem(t *testing.T) {
	c := qt.New(t)
	list := parseString(c, "sleep 1 &")
	c.Assert(list, qt.HasLen, 1)
	c.Assert(list[0].IsAsync, qt.IsTrue)
	c.Assert(list.String(), qt.Equals, "sleep 1 &")
}
