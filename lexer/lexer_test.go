package lexer

import (
	"testing"

	qt "github.com/frankban/quicktest"

	"github.com/extsh/extsh/source"
	"github.com/extsh/extsh/token"
)

func newLexer(c *qt.C, s string) *Lexer {
	return New(StringInput(s), source.CommandStringSource(), 1)
}

func TestNextTokenWordsAndOperators(t *testing.T) {
	c := qt.New(t)
	lx := newLexer(c, "echo hi | cat\n")

	tok, err := lx.NextToken(true)
	c.Assert(err, qt.IsNil)
	c.Assert(tok.Id.Kind, qt.Equals, token.KindWord)
	c.Assert(tok.Word.String(), qt.Equals, "echo")

	tok, err = lx.NextToken(false)
	c.Assert(err, qt.IsNil)
	c.Assert(tok.Word.String(), qt.Equals, "hi")

	tok, err = lx.NextToken(false)
	c.Assert(err, qt.IsNil)
	c.Assert(tok.Id.Kind, qt.Equals, token.KindOperator)
	c.Assert(tok.Id.Operator, qt.Equals, token.Pipe)

	tok, err = lx.NextToken(true)
	c.Assert(err, qt.IsNil)
	c.Assert(tok.Word.String(), qt.Equals, "cat")

	tok, err = lx.NextToken(false)
	c.Assert(err, qt.IsNil)
	c.Assert(tok.Id.Kind, qt.Equals, token.KindOperator)
	c.Assert(tok.Id.Operator, qt.Equals, token.Newline)

	tok, err = lx.NextToken(false)
	c.Assert(err, qt.IsNil)
	c.Assert(tok.Id.Kind, qt.Equals, token.KindEndOfInput)
}

func TestNextTokenSkipsCommentsAndBlanks(t *testing.T) {
	c := qt.New(t)
	lx := newLexer(c, "  echo hi   # a trailing comment\n")

	tok, err := lx.NextToken(true)
	c.Assert(err, qt.IsNil)
	c.Assert(tok.Word.String(), qt.Equals, "echo")

	tok, err = lx.NextToken(false)
	c.Assert(err, qt.IsNil)
	c.Assert(tok.Word.String(), qt.Equals, "hi")

	tok, err = lx.NextToken(false)
	c.Assert(err, qt.IsNil)
	c.Assert(tok.Id.Kind, qt.Equals, token.KindOperator)
	c.Assert(tok.Id.Operator, qt.Equals, token.Newline)
}

func TestIoNumberBeforeRedirection(t *testing.T) {
	c := qt.New(t)
	lx := newLexer(c, "2> file\n")

	tok, err := lx.NextToken(true)
	c.Assert(err, qt.IsNil)
	c.Assert(tok.Id.Kind, qt.Equals, token.KindIoNumber)
	c.Assert(tok.Word.String(), qt.Equals, "2")

	tok, err = lx.NextToken(false)
	c.Assert(err, qt.IsNil)
	c.Assert(tok.Id.Kind, qt.Equals, token.KindOperator)
	c.Assert(tok.Id.Operator, qt.Equals, token.Great)
}

func TestDigitsNotFollowedByRedirAreAWord(t *testing.T) {
	c := qt.New(t)
	lx := newLexer(c, "2 file\n")

	tok, err := lx.NextToken(true)
	c.Assert(err, qt.IsNil)
	c.Assert(tok.Id.Kind, qt.Equals, token.KindWord)
	c.Assert(tok.Word.String(), qt.Equals, "2")
}

// Open Question decision #2: a line continuation between the io-number's
// digits and the redirection operator doesn't defeat recognition, because
// continuation-folding already happens transparently inside Peek/Consume and
// tryIoNumber is written purely in terms of those.
func TestIoNumberAcrossContinuation(t *testing.T) {
	c := qt.New(t)
	lx := newLexer(c, "2\\\n> file\n")

	tok, err := lx.NextToken(true)
	c.Assert(err, qt.IsNil)
	c.Assert(tok.Id.Kind, qt.Equals, token.KindIoNumber)
	c.Assert(tok.Word.String(), qt.Equals, "2")

	tok, err = lx.NextToken(false)
	c.Assert(err, qt.IsNil)
	c.Assert(tok.Id.Kind, qt.Equals, token.KindOperator)
	c.Assert(tok.Id.Operator, qt.Equals, token.Great)
}

func TestOperatorMaximalMunch(t *testing.T) {
	c := qt.New(t)
	lx := newLexer(c, "a<<-b\n")

	tok, err := lx.NextToken(true)
	c.Assert(err, qt.IsNil)
	c.Assert(tok.Word.String(), qt.Equals, "a")

	tok, err = lx.NextToken(false)
	c.Assert(err, qt.IsNil)
	c.Assert(tok.Id.Kind, qt.Equals, token.KindOperator)
	c.Assert(tok.Id.Operator, qt.Equals, token.DLessDash)
}
