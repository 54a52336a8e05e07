package lexer

import (
	"github.com/extsh/extsh/ast"
	"github.com/extsh/extsh/shellerr"
	"github.com/extsh/extsh/token"
)

// Operator attempts to recognise one of the multi-character shell
// operators via the trie in the token package. Line continuations are
// folded away implicitly, since Peek already handles that transparently.
// On success it returns the Word whose units are the operator's own
// characters, annotated with their original Locations, and the matched
// Operator.
func (lx *Lexer) Operator() (ast.Word, token.Operator, error) {
	start := lx.Index()
	node := token.OperatorTrie

	bestOp := token.Operator(0)
	bestEnd := start
	haveBest := false

	cur := start
	for {
		c, err := lx.Peek()
		if err != nil {
			if shellerr.IsEndOfInput(err) {
				break
			}
			lx.Rewind(start)
			return ast.Word{}, 0, err
		}
		if c.Value > 127 {
			break
		}
		child := node.Step(byte(c.Value))
		if child == nil {
			break
		}
		lx.Consume()
		cur = lx.Index()
		node = child
		if op, ok := node.IsOperator(); ok {
			bestOp, bestEnd, haveBest = op, cur, true
		}
	}
	if !haveBest {
		lx.Rewind(start)
		return ast.Word{}, 0, shellerr.Unknown(lx.SpanLocation(start, start))
	}
	lx.Rewind(bestEnd)

	loc := lx.SpanLocation(start, bestEnd)
	units := make([]ast.WordUnit, 0, bestEnd-start)
	for i := start; i < bestEnd; i++ {
		c := lx.buf[i]
		units = append(units, &ast.Unquoted{Unit: &ast.Literal{Char: c.Value, Loc: c.Location}})
	}
	return ast.Word{Units: units, Loc: loc}, bestOp, nil
}
