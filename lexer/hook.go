package lexer

import (
	"github.com/extsh/extsh/ast"
	"github.com/extsh/extsh/shellerr"
)

// ParseProgramHook lets command/backquote substitution re-enter the grammar
// (a full compound list) without the lexer package importing the parser
// package, which imports the lexer. The parser package installs this in an
// init() function; the lexer merely calls it back.
var ParseProgramHook func(lx *Lexer) (ast.List, error)

// Program parses a compound list starting at the Lexer's current position,
// via the installed ParseProgramHook. It is what $(...) and `...` call to
// recursively re-enter the grammar for their body.
func (lx *Lexer) Program() (ast.List, error) {
	if ParseProgramHook == nil {
		return nil, shellerr.New(shellerr.UnknownCause{}, lx.eofLocation())
	}
	return ParseProgramHook(lx)
}

// InnerProgram is Program, named for the $(...) production
// ("inner_program"): parse a compound list, leaving the closing ')'
// for the caller to consume.
func (lx *Lexer) InnerProgram() (ast.List, error) {
	return lx.Program()
}
