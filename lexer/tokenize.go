package lexer

import (
	"unicode"

	"github.com/extsh/extsh/alias"
	"github.com/extsh/extsh/ast"
	"github.com/extsh/extsh/shellerr"
	"github.com/extsh/extsh/source"
	"github.com/extsh/extsh/token"
)

// Token is one lexical item: a word (possibly a reserved word), an
// operator, an io-number, or end-of-input (the TokenId sum type).
type Token struct {
	Id  token.Id
	Word ast.Word // meaningful when Id.Kind == token.KindWord or KindIoNumber
	Loc source.Location
}

func (lx *Lexer) skipBlanksAndComments() error {
	for {
		_, consumed, err := lx.ConsumeCharIf(IsShellBlank)
		if err != nil {
			return err
		}
		if consumed {
			continue
		}
		c, err := lx.Peek()
		if err != nil {
			if shellerr.IsEndOfInput(err) {
				return nil
			}
			return err
		}
		if c.Value != '#' {
			return nil
		}
		for {
			c2, err := lx.Peek()
			if err != nil {
				if shellerr.IsEndOfInput(err) {
					return nil
				}
				return err
			}
			if c2.Value == '\n' {
				break
			}
			lx.Consume()
		}
	}
}

func (lx *Lexer) tryIoNumber() (ast.Word, bool, error) {
	start := lx.Index()
	for {
		c, err := lx.Peek()
		if err != nil {
			if shellerr.IsEndOfInput(err) {
				break
			}
			return ast.Word{}, false, err
		}
		if !unicode.IsDigit(c.Value) {
			break
		}
		lx.Consume()
	}
	digitsEnd := lx.Index()
	if digitsEnd == start {
		return ast.Word{}, false, nil
	}
	c, err := lx.Peek()
	if err != nil {
		if shellerr.IsEndOfInput(err) {
			lx.Rewind(start)
			return ast.Word{}, false, nil
		}
		return ast.Word{}, false, err
	}
	if c.Value != '<' && c.Value != '>' {
		lx.Rewind(start)
		return ast.Word{}, false, nil
	}
	loc := lx.SpanLocation(start, digitsEnd)
	units := make([]ast.WordUnit, 0, digitsEnd-start)
	for i := start; i < digitsEnd; i++ {
		ch := lx.buf[i]
		units = append(units, &ast.Unquoted{Unit: &ast.Literal{Char: ch.Value, Loc: ch.Location}})
	}
	return ast.Word{Units: units, Loc: loc}, true, nil
}

// WordLiteralName exports wordLiteralName for the parser's use in contexts
// that need a plain spelling too: a for-loop variable, a case subject
// keyword check, an io-number's digit run.
func WordLiteralName(w ast.Word) (string, bool) { return wordLiteralName(w) }

// wordLiteralName reports the word's spelling when it consists entirely of
// unquoted literal characters (no quoting, no expansion), the only shape
// that can match a reserved word or an alias name.
func wordLiteralName(w ast.Word) (string, bool) {
	var b []rune
	for _, u := range w.Units {
		uq, ok := u.(*ast.Unquoted)
		if !ok {
			return "", false
		}
		lit, ok := uq.Unit.(*ast.Literal)
		if !ok {
			return "", false
		}
		b = append(b, lit.Char)
	}
	return string(b), true
}

// NextToken recognises the next Token. allowAlias tells
// it whether the position about to be scanned is a "command word" position
// (the parser's call); a position reached right after a substituted alias
// whose replacement text ends in a blank is always alias-eligible too
// (alias.IsAfterBlankEndingAlias), regardless of allowAlias. Alias lookups
// consult lx.Aliases, shared with any sub-lexer entered for command or
// backquote substitution.
func (lx *Lexer) NextToken(allowAlias bool) (Token, error) {
	aliases := lx.Aliases
	for {
		if err := lx.skipBlanksAndComments(); err != nil {
			return Token{}, err
		}
		start := lx.Index()
		c, err := lx.Peek()
		if err != nil {
			if shellerr.IsEndOfInput(err) {
				return Token{Id: token.EndOfInputId(), Loc: lx.eofLocation()}, nil
			}
			return Token{}, err
		}

		if c.Value == '\n' {
			lx.Consume()
			loc := lx.SpanLocation(start, lx.Index())
			if err := lx.DrainHereDocs(); err != nil {
				return Token{}, err
			}
			return Token{Id: token.OperatorId(token.Newline), Loc: loc}, nil
		}

		if unicode.IsDigit(c.Value) {
			if num, ok, err := lx.tryIoNumber(); err != nil {
				return Token{}, err
			} else if ok {
				return Token{Id: token.IoNumberId(), Word: num, Loc: num.Loc}, nil
			}
		}

		if w, op, err := lx.Operator(); err == nil {
			return Token{Id: token.OperatorId(op), Word: w, Loc: w.Loc}, nil
		} else if !shellerr.IsUnknown(err) {
			return Token{}, err
		}

		tryAlias := allowAlias
		if aliases != nil && !tryAlias {
			tryAlias = alias.IsAfterBlankEndingAlias(lx.buf, start, IsShellBlank)
		}

		w, err := lx.Word(ContextWord, DefaultWordDelim)
		if err != nil {
			return Token{}, err
		}

		if aliases != nil && tryAlias {
			if name, ok := wordLiteralName(w); ok {
				if a, eligible := aliases.Eligible(name, w.Loc); eligible {
					lx.SubstituteAlias(start, a)
					continue
				}
			}
		}

		kw := token.NoKeyword
		if name, ok := wordLiteralName(w); ok {
			kw = token.LookupKeyword(name)
		}
		return Token{Id: token.WordId(kw), Word: w, Loc: w.Loc}, nil
	}
}
