// Package parser implements recursive-descent parsing of the token stream
// into the AST. It has no error recovery; on a syntax error the caller is
// expected to call Lexer.Reset and retry (interactive use) or give up
// (non-interactive use).
package parser

import (
	"github.com/extsh/extsh/alias"
	"github.com/extsh/extsh/ast"
	"github.com/extsh/extsh/lexer"
	"github.com/extsh/extsh/shellerr"
	"github.com/extsh/extsh/source"
	"github.com/extsh/extsh/token"
)

func init() {
	lexer.ParseProgramHook = func(lx *lexer.Lexer) (ast.List, error) {
		p := &Parser{lx: lx}
		return p.CompoundList()
	}
}

// Parser walks a Lexer's token stream through a small lookahead queue: one
// token normally, up to three while disambiguating a function definition
// that omits the "function" keyword (NAME '(' ')' ...).
type Parser struct {
	lx    *lexer.Lexer
	queue []lexer.Token

	// pendingHereDocs holds here-docs queued by redirection() whose body is
	// still undrained. It is resolved the moment a Newline token is pulled
	// from the lexer, since DrainHereDocs has already run by then (NextToken
	// calls it synchronously before returning that token).
	pendingHereDocs []pendingHereDoc
}

// New creates a Parser over lx. aliases, if non-nil, is installed on lx so
// word tokens in command position are eligible for alias substitution.
func New(lx *lexer.Lexer, aliases *alias.Table) *Parser {
	lx.Aliases = aliases
	return &Parser{lx: lx}
}

// ensure grows the queue so index n is populated. Only the very first token
// fetched into an empty queue honors firstAllowAlias — by the time a second
// or third token is requested the first is already cached, so
// firstAllowAlias governs nothing beyond it (later tokens in a lookahead
// run are always operators in this grammar, never alias-eligible words).
func (p *Parser) ensure(n int, firstAllowAlias bool) error {
	for len(p.queue) <= n {
		aa := false
		if len(p.queue) == 0 {
			aa = firstAllowAlias
		}
		tok, err := p.lx.NextToken(aa)
		if err != nil {
			return err
		}
		p.queue = append(p.queue, tok)
		if p.isOperator(tok, token.Newline) && len(p.pendingHereDocs) > 0 {
			if err := p.resolvePendingHereDocs(); err != nil {
				return err
			}
		}
	}
	return nil
}

// peek returns the next token, fetching it (and deciding its alias
// eligibility) only once: once a token has been looked at, it is cached
// and every later peek call — regardless of the allowAlias it passes —
// returns the same cached token, since the underlying characters have
// already been consumed from the Lexer. allowAlias therefore only takes
// effect the first time a given token position is peeked.
func (p *Parser) peek(allowAlias bool) (lexer.Token, error) {
	if err := p.ensure(0, allowAlias); err != nil {
		return lexer.Token{}, err
	}
	return p.queue[0], nil
}

// peekAt looks n tokens beyond the current one (1 = the token after next)
// without consuming anything, for the NAME '(' ')' function-definition
// lookahead.
func (p *Parser) peekAt(n int) (lexer.Token, error) {
	if err := p.ensure(n, true); err != nil {
		return lexer.Token{}, err
	}
	return p.queue[n], nil
}

func (p *Parser) advance() {
	if len(p.queue) > 0 {
		p.queue = p.queue[1:]
	}
}

func (p *Parser) isOperator(tok lexer.Token, op token.Operator) bool {
	return tok.Id.Kind == token.KindOperator && tok.Id.Operator == op
}

func (p *Parser) isKeyword(tok lexer.Token, kw token.Keyword) bool {
	return tok.Id.Kind == token.KindWord && tok.Id.Keyword == kw
}

func (p *Parser) expectOperator(op token.Operator) (source.Location, error) {
	tok, err := p.peek(false)
	if err != nil {
		return source.Location{}, err
	}
	if !p.isOperator(tok, op) {
		return source.Location{}, shellerr.SyntaxDetail(shellerr.UnexpectedToken, op.String(), tok.Loc)
	}
	p.advance()
	return tok.Loc, nil
}

func (p *Parser) expectKeyword(kw token.Keyword) (source.Location, error) {
	tok, err := p.peek(true)
	if err != nil {
		return source.Location{}, err
	}
	if !p.isKeyword(tok, kw) {
		return source.Location{}, shellerr.SyntaxDetail(shellerr.UnexpectedToken, kw.String(), tok.Loc)
	}
	p.advance()
	return tok.Loc, nil
}

// skipLinebreak consumes any run of newline tokens (the grammar's
// "linebreak": newlines are insignificant between most productions).
// allowAlias is forwarded to the peek that discovers the first non-newline
// token, since that peek is the one that fixes that token's identity.
func (p *Parser) skipLinebreak(allowAlias bool) error {
	for {
		tok, err := p.peek(allowAlias)
		if err != nil {
			return err
		}
		if !p.isOperator(tok, token.Newline) {
			return nil
		}
		p.advance()
	}
}

// atEnd reports whether the next token is end-of-input.
func (p *Parser) atEnd() (bool, error) {
	tok, err := p.peek(false)
	if err != nil {
		return false, err
	}
	return tok.Id.Kind == token.KindEndOfInput, nil
}

// Program parses a whole top-level List.
func (p *Parser) Program() (ast.List, error) {
	if err := p.skipLinebreak(true); err != nil {
		return nil, err
	}
	if done, err := p.atEnd(); err != nil {
		return nil, err
	} else if done {
		return ast.List{}, nil
	}
	list, err := p.CompoundList()
	if err == nil && len(p.pendingHereDocs) > 0 {
		// Input ended before the newline that drains these bodies.
		err = p.resolvePendingHereDocs()
	}
	if err != nil {
		return nil, err
	}
	return list, nil
}

// CompoundList parses a list of Items up to a point where the grammar
// expects a closing keyword or end-of-input (the compound_list production).
func (p *Parser) CompoundList() (ast.List, error) {
	var list ast.List
	for {
		if err := p.skipLinebreak(true); err != nil {
			return nil, err
		}
		tok, err := p.peek(true)
		if err != nil {
			return nil, err
		}
		if tok.Id.Kind == token.KindEndOfInput || isListTerminatorKeyword(tok) {
			return list, nil
		}
		if tok.Id.Kind == token.KindOperator && tok.Id.Operator == token.Rparen {
			return list, nil
		}
		item, more, err := p.item()
		if err != nil {
			return nil, err
		}
		list = append(list, item)
		if !more {
			return list, nil
		}
	}
}

func isListTerminatorKeyword(tok lexer.Token) bool {
	if tok.Id.Kind != token.KindWord {
		return false
	}
	switch tok.Id.Keyword {
	case token.KwThen, token.KwElif, token.KwElse, token.KwFi,
		token.KwDo, token.KwDone, token.KwEsac, token.KwRbrace:
		return true
	default:
		return false
	}
}

// item parses one Item (an and-or list plus its trailing separator). The
// bool result reports whether the caller should keep parsing further items
// (false when the list closed on a bare newline/EOF/closing keyword with no
// separator, i.e. this was the last item of the enclosing list).
func (p *Parser) item() (ast.Item, bool, error) {
	andOr, err := p.andOrList()
	if err != nil {
		return ast.Item{}, false, err
	}
	tok, err := p.peek(false)
	if err != nil {
		return ast.Item{}, false, err
	}
	switch {
	case p.isOperator(tok, token.Amp):
		p.advance()
		return ast.Item{AndOr: andOr, IsAsync: true}, true, nil
	case p.isOperator(tok, token.Semi):
		p.advance()
		return ast.Item{AndOr: andOr}, true, nil
	case p.isOperator(tok, token.Newline):
		p.advance()
		return ast.Item{AndOr: andOr}, true, nil
	default:
		// No separator: this item ends the list (e.g. "fi" or EOF follows).
		return ast.Item{AndOr: andOr}, false, nil
	}
}

func (p *Parser) andOrList() (ast.AndOrList, error) {
	first, err := p.pipeline()
	if err != nil {
		return ast.AndOrList{}, err
	}
	list := ast.AndOrList{First: first}
	for {
		tok, err := p.peek(false)
		if err != nil {
			return ast.AndOrList{}, err
		}
		var op ast.AndOrOp
		switch {
		case p.isOperator(tok, token.AndIf):
			op = ast.AndThen
		case p.isOperator(tok, token.OrIf):
			op = ast.OrElse
		default:
			return list, nil
		}
		p.advance()
		if err := p.skipLinebreak(true); err != nil {
			return ast.AndOrList{}, err
		}
		next, err := p.pipeline()
		if err != nil {
			return ast.AndOrList{}, err
		}
		list.Rest = append(list.Rest, ast.AndOrRest{Op: op, Pipeline: next})
	}
}

func (p *Parser) pipeline() (ast.Pipeline, error) {
	negate := false
	tok, err := p.peek(true)
	if err != nil {
		return ast.Pipeline{}, err
	}
	if p.isKeyword(tok, token.KwBang) {
		negate = true
		p.advance()
	}
	first, err := p.command()
	if err != nil {
		return ast.Pipeline{}, err
	}
	commands := []ast.Command{first}
	for {
		tok, err := p.peek(false)
		if err != nil {
			return ast.Pipeline{}, err
		}
		if !p.isOperator(tok, token.Pipe) {
			break
		}
		p.advance()
		if err := p.skipLinebreak(true); err != nil {
			return ast.Pipeline{}, err
		}
		next, err := p.command()
		if err != nil {
			return ast.Pipeline{}, err
		}
		commands = append(commands, next)
	}
	return ast.Pipeline{Commands: commands, Negation: negate}, nil
}
