package parser

import (
	"strconv"
	"strings"

	"github.com/extsh/extsh/ast"
	"github.com/extsh/extsh/lexer"
	"github.com/extsh/extsh/shellerr"
	"github.com/extsh/extsh/source"
	"github.com/extsh/extsh/token"
)

// command dispatches on the next token to one of: a (possibly redirected)
// compound command, a function definition, or a simple command, per
// the "command" production.
func (p *Parser) command() (ast.Command, error) {
	tok, err := p.peek(true)
	if err != nil {
		return nil, err
	}

	if tok.Id.Kind == token.KindWord {
		switch tok.Id.Keyword {
		case token.KwLbrace, token.KwFor, token.KwWhile, token.KwUntil, token.KwIf, token.KwCase:
			return p.compoundCommandWithRedirs()
		case token.KwFunction:
			return p.functionDefinition()
		}
		if tok.Id.Keyword == token.NoKeyword {
			if fn, ok, err := p.tryBareFunctionDefinition(); err != nil {
				return nil, err
			} else if ok {
				return fn, nil
			}
		}
	}
	if tok.Id.Kind == token.KindOperator && tok.Id.Operator == token.Lparen {
		return p.compoundCommandWithRedirs()
	}
	return p.simpleCommand()
}

// tryBareFunctionDefinition looks three tokens ahead for NAME '(' ')'
// without consuming anything unless the whole pattern matches: a function
// definition written without the leading "function" keyword.
func (p *Parser) tryBareFunctionDefinition() (ast.Command, bool, error) {
	name, err := p.peek(true)
	if err != nil {
		return nil, false, err
	}
	if _, ok := lexer.WordLiteralName(name.Word); !ok {
		return nil, false, nil
	}
	lp, err := p.peekAt(1)
	if err != nil {
		return nil, false, err
	}
	if !p.isOperator(lp, token.Lparen) {
		return nil, false, nil
	}
	rp, err := p.peekAt(2)
	if err != nil {
		return nil, false, err
	}
	if !p.isOperator(rp, token.Rparen) {
		return nil, false, nil
	}
	p.advance() // name
	p.advance() // (
	p.advance() // )
	cmd, err := p.finishFunctionDefinition(name.Word, false, name.Loc)
	if err != nil {
		return nil, false, err
	}
	return cmd, true, nil
}

// functionDefinition parses a function definition introduced by the
// "function" keyword, whose trailing "()" is optional.
func (p *Parser) functionDefinition() (ast.Command, error) {
	kwLoc, err := p.expectKeyword(token.KwFunction)
	if err != nil {
		return nil, err
	}
	name, err := p.peek(true)
	if err != nil {
		return nil, err
	}
	if name.Id.Kind != token.KindWord {
		return nil, shellerr.SyntaxDetail(shellerr.UnexpectedToken, "function name", name.Loc)
	}
	p.advance()

	if lp, err := p.peek(false); err != nil {
		return nil, err
	} else if p.isOperator(lp, token.Lparen) {
		p.advance()
		if rp, err := p.peek(false); err != nil {
			return nil, err
		} else if !p.isOperator(rp, token.Rparen) {
			return nil, shellerr.SyntaxDetail(shellerr.UnexpectedToken, "')'", rp.Loc)
		} else {
			p.advance()
		}
	}
	return p.finishFunctionDefinition(name.Word, true, kwLoc)
}

// finishFunctionDefinition parses the compound command body shared by both
// function-definition shapes.
func (p *Parser) finishFunctionDefinition(name ast.Word, hasKeyword bool, loc source.Location) (ast.Command, error) {
	if err := p.skipLinebreak(true); err != nil {
		return nil, err
	}
	body, err := p.compoundCommandWithRedirs()
	if err != nil {
		return nil, err
	}
	full, ok := body.(*ast.FullCompoundCommand)
	if !ok {
		return nil, shellerr.Syntax(shellerr.UnexpectedToken, body.Location())
	}
	return &ast.FunctionDefinition{HasKeyword: hasKeyword, Name: name, Body: *full, Loc: loc}, nil
}

// compoundCommandWithRedirs parses one compound command shape plus any
// redirections that follow it (the compound_command production).
func (p *Parser) compoundCommandWithRedirs() (ast.Command, error) {
	cc, err := p.compoundCommand()
	if err != nil {
		return nil, err
	}
	redirs, err := p.redirections()
	if err != nil {
		return nil, err
	}
	return &ast.FullCompoundCommand{Command: cc, Redirs: redirs}, nil
}

func (p *Parser) compoundCommand() (ast.CompoundCommand, error) {
	tok, err := p.peek(true)
	if err != nil {
		return nil, err
	}
	switch {
	case tok.Id.Kind == token.KindOperator && tok.Id.Operator == token.Lparen:
		return p.subshell()
	case p.isKeyword(tok, token.KwLbrace):
		return p.grouping()
	case p.isKeyword(tok, token.KwFor):
		return p.forClause()
	case p.isKeyword(tok, token.KwWhile):
		return p.whileClause()
	case p.isKeyword(tok, token.KwUntil):
		return p.untilClause()
	case p.isKeyword(tok, token.KwIf):
		return p.ifClause()
	case p.isKeyword(tok, token.KwCase):
		return p.caseClause()
	default:
		return nil, shellerr.SyntaxDetail(shellerr.UnexpectedToken, "compound command", tok.Loc)
	}
}

func (p *Parser) subshell() (ast.CompoundCommand, error) {
	lp, err := p.expectOperator(token.Lparen)
	if err != nil {
		return nil, err
	}
	body, err := p.CompoundList()
	if err != nil {
		return nil, err
	}
	rp, err := p.expectOperator(token.Rparen)
	if err != nil {
		return nil, err
	}
	return &ast.Subshell{Body: body, Lparen: lp, Rparen: rp}, nil
}

func (p *Parser) grouping() (ast.CompoundCommand, error) {
	lb, err := p.expectKeyword(token.KwLbrace)
	if err != nil {
		return nil, err
	}
	body, err := p.CompoundList()
	if err != nil {
		return nil, err
	}
	rb, err := p.expectKeyword(token.KwRbrace)
	if err != nil {
		return nil, err
	}
	return &ast.Grouping{Body: body, Lbrace: lb, Rbrace: rb}, nil
}

func (p *Parser) forClause() (ast.CompoundCommand, error) {
	forLoc, err := p.expectKeyword(token.KwFor)
	if err != nil {
		return nil, err
	}
	nameTok, err := p.peek(true)
	if err != nil {
		return nil, err
	}
	name, ok := lexer.WordLiteralName(nameTok.Word)
	if nameTok.Id.Kind != token.KindWord || !ok || !validName(name) {
		return nil, shellerr.SyntaxDetail(shellerr.InvalidName, "for variable", nameTok.Loc)
	}
	p.advance()
	if err := p.skipLinebreak(true); err != nil {
		return nil, err
	}

	var values *[]ast.Word
	tok, err := p.peek(true)
	if err != nil {
		return nil, err
	}
	if p.isKeyword(tok, token.KwIn) {
		p.advance()
		var words []ast.Word
		for {
			wtok, err := p.peek(false)
			if err != nil {
				return nil, err
			}
			if wtok.Id.Kind != token.KindWord {
				break
			}
			words = append(words, wtok.Word)
			p.advance()
		}
		values = &words
	}
	if err := p.forSeparator(); err != nil {
		return nil, err
	}

	if _, err := p.expectKeyword(token.KwDo); err != nil {
		return nil, err
	}
	body, err := p.CompoundList()
	if err != nil {
		return nil, err
	}
	if _, err := p.expectKeyword(token.KwDone); err != nil {
		return nil, err
	}
	return &ast.ForClause{Name: name, Values: values, Body: body, For: forLoc}, nil
}

// forSeparator consumes the ';' or newline that ends the "in words" clause,
// or stands in for it when the clause was omitted entirely.
func (p *Parser) forSeparator() error {
	tok, err := p.peek(true)
	if err != nil {
		return err
	}
	if p.isOperator(tok, token.Semi) || p.isOperator(tok, token.Newline) {
		p.advance()
	}
	return p.skipLinebreak(true)
}

// validName rejects an empty spelling (WordLiteralName accepts it) and
// anything not matching POSIX "name" (letters/digits/underscore, not
// digit-led).
func validName(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		if i == 0 {
			if !lexer.IsPortableNameStart(r) {
				return false
			}
			continue
		}
		if !lexer.IsPortableNameCont(r) {
			return false
		}
	}
	return true
}

func (p *Parser) whileClause() (ast.CompoundCommand, error) {
	whileLoc, err := p.expectKeyword(token.KwWhile)
	if err != nil {
		return nil, err
	}
	cond, err := p.CompoundList()
	if err != nil {
		return nil, err
	}
	if _, err := p.expectKeyword(token.KwDo); err != nil {
		return nil, err
	}
	body, err := p.CompoundList()
	if err != nil {
		return nil, err
	}
	if _, err := p.expectKeyword(token.KwDone); err != nil {
		return nil, err
	}
	return &ast.WhileClause{Cond: cond, Body: body, While: whileLoc}, nil
}

func (p *Parser) untilClause() (ast.CompoundCommand, error) {
	untilLoc, err := p.expectKeyword(token.KwUntil)
	if err != nil {
		return nil, err
	}
	cond, err := p.CompoundList()
	if err != nil {
		return nil, err
	}
	if _, err := p.expectKeyword(token.KwDo); err != nil {
		return nil, err
	}
	body, err := p.CompoundList()
	if err != nil {
		return nil, err
	}
	if _, err := p.expectKeyword(token.KwDone); err != nil {
		return nil, err
	}
	return &ast.UntilClause{Cond: cond, Body: body, Until: untilLoc}, nil
}

func (p *Parser) ifClause() (ast.CompoundCommand, error) {
	ifLoc, err := p.expectKeyword(token.KwIf)
	if err != nil {
		return nil, err
	}
	cond, err := p.CompoundList()
	if err != nil {
		return nil, err
	}
	if _, err := p.expectKeyword(token.KwThen); err != nil {
		return nil, err
	}
	body, err := p.CompoundList()
	if err != nil {
		return nil, err
	}

	clause := &ast.IfClause{Cond: cond, Body: body, If: ifLoc}
	for {
		tok, err := p.peek(true)
		if err != nil {
			return nil, err
		}
		if !p.isKeyword(tok, token.KwElif) {
			break
		}
		p.advance()
		econd, err := p.CompoundList()
		if err != nil {
			return nil, err
		}
		if _, err := p.expectKeyword(token.KwThen); err != nil {
			return nil, err
		}
		ebody, err := p.CompoundList()
		if err != nil {
			return nil, err
		}
		clause.Elifs = append(clause.Elifs, ast.Elif{Cond: econd, Body: ebody})
	}

	tok, err := p.peek(true)
	if err != nil {
		return nil, err
	}
	if p.isKeyword(tok, token.KwElse) {
		p.advance()
		elseBody, err := p.CompoundList()
		if err != nil {
			return nil, err
		}
		clause.Else = &elseBody
	}

	if _, err := p.expectKeyword(token.KwFi); err != nil {
		return nil, err
	}
	return clause, nil
}

func (p *Parser) caseClause() (ast.CompoundCommand, error) {
	caseLoc, err := p.expectKeyword(token.KwCase)
	if err != nil {
		return nil, err
	}
	subjTok, err := p.peek(false)
	if err != nil {
		return nil, err
	}
	if subjTok.Id.Kind != token.KindWord {
		return nil, shellerr.SyntaxDetail(shellerr.UnexpectedToken, "case subject", subjTok.Loc)
	}
	subject := subjTok.Word
	p.advance()
	if err := p.skipLinebreak(true); err != nil {
		return nil, err
	}
	if _, err := p.expectKeyword(token.KwIn); err != nil {
		return nil, err
	}
	if err := p.skipLinebreak(true); err != nil {
		return nil, err
	}

	clause := &ast.CaseClause{Subject: subject, Case: caseLoc}
	for {
		tok, err := p.peek(true)
		if err != nil {
			return nil, err
		}
		if p.isKeyword(tok, token.KwEsac) {
			break
		}
		item, err := p.caseItem()
		if err != nil {
			return nil, err
		}
		clause.Items = append(clause.Items, item)
	}
	if _, err := p.expectKeyword(token.KwEsac); err != nil {
		return nil, err
	}
	return clause, nil
}

func (p *Parser) caseItem() (ast.CaseItem, error) {
	if tok, err := p.peek(false); err != nil {
		return ast.CaseItem{}, err
	} else if p.isOperator(tok, token.Lparen) {
		p.advance()
	}

	var patterns []ast.Word
	for {
		wtok, err := p.peek(false)
		if err != nil {
			return ast.CaseItem{}, err
		}
		if wtok.Id.Kind != token.KindWord {
			return ast.CaseItem{}, shellerr.SyntaxDetail(shellerr.UnexpectedToken, "case pattern", wtok.Loc)
		}
		patterns = append(patterns, wtok.Word)
		p.advance()
		tok, err := p.peek(false)
		if err != nil {
			return ast.CaseItem{}, err
		}
		if p.isOperator(tok, token.Pipe) {
			p.advance()
			continue
		}
		break
	}

	if _, err := p.expectOperator(token.Rparen); err != nil {
		return ast.CaseItem{}, err
	}
	if err := p.skipLinebreak(true); err != nil {
		return ast.CaseItem{}, err
	}

	var body ast.List
	tok, err := p.peek(true)
	if err != nil {
		return ast.CaseItem{}, err
	}
	if !p.isOperator(tok, token.DSemi) && !p.isKeyword(tok, token.KwEsac) {
		body, err = p.CompoundList()
		if err != nil {
			return ast.CaseItem{}, err
		}
	}

	tok, err = p.peek(false)
	if err != nil {
		return ast.CaseItem{}, err
	}
	if p.isOperator(tok, token.DSemi) {
		p.advance()
	}
	if err := p.skipLinebreak(true); err != nil {
		return ast.CaseItem{}, err
	}
	return ast.CaseItem{Patterns: patterns, Body: body}, nil
}

// simpleCommand parses assignments, words and redirections in any relative
// order (the simple_command production): assignments are only
// recognised in the prefix, before the first non-assignment word.
func (p *Parser) simpleCommand() (ast.Command, error) {
	sc := &ast.SimpleCommand{}
	haveLoc := false
	var loc source.Location
	noteLoc := func(l source.Location) {
		if !haveLoc {
			loc, haveLoc = l, true
		}
	}

	seenWord := false
	for {
		tok, err := p.peek(!seenWord)
		if err != nil {
			return nil, err
		}

		if tok.Id.Kind == token.KindIoNumber || looksLikeRedirOperator(tok) {
			r, err := p.redirection()
			if err != nil {
				return nil, err
			}
			noteLoc(r.Loc)
			sc.Redirs = append(sc.Redirs, r)
			continue
		}
		if tok.Id.Kind != token.KindWord {
			break
		}
		if !seenWord {
			if name, rest, ok := splitAssignment(tok.Word); ok {
				noteLoc(tok.Loc)
				p.advance()
				value, err := p.assignValue(rest, tok.Loc)
				if err != nil {
					return nil, err
				}
				sc.Assigns = append(sc.Assigns, &ast.Assign{Name: name, Value: value, Loc: tok.Loc})
				continue
			}
		}
		seenWord = true
		noteLoc(tok.Loc)
		sc.Words = append(sc.Words, tok.Word)
		p.advance()
	}

	if len(sc.Assigns) == 0 && len(sc.Words) == 0 && len(sc.Redirs) == 0 {
		tok, _ := p.peek(false)
		return nil, shellerr.SyntaxDetail(shellerr.UnexpectedToken, "command", tok.Loc)
	}
	return ast.NewSimpleCommandNode(sc, loc), nil
}

// assignValue builds the Scalar or Array value of an assignment whose
// "name=" prefix has already been consumed. rest is whatever word units
// followed the '=' in the same token; an empty rest with a following
// unquoted '(' operator is an array literal instead of an empty scalar.
func (p *Parser) assignValue(rest []ast.WordUnit, assignLoc source.Location) (ast.AssignValue, error) {
	if len(rest) == 0 {
		tok, err := p.peek(false)
		if err != nil {
			return nil, err
		}
		if p.isOperator(tok, token.Lparen) {
			p.advance()
			words, err := p.arrayLiteral()
			if err != nil {
				return nil, err
			}
			return ast.ArrayValue{Words: words}, nil
		}
		return ast.ScalarValue{Word: ast.Word{Loc: assignLoc}}, nil
	}
	return ast.ScalarValue{Word: ast.Word{Units: rest, Loc: wordUnitsSpan(rest, assignLoc)}}, nil
}

// arrayLiteral parses the words of "(word*)" after the '(' has already been
// consumed, following the array-literal assignment parsing rule.
func (p *Parser) arrayLiteral() ([]ast.Word, error) {
	var words []ast.Word
	for {
		if err := p.skipLinebreak(false); err != nil {
			return nil, err
		}
		tok, err := p.peek(false)
		if err != nil {
			return nil, err
		}
		if p.isOperator(tok, token.Rparen) {
			p.advance()
			return words, nil
		}
		if tok.Id.Kind != token.KindWord {
			return nil, shellerr.SyntaxDetail(shellerr.UnexpectedToken, "array element", tok.Loc)
		}
		words = append(words, tok.Word)
		p.advance()
	}
}

// wordUnitsSpan combines the Locations of a run of WordUnits sharing one
// Code buffer, falling back to fallback when the run is empty.
func wordUnitsSpan(units []ast.WordUnit, fallback source.Location) source.Location {
	if len(units) == 0 {
		return fallback
	}
	first := units[0].Location()
	last := units[len(units)-1].Location()
	return first.Code.LocationRange(first.Range.Start, last.Range.End)
}

// splitAssignment reports whether w has the shape "name=..." with an
// unquoted, portable-name prefix before the first literal '=' (an
// assignment word), returning the name and whatever word units follow
// the '='.
func splitAssignment(w ast.Word) (string, []ast.WordUnit, bool) {
	var nameRunes []rune
	i := 0
	for ; i < len(w.Units); i++ {
		uq, ok := w.Units[i].(*ast.Unquoted)
		if !ok {
			return "", nil, false
		}
		lit, ok := uq.Unit.(*ast.Literal)
		if !ok {
			return "", nil, false
		}
		if lit.Char == '=' {
			break
		}
		if len(nameRunes) == 0 {
			if !lexer.IsPortableNameStart(lit.Char) {
				return "", nil, false
			}
		} else if !lexer.IsPortableNameCont(lit.Char) {
			return "", nil, false
		}
		nameRunes = append(nameRunes, lit.Char)
	}
	if i == len(w.Units) || len(nameRunes) == 0 {
		return "", nil, false
	}
	return string(nameRunes), w.Units[i+1:], true
}

// ---- Redirections ----

// pendingHereDoc pairs a queued here-doc with the ast.HereDoc node whose
// Content field gets filled in once the body is drained.
type pendingHereDoc struct {
	partial *lexer.PartialHereDoc
	node    *ast.HereDoc
}

func looksLikeRedirOperator(tok lexer.Token) bool {
	if tok.Id.Kind != token.KindOperator {
		return false
	}
	switch tok.Id.Operator {
	case token.Less, token.Great, token.DLess, token.DLessDash, token.DGreat,
		token.LessAnd, token.GreatAnd, token.LessGreat, token.Clobber,
		token.AppGreatOr, token.TLess:
		return true
	default:
		return false
	}
}

func (p *Parser) redirections() ([]*ast.Redir, error) {
	var redirs []*ast.Redir
	for {
		tok, err := p.peek(false)
		if err != nil {
			return nil, err
		}
		if tok.Id.Kind != token.KindIoNumber && !looksLikeRedirOperator(tok) {
			return redirs, nil
		}
		r, err := p.redirection()
		if err != nil {
			return nil, err
		}
		redirs = append(redirs, r)
	}
}

// redirection parses one redirection (the Redirection production):
// an optional leading io-number, a redirection operator, and either a word
// operand or (for << / <<-) a here-document delimiter whose body is queued
// for deferred draining.
func (p *Parser) redirection() (*ast.Redir, error) {
	var fd *int
	tok, err := p.peek(false)
	if err != nil {
		return nil, err
	}
	loc := tok.Loc

	if tok.Id.Kind == token.KindIoNumber {
		name, _ := lexer.WordLiteralName(tok.Word)
		n, convErr := strconv.Atoi(name)
		if convErr != nil {
			return nil, shellerr.SyntaxDetail(shellerr.UnexpectedToken, "io-number", tok.Loc)
		}
		fd = &n
		p.advance()
		tok, err = p.peek(false)
		if err != nil {
			return nil, err
		}
	}

	if tok.Id.Kind != token.KindOperator {
		return nil, shellerr.SyntaxDetail(shellerr.UnexpectedToken, "redirection operator", tok.Loc)
	}
	op := tok.Id.Operator
	p.advance()

	if op == token.DLess || op == token.DLessDash {
		delimTok, err := p.peek(false)
		if err != nil {
			return nil, err
		}
		if delimTok.Id.Kind != token.KindWord {
			return nil, shellerr.Syntax(shellerr.MissingHereDocDelimiter, delimTok.Loc)
		}
		p.advance()

		text, quoted := hereDocDelimiterText(delimTok.Word)
		removeTabs := op == token.DLessDash
		partial := p.lx.QueueHereDoc(text, removeTabs, quoted)
		hd := &ast.HereDoc{Delimiter: delimTok.Word, RemoveTabs: removeTabs, Quoted: quoted}
		p.pendingHereDocs = append(p.pendingHereDocs, pendingHereDoc{partial: partial, node: hd})
		return &ast.Redir{Fd: fd, Body: hd, Loc: loc}, nil
	}

	redirOp, ok := redirOpFor(op)
	if !ok {
		return nil, shellerr.Syntax(shellerr.UnexpectedToken, tok.Loc)
	}
	operandTok, err := p.peek(false)
	if err != nil {
		return nil, err
	}
	if operandTok.Id.Kind != token.KindWord {
		return nil, shellerr.SyntaxDetail(shellerr.UnexpectedToken, "redirection target", operandTok.Loc)
	}
	p.advance()
	return &ast.Redir{Fd: fd, Body: ast.NormalRedir{Op: redirOp, Operand: operandTok.Word}, Loc: loc}, nil
}

func redirOpFor(op token.Operator) (ast.RedirOp, bool) {
	switch op {
	case token.Less:
		return ast.FileIn, true
	case token.Great:
		return ast.FileOut, true
	case token.DGreat, token.AppGreatOr:
		return ast.FileAppend, true
	case token.Clobber:
		return ast.FileClobber, true
	case token.LessGreat:
		return ast.FileInOut, true
	case token.LessAnd:
		return ast.FdIn, true
	case token.GreatAnd:
		return ast.FdOut, true
	case token.TLess:
		return ast.RedirString, true
	default:
		return 0, false
	}
}

// hereDocDelimiterText extracts the delimiter's literal spelling along with
// whether it was quoted in any way (single/double quotes or a backslash
// escape), which disables expansion of the body.
func hereDocDelimiterText(w ast.Word) (string, bool) {
	var b strings.Builder
	quoted := false
	for _, u := range w.Units {
		switch uu := u.(type) {
		case *ast.Unquoted:
			switch t := uu.Unit.(type) {
			case *ast.Literal:
				b.WriteRune(t.Char)
			case *ast.Backslashed:
				quoted = true
				b.WriteRune(t.Char)
			default:
				quoted = true
			}
		case *ast.SingleQuote:
			quoted = true
			b.WriteString(uu.Value)
		case *ast.DoubleQuote:
			quoted = true
			for _, t := range uu.Content {
				switch lt := t.(type) {
				case *ast.Literal:
					b.WriteRune(lt.Char)
				case *ast.Backslashed:
					b.WriteRune(lt.Char)
				}
			}
		}
	}
	return b.String(), quoted
}

// resolvePendingHereDocs fills in the Content of every here-doc queued
// since the last resolution, called the moment a Newline token has been
// pulled from the lexer (so DrainHereDocs has already run). An undrained
// heredoc (input ended before its delimiter line) is reported here as
// MissingHereDocContent.
func (p *Parser) resolvePendingHereDocs() error {
	pending := p.pendingHereDocs
	p.pendingHereDocs = nil
	for _, ph := range pending {
		if !ph.partial.Closed {
			return shellerr.Syntax(shellerr.MissingHereDocContent, ph.node.Delimiter.Loc)
		}
		if ph.node.Quoted {
			ph.node.Content = rawHereDocContent(ph.partial, ph.node.Delimiter.Loc)
			continue
		}
		content, err := lexer.ExpandHereDocContent(ph.partial, ph.node.Delimiter.Loc)
		if err != nil {
			return err
		}
		ph.node.Content = content
	}
	return nil
}

// rawHereDocContent renders a quoted-delimiter here-doc's lines verbatim,
// with no expansion, annotated against the delimiter's own Location since
// per-character positions inside the body were not retained.
func rawHereDocContent(h *lexer.PartialHereDoc, loc source.Location) ast.Text {
	body := strings.Join(h.Lines, "\n")
	if len(h.Lines) > 0 {
		body += "\n"
	}
	content := make(ast.Text, 0, len(body))
	for _, r := range body {
		content = append(content, &ast.Literal{Char: r, Loc: loc})
	}
	return content
}
