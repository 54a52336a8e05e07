package lexer

import (
	"strings"
	"unicode"

	"github.com/extsh/extsh/ast"
	"github.com/extsh/extsh/shellerr"
	"github.com/extsh/extsh/source"
)

// Context selects how quotes and backslashes behave while parsing a word:
// Word context allows single quotes and \<any>; Text context (inside
// "...") treats single quotes as literal and limits backslash escaping to
// $, `, ", \ and the current delimiter.
type Context int

const (
	ContextWord Context = iota
	ContextText
)

// DelimPredicate decides when an unquoted character terminates a word.
type DelimPredicate func(rune) bool

// IsShellBlank is the ASCII-only blank classifier this module uses
// everywhere a "word delimiter" needs to recognise whitespace (ASCII
// Non-goals excludes locale handling beyond ASCII).
func IsShellBlank(r rune) bool { return r == ' ' || r == '\t' }

// DefaultWordDelim stops a word at blanks, newline, or any operator-
// starting byte (a "token delimiter").
func DefaultWordDelim(r rune) bool {
	switch r {
	case ' ', '\t', '\n', '\r', ';', '&', '|', '(', ')', '<', '>':
		return true
	default:
		return false
	}
}

// lookaheadRunes peeks up to n runes ahead without consuming anything,
// built from repeated Peek/Consume/Rewind so the only primitive contract
// that matters (idempotent Peek, non-forward Rewind) is preserved.
func (lx *Lexer) lookaheadRunes(n int) ([]rune, error) {
	start := lx.Index()
	defer lx.Rewind(start)
	rs := make([]rune, 0, n)
	for i := 0; i < n; i++ {
		c, err := lx.Peek()
		if err != nil {
			if shellerr.IsEndOfInput(err) {
				break
			}
			return nil, err
		}
		lx.Consume()
		rs = append(rs, c.Value)
	}
	return rs, nil
}

// Word parses a (possibly empty) sequence of WordUnits according to ctx and
// delim, per the word-scanning grammar.
func (lx *Lexer) Word(ctx Context, delim DelimPredicate) (ast.Word, error) {
	start := lx.Index()
	var units []ast.WordUnit
	for {
		c, err := lx.Peek()
		if err != nil {
			if shellerr.IsEndOfInput(err) {
				break
			}
			return ast.Word{}, err
		}
		switch {
		case ctx == ContextWord && c.Value == '\'':
			u, err := lx.singleQuote()
			if err != nil {
				return ast.Word{}, err
			}
			units = append(units, u)
		case c.Value == '"':
			u, err := lx.doubleQuote()
			if err != nil {
				return ast.Word{}, err
			}
			units = append(units, u)
		case delim(c.Value):
			end := lx.Index()
			return ast.Word{Units: units, Loc: lx.SpanLocation(start, end)}, nil
		default:
			tu, err := lx.textUnit(ctx, delim)
			if err != nil {
				return ast.Word{}, err
			}
			units = append(units, &ast.Unquoted{Unit: tu})
		}
	}
	end := lx.Index()
	return ast.Word{Units: units, Loc: lx.SpanLocation(start, end)}, nil
}

func (lx *Lexer) singleQuote() (ast.WordUnit, error) {
	restore := lx.DisableContinuation()
	defer restore()

	startIdx := lx.Index()
	lx.Consume() // opening '
	var b strings.Builder
	for {
		c, err := lx.Peek()
		if err != nil {
			if shellerr.IsEndOfInput(err) {
				return nil, shellerr.Syntax(shellerr.UnclosedSingleQuote, lx.SpanLocation(startIdx, startIdx+1))
			}
			return nil, err
		}
		lx.Consume()
		if c.Value == '\'' {
			break
		}
		b.WriteRune(c.Value)
	}
	end := lx.Index()
	return &ast.SingleQuote{Value: b.String(), Loc: lx.SpanLocation(startIdx, end)}, nil
}

func (lx *Lexer) doubleQuote() (ast.WordUnit, error) {
	startIdx := lx.Index()
	lx.Consume() // opening "
	var parts ast.Text
	for {
		c, err := lx.Peek()
		if err != nil {
			if shellerr.IsEndOfInput(err) {
				return nil, shellerr.Syntax(shellerr.UnclosedDoubleQuote, lx.SpanLocation(startIdx, startIdx+1))
			}
			return nil, err
		}
		if c.Value == '"' {
			lx.Consume()
			break
		}
		tu, err := lx.textUnit(ContextText, func(r rune) bool { return r == '"' })
		if err != nil {
			return nil, err
		}
		parts = append(parts, tu)
	}
	end := lx.Index()
	return &ast.DoubleQuote{Content: parts, Loc: lx.SpanLocation(startIdx, end)}, nil
}

// textUnit parses one TextUnit: the caller must already know the next
// character is neither an opening quote nor a delimiter.
func (lx *Lexer) textUnit(ctx Context, delim DelimPredicate) (ast.TextUnit, error) {
	c, err := lx.Peek()
	if err != nil {
		return nil, err
	}
	switch c.Value {
	case '\\':
		return lx.backslash(ctx, delim)
	case '$':
		return lx.dollar()
	case '`':
		return lx.backquote(ctx)
	default:
		lx.Consume()
		return &ast.Literal{Char: c.Value, Loc: c.Location}, nil
	}
}

func (lx *Lexer) backslash(ctx Context, delim DelimPredicate) (ast.TextUnit, error) {
	startIdx := lx.Index()
	bsChar, _ := lx.Peek()
	lx.Consume()

	next, err := lx.Peek()
	if err != nil {
		if shellerr.IsEndOfInput(err) {
			// A trailing backslash with nothing after it is a literal
			// backslash.
			return &ast.Literal{Char: '\\', Loc: bsChar.Location}, nil
		}
		return nil, err
	}

	escapable := ctx == ContextWord
	if !escapable {
		switch next.Value {
		case '$', '`', '"', '\\':
			escapable = true
		default:
			escapable = delim(next.Value)
		}
	}
	if !escapable {
		return &ast.Literal{Char: '\\', Loc: bsChar.Location}, nil
	}
	lx.Consume()
	end := lx.Index()
	return &ast.Backslashed{Char: next.Value, Loc: lx.SpanLocation(startIdx, end)}, nil
}

// isPortableNameStart/Cont implement POSIX "name": a letter or underscore,
// then letters/digits/underscores.
func isPortableNameStart(r rune) bool { return r == '_' || unicode.IsLetter(r) }
func isPortableNameCont(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

// IsPortableNameStart and IsPortableNameCont export the same classifiers for
// the parser's assignment-prefix recognition.
func IsPortableNameStart(r rune) bool { return isPortableNameStart(r) }
func IsPortableNameCont(r rune) bool  { return isPortableNameCont(r) }

func isSpecialParamChar(r rune) bool {
	switch r {
	case '@', '*', '#', '?', '-', '$', '!':
		return true
	default:
		return unicode.IsDigit(r)
	}
}

func (lx *Lexer) dollar() (ast.TextUnit, error) {
	startIdx := lx.Index()
	dollarChar, _ := lx.Peek()
	lx.Consume()

	if u, ok, err := lx.tryRawParam(startIdx); err != nil {
		return nil, err
	} else if ok {
		return u, nil
	}
	if u, ok, err := lx.tryBracedParam(startIdx); err != nil {
		return nil, err
	} else if ok {
		return u, nil
	}
	if u, ok, err := lx.tryArith(startIdx); err != nil {
		return nil, err
	} else if ok {
		return u, nil
	}
	if u, ok, err := lx.tryCommandSubst(startIdx); err != nil {
		return nil, err
	} else if ok {
		return u, nil
	}
	// Falls through all of them (e.g. "$;"): the '$' is a literal.
	return &ast.Literal{Char: '$', Loc: dollarChar.Location}, nil
}

func (lx *Lexer) tryRawParam(dollarIdx int) (ast.TextUnit, bool, error) {
	c, err := lx.Peek()
	if err != nil {
		if shellerr.IsEndOfInput(err) {
			return nil, false, nil
		}
		return nil, false, err
	}
	switch {
	case isPortableNameStart(c.Value):
		nameStart := lx.Index()
		lx.Consume()
		for {
			c2, err := lx.Peek()
			if err != nil {
				if shellerr.IsEndOfInput(err) {
					break
				}
				return nil, false, err
			}
			if !isPortableNameCont(c2.Value) {
				break
			}
			lx.Consume()
		}
		nameEnd := lx.Index()
		loc := lx.SpanLocation(dollarIdx, nameEnd)
		return &ast.RawParam{Name: lx.textBetween(nameStart, nameEnd), Loc: loc}, true, nil
	case isSpecialParamChar(c.Value):
		lx.Consume()
		loc := lx.SpanLocation(dollarIdx, lx.Index())
		return &ast.RawParam{Name: string(c.Value), Loc: loc}, true, nil
	case c.Value == '{' || c.Value == '(':
		return nil, false, nil
	default:
		return nil, false, nil
	}
}

// textBetween renders the buffered characters in [start, end) as a string.
// It is only used for already-scanned spans (names, verbatim bodies).
func (lx *Lexer) textBetween(start, end int) string {
	var b strings.Builder
	for i := start; i < end; i++ {
		b.WriteRune(lx.buf[i].Value)
	}
	return b.String()
}

// tryBracedParam handles ${...}, the braced-parameter expansion form.
func (lx *Lexer) tryBracedParam(dollarIdx int) (ast.TextUnit, bool, error) {
	c, err := lx.Peek()
	if err != nil {
		if shellerr.IsEndOfInput(err) {
			return nil, false, nil
		}
		return nil, false, err
	}
	if c.Value != '{' {
		return nil, false, nil
	}
	lx.Consume()

	param, err := lx.bracedParamBody(dollarIdx)
	if err != nil {
		return nil, false, err
	}
	end := lx.Index()
	return &ast.BracedParam{Param: param, Loc: lx.SpanLocation(dollarIdx, end)}, true, nil
}

// hashIsLengthPrefix applies the disambiguation rule for a leading '#'
// inside "${...}": it is the Length modifier unless it is immediately
// followed by '}' or one of "+=:%", or it is followed by one of "-?#" whose
// own next character is '}' (in which case '#' is the special parameter
// name itself, as in "${#?}": the parameter "#" with an empty "?"
// switch).
func (lx *Lexer) hashIsLengthPrefix() (bool, error) {
	runes, err := lx.lookaheadRunes(3)
	if err != nil {
		return false, err
	}
	if len(runes) < 2 {
		return false, nil
	}
	c1 := runes[1]
	switch c1 {
	case '}', '+', '=', ':', '%':
		return false, nil
	case '-', '?', '#':
		if len(runes) >= 3 && runes[2] == '}' {
			return false, nil
		}
		return true, nil
	default:
		return true, nil
	}
}

func (lx *Lexer) bracedParamBody(dollarIdx int) (ast.Param, error) {
	nameStart := lx.Index()

	lengthPrefix := false
	if c, err := lx.Peek(); err == nil && c.Value == '#' {
		isLength, err := lx.hashIsLengthPrefix()
		if err != nil {
			return ast.Param{}, err
		}
		if isLength {
			lx.Consume()
			lengthPrefix = true
		}
	} else if err != nil && !shellerr.IsEndOfInput(err) {
		return ast.Param{}, err
	}

	name, err := lx.paramName()
	if err != nil {
		return ast.Param{}, err
	}
	if name == "" && !lengthPrefix {
		return ast.Param{}, shellerr.Syntax(shellerr.EmptyParam, lx.SpanLocation(dollarIdx, lx.Index()))
	}

	modifier := ast.Modifier{Kind: ast.ModNone}
	if lengthPrefix {
		modifier.Kind = ast.ModLength
	}

	c, err := lx.Peek()
	if err != nil {
		if shellerr.IsEndOfInput(err) {
			return ast.Param{}, shellerr.Syntax(shellerr.UnclosedParam, lx.SpanLocation(dollarIdx, lx.Index()))
		}
		return ast.Param{}, err
	}
	if c.Value != '}' {
		suffix, err := lx.paramModifier()
		if err != nil {
			return ast.Param{}, err
		}
		if modifier.Kind != ast.ModNone {
			return ast.Param{}, shellerr.Syntax(shellerr.MultipleModifier, lx.SpanLocation(nameStart, lx.Index()))
		}
		modifier = suffix
	}

	if _, ok, err := lx.ConsumeCharIf(func(r rune) bool { return r == '}' }); err != nil {
		return ast.Param{}, err
	} else if !ok {
		return ast.Param{}, shellerr.Syntax(shellerr.UnclosedParam, lx.SpanLocation(dollarIdx, lx.Index()))
	}

	end := lx.Index()
	return ast.Param{Name: name, Modifier: modifier, Loc: lx.SpanLocation(nameStart, end)}, nil
}

func (lx *Lexer) paramName() (string, error) {
	c, err := lx.Peek()
	if err != nil {
		if shellerr.IsEndOfInput(err) {
			return "", nil
		}
		return "", err
	}
	switch {
	case unicode.IsDigit(c.Value):
		start := lx.Index()
		for {
			c2, err := lx.Peek()
			if err != nil {
				if shellerr.IsEndOfInput(err) {
					break
				}
				return "", err
			}
			if !unicode.IsDigit(c2.Value) {
				break
			}
			lx.Consume()
		}
		return lx.textBetween(start, lx.Index()), nil
	case isSpecialParamChar(c.Value):
		lx.Consume()
		return string(c.Value), nil
	case isPortableNameStart(c.Value):
		start := lx.Index()
		lx.Consume()
		for {
			c2, err := lx.Peek()
			if err != nil {
				if shellerr.IsEndOfInput(err) {
					break
				}
				return "", err
			}
			if !isPortableNameCont(c2.Value) {
				break
			}
			lx.Consume()
		}
		return lx.textBetween(start, lx.Index()), nil
	default:
		return "", nil
	}
}

// paramModifier parses the suffix after a parameter name: a switch
// (+ - ? = , optionally ':'-prefixed) or a trim (# ## % %%).
func (lx *Lexer) paramModifier() (ast.Modifier, error) {
	c, err := lx.Peek()
	if err != nil {
		if shellerr.IsEndOfInput(err) {
			return ast.Modifier{}, shellerr.Syntax(shellerr.UnclosedParam, lx.eofLocation())
		}
		return ast.Modifier{}, err
	}

	switch c.Value {
	case '#', '%':
		trimChar := c.Value
		lx.Consume()
		length := ast.TrimShortest
		if c2, ok, err := lx.ConsumeCharIf(func(r rune) bool { return r == trimChar }); err != nil {
			return ast.Modifier{}, err
		} else if ok {
			_ = c2
			length = ast.TrimLongest
		}
		side := ast.TrimPrefix
		if trimChar == '%' {
			side = ast.TrimSuffix
		}
		word, err := lx.Word(ContextWord, func(r rune) bool { return r == '}' })
		if err != nil {
			return ast.Modifier{}, err
		}
		return ast.Modifier{Kind: ast.ModTrim, TrimSide: side, TrimLength: length, TrimWord: &word}, nil

	case ':':
		lx.Consume()
		sw, err := lx.switchType()
		if err != nil {
			return ast.Modifier{}, err
		}
		word, err := lx.Word(ContextWord, func(r rune) bool { return r == '}' })
		if err != nil {
			return ast.Modifier{}, err
		}
		return ast.Modifier{Kind: ast.ModSwitch, SwitchType: sw, SwitchCond: ast.CondUnsetOrEmpty, SwitchWord: &word}, nil

	case '+', '-', '?', '=':
		sw, err := lx.switchType()
		if err != nil {
			return ast.Modifier{}, err
		}
		word, err := lx.Word(ContextWord, func(r rune) bool { return r == '}' })
		if err != nil {
			return ast.Modifier{}, err
		}
		return ast.Modifier{Kind: ast.ModSwitch, SwitchType: sw, SwitchCond: ast.CondUnset, SwitchWord: &word}, nil

	default:
		return ast.Modifier{}, shellerr.Syntax(shellerr.InvalidModifier, c.Location)
	}
}

func (lx *Lexer) switchType() (ast.SwitchType, error) {
	c, err := lx.Peek()
	if err != nil {
		if shellerr.IsEndOfInput(err) {
			return 0, shellerr.Syntax(shellerr.UnclosedParam, lx.eofLocation())
		}
		return 0, err
	}
	lx.Consume()
	switch c.Value {
	case '-':
		return ast.SwDefault, nil
	case '=':
		return ast.SwAssign, nil
	case '?':
		return ast.SwError, nil
	case '+':
		return ast.SwAlter, nil
	default:
		return 0, shellerr.Syntax(shellerr.InvalidModifier, c.Location)
	}
}

// arithBackslash escapes only $, ` and \ inside $((...)); any other
// character after a backslash leaves the backslash itself literal.
func (lx *Lexer) arithBackslash() (ast.TextUnit, error) {
	startIdx := lx.Index()
	bsChar, _ := lx.Peek()
	lx.Consume()

	next, err := lx.Peek()
	if err != nil {
		if shellerr.IsEndOfInput(err) {
			return &ast.Literal{Char: '\\', Loc: bsChar.Location}, nil
		}
		return nil, err
	}
	switch next.Value {
	case '$', '`', '\\':
		lx.Consume()
		end := lx.Index()
		return &ast.Backslashed{Char: next.Value, Loc: lx.SpanLocation(startIdx, end)}, nil
	default:
		return &ast.Literal{Char: '\\', Loc: bsChar.Location}, nil
	}
}

// tryArith handles $((...)), arithmetic expansion: only
// $, `, \ are escapable inside, and the body is paren-balanced. If the
// input has only one matching ')' where two are required to close, the
// attempt is rewound so the caller can reinterpret it as a command
// substitution.
func (lx *Lexer) tryArith(dollarIdx int) (ast.TextUnit, bool, error) {
	start := lx.Index()

	c1, ok, err := lx.ConsumeCharIf(func(r rune) bool { return r == '(' })
	if err != nil {
		return nil, false, err
	}
	if !ok {
		return nil, false, nil
	}
	_, ok, err = lx.ConsumeCharIf(func(r rune) bool { return r == '(' })
	if err != nil {
		return nil, false, err
	}
	if !ok {
		lx.Rewind(start)
		return nil, false, nil
	}
	_ = c1

	var content ast.Text
	depth := 1
	for {
		c, err := lx.Peek()
		if err != nil {
			if shellerr.IsEndOfInput(err) {
				return nil, false, shellerr.Syntax(shellerr.UnclosedArith, lx.SpanLocation(dollarIdx, lx.Index()))
			}
			return nil, false, err
		}
		if c.Value == '(' {
			depth++
			lx.Consume()
			content = append(content, &ast.Literal{Char: c.Value, Loc: c.Location})
			continue
		}
		if c.Value == ')' {
			depth--
			if depth == 0 {
				lx.Consume()
				// Require a second ')' to close $((...)); a single one
				// means this was actually $(( subshell )) syntax, i.e. a
				// command substitution wrapping a subshell: rewind whole.
				if _, ok, err := lx.ConsumeCharIf(func(r rune) bool { return r == ')' }); err != nil {
					return nil, false, err
				} else if !ok {
					lx.Rewind(start)
					return nil, false, nil
				}
				break
			}
			lx.Consume()
			content = append(content, &ast.Literal{Char: c.Value, Loc: c.Location})
			continue
		}
		if c.Value == '\\' {
			tu, err := lx.arithBackslash()
			if err != nil {
				return nil, false, err
			}
			content = append(content, tu)
			continue
		}
		if c.Value == '$' {
			tu, err := lx.dollar()
			if err != nil {
				return nil, false, err
			}
			content = append(content, tu)
			continue
		}
		if c.Value == '`' {
			tu, err := lx.backquote(ContextText)
			if err != nil {
				return nil, false, err
			}
			content = append(content, tu)
			continue
		}
		lx.Consume()
		content = append(content, &ast.Literal{Char: c.Value, Loc: c.Location})
	}

	end := lx.Index()
	return &ast.Arith{Content: content, Loc: lx.SpanLocation(dollarIdx, end)}, true, nil
}

// tryCommandSubst handles $(...), command substitution.
// It delegates to InnerProgram to re-parse the body as a compound list,
// capturing the verbatim text alongside it.
func (lx *Lexer) tryCommandSubst(dollarIdx int) (ast.TextUnit, bool, error) {
	start := lx.Index()
	if _, ok, err := lx.ConsumeCharIf(func(r rune) bool { return r == '(' }); err != nil {
		return nil, false, err
	} else if !ok {
		return nil, false, nil
	}

	bodyStart := lx.Index()
	stmts, err := lx.InnerProgram()
	if err != nil {
		return nil, false, err
	}
	bodyEnd := lx.Index()

	if _, ok, err := lx.ConsumeCharIf(func(r rune) bool { return r == ')' }); err != nil {
		return nil, false, err
	} else if !ok {
		return nil, false, shellerr.Syntax(shellerr.UnclosedCommandSubstitution, lx.SpanLocation(dollarIdx, lx.Index()))
	}

	content := ""
	if bodyEnd > bodyStart {
		content = lx.textBetween(bodyStart, bodyEnd)
	}
	_ = start
	end := lx.Index()
	return &ast.CommandSubst{Content: content, Stmts: stmts, Loc: lx.SpanLocation(dollarIdx, end)}, true, nil
}

// backquote parses a `...` command substitution: backslash escapes $, `, \
// always, and additionally " when the backquote itself sits inside a
// double-quoted context, then is re-lexed as a compound list over the
// unescaped text.
func (lx *Lexer) backquote(ctx Context) (ast.TextUnit, error) {
	startIdx := lx.Index()
	lx.Consume() // opening `

	var units []ast.BackquoteUnit
	var raw strings.Builder
	for {
		c, err := lx.Peek()
		if err != nil {
			if shellerr.IsEndOfInput(err) {
				return nil, shellerr.Syntax(shellerr.UnclosedBackquote, lx.SpanLocation(startIdx, startIdx+1))
			}
			return nil, err
		}
		if c.Value == '`' {
			lx.Consume()
			break
		}
		if c.Value == '\\' {
			bsLoc := c.Location
			lx.Consume()
			next, err := lx.Peek()
			if err != nil {
				if shellerr.IsEndOfInput(err) {
					units = append(units, &ast.BqLiteral{Char: '\\', Loc: bsLoc})
					raw.WriteByte('\\')
					continue
				}
				return nil, err
			}
			escapable := false
			switch next.Value {
			case '$', '`', '\\':
				escapable = true
			case '"':
				escapable = ctx == ContextText
			}
			if escapable {
				lx.Consume()
				units = append(units, &ast.BqBackslashed{Char: next.Value, Loc: bsLoc})
				raw.WriteRune(next.Value)
				continue
			}
			units = append(units, &ast.BqLiteral{Char: '\\', Loc: bsLoc})
			raw.WriteByte('\\')
			continue
		}
		lx.Consume()
		units = append(units, &ast.BqLiteral{Char: c.Value, Loc: c.Location})
		raw.WriteRune(c.Value)
	}

	inner := New(StringInput(raw.String()), source.CommandSubstSource(lx.SpanLocation(startIdx, lx.Index())), 1)
	inner.Aliases = lx.Aliases
	stmts, err := inner.Program()
	if err != nil {
		return nil, err
	}

	end := lx.Index()
	return &ast.Backquote{Units: units, Stmts: stmts, Loc: lx.SpanLocation(startIdx, end)}, nil
}
