package ast

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/extsh/extsh/token"
)

// PrintConfig controls List.Fprint, a small options struct threaded through
// a pooled writer, with the single option this grammar needs.
type PrintConfig struct {
	// Alternate selects the "#" form: List/Item are terminated with ";"
	// for unambiguous re-parsing, and here-document bodies are included
	// instead of omitted.
	Alternate bool
}

// Fprint writes the single-line textual form used for diagnostics and
// trap -p style output. Here-document
// bodies are omitted in the non-alternate form.
func (c PrintConfig) Fprint(w io.Writer, l List) error {
	p := &printer{w: w, cfg: c}
	p.items(l, c.Alternate)
	return p.err
}

// Fprint calls PrintConfig{}.Fprint.
func Fprint(w io.Writer, l List) error { return PrintConfig{}.Fprint(w, l) }

// String renders l with the default (non-alternate) PrintConfig.
func (l List) String() string {
	var b strings.Builder
	_ = Fprint(&b, l)
	return b.String()
}

// StringAlternate renders l with the alternate ("#") form.
func (l List) StringAlternate() string {
	var b strings.Builder
	_ = PrintConfig{Alternate: true}.Fprint(&b, l)
	return b.String()
}

type printer struct {
	w      io.Writer
	cfg    PrintConfig
	err    error
	needSp bool
}

func (p *printer) str(s string) {
	if p.err != nil {
		return
	}
	if p.needSp {
		_, p.err = io.WriteString(p.w, " ")
		if p.err != nil {
			return
		}
	}
	p.needSp = false
	_, p.err = io.WriteString(p.w, s)
}

func (p *printer) sp() { p.needSp = true }

// list prints a list that a closing keyword follows, ending every item with
// ";" (or "&") so that the keyword is not read as one more argument.
func (p *printer) list(l List) { p.items(l, true) }

// items prints l with ";" (or "&") after every item but the last; the last
// item gets one too when terminate is set.
func (p *printer) items(l List, terminate bool) {
	for i, it := range l {
		if i > 0 {
			p.sp()
		}
		p.item(it, terminate || i < len(l)-1)
	}
}

func (p *printer) item(it Item, terminate bool) {
	p.andOrList(it.AndOr)
	if it.IsAsync {
		p.sp()
		p.str("&")
	} else if terminate {
		p.str(";")
	}
}

func (p *printer) andOrList(a AndOrList) {
	p.pipeline(a.First)
	for _, r := range a.Rest {
		p.sp()
		switch r.Op {
		case AndThen:
			p.str("&&")
		case OrElse:
			p.str("||")
		}
		p.sp()
		p.pipeline(r.Pipeline)
	}
}

func (p *printer) pipeline(pl Pipeline) {
	if pl.Negation {
		p.str("!")
		p.sp()
	}
	for i, c := range pl.Commands {
		if i > 0 {
			p.sp()
			p.str("|")
			p.sp()
		}
		p.command(c)
	}
}

// quoteReservedFirstWord implements "Reserved words appearing as the first
// word of a simple command are quoted/rearranged so that re-parsing is
// safe".
func quoteReservedFirstWord(w string) string {
	if token.LookupKeyword(w) != token.NoKeyword {
		return "\\" + w
	}
	return w
}

func (p *printer) command(c Command) {
	switch v := c.(type) {
	case *simpleCommandNode:
		p.simpleCommand(v.SimpleCommand)
	case *FullCompoundCommand:
		p.compoundCommand(v.Command)
		for _, r := range v.Redirs {
			p.sp()
			p.redir(r)
		}
	case *FunctionDefinition:
		if v.HasKeyword {
			p.str("function")
			p.sp()
		}
		p.word(v.Name)
		if !v.HasKeyword {
			p.str("()")
		}
		p.sp()
		p.compoundCommand(v.Body.Command)
		for _, r := range v.Body.Redirs {
			p.sp()
			p.redir(r)
		}
	}
}

func (p *printer) simpleCommand(sc *SimpleCommand) {
	first := true
	for _, a := range sc.Assigns {
		if !first {
			p.sp()
		}
		first = false
		p.assign(a)
	}
	for i, w := range sc.Words {
		if !first {
			p.sp()
		}
		first = false
		if i == 0 && len(sc.Assigns) == 0 {
			text := w.String()
			if quoteReservedFirstWord(text) != text {
				p.str(quoteReservedFirstWord(text))
				continue
			}
		}
		p.word(w)
	}
	for _, r := range sc.Redirs {
		if !first {
			p.sp()
		}
		first = false
		p.redir(r)
	}
}

func (p *printer) assign(a *Assign) {
	switch v := a.Value.(type) {
	case ScalarValue:
		p.str(a.Name + "=")
		p.needSp = false
		p.word(v.Word)
	case ArrayValue:
		p.str(a.Name + "=(")
		p.needSp = false
		for i, w := range v.Words {
			if i > 0 {
				p.sp()
			}
			p.word(w)
		}
		p.str(")")
	}
}

func (p *printer) redirOpText(op RedirOp) string {
	switch op {
	case FileIn:
		return "<"
	case FileInOut:
		return "<>"
	case FileOut:
		return ">"
	case FileAppend:
		return ">>"
	case FileClobber:
		return ">|"
	case FdIn:
		return "<&"
	case FdOut:
		return ">&"
	case RedirPipe:
		return ">|"
	case RedirString:
		return "<<<"
	}
	return "?"
}

func (p *printer) redir(r *Redir) {
	if r.Fd != nil {
		p.str(strconv.Itoa(*r.Fd))
		p.needSp = false
	}
	switch b := r.Body.(type) {
	case NormalRedir:
		p.str(p.redirOpText(b.Op))
		p.needSp = false
		p.word(b.Operand)
	case *HereDoc:
		if b.RemoveTabs {
			p.str("<<-")
		} else {
			p.str("<<")
		}
		p.needSp = false
		p.word(b.Delimiter)
		if p.cfg.Alternate {
			p.sp()
			p.str(textString(b.Content))
			p.str(b.Delimiter.String())
		}
	}
}

func (p *printer) compoundCommand(c CompoundCommand) {
	switch v := c.(type) {
	case *Grouping:
		p.str("{")
		p.sp()
		p.list(v.Body)
		p.sp()
		p.str("}")
	case *Subshell:
		p.str("(")
		p.needSp = false
		p.items(v.Body, p.cfg.Alternate)
		p.str(")")
	case *ForClause:
		p.str("for")
		p.sp()
		p.str(v.Name)
		if v.Values != nil {
			p.sp()
			p.str("in")
			for _, w := range *v.Values {
				p.sp()
				p.word(w)
			}
		}
		p.sp()
		p.str(";")
		p.sp()
		p.str("do")
		p.sp()
		p.list(v.Body)
		p.sp()
		p.str("done")
	case *WhileClause:
		p.str("while")
		p.sp()
		p.list(v.Cond)
		p.sp()
		p.str("do")
		p.sp()
		p.list(v.Body)
		p.sp()
		p.str("done")
	case *UntilClause:
		p.str("until")
		p.sp()
		p.list(v.Cond)
		p.sp()
		p.str("do")
		p.sp()
		p.list(v.Body)
		p.sp()
		p.str("done")
	case *IfClause:
		p.str("if")
		p.sp()
		p.list(v.Cond)
		p.sp()
		p.str("then")
		p.sp()
		p.list(v.Body)
		for _, e := range v.Elifs {
			p.sp()
			p.str("elif")
			p.sp()
			p.list(e.Cond)
			p.sp()
			p.str("then")
			p.sp()
			p.list(e.Body)
		}
		if v.Else != nil {
			p.sp()
			p.str("else")
			p.sp()
			p.list(*v.Else)
		}
		p.sp()
		p.str("fi")
	case *CaseClause:
		p.str("case")
		p.sp()
		p.word(v.Subject)
		p.sp()
		p.str("in")
		for _, item := range v.Items {
			p.sp()
			for i, pat := range item.Patterns {
				if i > 0 {
					p.str("|")
				}
				p.word(pat)
			}
			p.str(")")
			p.sp()
			p.items(item.Body, false)
			p.sp()
			p.str(";;")
		}
		p.sp()
		p.str("esac")
	}
}

func (p *printer) word(w Word) { p.str(w.String()) }

// String renders a Word to its literal-ish source text, which is also what
// quoteReservedFirstWord and the printer's word() use. It is deliberately
// independent of printer state.
func (w Word) String() string {
	var b strings.Builder
	for _, u := range w.Units {
		writeWordUnit(&b, u)
	}
	return b.String()
}

func writeWordUnit(b *strings.Builder, u WordUnit) {
	switch v := u.(type) {
	case *Unquoted:
		writeTextUnit(b, v.Unit)
	case *SingleQuote:
		b.WriteByte('\'')
		b.WriteString(v.Value)
		b.WriteByte('\'')
	case *DoubleQuote:
		b.WriteByte('"')
		b.WriteString(textString(v.Content))
		b.WriteByte('"')
	case *TildeExpansion:
		b.WriteByte('~')
		b.WriteString(v.Name)
	}
}

func textString(t Text) string {
	var b strings.Builder
	for _, u := range t {
		writeTextUnit(&b, u)
	}
	return b.String()
}

func writeTextUnit(b *strings.Builder, u TextUnit) {
	switch v := u.(type) {
	case *Literal:
		b.WriteRune(v.Char)
	case *Backslashed:
		b.WriteByte('\\')
		b.WriteRune(v.Char)
	case *RawParam:
		b.WriteByte('$')
		b.WriteString(v.Name)
	case *BracedParam:
		b.WriteString("${")
		writeParam(b, v.Param)
		b.WriteByte('}')
	case *CommandSubst:
		b.WriteString("$(")
		b.WriteString(v.Content)
		b.WriteByte(')')
	case *Backquote:
		b.WriteByte('`')
		for _, bu := range v.Units {
			switch bv := bu.(type) {
			case *BqLiteral:
				b.WriteRune(bv.Char)
			case *BqBackslashed:
				b.WriteByte('\\')
				b.WriteRune(bv.Char)
			}
		}
		b.WriteByte('`')
	case *Arith:
		b.WriteString("$((")
		b.WriteString(textString(v.Content))
		b.WriteString("))")
	}
}

func writeParam(b *strings.Builder, p Param) {
	if p.Modifier.Kind == ModLength {
		b.WriteByte('#')
	}
	b.WriteString(p.Name)
	switch p.Modifier.Kind {
	case ModSwitch:
		b.WriteString(switchOpText(p.Modifier.SwitchType, p.Modifier.SwitchCond))
		if p.Modifier.SwitchWord != nil {
			b.WriteString(p.Modifier.SwitchWord.String())
		}
	case ModTrim:
		b.WriteString(trimOpText(p.Modifier.TrimSide, p.Modifier.TrimLength))
		if p.Modifier.TrimWord != nil {
			b.WriteString(p.Modifier.TrimWord.String())
		}
	}
}

func switchOpText(t SwitchType, cond SwitchCond) string {
	var op string
	switch t {
	case SwAlter:
		op = "+"
	case SwDefault:
		op = "-"
	case SwAssign:
		op = "="
	case SwError:
		op = "?"
	}
	if cond == CondUnsetOrEmpty {
		return ":" + op
	}
	return op
}

func trimOpText(side TrimSide, length TrimLength) string {
	switch {
	case side == TrimPrefix && length == TrimShortest:
		return "#"
	case side == TrimPrefix && length == TrimLongest:
		return "##"
	case side == TrimSuffix && length == TrimShortest:
		return "%"
	default:
		return "%%"
	}
}

// DebugString is a %v-friendly dump used in test failure messages.
func DebugString(n Node) string {
	return fmt.Sprintf("%T@%s", n, n.Location().Text())
}
