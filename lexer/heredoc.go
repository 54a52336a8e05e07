package lexer

import (
	"strings"

	"github.com/extsh/extsh/ast"
	"github.com/extsh/extsh/shellerr"
	"github.com/extsh/extsh/source"
)

// QueueHereDoc records a pending here-document redirection once the parser
// has accepted "<<word" or "<<-word": its content is not available until
// the lexer reaches the end of the current line, so parsing continues and
// the body is drained later by DrainHereDocs.
func (lx *Lexer) QueueHereDoc(delimiter string, removeTabs, quoted bool) *PartialHereDoc {
	h := &PartialHereDoc{Delimiter: delimiter, RemoveTabs: removeTabs, Quoted: quoted}
	lx.pending = append(lx.pending, h)
	return h
}

// PendingHereDocs reports whether any queued here-document still needs its
// body drained.
func (lx *Lexer) PendingHereDocs() bool { return lx.buried < len(lx.pending) }

// DrainHereDocs is called immediately after the lexer produces a newline
// token: it reads one line at a time from the input looking for each queued
// delimiter in turn, appending each body line to PartialHereDoc.Lines
// without its newline and, for <<-, without its leading tabs.
// Reaching end-of-input before a delimiter line is seen is not an error
// here; MissingHereDocContent is instead raised by the parser when it tries
// to close a List with here-docs still unresolved.
func (lx *Lexer) DrainHereDocs() error {
	for lx.buried < len(lx.pending) {
		h := lx.pending[lx.buried]
		if err := lx.drainOne(h); err != nil {
			return err
		}
		lx.buried++
	}
	return nil
}

func (lx *Lexer) drainOne(h *PartialHereDoc) error {
	for {
		line, ok, err := lx.nextRawLine()
		if err != nil {
			return err
		}
		if !ok {
			return nil // end of input: parser reports MissingHereDocContent
		}
		trimmed := line
		trimmed = strings.TrimSuffix(trimmed, "\n")
		check := trimmed
		if h.RemoveTabs {
			check = strings.TrimLeft(check, "\t")
		}
		if check == h.Delimiter {
			h.Closed = true
			return nil
		}
		content := trimmed
		if h.RemoveTabs {
			content = strings.TrimLeft(content, "\t")
		}
		h.Lines = append(h.Lines, content)
	}
}

// nextRawLine pulls one more line directly from the lexer's own buffer,
// bypassing the peek/consume token machinery: here-document bodies are
// physically the next lines of input, consumed in full regardless of what
// the operator/word recognisers would make of their contents.
func (lx *Lexer) nextRawLine() (string, bool, error) {
	start := lx.pos
	for {
		if err := lx.ensureAt(lx.pos); err != nil {
			return "", false, err
		}
		if lx.pos >= len(lx.buf) {
			if start == lx.pos {
				return "", false, nil
			}
			return lx.textBetween(start, lx.pos), true, nil
		}
		c := lx.buf[lx.pos]
		lx.pos++
		if c.Value == '\n' {
			return lx.textBetween(start, lx.pos), true, nil
		}
	}
}

// ExpandHereDocContent re-lexes a here-document's collected lines as Text,
// the way double-quoted content is parsed (parameter/command/arithmetic
// expansion, backslash escaping of $, `, \ and the body's own delimiter
// quoting state). Quoted delimiters (e.g. <<'EOF') suppress this entirely;
// the parser should use the raw lines verbatim in that case instead of
// calling this.
func ExpandHereDocContent(h *PartialHereDoc, origin source.Location) (ast.Text, error) {
	body := strings.Join(h.Lines, "\n")
	if len(h.Lines) > 0 {
		body += "\n"
	}
	inner := New(StringInput(body), source.HereDocSource(origin), 1)

	var content ast.Text
	for {
		c, err := inner.Peek()
		if err != nil {
			if shellerr.IsEndOfInput(err) {
				break
			}
			return nil, err
		}
		if c.Value == '\\' {
			rs, err := inner.lookaheadRunes(2)
			if err != nil {
				return nil, err
			}
			if len(rs) == 2 && rs[1] == '"' {
				// A backslash before '"' is not an escape here.
				if _, err := inner.Peek(); err != nil {
					return nil, err
				}
				inner.Consume()
				content = append(content, &ast.Literal{Char: '\\', Loc: c.Location})
				continue
			}
		}
		tu, err := inner.textUnit(ContextText, func(rune) bool { return false })
		if err != nil {
			return nil, err
		}
		content = append(content, tu)
		_ = c
	}
	return content, nil
}
