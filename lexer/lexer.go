// Package lexer implements component B of the shell core: a rewindable,
// pull-driven character cursor over an Input callback, plus the
// word/operator/expansion recognisers and alias-replay machinery built on
// top of it.
package lexer

import (
	"github.com/extsh/extsh/alias"
	"github.com/extsh/extsh/source"

	"github.com/extsh/extsh/shellerr"
)

// Lexer streams SourceChars from an Input, buffering everything it reads so
// that Rewind can move the cursor backwards without losing characters
// already produced (alias substitution depends on that).
type Lexer struct {
	input Input

	cur          *source.Code
	firstForCode bool

	buf []source.SourceChar
	pos int

	havePeeked    bool
	lastPeekIndex int

	eof bool
	err *shellerr.Error

	contDisableDepth int

	// heredoc queue (the here-document deferred-body mechanism)
	pending []*PartialHereDoc
	buried  int

	// Aliases is consulted by NextToken for substitution eligibility. It is
	// exported so the parser (and recursively-entered sub-lexers for
	// command/backquote substitution) can share one table across a script.
	Aliases *alias.Table
}

// PartialHereDoc is a here-doc redirection whose delimiter has been parsed
// but whose content is still pending, queued by the parser when it accepts
// "<<word"/"<<-word" and drained after the next newline token.
type PartialHereDoc struct {
	Delimiter  string
	RemoveTabs bool
	Quoted     bool
	Lines      []string // filled in by DrainHereDocs
	Closed     bool      // true once the delimiter line was actually seen
}

// New creates a Lexer reading from input, whose characters are annotated
// against a fresh Code of the given origin starting at startLine.
func New(input Input, src source.Source, startLine int) *Lexer {
	return &Lexer{
		input:        input,
		cur:          source.NewCode(src, startLine),
		firstForCode: true,
	}
}

// Reset clears the absorbing error state, for reuse between interactive
// parse attempts (error recovery). The buffered characters and the cursor
// are left as they are.
func (lx *Lexer) Reset() {
	lx.err = nil
}

// Code returns the Lexer's current Code buffer.
func (lx *Lexer) Code() *source.Code { return lx.cur }

// Flush starts a new Code continuing the current one, as described by
// the Code append-only discipline. Call only at quiescent points (e.g. between top-level
// statements) to bound memory; Locations already handed out remain valid.
func (lx *Lexer) Flush() {
	lx.cur = lx.cur.Flush()
	lx.firstForCode = true
}

func (lx *Lexer) fill() error {
	if lx.eof || lx.err != nil {
		return lx.err
	}
	line, err := lx.input.NextLine(LineContext{IsFirstLine: lx.firstForCode})
	lx.firstForCode = false
	if err != nil {
		e := shellerr.IO(err, lx.eofLocation())
		lx.err = e
		return e
	}
	if line == "" {
		lx.eof = true
		return nil
	}
	for _, r := range line {
		start := lx.cur.Len()
		lx.cur.Append(string(r))
		loc := lx.cur.LocationRange(start, lx.cur.Len())
		lx.buf = append(lx.buf, source.SourceChar{Value: r, Location: loc})
	}
	return nil
}

func (lx *Lexer) ensureAt(i int) error {
	for len(lx.buf) <= i {
		if lx.eof {
			return nil
		}
		if err := lx.fill(); err != nil {
			return err
		}
	}
	return nil
}

func (lx *Lexer) eofLocation() source.Location {
	return lx.cur.LocationRange(lx.cur.Len(), lx.cur.Len())
}

func (lx *Lexer) continuationEnabled() bool { return lx.contDisableDepth == 0 }

// DisableContinuation scopes off transparent "\<newline>" folding until the
// returned func is called, which is guaranteed-restoration: callers use
// `defer lx.DisableContinuation()()`. Single-quoted strings use this.
func (lx *Lexer) DisableContinuation() func() {
	lx.contDisableDepth++
	return func() { lx.contDisableDepth-- }
}

// peekReal resolves the buffer index of the next "real" character at or
// after from, folding (and flagging) any "\<newline>" continuation
// sequences along the way when continuation folding is enabled.
func (lx *Lexer) peekReal(from int) (int, error) {
	i := from
	for {
		if err := lx.ensureAt(i); err != nil {
			return 0, err
		}
		if i >= len(lx.buf) {
			return i, nil
		}
		if !lx.continuationEnabled() || lx.buf[i].Value != '\\' {
			return i, nil
		}
		if err := lx.ensureAt(i + 1); err != nil {
			return 0, err
		}
		if i+1 >= len(lx.buf) || lx.buf[i+1].Value != '\n' {
			return i, nil
		}
		lx.buf[i].LineContinuation = true
		lx.buf[i+1].LineContinuation = true
		i += 2
	}
}

// Peek returns the next character without consuming it, or an end-of-input
// error carrying the would-be next Location. It never advances the cursor
// and is idempotent: repeated calls with no intervening Consume return the
// same result.
func (lx *Lexer) Peek() (source.SourceChar, error) {
	if lx.err != nil {
		return source.SourceChar{}, lx.err
	}
	i, err := lx.peekReal(lx.pos)
	if err != nil {
		return source.SourceChar{}, err
	}
	lx.lastPeekIndex = i
	lx.havePeeked = true
	if i >= len(lx.buf) {
		return source.SourceChar{Location: lx.eofLocation()}, shellerr.EndOfInput(lx.eofLocation())
	}
	return lx.buf[i], nil
}

// Consume advances past the character returned by the most recent
// successful Peek. It panics if Peek was not called (or returned an error)
// since the last Consume.
func (lx *Lexer) Consume() {
	if !lx.havePeeked {
		panic("lexer: Consume called without a preceding successful Peek")
	}
	lx.pos = lx.lastPeekIndex + 1
	lx.havePeeked = false
}

// Index returns the current byte cursor (a position in the buffered
// characters, not necessarily contiguous with rune count when
// continuations were folded).
func (lx *Lexer) Index() int { return lx.pos }

// Rewind moves the cursor to a non-forward target. It panics if target is
// ahead of the current position. Buffered characters are never dropped, so
// rewinding and re-reading always reproduces the same SourceChars.
func (lx *Lexer) Rewind(target int) {
	if target > lx.pos {
		panic("lexer: Rewind only accepts non-forward targets")
	}
	lx.pos = target
	lx.havePeeked = false
}

// Maybe applies f; on error it rewinds the cursor to the entry value and
// propagates the error, letting higher-level parsers speculate.
func Maybe[T any](lx *Lexer, f func(*Lexer) (T, error)) (T, error) {
	start := lx.Index()
	v, err := f(lx)
	if err != nil {
		lx.Rewind(start)
	}
	return v, err
}

// Many applies f repeatedly (each attempt under Maybe semantics) until the
// first error, returning every accumulated success *and* the terminating
// error so the caller can diagnose why the repetition stopped.
func Many[T any](lx *Lexer, f func(*Lexer) (T, error)) ([]T, error) {
	var results []T
	for {
		start := lx.Index()
		v, err := f(lx)
		if err != nil {
			lx.Rewind(start)
			return results, err
		}
		results = append(results, v)
	}
}

// ConsumeCharIf peeks and, if pred holds for the value, consumes it;
// otherwise the cursor is left untouched. End-of-input is treated as "no",
// not an error. Other I/O errors propagate.
func (lx *Lexer) ConsumeCharIf(pred func(rune) bool) (source.SourceChar, bool, error) {
	c, err := lx.Peek()
	if err != nil {
		if shellerr.IsEndOfInput(err) {
			return source.SourceChar{}, false, nil
		}
		return source.SourceChar{}, false, err
	}
	if !pred(c.Value) {
		return source.SourceChar{}, false, nil
	}
	lx.Consume()
	return c, true, nil
}

// SpanLocation builds the Location covering buffered characters
// [startIdx, endIdx) — indices as returned by Index() — by combining the
// first and last character's own Locations. All characters in the span
// must belong to the same Code (true for any span the lexer itself
// produces, since a Flush only ever happens at a quiescent point between
// tokens, never inside one).
func (lx *Lexer) SpanLocation(startIdx, endIdx int) source.Location {
	if startIdx == endIdx {
		if startIdx < len(lx.buf) {
			loc := lx.buf[startIdx].Location
			return loc.Code.LocationRange(loc.Range.Start, loc.Range.Start)
		}
		return lx.eofLocation()
	}
	first := lx.buf[startIdx].Location
	last := lx.buf[endIdx-1].Location
	return first.Code.LocationRange(first.Range.Start, last.Range.End)
}
