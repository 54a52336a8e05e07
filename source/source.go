// Package source implements the annotation model that lets every character
// the lexer sees carry a precise origin: the original file, an alias replay,
// a command substitution, or a here-document body.
package source

import "strings"

// Origin identifies where a Code buffer's characters ultimately came from.
type Origin int

const (
	OriginUnknown Origin = iota
	OriginFile
	OriginCommandString
	OriginStdin
	OriginAlias
	OriginCommandSubst
	OriginHereDoc
)

func (o Origin) String() string {
	switch o {
	case OriginFile:
		return "file"
	case OriginCommandString:
		return "command string"
	case OriginStdin:
		return "standard input"
	case OriginAlias:
		return "alias"
	case OriginCommandSubst:
		return "command substitution"
	case OriginHereDoc:
		return "here-document"
	default:
		return "unknown"
	}
}

// Alias is a named textual substitution recognised by the lexer. It is
// shared (via pointer) between the alias table and every Location that
// resulted from expanding it, so loop-prevention can walk back through a
// chain of Source.Original references comparing alias names.
type Alias struct {
	Name        string
	Replacement string
	Global      bool
	Origin      Location
}

// Source describes where a Code buffer's content came from. It is a closed
// sum type: exactly one of the origin-specific fields is meaningful,
// selected by Origin.
type Source struct {
	Origin Origin

	// Path is meaningful when Origin == OriginFile.
	Path string

	// Original is meaningful when Origin is Alias, CommandSubst or HereDoc:
	// it is the Location at which the replacement was triggered, forming a
	// DAG rooted at user input.
	Original *Location

	// AliasUsed is meaningful when Origin == OriginAlias.
	AliasUsed *Alias
}

// File describes a Source whose Origin is OriginFile.
func File(path string) Source { return Source{Origin: OriginFile, Path: path} }

// CommandStringSource describes a Source fed from a single -c style string.
func CommandStringSource() Source { return Source{Origin: OriginCommandString} }

// Stdin describes a Source read interactively from standard input.
func Stdin() Source { return Source{Origin: OriginStdin} }

// AliasSource describes a Source produced by substituting alias.
func AliasSource(original Location, alias *Alias) Source {
	return Source{Origin: OriginAlias, Original: &original, AliasUsed: alias}
}

// CommandSubstSource describes a Source produced by re-lexing the body of a
// command substitution.
func CommandSubstSource(original Location) Source {
	return Source{Origin: OriginCommandSubst, Original: &original}
}

// HereDocSource describes a Source produced by re-lexing here-document
// content for expansion.
func HereDocSource(original Location) Source {
	return Source{Origin: OriginHereDoc, Original: &original}
}

// Code is a shared, append-only character buffer. It grows only at its end
// until Flush is called. Locations handed out against a Code remain valid
// forever: each Location holds its own pointer to the Code it indexes into,
// and the buffer underneath it is never truncated or mutated in place.
//
// The append-only + single-owner-goroutine discipline is what makes this
// safe without a mutex: the lexer is the only writer, and it is never
// called from more than one goroutine concurrently.
type Code struct {
	src       Source
	startLine int
	value     strings.Builder
}

// NewCode starts a fresh buffer with the given origin, numbered from
// startLine (1-based, as the rest of the location model expects).
func NewCode(src Source, startLine int) *Code {
	if startLine < 1 {
		startLine = 1
	}
	return &Code{src: src, startLine: startLine}
}

// Source reports the origin of this buffer.
func (c *Code) Source() Source { return c.src }

// StartLine reports the 1-based line number of the buffer's first byte.
func (c *Code) StartLine() int { return c.startLine }

// Value returns the buffer's content so far.
func (c *Code) Value() string { return c.value.String() }

// Len returns the number of bytes appended so far.
func (c *Code) Len() int { return c.value.Len() }

// Append grows the buffer. It is the only mutator; Code is otherwise
// immutable from a reader's point of view.
func (c *Code) Append(s string) { c.value.WriteString(s) }

// LineAt returns the 1-based line number of the byte at offset, according
// to this Code's own numbering (StartLine plus newlines seen before it).
func (c *Code) LineAt(offset int) int {
	v := c.value.String()
	if offset > len(v) {
		offset = len(v)
	}
	return c.startLine + strings.Count(v[:offset], "\n")
}

// LocationRange returns the Location covering the half-open byte interval
// [start, end) of the current value of c. A range that starts at EOF (i.e.
// start == len(c.Value())) must be empty; that is the sentinel empty-range
// end-of-input Locations use.
func (c *Code) LocationRange(start, end int) Location {
	if start == c.Len() && end != start {
		panic("source: a range starting at end-of-buffer must be empty")
	}
	if start < 0 || end < start || end > c.Len() {
		panic("source: location range out of bounds")
	}
	return Location{Code: c, Range: Range{Start: start, End: end}}
}

// Flush starts a new Code continuing this one: same origin, and a start
// line advanced past everything flushed so far. Locations already handed
// out against c remain valid, since they keep their own reference to c;
// only future reads append to the returned Code.
func (c *Code) Flush() *Code {
	nl := strings.Count(c.value.String(), "\n")
	return NewCode(c.src, c.startLine+nl)
}

// Range is a half-open byte interval within a Code's value.
type Range struct {
	Start, End int
}

func (r Range) Len() int { return r.End - r.Start }

// Location pinpoints a byte range within a specific Code buffer.
type Location struct {
	Code  *Code
	Range Range
}

// Text returns the substring of the buffer this Location covers. It is
// always a valid UTF-8 substring of Code.Value(), by construction.
func (l Location) Text() string {
	v := l.Code.Value()
	return v[l.Range.Start:l.Range.End]
}

// Empty reports whether this Location covers zero bytes, the sentinel used
// for end-of-input positions.
func (l Location) Empty() bool { return l.Range.Len() == 0 }

// Line reports the 1-based line number of the start of this Location,
// within its own Code's numbering.
func (l Location) Line() int { return l.Code.LineAt(l.Range.Start) }

// Column reports the 1-based, byte-counted column of the start of this
// Location on its line.
func (l Location) Column() int {
	v := l.Code.Value()
	start := l.Range.Start
	if start > len(v) {
		start = len(v)
	}
	lineStart := strings.LastIndexByte(v[:start], '\n') + 1
	return start - lineStart + 1
}

// Origin walks through Alias/CommandSubst/HereDoc back-references to the
// Location that ultimately triggered this one, or returns l itself if it
// has no Original (i.e. it traces to literal user input).
func (l Location) Origin() Location {
	for l.Code.src.Original != nil {
		l = *l.Code.src.Original
	}
	return l
}

// AliasChain returns the sequence of aliases whose replacement this
// Location's Code (transitively) lives inside, innermost first. It is what
// loop-prevention (alias substitution) walks to check
// whether a given alias name is already active at this lexical position.
func (l Location) AliasChain() []*Alias {
	var chain []*Alias
	cur := l
	for {
		src := cur.Code.src
		if src.Origin != OriginAlias {
			return chain
		}
		chain = append(chain, src.AliasUsed)
		cur = *src.Original
	}
}

// SourceChar is a single character together with the Location it was read
// from. Every character the lexer buffers carries one of these, which is
// what makes diagnostics pinpoint-accurate across alias expansion.
type SourceChar struct {
	Value    rune
	Location Location
	// LineContinuation marks a character that is part of a "\<newline>"
	// sequence elided by the lexer's line-continuation folding. It is
	// never removed from the buffer, only flagged, so the buffer and
	// Location.Text still hold the literal original text.
	LineContinuation bool
}
