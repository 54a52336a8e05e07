// Package shellerr defines the single error surface the lexer and parser
// use: a Location-carrying Error wrapping one of a fixed set of causes.
package shellerr

import (
	"fmt"
	"strings"

	"github.com/extsh/extsh/source"
)

// SyntaxKind enumerates the fixed set of syntax errors the lexer and
// parser can report.
type SyntaxKind int

const (
	EmptyParam SyntaxKind = iota
	UnclosedSingleQuote
	UnclosedDoubleQuote
	UnclosedBackquote
	UnclosedParam
	UnclosedArith
	UnclosedCommandSubstitution
	UnclosedParen
	InvalidModifier
	MultipleModifier
	MissingHereDocDelimiter
	MissingHereDocContent
	UnexpectedToken
	InvalidName
)

var syntaxNames = map[SyntaxKind]string{
	EmptyParam:                  "empty parameter name",
	UnclosedSingleQuote:         "unclosed single quote",
	UnclosedDoubleQuote:         "unclosed double quote",
	UnclosedBackquote:           "unclosed backquote",
	UnclosedParam:               "unclosed parameter expansion",
	UnclosedArith:               "unclosed arithmetic expansion",
	UnclosedCommandSubstitution: "unclosed command substitution",
	UnclosedParen:               "unclosed parenthesis",
	InvalidModifier:             "invalid parameter modifier",
	MultipleModifier:            "multiple parameter modifiers",
	MissingHereDocDelimiter:     "missing here-document delimiter",
	MissingHereDocContent:       "missing here-document content",
	UnexpectedToken:             "unexpected token",
	InvalidName:                 "invalid name",
}

func (k SyntaxKind) String() string {
	if s, ok := syntaxNames[k]; ok {
		return s
	}
	return "syntax error"
}

// Cause is the sum type of everything that can go wrong. Exactly one of
// IOCause, UnknownCause, EndOfInputCause or SyntaxCause is present in a
// given Error.
type Cause interface {
	isCause()
	fmt.Stringer
}

// IOCause wraps an error from the input callback or the System.
type IOCause struct{ Err error }

func (IOCause) isCause()         {}
func (c IOCause) String() string { return c.Err.Error() }

// UnknownCause is the "parser said no" sentinel consumed internally by
// Maybe/Many combinators; it must never be surfaced to a top-level caller.
type UnknownCause struct{}

func (UnknownCause) isCause()         {}
func (UnknownCause) String() string { return "unknown (internal sentinel)" }

// EndOfInputCause reports that input ended where more was required. An
// optional parser treats this the same as UnknownCause; a non-optional one
// surfaces it.
type EndOfInputCause struct{}

func (EndOfInputCause) isCause()         {}
func (EndOfInputCause) String() string { return "end of input" }

// SyntaxCause is a SyntaxKind plus an optional free-form detail.
type SyntaxCause struct {
	Kind   SyntaxKind
	Detail string
}

func (SyntaxCause) isCause() {}
func (c SyntaxCause) String() string {
	if c.Detail == "" {
		return c.Kind.String()
	}
	return fmt.Sprintf("%s: %s", c.Kind, c.Detail)
}

// Error is what every fallible lexer/parser operation returns: a Cause
// plus the Location it happened at (for IOCause, "where we were about to
// read"; for SyntaxCause, the opening token's Location).
type Error struct {
	Cause    Cause
	Location source.Location
}

func (e *Error) Error() string { return e.Cause.String() }

// IsUnknown reports whether err is the internal "production inapplicable"
// sentinel, as opposed to a real error that should propagate.
func IsUnknown(err error) bool {
	se, ok := err.(*Error)
	if !ok {
		return false
	}
	_, ok = se.Cause.(UnknownCause)
	return ok
}

// IsEndOfInput reports whether err is the end-of-input cause.
func IsEndOfInput(err error) bool {
	se, ok := err.(*Error)
	if !ok {
		return false
	}
	_, ok = se.Cause.(EndOfInputCause)
	return ok
}

// New builds an *Error from a cause and a location.
func New(cause Cause, loc source.Location) *Error {
	return &Error{Cause: cause, Location: loc}
}

// Syntax builds a *Error with a SyntaxCause.
func Syntax(kind SyntaxKind, loc source.Location) *Error {
	return New(SyntaxCause{Kind: kind}, loc)
}

// SyntaxDetail is like Syntax but attaches a free-form detail string.
func SyntaxDetail(kind SyntaxKind, detail string, loc source.Location) *Error {
	return New(SyntaxCause{Kind: kind, Detail: detail}, loc)
}

// Unknown builds the "production inapplicable" sentinel at loc.
func Unknown(loc source.Location) *Error { return New(UnknownCause{}, loc) }

// EndOfInput builds the end-of-input cause at loc.
func EndOfInput(loc source.Location) *Error { return New(EndOfInputCause{}, loc) }

// IO wraps an I/O error from the input callback or System at loc.
func IO(err error, loc source.Location) *Error { return New(IOCause{Err: err}, loc) }

// Annotate formats err with a source-aware, single-line underline of the
// offending range in its original file, chained through any alias or
// command-substitution back-references. It is the top-level caller's
// formatting routine used for diagnostics.
func Annotate(err *Error) string {
	var b strings.Builder
	loc := err.Location
	fmt.Fprintf(&b, "%s\n", err.Cause.String())
	for {
		src := loc.Code.Source()
		name := src.Origin.String()
		if src.Origin == source.OriginFile {
			name = src.Path
		}
		fmt.Fprintf(&b, "  at %s:%d:%d\n", name, loc.Line(), loc.Column())
		underline(&b, loc)
		if src.Original == nil {
			break
		}
		fmt.Fprintf(&b, "  (expanded from %s)\n", src.Origin)
		loc = *src.Original
	}
	return b.String()
}

func underline(b *strings.Builder, loc source.Location) {
	v := loc.Code.Value()
	start := loc.Range.Start
	lineStart := strings.LastIndexByte(v[:start], '\n') + 1
	lineEnd := strings.IndexByte(v[start:], '\n')
	if lineEnd < 0 {
		lineEnd = len(v)
	} else {
		lineEnd += start
	}
	line := v[lineStart:lineEnd]
	fmt.Fprintf(b, "    %s\n", line)
	col := start - lineStart
	length := loc.Range.Len()
	if length < 1 {
		length = 1
	}
	fmt.Fprintf(b, "    %s%s\n", strings.Repeat(" ", col), strings.Repeat("^", length))
}
