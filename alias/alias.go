// Package alias implements the alias table consulted by the parser after
// it accepts a word token, and the loop-prevention walk that governs
// alias substitution.
package alias

import "github.com/extsh/extsh/source"

// Table is a mapping from alias name to its definition. It is owned by the
// host environment (variable storage and trap wiring are out of scope),
// not by the lexer or parser, which only read from it.
type Table struct {
	byName map[string]*source.Alias
}

// New returns an empty alias table.
func New() *Table {
	return &Table{byName: make(map[string]*source.Alias)}
}

// Define installs or replaces an alias.
func (t *Table) Define(name, replacement string, global bool, origin source.Location) {
	t.byName[name] = &source.Alias{
		Name:        name,
		Replacement: replacement,
		Global:      global,
		Origin:      origin,
	}
}

// Remove deletes an alias, reporting whether it existed.
func (t *Table) Remove(name string) bool {
	if _, ok := t.byName[name]; !ok {
		return false
	}
	delete(t.byName, name)
	return true
}

// Lookup returns the alias registered under name, if any.
func (t *Table) Lookup(name string) (*source.Alias, bool) {
	a, ok := t.byName[name]
	return a, ok
}

// Names returns every currently-defined alias name, for introspection
// (e.g. an "alias" builtin collaborator, out of scope here).
func (t *Table) Names() []string {
	names := make([]string, 0, len(t.byName))
	for n := range t.byName {
		names = append(names, n)
	}
	return names
}

// Eligible reports whether the alias named name may be substituted at the
// given lexical position: it must be defined, and it must not already be
// active (i.e. no ancestor Location on the alias chain rooted at pos may
// have been produced by expanding the same alias name). This is the
// entirety of loop-prevention: a location in Source.Alias inherits
// recursively from its Original field, so walking pos.AliasChain() once
// bounds the number of substitutions at a fixed source position by the
// table size.
func (t *Table) Eligible(name string, pos source.Location) (*source.Alias, bool) {
	a, ok := t.byName[name]
	if !ok {
		return nil, false
	}
	for _, active := range pos.AliasChain() {
		if active.Name == name {
			return nil, false
		}
	}
	return a, true
}

// IsAfterBlankEndingAlias implements the classic POSIX "trailing blank"
// rule: if the replacement of the alias that produced the character just
// before idx in buf ends in a blank, the *next* word is itself eligible
// for alias substitution. buf is the literal source characters the lexer
// has buffered (in original-position order); idx is the index of the
// first character of the word about to be checked. isBlank classifies a
// rune as shell blank (ASCII whitespace only:
// "locale handling beyond ASCII whitespace classification" is out of
// scope).
func IsAfterBlankEndingAlias(buf []source.SourceChar, idx int, isBlank func(rune) bool) bool {
	i := idx - 1
	for i >= 0 {
		c := buf[i]
		if c.LineContinuation {
			i--
			continue
		}
		if !isBlank(c.Value) {
			return false
		}
		src := c.Location.Code.Source()
		if src.Origin == source.OriginAlias {
			// Is this blank the terminal character of the alias's own
			// replacement text (its range ends where its Code ends)?
			if c.Location.Range.End == c.Location.Code.Len() {
				return true
			}
		}
		i--
	}
	return false
}

// IsBlank is the default ASCII-only blank classifier.
func IsBlank(r rune) bool { return r == ' ' || r == '\t' }
