package lexer

import (
	"unicode/utf8"

	"github.com/extsh/extsh/source"
)

// SubstituteAlias splices an alias's replacement text into the input
// stream at the current cursor position. wordStart is the buffer index of
// the first character of the word being replayed, and the cursor must be at
// the end of that word: the characters in between are what the replacement
// takes the place of. On success the cursor is rewound to wordStart
// and the next Peek/Consume calls will walk through the alias's
// replacement text before reaching the original continuation.
//
// Loop prevention and the "eligible for substitution" decision are the
// caller's responsibility (alias.Table.Eligible), since they depend on the
// Location the word would have had — information only the caller (which is
// mid-word-recognition) has at hand.
func (lx *Lexer) SubstituteAlias(wordStart int, a *source.Alias) {
	origin := lx.SpanLocation(wordStart, lx.Index())
	replacementCode := source.NewCode(source.AliasSource(origin, a), origin.Line())

	replaced := make([]source.SourceChar, 0, len(a.Replacement))
	start := replacementCode.Len()
	replacementCode.Append(a.Replacement)
	for i, r := range a.Replacement {
		loc := replacementCode.LocationRange(start+i, start+i+utf8.RuneLen(r))
		replaced = append(replaced, source.SourceChar{Value: r, Location: loc})
	}

	tail := append([]source.SourceChar(nil), lx.buf[lx.Index():]...)
	lx.buf = append(lx.buf[:wordStart], replaced...)
	lx.buf = append(lx.buf, tail...)
	lx.pos = wordStart
	lx.havePeeked = false
}
