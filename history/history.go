// Package history persists the shell's append-only command history: one
// line per executed command, written so that a crash mid-write never
// corrupts the file a running shell or a concurrently-starting shell is
// reading. This is ambient infrastructure the core hands off to (loading an
// rc file and deciding what to log are the top-level binary's job), not part
// of the lexer/parser/job/rsystem core itself.
package history

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/google/renameio/v2/maybe"
	"github.com/pkg/diff"
)

// Entry is one recorded command.
type Entry struct {
	// Line is the literal source text of the command, normally the printed
	// form of the Item the parser produced for it. It must not contain a
	// trailing newline; File adds exactly one between entries.
	Line string
}

// File is an append-only history log backed by a single path on disk. Its
// zero value is not usable; use Open.
type File struct {
	path    string
	entries []Entry
}

// Open reads path's existing entries (if any) into memory. A missing file is
// not an error: it is treated as an empty history, created on the first
// Append.
func Open(path string) (*File, error) {
	f := &File{path: path}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return f, nil
		}
		return nil, err
	}
	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(nil, 1<<20)
	for sc.Scan() {
		line := sc.Text()
		if line == "" {
			continue
		}
		f.entries = append(f.entries, Entry{Line: line})
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return f, nil
}

// Len reports the number of entries currently held in memory.
func (f *File) Len() int { return len(f.entries) }

// At returns the i'th entry, oldest first.
func (f *File) At(i int) Entry { return f.entries[i] }

// Last returns the most recently appended entry and true, or the zero Entry
// and false if the history is empty.
func (f *File) Last() (Entry, bool) {
	if len(f.entries) == 0 {
		return Entry{}, false
	}
	return f.entries[len(f.entries)-1], true
}

// Append records line as a new entry and rewrites the backing file.
// Rewriting (rather than O_APPEND) is what lets this use an atomic
// rename-into-place: maybe.WriteFile writes to a temp file in the same
// directory and renames it over path, so a reader never observes a
// truncated or half-written file, and a crash mid-write leaves the previous
// history intact.
func (f *File) Append(line string) error {
	line = strings.TrimRight(line, "\n")
	if line == "" {
		return nil
	}
	f.entries = append(f.entries, Entry{Line: line})
	return f.flush()
}

func (f *File) flush() error {
	var buf bytes.Buffer
	for _, e := range f.entries {
		buf.WriteString(e.Line)
		buf.WriteByte('\n')
	}
	return maybe.WriteFile(f.path, buf.Bytes(), 0o600)
}

// TraceDiff writes a unified diff between the previous history entry and
// candidate to w, or writes nothing and returns false if there is no
// previous entry to compare against. It backs the --trace-diff debug flag:
// seeing what changed between one parsed-and-reprinted command and the
// next, e.g. to catch a printer/parser round-trip regression interactively.
func TraceDiff(w io.Writer, previous Entry, candidate string) (bool, error) {
	if previous.Line == "" {
		return false, nil
	}
	a := strings.NewReader(previous.Line + "\n")
	b := strings.NewReader(strings.TrimRight(candidate, "\n") + "\n")
	if err := diff.Text("previous", "candidate", a, b, w); err != nil {
		return false, fmt.Errorf("history: trace-diff: %w", err)
	}
	return true, nil
}
