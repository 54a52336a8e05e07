package lexer

import (
	"bufio"
	"io"
)

// LineContext is passed to Input.NextLine. IsFirstLine is true only for the
// very first call against a given Code buffer.
type LineContext struct {
	IsFirstLine bool
}

// Input is the external collaborator the lexer pulls characters from. An
// empty string return denotes end-of-input, and that emptiness is sticky:
// once Input has reported end-of-input, the Lexer never calls it again.
type Input interface {
	NextLine(ctx LineContext) (string, error)
}

// InputFunc adapts a plain function to Input.
type InputFunc func(ctx LineContext) (string, error)

func (f InputFunc) NextLine(ctx LineContext) (string, error) { return f(ctx) }

// StringInput returns s as a single line, then end-of-input forever after.
// It is the callback a command-string (-c) source or a command/here-doc
// substitution's re-lexed body uses.
func StringInput(s string) Input {
	done := false
	return InputFunc(func(ctx LineContext) (string, error) {
		if done {
			return "", nil
		}
		done = true
		return s, nil
	})
}

// ReaderInput returns lines read one at a time from r (including their
// trailing "\n", except possibly on the final line), for driving the lexer
// over a live stream such as stdin or an opened script file. Once r reports
// io.EOF, subsequent calls keep returning "", nil per Input's sticky
// end-of-input contract.
func ReaderInput(r *bufio.Reader) Input {
	done := false
	return InputFunc(func(ctx LineContext) (string, error) {
		if done {
			return "", nil
		}
		line, err := r.ReadString('\n')
		if err == io.EOF {
			done = true
			err = nil
		} else if err != nil {
			return "", err
		}
		return line, err
	})
}

// LineSliceInput returns the given lines in order (each should normally end
// in "\n" except possibly the last), then end-of-input. Useful for tests
// and for feeding here-document bodies drained line by line.
func LineSliceInput(lines []string) Input {
	i := 0
	return InputFunc(func(ctx LineContext) (string, error) {
		if i >= len(lines) {
			return "", nil
		}
		line := lines[i]
		i++
		return line, nil
	})
}
