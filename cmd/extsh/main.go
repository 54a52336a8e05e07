// Command extsh is a thin proof-of-concept binary over the shell core: it
// parses shell source into an AST and prints it back out, while wiring up
// the job-control and async-I/O runtime state a real execution engine would
// drive. It does not execute anything itself — evaluating the AST and
// running child commands is the execution engine's job, which this binary
// does not implement.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/term"

	"github.com/extsh/extsh/alias"
	"github.com/extsh/extsh/ast"
	"github.com/extsh/extsh/history"
	"github.com/extsh/extsh/job"
	"github.com/extsh/extsh/lexer"
	"github.com/extsh/extsh/parser"
	"github.com/extsh/extsh/rsystem"
	"github.com/extsh/extsh/source"
)

var (
	command    = flag.String("c", "", "command string to parse instead of reading a script")
	historyLoc = flag.String("history", "", "path to an append-only history file (default: no history)")
	traceDiff  = flag.Bool("trace-diff", false, "show a diff between the previous history entry and each newly parsed command")
)

func main() { os.Exit(main1()) }

// main1 is split out from main so testscript.RunMain can register it as the
// "extsh" command, which the scripts run by re-executing the test binary.
func main1() int {
	flag.Parse()
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "extsh:", err)
		return 1
	}
	return 0
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var hist *history.File
	if *historyLoc != "" {
		var err error
		hist, err = history.Open(*historyLoc)
		if err != nil {
			return fmt.Errorf("opening history: %w", err)
		}
	}

	jobs := job.NewSet()
	sys := rsystem.New(rsystem.NewUnixSystem())
	aliases := alias.New()

	// A real interactive shell would spawn a loop calling sys.Select in the
	// background so ReadAsync/WaitForSignal callers elsewhere in the
	// process make progress; this sketch shows the shape without anything
	// yet registered to wake.
	go driveScheduler(ctx, sys)

	if *command != "" {
		return parseAndPrint(lexer.StringInput(*command), source.CommandStringSource(), aliases, hist, jobs)
	}

	if flag.NArg() == 0 {
		if term.IsTerminal(int(os.Stdin.Fd())) {
			fmt.Fprint(os.Stdout, "$ ")
		}
		return parseAndPrint(lexer.ReaderInput(bufio.NewReader(os.Stdin)), source.Stdin(), aliases, hist, jobs)
	}

	for _, path := range flag.Args() {
		if err := parsePath(path, aliases, hist, jobs); err != nil {
			return err
		}
	}
	return nil
}

func parsePath(path string, aliases *alias.Table, hist *history.File, jobs *job.JobSet) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return parseAndPrint(lexer.ReaderInput(bufio.NewReader(f)), source.File(path), aliases, hist, jobs)
}

// parseAndPrint parses one program and prints its single-line AST form. Any
// top-level item parsed with a trailing "&" is recorded in jobs as a
// placeholder (pid 0, JobControlled) standing in for the real PID an
// execution engine would assign once it actually forks the pipeline; this
// is here only to exercise JobSet.Add's bookkeeping end to end.
func parseAndPrint(input lexer.Input, src source.Source, aliases *alias.Table, hist *history.File, jobs *job.JobSet) error {
	lx := lexer.New(input, src, 1)
	p := parser.New(lx, aliases)

	list, err := p.Program()
	if err != nil {
		return err
	}
	for _, item := range list {
		if item.IsAsync {
			j := job.New(0)
			j.JobControlled = true
			j.Name = (ast.List{{AndOr: item.AndOr}}).String()
			jobs.Add(j)
		}
	}

	printed := list.String()
	fmt.Fprintln(os.Stdout, printed)

	if hist != nil {
		if *traceDiff {
			if prev, ok := hist.Last(); ok {
				if _, err := history.TraceDiff(os.Stderr, prev, printed); err != nil {
					fmt.Fprintln(os.Stderr, "extsh: trace-diff:", err)
				}
			}
		}
		if err := hist.Append(printed); err != nil {
			return fmt.Errorf("appending history: %w", err)
		}
	}
	return nil
}

// driveScheduler is the single goroutine permitted to call sys.Select,
// ticking it until ctx is cancelled. Every ReadAsync/WriteAll/WaitForSignal
// caller elsewhere in the process only ever makes progress because this
// loop keeps running.
func driveScheduler(ctx context.Context, sys *rsystem.SharedSystem) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}
		if err := sys.Select(); err != nil {
			return
		}
	}
}
