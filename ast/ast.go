// Package ast defines the language-neutral AST shape:
// words and their parts, parameter expansions, redirections, commands,
// pipelines, and-or lists and the top-level List.
package ast

import "github.com/extsh/extsh/source"

// Node is implemented by every AST node that has a single well-defined
// source Location. Composite nodes (List, Pipeline, AndOrList, Item,
// SimpleCommand) don't implement it directly since they span their
// children's locations instead of owning one of their own.
type Node interface {
	Location() source.Location
}

// ---- Text units (inside double quotes, $(( )), or as raw $x expansions) ----

// TextUnit is one piece of text: a literal character, an escaped one, or
// one of the three expansion forms.
type TextUnit interface {
	Node
	textUnit()
}

type Literal struct {
	Char rune
	Loc  source.Location
}

type Backslashed struct {
	Char rune
	Loc  source.Location
}

// RawParam is an unbraced parameter expansion: $name, $@, $*, $#, $?, $-,
// $!, $0, or a single digit.
type RawParam struct {
	Name string
	Loc  source.Location
}

// BracedParam is a ${...} parameter expansion.
type BracedParam struct {
	Param Param
	Loc   source.Location
}

// CommandSubst is a $(...) command substitution. Content is the verbatim
// body text, captured for later re-parsing or display.
type CommandSubst struct {
	Content string
	Stmts   List
	Loc     source.Location
}

// Backquote is a `...` command substitution.
type Backquote struct {
	Units []BackquoteUnit
	Stmts List
	Loc   source.Location
}

// Arith is a $((...)) arithmetic expansion.
type Arith struct {
	Content Text
	Loc     source.Location
}

func (*Literal) textUnit()      {}
func (*Backslashed) textUnit()  {}
func (*RawParam) textUnit()     {}
func (*BracedParam) textUnit()  {}
func (*CommandSubst) textUnit() {}
func (*Backquote) textUnit()    {}
func (*Arith) textUnit()        {}

func (l *Literal) Location() source.Location      { return l.Loc }
func (l *Backslashed) Location() source.Location   { return l.Loc }
func (p *RawParam) Location() source.Location      { return p.Loc }
func (p *BracedParam) Location() source.Location   { return p.Loc }
func (c *CommandSubst) Location() source.Location  { return c.Loc }
func (b *Backquote) Location() source.Location     { return b.Loc }
func (a *Arith) Location() source.Location         { return a.Loc }

// Text is a sequence of TextUnits, e.g. the content of a double-quoted
// string or an arithmetic expansion.
type Text []TextUnit

// BackquoteUnit is one piece of the content of a backquoted command
// substitution: a literal character, or a backslash escape whose
// escapable set depends on whether the backquote itself lives inside a
// double-quoted context.
type BackquoteUnit interface {
	Node
	backquoteUnit()
}

type BqLiteral struct {
	Char rune
	Loc  source.Location
}

type BqBackslashed struct {
	Char rune
	Loc  source.Location
}

func (*BqLiteral) backquoteUnit()     {}
func (*BqBackslashed) backquoteUnit() {}

func (b *BqLiteral) Location() source.Location     { return b.Loc }
func (b *BqBackslashed) Location() source.Location { return b.Loc }

// ---- Words ----

// WordUnit is one piece of a Word.
type WordUnit interface {
	Node
	wordUnit()
}

type Unquoted struct {
	Unit TextUnit
}

type SingleQuote struct {
	Value string
	Loc   source.Location
}

type DoubleQuote struct {
	Content Text
	Loc     source.Location
}

type TildeExpansion struct {
	Name string // empty means the current user
	Loc  source.Location
}

func (*Unquoted) wordUnit()       {}
func (*SingleQuote) wordUnit()    {}
func (*DoubleQuote) wordUnit()    {}
func (*TildeExpansion) wordUnit() {}

func (u *Unquoted) Location() source.Location       { return u.Unit.Location() }
func (q *SingleQuote) Location() source.Location    { return q.Loc }
func (q *DoubleQuote) Location() source.Location    { return q.Loc }
func (t *TildeExpansion) Location() source.Location { return t.Loc }

// Word is a list of WordUnits contiguous to each other, delimited by word
// boundaries (whitespace or an operator).
type Word struct {
	Units []WordUnit
	Loc   source.Location
}

func (w *Word) Location() source.Location { return w.Loc }

// IsEmpty reports whether the word has no parts at all (an
// empty word, e.g. a bare pair of quotes: "").
func (w *Word) IsEmpty() bool { return len(w.Units) == 0 }

// ---- Parameter expansions ----

type ModifierKind int

const (
	ModNone ModifierKind = iota
	ModLength
	ModSwitch
	ModTrim
)

type SwitchType int

const (
	SwAlter SwitchType = iota
	SwDefault
	SwAssign
	SwError
)

type SwitchCond int

const (
	CondUnset SwitchCond = iota
	CondUnsetOrEmpty
)

type TrimSide int

const (
	TrimPrefix TrimSide = iota
	TrimSuffix
)

type TrimLength int

const (
	TrimShortest TrimLength = iota
	TrimLongest
)

// Modifier is the optional suffix (or length prefix) on a braced parameter
// expansion.
type Modifier struct {
	Kind ModifierKind

	// Meaningful when Kind == ModSwitch.
	SwitchType SwitchType
	SwitchCond SwitchCond
	SwitchWord *Word

	// Meaningful when Kind == ModTrim.
	TrimSide   TrimSide
	TrimLength TrimLength
	TrimWord   *Word
}

// Param is a parameter name plus an optional modifier.
type Param struct {
	Name     string
	Modifier Modifier
	Loc      source.Location
}

func (p Param) Location() source.Location { return p.Loc }

// ---- Redirections ----

type RedirOp int

const (
	FileIn RedirOp = iota
	FileInOut
	FileOut
	FileAppend
	FileClobber
	FdIn
	FdOut
	RedirPipe
	RedirString
)

// DefaultFd reports the default file descriptor for a redirection operator
// when none is given explicitly: 0 for input operators, 1 for output ones.
func (op RedirOp) DefaultFd() int {
	switch op {
	case FileIn, FdIn, FileInOut, RedirString:
		return 0
	default:
		return 1
	}
}

// HereDoc is the deferred body of a << or <<- redirection.
type HereDoc struct {
	Delimiter  Word
	RemoveTabs bool
	Content    Text
	Quoted     bool // whether the delimiter was quoted (disables expansion of Content)
}

// RedirBody is either a normal redirection operand or a here-document.
type RedirBody interface {
	redirBody()
}

type NormalRedir struct {
	Op      RedirOp
	Operand Word
}

func (NormalRedir) redirBody() {}
func (*HereDoc) redirBody()    {}

// Redir is one redirection attached to a command.
type Redir struct {
	Fd   *int // nil means "use the operator's default"
	Body RedirBody
	Loc  source.Location
}

func (r *Redir) Location() source.Location { return r.Loc }

// EffectiveFd returns the redirection's target file descriptor, applying
// the operator's default when Fd is unset.
func (r *Redir) EffectiveFd() int {
	if r.Fd != nil {
		return *r.Fd
	}
	if nr, ok := r.Body.(NormalRedir); ok {
		return nr.Op.DefaultFd()
	}
	return 0
}

// ---- Assignments ----

// AssignValue is either a scalar word or a parenthesised array literal.
type AssignValue interface {
	assignValue()
}

type ScalarValue struct{ Word Word }
type ArrayValue struct{ Words []Word }

func (ScalarValue) assignValue() {}
func (ArrayValue) assignValue()  {}

type Assign struct {
	Name  string
	Value AssignValue
	Loc   source.Location
}

func (a *Assign) Location() source.Location { return a.Loc }

// ---- Commands ----

// SimpleCommand is the smallest executable unit: assignments, words, and
// redirections, at least one of which must be present overall.
type SimpleCommand struct {
	Assigns []*Assign
	Words   []Word
	Redirs  []*Redir
}

// CompoundCommand is the sum of compound command shapes.
type CompoundCommand interface {
	Node
	compoundCommand()
}

type Grouping struct {
	Body     List
	Lbrace   source.Location
	Rbrace   source.Location
}

type Subshell struct {
	Body   List
	Lparen source.Location
	Rparen source.Location
}

// ForClause iterates Name over Values (nil means "over $@").
type ForClause struct {
	Name   string
	Values *[]Word
	Body   List
	For    source.Location
}

type WhileClause struct {
	Cond  List
	Body  List
	While source.Location
}

type UntilClause struct {
	Cond  List
	Body  List
	Until source.Location
}

type Elif struct {
	Cond List
	Body List
}

type IfClause struct {
	Cond  List
	Body  List
	Elifs []Elif
	Else  *List
	If    source.Location
}

type CaseItem struct {
	Patterns []Word
	Body     List
}

type CaseClause struct {
	Subject Word
	Items   []CaseItem
	Case    source.Location
}

func (*Grouping) compoundCommand()    {}
func (*Subshell) compoundCommand()    {}
func (*ForClause) compoundCommand()   {}
func (*WhileClause) compoundCommand() {}
func (*UntilClause) compoundCommand() {}
func (*IfClause) compoundCommand()    {}
func (*CaseClause) compoundCommand()  {}

func (g *Grouping) Location() source.Location    { return g.Lbrace }
func (s *Subshell) Location() source.Location    { return s.Lparen }
func (f *ForClause) Location() source.Location   { return f.For }
func (w *WhileClause) Location() source.Location { return w.While }
func (u *UntilClause) Location() source.Location { return u.Until }
func (c *IfClause) Location() source.Location    { return c.If }
func (c *CaseClause) Location() source.Location  { return c.Case }

// FullCompoundCommand pairs a CompoundCommand with the redirections that
// apply to it as a whole.
type FullCompoundCommand struct {
	Command CompoundCommand
	Redirs  []*Redir
}

func (f *FullCompoundCommand) Location() source.Location { return f.Command.Location() }

// FunctionDefinition is a named function declaration.
type FunctionDefinition struct {
	HasKeyword bool
	Name       Word
	Body       FullCompoundCommand
	Loc        source.Location
}

func (f *FunctionDefinition) Location() source.Location { return f.Loc }

// Command is the sum of everything that can sit directly in a Stmt: a
// simple command, a (possibly redirected) compound command, or a function
// definition.
type Command interface {
	Node
	commandNode()
}

// simpleCommandNode lets *SimpleCommand implement Command by giving it a
// location derived from its first word/assign/redir.
type simpleCommandNode struct {
	*SimpleCommand
	Loc source.Location
}

func NewSimpleCommandNode(sc *SimpleCommand, loc source.Location) Command {
	return &simpleCommandNode{SimpleCommand: sc, Loc: loc}
}

func (*simpleCommandNode) commandNode()              {}
func (n *simpleCommandNode) Location() source.Location { return n.Loc }

func (*FullCompoundCommand) commandNode() {}
func (*FunctionDefinition) commandNode()  {}

// AsSimpleCommand type-asserts c as a simple command, if it is one.
func AsSimpleCommand(c Command) (*SimpleCommand, bool) {
	n, ok := c.(*simpleCommandNode)
	if !ok {
		return nil, false
	}
	return n.SimpleCommand, true
}

// ---- Pipelines, and-or lists, items, lists ----

// Pipeline is one or more commands joined by |, optionally negated by !.
type Pipeline struct {
	Commands []Command
	Negation bool
}

type AndOrOp int

const (
	AndThen AndOrOp = iota
	OrElse
)

type AndOrRest struct {
	Op       AndOrOp
	Pipeline Pipeline
}

// AndOrList is a Pipeline followed by zero or more (&&|| Pipeline) pairs.
type AndOrList struct {
	First Pipeline
	Rest  []AndOrRest
}

// Item is one and-or list plus whether it runs asynchronously (trailing &).
type Item struct {
	AndOr   AndOrList
	IsAsync bool
}

// List is a sequence of Items, the top-level shape the parser produces.
type List []Item
