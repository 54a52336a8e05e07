// Package token defines the lexical token shapes of the grammar:
// operators, reserved words and the TokenId sum type. It has no dependency
// on ast or lexer so both can depend on it without cycles.
package token

// Operator enumerates every multi-character shell operator recognised by
// the lexer's operator trie used for operator recognition.
type Operator int

const (
	illegalOperator Operator = iota

	AndIf      // &&
	OrIf       // ||
	DSemi      // ;;
	DLess      // <<
	DLessDash  // <<-
	TLess      // <<<
	LessAnd    // <&
	GreatAnd   // >&
	DGreat     // >>
	Clobber    // >|
	LessGreat  // <>
	AppGreatOr // >>|
	Lparen     // (
	Rparen  // )
	Semi    // ;
	Amp     // &
	Pipe    // |
	Newline // \n
	Less    // <
	Great   // >
)

var operatorText = map[Operator]string{
	AndIf: "&&", OrIf: "||", DSemi: ";;",
	DLess: "<<", DLessDash: "<<-", TLess: "<<<",
	LessAnd: "<&", GreatAnd: ">&", DGreat: ">>", Clobber: ">|",
	LessGreat: "<>", AppGreatOr: ">>|",
	Lparen: "(", Rparen: ")", Semi: ";", Amp: "&", Pipe: "|",
	Newline: "\n", Less: "<", Great: ">",
}

func (o Operator) String() string {
	if s, ok := operatorText[o]; ok {
		return s
	}
	return "<illegal operator>"
}

// operatorTrieNode is one node of the trie operator recognition runs over.
// Children are keyed by the next input byte.
type operatorTrieNode struct {
	children map[byte]*operatorTrieNode
	op       Operator
	isOp     bool
}

// OperatorTrie is the root of the operator alphabet trie, walked one byte
// at a time. Built once at package init from the Operator->text table
// above (reversed: text->op).
var OperatorTrie = buildOperatorTrie()

func buildOperatorTrie() *operatorTrieNode {
	root := &operatorTrieNode{children: map[byte]*operatorTrieNode{}}
	for op, text := range operatorText {
		node := root
		for i := 0; i < len(text); i++ {
			b := text[i]
			child, ok := node.children[b]
			if !ok {
				child = &operatorTrieNode{children: map[byte]*operatorTrieNode{}}
				node.children[b] = child
			}
			node = child
		}
		node.op = op
		node.isOp = true
	}
	return root
}

// Step advances the trie by one byte, returning the child node (or nil if
// b cannot continue any operator from here).
func (n *operatorTrieNode) Step(b byte) *operatorTrieNode { return n.children[b] }

// IsOperator reports whether the path walked to reach n spells a complete
// operator, and which one.
func (n *operatorTrieNode) IsOperator() (Operator, bool) { return n.op, n.isOp }

// Keyword enumerates POSIX reserved words. A Token carries a Keyword only
// when its literal spelling matches one of these; whether the keyword is
// *effective* (i.e. actually treated as reserved) is the parser's decision.
type Keyword int

const (
	NoKeyword Keyword = iota
	KwIf
	KwThen
	KwElif
	KwElse
	KwFi
	KwFor
	KwWhile
	KwUntil
	KwDo
	KwDone
	KwCase
	KwIn
	KwEsac
	KwFunction
	KwLbrace // {
	KwRbrace // }
	KwBang   // !
)

var keywordText = map[Keyword]string{
	KwIf: "if", KwThen: "then", KwElif: "elif", KwElse: "else", KwFi: "fi",
	KwFor: "for", KwWhile: "while", KwUntil: "until", KwDo: "do", KwDone: "done",
	KwCase: "case", KwIn: "in", KwEsac: "esac",
	KwFunction: "function", KwLbrace: "{", KwRbrace: "}", KwBang: "!",
}

var textKeyword = func() map[string]Keyword {
	m := make(map[string]Keyword, len(keywordText))
	for k, v := range keywordText {
		m[v] = k
	}
	return m
}()

func (k Keyword) String() string {
	if s, ok := keywordText[k]; ok {
		return s
	}
	return ""
}

// LookupKeyword returns the Keyword matching a literal word spelling, or
// NoKeyword if the spelling isn't reserved.
func LookupKeyword(word string) Keyword {
	if k, ok := textKeyword[word]; ok {
		return k
	}
	return NoKeyword
}

// Kind discriminates the TokenId sum type.
type Kind int

const (
	KindWord Kind = iota
	KindOperator
	KindIoNumber
	KindEndOfInput
)

// Id is the TokenId sum type: Token(Option<Keyword>) |
// Operator(Operator) | IoNumber | EndOfInput.
type Id struct {
	Kind     Kind
	Keyword  Keyword // meaningful when Kind == KindWord
	Operator Operator
}

func WordId(kw Keyword) Id     { return Id{Kind: KindWord, Keyword: kw} }
func OperatorId(op Operator) Id { return Id{Kind: KindOperator, Operator: op} }
func IoNumberId() Id           { return Id{Kind: KindIoNumber} }
func EndOfInputId() Id         { return Id{Kind: KindEndOfInput} }

func (id Id) String() string {
	switch id.Kind {
	case KindWord:
		if id.Keyword != NoKeyword {
			return id.Keyword.String()
		}
		return "<word>"
	case KindOperator:
		return id.Operator.String()
	case KindIoNumber:
		return "<io-number>"
	default:
		return "<eof>"
	}
}
