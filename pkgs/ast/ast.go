// Package ast defines the CMake syntax tree and its two traversal protocols:
// Visitor, which computes a value, and Listener, which receives enter/exit
// callbacks.
//
// Trees are built once by the parser and never mutated afterwards, so they may
// be shared between goroutines and traversed concurrently.
package ast

import (
	"iter"
	"strings"

	"github.com/aledsdavies/cmakeparse/pkgs/lexer"
)

// Node is implemented by every syntax tree node
type Node interface {
	Span() lexer.Span
	Children() []Node
	String() string
	node()
}

// Argument is a SingleArgument or a CompoundArgument
type Argument interface {
	Node
	argument()
}

// File is the root of a syntax tree
type File struct {
	Commands []*CommandInvocation // source order
	Comments []Comment            // only when parsed with comments kept
	Loc      lexer.Span
}

// Comment is a line or bracket comment. Comments are not nodes: traversals
// do not see them.
type Comment struct {
	Text    string // source text including the leading '#'
	Bracket bool
	Loc     lexer.Span
}

// CommandInvocation is a single name(args...) statement
type CommandInvocation struct {
	Name      string // verbatim; compare with strings.EqualFold
	NameLoc   lexer.Span
	Arguments []Argument
	Loc       lexer.Span

	// Recovered is set when the invocation was built despite a syntax or
	// lexical error inside it.
	Recovered bool
}

// ArgumentKind is the lexical form of a SingleArgument
type ArgumentKind int

const (
	Unquoted ArgumentKind = iota
	Quoted
	Bracket
)

func (k ArgumentKind) String() string {
	switch k {
	case Unquoted:
		return "unquoted"
	case Quoted:
		return "quoted"
	case Bracket:
		return "bracket"
	default:
		return "unknown"
	}
}

// SingleArgument is one bracket, quoted or unquoted argument
type SingleArgument struct {
	Kind  ArgumentKind
	Value string // decoded text
	Raw   string // source text including delimiters
	Level int    // '=' count of a bracket argument
	Loc   lexer.Span
}

// CompoundArgument is a parenthesized group of arguments
type CompoundArgument struct {
	Arguments []Argument
	Loc       lexer.Span
	Recovered bool // closed by recovery instead of a matching ')'
}

func (*File) node()              {}
func (*CommandInvocation) node() {}
func (*SingleArgument) node()    {}
func (*CompoundArgument) node()  {}

func (*SingleArgument) argument()   {}
func (*CompoundArgument) argument() {}

func (f *File) Span() lexer.Span              { return f.Loc }
func (c *CommandInvocation) Span() lexer.Span { return c.Loc }
func (s *SingleArgument) Span() lexer.Span    { return s.Loc }
func (c *CompoundArgument) Span() lexer.Span  { return c.Loc }

func (f *File) Children() []Node {
	children := make([]Node, len(f.Commands))
	for i, c := range f.Commands {
		children[i] = c
	}
	return children
}

func (c *CommandInvocation) Children() []Node { return argumentNodes(c.Arguments) }
func (s *SingleArgument) Children() []Node    { return nil }
func (c *CompoundArgument) Children() []Node  { return argumentNodes(c.Arguments) }

func argumentNodes(args []Argument) []Node {
	if len(args) == 0 {
		return nil
	}
	children := make([]Node, len(args))
	for i, a := range args {
		children[i] = a
	}
	return children
}

func (f *File) String() string {
	parts := make([]string, len(f.Commands))
	for i, c := range f.Commands {
		parts[i] = c.String()
	}
	return strings.Join(parts, "\n")
}

func (c *CommandInvocation) String() string {
	return c.Name + "(" + joinArguments(c.Arguments) + ")"
}

// String returns the source form of the argument, re-quoting the decoded
// value when no source text is available. A split list element that starts
// with a bracket opener is quoted so it does not re-lex as a bracket.
func (s *SingleArgument) String() string {
	if s.Kind == Unquoted && lexer.StartsBracket(s.Raw) {
		return lexer.Quote(s.Value)
	}
	if s.Raw != "" {
		return s.Raw
	}
	switch s.Kind {
	case Bracket:
		eq := strings.Repeat("=", s.Level)
		return "[" + eq + "[" + s.Value + "]" + eq + "]"
	case Unquoted:
		if s.Value != "" && lexer.IsIdentifier(s.Value) {
			return s.Value
		}
	}
	return lexer.Quote(s.Value)
}

func (c *CompoundArgument) String() string {
	return "(" + joinArguments(c.Arguments) + ")"
}

func joinArguments(args []Argument) string {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = a.String()
	}
	return strings.Join(parts, " ")
}

// Preorder yields root and all its descendants in source order, parents
// before children. It uses an explicit stack, so nesting depth is bounded
// only by memory.
func Preorder(root Node) iter.Seq[Node] {
	return func(yield func(Node) bool) {
		if root == nil {
			return
		}
		stack := []Node{root}
		for len(stack) > 0 {
			n := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if !yield(n) {
				return
			}
			children := n.Children()
			for i := len(children) - 1; i >= 0; i-- {
				stack = append(stack, children[i])
			}
		}
	}
}

// Count returns the number of nodes in the subtree rooted at n
func Count(n Node) int {
	total := 0
	for range Preorder(n) {
		total++
	}
	return total
}
