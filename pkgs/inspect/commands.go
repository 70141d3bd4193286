// Package inspect answers questions about a parsed CMake file: which commands
// it runs, which variables it reads, what CMake version it asks for and which
// command names look misspelled.
package inspect

import (
	"strings"

	"github.com/aledsdavies/cmakeparse/pkgs/ast"
)

// Command is a flattened view of an invocation
type Command struct {
	Name      string   // lower-cased
	Args      []string // decoded values, compound arguments flattened in order
	Line      int
	Column    int
	Recovered bool
	Node      *ast.CommandInvocation
}

// Commands returns every invocation in file in source order
func Commands(file *ast.File) []Command {
	if file == nil {
		return nil
	}

	f := newFlattener()
	commands := make([]Command, 0, len(file.Commands))
	for _, cmd := range file.Commands {
		commands = append(commands, Command{
			Name:      strings.ToLower(cmd.Name),
			Args:      ast.Visit[[]string](cmd, f),
			Line:      cmd.NameLoc.Start.Line,
			Column:    cmd.NameLoc.Start.Column,
			Recovered: cmd.Recovered,
			Node:      cmd,
		})
	}
	return commands
}

// Args returns the decoded argument values of cmd with compound arguments
// flattened in order.
func Args(cmd *ast.CommandInvocation) []string {
	return ast.Visit[[]string](cmd, newFlattener())
}

type flattener struct {
	ast.BaseVisitor[[]string]
}

func newFlattener() *flattener {
	f := &flattener{}
	f.Self = f
	return f
}

func (f *flattener) VisitCommandInvocation(n *ast.CommandInvocation) []string {
	return f.flatten(n.Arguments)
}

func (f *flattener) VisitCompoundArgument(n *ast.CompoundArgument) []string {
	return f.flatten(n.Arguments)
}

func (f *flattener) VisitSingleArgument(n *ast.SingleArgument) []string {
	return []string{n.Value}
}

func (f *flattener) flatten(args []ast.Argument) []string {
	var out []string
	for _, arg := range args {
		out = append(out, ast.Visit[[]string](arg, f)...)
	}
	return out
}
