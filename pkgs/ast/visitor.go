package ast

import "github.com/aledsdavies/cmakeparse/core/invariant"

// Visitor computes a value of type R from a tree, one method per node kind.
//
// Embed BaseVisitor to get the default behaviour for the kinds you do not
// override.
type Visitor[R any] interface {
	VisitFile(*File) R
	VisitCommandInvocation(*CommandInvocation) R
	VisitSingleArgument(*SingleArgument) R
	VisitCompoundArgument(*CompoundArgument) R
}

// Visit dispatches n to the method of v matching its kind
func Visit[R any](n Node, v Visitor[R]) R {
	switch n := n.(type) {
	case *File:
		return v.VisitFile(n)
	case *CommandInvocation:
		return v.VisitCommandInvocation(n)
	case *SingleArgument:
		return v.VisitSingleArgument(n)
	case *CompoundArgument:
		return v.VisitCompoundArgument(n)
	}
	invariant.Precondition(false, "unknown node type %T", n)
	var zero R
	return zero
}

// BaseVisitor provides the default behaviour for every node kind: visit the
// children in order and return the last child's result, or Default when the
// node has no children.
//
// Children are dispatched through Self so that methods overridden by an
// embedding type are used for descendants. Set Self to the embedding value:
//
//	type counter struct{ ast.BaseVisitor[int] }
//
//	v := &counter{}
//	v.Self = v
//	ast.Visit(file, v)
//
// When Done is set and reports true for a child's result, the remaining
// siblings are skipped and that result is returned, which stops the whole
// traversal as long as overriding methods pass child results upward.
type BaseVisitor[R any] struct {
	Self    Visitor[R]
	Default R
	Done    func(R) bool
}

// VisitChildren applies the default aggregation to the children of n
func (b *BaseVisitor[R]) VisitChildren(n Node) R {
	self := b.Self
	if self == nil {
		self = b
	}

	result := b.Default
	for _, child := range n.Children() {
		result = Visit(child, self)
		if b.Stop(result) {
			break
		}
	}
	return result
}

// Stop reports whether result ends the traversal
func (b *BaseVisitor[R]) Stop(result R) bool {
	return b.Done != nil && b.Done(result)
}

func (b *BaseVisitor[R]) VisitFile(n *File) R                           { return b.VisitChildren(n) }
func (b *BaseVisitor[R]) VisitCommandInvocation(n *CommandInvocation) R { return b.VisitChildren(n) }
func (b *BaseVisitor[R]) VisitSingleArgument(n *SingleArgument) R       { return b.VisitChildren(n) }
func (b *BaseVisitor[R]) VisitCompoundArgument(n *CompoundArgument) R   { return b.VisitChildren(n) }
