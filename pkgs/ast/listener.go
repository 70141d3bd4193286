package ast

import "github.com/aledsdavies/cmakeparse/core/invariant"

// Listener receives a callback when Walk enters a node, before its children,
// and another when it exits the node, after all of its children.
type Listener interface {
	EnterFile(*File)
	ExitFile(*File)
	EnterCommandInvocation(*CommandInvocation)
	ExitCommandInvocation(*CommandInvocation)
	EnterSingleArgument(*SingleArgument)
	ExitSingleArgument(*SingleArgument)
	EnterCompoundArgument(*CompoundArgument)
	ExitCompoundArgument(*CompoundArgument)
}

// Stopper is implemented by listeners that can end a walk early
type Stopper interface {
	Stopped() bool
}

// BaseListener implements Listener with no-op callbacks and Stopper with a
// flag set by Stop. Embed it and override the callbacks you need.
type BaseListener struct {
	stopped bool
}

// Stop ends the walk after the current callback returns. No further
// callbacks are made, including exits of nodes already entered.
func (b *BaseListener) Stop() { b.stopped = true }

func (b *BaseListener) Stopped() bool { return b.stopped }

func (*BaseListener) EnterFile(*File)                           {}
func (*BaseListener) ExitFile(*File)                            {}
func (*BaseListener) EnterCommandInvocation(*CommandInvocation) {}
func (*BaseListener) ExitCommandInvocation(*CommandInvocation)  {}
func (*BaseListener) EnterSingleArgument(*SingleArgument)       {}
func (*BaseListener) ExitSingleArgument(*SingleArgument)        {}
func (*BaseListener) EnterCompoundArgument(*CompoundArgument)   {}
func (*BaseListener) ExitCompoundArgument(*CompoundArgument)    {}

type frame struct {
	node Node
	exit bool
}

// Walk traverses the tree rooted at root depth-first, calling the enter
// callback of each node before its children and the exit callback after
// them. The walk uses an explicit stack instead of recursion.
func Walk(l Listener, root Node) {
	invariant.NotNil(l, "listener")
	if root == nil {
		return
	}

	stopper, _ := l.(Stopper)
	stack := []frame{{node: root}}
	for len(stack) > 0 {
		if stopper != nil && stopper.Stopped() {
			return
		}

		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if f.exit {
			exit(l, f.node)
			continue
		}

		enter(l, f.node)
		stack = append(stack, frame{node: f.node, exit: true})
		children := f.node.Children()
		for i := len(children) - 1; i >= 0; i-- {
			stack = append(stack, frame{node: children[i]})
		}
	}
}

func enter(l Listener, n Node) {
	switch n := n.(type) {
	case *File:
		l.EnterFile(n)
	case *CommandInvocation:
		l.EnterCommandInvocation(n)
	case *SingleArgument:
		l.EnterSingleArgument(n)
	case *CompoundArgument:
		l.EnterCompoundArgument(n)
	default:
		invariant.Precondition(false, "unknown node type %T", n)
	}
}

func exit(l Listener, n Node) {
	switch n := n.(type) {
	case *File:
		l.ExitFile(n)
	case *CommandInvocation:
		l.ExitCommandInvocation(n)
	case *SingleArgument:
		l.ExitSingleArgument(n)
	case *CompoundArgument:
		l.ExitCompoundArgument(n)
	default:
		invariant.Precondition(false, "unknown node type %T", n)
	}
}
