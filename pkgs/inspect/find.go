package inspect

import (
	"strings"

	"github.com/aledsdavies/cmakeparse/pkgs/ast"
)

// Find returns the first invocation of name, compared case-insensitively as
// CMake does, or nil. The walk stops at the first match.
func Find(file *ast.File, name string) *ast.CommandInvocation {
	if file == nil {
		return nil
	}
	f := &finder{name: name}
	ast.Walk(f, file)
	return f.found
}

type finder struct {
	ast.BaseListener
	name  string
	found *ast.CommandInvocation
}

func (f *finder) EnterCommandInvocation(n *ast.CommandInvocation) {
	if strings.EqualFold(n.Name, f.name) {
		f.found = n
		f.Stop()
	}
}
