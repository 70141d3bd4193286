package format

import (
	"fmt"
	"io"
	"strings"

	"github.com/aledsdavies/cmakeparse/pkgs/ast"
)

// Tree writes an indented outline of file, one node per line:
//
//	CMakeLists.txt (2 commands)
//	├─ foo 1:1
//	│  ├─ unquoted "bar" 1:5
//	│  └─ compound 1:9
//	│     └─ unquoted "baz" 1:10
//	└─ if 2:1 [recovered]
func Tree(w io.Writer, file *ast.File, title string, useColor bool) error {
	if title == "" {
		title = "file"
	}
	t := &treeWriter{w: w, useColor: useColor, title: title}
	ast.Walk(t, file)
	return t.err
}

type treeLevel struct {
	children int
	seen     int
	last     bool
}

// treeWriter tracks sibling positions on a stack so each line gets the
// right connector.
type treeWriter struct {
	ast.BaseListener
	w        io.Writer
	useColor bool
	title    string
	err      error
	levels   []treeLevel
}

func (t *treeWriter) line(n ast.Node, text string) {
	var prefix strings.Builder
	last := false
	if depth := len(t.levels); depth > 0 {
		parent := &t.levels[depth-1]
		parent.seen++
		last = parent.seen == parent.children
		for _, l := range t.levels[1:] {
			if l.last {
				prefix.WriteString("   ")
			} else {
				prefix.WriteString("│  ")
			}
		}
		if last {
			prefix.WriteString("└─ ")
		} else {
			prefix.WriteString("├─ ")
		}
	}
	t.levels = append(t.levels, treeLevel{children: len(n.Children()), last: last})

	if t.err != nil {
		return
	}
	if _, err := fmt.Fprintf(t.w, "%s%s\n", prefix.String(), text); err != nil {
		t.err = err
		t.Stop()
	}
}

func (t *treeWriter) pop() {
	t.levels = t.levels[:len(t.levels)-1]
}

func (t *treeWriter) pos(n ast.Node) string {
	return Colorize(n.Span().Start.String(), ColorGray, t.useColor)
}

func (t *treeWriter) recovered(flag bool) string {
	if !flag {
		return ""
	}
	return " " + Colorize("[recovered]", ColorRed, t.useColor)
}

func (t *treeWriter) EnterFile(f *ast.File) {
	noun := "commands"
	if len(f.Commands) == 1 {
		noun = "command"
	}
	t.line(f, fmt.Sprintf("%s (%d %s)", t.title, len(f.Commands), noun))
}

func (t *treeWriter) ExitFile(*ast.File) { t.pop() }

func (t *treeWriter) EnterCommandInvocation(c *ast.CommandInvocation) {
	t.line(c, fmt.Sprintf("%s %s%s", Colorize(c.Name, ColorBlue, t.useColor), t.pos(c), t.recovered(c.Recovered)))
}

func (t *treeWriter) ExitCommandInvocation(*ast.CommandInvocation) { t.pop() }

func (t *treeWriter) EnterSingleArgument(s *ast.SingleArgument) {
	kind := Colorize(s.Kind.String(), ColorGray, t.useColor)
	value := Colorize(fmt.Sprintf("%q", s.Value), ColorGreen, t.useColor)
	t.line(s, fmt.Sprintf("%s %s %s", kind, value, t.pos(s)))
}

func (t *treeWriter) ExitSingleArgument(*ast.SingleArgument) { t.pop() }

func (t *treeWriter) EnterCompoundArgument(c *ast.CompoundArgument) {
	t.line(c, fmt.Sprintf("%s %s%s", Colorize("compound", ColorCyan, t.useColor), t.pos(c), t.recovered(c.Recovered)))
}

func (t *treeWriter) ExitCompoundArgument(*ast.CompoundArgument) { t.pop() }
