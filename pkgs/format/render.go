package format

import (
	"io"
	"sort"

	"github.com/aledsdavies/cmakeparse/pkgs/ast"
)

// Render writes file in canonical form: one invocation per line, arguments
// separated by single spaces, compound arguments in parentheses. Single
// arguments keep their source spelling, so parsing the output yields a tree
// equal in structure to file.
//
// Comments kept in file.Comments are written before the invocation they
// precede. Comments inside an invocation follow its closing parenthesis: the
// first on the same line, any others on lines of their own.
func Render(w io.Writer, file *ast.File) error {
	r := &renderer{w: w, comments: sortedComments(file.Comments)}
	ast.Walk(r, file)
	return r.err
}

func sortedComments(comments []ast.Comment) []ast.Comment {
	out := append([]ast.Comment(nil), comments...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Loc.Start.Offset < out[j].Loc.Start.Offset
	})
	return out
}

// renderer streams output from listener callbacks
type renderer struct {
	ast.BaseListener
	w        io.Writer
	err      error
	spaced   []bool // per open list: whether the next argument needs a space
	comments []ast.Comment
	next     int
}

func (r *renderer) write(s string) {
	if r.err != nil {
		return
	}
	if _, err := io.WriteString(r.w, s); err != nil {
		r.err = err
		r.Stop()
	}
}

// commentsBefore writes comments starting before offset, one per line
func (r *renderer) commentsBefore(offset int) {
	for r.next < len(r.comments) && r.comments[r.next].Loc.Start.Offset < offset {
		r.write(r.comments[r.next].Text)
		r.write("\n")
		r.next++
	}
}

func (r *renderer) separate() {
	top := len(r.spaced) - 1
	if r.spaced[top] {
		r.write(" ")
	}
	r.spaced[top] = true
}

func (r *renderer) EnterCommandInvocation(c *ast.CommandInvocation) {
	r.commentsBefore(c.Loc.Start.Offset)
	r.write(c.Name)
	r.write("(")
	r.spaced = append(r.spaced, false)
}

func (r *renderer) ExitCommandInvocation(c *ast.CommandInvocation) {
	r.spaced = r.spaced[:len(r.spaced)-1]
	r.write(")")
	sep := " "
	for r.next < len(r.comments) && r.comments[r.next].Loc.Start.Offset < c.Loc.End.Offset {
		r.write(sep)
		r.write(r.comments[r.next].Text)
		r.next++
		sep = "\n"
	}
	r.write("\n")
}

func (r *renderer) EnterSingleArgument(s *ast.SingleArgument) {
	r.separate()
	r.write(s.String())
}

func (r *renderer) EnterCompoundArgument(*ast.CompoundArgument) {
	r.separate()
	r.write("(")
	r.spaced = append(r.spaced, false)
}

func (r *renderer) ExitCompoundArgument(*ast.CompoundArgument) {
	r.spaced = r.spaced[:len(r.spaced)-1]
	r.write(")")
}

func (r *renderer) ExitFile(*ast.File) {
	for ; r.next < len(r.comments); r.next++ {
		r.write(r.comments[r.next].Text)
		r.write("\n")
	}
}
