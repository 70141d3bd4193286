package inspect

import (
	"strings"

	"github.com/aledsdavies/cmakeparse/pkgs/ast"
	"github.com/aledsdavies/cmakeparse/pkgs/lexer"
)

// ReferenceKind distinguishes the forms of variable reference
type ReferenceKind int

const (
	Variable            ReferenceKind = iota // ${NAME}
	Environment                              // $ENV{NAME}
	Cache                                    // $CACHE{NAME}
	GeneratorExpression                      // $<...>
)

func (k ReferenceKind) String() string {
	switch k {
	case Variable:
		return "var"
	case Environment:
		return "env"
	case Cache:
		return "cache"
	case GeneratorExpression:
		return "genex"
	default:
		return "unknown"
	}
}

// Reference is one variable reference or generator expression found in an
// argument. Nested references are reported separately, outer first.
type Reference struct {
	Kind    ReferenceKind
	Name    string // text between the delimiters
	Text    string // the whole reference as written
	Command string // lower-cased name of the owning invocation
	Span    lexer.Span
}

// References returns the references in every quoted and unquoted argument of
// file. Bracket arguments are never expanded by CMake and are skipped.
func References(file *ast.File) []Reference {
	if file == nil {
		return nil
	}
	c := &referenceCollector{}
	ast.Walk(c, file)
	return c.refs
}

type referenceCollector struct {
	ast.BaseListener
	command string
	refs    []Reference
}

func (c *referenceCollector) EnterCommandInvocation(n *ast.CommandInvocation) {
	c.command = strings.ToLower(n.Name)
}

func (c *referenceCollector) EnterSingleArgument(n *ast.SingleArgument) {
	if n.Kind == ast.Bracket {
		return
	}

	text := n.Raw
	if text == "" {
		text = n.Value
	}
	for _, ref := range scanReferences(text) {
		ref.Command = c.command
		ref.Span = n.Loc
		c.refs = append(c.refs, ref)
	}
}

type opener struct {
	kind  ReferenceKind
	start int
	name  int
	ref   int
}

var prefixes = []struct {
	text string
	kind ReferenceKind
}{
	{"${", Variable},
	{"$ENV{", Environment},
	{"$CACHE{", Cache},
	{"$<", GeneratorExpression},
}

// scanReferences finds references in raw argument text. Escaped characters
// are skipped, so \${X} is not a reference. Unclosed openers are dropped.
func scanReferences(s string) []Reference {
	var (
		refs   []Reference
		closed []bool
		stack  []opener
	)

	for i := 0; i < len(s); {
		switch ch := s[i]; {
		case ch == '\\':
			i += 2
			continue
		case ch == '$':
			matched := false
			for _, p := range prefixes {
				if strings.HasPrefix(s[i:], p.text) {
					stack = append(stack, opener{kind: p.kind, start: i, name: i + len(p.text), ref: len(refs)})
					refs = append(refs, Reference{Kind: p.kind})
					closed = append(closed, false)
					i += len(p.text)
					matched = true
					break
				}
			}
			if matched {
				continue
			}
		case len(stack) > 0 && closes(stack[len(stack)-1].kind, ch):
			top := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			refs[top.ref].Name = s[top.name:i]
			refs[top.ref].Text = s[top.start : i+1]
			closed[top.ref] = true
		}
		i++
	}

	out := refs[:0]
	for i, ref := range refs {
		if closed[i] {
			out = append(out, ref)
		}
	}
	return out
}

func closes(kind ReferenceKind, ch byte) bool {
	if kind == GeneratorExpression {
		return ch == '>'
	}
	return ch == '}'
}
