package ast_test

import (
	"fmt"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aledsdavies/cmakeparse/pkgs/ast"
)

func word(v string) *ast.SingleArgument {
	return &ast.SingleArgument{Kind: ast.Unquoted, Value: v, Raw: v}
}

// sample is foo(bar (baz) qux) followed by if((A OR (B)) AND C)
func sample() *ast.File {
	return &ast.File{Commands: []*ast.CommandInvocation{
		{Name: "foo", Arguments: []ast.Argument{
			word("bar"),
			&ast.CompoundArgument{Arguments: []ast.Argument{word("baz")}},
			word("qux"),
		}},
		{Name: "if", Arguments: []ast.Argument{
			&ast.CompoundArgument{Arguments: []ast.Argument{
				word("A"), word("OR"),
				&ast.CompoundArgument{Arguments: []ast.Argument{word("B")}},
			}},
			word("AND"), word("C"),
		}},
	}}
}

// deep nests n compound arguments inside one invocation
func deep(n int) *ast.File {
	inner := &ast.CompoundArgument{Arguments: []ast.Argument{word("x")}}
	for i := 1; i < n; i++ {
		inner = &ast.CompoundArgument{Arguments: []ast.Argument{inner}}
	}
	return &ast.File{Commands: []*ast.CommandInvocation{{Name: "if", Arguments: []ast.Argument{inner}}}}
}

func TestCount(t *testing.T) {
	// file + 2 commands + 8 singles + 3 compounds
	assert.Equal(t, 14, ast.Count(sample()))
	assert.Equal(t, 1, ast.Count(&ast.File{}))
	assert.Equal(t, 0, ast.Count(nil))
}

func TestString(t *testing.T) {
	assert.Equal(t, "foo(bar (baz) qux)\nif((A OR (B)) AND C)", sample().String())

	tests := []struct {
		arg  *ast.SingleArgument
		want string
	}{
		{&ast.SingleArgument{Kind: ast.Unquoted, Value: "plain"}, "plain"},
		{&ast.SingleArgument{Kind: ast.Unquoted, Value: "a b"}, `"a b"`},
		{&ast.SingleArgument{Kind: ast.Unquoted, Value: ""}, `""`},
		{&ast.SingleArgument{Kind: ast.Quoted, Value: `say "hi"`}, `"say \"hi\""`},
		{&ast.SingleArgument{Kind: ast.Bracket, Value: "x]]", Level: 1}, "[=[x]]]=]"},
		{&ast.SingleArgument{Kind: ast.Quoted, Value: "ignored", Raw: `"raw"`}, `"raw"`},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.arg.String())
	}
}

func TestPreorder(t *testing.T) {
	var got []string
	for n := range ast.Preorder(sample()) {
		got = append(got, label(n))
	}

	want := []string{
		"file", "cmd foo", "bar", "compound", "baz", "qux",
		"cmd if", "compound", "A", "OR", "compound", "B", "AND", "C",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("preorder mismatch (-want +got):\n%s", diff)
	}
}

func label(n ast.Node) string {
	switch n := n.(type) {
	case *ast.File:
		return "file"
	case *ast.CommandInvocation:
		return "cmd " + n.Name
	case *ast.SingleArgument:
		return n.Value
	case *ast.CompoundArgument:
		return "compound"
	}
	return fmt.Sprintf("%T", n)
}

func TestArgumentKindString(t *testing.T) {
	assert.Equal(t, "bracket", ast.Bracket.String())
	assert.Equal(t, "quoted", ast.Quoted.String())
	assert.Equal(t, "unquoted", ast.Unquoted.String())
	assert.Equal(t, "unknown", ast.ArgumentKind(9).String())
}

func TestDeepCount(t *testing.T) {
	const depth = 10000
	// file + command + compounds + innermost single
	require.Equal(t, depth+3, ast.Count(deep(depth)))
	assert.True(t, strings.HasPrefix(deep(3).String(), "if(((("))
}
