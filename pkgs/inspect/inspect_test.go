package inspect

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aledsdavies/cmakeparse/pkgs/ast"
	"github.com/aledsdavies/cmakeparse/pkgs/parser"
)

func parse(t *testing.T, src string) *ast.File {
	t.Helper()
	file, _ := parser.ParseString(src)
	require.NotNil(t, file)
	return file
}

func TestCommands(t *testing.T) {
	file := parse(t, "project(Demo CXX)\n"+
		"ADD_Executable(app main.cpp \"b c.cpp\")\n"+
		"if((A OR B) AND C)\n"+
		"endif()\n")

	want := []Command{
		{Name: "project", Args: []string{"Demo", "CXX"}, Line: 1, Column: 1},
		{Name: "add_executable", Args: []string{"app", "main.cpp", "b c.cpp"}, Line: 2, Column: 1},
		{Name: "if", Args: []string{"A", "OR", "B", "AND", "C"}, Line: 3, Column: 1},
		{Name: "endif", Line: 4, Column: 1},
	}

	got := Commands(file)
	if diff := cmp.Diff(want, got, cmpopts.IgnoreFields(Command{}, "Node"), cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("commands mismatch (-want +got):\n%s", diff)
	}
	assert.Same(t, file.Commands[1], got[1].Node)
}

func TestCommandsRecovered(t *testing.T) {
	file, diags := parser.ParseString("foo(a\n")
	require.NotEmpty(t, diags)

	got := Commands(file)
	require.Len(t, got, 1)
	assert.True(t, got[0].Recovered)
	assert.Equal(t, []string{"a"}, got[0].Args)
}

func TestCommandsNilFile(t *testing.T) {
	assert.Nil(t, Commands(nil))
	assert.Nil(t, Lint(nil))
	assert.Nil(t, References(nil))
	assert.Nil(t, Find(nil, "set"))
}

func TestArgsNested(t *testing.T) {
	file := parse(t, "f(a (b (c d)) e)")
	assert.Equal(t, []string{"a", "b", "c", "d", "e"}, Args(file.Commands[0]))
}

func TestFind(t *testing.T) {
	file := parse(t, "set(x 1)\nProject(first)\nproject(second)\n")

	found := Find(file, "PROJECT")
	require.NotNil(t, found)
	assert.Equal(t, "Project", found.Name)
	assert.Equal(t, 2, found.NameLoc.Start.Line)

	assert.Nil(t, Find(file, "install"))
}

func TestReferences(t *testing.T) {
	file := parse(t, `message("${A} $ENV{HOME}" ${B_${C}} $<$<CONFIG:Debug>:dbg> [[${D}]] \${E} $CACHE{F})`)

	type ref struct {
		Kind ReferenceKind
		Name string
		Text string
	}
	want := []ref{
		{Variable, "A", "${A}"},
		{Environment, "HOME", "$ENV{HOME}"},
		{Variable, "B_${C}", "${B_${C}}"},
		{Variable, "C", "${C}"},
		{GeneratorExpression, "$<CONFIG:Debug>:dbg", "$<$<CONFIG:Debug>:dbg>"},
		{GeneratorExpression, "CONFIG:Debug", "$<CONFIG:Debug>"},
		{Cache, "F", "$CACHE{F}"},
	}

	refs := References(file)
	var got []ref
	for _, r := range refs {
		assert.Equal(t, "message", r.Command)
		got = append(got, ref{r.Kind, r.Name, r.Text})
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("references mismatch (-want +got):\n%s", diff)
	}

	require.NotEmpty(t, refs)
	assert.Equal(t, 9, refs[0].Span.Start.Column, "span of the owning argument")
}

func TestScanReferencesUnclosed(t *testing.T) {
	assert.Empty(t, scanReferences("${A"))
	assert.Empty(t, scanReferences("$<A"))
	assert.Empty(t, scanReferences("$ENV"))

	refs := scanReferences("${A}${")
	require.Len(t, refs, 1)
	assert.Equal(t, "A", refs[0].Name)

	refs = scanReferences("${A$<B>}")
	require.Len(t, refs, 2)
	assert.Equal(t, "A$<B>", refs[0].Name)
	assert.Equal(t, "B", refs[1].Name)
}

func TestReferenceKindString(t *testing.T) {
	assert.Equal(t, "var", Variable.String())
	assert.Equal(t, "env", Environment.String())
	assert.Equal(t, "cache", Cache.String())
	assert.Equal(t, "genex", GeneratorExpression.String())
	assert.Equal(t, "unknown", ReferenceKind(42).String())
}

func TestMinimumRequired(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
		ok    bool
	}{
		{"plain", "cmake_minimum_required(VERSION 3.20)", "3.20", true},
		{"case insensitive", "CMAKE_MINIMUM_REQUIRED(version 3.10...3.28 FATAL_ERROR)", "3.10...3.28", true},
		{"quoted version", `cmake_minimum_required(VERSION "3.16")`, "3.16", true},
		{"first call wins", "cmake_minimum_required(VERSION 3.5)\ncmake_minimum_required(VERSION 3.25)", "3.5", true},
		{"missing", "project(x)", "", false},
		{"no value", "cmake_minimum_required(VERSION)", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := MinimumRequired(parse(t, tt.input))
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestVersionRange(t *testing.T) {
	lo, hi := VersionRange("3.10...3.28")
	assert.Equal(t, "3.10", lo)
	assert.Equal(t, "3.28", hi)

	lo, hi = VersionRange("3.20")
	assert.Equal(t, "3.20", lo)
	assert.Empty(t, hi)
}

func TestCompareVersions(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"3.20", "3.20.0", 0},
		{"3.20.1", "3.20", 1},
		{"3.9", "3.10", -1},
		{"3", "3.0.0", 0},
		{"3.20.0.1", "3.20", 0},
		{"3.28.0-rc1", "3.28.0", -1},
	}

	for _, tt := range tests {
		t.Run(tt.a+" vs "+tt.b, func(t *testing.T) {
			got, err := CompareVersions(tt.a, tt.b)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	for _, bad := range []string{"", "abc", "1.2.3.4.5", "3.x"} {
		_, err := CompareVersions(bad, "3.0")
		assert.Error(t, err, bad)
	}
}

func TestSatisfiesMinimum(t *testing.T) {
	file := parse(t, "cmake_minimum_required(VERSION 3.20...3.28)\n")

	ok, err := SatisfiesMinimum(file, "3.22")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = SatisfiesMinimum(file, "3.20")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = SatisfiesMinimum(file, "3.19.8")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = SatisfiesMinimum(file, "latest")
	assert.Error(t, err)

	ok, err = SatisfiesMinimum(parse(t, "project(x)"), "2.8")
	require.NoError(t, err)
	assert.True(t, ok, "no declared minimum")
}

func TestLint(t *testing.T) {
	file := parse(t, "function(my_helper)\n"+
		"endfunction()\n"+
		"my_helper()\n"+
		"add_exectable(app)\n"+
		"mesage(hi)\n"+
		"zzzzqqq()\n"+
		"later()\n"+
		"Macro(Later)\n"+
		"endmacro()\n")

	findings := Lint(file)
	require.Len(t, findings, 3)

	assert.Equal(t, "add_exectable", findings[0].Command)
	assert.Equal(t, "add_executable", findings[0].Suggestion)
	assert.Equal(t, 4, findings[0].Span.Start.Line)

	assert.Equal(t, "mesage", findings[1].Command)
	assert.Equal(t, "message", findings[1].Suggestion)

	assert.Equal(t, "zzzzqqq", findings[2].Command)
	assert.Empty(t, findings[2].Suggestion)

	assert.Equal(t, `4:1: unknown command "add_exectable" (did you mean "add_executable"?)`, findings[0].String())
	assert.Equal(t, `6:1: unknown command "zzzzqqq"`, findings[2].String())
}

func TestLintCleanFile(t *testing.T) {
	file := parse(t, "cmake_minimum_required(VERSION 3.20)\n"+
		"project(demo LANGUAGES CXX)\n"+
		"add_library(core STATIC a.cpp)\n"+
		"target_link_libraries(core PUBLIC fmt::fmt)\n")
	assert.Empty(t, Lint(file))
}

func TestClosestMatchEditDistance(t *testing.T) {
	known := []string{"message", "project"}
	assert.Equal(t, "message", closestMatch("mesasge", known))
	assert.Empty(t, closestMatch("anything", nil))
}
