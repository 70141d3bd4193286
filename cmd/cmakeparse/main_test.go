package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aledsdavies/cmakeparse/pkgs/parser"
	"github.com/aledsdavies/cmakeparse/pkgs/snapshot"
)

type result struct {
	code   int
	stdout string
	stderr string
}

func execute(t *testing.T, stdin string, args ...string) result {
	t.Helper()
	return executeContext(t, context.Background(), stdin, args...)
}

func executeContext(t *testing.T, ctx context.Context, stdin string, args ...string) result {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(ctx, append([]string{"--no-color"}, args...), strings.NewReader(stdin), &stdout, &stderr)
	return result{code: code, stdout: stdout.String(), stderr: stderr.String()}
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestTokens(t *testing.T) {
	res := execute(t, "foo(bar) # note\n", "tokens", "-")
	require.Equal(t, 0, res.code, res.stderr)

	lines := strings.Split(strings.TrimSpace(res.stdout), "\n")
	require.Len(t, lines, 6)
	assert.Equal(t, `1:1      IDENTIFIER "foo"`, lines[0])
	assert.Equal(t, `1:5      IDENTIFIER "bar"`, lines[2])
	assert.Equal(t, `1:16     NEWLINE "\n"`, lines[4])
	assert.NotContains(t, res.stdout, "LINE_COMMENT")

	res = execute(t, "foo(bar) # note\n", "--keep-comments", "tokens", "-")
	require.Equal(t, 0, res.code, res.stderr)
	assert.Contains(t, res.stdout, `LINE_COMMENT "# note"`)
}

func TestTree(t *testing.T) {
	res := execute(t, "foo(bar (baz))\n", "tree", "--hash", "-")
	require.Equal(t, 0, res.code, res.stderr)
	assert.True(t, strings.HasPrefix(res.stdout, "<stdin> (1 command)\n"), res.stdout)
	assert.Contains(t, res.stdout, "foo 1:1")
	assert.Contains(t, res.stdout, "digest: blake2b:")
}

func TestTreeSnapshot(t *testing.T) {
	src := "project(demo)\nadd_library(core a.cpp)\n"
	out := filepath.Join(t.TempDir(), "tree.cbor")

	res := execute(t, src, "tree", "--snapshot", out, "-")
	require.Equal(t, 0, res.code, res.stderr)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	file, err := snapshot.Decode(data)
	require.NoError(t, err)

	want, _ := parser.ParseString(src)
	assert.Equal(t, want.String(), file.String())
}

func TestTreeReportsDiagnostics(t *testing.T) {
	res := execute(t, "foo(bar\n", "tree", "-")
	require.Equal(t, 0, res.code)
	assert.Contains(t, res.stdout, "[recovered]")
	assert.Contains(t, res.stderr, "UnbalancedParenthesis")
}

func TestCheck(t *testing.T) {
	good := writeFile(t, "good.cmake", "set(x 1)\n")
	bad := writeFile(t, "bad.cmake", "set(x \"1\n")

	res := execute(t, "", "check", good, bad)
	require.Equal(t, 0, res.code, res.stderr)
	assert.Contains(t, res.stdout, good+": ok")
	assert.Contains(t, res.stdout, "UnterminatedQuote")
	assert.Contains(t, res.stdout, bad+": ")

	res = execute(t, "", "check", "--strict", good, bad)
	assert.Equal(t, 1, res.code)
	assert.Contains(t, res.stderr, "Error: 1 of 2 file(s) have syntax errors")
	assert.Contains(t, res.stderr, "Hint: ")

	res = execute(t, "", "check", "--strict", good)
	assert.Equal(t, 0, res.code)
}

func TestCheckStrictFromConfig(t *testing.T) {
	cfg := writeFile(t, "cfg.yaml", "strict: true\n")

	res := execute(t, "f(\n", "--config", cfg, "check", "-")
	assert.Equal(t, 1, res.code)

	res = execute(t, "f(\n", "--config", cfg, "check", "--strict=false", "-")
	assert.Equal(t, 0, res.code)
}

func TestCheckWatch(t *testing.T) {
	path := writeFile(t, "CMakeLists.txt", "project(demo)\n")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := executeContext(t, ctx, "", "check", "--watch", path)
	require.Equal(t, 0, res.code, res.stderr)
	assert.Contains(t, res.stdout, path+": ok")

	res = execute(t, "", "check", "--watch", "-")
	assert.Equal(t, ExitFailure, res.code)
	assert.Contains(t, res.stderr, "cannot watch standard input")
}

func TestFmt(t *testing.T) {
	res := execute(t, "FOO(  a\n   b (c   d) )\nbar()", "fmt", "-")
	require.Equal(t, 0, res.code, res.stderr)
	assert.Equal(t, "FOO(a b (c d))\nbar()\n", res.stdout)

	res = execute(t, "foo(\n", "fmt", "-")
	assert.Equal(t, 1, res.code)
	assert.Contains(t, res.stderr, "refusing to format <stdin>")
}

func TestFmtWrite(t *testing.T) {
	path := writeFile(t, "CMakeLists.txt", "project( demo )\n")

	res := execute(t, "", "fmt", "-w", path)
	require.Equal(t, 0, res.code, res.stderr)
	assert.Empty(t, res.stdout)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "project(demo)\n", string(data))
}

func TestCommands(t *testing.T) {
	res := execute(t, "ADD_EXECUTABLE(app \"main file.cpp\")\nif((A))\n", "commands", "-")
	require.Equal(t, 0, res.code, res.stderr)
	assert.Equal(t, "1:1\tadd_executable\t\"app\" \"main file.cpp\"\n2:1\tif\t\"A\"\n", res.stdout)
}

func TestProject(t *testing.T) {
	src := "cmake_minimum_required(VERSION 3.20)\n" +
		"project(demo VERSION 1.0 LANGUAGES CXX)\n" +
		"find_package(fmt 10 REQUIRED)\n" +
		"option(WITH_TESTS \"Build tests\" ON)\n" +
		"add_executable(app main.cpp)\n" +
		"target_link_libraries(app PRIVATE fmt::fmt)\n"

	res := execute(t, src, "project", "-")
	require.Equal(t, 0, res.code, res.stderr)
	assert.Equal(t, "project\tdemo\t1.0\t\n"+
		"languages\tCXX\n"+
		"minimum\t3.20\n"+
		"target\tapp\texecutable\tfmt::fmt\n"+
		"dependency\tfmt\tfind_package\t10 required\n"+
		"option\tWITH_TESTS\tBOOL\tON\n", res.stdout)
}

func TestRefs(t *testing.T) {
	res := execute(t, "message(\"${A}\" $ENV{HOME})\n", "refs", "-")
	require.Equal(t, 0, res.code, res.stderr)
	assert.Equal(t, "1:9\tvar\tA\tmessage\n1:16\tenv\tHOME\tmessage\n", res.stdout)
}

func TestLint(t *testing.T) {
	res := execute(t, "mesage(hi)\n", "lint", "-")
	assert.Equal(t, 1, res.code)
	assert.Contains(t, res.stdout, `<stdin>:1:1: unknown command "mesage" (did you mean "message"?)`)
	assert.Contains(t, res.stderr, "1 problem(s) in <stdin>")

	cfg := writeFile(t, "cfg.toml", "ignore = [\"MESAGE\"]\n")
	res = execute(t, "mesage(hi)\n", "--config", cfg, "lint", "-")
	assert.Equal(t, 0, res.code, res.stderr)
	assert.Empty(t, res.stdout)
}

func TestLintVersion(t *testing.T) {
	src := "cmake_minimum_required(VERSION 3.20)\n"

	res := execute(t, src, "lint", "--cmake-version", "3.28", "-")
	assert.Equal(t, 0, res.code, res.stderr)

	res = execute(t, src, "lint", "--cmake-version", "3.10", "-")
	assert.Equal(t, 1, res.code)
	assert.Contains(t, res.stdout, "requires CMake 3.20, checking against 3.10")

	res = execute(t, src, "lint", "--cmake-version", "latest", "-")
	assert.Equal(t, ExitFailure, res.code)
	assert.Contains(t, res.stderr, "bad --cmake-version")
}

func TestErrors(t *testing.T) {
	res := execute(t, "", "tree", filepath.Join(t.TempDir(), "missing.cmake"))
	assert.Equal(t, ExitFailure, res.code)
	assert.Contains(t, res.stderr, "Error: cannot read")

	cfg := writeFile(t, "cfg.yaml", "colour: never\n")
	res = execute(t, "", "--config", cfg, "tree", "-")
	assert.Equal(t, ExitFailure, res.code)
	assert.Contains(t, res.stderr, "cannot load config")

	res = execute(t, "", "nonsense")
	assert.Equal(t, ExitFailure, res.code)
	assert.Contains(t, res.stderr, "unknown command")
}

func TestFormatError(t *testing.T) {
	var buf bytes.Buffer
	FormatError(&buf, &CLIError{Type: ErrLint, Message: "bad", Details: "line", Hint: "fix it"}, false)
	assert.Equal(t, "Error: bad\n\nline\nHint: fix it\n", buf.String())

	buf.Reset()
	_, diags := parser.ParseString("foo(", parser.WithFilename("f.cmake"))
	require.NotEmpty(t, diags)
	FormatError(&buf, parser.Err(diags), false)
	assert.True(t, strings.HasPrefix(buf.String(), "Error: f.cmake:1:"), buf.String())

	buf.Reset()
	FormatError(&buf, errors.New("plain"), true)
	assert.Contains(t, buf.String(), "\033[31mError: \033[0mplain")

	buf.Reset()
	FormatError(&buf, nil, false)
	assert.Empty(t, buf.String())
}

func TestCLIError(t *testing.T) {
	cause := errors.New("boom")
	err := &CLIError{Type: ErrInput, Message: "cannot read x", Cause: cause, Hint: "try again"}

	assert.Equal(t, "cannot read x: boom\ntry again", err.Error())
	assert.ErrorIs(t, err, cause)
	assert.True(t, IsErrorType(err, ErrInput))
	assert.False(t, IsErrorType(err, ErrParse))
	assert.False(t, IsErrorType(cause, ErrInput))
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"success", nil, ExitOK},
		{"parse", &CLIError{Type: ErrParse}, ExitProblems},
		{"lint", &CLIError{Type: ErrLint}, ExitProblems},
		{"wrapped lint", fmt.Errorf("check: %w", &CLIError{Type: ErrLint}), ExitProblems},
		{"input", &CLIError{Type: ErrInput}, ExitFailure},
		{"output", &CLIError{Type: ErrOutput}, ExitFailure},
		{"config", &CLIError{Type: ErrConfig}, ExitFailure},
		{"usage", &CLIError{Type: ErrUsage}, ExitFailure},
		{"untyped", errors.New("unknown flag: --nope"), ExitFailure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, exitCode(tt.err))
		})
	}
}
