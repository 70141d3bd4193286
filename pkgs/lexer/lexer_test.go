package lexer

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// tokenExpectation represents expected token type, text and start position
type tokenExpectation struct {
	Type   TokenType
	Text   string
	Line   int
	Column int
}

// assertTokens compares the tokens of input with expected using cmp.Diff
func assertTokens(t *testing.T, name, input string, expected []tokenExpectation, opts ...LexerOpt) {
	t.Helper()

	var got []tokenExpectation
	for _, tok := range Collect(input, opts...) {
		got = append(got, tokenExpectation{tok.Type, tok.Text, tok.Span.Start.Line, tok.Span.Start.Column})
	}

	if diff := cmp.Diff(expected, got); diff != "" {
		t.Errorf("%s: token mismatch (-want +got):\n%s", name, diff)
	}
}

func TestTokenSequences(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		opts     []LexerOpt
		expected []tokenExpectation
	}{
		{
			name:  "empty input",
			input: "",
			expected: []tokenExpectation{
				{EOF, "", 1, 1},
			},
		},
		{
			name:  "simple invocation",
			input: "project(demo C CXX)\n",
			expected: []tokenExpectation{
				{IDENTIFIER, "project", 1, 1},
				{LPAREN, "(", 1, 8},
				{IDENTIFIER, "demo", 1, 9},
				{IDENTIFIER, "C", 1, 14},
				{IDENTIFIER, "CXX", 1, 16},
				{RPAREN, ")", 1, 19},
				{NEWLINE, "\n", 1, 20},
				{EOF, "", 2, 1},
			},
		},
		{
			name:  "unquoted arguments keep list separators and references",
			input: "set(SRCS a.c;b.c ${X}/y)",
			expected: []tokenExpectation{
				{IDENTIFIER, "set", 1, 1},
				{LPAREN, "(", 1, 4},
				{IDENTIFIER, "SRCS", 1, 5},
				{UNQUOTED_ARGUMENT, "a.c;b.c", 1, 10},
				{UNQUOTED_ARGUMENT, "${X}/y", 1, 18},
				{RPAREN, ")", 1, 24},
				{EOF, "", 1, 25},
			},
		},
		{
			name:  "nested parentheses",
			input: "if((A OR B) AND C)",
			expected: []tokenExpectation{
				{IDENTIFIER, "if", 1, 1},
				{LPAREN, "(", 1, 3},
				{LPAREN, "(", 1, 4},
				{IDENTIFIER, "A", 1, 5},
				{IDENTIFIER, "OR", 1, 7},
				{IDENTIFIER, "B", 1, 10},
				{RPAREN, ")", 1, 11},
				{IDENTIFIER, "AND", 1, 13},
				{IDENTIFIER, "C", 1, 17},
				{RPAREN, ")", 1, 18},
				{EOF, "", 1, 19},
			},
		},
		{
			name:  "tabs and carriage returns are separators",
			input: "foo(\ta\r\n  b)",
			expected: []tokenExpectation{
				{IDENTIFIER, "foo", 1, 1},
				{LPAREN, "(", 1, 4},
				{IDENTIFIER, "a", 1, 6},
				{NEWLINE, "\n", 1, 8},
				{IDENTIFIER, "b", 2, 3},
				{RPAREN, ")", 2, 4},
				{EOF, "", 2, 5},
			},
		},
		{
			name:  "quote ends an unquoted argument",
			input: `message(a"b")`,
			expected: []tokenExpectation{
				{IDENTIFIER, "message", 1, 1},
				{LPAREN, "(", 1, 8},
				{IDENTIFIER, "a", 1, 9},
				{QUOTED_ARGUMENT, `"b"`, 1, 10},
				{RPAREN, ")", 1, 13},
				{EOF, "", 1, 14},
			},
		},
		{
			name:  "identifiers versus unquoted words",
			input: "foo-bar 1abc _x9",
			expected: []tokenExpectation{
				{UNQUOTED_ARGUMENT, "foo-bar", 1, 1},
				{UNQUOTED_ARGUMENT, "1abc", 1, 9},
				{IDENTIFIER, "_x9", 1, 14},
				{EOF, "", 1, 17},
			},
		},
		{
			name:  "comments are dropped by default",
			input: "# hello\nfoo() #[[ multi\nline ]] bar",
			expected: []tokenExpectation{
				{NEWLINE, "\n", 1, 8},
				{IDENTIFIER, "foo", 2, 1},
				{LPAREN, "(", 2, 4},
				{RPAREN, ")", 2, 5},
				{IDENTIFIER, "bar", 3, 9},
				{EOF, "", 3, 12},
			},
		},
		{
			name:  "comments are kept on request",
			input: "# hello\nfoo() #[[ multi\nline ]] bar",
			opts:  []LexerOpt{WithComments()},
			expected: []tokenExpectation{
				{LINE_COMMENT, "# hello", 1, 1},
				{NEWLINE, "\n", 1, 8},
				{IDENTIFIER, "foo", 2, 1},
				{LPAREN, "(", 2, 4},
				{RPAREN, ")", 2, 5},
				{BRACKET_COMMENT, "#[[ multi\nline ]]", 2, 7},
				{IDENTIFIER, "bar", 3, 9},
				{EOF, "", 3, 12},
			},
		},
		{
			name:  "columns count runes",
			input: `"é" x`,
			expected: []tokenExpectation{
				{QUOTED_ARGUMENT, `"é"`, 1, 1},
				{IDENTIFIER, "x", 1, 5},
				{EOF, "", 1, 6},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assertTokens(t, tt.name, tt.input, tt.expected, tt.opts...)
		})
	}
}

func TestOffsetsAndSpans(t *testing.T) {
	tokens := Collect(`"é" x`)
	require.Len(t, tokens, 3)

	assert.Equal(t, Span{
		Start: Position{Line: 1, Column: 1, Offset: 0},
		End:   Position{Line: 1, Column: 4, Offset: 4},
	}, tokens[0].Span)
	assert.Equal(t, 5, tokens[1].Span.Start.Offset)
	assert.Equal(t, 1, tokens[1].Span.Len())
}

func TestCommentValues(t *testing.T) {
	tokens := Collect("# hello\n#[=[ a ]] ]=]", WithComments())
	require.Len(t, tokens, 4)

	assert.Equal(t, " hello", tokens[0].Value)
	assert.Equal(t, BRACKET_COMMENT, tokens[2].Type)
	assert.Equal(t, " a ]] ", tokens[2].Value)
	assert.Equal(t, 1, tokens[2].Level)
}

func TestEOFIsSticky(t *testing.T) {
	l := NewLexer("a")
	assert.Equal(t, IDENTIFIER, l.Next().Type)
	assert.Equal(t, EOF, l.Next().Type)
	assert.Equal(t, EOF, l.Next().Type)
}

func TestTokenizeIsRestartable(t *testing.T) {
	seq := Tokenize("foo(bar)")

	count := func() int {
		n := 0
		for range seq {
			n++
		}
		return n
	}

	assert.Equal(t, 5, count())
	assert.Equal(t, 5, count(), "second range must re-scan from the start")
}

func TestTokenizeStopsEarly(t *testing.T) {
	var seen []TokenType
	for tok := range Tokenize("a b c d") {
		seen = append(seen, tok.Type)
		if len(seen) == 2 {
			break
		}
	}
	assert.Equal(t, []TokenType{IDENTIFIER, IDENTIFIER}, seen)
}

func TestTokenTypeString(t *testing.T) {
	assert.Equal(t, "BRACKET_ARGUMENT", BRACKET_ARGUMENT.String())
	assert.Equal(t, "TokenType(99)", TokenType(99).String())
	assert.True(t, IDENTIFIER.IsArgument())
	assert.False(t, LPAREN.IsArgument())
	assert.True(t, LINE_COMMENT.IsComment())
}
