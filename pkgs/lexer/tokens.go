package lexer

import "fmt"

// TokenType represents the lexical tokens of the CMake language
type TokenType int

const (
	// Special tokens
	EOF TokenType = iota
	ILLEGAL // unterminated quoted or bracket construct, see Token.Err

	// Structure
	IDENTIFIER // command names and bare words matching [A-Za-z_][A-Za-z0-9_]*
	LPAREN     // (
	RPAREN     // )
	NEWLINE    // \n - statement separator

	// Arguments
	BRACKET_ARGUMENT  // [=[ raw ]=]
	QUOTED_ARGUMENT   // "text"
	UNQUOTED_ARGUMENT // text

	// Comments (dropped unless WithComments is set)
	LINE_COMMENT    // # to end of line
	BRACKET_COMMENT // #[[ raw ]]
)

// String returns a human-readable representation of the token type
func (t TokenType) String() string {
	switch t {
	case EOF:
		return "EOF"
	case ILLEGAL:
		return "ILLEGAL"
	case IDENTIFIER:
		return "IDENTIFIER"
	case LPAREN:
		return "LPAREN"
	case RPAREN:
		return "RPAREN"
	case NEWLINE:
		return "NEWLINE"
	case BRACKET_ARGUMENT:
		return "BRACKET_ARGUMENT"
	case QUOTED_ARGUMENT:
		return "QUOTED_ARGUMENT"
	case UNQUOTED_ARGUMENT:
		return "UNQUOTED_ARGUMENT"
	case LINE_COMMENT:
		return "LINE_COMMENT"
	case BRACKET_COMMENT:
		return "BRACKET_COMMENT"
	default:
		return fmt.Sprintf("TokenType(%d)", int(t))
	}
}

// IsArgument reports whether tokens of this type can appear as a single argument.
// IDENTIFIER counts: a bare word in argument position is an unquoted argument.
func (t TokenType) IsArgument() bool {
	switch t {
	case IDENTIFIER, BRACKET_ARGUMENT, QUOTED_ARGUMENT, UNQUOTED_ARGUMENT:
		return true
	}
	return false
}

// IsComment reports whether the token type is a comment form
func (t TokenType) IsComment() bool {
	return t == LINE_COMMENT || t == BRACKET_COMMENT
}

// ErrorKind classifies lexical errors
type ErrorKind int

const (
	NoError ErrorKind = iota
	UnterminatedQuote
	UnterminatedBracket
	InvalidEscape
)

func (k ErrorKind) String() string {
	switch k {
	case NoError:
		return "none"
	case UnterminatedQuote:
		return "unterminated quoted argument"
	case UnterminatedBracket:
		return "unterminated bracket"
	case InvalidEscape:
		return "invalid escape sequence"
	default:
		return fmt.Sprintf("ErrorKind(%d)", int(k))
	}
}

// Position represents a position in the source text
type Position struct {
	Line   int // 1-based line number
	Column int // 1-based column number, counted in runes
	Offset int // 0-based byte offset
}

func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// Span is a half-open source range [Start, End)
type Span struct {
	Start Position
	End   Position
}

// Len returns the length of the span in bytes
func (s Span) Len() int {
	return s.End.Offset - s.Start.Offset
}

func (s Span) String() string {
	return fmt.Sprintf("%s-%s", s.Start, s.End)
}

// Token represents a lexical token
type Token struct {
	Type TokenType
	Text string // exact source text, delimiters included
	Span Span

	// Value is the decoded text of argument and comment tokens: escapes
	// resolved for quoted and unquoted arguments, raw content for bracket forms.
	Value string

	// Level is the number of '=' in a bracket opener.
	Level int

	// Err is set on ILLEGAL tokens.
	Err ErrorKind

	// BadEscapes holds the spans of invalid escape sequences in the token.
	// The sequences are kept verbatim in Value.
	BadEscapes []Span
}

// String returns the token text (for testing and debugging)
func (t Token) String() string {
	return t.Text
}
