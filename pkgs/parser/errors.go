package parser

import (
	"errors"
	"fmt"
	"strings"

	"github.com/aledsdavies/cmakeparse/pkgs/lexer"
)

// ErrorKind classifies diagnostics
type ErrorKind int

const (
	// Lexical errors
	UnterminatedQuote ErrorKind = iota + 1
	UnterminatedBracket
	InvalidEscape

	// Syntax errors
	UnexpectedToken
	UnbalancedParenthesis
	MissingCommandName
)

func (k ErrorKind) String() string {
	switch k {
	case UnterminatedQuote:
		return "UnterminatedQuote"
	case UnterminatedBracket:
		return "UnterminatedBracket"
	case InvalidEscape:
		return "InvalidEscape"
	case UnexpectedToken:
		return "UnexpectedToken"
	case UnbalancedParenthesis:
		return "UnbalancedParenthesis"
	case MissingCommandName:
		return "MissingCommandName"
	default:
		return fmt.Sprintf("ErrorKind(%d)", int(k))
	}
}

// IsLexical reports whether the kind is a lexical error
func (k ErrorKind) IsLexical() bool {
	return k == UnterminatedQuote || k == UnterminatedBracket || k == InvalidEscape
}

func kindOf(err lexer.ErrorKind) ErrorKind {
	switch err {
	case lexer.UnterminatedQuote:
		return UnterminatedQuote
	case lexer.UnterminatedBracket:
		return UnterminatedBracket
	default:
		return InvalidEscape
	}
}

// Diagnostic describes a lexical or syntax error found while parsing
type Diagnostic struct {
	Filename   string
	Kind       ErrorKind
	Span       lexer.Span
	Message    string
	Context    string            // enclosing construct, e.g. `command "foo"`
	Expected   []lexer.TokenType // token types that would have been accepted
	Got        lexer.TokenType
	Suggestion string
	OpenedAt   *lexer.Span // opening '(' for unbalanced parentheses
}

// Error returns "file:line:col: Kind: message"
func (d Diagnostic) Error() string {
	var b strings.Builder
	if d.Filename != "" {
		b.WriteString(d.Filename)
		b.WriteByte(':')
	}
	fmt.Fprintf(&b, "%s: %s: %s", d.Span.Start, d.Kind, d.Message)
	return b.String()
}

// Format renders the diagnostic with a source snippet in Rust/Clang style
func (d Diagnostic) Format(source string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s\n", d.Kind, d.Message)

	location := d.Span.Start.String()
	if d.Filename != "" {
		location = d.Filename + ":" + location
	}
	fmt.Fprintf(&b, "  --> %s\n", location)

	if line, ok := sourceLine(source, d.Span.Start.Line); ok {
		width := len(fmt.Sprint(d.Span.Start.Line))
		gutter := strings.Repeat(" ", width)
		fmt.Fprintf(&b, "%s |\n", gutter)
		fmt.Fprintf(&b, "%d | %s\n", d.Span.Start.Line, line)
		fmt.Fprintf(&b, "%s | %s%s\n", gutter, caretIndent(line, d.Span.Start.Column), carets(d.Span))
	}

	if d.Context != "" {
		fmt.Fprintf(&b, "  = in %s\n", d.Context)
	}
	if d.OpenedAt != nil {
		fmt.Fprintf(&b, "  = note: '(' opened at %s\n", d.OpenedAt.Start)
	}
	if d.Suggestion != "" {
		fmt.Fprintf(&b, "  = help: %s\n", d.Suggestion)
	}
	return b.String()
}

func sourceLine(source string, line int) (string, bool) {
	if line < 1 {
		return "", false
	}
	lines := strings.Split(source, "\n")
	if line > len(lines) {
		return "", false
	}
	return strings.TrimRight(lines[line-1], "\r"), true
}

// caretIndent keeps tabs so the caret lines up with the source line.
func caretIndent(line string, column int) string {
	var b strings.Builder
	col := 1
	for _, r := range line {
		if col >= column {
			break
		}
		if r == '\t' {
			b.WriteByte('\t')
		} else {
			b.WriteByte(' ')
		}
		col++
	}
	return b.String()
}

func carets(span lexer.Span) string {
	n := 1
	if span.End.Line == span.Start.Line && span.End.Column > span.Start.Column {
		n = span.End.Column - span.Start.Column
	}
	return strings.Repeat("^", n)
}

// Err joins diagnostics into a single error, or returns nil when there are none.
// Strict callers treat any diagnostic as failure.
func Err(diags []Diagnostic) error {
	if len(diags) == 0 {
		return nil
	}
	errs := make([]error, len(diags))
	for i, d := range diags {
		errs[i] = d
	}
	return errors.Join(errs...)
}
