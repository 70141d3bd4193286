package lexer

import (
	"context"
	"iter"
	"log/slog"
	"os"
	"strings"

	"github.com/aledsdavies/cmakeparse/core/invariant"
)

// LexerOpt configures a Lexer
type LexerOpt func(*LexerConfig)

// LexerConfig holds lexer configuration
type LexerConfig struct {
	keepComments bool
	logger       *slog.Logger
}

// WithComments keeps LINE_COMMENT and BRACKET_COMMENT tokens in the stream
func WithComments() LexerOpt {
	return func(c *LexerConfig) {
		c.keepComments = true
	}
}

// WithLogger sets the logger used for debug tracing
func WithLogger(logger *slog.Logger) LexerOpt {
	return func(c *LexerConfig) {
		c.logger = logger
	}
}

// Lexer tokenizes CMake source text. A Lexer is single-use: create a new one
// (or call Tokenize again) to re-scan the same text.
type Lexer struct {
	input  string
	pos    int // byte offset of the next unread character
	line   int
	column int

	config LexerConfig
	logger *slog.Logger
	debug  bool
	done   bool
}

// NewLexer creates a lexer over source
func NewLexer(source string, opts ...LexerOpt) *Lexer {
	l := &Lexer{
		input:  source,
		line:   1,
		column: 1,
	}
	for _, opt := range opts {
		opt(&l.config)
	}
	l.logger = l.config.logger
	if l.logger == nil {
		l.logger = defaultLogger()
	}
	l.debug = l.logger.Enabled(context.Background(), slog.LevelDebug)
	return l
}

// defaultLogger discards output unless CMAKEPARSE_DEBUG_LEXER is set.
func defaultLogger() *slog.Logger {
	if os.Getenv("CMAKEPARSE_DEBUG_LEXER") == "" {
		return slog.New(slog.DiscardHandler)
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelDebug,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey || a.Key == slog.LevelKey {
				return slog.Attr{}
			}
			return a
		},
	}))
}

// Tokenize returns the lazy token sequence of source. The sequence always
// ends with exactly one EOF token. Every range over it re-scans source from
// the start.
func Tokenize(source string, opts ...LexerOpt) iter.Seq[Token] {
	return func(yield func(Token) bool) {
		for tok := range NewLexer(source, opts...).All() {
			if !yield(tok) {
				return
			}
		}
	}
}

// Collect tokenizes source eagerly
func Collect(source string, opts ...LexerOpt) []Token {
	var tokens []Token
	for tok := range Tokenize(source, opts...) {
		tokens = append(tokens, tok)
	}
	return tokens
}

// All yields the remaining tokens up to and including EOF
func (l *Lexer) All() iter.Seq[Token] {
	return func(yield func(Token) bool) {
		for {
			tok := l.Next()
			if !yield(tok) || tok.Type == EOF {
				return
			}
		}
	}
}

// Next returns the next token. After EOF it keeps returning EOF.
func (l *Lexer) Next() Token {
	for {
		tok := l.scan()
		if tok.Type.IsComment() && !l.config.keepComments {
			continue
		}
		if l.debug {
			l.logger.Debug("token", "type", tok.Type, "text", tok.Text, "pos", tok.Span.Start)
		}
		return tok
	}
}

func (l *Lexer) position() Position {
	return Position{Line: l.line, Column: l.column, Offset: l.pos}
}

// seek moves forward to byte offset end, keeping line and column current.
func (l *Lexer) seek(end int) {
	invariant.Precondition(end >= l.pos && end <= len(l.input), "seek to %d from %d", end, l.pos)
	p := advance(l.position(), l.input[l.pos:end])
	l.pos, l.line, l.column = p.Offset, p.Line, p.Column
}

// token consumes input up to end and returns a token of typ covering it.
func (l *Lexer) token(typ TokenType, end int) Token {
	start := l.position()
	text := l.input[start.Offset:end]
	l.seek(end)
	return Token{Type: typ, Text: text, Span: Span{Start: start, End: l.position()}}
}

func (l *Lexer) scan() Token {
	for l.pos < len(l.input) && isSpace(l.input[l.pos]) {
		l.seek(l.pos + 1)
	}

	if l.pos >= len(l.input) {
		if !l.done && l.debug {
			l.logger.Debug("end of input", "pos", l.position())
		}
		l.done = true
		p := l.position()
		return Token{Type: EOF, Span: Span{Start: p, End: p}}
	}

	startOffset := l.pos
	var tok Token
	switch ch := l.input[l.pos]; ch {
	case '\n':
		tok = l.token(NEWLINE, l.pos+1)
	case '(':
		tok = l.token(LPAREN, l.pos+1)
	case ')':
		tok = l.token(RPAREN, l.pos+1)
	case '#':
		if level, ok := bracketOpen(l.input, l.pos+1); ok {
			tok = l.bracket(BRACKET_COMMENT, level, 1)
		} else {
			tok = l.lineComment()
		}
	case '[':
		if level, ok := bracketOpen(l.input, l.pos); ok {
			tok = l.bracket(BRACKET_ARGUMENT, level, 0)
		} else {
			tok = l.unquoted()
		}
	case '"':
		tok = l.quoted()
	default:
		tok = l.unquoted()
	}

	invariant.Invariant(l.pos > startOffset, "lexer stuck at offset %d", startOffset)
	return tok
}

// bracketOpen reports whether s[i:] starts with '[' '='* '[' and returns the
// number of '='.
func bracketOpen(s string, i int) (int, bool) {
	if i >= len(s) || s[i] != '[' {
		return 0, false
	}
	level := 0
	for j := i + 1; j < len(s); j++ {
		switch s[j] {
		case '=':
			level++
		case '[':
			return level, true
		default:
			return 0, false
		}
	}
	return 0, false
}

func (l *Lexer) lineComment() Token {
	end := strings.IndexByte(l.input[l.pos:], '\n')
	if end < 0 {
		end = len(l.input)
	} else {
		end += l.pos
	}
	tok := l.token(LINE_COMMENT, end)
	tok.Value = tok.Text[1:]
	return tok
}

// bracket scans a bracket argument or bracket comment. prefix is the number
// of bytes before the opening '[' ("#" for comments).
func (l *Lexer) bracket(typ TokenType, level, prefix int) Token {
	openLen := prefix + level + 2
	contentStart := l.pos + openLen
	closer := "]" + strings.Repeat("=", level) + "]"

	idx := strings.Index(l.input[contentStart:], closer)
	if idx < 0 {
		return l.illegal(UnterminatedBracket)
	}
	contentEnd := contentStart + idx

	// A newline directly after the opener is not part of the content.
	content := l.input[contentStart:contentEnd]
	if strings.HasPrefix(content, "\r\n") {
		content = content[2:]
	} else if strings.HasPrefix(content, "\n") {
		content = content[1:]
	}

	tok := l.token(typ, contentEnd+len(closer))
	tok.Value = content
	tok.Level = level
	return tok
}

func (l *Lexer) quoted() Token {
	i := l.pos + 1
	for i < len(l.input) {
		switch l.input[i] {
		case '"':
			start := l.position()
			tok := l.token(QUOTED_ARGUMENT, i+1)
			tok.Value, tok.BadEscapes = decode(tok.Text[1:len(tok.Text)-1], advance(start, `"`), true)
			return tok
		case '\\':
			seq, _, _ := escapeAt(l.input[i:], true)
			i += len(seq)
		default:
			i++
		}
	}
	return l.illegal(UnterminatedQuote)
}

func (l *Lexer) unquoted() Token {
	i := l.pos
	for i < len(l.input) && !stopsUnquoted(l.input[i]) {
		if l.input[i] == '\\' {
			seq, _, _ := escapeAt(l.input[i:], false)
			i += len(seq)
			continue
		}
		i++
	}
	start := l.position()
	tok := word(l.input[start.Offset:i], start)
	l.seek(i)
	return tok
}

// illegal reports an unterminated construct starting at the current position.
// The error token runs to the end of the opener's line; scanning resumes at
// that newline.
func (l *Lexer) illegal(kind ErrorKind) Token {
	end := strings.IndexByte(l.input[l.pos:], '\n')
	if end < 0 {
		end = len(l.input)
	} else {
		end += l.pos
	}
	if l.debug {
		l.logger.Debug("lexical error", "kind", kind, "pos", l.position())
	}
	tok := l.token(ILLEGAL, end)
	tok.Err = kind
	return tok
}
