package lexer

import (
	"strings"
	"unicode/utf8"
)

// Escape sequences recognised inside quoted and unquoted arguments:
//
//	\( \) \# \" \<space> \\ \$ \@ \^   the escaped character
//	\t \r \n                           tab, carriage return, line feed
//	\;                                 kept as \; so it never acts as a list separator
//	\<newline>                         line continuation, quoted arguments only
//
// Anything else is an InvalidEscape and is kept verbatim.

// escapeAt decodes the escape sequence at the start of s, which must begin
// with a backslash. It returns the consumed source text, the decoded value and
// whether the sequence is valid.
func escapeAt(s string, quoted bool) (seq, value string, ok bool) {
	if len(s) < 2 {
		return s[:1], s[:1], false
	}
	switch ch := s[1]; {
	case ch == '\n':
		if quoted {
			return s[:2], "", true
		}
		// The newline still terminates an unquoted argument.
		return s[:1], s[:1], false
	case ch == '\r' && quoted && len(s) > 2 && s[2] == '\n':
		return s[:3], "", true
	case ch == 't':
		return s[:2], "\t", true
	case ch == 'r':
		return s[:2], "\r", true
	case ch == 'n':
		return s[:2], "\n", true
	case ch == ';':
		return s[:2], s[:2], true
	case ch < utf8.RuneSelf && identityEscapes[ch]:
		return s[:2], s[1:2], true
	}
	_, size := utf8.DecodeRuneInString(s[1:])
	return s[:1+size], s[:1+size], false
}

// decode resolves the escape sequences of raw, which begins at start in the
// source, and reports the span of every invalid sequence.
func decode(raw string, start Position, quoted bool) (string, []Span) {
	if strings.IndexByte(raw, '\\') < 0 {
		return raw, nil
	}

	var b strings.Builder
	b.Grow(len(raw))
	var bad []Span
	pos := start
	for i := 0; i < len(raw); {
		j := strings.IndexByte(raw[i:], '\\')
		if j < 0 {
			b.WriteString(raw[i:])
			break
		}
		if j > 0 {
			b.WriteString(raw[i : i+j])
			pos = advance(pos, raw[i:i+j])
			i += j
		}
		seq, value, ok := escapeAt(raw[i:], quoted)
		end := advance(pos, seq)
		if !ok {
			bad = append(bad, Span{Start: pos, End: end})
		}
		b.WriteString(value)
		pos = end
		i += len(seq)
	}
	return b.String(), bad
}

// word builds an unquoted argument token, or an IDENTIFIER when raw is a
// plain identifier.
func word(raw string, start Position) Token {
	value, bad := decode(raw, start, false)
	typ := UNQUOTED_ARGUMENT
	if IsIdentifier(raw) {
		typ = IDENTIFIER
	}
	return Token{
		Type:       typ,
		Text:       raw,
		Value:      value,
		Span:       Span{Start: start, End: advance(start, raw)},
		BadEscapes: bad,
	}
}

// SplitList splits an unquoted argument on unescaped ';' into one token per
// non-empty list element, each with its own span and decoded value. Other
// token types, and unquoted arguments without a separator, are returned as is.
func SplitList(tok Token) []Token {
	if tok.Type != UNQUOTED_ARGUMENT || !strings.Contains(tok.Text, ";") {
		return []Token{tok}
	}

	var out []Token
	raw := tok.Text
	pieceStart := 0
	flush := func(end int) {
		if end > pieceStart {
			start := advance(tok.Span.Start, raw[:pieceStart])
			out = append(out, word(raw[pieceStart:end], start))
		}
	}
	for i := 0; i < len(raw); {
		switch raw[i] {
		case '\\':
			seq, _, _ := escapeAt(raw[i:], false)
			i += len(seq)
		case ';':
			flush(i)
			i++
			pieceStart = i
		default:
			i++
		}
	}
	flush(len(raw))
	return out
}

// StartsBracket reports whether s begins with a bracket opener, which would
// make it lex as a bracket argument rather than an unquoted one.
func StartsBracket(s string) bool {
	_, ok := bracketOpen(s, 0)
	return ok
}

// Quote renders value as a quoted argument that decodes back to value.
func Quote(value string) string {
	var b strings.Builder
	b.Grow(len(value) + 2)
	b.WriteByte('"')
	for i := 0; i < len(value); i++ {
		if c := value[i]; c == '\\' || c == '"' {
			b.WriteByte('\\')
		}
		b.WriteByte(value[i])
	}
	b.WriteByte('"')
	return b.String()
}
