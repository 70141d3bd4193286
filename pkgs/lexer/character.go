package lexer

import "unicode/utf8"

// ASCII character lookup tables for fast classification
var (
	isWhitespace    [128]bool // separators, excluding '\n' which is a token
	isIdentStart    [128]bool
	isIdentPart     [128]bool
	isUnquotedStop  [128]bool // characters that end an unquoted argument
	identityEscapes [128]bool // \x decodes to x
)

func init() {
	for i := 0; i < 128; i++ {
		ch := byte(i)
		isWhitespace[i] = ch == ' ' || ch == '\t' || ch == '\r' || ch == '\f'
		isIdentStart[i] = ('a' <= ch && ch <= 'z') || ('A' <= ch && ch <= 'Z') || ch == '_'
		isIdentPart[i] = isIdentStart[i] || ('0' <= ch && ch <= '9')
		isUnquotedStop[i] = isWhitespace[i] || ch == '\n' || ch == '(' || ch == ')' || ch == '#' || ch == '"'
	}
	for _, ch := range []byte{'(', ')', '#', '"', ' ', '\\', '$', '@', '^'} {
		identityEscapes[ch] = true
	}
}

func stopsUnquoted(ch byte) bool {
	return ch < utf8.RuneSelf && isUnquotedStop[ch]
}

func isSpace(ch byte) bool {
	return ch < utf8.RuneSelf && isWhitespace[ch]
}

// IsIdentifier reports whether s matches [A-Za-z_][A-Za-z0-9_]*
func IsIdentifier(s string) bool {
	if s == "" || s[0] >= utf8.RuneSelf || !isIdentStart[s[0]] {
		return false
	}
	for i := 1; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf || !isIdentPart[s[i]] {
			return false
		}
	}
	return true
}

// advance returns the position reached after reading s from p.
func advance(p Position, s string) Position {
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		i += size
		p.Offset += size
		if r == '\n' {
			p.Line++
			p.Column = 1
		} else {
			p.Column++
		}
	}
	return p
}
