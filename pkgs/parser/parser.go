// Package parser builds CMake syntax trees. Parsing never fails: malformed
// input produces a best-effort tree plus diagnostics.
package parser

import (
	"context"
	"fmt"
	"iter"
	"log/slog"

	"github.com/aledsdavies/cmakeparse/core/invariant"
	"github.com/aledsdavies/cmakeparse/pkgs/ast"
	"github.com/aledsdavies/cmakeparse/pkgs/lexer"
)

// Parse parses source. The tree does not reference source, which the caller
// may reuse once Parse returns.
func Parse(source []byte, opts ...ParserOpt) (*ast.File, []Diagnostic) {
	return ParseString(string(source), opts...)
}

// ParseString parses source text
func ParseString(source string, opts ...ParserOpt) (*ast.File, []Diagnostic) {
	config := newConfig(opts)
	return parse(lexer.Tokenize(source, config.lexerOpts()...), config)
}

// ParseTokens parses a token sequence such as one produced by lexer.Tokenize.
// A sequence without a final EOF token is treated as ending there.
func ParseTokens(tokens iter.Seq[lexer.Token], opts ...ParserOpt) (*ast.File, []Diagnostic) {
	return parse(tokens, newConfig(opts))
}

func parse(tokens iter.Seq[lexer.Token], config ParserConfig) (*ast.File, []Diagnostic) {
	p := &parser{config: config, logger: config.logger}
	p.collect(tokens)

	file := p.file()

	invariant.Postcondition(file != nil, "parser must always return a tree")
	p.logger.Debug("parse complete", "commands", len(file.Commands), "diagnostics", len(p.diags))
	return file, p.diags
}

// parser holds the state of a single parse
type parser struct {
	tokens   []lexer.Token // comments removed, always ends with EOF
	comments []ast.Comment
	pos      int
	diags    []Diagnostic
	config   ParserConfig
	logger   *slog.Logger
}

func (p *parser) collect(tokens iter.Seq[lexer.Token]) {
	for tok := range tokens {
		if tok.Type.IsComment() {
			if p.config.keepComments {
				p.comments = append(p.comments, ast.Comment{
					Text:    tok.Text,
					Bracket: tok.Type == lexer.BRACKET_COMMENT,
					Loc:     tok.Span,
				})
			}
			continue
		}
		p.tokens = append(p.tokens, tok)
		if tok.Type == lexer.EOF {
			return
		}
	}

	var end lexer.Position
	if n := len(p.tokens); n > 0 {
		end = p.tokens[n-1].Span.End
	} else {
		end = lexer.Position{Line: 1, Column: 1}
	}
	p.tokens = append(p.tokens, lexer.Token{Type: lexer.EOF, Span: lexer.Span{Start: end, End: end}})
}

func (p *parser) cur() lexer.Token {
	return p.tokens[p.pos]
}

func (p *parser) at(typ lexer.TokenType) bool {
	return p.cur().Type == typ
}

// advance consumes the current token. EOF is never consumed.
func (p *parser) advance() lexer.Token {
	tok := p.cur()
	if tok.Type != lexer.EOF {
		p.pos++
	}
	return tok
}

// prevEnd returns the end of the last consumed token
func (p *parser) prevEnd() lexer.Position {
	if p.pos == 0 {
		return p.tokens[0].Span.Start
	}
	return p.tokens[p.pos-1].Span.End
}

// file parses: (command_invocation | NEWLINE)* EOF
func (p *parser) file() *ast.File {
	file := &ast.File{Comments: p.comments}

	prevPos := -1
	for !p.at(lexer.EOF) {
		invariant.Invariant(p.pos > prevPos, "parser stuck at token %d (%s)", p.pos, p.cur().Type)
		prevPos = p.pos

		tok := p.cur()
		switch tok.Type {
		case lexer.NEWLINE:
			p.advance()
		case lexer.IDENTIFIER:
			file.Commands = append(file.Commands, p.commandInvocation())
		case lexer.LPAREN:
			p.report(Diagnostic{
				Kind:       MissingCommandName,
				Span:       tok.Span,
				Message:    "expected a command name before '('",
				Expected:   []lexer.TokenType{lexer.IDENTIFIER},
				Got:        tok.Type,
				Suggestion: "command invocations have the form name(arguments...)",
			})
			p.synchronize()
		case lexer.RPAREN:
			p.report(Diagnostic{
				Kind:    UnbalancedParenthesis,
				Span:    tok.Span,
				Message: "unmatched ')'",
				Got:     tok.Type,
			})
			p.synchronize()
		case lexer.ILLEGAL:
			// Error tokens already run to the end of their line.
			p.lexical(tok, "")
			p.advance()
		default:
			p.report(Diagnostic{
				Kind:     UnexpectedToken,
				Span:     tok.Span,
				Message:  fmt.Sprintf("expected a command name, got %s %q", tok.Type, tok.Text),
				Expected: []lexer.TokenType{lexer.IDENTIFIER},
				Got:      tok.Type,
			})
			p.synchronize()
		}
	}

	eof := p.cur().Span.End
	file.Loc = lexer.Span{Start: lexer.Position{Line: 1, Column: 1}, End: eof}
	return file
}

// commandInvocation parses: IDENTIFIER LPAREN argument* RPAREN
func (p *parser) commandInvocation() *ast.CommandInvocation {
	name := p.advance()
	cmd := &ast.CommandInvocation{
		Name:    name.Text,
		NameLoc: name.Span,
		Loc:     name.Span,
	}
	where := fmt.Sprintf("command %q", cmd.Name)

	if !p.at(lexer.LPAREN) {
		got := p.cur()
		p.report(Diagnostic{
			Kind:       UnexpectedToken,
			Span:       got.Span,
			Message:    fmt.Sprintf("expected '(' after command name, got %s", got.Type),
			Context:    where,
			Expected:   []lexer.TokenType{lexer.LPAREN},
			Got:        got.Type,
			Suggestion: fmt.Sprintf("write %s(...)", cmd.Name),
		})
		cmd.Recovered = true
		p.synchronize()
		return cmd
	}

	open := p.advance()
	p.arguments(cmd, open, where)

	// The invocation extends through its trailing newline.
	if p.at(lexer.NEWLINE) {
		cmd.Loc.End = p.cur().Span.End
	}

	if p.logger.Enabled(context.Background(), slog.LevelDebug) {
		p.logger.Debug("command", "name", cmd.Name, "args", len(cmd.Arguments), "recovered", cmd.Recovered)
	}
	return cmd
}

// arguments parses the arguments of cmd up to and including the ')' matching
// open. Compound arguments are tracked on an explicit stack so nesting depth
// does not grow the goroutine stack.
func (p *parser) arguments(cmd *ast.CommandInvocation, open lexer.Token, where string) {
	var stack []*ast.CompoundArgument
	opened := []lexer.Span{open.Span}

	add := func(arg ast.Argument) {
		if n := len(stack); n > 0 {
			stack[n-1].Arguments = append(stack[n-1].Arguments, arg)
		} else {
			cmd.Arguments = append(cmd.Arguments, arg)
		}
	}
	markRecovered := func() {
		cmd.Recovered = true
		if n := len(stack); n > 0 {
			stack[n-1].Recovered = true
		}
	}

	prevPos := p.pos - 1
	for {
		invariant.Invariant(p.pos > prevPos || p.at(lexer.EOF), "parser stuck at token %d (%s)", p.pos, p.cur().Type)
		prevPos = p.pos

		tok := p.cur()
		switch {
		case tok.Type == lexer.LPAREN:
			p.advance()
			compound := &ast.CompoundArgument{Loc: tok.Span}
			add(compound)
			stack = append(stack, compound)
			opened = append(opened, tok.Span)

		case tok.Type == lexer.RPAREN:
			p.advance()
			opened = opened[:len(opened)-1]
			if n := len(stack); n > 0 {
				stack[n-1].Loc.End = tok.Span.End
				stack = stack[:n-1]
				continue
			}
			cmd.Loc.End = tok.Span.End
			return

		case tok.Type == lexer.NEWLINE:
			p.advance()

		case tok.Type.IsArgument():
			p.advance()
			if len(tok.BadEscapes) > 0 {
				p.lexical(tok, where)
				markRecovered()
			}
			for _, arg := range p.singleArguments(tok) {
				add(arg)
			}

		case tok.Type == lexer.ILLEGAL:
			p.advance()
			p.lexical(tok, where)
			markRecovered()

		case tok.Type == lexer.EOF:
			innermost := opened[len(opened)-1]
			p.report(Diagnostic{
				Kind:       UnbalancedParenthesis,
				Span:       tok.Span,
				Message:    fmt.Sprintf("missing ')' before end of input (%d unclosed)", len(opened)),
				Context:    where,
				Expected:   []lexer.TokenType{lexer.RPAREN},
				Got:        tok.Type,
				Suggestion: "add the missing ')'",
				OpenedAt:   &innermost,
			})
			end := p.prevEnd()
			for _, compound := range stack {
				compound.Recovered = true
				compound.Loc.End = end
			}
			cmd.Recovered = true
			cmd.Loc.End = end
			return

		default:
			p.advance()
			p.report(Diagnostic{
				Kind:    UnexpectedToken,
				Span:    tok.Span,
				Message: fmt.Sprintf("unexpected %s %q in arguments", tok.Type, tok.Text),
				Context: where,
				Got:     tok.Type,
			})
			markRecovered()
		}
	}
}

func (p *parser) singleArguments(tok lexer.Token) []ast.Argument {
	pieces := []lexer.Token{tok}
	if p.config.splitLists {
		pieces = lexer.SplitList(tok)
	}

	args := make([]ast.Argument, 0, len(pieces))
	for _, piece := range pieces {
		args = append(args, singleArgument(piece))
	}
	return args
}

func singleArgument(tok lexer.Token) *ast.SingleArgument {
	kind := ast.Unquoted
	switch tok.Type {
	case lexer.BRACKET_ARGUMENT:
		kind = ast.Bracket
	case lexer.QUOTED_ARGUMENT:
		kind = ast.Quoted
	}
	return &ast.SingleArgument{
		Kind:  kind,
		Value: tok.Value,
		Raw:   tok.Text,
		Level: tok.Level,
		Loc:   tok.Span,
	}
}

// synchronize skips to the next NEWLINE outside parentheses, reporting any
// lexical errors on the way.
func (p *parser) synchronize() {
	depth := 0
	for !p.at(lexer.EOF) {
		tok := p.cur()
		switch tok.Type {
		case lexer.NEWLINE:
			if depth == 0 {
				return
			}
		case lexer.LPAREN:
			depth++
		case lexer.RPAREN:
			if depth > 0 {
				depth--
			}
		case lexer.ILLEGAL:
			p.lexical(tok, "")
		}
		p.advance()
	}
}

// lexical reports the lexical errors carried by tok
func (p *parser) lexical(tok lexer.Token, where string) {
	if tok.Type == lexer.ILLEGAL {
		d := Diagnostic{
			Kind:    kindOf(tok.Err),
			Span:    tok.Span,
			Message: tok.Err.String(),
			Context: where,
			Got:     tok.Type,
		}
		switch tok.Err {
		case lexer.UnterminatedQuote:
			d.Expected = []lexer.TokenType{lexer.QUOTED_ARGUMENT}
			d.Suggestion = `close the argument with '"'`
		case lexer.UnterminatedBracket:
			d.Expected = []lexer.TokenType{lexer.BRACKET_ARGUMENT}
			d.Suggestion = "close the bracket with ']' followed by the same number of '=' and ']'"
		}
		p.report(d)
		return
	}

	for _, bad := range tok.BadEscapes {
		start := bad.Start.Offset - tok.Span.Start.Offset
		end := bad.End.Offset - tok.Span.Start.Offset
		p.report(Diagnostic{
			Kind:       InvalidEscape,
			Span:       bad,
			Message:    fmt.Sprintf("invalid escape sequence %q", tok.Text[start:end]),
			Context:    where,
			Got:        tok.Type,
			Suggestion: `use "\\" for a literal backslash`,
		})
	}
}

func (p *parser) report(d Diagnostic) {
	d.Filename = p.config.filename
	p.logger.Debug("diagnostic", "kind", d.Kind, "pos", d.Span.Start, "message", d.Message)
	p.diags = append(p.diags, d)
}
