package parser

import (
	"log/slog"

	"github.com/aledsdavies/cmakeparse/pkgs/lexer"
)

// ParserOpt configures a parse
type ParserOpt func(*ParserConfig)

// ParserConfig holds parser configuration
type ParserConfig struct {
	filename     string
	splitLists   bool
	keepComments bool
	logger       *slog.Logger
}

// WithFilename sets the file name reported in diagnostics
func WithFilename(name string) ParserOpt {
	return func(c *ParserConfig) {
		c.filename = name
	}
}

// WithListSplitting splits unquoted arguments on unescaped ';' into sibling
// arguments, dropping empty elements. By default the separator is preserved
// in a single argument and list handling is left to the consumer.
func WithListSplitting() ParserOpt {
	return func(c *ParserConfig) {
		c.splitLists = true
	}
}

// WithComments keeps comments in File.Comments
func WithComments() ParserOpt {
	return func(c *ParserConfig) {
		c.keepComments = true
	}
}

// WithLogger sets the logger for debug tracing of the lexer and parser
func WithLogger(logger *slog.Logger) ParserOpt {
	return func(c *ParserConfig) {
		c.logger = logger
	}
}

func newConfig(opts []ParserOpt) ParserConfig {
	var c ParserConfig
	for _, opt := range opts {
		opt(&c)
	}
	if c.logger == nil {
		c.logger = slog.New(slog.DiscardHandler)
	}
	return c
}

func (c ParserConfig) lexerOpts() []lexer.LexerOpt {
	opts := []lexer.LexerOpt{lexer.WithLogger(c.logger)}
	if c.keepComments {
		opts = append(opts, lexer.WithComments())
	}
	return opts
}
