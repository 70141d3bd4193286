package format

import (
	"fmt"
	"io"
	"iter"

	"github.com/aledsdavies/cmakeparse/pkgs/lexer"
)

// Tokens writes one line per token: position, type and quoted source text.
// Error tokens also show their error kind.
func Tokens(w io.Writer, tokens iter.Seq[lexer.Token], useColor bool) error {
	for tok := range tokens {
		typ := tok.Type.String()
		color := ColorBlue
		if tok.Type == lexer.ILLEGAL {
			typ += " (" + tok.Err.String() + ")"
			color = ColorRed
		}
		_, err := fmt.Fprintf(w, "%-8s %s %q\n",
			tok.Span.Start.String(),
			Colorize(typ, color, useColor),
			tok.Text)
		if err != nil {
			return fmt.Errorf("write token: %w", err)
		}
	}
	return nil
}
