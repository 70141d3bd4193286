// Command cmakeparse lexes, parses and inspects CMake files.
package main

import (
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/aledsdavies/cmakeparse/internal/config"
	"github.com/aledsdavies/cmakeparse/pkgs/ast"
	"github.com/aledsdavies/cmakeparse/pkgs/format"
	"github.com/aledsdavies/cmakeparse/pkgs/lexer"
	"github.com/aledsdavies/cmakeparse/pkgs/parser"
)

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

// app holds the flags and settings shared by every subcommand
type app struct {
	configPath   string
	debug        bool
	noColor      bool
	keepComments bool
	splitLists   bool

	cfg    config.Config
	logger *slog.Logger
	stderr io.Writer
}

// run executes the command line and returns the process exit code
func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	a := &app{cfg: config.Default(), stderr: stderr, logger: slog.New(slog.DiscardHandler)}
	root := a.rootCmd()
	root.SetArgs(args)
	root.SetIn(stdin)
	root.SetOut(stdout)
	root.SetErr(stderr)

	if err := root.ExecuteContext(ctx); err != nil {
		FormatError(stderr, err, a.useColor(stderr))
		return exitCode(err)
	}
	return ExitOK
}

func (a *app) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "cmakeparse",
		Short:         "Lex, parse and inspect CMake files",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.configPath, "config", "", "Path to a .yaml or .toml config file (default: .cmakeparse.* in the working directory)")
	flags.BoolVar(&a.debug, "debug", false, "Enable debug logging of the lexer and parser")
	flags.BoolVar(&a.noColor, "no-color", false, "Disable colored output")
	flags.BoolVar(&a.keepComments, "keep-comments", false, "Keep comments in token streams and trees")
	flags.BoolVar(&a.splitLists, "split-lists", false, "Split unquoted arguments on ';'")

	root.AddCommand(
		a.tokensCmd(),
		a.treeCmd(),
		a.checkCmd(),
		a.fmtCmd(),
		a.commandsCmd(),
		a.projectCmd(),
		a.refsCmd(),
		a.lintCmd(),
	)
	return root
}

// setup loads the config file and lets explicitly set flags override it
func (a *app) setup(cmd *cobra.Command) error {
	var err error
	if a.configPath != "" {
		a.cfg, err = config.Load(a.configPath)
	} else {
		a.cfg, err = config.Discover(".")
	}
	if err != nil {
		return &CLIError{
			Type:    ErrConfig,
			Message: "cannot load config",
			Cause:   err,
			Hint:    "supported keys: keep_comments, split_lists, strict, color, ignore",
		}
	}

	flags := cmd.Flags()
	if flags.Changed("keep-comments") {
		a.cfg.KeepComments = a.keepComments
	}
	if flags.Changed("split-lists") {
		a.cfg.SplitLists = a.splitLists
	}
	if a.noColor {
		a.cfg.Color = config.ColorNever
	}

	level := slog.LevelInfo
	if a.debug || os.Getenv("CMAKEPARSE_DEBUG") != "" {
		level = slog.LevelDebug
	}
	a.logger = slog.New(slog.NewTextHandler(a.stderr, &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, attr slog.Attr) slog.Attr {
			if attr.Key == slog.TimeKey {
				return slog.Attr{}
			}
			return attr
		},
	}))
	if a.cfg.Path != "" {
		a.logger.Debug("loaded config", "path", a.cfg.Path)
	}
	return nil
}

func (a *app) useColor(w io.Writer) bool {
	switch a.cfg.Color {
	case config.ColorAlways:
		return true
	case config.ColorNever:
		return false
	}
	f, _ := w.(*os.File)
	return format.ShouldUseColor(a.noColor, f)
}

func (a *app) lexerOptions() []lexer.LexerOpt {
	opts := []lexer.LexerOpt{lexer.WithLogger(a.logger)}
	if a.cfg.KeepComments {
		opts = append(opts, lexer.WithComments())
	}
	return opts
}

func (a *app) parse(name string, src []byte) (*ast.File, []parser.Diagnostic) {
	opts := append(a.cfg.ParserOptions(), parser.WithFilename(name), parser.WithLogger(a.logger))
	file, diags := parser.Parse(src, opts...)
	a.logger.Debug("parsed", "file", name, "commands", len(file.Commands), "diagnostics", len(diags))
	return file, diags
}
