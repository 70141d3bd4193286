package main

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aledsdavies/cmakeparse/core/invariant"
	"github.com/aledsdavies/cmakeparse/pkgs/format"
	"github.com/aledsdavies/cmakeparse/pkgs/inspect"
	"github.com/aledsdavies/cmakeparse/pkgs/lexer"
	"github.com/aledsdavies/cmakeparse/pkgs/parser"
	"github.com/aledsdavies/cmakeparse/pkgs/snapshot"
)

func (a *app) tokensCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tokens FILE",
		Short: "Print the token stream of a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, _, err := readInput(cmd, args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			return format.Tokens(out, lexer.Tokenize(string(src), a.lexerOptions()...), a.useColor(out))
		},
	}
}

func (a *app) treeCmd() *cobra.Command {
	var (
		hash         bool
		snapshotPath string
	)
	cmd := &cobra.Command{
		Use:   "tree FILE",
		Short: "Print the syntax tree of a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, name, err := readInput(cmd, args[0])
			if err != nil {
				return err
			}
			file, diags := a.parse(name, src)

			out := cmd.OutOrStdout()
			if err := format.Tree(out, file, name, a.useColor(out)); err != nil {
				return &CLIError{Type: ErrOutput, Message: "cannot write tree", Cause: err}
			}
			for _, d := range diags {
				_, _ = fmt.Fprintln(cmd.ErrOrStderr(), d.Error())
			}

			if hash {
				digest, err := snapshot.Digest(file)
				if err != nil {
					return &CLIError{Type: ErrOutput, Message: "cannot fingerprint tree", Cause: err}
				}
				_, _ = fmt.Fprintf(out, "digest: %s\n", digest)
			}
			if snapshotPath != "" {
				data, err := snapshot.Encode(file)
				if err != nil {
					return &CLIError{Type: ErrOutput, Message: "cannot encode snapshot", Cause: err}
				}
				if err := os.WriteFile(snapshotPath, data, 0o644); err != nil {
					return &CLIError{Type: ErrOutput, Message: fmt.Sprintf("cannot write %s", snapshotPath), Cause: err}
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&hash, "hash", false, "Print the structural fingerprint of the tree")
	cmd.Flags().StringVar(&snapshotPath, "snapshot", "", "Write a binary snapshot of the tree to this path")
	return cmd
}

func (a *app) checkCmd() *cobra.Command {
	var strict, watch bool
	cmd := &cobra.Command{
		Use:   "check FILE...",
		Short: "Report syntax errors",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("strict") {
				a.cfg.Strict = strict
			}
			if watch {
				return a.watch(cmd, args)
			}

			failed, err := a.check(cmd, args)
			if err != nil {
				return err
			}
			if failed > 0 && a.cfg.Strict {
				return &CLIError{
					Type:    ErrParse,
					Message: fmt.Sprintf("%d of %d file(s) have syntax errors", failed, len(args)),
					Hint:    "fix the reported errors, or run without --strict to only report them",
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&strict, "strict", false, "Exit with an error when any file has diagnostics")
	cmd.Flags().BoolVar(&watch, "watch", false, "Re-check files when they change")
	return cmd
}

// check reports diagnostics for each path and returns how many files had any
func (a *app) check(cmd *cobra.Command, paths []string) (int, error) {
	out := cmd.OutOrStdout()
	color := a.useColor(out)

	failed := 0
	for _, path := range paths {
		src, name, err := readInput(cmd, path)
		if err != nil {
			return failed, err
		}
		_, diags := a.parse(name, src)
		if len(diags) == 0 {
			_, _ = fmt.Fprintf(out, "%s: %s\n", name, format.Colorize("ok", format.ColorGreen, color))
			continue
		}

		failed++
		for _, d := range diags {
			_, _ = fmt.Fprintln(out, d.Format(string(src)))
		}
		noun := "diagnostics"
		if len(diags) == 1 {
			noun = "diagnostic"
		}
		_, _ = fmt.Fprintf(out, "%s: %s\n", name, format.Colorize(fmt.Sprintf("%d %s", len(diags), noun), format.ColorRed, color))
	}
	return failed, nil
}

func (a *app) fmtCmd() *cobra.Command {
	var write bool
	cmd := &cobra.Command{
		Use:   "fmt FILE",
		Short: "Print a file in canonical form",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, name, err := readInput(cmd, args[0])
			if err != nil {
				return err
			}
			file, diags := a.parse(name, src)
			if len(diags) > 0 {
				return &CLIError{
					Type:    ErrParse,
					Message: fmt.Sprintf("refusing to format %s", name),
					Details: diagnosticList(diags),
					Hint:    "run cmakeparse check for details",
				}
			}

			var buf bytes.Buffer
			invariant.ExpectNoError(format.Render(&buf, file), "rendering to memory")

			if !write || args[0] == "-" {
				_, err := io.Copy(cmd.OutOrStdout(), &buf)
				return err
			}
			if bytes.Equal(buf.Bytes(), src) {
				return nil
			}
			info, err := os.Stat(args[0])
			if err != nil {
				return &CLIError{Type: ErrOutput, Message: fmt.Sprintf("cannot stat %s", args[0]), Cause: err}
			}
			if err := os.WriteFile(args[0], buf.Bytes(), info.Mode().Perm()); err != nil {
				return &CLIError{Type: ErrOutput, Message: fmt.Sprintf("cannot write %s", args[0]), Cause: err}
			}
			a.logger.Info("formatted", "file", args[0])
			return nil
		},
	}
	cmd.Flags().BoolVarP(&write, "write", "w", false, "Write the result back to the file")
	return cmd
}

func (a *app) commandsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "commands FILE",
		Short: "List command invocations with their flattened arguments",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, name, err := readInput(cmd, args[0])
			if err != nil {
				return err
			}
			file, _ := a.parse(name, src)

			out := cmd.OutOrStdout()
			for _, c := range inspect.Commands(file) {
				quoted := make([]string, len(c.Args))
				for i, arg := range c.Args {
					quoted[i] = lexer.Quote(arg)
				}
				line := fmt.Sprintf("%d:%d\t%s\t%s", c.Line, c.Column, c.Name, strings.Join(quoted, " "))
				if c.Recovered {
					line += " " + format.Colorize("[recovered]", format.ColorRed, a.useColor(out))
				}
				_, _ = fmt.Fprintln(out, line)
			}
			return nil
		},
	}
}

func (a *app) projectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "project FILE",
		Short: "Show the project, targets, dependencies and options a file declares",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, name, err := readInput(cmd, args[0])
			if err != nil {
				return err
			}
			file, _ := a.parse(name, src)
			p := inspect.Analyze(file)

			out := cmd.OutOrStdout()
			line := func(fields ...string) {
				_, _ = fmt.Fprintln(out, strings.Join(fields, "\t"))
			}
			if p.Name != "" {
				line("project", p.Name, p.Version, p.Description)
			}
			if len(p.Languages) > 0 {
				line("languages", strings.Join(p.Languages, " "))
			}
			if p.MinimumVersion != "" {
				line("minimum", p.MinimumVersion)
			}
			for _, t := range p.Targets {
				line("target", t.Name, t.Type.String(), strings.Join(t.LinkLibraries, " "))
			}
			for _, d := range p.Dependencies {
				version := d.Version
				if d.Required {
					version = strings.TrimSpace(version + " required")
				}
				line("dependency", d.Name, d.Kind.String(), version)
			}
			for _, o := range p.Options {
				line("option", o.Name, o.Type, o.Default)
			}
			return nil
		},
	}
}

func (a *app) refsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "refs FILE",
		Short: "List variable references and generator expressions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, name, err := readInput(cmd, args[0])
			if err != nil {
				return err
			}
			file, _ := a.parse(name, src)

			out := cmd.OutOrStdout()
			for _, ref := range inspect.References(file) {
				_, _ = fmt.Fprintf(out, "%s\t%s\t%s\t%s\n", ref.Span.Start, ref.Kind, ref.Name, ref.Command)
			}
			return nil
		},
	}
}

func (a *app) lintCmd() *cobra.Command {
	var cmakeVersion string
	cmd := &cobra.Command{
		Use:   "lint FILE",
		Short: "Report unknown commands and version requirements",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, name, err := readInput(cmd, args[0])
			if err != nil {
				return err
			}
			file, diags := a.parse(name, src)
			for _, d := range diags {
				_, _ = fmt.Fprintln(cmd.ErrOrStderr(), d.Error())
			}

			out := cmd.OutOrStdout()
			problems := 0
			for _, f := range inspect.Lint(file) {
				if a.cfg.Ignored(f.Command) {
					continue
				}
				problems++
				_, _ = fmt.Fprintf(out, "%s:%s\n", name, f)
			}

			if cmakeVersion != "" {
				ok, err := inspect.SatisfiesMinimum(file, cmakeVersion)
				if err != nil {
					return &CLIError{Type: ErrUsage, Message: "bad --cmake-version", Cause: err}
				}
				if !ok {
					problems++
					required, _ := inspect.MinimumRequired(file)
					_, _ = fmt.Fprintf(out, "%s: requires CMake %s, checking against %s\n", name, required, cmakeVersion)
				}
			}

			if problems > 0 {
				return &CLIError{Type: ErrLint, Message: fmt.Sprintf("%d problem(s) in %s", problems, name)}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&cmakeVersion, "cmake-version", "", "Check cmake_minimum_required against this CMake version")
	return cmd
}

func diagnosticList(diags []parser.Diagnostic) string {
	lines := make([]string, len(diags))
	for i, d := range diags {
		lines[i] = "  " + d.Error()
	}
	return strings.Join(lines, "\n")
}
