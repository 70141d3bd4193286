package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aledsdavies/cmakeparse/pkgs/format"
	"github.com/aledsdavies/cmakeparse/pkgs/parser"
)

// Error types
const (
	ErrInput  = "input"
	ErrOutput = "output"
	ErrConfig = "config"
	ErrParse  = "parse"
	ErrLint   = "lint"
	ErrUsage  = "usage"
)

// CLIError represents a formatted CLI error with context
type CLIError struct {
	Type    string
	Message string
	Details string // Additional context
	Hint    string // How to fix it
	Cause   error
}

// Error implements the error interface
func (e *CLIError) Error() string {
	var b strings.Builder
	b.WriteString(e.Message)
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	if e.Details != "" {
		b.WriteString("\n")
		b.WriteString(e.Details)
	}
	if e.Hint != "" {
		b.WriteString("\n")
		b.WriteString(e.Hint)
	}
	return b.String()
}

func (e *CLIError) Unwrap() error {
	return e.Cause
}

// IsErrorType checks if err is a CLIError of the given type
func IsErrorType(err error, errorType string) bool {
	var cliErr *CLIError
	return errors.As(err, &cliErr) && cliErr.Type == errorType
}

// Exit codes
const (
	ExitOK       = 0
	ExitProblems = 1 // the input has syntax errors or lint findings
	ExitFailure  = 2 // the tool could not do its job
)

// exitCode maps err to the process exit status. Errors cobra raises for bad
// flags or arguments carry no type and count as failures.
func exitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case IsErrorType(err, ErrParse), IsErrorType(err, ErrLint):
		return ExitProblems
	default:
		return ExitFailure
	}
}

// FormatError formats an error for CLI output with colors
func FormatError(w io.Writer, err error, useColor bool) {
	if err == nil {
		return
	}

	var (
		cliErr *CLIError
		diag   parser.Diagnostic
	)
	switch {
	case errors.As(err, &cliErr):
		formatCLIError(w, cliErr, useColor)
	case errors.As(err, &diag):
		_, _ = fmt.Fprintf(w, "%s%s\n", format.Colorize("Error: ", format.ColorRed, useColor), diag.Error())
	default:
		_, _ = fmt.Fprintf(w, "%s%s\n", format.Colorize("Error: ", format.ColorRed, useColor), err.Error())
	}
}

func formatCLIError(w io.Writer, err *CLIError, useColor bool) {
	msg := err.Message
	if err.Cause != nil {
		msg += ": " + err.Cause.Error()
	}
	_, _ = fmt.Fprintf(w, "%s%s\n", format.Colorize("Error: ", format.ColorRed, useColor), msg)

	if err.Details != "" {
		_, _ = fmt.Fprintf(w, "\n%s\n", err.Details)
	}

	if err.Hint != "" {
		_, _ = fmt.Fprintf(w, "%s%s\n", format.Colorize("Hint: ", format.ColorYellow, useColor), err.Hint)
	}
}
