package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

const stdinName = "<stdin>"

// readInput reads path, or standard input when path is "-". It returns the
// name diagnostics should use for the input.
func readInput(cmd *cobra.Command, path string) ([]byte, string, error) {
	if path == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return nil, "", &CLIError{Type: ErrInput, Message: "cannot read standard input", Cause: err}
		}
		return data, stdinName, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", &CLIError{
			Type:    ErrInput,
			Message: fmt.Sprintf("cannot read %s", path),
			Cause:   err,
			Hint:    "pass a CMake file path, or - to read standard input",
		}
	}
	return data, path, nil
}
