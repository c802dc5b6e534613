package command

import (
	"errors"
	"fmt"
	"strings"

	"github.com/adamavenir/confab/internal/api"
	"github.com/adamavenir/confab/internal/core"
	"github.com/spf13/cobra"
)

func writeCommandError(cmd *cobra.Command, err error) error {
	fmt.Fprintf(cmd.ErrOrStderr(), "Error: %s\n", err.Error())

	switch {
	case errors.Is(err, core.ErrNotConfigured):
		fmt.Fprintln(cmd.ErrOrStderr(), "Hint: set your identity with: confab config user_id <id>")
	case errors.Is(err, api.ErrNotFound):
		fmt.Fprintln(cmd.ErrOrStderr(), "Hint: list conversations with: confab conversations")
	case isSchemaError(err):
		fmt.Fprintln(cmd.ErrOrStderr(), "Hint: the local state database looks stale. Remove it and retry.")
	}

	return err
}

// isSchemaError checks if an error is a SQLite schema mismatch.
func isSchemaError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "no such column") ||
		strings.Contains(msg, "no such table") ||
		strings.Contains(msg, "has no column")
}
