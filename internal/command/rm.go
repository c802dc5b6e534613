package command

import (
	"encoding/json"
	"fmt"

	"github.com/adamavenir/confab/internal/db"
	"github.com/spf13/cobra"
)

// NewRmCmd creates the rm command.
func NewRmCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rm <conversation>",
		Short: "Delete a conversation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, err := GetContext(cmd)
			if err != nil {
				return writeCommandError(cmd, err)
			}
			defer ctx.Close()

			id := args[0]
			if err := ctx.Client.DeleteConversation(cmd.Context(), id); err != nil {
				return writeCommandError(cmd, err)
			}

			// the local draft goes with it
			if conn, err := ctx.DB(); err == nil {
				if err := db.DeleteDraft(conn, id); err != nil {
					ctx.Logger.Warn("delete draft failed", "conversation", id, "error", err)
				}
			} else {
				ctx.Logger.Warn("state database unavailable", "error", err)
			}

			if ctx.JSONMode {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(map[string]any{"id": id, "deleted": true})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", id)
			return nil
		},
	}

	return cmd
}
