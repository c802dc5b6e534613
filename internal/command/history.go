package command

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

// NewHistoryCmd creates the history command.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history <conversation>",
		Short: "Show a conversation's messages",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, err := GetContext(cmd)
			if err != nil {
				return writeCommandError(cmd, err)
			}
			defer ctx.Close()

			limit, _ := cmd.Flags().GetInt("limit")
			if limit <= 0 {
				limit = ctx.Config.HistoryLimit
			}

			messages, err := ctx.Client.ListMessages(cmd.Context(), args[0], limit)
			if err != nil {
				return writeCommandError(cmd, err)
			}

			out := cmd.OutOrStdout()
			if ctx.JSONMode {
				return json.NewEncoder(out).Encode(messages)
			}
			if len(messages) == 0 {
				fmt.Fprintln(out, "No messages")
				return nil
			}
			for _, msg := range messages {
				fmt.Fprintln(out, FormatMessage(msg))
			}
			return nil
		},
	}

	cmd.Flags().Int("limit", 0, "maximum messages to show (default history_limit)")

	return cmd
}
