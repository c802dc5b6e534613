package command

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// NewNewCmd creates the new command.
func NewNewCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "new [title]",
		Short: "Create a conversation",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, err := GetContext(cmd)
			if err != nil {
				return writeCommandError(cmd, err)
			}
			defer ctx.Close()

			title := strings.TrimSpace(strings.Join(args, " "))
			conv, err := ctx.Client.CreateConversation(cmd.Context(), title)
			if err != nil {
				return writeCommandError(cmd, err)
			}

			if ctx.JSONMode {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(conv)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created %s (%s)\n", conversationTitle(conv), conv.ID)
			return nil
		},
	}

	return cmd
}
