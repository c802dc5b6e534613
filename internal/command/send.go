package command

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/adamavenir/confab/internal/core"
	"github.com/adamavenir/confab/internal/db"
	"github.com/adamavenir/confab/internal/editor"
	"github.com/spf13/cobra"
)

// NewSendCmd creates the send command.
func NewSendCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "send <conversation> <text>",
		Short: "Send a message",
		Long: `Send a message to a conversation.

Mentions are written as wire tokens, for example:
  confab send c1 'agenda for @{meeting}{Sprint Planning}?'`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, err := GetContext(cmd)
			if err != nil {
				return writeCommandError(cmd, err)
			}
			defer ctx.Close()

			out := editor.FromText(strings.Join(args[1:], " "), editor.DisplayShort).Serialize()
			if out.Content == "" {
				return writeCommandError(cmd, fmt.Errorf("message is empty"))
			}

			result, err := ctx.Client.SendMessage(cmd.Context(), args[0], out.Content, out.Mentions)
			if err != nil {
				return writeCommandError(cmd, err)
			}
			recordSentMentions(ctx, out.Content)

			if ctx.JSONMode {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(result)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Sent %s\n", result.UserMessage.ID)
			return nil
		},
	}

	return cmd
}

// recordSentMentions feeds sent mentions into the local recents so the chat
// popover offers them first.
func recordSentMentions(ctx *CommandContext, content string) {
	tokens := core.ParseWireTokens(content)
	if len(tokens) == 0 {
		return
	}
	conn, err := ctx.DB()
	if err != nil {
		ctx.Logger.Warn("state database unavailable", "error", err)
		return
	}
	now := time.Now()
	for _, tok := range tokens {
		if err := db.RecordMention(conn, tok.Mention, now); err != nil {
			ctx.Logger.Warn("record mention failed", "mention", tok.Mention.Name, "error", err)
		}
	}
}
