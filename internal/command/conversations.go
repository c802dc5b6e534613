package command

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/adamavenir/confab/internal/types"
	"github.com/gobwas/glob"
	"github.com/spf13/cobra"
)

// NewConversationsCmd creates the conversations command.
func NewConversationsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "conversations",
		Aliases: []string{"ls"},
		Short:   "List conversations",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, err := GetContext(cmd)
			if err != nil {
				return writeCommandError(cmd, err)
			}
			defer ctx.Close()

			page, _ := cmd.Flags().GetInt("page")
			limit, _ := cmd.Flags().GetInt("limit")
			pattern, _ := cmd.Flags().GetString("match")

			var matcher glob.Glob
			if pattern != "" {
				matcher, err = glob.Compile(strings.ToLower(pattern))
				if err != nil {
					return writeCommandError(cmd, fmt.Errorf("invalid --match pattern: %w", err))
				}
			}

			convs, pagination, err := ctx.Client.ListConversations(cmd.Context(), page, limit)
			if err != nil {
				return writeCommandError(cmd, err)
			}
			if matcher != nil {
				convs = filterConversations(convs, matcher)
			}

			out := cmd.OutOrStdout()
			if ctx.JSONMode {
				payload := map[string]any{"conversations": convs}
				if pagination != nil {
					payload["pagination"] = pagination
				}
				return json.NewEncoder(out).Encode(payload)
			}

			if len(convs) == 0 {
				fmt.Fprintln(out, "No conversations")
				return nil
			}
			now := time.Now()
			for _, conv := range convs {
				fmt.Fprintln(out, FormatConversation(conv, now))
			}
			if pagination != nil && pagination.HasNext {
				fmt.Fprintf(out, "%s-- page %d of %d (--page %d for more) --%s\n",
					dim, pagination.Page, pagination.TotalPages, pagination.Page+1, reset)
			}
			return nil
		},
	}

	cmd.Flags().String("match", "", "only show conversations whose title matches a glob (case-insensitive)")
	cmd.Flags().Int("page", 1, "page number")
	cmd.Flags().Int("limit", 20, "conversations per page")

	return cmd
}

func filterConversations(convs []types.Conversation, matcher glob.Glob) []types.Conversation {
	filtered := make([]types.Conversation, 0, len(convs))
	for _, conv := range convs {
		if matcher.Match(strings.ToLower(conversationTitle(conv))) {
			filtered = append(filtered, conv)
		}
	}
	return filtered
}
