package command

import (
	"github.com/adamavenir/confab/internal/chat"
	"github.com/spf13/cobra"
)

// NewChatCmd creates the interactive chat command.
func NewChatCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chat [conversation]",
		Short: "Interactive chat",
		Long:  "Open the chat UI. Without an argument the last active conversation opens.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, err := GetContext(cmd)
			if err != nil {
				return writeCommandError(cmd, err)
			}
			defer ctx.Close()

			conn, err := ctx.DB()
			if err != nil {
				return writeCommandError(cmd, err)
			}

			metrics, stop, err := serveMetrics(ctx.Config.MetricsAddr, ctx.Logger)
			if err != nil {
				return writeCommandError(cmd, err)
			}
			defer stop()

			var conversationID string
			if len(args) > 0 {
				conversationID = args[0]
			}

			err = chat.Run(cmd.Context(), chat.Options{
				Client:         ctx.Client,
				DB:             conn,
				Config:         ctx.Config,
				ConfigPath:     ctx.ConfigPath,
				ConversationID: conversationID,
				Metrics:        metrics,
				Logger:         ctx.Logger,
			})
			if err != nil {
				return writeCommandError(cmd, err)
			}
			return nil
		},
	}

	return cmd
}
