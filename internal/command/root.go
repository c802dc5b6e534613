package command

import (
	"os"

	"github.com/spf13/cobra"
)

const AppName = "confab"

// Version is overwritten at build time using -ldflags.
var Version = "dev"

func NewRootCmd(version string) *cobra.Command {
	cmd := &cobra.Command{
		Use:           AppName,
		Short:         "Confab - terminal chat client with @-mentions",
		Long:          "Confab is a terminal chat client for conversations with an assistant backend.",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cmd.Version = version
	cmd.SetVersionTemplate(AppName + " version {{.Version}}\n")
	cmd.SetOut(os.Stdout)
	cmd.SetErr(os.Stderr)

	cmd.PersistentFlags().String("config", "", "path to config file")
	cmd.PersistentFlags().String("server", "", "backend base URL (overrides server_url)")
	cmd.PersistentFlags().String("user", "", "user id sent with every request (overrides user_id)")
	cmd.PersistentFlags().Bool("json", false, "output in JSON format")

	cmd.AddCommand(
		NewChatCmd(),
		NewConversationsCmd(),
		NewNewCmd(),
		NewRenameCmd(),
		NewRmCmd(),
		NewHistoryCmd(),
		NewSendCmd(),
		NewWatchCmd(),
		NewStatusCmd(),
		NewConfigCmd(),
	)

	return cmd
}

func Execute() error {
	return NewRootCmd(Version).Execute()
}
