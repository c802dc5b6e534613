package command

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

// NewStatusCmd creates the status command.
func NewStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show backend health",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, err := GetContext(cmd)
			if err != nil {
				return writeCommandError(cmd, err)
			}
			defer ctx.Close()

			health, healthErr := ctx.Client.Health(cmd.Context())
			if health.Status == "" {
				return writeCommandError(cmd, healthErr)
			}

			out := cmd.OutOrStdout()
			if ctx.JSONMode {
				if err := json.NewEncoder(out).Encode(health); err != nil {
					return err
				}
			} else {
				color := green
				if health.Status != "healthy" {
					color = red
				}
				fmt.Fprintf(out, "%s: %s%s%s\n", ctx.Client.BaseURL(), color, health.Status, reset)
				for _, name := range health.ServiceNames() {
					svc := health.Services[name]
					line := fmt.Sprintf("  %-10s %s", name, svc.Status)
					if svc.Error != "" {
						line += " " + dim + "(" + svc.Error + ")" + reset
					}
					fmt.Fprintln(out, line)
				}
			}
			if healthErr != nil {
				return writeCommandError(cmd, healthErr)
			}
			return nil
		},
	}

	return cmd
}
