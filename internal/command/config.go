package command

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/adamavenir/confab/internal/core"
	"github.com/spf13/cobra"
)

// NewConfigCmd creates the config command.
func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config [key] [value]",
		Short: "Get or set configuration",
		Long: `Get or set configuration.

With no arguments all keys are shown, including values from .env and
CONFAB_* environment variables. Setting a key writes only the config file.`,
		Args: cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			// config must work before the client is configured, so it does
			// not go through GetContext.
			configPath, _ := cmd.Flags().GetString("config")
			jsonMode, _ := cmd.Flags().GetBool("json")
			out := cmd.OutOrStdout()

			if len(args) < 2 {
				cfg, err := core.LoadConfig(configPath)
				if err != nil {
					return writeCommandError(cmd, err)
				}
				keys := core.ConfigKeys()
				if len(args) == 1 {
					keys = []string{normalizeConfigKey(args[0])}
				}
				entries := make(map[string]string, len(keys))
				for _, key := range keys {
					value, err := cfg.Get(key)
					if err != nil {
						return writeCommandError(cmd, err)
					}
					entries[key] = displayConfigValue(key, value)
				}
				if jsonMode {
					return json.NewEncoder(out).Encode(entries)
				}
				if len(args) == 1 {
					fmt.Fprintf(out, "%s: %s\n", keys[0], entries[keys[0]])
					return nil
				}
				fmt.Fprintln(out, "Configuration:")
				for _, key := range keys {
					fmt.Fprintf(out, "  %s: %s\n", key, entries[key])
				}
				return nil
			}

			key := normalizeConfigKey(args[0])
			cfg, err := core.ReadConfigFile(configPath)
			if err != nil {
				return writeCommandError(cmd, err)
			}
			if err := cfg.Set(key, args[1]); err != nil {
				return writeCommandError(cmd, err)
			}
			if err := core.SaveConfig(configPath, cfg); err != nil {
				return writeCommandError(cmd, err)
			}
			value, _ := cfg.Get(key)
			if jsonMode {
				return json.NewEncoder(out).Encode(map[string]string{key: displayConfigValue(key, value)})
			}
			fmt.Fprintf(out, "Set %s = %s\n", key, displayConfigValue(key, value))
			return nil
		},
	}

	return cmd
}

func normalizeConfigKey(value string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(value)), "-", "_")
}

// displayConfigValue hides secrets.
func displayConfigValue(key, value string) string {
	if key == "token" && value != "" {
		return "********"
	}
	return value
}
