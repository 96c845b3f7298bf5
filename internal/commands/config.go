package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/diogo/chatweb/internal/config"
	"github.com/diogo/chatweb/internal/tui"
)

// NewConfigCmd creates the config command and its subcommands
func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show the effective configuration",
		Long: `Print the configuration chatweb would use: defaults, then
~/.chatweb/config.json, then environment variables (and .env), then flags.
The API key is redacted.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(cmd)
			if err != nil {
				return err
			}
			data, err := json.MarshalIndent(cfg.Redacted(), "", "  ")
			if err != nil {
				return fmt.Errorf("failed to marshal config: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return nil
		},
	}

	var force bool
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default config file",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := config.GetConfigPath()
			if err != nil {
				return err
			}
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("config file already exists at %s (use --force to overwrite)", path)
			}
			if err := config.SaveConfig(config.DefaultConfig()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
			return nil
		},
	}
	initCmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing config file")

	pathCmd := &cobra.Command{
		Use:   "path",
		Short: "Print the config file path",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := config.GetConfigPath()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}

	themesCmd := &cobra.Command{
		Use:   "themes",
		Short: "List the chat themes accepted by tui_theme",
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, theme := range tui.Themes() {
				fmt.Fprintf(cmd.OutOrStdout(), "%-12s %s\n", theme.Name, theme.Description)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "\nresponse_mode: %s\n", strings.Join(config.AvailableResponseModes(), ", "))
			return nil
		},
	}

	cmd.AddCommand(initCmd, pathCmd, themesCmd)
	return cmd
}

var configCmd = NewConfigCmd()
