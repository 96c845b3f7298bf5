package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/diogo/chatweb/internal/api"
	"github.com/diogo/chatweb/internal/tui"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive chat session",
	Long: `Start an interactive chat session with the backend.

Each message is sent on its own; the backend keeps no conversation context.
While a reply is in flight further submissions are ignored.
Type 'exit', 'quit', or press Esc or Ctrl+C to end the session.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDependencies(cmd, runChat)
	},
}

func runChat(ctx context.Context, deps *Dependencies) error {
	if name := deps.Config.TUITheme; name != "" && !tui.ApplyTheme(name) {
		fmt.Fprintf(deps.Stderr, "Warning: unknown theme '%s', using %s\n", name, tui.CurrentTheme().Name)
	}

	client, err := deps.NewClient()
	if err != nil {
		return err
	}
	defer client.Close()

	sess := deps.NewSession(client)

	return deps.TUI.RunChat(ctx, sess, tui.ChatOptions{
		Endpoint:         api.ResolveEndpoint(deps.Host()),
		ModelName:        deps.Config.Model,
		DeveloperMessage: developerFlag,
	})
}
