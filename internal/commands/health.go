package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/diogo/chatweb/internal/api"
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check that the backend is reachable",
	Long:  `Query the backend's /api/health endpoint and report its status.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDependencies(cmd, runHealth)
	},
}

func runHealth(ctx context.Context, deps *Dependencies) error {
	client, err := deps.NewClient()
	if err != nil {
		return err
	}
	defer client.Close()

	host := deps.Host()
	endpoint, err := host.Absolute(api.ResolveHealthEndpoint(host))
	if err != nil {
		return err
	}

	var spin *spinner
	if deps.Interactive {
		spin = newSpinner(deps.Stderr, "Checking "+endpoint)
		spin.start()
	}

	status, err := client.Health(ctx, endpoint)
	if err != nil {
		if spin != nil {
			spin.stopWithError()
		}
		return err
	}

	if !status.OK() {
		if spin != nil {
			spin.stopWithError()
		}
		return fmt.Errorf("backend at %s reported status %q", endpoint, status.Status)
	}

	if spin != nil {
		spin.stopWithSuccess("Backend healthy")
	}
	fmt.Fprintf(deps.Stdout, "%s: %s\n", endpoint, status.Status)
	return nil
}
