package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check that the search service is reachable",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context(), false)
		if err != nil {
			return err
		}
		defer a.Close()

		healthy := a.client.Health(cmd.Context())
		if healthy != nil {
			return fmt.Errorf("search service unhealthy: %w", healthy)
		}
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "ok %s\n", a.cfg.HealthEndpoint())
		return nil
	},
}
