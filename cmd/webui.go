package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ca-srg/footprint/internal/console"
	"github.com/ca-srg/footprint/internal/metrics"
	"github.com/ca-srg/footprint/internal/webui"
)

var (
	webuiHost string
	webuiPort int
)

var webuiCmd = &cobra.Command{
	Use:   "webui",
	Short: "Start the local web console",
	Long: `
The webui command starts a local web server with the search console. Open
tabs follow the shared console state through Server-Sent Events.

Example:
  footprint webui                  # Start with defaults (WEBUI_HOST:WEBUI_PORT)
  footprint webui --port 8080      # Use custom port
`,
	RunE: runWebUI,
}

func init() {
	webuiCmd.Flags().StringVar(&webuiHost, "host", "", "Host to bind the web server (default WEBUI_HOST)")
	webuiCmd.Flags().IntVarP(&webuiPort, "port", "p", 0, "Port to bind the web server (default WEBUI_PORT)")
}

func runWebUI(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd.Context(), false)
	if err != nil {
		return err
	}
	defer a.Close()

	serverConfig := webui.ServerConfigFromConfig(a.cfg)
	if webuiHost != "" {
		serverConfig.Host = webuiHost
	}
	if webuiPort != 0 {
		serverConfig.Port = webuiPort
	}

	server, err := webui.NewServer(serverConfig, a.client, a.logger,
		console.WithRecorder(metrics.ForMode(metrics.ModeWebUI)))
	if err != nil {
		return fmt.Errorf("failed to create webui server: %w", err)
	}

	return server.Run(cmd.Context())
}
