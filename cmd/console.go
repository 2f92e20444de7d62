package cmd

import (
	"github.com/spf13/cobra"

	"github.com/ca-srg/footprint/internal/metrics"
	"github.com/ca-srg/footprint/internal/tui"
)

var consoleCmd = &cobra.Command{
	Use:   "console",
	Short: "Start the interactive terminal console",
	Long: `
The console command opens a full-screen terminal UI: enter a name and optional
additional parameters, press enter to scan, and browse the categorized results.
Logs go to LOG_FILE when set and are discarded otherwise.
`,
	RunE: runConsole,
}

func runConsole(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd.Context(), true)
	if err != nil {
		return err
	}
	defer a.Close()

	return tui.Run(cmd.Context(), a.dispatcher(metrics.ModeConsole), a.logger)
}
