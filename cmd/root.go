package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var (
	envFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "footprint",
	Short: "footprint - search console for public identity footprints",
	Long: `footprint sends an identity query (a name plus optional qualifiers) to a
remote search service and shows the categorized results.

Three front ends drive the same search lifecycle: a one-shot CLI (search),
an interactive terminal console (console) and a local web console (webui).`,
	SilenceUsage: true,
}

// Execute runs the root command until it returns or the process is interrupted.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "Path to a .env file (ignored if missing)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(consoleCmd)
	rootCmd.AddCommand(webuiCmd)
	rootCmd.AddCommand(stubCmd)
	rootCmd.AddCommand(healthCmd)
	rootCmd.AddCommand(statsCmd)
}
