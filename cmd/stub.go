package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	appconfig "github.com/ca-srg/footprint/internal/config"
	"github.com/ca-srg/footprint/internal/logging"
	"github.com/ca-srg/footprint/internal/stub"
)

var (
	stubAddr    string
	stubFixture string
)

var stubCmd = &cobra.Command{
	Use:   "stub",
	Short: "Serve canned search responses for local development",
	Long: `
The stub command starts a stand-in search service that replays payloads from
a YAML fixture. Without --fixture the built-in fixture is used; it answers
"nobody" with empty categories, "offline" with 503, "broken" with a non-JSON
body, "legacy" with a flat list and every other name with five categories.

Example:
  footprint stub --addr localhost:8787
  FOOTPRINT_SEARCH_BASE_URL=http://localhost:8787 footprint console
`,
	RunE: runStub,
}

func init() {
	stubCmd.Flags().StringVar(&stubAddr, "addr", "localhost:8787", "Address to listen on")
	stubCmd.Flags().StringVarP(&stubFixture, "fixture", "f", "", "YAML fixture file (default built-in)")
}

func runStub(cmd *cobra.Command, args []string) error {
	cfg, err := appconfig.Load(envFile)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	logger, err := logging.New(cfg, logging.Options{Verbose: verbose})
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	fixture, err := loadStubFixture(stubFixture)
	if err != nil {
		return err
	}

	return stub.NewServer(fixture, logger).ListenAndServe(cmd.Context(), stubAddr)
}

func loadStubFixture(path string) (*stub.Fixture, error) {
	if path == "" {
		return stub.DefaultFixture()
	}
	return stub.LoadFixture(path)
}
