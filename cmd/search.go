package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ca-srg/footprint/internal/console"
	"github.com/ca-srg/footprint/internal/metrics"
	"github.com/ca-srg/footprint/internal/results"
	"github.com/ca-srg/footprint/internal/tui"
	"github.com/ca-srg/footprint/internal/types"
)

var (
	searchName      string
	searchExtraInfo string
	searchJSON      bool
	searchWidth     int
)

var searchCmd = &cobra.Command{
	Use:   "search [name]",
	Short: "Run one search and print the results",
	Long: `
Send a single identity query to the search service and print the categorized
results. The name may be given with --name or as positional arguments.

Examples:
  footprint search "Jane Doe"
  footprint search --name "Jane Doe" --extra "MIT, Boston"
  footprint search "Jane Doe" --json
`,
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().StringVarP(&searchName, "name", "n", "", "Name to search for")
	searchCmd.Flags().StringVarP(&searchExtraInfo, "extra", "e", "", "Additional parameters (location, keywords, ...)")
	searchCmd.Flags().BoolVarP(&searchJSON, "json", "j", false, "Output results in JSON format")
	searchCmd.Flags().IntVar(&searchWidth, "width", 100, "Wrap width for text output")
}

// searchOutput is the --json document.
type searchOutput struct {
	Query        types.Query               `json:"query"`
	Endpoint     string                    `json:"endpoint"`
	View         console.View              `json:"view"`
	Results      results.NormalizedResults `json:"results"`
	TotalItems   int                       `json:"total_items"`
	Notification string                    `json:"notification,omitempty"`
	ElapsedMS    int64                     `json:"elapsed_ms"`
}

func runSearch(cmd *cobra.Command, args []string) error {
	q := types.Query{Name: searchName, ExtraInfo: searchExtraInfo}
	if q.Name == "" && len(args) > 0 {
		q.Name = strings.Join(args, " ")
	}
	if q.Blank() {
		return fmt.Errorf("a name is required (use --name or a positional argument)")
	}

	a, err := newApp(cmd.Context(), false)
	if err != nil {
		return err
	}
	defer a.Close()

	d := a.dispatcher(metrics.ModeCLI)
	return searchAndPrint(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr(), d, q, searchJSON, searchWidth)
}

// searchAndPrint submits q and writes the resolved view to out. A failed search
// prints its notification to errOut and returns an error after printing.
func searchAndPrint(ctx context.Context, out, errOut io.Writer, d *console.Dispatcher, q types.Query, asJSON bool, width int) error {
	outcome, err := d.Submit(ctx, q)
	if err != nil {
		return err
	}
	snap := d.Snapshot()

	if asJSON {
		doc := searchOutput{
			Query:      q,
			Endpoint:   d.Endpoint(),
			View:       console.Project(snap),
			Results:    snap.Results,
			TotalItems: snap.Results.TotalItems(),
			ElapsedMS:  outcome.Elapsed.Milliseconds(),
		}
		if snap.Notification != nil {
			doc.Notification = snap.Notification.Text()
		}
		encoder := json.NewEncoder(out)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(doc); err != nil {
			return fmt.Errorf("failed to encode results: %w", err)
		}
	} else {
		if snap.Notification != nil {
			_, _ = fmt.Fprintln(errOut, snap.Notification.Text())
		}
		printResults(out, snap.Results, width)
	}

	if outcome.Failed() {
		return fmt.Errorf("search failed: %w", outcome.Err)
	}
	return nil
}

func printResults(w io.Writer, n results.NormalizedResults, width int) {
	if n.IsEmpty() {
		_, _ = fmt.Fprintln(w, console.EmptyText)
		return
	}
	_, _ = fmt.Fprintf(w, "=== %s (%d) ===\n", console.ResultsText, n.TotalItems())
	_, _ = fmt.Fprint(w, tui.NewRenderer(width).Render(tui.ResultsMarkdown(n)))
}
