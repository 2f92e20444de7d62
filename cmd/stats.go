package cmd

import (
	"fmt"
	"io"
	"slices"
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	appconfig "github.com/ca-srg/footprint/internal/config"
	"github.com/ca-srg/footprint/internal/metrics"
)

var (
	statsDays int
	statsMode string
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show local usage counters",
	Long: `
Show how many searches were made from each front end, by outcome, and the
daily totals for the last --days days. With --mode, show one front end's
outcomes day by day. Only counts are stored; queries and results never are.

Examples:
  footprint stats
  footprint stats --mode webui --days 14
`,
	RunE: runStats,
}

func init() {
	statsCmd.Flags().IntVar(&statsDays, "days", 7, "Number of days of daily totals to show")
	statsCmd.Flags().StringVar(&statsMode, "mode", "", "Only show one mode: cli, console or webui")
}

func runStats(cmd *cobra.Command, args []string) error {
	cfg, err := appconfig.Load(envFile)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	var store *metrics.Store
	if cfg.StatsPath != "" {
		store, err = metrics.NewStoreWithPath(cfg.StatsPath)
	} else {
		store, err = metrics.NewStore()
	}
	if err != nil {
		return fmt.Errorf("failed to open usage store: %w", err)
	}
	defer func() { _ = store.Close() }()

	if statsMode != "" {
		return printModeStats(cmd.OutOrStdout(), store, metrics.Mode(statsMode), statsDays, time.Now())
	}
	return printStats(cmd.OutOrStdout(), store, statsDays)
}

func printStats(w io.Writer, store *metrics.Store, days int) error {
	titleCase := cases.Title(language.English)
	totals, err := store.GetAllTotals()
	if err != nil {
		return err
	}
	daily, err := store.GetDailyCounts(days)
	if err != nil {
		return err
	}

	headers := []string{"Mode"}
	for _, outcome := range metrics.AllOutcomes {
		headers = append(headers, titleCase.String(string(outcome)))
	}
	headers = append(headers, "Total")

	byMode := table.New().Border(lipgloss.NormalBorder()).Headers(headers...)
	for _, mode := range metrics.AllModes {
		row := []string{titleCase.String(string(mode))}
		for _, outcome := range metrics.AllOutcomes {
			row = append(row, strconv.FormatInt(totals[mode][outcome], 10))
		}
		row = append(row, strconv.FormatInt(totals.ByMode(mode), 10))
		byMode.Row(row...)
	}

	_, _ = fmt.Fprintln(w, "=== Searches ===")
	_, _ = fmt.Fprintln(w, byMode.String())

	_, _ = fmt.Fprintf(w, "\n=== Last %d days ===\n", days)
	if len(daily) == 0 {
		_, _ = fmt.Fprintln(w, "No searches recorded.")
		return nil
	}
	perDay := table.New().Border(lipgloss.NormalBorder()).Headers("Date", "Searches")
	for _, dc := range daily {
		perDay.Row(dc.Date, strconv.FormatInt(dc.Count, 10))
	}
	_, _ = fmt.Fprintln(w, perDay.String())
	return nil
}

// printModeStats shows the outcomes of mode for each of the last days days
// ending at now, oldest last.
func printModeStats(w io.Writer, store *metrics.Store, mode metrics.Mode, days int, now time.Time) error {
	if !slices.Contains(metrics.AllModes, mode) {
		return fmt.Errorf("unknown mode %q (want cli, console or webui)", mode)
	}
	if days <= 0 {
		return fmt.Errorf("days must be greater than 0")
	}
	titleCase := cases.Title(language.English)

	total, err := store.GetTotalByMode(mode)
	if err != nil {
		return err
	}

	headers := []string{"Date"}
	for _, outcome := range metrics.AllOutcomes {
		headers = append(headers, titleCase.String(string(outcome)))
	}
	perDay := table.New().Border(lipgloss.NormalBorder()).Headers(headers...)
	for i := 0; i < days; i++ {
		date := now.AddDate(0, 0, -i).Format("2006-01-02")
		row := []string{date}
		for _, outcome := range metrics.AllOutcomes {
			count, err := store.GetCountByDate(mode, outcome, date)
			if err != nil {
				return err
			}
			row = append(row, strconv.FormatInt(count, 10))
		}
		perDay.Row(row...)
	}

	_, _ = fmt.Fprintf(w, "=== %s searches: %d ===\n", titleCase.String(string(mode)), total)
	_, _ = fmt.Fprintln(w, perDay.String())
	return nil
}
