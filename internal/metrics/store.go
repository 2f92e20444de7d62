package metrics

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/ca-srg/footprint/internal/console"
)

// Mode is the surface a search was made from.
type Mode string

const (
	ModeCLI     Mode = "cli"
	ModeConsole Mode = "console"
	ModeWebUI   Mode = "webui"
)

// AllModes lists every tracked mode in display order.
var AllModes = []Mode{ModeCLI, ModeConsole, ModeWebUI}

// AllOutcomes lists every tracked outcome in display order.
var AllOutcomes = []console.OutcomeKind{
	console.OutcomeResults,
	console.OutcomeEmpty,
	console.OutcomeFailure,
	console.OutcomeRejected,
}

const dateLayout = "2006-01-02"

// Store persists daily search counts in SQLite. Only counts are stored.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// DefaultPath returns ~/.footprint/stats.db.
func DefaultPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(homeDir, ".footprint", "stats.db"), nil
}

// NewStore opens the store at the default path.
func NewStore() (*Store, error) {
	dbPath, err := DefaultPath()
	if err != nil {
		return nil, err
	}
	return NewStoreWithPath(dbPath)
}

// NewStoreWithPath opens or creates the store at dbPath, creating its directory.
func NewStoreWithPath(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create stats directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// modernc sqlite serializes writers; one connection avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	createTableSQL := `
		CREATE TABLE IF NOT EXISTS search_counts (
			mode TEXT NOT NULL,
			outcome TEXT NOT NULL,
			date TEXT NOT NULL,
			count INTEGER DEFAULT 0,
			PRIMARY KEY (mode, outcome, date)
		);
	`
	if _, err := db.Exec(createTableSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create table: %w", err)
	}

	return &Store{db: db, now: time.Now}, nil
}

// Increment adds one to today's count for mode and outcome.
func (s *Store) Increment(mode Mode, outcome console.OutcomeKind) error {
	today := s.now().Format(dateLayout)

	upsertSQL := `
		INSERT INTO search_counts (mode, outcome, date, count)
		VALUES (?, ?, ?, 1)
		ON CONFLICT(mode, outcome, date) DO UPDATE SET count = count + 1;
	`
	if _, err := s.db.Exec(upsertSQL, string(mode), string(outcome), today); err != nil {
		return fmt.Errorf("failed to increment count: %w", err)
	}
	return nil
}

// Totals holds cumulative counts by mode and outcome. Every known pair is present.
type Totals map[Mode]map[console.OutcomeKind]int64

// ByMode sums the outcomes of mode.
func (t Totals) ByMode(mode Mode) int64 {
	var sum int64
	for _, count := range t[mode] {
		sum += count
	}
	return sum
}

func newTotals() Totals {
	totals := make(Totals, len(AllModes))
	for _, mode := range AllModes {
		totals[mode] = make(map[console.OutcomeKind]int64, len(AllOutcomes))
		for _, outcome := range AllOutcomes {
			totals[mode][outcome] = 0
		}
	}
	return totals
}

// GetAllTotals returns cumulative counts across all dates.
func (s *Store) GetAllTotals() (Totals, error) {
	totals := newTotals()

	rows, err := s.db.Query(
		"SELECT mode, outcome, COALESCE(SUM(count), 0) FROM search_counts GROUP BY mode, outcome",
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query totals: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var modeStr, outcomeStr string
		var total int64
		if err := rows.Scan(&modeStr, &outcomeStr, &total); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		mode := Mode(modeStr)
		if totals[mode] == nil {
			totals[mode] = make(map[console.OutcomeKind]int64)
		}
		totals[mode][console.OutcomeKind(outcomeStr)] = total
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return totals, nil
}

// GetTotalByMode returns the cumulative count for mode across all outcomes.
func (s *Store) GetTotalByMode(mode Mode) (int64, error) {
	var total int64
	row := s.db.QueryRow(
		"SELECT COALESCE(SUM(count), 0) FROM search_counts WHERE mode = ?",
		string(mode),
	)
	if err := row.Scan(&total); err != nil {
		return 0, fmt.Errorf("failed to get total for mode %s: %w", mode, err)
	}
	return total, nil
}

// GetCountByDate returns the count for one mode, outcome and date (YYYY-MM-DD).
func (s *Store) GetCountByDate(mode Mode, outcome console.OutcomeKind, date string) (int64, error) {
	var count int64
	row := s.db.QueryRow(
		"SELECT COALESCE(count, 0) FROM search_counts WHERE mode = ? AND outcome = ? AND date = ?",
		string(mode), string(outcome), date,
	)
	if err := row.Scan(&count); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to get count: %w", err)
	}
	return count, nil
}

// DailyCount is the number of searches on one day.
type DailyCount struct {
	Date  string `json:"date"`
	Count int64  `json:"count"`
}

// GetDailyCounts returns per-day totals for the last days days, newest first.
// Days without searches are omitted.
func (s *Store) GetDailyCounts(days int) ([]DailyCount, error) {
	if days <= 0 {
		return nil, fmt.Errorf("days must be greater than 0")
	}
	since := s.now().AddDate(0, 0, -(days - 1)).Format(dateLayout)

	rows, err := s.db.Query(
		"SELECT date, SUM(count) FROM search_counts WHERE date >= ? GROUP BY date ORDER BY date DESC",
		since,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query daily counts: %w", err)
	}
	defer func() { _ = rows.Close() }()

	counts := make([]DailyCount, 0, days)
	for rows.Next() {
		var dc DailyCount
		if err := rows.Scan(&dc.Date, &dc.Count); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		counts = append(counts, dc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return counts, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
