package console

import (
	"fmt"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/ca-srg/footprint/internal/results"
)

// View is the rendering selected for a snapshot.
type View string

const (
	ViewQueryForm View = "query_form"
	ViewLoading   View = "loading"
	ViewResults   View = "results"
	ViewEmpty     View = "empty"
)

// Texts shown by every front end.
const (
	LoadingText = "SCANNING GLOBAL NETWORKS..."
	EmptyText   = "NO DATA FOUND IN PUBLIC SECTOR."
	ResultsText = "SCAN RESULTS"
)

// Project selects the view for s.
func Project(s Snapshot) View {
	switch s.Phase {
	case PhaseLoading:
		return ViewLoading
	case PhaseResolved:
		if s.Results.IsEmpty() {
			return ViewEmpty
		}
		return ViewResults
	default:
		return ViewQueryForm
	}
}

// AcceptsSubmit reports whether the submit action may be offered.
func (v View) AcceptsSubmit() bool {
	return v == ViewQueryForm
}

// AcceptsReset reports whether a new search may be started.
func (v View) AcceptsReset() bool {
	return v == ViewResults || v == ViewEmpty
}

// Heading formats a category heading with its item count. A Caser is not
// safe for concurrent use, so each call builds its own.
func Heading(c results.Category) string {
	return fmt.Sprintf("%s (%d)", cases.Upper(language.English).String(c.Label), len(c.Items))
}
