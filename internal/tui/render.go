package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"

	"github.com/ca-srg/footprint/internal/console"
	"github.com/ca-srg/footprint/internal/results"
	"github.com/ca-srg/footprint/internal/types"
)

// ResultsMarkdown renders the visible categories as markdown. Flat results
// have no heading; empty categories are skipped.
func ResultsMarkdown(n results.NormalizedResults) string {
	if n.IsEmpty() {
		return console.EmptyText + "\n"
	}

	var b strings.Builder
	for _, category := range n.VisibleCategories() {
		if !n.Flat {
			fmt.Fprintf(&b, "## %s\n\n", console.Heading(category))
		}
		for _, item := range category.Items {
			writeItem(&b, item)
		}
	}
	return b.String()
}

func writeItem(b *strings.Builder, item types.ResultItem) {
	title := item.Title
	if title == "" {
		title = item.URL
	}
	fmt.Fprintf(b, "### %s\n\n", escapeMarkdown(title))
	if item.MatchContext != "" {
		fmt.Fprintf(b, "`%s`\n\n", strings.ReplaceAll(item.MatchContext, "`", "'"))
	}
	if item.Description != "" {
		fmt.Fprintf(b, "%s\n\n", escapeMarkdown(item.Description))
	}
	if item.URL != "" {
		fmt.Fprintf(b, "<%s>\n\n", item.URL)
	}
}

var markdownEscaper = strings.NewReplacer(
	`\`, `\\`,
	"*", `\*`,
	"_", `\_`,
	"`", "\\`",
	"[", `\[`,
	"]", `\]`,
	"<", `\<`,
	"#", `\#`,
)

func escapeMarkdown(s string) string {
	return markdownEscaper.Replace(strings.TrimSpace(s))
}

// Renderer turns markdown into terminal output.
type Renderer struct {
	term *glamour.TermRenderer
}

// NewRenderer creates a renderer wrapping at width columns.
func NewRenderer(width int) *Renderer {
	if width < 20 {
		width = 80
	}
	term, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return &Renderer{}
	}
	return &Renderer{term: term}
}

// Render returns md rendered for the terminal, or md itself if rendering fails.
func (r *Renderer) Render(md string) string {
	if r == nil || r.term == nil {
		return md
	}
	out, err := r.term.Render(md)
	if err != nil {
		return md
	}
	return out
}
