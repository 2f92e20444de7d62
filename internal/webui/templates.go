package webui

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/ca-srg/footprint/internal/console"
)

//go:embed templates/*.html templates/partials/*.html
var templatesFS embed.FS

//go:embed static/*
var staticFiles embed.FS

// TemplateManager manages HTML templates
type TemplateManager struct {
	templates *template.Template
}

// NewTemplateManager creates a new template manager
func NewTemplateManager() (*TemplateManager, error) {
	funcMap := template.FuncMap{
		"formatDuration": formatDurationTemplate,
		"formatTime":     formatTime,
		"loadingText":    func() string { return console.LoadingText },
		"emptyText":      func() string { return console.EmptyText },
		"resultsText":    func() string { return console.ResultsText },
	}

	tmpl, err := template.New("").Funcs(funcMap).ParseFS(
		templatesFS, "templates/*.html", "templates/partials/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	return &TemplateManager{
		templates: tmpl,
	}, nil
}

// Render renders a template to the writer
func (tm *TemplateManager) Render(w io.Writer, name string, data interface{}) error {
	return tm.templates.ExecuteTemplate(w, name, data)
}

// buildPageData projects a snapshot into template data.
func buildPageData(snap console.Snapshot, endpoint string) *PageData {
	data := &PageData{
		View:       console.Project(snap),
		Version:    snap.Version,
		Endpoint:   endpoint,
		Query:      snap.Query,
		Flat:       snap.Results.Flat,
		TotalItems: snap.Results.TotalItems(),
		Elapsed:    snap.Elapsed(),
	}
	for _, c := range snap.Results.VisibleCategories() {
		data.Categories = append(data.Categories, CategoryView{
			Heading: console.Heading(c),
			Items:   c.Items,
		})
	}
	if n := snap.Notification; n != nil {
		data.Notification = &NotificationView{Text: n.Text(), Time: n.Time}
	}
	return data
}

// formatDurationTemplate formats duration for templates
func formatDurationTemplate(d time.Duration) string {
	if d == 0 {
		return "-"
	}
	if d < time.Second {
		return d.Round(time.Millisecond).String()
	}
	return d.Round(100 * time.Millisecond).String()
}

// formatTime formats time for display
func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format("2006-01-02 15:04:05")
}
