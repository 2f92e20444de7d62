// Package tui is the interactive terminal console.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/ca-srg/footprint/internal/console"
	"github.com/ca-srg/footprint/internal/logging"
	"github.com/ca-srg/footprint/internal/types"
)

const (
	fieldName = iota
	fieldExtra
	fieldCount
)

const (
	headerHeight = 3
	footerHeight = 3
)

// outcomeMsg carries a finished fetch back to the UI loop.
type outcomeMsg struct {
	outcome console.Outcome
}

// Model is the bubbletea model of the console. The dispatcher is only
// mutated from Update.
type Model struct {
	ctx        context.Context
	dispatcher *console.Dispatcher
	logger     *zap.Logger

	inputs   []textinput.Model
	focus    int
	spinner  spinner.Model
	viewport viewport.Model
	renderer *Renderer
	styles   Styles

	width  int
	height int
	// version of the snapshot currently rendered into the viewport
	rendered uint64
}

// New creates a Model over d. Fetches run with ctx.
func New(ctx context.Context, d *console.Dispatcher, logger *zap.Logger) Model {
	styles := DefaultStyles()

	name := textinput.New()
	name.Placeholder = "Jane Doe"
	name.Prompt = "> "
	name.CharLimit = 256
	name.Width = 60
	name.Focus()

	extra := textinput.New()
	extra.Placeholder = "city, employer, school..."
	extra.Prompt = "> "
	extra.CharLimit = 512
	extra.Width = 60

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = styles.Spinner

	return Model{
		ctx:        ctx,
		dispatcher: d,
		logger:     logging.OrNop(logger),
		inputs:     []textinput.Model{name, extra},
		spinner:    sp,
		viewport:   viewport.New(80, 20),
		renderer:   NewRenderer(76),
		styles:     styles,
		width:      80,
		height:     24,
	}
}

func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.viewport.Width = max(msg.Width-4, 20)
		m.viewport.Height = max(msg.Height-headerHeight-footerHeight, 5)
		for i := range m.inputs {
			m.inputs[i].Width = max(msg.Width-8, 20)
		}
		m.renderer = NewRenderer(msg.Width - 8)
		m.rendered = 0
		m.refreshResults()
		return m, nil

	case outcomeMsg:
		if m.dispatcher.Resolve(msg.outcome) {
			m.refreshResults()
		}
		return m, nil

	case spinner.TickMsg:
		if m.dispatcher.Snapshot().Phase == console.PhaseLoading {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
		return m, nil
	}

	return m.updateFocused(msg)
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	snap := m.dispatcher.Snapshot()

	// The failure notification is modal.
	if snap.Notification != nil {
		switch msg.Type {
		case tea.KeyEnter, tea.KeyEsc:
			m.dispatcher.Dismiss()
		}
		return m, nil
	}

	switch console.Project(snap) {
	case console.ViewQueryForm:
		switch msg.Type {
		case tea.KeyEnter:
			return m.submit()
		case tea.KeyTab, tea.KeyDown:
			return m.setFocus((m.focus + 1) % fieldCount), nil
		case tea.KeyShiftTab, tea.KeyUp:
			return m.setFocus((m.focus + fieldCount - 1) % fieldCount), nil
		}
		return m.updateFocused(msg)

	case console.ViewLoading:
		return m, nil

	default:
		switch msg.String() {
		case "n", "left", "backspace":
			return m.reset(), nil
		case "q", "esc":
			return m, tea.Quit
		}
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}
}

func (m Model) submit() (tea.Model, tea.Cmd) {
	q := types.Query{
		Name:      m.inputs[fieldName].Value(),
		ExtraInfo: m.inputs[fieldExtra].Value(),
	}
	if err := m.dispatcher.Begin(q); err != nil {
		m.logger.Debug("Submission ignored", zap.Error(err))
		return m, nil
	}

	d, ctx := m.dispatcher, m.ctx
	fetch := func() tea.Msg {
		return outcomeMsg{outcome: d.Fetch(ctx, q)}
	}
	return m, tea.Batch(m.spinner.Tick, fetch)
}

func (m Model) reset() Model {
	if !m.dispatcher.Reset() {
		return m
	}
	for i := range m.inputs {
		m.inputs[i].Reset()
	}
	m.viewport.SetContent("")
	m.viewport.GotoTop()
	m.rendered = 0
	return m.setFocus(fieldName)
}

func (m Model) setFocus(field int) Model {
	m.focus = field
	for i := range m.inputs {
		if i == field {
			m.inputs[i].Focus()
		} else {
			m.inputs[i].Blur()
		}
	}
	return m
}

func (m Model) updateFocused(msg tea.Msg) (tea.Model, tea.Cmd) {
	if console.Project(m.dispatcher.Snapshot()) != console.ViewQueryForm {
		return m, nil
	}
	var cmd tea.Cmd
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	return m, cmd
}

// refreshResults re-renders the viewport when the resolved snapshot changed.
func (m *Model) refreshResults() {
	snap := m.dispatcher.Snapshot()
	if snap.Phase != console.PhaseResolved || snap.Version == m.rendered {
		return
	}
	m.viewport.SetContent(m.renderer.Render(ResultsMarkdown(snap.Results)))
	m.viewport.GotoTop()
	m.rendered = snap.Version
}

func (m Model) View() string {
	snap := m.dispatcher.Snapshot()

	var b strings.Builder
	b.WriteString(m.styles.Header.Render("FOOTPRINT // DIGITAL FOOTPRINT ANALYZER"))
	b.WriteString("\n")

	if snap.Notification != nil {
		b.WriteString(m.renderNotification(*snap.Notification))
		b.WriteString("\n")
	}

	switch console.Project(snap) {
	case console.ViewQueryForm:
		b.WriteString(m.renderForm())
	case console.ViewLoading:
		b.WriteString(fmt.Sprintf("%s %s\n", m.spinner.View(), m.styles.Status.Render(console.LoadingText)))
		b.WriteString(m.styles.Help.Render("target: " + m.dispatcher.Endpoint()))
	case console.ViewResults:
		b.WriteString(m.styles.Title.Render(console.ResultsText))
		b.WriteString("\n")
		b.WriteString(m.viewport.View())
		b.WriteString("\n")
		b.WriteString(m.styles.Help.Render(fmt.Sprintf("%d results • ↑/↓ scroll • n new search • q quit",
			snap.Results.TotalItems())))
	case console.ViewEmpty:
		b.WriteString(m.styles.Title.Render(console.ResultsText))
		b.WriteString("\n")
		b.WriteString(m.styles.Empty.Render(console.EmptyText))
		b.WriteString("\n")
		b.WriteString(m.styles.Help.Render("n new search • q quit"))
	}

	return b.String()
}

func (m Model) renderForm() string {
	labels := []string{"TARGET NAME", "ADDITIONAL PARAMETERS (optional)"}

	var b strings.Builder
	for i, input := range m.inputs {
		label := m.styles.Label.Render(labels[i])
		if i == m.focus {
			label = m.styles.Focused.Render(labels[i])
		}
		b.WriteString(label)
		b.WriteString("\n")
		b.WriteString(input.View())
		b.WriteString("\n\n")
	}
	b.WriteString(m.styles.Help.Render("enter scan • tab switch field • ctrl+c quit"))
	return b.String()
}

func (m Model) renderNotification(n console.Notification) string {
	width := max(min(m.width-4, 72), 20)
	body := lipgloss.JoinVertical(lipgloss.Left,
		m.styles.ModalTitle.Render("ALERT"),
		lipgloss.NewStyle().Width(width-6).Render(n.Text()),
		m.styles.Label.Render("[enter] dismiss"),
	)
	return m.styles.Modal.Width(width).Render(body)
}

// Run starts the console and blocks until the user quits or ctx is done.
func Run(ctx context.Context, d *console.Dispatcher, logger *zap.Logger) error {
	program := tea.NewProgram(New(ctx, d, logger), tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := program.Run(); err != nil {
		if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("console: %w", err)
	}
	return nil
}
