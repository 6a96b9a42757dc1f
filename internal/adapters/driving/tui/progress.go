// Package tui provides a live progress display for research runs, built
// with Bubble Tea.
package tui

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/prospect-cli/internal/core/domain"
	"github.com/custodia-labs/prospect-cli/internal/core/ports/driving"
)

// pollInterval is how often the view polls the orchestrator for progress.
const pollInterval = 200 * time.Millisecond

var (
	titleStyle   = lipgloss.NewStyle().Bold(true)
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

// runDoneMsg carries the finished run back into the update loop.
type runDoneMsg struct {
	bundle *domain.ResultBundle
	err    error
}

// tickMsg triggers a progress poll.
type tickMsg time.Time

// model is the Bubble Tea model for one research run.
type model struct {
	orchestrator driving.Orchestrator
	entity       domain.Entity

	spinner  spinner.Model
	bar      progress.Model
	snapshot domain.ProgressSnapshot
	percent  float64

	bundle *domain.ResultBundle
	err    error
	done   bool
}

func newModel(orch driving.Orchestrator, entity domain.Entity) model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	return model{
		orchestrator: orch,
		entity:       entity,
		spinner:      s,
		bar:          progress.New(progress.WithDefaultGradient()),
	}
}

// Init starts the run, the spinner, and the poll loop.
func (m model) Init() tea.Cmd {
	return tea.Batch(m.startRun(), m.spinner.Tick, tick())
}

func (m model) startRun() tea.Cmd {
	return func() tea.Msg {
		bundle, err := m.orchestrator.RunAll(context.Background(), m.entity)
		return runDoneMsg{bundle: bundle, err: err}
	}
}

func tick() tea.Cmd {
	return tea.Tick(pollInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Update handles ticks, spinner frames, completion and cancellation.
func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			m.err = context.Canceled
			return m, tea.Quit
		}
		return m, nil

	case tickMsg:
		m.percent = m.orchestrator.AggregateProgress()
		m.snapshot = m.orchestrator.Snapshot()
		if m.done {
			return m, nil
		}
		return m, tick()

	case runDoneMsg:
		m.done = true
		m.bundle = msg.bundle
		m.err = msg.err
		m.percent = m.orchestrator.AggregateProgress()
		m.snapshot = m.orchestrator.Snapshot()
		return m, tea.Quit

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

// View renders the overall bar plus one line per launched driver.
func (m model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render(fmt.Sprintf("Researching %q", m.entity.Name)))
	b.WriteString("\n\n")
	b.WriteString(m.bar.ViewAs(m.percent / 100))
	b.WriteString("\n\n")

	names := make([]string, 0, len(m.snapshot))
	for name := range m.snapshot {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		p := m.snapshot[name]
		switch p.Status {
		case domain.StatusCompleted:
			b.WriteString(successStyle.Render(fmt.Sprintf("  ✓ %-14s done", name)))
		case domain.StatusFailed:
			b.WriteString(errorStyle.Render(fmt.Sprintf("  ✗ %-14s failed at %3.0f%%", name, p.Percent)))
		case domain.StatusRunning:
			b.WriteString(fmt.Sprintf("  %s %-14s %3.0f%%", m.spinner.View(), name, p.Percent))
		default:
			b.WriteString(mutedStyle.Render(fmt.Sprintf("  · %-14s waiting", name)))
		}
		b.WriteString("\n")
	}

	if m.done {
		b.WriteString("\n")
	} else {
		b.WriteString(mutedStyle.Render("\n  q to abort\n"))
	}
	return b.String()
}

// Run executes a research run with a live progress display and returns the
// finished bundle.
func Run(ctx context.Context, orch driving.Orchestrator, entity domain.Entity) (*domain.ResultBundle, error) {
	p := tea.NewProgram(newModel(orch, entity), tea.WithContext(ctx))
	finalModel, err := p.Run()
	if err != nil {
		return nil, err
	}

	m, ok := finalModel.(model)
	if !ok {
		return nil, fmt.Errorf("unexpected model type %T", finalModel)
	}
	if m.err != nil {
		return nil, m.err
	}
	return m.bundle, nil
}
