// internal/tui/progress.go
// Package tui renders a live chunk-progress view for long resolution runs.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/mwiater/canonry/internal/resolve"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63"))
	statusStyle = lipgloss.NewStyle().Faint(true)
	errStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("230")).Background(lipgloss.Color("160")).Padding(0, 1)
)

// chunkMsg carries one orchestrator progress update into the UI loop.
type chunkMsg struct {
	progress resolve.Progress
}

// doneMsg ends the UI loop with the run's final error, if any.
type doneMsg struct {
	err error
}

type model struct {
	title    string
	spinner  spinner.Model
	bar      progress.Model
	chunk    int
	chunks   int
	state    resolve.State
	err      error
	finished bool
}

func newModel(title string) model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	return model{
		title:   title,
		spinner: s,
		bar:     progress.New(progress.WithDefaultGradient()),
	}
}

// Init satisfies the tea.Model interface.
func (m model) Init() tea.Cmd {
	return m.spinner.Tick
}

// Update satisfies the tea.Model interface.
func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		return m, nil

	case chunkMsg:
		m.chunk = msg.progress.Chunk
		m.chunks = msg.progress.Chunks
		m.state = msg.progress.State
		if m.chunks > 0 && msg.progress.State == resolve.StateSucceeded {
			return m, m.bar.SetPercent(float64(m.chunk) / float64(m.chunks))
		}
		return m, nil

	case doneMsg:
		m.err = msg.err
		m.finished = true
		return m, tea.Quit

	case progress.FrameMsg:
		updated, cmd := m.bar.Update(msg)
		m.bar = updated.(progress.Model)
		return m, cmd

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

// View satisfies the tea.Model interface.
func (m model) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(m.title))
	b.WriteString("\n\n")

	if m.err != nil {
		b.WriteString(errStyle.Render(fmt.Sprintf("run failed: %v", m.err)))
		b.WriteString("\n")
		return b.String()
	}

	if m.chunks == 0 {
		b.WriteString(m.spinner.View())
		b.WriteString(statusStyle.Render(" planning chunks..."))
	} else {
		fmt.Fprintf(&b, "%s%s\n\n%s",
			m.spinner.View(),
			statusStyle.Render(fmt.Sprintf(" chunk %d/%d (%s)", m.chunk, m.chunks, m.state)),
			m.bar.View())
	}
	b.WriteString("\n")
	return b.String()
}

// Run drives fn under a live progress view. The callback passed to fn is
// safe to call from fn's goroutine; updates are forwarded into the UI loop
// via the program's message channel. Run returns fn's error.
func Run(ctx context.Context, title string, fn func(ctx context.Context, onProgress func(resolve.Progress)) error) error {
	return runWith(ctx, tea.NewProgram(newModel(title)), fn)
}

// runWith cancels fn's context as soon as the program loop exits, so
// quitting the view (ctrl+c) ends in-flight requests promptly instead of
// leaving the run going behind a restored terminal.
func runWith(ctx context.Context, program *tea.Program, fn func(ctx context.Context, onProgress func(resolve.Progress)) error) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	errCh := make(chan error, 1)
	go func() {
		err := fn(ctx, func(p resolve.Progress) {
			program.Send(chunkMsg{progress: p})
		})
		errCh <- err
		program.Send(doneMsg{err: err})
	}()

	if _, err := program.Run(); err != nil {
		cancel()
		<-errCh
		return fmt.Errorf("progress view failed: %w", err)
	}
	cancel()
	return <-errCh
}
