// Package tui renders a live monitor for long evolutions: iteration
// progress, the current observables and an energy trace.
package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/skern/trotter/internal/experiment"
)

var (
	cyan   = lipgloss.NewStyle().Foreground(lipgloss.Color("86"))
	white  = lipgloss.NewStyle().Foreground(lipgloss.Color("255"))
	dim    = lipgloss.NewStyle().Foreground(lipgloss.Color("242"))
	green  = lipgloss.NewStyle().Foreground(lipgloss.Color("82"))
	yellow = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
)

// ProgressMsg delivers one batch boundary to the monitor.
type ProgressMsg experiment.Progress

// DoneMsg ends the program.
type DoneMsg struct{ Err error }

type model struct {
	preset     string
	totalIters int

	latest  experiment.Progress
	history []float64
	err     error
	done    bool
}

// NewProgram builds the monitor for a run of totalIters iterations.
// Feed it ProgressMsg values via Program.Send and finish with DoneMsg.
func NewProgram(preset string, totalIters int) *tea.Program {
	return tea.NewProgram(model{preset: preset, totalIters: totalIters})
}

func (m model) Init() tea.Cmd { return nil }

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "q" || msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
	case ProgressMsg:
		m.latest = experiment.Progress(msg)
		m.history = append(m.history, m.latest.Total)
		if len(m.history) > 120 {
			m.history = m.history[len(m.history)-120:]
		}
	case DoneMsg:
		m.done = true
		m.err = msg.Err
		return m, tea.Quit
	}
	return m, nil
}

func (m model) View() string {
	var b strings.Builder

	title := m.preset
	if title == "" {
		title = "evolution"
	}
	b.WriteString(cyan.Render("trotter · "+title) + "\n\n")

	frac := 0.0
	if m.totalIters > 0 {
		frac = float64(m.latest.Iter) / float64(m.totalIters)
	}
	b.WriteString(progressBar(frac, 40) + dim.Render(fmt.Sprintf("  %d/%d", m.latest.Iter, m.totalIters)) + "\n\n")

	b.WriteString(fmt.Sprintf("%s %s   %s %s   %s %s\n",
		dim.Render("t ="), white.Render(fmt.Sprintf("%.4f", m.latest.Time)),
		dim.Render("‖ψ‖² ="), white.Render(fmt.Sprintf("%.10f", m.latest.Norm2)),
		dim.Render("E ="), yellow.Render(fmt.Sprintf("%.8f", m.latest.Total))))
	b.WriteString(fmt.Sprintf("%s %s   %s %s\n\n",
		dim.Render("E_kin ="), white.Render(fmt.Sprintf("%.8f", m.latest.Kinetic)),
		dim.Render("E_pot ="), white.Render(fmt.Sprintf("%.8f", m.latest.Potential))))

	if len(m.history) > 1 {
		b.WriteString(dim.Render("total energy") + "\n")
		b.WriteString(asciigraph.Plot(m.history, asciigraph.Height(8), asciigraph.Width(60)) + "\n")
	}

	if m.done {
		if m.err != nil {
			b.WriteString("\n" + yellow.Render("failed: "+m.err.Error()) + "\n")
		} else {
			b.WriteString("\n" + green.Render("done") + "\n")
		}
	} else {
		b.WriteString("\n" + dim.Render("q to quit") + "\n")
	}
	return b.String()
}

func progressBar(frac float64, width int) string {
	if frac < 0 {
		frac = 0
	}
	if frac > 1 {
		frac = 1
	}
	filled := int(frac * float64(width))
	return green.Render(strings.Repeat("█", filled)) + dim.Render(strings.Repeat("░", width-filled))
}
