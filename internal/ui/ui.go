// Package ui renders the terminal simulator for the LED test harness: the
// strip as a row of colored blocks, playback progress, and a keyboard-driven
// button.
package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"sunrised/internal/led"
	"sunrised/internal/sunrise"
)

// Messages delivered from the playback goroutine via Program.Send.
type (
	// FrameMsg is a snapshot of the strip after a Show.
	FrameMsg []led.Color
	// ProgressMsg reports playback position.
	ProgressMsg sunrise.Progress
	// StatusMsg replaces the status line.
	StatusMsg string
	// DoneMsg ends the program; a non-nil error is reported after exit.
	DoneMsg struct{ Err error }
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true)
	stripStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("12"))
	helpStyle   = lipgloss.NewStyle().Faint(true)
)

// Model is the bubbletea model for the simulator.
type Model struct {
	pixels   []led.Color
	progress progress.Model
	phase    string
	elapsed  time.Duration
	total    time.Duration
	status   string
	err      error
	tap      func()
	quit     func()
}

// New creates a simulator model. tap is invoked when space is pressed and
// quit when the user exits; both may be nil.
func New(pixelCount int, tap, quit func()) Model {
	return Model{
		pixels:   make([]led.Color, pixelCount),
		progress: progress.New(progress.WithDefaultGradient()),
		status:   "waiting for button",
		tap:      tap,
		quit:     quit,
	}
}

// Err returns the playback error delivered by DoneMsg, if any.
func (m Model) Err() error { return m.err }

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			if m.quit != nil {
				m.quit()
			}
			return m, tea.Quit
		case " ":
			if m.tap != nil {
				m.tap()
			}
		}

	case tea.WindowSizeMsg:
		w := msg.Width - 8
		if w > 0 {
			m.progress.Width = w
		}

	case FrameMsg:
		copy(m.pixels, msg)

	case ProgressMsg:
		m.phase = msg.Phase
		m.elapsed = msg.Elapsed
		m.total = msg.Total

	case StatusMsg:
		m.status = string(msg)

	case DoneMsg:
		m.err = msg.Err
		return m, tea.Quit
	}

	return m, nil
}

func (m Model) View() string {
	var sb strings.Builder

	sb.WriteString(titleStyle.Render("sunrised · LED test"))
	sb.WriteString("\n\n")
	sb.WriteString(stripStyle.Render(renderStrip(m.pixels)))
	sb.WriteString("\n\n")

	if m.total > 0 {
		frac := float64(m.elapsed) / float64(m.total)
		if frac > 1 {
			frac = 1
		}
		sb.WriteString(m.progress.ViewAs(frac))
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("%s  %s / %s\n", m.phase, fmtDuration(m.elapsed), fmtDuration(m.total)))
	}

	sb.WriteString("\n")
	sb.WriteString(statusStyle.Render(m.status))
	sb.WriteString("\n\n")
	sb.WriteString(helpStyle.Render("space button · q quit"))
	sb.WriteString("\n")
	return sb.String()
}

func renderStrip(pixels []led.Color) string {
	var sb strings.Builder
	for _, c := range pixels {
		if c == led.Off {
			sb.WriteString(helpStyle.Render("·"))
			continue
		}
		hex := fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
		sb.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color(hex)).Render("█"))
	}
	return sb.String()
}

func fmtDuration(d time.Duration) string {
	d = d.Round(time.Second)
	return fmt.Sprintf("%02d:%02d", int(d.Minutes()), int(d.Seconds())%60)
}
