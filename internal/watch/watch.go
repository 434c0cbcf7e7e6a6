// Package watch renders a live dashboard for one claudeck session by
// polling its control service.
package watch

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/codeincontext/claudeck/internal/client"
	"github.com/codeincontext/claudeck/internal/state"
)

// Styles
var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	promptStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("15"))
	optionStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("14"))
	errStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	offlineStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)

	modeStyles = map[state.Mode]lipgloss.Style{
		state.ModeInteractive: lipgloss.NewStyle().Foreground(lipgloss.Color("10")),
		state.ModeThinking:    lipgloss.NewStyle().Foreground(lipgloss.Color("11")),
		state.ModePlanning:    lipgloss.NewStyle().Foreground(lipgloss.Color("13")),
		state.ModeAutoAccept:  lipgloss.NewStyle().Foreground(lipgloss.Color("14")),
		state.ModeExitConfirm: lipgloss.NewStyle().Foreground(lipgloss.Color("11")),
		state.ModeError:       errStyle,
		state.ModeOffline:     offlineStyle,
		state.ModeUnknown:     dimStyle,
	}
)

// messages
type stateMsg struct {
	snap state.Snapshot
	err  error
}

type tickMsg struct{}

// Watch runs the dashboard until the terminal is closed or q is pressed.
type Watch struct {
	Client   *client.Client
	Addr     string
	Interval time.Duration // poll interval, 0 selects 1s
}

type watchModel struct {
	ctx      context.Context
	client   *client.Client
	addr     string
	interval time.Duration

	spin    spinner.Model
	snap    state.Snapshot
	fetched bool
	err     error
	polls   int

	width  int
	height int
}

func (w *Watch) Run(ctx context.Context) error {
	interval := w.Interval
	if interval <= 0 {
		interval = time.Second
	}
	sp := spinner.New()
	sp.Spinner = spinner.Dot

	m := &watchModel{
		ctx:      ctx,
		client:   w.Client,
		addr:     w.Addr,
		interval: interval,
		spin:     sp,
	}
	p := tea.NewProgram(m, tea.WithAltScreen())
	_, err := p.Run()
	return err
}

func (m *watchModel) Init() tea.Cmd {
	return tea.Batch(m.spin.Tick, m.poll())
}

func (m *watchModel) poll() tea.Cmd {
	return func() tea.Msg {
		snap, err := m.client.State(m.ctx)
		return stateMsg{snap: snap, err: err}
	}
}

func (m *watchModel) schedule() tea.Cmd {
	return tea.Tick(m.interval, func(time.Time) tea.Msg { return tickMsg{} })
}

func (m *watchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "r":
			return m, m.poll()
		}
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	case stateMsg:
		m.polls++
		m.err = msg.err
		if msg.err == nil {
			m.snap = msg.snap
			m.fetched = true
		}
		return m, m.schedule()
	case tickMsg:
		return m, m.poll()
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *watchModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("claudeck"))
	b.WriteString(dimStyle.Render("  " + m.addr))
	b.WriteString("\n\n")

	if m.err != nil {
		b.WriteString(errStyle.Render(fmt.Sprintf("cannot reach service: %v", m.err)))
		b.WriteString("\n")
	}

	if m.fetched {
		style, ok := modeStyles[m.snap.Mode]
		if !ok {
			style = dimStyle
		}
		mode := string(m.snap.Mode)
		if m.snap.Mode == state.ModeThinking {
			mode = m.spin.View() + mode
		}
		b.WriteString("mode    ")
		b.WriteString(style.Render(mode))
		b.WriteString("\n")

		alive := "yes"
		if !m.snap.Alive {
			alive = offlineStyle.Render("no")
		}
		fmt.Fprintf(&b, "alive   %s\n", alive)
		if m.snap.Model != "" {
			fmt.Fprintf(&b, "model   %s\n", m.snap.Model)
		}
		if !m.snap.LastUpdate.IsZero() {
			fmt.Fprintf(&b, "seen    %s ago\n", time.Since(m.snap.LastUpdate).Round(time.Second))
		}

		if m.snap.Prompt != "" {
			b.WriteString("\n")
			b.WriteString(promptStyle.Render(m.snap.Prompt))
			b.WriteString("\n")
		}
		for _, opt := range m.snap.Options {
			b.WriteString(optionStyle.Render("  " + opt))
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(dimStyle.Render(fmt.Sprintf("polled %d times · r refresh · q quit", m.polls)))
	return b.String()
}
