// Package ui is the terminal line editor and scrollback console: the
// concrete realization of the textual sink and source the session core
// depends on through application.LineSink/application.LineSource. It is the
// one place in the repository with more than one goroutine — the Bubble Tea
// program's own event loop alongside the session core's loop — and the two
// communicate only over the buffered channels below, never shared memory.
package ui

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	"github.com/charmbracelet/lipgloss"

	"github.com/diodelass/Teamech-Desktop/application"
	"github.com/diodelass/Teamech-Desktop/metrics"
)

const scrollbackCapacity = 500

// metricsTickInterval is how often the status line re-reads the metrics
// snapshot; it does not need to track the session core's own 1ms tick.
const metricsTickInterval = 250 * time.Millisecond

var (
	statusStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	inputStyle  = lipgloss.NewStyle().BorderStyle(lipgloss.NormalBorder()).BorderForeground(lipgloss.Color("240"))
)

// Console owns the Bubble Tea program and the two channels the session core
// drives it through.
type Console struct {
	program  *tea.Program
	outbound chan application.UIEvent
	inbound  chan string
}

// New constructs a Console. snapshot is polled on metricsTickInterval to
// drive the status line's session-state and accounting display. Run must be
// called to start the terminal program; it blocks until ESCAPE or Ctrl-C
// quits the program, or the process exits.
func New(serverLabel string, snapshot func() metrics.Snapshot) *Console {
	c := &Console{
		outbound: make(chan application.UIEvent, 64),
		inbound:  make(chan string, 256),
	}
	m := newModel(serverLabel, c.outbound, c.inbound, snapshot)
	c.program = tea.NewProgram(m)
	return c
}

// Run starts the terminal program and blocks until it exits (ESCAPE or a
// fatal terminal error).
func (c *Console) Run() error {
	_, err := c.program.Run()
	return err
}

// PushLine implements application.LineSink. It never blocks the caller: if
// the inbound buffer is momentarily full the line is dropped rather than
// stalling the session core's single-threaded loop.
func (c *Console) PushLine(line string) {
	select {
	case c.inbound <- line:
	default:
	}
}

// NextEvent implements application.LineSource.
func (c *Console) NextEvent() (application.UIEvent, bool) {
	select {
	case e := <-c.outbound:
		return e, true
	default:
		return application.UIEvent{}, false
	}
}

type appendLineMsg string

// waitForLine returns a tea.Cmd that blocks on the inbound channel and
// delivers the next pushed line as a tea.Msg; Update re-issues it after
// every delivery so the listen loop never stops.
func waitForLine(inbound chan string) tea.Cmd {
	return func() tea.Msg {
		return appendLineMsg(<-inbound)
	}
}

type model struct {
	input      textinput.Model
	scrollback viewport.Model
	lines      []string
	serverLbl  string
	outbound   chan application.UIEvent
	inbound    chan string
	snapshot   func() metrics.Snapshot
	state      string
	width      int
	height     int
}

func newModel(serverLabel string, outbound chan application.UIEvent, inbound chan string, snapshot func() metrics.Snapshot) model {
	ti := textinput.New()
	ti.Placeholder = "type a command and press enter"
	ti.Focus()
	ti.CharLimit = 4096

	vp := viewport.New(80, 20)

	return model{
		input:      ti,
		scrollback: vp,
		serverLbl:  serverLabel,
		outbound:   outbound,
		inbound:    inbound,
		snapshot:   snapshot,
	}
}

// metricsTickMsg fires the periodic re-read of the metrics snapshot.
type metricsTickMsg struct{}

func waitForMetricsTick() tea.Cmd {
	return tea.Tick(metricsTickInterval, func(time.Time) tea.Msg { return metricsTickMsg{} })
}

func (m model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, waitForLine(m.inbound), waitForMetricsTick())
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.scrollback.Width = msg.Width
		m.scrollback.Height = msg.Height - 4
		m.scrollback.SetContent(m.renderScrollback())
		return m, nil

	case appendLineMsg:
		m.lines = append(m.lines, string(msg))
		if len(m.lines) > scrollbackCapacity {
			m.lines = m.lines[len(m.lines)-scrollbackCapacity:]
		}
		m.scrollback.SetContent(m.renderScrollback())
		m.scrollback.GotoBottom()
		return m, waitForLine(m.inbound)

	case metricsTickMsg:
		if m.snapshot != nil {
			m.state = m.snapshot().State
		}
		return m, waitForMetricsTick()

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyEsc:
			m.outbound <- application.UIEvent{Kind: application.UIEventEscape}
			return m, tea.Quit
		case tea.KeyEnter:
			line := m.input.Value()
			if line != "" {
				m.outbound <- application.UIEvent{Kind: application.UIEventLine, Line: line}
			}
			m.input.SetValue("")
			return m, nil
		case tea.KeyCtrlC:
			m.outbound <- application.UIEvent{Kind: application.UIEventEscape}
			return m, tea.Quit
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m model) View() string {
	state := m.state
	if state == "" {
		state = "connecting"
	}
	status := statusStyle.Render(fmt.Sprintf("teamech-desktop :: %s [%s]", m.serverLbl, state))
	return fmt.Sprintf("%s\n%s\n%s", status, m.scrollback.View(), inputStyle.Render(m.input.View()))
}

func (m model) renderScrollback() string {
	out := ""
	for _, line := range m.lines {
		out += line + "\n"
	}
	return out
}
