package tui

import (
	"fmt"
	"math"
	"sort"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"midi-player/debug"
	"midi-player/midi"
	"midi-player/sequencer"
	"midi-player/theme"
	"midi-player/widgets"
)

// tempoStep is the tempo scale change per key press, in percent
const tempoStep = 10

const barWidth = 40

var keys = []widgets.KeySection{
	{Title: "Transport", Keys: []widgets.KeyBinding{
		{Key: "space/p", Desc: "play/pause"},
		{Key: "s", Desc: "stop"},
		{Key: "←/→", Desc: "seek"},
		{Key: "home", Desc: "start"},
		{Key: "+/-", Desc: "tempo"},
	}},
	{Title: "", Keys: []widgets.KeyBinding{
		{Key: "?", Desc: "help"},
		{Key: "q", Desc: "quit"},
	}},
}

type Model struct {
	Player   *sequencer.Player
	Theme    *theme.Theme
	Title    string
	Port     string  // output name shown in the header
	SeekStep float64 // seconds

	watcher  *midi.PortWatcher
	status   sequencer.Status
	ports    int
	err      error
	showHelp bool
	quitting bool
}

type UpdateMsg struct{}

type PortEventMsg midi.PortEvent

// NewModel builds the player view. watcher may be nil.
func NewModel(p *sequencer.Player, watcher *midi.PortWatcher, th *theme.Theme) Model {
	m := Model{
		Player:   p,
		Theme:    th,
		SeekStep: 5,
		watcher:  watcher,
	}
	m.refresh()
	return m
}

func ListenForUpdates(p *sequencer.Player) tea.Cmd {
	return func() tea.Msg {
		<-p.Updates()
		return UpdateMsg{}
	}
}

func ListenForPorts(w *midi.PortWatcher) tea.Cmd {
	return func() tea.Msg {
		event := <-w.Events()
		return PortEventMsg(event)
	}
}

func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{ListenForUpdates(m.Player)}
	if m.watcher != nil {
		cmds = append(cmds, ListenForPorts(m.watcher))
	}
	return tea.Batch(cmds...)
}

func (m *Model) refresh() {
	s, err := m.Player.Status()
	if err != nil {
		m.err = err
		return
	}
	m.status = s
}

// act runs a player command and keeps its error for the status line
func (m *Model) act(err error) {
	m.err = err
	if err != nil {
		debug.Log("tui", "command failed: %v", err)
	}
	m.refresh()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.quitting = true
			m.Player.Stop()
			return m, tea.Quit

		case " ", "p":
			if m.status.State == sequencer.Playing {
				m.act(m.Player.Pause())
			} else {
				m.act(m.Player.Play())
			}

		case "s":
			m.act(m.Player.Stop())

		case "left", "h":
			m.act(m.Player.Seek(m.status.Position - m.SeekStep))

		case "right", "l":
			m.act(m.Player.Seek(m.status.Position + m.SeekStep))

		case "home", "0":
			m.act(m.Player.Seek(0))

		case "+", "=":
			m.act(m.Player.SetTempoScale(m.status.TempoScale + tempoStep))

		case "-", "_":
			m.act(m.Player.SetTempoScale(m.status.TempoScale - tempoStep))

		case "?":
			m.showHelp = !m.showHelp
		}

	case UpdateMsg:
		m.refresh()
		return m, ListenForUpdates(m.Player)

	case PortEventMsg:
		event := midi.PortEvent(msg)
		debug.Log("tui", "port %s: %s", event.Type, event.Name)
		m.ports = len(m.watcher.Ports())
		return m, ListenForPorts(m.watcher)
	}

	return m, nil
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	headerStyle := lipgloss.NewStyle().Foreground(m.Theme.Accent())
	dimStyle := lipgloss.NewStyle().Foreground(m.Theme.Muted())
	textStyle := lipgloss.NewStyle().Foreground(m.Theme.FG())
	barStyle := lipgloss.NewStyle().Foreground(m.Theme.Active()).Background(m.Theme.Surface())
	errStyle := lipgloss.NewStyle().Foreground(m.Theme.Warning())

	s := m.status
	sym := m.Theme.Symbols
	symbol := sym.Stop
	switch s.State {
	case sequencer.Playing:
		symbol = sym.Play
		headerStyle = headerStyle.Foreground(m.Theme.Success())
	case sequencer.Paused:
		symbol = sym.Pause
	}

	title := m.Title
	if title == "" {
		title = "midi-player"
	}
	header := headerStyle.Render(fmt.Sprintf("%c %s  %-7s  %3.0f%%", symbol, title, s.State, s.TempoScale))

	frac := 0.0
	if s.Duration > 0 {
		frac = s.Position / s.Duration
	}
	bar := barStyle.Render(widgets.RenderProgress(barWidth, frac, sym.Filled, sym.Empty))
	times := textStyle.Render(fmt.Sprintf(" %s / %s", widgets.FormatTime(s.Position), widgets.FormatTime(s.Duration)))

	port := m.Port
	if port == "" {
		port = "no output"
	}
	info := fmt.Sprintf("out: %s", port)
	if m.watcher != nil {
		info += fmt.Sprintf("  (%d ports)", m.ports)
	}
	if s.SinkErrors > 0 {
		info += fmt.Sprintf("  errors: %d", s.SinkErrors)
	}

	var out strings.Builder
	out.WriteString("\n")
	out.WriteString(header)
	out.WriteString("\n\n")
	out.WriteString(bar + times)
	out.WriteString("\n\n")
	out.WriteString(m.renderSounding())
	out.WriteString("\n")
	out.WriteString(dimStyle.Render(info))
	if m.err != nil {
		out.WriteString("\n")
		out.WriteString(errStyle.Render(m.err.Error()))
	}
	out.WriteString("\n\n")
	if m.showHelp {
		out.WriteString(dimStyle.Render(widgets.RenderKeyHelp(keys)))
	} else {
		out.WriteString(dimStyle.Render(widgets.RenderKeyLine(keys)))
	}
	return out.String()
}

// renderSounding shows the notes currently held, coloured by velocity
func (m Model) renderSounding() string {
	note := string(m.Theme.Symbols.Note)
	notes := append([]sequencer.Note(nil), m.status.Sounding...)
	if len(notes) == 0 {
		return lipgloss.NewStyle().Foreground(m.Theme.Muted()).Render(note + " -")
	}
	sort.Slice(notes, func(i, j int) bool { return notes[i].Key < notes[j].Key })
	parts := make([]string, 0, len(notes))
	for _, n := range notes {
		style := lipgloss.NewStyle().Foreground(m.Theme.Velocity(n.Velocity))
		parts = append(parts, style.Render(widgets.NoteName(n.Key)))
	}
	return note + " " + strings.Join(parts, " ")
}

// Position is the last known song position, for tests and the exit line
func (m Model) Position() float64 {
	return math.Max(0, m.status.Position)
}

// State is the last known player state
func (m Model) State() sequencer.State {
	return m.status.State
}
