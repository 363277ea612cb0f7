package tui

import (
	"context"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"midi-player/sequencer"
	"midi-player/smf"
	"midi-player/theme"
)

func newTestModel(t *testing.T) Model {
	t.Helper()
	data, err := smf.Encode([][]smf.NoteSpan{{
		{Key: 60, Start: 0, Duration: 30, Velocity: 90},
		{Key: 64, Start: 0, Duration: 30, Velocity: 90},
	}})
	if err != nil {
		t.Fatal(err)
	}
	f, err := smf.Decode(data)
	if err != nil {
		t.Fatal(err)
	}

	p := sequencer.New(sequencer.SinkFuncs{})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		p.Run(ctx)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	if err := p.Load(f); err != nil {
		t.Fatal(err)
	}
	return NewModel(p, nil, theme.New(theme.Default()))
}

func press(m Model, key string) Model {
	var msg tea.KeyMsg
	switch key {
	case "home":
		msg = tea.KeyMsg{Type: tea.KeyHome}
	case "right":
		msg = tea.KeyMsg{Type: tea.KeyRight}
	default:
		msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(key)}
	}
	next, _ := m.Update(msg)
	return next.(Model)
}

func TestTransportKeys(t *testing.T) {
	m := newTestModel(t)
	if m.State() != sequencer.Stopped {
		t.Fatalf("initial state %v", m.State())
	}

	m = press(m, "p")
	if m.State() != sequencer.Playing {
		t.Fatalf("after p: %v", m.State())
	}

	m = press(m, "p")
	if m.State() != sequencer.Paused {
		t.Fatalf("after second p: %v", m.State())
	}

	m = press(m, "s")
	if m.State() != sequencer.Stopped || m.Position() != 0 {
		t.Fatalf("after s: %v at %v", m.State(), m.Position())
	}
}

func TestSeekAndTempoKeys(t *testing.T) {
	m := newTestModel(t)

	m = press(m, "right")
	if m.Position() != 5 {
		t.Errorf("position after seek %v, want 5", m.Position())
	}
	m = press(m, "home")
	if m.Position() != 0 {
		t.Errorf("position after home %v, want 0", m.Position())
	}

	m = press(m, "+")
	if m.status.TempoScale != 110 {
		t.Errorf("tempo scale %v, want 110", m.status.TempoScale)
	}
	m = press(m, "-")
	m = press(m, "-")
	if m.status.TempoScale != 90 {
		t.Errorf("tempo scale %v, want 90", m.status.TempoScale)
	}
}

func TestView(t *testing.T) {
	m := newTestModel(t)
	m.Title = "song.mid"
	view := m.View()
	for _, want := range []string{"song.mid", "stopped", "0:00.0 / 0:30.0", "no output"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q:\n%s", want, view)
		}
	}

	m = press(m, "?")
	if !strings.Contains(m.View(), "Transport") {
		t.Error("help should list key sections")
	}

	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if cmd == nil {
		t.Fatal("q should quit")
	}
	if next.(Model).View() != "" {
		t.Error("view should be empty after quitting")
	}
}
