package widgets

import "testing"

func TestNoteName(t *testing.T) {
	tests := map[uint8]string{0: "C-1", 60: "C4", 61: "C#4", 69: "A4", 127: "G9"}
	for key, want := range tests {
		if got := NoteName(key); got != want {
			t.Errorf("NoteName(%d) = %q, want %q", key, got, want)
		}
	}
}

func TestFormatTime(t *testing.T) {
	tests := map[float64]string{0: "0:00.0", 5.25: "0:05.3", 61.04: "1:01.0", 599.96: "10:00.0", -3: "0:00.0"}
	for sec, want := range tests {
		if got := FormatTime(sec); got != want {
			t.Errorf("FormatTime(%v) = %q, want %q", sec, got, want)
		}
	}
}

func TestRenderProgress(t *testing.T) {
	if got := RenderProgress(4, 0.5, '#', '.'); got != "##.." {
		t.Errorf("got %q", got)
	}
	if got := RenderProgress(3, 7, '#', '.'); got != "###" {
		t.Errorf("overfull bar %q", got)
	}
	if got := RenderProgress(0, 0.5, '#', '.'); got != "" {
		t.Errorf("zero width bar %q", got)
	}
}

func TestRenderKeyHelp(t *testing.T) {
	sections := []KeySection{{Title: "Transport", Keys: []KeyBinding{{"space", "play/pause"}, {"s", "stop"}}}}
	want := "Transport\n  space        play/pause\n  s            stop"
	if got := RenderKeyHelp(sections); got != want {
		t.Errorf("got %q, want %q", got, want)
	}
	if got := RenderKeyLine(sections); got != "space:play/pause  s:stop" {
		t.Errorf("got %q", got)
	}
}
