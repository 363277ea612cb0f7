package debug_test

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"midi-player/debug"
)

func TestLogWritesCategory(t *testing.T) {
	var buf bytes.Buffer
	debug.EnableWriter(&buf)
	defer debug.Disable()

	debug.Log("player", "play from %.1fs", 1.5)
	out := buf.String()
	if !strings.Contains(out, "category=player") || !strings.Contains(out, "play from 1.5s") {
		t.Errorf("unexpected log output %q", out)
	}
}

func TestDisabledLogIsSilent(t *testing.T) {
	var buf bytes.Buffer
	debug.EnableWriter(&buf)
	debug.Disable()
	n := buf.Len()
	debug.Log("player", "ignored")
	if buf.Len() != n {
		t.Errorf("disabled logger wrote %q", buf.String()[n:])
	}
	if debug.Enabled() {
		t.Error("Enabled() after Disable")
	}
}

func TestLogEvery(t *testing.T) {
	var buf bytes.Buffer
	debug.EnableWriter(&buf)
	defer debug.Disable()

	for i := 0; i < 10; i++ {
		debug.LogEvery(5, "dispatch", "tick")
	}
	if got := strings.Count(buf.String(), "tick (every 5"); got != 2 {
		t.Errorf("got %d lines, want 2:\n%s", got, buf.String())
	}
}

func TestEnableFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "debug.log")
	if err := debug.EnableFile(path); err != nil {
		t.Fatal(err)
	}
	debug.Log("server", "listening")
	debug.Disable()

	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(b), "listening") {
		t.Errorf("log file holds %q", b)
	}
}
