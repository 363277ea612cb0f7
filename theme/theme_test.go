package theme

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func TestLoadGPL(t *testing.T) {
	path := filepath.Join(t.TempDir(), "two.gpl")
	data := "GIMP Palette\nName: two\nColumns: 2\n# comment\n  0   0   0\tblack\n255 255 255\twhite\n"
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}
	p, err := LoadGPL(path)
	if err != nil {
		t.Fatal(err)
	}
	if p.Name != "two" || len(p.Colors) != 2 {
		t.Fatalf("got %+v", p)
	}
	if got := p.Lookup(0.5); got != (RGB{127, 127, 127}) {
		t.Errorf("midpoint %v", got)
	}
	if got := p.Lookup(2); got != (RGB{255, 255, 255}) {
		t.Errorf("clamped lookup %v", got)
	}
}

func TestLoadGPLWithoutColors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.gpl")
	os.WriteFile(path, []byte("GIMP Palette\nName: none\n"), 0644)
	if _, err := LoadGPL(path); !errors.Is(err, ErrNoColors) {
		t.Errorf("got %v, want ErrNoColors", err)
	}
}

func TestThemeColors(t *testing.T) {
	th := New(Default())
	if th.BG() != "#0d0887" {
		t.Errorf("BG %v", th.BG())
	}
	if th.Success() != "#f0f921" {
		t.Errorf("Success %v", th.Success())
	}
	if th.Velocity(0) != th.Muted() {
		t.Errorf("silent velocity should use the muted color, got %v", th.Velocity(0))
	}
	if th.Velocity(127) != th.Success() {
		t.Errorf("full velocity should use the success color, got %v", th.Velocity(127))
	}
}

func TestParseGPL(t *testing.T) {
	data := "GIMP Palette\nName: odd\n300 -5 10 hot\nnot a row\n1 2\n4 5 6\n"
	p, err := ParseGPL(strings.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	want := []RGB{{255, 0, 10}, {4, 5, 6}}
	if p.Name != "odd" || !reflect.DeepEqual(p.Colors, want) {
		t.Errorf("got %+v", p)
	}
}

func TestBlend(t *testing.T) {
	a, b := RGB{0, 100, 200}, RGB{200, 100, 0}
	if got := Blend(a, b, 0); got != a {
		t.Errorf("t=0: %v", got)
	}
	if got := Blend(a, b, 1); got != b {
		t.Errorf("t=1: %v", got)
	}
	if got := Blend(a, b, 0.5); got != (RGB{100, 100, 100}) {
		t.Errorf("t=0.5: %v", got)
	}
}
