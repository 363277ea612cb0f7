package config_test

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"midi-player/config"
)

func TestLoadMissingFileGivesDefaults(t *testing.T) {
	cfg, err := config.LoadFrom(filepath.Join(t.TempDir(), "nope.yml"))
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(cfg, config.DefaultConfig()) {
		t.Errorf("got %+v, want defaults", cfg)
	}
}

func TestLoadKeepsDefaultsForMissingKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	data := "output:\n  port: fluid\nplayer:\n  seek_step: 2.5\nserver:\n  addr: \"\"\n"
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}
	cfg, err := config.LoadFrom(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Output.Port != "fluid" || cfg.Player.SeekStep != 2.5 {
		t.Errorf("file values lost: %+v", cfg)
	}
	if cfg.Player.TempoScale != 100 || cfg.Server.Addr != ":8888" {
		t.Errorf("defaults lost: %+v", cfg)
	}
}

func TestLoadBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	os.WriteFile(path, []byte("player: [1, 2"), 0644)
	if _, err := config.LoadFrom(path); err == nil {
		t.Error("expected a parse error")
	}
}

func TestSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "config.yml")
	cfg := config.DefaultConfig()
	cfg.Output.Port = "none"
	cfg.Player.TempoScale = 150
	cfg.Debug = true
	cfg.AddRecent("/music/a.mid")
	if err := cfg.SaveTo(path); err != nil {
		t.Fatal(err)
	}
	got, err := config.LoadFrom(path)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got, cfg) {
		t.Errorf("got %+v, want %+v", got, cfg)
	}
	if !got.OutputDisabled() {
		t.Error("port none should disable output")
	}
}

func TestAddRecent(t *testing.T) {
	cfg := config.DefaultConfig()
	for i := 0; i < 12; i++ {
		cfg.AddRecent(fmt.Sprintf("/m/%d.mid", i))
	}
	cfg.AddRecent("/m/5.mid")
	if len(cfg.Recent) != 10 {
		t.Fatalf("got %d recent files", len(cfg.Recent))
	}
	if cfg.Recent[0] != "/m/5.mid" || cfg.Recent[1] != "/m/11.mid" {
		t.Errorf("got %v", cfg.Recent)
	}
}

func TestLoadClampsTempoScale(t *testing.T) {
	tests := map[string]float64{
		"5":    10,
		"1000": 400,
		"150":  150,
		"-20":  100,
		".nan": 100,
	}
	for in, want := range tests {
		path := filepath.Join(t.TempDir(), "config.yml")
		data := fmt.Sprintf("player:\n  tempo_scale: %s\n", in)
		if err := os.WriteFile(path, []byte(data), 0644); err != nil {
			t.Fatal(err)
		}
		cfg, err := config.LoadFrom(path)
		if err != nil {
			t.Fatal(err)
		}
		if cfg.Player.TempoScale != want {
			t.Errorf("tempo_scale %s: got %v, want %v", in, cfg.Player.TempoScale, want)
		}
	}
}
