package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/pkg/errors"
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv"

	"midi-player/config"
	"midi-player/debug"
	"midi-player/midi"
	"midi-player/sequencer"
	"midi-player/smf"
	"midi-player/song"
	"midi-player/theme"
	"midi-player/tui"
)

func main() {
	port := flag.String("port", "", `Output port name to match, or "none". Overrides the config file.`)
	tempo := flag.Float64("tempo", 0, "Tempo scale in percent. Overrides the config file.")
	verbose := flag.Bool("debug", false, "Write a debug log to the config directory.")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: midi-player [-port name] [-tempo percent] [-debug] file\n\n")
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}
	path := flag.Arg(0)

	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Config: %v (using defaults)\n", err)
		cfg = config.DefaultConfig()
	}
	if *port != "" {
		cfg.Output.Port = *port
	}
	if *tempo > 0 {
		cfg.Player.TempoScale = *tempo
	}
	if *verbose || cfg.Debug {
		if err := debug.Enable(); err != nil {
			fmt.Printf("Debug log: %v\n", err)
		}
	}
	if debug.Enabled() {
		defer debug.Disable()
	}

	if err := run(path, cfg); err != nil {
		fmt.Printf("Error: %v\n", err)
		if debug.Enabled() {
			debug.Disable()
		}
		os.Exit(1)
	}
}

// run plays path until the UI quits. Deferred cleanup, including
// all-notes-off on the output port, runs on every return path.
func run(path string, cfg *config.Config) error {
	// Load theme
	palette := theme.Default()
	if cfg.Player.Palette != "" {
		if p, err := theme.LoadGPL(cfg.Player.Palette); err != nil {
			fmt.Printf("Palette: %v (using default)\n", err)
		} else {
			palette = p
		}
	}
	th := theme.New(palette)

	file, err := load(path)
	if err != nil {
		return err
	}

	// Open the output; without one the player still runs and logs notes
	sinks := sequencer.MultiSink{midi.LogSink{}}
	portName := ""
	if !cfg.OutputDisabled() {
		out, err := midi.OpenOut(cfg.Output.Port)
		if err != nil {
			fmt.Printf("MIDI output: %v\n", err)
		} else {
			defer out.Close()
			sinks = append(sinks, out)
			portName = out.Name()
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	player := sequencer.New(sinks, sequencer.WithTempoScale(cfg.Player.TempoScale))
	go player.Run(ctx)
	if err := player.Load(file); err != nil {
		return err
	}

	// Watch for hot-plugged ports
	var watcher *midi.PortWatcher
	if !cfg.OutputDisabled() {
		watcher = midi.NewPortWatcher()
		go watcher.Run(ctx)
	}

	m := tui.NewModel(player, watcher, th)
	m.Title = filepath.Base(path)
	m.Port = portName
	m.SeekStep = cfg.Player.SeekStep

	p := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return err
	}
	player.Stop()

	cfg.AddRecent(path)
	if err := cfg.Save(); err != nil {
		fmt.Printf("Config: %v\n", err)
	}
	return nil
}

// load reads a .mid file, or a note list which is encoded first
func load(path string) (*smf.File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read")
	}
	if bytes.HasPrefix(data, []byte("MThd")) {
		return smf.Decode(data)
	}
	s, err := song.Parse(data)
	if err != nil {
		return nil, err
	}
	mid, err := s.MIDI()
	if err != nil {
		return nil, err
	}
	return smf.Decode(mid)
}
