package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"time"

	"github.com/pkg/errors"
	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv"

	"midi-player/midi"
	"midi-player/sequencer"
	"midi-player/smf"
	"midi-player/widgets"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		return
	}

	var err error
	switch os.Args[1] {
	case "list":
		err = listPorts()
	case "watch":
		watchPorts()
	case "note":
		err = testNote(os.Args[2:])
	case "dump":
		err = dump(os.Args[2:])
	default:
		usage()
	}
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Println("MIDI Test Scripts")
	fmt.Println("")
	fmt.Println("Commands:")
	fmt.Println("  list               - List all MIDI ports")
	fmt.Println("  watch              - Print port changes as they happen")
	fmt.Println("  note <port> [key]  - Play one note on an output port")
	fmt.Println("  dump <file>        - Print the events of a .mid file")
}

func listPorts() error {
	fmt.Println("=== MIDI Output Ports ===")
	fmt.Println("(waiting up to 3 seconds...)")

	outs, err := midi.OutPorts()
	if err != nil {
		fmt.Println("\nTIMEOUT! The MIDI backend is hung.")
		fmt.Println("Fix: sudo killall coreaudiod midiserver")
		return err
	}
	for i, name := range outs {
		fmt.Printf("  %d: %s\n", i, name)
	}

	fmt.Println("\n=== MIDI Input Ports ===")
	ins := make(chan []drivers.In, 1)
	go func() { ins <- gomidi.GetInPorts() }()
	select {
	case ports := <-ins:
		for i, p := range ports {
			fmt.Printf("  %d: %s\n", i, p.String())
		}
	case <-time.After(3 * time.Second):
		fmt.Println("  (timed out)")
	}
	return nil
}

func watchPorts() {
	fmt.Println("Watching for port changes. Ctrl+C to exit.")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	w := midi.NewPortWatcher()
	go w.Run(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-w.Events():
			fmt.Printf("[%s] %s: %s\n", time.Now().Format("15:04:05"), ev.Type, ev.Name)
		}
	}
}

func testNote(args []string) error {
	if len(args) < 1 {
		usage()
		return nil
	}
	key := 60
	if len(args) > 1 {
		k, err := strconv.Atoi(args[1])
		if err != nil || k < 0 || k > 127 {
			return errors.Errorf("bad key %q", args[1])
		}
		key = k
	}

	sink, err := midi.OpenOut(args[0])
	if err != nil {
		return err
	}
	defer sink.Close()

	n := sequencer.Note{Key: uint8(key), Velocity: 100, Duration: 500 * time.Millisecond}
	fmt.Printf("Playing %s on %s...\n", widgets.NoteName(n.Key), sink.Name())
	if err := sink.NoteStart(n); err != nil {
		return err
	}
	time.Sleep(n.Duration)
	if err := sink.NoteEnd(n); err != nil {
		return err
	}
	fmt.Println("Done!")
	return nil
}

func dump(args []string) error {
	if len(args) < 1 {
		usage()
		return nil
	}
	f, err := smf.ReadFile(args[0])
	if err != nil {
		return err
	}

	if f.SMPTE {
		fmt.Printf("format %d, %d tracks, SMPTE %d fps x %d\n", f.Format, f.TrackCount, f.FramesPerSecond, f.TicksPerFrame)
	} else {
		fmt.Printf("format %d, %d tracks, %d ticks per beat\n", f.Format, f.TrackCount, f.TicksPerBeat)
	}
	tl := f.Timeline()
	for _, tc := range f.TempoMap {
		fmt.Printf("tempo %8d  %s  %.2f bpm\n", tc.Tick, widgets.FormatTime(tl.Seconds(tc.Tick)), tc.BPM())
	}
	for i, tr := range f.Tracks {
		fmt.Printf("\n=== Track %d (%d events) ===\n", i, len(tr.Events))
		for _, ev := range tr.Events {
			fmt.Printf("  %8d  %s  %v\n", ev.Tick(), widgets.FormatTime(tl.Seconds(ev.Tick())), ev)
		}
	}
	fmt.Printf("\n%d notes, %s\n", f.NoteCount(), widgets.FormatTime(f.Duration()))
	return nil
}
