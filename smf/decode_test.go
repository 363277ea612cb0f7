package smf_test

import (
	"bytes"
	"reflect"
	"testing"

	"github.com/pkg/errors"
	gomidi "gitlab.com/gomidi/midi/v2"
	gsmf "gitlab.com/gomidi/midi/v2/smf"

	"midi-player/smf"
)

func header(format, tracks, division uint16) []byte {
	return []byte{
		'M', 'T', 'h', 'd', 0, 0, 0, 6,
		byte(format >> 8), byte(format),
		byte(tracks >> 8), byte(tracks),
		byte(division >> 8), byte(division),
	}
}

func chunk(tag string, body ...byte) []byte {
	n := len(body)
	b := append([]byte(tag), byte(n>>24), byte(n>>16), byte(n>>8), byte(n))
	return append(b, body...)
}

func file(parts ...[]byte) []byte {
	return bytes.Join(parts, nil)
}

func mustDecode(t *testing.T, b []byte) *smf.File {
	t.Helper()
	f, err := smf.Decode(b)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	return f
}

func TestDecodeRunningStatus(t *testing.T) {
	f := mustDecode(t, file(
		header(0, 1, 480),
		chunk("MTrk",
			0x00, 0x90, 60, 100,
			0x0a, 64, 90,
			0x00, 0xff, 0x2f, 0x00),
	))
	if len(f.Tracks) != 1 {
		t.Fatalf("got %d tracks, want 1", len(f.Tracks))
	}
	want := []smf.Event{
		smf.NoteOn{At: 0, Channel: 0, Key: 60, Velocity: 100},
		smf.NoteOn{At: 10, Channel: 0, Key: 64, Velocity: 90},
	}
	if !reflect.DeepEqual(f.Tracks[0].Events, want) {
		t.Errorf("got %v, want %v", f.Tracks[0].Events, want)
	}
}

func TestDecodeChannelVoice(t *testing.T) {
	f := mustDecode(t, file(
		header(0, 1, 96),
		chunk("MTrk",
			0x00, 0xc3, 5,
			0x00, 0xb3, 7, 100,
			0x10, 0xe3, 0x00, 0x40,
			0x00, 0xd3, 33,
			0x00, 0xa3, 60, 44,
			0x08, 0x93, 60, 0,
			0x08, 0x83, 61, 64,
		),
	))
	want := []smf.Event{
		smf.ProgramChange{At: 0, Channel: 3, Program: 5},
		smf.ControlChange{At: 0, Channel: 3, Controller: 7, Value: 100},
		smf.PitchBend{At: 16, Channel: 3, Value: 8192},
		smf.ChannelPressure{At: 16, Channel: 3, Pressure: 33},
		smf.PolyPressure{At: 16, Channel: 3, Key: 60, Pressure: 44},
		smf.NoteOff{At: 24, Channel: 3, Key: 60},
		smf.NoteOff{At: 32, Channel: 3, Key: 61},
	}
	if !reflect.DeepEqual(f.Tracks[0].Events, want) {
		t.Errorf("got %v\nwant %v", f.Tracks[0].Events, want)
	}
}

func TestDecodeZeroVelocityIsNoteOff(t *testing.T) {
	viaNoteOn := mustDecode(t, file(header(0, 1, 480), chunk("MTrk", 0x00, 0x91, 60, 0)))
	viaNoteOff := mustDecode(t, file(header(0, 1, 480), chunk("MTrk", 0x00, 0x81, 60, 0)))
	if !reflect.DeepEqual(viaNoteOn.Tracks, viaNoteOff.Tracks) {
		t.Errorf("got %v, want %v", viaNoteOn.Tracks, viaNoteOff.Tracks)
	}
}

func TestDecodeSkipsMetaAndSysEx(t *testing.T) {
	f := mustDecode(t, file(
		header(1, 1, 480),
		chunk("MTrk",
			0x00, 0xff, 0x03, 0x04, 'l', 'e', 'a', 'd',
			0x00, 0xf0, 0x03, 0x7e, 0x7f, 0xf7,
			0x00, 0xf7, 0x01, 0xf7,
			0x00, 0xff, 0x51, 0x04, 0x07, 0xa1, 0x20, 0x00, // wrong length for a tempo
			0x00, 0x90, 60, 100,
		),
	))
	want := []smf.Event{smf.NoteOn{At: 0, Key: 60, Velocity: 100}}
	if !reflect.DeepEqual(f.Tracks[0].Events, want) {
		t.Errorf("got %v, want %v", f.Tracks[0].Events, want)
	}
	if len(f.TempoMap) != 0 {
		t.Errorf("unexpected tempo map %v", f.TempoMap)
	}
}

func TestDecodeDropsEmptyTracks(t *testing.T) {
	f := mustDecode(t, file(
		header(1, 3, 480),
		chunk("MTrk", 0x00, 0xff, 0x03, 0x01, 'x', 0x00, 0xff, 0x2f, 0x00),
		chunk("XFIH", 1, 2, 3),
		chunk("MTrk", 0x00, 0x90, 60, 100),
		chunk("MTrk"),
	))
	if f.TrackCount != 3 {
		t.Errorf("TrackCount = %d, want 3", f.TrackCount)
	}
	if len(f.Tracks) != 1 {
		t.Errorf("got %d tracks, want 1", len(f.Tracks))
	}
}

func TestDecodeTempoMapMerge(t *testing.T) {
	f := mustDecode(t, file(
		header(1, 2, 480),
		chunk("MTrk",
			0x00, 0xff, 0x51, 0x03, 0x07, 0xa1, 0x20, // 500000 @0
			0x83, 0x60, 0xff, 0x51, 0x03, 0x0f, 0x42, 0x40, // 1000000 @480
		),
		chunk("MTrk",
			0x83, 0x60, 0xff, 0x51, 0x03, 0x03, 0xd0, 0x90, // 250000 @480
			0x83, 0x60, 0xff, 0x51, 0x03, 0x0f, 0x42, 0x40, // 1000000 @960
		),
	))
	want := smf.TempoMap{
		{Tick: 0, MicrosecondsPerBeat: 500000},
		{Tick: 480, MicrosecondsPerBeat: 250000},
		{Tick: 960, MicrosecondsPerBeat: 1000000},
	}
	if !reflect.DeepEqual(f.TempoMap, want) {
		t.Errorf("got %v, want %v", f.TempoMap, want)
	}
	tempo, ok := f.Tracks[0].Events[1].(smf.Tempo)
	if !ok || tempo.BPM != 60 || tempo.Tick() != 480 {
		t.Errorf("second event of track 0 = %v", f.Tracks[0].Events[1])
	}
}

func TestDecodeSMPTE(t *testing.T) {
	// 0xE7 is -25 frames per second, 40 ticks per frame
	f := mustDecode(t, file(header(0, 1, 0xe728), chunk("MTrk", 0x00, 0x90, 60, 100)))
	if !f.SMPTE || f.FramesPerSecond != 25 || f.TicksPerFrame != 40 || f.TicksPerBeat != 1000 {
		t.Errorf("got smpte=%v fps=%d tpf=%d tpb=%d", f.SMPTE, f.FramesPerSecond, f.TicksPerFrame, f.TicksPerBeat)
	}
	if f.TimeDivision != 0xe728 {
		t.Errorf("TimeDivision = %#x", f.TimeDivision)
	}
}

func TestDecodeStaysInsideTrackChunk(t *testing.T) {
	// the chunk ends in the middle of a NoteOff; the bytes after it would
	// complete the event if the decoder read past the declared length
	b := file(
		header(0, 1, 480),
		chunk("MTrk", 0x00, 0x90, 60, 100, 0x00, 0x80),
		[]byte{60, 0},
	)
	_, err := smf.Decode(b)
	if !errors.Is(err, smf.ErrUnexpectedEOF) {
		t.Fatalf("got %v, want ErrUnexpectedEOF", err)
	}
	var fe *smf.FormatError
	if !errors.As(err, &fe) {
		t.Fatalf("got %T, want *FormatError", err)
	}
	if fe.Offset != 14+8+6 {
		t.Errorf("error offset %d, want %d", fe.Offset, 14+8+6)
	}
}

func TestDecodeErrors(t *testing.T) {
	good := chunk("MTrk", 0x00, 0x90, 60, 100)
	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"bad magic", file([]byte("RIFF"), header(0, 1, 480)[4:], good)},
		{"header length", file([]byte{'M', 'T', 'h', 'd', 0, 0, 0, 7, 0, 0, 0, 1, 1, 0xe0, 0}, good)},
		{"unknown format", file(header(3, 1, 480), good)},
		{"zero division", file(header(0, 1, 0), good)},
		{"missing track", file(header(1, 2, 480), good)},
		{"truncated header", header(0, 1, 480)[:10]},
		{"chunk longer than data", file(header(0, 1, 480), good[:10])},
		{"no running status", file(header(0, 1, 480), chunk("MTrk", 0x00, 60, 100))},
		{"system common status", file(header(0, 1, 480), chunk("MTrk", 0x00, 0xf2, 0, 0))},
		{"zero tempo", file(header(0, 1, 480), chunk("MTrk", 0x00, 0xff, 0x51, 0x03, 0, 0, 0))},
		{"long vlq", file(header(0, 1, 480), chunk("MTrk", 0xff, 0xff, 0xff, 0xff, 0x7f))},
		{"meta past end", file(header(0, 1, 480), chunk("MTrk", 0x00, 0xff, 0x01, 0x10, 'a'))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := smf.Decode(tt.data)
			if f != nil {
				t.Errorf("got a partial file %+v", f)
			}
			var fe *smf.FormatError
			if !errors.As(err, &fe) {
				t.Fatalf("got %v, want *FormatError", err)
			}
			if !errors.Is(err, smf.ErrInvalidFormat) {
				t.Errorf("%v does not match ErrInvalidFormat", err)
			}
		})
	}
}

func TestDecodeEndOfTrackStopsParsing(t *testing.T) {
	f := mustDecode(t, file(
		header(0, 1, 480),
		chunk("MTrk", 0x00, 0x90, 60, 100, 0x00, 0xff, 0x2f, 0x00, 0xde, 0xad),
	))
	if n := len(f.Tracks[0].Events); n != 1 {
		t.Errorf("got %d events, want 1", n)
	}
}

// Files written by gomidi's smf package decode to the same notes and tempo.
func TestDecodeGomidiFile(t *testing.T) {
	s := gsmf.New()
	s.TimeFormat = gsmf.MetricTicks(960)

	var conductor gsmf.Track
	conductor.Add(0, gsmf.MetaTempo(60))
	conductor.Add(1920, gsmf.MetaTempo(120))
	conductor.Close(0)

	var piano gsmf.Track
	piano.Add(0, gomidi.NoteOn(2, 60, 90))
	piano.Add(0, gomidi.NoteOn(2, 64, 80))
	piano.Add(960, gomidi.NoteOff(2, 60))
	piano.Add(0, gomidi.NoteOff(2, 64))
	piano.Add(960, gomidi.ControlChange(2, 64, 127))
	piano.Close(0)

	for _, tr := range []gsmf.Track{conductor, piano} {
		if err := s.Add(tr); err != nil {
			t.Fatal(err)
		}
	}
	var buf bytes.Buffer
	if _, err := s.WriteTo(&buf); err != nil {
		t.Fatal(err)
	}

	f := mustDecode(t, buf.Bytes())
	if f.TicksPerBeat != 960 || len(f.Tracks) != 2 {
		t.Fatalf("tpb=%d tracks=%d", f.TicksPerBeat, len(f.Tracks))
	}
	wantTempo := smf.TempoMap{{Tick: 0, MicrosecondsPerBeat: 1000000}, {Tick: 1920, MicrosecondsPerBeat: 500000}}
	if !reflect.DeepEqual(f.TempoMap, wantTempo) {
		t.Errorf("tempo map %v, want %v", f.TempoMap, wantTempo)
	}
	wantPairs := []smf.Pair{
		{Channel: 2, Key: 60, Velocity: 90, On: 0, Off: 960},
		{Channel: 2, Key: 64, Velocity: 80, On: 0, Off: 960},
	}
	if got := f.Tracks[1].Pairs(); !reflect.DeepEqual(got, wantPairs) {
		t.Errorf("pairs %v, want %v", got, wantPairs)
	}
	if d := f.Duration(); d != 2 {
		t.Errorf("duration %v, want 2", d)
	}
}
