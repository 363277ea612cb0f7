package smf

// DefaultTempo applies before the first tempo change: 120 BPM.
const DefaultTempo = 500000

// File is a decoded Standard MIDI File. It is not modified after Decode
// returns it.
type File struct {
	Format       uint16
	TrackCount   uint16 // as declared in the header
	TimeDivision uint16 // raw header value
	TicksPerBeat int

	SMPTE           bool
	FramesPerSecond int
	TicksPerFrame   int

	// Tracks without any decodable events are left out.
	Tracks   []Track
	TempoMap TempoMap
}

// Track holds events in non-decreasing tick order.
type Track struct {
	Events []Event
}

type TempoChange struct {
	Tick                uint64
	MicrosecondsPerBeat uint32
}

// BPM of the tempo change.
func (tc TempoChange) BPM() float64 {
	return 60e6 / float64(tc.MicrosecondsPerBeat)
}

// TempoMap is sorted by tick with at most one entry per tick.
type TempoMap []TempoChange

// LastTick returns the tick of the final event, or 0 for an empty track.
func (t Track) LastTick() uint64 {
	if len(t.Events) == 0 {
		return 0
	}
	return t.Events[len(t.Events)-1].Tick()
}

// Timeline returns a tick to seconds converter for the file.
func (f *File) Timeline() *Timeline {
	return NewTimeline(f.TicksPerBeat, f.TempoMap)
}

// Duration is the time of the latest event in any track, in seconds.
func (f *File) Duration() float64 {
	var last uint64
	for _, tr := range f.Tracks {
		if t := tr.LastTick(); t > last {
			last = t
		}
	}
	return f.Timeline().Seconds(last)
}

// NoteCount counts note starts over all tracks.
func (f *File) NoteCount() int {
	n := 0
	for _, tr := range f.Tracks {
		for _, ev := range tr.Events {
			if _, ok := ev.(NoteOn); ok {
				n++
			}
		}
	}
	return n
}
