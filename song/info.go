package song

import "midi-player/smf"

// Info summarises a decoded file.
type Info struct {
	Format          int           `json:"format" yaml:"format"`
	DeclaredTracks  int           `json:"declaredTracks" yaml:"declared_tracks"`
	Tracks          int           `json:"tracks" yaml:"tracks"`
	TicksPerBeat    int           `json:"ticksPerBeat" yaml:"ticks_per_beat"`
	SMPTE           bool          `json:"smpte" yaml:"smpte"`
	FramesPerSecond int           `json:"framesPerSecond,omitempty" yaml:"frames_per_second,omitempty"`
	TicksPerFrame   int           `json:"ticksPerFrame,omitempty" yaml:"ticks_per_frame,omitempty"`
	Tempo           []TempoChange `json:"tempo" yaml:"tempo"`
	Notes           int           `json:"notes" yaml:"notes"`
	Duration        float64       `json:"duration" yaml:"duration"`
}

type TempoChange struct {
	Tick uint64  `json:"tick" yaml:"tick"`
	Time float64 `json:"time" yaml:"time"`
	BPM  float64 `json:"bpm" yaml:"bpm"`
}

func Describe(f *smf.File) Info {
	tl := f.Timeline()
	info := Info{
		Format:          int(f.Format),
		DeclaredTracks:  int(f.TrackCount),
		Tracks:          len(f.Tracks),
		TicksPerBeat:    f.TicksPerBeat,
		SMPTE:           f.SMPTE,
		FramesPerSecond: f.FramesPerSecond,
		TicksPerFrame:   f.TicksPerFrame,
		Tempo:           []TempoChange{},
		Notes:           f.NoteCount(),
		Duration:        f.Duration(),
	}
	for _, tc := range f.TempoMap {
		info.Tempo = append(info.Tempo, TempoChange{Tick: tc.Tick, Time: tl.Seconds(tc.Tick), BPM: tc.BPM()})
	}
	return info
}
