// Package song is the seconds-based note interchange format:
// {"tracks":[{"notes":[{"note":60,"time":0,"duration":1,"velocity":100}]}]}.
package song

import (
	"encoding/json"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"midi-player/smf"
)

type Song struct {
	Tracks []Track `json:"tracks" yaml:"tracks"`
}

type Track struct {
	Notes []Note `json:"notes" yaml:"notes"`
}

// Note times are in seconds. A zero velocity is encoded as the default 100.
type Note struct {
	Note     int     `json:"note" yaml:"note"`
	Time     float64 `json:"time" yaml:"time"`
	Duration float64 `json:"duration" yaml:"duration"`
	Velocity int     `json:"velocity" yaml:"velocity"`
}

// raw mirrors Song with pointers so that missing fields can be told apart
// from zero values.
type raw struct {
	Tracks *[]struct {
		Notes []struct {
			Note     *int     `json:"note" yaml:"note"`
			Time     *float64 `json:"time" yaml:"time"`
			Duration *float64 `json:"duration" yaml:"duration"`
			Velocity *int     `json:"velocity" yaml:"velocity"`
		} `json:"notes" yaml:"notes"`
	} `json:"tracks" yaml:"tracks"`
}

// Parse reads a song in JSON, falling back to YAML. Missing note, time or
// duration fields and negative durations are reported as *smf.InputError.
func Parse(data []byte) (*Song, error) {
	var r raw
	if errJSON := json.Unmarshal(data, &r); errJSON != nil {
		r = raw{}
		if errYaml := yaml.Unmarshal(data, &r); errYaml != nil {
			return nil, errors.Errorf("song is neither JSON (%v) nor YAML (%v)", errJSON, errYaml)
		}
	}
	if r.Tracks == nil {
		return nil, &smf.InputError{Track: -1, Index: -1, Field: "tracks", Reason: "missing"}
	}

	s := &Song{Tracks: make([]Track, len(*r.Tracks))}
	for ti, rt := range *r.Tracks {
		notes := make([]Note, len(rt.Notes))
		for ni, rn := range rt.Notes {
			missing := func(field string) error {
				return &smf.InputError{Track: ti, Index: ni, Field: field, Reason: "missing"}
			}
			switch {
			case rn.Note == nil:
				return nil, missing("note")
			case rn.Time == nil:
				return nil, missing("time")
			case rn.Duration == nil:
				return nil, missing("duration")
			case *rn.Duration < 0:
				return nil, &smf.InputError{Track: ti, Index: ni, Field: "duration", Reason: "must not be negative"}
			}
			n := Note{Note: *rn.Note, Time: *rn.Time, Duration: *rn.Duration}
			if rn.Velocity != nil {
				n.Velocity = *rn.Velocity
			}
			notes[ni] = n
		}
		s.Tracks[ti].Notes = notes
	}
	return s, nil
}

// Spans converts the song to encoder input, one slice per track.
func (s *Song) Spans() [][]smf.NoteSpan {
	tracks := make([][]smf.NoteSpan, len(s.Tracks))
	for i, t := range s.Tracks {
		spans := make([]smf.NoteSpan, len(t.Notes))
		for j, n := range t.Notes {
			spans[j] = smf.NoteSpan{Key: n.Note, Start: n.Time, Duration: n.Duration, Velocity: n.Velocity}
		}
		tracks[i] = spans
	}
	return tracks
}

// MIDI encodes the song as a Standard MIDI File.
func (s *Song) MIDI() ([]byte, error) {
	return smf.Encode(s.Spans())
}

func (s *Song) JSON() ([]byte, error) {
	return json.MarshalIndent(s, "", "  ")
}

func (s *Song) YAML() ([]byte, error) {
	return yaml.Marshal(s)
}

// FromFile lists the notes of every decoded track in seconds. Tracks without
// notes are kept with an empty note list so that track indexes line up.
func FromFile(f *smf.File) *Song {
	tl := f.Timeline()
	s := &Song{Tracks: make([]Track, 0, len(f.Tracks))}
	for _, tr := range f.Tracks {
		notes := []Note{}
		for _, p := range tr.Pairs() {
			start := tl.Seconds(p.On)
			notes = append(notes, Note{
				Note:     int(p.Key),
				Time:     start,
				Duration: tl.Seconds(p.Off) - start,
				Velocity: int(p.Velocity),
			})
		}
		s.Tracks = append(s.Tracks, Track{Notes: notes})
	}
	return s
}
