package sequencer

import (
	"fmt"
	"time"
)

// Note is what a Sink receives for each scheduled note.
type Note struct {
	Track    int
	Channel  uint8
	Key      uint8
	Velocity uint8
	// Start is the note's position in the song, in seconds.
	Start float64
	// Duration is how long the note sounds in real time at the tempo scale
	// it was scheduled with.
	Duration time.Duration
}

func (n Note) String() string {
	return fmt.Sprintf("track=%d ch=%d key=%d vel=%d start=%.3fs dur=%v", n.Track, n.Channel, n.Key, n.Velocity, n.Start, n.Duration)
}

// Sink consumes notes as the Player plays them. Methods are called from the
// Player's loop and must not call back into the Player.
type Sink interface {
	NoteStart(n Note) error
	NoteEnd(n Note) error
}

// SinkFuncs adapts plain functions to a Sink. Nil functions are skipped.
type SinkFuncs struct {
	Start func(Note) error
	End   func(Note) error
}

func (s SinkFuncs) NoteStart(n Note) error {
	if s.Start == nil {
		return nil
	}
	return s.Start(n)
}

func (s SinkFuncs) NoteEnd(n Note) error {
	if s.End == nil {
		return nil
	}
	return s.End(n)
}

// MultiSink delivers every note to each sink in order and returns the first
// error.
type MultiSink []Sink

func (m MultiSink) NoteStart(n Note) error {
	var first error
	for _, s := range m {
		if err := s.NoteStart(n); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func (m MultiSink) NoteEnd(n Note) error {
	var first error
	for _, s := range m {
		if err := s.NoteEnd(n); err != nil && first == nil {
			first = err
		}
	}
	return first
}
