package smf

import (
	"math"
	"sort"
)

const (
	// EncodeDivision is the fixed ticks-per-beat resolution of Encode.
	EncodeDivision = 480
	// DefaultVelocity replaces a zero velocity on encode.
	DefaultVelocity = 100

	// encodeTempo makes one beat last one second, so a tick is 1/480 s.
	encodeTempo = 1000000
)

// NoteSpan is a note in seconds. Velocity 0 means DefaultVelocity.
type NoteSpan struct {
	Key      int
	Start    float64
	Duration float64
	Velocity int
}

type encodeEvent struct {
	tick     uint32
	status   uint8
	key      uint8
	velocity uint8
}

// Encode writes each slice of spans as one track of a format 1 file at 480
// ticks per beat. Times are rounded to the nearest tick. Besides NoteOn,
// NoteOff and end-of-track, the output carries one extra event: a set-tempo
// meta of 1,000,000 µs per beat at tick 0 of the first track, so that decoding
// the result gives back the original times instead of the 120 BPM default.
// All input is checked before any output is produced; a rejected span yields
// an *InputError.
func Encode(tracks [][]NoteSpan) ([]byte, error) {
	if len(tracks) > math.MaxUint16 {
		return nil, &InputError{Track: -1, Index: -1, Field: "tracks", Reason: "more than 65535 tracks"}
	}

	prepared := make([][]encodeEvent, len(tracks))
	for ti, spans := range tracks {
		evs, err := trackEvents(ti, spans)
		if err != nil {
			return nil, err
		}
		prepared[ti] = evs
	}

	w := &Writer{}
	w.Tag("MThd")
	w.U32(6)
	w.U16(1)
	w.U16(uint16(len(tracks)))
	w.U16(EncodeDivision)

	for ti, evs := range prepared {
		body := &Writer{}
		if ti == 0 {
			body.VLQ(0)
			body.Raw([]byte{statusMeta, metaTempo, 3})
			body.U24(encodeTempo)
		}
		var last uint32
		for _, e := range evs {
			body.VLQ(e.tick - last)
			body.Raw([]byte{e.status, e.key, e.velocity})
			last = e.tick
		}
		body.VLQ(0)
		body.Raw([]byte{statusMeta, metaEndOfTrack, 0})
		if err := body.Err(); err != nil {
			return nil, err
		}

		w.Tag("MTrk")
		w.U32(uint32(body.Len()))
		w.Raw(body.Bytes())
	}
	return w.Bytes(), w.Err()
}

// trackEvents validates one track and expands it into sorted note events.
func trackEvents(track int, spans []NoteSpan) ([]encodeEvent, error) {
	order := make([]int, len(spans))
	for i, s := range spans {
		if err := checkSpan(track, i, s); err != nil {
			return nil, err
		}
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return spans[order[a]].Start < spans[order[b]].Start })

	evs := make([]encodeEvent, 0, 2*len(spans))
	for _, i := range order {
		s := spans[i]
		vel := s.Velocity
		if vel == 0 {
			vel = DefaultVelocity
		}
		on := math.Round(s.Start * EncodeDivision)
		off := math.Round((s.Start + s.Duration) * EncodeDivision)
		if off > MaxVLQ {
			return nil, &InputError{Track: track, Index: i, Field: "time", Reason: "note ends beyond the encodable range"}
		}
		evs = append(evs,
			encodeEvent{tick: uint32(on), status: StatusNoteOn, key: uint8(s.Key), velocity: uint8(vel)},
			encodeEvent{tick: uint32(off), status: StatusNoteOff, key: uint8(s.Key)},
		)
	}
	sort.SliceStable(evs, func(a, b int) bool { return evs[a].tick < evs[b].tick })
	return evs, nil
}

func checkSpan(track, index int, s NoteSpan) error {
	bad := func(field, reason string) error {
		return &InputError{Track: track, Index: index, Field: field, Reason: reason}
	}
	switch {
	case s.Key < 0 || s.Key > 127:
		return bad("note", "must be between 0 and 127")
	case s.Velocity < 0 || s.Velocity > 127:
		return bad("velocity", "must be between 0 and 127")
	case math.IsNaN(s.Start) || math.IsInf(s.Start, 0):
		return bad("time", "must be a finite number")
	case s.Start < 0:
		return bad("time", "must not be negative")
	case math.IsNaN(s.Duration) || math.IsInf(s.Duration, 0):
		return bad("duration", "must be a finite number")
	case s.Duration < 0:
		return bad("duration", "must not be negative")
	}
	return nil
}
