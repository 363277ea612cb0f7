package smf

import (
	"os"
	"sort"

	"github.com/pkg/errors"
)

// ReadFile decodes the Standard MIDI File at path.
func ReadFile(path string) (*File, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read midi file")
	}
	return Decode(b)
}

// Decode parses b as a Standard MIDI File. Any failure is a *FormatError and
// no partial File is returned.
func Decode(b []byte) (*File, error) {
	d := &decoder{r: NewReader(b)}
	f, err := d.file()
	if err != nil {
		at := d.r
		if d.track != nil {
			at = d.track
		}
		return nil, &FormatError{Offset: at.Offset(), Err: err}
	}
	return f, nil
}

type decoder struct {
	r     *Reader
	track *Reader // set while a track chunk is being parsed
}

func (d *decoder) file() (*File, error) {
	f := &File{}
	if err := d.header(f); err != nil {
		return nil, err
	}

	tempos := make([]TempoMap, 0, f.TrackCount)
	for n := 0; n < int(f.TrackCount); {
		tag, err := d.r.Bytes(4)
		if err != nil {
			return nil, errors.Wrapf(err, "track %d of %d", n, f.TrackCount)
		}
		length, err := d.r.U32()
		if err != nil {
			return nil, err
		}
		body, err := d.r.Sub(int(length))
		if err != nil {
			return nil, errors.Wrapf(err, "chunk %q", tag)
		}
		if string(tag) != "MTrk" {
			// unknown chunk types are allowed and ignored
			continue
		}
		n++

		d.track = body
		tr, tm, err := parseTrack(body)
		if err != nil {
			return nil, errors.Wrapf(err, "track %d", n-1)
		}
		d.track = nil

		if len(tr.Events) > 0 {
			f.Tracks = append(f.Tracks, tr)
		}
		tempos = append(tempos, tm)
	}
	f.TempoMap = mergeTempos(tempos)
	return f, nil
}

func (d *decoder) header(f *File) error {
	r := d.r
	if err := r.Tag("MThd"); err != nil {
		return err
	}
	length, err := r.U32()
	if err != nil {
		return err
	}
	if length != 6 {
		return errors.Wrapf(ErrInvalidFormat, "header length %d, want 6", length)
	}
	if f.Format, err = r.U16(); err != nil {
		return err
	}
	if f.Format > 2 {
		return errors.Wrapf(ErrInvalidFormat, "unknown file format %d", f.Format)
	}
	if f.TrackCount, err = r.U16(); err != nil {
		return err
	}
	if f.TimeDivision, err = r.U16(); err != nil {
		return err
	}

	div := f.TimeDivision
	if div&0x8000 != 0 {
		f.SMPTE = true
		f.FramesPerSecond = -int(int8(uint8(div >> 8)))
		f.TicksPerFrame = int(div & 0xff)
		f.TicksPerBeat = f.FramesPerSecond * f.TicksPerFrame
	} else {
		f.TicksPerBeat = int(div)
	}
	if f.TicksPerBeat <= 0 {
		return errors.Wrapf(ErrInvalidFormat, "time division %#04x gives no ticks per beat", div)
	}
	return nil
}

// parseTrack reads events until the chunk is exhausted or an end-of-track
// meta event is seen. Tempo changes are returned separately in track order.
func parseTrack(r *Reader) (Track, TempoMap, error) {
	var (
		tr      Track
		tempos  TempoMap
		tick    uint64
		running uint8
	)
	for r.Len() > 0 {
		delta, err := r.VLQ()
		if err != nil {
			return tr, nil, err
		}
		tick += uint64(delta)

		status, err := r.U8()
		if err != nil {
			return tr, nil, err
		}
		if status < 0x80 {
			if running == 0 {
				return tr, nil, errors.Wrapf(ErrInvalidFormat, "data byte %#02x without running status", status)
			}
			r.unread()
			status = running
		} else if status < statusSysEx {
			running = status
		}

		switch {
		case status < statusSysEx:
			ev, err := channelEvent(r, At(tick), status)
			if err != nil {
				return tr, nil, err
			}
			tr.Events = append(tr.Events, ev)

		case status == statusMeta:
			typ, err := r.U8()
			if err != nil {
				return tr, nil, err
			}
			length, err := r.VLQ()
			if err != nil {
				return tr, nil, err
			}
			switch {
			case typ == metaTempo && length == 3:
				us, err := r.U24()
				if err != nil {
					return tr, nil, err
				}
				if us == 0 {
					return tr, nil, errors.Wrap(ErrInvalidFormat, "zero tempo")
				}
				tr.Events = append(tr.Events, Tempo{At: At(tick), MicrosecondsPerBeat: us, BPM: 60e6 / float64(us)})
				tempos = append(tempos, TempoChange{Tick: tick, MicrosecondsPerBeat: us})
			case typ == metaEndOfTrack:
				return tr, tempos, r.Skip(int(length))
			default:
				if err := r.Skip(int(length)); err != nil {
					return tr, nil, err
				}
			}

		case status == statusSysEx || status == statusSysExEscape:
			length, err := r.VLQ()
			if err != nil {
				return tr, nil, err
			}
			if err := r.Skip(int(length)); err != nil {
				return tr, nil, err
			}

		default:
			return tr, nil, errors.Wrapf(ErrInvalidFormat, "status %#02x not allowed in a track", status)
		}
	}
	return tr, tempos, nil
}

func channelEvent(r *Reader, at At, status uint8) (Event, error) {
	ch := status & 0x0f
	a, err := r.U8()
	if err != nil {
		return nil, err
	}
	switch status & 0xf0 {
	case StatusProgramChange:
		return ProgramChange{At: at, Channel: ch, Program: a}, nil
	case StatusChannelPressure:
		return ChannelPressure{At: at, Channel: ch, Pressure: a}, nil
	}

	b, err := r.U8()
	if err != nil {
		return nil, err
	}
	switch status & 0xf0 {
	case StatusNoteOff:
		return NoteOff{At: at, Channel: ch, Key: a}, nil
	case StatusNoteOn:
		if b == 0 {
			return NoteOff{At: at, Channel: ch, Key: a}, nil
		}
		return NoteOn{At: at, Channel: ch, Key: a, Velocity: b}, nil
	case StatusPolyPressure:
		return PolyPressure{At: at, Channel: ch, Key: a, Pressure: b}, nil
	case StatusControlChange:
		return ControlChange{At: at, Channel: ch, Controller: a, Value: b}, nil
	default: // StatusPitchBend
		return PitchBend{At: at, Channel: ch, Value: uint16(b&0x7f)<<7 | uint16(a&0x7f)}, nil
	}
}

// mergeTempos joins per-track tempo changes into one map sorted by tick.
// When two changes share a tick the one decoded later wins.
func mergeTempos(lists []TempoMap) TempoMap {
	var all TempoMap
	for _, l := range lists {
		all = append(all, l...)
	}
	sort.SliceStable(all, func(i, j int) bool { return all[i].Tick < all[j].Tick })

	out := all[:0]
	for _, tc := range all {
		if n := len(out); n > 0 && out[n-1].Tick == tc.Tick {
			out[n-1] = tc
			continue
		}
		out = append(out, tc)
	}
	return out
}
