package smf

import "fmt"

// Status nibbles of channel voice messages.
const (
	StatusNoteOff         uint8 = 0x80
	StatusNoteOn          uint8 = 0x90
	StatusPolyPressure    uint8 = 0xA0
	StatusControlChange   uint8 = 0xB0
	StatusProgramChange   uint8 = 0xC0
	StatusChannelPressure uint8 = 0xD0
	StatusPitchBend       uint8 = 0xE0
)

const (
	statusSysEx       uint8 = 0xF0
	statusSysExEscape uint8 = 0xF7
	statusMeta        uint8 = 0xFF

	metaEndOfTrack uint8 = 0x2F
	metaTempo      uint8 = 0x51
)

// Event is one decoded track event. The set of implementations is closed:
// NoteOn, NoteOff, PolyPressure, ControlChange, ProgramChange,
// ChannelPressure, PitchBend and Tempo.
type Event interface {
	Tick() uint64
	isEvent()
}

// At is the absolute tick of an event. Every event type embeds it.
type At uint64

func (a At) Tick() uint64 { return uint64(a) }

func (At) isEvent() {}

type NoteOn struct {
	At
	Channel  uint8
	Key      uint8
	Velocity uint8
}

// NoteOff also represents a NoteOn with zero velocity. The release velocity
// is not kept.
type NoteOff struct {
	At
	Channel uint8
	Key     uint8
}

type PolyPressure struct {
	At
	Channel  uint8
	Key      uint8
	Pressure uint8
}

type ControlChange struct {
	At
	Channel    uint8
	Controller uint8
	Value      uint8
}

type ProgramChange struct {
	At
	Channel uint8
	Program uint8
}

type ChannelPressure struct {
	At
	Channel  uint8
	Pressure uint8
}

// PitchBend holds the raw 14-bit value; 8192 is centre.
type PitchBend struct {
	At
	Channel uint8
	Value   uint16
}

type Tempo struct {
	At
	MicrosecondsPerBeat uint32
	BPM                 float64
}

func (e NoteOn) String() string {
	return fmt.Sprintf("%d NoteOn ch=%d key=%d vel=%d", e.At, e.Channel, e.Key, e.Velocity)
}

func (e NoteOff) String() string {
	return fmt.Sprintf("%d NoteOff ch=%d key=%d", e.At, e.Channel, e.Key)
}

func (e PolyPressure) String() string {
	return fmt.Sprintf("%d PolyPressure ch=%d key=%d pressure=%d", e.At, e.Channel, e.Key, e.Pressure)
}

func (e ControlChange) String() string {
	return fmt.Sprintf("%d ControlChange ch=%d cc=%d value=%d", e.At, e.Channel, e.Controller, e.Value)
}

func (e ProgramChange) String() string {
	return fmt.Sprintf("%d ProgramChange ch=%d program=%d", e.At, e.Channel, e.Program)
}

func (e ChannelPressure) String() string {
	return fmt.Sprintf("%d ChannelPressure ch=%d pressure=%d", e.At, e.Channel, e.Pressure)
}

func (e PitchBend) String() string {
	return fmt.Sprintf("%d PitchBend ch=%d value=%d", e.At, e.Channel, e.Value)
}

func (e Tempo) String() string {
	return fmt.Sprintf("%d Tempo %dus/beat (%.2f bpm)", e.At, e.MicrosecondsPerBeat, e.BPM)
}
