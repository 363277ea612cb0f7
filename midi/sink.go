package midi

import (
	"sync"

	"github.com/pkg/errors"
	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"

	"midi-player/debug"
	"midi-player/sequencer"
)

// ccAllNotesOff silences a channel
const ccAllNotesOff = 123

// PortSink plays notes on a MIDI output port
type PortSink struct {
	mu   sync.Mutex
	send func(msg gomidi.Message) error
	port drivers.Out
	used uint16 // channels that received a note
}

// NewSink wraps a send function, such as one returned by gomidi.SendTo
func NewSink(send func(msg gomidi.Message) error) *PortSink {
	return &PortSink{send: send}
}

// OpenOut opens the first output port whose name contains match, ignoring
// case. An empty match takes the first port.
func OpenOut(match string) (*PortSink, error) {
	ports, err := outPorts()
	if err != nil {
		return nil, err
	}
	out := findOut(ports, match)
	if out == nil {
		return nil, errors.Errorf("no MIDI output port matching %q", match)
	}
	send, err := gomidi.SendTo(out)
	if err != nil {
		return nil, errors.Wrapf(err, "open output %s", out)
	}
	debug.Log("midi", "opened output %s", out)

	s := NewSink(send)
	s.port = out
	return s, nil
}

// Name returns the port name, or "" for a sink without a port
func (s *PortSink) Name() string {
	if s.port == nil {
		return ""
	}
	return s.port.String()
}

func (s *PortSink) NoteStart(n sequencer.Note) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.used |= 1 << (n.Channel & 0x0f)
	return s.send(gomidi.NoteOn(n.Channel, n.Key, n.Velocity))
}

func (s *PortSink) NoteEnd(n sequencer.Note) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.send(gomidi.NoteOff(n.Channel, n.Key))
}

// Close sends all-notes-off on every channel that was played and closes the
// port.
func (s *PortSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var first error
	for ch := uint8(0); ch < 16; ch++ {
		if s.used&(1<<ch) == 0 {
			continue
		}
		if err := s.send(gomidi.ControlChange(ch, ccAllNotesOff, 0)); err != nil && first == nil {
			first = err
		}
	}
	s.used = 0
	if s.port != nil {
		if err := s.port.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// LogSink writes notes to the debug log instead of a port
type LogSink struct{}

func (LogSink) NoteStart(n sequencer.Note) error {
	debug.Log("note", "on  %v", n)
	return nil
}

func (LogSink) NoteEnd(n sequencer.Note) error {
	debug.Log("note", "off %v", n)
	return nil
}
