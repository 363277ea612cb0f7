package midi

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"

	"midi-player/debug"
)

// scanTimeout bounds port enumeration (CoreMIDI can hang)
const scanTimeout = 3 * time.Second

var ErrScanTimeout = errors.New("timed out listing MIDI ports")

// PortEvent is emitted when an output port appears or disappears
type PortEvent struct {
	Type PortEventType
	Name string
}

type PortEventType int

const (
	PortAdded PortEventType = iota
	PortRemoved
)

func (t PortEventType) String() string {
	if t == PortRemoved {
		return "removed"
	}
	return "added"
}

func outPorts() ([]drivers.Out, error) {
	ch := make(chan []drivers.Out, 1)
	go func() {
		ch <- gomidi.GetOutPorts()
	}()

	select {
	case ports := <-ch:
		return ports, nil
	case <-time.After(scanTimeout):
		// User may need to run: sudo killall coreaudiod midiserver
		return nil, ErrScanTimeout
	}
}

// OutPorts lists the names of the available output ports
func OutPorts() ([]string, error) {
	ports, err := outPorts()
	if err != nil {
		return nil, err
	}
	names := make([]string, len(ports))
	for i, p := range ports {
		names[i] = p.String()
	}
	return names, nil
}

// findOut returns the first port whose name contains match, ignoring case.
// An empty match takes the first port.
func findOut(ports []drivers.Out, match string) drivers.Out {
	for _, p := range ports {
		if portMatches(p.String(), match) {
			return p
		}
	}
	return nil
}

func portMatches(name, match string) bool {
	return strings.Contains(strings.ToLower(name), strings.ToLower(match))
}

// PortWatcher handles hot-plug detection of output ports
type PortWatcher struct {
	list     func() ([]string, error)
	ports    map[string]bool
	mu       sync.RWMutex
	events   chan PortEvent
	pollRate time.Duration
}

// NewPortWatcher creates a watcher polling the MIDI driver once a second
func NewPortWatcher() *PortWatcher {
	return newPortWatcher(OutPorts, time.Second)
}

func newPortWatcher(list func() ([]string, error), pollRate time.Duration) *PortWatcher {
	return &PortWatcher{
		list:     list,
		ports:    make(map[string]bool),
		events:   make(chan PortEvent, 16),
		pollRate: pollRate,
	}
}

// Events returns a channel of port added/removed events. It is closed when
// Run returns.
func (w *PortWatcher) Events() <-chan PortEvent {
	return w.events
}

// Ports returns a sorted snapshot of the known ports
func (w *PortWatcher) Ports() []string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	names := make([]string, 0, len(w.ports))
	for name := range w.ports {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Run starts the polling loop (blocking - run in goroutine)
func (w *PortWatcher) Run(ctx context.Context) {
	ticker := time.NewTicker(w.pollRate)
	defer ticker.Stop()
	defer close(w.events)

	// Initial scan
	w.scan(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.scan(ctx)
		}
	}
}

func (w *PortWatcher) scan(ctx context.Context) {
	names, err := w.list()
	if err != nil {
		// skip this scan
		debug.Log("midi", "port scan: %v", err)
		return
	}

	debug.LogEvery(50, "midi", "port scan: %d outputs", len(names))

	seen := make(map[string]bool, len(names))
	var events []PortEvent

	w.mu.Lock()
	for _, name := range names {
		seen[name] = true
		if !w.ports[name] {
			w.ports[name] = true
			events = append(events, PortEvent{Type: PortAdded, Name: name})
		}
	}
	var removed []string
	for name := range w.ports {
		if !seen[name] {
			removed = append(removed, name)
		}
	}
	sort.Strings(removed)
	for _, name := range removed {
		delete(w.ports, name)
		events = append(events, PortEvent{Type: PortRemoved, Name: name})
	}
	w.mu.Unlock()

	for _, ev := range events {
		debug.Log("midi", "port %s: %s", ev.Type, ev.Name)
		select {
		case w.events <- ev:
		case <-ctx.Done():
			return
		}
	}
}
