package sequencer

import (
	"context"
	"math"
	"sort"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"

	"midi-player/debug"
	"midi-player/smf"
)

type State int

const (
	Stopped State = iota
	Playing
	Paused
)

func (s State) String() string {
	switch s {
	case Playing:
		return "playing"
	case Paused:
		return "paused"
	}
	return "stopped"
}

// Tempo scale is a percentage of the file's own tempo.
const (
	DefaultTempoScale = 100
	MinTempoScale     = 10
	MaxTempoScale     = 400
)

// tickInterval is how often elapsed time is checked against the duration.
const tickInterval = 100 * time.Millisecond

var (
	ErrClosed     = errors.New("player is not running")
	ErrRunning    = errors.New("player is already running")
	ErrNoFile     = errors.New("no file loaded")
	ErrTempoScale = errors.New("tempo scale must be a positive number")
	ErrOffset     = errors.New("offset must be a number of seconds")
)

// Status is a snapshot of the player.
type Status struct {
	State      State
	Loaded     bool
	Position   float64 // song seconds
	Duration   float64
	TempoScale float64
	Generation uint64
	Sounding   []Note
	SinkErrors int
}

type Option func(*Player)

func WithClock(c Clock) Option {
	return func(p *Player) { p.clock = c }
}

func WithTempoScale(percent float64) Option {
	return func(p *Player) {
		if percent > 0 {
			p.scale = clampScale(percent)
		}
	}
}

// Player schedules the notes of a decoded file onto a Sink.
//
// All player state is owned by the goroutine running Run. Methods hand a
// closure to that goroutine and wait for it to finish, and timers post back
// into the same loop. Every play session has a generation number; a timer
// whose generation is no longer current does nothing when it fires.
type Player struct {
	sink    Sink
	clock   Clock
	inbox   chan func()
	done    chan struct{}
	running atomic.Bool
	updates chan struct{}

	loaded     bool
	spans      []span
	duration   float64
	state      State
	scale      float64
	position   float64 // song seconds while not playing
	gen        uint64
	sinkErrors int

	// current session
	offset   float64
	ratio    float64
	t0       time.Time
	next     int
	ends     endQueue
	sounding map[int]Note
	nextID   int
	timer    Timer
	ticker   Timer
}

func New(sink Sink, opts ...Option) *Player {
	p := &Player{
		sink:     sink,
		clock:    wallClock{},
		inbox:    make(chan func()),
		done:     make(chan struct{}),
		updates:  make(chan struct{}, 1),
		scale:    DefaultTempoScale,
		sounding: make(map[int]Note),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run owns the player until ctx is done. Other methods block until Run is
// started and fail with ErrClosed after it returns.
func (p *Player) Run(ctx context.Context) error {
	if !p.running.CompareAndSwap(false, true) {
		return ErrRunning
	}
	defer close(p.done)

	for {
		select {
		case <-ctx.Done():
			p.cancel()
			p.state = Stopped
			return ctx.Err()
		case f := <-p.inbox:
			f()
		}
	}
}

// Updates is signalled after state changes and note dispatches. Signals are
// coalesced.
func (p *Player) Updates() <-chan struct{} {
	return p.updates
}

func (p *Player) do(f func()) error {
	finished := make(chan struct{})
	select {
	case p.inbox <- func() { f(); close(finished) }:
	case <-p.done:
		return ErrClosed
	}
	select {
	case <-finished:
		return nil
	case <-p.done:
		return ErrClosed
	}
}

func (p *Player) call(f func() error) error {
	var err error
	if e := p.do(func() { err = f() }); e != nil {
		return e
	}
	return err
}

// post is used by timers, which must not block once the loop has gone.
func (p *Player) post(f func()) {
	select {
	case p.inbox <- f:
	case <-p.done:
	}
}

func (p *Player) notify() {
	select {
	case p.updates <- struct{}{}:
	default:
	}
}

// Load stops playback and replaces the file.
func (p *Player) Load(f *smf.File) error {
	if f == nil {
		return ErrNoFile
	}
	spans := buildSpans(f)
	duration := f.Duration()
	return p.do(func() {
		p.cancel()
		p.spans = spans
		p.duration = duration
		p.loaded = true
		p.state = Stopped
		p.position = 0
		debug.Log("player", "loaded %d notes, %.3fs", len(spans), duration)
		p.notify()
	})
}

// Play starts or resumes from the stored position. It does nothing while
// already playing.
func (p *Player) Play() error {
	return p.call(func() error {
		if !p.loaded {
			return ErrNoFile
		}
		if p.state != Playing {
			p.play(p.position)
		}
		return nil
	})
}

// PlayFrom starts a new session at offset seconds with the given tempo scale
// percentage. Notes starting before offset are not played.
func (p *Player) PlayFrom(offset, tempoScale float64) error {
	return p.call(func() error {
		if !p.loaded {
			return ErrNoFile
		}
		if math.IsNaN(offset) || math.IsInf(offset, 0) {
			return ErrOffset
		}
		if !(tempoScale > 0) || math.IsInf(tempoScale, 0) {
			return ErrTempoScale
		}
		p.scale = clampScale(tempoScale)
		p.play(offset)
		return nil
	})
}

// Pause cancels pending notes and keeps the position.
func (p *Player) Pause() error {
	return p.do(func() {
		if p.state != Playing {
			return
		}
		pos := p.elapsed()
		p.cancel()
		p.position = pos
		p.state = Paused
		debug.Log("player", "paused at %.3fs", pos)
		p.notify()
	})
}

// Stop cancels pending notes and rewinds to the start.
func (p *Player) Stop() error {
	return p.do(p.stop)
}

// Seek moves to seconds. A playing player restarts from there, otherwise the
// position is stored for the next Play.
func (p *Player) Seek(seconds float64) error {
	return p.call(func() error {
		if !p.loaded {
			return ErrNoFile
		}
		if math.IsNaN(seconds) {
			return ErrOffset
		}
		seconds = math.Max(0, math.Min(seconds, p.duration))
		p.restart(func() float64 { return seconds })
		return nil
	})
}

// SetTempoScale changes the playback speed percentage, clamped to
// MinTempoScale..MaxTempoScale, keeping the current position.
func (p *Player) SetTempoScale(percent float64) error {
	return p.call(func() error {
		if !(percent > 0) || math.IsInf(percent, 0) {
			return ErrTempoScale
		}
		p.restart(func() float64 {
			p.scale = clampScale(percent)
			return p.position
		})
		return nil
	})
}

func (p *Player) Status() (Status, error) {
	var s Status
	err := p.do(func() {
		s = Status{
			State:      p.state,
			Loaded:     p.loaded,
			Position:   math.Min(p.elapsed(), p.duration),
			Duration:   p.duration,
			TempoScale: p.scale,
			Generation: p.gen,
			SinkErrors: p.sinkErrors,
		}
		for _, id := range p.soundingIDs() {
			s.Sounding = append(s.Sounding, p.sounding[id])
		}
	})
	return s, err
}

// restart captures the state and position, cancels the session, applies
// change and resumes: playing again from the position change returns, or
// staying paused or stopped there.
func (p *Player) restart(change func() float64) {
	was := p.state
	p.position = p.elapsed()
	p.cancel()
	pos := change()
	if was == Playing {
		p.play(pos)
		return
	}
	p.position = pos
	p.state = was
	p.notify()
}

func (p *Player) play(offset float64) {
	p.cancel()
	offset = math.Max(0, offset)
	p.offset = offset
	p.position = offset
	p.ratio = p.scale / 100
	p.t0 = p.clock.Now()
	p.next = firstFrom(p.spans, offset)
	p.state = Playing
	debug.Log("player", "play gen=%d from %.3fs at %.0f%%, %d notes ahead", p.gen, offset, p.scale, len(p.spans)-p.next)
	p.arm()
	p.armTicker()
	p.notify()
}

func (p *Player) stop() {
	p.cancel()
	p.state = Stopped
	p.position = 0
	p.notify()
}

// cancel ends the current session: pending timers become stale and every
// note still sounding gets its NoteEnd.
func (p *Player) cancel() {
	p.gen++
	if p.timer != nil {
		p.timer.Stop()
		p.timer = nil
	}
	if p.ticker != nil {
		p.ticker.Stop()
		p.ticker = nil
	}
	for _, id := range p.soundingIDs() {
		p.endNote(id)
	}
	p.ends = p.ends[:0]
	p.next = len(p.spans)
}

// elapsed is the song position in seconds.
func (p *Player) elapsed() float64 {
	if p.state != Playing {
		return p.position
	}
	return p.offset + p.clock.Now().Sub(p.t0).Seconds()*p.ratio
}

// due converts a song time to real time since the session started.
func (p *Player) due(t float64) time.Duration {
	return time.Duration((t - p.offset) / p.ratio * float64(time.Second))
}

func (p *Player) nextDue() (time.Duration, bool) {
	var (
		due time.Duration
		ok  bool
	)
	if p.next < len(p.spans) {
		due, ok = p.due(p.spans[p.next].start), true
	}
	if len(p.ends) > 0 && (!ok || p.ends[0].due <= due) {
		due, ok = p.ends[0].due, true
	}
	return due, ok
}

func (p *Player) arm() {
	due, ok := p.nextDue()
	if !ok {
		return
	}
	wait := max(due-p.clock.Now().Sub(p.t0), 0)
	gen := p.gen
	p.timer = p.clock.AfterFunc(wait, func() {
		p.post(func() { p.dispatch(gen) })
	})
}

func (p *Player) armTicker() {
	gen := p.gen
	p.ticker = p.clock.AfterFunc(tickInterval, func() {
		p.post(func() { p.tick(gen) })
	})
}

// dispatch delivers every note start and end that is due, ends first when
// they fall on the same instant.
func (p *Player) dispatch(gen uint64) {
	if gen != p.gen || p.state != Playing {
		return
	}
	p.timer = nil
	now := p.clock.Now().Sub(p.t0)
	for {
		startDue := time.Duration(math.MaxInt64)
		if p.next < len(p.spans) {
			startDue = p.due(p.spans[p.next].start)
		}
		switch {
		case len(p.ends) > 0 && p.ends[0].due <= now && p.ends[0].due <= startDue:
			p.endNote(p.ends.pop().id)
		case startDue <= now:
			p.startNote(p.spans[p.next])
			p.next++
		default:
			p.arm()
			p.notify()
			return
		}
	}
}

func (p *Player) tick(gen uint64) {
	if gen != p.gen || p.state != Playing {
		return
	}
	p.ticker = nil
	if pos := p.elapsed(); pos >= p.duration {
		debug.Log("player", "reached end at %.3fs", pos)
		p.stop()
		return
	}
	p.armTicker()
	p.notify()
}

func (p *Player) startNote(s span) {
	start, end := p.due(s.start), p.due(s.end)
	n := Note{
		Track:    s.track,
		Channel:  s.channel,
		Key:      s.key,
		Velocity: s.velocity,
		Start:    s.start,
		Duration: end - start,
	}
	id := p.nextID
	p.nextID++
	p.sounding[id] = n
	p.ends.push(pendingEnd{due: end, id: id})
	p.deliver("start", n, p.sink.NoteStart)
}

func (p *Player) endNote(id int) {
	n, ok := p.sounding[id]
	if !ok {
		return
	}
	delete(p.sounding, id)
	p.deliver("end", n, p.sink.NoteEnd)
}

// deliver hands one note to the sink. A failure is logged and counted and
// does not affect other notes.
func (p *Player) deliver(what string, n Note, f func(Note) error) {
	defer func() {
		if r := recover(); r != nil {
			p.sinkErrors++
			debug.Log("player", "note %s panicked: %v (%v)", what, r, n)
		}
	}()
	if err := f(n); err != nil {
		p.sinkErrors++
		debug.Log("player", "note %s: %v (%v)", what, err, n)
	}
}

func (p *Player) soundingIDs() []int {
	ids := make([]int, 0, len(p.sounding))
	for id := range p.sounding {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

func clampScale(percent float64) float64 {
	return math.Max(MinTempoScale, math.Min(percent, MaxTempoScale))
}
