package smf

import "sort"

// TicksToSeconds converts an absolute tick to seconds. Tempo changes before
// tick are applied in order, starting from DefaultTempo; tm must be sorted.
func TicksToSeconds(tick uint64, ticksPerBeat int, tm TempoMap) float64 {
	if ticksPerBeat <= 0 {
		return 0
	}
	tpb := float64(ticksPerBeat)

	var (
		seconds float64
		last    uint64
		tempo   float64 = DefaultTempo
	)
	for _, tc := range tm {
		if tc.Tick >= tick {
			break
		}
		seconds += float64(tc.Tick-last) / tpb * tempo / 1e6
		last = tc.Tick
		tempo = float64(tc.MicrosecondsPerBeat)
	}
	return seconds + float64(tick-last)/tpb*tempo/1e6
}

// Timeline gives the same results as TicksToSeconds but looks up the tempo
// segment by binary search over precomputed segment start times.
type Timeline struct {
	tpb     float64
	ticks   []uint64  // segment start ticks, ticks[0] == 0
	tempos  []float64 // microseconds per beat in the segment
	seconds []float64 // time at segment start
}

func NewTimeline(ticksPerBeat int, tm TempoMap) *Timeline {
	t := &Timeline{
		tpb:     float64(ticksPerBeat),
		ticks:   []uint64{0},
		tempos:  []float64{DefaultTempo},
		seconds: []float64{0},
	}
	for _, tc := range tm {
		n := len(t.ticks) - 1
		if tc.Tick == t.ticks[n] {
			t.tempos[n] = float64(tc.MicrosecondsPerBeat)
			continue
		}
		t.ticks = append(t.ticks, tc.Tick)
		t.seconds = append(t.seconds, t.at(n, tc.Tick))
		t.tempos = append(t.tempos, float64(tc.MicrosecondsPerBeat))
	}
	return t
}

func (t *Timeline) at(seg int, tick uint64) float64 {
	return t.seconds[seg] + float64(tick-t.ticks[seg])/t.tpb*t.tempos[seg]/1e6
}

// Seconds converts an absolute tick to seconds.
func (t *Timeline) Seconds(tick uint64) float64 {
	if t.tpb <= 0 {
		return 0
	}
	seg := sort.Search(len(t.ticks), func(i int) bool { return t.ticks[i] >= tick }) - 1
	if seg < 0 {
		seg = 0
	}
	return t.at(seg, tick)
}
