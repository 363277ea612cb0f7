package sequencer

import (
	"container/heap"
	"sort"
	"time"

	"midi-player/smf"
)

// span is a paired note in song seconds.
type span struct {
	track    int
	channel  uint8
	key      uint8
	velocity uint8
	start    float64
	end      float64
}

// buildSpans pairs the notes of every track and orders them by start time.
func buildSpans(f *smf.File) []span {
	tl := f.Timeline()
	var spans []span
	for ti, tr := range f.Tracks {
		for _, p := range tr.Pairs() {
			spans = append(spans, span{
				track:    ti,
				channel:  p.Channel,
				key:      p.Key,
				velocity: p.Velocity,
				start:    tl.Seconds(p.On),
				end:      tl.Seconds(p.Off),
			})
		}
	}
	sort.SliceStable(spans, func(i, j int) bool { return spans[i].start < spans[j].start })
	return spans
}

// firstFrom returns the index of the first span starting at or after offset.
func firstFrom(spans []span, offset float64) int {
	return sort.Search(len(spans), func(i int) bool { return spans[i].start >= offset })
}

// pendingEnd is a note that has started and waits for its end.
type pendingEnd struct {
	due time.Duration // since session start
	id  int
}

// endQueue is a min-heap of pending note ends ordered by due time, then by
// start order.
type endQueue []pendingEnd

func (q endQueue) Len() int { return len(q) }

func (q endQueue) Less(i, j int) bool {
	if q[i].due != q[j].due {
		return q[i].due < q[j].due
	}
	return q[i].id < q[j].id
}

func (q endQueue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }

func (q *endQueue) Push(x any) { *q = append(*q, x.(pendingEnd)) }

func (q *endQueue) Pop() any {
	old := *q
	n := len(old)
	x := old[n-1]
	*q = old[:n-1]
	return x
}

func (q *endQueue) push(e pendingEnd) { heap.Push(q, e) }

func (q *endQueue) pop() pendingEnd { return heap.Pop(q).(pendingEnd) }
