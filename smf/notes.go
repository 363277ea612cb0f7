package smf

import "sort"

// Pair is a note start matched with the note end that closes it.
type Pair struct {
	Channel  uint8
	Key      uint8
	Velocity uint8
	On       uint64
	Off      uint64
}

// Pairs matches NoteOn and NoteOff events by key and channel. Only one note
// per key and channel can be pending: a second NoteOn before the NoteOff
// replaces the first, whose span is lost. Notes never closed are dropped.
// The result is ordered by start tick.
func (t Track) Pairs() []Pair {
	type slot struct{ ch, key uint8 }
	pending := make(map[slot]NoteOn)

	var pairs []Pair
	for _, ev := range t.Events {
		switch e := ev.(type) {
		case NoteOn:
			pending[slot{e.Channel, e.Key}] = e
		case NoteOff:
			k := slot{e.Channel, e.Key}
			on, ok := pending[k]
			if !ok {
				continue
			}
			delete(pending, k)
			pairs = append(pairs, Pair{
				Channel:  on.Channel,
				Key:      on.Key,
				Velocity: on.Velocity,
				On:       on.Tick(),
				Off:      e.Tick(),
			})
		}
	}
	sort.SliceStable(pairs, func(i, j int) bool { return pairs[i].On < pairs[j].On })
	return pairs
}
