package layout

import (
	"math"

	"github.com/kahojyun/pulsegen/pkg/schedule"
)

// lanes tracks how much of a Stack is already used on each channel.
// A Stack without channels has a single anonymous lane.
type lanes struct {
	index map[int]int
	used  []float64
}

func newLanes(channels []int) *lanes {
	ln := &lanes{index: make(map[int]int, len(channels))}
	for i, ch := range channels {
		ln.index[ch] = i
	}
	ln.used = make([]float64, max(len(channels), 1))
	return ln
}

// at returns the time at which every lane in chs is free. An empty set
// means every lane.
func (ln *lanes) at(chs []int) float64 {
	if len(chs) == 0 {
		return ln.total()
	}
	var t float64
	for _, ch := range chs {
		t = math.Max(t, ln.used[ln.index[ch]])
	}
	return t
}

// advance marks the lanes in chs (every lane when empty) as used until t.
func (ln *lanes) advance(chs []int, t float64) {
	if len(chs) == 0 {
		for i := range ln.used {
			ln.used[i] = t
		}
		return
	}
	for _, ch := range chs {
		ln.used[ln.index[ch]] = t
	}
}

func (ln *lanes) total() float64 {
	var t float64
	for _, u := range ln.used {
		t = math.Max(t, u)
	}
	return t
}

// stackOrder returns the children in the order the Stack packs them: reversed for
// Backwards stacks, which fill from the end.
func stackOrder(children []NodeID, dir schedule.Direction) []NodeID {
	if dir == schedule.Forwards {
		return children
	}
	out := make([]NodeID, len(children))
	for i, c := range children {
		out[len(children)-1-i] = c
	}
	return out
}

func (l *Layout) measureStack(id NodeID, s *schedule.Stack, content float64) (float64, error) {
	n := &l.nodes[id]
	ln := newLanes(n.channels)
	for _, c := range stackOrder(n.children, s.Direction) {
		d, err := l.measure(c, content)
		if err != nil {
			return 0, err
		}
		chs := l.nodes[c].channels
		ln.advance(chs, ln.at(chs)+d)
	}
	return ln.total(), nil
}

func (l *Layout) arrangeStack(id NodeID, s *schedule.Stack, content float64) error {
	n := &l.nodes[id]
	ln := newLanes(n.channels)
	for _, c := range stackOrder(n.children, s.Direction) {
		chs := l.nodes[c].channels
		d := l.nodes[c].desired
		used := ln.at(chs)
		if exceeds(used+d, content) {
			return &OverflowError{Pass: PassArrange, Path: n.path, Required: n.natural, Allocated: content}
		}
		t := used
		if s.Direction == schedule.Backwards {
			t = content - used - d
		}
		if err := l.arrange(c, t, d); err != nil {
			return err
		}
		ln.advance(chs, used+d)
	}
	return nil
}
