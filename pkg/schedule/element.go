package schedule

import "strconv"

// Element is a node of the schedule tree. The set of implementations is closed:
// the atomic instructions, [Barrier], [Repeat] and the three containers.
type Element interface {
	// Attrs returns the layout attributes shared by all elements.
	Attrs() Common
	element()
}

// ShapeID references an envelope shape in the request's shape table.
// The core never interprets it beyond passing it through.
type ShapeID int

// ShapeRect is the rectangular (flat) envelope.
const ShapeRect ShapeID = -1

// Play emits one pulse on a channel. Its natural duration is Width + Plateau.
type Play struct {
	Common
	Channel   int
	Amplitude float64
	Shape     ShapeID
	Width     float64 // envelope rise+fall time
	Plateau   float64 // flat top inserted in the middle of the envelope
	DragCoef  float64
	Frequency float64 // pulse-local frequency offset f_p, Hz
	Phase     float64 // pulse-local phase offset, cycles

	// Flexible plays report only Width during Measure and stretch their plateau
	// over whatever duration Arrange hands them.
	Flexible bool
}

// ShiftPhase adds Phase (cycles) to the channel's reference phase.
type ShiftPhase struct {
	Common
	Channel int
	Phase   float64
}

// SetPhase sets the channel's phase at the instruction time to Phase (cycles).
type SetPhase struct {
	Common
	Channel int
	Phase   float64
}

// ShiftFrequency adds Frequency (Hz) to the channel's frequency offset,
// keeping the carrier phase continuous.
type ShiftFrequency struct {
	Common
	Channel   int
	Frequency float64
}

// SetFrequency sets the channel's frequency offset to Frequency (Hz),
// keeping the carrier phase continuous.
type SetFrequency struct {
	Common
	Channel   int
	Frequency float64
}

// SwapPhase exchanges the instantaneous carrier phases of two channels.
type SwapPhase struct {
	Common
	Channel1 int
	Channel2 int
}

// Barrier aligns the listed channel lanes of the enclosing Stack. An empty
// list aligns every lane of the Stack.
type Barrier struct {
	Common
	Channels []int
}

// Repeat lays out Child Count times with Spacing seconds between copies.
type Repeat struct {
	Common
	Child   Element
	Count   int
	Spacing float64
}

// Stack packs its children one after another on each channel lane.
type Stack struct {
	Common
	Children  []Element
	Direction Direction
}

// AbsoluteEntry is a child of an [Absolute] container.
type AbsoluteEntry struct {
	Time    float64 // offset of the child's slot from the container's content start
	Element Element
}

// Absolute places each child at an explicit offset.
type Absolute struct {
	Common
	Entries []AbsoluteEntry
}

// GridEntry is a child of a [Grid] container.
type GridEntry struct {
	Column  int
	Span    int // number of columns covered; values < 1 are treated as 1
	Element Element
}

// Grid places children in columns. With no Columns the grid has a single
// 1* column.
type Grid struct {
	Common
	Columns []GridLength
	Entries []GridEntry
}

func (*Play) element()           {}
func (*ShiftPhase) element()     {}
func (*SetPhase) element()       {}
func (*ShiftFrequency) element() {}
func (*SetFrequency) element()   {}
func (*SwapPhase) element()      {}
func (*Barrier) element()        {}
func (*Repeat) element()         {}
func (*Stack) element()          {}
func (*Absolute) element()       {}
func (*Grid) element()           {}

// Kind returns a short lower-case name of the element's variant.
func Kind(e Element) string {
	switch e.(type) {
	case *Play:
		return "play"
	case *ShiftPhase:
		return "shift_phase"
	case *SetPhase:
		return "set_phase"
	case *ShiftFrequency:
		return "shift_frequency"
	case *SetFrequency:
		return "set_frequency"
	case *SwapPhase:
		return "swap_phase"
	case *Barrier:
		return "barrier"
	case *Repeat:
		return "repeat"
	case *Stack:
		return "stack"
	case *Absolute:
		return "absolute"
	case *Grid:
		return "grid"
	}
	return "unknown"
}

// Children returns the direct children of e in insertion order.
// Leaves return nil.
func Children(e Element) []Element {
	switch v := e.(type) {
	case *Repeat:
		if v.Child == nil {
			return nil
		}
		return []Element{v.Child}
	case *Stack:
		return v.Children
	case *Absolute:
		out := make([]Element, len(v.Entries))
		for i, ent := range v.Entries {
			out[i] = ent.Element
		}
		return out
	case *Grid:
		out := make([]Element, len(v.Entries))
		for i, ent := range v.Entries {
			out[i] = ent.Element
		}
		return out
	}
	return nil
}

// OwnChannels returns the channels an atomic element acts on. Containers and
// Repeat return nil; their channel set is the union of their children's.
func OwnChannels(e Element) []int {
	switch v := e.(type) {
	case *Play:
		return []int{v.Channel}
	case *ShiftPhase:
		return []int{v.Channel}
	case *SetPhase:
		return []int{v.Channel}
	case *ShiftFrequency:
		return []int{v.Channel}
	case *SetFrequency:
		return []int{v.Channel}
	case *SwapPhase:
		return []int{v.Channel1, v.Channel2}
	case *Barrier:
		return v.Channels
	}
	return nil
}

// Walk visits e and its descendants depth-first in insertion order. The path
// names each node by its position, e.g. "stack/grid[1]/play[0]". Returning
// false from fn skips the node's children.
func Walk(e Element, fn func(e Element, path string) bool) {
	walk(e, Kind(e), fn)
}

func walk(e Element, path string, fn func(Element, string) bool) {
	if !fn(e, path) {
		return
	}
	for i, c := range Children(e) {
		if c == nil {
			continue
		}
		walk(c, ChildPath(path, c, i), fn)
	}
}

// ChildPath returns the path of the i-th child c under parent path.
func ChildPath(parent string, c Element, i int) string {
	return parent + "/" + Kind(c) + "[" + strconv.Itoa(i) + "]"
}
