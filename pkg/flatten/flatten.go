// Package flatten turns an arranged layout into a linear instruction list.
//
// Flatten walks the tree depth-first in insertion order and emits one [Item]
// per visible atomic instruction, stamped with its absolute start time. The
// list is deliberately not sorted by time: two instructions on the same
// channel at the same instant keep their insertion order, which is what the
// phase tracker relies on.
//
// Repeat nodes expand into Count copies of their child's instructions, copy i
// shifted by i times the repeat period. Inside nested repeats an item's Copy
// counts outer-major, so an inner copy j of outer copy i with an inner count
// n is copy i*n+j. Containers, Barriers and Hidden subtrees emit nothing.
package flatten

import (
	"github.com/kahojyun/pulsegen/pkg/layout"
	"github.com/kahojyun/pulsegen/pkg/schedule"
)

// Item is one atomic instruction with its resolved absolute time.
type Item struct {
	Time     float64          // absolute content start, seconds
	Duration float64          // pulse length of a Play (stretched plateau for flexible plays), 0 otherwise
	Element  schedule.Element // the instruction; never a container or Barrier
	Node     layout.NodeID    // node the item was produced from
	Copy     int              // flattened repeat copy index, outer-major; 0 outside repeats
}

// Flatten emits the instructions of an arranged layout in insertion order.
// It panics if l has not been arranged.
func Flatten(l *layout.Layout) []Item {
	if !l.Arranged() {
		panic("flatten: layout has not been arranged")
	}
	var items []Item
	walk(l, l.Root(), 0, 0, &items)
	return items
}

func walk(l *layout.Layout, id layout.NodeID, base float64, copyIndex int, items *[]Item) {
	e := l.Element(id)
	if e.Attrs().Hidden {
		return
	}
	t := base + l.Start(id)

	switch v := e.(type) {
	case *schedule.Barrier:
		return
	case *schedule.Repeat:
		period := l.Period(id)
		for _, c := range l.Children(id) {
			for i := range v.Count {
				walk(l, c, t+float64(i)*period, copyIndex*v.Count+i, items)
			}
		}
		return
	case *schedule.Stack, *schedule.Absolute, *schedule.Grid:
		for _, c := range l.Children(id) {
			walk(l, c, t, copyIndex, items)
		}
		return
	}

	*items = append(*items, Item{
		Time:     t,
		Duration: l.PulseLength(id),
		Element:  e,
		Node:     id,
		Copy:     copyIndex,
	})
}
