package layout

import (
	"math"

	"github.com/kahojyun/pulsegen/pkg/schedule"
)

// repeatShare returns the slot each copy gets out of total.
func repeatShare(r *schedule.Repeat, total float64) float64 {
	n := float64(r.Count)
	return math.Max((total-r.Spacing*(n-1))/n, 0)
}

func (l *Layout) measureRepeat(id NodeID, r *schedule.Repeat, content float64) (float64, error) {
	child := l.nodes[id].children[0]
	d, err := l.measure(child, repeatShare(r, content))
	if err != nil {
		return 0, err
	}
	n := float64(r.Count)
	return d*n + r.Spacing*(n-1), nil
}

func (l *Layout) arrangeRepeat(id NodeID, r *schedule.Repeat, content float64) error {
	child := l.nodes[id].children[0]
	return l.arrange(child, 0, repeatShare(r, content))
}

// Period returns the distance between consecutive copies of a Repeat node's
// child: the child's slot plus the spacing. It returns 0 for other nodes.
func (l *Layout) Period(id NodeID) float64 {
	r, ok := l.nodes[id].elem.(*schedule.Repeat)
	if !ok || len(l.nodes[id].children) == 0 {
		return 0
	}
	return l.nodes[l.nodes[id].children[0]].slot + r.Spacing
}
