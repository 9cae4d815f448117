package layout

import (
	"math"

	"github.com/kahojyun/pulsegen/pkg/schedule"
)

// Absolute children are measured without a budget: their position is explicit,
// so the container never reports an overflow on their behalf.
func (l *Layout) measureAbsolute(id NodeID, a *schedule.Absolute) (float64, error) {
	var end float64
	for i, c := range l.nodes[id].children {
		d, err := l.measure(c, math.Inf(1))
		if err != nil {
			return 0, err
		}
		end = math.Max(end, a.Entries[i].Time+d)
	}
	return end, nil
}

func (l *Layout) arrangeAbsolute(id NodeID, a *schedule.Absolute) error {
	for i, c := range l.nodes[id].children {
		if err := l.arrange(c, a.Entries[i].Time, l.nodes[c].desired); err != nil {
			return err
		}
	}
	return nil
}
