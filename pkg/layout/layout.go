package layout

import (
	"math"
	"slices"

	"github.com/kahojyun/pulsegen/pkg/schedule"
)

// NodeID identifies a node of a [Layout]. IDs are assigned in pre-order, so
// the root is always 0 and a parent's ID is smaller than its children's.
type NodeID int

// Options configures [Run].
type Options struct {
	// RootDuration fixes the total schedule duration. Zero lets the root take
	// its natural duration.
	RootDuration float64
}

// Column is the arranged position of one grid column, relative to the grid's
// content start.
type Column struct {
	Start float64
	Width float64
}

type node struct {
	elem     schedule.Element
	path     string
	parent   NodeID
	children []NodeID
	channels []int
	lo, hi   float64

	available float64 // Measure input
	natural   float64 // variant measure result before clamping
	desired   float64 // content + margins
	offset    float64 // slot start, relative to the parent's content start
	slot      float64 // Arrange input
	duration  float64 // arranged content duration, within the bounds
	pulse     float64 // emitted pulse length of a Play

	colMin  []float64 // grid column widths after Measure
	columns []Column  // grid columns after Arrange
}

// Layout is the per-compilation side table holding the Measure and Arrange
// results of every node of a schedule tree.
//
// A Layout is not safe for concurrent use; create one per compilation.
type Layout struct {
	nodes    []node
	measured bool
	arranged bool
}

// New registers every node of the tree rooted at root. The tree must have
// passed [schedule.Validate].
func New(root schedule.Element) *Layout {
	l := &Layout{}
	l.register(root, schedule.Kind(root), -1)
	return l
}

func (l *Layout) register(e schedule.Element, path string, parent NodeID) NodeID {
	id := NodeID(len(l.nodes))
	lo, hi := e.Attrs().Bounds()
	l.nodes = append(l.nodes, node{elem: e, path: path, parent: parent, lo: lo, hi: hi})

	kids := schedule.Children(e)
	children := make([]NodeID, 0, len(kids))
	channels := slices.Clone(schedule.OwnChannels(e))
	for i, c := range kids {
		cid := l.register(c, schedule.ChildPath(path, c, i), id)
		children = append(children, cid)
		channels = append(channels, l.nodes[cid].channels...)
	}
	slices.Sort(channels)
	l.nodes[id].children = children
	l.nodes[id].channels = slices.Compact(channels)
	return id
}

// Run lays out the tree rooted at root: it measures the root against
// opts.RootDuration (or an unbounded budget) and arranges it at time zero in
// either the fixed root duration or its desired duration.
func Run(root schedule.Element, opts Options) (*Layout, error) {
	l := New(root)
	available := math.Inf(1)
	if opts.RootDuration > 0 {
		available = opts.RootDuration
	}
	desired, err := l.Measure(available)
	if err != nil {
		return nil, err
	}
	final := desired
	if opts.RootDuration > 0 {
		final = opts.RootDuration
	}
	if err := l.Arrange(final); err != nil {
		return nil, err
	}
	return l, nil
}

// Measure runs the Measure pass from the root and returns the root's desired
// duration including its margins.
func (l *Layout) Measure(available float64) (float64, error) {
	d, err := l.measure(0, available)
	if err != nil {
		return 0, err
	}
	l.measured = true
	return d, nil
}

// Arrange runs the Arrange pass from the root, placing it at time zero in a
// slot of final seconds. Measure must have been called first.
func (l *Layout) Arrange(final float64) error {
	if !l.measured {
		panic("layout: Arrange called before Measure")
	}
	if err := l.arrange(0, 0, final); err != nil {
		return err
	}
	l.arranged = true
	return nil
}

func (l *Layout) measure(id NodeID, available float64) (float64, error) {
	n := &l.nodes[id]
	margin := n.elem.Attrs().Margin.Total()
	n.available = available
	if exceeds(n.lo+margin, available) {
		return 0, &OverflowError{Pass: PassMeasure, Path: n.path, Required: n.lo + margin, Allocated: available}
	}
	content := clamp(math.Max(available-margin, 0), n.lo, n.hi)

	var natural float64
	var err error
	switch e := n.elem.(type) {
	case *schedule.Stack:
		natural, err = l.measureStack(id, e, content)
	case *schedule.Absolute:
		natural, err = l.measureAbsolute(id, e)
	case *schedule.Grid:
		natural, err = l.measureGrid(id, e)
	case *schedule.Repeat:
		natural, err = l.measureRepeat(id, e, content)
	case *schedule.Play:
		natural = e.Width
		if !e.Flexible {
			natural += e.Plateau
		}
	}
	if err != nil {
		return 0, err
	}

	n.natural = natural
	n.desired = clamp(natural, n.lo, n.hi) + margin
	return n.desired, nil
}

func (l *Layout) arrange(id NodeID, offset, final float64) error {
	n := &l.nodes[id]
	if exceeds(n.desired, final) {
		return &OverflowError{Pass: PassArrange, Path: n.path, Required: n.desired, Allocated: final}
	}
	margin := n.elem.Attrs().Margin
	n.offset = offset
	n.slot = final
	content := clamp(math.Max(final-margin.Total(), 0), n.lo, n.hi)

	pulse := 0.0
	var err error
	switch e := n.elem.(type) {
	case *schedule.Stack:
		err = l.arrangeStack(id, e, content)
	case *schedule.Absolute:
		err = l.arrangeAbsolute(id, e)
	case *schedule.Grid:
		err = l.arrangeGrid(id, e, content)
	case *schedule.Repeat:
		err = l.arrangeRepeat(id, e, content)
	case *schedule.Play:
		pulse = e.Width + e.Plateau
		if e.Flexible {
			pulse = content
		}
	}
	if err != nil {
		return err
	}
	l.nodes[id].duration = content
	l.nodes[id].pulse = pulse
	return nil
}

// Root returns the root node's ID.
func (l *Layout) Root() NodeID { return 0 }

// Len returns the number of nodes.
func (l *Layout) Len() int { return len(l.nodes) }

// Arranged reports whether both passes completed successfully.
func (l *Layout) Arranged() bool { return l.arranged }

// Element returns the schedule element of node id.
func (l *Layout) Element(id NodeID) schedule.Element { return l.nodes[id].elem }

// Path returns the positional path of node id, e.g. "stack/play[1]".
func (l *Layout) Path(id NodeID) string { return l.nodes[id].path }

// Parent returns the parent of node id, or -1 for the root.
func (l *Layout) Parent(id NodeID) NodeID { return l.nodes[id].parent }

// Children returns the children of node id in insertion order.
func (l *Layout) Children(id NodeID) []NodeID { return l.nodes[id].children }

// Channels returns the sorted set of channels the subtree of node id acts on.
func (l *Layout) Channels(id NodeID) []int { return l.nodes[id].channels }

// Available returns the budget node id was measured against.
func (l *Layout) Available(id NodeID) float64 { return l.nodes[id].available }

// Desired returns the Measure result of node id, margins included.
func (l *Layout) Desired(id NodeID) float64 { return l.nodes[id].desired }

// Slot returns the duration allocated to node id by its parent, margins included.
func (l *Layout) Slot(id NodeID) float64 { return l.nodes[id].slot }

// Offset returns where the slot of node id starts, relative to the content
// start of its parent.
func (l *Layout) Offset(id NodeID) float64 { return l.nodes[id].offset }

// Start returns where the content of node id starts, relative to the content
// start of its parent: the slot offset plus the before-margin.
func (l *Layout) Start(id NodeID) float64 {
	n := &l.nodes[id]
	return n.offset + n.elem.Attrs().Margin.Before
}

// AbsoluteStart returns the content start of node id measured from the start
// of the schedule. Nodes under a Repeat report their first copy.
func (l *Layout) AbsoluteStart(id NodeID) float64 {
	t := l.Start(id)
	for id != l.Root() {
		id = l.nodes[id].parent
		t += l.Start(id)
	}
	return t
}

// Duration returns the arranged content duration of node id: its slot minus
// margins, clamped to the element's duration bounds.
func (l *Layout) Duration(id NodeID) float64 { return l.nodes[id].duration }

// PulseLength returns the length of the pulse a Play node emits: width plus
// plateau, or the whole content duration for a flexible Play. It is zero for
// every other node.
func (l *Layout) PulseLength(id NodeID) float64 { return l.nodes[id].pulse }

// Columns returns the arranged columns of a Grid node, or nil for other nodes.
func (l *Layout) Columns(id NodeID) []Column { return l.nodes[id].columns }
