package layout

import (
	"math"
	"slices"

	"github.com/kahojyun/pulsegen/pkg/schedule"
)

// gridColumns returns the grid's columns, defaulting to a single 1* column.
func gridColumns(g *schedule.Grid) []schedule.GridLength {
	if len(g.Columns) == 0 {
		return []schedule.GridLength{schedule.Star(1)}
	}
	return g.Columns
}

// cell clamps an entry's column and span to the grid.
func cell(ent schedule.GridEntry, ncol int) (col, span int) {
	col = min(max(ent.Column, 0), ncol-1)
	span = min(max(ent.Span, 1), ncol-col)
	return col, span
}

func sum(xs []float64) float64 {
	var s float64
	for _, x := range xs {
		s += x
	}
	return s
}

// Grid children are probed without a budget. Fixed columns keep their width,
// Auto and Star columns grow to their widest single-column child, and then a
// spanning child that still does not fit widens the Star columns it covers,
// or failing that its Auto columns, evenly.
func (l *Layout) measureGrid(id NodeID, g *schedule.Grid) (float64, error) {
	cols := gridColumns(g)
	widths := make([]float64, len(cols))
	for i, c := range cols {
		if c.IsFixed() {
			widths[i] = c.Value
		}
	}

	children := l.nodes[id].children
	desired := make([]float64, len(children))
	for i, c := range children {
		d, err := l.measure(c, math.Inf(1))
		if err != nil {
			return 0, err
		}
		desired[i] = d
		col, span := cell(g.Entries[i], len(cols))
		if span == 1 && !cols[col].IsFixed() {
			widths[col] = math.Max(widths[col], d)
		}
	}

	for i, ent := range g.Entries {
		col, span := cell(ent, len(cols))
		if span == 1 {
			continue
		}
		have := sum(widths[col : col+span])
		if !exceeds(desired[i], have) {
			continue
		}
		var stars, autos []int
		for j := col; j < col+span; j++ {
			switch {
			case cols[j].IsStar():
				stars = append(stars, j)
			case cols[j].IsAuto():
				autos = append(autos, j)
			}
		}
		switch {
		case len(stars) > 0:
			var starWidth float64
			for _, j := range stars {
				starWidth += widths[j]
			}
			fillStars(widths, cols, stars, starWidth+desired[i]-have)
		case len(autos) > 0:
			grow := (desired[i] - have) / float64(len(autos))
			for _, j := range autos {
				widths[j] += grow
			}
		}
	}

	l.nodes[id].colMin = widths
	return sum(widths), nil
}

func (l *Layout) arrangeGrid(id NodeID, g *schedule.Grid, content float64) error {
	n := &l.nodes[id]
	cols := gridColumns(g)
	widths := slices.Clone(n.colMin)
	minTotal := sum(widths)
	if exceeds(minTotal, content) {
		return &OverflowError{Pass: PassArrange, Path: n.path, Required: minTotal, Allocated: content}
	}

	var stars []int
	var starWidth float64
	for j, c := range cols {
		if c.IsStar() {
			stars = append(stars, j)
			starWidth += widths[j]
		}
	}
	if len(stars) > 0 {
		fillStars(widths, cols, stars, starWidth+content-minTotal)
	}

	columns := make([]Column, len(cols))
	var t float64
	for j, w := range widths {
		columns[j] = Column{Start: t, Width: w}
		t += w
	}
	n.columns = columns

	for i, c := range n.children {
		col, span := cell(g.Entries[i], len(cols))
		spanWidth := columns[col+span-1].Start + columns[col+span-1].Width - columns[col].Start
		child := &l.nodes[c]
		if exceeds(child.desired, spanWidth) {
			return &OverflowError{Pass: PassArrange, Path: child.path, Required: child.desired, Allocated: spanWidth}
		}
		slot := math.Min(child.desired, spanWidth)
		align := child.elem.Attrs().Alignment
		if align == schedule.AlignStretch {
			slot = spanWidth
		}
		offset := columns[col].Start
		switch align {
		case schedule.AlignEnd:
			offset += spanWidth - slot
		case schedule.AlignCenter:
			offset += (spanWidth - slot) / 2
		}
		if err := l.arrange(c, offset, slot); err != nil {
			return err
		}
	}
	return nil
}

// fillStars widens the star columns in idx so that their widths add up to
// target. Columns are raised to a common width/weight ratio, water-filling
// style: a column already wider than its proportional share keeps its width
// and the others split what remains by weight. Widths never shrink.
func fillStars(widths []float64, cols []schedule.GridLength, idx []int, target float64) {
	var current float64
	for _, j := range idx {
		current += widths[j]
	}
	if target <= current || math.IsInf(target, 1) {
		return
	}

	order := slices.Clone(idx)
	slices.SortStableFunc(order, func(a, b int) int {
		ra, rb := widths[a]/cols[a].Value, widths[b]/cols[b].Value
		switch {
		case ra < rb:
			return -1
		case ra > rb:
			return 1
		}
		return 0
	})

	rest := current // width of the columns not yet raised
	var weight float64
	for k, j := range order {
		weight += cols[j].Value
		rest -= widths[j]
		ratio := (target - rest) / weight
		next := math.Inf(1)
		if k+1 < len(order) {
			nj := order[k+1]
			next = widths[nj] / cols[nj].Value
		}
		if ratio <= next {
			for _, r := range order[:k+1] {
				widths[r] = ratio * cols[r].Value
			}
			return
		}
	}
}
