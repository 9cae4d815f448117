package layout

import (
	"math"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/kahojyun/pulsegen/pkg/errors"
	"github.com/kahojyun/pulsegen/pkg/schedule"
)

const ns = 1e-9

var approx = cmpopts.EquateApprox(1e-9, 1e-21)

func near(a, b float64) bool { return cmp.Equal(a, b, approx) }

func run(t *testing.T, root schedule.Element, opts Options) *Layout {
	t.Helper()
	if err := schedule.Validate(root, -1); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	l, err := Run(root, opts)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	return l
}

// starts returns the content start of each child of id.
func starts(l *Layout, id NodeID) []float64 {
	var out []float64
	for _, c := range l.Children(id) {
		out = append(out, l.Start(c))
	}
	return out
}

func TestStackBackwardsMargins(t *testing.T) {
	root := &schedule.Stack{Children: []schedule.Element{
		&schedule.Play{Common: schedule.Common{Margin: schedule.Margin{After: 0.1 * ns}}, Width: 30 * ns},
		&schedule.Play{Common: schedule.Common{Margin: schedule.Margin{Before: 0.2 * ns}}, Width: 50 * ns},
	}}
	l := run(t, root, Options{})

	if got := l.Duration(l.Root()); !near(got, 80.3*ns) {
		t.Errorf("total = %g, want %g", got, 80.3*ns)
	}
	if diff := cmp.Diff([]float64{0, 30.3 * ns}, starts(l, l.Root()), approx); diff != "" {
		t.Errorf("starts mismatch (-want +got):\n%s", diff)
	}

	// The gap between the first play's end and the second play's start is
	// exactly the sum of the facing margins.
	kids := l.Children(l.Root())
	gap := l.Start(kids[1]) - (l.Start(kids[0]) + l.Duration(kids[0]))
	if !near(gap, 0.3*ns) {
		t.Errorf("gap = %g, want %g", gap, 0.3*ns)
	}
}

func TestStackDirections(t *testing.T) {
	children := func() []schedule.Element {
		return []schedule.Element{
			&schedule.Play{Width: 10 * ns},
			&schedule.Play{Width: 20 * ns},
		}
	}
	tests := []struct {
		name string
		dir  schedule.Direction
		want []float64
	}{
		{"backwards leaves slack at start", schedule.Backwards, []float64{70 * ns, 80 * ns}},
		{"forwards leaves slack at end", schedule.Forwards, []float64{0, 10 * ns}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := &schedule.Stack{
				Common:    schedule.Common{Duration: schedule.Seconds(100 * ns)},
				Children:  children(),
				Direction: tt.dir,
			}
			l := run(t, root, Options{})
			if diff := cmp.Diff(tt.want, starts(l, l.Root()), approx); diff != "" {
				t.Errorf("starts mismatch (-want +got):\n%s", diff)
			}
			if got := l.Duration(l.Root()); !near(got, 100*ns) {
				t.Errorf("duration = %g, want %g", got, 100*ns)
			}
		})
	}
}

func TestStackLanes(t *testing.T) {
	t.Run("independent channels run in parallel", func(t *testing.T) {
		root := &schedule.Stack{Direction: schedule.Forwards, Children: []schedule.Element{
			&schedule.Play{Channel: 0, Width: 30 * ns},
			&schedule.Play{Channel: 1, Width: 50 * ns},
		}}
		l := run(t, root, Options{})
		if got := l.Desired(l.Root()); !near(got, 50*ns) {
			t.Errorf("desired = %g, want %g", got, 50*ns)
		}
		if diff := cmp.Diff([]float64{0, 0}, starts(l, l.Root()), approx); diff != "" {
			t.Errorf("starts mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("barrier aligns all lanes", func(t *testing.T) {
		root := &schedule.Stack{Direction: schedule.Forwards, Children: []schedule.Element{
			&schedule.Play{Channel: 0, Width: 30 * ns},
			&schedule.Play{Channel: 1, Width: 10 * ns},
			&schedule.Barrier{},
			&schedule.Play{Channel: 1, Width: 5 * ns},
		}}
		l := run(t, root, Options{})
		want := []float64{0, 0, 30 * ns, 30 * ns}
		if diff := cmp.Diff(want, starts(l, l.Root()), approx); diff != "" {
			t.Errorf("starts mismatch (-want +got):\n%s", diff)
		}
		if got := l.Desired(l.Root()); !near(got, 35*ns) {
			t.Errorf("desired = %g, want %g", got, 35*ns)
		}
	})

	t.Run("barrier with channels aligns only those lanes", func(t *testing.T) {
		root := &schedule.Stack{Direction: schedule.Forwards, Children: []schedule.Element{
			&schedule.Play{Channel: 0, Width: 30 * ns},
			&schedule.Play{Channel: 1, Width: 10 * ns},
			&schedule.Play{Channel: 2, Width: 20 * ns},
			&schedule.Barrier{Channels: []int{1, 2}},
			&schedule.Play{Channel: 1, Width: 5 * ns},
		}}
		l := run(t, root, Options{})
		kids := l.Children(l.Root())
		if got := l.Start(kids[4]); !near(got, 20*ns) {
			t.Errorf("start after barrier = %g, want %g", got, 20*ns)
		}
	})

	t.Run("barrier duration acts as spacer", func(t *testing.T) {
		root := &schedule.Stack{Direction: schedule.Forwards, Children: []schedule.Element{
			&schedule.Play{Channel: 0, Width: 10 * ns},
			&schedule.Barrier{Common: schedule.Common{Duration: schedule.Seconds(15 * ns)}},
			&schedule.Play{Channel: 0, Width: 10 * ns},
		}}
		l := run(t, root, Options{})
		kids := l.Children(l.Root())
		if got := l.Start(kids[2]); !near(got, 25*ns) {
			t.Errorf("start after spacer = %g, want %g", got, 25*ns)
		}
	})
}

func TestOverflow(t *testing.T) {
	tests := []struct {
		name string
		root schedule.Element
		opts Options
		pass Pass
		path string
	}{
		{
			name: "root budget too small",
			root: &schedule.Stack{Children: []schedule.Element{
				&schedule.Play{Width: 30 * ns},
				&schedule.Play{Width: 50 * ns},
			}},
			opts: Options{RootDuration: 60 * ns},
			pass: PassArrange,
			path: "stack",
		},
		{
			name: "max duration below content",
			root: &schedule.Stack{
				Common: schedule.Common{MaxDuration: schedule.Seconds(40 * ns)},
				Children: []schedule.Element{
					&schedule.Play{Width: 30 * ns},
					&schedule.Play{Width: 50 * ns},
				},
			},
			pass: PassArrange,
			path: "stack",
		},
		{
			name: "fixed child larger than parent",
			root: &schedule.Stack{
				Common: schedule.Common{Duration: schedule.Seconds(50 * ns)},
				Children: []schedule.Element{
					&schedule.Play{Common: schedule.Common{Duration: schedule.Seconds(100 * ns)}, Width: 10 * ns},
				},
			},
			pass: PassMeasure,
			path: "stack/play[0]",
		},
		{
			name: "child wider than fixed column",
			root: &schedule.Grid{
				Columns: []schedule.GridLength{schedule.Fixed(10 * ns)},
				Entries: []schedule.GridEntry{{Element: &schedule.Play{Width: 20 * ns}}},
			},
			pass: PassArrange,
			path: "grid/play[0]",
		},
		{
			name: "repeat copies exceed budget",
			root: &schedule.Repeat{
				Common: schedule.Common{MaxDuration: schedule.Seconds(25 * ns)},
				Child:  &schedule.Play{Width: 10 * ns},
				Count:  3,
			},
			pass: PassArrange,
			path: "repeat/play[0]",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Run(tt.root, tt.opts)
			if err == nil {
				t.Fatal("Run succeeded, want overflow")
			}
			if !errors.Is(err, errors.ErrCodeLayoutOverflow) {
				t.Fatalf("code = %v, want %v", errors.GetCode(err), errors.ErrCodeLayoutOverflow)
			}
			var oe *OverflowError
			if !asOverflow(err, &oe) {
				t.Fatalf("err = %T, want *OverflowError", err)
			}
			if oe.Pass != tt.pass || oe.Path != tt.path {
				t.Errorf("overflow at %s/%s, want %s/%s", oe.Pass, oe.Path, tt.pass, tt.path)
			}
			if !(oe.Required > oe.Allocated) {
				t.Errorf("required %g <= allocated %g", oe.Required, oe.Allocated)
			}
		})
	}
}

func asOverflow(err error, target **OverflowError) bool {
	oe, ok := err.(*OverflowError)
	if ok {
		*target = oe
	}
	return ok
}

func TestGridStarRatio(t *testing.T) {
	root := &schedule.Grid{
		Common: schedule.Common{Duration: schedule.Seconds(100 * ns)},
		Columns: []schedule.GridLength{
			schedule.MustParseGridLength("auto"),
			schedule.MustParseGridLength("*"),
			schedule.MustParseGridLength("2*"),
		},
		Entries: []schedule.GridEntry{
			{Column: 0, Element: &schedule.Play{Width: 10 * ns}},
		},
	}
	l := run(t, root, Options{})

	want := []Column{{0, 10 * ns}, {10 * ns, 30 * ns}, {40 * ns, 60 * ns}}
	if diff := cmp.Diff(want, l.Columns(l.Root()), approx); diff != "" {
		t.Errorf("columns mismatch (-want +got):\n%s", diff)
	}
	cols := l.Columns(l.Root())
	if r := cols[2].Width / cols[1].Width; !near(r, 2) {
		t.Errorf("star ratio = %g, want 2", r)
	}
}

func TestGridStarKeepsContentMinimum(t *testing.T) {
	// The 1* column needs 70ns for its child; the 1* share of 100ns would be
	// 50ns, so it keeps 70ns and the other star column gets the remaining 30ns.
	root := &schedule.Grid{
		Common:  schedule.Common{Duration: schedule.Seconds(100 * ns)},
		Columns: []schedule.GridLength{schedule.Star(1), schedule.Star(1)},
		Entries: []schedule.GridEntry{
			{Column: 0, Element: &schedule.Play{Width: 70 * ns}},
		},
	}
	l := run(t, root, Options{})
	want := []Column{{0, 70 * ns}, {70 * ns, 30 * ns}}
	if diff := cmp.Diff(want, l.Columns(l.Root()), approx); diff != "" {
		t.Errorf("columns mismatch (-want +got):\n%s", diff)
	}
}

func TestGridSpanning(t *testing.T) {
	tests := []struct {
		name    string
		columns []schedule.GridLength
		entries []schedule.GridEntry
		want    []float64 // column widths after Measure with no extra room
	}{
		{
			name:    "span grows stars by water filling",
			columns: []schedule.GridLength{schedule.Star(1), schedule.Star(1)},
			entries: []schedule.GridEntry{
				{Column: 0, Element: &schedule.Play{Width: 30 * ns}},
				{Column: 0, Span: 2, Element: &schedule.Play{Width: 40 * ns}},
			},
			want: []float64{30 * ns, 10 * ns},
		},
		{
			name:    "span grows auto columns evenly",
			columns: []schedule.GridLength{schedule.Auto(), schedule.Auto()},
			entries: []schedule.GridEntry{
				{Column: 0, Span: 2, Element: &schedule.Play{Width: 40 * ns}},
			},
			want: []float64{20 * ns, 20 * ns},
		},
		{
			name:    "stars preferred over autos",
			columns: []schedule.GridLength{schedule.Auto(), schedule.Star(1)},
			entries: []schedule.GridEntry{
				{Column: 0, Element: &schedule.Play{Width: 10 * ns}},
				{Column: 0, Span: 2, Element: &schedule.Play{Width: 40 * ns}},
			},
			want: []float64{10 * ns, 30 * ns},
		},
		{
			name:    "span clamped to last column",
			columns: []schedule.GridLength{schedule.Fixed(10 * ns), schedule.Star(1)},
			entries: []schedule.GridEntry{
				{Column: 5, Span: 3, Element: &schedule.Play{Width: 25 * ns}},
			},
			want: []float64{10 * ns, 25 * ns},
		},
		{
			name:    "default single star column",
			entries: []schedule.GridEntry{{Element: &schedule.Play{Width: 25 * ns}}},
			want:    []float64{25 * ns},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := &schedule.Grid{Columns: tt.columns, Entries: tt.entries}
			l := run(t, root, Options{})
			var got []float64
			for _, c := range l.Columns(l.Root()) {
				got = append(got, c.Width)
			}
			if diff := cmp.Diff(tt.want, got, approx); diff != "" {
				t.Errorf("widths mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestGridAlignment(t *testing.T) {
	tests := []struct {
		align        schedule.Alignment
		wantStart    float64
		wantDuration float64
	}{
		{schedule.AlignStart, 0, 20 * ns},
		{schedule.AlignEnd, 80 * ns, 20 * ns},
		{schedule.AlignCenter, 40 * ns, 20 * ns},
		{schedule.AlignStretch, 0, 100 * ns},
	}

	for _, tt := range tests {
		t.Run(tt.align.String(), func(t *testing.T) {
			root := &schedule.Grid{
				Common: schedule.Common{Duration: schedule.Seconds(100 * ns)},
				Entries: []schedule.GridEntry{{Element: &schedule.Play{
					Common:   schedule.Common{Alignment: tt.align},
					Width:    20 * ns,
					Flexible: true,
				}}},
			}
			l := run(t, root, Options{})
			child := l.Children(l.Root())[0]
			if got := l.Start(child); !near(got, tt.wantStart) {
				t.Errorf("start = %g, want %g", got, tt.wantStart)
			}
			if got := l.Duration(child); !near(got, tt.wantDuration) {
				t.Errorf("duration = %g, want %g", got, tt.wantDuration)
			}
		})
	}
}

func TestRepeat(t *testing.T) {
	root := &schedule.Repeat{
		Child:   &schedule.Play{Width: 10 * ns},
		Count:   3,
		Spacing: 5 * ns,
	}
	l := run(t, root, Options{})
	if got := l.Desired(l.Root()); !near(got, 40*ns) {
		t.Errorf("desired = %g, want %g", got, 40*ns)
	}
	if got := l.Period(l.Root()); !near(got, 15*ns) {
		t.Errorf("period = %g, want %g", got, 15*ns)
	}
	if got := l.Period(l.Children(l.Root())[0]); got != 0 {
		t.Errorf("period of non-repeat = %g, want 0", got)
	}
}

func TestAbsolute(t *testing.T) {
	root := &schedule.Absolute{Entries: []schedule.AbsoluteEntry{
		{Time: 10 * ns, Element: &schedule.Play{Width: 20 * ns, Common: schedule.Common{Margin: schedule.Margin{Before: 1 * ns}}}},
		{Time: 0, Element: &schedule.Play{Width: 5 * ns}},
	}}
	l := run(t, root, Options{})
	if got := l.Desired(l.Root()); !near(got, 31*ns) {
		t.Errorf("desired = %g, want %g", got, 31*ns)
	}
	if diff := cmp.Diff([]float64{11 * ns, 0}, starts(l, l.Root()), approx); diff != "" {
		t.Errorf("starts mismatch (-want +got):\n%s", diff)
	}
}

func TestFlexiblePlay(t *testing.T) {
	root := &schedule.Play{Width: 10 * ns, Plateau: 99 * ns, Flexible: true}
	l := run(t, root, Options{RootDuration: 100 * ns})
	if got := l.Desired(l.Root()); !near(got, 10*ns) {
		t.Errorf("desired = %g, want %g", got, 10*ns)
	}
	if got := l.Duration(l.Root()); !near(got, 100*ns) {
		t.Errorf("duration = %g, want %g", got, 100*ns)
	}
}

func TestEmptyContainers(t *testing.T) {
	for _, root := range []schedule.Element{
		&schedule.Stack{},
		&schedule.Absolute{},
		&schedule.Grid{Columns: []schedule.GridLength{schedule.Auto()}},
	} {
		t.Run(schedule.Kind(root), func(t *testing.T) {
			l := run(t, root, Options{})
			if got := l.Desired(l.Root()); got != 0 {
				t.Errorf("desired = %g, want 0", got)
			}
		})
	}
}

func TestChannelsUnion(t *testing.T) {
	root := &schedule.Stack{Children: []schedule.Element{
		&schedule.Play{Channel: 3},
		&schedule.Grid{Entries: []schedule.GridEntry{{Element: &schedule.SwapPhase{Channel1: 1, Channel2: 3}}}},
	}}
	l := New(root)
	if diff := cmp.Diff([]int{1, 3}, l.Channels(l.Root())); diff != "" {
		t.Errorf("channels mismatch (-want +got):\n%s", diff)
	}
}

func TestConcurrentLayoutsShareTree(t *testing.T) {
	root := &schedule.Stack{Children: []schedule.Element{
		&schedule.Play{Width: 10 * ns},
		&schedule.Play{Width: 20 * ns},
	}}
	budgets := []float64{0, 50 * ns, 100 * ns, 200 * ns}
	got := make([]float64, len(budgets))

	var wg sync.WaitGroup
	for i, b := range budgets {
		wg.Add(1)
		go func() {
			defer wg.Done()
			l, err := Run(root, Options{RootDuration: b})
			if err != nil {
				t.Error(err)
				return
			}
			got[i] = l.Start(l.Children(l.Root())[0])
		}()
	}
	wg.Wait()

	want := []float64{0, 20 * ns, 70 * ns, 170 * ns}
	if diff := cmp.Diff(want, got, approx); diff != "" {
		t.Errorf("first starts mismatch (-want +got):\n%s", diff)
	}
}

func TestUnboundedMeasure(t *testing.T) {
	l := New(&schedule.Stack{Children: []schedule.Element{&schedule.Play{Width: 1}}})
	d, err := l.Measure(math.Inf(1))
	if err != nil {
		t.Fatal(err)
	}
	if d != 1 {
		t.Errorf("desired = %g, want 1", d)
	}
	if !math.IsInf(l.Available(l.Root()), 1) {
		t.Errorf("available = %g, want +Inf", l.Available(l.Root()))
	}
}

func TestDurationHonorsBounds(t *testing.T) {
	root := &schedule.Stack{Children: []schedule.Element{
		&schedule.ShiftPhase{Common: schedule.Common{MinDuration: 5 * ns}, Phase: 0.25},
		&schedule.Play{Common: schedule.Common{Duration: schedule.Seconds(100 * ns)}, Width: 30 * ns},
		&schedule.Play{Width: 10 * ns, Plateau: 5 * ns},
	}}
	l := run(t, root, Options{})
	kids := l.Children(l.Root())

	tests := []struct {
		name      string
		id        NodeID
		wantDur   float64
		wantPulse float64
	}{
		{"min duration on an update", kids[0], 5 * ns, 0},
		{"fixed duration on a play", kids[1], 100 * ns, 30 * ns},
		{"unbounded play", kids[2], 15 * ns, 15 * ns},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := l.Duration(tt.id); !near(got, tt.wantDur) {
				t.Errorf("duration = %g, want %g", got, tt.wantDur)
			}
			if got := l.PulseLength(tt.id); !near(got, tt.wantPulse) {
				t.Errorf("pulse length = %g, want %g", got, tt.wantPulse)
			}
			lo, hi := l.Element(tt.id).Attrs().Bounds()
			if d := l.Duration(tt.id); d < lo || d > hi {
				t.Errorf("duration %g outside bounds [%g, %g]", d, lo, hi)
			}
		})
	}
}
