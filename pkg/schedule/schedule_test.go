package schedule

import (
	"math"
	"testing"

	"github.com/kahojyun/pulsegen/pkg/errors"
)

func TestBounds(t *testing.T) {
	inf := math.Inf(1)
	tests := []struct {
		name           string
		c              Common
		wantLo, wantHi float64
	}{
		{"unconstrained", Common{}, 0, inf},
		{"duration", Common{Duration: Seconds(10)}, 10, 10},
		{"max caps duration", Common{Duration: Seconds(10), MaxDuration: Seconds(5)}, 5, 5},
		{"min beats duration", Common{Duration: Seconds(10), MinDuration: 20}, 20, 20},
		{"min beats max", Common{Duration: Seconds(10), MaxDuration: Seconds(5), MinDuration: 8}, 8, 8},
		{"min only", Common{MinDuration: 3}, 3, inf},
		{"max only", Common{MaxDuration: Seconds(7)}, 0, 7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lo, hi := tt.c.Bounds()
			if lo != tt.wantLo || hi != tt.wantHi {
				t.Errorf("Bounds() = (%v, %v), want (%v, %v)", lo, hi, tt.wantLo, tt.wantHi)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		root Element
		code errors.Code // empty means valid
	}{
		{
			name: "valid tree",
			root: &Stack{Children: []Element{
				&Play{Channel: 0, Width: 30e-9},
				&Barrier{},
				&Grid{Columns: []GridLength{Auto(), Star(1)}, Entries: []GridEntry{
					{Column: 1, Element: &SetFrequency{Channel: 1, Frequency: 1e6}},
				}},
				&Repeat{Child: &SwapPhase{Channel1: 0, Channel2: 1}, Count: 3},
			}},
		},
		{
			name: "nil root",
			root: nil,
			code: errors.ErrCodeInvalidElement,
		},
		{
			name: "negative margin",
			root: &Play{Common: Common{Margin: Margin{Before: -1}}},
			code: errors.ErrCodeInvalidElement,
		},
		{
			name: "min exceeds max",
			root: &Stack{Common: Common{MinDuration: 10, MaxDuration: Seconds(5)}},
			code: errors.ErrCodeConflictingDurationBounds,
		},
		{
			name: "unknown channel",
			root: &Stack{Children: []Element{&Play{Channel: 2}}},
			code: errors.ErrCodeUnknownChannel,
		},
		{
			name: "unknown swap channel",
			root: &SwapPhase{Channel1: 0, Channel2: 5},
			code: errors.ErrCodeUnknownChannel,
		},
		{
			name: "barrier channel",
			root: &Barrier{Channels: []int{0, -1}},
			code: errors.ErrCodeUnknownChannel,
		},
		{
			name: "zero repeat count",
			root: &Repeat{Child: &Play{}, Count: 0},
			code: errors.ErrCodeInvalidElement,
		},
		{
			name: "repeat without child",
			root: &Repeat{Count: 2},
			code: errors.ErrCodeInvalidElement,
		},
		{
			name: "bad column",
			root: &Grid{Columns: []GridLength{Star(0)}},
			code: errors.ErrCodeInvalidColumnSpec,
		},
		{
			name: "negative absolute time",
			root: &Absolute{Entries: []AbsoluteEntry{{Time: -1, Element: &Play{}}}},
			code: errors.ErrCodeInvalidElement,
		},
		{
			name: "nil stack child",
			root: &Stack{Children: []Element{nil}},
			code: errors.ErrCodeInvalidElement,
		},
		{
			name: "nan play amplitude",
			root: &Play{Amplitude: math.NaN()},
			code: errors.ErrCodeInvalidElement,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.root, 2)
			if tt.code == "" {
				if err != nil {
					t.Fatalf("Validate() = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.code) {
				t.Fatalf("Validate() = %v, want code %v", err, tt.code)
			}
		})
	}
}

func TestValidateSkipsChannelsWhenUnknown(t *testing.T) {
	if err := Validate(&Play{Channel: 99}, -1); err != nil {
		t.Errorf("Validate() = %v, want nil", err)
	}
}

func TestWalkOrderAndPaths(t *testing.T) {
	root := &Stack{Children: []Element{
		&Play{},
		&Grid{Entries: []GridEntry{{Element: &ShiftPhase{}}, {Element: &Barrier{}}}},
		&Repeat{Child: &Play{}, Count: 2},
	}}

	var paths []string
	Walk(root, func(_ Element, path string) bool {
		paths = append(paths, path)
		return true
	})

	want := []string{
		"stack",
		"stack/play[0]",
		"stack/grid[1]",
		"stack/grid[1]/shift_phase[0]",
		"stack/grid[1]/barrier[1]",
		"stack/repeat[2]",
		"stack/repeat[2]/play[0]",
	}
	if len(paths) != len(want) {
		t.Fatalf("Walk visited %v, want %v", paths, want)
	}
	for i := range want {
		if paths[i] != want[i] {
			t.Errorf("path[%d] = %q, want %q", i, paths[i], want[i])
		}
	}
}

func TestParseEnums(t *testing.T) {
	if a, err := ParseAlignment("Stretch"); err != nil || a != AlignStretch {
		t.Errorf("ParseAlignment(Stretch) = %v, %v", a, err)
	}
	if _, err := ParseAlignment("middle"); err == nil {
		t.Error("ParseAlignment(middle) succeeded, want error")
	}
	if d, err := ParseDirection("forwards"); err != nil || d != Forwards {
		t.Errorf("ParseDirection(forwards) = %v, %v", d, err)
	}
	if d, err := ParseDirection(""); err != nil || d != Backwards {
		t.Errorf("ParseDirection(\"\") = %v, %v", d, err)
	}
}
