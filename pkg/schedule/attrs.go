package schedule

import (
	"fmt"
	"math"
	"strings"

	"github.com/kahojyun/pulsegen/pkg/errors"
)

// Margin is the empty time reserved before and after an element's content.
// Margins of adjacent siblings add up; they are never collapsed.
type Margin struct {
	Before float64 `json:"before" yaml:"before"`
	After  float64 `json:"after" yaml:"after"`
}

// Total returns Before + After.
func (m Margin) Total() float64 { return m.Before + m.After }

// Uniform returns a margin with the same value on both sides.
func Uniform(v float64) Margin { return Margin{Before: v, After: v} }

// Alignment controls where an element sits inside a Grid cell that is wider
// than the element. Other containers ignore it.
type Alignment int

const (
	// AlignEnd packs the element against the end of its cell. This is the default.
	AlignEnd Alignment = iota
	// AlignStart packs the element against the start of its cell.
	AlignStart
	// AlignCenter centers the element in its cell.
	AlignCenter
	// AlignStretch stretches the element over the whole cell.
	AlignStretch
)

var alignmentNames = [...]string{"end", "start", "center", "stretch"}

func (a Alignment) String() string {
	if a < 0 || int(a) >= len(alignmentNames) {
		return fmt.Sprintf("Alignment(%d)", int(a))
	}
	return alignmentNames[a]
}

// ParseAlignment parses "start", "end", "center" or "stretch" (case-insensitive).
func ParseAlignment(s string) (Alignment, error) {
	for i, name := range alignmentNames {
		if strings.EqualFold(s, name) {
			return Alignment(i), nil
		}
	}
	return 0, errors.New(errors.ErrCodeInvalidElement, "unknown alignment %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (a Alignment) MarshalText() ([]byte, error) { return []byte(a.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (a *Alignment) UnmarshalText(b []byte) error {
	v, err := ParseAlignment(string(b))
	if err != nil {
		return err
	}
	*a = v
	return nil
}

// Direction is the packing direction of a Stack.
type Direction int

const (
	// Backwards packs children toward the end of the Stack. This is the default,
	// so a Stack given more room than it needs leaves the slack at its start.
	Backwards Direction = iota
	// Forwards packs children toward the start of the Stack.
	Forwards
)

func (d Direction) String() string {
	if d == Forwards {
		return "forwards"
	}
	return "backwards"
}

// ParseDirection parses "forwards" or "backwards" (case-insensitive).
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(s) {
	case "backwards", "backward", "":
		return Backwards, nil
	case "forwards", "forward":
		return Forwards, nil
	}
	return 0, errors.New(errors.ErrCodeInvalidElement, "unknown stack direction %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (d Direction) MarshalText() ([]byte, error) { return []byte(d.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Direction) UnmarshalText(b []byte) error {
	v, err := ParseDirection(string(b))
	if err != nil {
		return err
	}
	*d = v
	return nil
}

// Common holds the layout attributes shared by every element.
//
// The zero value is a visible, end-aligned element with no margins and no
// duration constraints.
type Common struct {
	Margin    Margin
	Alignment Alignment
	Hidden    bool // Hidden elements occupy layout space but emit nothing.

	// Duration is the preferred content duration. Nil means "use the content's
	// natural duration".
	Duration *float64
	// MaxDuration caps the content duration. Nil means +Inf.
	MaxDuration *float64
	// MinDuration is a floor for the content duration.
	MinDuration float64
}

// Attrs returns the common attributes. It is promoted to every variant.
func (c Common) Attrs() Common { return c }

// Bounds resolves the duration attributes into the closed interval the
// element's content duration must lie in.
//
// MinDuration always wins, then MaxDuration, then Duration:
//
//	hi = max(min(Duration ?? +Inf, MaxDuration), MinDuration)
//	lo = max(min(Duration ?? 0,    MaxDuration), MinDuration)
func (c Common) Bounds() (lo, hi float64) {
	maxD := math.Inf(1)
	if c.MaxDuration != nil {
		maxD = *c.MaxDuration
	}
	hi, lo = math.Inf(1), 0
	if c.Duration != nil {
		hi, lo = *c.Duration, *c.Duration
	}
	hi = math.Max(math.Min(hi, maxD), c.MinDuration)
	lo = math.Max(math.Min(lo, maxD), c.MinDuration)
	return lo, hi
}

// Seconds returns a pointer to v, for the optional duration fields of Common.
func Seconds(v float64) *float64 { return &v }
