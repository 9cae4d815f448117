package schedule

import (
	"math"
	"strconv"
	"strings"

	"github.com/kahojyun/pulsegen/pkg/errors"
)

// GridUnit is the sizing mode of a grid column.
type GridUnit int

const (
	// UnitFixed columns are exactly Value seconds wide.
	UnitFixed GridUnit = iota
	// UnitAuto columns are as wide as their widest single-column child.
	UnitAuto
	// UnitStar columns share the remaining width in proportion to Value.
	UnitStar
)

// GridLength is the width specification of one grid column.
type GridLength struct {
	Value float64
	Unit  GridUnit
}

// Fixed returns a column exactly s seconds wide.
func Fixed(s float64) GridLength { return GridLength{Value: s, Unit: UnitFixed} }

// Auto returns a content-sized column.
func Auto() GridLength { return GridLength{Unit: UnitAuto} }

// Star returns a proportional column with weight w.
func Star(w float64) GridLength { return GridLength{Value: w, Unit: UnitStar} }

// IsFixed reports whether the column has a fixed width.
func (g GridLength) IsFixed() bool { return g.Unit == UnitFixed }

// IsAuto reports whether the column is content-sized.
func (g GridLength) IsAuto() bool { return g.Unit == UnitAuto }

// IsStar reports whether the column is proportional.
func (g GridLength) IsStar() bool { return g.Unit == UnitStar }

// String formats g in the token syntax accepted by [ParseGridLength].
func (g GridLength) String() string {
	switch g.Unit {
	case UnitAuto:
		return "auto"
	case UnitStar:
		if g.Value == 1 {
			return "*"
		}
		return strconv.FormatFloat(g.Value, 'g', -1, 64) + "*"
	}
	return strconv.FormatFloat(g.Value, 'g', -1, 64)
}

// ParseGridLength parses a column token:
//
//	"auto"  content-sized (case-insensitive)
//	"*"     proportional, weight 1
//	"2.5*"  proportional, weight 2.5
//	"1e-7"  fixed width in seconds
//
// Anything else, including negative, NaN or infinite values and a zero star
// weight, fails with INVALID_COLUMN_SPEC.
func ParseGridLength(s string) (GridLength, error) {
	tok := strings.TrimSpace(s)
	if strings.EqualFold(tok, "auto") {
		return Auto(), nil
	}
	if w, ok := strings.CutSuffix(tok, "*"); ok {
		if w == "" {
			return Star(1), nil
		}
		v, err := strconv.ParseFloat(w, 64)
		if err != nil {
			return GridLength{}, errors.Wrap(errors.ErrCodeInvalidColumnSpec, err, "invalid star weight in %q", s)
		}
		g := Star(v)
		if err := g.Validate(); err != nil {
			return GridLength{}, err
		}
		return g, nil
	}
	v, err := strconv.ParseFloat(tok, 64)
	if err != nil {
		return GridLength{}, errors.Wrap(errors.ErrCodeInvalidColumnSpec, err, "invalid grid length %q", s)
	}
	g := Fixed(v)
	if err := g.Validate(); err != nil {
		return GridLength{}, err
	}
	return g, nil
}

// MustParseGridLength is like ParseGridLength but panics on error.
// It simplifies building column lists from constants.
func MustParseGridLength(s string) GridLength {
	g, err := ParseGridLength(s)
	if err != nil {
		panic(err)
	}
	return g
}

// Validate checks that the length is usable by the layout engine.
func (g GridLength) Validate() error {
	switch g.Unit {
	case UnitAuto:
		return nil
	case UnitStar:
		if math.IsNaN(g.Value) || math.IsInf(g.Value, 0) || g.Value <= 0 {
			return errors.New(errors.ErrCodeInvalidColumnSpec, "star weight must be positive and finite, got %v", g.Value)
		}
		return nil
	case UnitFixed:
		if math.IsNaN(g.Value) || math.IsInf(g.Value, 0) || g.Value < 0 {
			return errors.New(errors.ErrCodeInvalidColumnSpec, "fixed width must be non-negative and finite, got %v", g.Value)
		}
		return nil
	}
	return errors.New(errors.ErrCodeInvalidColumnSpec, "unknown grid unit %d", int(g.Unit))
}

// MarshalText implements encoding.TextMarshaler.
func (g GridLength) MarshalText() ([]byte, error) { return []byte(g.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (g *GridLength) UnmarshalText(b []byte) error {
	v, err := ParseGridLength(string(b))
	if err != nil {
		return err
	}
	*g = v
	return nil
}
