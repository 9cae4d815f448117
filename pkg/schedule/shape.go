package schedule

import (
	"math"
	"strings"

	"github.com/kahojyun/pulsegen/pkg/errors"
)

// ShapeKind is the family of an envelope shape.
type ShapeKind string

const (
	ShapeHann         ShapeKind = "hann"
	ShapeTriangle     ShapeKind = "triangle"
	ShapeInterpolated ShapeKind = "interpolated"
)

// Shape is one entry of a request's shape table. Plays reference shapes by
// index. The envelope itself is evaluated by the downstream sampler; the
// compiler only validates and forwards the table.
type Shape struct {
	Name string
	Kind ShapeKind
	// X and Y sample an interpolated envelope over the normalized interval
	// [-0.5, 0.5]. Unused for other kinds.
	X []float64
	Y []float64
}

// Validate checks the shape definition.
func (s Shape) Validate() error {
	switch ShapeKind(strings.ToLower(string(s.Kind))) {
	case ShapeHann, ShapeTriangle:
		return nil
	case ShapeInterpolated:
		if len(s.X) != len(s.Y) || len(s.X) < 2 {
			return errors.New(errors.ErrCodeInvalidInput, "shape %s: need matching x/y with at least 2 points, got %d/%d",
				s.Name, len(s.X), len(s.Y))
		}
		for i, x := range s.X {
			if math.IsNaN(x) || math.IsNaN(s.Y[i]) || math.IsInf(x, 0) || math.IsInf(s.Y[i], 0) {
				return errors.New(errors.ErrCodeInvalidInput, "shape %s: point %d is not finite", s.Name, i)
			}
			if i > 0 && x <= s.X[i-1] {
				return errors.New(errors.ErrCodeInvalidInput, "shape %s: x must be strictly increasing", s.Name)
			}
		}
		return nil
	}
	return errors.New(errors.ErrCodeInvalidInput, "shape %s: unknown kind %q", s.Name, s.Kind)
}

// ValidateShapeRefs checks that every Play under root references ShapeRect or
// an index into a table of numShapes shapes.
func ValidateShapeRefs(root Element, numShapes int) error {
	var err error
	Walk(root, func(e Element, path string) bool {
		if err != nil {
			return false
		}
		if p, ok := e.(*Play); ok && p.Shape != ShapeRect && (p.Shape < 0 || int(p.Shape) >= numShapes) {
			err = errors.New(errors.ErrCodeUnknownShape, "%s: shape %d is not defined (have %d)", path, int(p.Shape), numShapes)
		}
		return err == nil
	})
	return err
}
