package layout

import (
	"fmt"
	"math"

	"github.com/kahojyun/pulsegen/pkg/errors"
)

// Pass names the layout pass that detected a problem.
type Pass string

const (
	PassMeasure Pass = "measure"
	PassArrange Pass = "arrange"
)

// OverflowError reports a node whose required duration exceeds the duration
// it was allocated. It unwraps to a LAYOUT_OVERFLOW coded error.
type OverflowError struct {
	Pass      Pass
	Path      string
	Required  float64
	Allocated float64
}

func (e *OverflowError) Error() string {
	return fmt.Sprintf("%s: %s requires %gs but only %gs is allocated", e.Pass, e.Path, e.Required, e.Allocated)
}

// Unwrap exposes the error code so errors.Is(err, errors.ErrCodeLayoutOverflow) holds.
func (e *OverflowError) Unwrap() error {
	return errors.New(errors.ErrCodeLayoutOverflow, "%s overflows", e.Path)
}

const (
	relTol = 1e-12
	absTol = 1e-21
)

// exceeds reports whether required is larger than allocated beyond rounding noise.
func exceeds(required, allocated float64) bool {
	if math.IsInf(allocated, 1) {
		return false
	}
	return required > allocated+relTol*math.Abs(allocated)+absTol
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(v, hi))
}
