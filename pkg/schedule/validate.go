package schedule

import (
	"math"

	"github.com/kahojyun/pulsegen/pkg/errors"
)

// Validate checks the tree rooted at root and returns the first problem found
// as a coded error naming the offending node's path.
//
// numChannels is the number of configured channels; channel references outside
// [0, numChannels) fail with UNKNOWN_CHANNEL_REFERENCE. Pass a negative value to
// skip channel checks.
func Validate(root Element, numChannels int) error {
	if root == nil {
		return errors.New(errors.ErrCodeInvalidElement, "schedule has no root element")
	}
	var err error
	Walk(root, func(e Element, path string) bool {
		if err != nil {
			return false
		}
		err = validateNode(e, path, numChannels)
		return err == nil
	})
	return err
}

func validateNode(e Element, path string, numChannels int) error {
	c := e.Attrs()
	if !nonNegative(c.Margin.Before) || !nonNegative(c.Margin.After) {
		return errors.New(errors.ErrCodeInvalidElement, "%s: margins must be non-negative and finite, got (%v, %v)",
			path, c.Margin.Before, c.Margin.After)
	}
	if c.Duration != nil && !nonNegative(*c.Duration) {
		return errors.New(errors.ErrCodeInvalidElement, "%s: duration must be non-negative and finite, got %v", path, *c.Duration)
	}
	if !nonNegative(c.MinDuration) {
		return errors.New(errors.ErrCodeInvalidElement, "%s: min_duration must be non-negative and finite, got %v", path, c.MinDuration)
	}
	if c.MaxDuration != nil {
		if math.IsNaN(*c.MaxDuration) || *c.MaxDuration < 0 {
			return errors.New(errors.ErrCodeInvalidElement, "%s: max_duration must be non-negative, got %v", path, *c.MaxDuration)
		}
		if c.MinDuration > *c.MaxDuration {
			return errors.New(errors.ErrCodeConflictingDurationBounds, "%s: min_duration %v exceeds max_duration %v",
				path, c.MinDuration, *c.MaxDuration)
		}
	}
	if c.Alignment < AlignEnd || c.Alignment > AlignStretch {
		return errors.New(errors.ErrCodeInvalidElement, "%s: unknown alignment %d", path, int(c.Alignment))
	}

	for _, ch := range OwnChannels(e) {
		if numChannels >= 0 && (ch < 0 || ch >= numChannels) {
			return errors.New(errors.ErrCodeUnknownChannel, "%s: channel %d is not configured (have %d)", path, ch, numChannels)
		}
	}

	switch v := e.(type) {
	case *Play:
		if !nonNegative(v.Width) || !nonNegative(v.Plateau) {
			return errors.New(errors.ErrCodeInvalidElement, "%s: width and plateau must be non-negative, got (%v, %v)",
				path, v.Width, v.Plateau)
		}
		if !finite(v.Amplitude) || !finite(v.DragCoef) || !finite(v.Frequency) || !finite(v.Phase) {
			return errors.New(errors.ErrCodeInvalidElement, "%s: play parameters must be finite", path)
		}
	case *ShiftPhase:
		if !finite(v.Phase) {
			return errors.New(errors.ErrCodeInvalidElement, "%s: phase must be finite", path)
		}
	case *SetPhase:
		if !finite(v.Phase) {
			return errors.New(errors.ErrCodeInvalidElement, "%s: phase must be finite", path)
		}
	case *ShiftFrequency:
		if !finite(v.Frequency) {
			return errors.New(errors.ErrCodeInvalidElement, "%s: frequency must be finite", path)
		}
	case *SetFrequency:
		if !finite(v.Frequency) {
			return errors.New(errors.ErrCodeInvalidElement, "%s: frequency must be finite", path)
		}
	case *Repeat:
		if v.Child == nil {
			return errors.New(errors.ErrCodeInvalidElement, "%s: repeat has no child", path)
		}
		if v.Count < 1 {
			return errors.New(errors.ErrCodeInvalidElement, "%s: repeat count must be at least 1, got %d", path, v.Count)
		}
		if !nonNegative(v.Spacing) {
			return errors.New(errors.ErrCodeInvalidElement, "%s: repeat spacing must be non-negative, got %v", path, v.Spacing)
		}
	case *Stack:
		if v.Direction != Backwards && v.Direction != Forwards {
			return errors.New(errors.ErrCodeInvalidElement, "%s: unknown stack direction %d", path, int(v.Direction))
		}
		for i, child := range v.Children {
			if child == nil {
				return errors.New(errors.ErrCodeInvalidElement, "%s: child %d is nil", path, i)
			}
		}
	case *Absolute:
		for i, ent := range v.Entries {
			if ent.Element == nil {
				return errors.New(errors.ErrCodeInvalidElement, "%s: entry %d has no element", path, i)
			}
			if !nonNegative(ent.Time) {
				return errors.New(errors.ErrCodeInvalidElement, "%s: entry %d time must be non-negative, got %v", path, i, ent.Time)
			}
		}
	case *Grid:
		for i, col := range v.Columns {
			if err := col.Validate(); err != nil {
				return errors.Wrap(errors.ErrCodeInvalidColumnSpec, err, "%s: column %d", path, i)
			}
		}
		for i, ent := range v.Entries {
			if ent.Element == nil {
				return errors.New(errors.ErrCodeInvalidElement, "%s: entry %d has no element", path, i)
			}
			if ent.Column < 0 {
				return errors.New(errors.ErrCodeInvalidElement, "%s: entry %d column must be non-negative, got %d", path, i, ent.Column)
			}
		}
	}
	return nil
}

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }

func nonNegative(v float64) bool { return finite(v) && v >= 0 }
