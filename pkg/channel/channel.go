// Package channel describes the output channels a schedule is compiled for.
//
// A channel is read-only configuration: its carrier (base) frequency, its
// sample rate, a fixed output delay, the record length in samples and the
// alignment level that decides the time grid pulses are snapped to.
package channel

import (
	"fmt"
	"math"
	"strings"

	"github.com/kahojyun/pulsegen/pkg/errors"
)

// Info is the configuration of one output channel.
type Info struct {
	Name          string  `json:"name" yaml:"name" toml:"name"`
	BaseFrequency float64 `json:"base_freq" yaml:"base_freq" toml:"base_freq"`
	SampleRate    float64 `json:"sample_rate" yaml:"sample_rate" toml:"sample_rate"`
	Delay         float64 `json:"delay" yaml:"delay" toml:"delay"`
	Length        int     `json:"length" yaml:"length" toml:"length"`
	AlignLevel    int     `json:"align_level" yaml:"align_level" toml:"align_level"`
}

// Validate checks that the channel can be compiled for.
func (c Info) Validate() error {
	if err := errors.ValidateChannelName(c.Name); err != nil {
		return err
	}
	if math.IsNaN(c.SampleRate) || math.IsInf(c.SampleRate, 0) || c.SampleRate <= 0 {
		return errors.New(errors.ErrCodeInvalidChannel, "channel %s: sample rate must be positive, got %v", c.Name, c.SampleRate)
	}
	if math.IsNaN(c.BaseFrequency) || math.IsInf(c.BaseFrequency, 0) {
		return errors.New(errors.ErrCodeInvalidChannel, "channel %s: base frequency must be finite", c.Name)
	}
	if math.IsNaN(c.Delay) || math.IsInf(c.Delay, 0) {
		return errors.New(errors.ErrCodeInvalidChannel, "channel %s: delay must be finite", c.Name)
	}
	if c.Length < 0 {
		return errors.New(errors.ErrCodeInvalidChannel, "channel %s: length must be non-negative, got %d", c.Name, c.Length)
	}
	if c.AlignLevel < -30 || c.AlignLevel > 30 {
		return errors.New(errors.ErrCodeInvalidChannel, "channel %s: align level %d out of range [-30, 30]", c.Name, c.AlignLevel)
	}
	return nil
}

// ValidateAll validates every channel and rejects duplicate names.
func ValidateAll(channels []Info) error {
	seen := make(map[string]int, len(channels))
	for i, c := range channels {
		if err := c.Validate(); err != nil {
			return err
		}
		if j, dup := seen[c.Name]; dup {
			return errors.New(errors.ErrCodeInvalidChannel, "channel %q declared twice (#%d and #%d)", c.Name, j, i)
		}
		seen[c.Name] = i
	}
	return nil
}

// Lookup returns the index of the channel named name.
func Lookup(channels []Info, name string) (int, error) {
	for i, c := range channels {
		if c.Name == name {
			return i, nil
		}
	}
	return 0, errors.New(errors.ErrCodeUnknownChannel, "unknown channel %q", name)
}

// Grid returns the alignment grid in seconds: 2^AlignLevel sample periods.
func (c Info) Grid() float64 {
	return math.Ldexp(1, c.AlignLevel) / c.SampleRate
}

// Window returns the duration of the channel's record, Length samples long.
func (c Info) Window() float64 {
	return float64(c.Length) / c.SampleRate
}

// Quantize snaps t to the channel's alignment grid using policy p.
func (c Info) Quantize(t float64, p Policy) float64 {
	g := c.Grid()
	if g <= 0 || math.IsInf(g, 0) || math.IsNaN(g) {
		return t
	}
	x := t / g
	switch p {
	case Floor:
		// Guard against values a few ulps below a grid point.
		x = math.Floor(x + 1e-9)
	default:
		x = math.RoundToEven(x)
	}
	return x * g
}

// Policy is the rounding rule used to snap play times to the alignment grid.
type Policy int

const (
	// Round snaps to the nearest grid point, ties to even.
	Round Policy = iota
	// Floor snaps to the grid point at or before the time.
	Floor
)

func (p Policy) String() string {
	if p == Floor {
		return "floor"
	}
	return "round"
}

// ParsePolicy parses "round" or "floor" (case-insensitive). The empty string
// selects Round.
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "round":
		return Round, nil
	case "floor":
		return Floor, nil
	}
	return 0, errors.New(errors.ErrCodeInvalidInput, "unknown quantization policy %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (p Policy) MarshalText() ([]byte, error) { return []byte(p.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *Policy) UnmarshalText(b []byte) error {
	v, err := ParsePolicy(string(b))
	if err != nil {
		return err
	}
	*p = v
	return nil
}

// String formats the channel for logs.
func (c Info) String() string {
	return fmt.Sprintf("%s(fc=%gHz, sr=%gS/s, delay=%gs, len=%d, align=%d)",
		c.Name, c.BaseFrequency, c.SampleRate, c.Delay, c.Length, c.AlignLevel)
}
