package render

import (
	"strconv"
	"strings"

	"github.com/kahojyun/pulsegen/pkg/errors"
)

// TimeUnit selects how durations in seconds are printed.
type TimeUnit string

const (
	Seconds      TimeUnit = "s"
	Milliseconds TimeUnit = "ms"
	Microseconds TimeUnit = "us"
	Nanoseconds  TimeUnit = "ns"
)

// ParseTimeUnit parses "s", "ms", "us" (or "µs") and "ns". The empty string
// selects nanoseconds.
func ParseTimeUnit(s string) (TimeUnit, error) {
	switch strings.ToLower(s) {
	case "", "ns":
		return Nanoseconds, nil
	case "us", "µs":
		return Microseconds, nil
	case "ms":
		return Milliseconds, nil
	case "s":
		return Seconds, nil
	}
	return "", errors.New(errors.ErrCodeInvalidInput, "unknown time unit %q (want s, ms, us or ns)", s)
}

// Scale returns the number of units per second.
func (u TimeUnit) Scale() float64 {
	switch u {
	case Seconds:
		return 1
	case Milliseconds:
		return 1e3
	case Microseconds:
		return 1e6
	}
	return 1e9
}

// Format prints t seconds in unit u with up to six significant digits.
func (u TimeUnit) Format(t float64) string {
	if u == "" {
		u = Nanoseconds
	}
	return strconv.FormatFloat(t*u.Scale(), 'g', 6, 64) + " " + string(u)
}
