package phase

import (
	"math"

	"github.com/kahojyun/pulsegen/pkg/channel"
	"github.com/kahojyun/pulsegen/pkg/errors"
	"github.com/kahojyun/pulsegen/pkg/flatten"
	"github.com/kahojyun/pulsegen/pkg/schedule"
)

// ResolvedPlay is a Play with its time and phase fully resolved. It is the
// hand-off to the envelope sampler.
type ResolvedPlay struct {
	Channel     int
	ChannelName string

	LogicalTime float64 // schedule time before delay and quantization
	Time        float64 // output time: LogicalTime + channel delay, snapped to the channel grid
	Delay       float64 // channel delay included in Time

	Shape     schedule.ShapeID
	Width     float64
	Plateau   float64 // resolved plateau; stretched for flexible plays
	Amplitude float64
	DragCoef  float64

	Frequency        float64 // pulse-local frequency f_p, Hz
	CarrierFrequency float64 // f_c + f_a at the play, Hz
	PhaseOffset      float64 // φ0 + 2π·(pulse phase), radians
	Phase            float64 // instantaneous phase at Time, radians, wrapped to [-π, π]

	// Clipped is set when the pulse runs past the end of the channel record.
	Clipped bool
}

// Duration returns Width + Plateau.
func (p ResolvedPlay) Duration() float64 { return p.Width + p.Plateau }

// PhaseAt returns the pulse's phase in radians at output time t:
//
//	φ_p(t) = φ_c(t - delay) + 2π·f_p·(t - Time) + 2π·(pulse phase)
func (p ResolvedPlay) PhaseAt(t float64) float64 {
	return p.PhaseOffset + 2*math.Pi*p.CarrierFrequency*(t-p.Delay) + 2*math.Pi*p.Frequency*(t-p.Time)
}

// Tracker applies flattened instructions to per-channel states in order.
//
// A Tracker belongs to one compilation and is not safe for concurrent use.
type Tracker struct {
	channels []channel.Info
	states   []State
	policy   channel.Policy
	plays    []ResolvedPlay
	dropped  int
}

// NewTracker returns a Tracker with every channel at f_a = 0, φ0 = 0.
func NewTracker(channels []channel.Info, policy channel.Policy) *Tracker {
	return &Tracker{
		channels: channels,
		states:   make([]State, len(channels)),
		policy:   policy,
	}
}

func (t *Tracker) check(ch int) error {
	if ch < 0 || ch >= len(t.channels) {
		return errors.New(errors.ErrCodeUnknownChannel, "channel %d is not configured (have %d)", ch, len(t.channels))
	}
	return nil
}

// Apply processes one flattened item.
func (t *Tracker) Apply(it flatten.Item) error {
	for _, ch := range schedule.OwnChannels(it.Element) {
		if err := t.check(ch); err != nil {
			return err
		}
	}
	tau := it.Time

	switch e := it.Element.(type) {
	case *schedule.ShiftPhase:
		t.states[e.Channel] = t.states[e.Channel].ShiftPhase(e.Phase)
	case *schedule.SetPhase:
		t.states[e.Channel] = t.states[e.Channel].SetPhase(e.Phase, tau)
	case *schedule.ShiftFrequency:
		t.states[e.Channel] = t.states[e.Channel].ShiftFrequency(e.Frequency, tau)
	case *schedule.SetFrequency:
		t.states[e.Channel] = t.states[e.Channel].SetFrequency(e.Frequency, tau)
	case *schedule.SwapPhase:
		a, b := e.Channel1, e.Channel2
		if a == b {
			return nil
		}
		t.states[a], t.states[b] = SwapPhase(
			t.states[a], t.channels[a].BaseFrequency,
			t.states[b], t.channels[b].BaseFrequency, tau)
	case *schedule.Play:
		t.play(e, it)
	case *schedule.Barrier:
	default:
		return errors.New(errors.ErrCodeInternal, "unexpected %s in instruction stream", schedule.Kind(it.Element))
	}
	return nil
}

func (t *Tracker) play(e *schedule.Play, it flatten.Item) {
	if e.Amplitude == 0 {
		t.dropped++
		return
	}
	info := t.channels[e.Channel]
	st := t.states[e.Channel]

	plateau := e.Plateau
	if e.Flexible {
		plateau = math.Max(it.Duration-e.Width, 0)
	}
	p := ResolvedPlay{
		Channel:          e.Channel,
		ChannelName:      info.Name,
		LogicalTime:      it.Time,
		Time:             info.Quantize(it.Time+info.Delay, t.policy),
		Delay:            info.Delay,
		Shape:            e.Shape,
		Width:            e.Width,
		Plateau:          plateau,
		Amplitude:        e.Amplitude,
		DragCoef:         e.DragCoef,
		Frequency:        e.Frequency,
		CarrierFrequency: info.BaseFrequency + st.Frequency,
		PhaseOffset:      st.Phase + 2*math.Pi*e.Phase,
	}
	p.Phase = Wrap(p.PhaseAt(p.Time))
	if info.Length > 0 {
		window := info.Window()
		p.Clipped = p.Time+p.Duration() > window*(1+1e-12)
	}
	t.plays = append(t.plays, p)
}

// State returns the current state of channel ch.
func (t *Tracker) State(ch int) State { return t.states[ch] }

// Plays returns the resolved plays in emission order.
func (t *Tracker) Plays() []ResolvedPlay { return t.plays }

// Dropped returns how many zero-amplitude plays were skipped.
func (t *Tracker) Dropped() int { return t.dropped }

// Track runs a fresh Tracker over items and returns the resolved plays.
func Track(channels []channel.Info, items []flatten.Item, policy channel.Policy) ([]ResolvedPlay, error) {
	tr := NewTracker(channels, policy)
	for _, it := range items {
		if err := tr.Apply(it); err != nil {
			return nil, err
		}
	}
	return tr.Plays(), nil
}
