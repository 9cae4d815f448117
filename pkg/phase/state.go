// Package phase tracks the carrier phase and frequency of each channel across
// a flattened schedule.
//
// # Model
//
// Each channel has a fixed carrier frequency f_c (from its configuration) and
// a mutable [State]: an offset frequency f_a and a reference phase φ0, both
// starting at zero. The channel's carrier phase at absolute time t is
//
//	φ_c(t) = 2π·(f_c + f_a)·t + φ0
//
// Frequency and phase instructions change f_a and φ0 so that φ_c stays
// continuous at the instruction time τ. All updates are pure functions on
// State; [Tracker] applies them in emission order and resolves each Play into
// a [ResolvedPlay] ready for sampling.
//
// Phases in instructions are given in cycles; φ0 and every resolved phase are
// in radians.
package phase

import "math"

// State is the mutable phase/frequency state of one channel.
type State struct {
	Frequency float64 // offset frequency f_a, Hz
	Phase     float64 // reference phase φ0, radians
}

// At returns the carrier phase φ_c(t) in radians for a channel with carrier
// frequency fc.
func (s State) At(fc, t float64) float64 {
	return 2*math.Pi*(fc+s.Frequency)*t + s.Phase
}

// ShiftPhase adds dphi cycles to the reference phase.
func (s State) ShiftPhase(dphi float64) State {
	s.Phase += 2 * math.Pi * dphi
	return s
}

// SetPhase makes the offset phase 2π·f_a·τ + φ0 equal phi cycles at time tau.
func (s State) SetPhase(phi, tau float64) State {
	s.Phase = 2*math.Pi*phi - 2*math.Pi*s.Frequency*tau
	return s
}

// SetFrequency changes f_a to f at time tau, adjusting φ0 so the phase is
// continuous at tau.
func (s State) SetFrequency(f, tau float64) State {
	s.Phase += 2 * math.Pi * tau * (s.Frequency - f)
	s.Frequency = f
	return s
}

// ShiftFrequency adds df to f_a at time tau, keeping the phase continuous.
func (s State) ShiftFrequency(df, tau float64) State {
	return s.SetFrequency(s.Frequency+df, tau)
}

// SwapPhase exchanges the carrier phases of two channels at time tau: after
// the swap, each channel's φ_c(tau) equals the other's value before it.
// Offset frequencies are unchanged.
func SwapPhase(a State, fcA float64, b State, fcB float64, tau float64) (State, State) {
	diff := 2 * math.Pi * ((fcB + b.Frequency) - (fcA + a.Frequency)) * tau
	a.Phase, b.Phase = b.Phase+diff, a.Phase-diff
	return a, b
}

// Wrap maps x into [-π, π].
func Wrap(x float64) float64 {
	return math.Remainder(x, 2*math.Pi)
}
