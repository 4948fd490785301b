// Package wavelet provides source time functions for seismic simulations.
//
// A wavelet is a pure function of time; it carries no simulation state.
// Both wavelets apply the standard causal delay 2*sqrt(pi)/fcut so the
// signal effectively starts at time zero, plus any user supplied delay.
package wavelet

import "math"

// Wavelet gives the source amplitude at a given time.
type Wavelet interface {
	Amplitude(t float64) float64
}

// Ricker is the second derivative of a Gaussian, the usual choice for
// simulating an impulsive seismic source.
type Ricker struct {
	Amp   float64
	FCut  float64
	Delay float64
}

func NewRicker(amp, fcut float64) *Ricker {
	return &Ricker{Amp: amp, FCut: fcut}
}

func (w *Ricker) Amplitude(t float64) float64 {
	sqrtPi := math.Sqrt(math.Pi)
	fc := w.FCut / (3 * sqrtPi)
	td := t - 2*sqrtPi/w.FCut - w.Delay
	arg := math.Pi * fc * td
	return w.Amp * (2*math.Pi*arg*arg - 1) * math.Exp(-math.Pi*arg*arg)
}

// Gaussian is a smooth bell pulse with cut-off frequency FCut.
type Gaussian struct {
	Amp   float64
	FCut  float64
	Delay float64
}

func NewGaussian(amp, fcut float64) *Gaussian {
	return &Gaussian{Amp: amp, FCut: fcut}
}

func (w *Gaussian) Amplitude(t float64) float64 {
	sqrtPi := math.Sqrt(math.Pi)
	fc := w.FCut / (3 * sqrtPi)
	td := t - 2*sqrtPi/w.FCut - w.Delay
	arg := math.Pi * fc * td
	scale := w.Amp / (2 * math.Pi * (math.Pi * fc) * (math.Pi * fc))
	return scale * math.Exp(-math.Pi*arg*arg)
}
