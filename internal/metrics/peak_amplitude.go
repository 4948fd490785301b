package metrics

import (
	"github.com/san-kum/tremor/internal/grid"
)

// PeakAmplitude tracks the largest absolute sample seen across all
// observed panels, along with the iteration it occurred at.
type PeakAmplitude struct {
	name    string
	samples int
	peak    float64
	peakAt  int
}

func NewPeakAmplitude() *PeakAmplitude {
	return &PeakAmplitude{name: "peak_amplitude", peakAt: -1}
}

func (a *PeakAmplitude) Name() string { return a.name }

func (a *PeakAmplitude) OnStep(p *grid.Panel, iteration int) {
	a.samples++
	if m := p.MaxAbs(); m > a.peak {
		a.peak = m
		a.peakAt = iteration
	}
}

func (a *PeakAmplitude) Value() float64 { return a.peak }

// Iteration returns the step at which the peak occurred, or -1 when
// no panels have been observed.
func (a *PeakAmplitude) Iteration() int { return a.peakAt }

func (a *PeakAmplitude) Reset() {
	a.samples = 0
	a.peak = 0
	a.peakAt = -1
}
