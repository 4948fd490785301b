// Package metrics provides wavefield observers that accumulate summary
// statistics over committed panels. Each metric implements
// [seismic.Observer] and can be attached to a running simulation.
package metrics

import (
	"github.com/san-kum/tremor/internal/grid"
)

// FieldEnergy tracks the sum of squared samples of each committed
// panel. Value reports the mean over all observed panels.
type FieldEnergy struct {
	name    string
	samples int
	total   float64
	last    float64
	peak    float64
}

func NewFieldEnergy() *FieldEnergy {
	return &FieldEnergy{name: "field_energy"}
}

func (e *FieldEnergy) Name() string { return e.name }

func (e *FieldEnergy) OnStep(p *grid.Panel, iteration int) {
	en := p.Energy()
	e.total += en
	e.last = en
	if en > e.peak {
		e.peak = en
	}
	e.samples++
}

func (e *FieldEnergy) Value() float64 {
	if e.samples == 0 {
		return 0
	}
	return e.total / float64(e.samples)
}

func (e *FieldEnergy) Last() float64 { return e.last }
func (e *FieldEnergy) Peak() float64 { return e.peak }

func (e *FieldEnergy) Reset() {
	e.samples = 0
	e.total = 0
	e.last = 0
	e.peak = 0
}
