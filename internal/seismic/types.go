package seismic

import (
	"github.com/san-kum/tremor/internal/grid"
	"github.com/san-kum/tremor/internal/wavelet"
)

// StepKernel advances the wavefield by one time step. Advance reads
// buf[prev] and buf[cur] and writes the new panel into buf[prev], which
// the driver then treats as the freshly produced frame. The iteration
// argument is the absolute, simulation-wide step counter. Advance must
// be deterministic given identical buffer contents and iteration.
type StepKernel interface {
	Advance(buf []*grid.Panel, prev, cur, iteration int) error
}

// StableStepper is an optional kernel capability supplying a stable
// time step for the given grid increments when the caller gave none.
type StableStepper interface {
	StableDt(dx, dz float64) float64
}

// TimeStepSetter is an optional kernel capability through which the
// driver hands the kernel the resolved time step before stepping.
type TimeStepSetter interface {
	SetDt(dt float64)
}

// SourceSink is an optional kernel capability accepting seismic sources.
// Kernels without sources simply propagate the initial field.
type SourceSink interface {
	AddSource(src Source) error
}

// ModelProvider is an optional kernel capability exposing the padded
// physical-property panel (e.g. velocity) for persistence.
type ModelProvider interface {
	Model() *grid.Panel
}

// Source places a wavelet at a physical-domain grid location.
// Row and Col are unpadded coordinates.
type Source struct {
	Row, Col int
	Wavelet  wavelet.Wavelet
}

// Observer is notified after each committed step with the panel that
// was just stored. The panel is the driver's live buffer; observers
// must copy it if they keep it past the call.
type Observer interface {
	OnStep(p *grid.Panel, iteration int)
}
