package metrics

import (
	"math"

	"github.com/san-kum/tremor/internal/grid"
)

// Stability measures the fraction of observed panels whose peak
// amplitude stays below a threshold. A value of 1 means every panel
// stayed bounded; NaN or Inf samples count as violations.
type Stability struct {
	name       string
	threshold  float64
	samples    int
	violations int
}

// NewStability reports the fraction of panels with MaxAbs below
// threshold. A non-positive threshold disables the amplitude check
// and only NaN/Inf samples count.
func NewStability(threshold float64) *Stability {
	return &Stability{name: "stability", threshold: threshold}
}

func (s *Stability) Name() string { return s.name }

func (s *Stability) OnStep(p *grid.Panel, iteration int) {
	s.samples++
	m := p.MaxAbs()
	if math.IsNaN(m) || math.IsInf(m, 0) {
		s.violations++
		return
	}
	if s.threshold > 0 && m >= s.threshold {
		s.violations++
	}
}

func (s *Stability) Value() float64 {
	if s.samples == 0 {
		return 1
	}
	return 1 - float64(s.violations)/float64(s.samples)
}

func (s *Stability) Violations() int { return s.violations }

func (s *Stability) Reset() {
	s.samples = 0
	s.violations = 0
}
