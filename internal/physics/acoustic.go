// Package physics provides concrete finite-difference step kernels for
// the seismic simulation driver. Kernels own the physical-property
// model and the governing equations; scheduling, buffering and storage
// stay with [seismic.Simulation].
package physics

import (
	"errors"
	"math"

	"github.com/san-kum/tremor/internal/grid"
	"github.com/san-kum/tremor/internal/seismic"
	"github.com/san-kum/tremor/internal/store"
)

// ErrBadVelocity indicates a velocity model with non-positive samples.
var ErrBadVelocity = errors.New("physics: velocity must be positive everywhere")

// cflFactor keeps the explicit scheme inside its stability bound for
// the 4th-order Laplacian.
const cflFactor = 0.3

// Acoustic solves the 2D scalar acoustic wave equation
//
//	d2u/dt2 = v^2 (d2u/dx2 + d2u/dz2)
//
// with a 2nd-order time, 4th-order space explicit scheme, a Cerjan
// style exponential absorbing taper on the padded boundary ring, and
// additive wavelet sources.
type Acoustic struct {
	velocity *grid.Panel // padded shape
	dx, dz   float64
	dt       float64
	padding  int
	factors  []float64 // absorption factor by distance from the padded edge
	sources  []seismic.Source
	vmax     float64
}

// NewAcoustic builds the kernel from an unpadded velocity model. The
// model is extended into the padding ring by edge replication.
func NewAcoustic(velocity *grid.Panel, dx, dz float64, padding int, taper float64) (*Acoustic, error) {
	padded := padModel(velocity, padding)
	return newPadded(padded, dx, dz, padding, taper)
}

func newPadded(velocity *grid.Panel, dx, dz float64, padding int, taper float64) (*Acoustic, error) {
	vmax := 0.0
	for _, v := range velocity.Data {
		if v <= 0 {
			return nil, ErrBadVelocity
		}
		if v > vmax {
			vmax = v
		}
	}

	factors := make([]float64, padding)
	for i := range factors {
		d := taper * float64(padding-i)
		factors[i] = math.Exp(-d * d)
	}

	return &Acoustic{
		velocity: velocity,
		dx:       dx,
		dz:       dz,
		padding:  padding,
		factors:  factors,
		vmax:     vmax,
	}, nil
}

// FromStore reopens a persisted acoustic simulation for extension,
// rebuilding the kernel from the stored velocity model and metadata.
func FromStore(path string) (*seismic.Simulation, error) {
	st, err := store.Open(path)
	if err != nil {
		return nil, err
	}

	var m seismic.Meta
	if err := st.Meta(&m); err != nil {
		st.Close()
		return nil, err
	}
	model, err := st.ReadModel()
	if err != nil {
		st.Close()
		return nil, err
	}
	k, err := newPadded(model, m.DX, m.DZ, m.Padding, m.Taper)
	if err != nil {
		st.Close()
		return nil, err
	}

	sim, err := seismic.Resume(k, st)
	if err != nil {
		st.Close()
		return nil, err
	}
	return sim, nil
}

func (a *Acoustic) Name() string { return "acoustic" }

func (a *Acoustic) SetDt(dt float64) { a.dt = dt }

// StableDt returns a CFL-safe time step for the grid increments.
func (a *Acoustic) StableDt(dx, dz float64) float64 {
	return cflFactor * math.Min(dx, dz) / a.vmax
}

// Model exposes the padded velocity panel for persistence.
func (a *Acoustic) Model() *grid.Panel { return a.velocity.Clone() }

func (a *Acoustic) AddSource(src seismic.Source) error {
	a.sources = append(a.sources, src)
	return nil
}

// Advance computes the panel for the given absolute iteration into
// buf[prev], reading buf[cur] (time t) and buf[prev] (time t-dt)
// in place. Each prev cell is read exactly once before it is written.
func (a *Acoustic) Advance(buf []*grid.Panel, prev, cur, iteration int) error {
	u := buf[cur]
	next := buf[prev]
	rows, cols := u.Rows, u.Cols

	dt2 := a.dt * a.dt
	ix2 := 1 / (12 * a.dx * a.dx)
	iz2 := 1 / (12 * a.dz * a.dz)

	for i := 2; i < rows-2; i++ {
		for j := 2; j < cols-2; j++ {
			idx := i*cols + j
			lapX := (-u.Data[idx-2] + 16*u.Data[idx-1] - 30*u.Data[idx] + 16*u.Data[idx+1] - u.Data[idx+2]) * ix2
			lapZ := (-u.Data[idx-2*cols] + 16*u.Data[idx-cols] - 30*u.Data[idx] + 16*u.Data[idx+cols] - u.Data[idx+2*cols]) * iz2
			v := a.velocity.Data[idx]
			next.Data[idx] = 2*u.Data[idx] - next.Data[idx] + dt2*v*v*(lapX+lapZ)
		}
	}

	t := float64(iteration) * a.dt
	for _, src := range a.sources {
		r := src.Row + a.padding
		c := src.Col + a.padding
		next.Set(r, c, next.At(r, c)+src.Wavelet.Amplitude(t)*dt2)
	}

	// Damp both time levels in the absorbing ring so reflections decay
	// across steps instead of bouncing back into the domain.
	a.applyTaper(next)
	a.applyTaper(u)

	if !next.IsValid() {
		return seismic.ErrUnstable
	}
	return nil
}

func (a *Acoustic) applyTaper(p *grid.Panel) {
	rows, cols := p.Rows, p.Cols
	for d, f := range a.factors {
		top := d * cols
		bottom := (rows - 1 - d) * cols
		for j := 0; j < cols; j++ {
			p.Data[top+j] *= f
			p.Data[bottom+j] *= f
		}
		for i := 0; i < rows; i++ {
			p.Data[i*cols+d] *= f
			p.Data[i*cols+cols-1-d] *= f
		}
	}
}

// padModel extends the physical model into the padding ring by
// replicating its edge values.
func padModel(m *grid.Panel, padding int) *grid.Panel {
	rows, cols := m.Rows+2*padding, m.Cols+2*padding
	p := grid.NewPanel(rows, cols)
	for i := 0; i < rows; i++ {
		si := clamp(i-padding, 0, m.Rows-1)
		for j := 0; j < cols; j++ {
			sj := clamp(j-padding, 0, m.Cols-1)
			p.Set(i, j, m.At(si, sj))
		}
	}
	return p
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// UniformModel builds a constant-velocity physical model.
func UniformModel(rows, cols int, velocity float64) *grid.Panel {
	p := grid.NewPanel(rows, cols)
	p.Fill(velocity)
	return p
}

// Layer is one horizontal band of a layered velocity model.
type Layer struct {
	Rows     int
	Velocity float64
}

// LayeredModel stacks horizontal layers from the top down; the last
// layer's velocity fills any remaining rows.
func LayeredModel(rows, cols int, layers []Layer) *grid.Panel {
	p := grid.NewPanel(rows, cols)
	if len(layers) == 0 {
		return p
	}
	row := 0
	for _, l := range layers {
		for r := 0; r < l.Rows && row < rows; r++ {
			for j := 0; j < cols; j++ {
				p.Set(row, j, l.Velocity)
			}
			row++
		}
	}
	last := layers[len(layers)-1].Velocity
	for ; row < rows; row++ {
		for j := 0; j < cols; j++ {
			p.Set(row, j, last)
		}
	}
	return p
}
