// Package seismic drives incremental 2D finite-difference simulations.
//
// A Simulation owns the double-buffered time-stepping loop and commits
// every produced panel to a growable on-disk store, so a run can be
// extended with further Run calls — in the same process or after
// reopening the store — without recomputing earlier steps.
//
// Simulation instances are NOT safe for concurrent use. A second,
// independent process may open the store read-only while a run is in
// progress, as long as it only reads slots below the committed count it
// observed.
package seismic

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/san-kum/tremor/internal/grid"
	"github.com/san-kum/tremor/internal/report"
	"github.com/san-kum/tremor/internal/store"
	"github.com/san-kum/tremor/internal/wavelet"
)

// Default boundary-absorption policy values.
const (
	DefaultPadding = 50
	DefaultTaper   = 0.007
)

// Params describe the simulated domain. Rows and Cols are the unpadded
// physical shape; panels carry an extra Padding ring on every side.
type Params struct {
	Rows, Cols int
	DX, DZ     float64 // DZ == 0 means isotropic spacing DX
	Dt         float64 // 0 means derive from the kernel's stable-step rule
	Padding    int
	Taper      float64
	Store      store.Options
}

func DefaultParams(rows, cols int, spacing float64) Params {
	return Params{
		Rows:    rows,
		Cols:    cols,
		DX:      spacing,
		DZ:      spacing,
		Padding: DefaultPadding,
		Taper:   DefaultTaper,
	}
}

type Simulation struct {
	kernel    StepKernel
	st        *store.Store
	reporter  report.Reporter
	observers []Observer

	rows, cols int
	dx, dz     float64
	dt         float64
	padding    int
	taper      float64
	storeOpts  store.Options

	simsize  int
	position int
	sources  []Source
	buf      []*grid.Panel
}

// New validates the domain parameters and binds the simulation to a
// store handle. A nil store means a transient one in a temp file. The
// store's file is not touched until the first Run call.
func New(kernel StepKernel, p Params, st *store.Store) (*Simulation, error) {
	if p.Rows <= 0 || p.Cols <= 0 {
		return nil, fmt.Errorf("%w: got (%d, %d)", ErrBadShape, p.Rows, p.Cols)
	}
	if p.DX <= 0 || p.DZ < 0 {
		return nil, fmt.Errorf("%w: dx=%g dz=%g", ErrBadSpacing, p.DX, p.DZ)
	}
	if p.DZ == 0 {
		p.DZ = p.DX
	}
	if p.Padding < 0 {
		return nil, fmt.Errorf("%w: got %d", ErrBadPadding, p.Padding)
	}

	dt := p.Dt
	if dt == 0 {
		ss, ok := kernel.(StableStepper)
		if !ok {
			return nil, ErrNoTimeStep
		}
		dt = ss.StableDt(p.DX, p.DZ)
	}
	if dt <= 0 {
		return nil, fmt.Errorf("seismic: dt must be positive, got %g", dt)
	}
	if ts, ok := kernel.(TimeStepSetter); ok {
		ts.SetDt(dt)
	}

	if st == nil {
		f, err := os.CreateTemp("", "tremor-*.trm")
		if err != nil {
			return nil, err
		}
		f.Close()
		st = store.New(f.Name())
	}

	return &Simulation{
		kernel:    kernel,
		st:        st,
		reporter:  report.Nop{},
		rows:      p.Rows,
		cols:      p.Cols,
		dx:        p.DX,
		dz:        p.DZ,
		dt:        dt,
		padding:   p.Padding,
		taper:     p.Taper,
		storeOpts: p.Store,
		position:  -1,
	}, nil
}

// Resume rebuilds a simulation from a previously written store, using
// the metadata and model persisted there. The kernel must already be
// configured with the stored model; Resume re-attaches the persisted
// sources to it.
func Resume(kernel StepKernel, st *store.Store) (*Simulation, error) {
	var m Meta
	if err := st.Meta(&m); err != nil {
		return nil, err
	}
	if m.Rows <= 0 || m.Cols <= 0 {
		return nil, fmt.Errorf("%w: stored shape (%d, %d)", ErrBadShape, m.Rows, m.Cols)
	}

	s := &Simulation{
		kernel:    kernel,
		st:        st,
		reporter:  report.Nop{},
		rows:      m.Rows,
		cols:      m.Cols,
		dx:        m.DX,
		dz:        m.DZ,
		dt:        m.Dt,
		padding:   m.Padding,
		taper:     m.Taper,
		storeOpts: st.Options(),
		simsize:   st.Committed(),
		position:  st.Committed() - 1,
	}
	if ts, ok := kernel.(TimeStepSetter); ok {
		ts.SetDt(m.Dt)
	}
	for _, sm := range m.Sources {
		src, err := sm.source()
		if err != nil {
			return nil, err
		}
		if err := s.AddSource(src.Row, src.Col, src.Wavelet); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// AddSource registers a wavelet source at an unpadded grid location and
// forwards it to the kernel if the kernel accepts sources. Sources are
// append-only and should be placed before the first Run call.
func (s *Simulation) AddSource(row, col int, w wavelet.Wavelet) error {
	if row < 0 || row >= s.rows || col < 0 || col >= s.cols {
		return fmt.Errorf("%w: (%d, %d) in (%d, %d)", ErrSourceOutOfBounds, row, col, s.rows, s.cols)
	}
	src := Source{Row: row, Col: col, Wavelet: w}
	if sink, ok := s.kernel.(SourceSink); ok {
		if err := sink.AddSource(src); err != nil {
			return err
		}
	}
	s.sources = append(s.sources, src)
	return nil
}

func (s *Simulation) AddObserver(o Observer) { s.observers = append(s.observers, o) }

func (s *Simulation) SetReporter(r report.Reporter) {
	if r == nil {
		r = report.Nop{}
	}
	s.reporter = r
}

// Run executes the given number of time steps, committing each produced
// panel to the store. The first call initializes the store with
// capacity equal to iterations; later calls grow it by exactly
// iterations, so storage layout changes happen once per call rather
// than once per step. Zero iterations is a validated no-op.
//
// A kernel or store failure aborts the run before the failing step is
// counted; steps committed earlier in the same call stay committed, and
// calling Run again resumes from the last committed step.
// Cancellation is checked only between steps.
func (s *Simulation) Run(ctx context.Context, iterations int) error {
	if iterations < 0 {
		return fmt.Errorf("%w: got %d", ErrBadIterations, iterations)
	}

	prows, pcols := s.PaddedShape()
	if !s.st.Initialized() {
		if err := s.st.Initialize(prows, pcols, iterations, s.storeOpts); err != nil {
			return err
		}
		if mp, ok := s.kernel.(ModelProvider); ok {
			if err := s.st.WriteModel(mp.Model()); err != nil {
				return err
			}
		}
	} else if iterations > 0 {
		if err := s.st.Grow(iterations); err != nil {
			return err
		}
	}
	if err := s.writeMeta(); err != nil {
		return err
	}

	if err := s.ensureBuffers(); err != nil {
		return err
	}

	start := time.Now()
	for i := 0; i < iterations; i++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		// Role rotation by absolute-iteration parity: the buffer written
		// this step is the one holding the stale panel from two steps ago.
		it := s.simsize
		cur := it % 2
		prev := 1 - cur

		if err := s.kernel.Advance(s.buf, prev, cur, it); err != nil {
			return &StepError{Iteration: it, Committed: i, Err: err}
		}
		if err := s.st.WriteSlot(it, s.buf[prev]); err != nil {
			return &StepError{Iteration: it, Committed: i, Err: err}
		}
		s.simsize++
		s.position++

		for _, o := range s.observers {
			o.OnStep(s.buf[prev], it)
		}
		s.reporter.Update(i+1, iterations, time.Since(start))
	}

	return nil
}

// Frame returns the stored panel at the given absolute iteration.
// Negative indices count back from the end, so Frame(-1) is the most
// recently committed panel.
func (s *Simulation) Frame(index int) (*grid.Panel, error) {
	resolved := index
	if resolved < 0 {
		resolved += s.simsize
	}
	if resolved < 0 || resolved >= s.simsize {
		return nil, fmt.Errorf("%w: frame %d, committed %d", ErrFrameOutOfRange, index, s.simsize)
	}
	return s.st.ReadSlot(resolved)
}

// Size is the total number of committed panels across all Run calls.
func (s *Simulation) Size() int { return s.simsize }

// Position is the absolute iteration of the most recently committed
// panel, or -1 before any step has run.
func (s *Simulation) Position() int { return s.position }

func (s *Simulation) Shape() (int, int) { return s.rows, s.cols }

func (s *Simulation) Spacing() (float64, float64) { return s.dx, s.dz }

func (s *Simulation) Dt() float64 { return s.dt }

func (s *Simulation) Padding() int { return s.padding }

func (s *Simulation) Taper() float64 { return s.taper }

func (s *Simulation) Sources() []Source { return s.sources }

func (s *Simulation) Store() *store.Store { return s.st }

// PaddedShape is the panel shape actually simulated and stored.
func (s *Simulation) PaddedShape() (int, int) {
	return s.rows + 2*s.padding, s.cols + 2*s.padding
}

// Close releases the store's file handle. The simulation can not be
// extended afterwards without reopening the store.
func (s *Simulation) Close() error {
	return s.st.Close()
}

func (s *Simulation) writeMeta() error {
	m := Meta{
		Rows:    s.rows,
		Cols:    s.cols,
		DX:      s.dx,
		DZ:      s.dz,
		Dt:      s.dt,
		Padding: s.padding,
		Taper:   s.taper,
	}
	if n, ok := s.kernel.(interface{ Name() string }); ok {
		m.Kernel = n.Name()
	}
	for _, src := range s.sources {
		sm, err := sourceMeta(src)
		if err != nil {
			return err
		}
		m.Sources = append(m.Sources, sm)
	}
	return s.st.SetMeta(m)
}

// ensureBuffers allocates the double buffer on first use. When the
// simulation resumes from committed panels, the two most recent ones
// are loaded into the roles the next step expects.
func (s *Simulation) ensureBuffers() error {
	if s.buf != nil {
		return nil
	}
	prows, pcols := s.PaddedShape()
	s.buf = []*grid.Panel{grid.NewPanel(prows, pcols), grid.NewPanel(prows, pcols)}

	if s.simsize > 0 {
		cur := s.simsize % 2
		last, err := s.st.ReadSlot(s.simsize - 1)
		if err != nil {
			return err
		}
		if !s.buf[cur].CopyFrom(last) {
			return fmt.Errorf("%w: stored panel is %dx%d, expected %dx%d",
				ErrBadShape, last.Rows, last.Cols, prows, pcols)
		}
		if s.simsize > 1 {
			before, err := s.st.ReadSlot(s.simsize - 2)
			if err != nil {
				return err
			}
			if !s.buf[1-cur].CopyFrom(before) {
				return fmt.Errorf("%w: stored panel is %dx%d, expected %dx%d",
					ErrBadShape, before.Rows, before.Cols, prows, pcols)
			}
		}
	}
	return nil
}
