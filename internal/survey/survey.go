// Package survey fires multiple shots concurrently, one simulation
// per shot, and gathers the receiver traces from each run.
package survey

import (
	"context"
	"sync"

	"github.com/san-kum/tremor/internal/export"
	"github.com/san-kum/tremor/internal/seismic"
	"github.com/san-kum/tremor/internal/wavelet"
)

// Shot is a single source activation.
type Shot struct {
	Row, Col int
	Wavelet  wavelet.Wavelet
}

// Receiver marks a grid position whose amplitude is recorded.
type Receiver struct {
	Row, Col int
}

// Record holds the traces one shot produced, one per receiver.
type Record struct {
	Shot   Shot
	Traces [][]float64
}

// Builder creates a fresh simulation for one shot. Every concurrent
// run gets its own simulation and store.
type Builder func() (*seismic.Simulation, error)

type Survey struct {
	build     Builder
	steps     int
	receivers []Receiver
}

func New(build Builder, steps int, receivers []Receiver) *Survey {
	return &Survey{build: build, steps: steps, receivers: receivers}
}

// Run fires every shot concurrently and collects the receiver
// traces. Any failure aborts the whole gather.
func (s *Survey) Run(ctx context.Context, shots []Shot) ([]*Record, error) {
	records := make([]*Record, len(shots))
	errs := make([]error, len(shots))

	var wg sync.WaitGroup
	for i := range shots {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			records[idx], errs[idx] = s.fire(ctx, shots[idx])
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return records, nil
}

func (s *Survey) fire(ctx context.Context, shot Shot) (*Record, error) {
	sim, err := s.build()
	if err != nil {
		return nil, err
	}
	defer sim.Close()

	if err := sim.AddSource(shot.Row, shot.Col, shot.Wavelet); err != nil {
		return nil, err
	}
	if err := sim.Run(ctx, s.steps); err != nil {
		return nil, err
	}

	pad := sim.Padding()
	rec := &Record{Shot: shot, Traces: make([][]float64, len(s.receivers))}
	for j, r := range s.receivers {
		tr, err := export.TracePhysical(sim.Store(), r.Row, r.Col, pad)
		if err != nil {
			return nil, err
		}
		rec.Traces[j] = tr
	}
	return rec, nil
}
