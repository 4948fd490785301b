// Package export writes wavefield panels and receiver traces to
// CSV, JSON and SVG for downstream analysis.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/san-kum/tremor/internal/grid"
	"github.com/san-kum/tremor/internal/store"
)

// PanelCSV writes p as a CSV grid, one row per line.
func PanelCSV(w io.Writer, p *grid.Panel) error {
	cw := csv.NewWriter(w)
	row := make([]string, p.Cols)
	for i := 0; i < p.Rows; i++ {
		for j := 0; j < p.Cols; j++ {
			row[j] = strconv.FormatFloat(p.At(i, j), 'g', -1, 64)
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// Trace reads the amplitude at receiver (row, col) across every
// committed frame of st, in frame order.
func Trace(st *store.Store, row, col int) ([]float64, error) {
	rows, cols := st.Shape()
	if row < 0 || row >= rows || col < 0 || col >= cols {
		return nil, fmt.Errorf("receiver (%d, %d) outside %dx%d grid", row, col, rows, cols)
	}

	n := st.Committed()
	samples := make([]float64, n)
	for i := 0; i < n; i++ {
		p, err := st.ReadSlot(i)
		if err != nil {
			return nil, fmt.Errorf("read frame %d: %w", i, err)
		}
		samples[i] = p.At(row, col)
	}
	return samples, nil
}

// TracePhysical reads the amplitude at an unpadded grid position.
// Stored panels carry the absorbing-boundary ring, so the receiver
// shifts by padding before indexing into the panel.
func TracePhysical(st *store.Store, row, col, padding int) ([]float64, error) {
	return Trace(st, row+padding, col+padding)
}

// TraceCSV writes samples as (time, amplitude) pairs spaced dt apart.
func TraceCSV(w io.Writer, samples []float64, dt float64) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"time", "amplitude"}); err != nil {
		return err
	}
	for i, v := range samples {
		rec := []string{
			strconv.FormatFloat(float64(i)*dt, 'f', 6, 64),
			strconv.FormatFloat(v, 'g', -1, 64),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// TraceRecord is the JSON form of a receiver trace.
type TraceRecord struct {
	Row     int       `json:"row"`
	Col     int       `json:"col"`
	Dt      float64   `json:"dt"`
	Samples []float64 `json:"samples"`
}

// TraceJSON writes samples with receiver position and sampling
// interval as indented JSON.
func TraceJSON(w io.Writer, row, col int, dt float64, samples []float64) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(TraceRecord{Row: row, Col: col, Dt: dt, Samples: samples})
}
