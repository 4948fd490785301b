package seismic

import (
	"fmt"

	"github.com/san-kum/tremor/internal/wavelet"
)

// Meta is the simulation description persisted in the store header so a
// finished simulation can be reopened and extended later.
type Meta struct {
	Rows    int          `json:"rows"`
	Cols    int          `json:"cols"`
	DX      float64      `json:"dx"`
	DZ      float64      `json:"dz"`
	Dt      float64      `json:"dt"`
	Padding int          `json:"padding"`
	Taper   float64      `json:"taper"`
	Kernel  string       `json:"kernel,omitempty"`
	Sources []SourceMeta `json:"sources,omitempty"`
}

// SourceMeta is the serializable form of a Source.
type SourceMeta struct {
	Row     int     `json:"row"`
	Col     int     `json:"col"`
	Wavelet string  `json:"wavelet"`
	Amp     float64 `json:"amp"`
	FCut    float64 `json:"fcut"`
	Delay   float64 `json:"delay,omitempty"`
}

func sourceMeta(src Source) (SourceMeta, error) {
	switch w := src.Wavelet.(type) {
	case *wavelet.Ricker:
		return SourceMeta{Row: src.Row, Col: src.Col, Wavelet: "ricker", Amp: w.Amp, FCut: w.FCut, Delay: w.Delay}, nil
	case *wavelet.Gaussian:
		return SourceMeta{Row: src.Row, Col: src.Col, Wavelet: "gaussian", Amp: w.Amp, FCut: w.FCut, Delay: w.Delay}, nil
	}
	return SourceMeta{}, fmt.Errorf("seismic: wavelet %T cannot be persisted", src.Wavelet)
}

func (m SourceMeta) source() (Source, error) {
	switch m.Wavelet {
	case "ricker":
		return Source{Row: m.Row, Col: m.Col, Wavelet: &wavelet.Ricker{Amp: m.Amp, FCut: m.FCut, Delay: m.Delay}}, nil
	case "gaussian":
		return Source{Row: m.Row, Col: m.Col, Wavelet: &wavelet.Gaussian{Amp: m.Amp, FCut: m.FCut, Delay: m.Delay}}, nil
	}
	return Source{}, fmt.Errorf("seismic: unknown wavelet kind %q", m.Wavelet)
}
