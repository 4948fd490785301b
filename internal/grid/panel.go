package grid

import "math"

// Panel is one 2D snapshot of a simulated field, stored row-major.
type Panel struct {
	Rows, Cols int
	Data       []float64
}

func NewPanel(rows, cols int) *Panel {
	return &Panel{
		Rows: rows,
		Cols: cols,
		Data: make([]float64, rows*cols),
	}
}

func (p *Panel) At(row, col int) float64 {
	return p.Data[row*p.Cols+col]
}

func (p *Panel) Set(row, col int, v float64) {
	p.Data[row*p.Cols+col] = v
}

func (p *Panel) Clone() *Panel {
	c := NewPanel(p.Rows, p.Cols)
	copy(c.Data, p.Data)
	return c
}

// CopyFrom overwrites p's samples with src's. Shapes must match;
// it reports whether the copy happened.
func (p *Panel) CopyFrom(src *Panel) bool {
	if !p.SameShape(src) {
		return false
	}
	copy(p.Data, src.Data)
	return true
}

func (p *Panel) Fill(v float64) {
	for i := range p.Data {
		p.Data[i] = v
	}
}

// SameShape reports whether q has the same dimensions as p.
func (p *Panel) SameShape(q *Panel) bool {
	return p.Rows == q.Rows && p.Cols == q.Cols
}

func (p *Panel) IsValid() bool {
	for _, v := range p.Data {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// MaxAbs returns the largest absolute sample value.
func (p *Panel) MaxAbs() float64 {
	m := 0.0
	for _, v := range p.Data {
		if a := math.Abs(v); a > m {
			m = a
		}
	}
	return m
}

// Max returns the largest sample value.
func (p *Panel) Max() float64 {
	if len(p.Data) == 0 {
		return 0
	}
	m := p.Data[0]
	for _, v := range p.Data[1:] {
		if v > m {
			m = v
		}
	}
	return m
}

// Energy returns the sum of squared samples.
func (p *Panel) Energy() float64 {
	sum := 0.0
	for _, v := range p.Data {
		sum += v * v
	}
	return sum
}
