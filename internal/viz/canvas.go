package viz

import (
	"strings"

	"github.com/san-kum/tremor/internal/grid"
)

// Braille Patterns: 2x4 dots
// 1 4
// 2 5
// 3 6
// 7 8
//
// Unicode offset 0x2800
var pixelMap = [4][2]int{
	{0x1, 0x8},
	{0x2, 0x10},
	{0x4, 0x20},
	{0x40, 0x80},
}

// Canvas is a Braille pixel canvas. Each terminal cell holds a 2x4
// dot block, so the drawable area is (Width*2) x (Height*4) pixels.
type Canvas struct {
	Width, Height int
	Grid          [][]rune
}

func NewCanvas(w, h int) *Canvas {
	c := &Canvas{
		Width:  w,
		Height: h,
		Grid:   make([][]rune, h),
	}
	for i := range c.Grid {
		c.Grid[i] = make([]rune, w)
		for j := range c.Grid[i] {
			c.Grid[i][j] = 0x2800 // Empty braille char
		}
	}
	return c
}

// Set turns on the pixel at (x, y) in sub-pixel coordinates.
func (c *Canvas) Set(x, y int) {
	if x < 0 || y < 0 {
		return
	}

	col := x / 2
	row := y / 4
	if col >= c.Width || row >= c.Height {
		return
	}

	subX := x % 2
	subY := y % 4

	c.Grid[row][col] |= rune(pixelMap[subY][subX])
}

// Clear resets the canvas
func (c *Canvas) Clear() {
	for i := range c.Grid {
		for j := range c.Grid[i] {
			c.Grid[i][j] = 0x2800
		}
	}
}

// DrawPanel plots the wavefront of p onto the canvas: every sample
// whose amplitude exceeds threshold times the panel peak sets the
// corresponding pixel. A threshold of zero defaults to 0.1.
func (c *Canvas) DrawPanel(p *grid.Panel, threshold float64) {
	if threshold <= 0 {
		threshold = 0.1
	}
	peak := p.MaxAbs()
	if peak == 0 {
		return
	}
	cut := threshold * peak

	px := c.Width * 2
	py := c.Height * 4
	for y := 0; y < py; y++ {
		i := y * p.Rows / py
		for x := 0; x < px; x++ {
			j := x * p.Cols / px
			v := p.At(i, j)
			if v < 0 {
				v = -v
			}
			if v >= cut {
				c.Set(x, y)
			}
		}
	}
}

func (c *Canvas) String() string {
	var b strings.Builder
	for _, row := range c.Grid {
		b.WriteString(string(row) + "\n")
	}
	return b.String()
}
