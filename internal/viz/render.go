package viz

import (
	"strings"

	"github.com/san-kum/tremor/internal/grid"
)

// ramp maps normalized amplitude to a character, dark to bright.
const ramp = " .:-=+*#%@"

// Render draws p as a character heatmap of at most width x height
// cells. Amplitudes are normalized against the panel peak, so a quiet
// panel renders as blanks. Signed amplitude is discarded.
func Render(p *grid.Panel, width, height int) string {
	if width <= 0 {
		width = 80
	}
	if height <= 0 {
		height = 24
	}
	if p.Cols < width {
		width = p.Cols
	}
	if p.Rows < height {
		height = p.Rows
	}

	peak := p.MaxAbs()

	var b strings.Builder
	b.Grow((width + 1) * height)
	for y := 0; y < height; y++ {
		i := y * p.Rows / height
		for x := 0; x < width; x++ {
			j := x * p.Cols / width
			b.WriteByte(sampleChar(p.At(i, j), peak))
		}
		b.WriteByte('\n')
	}
	return b.String()
}

func sampleChar(v, peak float64) byte {
	if peak == 0 {
		return ramp[0]
	}
	if v < 0 {
		v = -v
	}
	k := int(v / peak * float64(len(ramp)))
	if k >= len(ramp) {
		k = len(ramp) - 1
	}
	return ramp[k]
}
