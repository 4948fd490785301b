// Package report delivers simulation progress to a pluggable sink.
// Reporting is advisory only; it never affects simulation state.
package report

import (
	"fmt"
	"io"
	"strings"
	"time"
)

// Reporter consumes per-step progress. Update is called once per
// committed step with the steps done so far in the current run, the
// run's total, and the elapsed wall time.
type Reporter interface {
	Update(step, total int, elapsed time.Duration)
}

// Nop discards all progress.
type Nop struct{}

func (Nop) Update(int, int, time.Duration) {}

// Bar renders a terminal progress bar, redrawn in place on each update
// and finished with a newline once the run completes.
type Bar struct {
	w     io.Writer
	width int
}

func NewBar(w io.Writer) *Bar {
	return &Bar{w: w, width: 50}
}

func (b *Bar) Update(step, total int, elapsed time.Duration) {
	if total <= 0 {
		return
	}
	tics := b.width * step / total
	percent := 100 * step / total
	fmt.Fprintf(b.w, "\r[%-*s] | %d%% Completed | %s", b.width, strings.Repeat("#", tics), percent, FormatDuration(elapsed))
	if step == total {
		fmt.Fprintln(b.w)
	}
}

// FormatDuration renders elapsed time in a compact human form, e.g.
// "10.4s", "16min 40.4s" or " 1hr  2min  3.0s".
func FormatDuration(d time.Duration) string {
	t := d.Seconds()
	m := int(t) / 60
	s := t - float64(m)*60
	h := m / 60
	m = m % 60
	switch {
	case h > 0:
		return fmt.Sprintf("%2dhr %2dmin %4.1fs", h, m, s)
	case m > 0:
		return fmt.Sprintf("%2dmin %4.1fs", m, s)
	default:
		return fmt.Sprintf("%4.1fs", s)
	}
}
