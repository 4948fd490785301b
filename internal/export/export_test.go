package export

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/san-kum/tremor/internal/grid"
	"github.com/san-kum/tremor/internal/store"
	"github.com/san-kum/tremor/internal/viz"
)

func TestPanelCSV(t *testing.T) {
	p := grid.NewPanel(2, 3)
	p.Set(0, 0, 1)
	p.Set(1, 2, -2.5)

	var buf bytes.Buffer
	if err := PanelCSV(&buf, p); err != nil {
		t.Fatalf("PanelCSV() error = %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2", len(lines))
	}
	if lines[0] != "1,0,0" {
		t.Fatalf("first row: got %q", lines[0])
	}
	if lines[1] != "0,0,-2.5" {
		t.Fatalf("second row: got %q", lines[1])
	}
}

func TestTraceFromStore(t *testing.T) {
	st := store.New(filepath.Join(t.TempDir(), "run.trm"))
	if err := st.Initialize(4, 4, 3, store.Options{}); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}
	defer st.Close()

	for i := 0; i < 3; i++ {
		p := grid.NewPanel(4, 4)
		p.Set(2, 2, float64(i+1))
		if err := st.WriteSlot(i, p); err != nil {
			t.Fatalf("WriteSlot(%d) error = %v", i, err)
		}
	}

	samples, err := Trace(st, 2, 2)
	if err != nil {
		t.Fatalf("Trace() error = %v", err)
	}
	want := []float64{1, 2, 3}
	if len(samples) != len(want) {
		t.Fatalf("got %d samples, want %d", len(samples), len(want))
	}
	for i := range want {
		if samples[i] != want[i] {
			t.Fatalf("sample %d: got %v, want %v", i, samples[i], want[i])
		}
	}

	if _, err := Trace(st, 10, 0); err == nil {
		t.Fatalf("out-of-grid receiver should fail")
	}
}

func TestTracePhysicalShiftsByPadding(t *testing.T) {
	st := store.New(filepath.Join(t.TempDir(), "run.trm"))
	if err := st.Initialize(6, 6, 2, store.Options{}); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}
	defer st.Close()

	// Physical position (1, 2) lands at padded (3, 4) with a
	// two-cell boundary ring.
	for i := 0; i < 2; i++ {
		p := grid.NewPanel(6, 6)
		p.Set(3, 4, float64(10 * (i + 1)))
		if err := st.WriteSlot(i, p); err != nil {
			t.Fatalf("WriteSlot(%d) error = %v", i, err)
		}
	}

	samples, err := TracePhysical(st, 1, 2, 2)
	if err != nil {
		t.Fatalf("TracePhysical() error = %v", err)
	}
	want := []float64{10, 20}
	for i := range want {
		if samples[i] != want[i] {
			t.Fatalf("sample %d: got %v, want %v", i, samples[i], want[i])
		}
	}
}

func TestTraceCSVHeader(t *testing.T) {
	var buf bytes.Buffer
	if err := TraceCSV(&buf, []float64{0, 1}, 0.5); err != nil {
		t.Fatalf("TraceCSV() error = %v", err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if lines[0] != "time,amplitude" {
		t.Fatalf("header: got %q", lines[0])
	}
	if !strings.HasPrefix(lines[2], "0.500000,") {
		t.Fatalf("second sample time: got %q", lines[2])
	}
}

func TestTraceJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := TraceJSON(&buf, 3, 4, 0.001, []float64{0.5}); err != nil {
		t.Fatalf("TraceJSON() error = %v", err)
	}
	out := buf.String()
	for _, want := range []string{`"row": 3`, `"col": 4`, `"samples"`} {
		if !strings.Contains(out, want) {
			t.Fatalf("JSON missing %q:\n%s", want, out)
		}
	}
}

func TestTraceSVG(t *testing.T) {
	svg := TraceSVG([]float64{0, 1, 0, -1}, 200, 100, "#00ff00")
	if !strings.Contains(svg, "<path") {
		t.Fatalf("trace SVG missing path element")
	}
	if TraceSVG([]float64{1}, 200, 100, "#fff") != "" {
		t.Fatalf("single-sample trace should produce no SVG")
	}
}

func TestWavefrontSVG(t *testing.T) {
	p := grid.NewPanel(8, 8)
	p.Set(4, 4, 1)
	c := viz.NewCanvas(4, 2)
	c.DrawPanel(p, 0.5)

	svg := WavefrontSVG(c, 4)
	if !strings.Contains(svg, "<circle") {
		t.Fatalf("wavefront SVG should contain at least one dot")
	}
	if WavefrontSVG(nil, 4) != "" {
		t.Fatalf("nil canvas should produce no SVG")
	}
}
