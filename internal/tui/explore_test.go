package tui

import (
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/san-kum/tremor/internal/grid"
	"github.com/san-kum/tremor/internal/seismic"
	"github.com/san-kum/tremor/internal/store"
)

// writeRun commits a few panels with run metadata so the browser has
// something to page through.
func writeRun(t *testing.T, frames int) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "run.trm")

	st := store.New(path)
	if err := st.Initialize(8, 8, frames, store.Options{}); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}
	meta := seismic.Meta{Rows: 6, Cols: 6, DX: 5, DZ: 5, Dt: 1e-3, Padding: 1}
	if err := st.SetMeta(meta); err != nil {
		t.Fatalf("SetMeta() error = %v", err)
	}
	for i := 0; i < frames; i++ {
		p := grid.NewPanel(8, 8)
		p.Set(4, 4, float64(i+1))
		if err := st.WriteSlot(i, p); err != nil {
			t.Fatalf("WriteSlot(%d) error = %v", i, err)
		}
	}
	if err := st.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	return path
}

func TestExplorerOpensOnLastFrame(t *testing.T) {
	path := writeRun(t, 3)

	m, err := NewExplorer(path)
	if err != nil {
		t.Fatalf("NewExplorer() error = %v", err)
	}
	defer m.Close()

	if m.frame != 2 {
		t.Fatalf("opened on frame %d, want 2", m.frame)
	}
	if m.panel == nil || m.panel.At(4, 4) != 3 {
		t.Fatalf("panel not loaded for frame 2")
	}
}

func TestExplorerViewUsesSharedStyles(t *testing.T) {
	path := writeRun(t, 3)

	m, err := NewExplorer(path)
	if err != nil {
		t.Fatalf("NewExplorer() error = %v", err)
	}
	defer m.Close()

	view := m.View()
	if !strings.Contains(view, "tremor") {
		t.Errorf("View() missing title, got:\n%s", view)
	}
	if !strings.Contains(view, "frame 2/2") {
		t.Errorf("View() missing frame status, got:\n%s", view)
	}
	// The field sits inside the rounded panel border.
	if !strings.Contains(view, "╭") || !strings.Contains(view, "╰") {
		t.Errorf("View() missing panel border, got:\n%s", view)
	}
	if !strings.Contains(view, "q quit") {
		t.Errorf("View() missing key hints, got:\n%s", view)
	}
}

func TestExplorerSeekClamps(t *testing.T) {
	path := writeRun(t, 3)

	m, err := NewExplorer(path)
	if err != nil {
		t.Fatalf("NewExplorer() error = %v", err)
	}
	defer m.Close()

	m.seek(-5)
	if m.frame != 0 {
		t.Errorf("seek(-5) landed on %d, want 0", m.frame)
	}
	m.seek(99)
	if m.frame != 2 {
		t.Errorf("seek(99) landed on %d, want 2", m.frame)
	}
}

func TestExplorerKeyNavigation(t *testing.T) {
	path := writeRun(t, 3)

	m, err := NewExplorer(path)
	if err != nil {
		t.Fatalf("NewExplorer() error = %v", err)
	}
	defer m.Close()

	next, _ := m.handleKey(tea.KeyMsg{Type: tea.KeyLeft})
	got := next.(model)
	if got.frame != 1 {
		t.Fatalf("left from frame 2 landed on %d, want 1", got.frame)
	}

	next, _ = got.handleKey(tea.KeyMsg{Type: tea.KeyHome})
	got = next.(model)
	if got.frame != 0 {
		t.Fatalf("home landed on %d, want 0", got.frame)
	}
}
