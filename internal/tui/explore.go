// Package tui provides an interactive frame browser over a stored
// simulation run.
package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/san-kum/tremor/internal/grid"
	"github.com/san-kum/tremor/internal/seismic"
	"github.com/san-kum/tremor/internal/store"
	"github.com/san-kum/tremor/internal/viz"
)

type model struct {
	st    *store.Store
	meta  seismic.Meta
	frame int
	panel *grid.Panel
	err   error

	width  int
	height int
}

// NewExplorer opens the run at path read-only and positions the
// browser on the last committed frame.
func NewExplorer(path string) (*model, error) {
	st, err := store.OpenReadOnly(path)
	if err != nil {
		return nil, err
	}
	if st.Committed() == 0 {
		st.Close()
		return nil, fmt.Errorf("%s holds no committed frames", path)
	}

	var meta seismic.Meta
	if err := st.Meta(&meta); err != nil {
		st.Close()
		return nil, fmt.Errorf("read run metadata: %w", err)
	}

	m := &model{
		st:     st,
		meta:   meta,
		frame:  st.Committed() - 1,
		width:  80,
		height: 24,
	}
	m.load()
	return m, nil
}

func (m *model) Close() error { return m.st.Close() }

func (m *model) load() {
	m.panel, m.err = m.st.ReadSlot(m.frame)
}

func (m model) Init() tea.Cmd { return nil }

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	last := m.st.Committed() - 1

	switch msg.String() {
	case "q", "esc", "ctrl+c":
		return m, tea.Quit
	case "left", "h":
		m.seek(m.frame - 1)
	case "right", "l":
		m.seek(m.frame + 1)
	case "pgup", "u":
		m.seek(m.frame - 10)
	case "pgdown", "d":
		m.seek(m.frame + 10)
	case "home", "g":
		m.seek(0)
	case "end", "G":
		m.seek(last)
	}
	return m, nil
}

func (m *model) seek(frame int) {
	last := m.st.Committed() - 1
	if frame < 0 {
		frame = 0
	}
	if frame > last {
		frame = last
	}
	if frame == m.frame {
		return
	}
	m.frame = frame
	m.load()
}

func (m model) View() string {
	var b strings.Builder

	b.WriteString("\n")
	b.WriteString("  " + viz.Title.Render("tremor") + viz.Subtle.Render("  ·  "+m.st.Path()) + "\n\n")

	if m.err != nil {
		b.WriteString("  " + viz.ErrorText.Render(fmt.Sprintf("frame %d: %v", m.frame, m.err)) + "\n")
		return b.String()
	}

	fw := m.width - 10
	fh := m.height - 10
	if fw < 40 {
		fw = 40
	}
	if fh < 10 {
		fh = 10
	}

	field := viz.FramePanel.Render(strings.TrimRight(viz.Render(m.panel, fw, fh), "\n"))
	for _, line := range strings.Split(field, "\n") {
		b.WriteString("  " + line + "\n")
	}

	t := float64(m.frame) * m.meta.Dt
	b.WriteString("\n")
	b.WriteString("  " + viz.MetricValue.Render(fmt.Sprintf("frame %d/%d", m.frame, m.st.Committed()-1)) +
		viz.MetricLabel.Render(fmt.Sprintf("   t = %.4fs   dt = %.2es   peak = %.3e", t, m.meta.Dt, m.panel.MaxAbs())) + "\n")
	b.WriteString(viz.KeyHint.Render("  ←→ step   u/d ±10   g/G ends   q quit") + "\n")

	return b.String()
}

// RunExplore opens the run at path and drives the frame browser
// until the user quits.
func RunExplore(path string) error {
	m, err := NewExplorer(path)
	if err != nil {
		return err
	}
	defer m.Close()

	p := tea.NewProgram(*m, tea.WithAltScreen())
	_, err = p.Run()
	return err
}
