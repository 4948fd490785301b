package grid

import (
	"math"
	"testing"
)

func TestPanelAtSet(t *testing.T) {
	p := NewPanel(3, 4)

	p.Set(1, 2, 5.0)
	if p.At(1, 2) != 5.0 {
		t.Errorf("expected 5.0, got %f", p.At(1, 2))
	}

	if p.Data[1*4+2] != 5.0 {
		t.Error("row-major layout broken")
	}
}

func TestPanelClone(t *testing.T) {
	p := NewPanel(2, 2)
	p.Set(0, 0, 1.0)

	c := p.Clone()
	c.Set(0, 0, 2.0)

	if p.At(0, 0) != 1.0 {
		t.Error("clone shares backing array")
	}
	if c.At(0, 0) != 2.0 {
		t.Error("clone not writable")
	}
}

func TestPanelCopyFrom(t *testing.T) {
	p := NewPanel(2, 3)
	q := NewPanel(2, 3)
	q.Fill(7.0)

	if !p.CopyFrom(q) {
		t.Fatal("copy between same-shape panels failed")
	}
	if p.At(1, 2) != 7.0 {
		t.Errorf("expected 7.0, got %f", p.At(1, 2))
	}

	r := NewPanel(3, 2)
	if p.CopyFrom(r) {
		t.Error("copy between mismatched shapes should fail")
	}
}

func TestPanelIsValid(t *testing.T) {
	p := NewPanel(2, 2)
	if !p.IsValid() {
		t.Error("zero panel should be valid")
	}

	p.Set(0, 1, math.NaN())
	if p.IsValid() {
		t.Error("NaN panel should be invalid")
	}

	p.Set(0, 1, math.Inf(1))
	if p.IsValid() {
		t.Error("Inf panel should be invalid")
	}
}

func TestPanelMaxAbs(t *testing.T) {
	p := NewPanel(2, 2)
	p.Set(0, 0, -3.0)
	p.Set(1, 1, 2.0)

	if p.MaxAbs() != 3.0 {
		t.Errorf("expected 3.0, got %f", p.MaxAbs())
	}
}

func TestPanelMax(t *testing.T) {
	p := NewPanel(2, 2)
	p.Fill(-1.0)
	p.Set(1, 0, 4.0)

	if p.Max() != 4.0 {
		t.Errorf("expected 4.0, got %f", p.Max())
	}
	if NewPanel(0, 0).Max() != 0 {
		t.Error("empty panel should report zero")
	}
}

func TestPanelEnergy(t *testing.T) {
	p := NewPanel(1, 3)
	p.Set(0, 0, 1.0)
	p.Set(0, 1, 2.0)

	if p.Energy() != 5.0 {
		t.Errorf("expected 5.0, got %f", p.Energy())
	}
}
