package store

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/san-kum/tremor/internal/grid"
)

func testPanel(rows, cols int, seed float64) *grid.Panel {
	p := grid.NewPanel(rows, cols)
	for i := range p.Data {
		p.Data[i] = seed + float64(i)*0.25
	}
	return p
}

func TestInitializeWriteRead(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sim.trm")
	s := New(path)

	if err := s.Initialize(4, 5, 3, Options{}); err != nil {
		t.Fatalf("initialize failed: %v", err)
	}
	defer s.Close()

	if s.Capacity() != 3 {
		t.Errorf("expected capacity 3, got %d", s.Capacity())
	}
	if s.Committed() != 0 {
		t.Errorf("expected committed 0, got %d", s.Committed())
	}

	p := testPanel(4, 5, 1.0)
	if err := s.WriteSlot(0, p); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	got, err := s.ReadSlot(0)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	for i := range p.Data {
		if got.Data[i] != p.Data[i] {
			t.Fatalf("sample %d: expected %f, got %f", i, p.Data[i], got.Data[i])
		}
	}
}

func TestInitializeTwice(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sim.trm")
	s := New(path)

	if err := s.Initialize(2, 2, 1, Options{}); err != nil {
		t.Fatalf("initialize failed: %v", err)
	}
	defer s.Close()

	if err := s.Initialize(2, 2, 1, Options{}); !errors.Is(err, ErrAlreadyExists) {
		t.Errorf("expected ErrAlreadyExists, got %v", err)
	}

	// A second handle on the same non-empty file must also refuse.
	other := New(path)
	if err := other.Initialize(2, 2, 1, Options{}); !errors.Is(err, ErrAlreadyExists) {
		t.Errorf("expected ErrAlreadyExists on existing file, got %v", err)
	}
}

func TestGrowBeforeInitialize(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "sim.trm"))

	if err := s.Grow(5); !errors.Is(err, ErrNotInitialized) {
		t.Errorf("expected ErrNotInitialized, got %v", err)
	}
	if _, err := s.ReadSlot(0); !errors.Is(err, ErrNotInitialized) {
		t.Errorf("expected ErrNotInitialized, got %v", err)
	}
}

func TestGrowPreservesSlots(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sim.trm")
	s := New(path)

	if err := s.Initialize(3, 3, 2, Options{}); err != nil {
		t.Fatalf("initialize failed: %v", err)
	}
	defer s.Close()

	p0 := testPanel(3, 3, 10.0)
	p1 := testPanel(3, 3, 20.0)
	if err := s.WriteSlot(0, p0); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	if err := s.WriteSlot(1, p1); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	if err := s.Grow(4); err != nil {
		t.Fatalf("grow failed: %v", err)
	}
	if s.Capacity() != 6 {
		t.Errorf("expected capacity 6, got %d", s.Capacity())
	}

	got, err := s.ReadSlot(1)
	if err != nil {
		t.Fatalf("read after grow failed: %v", err)
	}
	if got.Data[0] != 20.0 {
		t.Errorf("slot 1 changed after grow: got %f", got.Data[0])
	}

	if err := s.WriteSlot(5, testPanel(3, 3, 50.0)); err != nil {
		t.Fatalf("write to grown slot failed: %v", err)
	}
}

func TestGrowInvalidAmount(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "sim.trm"))
	if err := s.Initialize(2, 2, 1, Options{}); err != nil {
		t.Fatalf("initialize failed: %v", err)
	}
	defer s.Close()

	if err := s.Grow(0); !errors.Is(err, ErrBadGrow) {
		t.Errorf("expected ErrBadGrow for 0, got %v", err)
	}
	if err := s.Grow(-3); !errors.Is(err, ErrBadGrow) {
		t.Errorf("expected ErrBadGrow for -3, got %v", err)
	}
	if s.Capacity() != 1 {
		t.Errorf("capacity changed by failed grow: %d", s.Capacity())
	}
}

func TestCommittedAdvancesSequentially(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "sim.trm"))
	if err := s.Initialize(2, 2, 3, Options{}); err != nil {
		t.Fatalf("initialize failed: %v", err)
	}
	defer s.Close()

	for i := 0; i < 3; i++ {
		if err := s.WriteSlot(i, testPanel(2, 2, float64(i))); err != nil {
			t.Fatalf("write %d failed: %v", i, err)
		}
		if s.Committed() != i+1 {
			t.Errorf("after write %d: expected committed %d, got %d", i, i+1, s.Committed())
		}
	}

	// Overwriting an old slot must not move the committed count.
	if err := s.WriteSlot(0, testPanel(2, 2, 99.0)); err != nil {
		t.Fatalf("overwrite failed: %v", err)
	}
	if s.Committed() != 3 {
		t.Errorf("overwrite moved committed to %d", s.Committed())
	}
}

func TestOutOfRange(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "sim.trm"))
	if err := s.Initialize(2, 2, 2, Options{}); err != nil {
		t.Fatalf("initialize failed: %v", err)
	}
	defer s.Close()

	if _, err := s.ReadSlot(2); !errors.Is(err, ErrOutOfRange) {
		t.Errorf("expected ErrOutOfRange, got %v", err)
	}
	if _, err := s.ReadSlot(-1); !errors.Is(err, ErrOutOfRange) {
		t.Errorf("expected ErrOutOfRange for negative slot, got %v", err)
	}
	if err := s.WriteSlot(2, testPanel(2, 2, 0)); !errors.Is(err, ErrOutOfRange) {
		t.Errorf("expected ErrOutOfRange on write, got %v", err)
	}
}

func TestShapeMismatch(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "sim.trm"))
	if err := s.Initialize(4, 4, 1, Options{}); err != nil {
		t.Fatalf("initialize failed: %v", err)
	}
	defer s.Close()

	if err := s.WriteSlot(0, testPanel(4, 5, 0)); !errors.Is(err, ErrShapeMismatch) {
		t.Errorf("expected ErrShapeMismatch, got %v", err)
	}
}

func TestReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sim.trm")
	s := New(path)
	if err := s.Initialize(3, 4, 2, Options{ChunkRows: 1, Compression: CompressionS2, Shuffle: true}); err != nil {
		t.Fatalf("initialize failed: %v", err)
	}

	p := testPanel(3, 4, 5.0)
	if err := s.WriteSlot(0, p); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("close failed: %v", err)
	}

	r, err := Open(path)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer r.Close()

	rows, cols := r.Shape()
	if rows != 3 || cols != 4 {
		t.Errorf("expected shape (3, 4), got (%d, %d)", rows, cols)
	}
	if r.Capacity() != 2 || r.Committed() != 1 {
		t.Errorf("expected capacity 2, committed 1; got %d, %d", r.Capacity(), r.Committed())
	}
	if !r.Options().Shuffle || r.Options().Compression != CompressionS2 {
		t.Errorf("options not persisted: %+v", r.Options())
	}

	got, err := r.ReadSlot(0)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if got.Data[5] != p.Data[5] {
		t.Errorf("expected %f, got %f", p.Data[5], got.Data[5])
	}
}

func TestReadOnly(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sim.trm")
	s := New(path)
	if err := s.Initialize(2, 2, 1, Options{}); err != nil {
		t.Fatalf("initialize failed: %v", err)
	}
	if err := s.WriteSlot(0, testPanel(2, 2, 1.0)); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	s.Close()

	r, err := OpenReadOnly(path)
	if err != nil {
		t.Fatalf("open read-only failed: %v", err)
	}
	defer r.Close()

	if _, err := r.ReadSlot(0); err != nil {
		t.Errorf("read-only read failed: %v", err)
	}
	if err := r.WriteSlot(0, testPanel(2, 2, 2.0)); !errors.Is(err, ErrReadOnly) {
		t.Errorf("expected ErrReadOnly, got %v", err)
	}
	if err := r.Grow(1); !errors.Is(err, ErrReadOnly) {
		t.Errorf("expected ErrReadOnly on grow, got %v", err)
	}
}

func TestCompressionRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		opts Options
	}{
		{"plain", Options{}},
		{"s2", Options{Compression: CompressionS2}},
		{"shuffle", Options{Shuffle: true}},
		{"s2+shuffle", Options{Compression: CompressionS2, Shuffle: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New(filepath.Join(t.TempDir(), "sim.trm"))
			if err := s.Initialize(8, 8, 1, tt.opts); err != nil {
				t.Fatalf("initialize failed: %v", err)
			}
			defer s.Close()

			p := testPanel(8, 8, -2.5)
			if err := s.WriteSlot(0, p); err != nil {
				t.Fatalf("write failed: %v", err)
			}
			got, err := s.ReadSlot(0)
			if err != nil {
				t.Fatalf("read failed: %v", err)
			}
			for i := range p.Data {
				if got.Data[i] != p.Data[i] {
					t.Fatalf("sample %d: expected %f, got %f", i, p.Data[i], got.Data[i])
				}
			}
		})
	}
}

func TestUnknownCompression(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "sim.trm"))
	err := s.Initialize(2, 2, 1, Options{Compression: "gzip"})
	if err == nil {
		t.Fatal("expected error for unknown compression")
	}
}

func TestModelPanel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sim.trm")
	s := New(path)
	if err := s.Initialize(3, 3, 2, Options{}); err != nil {
		t.Fatalf("initialize failed: %v", err)
	}

	if _, err := s.ReadModel(); !errors.Is(err, ErrNoModel) {
		t.Errorf("expected ErrNoModel, got %v", err)
	}

	model := testPanel(3, 3, 1500.0)
	if err := s.WriteModel(model); err != nil {
		t.Fatalf("write model failed: %v", err)
	}

	// The model region must not alias any slot.
	if err := s.WriteSlot(0, testPanel(3, 3, 0.0)); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	got, err := s.ReadModel()
	if err != nil {
		t.Fatalf("read model failed: %v", err)
	}
	if got.Data[0] != 1500.0 {
		t.Errorf("model clobbered by slot write: got %f", got.Data[0])
	}
	s.Close()

	r, err := Open(path)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer r.Close()
	if _, err := r.ReadModel(); err != nil {
		t.Errorf("model lost on reopen: %v", err)
	}
}

func TestMetaRoundTrip(t *testing.T) {
	type meta struct {
		DX float64 `json:"dx"`
		DZ float64 `json:"dz"`
		N  int     `json:"n"`
	}

	path := filepath.Join(t.TempDir(), "sim.trm")
	s := New(path)
	if err := s.Initialize(2, 2, 1, Options{}); err != nil {
		t.Fatalf("initialize failed: %v", err)
	}
	if err := s.SetMeta(meta{DX: 2.5, DZ: 1.5, N: 7}); err != nil {
		t.Fatalf("set meta failed: %v", err)
	}
	s.Close()

	r, err := Open(path)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer r.Close()

	var m meta
	if err := r.Meta(&m); err != nil {
		t.Fatalf("meta failed: %v", err)
	}
	if m.DX != 2.5 || m.DZ != 1.5 || m.N != 7 {
		t.Errorf("meta mismatch: %+v", m)
	}
}

func TestShuffleRoundTrip(t *testing.T) {
	in := make([]byte, 64)
	for i := range in {
		in[i] = byte(i * 7)
	}
	out := unshuffleBytes(shuffleBytes(in))
	for i := range in {
		if out[i] != in[i] {
			t.Fatalf("byte %d: expected %d, got %d", i, in[i], out[i])
		}
	}
}
