// Package store persists 2D field panels in a growable single-file
// container. Panels all share one fixed shape and are addressed by a
// dense slot index starting at zero. Capacity only ever grows; growing
// never relocates previously written slots, so a reader holding an old
// slot index stays valid across any number of extensions.
package store

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/klauspost/compress/s2"

	"github.com/san-kum/tremor/internal/grid"
)

var (
	// ErrNotInitialized indicates a lifecycle call before Initialize or Open.
	ErrNotInitialized = errors.New("store: not initialized")

	// ErrAlreadyExists indicates Initialize on a file that already holds data.
	ErrAlreadyExists = errors.New("store: file already holds a non-empty store")

	// ErrOutOfRange indicates a slot index outside the allocated capacity.
	ErrOutOfRange = errors.New("store: slot index out of range")

	// ErrShapeMismatch indicates a panel whose shape differs from the store's.
	ErrShapeMismatch = errors.New("store: panel shape does not match store shape")

	// ErrBadGrow indicates a non-positive capacity extension.
	ErrBadGrow = errors.New("store: grow amount must be positive")

	// ErrReadOnly indicates a write on a store opened read-only.
	ErrReadOnly = errors.New("store: opened read-only")

	// ErrNoModel indicates no model panel has been written.
	ErrNoModel = errors.New("store: no model panel stored")

	// ErrCorrupt indicates an unrecognized or damaged file.
	ErrCorrupt = errors.New("store: corrupt or unrecognized file")

	// ErrMetaTooLarge indicates metadata that does not fit the header block.
	ErrMetaTooLarge = errors.New("store: metadata does not fit in header")
)

const (
	magic      = "TRMRPANL"
	version    = 1
	headerSize = 4096

	flagShuffle  = 1 << 0
	flagHasModel = 1 << 1

	offFlags       = 8
	offCompression = 12
	offRows        = 16
	offCols        = 24
	offCapacity    = 32
	offCommitted   = 40
	offChunkRows   = 48
	offMetaLen     = 56
	offMeta        = 64
)

// Compression codecs recognized by Options.Compression.
const (
	CompressionNone = "none"
	CompressionS2   = "s2"
)

// Options are storage-layer knobs. None of them affect correctness, only
// on-disk size and per-slot I/O cost.
type Options struct {
	// ChunkRows is an advisory I/O granularity hint, persisted but unused
	// by this backend (slots are always read and written whole).
	ChunkRows int

	// Compression selects the per-slot codec: "" or "none", or "s2".
	Compression string

	// Shuffle reorders sample bytes into byte planes before compression,
	// which usually improves the ratio on smooth fields.
	Shuffle bool
}

func (o Options) compressionCode() (uint32, error) {
	switch o.Compression {
	case "", CompressionNone:
		return 0, nil
	case CompressionS2:
		return 1, nil
	}
	return 0, fmt.Errorf("store: unknown compression %q", o.Compression)
}

// Store is a file-backed panel container. A zero-value Store obtained
// from New is not usable until Initialize (fresh file) or until the file
// is opened with Open/OpenReadOnly.
type Store struct {
	path       string
	f          *os.File
	rows, cols int
	capacity   int
	committed  int
	opts       Options
	hasModel   bool
	readonly   bool
}

// New returns an uninitialized store bound to path. Every operation
// except Initialize fails with ErrNotInitialized until the file exists.
func New(path string) *Store {
	return &Store{path: path}
}

// Initialize creates the backing file with room for capacity panels of
// the given shape. It fails with ErrAlreadyExists if the file already
// holds data.
func (s *Store) Initialize(rows, cols, capacity int, opts Options) error {
	if s.f != nil {
		return ErrAlreadyExists
	}
	if rows <= 0 || cols <= 0 {
		return fmt.Errorf("store: invalid panel shape (%d, %d)", rows, cols)
	}
	if capacity < 0 {
		return fmt.Errorf("store: negative capacity %d", capacity)
	}
	code, err := opts.compressionCode()
	if err != nil {
		return err
	}
	if fi, err := os.Stat(s.path); err == nil && fi.Size() > 0 {
		return ErrAlreadyExists
	}

	f, err := os.OpenFile(s.path, os.O_RDWR|os.O_CREATE, 0644)
	if err != nil {
		return err
	}

	hdr := make([]byte, headerSize)
	copy(hdr, magic)
	binary.LittleEndian.PutUint32(hdr[offFlags:], s.packFlags(opts.Shuffle, false))
	binary.LittleEndian.PutUint32(hdr[offCompression:], code)
	binary.LittleEndian.PutUint64(hdr[offRows:], uint64(rows))
	binary.LittleEndian.PutUint64(hdr[offCols:], uint64(cols))
	binary.LittleEndian.PutUint64(hdr[offCapacity:], uint64(capacity))
	binary.LittleEndian.PutUint64(hdr[offCommitted:], 0)
	binary.LittleEndian.PutUint64(hdr[offChunkRows:], uint64(opts.ChunkRows))
	binary.LittleEndian.PutUint64(hdr[offMetaLen:], 0)
	if _, err := f.WriteAt(hdr, 0); err != nil {
		f.Close()
		return err
	}

	s.f = f
	s.rows, s.cols = rows, cols
	s.capacity = capacity
	s.committed = 0
	s.opts = opts
	s.hasModel = false
	s.readonly = false

	if err := f.Truncate(s.end()); err != nil {
		s.f = nil
		f.Close()
		return err
	}
	return nil
}

// Open opens an existing store read-write.
func Open(path string) (*Store, error) {
	return open(path, false)
}

// OpenReadOnly opens an existing store for reading. An independent
// reader may do this while a writer owns the file, as long as it only
// touches slots below the committed count it observed at open time.
func OpenReadOnly(path string) (*Store, error) {
	return open(path, true)
}

func open(path string, readonly bool) (*Store, error) {
	mode := os.O_RDWR
	if readonly {
		mode = os.O_RDONLY
	}
	f, err := os.OpenFile(path, mode, 0)
	if err != nil {
		return nil, err
	}

	hdr := make([]byte, headerSize)
	if _, err := io.ReadFull(io.NewSectionReader(f, 0, headerSize), hdr); err != nil {
		f.Close()
		return nil, ErrCorrupt
	}
	if string(hdr[:len(magic)]) != magic {
		f.Close()
		return nil, ErrCorrupt
	}

	flags := binary.LittleEndian.Uint32(hdr[offFlags:])
	code := binary.LittleEndian.Uint32(hdr[offCompression:])
	compression := CompressionNone
	if code == 1 {
		compression = CompressionS2
	}

	s := &Store{
		path:      path,
		f:         f,
		rows:      int(binary.LittleEndian.Uint64(hdr[offRows:])),
		cols:      int(binary.LittleEndian.Uint64(hdr[offCols:])),
		capacity:  int(binary.LittleEndian.Uint64(hdr[offCapacity:])),
		committed: int(binary.LittleEndian.Uint64(hdr[offCommitted:])),
		opts: Options{
			ChunkRows:   int(binary.LittleEndian.Uint64(hdr[offChunkRows:])),
			Compression: compression,
			Shuffle:     flags&flagShuffle != 0,
		},
		hasModel: flags&flagHasModel != 0,
		readonly: readonly,
	}
	if s.rows <= 0 || s.cols <= 0 || s.capacity < 0 || s.committed < 0 || s.committed > s.capacity {
		f.Close()
		return nil, ErrCorrupt
	}
	return s, nil
}

// Grow extends capacity by additional slots without touching existing
// data. The file is extended in one step, not per slot, so layout
// changes happen once per simulation run.
func (s *Store) Grow(additional int) error {
	if s.f == nil {
		return ErrNotInitialized
	}
	if s.readonly {
		return ErrReadOnly
	}
	if additional <= 0 {
		return ErrBadGrow
	}
	newCap := s.capacity + additional
	oldCap := s.capacity
	s.capacity = newCap
	if err := s.f.Truncate(s.end()); err != nil {
		s.capacity = oldCap
		return err
	}
	return s.putUint64(offCapacity, uint64(newCap))
}

// WriteSlot stores a panel at slot. Slots must be written explicitly;
// the sequential write just past the committed range advances it, any
// other in-range write is an overwrite and leaves the count alone.
func (s *Store) WriteSlot(slot int, p *grid.Panel) error {
	if s.f == nil {
		return ErrNotInitialized
	}
	if s.readonly {
		return ErrReadOnly
	}
	if slot < 0 || slot >= s.capacity {
		return fmt.Errorf("%w: slot %d, capacity %d", ErrOutOfRange, slot, s.capacity)
	}
	if p.Rows != s.rows || p.Cols != s.cols {
		return fmt.Errorf("%w: got (%d, %d), want (%d, %d)", ErrShapeMismatch, p.Rows, p.Cols, s.rows, s.cols)
	}

	raw := encodeSamples(p.Data)
	if s.opts.Shuffle {
		raw = shuffleBytes(raw)
	}

	var n uint64
	body := raw
	if s.opts.Compression == CompressionS2 {
		comp := s2.Encode(nil, raw)
		if len(comp) < len(raw) {
			body = comp
			n = uint64(len(comp))
		}
	}

	buf := make([]byte, 8+len(body))
	binary.LittleEndian.PutUint64(buf, n)
	copy(buf[8:], body)
	if _, err := s.f.WriteAt(buf, s.slotOffset(slot)); err != nil {
		return err
	}

	if slot == s.committed {
		s.committed++
		return s.putUint64(offCommitted, uint64(s.committed))
	}
	return nil
}

// ReadSlot returns the panel stored at slot.
func (s *Store) ReadSlot(slot int) (*grid.Panel, error) {
	if s.f == nil {
		return nil, ErrNotInitialized
	}
	if slot < 0 || slot >= s.capacity {
		return nil, fmt.Errorf("%w: slot %d, capacity %d", ErrOutOfRange, slot, s.capacity)
	}

	prefix := make([]byte, 8)
	off := s.slotOffset(slot)
	if _, err := s.f.ReadAt(prefix, off); err != nil {
		return nil, err
	}
	n := binary.LittleEndian.Uint64(prefix)

	var raw []byte
	if n == 0 {
		raw = make([]byte, s.rawPanelBytes())
		if _, err := s.f.ReadAt(raw, off+8); err != nil {
			return nil, err
		}
	} else {
		if n > uint64(s.rawPanelBytes()) {
			return nil, ErrCorrupt
		}
		comp := make([]byte, n)
		if _, err := s.f.ReadAt(comp, off+8); err != nil {
			return nil, err
		}
		var err error
		raw, err = s2.Decode(nil, comp)
		if err != nil || len(raw) != int(s.rawPanelBytes()) {
			return nil, ErrCorrupt
		}
	}

	if s.opts.Shuffle {
		raw = unshuffleBytes(raw)
	}

	p := grid.NewPanel(s.rows, s.cols)
	decodeSamples(raw, p.Data)
	return p, nil
}

// WriteModel stores the auxiliary model panel (e.g. the velocity field)
// in its reserved region. It shares the store's panel shape.
func (s *Store) WriteModel(p *grid.Panel) error {
	if s.f == nil {
		return ErrNotInitialized
	}
	if s.readonly {
		return ErrReadOnly
	}
	if p.Rows != s.rows || p.Cols != s.cols {
		return fmt.Errorf("%w: got (%d, %d), want (%d, %d)", ErrShapeMismatch, p.Rows, p.Cols, s.rows, s.cols)
	}
	if _, err := s.f.WriteAt(encodeSamples(p.Data), headerSize); err != nil {
		return err
	}
	s.hasModel = true
	return s.putUint32(offFlags, s.packFlags(s.opts.Shuffle, true))
}

// ReadModel returns the auxiliary model panel, or ErrNoModel if one was
// never written.
func (s *Store) ReadModel() (*grid.Panel, error) {
	if s.f == nil {
		return nil, ErrNotInitialized
	}
	if !s.hasModel {
		return nil, ErrNoModel
	}
	raw := make([]byte, s.rawPanelBytes())
	if _, err := s.f.ReadAt(raw, headerSize); err != nil {
		return nil, err
	}
	p := grid.NewPanel(s.rows, s.cols)
	decodeSamples(raw, p.Data)
	return p, nil
}

// SetMeta JSON-encodes v into the header's metadata block.
func (s *Store) SetMeta(v any) error {
	if s.f == nil {
		return ErrNotInitialized
	}
	if s.readonly {
		return ErrReadOnly
	}
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if len(data) > headerSize-offMeta {
		return ErrMetaTooLarge
	}
	if _, err := s.f.WriteAt(data, offMeta); err != nil {
		return err
	}
	return s.putUint64(offMetaLen, uint64(len(data)))
}

// Meta decodes the header's metadata block into v.
func (s *Store) Meta(v any) error {
	if s.f == nil {
		return ErrNotInitialized
	}
	prefix := make([]byte, 8)
	if _, err := s.f.ReadAt(prefix, offMetaLen); err != nil {
		return err
	}
	n := binary.LittleEndian.Uint64(prefix)
	if n == 0 {
		return nil
	}
	if n > headerSize-offMeta {
		return ErrCorrupt
	}
	data := make([]byte, n)
	if _, err := s.f.ReadAt(data, offMeta); err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}

func (s *Store) Capacity() int     { return s.capacity }
func (s *Store) Committed() int    { return s.committed }
func (s *Store) Shape() (int, int) { return s.rows, s.cols }
func (s *Store) Path() string      { return s.path }
func (s *Store) Options() Options  { return s.opts }
func (s *Store) ReadOnly() bool    { return s.readonly }
func (s *Store) Initialized() bool { return s.f != nil }

// Sync flushes buffered writes to disk.
func (s *Store) Sync() error {
	if s.f == nil {
		return ErrNotInitialized
	}
	return s.f.Sync()
}

func (s *Store) Close() error {
	if s.f == nil {
		return nil
	}
	err := s.f.Close()
	s.f = nil
	return err
}

func (s *Store) rawPanelBytes() int64 {
	return int64(s.rows) * int64(s.cols) * 8
}

func (s *Store) slotBytes() int64 {
	return 8 + s.rawPanelBytes()
}

// slotBase is where slot 0 starts: header plus the reserved model region.
func (s *Store) slotBase() int64 {
	return headerSize + s.rawPanelBytes()
}

func (s *Store) slotOffset(slot int) int64 {
	return s.slotBase() + int64(slot)*s.slotBytes()
}

func (s *Store) end() int64 {
	return s.slotOffset(s.capacity)
}

func (s *Store) packFlags(shuffle, hasModel bool) uint32 {
	var flags uint32
	if shuffle {
		flags |= flagShuffle
	}
	if hasModel {
		flags |= flagHasModel
	}
	return flags
}

func (s *Store) putUint64(off int64, v uint64) error {
	buf := make([]byte, 8)
	binary.LittleEndian.PutUint64(buf, v)
	_, err := s.f.WriteAt(buf, off)
	return err
}

func (s *Store) putUint32(off int64, v uint32) error {
	buf := make([]byte, 4)
	binary.LittleEndian.PutUint32(buf, v)
	_, err := s.f.WriteAt(buf, off)
	return err
}

func encodeSamples(data []float64) []byte {
	out := make([]byte, 8*len(data))
	for i, v := range data {
		binary.LittleEndian.PutUint64(out[8*i:], math.Float64bits(v))
	}
	return out
}

func decodeSamples(raw []byte, data []float64) {
	for i := range data {
		data[i] = math.Float64frombits(binary.LittleEndian.Uint64(raw[8*i:]))
	}
}

// shuffleBytes groups the k-th byte of every sample together, the same
// pre-filter HDF5 calls "shuffle". Purely a compression aid.
func shuffleBytes(in []byte) []byte {
	n := len(in) / 8
	out := make([]byte, len(in))
	for i := 0; i < n; i++ {
		for k := 0; k < 8; k++ {
			out[k*n+i] = in[i*8+k]
		}
	}
	return out
}

func unshuffleBytes(in []byte) []byte {
	n := len(in) / 8
	out := make([]byte, len(in))
	for i := 0; i < n; i++ {
		for k := 0; k < 8; k++ {
			out[i*8+k] = in[k*n+i]
		}
	}
	return out
}
