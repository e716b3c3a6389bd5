// Package chunk implements the resident data chunk and the bounded cache
// of chunks an array keeps in memory.
//
// A chunk is one N-dimensional sub-block of an array, persisted as a single
// file named by its dot-separated grid coordinates. Chunks load lazily:
// when the backing file is missing the buffer is populated with the
// header's fill value and no file is created until the chunk is modified
// and flushed.
package chunk

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/renameio"

	"github.com/robert-malhotra/go-zarr/internal/codec"
	"github.com/robert-malhotra/go-zarr/internal/dtype"
	"github.com/robert-malhotra/go-zarr/internal/index"
	"github.com/robert-malhotra/go-zarr/internal/meta"
)

var (
	// ErrBadChunkName is returned when a chunk file name cannot be parsed
	// as dot-separated unsigned decimals within the chunk grid.
	ErrBadChunkName = errors.New("invalid chunk file name")

	// ErrNotCached is returned by cache accessors for chunks that are not
	// resident. Callers check Contains first.
	ErrNotCached = errors.New("chunk not cached")
)

// Name renders a chunk id as its file name, e.g. [0 1 2] -> "0.1.2".
func Name(id []uint64) string {
	parts := make([]string, len(id))
	for i, v := range id {
		parts[i] = strconv.FormatUint(v, 10)
	}
	return strings.Join(parts, ".")
}

// ParseName parses a chunk file name into grid coordinates.
func ParseName(name string) ([]uint64, error) {
	parts := strings.Split(name, ".")
	id := make([]uint64, len(parts))
	for i, p := range parts {
		v, err := strconv.ParseUint(p, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %q", ErrBadChunkName, name)
		}
		id[i] = v
	}
	return id, nil
}

// PathIn returns the file path of a chunk within an array directory.
func PathIn(dir string, id []uint64) string {
	return filepath.Join(dir, Name(id))
}

// Chunk is one resident sub-block of an array. The header reference is
// non-owning; the owning array keeps it alive for the cache's lifetime.
type Chunk[T dtype.Scalar] struct {
	path  string
	id    []uint64
	data  []T
	hdr   *meta.Header
	dirty bool
}

// New creates a chunk with no backing file, populated with the header's
// fill value.
func New[T dtype.Scalar](id []uint64, size uint64, hdr *meta.Header) *Chunk[T] {
	c := &Chunk[T]{
		id:   id,
		data: make([]T, size),
		hdr:  hdr,
	}
	c.fill()
	return c
}

// FromPath creates a chunk backed by the given file, parsing the grid id
// from the file name. If the file exists its contents are decoded through
// the header's codec; otherwise the buffer holds the fill value.
func FromPath[T dtype.Scalar](path string, size uint64, hdr *meta.Header) (*Chunk[T], error) {
	id, err := ParseName(filepath.Base(path))
	if err != nil {
		return nil, err
	}
	if len(id) != hdr.Dimensions() {
		return nil, fmt.Errorf("%w: %q has rank %d, array has rank %d",
			ErrBadChunkName, filepath.Base(path), len(id), hdr.Dimensions())
	}
	grid, err := index.Grid(hdr.Shape, hdr.Chunks)
	if err != nil {
		return nil, err
	}
	for i := range id {
		if id[i] >= grid[i] {
			return nil, fmt.Errorf("%w: %q outside chunk grid %v",
				ErrBadChunkName, filepath.Base(path), grid)
		}
	}

	c := &Chunk[T]{
		path: path,
		id:   id,
		data: make([]T, size),
		hdr:  hdr,
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			c.fill()
			return c, nil
		}
		return nil, fmt.Errorf("reading chunk %s: %w", path, err)
	}
	if err := c.decode(raw); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Chunk[T]) fill() {
	fv := dtype.FromFloat[T](c.hdr.Fill())
	for i := range c.data {
		c.data[i] = fv
	}
}

func (c *Chunk[T]) decode(raw []byte) error {
	comp, err := c.hdr.Compressor()
	if err != nil {
		return err
	}
	plain, err := comp.Decompress(raw)
	if err != nil {
		return fmt.Errorf("chunk %s: %w", c.path, err)
	}
	width := c.hdr.DataType.Size()
	if len(plain) != len(c.data)*width {
		return fmt.Errorf("%w: chunk %s holds %d bytes, want %d",
			codec.ErrDecode, c.path, len(plain), len(c.data)*width)
	}
	return dtype.Elements(c.data, plain, c.hdr.Endian.ByteOrder())
}

// ID returns the chunk's grid coordinates.
func (c *Chunk[T]) ID() []uint64 { return c.id }

// Path returns the chunk's backing file path.
func (c *Chunk[T]) Path() string { return c.path }

// Get returns the element at the given in-chunk offset.
func (c *Chunk[T]) Get(i uint64) (T, error) {
	if i >= uint64(len(c.data)) {
		var zero T
		return zero, fmt.Errorf("%w: offset %d, chunk size %d",
			index.ErrOutOfChunk, i, len(c.data))
	}
	return c.data[i], nil
}

// Set stores the element at the given in-chunk offset and marks the chunk
// for flushing.
func (c *Chunk[T]) Set(i uint64, v T) error {
	if i >= uint64(len(c.data)) {
		return fmt.Errorf("%w: offset %d, chunk size %d",
			index.ErrOutOfChunk, i, len(c.data))
	}
	c.data[i] = v
	c.dirty = true
	return nil
}

// Valid reports whether the chunk can be flushed to disk.
func (c *Chunk[T]) Valid() bool {
	return len(c.data) > 0 && c.hdr != nil && len(c.id) == c.hdr.Dimensions() && c.path != ""
}

// Dirty reports whether the chunk holds writes not yet on disk.
func (c *Chunk[T]) Dirty() bool { return c.dirty }

// Flush encodes the buffer and replaces the backing file atomically. It is
// a no-op for invalid chunks and for chunks without unflushed writes, so
// merely reading through a fill-value chunk never creates its file.
func (c *Chunk[T]) Flush() error {
	if !c.Valid() || !c.dirty {
		return nil
	}

	comp, err := c.hdr.Compressor()
	if err != nil {
		return err
	}
	plain := dtype.Bytes(c.data, c.hdr.Endian.ByteOrder())
	enc, err := comp.Compress(plain)
	if err != nil {
		return fmt.Errorf("chunk %s: %w", c.path, err)
	}
	if err := renameio.WriteFile(c.path, enc, 0o644); err != nil {
		return fmt.Errorf("flushing chunk %s: %w", c.path, err)
	}
	c.dirty = false
	return nil
}
