package zarr

import (
	"errors"
	"fmt"
	"os"

	"github.com/robert-malhotra/go-zarr/internal/chunk"
	"github.com/robert-malhotra/go-zarr/internal/dtype"
	"github.com/robert-malhotra/go-zarr/internal/index"
	"github.com/robert-malhotra/go-zarr/internal/meta"
)

// Array is a typed, file-backed N-dimensional array. Data lives in chunk
// files under the array's directory and is accessed through 1-dimensional
// indexing, as if the array were a flat slice of Size() elements.
//
// Chunks load lazily into a bounded cache; a write is durable once its
// chunk is evicted or the array is flushed or closed. The header is
// written to the directory no later than Close.
//
// An Array must not be shared across goroutines, and two Array values must
// not reference the same directory at the same time.
type Array[T Scalar] struct {
	collection
	header *meta.Header
	cache  *chunk.Cache[T]

	headerOnDisk bool
}

// Create builds a new array in a freshly allocated temporary directory.
// Temporary arrays live under TempDir and are removed by Cleanup.
func Create[T Scalar](shape, chunks []uint64, opts ...Option) (*Array[T], error) {
	dir, err := createTempArrayPath()
	if err != nil {
		return nil, err
	}
	return CreateAt[T](dir, shape, chunks, opts...)
}

// CreateAt builds a new array in the given directory, creating it when
// absent. No chunk files are written until data is flushed; the header
// reaches disk no later than Close.
func CreateAt[T Scalar](dir string, shape, chunks []uint64, opts ...Option) (*Array[T], error) {
	s := newSettings(opts)

	hdr, err := meta.New(shape, chunks, dtype.TypeOf[T](), s.order, s.endian)
	if err != nil {
		return nil, err
	}
	hdr.FillValue = s.fill
	hdr.HasFill = s.hasFill
	if hdr.CompressorJSON, err = s.descriptor(); err != nil {
		return nil, err
	}
	// Reject a bad compressor configuration here rather than on the first
	// chunk access.
	if _, err := hdr.Compressor(); err != nil {
		return nil, err
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	col, err := newCollection(dir)
	if err != nil {
		return nil, err
	}

	return &Array[T]{
		collection: col,
		header:     hdr,
		cache:      chunk.NewCache[T](s.cacheSize),
	}, nil
}

// Open loads an existing array, validating that its header matches the
// element type parameter. Options other than WithCacheSize are ignored;
// layout always comes from the header.
func Open[T Scalar](dir string, opts ...Option) (*Array[T], error) {
	s := newSettings(opts)

	hdr, err := meta.Read(dir)
	if err != nil {
		return nil, err
	}
	if want := dtype.TypeOf[T](); want != hdr.DataType {
		return nil, fmt.Errorf("%w: array holds %s, requested %s",
			ErrDtypeMismatch, hdr.DataType, want)
	}

	col, err := newCollection(dir)
	if err != nil {
		return nil, err
	}

	return &Array[T]{
		collection:   col,
		header:       hdr,
		cache:        chunk.NewCache[T](s.cacheSize),
		headerOnDisk: true,
	}, nil
}

// Size returns the total number of elements.
func (a *Array[T]) Size() uint64 { return a.header.Size() }

// Shape returns the array extents per axis.
func (a *Array[T]) Shape() []uint64 { return a.header.Shape }

// ChunkShape returns the chunk extents per axis.
func (a *Array[T]) ChunkShape() []uint64 { return a.header.Chunks }

// ChunkSize returns the number of elements in one chunk.
func (a *Array[T]) ChunkSize() uint64 { return a.header.ChunkSize() }

// Dimensions returns the rank of the array.
func (a *Array[T]) Dimensions() int { return a.header.Dimensions() }

// Header returns the array metadata.
func (a *Array[T]) Header() *Header { return a.header }

// HeaderPath returns the path of the array's header file.
func (a *Array[T]) HeaderPath() string { return meta.Path(a.dir) }

// chunkFor resolves the resident chunk holding the element at the given
// linear index, loading and inserting it on a cache miss. Inserting into a
// full cache evicts and flushes the oldest chunk; its flush error, if any,
// is surfaced here.
func (a *Array[T]) chunkFor(i uint64) (*chunk.Chunk[T], error) {
	id, err := index.ChunkIDAt(i, a.header.Shape, a.header.Chunks, a.header.Order)
	if err != nil {
		return nil, err
	}

	if !a.cache.Contains(id) {
		c, err := chunk.FromPath[T](chunk.PathIn(a.dir, id), a.header.ChunkSize(), a.header)
		if err != nil {
			return nil, err
		}
		if err := a.cache.Insert(c); err != nil {
			return nil, err
		}
	}
	return a.cache.Get(id)
}

// Get returns the element at the given linear index.
func (a *Array[T]) Get(i uint64) (T, error) {
	var zero T
	if i >= a.header.Size() {
		return zero, fmt.Errorf("%w: index %d, array size %d", ErrOutOfRange, i, a.header.Size())
	}

	c, err := a.chunkFor(i)
	if err != nil {
		return zero, err
	}
	off, err := index.ChunkOffset(i, a.header.Shape, a.header.Chunks, a.header.Order)
	if err != nil {
		return zero, err
	}
	return c.Get(off)
}

// Set stores the element at the given linear index.
func (a *Array[T]) Set(i uint64, v T) error {
	if i >= a.header.Size() {
		return fmt.Errorf("%w: index %d, array size %d", ErrOutOfRange, i, a.header.Size())
	}

	c, err := a.chunkFor(i)
	if err != nil {
		return err
	}
	off, err := index.ChunkOffset(i, a.header.Shape, a.header.Chunks, a.header.Order)
	if err != nil {
		return err
	}
	return c.Set(off, v)
}

// At returns the element at the given N-dimensional position.
func (a *Array[T]) At(position ...uint64) (T, error) {
	var zero T
	i, err := a.flatten(position)
	if err != nil {
		return zero, err
	}
	return a.Get(i)
}

// SetAt stores the element at the given N-dimensional position.
func (a *Array[T]) SetAt(v T, position ...uint64) error {
	i, err := a.flatten(position)
	if err != nil {
		return err
	}
	return a.Set(i, v)
}

func (a *Array[T]) flatten(position []uint64) (uint64, error) {
	if len(position) != a.header.Dimensions() {
		return 0, fmt.Errorf("%w: position rank %d, array rank %d",
			ErrBadDimensions, len(position), a.header.Dimensions())
	}
	for k, p := range position {
		if p >= a.header.Shape[k] {
			return 0, fmt.Errorf("%w: axis %d position %d, extent %d",
				ErrOutOfRange, k, p, a.header.Shape[k])
		}
	}
	return index.FlattenOrder(position, a.header.Shape, a.header.Order)
}

// Fill assigns v to every element.
func (a *Array[T]) Fill(v T) error {
	for i := uint64(0); i < a.header.Size(); i++ {
		if err := a.Set(i, v); err != nil {
			return err
		}
	}
	return nil
}

// ReadAll reads every element in linear index order.
func (a *Array[T]) ReadAll() ([]T, error) {
	out := make([]T, a.header.Size())
	for i := range out {
		v, err := a.Get(uint64(i))
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// ReadAll reads every element of an untyped array, which must hold
// elements of type T.
func ReadAll[T Scalar](a IArray) ([]T, error) {
	typed, ok := a.(*Array[T])
	if !ok {
		return nil, fmt.Errorf("%w: array holds %s", ErrDtypeMismatch, a.Header().DataType)
	}
	return typed.ReadAll()
}

// ElementAt returns the element at the given linear index as an untyped
// value. It backs the IArray facade.
func (a *Array[T]) ElementAt(i uint64) (any, error) {
	v, err := a.Get(i)
	if err != nil {
		return nil, err
	}
	return v, nil
}

// writeHeader persists the header once.
func (a *Array[T]) writeHeader() error {
	if a.headerOnDisk {
		return nil
	}
	if err := a.header.Write(a.dir); err != nil {
		return err
	}
	a.headerOnDisk = true
	return nil
}

// Flush makes all pending state durable: the header if not yet on disk,
// then every resident chunk holding unflushed writes.
func (a *Array[T]) Flush() error {
	if err := a.writeHeader(); err != nil {
		return err
	}
	return a.cache.Flush()
}

// Close flushes the array and persists its attributes. The Array must not
// be used afterwards.
func (a *Array[T]) Close() error {
	return errors.Join(a.Flush(), a.WriteAttributes())
}
