package zarr

import (
	"github.com/robert-malhotra/go-zarr/internal/dtype"
	"github.com/robert-malhotra/go-zarr/internal/meta"
)

// IArray is the untyped array facade. It lets callers traverse groups and
// inspect shape, header and elements without committing to an element
// type; code that needs typed access dispatches on Header().DataType and
// reopens through the matching Open instantiation.
type IArray interface {
	Collection

	// Size returns the total number of elements.
	Size() uint64

	// Shape returns the array extents per axis.
	Shape() []uint64

	// ChunkShape returns the chunk extents per axis.
	ChunkShape() []uint64

	// ChunkSize returns the number of elements in one chunk.
	ChunkSize() uint64

	// Dimensions returns the rank of the array.
	Dimensions() int

	// Header returns the array metadata.
	Header() *Header

	// HeaderPath returns the path of the array's header file.
	HeaderPath() string

	// ElementAt returns the element at a linear index as an untyped value.
	ElementAt(i uint64) (any, error)

	// Flush makes pending writes and the header durable.
	Flush() error
}

// OpenArray opens an array without knowing its element type, dispatching
// on the dtype recorded in the header.
func OpenArray(dir string) (IArray, error) {
	hdr, err := meta.Read(dir)
	if err != nil {
		return nil, err
	}

	switch hdr.DataType {
	case dtype.Int8:
		return Open[int8](dir)
	case dtype.Int16:
		return Open[int16](dir)
	case dtype.Int32:
		return Open[int32](dir)
	case dtype.Int64:
		return Open[int64](dir)
	case dtype.Uint8:
		return Open[uint8](dir)
	case dtype.Uint16:
		return Open[uint16](dir)
	case dtype.Uint32:
		return Open[uint32](dir)
	case dtype.Uint64:
		return Open[uint64](dir)
	case dtype.Float32:
		return Open[float32](dir)
	case dtype.Float64:
		return Open[float64](dir)
	case dtype.Bool:
		return Open[bool](dir)
	}
	return nil, ErrUnknownDtype
}
