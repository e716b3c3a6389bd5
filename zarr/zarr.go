// Package zarr provides a file-backed, chunked, N-dimensional array store
// using the Zarr v2 directory layout.
//
// An array is a directory holding a JSON header (.zarray), optional JSON
// attributes (.zattrs) and one file per chunk, named by the chunk's grid
// coordinates ("0.1.2"). Arrays group into trees: a group is a directory
// carrying a .zgroup marker whose subdirectories are further groups or
// arrays.
//
// Element data moves through a bounded cache of resident chunks. Reads of
// chunks with no file yield the header's fill value; writes become durable
// when their chunk is evicted or the array is flushed or closed.
//
// Arrays, groups and their caches are not safe for concurrent use.
package zarr

import (
	"github.com/robert-malhotra/go-zarr/internal/dtype"
	"github.com/robert-malhotra/go-zarr/internal/meta"
)

// Scalar is the set of Go element types an array can store.
type Scalar = dtype.Scalar

// DataType identifies the element type recorded in an array header.
type DataType = dtype.DataType

// Endian describes the on-disk byte order of array elements.
type Endian = dtype.Endian

// Order is the axis striding used to map linear indices to N-dimensional
// positions.
type Order = dtype.Order

// Header is the array metadata persisted as .zarray JSON.
type Header = meta.Header

const (
	Int8    = dtype.Int8
	Int16   = dtype.Int16
	Int32   = dtype.Int32
	Int64   = dtype.Int64
	Uint8   = dtype.Uint8
	Uint16  = dtype.Uint16
	Uint32  = dtype.Uint32
	Uint64  = dtype.Uint64
	Float32 = dtype.Float32
	Float64 = dtype.Float64
	Bool    = dtype.Bool
)

const (
	// ColumnMajor strides axis 0 fastest. It is the default order.
	ColumnMajor = dtype.ColumnMajor
	// RowMajor strides axis N-1 fastest.
	RowMajor = dtype.RowMajor
)

const (
	// Irrelevant stores elements in the host's native byte order and never
	// swaps.
	Irrelevant = dtype.Irrelevant
	Little     = dtype.Little
	Big        = dtype.Big
)
