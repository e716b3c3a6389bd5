// Package dtype provides the element type model shared by headers, chunks
// and the codec pipeline.
//
// A DataType names one of the fixed-width element types an array can store.
// Endian describes the on-disk byte order and Order the axis striding used
// when laying elements out in N-dimensional space. The package also encodes
// and decodes the Zarr v2 dtype strings ("<i4", ">f8", "|u1", "?").
package dtype

import (
	"encoding/binary"
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownDtype is returned when a dtype string cannot be parsed.
var ErrUnknownDtype = errors.New("unknown dtype")

// DataType identifies the element type of an array.
type DataType uint8

const (
	Int8 DataType = iota
	Int16
	Int32
	Int64
	Uint8
	Uint16
	Uint32
	Uint64
	Float32
	Float64
	Bool
)

// Size returns the width of a single element in bytes.
func (d DataType) Size() int {
	switch d {
	case Int8, Uint8, Bool:
		return 1
	case Int16, Uint16:
		return 2
	case Int32, Uint32, Float32:
		return 4
	case Int64, Uint64, Float64:
		return 8
	}
	return 0
}

func (d DataType) String() string {
	switch d {
	case Int8:
		return "int8"
	case Int16:
		return "int16"
	case Int32:
		return "int32"
	case Int64:
		return "int64"
	case Uint8:
		return "uint8"
	case Uint16:
		return "uint16"
	case Uint32:
		return "uint32"
	case Uint64:
		return "uint64"
	case Float32:
		return "float32"
	case Float64:
		return "float64"
	case Bool:
		return "bool"
	}
	return fmt.Sprintf("DataType(%d)", uint8(d))
}

// Endian describes the byte order elements use on disk.
// Irrelevant means no swap is ever performed; elements are stored in the
// host's native order.
type Endian uint8

const (
	Irrelevant Endian = iota
	Little
	Big
)

// ByteOrder returns the binary.ByteOrder matching the endian value.
// Irrelevant maps to the host's native order.
func (e Endian) ByteOrder() binary.ByteOrder {
	switch e {
	case Little:
		return binary.LittleEndian
	case Big:
		return binary.BigEndian
	}
	return binary.NativeEndian
}

func (e Endian) String() string {
	switch e {
	case Little:
		return "little"
	case Big:
		return "big"
	}
	return "irrelevant"
}

// prefix returns the dtype string prefix for the endian value.
func (e Endian) prefix() string {
	switch e {
	case Little:
		return "<"
	case Big:
		return ">"
	}
	return "|"
}

// Order is the axis strider used when flattening N-dimensional positions.
// Column-major means axis 0 is the fastest varying dimension, row-major
// means axis N-1 is.
type Order uint8

const (
	ColumnMajor Order = iota
	RowMajor
)

func (o Order) String() string {
	if o == RowMajor {
		return "row-major"
	}
	return "column-major"
}

// dtype string codes, keyed by the suffix after the optional endian prefix.
var codes = map[string]DataType{
	"i1": Int8,
	"i2": Int16,
	"i4": Int32,
	"i8": Int64,
	"u1": Uint8,
	"u2": Uint16,
	"u4": Uint32,
	"u8": Uint64,
	"f4": Float32,
	"f8": Float64,
	"?":  Bool,
}

// Parse decodes a Zarr v2 dtype string into its data type and endianness.
// The optional prefix "<", ">" or "|" selects little, big or irrelevant
// byte order; absence of a prefix also means irrelevant.
func Parse(s string) (DataType, Endian, error) {
	endian := Irrelevant
	rest := s
	switch {
	case strings.HasPrefix(s, "<"):
		endian = Little
		rest = s[1:]
	case strings.HasPrefix(s, ">"):
		endian = Big
		rest = s[1:]
	case strings.HasPrefix(s, "|"):
		rest = s[1:]
	}

	dt, ok := codes[rest]
	if !ok {
		return 0, 0, fmt.Errorf("%w: %q", ErrUnknownDtype, s)
	}
	return dt, endian, nil
}

// Format encodes a data type and endianness as a Zarr v2 dtype string.
func Format(d DataType, e Endian) string {
	var code string
	switch d {
	case Int8:
		code = "i1"
	case Int16:
		code = "i2"
	case Int32:
		code = "i4"
	case Int64:
		code = "i8"
	case Uint8:
		code = "u1"
	case Uint16:
		code = "u2"
	case Uint32:
		code = "u4"
	case Uint64:
		code = "u8"
	case Float32:
		code = "f4"
	case Float64:
		code = "f8"
	case Bool:
		code = "?"
	}
	return e.prefix() + code
}
