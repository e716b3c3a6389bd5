package dtype

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Scalar is the set of Go types an array can be parameterized over.
type Scalar interface {
	int8 | int16 | int32 | int64 |
		uint8 | uint16 | uint32 | uint64 |
		float32 | float64 | bool
}

// TypeOf returns the DataType matching the Go type parameter.
func TypeOf[T Scalar]() DataType {
	var zero T
	switch any(zero).(type) {
	case int8:
		return Int8
	case int16:
		return Int16
	case int32:
		return Int32
	case int64:
		return Int64
	case uint8:
		return Uint8
	case uint16:
		return Uint16
	case uint32:
		return Uint32
	case uint64:
		return Uint64
	case float32:
		return Float32
	case float64:
		return Float64
	default:
		return Bool
	}
}

// FromFloat converts a header fill value to a concrete element value.
// The fill value is carried as a float64 regardless of the target type, so
// integer values outside float64's exact range lose precision. Booleans
// treat any non-zero value as true.
func FromFloat[T Scalar](f float64) T {
	var zero T
	switch any(zero).(type) {
	case int8:
		return any(int8(f)).(T)
	case int16:
		return any(int16(f)).(T)
	case int32:
		return any(int32(f)).(T)
	case int64:
		return any(int64(f)).(T)
	case uint8:
		return any(uint8(f)).(T)
	case uint16:
		return any(uint16(f)).(T)
	case uint32:
		return any(uint32(f)).(T)
	case uint64:
		return any(uint64(f)).(T)
	case float32:
		return any(float32(f)).(T)
	case float64:
		return any(f).(T)
	default:
		return any(f != 0).(T)
	}
}

// Bytes serializes elements into their wire representation using the given
// byte order. Booleans are stored as a single byte, 0 or 1.
func Bytes[T Scalar](src []T, order binary.ByteOrder) []byte {
	switch s := any(src).(type) {
	case []int8:
		out := make([]byte, len(s))
		for i, v := range s {
			out[i] = byte(v)
		}
		return out
	case []uint8:
		out := make([]byte, len(s))
		copy(out, s)
		return out
	case []bool:
		out := make([]byte, len(s))
		for i, v := range s {
			if v {
				out[i] = 1
			}
		}
		return out
	case []int16:
		out := make([]byte, 2*len(s))
		for i, v := range s {
			order.PutUint16(out[2*i:], uint16(v))
		}
		return out
	case []uint16:
		out := make([]byte, 2*len(s))
		for i, v := range s {
			order.PutUint16(out[2*i:], v)
		}
		return out
	case []int32:
		out := make([]byte, 4*len(s))
		for i, v := range s {
			order.PutUint32(out[4*i:], uint32(v))
		}
		return out
	case []uint32:
		out := make([]byte, 4*len(s))
		for i, v := range s {
			order.PutUint32(out[4*i:], v)
		}
		return out
	case []float32:
		out := make([]byte, 4*len(s))
		for i, v := range s {
			order.PutUint32(out[4*i:], math.Float32bits(v))
		}
		return out
	case []int64:
		out := make([]byte, 8*len(s))
		for i, v := range s {
			order.PutUint64(out[8*i:], uint64(v))
		}
		return out
	case []uint64:
		out := make([]byte, 8*len(s))
		for i, v := range s {
			order.PutUint64(out[8*i:], v)
		}
		return out
	case []float64:
		out := make([]byte, 8*len(s))
		for i, v := range s {
			order.PutUint64(out[8*i:], math.Float64bits(v))
		}
		return out
	}
	return nil
}

// Elements deserializes wire bytes into dst using the given byte order.
// The byte length must be exactly len(dst) elements wide.
func Elements[T Scalar](dst []T, src []byte, order binary.ByteOrder) error {
	width := TypeOf[T]().Size()
	if len(src) != len(dst)*width {
		return fmt.Errorf("element buffer length mismatch: %d bytes for %d elements of width %d",
			len(src), len(dst), width)
	}

	switch d := any(dst).(type) {
	case []int8:
		for i := range d {
			d[i] = int8(src[i])
		}
	case []uint8:
		copy(d, src)
	case []bool:
		for i := range d {
			d[i] = src[i] != 0
		}
	case []int16:
		for i := range d {
			d[i] = int16(order.Uint16(src[2*i:]))
		}
	case []uint16:
		for i := range d {
			d[i] = order.Uint16(src[2*i:])
		}
	case []int32:
		for i := range d {
			d[i] = int32(order.Uint32(src[4*i:]))
		}
	case []uint32:
		for i := range d {
			d[i] = order.Uint32(src[4*i:])
		}
	case []float32:
		for i := range d {
			d[i] = math.Float32frombits(order.Uint32(src[4*i:]))
		}
	case []int64:
		for i := range d {
			d[i] = int64(order.Uint64(src[8*i:]))
		}
	case []uint64:
		for i := range d {
			d[i] = order.Uint64(src[8*i:])
		}
	case []float64:
		for i := range d {
			d[i] = math.Float64frombits(order.Uint64(src[8*i:]))
		}
	}
	return nil
}
