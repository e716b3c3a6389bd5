// Package index implements the mapping between linear element indices,
// N-dimensional positions and chunk coordinates.
//
// All functions are pure and operate on equal-rank []uint64 vectors. The
// storage order decides which axis varies fastest when decomposing a linear
// index. Flatten always strides with stride 1 at dimension 0, so an index
// round-trips through Position and Flatten unchanged only in column-major
// order; FlattenOrder is the inverse of Position for either order.
package index

import (
	"errors"
	"fmt"

	"github.com/robert-malhotra/go-zarr/internal/dtype"
)

var (
	// ErrBadDimensions is returned when input vectors disagree on rank.
	ErrBadDimensions = errors.New("mismatched dimensions")

	// ErrOutOfChunk is returned when a position does not fall inside the
	// chunk it was claimed to belong to.
	ErrOutOfChunk = errors.New("position out of chunk")
)

// Flatten evaluates a position as a mixed-radix number with stride 1 at
// dimension 0 and stride shape[0]*...*shape[i-1] at dimension i.
func Flatten(position, shape []uint64) (uint64, error) {
	if len(position) != len(shape) {
		return 0, fmt.Errorf("%w: position rank %d, shape rank %d",
			ErrBadDimensions, len(position), len(shape))
	}

	var idx uint64
	stride := uint64(1)
	for i := range position {
		idx += position[i] * stride
		stride *= shape[i]
	}
	return idx, nil
}

// FlattenOrder evaluates a position as a linear index under the given
// storage order, the inverse of Position. Column-major strides axis 0
// first, row-major axis N-1 first.
func FlattenOrder(position, shape []uint64, order dtype.Order) (uint64, error) {
	if len(position) != len(shape) {
		return 0, fmt.Errorf("%w: position rank %d, shape rank %d",
			ErrBadDimensions, len(position), len(shape))
	}
	if order != dtype.RowMajor {
		return Flatten(position, shape)
	}

	var idx uint64
	stride := uint64(1)
	for i := len(position) - 1; i >= 0; i-- {
		idx += position[i] * stride
		stride *= shape[i]
	}
	return idx, nil
}

// Position decomposes a linear index into an N-dimensional position, the
// inverse of FlattenOrder (and of Flatten in column-major order).
// Column-major order consumes axis 0 first, row-major consumes axis N-1
// first.
func Position(idx uint64, shape []uint64, order dtype.Order) []uint64 {
	position := make([]uint64, len(shape))
	if order == dtype.RowMajor {
		for i := len(shape) - 1; i >= 0; i-- {
			position[i] = idx % shape[i]
			idx /= shape[i]
		}
		return position
	}
	for i := range shape {
		position[i] = idx % shape[i]
		idx /= shape[i]
	}
	return position
}

// ChunkID locates the chunk containing a position by elementwise integer
// division with the chunk shape.
func ChunkID(position, chunks []uint64) ([]uint64, error) {
	if len(position) != len(chunks) {
		return nil, fmt.Errorf("%w: position rank %d, chunk rank %d",
			ErrBadDimensions, len(position), len(chunks))
	}

	id := make([]uint64, len(position))
	for i := range position {
		id[i] = position[i] / chunks[i]
	}
	return id, nil
}

// ChunkIDAt locates the chunk containing a linear element index.
func ChunkIDAt(idx uint64, shape, chunks []uint64, order dtype.Order) ([]uint64, error) {
	if len(shape) != len(chunks) {
		return nil, fmt.Errorf("%w: shape rank %d, chunk rank %d",
			ErrBadDimensions, len(shape), len(chunks))
	}
	return ChunkID(Position(idx, shape, order), chunks)
}

// ChunkPosition translates an array position into a position relative to
// the origin of the given chunk.
func ChunkPosition(position, id, chunks []uint64) ([]uint64, error) {
	if len(position) != len(id) || len(position) != len(chunks) {
		return nil, fmt.Errorf("%w: position rank %d, id rank %d, chunk rank %d",
			ErrBadDimensions, len(position), len(id), len(chunks))
	}

	offset := make([]uint64, len(position))
	for i := range position {
		origin := id[i] * chunks[i]
		if position[i] < origin {
			return nil, fmt.Errorf("%w: axis %d position %d before chunk origin %d",
				ErrOutOfChunk, i, position[i], origin)
		}
		offset[i] = position[i] - origin
	}
	return offset, nil
}

// ChunkOffset returns the linear offset within its chunk of the element at
// the given linear array index. Every element access funnels through here,
// so the storage order is honored exactly once per access.
func ChunkOffset(idx uint64, shape, chunks []uint64, order dtype.Order) (uint64, error) {
	position := Position(idx, shape, order)
	id, err := ChunkID(position, chunks)
	if err != nil {
		return 0, err
	}
	offset, err := ChunkPosition(position, id, chunks)
	if err != nil {
		return 0, err
	}
	return Flatten(offset, chunks)
}

// Grid returns the extent of the chunk grid covering shape, rounding each
// axis up to whole chunks.
func Grid(shape, chunks []uint64) ([]uint64, error) {
	if len(shape) != len(chunks) {
		return nil, fmt.Errorf("%w: shape rank %d, chunk rank %d",
			ErrBadDimensions, len(shape), len(chunks))
	}

	grid := make([]uint64, len(shape))
	for i := range shape {
		grid[i] = (shape[i] + chunks[i] - 1) / chunks[i]
	}
	return grid, nil
}
