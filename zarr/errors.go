package zarr

import (
	"errors"

	"github.com/robert-malhotra/go-zarr/internal/chunk"
	"github.com/robert-malhotra/go-zarr/internal/codec"
	"github.com/robert-malhotra/go-zarr/internal/dtype"
	"github.com/robert-malhotra/go-zarr/internal/index"
)

// Common errors
var (
	ErrOutOfRange    = errors.New("element index out of range")
	ErrDtypeMismatch = errors.New("array dtype mismatch")
	ErrNotCollection = errors.New("directory is not an array or group")
	ErrNotGroup      = errors.New("directory is not a group")

	ErrBadDimensions     = index.ErrBadDimensions
	ErrOutOfChunk        = index.ErrOutOfChunk
	ErrBadChunkName      = chunk.ErrBadChunkName
	ErrNotCached         = chunk.ErrNotCached
	ErrChunkDecode       = codec.ErrDecode
	ErrChunkEncode       = codec.ErrEncode
	ErrUnknownCompressor = codec.ErrUnknownCompressor
	ErrUnknownDtype      = dtype.ErrUnknownDtype
)
