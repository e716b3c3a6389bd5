package zarr

import (
	"encoding/json"

	"github.com/robert-malhotra/go-zarr/internal/chunk"
	"github.com/robert-malhotra/go-zarr/internal/codec"
	"github.com/robert-malhotra/go-zarr/internal/dtype"
)

// Option configures array creation.
type Option func(*settings)

type settings struct {
	order     dtype.Order
	endian    dtype.Endian
	fill      float64
	hasFill   bool
	noComp    bool
	blosc     codec.BloscOptions
	cacheSize int
}

func newSettings(opts []Option) *settings {
	s := &settings{
		order:     dtype.ColumnMajor,
		endian:    dtype.Irrelevant,
		fill:      0,
		hasFill:   true,
		blosc:     codec.NewBlosc(1).BloscOptions,
		cacheSize: chunk.DefaultCacheSize,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// descriptor renders the configured compressor as a header descriptor.
func (s *settings) descriptor() (json.RawMessage, error) {
	if s.noComp {
		return json.RawMessage("null"), nil
	}
	return json.Marshal(s.blosc)
}

// WithOrder sets the storage order. The default is column-major.
func WithOrder(o Order) Option {
	return func(s *settings) {
		s.order = o
	}
}

// WithEndian sets the on-disk byte order of elements. The default stores
// elements in the host's native order.
func WithEndian(e Endian) Option {
	return func(s *settings) {
		s.endian = e
	}
}

// WithFillValue sets the value read from chunks that have no file on disk.
// The default is zero.
func WithFillValue(v float64) Option {
	return func(s *settings) {
		s.fill = v
		s.hasFill = true
	}
}

// WithoutCompression stores chunk files as raw element bytes.
func WithoutCompression() Option {
	return func(s *settings) {
		s.noComp = true
	}
}

// WithCompressionLevel sets the blosc compression level (0-9, default 5).
// Level 0 stores chunks uncompressed inside the blosc container.
func WithCompressionLevel(level int) Option {
	return func(s *settings) {
		s.blosc.CLevel = level
	}
}

// WithCompressorName selects the blosc backend: "lz4" (default), "lz4hc",
// "snappy", "zlib" or "zstd".
func WithCompressorName(name string) Option {
	return func(s *settings) {
		s.blosc.CName = name
	}
}

// WithShuffle sets the blosc shuffle mode: 0 disables the filter, 1
// (default) shuffles bytes across elements.
func WithShuffle(mode int) Option {
	return func(s *settings) {
		s.blosc.Shuffle = mode
	}
}

// WithBlockSize sets the blosc block size in bytes. The default of 0
// frames each chunk as a single block.
func WithBlockSize(n int) Option {
	return func(s *settings) {
		s.blosc.BlockSize = n
	}
}

// WithCacheSize bounds the number of chunks the array keeps resident.
// The default is 6.
func WithCacheSize(n int) Option {
	return func(s *settings) {
		s.cacheSize = n
	}
}
