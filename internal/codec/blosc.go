package codec

import (
	"encoding/binary"
	"fmt"
	"sync"

	"github.com/klauspost/compress/zstd"
)

// Blosc v1 container layout: a 16 byte header, then (unless the buffer was
// stored as a plain copy) one uint32 start offset per block followed by the
// blocks themselves, each prefixed with its compressed length.
//
//	byte  0      format version
//	byte  1      backend format version
//	byte  2      flags: bit 0 byte shuffle, bit 1 plain copy,
//	             bit 2 bit shuffle, bits 5-7 backend format code
//	byte  3      element width
//	bytes 4-7    uncompressed length (little endian)
//	bytes 8-11   block size (little endian)
//	bytes 12-15  total frame length (little endian)
const (
	bloscHeaderSize    = 16
	bloscFormatVersion = 2

	flagShuffle    = 0x1
	flagMemcpy     = 0x2
	flagBitShuffle = 0x4

	formatBloscLZ = 0
	formatLZ4     = 1
	formatSnappy  = 2
	formatZlib    = 3
	formatZstd    = 4
)

// BloscOptions are the recognized options of the blosc descriptor.
type BloscOptions struct {
	ID        string `json:"id"`
	CLevel    int    `json:"clevel"`
	Shuffle   int    `json:"shuffle"`
	CName     string `json:"cname"`
	BlockSize int    `json:"blocksize"`
}

// Blosc frames chunk buffers in the Blosc v1 container.
type Blosc struct {
	BloscOptions

	typesize int

	zencOnce sync.Once
	zenc     *zstd.Encoder
	zencErr  error
}

// NewBlosc returns a Blosc compressor with default options: compression
// level 5, byte shuffle enabled, lz4 backend, automatic block size.
func NewBlosc(typesize int) *Blosc {
	if typesize < 1 {
		typesize = 1
	}
	return &Blosc{
		BloscOptions: BloscOptions{
			ID:        "blosc",
			CLevel:    5,
			Shuffle:   1,
			CName:     "lz4",
			BlockSize: 0,
		},
		typesize: typesize,
	}
}

func (b *Blosc) validate() error {
	if _, ok := backendFormats[b.CName]; !ok {
		return fmt.Errorf("%w: blosc cname %q", ErrUnknownCompressor, b.CName)
	}
	if b.Shuffle == 2 {
		return fmt.Errorf("%w: blosc bit shuffle", ErrUnknownCompressor)
	}
	if b.Shuffle < 0 || b.Shuffle > 2 {
		return fmt.Errorf("%w: blosc shuffle mode %d", ErrUnknownCompressor, b.Shuffle)
	}
	if b.CLevel < 0 || b.CLevel > 9 {
		return fmt.Errorf("%w: blosc compression level %d", ErrUnknownCompressor, b.CLevel)
	}
	return nil
}

// Descriptor returns the JSON value for the header's compressor field.
func (b *Blosc) Descriptor() any {
	return b.BloscOptions
}

// backendFormats maps cname options to container format codes. lz4 and
// lz4hc share a block format and therefore a code.
var backendFormats = map[string]byte{
	"lz4":    formatLZ4,
	"lz4hc":  formatLZ4,
	"snappy": formatSnappy,
	"zlib":   formatZlib,
	"zstd":   formatZstd,
}

// headerTypesize clamps the element width to the single header byte.
func (b *Blosc) headerTypesize() byte {
	if b.typesize > 255 {
		return 1
	}
	return byte(b.typesize)
}

// blockSizeFor picks the block length for a buffer. An explicit option
// wins, rounded down to whole elements; otherwise the buffer is framed as
// a single block.
func (b *Blosc) blockSizeFor(nbytes int) int {
	bs := b.BlockSize
	if bs <= 0 || bs > nbytes {
		return nbytes
	}
	if b.typesize > 1 {
		bs -= bs % b.typesize
		if bs < b.typesize {
			bs = b.typesize
		}
	}
	return bs
}

// Compress frames src in a Blosc container. Buffers that do not shrink
// under the backend are stored as a plain copy, mirroring the container's
// incompressible fallback.
func (b *Blosc) Compress(src []byte) ([]byte, error) {
	format := backendFormats[b.CName]

	if len(src) == 0 || b.CLevel == 0 {
		return b.memcpyFrame(src, format), nil
	}

	payload := src
	flags := format << 5
	if b.Shuffle == 1 && b.typesize > 1 {
		payload = shuffleBytes(src, b.typesize)
		flags |= flagShuffle
	}

	blockSize := b.blockSizeFor(len(payload))
	nblocks := (len(payload) + blockSize - 1) / blockSize

	blocks := make([][]byte, 0, nblocks)
	total := bloscHeaderSize + 4*nblocks
	for off := 0; off < len(payload); off += blockSize {
		end := off + blockSize
		if end > len(payload) {
			end = len(payload)
		}
		raw := payload[off:end]

		comp, err := b.compressBlock(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: blosc %s: %v", ErrEncode, b.CName, err)
		}
		if comp == nil || len(comp) >= len(raw) {
			// A block stored with its raw length is recognized as
			// uncompressed on decode.
			comp = raw
		}
		blocks = append(blocks, comp)
		total += 4 + len(comp)
	}

	if total >= bloscHeaderSize+len(src) {
		return b.memcpyFrame(src, format), nil
	}

	frame := make([]byte, total)
	b.putHeader(frame, flags, len(src), blockSize, total)

	stream := bloscHeaderSize + 4*nblocks
	for i, block := range blocks {
		binary.LittleEndian.PutUint32(frame[bloscHeaderSize+4*i:], uint32(stream))
		binary.LittleEndian.PutUint32(frame[stream:], uint32(len(block)))
		copy(frame[stream+4:], block)
		stream += 4 + len(block)
	}
	return frame, nil
}

// memcpyFrame stores src verbatim behind a header with the plain copy flag.
func (b *Blosc) memcpyFrame(src []byte, format byte) []byte {
	frame := make([]byte, bloscHeaderSize+len(src))
	b.putHeader(frame, format<<5|flagMemcpy, len(src), len(src), len(frame))
	copy(frame[bloscHeaderSize:], src)
	return frame
}

func (b *Blosc) putHeader(frame []byte, flags byte, nbytes, blockSize, cbytes int) {
	frame[0] = bloscFormatVersion
	frame[1] = 1
	frame[2] = flags
	frame[3] = b.headerTypesize()
	binary.LittleEndian.PutUint32(frame[4:], uint32(nbytes))
	binary.LittleEndian.PutUint32(frame[8:], uint32(blockSize))
	binary.LittleEndian.PutUint32(frame[12:], uint32(cbytes))
}

// Valid reports whether src looks like a Blosc frame. The strongest signal
// is the frame length recorded in the header matching the buffer length.
func Valid(src []byte) bool {
	if len(src) < bloscHeaderSize {
		return false
	}
	version := src[0]
	if version == 0 || version > bloscFormatVersion {
		return false
	}
	flags := src[2]
	if flags>>5 > formatZstd {
		return false
	}
	nbytes := binary.LittleEndian.Uint32(src[4:])
	blockSize := binary.LittleEndian.Uint32(src[8:])
	cbytes := binary.LittleEndian.Uint32(src[12:])
	if cbytes != uint32(len(src)) {
		return false
	}
	if flags&flagMemcpy != 0 {
		return cbytes == nbytes+bloscHeaderSize
	}
	return nbytes > 0 && blockSize > 0
}

// Decompress recovers the raw buffer from a Blosc frame. Input that fails
// frame validation is returned unchanged so that chunk files holding raw
// element bytes remain readable.
func (b *Blosc) Decompress(src []byte) ([]byte, error) {
	if !Valid(src) {
		return src, nil
	}

	flags := src[2]
	typesize := int(src[3])
	nbytes := int(binary.LittleEndian.Uint32(src[4:]))
	blockSize := int(binary.LittleEndian.Uint32(src[8:]))

	if flags&flagMemcpy != 0 {
		out := make([]byte, nbytes)
		copy(out, src[bloscHeaderSize:])
		return out, nil
	}
	if flags&flagBitShuffle != 0 {
		return nil, fmt.Errorf("%w: blosc bit shuffle frame", ErrDecode)
	}
	format := flags >> 5
	if format == formatBloscLZ {
		return nil, fmt.Errorf("%w: blosclz frame", ErrDecode)
	}

	nblocks := (nbytes + blockSize - 1) / blockSize
	if len(src) < bloscHeaderSize+4*nblocks {
		return nil, fmt.Errorf("%w: truncated block index", ErrDecode)
	}

	out := make([]byte, nbytes)
	for i := 0; i < nblocks; i++ {
		start := int(binary.LittleEndian.Uint32(src[bloscHeaderSize+4*i:]))
		if start < 0 || start+4 > len(src) {
			return nil, fmt.Errorf("%w: block %d start out of frame", ErrDecode, i)
		}
		csize := int(binary.LittleEndian.Uint32(src[start:]))
		if start+4+csize > len(src) {
			return nil, fmt.Errorf("%w: block %d overruns frame", ErrDecode, i)
		}
		data := src[start+4 : start+4+csize]

		rawLen := blockSize
		if i == nblocks-1 {
			rawLen = nbytes - i*blockSize
		}
		dst := out[i*blockSize : i*blockSize+rawLen]

		if csize == rawLen {
			copy(dst, data)
			continue
		}
		if err := decompressBlock(format, data, dst); err != nil {
			return nil, fmt.Errorf("%w: block %d: %v", ErrDecode, i, err)
		}
	}

	if flags&flagShuffle != 0 && typesize > 1 {
		out = unshuffleBytes(out, typesize)
	}
	return out, nil
}
