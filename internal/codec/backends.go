package codec

import (
	"bytes"
	"compress/zlib"
	"fmt"
	"io"
	"sync"

	"github.com/golang/snappy"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// compressBlock runs one block through the configured backend. A nil result
// means the block did not compress; the caller stores it raw.
func (b *Blosc) compressBlock(raw []byte) ([]byte, error) {
	switch b.CName {
	case "lz4":
		dst := make([]byte, lz4.CompressBlockBound(len(raw)))
		var c lz4.Compressor
		n, err := c.CompressBlock(raw, dst)
		if err != nil {
			return nil, err
		}
		if n == 0 {
			return nil, nil
		}
		return dst[:n], nil

	case "lz4hc":
		dst := make([]byte, lz4.CompressBlockBound(len(raw)))
		c := lz4.CompressorHC{Level: lz4.CompressionLevel(1 << (8 + b.CLevel))}
		n, err := c.CompressBlock(raw, dst)
		if err != nil {
			return nil, err
		}
		if n == 0 {
			return nil, nil
		}
		return dst[:n], nil

	case "snappy":
		return snappy.Encode(nil, raw), nil

	case "zlib":
		var buf bytes.Buffer
		w, err := zlib.NewWriterLevel(&buf, b.CLevel)
		if err != nil {
			return nil, err
		}
		if _, err := w.Write(raw); err != nil {
			return nil, err
		}
		if err := w.Close(); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil

	case "zstd":
		enc, err := b.zstdEncoder()
		if err != nil {
			return nil, err
		}
		return enc.EncodeAll(raw, nil), nil
	}
	return nil, fmt.Errorf("%w: blosc cname %q", ErrUnknownCompressor, b.CName)
}

// decompressBlock expands one compressed block into dst, which is sized to
// the expected raw length. The backend is chosen by the frame's format
// code, not the configured cname, so frames written with a different
// backend still decode.
func decompressBlock(format byte, data, dst []byte) error {
	switch format {
	case formatLZ4:
		n, err := lz4.UncompressBlock(data, dst)
		if err != nil {
			return err
		}
		if n != len(dst) {
			return fmt.Errorf("lz4 block expanded to %d bytes, want %d", n, len(dst))
		}
		return nil

	case formatSnappy:
		out, err := snappy.Decode(nil, data)
		if err != nil {
			return err
		}
		if len(out) != len(dst) {
			return fmt.Errorf("snappy block expanded to %d bytes, want %d", len(out), len(dst))
		}
		copy(dst, out)
		return nil

	case formatZlib:
		r, err := zlib.NewReader(bytes.NewReader(data))
		if err != nil {
			return err
		}
		defer r.Close()
		if _, err := io.ReadFull(r, dst); err != nil {
			return err
		}
		return nil

	case formatZstd:
		dec, err := zstdDecoder()
		if err != nil {
			return err
		}
		out, err := dec.DecodeAll(data, nil)
		if err != nil {
			return err
		}
		if len(out) != len(dst) {
			return fmt.Errorf("zstd block expanded to %d bytes, want %d", len(out), len(dst))
		}
		copy(dst, out)
		return nil
	}
	return fmt.Errorf("unsupported backend format %d", format)
}

// zstdEncoder lazily builds the encoder for this compressor's level.
func (b *Blosc) zstdEncoder() (*zstd.Encoder, error) {
	b.zencOnce.Do(func() {
		b.zenc, b.zencErr = zstd.NewWriter(nil,
			zstd.WithEncoderLevel(zstd.EncoderLevelFromZstd(b.CLevel)))
	})
	return b.zenc, b.zencErr
}

var (
	zdecOnce sync.Once
	zdec     *zstd.Decoder
	zdecErr  error
)

// zstdDecoder lazily builds the shared stateless decoder.
func zstdDecoder() (*zstd.Decoder, error) {
	zdecOnce.Do(func() {
		zdec, zdecErr = zstd.NewReader(nil)
	})
	return zdec, zdecErr
}
