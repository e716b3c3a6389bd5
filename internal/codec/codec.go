// Package codec implements the compressor stage of the chunk pipeline.
//
// A Compressor translates between a raw element buffer and the serialized
// bytes stored in a chunk file. Two variants exist: Null, which passes
// bytes through untouched, and Blosc, which frames the buffer in a Blosc
// v1 container with a pluggable compression backend and an optional byte
// shuffle filter.
//
// Compressors are built from the JSON descriptor carried in an array
// header's "compressor" field. A null descriptor selects Null; an object
// with an "id" of "blosc" selects Blosc with its recognized options.
package codec

import (
	"encoding/json"
	"errors"
	"fmt"
)

var (
	// ErrUnknownCompressor is returned for an unrecognized compressor id.
	ErrUnknownCompressor = errors.New("unknown compressor")

	// ErrDecode is returned when a well-formed chunk file fails to decode.
	ErrDecode = errors.New("chunk decode failed")

	// ErrEncode is returned when a chunk buffer fails to serialize.
	ErrEncode = errors.New("chunk encode failed")
)

// Compressor translates between raw element buffers and chunk file bytes.
type Compressor interface {
	// Compress serializes a raw buffer for storage.
	Compress(src []byte) ([]byte, error)

	// Decompress recovers the raw buffer from stored bytes. Input that is
	// not a valid frame for the compressor is returned unchanged, so files
	// holding raw element bytes remain readable.
	Decompress(src []byte) ([]byte, error)

	// Descriptor returns the JSON value emitted in the header's
	// "compressor" field.
	Descriptor() any
}

// Null is the identity compressor, selected by a null descriptor.
type Null struct{}

func (Null) Compress(src []byte) ([]byte, error) { return src, nil }

func (Null) Decompress(src []byte) ([]byte, error) { return src, nil }

func (Null) Descriptor() any { return nil }

// FromDescriptor builds a compressor from a header descriptor. A missing
// descriptor selects Blosc with default options, an explicit null selects
// Null. The element width is needed by Blosc's shuffle filter.
func FromDescriptor(raw json.RawMessage, typesize int) (Compressor, error) {
	if len(raw) == 0 {
		return NewBlosc(typesize), nil
	}

	var probe any
	if err := json.Unmarshal(raw, &probe); err != nil {
		return nil, fmt.Errorf("compressor descriptor: %w", err)
	}
	if probe == nil {
		return Null{}, nil
	}

	var head struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(raw, &head); err != nil {
		return nil, fmt.Errorf("compressor descriptor: %w", err)
	}

	switch head.ID {
	case "blosc":
		b := NewBlosc(typesize)
		if err := json.Unmarshal(raw, &b.BloscOptions); err != nil {
			return nil, fmt.Errorf("blosc descriptor: %w", err)
		}
		if err := b.validate(); err != nil {
			return nil, err
		}
		return b, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownCompressor, head.ID)
	}
}
