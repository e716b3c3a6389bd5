// Package meta implements the array header: the metadata value object
// persisted as .zarray JSON alongside an array's chunk files.
package meta

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/google/renameio"

	"github.com/robert-malhotra/go-zarr/internal/codec"
	"github.com/robert-malhotra/go-zarr/internal/dtype"
	"github.com/robert-malhotra/go-zarr/internal/index"
)

// FileName is the name of the header file inside an array directory.
const FileName = ".zarray"

// ErrBadHeader is returned when header fields violate the metadata model.
var ErrBadHeader = errors.New("invalid array header")

// Header describes the layout of one array: its extents, chunking, element
// type, storage order, byte order, fill value and compressor. The element
// count and chunk element count are computed once at construction.
type Header struct {
	Shape    []uint64
	Chunks   []uint64
	DataType dtype.DataType
	Order    dtype.Order
	Endian   dtype.Endian

	// FillValue is substituted for elements of chunks that have no file on
	// disk. It is carried as a float64 regardless of the data type.
	FillValue float64
	HasFill   bool

	// CompressorJSON is the raw descriptor from the "compressor" field.
	// A nil value means the field was absent, a literal null selects the
	// pass-through compressor.
	CompressorJSON json.RawMessage

	size      uint64
	chunkSize uint64
	comp      codec.Compressor
}

// New builds and validates a header.
func New(shape, chunks []uint64, dt dtype.DataType, order dtype.Order, endian dtype.Endian) (*Header, error) {
	h := &Header{
		Shape:    shape,
		Chunks:   chunks,
		DataType: dt,
		Order:    order,
		Endian:   endian,
	}
	if err := h.init(); err != nil {
		return nil, err
	}
	return h, nil
}

// init checks the metadata invariants and computes the cached sizes.
func (h *Header) init() error {
	if len(h.Shape) == 0 {
		return fmt.Errorf("%w: empty shape", ErrBadHeader)
	}
	if len(h.Shape) != len(h.Chunks) {
		return fmt.Errorf("%w: shape rank %d, chunk rank %d: %w",
			ErrBadHeader, len(h.Shape), len(h.Chunks), index.ErrBadDimensions)
	}
	for i, c := range h.Chunks {
		if c == 0 {
			return fmt.Errorf("%w: chunk extent 0 on axis %d", ErrBadHeader, i)
		}
	}
	if h.DataType.Size() == 0 {
		return fmt.Errorf("%w: %v", ErrBadHeader, dtype.ErrUnknownDtype)
	}

	var err error
	if h.size, err = product(h.Shape); err != nil {
		return fmt.Errorf("%w: shape: %v", ErrBadHeader, err)
	}
	if h.chunkSize, err = product(h.Chunks); err != nil {
		return fmt.Errorf("%w: chunks: %v", ErrBadHeader, err)
	}
	return nil
}

func product(extents []uint64) (uint64, error) {
	total := uint64(1)
	for _, e := range extents {
		if e != 0 && total > math.MaxUint64/e {
			return 0, errors.New("extent product overflows uint64")
		}
		total *= e
	}
	return total, nil
}

// Size returns the total number of elements in the array.
func (h *Header) Size() uint64 { return h.size }

// ChunkSize returns the number of elements in one chunk.
func (h *Header) ChunkSize() uint64 { return h.chunkSize }

// Dimensions returns the rank of the array.
func (h *Header) Dimensions() int { return len(h.Shape) }

// Fill returns the fill value, defaulting to zero when none was set.
func (h *Header) Fill() float64 {
	if h.HasFill {
		return h.FillValue
	}
	return 0
}

// Compressor returns the codec built from the compressor descriptor. The
// codec is constructed on first use and reused afterwards.
func (h *Header) Compressor() (codec.Compressor, error) {
	if h.comp == nil {
		c, err := codec.FromDescriptor(h.CompressorJSON, h.DataType.Size())
		if err != nil {
			return nil, err
		}
		h.comp = c
	}
	return h.comp, nil
}

// Equal reports semantic equality of two headers: same layout, types,
// fill value and compressor descriptor.
func (h *Header) Equal(other *Header) bool {
	if h == nil || other == nil {
		return h == other
	}
	if len(h.Shape) != len(other.Shape) {
		return false
	}
	for i := range h.Shape {
		if h.Shape[i] != other.Shape[i] || h.Chunks[i] != other.Chunks[i] {
			return false
		}
	}
	if h.DataType != other.DataType || h.Order != other.Order || h.Endian != other.Endian {
		return false
	}
	if h.HasFill != other.HasFill || (h.HasFill && h.FillValue != other.FillValue) {
		return false
	}

	// Compare the compressors the descriptors resolve to, so an absent
	// descriptor and its explicit default form compare equal.
	hc, err := h.Compressor()
	if err != nil {
		return false
	}
	oc, err := other.Compressor()
	if err != nil {
		return false
	}
	hd, err := json.Marshal(hc.Descriptor())
	if err != nil {
		return false
	}
	od, err := json.Marshal(oc.Descriptor())
	if err != nil {
		return false
	}
	return string(hd) == string(od)
}

// headerJSON is the wire form of the .zarray file.
type headerJSON struct {
	ZarrFormat int             `json:"zarr_format"`
	Shape      []uint64        `json:"shape"`
	Chunks     []uint64        `json:"chunks"`
	DType      string          `json:"dtype"`
	Order      string          `json:"order"`
	FillValue  json.RawMessage `json:"fill_value"`
	Compressor json.RawMessage `json:"compressor"`
}

// Parse decodes a header from its JSON form. The "filters" and
// "dimension_separator" fields are ignored.
func Parse(data []byte) (*Header, error) {
	var raw headerJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadHeader, err)
	}

	dt, endian, err := dtype.Parse(raw.DType)
	if err != nil {
		return nil, err
	}

	h := &Header{
		Shape:          raw.Shape,
		Chunks:         raw.Chunks,
		DataType:       dt,
		Order:          parseOrder(raw.Order),
		Endian:         endian,
		CompressorJSON: raw.Compressor,
	}
	if err := parseFill(raw.FillValue, h); err != nil {
		return nil, err
	}
	if err := h.init(); err != nil {
		return nil, err
	}
	// Surface a bad compressor descriptor at parse time rather than on the
	// first chunk access.
	if _, err := h.Compressor(); err != nil {
		return nil, err
	}
	return h, nil
}

// parseOrder maps the order field as this format family stores it: "C"
// selects column-major and "F" row-major. Anything else defaults to
// column-major.
func parseOrder(s string) dtype.Order {
	if s == "F" {
		return dtype.RowMajor
	}
	return dtype.ColumnMajor
}

func formatOrder(o dtype.Order) string {
	if o == dtype.RowMajor {
		return "F"
	}
	return "C"
}

// parseFill decodes the fill value, accepting a number or a boolean. A
// null or absent value leaves the header without a fill value.
func parseFill(raw json.RawMessage, h *Header) error {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		h.FillValue = f
		h.HasFill = true
		return nil
	}
	var b bool
	if err := json.Unmarshal(raw, &b); err == nil {
		if b {
			h.FillValue = 1
		}
		h.HasFill = true
		return nil
	}
	return fmt.Errorf("%w: fill_value %s is not a number or boolean", ErrBadHeader, raw)
}

// MarshalJSON encodes the header in its .zarray wire form.
func (h *Header) MarshalJSON() ([]byte, error) {
	raw := headerJSON{
		ZarrFormat: 2,
		Shape:      h.Shape,
		Chunks:     h.Chunks,
		DType:      dtype.Format(h.DataType, h.Endian),
		Order:      formatOrder(h.Order),
	}

	fill, err := h.marshalFill()
	if err != nil {
		return nil, err
	}
	raw.FillValue = fill

	comp := h.CompressorJSON
	if comp == nil {
		c, err := h.Compressor()
		if err != nil {
			return nil, err
		}
		if comp, err = json.Marshal(c.Descriptor()); err != nil {
			return nil, err
		}
	}
	raw.Compressor = comp

	return json.Marshal(raw)
}

func (h *Header) marshalFill() (json.RawMessage, error) {
	if !h.HasFill {
		return json.RawMessage("null"), nil
	}
	if h.DataType == dtype.Bool {
		return json.Marshal(h.FillValue != 0)
	}
	return json.Marshal(h.FillValue)
}

// Read loads and parses the header file of an array directory.
func Read(dir string) (*Header, error) {
	path := Path(dir)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading header %s: %w", path, err)
	}
	return Parse(data)
}

// Write serializes the header into the array directory, replacing the
// header file atomically.
func (h *Header) Write(dir string) error {
	data, err := json.MarshalIndent(h, "", "    ")
	if err != nil {
		return err
	}
	path := Path(dir)
	if err := renameio.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("writing header %s: %w", path, err)
	}
	return nil
}

// Path returns the header file path for an array directory.
func Path(dir string) string {
	return filepath.Join(dir, FileName)
}
